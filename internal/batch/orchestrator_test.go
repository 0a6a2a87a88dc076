package batch_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/phototag/internal/batch"
	"github.com/JaimeStill/phototag/internal/classifications"
	"github.com/JaimeStill/phototag/internal/classifier"
	"github.com/JaimeStill/phototag/internal/events"
	"github.com/JaimeStill/phototag/internal/photos"
)

type fakePhotos struct {
	selected  []photos.Photo
	selectErr error

	gotLimit  int
	gotPolicy classifications.ClaimPolicy
}

func (f *fakePhotos) SelectEligible(_ context.Context, limit int, policy classifications.ClaimPolicy) ([]photos.Photo, error) {
	f.gotLimit = limit
	f.gotPolicy = policy
	return f.selected, f.selectErr
}

func (f *fakePhotos) Find(_ context.Context, id uuid.UUID) (*photos.Photo, error) {
	for _, p := range f.selected {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, photos.ErrNotFound
}

type fakeStore struct {
	mu       sync.Mutex
	lost     map[uuid.UUID]bool
	claimErr map[uuid.UUID]error
	saveErr  map[uuid.UUID]error

	claims   []classifications.ClaimPolicy
	saved    map[uuid.UUID]classifications.Result
	failures map[uuid.UUID]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		lost:     map[uuid.UUID]bool{},
		claimErr: map[uuid.UUID]error{},
		saveErr:  map[uuid.UUID]error{},
		saved:    map[uuid.UUID]classifications.Result{},
		failures: map[uuid.UUID]string{},
	}
}

func (f *fakeStore) Claim(_ context.Context, id uuid.UUID, policy classifications.ClaimPolicy) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.claims = append(f.claims, policy)
	if err := f.claimErr[id]; err != nil {
		return false, err
	}
	return !f.lost[id], nil
}

func (f *fakeStore) Save(_ context.Context, id uuid.UUID, result classifications.Result) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.saveErr[id]; err != nil {
		return err
	}
	f.saved[id] = result
	return nil
}

func (f *fakeStore) SaveFailure(_ context.Context, id uuid.UUID, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[id] = message
	return nil
}

type classifierFunc func(ctx context.Context, photoID uuid.UUID, imageURL string) (*classifier.Outcome, error)

func (f classifierFunc) Classify(ctx context.Context, photoID uuid.UUID, imageURL string) (*classifier.Outcome, error) {
	return f(ctx, photoID, imageURL)
}

type fakeObserver struct {
	calls   int
	stats   batch.Stats
	aborted bool
}

func (f *fakeObserver) ObserveBatch(processed, successful, failed, skipped int, aborted bool) {
	f.calls++
	f.stats = batch.Stats{Processed: processed, Successful: successful, Failed: failed, Skipped: skipped}
	f.aborted = aborted
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(t *testing.T) batch.Config {
	t.Helper()
	cfg := batch.Config{Interval: batch.IntervalOff}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("finalize config: %v", err)
	}
	return cfg
}

func photo(locator string) photos.Photo {
	meta, _ := json.Marshal(map[string]string{"image_url": locator})
	return photos.Photo{ID: uuid.New(), Metadata: meta, Status: classifications.Pending}
}

func validResult() classifications.Result {
	return classifications.Result{
		Content:    []string{"sky", "beach"},
		People:     []string{"no_people"},
		Mood:       []string{"calm"},
		Color:      []string{"blue", "white"},
		Quality:    []string{"sharp", "bright"},
		Confidence: 0.8,
	}
}

func succeed(tier classifier.Tier) classifierFunc {
	return func(context.Context, uuid.UUID, string) (*classifier.Outcome, error) {
		return &classifier.Outcome{
			Result:   validResult(),
			Tier:     tier,
			Model:    "test-model",
			Duration: 15 * time.Millisecond,
		}, nil
	}
}

type harness struct {
	photos   *fakePhotos
	store    *fakeStore
	capture  *events.Capture
	observer *fakeObserver
	orch     *batch.Orchestrator
}

func newHarness(t *testing.T, selected []photos.Photo, c batch.Classifier) *harness {
	t.Helper()
	h := &harness{
		photos:   &fakePhotos{selected: selected},
		store:    newFakeStore(),
		capture:  &events.Capture{},
		observer: &fakeObserver{},
	}
	h.orch = batch.New(batch.Deps{
		Photos:     h.photos,
		Store:      h.store,
		Classifier: c,
		Resolver:   photos.NewResolver(nil, discard()),
		Recorder:   h.capture,
		Observer:   h.observer,
	}, testConfig(t), discard())
	return h
}

func TestRunBatchIsolatesItemFailures(t *testing.T) {
	ok := photo("https://img.example/ok.jpg")
	invalid := photo("https://img.example/invalid.jpg")
	lost := photo("https://img.example/lost.jpg")
	noLocator := photos.Photo{ID: uuid.New(), Metadata: json.RawMessage(`{}`)}
	unsaved := photo("https://img.example/unsaved.jpg")

	c := classifierFunc(func(ctx context.Context, id uuid.UUID, url string) (*classifier.Outcome, error) {
		if id == invalid.ID {
			return nil, &classifier.TierError{
				Tier: classifier.Primary,
				Err:  &classifier.ValidationError{Field: "content", Reason: "too few tags"},
			}
		}
		return succeed(classifier.Primary)(ctx, id, url)
	})

	h := newHarness(t, []photos.Photo{ok, invalid, lost, noLocator, unsaved}, c)
	h.store.lost[lost.ID] = true
	h.store.saveErr[unsaved.ID] = errors.New("connection reset")

	stats, err := h.orch.RunBatch(context.Background(), 5)
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}

	want := batch.Stats{Processed: 4, Successful: 1, Failed: 3, Skipped: 1}
	if stats != want {
		t.Errorf("stats: got %+v, want %+v", stats, want)
	}

	if _, saved := h.store.saved[ok.ID]; !saved {
		t.Error("successful photo was not saved")
	}

	for _, id := range []uuid.UUID{invalid.ID, noLocator.ID, unsaved.ID} {
		if _, failed := h.store.failures[id]; !failed {
			t.Errorf("photo %s: failure not saved", id)
		}
	}
	if _, failed := h.store.failures[lost.ID]; failed {
		t.Error("lost claim must not be marked failed")
	}

	if msg := h.store.failures[unsaved.ID]; !strings.Contains(msg, "connection reset") {
		t.Errorf("failure message: got %q", msg)
	}

	var successes, errs int
	for _, e := range h.capture.Events() {
		switch e.Kind {
		case events.Success:
			successes++
			if e.PhotoID != ok.ID {
				t.Errorf("success event for %s", e.PhotoID)
			}
			if e.Confidence == nil || *e.Confidence != 0.8 {
				t.Errorf("success confidence: got %v", e.Confidence)
			}
			if e.Tier != string(classifier.Primary) {
				t.Errorf("success tier: got %q", e.Tier)
			}
		case events.Error:
			errs++
			if e.PhotoID == invalid.ID && e.Tier != string(classifier.Primary) {
				t.Errorf("validation error tier: got %q", e.Tier)
			}
		}
	}
	if successes != 1 || errs != 3 {
		t.Errorf("events: got %d success, %d error; want 1, 3", successes, errs)
	}

	if h.observer.calls != 1 || h.observer.aborted || h.observer.stats != want {
		t.Errorf("observer: %+v", h.observer)
	}
}

func TestRunBatchSelectionFailureAborts(t *testing.T) {
	h := newHarness(t, nil, succeed(classifier.Primary))
	h.photos.selectErr = errors.New("relation does not exist")

	stats, err := h.orch.RunBatch(context.Background(), 3)
	if err == nil {
		t.Fatal("expected error")
	}
	if stats != (batch.Stats{}) {
		t.Errorf("stats: got %+v", stats)
	}
	if len(h.store.claims) != 0 {
		t.Errorf("claims: got %d, want 0", len(h.store.claims))
	}
	if !h.observer.aborted {
		t.Error("observer should see an aborted run")
	}
}

func TestRunBatchDefaultsAndPolicy(t *testing.T) {
	p := photo("https://img.example/a.jpg")
	h := newHarness(t, []photos.Photo{p}, succeed(classifier.Secondary))

	if _, err := h.orch.RunBatch(context.Background(), 0); err != nil {
		t.Fatalf("RunBatch: %v", err)
	}

	cfg := h.orch.Config()
	if h.photos.gotLimit != cfg.Limit {
		t.Errorf("limit: got %d, want %d", h.photos.gotLimit, cfg.Limit)
	}

	want := classifications.ClaimBatch(5*time.Minute, 3)
	if h.photos.gotPolicy != want {
		t.Errorf("selection policy: got %+v, want %+v", h.photos.gotPolicy, want)
	}
	if len(h.store.claims) != 1 || h.store.claims[0] != want {
		t.Errorf("claim policy: got %+v", h.store.claims)
	}
}

func TestRunBatchRecoversPanic(t *testing.T) {
	first := photo("https://img.example/panic.jpg")
	second := photo("https://img.example/fine.jpg")

	c := classifierFunc(func(ctx context.Context, id uuid.UUID, url string) (*classifier.Outcome, error) {
		if id == first.ID {
			panic("nil map write")
		}
		return succeed(classifier.Primary)(ctx, id, url)
	})

	h := newHarness(t, []photos.Photo{first, second}, c)

	stats, err := h.orch.RunBatch(context.Background(), 2)
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}

	if stats.Failed != 1 || stats.Successful != 1 {
		t.Errorf("stats: got %+v", stats)
	}
	if msg := h.store.failures[first.ID]; !strings.Contains(msg, "panicked") {
		t.Errorf("failure message: got %q", msg)
	}
}

func TestRunBatchTerminalClassifierFailure(t *testing.T) {
	p := photo("https://img.example/a.jpg")
	c := classifierFunc(func(context.Context, uuid.UUID, string) (*classifier.Outcome, error) {
		return nil, errors.Join(classifier.ErrClassificationFailed, errors.New("secondary tier: timeout"))
	})

	h := newHarness(t, []photos.Photo{p}, c)

	stats, err := h.orch.RunBatch(context.Background(), 1)
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if stats.Failed != 1 {
		t.Errorf("failed: got %d, want 1", stats.Failed)
	}

	evs := h.capture.Events()
	if len(evs) != 1 || evs[0].Kind != events.Error || evs[0].Tier != string(classifier.Secondary) {
		t.Errorf("events: got %+v", evs)
	}
}

func TestProcess(t *testing.T) {
	p := photo("https://img.example/a.jpg")

	t.Run("success", func(t *testing.T) {
		h := newHarness(t, []photos.Photo{p}, succeed(classifier.Primary))

		item, err := h.orch.Process(context.Background(), p.ID)
		if err != nil {
			t.Fatalf("Process: %v", err)
		}

		if item.Status != classifications.Completed {
			t.Errorf("status: got %s", item.Status)
		}
		if item.SearchableText != "sky beach no_people calm blue white sharp bright" {
			t.Errorf("searchable text: got %q", item.SearchableText)
		}
		if len(item.Tags) != 8 {
			t.Errorf("tags: got %d, want 8", len(item.Tags))
		}
		if len(h.store.claims) != 1 || !h.store.claims[0].Manual {
			t.Errorf("claim policy: got %+v", h.store.claims)
		}
	})

	t.Run("claim held", func(t *testing.T) {
		h := newHarness(t, []photos.Photo{p}, succeed(classifier.Primary))
		h.store.lost[p.ID] = true

		_, err := h.orch.Process(context.Background(), p.ID)
		if !errors.Is(err, batch.ErrInProgress) {
			t.Errorf("got %v, want ErrInProgress", err)
		}
	})

	t.Run("unknown photo", func(t *testing.T) {
		h := newHarness(t, nil, succeed(classifier.Primary))

		_, err := h.orch.Process(context.Background(), uuid.New())
		if !errors.Is(err, photos.ErrNotFound) {
			t.Errorf("got %v, want photos.ErrNotFound", err)
		}
	})

	t.Run("failure saved", func(t *testing.T) {
		c := classifierFunc(func(context.Context, uuid.UUID, string) (*classifier.Outcome, error) {
			return nil, &classifier.ValidationError{Field: "people", Reason: "missing presence tag"}
		})
		h := newHarness(t, []photos.Photo{p}, c)

		_, err := h.orch.Process(context.Background(), p.ID)
		if !errors.Is(err, classifier.ErrValidation) {
			t.Errorf("got %v, want ErrValidation", err)
		}
		if _, ok := h.store.failures[p.ID]; !ok {
			t.Error("failure not saved")
		}
	})
}

func TestPreviewDoesNotPersist(t *testing.T) {
	p := photo("https://img.example/a.jpg")
	h := newHarness(t, []photos.Photo{p}, succeed(classifier.Secondary))

	item, err := h.orch.Preview(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}

	if item.Tier != classifier.Secondary {
		t.Errorf("tier: got %s", item.Tier)
	}
	if item.Status != classifications.Pending {
		t.Errorf("status: got %s", item.Status)
	}
	if len(h.store.claims) != 0 || len(h.store.saved) != 0 || len(h.store.failures) != 0 {
		t.Error("preview must not touch classification state")
	}
	if len(h.capture.Events()) != 0 {
		t.Error("preview must not record outcome events")
	}
}
