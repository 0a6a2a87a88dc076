package classifier

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/JaimeStill/phototag/internal/classifications"
	"github.com/JaimeStill/phototag/internal/tags"
)

// Validate applies the tagging rules to a parsed reply and returns the
// normalized result. Minimum counts are checked against the non-empty
// normalized tags; repeats within a category are dropped afterwards. A missing
// or null confidence is recorded as 0 with ConfidenceDefaulted set.
func Validate(raw map[string]json.RawMessage) (classifications.Result, error) {
	var result classifications.Result

	lists := make(map[tags.Category][]string, len(limits))
	for _, c := range tags.Categories() {
		names, err := tagList(raw, c)
		if err != nil {
			return result, err
		}

		if l := limits[c]; len(names) < l.Min {
			return result, &ValidationError{
				Field:  string(c),
				Reason: fmt.Sprintf("has %d tags, need at least %d", len(names), l.Min),
			}
		}
		lists[c] = dedupe(names)
	}

	if err := checkPeople(lists[tags.People]); err != nil {
		return result, err
	}

	confidence, defaulted, err := parseConfidence(raw["confidence"])
	if err != nil {
		return result, err
	}

	result.Content = lists[tags.Content]
	result.People = lists[tags.People]
	result.Mood = lists[tags.Mood]
	result.Color = lists[tags.Color]
	result.Quality = lists[tags.Quality]
	result.Confidence = confidence
	result.ConfidenceDefaulted = defaulted

	return result, nil
}

func tagList(raw map[string]json.RawMessage, c tags.Category) ([]string, error) {
	field := string(c)

	v, ok := raw[field]
	if !ok || isNull(v) {
		return nil, &ValidationError{Field: field, Reason: "missing"}
	}

	var values []string
	if err := json.Unmarshal(v, &values); err != nil {
		return nil, &ValidationError{Field: field, Reason: "must be a list of strings"}
	}

	names := make([]string, 0, len(values))
	for _, value := range values {
		name := tags.Normalize(value)
		if name == "" {
			continue
		}
		if len(name) > tags.MaxNameLength {
			return nil, &ValidationError{
				Field:  field,
				Reason: fmt.Sprintf("tag %q exceeds %d characters", name, tags.MaxNameLength),
			}
		}
		names = append(names, name)
	}

	return names, nil
}

func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}

func checkPeople(names []string) error {
	count := func(options ...string) int {
		n := 0
		for _, name := range names {
			for _, o := range options {
				if name == o {
					n++
				}
			}
		}
		return n
	}

	if count("people", "no_people") != 1 {
		return &ValidationError{
			Field:  string(tags.People),
			Reason: `must contain exactly one of "people" or "no_people"`,
		}
	}

	if count("people") == 1 && count("close", "distant") != 1 {
		return &ValidationError{
			Field:  string(tags.People),
			Reason: `with "people" must contain exactly one of "close" or "distant"`,
		}
	}

	return nil
}

func parseConfidence(v json.RawMessage) (float64, bool, error) {
	if len(v) == 0 || isNull(v) {
		return 0, true, nil
	}

	var f float64
	if err := json.Unmarshal(v, &f); err != nil {
		return 0, false, &ValidationError{Field: "confidence", Reason: "must be a number"}
	}
	if f < 0 || f > 1 {
		return 0, false, &ValidationError{
			Field:  "confidence",
			Reason: fmt.Sprintf("%v is outside [0, 1]", f),
		}
	}

	return f, false, nil
}

func isNull(v json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}
