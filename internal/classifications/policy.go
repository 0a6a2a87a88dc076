package classifications

import (
	"fmt"
	"strings"
	"time"
)

const (
	batchEligible = `((c.status = 'failed' AND c.retry_count < $%d) OR ` +
		`(c.status = 'processing' AND c.last_attempt_at < NOW() - make_interval(secs => $%d)))`

	manualEligible = `(c.status <> 'processing' OR c.last_attempt_at < NOW() - make_interval(secs => $%d))`
)

// ClaimPolicy decides which existing rows may be taken over by a claim.
// A photo without a row is always claimable.
type ClaimPolicy struct {
	// StaleAfter is how long a processing row is protected from other claims.
	StaleAfter time.Duration
	// MaxRetries caps retry_count of failed rows for batch claims. Stale
	// processing rows are reclaimed regardless so an abandoned attempt always
	// reaches a terminal state. Ignored when Manual is set.
	MaxRetries int
	// Manual claims may re-classify completed and exhausted rows.
	Manual bool
}

// ClaimBatch returns the scheduled-run policy: failed rows under the retry cap
// and any stale processing row.
func ClaimBatch(staleAfter time.Duration, maxRetries int) ClaimPolicy {
	return ClaimPolicy{StaleAfter: staleAfter, MaxRetries: maxRetries}
}

// ClaimManual returns the single-item policy: any row that is not being
// processed by a live attempt.
func ClaimManual(staleAfter time.Duration) ClaimPolicy {
	return ClaimPolicy{StaleAfter: staleAfter, Manual: true}
}

// Template renders the eligibility predicate over an existing row aliased c,
// with "$%d" placeholders bound in order by the returned args. The form matches
// query.Builder.WhereRaw.
func (p ClaimPolicy) Template() (string, []any) {
	stale := p.StaleAfter.Seconds()
	if p.Manual {
		return manualEligible, []any{stale}
	}
	return batchEligible, []any{p.MaxRetries, stale}
}

// numbered replaces each "$%d" in clause with sequential placeholders from next.
func numbered(clause string, next int) string {
	for strings.Contains(clause, "$%d") {
		clause = strings.Replace(clause, "$%d", fmt.Sprintf("$%d", next), 1)
		next++
	}
	return clause
}
