package classifications

import (
	"fmt"
	"strings"

	"github.com/JaimeStill/phototag/internal/tags"
	"github.com/JaimeStill/phototag/pkg/query"
	"github.com/JaimeStill/phototag/pkg/repository"
)

// photoProjection reads state for any photo. Photos without a row
// surface as pending.
var photoProjection = query.
	NewProjectionMap("public", "photos", "p").
	LeftJoin("public", "classifications", "c", "c.photo_id = p.id").
	Project("id", "PhotoID").
	ProjectExpr("COALESCE(c.status, 'pending')", "Status").
	ProjectFrom("c", "confidence", "Confidence").
	ProjectExpr("COALESCE(c.retry_count, 0)", "RetryCount").
	ProjectFrom("c", "last_attempt_at", "LastAttemptAt").
	ProjectFrom("c", "completed_at", "CompletedAt").
	ProjectFrom("c", "error_message", "ErrorMessage").
	ProjectExpr("COALESCE(c.searchable_text, '')", "SearchableText")

var searchProjection = query.
	NewProjectionMap("public", "classifications", "c").
	Join("public", "classification_search", "s", "s.photo_id = c.photo_id").
	Project("photo_id", "PhotoID").
	Project("status", "Status").
	Project("confidence", "Confidence").
	Project("retry_count", "RetryCount").
	Project("last_attempt_at", "LastAttemptAt").
	Project("completed_at", "CompletedAt").
	Project("error_message", "ErrorMessage").
	Project("searchable_text", "SearchableText")

var searchSort = []query.SortField{
	{Field: "CompletedAt", Descending: true},
	{Field: "PhotoID"},
}

// Terms splits a keyword query on whitespace and normalizes each term the
// way tag names are normalized. Empty and repeated terms are dropped.
func Terms(q string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, f := range strings.Fields(q) {
		term := tags.Normalize(f)
		if term == "" || seen[term] {
			continue
		}
		seen[term] = true
		out = append(out, term)
	}
	return out
}

// tsQuery builds a tsquery matching documents that contain every term as an
// exact lexeme. Normalized terms carry only [a-z0-9_], so quoting is safe.
func tsQuery(q string) (string, error) {
	terms := Terms(q)
	if len(terms) == 0 {
		return "", ErrEmptyQuery
	}

	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = fmt.Sprintf("'%s'", t)
	}
	return strings.Join(quoted, " & "), nil
}

func scanClassification(s repository.Scanner) (Classification, error) {
	var c Classification
	err := s.Scan(
		&c.PhotoID,
		&c.Status,
		&c.Confidence,
		&c.RetryCount,
		&c.LastAttemptAt,
		&c.CompletedAt,
		&c.ErrorMessage,
		&c.SearchableText,
	)
	return c, err
}
