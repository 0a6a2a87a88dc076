package photos

import (
	"net/url"

	"github.com/JaimeStill/phototag/internal/classifications"
	"github.com/JaimeStill/phototag/pkg/pagination"
	"github.com/JaimeStill/phototag/pkg/query"
	"github.com/JaimeStill/phototag/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "photos", "p").
	LeftJoin("public", "classifications", "c", "c.photo_id = p.id").
	Project("id", "ID").
	Project("metadata", "Metadata").
	Project("created_at", "CreatedAt").
	ProjectExpr("COALESCE(c.status, 'pending')", "Status").
	ProjectExpr("COALESCE(c.retry_count, 0)", "RetryCount")

// newestFirst orders selection and listings by upload time, then id for a
// stable order among photos created in the same instant.
var newestFirst = []query.SortField{
	{Field: "CreatedAt", Descending: true},
	{Field: "ID"},
}

// Filters narrows photo listings. Nil fields are ignored.
type Filters struct {
	Status *classifications.Status `json:"status,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	if f.Status != nil {
		b.WhereEquals("Status", string(*f.Status))
	}
	return b
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) (Filters, error) {
	var f Filters

	if s := pagination.Filter(values, "status"); s != nil {
		st, err := classifications.ParseStatus(*s)
		if err != nil {
			return f, err
		}
		f.Status = &st
	}

	return f, nil
}

func scanPhoto(s repository.Scanner) (Photo, error) {
	var (
		p    Photo
		meta []byte
	)
	err := s.Scan(&p.ID, &meta, &p.CreatedAt, &p.Status, &p.RetryCount)
	p.Metadata = meta
	return p, err
}
