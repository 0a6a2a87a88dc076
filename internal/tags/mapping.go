package tags

import (
	"net/url"

	"github.com/google/uuid"

	"github.com/JaimeStill/phototag/pkg/query"
	"github.com/JaimeStill/phototag/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "tags", "t").
	Project("id", "ID").
	Project("name", "Name").
	Project("category", "Category").
	Project("usage_count", "UsageCount").
	Project("created_at", "CreatedAt")

var defaultSort = []query.SortField{
	{Field: "UsageCount", Descending: true},
	{Field: "Name"},
}

// Filters narrows tag listings. Nil fields are ignored.
type Filters struct {
	Category *Category  `json:"category,omitempty"`
	PhotoID  *uuid.UUID `json:"photo_id,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	if f.Category != nil {
		b.WhereEquals("Category", string(*f.Category))
	}
	if f.PhotoID != nil {
		b.WhereRaw("t.id IN (SELECT pt.tag_id FROM public.photo_tags pt WHERE pt.photo_id = $%d)", *f.PhotoID)
	}
	return b
}

// FiltersFromQuery extracts filter values from URL query parameters.
// An unknown category is reported so the handler can reject it.
func FiltersFromQuery(values url.Values) (Filters, error) {
	var f Filters

	if c := values.Get("category"); c != "" {
		cat, err := ParseCategory(c)
		if err != nil {
			return f, err
		}
		f.Category = &cat
	}

	if p := values.Get("photo_id"); p != "" {
		if id, err := uuid.Parse(p); err == nil {
			f.PhotoID = &id
		}
	}

	return f, nil
}

func scanTag(s repository.Scanner) (Tag, error) {
	var t Tag
	err := s.Scan(&t.ID, &t.Name, &t.Category, &t.UsageCount, &t.CreatedAt)
	return t, err
}
