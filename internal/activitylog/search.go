package activitylog

import "time"

const (
	DefaultSearchSize = 100
	DefaultSortField  = "created"
	DefaultSortOrder  = "desc"
)

// SearchParams is the body of POST /activityLog/search.
type SearchParams struct {
	Size       int        `json:"size" validate:"gte=1,lte=1000"`
	FromDate   *time.Time `json:"fromDate,omitempty"`
	ToDate     *time.Time `json:"toDate,omitempty"`
	Category   *Category  `json:"category,omitempty" validate:"omitempty,oneof=Insulin BasalRateChange Food BglReading Exercise Other"`
	SearchTerm *string    `json:"searchTerm,omitempty"`
	SortField  string     `json:"sortField,omitempty" validate:"omitempty,oneof=created category bgl"`
	SortOrder  string     `json:"sortOrder,omitempty" validate:"omitempty,oneof=asc desc"`
}

// WithDefaults fills unset size and sort options, newest first.
func (p SearchParams) WithDefaults() SearchParams {
	if p.Size == 0 {
		p.Size = DefaultSearchSize
	}
	if p.SortField == "" {
		p.SortField = DefaultSortField
	}
	if p.SortOrder == "" {
		p.SortOrder = DefaultSortOrder
	}
	if p.FromDate != nil {
		from := p.FromDate.UTC()
		p.FromDate = &from
	}
	if p.ToDate != nil {
		to := p.ToDate.UTC()
		p.ToDate = &to
	}
	return p
}

// Hit is one search result. Highlights maps a field name to the matching
// text fragments.
type Hit struct {
	Entry      Entry               `json:"entry"`
	Highlights map[string][]string `json:"highlights,omitempty"`
}

// SearchResult is the response of a search.
type SearchResult struct {
	Total int   `json:"total"`
	Hits  []Hit `json:"hits"`
}

// Entries returns the entries of all hits in result order.
func (r *SearchResult) Entries() []Entry {
	if r == nil {
		return nil
	}
	out := make([]Entry, 0, len(r.Hits))
	for _, h := range r.Hits {
		out = append(out, h.Entry)
	}
	return out
}
