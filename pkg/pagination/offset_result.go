package pagination

// Page represents one page of an offset-based listing
type Page[T any] struct {
	Items   []T   `json:"items"`
	Total   int64 `json:"total"`
	Page    int   `json:"page"`
	Limit   int   `json:"limit"`
	HasMore bool  `json:"has_more"`
}

// NewPage creates a new offset-based result
func NewPage[T any](items []T, total int64, req OffsetRequest) *Page[T] {
	req = req.Normalize()
	if items == nil {
		items = []T{}
	}

	return &Page[T]{
		Items:   items,
		Total:   total,
		Page:    req.Page,
		Limit:   req.Limit,
		HasMore: req.Skip()+int64(len(items)) < total,
	}
}

// Empty returns a page without items.
func Empty[T any](req OffsetRequest) *Page[T] {
	return NewPage[T](nil, 0, req)
}
