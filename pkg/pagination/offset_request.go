package pagination

// OffsetRequest represents an offset-based pagination request
type OffsetRequest struct {
	Page  int `json:"page" query:"page"`
	Limit int `json:"limit" query:"limit"`
}

// Normalize fills defaults for non-positive values.
func (r OffsetRequest) Normalize() OffsetRequest {
	if r.Page <= 0 {
		r.Page = PageDefault
	}
	if r.Limit <= 0 {
		r.Limit = LimitDefault
	}
	return r
}

// Validate normalizes the request and caps the limit at LimitMax
func (r *OffsetRequest) Validate() error {
	*r = r.Normalize()
	if r.Limit > LimitMax {
		r.Limit = LimitMax
	}
	return nil
}

// Skip is the number of items before the requested page.
func (r OffsetRequest) Skip() int64 {
	n := r.Normalize()
	return int64(n.Page-1) * int64(n.Limit)
}
