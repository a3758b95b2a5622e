package filters

// ListParams are the optional query parameters for the movie listing.
// The zero value emits no query string at all, which keeps the backend's
// response order untouched.
type ListParams struct {
	Title    string `schema:"title,omitempty"`
	Sort     string `schema:"sort,omitempty"`
	Page     int    `schema:"page,omitempty"`
	PageSize int    `schema:"page_size,omitempty"`
}

func (p ListParams) IsZero() bool {
	return p == ListParams{}
}
