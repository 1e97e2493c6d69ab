package domain

// PageRequest holds pagination, sorting, and filtering parameters for a list
// or search call. Page is zero-based on the client side; resource clients
// translate to the API's one-based page parameter, and server-side parsing
// fills Page with the one-based wire value alongside a computed Offset.
type PageRequest struct {
	Page     int
	PageSize int
	Offset   int
	Sort     string
	Filter   map[string]string
}

// PageInfo is the server-reported pagination metadata attached to a list
// response, when the wire shape carried any.
type PageInfo struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalPages int `json:"total_pages"`
	TotalItems int `json:"total_items"`
}

// PageResult is one decoded page of a listing.
//
// HasMore is authoritative when the response carried pagination metadata;
// otherwise it is inferred as len(Items) == PageRequest.PageSize at decode
// time. Total falls back to len(Items) for bare-array responses.
type PageResult[T any] struct {
	Items   []T
	HasMore bool
	Total   int
	Info    *PageInfo
}
