package domain

// Page size bounds used when no configuration overrides them.
const (
	DefaultPageSize = 10
	MaxPageSize     = 1000
)

// PageOptions bounds the page size accepted by list operations.
type PageOptions struct {
	DefaultSize int
	MaxSize     int
}

// DefaultPageOptions returns the built-in page size bounds.
func DefaultPageOptions() PageOptions {
	return PageOptions{DefaultSize: DefaultPageSize, MaxSize: MaxPageSize}
}

// PageResult is the paginated envelope returned by list endpoints.
type PageResult[T any] struct {
	Items       []T   `json:"items"`
	TotalCount  int64 `json:"totalCount"`
	PageNumber  int   `json:"pageNumber"`
	PageSize    int   `json:"pageSize"`
	TotalPages  int   `json:"totalPages"`
	HasPrevious bool  `json:"hasPrevious"`
	HasNext     bool  `json:"hasNext"`
}
