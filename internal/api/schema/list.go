package schema

// ListResponse represents a unified API response listing the newest entries of a collection
type ListResponse[T any] struct {
	Limit         uint64 `json:"limit"`
	IncludedCount int    `json:"included_count"`
	Data          []T    `json:"data"`
}

// BuildListResponse builds a unified list API response
func BuildListResponse[T any](limit uint64, data []T) *ListResponse[T] {
	if data == nil {
		data = []T{}
	}
	return &ListResponse[T]{
		Limit:         limit,
		IncludedCount: len(data),
		Data:          data,
	}
}
