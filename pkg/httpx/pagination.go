package httpx

import (
	"net/http"
	"strconv"
	"strings"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// PageRequest carries the pagination parameters of a list endpoint.
// Page is 0-based.
type PageRequest struct {
	Page   int
	Size   int
	SortBy string
	Desc   bool
}

func (p PageRequest) Offset() int { return p.Page * p.Size }

// ParsePageRequest reads page/size/sortBy/sortDir query parameters,
// falling back to the given sort defaults.
func ParsePageRequest(r *http.Request, defaultSortBy string, defaultDesc bool) PageRequest {
	q := r.URL.Query()
	page, err := strconv.Atoi(q.Get("page"))
	if err != nil || page < 0 {
		page = 0
	}
	size, err := strconv.Atoi(q.Get("size"))
	if err != nil || size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}

	sortBy := q.Get("sortBy")
	if sortBy == "" {
		sortBy = defaultSortBy
	}
	desc := defaultDesc
	if dir := q.Get("sortDir"); dir != "" {
		desc = strings.EqualFold(dir, "desc")
	}
	return PageRequest{Page: page, Size: size, SortBy: sortBy, Desc: desc}
}

// Page is the response envelope for paginated listings.
type Page[T any] struct {
	Content       []T   `json:"content"`
	Page          int   `json:"page"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
}

func NewPage[T any](content []T, req PageRequest, total int64) Page[T] {
	if content == nil {
		content = []T{}
	}
	pages := int(total) / req.Size
	if int(total)%req.Size != 0 {
		pages++
	}
	return Page[T]{
		Content:       content,
		Page:          req.Page,
		Size:          req.Size,
		TotalElements: total,
		TotalPages:    pages,
	}
}
