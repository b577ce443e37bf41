package filter

import (
	"strconv"
	"strings"

	"rentsearch/internal/model"
)

// ParsePage parses a 1-indexed page number. Missing, malformed and
// non-positive values mean the first page.
func ParsePage(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// ClampLimit parses a size parameter, falling back to def when missing or
// malformed and clamping to max rather than rejecting.
func ClampLimit(raw string, def, max int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		n = def
	}
	if n > max {
		n = max
	}
	return n
}

// Paginate resolves the requested page against the total item count. A
// page past the end yields the last page; an empty result has one page.
func Paginate(total, page, size int) model.PageInfo {
	if size <= 0 {
		size = 1
	}
	pages := (total + size - 1) / size
	if pages < 1 {
		pages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > pages {
		page = pages
	}

	info := model.PageInfo{
		Number:     page,
		Size:       size,
		TotalItems: total,
		TotalPages: pages,
	}
	if page < pages {
		next := page + 1
		info.Next = &next
	}
	if page > 1 {
		prev := page - 1
		info.Previous = &prev
	}
	return info
}
