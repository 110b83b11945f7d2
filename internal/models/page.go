package models

// PageMeta describes one page of a paginated listing.
type PageMeta struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
	Total      int64 `json:"total"`
}

// NewPageMeta builds page metadata for the given total. TotalPages is at
// least 1 so an empty listing still reports a single (empty) page, and an
// out-of-range page clamps to the last page, matching what the repository
// serves.
func NewPageMeta(page, size int, total int64) PageMeta {
	if page < 1 {
		page = 1
	}
	pages := int((total + int64(size) - 1) / int64(size))
	if pages < 1 {
		pages = 1
	}
	if page > pages {
		page = pages
	}
	return PageMeta{
		Page:       page,
		PageSize:   size,
		TotalPages: pages,
		Total:      total,
	}
}
