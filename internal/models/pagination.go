package models

// PageInfo is the clamped pagination window derived from a row count.
type PageInfo struct {
	Total       int64
	Limit       int
	TotalPages  int
	CurrentPage int
	Offset      int
	NextPage    *int
}

// NewPageInfo clamps the requested page into [1, totalPages]. totalPages is
// never below 1, even when nothing matched.
func NewPageInfo(total int64, page, limit int) PageInfo {
	if limit < 1 {
		limit = 1
	}
	if page < 1 {
		page = 1
	}
	if total < 0 {
		total = 0
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	if totalPages < 1 {
		totalPages = 1
	}

	current := min(page, totalPages)

	info := PageInfo{
		Total:       total,
		Limit:       limit,
		TotalPages:  totalPages,
		CurrentPage: current,
		Offset:      (current - 1) * limit,
	}
	if current < totalPages {
		next := current + 1
		info.NextPage = &next
	}
	return info
}
