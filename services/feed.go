package services

const DefaultPageSize = 100

// normalizePage clamps a negative skip to zero and falls back to the
// configured page size when no limit is given.
func normalizePage(skip, limit, pageSize int) (int, int) {
	if skip < 0 {
		skip = 0
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if limit <= 0 {
		limit = pageSize
	}
	return skip, limit
}
