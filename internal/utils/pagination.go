// Package utils holds small helpers shared by the HTTP and service layers
// for reading query parameters and turning pages into row windows.
package utils

import "strconv"

// AtoiDefault parses s as a base-10 int, returning def when s is empty or
// not a valid integer. Surrounding spaces are not trimmed.
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// Clamp bounds n to [lo, hi].
func Clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

// Window converts a 1-based page of pageSize rows into an offset and
// limit. pageSize <= 0 means "everything" and yields (0, 0); a page below
// 1 is treated as the first page.
func Window(page, pageSize int) (offset, limit int) {
	if pageSize <= 0 {
		return 0, 0
	}
	if page < 1 {
		page = 1
	}
	return (page - 1) * pageSize, pageSize
}
