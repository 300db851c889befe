// Package utils holds small helpers shared by the HTTP and service layers.
package utils

import "strconv"

// AtoiDefault parses s as an int, returning def when s is empty or malformed.
// Surrounding spaces are not trimmed.
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// ClampPage normalizes 1-based paging input and returns the row offset.
// page below 1 becomes 1, a non-positive size becomes def, and a size above
// maxSize (when positive) becomes maxSize.
//
//	p, size, off := utils.ClampPage(0, 500, 50, 200) // 1, 200, 0
func ClampPage(page, size, def, maxSize int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = def
	}
	if size <= 0 {
		size = 1
	}
	if maxSize > 0 && size > maxSize {
		size = maxSize
	}
	return page, size, (page - 1) * size
}
