package storage

import "fmt"

// Page selects a window of a result set. A zero Size means unpaged.
type Page struct {
	Number int // Zero-based page number
	Size   int
}

// Unpaged returns every row.
var Unpaged = Page{}

// Result holds one page of items and the total row count across all pages.
type Result[T any] struct {
	Items []T
	Total int64
}

// Sort orders ancestor lookups by their left bound.
type Sort string

const (
	// SortAsc lists the structural root first.
	SortAsc Sort = "asc"
	// SortDesc lists the nearest parent first.
	SortDesc Sort = "desc"
)

// limitClause renders the LIMIT/OFFSET suffix for a page.
func (p Page) limitClause() string {
	if p.Size <= 0 {
		return ""
	}
	number := p.Number
	if number < 0 {
		number = 0
	}
	return fmt.Sprintf(" LIMIT %d OFFSET %d", p.Size, number*p.Size)
}

// orderKeyword maps a Sort to its SQL keyword, defaulting to ascending.
func (s Sort) orderKeyword() string {
	if s == SortDesc {
		return "DESC"
	}
	return "ASC"
}
