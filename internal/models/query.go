package models

import "math"

// SortKey orders entry listings.
type SortKey string

const (
	SortCreatedDesc SortKey = ""
	SortDueAsc      SortKey = "due-asc"
	SortDueDesc     SortKey = "due-desc"
)

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
	// MaxPage keeps (Page-1)*Limit within an int.
	MaxPage = math.MaxInt / MaxPageLimit
)

// EntryQuery filters and pages an entry listing. AccountID matches entries
// referencing the account in any role.
type EntryQuery struct {
	Category  string
	AccountID string
	Sort      SortKey
	Page      int
	Limit     int
}

// Normalize clamps paging and drops unknown sort keys.
func (q EntryQuery) Normalize() EntryQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Page > MaxPage {
		q.Page = MaxPage
	}
	if q.Limit < 1 {
		q.Limit = DefaultPageLimit
	}
	if q.Limit > MaxPageLimit {
		q.Limit = MaxPageLimit
	}
	switch q.Sort {
	case SortDueAsc, SortDueDesc:
	default:
		q.Sort = SortCreatedDesc
	}
	return q
}

// Offset is the number of entries skipped before the page.
func (q EntryQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

// EntryPage is one page of an entry listing.
type EntryPage struct {
	Entries    []Entry `json:"entries"`
	Total      int64   `json:"total"`
	Page       int     `json:"page"`
	TotalPages int     `json:"totalPages"`
}

// NewEntryPage computes the page count for total matches.
func NewEntryPage(entries []Entry, total int64, q EntryQuery) EntryPage {
	pages := 0
	if q.Limit > 0 {
		pages = int((total + int64(q.Limit) - 1) / int64(q.Limit))
	}
	if entries == nil {
		entries = []Entry{}
	}
	return EntryPage{Entries: entries, Total: total, Page: q.Page, TotalPages: pages}
}
