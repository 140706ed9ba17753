// Package search filters item lists for the listing pages and the admin
// panel, and summarizes them for the dashboard.
package search

import (
	"strings"

	"github.com/erazemk/lostfound/internal/model"
)

// All is the sentinel meaning "no constraint" for an exact-match criterion.
const All = "all"

// Field extracts one searchable text field from an item.
type Field func(model.Item) string

// Searchable fields.
var (
	Name        Field = func(i model.Item) string { return i.Name }
	Description Field = func(i model.Item) string { return i.Description }
	Location    Field = func(i model.Item) string { return i.Location }
	Category    Field = func(i model.Item) string { return i.Category }
	Reporter    Field = func(i model.Item) string { return i.ReportedBy.Name }
)

// ListingFields are the fields the public lost and found listings search.
var ListingFields = []Field{Name, Description, Location}

// AdminFields are the fields the admin panel searches.
var AdminFields = []Field{Name, Description, Category, Reporter}

// Criteria selects items. Empty or "all" exact-match values do not constrain.
type Criteria struct {
	Query    string
	Fields   []Field // nil means ListingFields
	Category string
	Location string
	Status   string
	Type     string
}

// Filter returns the items matching every criterion, in input order. The
// input slice is not modified.
func Filter(items []model.Item, c Criteria) []model.Item {
	query := strings.ToLower(strings.TrimSpace(c.Query))
	fields := c.Fields
	if fields == nil {
		fields = ListingFields
	}

	out := make([]model.Item, 0, len(items))
	for _, item := range items {
		if !matchExact(c.Category, item.Category) ||
			!matchExact(c.Location, item.Location) ||
			!matchExact(c.Status, string(item.Status)) ||
			!matchExact(c.Type, string(item.Type)) {
			continue
		}
		if query != "" && !matchQuery(query, fields, item) {
			continue
		}
		out = append(out, item)
	}
	return out
}

func matchExact(want, got string) bool {
	return want == "" || want == All || want == got
}

func matchQuery(query string, fields []Field, item model.Item) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f(item)), query) {
			return true
		}
	}
	return false
}

// Stats are the dashboard counters.
type Stats struct {
	Total          int `json:"total"`
	Lost           int `json:"lost"`
	Found          int `json:"found"`
	Pending        int `json:"pending"`
	Unclaimed      int `json:"unclaimed"`
	Claimed        int `json:"claimed"`
	AwaitingReview int `json:"awaitingReview"`
}

// Summarize counts items by type and status.
func Summarize(items []model.Item) Stats {
	var s Stats
	for _, item := range items {
		s.Total++
		switch item.Type {
		case model.ItemTypeLost:
			s.Lost++
		case model.ItemTypeFound:
			s.Found++
		}
		switch item.Status {
		case model.StatusPending:
			s.Pending++
		case model.StatusUnclaimed:
			s.Unclaimed++
		case model.StatusClaimed:
			s.Claimed++
		}
		if item.AwaitingReview() {
			s.AwaitingReview++
		}
	}
	return s
}

// Recent returns at most n leading items. Items are stored newest first.
func Recent(items []model.Item, n int) []model.Item {
	if n < 0 {
		n = 0
	}
	if n > len(items) {
		n = len(items)
	}
	return items[:n:n]
}
