// Package pipeline turns the loaded enquiry collection plus a FilterState
// into the ordered list the table renders. Stages apply strictly in order:
// source tag, traffic type, date preset, text search, then a stable sort.
// Each stage consumes the previous stage's output; an unset facet is a
// no-op. The pipeline is a pure function of (collection, filters, now) and
// never mutates its input.
package pipeline

import (
	"sort"
	"strings"
	"time"

	"enquiry-admin/internal/models"
)

// Result is the final ordered sequence plus the count pair for display.
type Result struct {
	Items    []models.Enquiry
	Filtered int
	Total    int
}

// Apply runs all stages. The caller supplies now so the relative date
// presets are deterministic under test.
func Apply(enquiries []models.Enquiry, filters models.FilterState, now time.Time) Result {
	total := len(enquiries)

	items := make([]models.Enquiry, len(enquiries))
	copy(items, enquiries)

	items = filterSource(items, filters.Source)
	items = filterTraffic(items, filters.Traffic)
	items = filterDate(items, filters, now)
	items = filterSearch(items, filters.Search)
	sortItems(items, filters.SortKey, filters.SortDir)

	return Result{
		Items:    items,
		Filtered: len(items),
		Total:    total,
	}
}

func filterSource(items []models.Enquiry, source string) []models.Enquiry {
	if source == "" {
		return items
	}
	kept := items[:0]
	for _, e := range items {
		if e.Source == source {
			kept = append(kept, e)
		}
	}
	return kept
}

func filterTraffic(items []models.Enquiry, traffic models.TrafficType) []models.Enquiry {
	if traffic == models.TrafficAny {
		return items
	}
	wantOrganic := traffic == models.TrafficOrganic
	kept := items[:0]
	for _, e := range items {
		if e.IsOrganic() == wantOrganic {
			kept = append(kept, e)
		}
	}
	return kept
}

// filterDate keeps records whose date satisfies the selected preset. A
// record without a parsable date never matches an active preset but always
// passes an unset one.
func filterDate(items []models.Enquiry, filters models.FilterState, now time.Time) []models.Enquiry {
	if filters.DateMode == models.DateAny {
		return items
	}

	var from, to time.Time
	switch filters.DateMode {
	case models.DateToday:
		from = startOfDay(now)
		to = endOfDay(now)
	case models.DateYesterday:
		y := now.AddDate(0, 0, -1)
		from = startOfDay(y)
		to = endOfDay(y)
	case models.DateLast7:
		from = startOfDay(now.AddDate(0, 0, -7))
		to = endOfDay(now)
	case models.DateLast30:
		from = startOfDay(now.AddDate(0, 0, -30))
		to = endOfDay(now)
	case models.DateCustom:
		// Either bound may be open.
		if filters.DateFrom != nil {
			from = startOfDay(*filters.DateFrom)
		}
		if filters.DateTo != nil {
			to = endOfDay(*filters.DateTo)
		}
	default:
		return items
	}

	kept := items[:0]
	for _, e := range items {
		if !e.HasDate() {
			continue
		}
		ts := e.CreatedAt
		if !from.IsZero() && ts.Before(from) {
			continue
		}
		if !to.IsZero() && ts.After(to) {
			continue
		}
		kept = append(kept, e)
	}
	return kept
}

func filterSearch(items []models.Enquiry, search string) []models.Enquiry {
	needle := strings.ToLower(strings.TrimSpace(search))
	if needle == "" {
		return items
	}
	kept := items[:0]
	for _, e := range items {
		if strings.Contains(strings.ToLower(e.Name), needle) ||
			strings.Contains(strings.ToLower(e.Email), needle) ||
			strings.Contains(strings.ToLower(e.Org), needle) {
			kept = append(kept, e)
		}
	}
	return kept
}

// sortItems orders by the selected key. The date key compares timestamps,
// everything else compares case-folded strings. The sort is stable, so
// records with equal keys keep their original relative order in both
// directions.
func sortItems(items []models.Enquiry, key string, dir models.SortDir) {
	less := lessFunc(key)
	if dir == models.SortDesc {
		inner := less
		less = func(a, b models.Enquiry) bool { return inner(b, a) }
	}
	sort.SliceStable(items, func(i, j int) bool {
		return less(items[i], items[j])
	})
}

func lessFunc(key string) func(a, b models.Enquiry) bool {
	if key == "" || key == models.DefaultSortKey {
		return func(a, b models.Enquiry) bool {
			return a.CreatedAt.Before(b.CreatedAt)
		}
	}
	field := fieldGetter(key)
	return func(a, b models.Enquiry) bool {
		return strings.ToLower(field(a)) < strings.ToLower(field(b))
	}
}

var sortKeys = map[string]bool{
	models.DefaultSortKey: true,
	"name":                true,
	"email":               true,
	"phone":               true,
	"state":               true,
	"city":                true,
	"org":                 true,
	"designation":         true,
	"status":              true,
	"source":              true,
}

// ValidSortKey reports whether key names a sortable column.
func ValidSortKey(key string) bool {
	return sortKeys[key]
}

func fieldGetter(key string) func(models.Enquiry) string {
	switch key {
	case "name":
		return func(e models.Enquiry) string { return e.Name }
	case "email":
		return func(e models.Enquiry) string { return e.Email }
	case "phone":
		return func(e models.Enquiry) string { return e.Phone }
	case "state":
		return func(e models.Enquiry) string { return e.State }
	case "city":
		return func(e models.Enquiry) string { return e.City }
	case "org":
		return func(e models.Enquiry) string { return e.Org }
	case "designation":
		return func(e models.Enquiry) string { return e.Designation }
	case "status":
		return func(e models.Enquiry) string { return e.Status }
	case "source":
		return func(e models.Enquiry) string { return e.Source }
	default:
		// Unknown keys sort as the empty string, preserving input order.
		return func(models.Enquiry) string { return "" }
	}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}
