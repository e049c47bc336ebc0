package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"enquiry-admin/internal/models"
)

var testNow = time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)

func day(offset int) time.Time {
	return testNow.AddDate(0, 0, offset)
}

func ids(items []models.Enquiry) []string {
	out := make([]string, 0, len(items))
	for _, e := range items {
		out = append(out, e.ID)
	}
	return out
}

func defaultFilters() models.FilterState {
	return models.DefaultFilterState()
}

func TestApplyNoFiltersKeepsEverything(t *testing.T) {
	enquiries := []models.Enquiry{
		{ID: "a", CreatedAt: day(-1)},
		{ID: "b", CreatedAt: day(-2)},
		{ID: "c"}, // no date
	}

	result := Apply(enquiries, defaultFilters(), testNow)
	require.Equal(t, 3, result.Filtered)
	require.Equal(t, 3, result.Total)
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	enquiries := []models.Enquiry{
		{ID: "a", CreatedAt: day(-3)},
		{ID: "b", CreatedAt: day(-1)},
	}

	filters := defaultFilters()
	filters.SortKey = "date"
	filters.SortDir = models.SortAsc
	Apply(enquiries, filters, testNow)

	require.Equal(t, "a", enquiries[0].ID)
	require.Equal(t, "b", enquiries[1].ID)
}

func TestSourceStage(t *testing.T) {
	enquiries := []models.Enquiry{
		{ID: "f1", Source: models.SourceFree},
		{ID: "p1", Source: models.SourcePaid},
		{ID: "f2", Source: models.SourceFree},
	}

	filters := defaultFilters()
	filters.Source = models.SourceFree
	result := Apply(enquiries, filters, testNow)

	require.Equal(t, 2, result.Filtered)
	require.Equal(t, 3, result.Total)
	for _, e := range result.Items {
		require.Equal(t, models.SourceFree, e.Source)
	}
}

func TestTrafficStage(t *testing.T) {
	organic := models.Enquiry{ID: "o", UTMSource: "N/A"}
	inorganic := models.Enquiry{ID: "i", UTMSource: "facebook"}
	enquiries := []models.Enquiry{organic, inorganic}

	filters := defaultFilters()
	filters.Traffic = models.TrafficOrganic
	result := Apply(enquiries, filters, testNow)
	require.Equal(t, []string{"o"}, ids(result.Items))

	filters.Traffic = models.TrafficInorganic
	result = Apply(enquiries, filters, testNow)
	require.Equal(t, []string{"i"}, ids(result.Items))

	filters.Traffic = models.TrafficAny
	result = Apply(enquiries, filters, testNow)
	require.Equal(t, 2, result.Filtered)
}

func TestDateStagePresets(t *testing.T) {
	enquiries := []models.Enquiry{
		{ID: "today", CreatedAt: day(0)},
		{ID: "yesterday", CreatedAt: day(-1)},
		{ID: "lastweek", CreatedAt: day(-6)},
		{ID: "lastmonth", CreatedAt: day(-20)},
		{ID: "old", CreatedAt: day(-45)},
		{ID: "undated"},
	}

	cases := []struct {
		mode models.DateMode
		want []string
	}{
		{models.DateToday, []string{"today"}},
		{models.DateYesterday, []string{"yesterday"}},
		{models.DateLast7, []string{"today", "yesterday", "lastweek"}},
		{models.DateLast30, []string{"today", "yesterday", "lastweek", "lastmonth"}},
	}

	for _, tc := range cases {
		filters := defaultFilters()
		filters.DateMode = tc.mode
		filters.SortDir = models.SortDesc

		result := Apply(enquiries, filters, testNow)
		require.Equal(t, tc.want, ids(result.Items), "mode %s", tc.mode)
	}
}

func TestDateStageCustomBounds(t *testing.T) {
	enquiries := []models.Enquiry{
		{ID: "jan", CreatedAt: time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC)},
		{ID: "feb", CreatedAt: time.Date(2024, 2, 10, 9, 0, 0, 0, time.UTC)},
		{ID: "dec23", CreatedAt: time.Date(2023, 12, 20, 9, 0, 0, 0, time.UTC)},
	}

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	filters := defaultFilters()
	filters.DateMode = models.DateCustom
	filters.DateFrom = &from

	// Open upper bound: everything on/after Jan 1 2024.
	result := Apply(enquiries, filters, testNow)
	require.ElementsMatch(t, []string{"jan", "feb"}, ids(result.Items))

	// Inclusive upper bound at end of day.
	to := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)
	filters.DateTo = &to
	result = Apply(enquiries, filters, testNow)
	require.ElementsMatch(t, []string{"jan", "feb"}, ids(result.Items))

	// Open lower bound.
	filters.DateFrom = nil
	to2 := time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)
	filters.DateTo = &to2
	result = Apply(enquiries, filters, testNow)
	require.ElementsMatch(t, []string{"dec23"}, ids(result.Items))
}

func TestUndatedRecordsSkipActivePresetsOnly(t *testing.T) {
	enquiries := []models.Enquiry{{ID: "undated"}}

	result := Apply(enquiries, defaultFilters(), testNow)
	require.Equal(t, 1, result.Filtered)

	filters := defaultFilters()
	filters.DateMode = models.DateLast30
	result = Apply(enquiries, filters, testNow)
	require.Zero(t, result.Filtered)
}

func TestSearchStage(t *testing.T) {
	enquiries := []models.Enquiry{
		{ID: "1", Name: "Jane", Email: "jane@example.com", Org: "Acme Corp"},
		{ID: "2", Name: "Bob", Email: "bob@example.com", Org: "Other"},
		{ID: "3", Name: "ACME Fan", Email: "fan@example.com", Org: "I love acme"},
	}

	filters := defaultFilters()
	filters.Search = "acme"
	result := Apply(enquiries, filters, testNow)
	require.ElementsMatch(t, []string{"1", "3"}, ids(result.Items))

	filters.Search = "BOB@"
	result = Apply(enquiries, filters, testNow)
	require.Equal(t, []string{"2"}, ids(result.Items))

	filters.Search = ""
	result = Apply(enquiries, filters, testNow)
	require.Equal(t, 3, result.Filtered)
}

// Applying the stages in sequence must keep the same surviving set as one
// conjunctive pass; stage order only affects ordering, never membership.
func TestStageComposition(t *testing.T) {
	enquiries := []models.Enquiry{
		{ID: "1", Source: models.SourceFree, UTMSource: "N/A", Org: "Acme", CreatedAt: day(-2)},
		{ID: "2", Source: models.SourceFree, UTMSource: "google", Org: "Acme", CreatedAt: day(-2)},
		{ID: "3", Source: models.SourcePaid, UTMSource: "N/A", Org: "Acme", CreatedAt: day(-2)},
		{ID: "4", Source: models.SourceFree, UTMSource: "N/A", Org: "Other", CreatedAt: day(-2)},
		{ID: "5", Source: models.SourceFree, UTMSource: "N/A", Org: "Acme", CreatedAt: day(-60)},
		{ID: "6", Source: models.SourceFree, UTMSource: "N/A", Org: "Acme", CreatedAt: day(-1)},
	}

	filters := defaultFilters()
	filters.Source = models.SourceFree
	filters.Traffic = models.TrafficOrganic
	filters.DateMode = models.DateLast7
	filters.Search = "acme"

	result := Apply(enquiries, filters, testNow)

	var conjunction []string
	for _, e := range enquiries {
		if e.Source == models.SourceFree && e.IsOrganic() &&
			!e.CreatedAt.Before(day(-7)) && e.Org == "Acme" {
			conjunction = append(conjunction, e.ID)
		}
	}
	require.ElementsMatch(t, conjunction, ids(result.Items))
}

func TestSortStability(t *testing.T) {
	sameDay := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	enquiries := []models.Enquiry{
		{ID: "first", Name: "Zed", CreatedAt: sameDay},
		{ID: "second", Name: "Amy", CreatedAt: sameDay},
		{ID: "third", Name: "Mia", CreatedAt: sameDay},
	}

	for _, dir := range []models.SortDir{models.SortAsc, models.SortDesc} {
		filters := defaultFilters()
		filters.SortKey = "date"
		filters.SortDir = dir

		result := Apply(enquiries, filters, testNow)
		require.Equal(t, []string{"first", "second", "third"}, ids(result.Items), "dir %s", dir)
	}
}

func TestSortByStringKeyCaseFolded(t *testing.T) {
	enquiries := []models.Enquiry{
		{ID: "1", Name: "charlie"},
		{ID: "2", Name: "Alice"},
		{ID: "3", Name: "bob"},
	}

	filters := defaultFilters()
	filters.SortKey = "name"
	filters.SortDir = models.SortAsc
	result := Apply(enquiries, filters, testNow)
	require.Equal(t, []string{"2", "3", "1"}, ids(result.Items))

	filters.SortDir = models.SortDesc
	result = Apply(enquiries, filters, testNow)
	require.Equal(t, []string{"1", "3", "2"}, ids(result.Items))
}

func TestDefaultSortIsDateDescending(t *testing.T) {
	enquiries := []models.Enquiry{
		{ID: "older", CreatedAt: day(-5)},
		{ID: "newest", CreatedAt: day(0)},
		{ID: "middle", CreatedAt: day(-2)},
	}

	result := Apply(enquiries, defaultFilters(), testNow)
	require.Equal(t, []string{"newest", "middle", "older"}, ids(result.Items))
}
