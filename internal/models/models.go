package models

import "time"

// Source tags for the two intake collections.
const (
	SourceFree = "free"
	SourcePaid = "paid"
)

// Enquiry status values.
const (
	StatusActive   = "Active"
	StatusInactive = "Inactive"
)

// Placeholder values used when a raw field cannot be resolved.
const (
	PlaceholderName        = "No Name"
	PlaceholderEmail       = "No Email"
	PlaceholderNA          = "N/A"
	PlaceholderDesignation = "User"
)

// RawRecord is a single document as returned by the record store. Field
// presence and naming vary between the free and paid collections, so it is
// kept as an open map until normalization.
type RawRecord map[string]any

// Enquiry is the canonical, normalized record the rest of the system
// operates on. Every string field is guaranteed to hold either real data or
// its documented placeholder; CurrentCTC is the one exception, staying nil
// when the submitter did not answer (which is distinct from "N/A").
type Enquiry struct {
	ID          string
	Source      string
	Name        string
	Email       string
	Phone       string
	State       string
	City        string
	Org         string
	Designation string
	CurrentCTC  *string
	Status      string
	UTMSource   string
	UTMMedium   string
	UTMCampaign string
	UTMTerm     string
	UTMContent  string
	// CreatedAt is the canonical internal date. The zero value means no
	// timestamp was present on the raw record. All date comparisons use
	// this value; the display string is produced only at the render
	// boundary.
	CreatedAt time.Time
}

// HasDate reports whether the raw record carried a usable timestamp.
func (e Enquiry) HasDate() bool {
	return !e.CreatedAt.IsZero()
}

// DateDisplay formats the enquiry date for rendering, "N/A" when absent.
func (e Enquiry) DateDisplay() string {
	if !e.HasDate() {
		return PlaceholderNA
	}
	return e.CreatedAt.Format("Jan 2, 2006")
}

// IsOrganic classifies traffic attribution: a record with no usable
// utm_source is organic, anything else is inorganic.
func (e Enquiry) IsOrganic() bool {
	return e.UTMSource == PlaceholderNA || e.UTMSource == ""
}

// EnquiryView is the JSON shape served to the dashboard.
type EnquiryView struct {
	ID          string  `json:"id"`
	Source      string  `json:"source"`
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	Phone       string  `json:"phone"`
	State       string  `json:"state"`
	City        string  `json:"city"`
	Org         string  `json:"org"`
	Designation string  `json:"designation"`
	CurrentCTC  *string `json:"current_ctc"`
	Status      string  `json:"status"`
	UTMSource   string  `json:"utm_source"`
	UTMMedium   string  `json:"utm_medium"`
	UTMCampaign string  `json:"utm_campaign"`
	UTMTerm     string  `json:"utm_term"`
	UTMContent  string  `json:"utm_content"`
	Date        string  `json:"date"`
}

// View renders the enquiry for the API response.
func (e Enquiry) View() EnquiryView {
	return EnquiryView{
		ID:          e.ID,
		Source:      e.Source,
		Name:        e.Name,
		Email:       e.Email,
		Phone:       e.Phone,
		State:       e.State,
		City:        e.City,
		Org:         e.Org,
		Designation: e.Designation,
		CurrentCTC:  e.CurrentCTC,
		Status:      e.Status,
		UTMSource:   e.UTMSource,
		UTMMedium:   e.UTMMedium,
		UTMCampaign: e.UTMCampaign,
		UTMTerm:     e.UTMTerm,
		UTMContent:  e.UTMContent,
		Date:        e.DateDisplay(),
	}
}

// Traffic type selections.
type TrafficType string

const (
	TrafficAny       TrafficType = ""
	TrafficOrganic   TrafficType = "organic"
	TrafficInorganic TrafficType = "inorganic"
)

// Date range presets.
type DateMode string

const (
	DateAny       DateMode = ""
	DateToday     DateMode = "today"
	DateYesterday DateMode = "yesterday"
	DateLast7     DateMode = "last7"
	DateLast30    DateMode = "last30"
	DateCustom    DateMode = "custom"
)

// Sort directions.
type SortDir string

const (
	SortAsc  SortDir = "asc"
	SortDesc SortDir = "desc"
)

// DefaultSortKey orders the table most-recent-first out of the box.
const DefaultSortKey = "date"

// FilterState holds the transient per-session filter, search and sort
// selections driving the enquiries table. It is never persisted.
type FilterState struct {
	Source   string      `json:"source"`
	Traffic  TrafficType `json:"traffic"`
	DateMode DateMode    `json:"date_mode"`
	DateFrom *time.Time  `json:"date_from"`
	DateTo   *time.Time  `json:"date_to"`
	Search   string      `json:"search"`
	SortKey  string      `json:"sort_key"`
	SortDir  SortDir     `json:"sort_dir"`
}

// DefaultFilterState returns the reset state: no facets active and the
// default date-descending ordering.
func DefaultFilterState() FilterState {
	return FilterState{
		SortKey: DefaultSortKey,
		SortDir: SortDesc,
	}
}

// ActiveFacets counts the non-default filter facets. Used purely for the
// dashboard's filter indicator, never as a pipeline input.
func (f FilterState) ActiveFacets() int {
	n := 0
	if f.Source != "" {
		n++
	}
	if f.Traffic != TrafficAny {
		n++
	}
	if f.DateMode != DateAny {
		n++
	}
	if f.Search != "" {
		n++
	}
	return n
}

// LoginPoint is one day of the synthetic login series.
type LoginPoint struct {
	Day   string `json:"day"`
	Value int    `json:"value"`
}

// Overview carries the summary statistics for the dashboard. The role
// switch estimate, average rating and login series are synthetic placeholder
// values, not measured quantities; the Synthetic flag marks them as such in
// the response.
type Overview struct {
	TotalCount         int          `json:"total_count"`
	ActiveCount        int          `json:"active_count"`
	RoleSwitchEstimate int          `json:"role_switch_estimate"`
	OtherOutcomesCount int          `json:"other_outcomes_count"`
	AvgRating          float64      `json:"avg_rating"`
	FreshersCount      int          `json:"freshers_count"`
	ProfessionalsCount int          `json:"professionals_count"`
	OrganicCount       int          `json:"organic_count"`
	InorganicCount     int          `json:"inorganic_count"`
	LoginSeries        []LoginPoint `json:"login_series"`
	Synthetic          bool         `json:"synthetic"`
}

// ListResponse is the enquiries table payload: the ordered page of records
// plus the filtered/total count pair.
type ListResponse struct {
	Data          []EnquiryView `json:"data"`
	Filtered      int           `json:"filtered"`
	Total         int           `json:"total"`
	ActiveFilters int           `json:"active_filters"`
	Filters       FilterState   `json:"filters"`
}

// LoadResponse reports the outcome of a bulk load from the record store.
type LoadResponse struct {
	Status      string `json:"status"`
	FreeRecords int    `json:"free_records"`
	PaidRecords int    `json:"paid_records"`
	Total       int    `json:"total"`
	LoadedAt    string `json:"loaded_at"`
}
