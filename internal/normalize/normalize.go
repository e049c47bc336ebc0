// Package normalize maps raw heterogeneous record-store documents into
// canonical Enquiry values. Normalization has no failure mode: every field
// resolves to either real data or its documented placeholder, so the table
// stays renderable even with incomplete source data.
package normalize

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"enquiry-admin/internal/models"
)

// Candidate raw field names per canonical field, evaluated left to right.
// First non-empty value wins; empty string and absent key both count as
// "not present".
var (
	idFields          = []string{"id", "_id"}
	nameFields        = []string{"name", "fullName"}
	emailFields       = []string{"email"}
	phoneFields       = []string{"phone", "phoneNumber"}
	stateFields       = []string{"state"}
	cityFields        = []string{"city"}
	orgFields         = []string{"org", "organization"}
	designationFields = []string{"designation", "currentDesignation", "role"}
	ctcFields         = []string{"currentCTC", "ctc"}
	timestampFields   = []string{"createdAt", "submittedAt"}
)

// Record normalizes one raw document into an Enquiry tagged with the given
// source. Pure function: the raw map is only read, never mutated.
func Record(raw models.RawRecord, source string) models.Enquiry {
	return models.Enquiry{
		ID:          identity(raw),
		Source:      source,
		Name:        stringField(raw, nameFields, models.PlaceholderName),
		Email:       stringField(raw, emailFields, models.PlaceholderEmail),
		Phone:       stringField(raw, phoneFields, models.PlaceholderNA),
		State:       stringField(raw, stateFields, models.PlaceholderNA),
		City:        stringField(raw, cityFields, models.PlaceholderNA),
		Org:         stringField(raw, orgFields, models.PlaceholderNA),
		Designation: stringField(raw, designationFields, models.PlaceholderDesignation),
		CurrentCTC:  optionalField(raw, ctcFields),
		Status:      status(raw),
		UTMSource:   stringField(raw, []string{"utm_source"}, models.PlaceholderNA),
		UTMMedium:   stringField(raw, []string{"utm_medium"}, models.PlaceholderNA),
		UTMCampaign: stringField(raw, []string{"utm_campaign"}, models.PlaceholderNA),
		UTMTerm:     stringField(raw, []string{"utm_term"}, models.PlaceholderNA),
		UTMContent:  stringField(raw, []string{"utm_content"}, models.PlaceholderNA),
		CreatedAt:   timestamp(raw, timestampFields),
	}
}

// Records normalizes a batch from one collection.
func Records(raws []models.RawRecord, source string) []models.Enquiry {
	enquiries := make([]models.Enquiry, 0, len(raws))
	for _, raw := range raws {
		enquiries = append(enquiries, Record(raw, source))
	}
	return enquiries
}

func identity(raw models.RawRecord) string {
	if id := firstString(raw, idFields); id != "" {
		return id
	}
	return uuid.New().String()
}

func stringField(raw models.RawRecord, keys []string, fallback string) string {
	if v := firstString(raw, keys); v != "" {
		return v
	}
	return fallback
}

// optionalField distinguishes "not answered" (nil) from other defaults. It
// must never collapse to "N/A".
func optionalField(raw models.RawRecord, keys []string) *string {
	if v := firstString(raw, keys); v != "" {
		return &v
	}
	return nil
}

func status(raw models.RawRecord) string {
	v := firstString(raw, []string{"status"})
	if strings.EqualFold(v, models.StatusInactive) {
		return models.StatusInactive
	}
	return models.StatusActive
}

func firstString(raw models.RawRecord, keys []string) string {
	for _, key := range keys {
		v, ok := raw[key]
		if !ok || v == nil {
			continue
		}
		s := asString(v)
		if strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	}
	return ""
}

// Accepted string timestamp layouts, most specific first.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"Jan 2, 2006",
}

// timestamp resolves the first parsable timestamp candidate. The zero time
// marks "no date", which the pipeline treats as never matching a specific
// date preset.
func timestamp(raw models.RawRecord, keys []string) time.Time {
	for _, key := range keys {
		v, ok := raw[key]
		if !ok || v == nil {
			continue
		}
		if ts := parseTimestamp(v); !ts.IsZero() {
			return ts
		}
	}
	return time.Time{}
}

func parseTimestamp(v any) time.Time {
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return time.Time{}
		}
		for _, layout := range timeLayouts {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts
			}
		}
	case float64:
		return epoch(int64(t))
	case int64:
		return epoch(t)
	case int:
		return epoch(int64(t))
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return epoch(n)
		}
	case map[string]any:
		// Document stores serialize timestamps as {seconds, nanoseconds}.
		for _, key := range []string{"seconds", "_seconds"} {
			if sec, ok := t[key]; ok {
				return parseTimestamp(sec)
			}
		}
	}
	return time.Time{}
}

func epoch(n int64) time.Time {
	if n <= 0 {
		return time.Time{}
	}
	// Values past the year 33658 in seconds are epoch milliseconds.
	if n > 1_000_000_000_000 {
		return time.UnixMilli(n).UTC()
	}
	return time.Unix(n, 0).UTC()
}
