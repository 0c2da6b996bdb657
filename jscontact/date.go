package jscontact

import (
	"encoding/json"
	"fmt"
)

// DateValue is either a Timestamp (UTC set) or a PartialDate.
type DateValue struct {
	// UTC is an RFC 3339 timestamp in UTC.
	UTC string `json:"utc" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`

	Year          int    `json:"year"`
	Month         int    `json:"month" validate:"min=0,max=12"`
	Day           int    `json:"day" validate:"min=0,max=31"`
	CalendarScale string `json:"calendarScale"`
}

// IsTimestamp reports whether d is a Timestamp.
func (d DateValue) IsTimestamp() bool {
	return d.UTC != ""
}

type timestampJSON struct {
	Type string `json:"@type"`
	UTC  string `json:"utc"`
}

type partialDateJSON struct {
	Type          string `json:"@type"`
	Year          int    `json:"year,omitempty"`
	Month         int    `json:"month,omitempty"`
	Day           int    `json:"day,omitempty"`
	CalendarScale string `json:"calendarScale,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (d DateValue) MarshalJSON() ([]byte, error) {
	if d.IsTimestamp() {
		return json.Marshal(timestampJSON{Type: "Timestamp", UTC: d.UTC})
	}

	return json.Marshal(partialDateJSON{
		Type:          "PartialDate",
		Year:          d.Year,
		Month:         d.Month,
		Day:           d.Day,
		CalendarScale: d.CalendarScale,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *DateValue) UnmarshalJSON(data []byte) error {
	var peek struct {
		Type string `json:"@type"`
		UTC  string `json:"utc"`
	}

	if err := json.Unmarshal(data, &peek); err != nil {
		return fmt.Errorf("date: %w", err)
	}

	if peek.Type == "Timestamp" || (peek.Type == "" && peek.UTC != "") {
		*d = DateValue{UTC: peek.UTC}

		return nil
	}

	var p partialDateJSON
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("date: %w", err)
	}

	*d = DateValue{Year: p.Year, Month: p.Month, Day: p.Day, CalendarScale: p.CalendarScale}

	return nil
}
