// Package activitylog searches and edits the user's log of meals, insulin
// doses, exercise and manual readings.
package activitylog

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/jwulff/bgldash/internal/bloodsugar"
)

// Category classifies an entry.
type Category string

const (
	Insulin         Category = "Insulin"
	BasalRateChange Category = "BasalRateChange"
	Food            Category = "Food"
	BglReading      Category = "BglReading"
	Exercise        Category = "Exercise"
	Other           Category = "Other"
)

// Details holds the category-specific fields of an entry.
type Details interface {
	Category() Category
	// DisplayText is the short label shown next to a chart marker.
	DisplayText() string
	properties() map[string]string
}

// InsulinDetails records a dose.
type InsulinDetails struct {
	Units float64 `validate:"gt=0"`
	Kind  string
}

func (InsulinDetails) Category() Category { return Insulin }

func (d InsulinDetails) DisplayText() string {
	return formatNumber(d.Units) + " units"
}

func (d InsulinDetails) properties() map[string]string {
	return compact(map[string]string{"units": formatNumber(d.Units), "kind": d.Kind})
}

// BasalRateChangeDetails records a temporary basal rate.
type BasalRateChangeDetails struct {
	Percent      float64 `validate:"gte=0"`
	DurationMins int     `validate:"gte=0"`
}

func (BasalRateChangeDetails) Category() Category { return BasalRateChange }

func (d BasalRateChangeDetails) DisplayText() string {
	return formatNumber(d.Percent) + "%"
}

func (d BasalRateChangeDetails) properties() map[string]string {
	return map[string]string{
		"percent":      formatNumber(d.Percent),
		"durationMins": strconv.Itoa(d.DurationMins),
	}
}

// FoodDetails records carbohydrate intake.
type FoodDetails struct {
	Carbs       float64 `validate:"gte=0"`
	Description string
}

func (FoodDetails) Category() Category { return Food }

func (d FoodDetails) DisplayText() string {
	return formatNumber(d.Carbs) + " g"
}

func (d FoodDetails) properties() map[string]string {
	return compact(map[string]string{"carbs": formatNumber(d.Carbs), "description": d.Description})
}

// BglReadingDetails records a manual glucose measurement in its own unit.
type BglReadingDetails struct {
	Bgl  float64         `validate:"gt=0"`
	Unit bloodsugar.Unit `validate:"oneof=MgDl MmolL"`
}

func (BglReadingDetails) Category() Category { return BglReading }

func (d BglReadingDetails) DisplayText() string {
	return bloodsugar.FormatBgl(d.Bgl, d.Unit) + " " + d.Unit.Label()
}

func (d BglReadingDetails) properties() map[string]string {
	return map[string]string{"bgl": formatNumber(d.Bgl), "unit": string(d.Unit)}
}

// Canonical returns the reading in mg/dL.
func (d BglReadingDetails) Canonical() (float64, error) {
	return bloodsugar.ScaleBglValue(d.Bgl, d.Unit, bloodsugar.CanonicalUnit)
}

// ExerciseDetails records a workout.
type ExerciseDetails struct {
	DurationMins int `validate:"gte=0"`
	Intensity    string
}

func (ExerciseDetails) Category() Category { return Exercise }

func (d ExerciseDetails) DisplayText() string {
	return strconv.Itoa(d.DurationMins) + " mins"
}

func (d ExerciseDetails) properties() map[string]string {
	return compact(map[string]string{"durationMins": strconv.Itoa(d.DurationMins), "intensity": d.Intensity})
}

// OtherDetails is used for free-form entries and categories this client
// does not know.
type OtherDetails struct{}

func (OtherDetails) Category() Category { return Other }

func (OtherDetails) DisplayText() string { return "" }

func (OtherDetails) properties() map[string]string { return nil }

// Entry is a single activity log record.
type Entry struct {
	ID      string
	Created time.Time
	// Bgl is the ambient glucose in mg/dL captured when the entry was made.
	Bgl     *float64
	Details Details
	Notes   *string
}

// Category returns the category of the entry's details.
func (e Entry) Category() Category {
	if e.Details == nil {
		return Other
	}
	return e.Details.Category()
}

type wireEntry struct {
	ID         string      `json:"id,omitempty"`
	Created    time.Time   `json:"created"`
	Category   Category    `json:"category"`
	Bgl        *float64    `json:"bgl,omitempty"`
	Properties propertyMap `json:"properties,omitempty"`
	Notes      *string     `json:"notes,omitempty"`
}

func (e Entry) MarshalJSON() ([]byte, error) {
	w := wireEntry{
		ID:       e.ID,
		Created:  e.Created.UTC(),
		Category: e.Category(),
		Bgl:      e.Bgl,
		Notes:    e.Notes,
	}
	if e.Details != nil {
		w.Properties = e.Details.properties()
	}
	return json.Marshal(w)
}

func (e *Entry) UnmarshalJSON(data []byte) error {
	var w wireEntry
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	details, err := decodeDetails(w.Category, w.Properties)
	if err != nil {
		return fmt.Errorf("decoding %s properties: %w", w.Category, err)
	}
	*e = Entry{
		ID:      w.ID,
		Created: w.Created,
		Bgl:     w.Bgl,
		Details: details,
		Notes:   w.Notes,
	}
	return nil
}

func decodeDetails(category Category, props map[string]string) (Details, error) {
	p := propReader{props: props}
	var d Details
	switch category {
	case Insulin:
		d = InsulinDetails{Units: p.float("units"), Kind: props["kind"]}
	case BasalRateChange:
		d = BasalRateChangeDetails{Percent: p.float("percent"), DurationMins: p.int("durationMins")}
	case Food:
		d = FoodDetails{Carbs: p.float("carbs"), Description: props["description"]}
	case BglReading:
		d = BglReadingDetails{Bgl: p.float("bgl"), Unit: bloodsugar.Unit(props["unit"])}
	case Exercise:
		d = ExerciseDetails{DurationMins: p.int("durationMins"), Intensity: props["intensity"]}
	default:
		return OtherDetails{}, nil
	}
	if p.err != nil {
		return nil, p.err
	}
	return d, nil
}

// propertyMap accepts string, number and boolean values and keeps their
// text form.
type propertyMap map[string]string

func (m *propertyMap) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(propertyMap, len(raw))
	for k, v := range raw {
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			out[k] = s
			continue
		}
		if string(v) == "null" {
			continue
		}
		out[k] = string(v)
	}
	*m = out
	return nil
}

// propReader parses numeric properties and keeps the first failure.
type propReader struct {
	props map[string]string
	err   error
}

func (p *propReader) float(key string) float64 {
	s, ok := p.props[key]
	if !ok || s == "" || p.err != nil {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		p.err = fmt.Errorf("property %q: %w", key, err)
	}
	return v
}

func (p *propReader) int(key string) int {
	s, ok := p.props[key]
	if !ok || s == "" || p.err != nil {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		p.err = fmt.Errorf("property %q: %w", key, err)
	}
	return int(v)
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func compact(m map[string]string) map[string]string {
	for k, v := range m {
		if v == "" {
			delete(m, k)
		}
	}
	return m
}
