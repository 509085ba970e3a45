// Package histogram defines the dashboard histogram profiles and the
// bucketed statistics exchanged with the backend.
package histogram

import "time"

// ProfileType names a display-range preset.
type ProfileType string

const (
	Hours3  ProfileType = "Hours3"
	Hours6  ProfileType = "Hours6"
	Hours12 ProfileType = "Hours12"
	Day1    ProfileType = "Day1"
	Week1   ProfileType = "Week1"
	Month1  ProfileType = "Month1"
)

// DefaultProfileType is used when a stored profile is unknown.
const DefaultProfileType = Hours6

// TimeUnit is the bucket granularity unit understood by the backend.
type TimeUnit string

const (
	Second TimeUnit = "Second"
	Minute TimeUnit = "Minute"
	Hour   TimeUnit = "Hour"
	Day    TimeUnit = "Day"
	Week   TimeUnit = "Week"
	Month  TimeUnit = "Month"
	Year   TimeUnit = "Year"
)

// Duration returns the nominal length of one unit. Months are 30 days
// and years 365.
func (u TimeUnit) Duration() time.Duration {
	switch u {
	case Second:
		return time.Second
	case Minute:
		return time.Minute
	case Hour:
		return time.Hour
	case Day:
		return 24 * time.Hour
	case Week:
		return 7 * 24 * time.Hour
	case Month:
		return 30 * 24 * time.Hour
	case Year:
		return 365 * 24 * time.Hour
	default:
		return 0
	}
}

// Profile controls query window, initial display window and bucket size.
type Profile struct {
	Type                ProfileType
	Label               string
	QueryPeriod         time.Duration
	DisplayPeriod       time.Duration
	BucketTimeUnit      TimeUnit
	BucketTimeFactor    int
	MovingAveragePeriod int
}

// BucketWidth returns the width of a single bucket.
func (p Profile) BucketWidth() time.Duration {
	return p.BucketTimeUnit.Duration() * time.Duration(p.BucketTimeFactor)
}

const day = 24 * time.Hour

var catalog = []Profile{
	{
		Type:                Hours3,
		Label:               "3 hours",
		QueryPeriod:         12 * time.Hour,
		DisplayPeriod:       3 * time.Hour,
		BucketTimeUnit:      Minute,
		BucketTimeFactor:    5,
		MovingAveragePeriod: 12,
	},
	{
		Type:                Hours6,
		Label:               "6 hours",
		QueryPeriod:         day,
		DisplayPeriod:       6 * time.Hour,
		BucketTimeUnit:      Minute,
		BucketTimeFactor:    10,
		MovingAveragePeriod: 12,
	},
	{
		Type:                Hours12,
		Label:               "12 hours",
		QueryPeriod:         2 * day,
		DisplayPeriod:       12 * time.Hour,
		BucketTimeUnit:      Minute,
		BucketTimeFactor:    30,
		MovingAveragePeriod: 12,
	},
	{
		Type:                Day1,
		Label:               "1 day",
		QueryPeriod:         7 * day,
		DisplayPeriod:       day,
		BucketTimeUnit:      Hour,
		BucketTimeFactor:    1,
		MovingAveragePeriod: 24,
	},
	{
		Type:                Week1,
		Label:               "1 week",
		QueryPeriod:         28 * day,
		DisplayPeriod:       7 * day,
		BucketTimeUnit:      Hour,
		BucketTimeFactor:    6,
		MovingAveragePeriod: 28,
	},
	{
		Type:                Month1,
		Label:               "1 month",
		QueryPeriod:         90 * day,
		DisplayPeriod:       30 * day,
		BucketTimeUnit:      Day,
		BucketTimeFactor:    1,
		MovingAveragePeriod: 7,
	},
}

// Lookup returns the profile for t, or the default profile when t is not
// in the catalog.
func Lookup(t ProfileType) Profile {
	for _, p := range catalog {
		if p.Type == t {
			return p
		}
	}
	return lookupDefault()
}

// Known reports whether t is a catalog entry.
func Known(t ProfileType) bool {
	for _, p := range catalog {
		if p.Type == t {
			return true
		}
	}
	return false
}

// Profiles returns the catalog in display order.
func Profiles() []Profile {
	out := make([]Profile, len(catalog))
	copy(out, catalog)
	return out
}

func lookupDefault() Profile {
	for _, p := range catalog {
		if p.Type == DefaultProfileType {
			return p
		}
	}
	panic("histogram: default profile missing from catalog")
}
