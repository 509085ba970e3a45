package bloodsugar

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestClassifyRange(t *testing.T) {
	tests := []struct {
		value    float64
		expected RangeStatus
	}{
		{40, RangeLow},
		{54, RangeLow},
		{55, RangeOutside},
		{69, RangeOutside},
		{70, RangeTarget},
		{120, RangeTarget},
		{180, RangeTarget},
		{181, RangeOutside},
		{400, RangeOutside},
	}

	for _, tt := range tests {
		result := ClassifyRange(tt.value, ThresholdLow, ThresholdTargetMin, ThresholdTargetMax)
		if result != tt.expected {
			t.Errorf("ClassifyRange(%v) = %s, want %s", tt.value, result, tt.expected)
		}
	}
}

func TestTrendArrow(t *testing.T) {
	tests := []struct {
		trend    Trend
		expected string
	}{
		{TrendFlat, "→"},
		{TrendSingleUp, "↑"},
		{TrendSingleDown, "↓"},
		{TrendDoubleUp, "⇈"},
		{TrendDoubleDown, "⇊"},
		{TrendFortyFiveUp, "↗"},
		{TrendFortyFiveDown, "↘"},
		{"flat", "→"},
		{"Unknown", "?"},
		{"", "?"},
	}

	for _, tt := range tests {
		result := tt.trend.Arrow()
		if result != tt.expected {
			t.Errorf("Trend(%q).Arrow() = %q, want %q", tt.trend, result, tt.expected)
		}
	}
}

func TestStatusIsStale(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name     string
		age      time.Duration
		expected bool
	}{
		{"fresh reading (1 minute ago)", time.Minute, false},
		{"fresh reading (9 minutes ago)", 9 * time.Minute, false},
		{"stale reading (10 minutes ago)", 10 * time.Minute, true},
		{"stale reading (15 minutes ago)", 15 * time.Minute, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := now.Add(-tt.age)
			status := Status{LastReading: &ts}
			if got := status.IsStale(now); got != tt.expected {
				t.Errorf("IsStale() = %v, want %v", got, tt.expected)
			}
		})
	}

	if (Status{}).IsStale(now) {
		t.Error("empty status should not be stale")
	}
}

func TestStatusRelativeTimeAdvances(t *testing.T) {
	reading := time.Date(2026, 1, 22, 10, 0, 0, 0, time.UTC)
	status := Status{LastReading: &reading}

	first := status.RelativeTime(reading.Add(5 * time.Minute))
	later := status.RelativeTime(reading.Add(20 * time.Minute))

	if first != "5 minutes ago" {
		t.Errorf("RelativeTime = %q, want %q", first, "5 minutes ago")
	}
	if later == first {
		t.Errorf("RelativeTime did not advance: %q", later)
	}
	if (Status{}).RelativeTime(reading) != "" {
		t.Error("empty status should render no relative time")
	}
}

func TestStatusIsEmpty(t *testing.T) {
	if !(Status{}).IsEmpty() {
		t.Error("zero status should be empty")
	}
	v := 100.0
	if (Status{Bgl: &v}).IsEmpty() {
		t.Error("status with bgl should not be empty")
	}
}

func TestScaleBglValue(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		from     Unit
		to       Unit
		expected float64
	}{
		{"mg/dL to mmol/L", 180, MgDl, MmolL, 10},
		{"mmol/L to mg/dL", 5.5, MmolL, MgDl, 99},
		{"identity mg/dL", 120, MgDl, MgDl, 120},
		{"identity mmol/L", 6.2, MmolL, MmolL, 6.2},
		{"identity unknown", 42, "Furlongs", "Furlongs", 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ScaleBglValue(tt.value, tt.from, tt.to)
			if err != nil {
				t.Fatalf("ScaleBglValue() error = %v", err)
			}
			if math.Abs(result-tt.expected) > 1e-9 {
				t.Errorf("ScaleBglValue(%v, %s, %s) = %v, want %v", tt.value, tt.from, tt.to, result, tt.expected)
			}
		})
	}
}

func TestScaleBglValueUnsupported(t *testing.T) {
	_, err := ScaleBglValue(100, MgDl, "Furlongs")

	var unitErr *UnsupportedUnitError
	if !errors.As(err, &unitErr) {
		t.Fatalf("expected UnsupportedUnitError, got %v", err)
	}
	if unitErr.To != "Furlongs" {
		t.Errorf("To = %q, want Furlongs", unitErr.To)
	}

	if _, err := ScaleBglValue(100, "Furlongs", MmolL); err == nil {
		t.Error("expected error for unknown source unit")
	}
}

func TestScaleBglValueRoundTrip(t *testing.T) {
	units := []Unit{MgDl, MmolL}
	values := []float64{0, 0.1, 3.9, 5.55, 72, 99.9, 180, 400}

	for _, a := range units {
		for _, b := range units {
			for _, v := range values {
				there, err := ScaleBglValue(v, a, b)
				if err != nil {
					t.Fatalf("ScaleBglValue error = %v", err)
				}
				back, err := ScaleBglValue(there, b, a)
				if err != nil {
					t.Fatalf("ScaleBglValue error = %v", err)
				}
				if math.Abs(back-v) > 1e-9 {
					t.Errorf("round trip %v %s->%s->%s = %v", v, a, b, a, back)
				}
			}
		}
	}
}

func TestScaleFromCanonical(t *testing.T) {
	result, err := ScaleFromCanonical(90, MmolL)
	if err != nil {
		t.Fatalf("ScaleFromCanonical() error = %v", err)
	}
	if result != 5 {
		t.Errorf("ScaleFromCanonical(90, MmolL) = %v, want 5", result)
	}
}

func TestFormatDelta(t *testing.T) {
	tests := []struct {
		delta    float64
		expected string
	}{
		{0, "+0.0"},
		{-1.25, "-1.3"},
		{2.04, "+2.0"},
		{0.05, "+0.1"},
		{-3, "-3.0"},
		{12.36, "+12.4"},
	}

	for _, tt := range tests {
		result := FormatDelta(tt.delta)
		if result != tt.expected {
			t.Errorf("FormatDelta(%v) = %q, want %q", tt.delta, result, tt.expected)
		}
	}
}

func TestFormatBgl(t *testing.T) {
	if got := FormatBgl(123.6, MgDl); got != "124" {
		t.Errorf("FormatBgl mg/dL = %q, want 124", got)
	}
	if got := FormatBgl(6.25, MmolL); got != "6.3" {
		t.Errorf("FormatBgl mmol/L = %q, want 6.3", got)
	}
}

func TestUnitLabel(t *testing.T) {
	if MgDl.Label() != "mg/dL" || MmolL.Label() != "mmol/L" {
		t.Errorf("unexpected labels %q %q", MgDl.Label(), MmolL.Label())
	}
}
