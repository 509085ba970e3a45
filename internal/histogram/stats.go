package histogram

import "time"

// ModelType selects the server-side moving average algorithm.
type ModelType string

const (
	Simple      ModelType = "Simple"
	Linear      ModelType = "Linear"
	Ewma        ModelType = "Ewma"
	HoltLinear  ModelType = "HoltLinear"
	HoltWinters ModelType = "HoltWinters"
)

// Minimizes reports whether the backend fits the model parameters itself.
func (m ModelType) Minimizes() bool {
	return m == HoltLinear || m == HoltWinters
}

// MovingAverageParams is the moving average block of a stats request.
type MovingAverageParams struct {
	Enabled         bool      `json:"enabled"`
	ModelType       ModelType `json:"modelType"`
	Window          int       `json:"window"`
	Minimize        bool      `json:"minimize"`
	Alpha           *float64  `json:"alpha,omitempty"`
	Beta            *float64  `json:"beta,omitempty"`
	Period          int       `json:"period"`
	PredictionCount int       `json:"predictionCount"`
}

// EffectiveMovingAverage adapts user parameters to what the backend
// accepts for profile. The window is never smaller than twice the profile
// period; a disabled average asks for the cheapest model.
func EffectiveMovingAverage(params MovingAverageParams, profile Profile) MovingAverageParams {
	out := params
	if floor := 2 * profile.MovingAveragePeriod; out.Window < floor {
		out.Window = floor
	}
	if !out.Enabled {
		out.ModelType = Simple
	}
	if out.ModelType == "" {
		out.ModelType = Simple
	}
	if out.Period < 1 {
		out.Period = profile.MovingAveragePeriod
	}
	out.Minimize = out.ModelType.Minimizes()
	if out.Alpha != nil {
		a := *out.Alpha
		out.Alpha = &a
	}
	if out.Beta != nil {
		b := *out.Beta
		out.Beta = &b
	}
	return out
}

// StatsRequest is the body of POST /bgl/accountStatsHistogram.
type StatsRequest struct {
	QueryFrom        time.Time           `json:"queryFrom"`
	QueryTo          time.Time           `json:"queryTo"`
	BucketTimeUnit   TimeUnit            `json:"bucketTimeUnit"`
	BucketTimeFactor int                 `json:"bucketTimeFactor"`
	MovingAverage    MovingAverageParams `json:"movingAverage"`
}

// NewStatsRequest builds the request covering [now - queryPeriod, now].
func NewStatsRequest(profile Profile, movingAverage MovingAverageParams, now time.Time) StatsRequest {
	return StatsRequest{
		QueryFrom:        now.Add(-profile.QueryPeriod).UTC(),
		QueryTo:          now.UTC(),
		BucketTimeUnit:   profile.BucketTimeUnit,
		BucketTimeFactor: profile.BucketTimeFactor,
		MovingAverage:    EffectiveMovingAverage(movingAverage, profile),
	}
}

// Bucket is one aggregated interval. Values are mg/dL; Average is nil for
// buckets without readings.
type Bucket struct {
	Timestamp     time.Time `json:"timestamp"`
	Count         int       `json:"count"`
	Average       *float64  `json:"avg,omitempty"`
	Min           *float64  `json:"min,omitempty"`
	Max           *float64  `json:"max,omitempty"`
	Sum           *float64  `json:"sum,omitempty"`
	MovingAverage *float64  `json:"movingAverage,omitempty"`
}
