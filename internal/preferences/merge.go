package preferences

// Merge returns server layered over defaults. A field set in server wins;
// an absent field keeps the default. Nested sections merge field by field,
// so a partial server section never discards sibling defaults. Neither
// input is modified and the result shares no pointers with them.
func Merge(server, defaults Preferences) Preferences {
	return Preferences{
		Treatment: mergeTreatment(server.Treatment, defaults.Treatment),
		Dashboard: mergeDashboard(server.Dashboard, defaults.Dashboard),
	}
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// pick returns a copy of src when set, else a copy of def.
func pick[T any](src, def *T) *T {
	if src != nil {
		return clonePtr(src)
	}
	return clonePtr(def)
}

func mergeTreatment(src, def *Treatment) *Treatment {
	if src == nil && def == nil {
		return nil
	}
	if src == nil {
		src = &Treatment{}
	}
	if def == nil {
		def = &Treatment{}
	}
	return &Treatment{
		BglUnit:         pick(src.BglUnit, def.BglUnit),
		TimeFormat:      pick(src.TimeFormat, def.TimeFormat),
		TargetBglRange:  mergeRange(src.TargetBglRange, def.TargetBglRange),
		BglLowThreshold: pick(src.BglLowThreshold, def.BglLowThreshold),
	}
}

func mergeRange(src, def *BglRange) *BglRange {
	if src == nil && def == nil {
		return nil
	}
	if src == nil {
		src = &BglRange{}
	}
	if def == nil {
		def = &BglRange{}
	}
	return &BglRange{
		Min: pick(src.Min, def.Min),
		Max: pick(src.Max, def.Max),
	}
}

func mergeDashboard(src, def *Dashboard) *Dashboard {
	if src == nil && def == nil {
		return nil
	}
	if src == nil {
		src = &Dashboard{}
	}
	if def == nil {
		def = &Dashboard{}
	}
	return &Dashboard{
		BglStatsHistogram: mergeHistogram(src.BglStatsHistogram, def.BglStatsHistogram),
	}
}

func mergeHistogram(src, def *HistogramOptions) *HistogramOptions {
	if src == nil && def == nil {
		return nil
	}
	if src == nil {
		src = &HistogramOptions{}
	}
	if def == nil {
		def = &HistogramOptions{}
	}
	return &HistogramOptions{
		ProfileType:   pick(src.ProfileType, def.ProfileType),
		PlotHeight:    pick(src.PlotHeight, def.PlotHeight),
		PlotColour:    pick(src.PlotColour, def.PlotColour),
		MovingAverage: mergeMovingAverage(src.MovingAverage, def.MovingAverage),
		ActivityLog:   pick(src.ActivityLog, def.ActivityLog),
		DataLabels:    pick(src.DataLabels, def.DataLabels),
	}
}

func mergeMovingAverage(src, def *MovingAverage) *MovingAverage {
	if src == nil && def == nil {
		return nil
	}
	if src == nil {
		src = &MovingAverage{}
	}
	if def == nil {
		def = &MovingAverage{}
	}
	return &MovingAverage{
		Enabled:         pick(src.Enabled, def.Enabled),
		ModelType:       pick(src.ModelType, def.ModelType),
		Window:          pick(src.Window, def.Window),
		Minimize:        pick(src.Minimize, def.Minimize),
		Alpha:           pick(src.Alpha, def.Alpha),
		Beta:            pick(src.Beta, def.Beta),
		Period:          pick(src.Period, def.Period),
		PredictionCount: pick(src.PredictionCount, def.PredictionCount),
	}
}
