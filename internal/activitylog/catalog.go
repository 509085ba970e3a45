package activitylog

// CategoryInfo is the display metadata for a category.
type CategoryInfo struct {
	Category Category
	Name     string
	Icon     string
}

var categories = []CategoryInfo{
	{Category: Insulin, Name: "Insulin", Icon: "vaccines"},
	{Category: BasalRateChange, Name: "Basal rate change", Icon: "tune"},
	{Category: Food, Name: "Food", Icon: "restaurant"},
	{Category: BglReading, Name: "BGL reading", Icon: "bloodtype"},
	{Category: Exercise, Name: "Exercise", Icon: "directions_run"},
	{Category: Other, Name: "Other", Icon: "notes"},
}

// Categories returns the category catalog in display order.
func Categories() []CategoryInfo {
	out := make([]CategoryInfo, len(categories))
	copy(out, categories)
	return out
}

// Info returns the metadata for c. Unknown categories get the Other entry.
func Info(c Category) CategoryInfo {
	for _, info := range categories {
		if info.Category == c {
			return info
		}
	}
	return categories[len(categories)-1]
}
