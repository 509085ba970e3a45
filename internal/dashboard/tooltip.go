package dashboard

import (
	"strings"
	"text/template"
	"time"

	"github.com/jwulff/bgldash/internal/preferences"
)

// Tooltip templates per series. Fields come from tooltipData.
var tooltipTemplates = map[SeriesKind]string{
	SeriesGlucose:  `{{.Time}}: {{.Value}} {{.Unit}}{{if .Delta}} ({{.Delta}}){{end}}`,
	SeriesTrend:    `{{.Time}}: {{.Value}} {{.Unit}} {{if .Predicted}}predicted{{else}}trend{{end}}`,
	SeriesActivity: `{{.Time}}: {{.Category}}{{if .Text}} {{.Text}}{{end}}{{if .Notes}} - {{.Notes}}{{end}}`,
}

var compiledTooltips = func() map[SeriesKind]*template.Template {
	out := make(map[SeriesKind]*template.Template, len(tooltipTemplates))
	for kind, text := range tooltipTemplates {
		out[kind] = template.Must(template.New(string(kind)).Parse(text))
	}
	return out
}()

type tooltipData struct {
	Time      string
	Value     string
	Unit      string
	Delta     string
	Predicted bool
	Category  string
	Text      string
	Notes     string
}

func renderTooltip(kind SeriesKind, data tooltipData) string {
	var sb strings.Builder
	if err := compiledTooltips[kind].Execute(&sb, data); err != nil {
		return data.Time
	}
	return sb.String()
}

// Templates returns a copy of the tooltip templates.
func Templates() map[SeriesKind]string {
	out := make(map[SeriesKind]string, len(tooltipTemplates))
	for k, v := range tooltipTemplates {
		out[k] = v
	}
	return out
}

// timeLayout returns the tooltip time layout for a clock style.
func timeLayout(format preferences.TimeFormat) string {
	if format == preferences.TimeFormat12 {
		return "Jan 2 3:04 PM"
	}
	return "Jan 2 15:04"
}

func formatTime(t time.Time, loc *time.Location, format preferences.TimeFormat) string {
	return t.In(loc).Format(timeLayout(format))
}
