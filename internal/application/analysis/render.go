package analysis

import (
	"fmt"
	"strings"

	"github.com/bryanwahyu/carbon-validator/internal/domain/projects"
)

// RenderBundle writes a stored project as plain text for the question prompt.
func RenderBundle(b *projects.ProjectBundle) string {
	if b == nil {
		return ""
	}
	var sb strings.Builder
	p := b.Project
	fmt.Fprintf(&sb, "Project: %s (%s)\n", p.Name, p.ProjectCode)
	fmt.Fprintf(&sb, "Location: %s\n", stringOrDash(p.Location))
	if p.Coordinates != nil {
		fmt.Fprintf(&sb, "Coordinates: %g, %g\n", p.Coordinates.Lat, p.Coordinates.Lng)
	}
	fmt.Fprintf(&sb, "Status: %s\n", stringOrDash(p.Status))
	fmt.Fprintf(&sb, "Period: %s to %s\n", stringOrDash(p.StartDate), stringOrDash(p.EndDate))
	fmt.Fprintf(&sb, "Methodology: %s\n", stringOrDash(p.Methodology))
	fmt.Fprintf(&sb, "Size: %s\n", stringOrDash(p.Size))
	fmt.Fprintf(&sb, "Description: %s\n", stringOrDash(p.Description))

	if len(b.Risks) > 0 {
		sb.WriteString("\nRisk metrics:\n")
		for _, r := range b.Risks {
			fmt.Fprintf(&sb, "- %s: score %d, impact %s, likelihood %s. %s\n",
				r.Category, r.Score, r.Impact, r.Likelihood, r.Description)
		}
	}
	if b.Summary != nil {
		fmt.Fprintf(&sb, "\nSummary: %s\n", b.Summary.OverallSummary)
		for _, rec := range b.Summary.Recommendations {
			fmt.Fprintf(&sb, "- [%s] %s\n", stringOrDash(rec.Priority), rec.Action)
		}
		if b.Summary.AdditionalInsights != "" {
			fmt.Fprintf(&sb, "Additional insights: %s\n", b.Summary.AdditionalInsights)
		}
	}
	if len(b.TimeSeries) > 0 {
		sb.WriteString("\nTime series:\n")
		for _, t := range b.TimeSeries {
			fmt.Fprintf(&sb, "- %s %d: %g\n", t.Type, t.Year, t.Value)
		}
	}
	if len(b.PieChart) > 0 {
		sb.WriteString("\nLand use:\n")
		for _, s := range b.PieChart {
			fmt.Fprintf(&sb, "- %s: %g\n", s.Category, s.Value)
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func stringOrDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
