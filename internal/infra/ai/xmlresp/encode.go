package xmlresp

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/bryanwahyu/carbon-validator/internal/domain/projects"
)

// EncodeRiskMetrics renders risks in the design-risk stage skeleton.
func EncodeRiskMetrics(risks []projects.RiskMetric) string {
	var b strings.Builder
	b.WriteString("<risk_metrics>\n")
	for _, r := range risks {
		fmt.Fprintf(&b, "  <risk_category name=\"%s\">\n", escapeAttr(r.Category))
		writeLeaf(&b, 4, "score", strconv.Itoa(r.Score))
		writeLeaf(&b, 4, "impact", string(r.Impact))
		writeLeaf(&b, 4, "likelihood", string(r.Likelihood))
		writeLeaf(&b, 4, "description", r.Description)
		b.WriteString("  </risk_category>\n")
	}
	b.WriteString("</risk_metrics>")
	return b.String()
}

// EncodeProjectInfo renders info in the basic-info stage skeleton.
func EncodeProjectInfo(p projects.ProjectInfo) string {
	var b strings.Builder
	b.WriteString("<project_info>\n")
	writeLeaf(&b, 2, "project_code", p.ProjectCode)
	writeLeaf(&b, 2, "name", p.Name)
	writeLeaf(&b, 2, "description", p.Description)
	writeLeaf(&b, 2, "location", p.Location)
	coords := "Not specified"
	if p.Coordinates != nil {
		coords = fmt.Sprintf("[%s, %s]",
			strconv.FormatFloat(p.Coordinates.Lat, 'f', -1, 64),
			strconv.FormatFloat(p.Coordinates.Lng, 'f', -1, 64))
	}
	writeLeaf(&b, 2, "coordinates", coords)
	writeLeaf(&b, 2, "status", p.Status)
	writeLeaf(&b, 2, "start_date", p.StartDate)
	writeLeaf(&b, 2, "end_date", orUnspecified(p.EndDate))
	writeLeaf(&b, 2, "methodology", orUnspecified(p.Methodology))
	writeLeaf(&b, 2, "size", orUnspecified(p.Size))
	b.WriteString("</project_info>")
	return b.String()
}

// EncodeSummary renders the policy stage skeleton, including GIS blocks when present.
func EncodeSummary(res PolicyResult) string {
	var b strings.Builder
	b.WriteString("<summary>\n")
	writeLeaf(&b, 2, "overall_summary", res.Summary.OverallSummary)
	b.WriteString("  <recommendations>\n")
	for _, r := range res.Summary.Recommendations {
		b.WriteString("    <recommendation>\n")
		writeLeaf(&b, 6, "action", r.Action)
		writeLeaf(&b, 6, "priority", r.Priority)
		b.WriteString("    </recommendation>\n")
	}
	b.WriteString("  </recommendations>\n")
	if res.Summary.AdditionalInsights != "" {
		writeLeaf(&b, 2, "additional_insights", res.Summary.AdditionalInsights)
	}

	var defo, emis []projects.TimeSeriesPoint
	for _, p := range res.TimeSeries {
		if p.Type == projects.SeriesDeforestation {
			defo = append(defo, p)
		} else {
			emis = append(emis, p)
		}
	}
	writeSeries(&b, "deforestation_data", "hectares", defo)
	writeSeries(&b, "emissions_data", "tonnes", emis)
	if len(res.PieChart) > 0 {
		b.WriteString("  <pie_chart_data>\n")
		for _, s := range res.PieChart {
			b.WriteString("    <segment>\n")
			writeLeaf(&b, 6, "category", s.Category)
			writeLeaf(&b, 6, "value", strconv.FormatFloat(s.Value, 'f', -1, 64))
			b.WriteString("    </segment>\n")
		}
		b.WriteString("  </pie_chart_data>\n")
	}
	b.WriteString("</summary>")
	return b.String()
}

func writeSeries(b *strings.Builder, block, unit string, pts []projects.TimeSeriesPoint) {
	if len(pts) == 0 {
		return
	}
	fmt.Fprintf(b, "  <%s>\n", block)
	for _, p := range pts {
		b.WriteString("    <data_point>\n")
		writeLeaf(b, 6, "year", strconv.Itoa(p.Year))
		writeLeaf(b, 6, unit, strconv.FormatFloat(p.Value, 'f', -1, 64))
		b.WriteString("    </data_point>\n")
	}
	fmt.Fprintf(b, "  </%s>\n", block)
}

func writeLeaf(b *strings.Builder, indent int, name, text string) {
	b.WriteString(strings.Repeat(" ", indent))
	fmt.Fprintf(b, "<%s>", name)
	_ = xml.EscapeText(b, []byte(text))
	fmt.Fprintf(b, "</%s>\n", name)
}

func escapeAttr(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

func orUnspecified(s string) string {
	if s == "" {
		return "Not specified"
	}
	return s
}
