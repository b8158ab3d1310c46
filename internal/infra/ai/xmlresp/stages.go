package xmlresp

import (
	"github.com/bryanwahyu/carbon-validator/internal/domain/projects"
)

var (
	scoreRange = &Range{Min: 0, Max: 100}
	yearRange  = &Range{Min: projects.MinSeriesYear, Max: projects.MaxSeriesYear}
)

// ProjectInfoSchema is the basic-info stage contract.
var ProjectInfoSchema = Schema{
	Root: "project_info",
	Fields: []Field{
		{Name: "project_code", Required: true, Identifier: true, Pattern: projects.CodePattern},
		{Name: "name", Required: true},
		{Name: "description", Required: true},
		{Name: "location", Required: true},
		{Name: "coordinates", Required: true, Type: TypeCoordinates, Nullable: true},
		{Name: "status", Required: true},
		{Name: "start_date", Required: true, Type: TypeDate},
		{Name: "end_date", Required: true, Type: TypeDate, Nullable: true},
		{Name: "methodology", Nullable: true},
		{Name: "size", Nullable: true},
	},
}

// RiskMetricsSchema is the design-risk stage contract.
var RiskMetricsSchema = Schema{
	Root: "risk_metrics",
	Fields: []Field{
		{Name: "risk_category", Multiple: true, Fields: []Field{
			{Name: "@name", Required: true},
			{Name: "score", Required: true, Type: TypeInt, Range: scoreRange},
			{Name: "impact", Required: true, Enum: []string{
				string(projects.ImpactLow), string(projects.ImpactMedium), string(projects.ImpactHigh),
			}},
			{Name: "likelihood", Required: true, Enum: []string{
				string(projects.LikelihoodUnlikely), string(projects.LikelihoodPossible), string(projects.LikelihoodLikely),
			}},
			{Name: "description", Required: true},
		}},
	},
}

var summaryFields = []Field{
	{Name: "overall_summary", Required: true},
	{Name: "recommendations", Required: true, Fields: []Field{
		{Name: "recommendation", Multiple: true, Fields: []Field{
			{Name: "action", Required: true},
			{Name: "priority", Required: true},
		}},
	}},
	{Name: "additional_insights", Nullable: true},
}

var gisFields = []Field{
	{Name: "deforestation_data", Fields: []Field{
		{Name: "data_point", Multiple: true, Fields: []Field{
			{Name: "year", Required: true, Type: TypeInt, Range: yearRange},
			{Name: "hectares", Required: true, Type: TypeFloat, Range: AtLeast(0)},
		}},
	}},
	{Name: "emissions_data", Fields: []Field{
		{Name: "data_point", Multiple: true, Fields: []Field{
			{Name: "year", Required: true, Type: TypeInt, Range: yearRange},
			{Name: "tonnes", Required: true, Type: TypeFloat},
		}},
	}},
	{Name: "pie_chart_data", Fields: []Field{
		{Name: "segment", Multiple: true, Fields: []Field{
			{Name: "category", Required: true},
			{Name: "value", Required: true, Type: TypeFloat, Range: AtLeast(0)},
		}},
	}},
}

// SummarySchema is the policy-recommendation stage contract.
var SummarySchema = Schema{Root: "summary", Fields: summaryFields}

// SummaryGISSchema extends SummarySchema with optional GIS sub-blocks.
var SummaryGISSchema = Schema{
	Root:   "summary",
	Fields: append(append([]Field{}, summaryFields...), gisFields...),
}

// PolicyResult is the output of the policy-recommendation stage.
type PolicyResult struct {
	Summary    projects.Summary
	TimeSeries []projects.TimeSeriesPoint
	PieChart   []projects.PieChartSegment
}

func DecodeProjectInfo(raw string) (projects.ProjectInfo, error) {
	rec, err := Parse(raw, ProjectInfoSchema)
	if err != nil {
		return projects.ProjectInfo{}, err
	}
	info := projects.ProjectInfo{
		ProjectCode: rec.String("project_code"),
		Name:        rec.String("name"),
		Description: rec.String("description"),
		Location:    rec.String("location"),
		Status:      rec.String("status"),
		StartDate:   rec.String("start_date"),
		EndDate:     rec.String("end_date"),
		Methodology: rec.String("methodology"),
		Size:        rec.String("size"),
	}
	if c, ok := rec.Coordinates("coordinates"); ok {
		info.Coordinates = &projects.Coordinates{Lat: c[0], Lng: c[1]}
	}
	return info, nil
}

func DecodeRiskMetrics(raw string) ([]projects.RiskMetric, error) {
	rec, err := Parse(raw, RiskMetricsSchema)
	if err != nil {
		return nil, err
	}
	cats := rec.List("risk_category")
	out := make([]projects.RiskMetric, 0, len(cats))
	for _, c := range cats {
		out = append(out, projects.RiskMetric{
			Category:    c.String("@name"),
			Score:       c.Int("score"),
			Impact:      projects.Impact(c.String("impact")),
			Likelihood:  projects.Likelihood(c.String("likelihood")),
			Description: c.String("description"),
		})
	}
	return out, nil
}

// DecodeSummary decodes the policy stage. With gis set, the optional deforestation,
// emissions and pie chart blocks are decoded as well.
func DecodeSummary(raw string, gis bool) (PolicyResult, error) {
	schema := SummarySchema
	if gis {
		schema = SummaryGISSchema
	}
	rec, err := Parse(raw, schema)
	if err != nil {
		return PolicyResult{}, err
	}

	res := PolicyResult{Summary: projects.Summary{
		OverallSummary:     rec.String("overall_summary"),
		AdditionalInsights: rec.String("additional_insights"),
		Recommendations:    []projects.Recommendation{},
	}}
	if recs, ok := rec.Group("recommendations"); ok {
		for _, r := range recs.List("recommendation") {
			res.Summary.Recommendations = append(res.Summary.Recommendations, projects.Recommendation{
				Action:   r.String("action"),
				Priority: r.String("priority"),
			})
		}
	}
	if !gis {
		return res, nil
	}

	if g, ok := rec.Group("deforestation_data"); ok {
		for _, p := range g.List("data_point") {
			res.TimeSeries = append(res.TimeSeries, projects.TimeSeriesPoint{
				Type: projects.SeriesDeforestation, Year: p.Int("year"), Value: p.Float("hectares"),
			})
		}
	}
	if g, ok := rec.Group("emissions_data"); ok {
		for _, p := range g.List("data_point") {
			res.TimeSeries = append(res.TimeSeries, projects.TimeSeriesPoint{
				Type: projects.SeriesEmissions, Year: p.Int("year"), Value: p.Float("tonnes"),
			})
		}
	}
	if g, ok := rec.Group("pie_chart_data"); ok {
		for _, s := range g.List("segment") {
			res.PieChart = append(res.PieChart, projects.PieChartSegment{
				Category: s.String("category"), Value: s.Float("value"),
			})
		}
	}
	return res, nil
}
