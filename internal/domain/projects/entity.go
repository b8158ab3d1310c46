package projects

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ProjectID is assigned by the persistence layer.
type ProjectID string

// Impact enum
type Impact string

const (
	ImpactLow    Impact = "Low"
	ImpactMedium Impact = "Medium"
	ImpactHigh   Impact = "High"
)

// Likelihood enum
type Likelihood string

const (
	LikelihoodUnlikely Likelihood = "Unlikely"
	LikelihoodPossible Likelihood = "Possible"
	LikelihoodLikely   Likelihood = "Likely"
)

// SeriesType enum
type SeriesType string

const (
	SeriesDeforestation SeriesType = "deforestation"
	SeriesEmissions     SeriesType = "emissions"
)

// Coordinates in decimal degrees.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// ProjectInfo is the output of the basic-info stage.
// Dates are YYYY-MM-DD; empty EndDate, Methodology and Size mean absent.
type ProjectInfo struct {
	ProjectCode string       `json:"project_code"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Location    string       `json:"location"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
	Status      string       `json:"status"`
	StartDate   string       `json:"start_date"`
	EndDate     string       `json:"end_date,omitempty"`
	Methodology string       `json:"methodology,omitempty"`
	Size        string       `json:"size,omitempty"`
}

// RiskMetric value object
type RiskMetric struct {
	Category    string     `json:"category"`
	Score       int        `json:"score"`
	Impact      Impact     `json:"impact"`
	Likelihood  Likelihood `json:"likelihood"`
	Description string     `json:"description"`
}

type Recommendation struct {
	Action   string `json:"action"`
	Priority string `json:"priority"`
}

type Summary struct {
	OverallSummary     string           `json:"overall_summary"`
	Recommendations    []Recommendation `json:"recommendations"`
	AdditionalInsights string           `json:"additional_insights,omitempty"`
}

type TimeSeriesPoint struct {
	Type  SeriesType `json:"type"`
	Year  int        `json:"year"`
	Value float64    `json:"value"`
}

type PieChartSegment struct {
	Category string  `json:"category"`
	Value    float64 `json:"value"`
}

// GeoFeature is rendered as a GeoJSON Feature.
type GeoFeature struct {
	Type       string          `json:"type"`
	Geometry   json.RawMessage `json:"geometry"`
	Properties map[string]any  `json:"properties"`
}

// ErrIncompleteResult is returned by Validate when a required part is missing.
var ErrIncompleteResult = errors.New("composite analysis result requires project info and summary")

// CompositeAnalysisResult is everything one analysis run produced.
type CompositeAnalysisResult struct {
	Project    *ProjectInfo      `json:"project"`
	Risks      []RiskMetric      `json:"risk_metrics"`
	Summary    *Summary          `json:"summary"`
	TimeSeries []TimeSeriesPoint `json:"time_series,omitempty"`
	PieChart   []PieChartSegment `json:"pie_chart,omitempty"`
}

// Validate checks the result can be persisted.
func (c CompositeAnalysisResult) Validate() error {
	if c.Project == nil || c.Summary == nil {
		return ErrIncompleteResult
	}
	if !ValidCode(c.Project.ProjectCode) {
		return fmt.Errorf("%w: project code %q", ErrInvalidInput, c.Project.ProjectCode)
	}
	return nil
}

// Aggregate Root: Project
type Project struct {
	ID ProjectID `json:"id"`
	ProjectInfo
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProjectBundle is the full detail view of one project.
type ProjectBundle struct {
	Project    Project           `json:"project"`
	Summary    *Summary          `json:"summary"`
	Risks      []RiskMetric      `json:"riskMetrics"`
	TimeSeries []TimeSeriesPoint `json:"timeSeriesData"`
	PieChart   []PieChartSegment `json:"pieChartData"`
	Geo        []GeoFeature      `json:"geospatialData"`
}

// PointFeature renders the project location as a GeoJSON Point. GeoJSON order is
// [lng, lat].
func (p ProjectInfo) PointFeature() (GeoFeature, bool) {
	if p.Coordinates == nil {
		return GeoFeature{}, false
	}
	geom, _ := json.Marshal(map[string]any{
		"type":        "Point",
		"coordinates": []float64{p.Coordinates.Lng, p.Coordinates.Lat},
	})
	return GeoFeature{
		Type:     "Feature",
		Geometry: geom,
		Properties: map[string]any{
			"project_code": p.ProjectCode,
			"name":         p.Name,
		},
	}, true
}
