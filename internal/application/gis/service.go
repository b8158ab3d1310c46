package gis

import (
	"context"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/bryanwahyu/carbon-validator/internal/domain/projects"
)

// Bundle is a GIS result for one project. Every part is optional.
type Bundle struct {
	Deforestation []DeforestationPoint `json:"deforestation_data,omitempty"`
	Emissions     []EmissionsPoint     `json:"emissions_data,omitempty"`
	PieChart      []Segment            `json:"pie_chart_data,omitempty"`
}

type DeforestationPoint struct {
	Year     int     `json:"year"`
	Hectares float64 `json:"hectares"`
}

type EmissionsPoint struct {
	Year   int     `json:"year"`
	Tonnes float64 `json:"tonnes"`
}

type Segment struct {
	Category string  `json:"category"`
	Value    float64 `json:"value"`
}

// ItemFailure names one entry that could not be stored.
type ItemFailure struct {
	Item  string `json:"item"`
	Error string `json:"error"`
}

// Report is the per-item outcome of an ingestion.
type Report struct {
	Inserted int           `json:"inserted"`
	Failures []ItemFailure `json:"failures"`
}

func (r Report) OK() bool { return len(r.Failures) == 0 }

// Service converts GIS bundles into time series and pie chart rows.
// Rows are upserted by (project, type, year) and (project, category), so ingesting
// the same bundle twice leaves one row per key.
type Service struct {
	Repo   projects.Repository
	Logger *zap.Logger
}

// Ingest stores every entry of b for the project with the given code. Entries are
// submitted one by one; a failing entry is recorded in the report and does not stop
// the others.
func (s *Service) Ingest(ctx context.Context, code string, b Bundle) (Report, error) {
	log := s.Logger
	if log == nil {
		log = zap.NewNop()
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return Report{}, fmt.Errorf("%w: project code is required", projects.ErrInvalidInput)
	}
	id, err := s.Repo.FindProjectByCode(ctx, code)
	if err != nil {
		return Report{}, err
	}

	rep := Report{Failures: []ItemFailure{}}
	fail := func(item string, err error) {
		rep.Failures = append(rep.Failures, ItemFailure{Item: item, Error: err.Error()})
		log.Warn("gis item rejected", zap.String("project_code", code), zap.String("item", item), zap.Error(err))
	}

	for i, p := range b.Deforestation {
		item := fmt.Sprintf("deforestation_data[%d]", i)
		pt := projects.TimeSeriesPoint{Type: projects.SeriesDeforestation, Year: p.Year, Value: p.Hectares}
		if err := validatePoint(pt); err != nil {
			fail(item, err)
			continue
		}
		if err := s.Repo.UpsertTimeSeriesPoint(ctx, id, pt); err != nil {
			fail(item, err)
			continue
		}
		rep.Inserted++
	}
	for i, p := range b.Emissions {
		item := fmt.Sprintf("emissions_data[%d]", i)
		pt := projects.TimeSeriesPoint{Type: projects.SeriesEmissions, Year: p.Year, Value: p.Tonnes}
		if err := validatePoint(pt); err != nil {
			fail(item, err)
			continue
		}
		if err := s.Repo.UpsertTimeSeriesPoint(ctx, id, pt); err != nil {
			fail(item, err)
			continue
		}
		rep.Inserted++
	}
	for i, sg := range b.PieChart {
		item := fmt.Sprintf("pie_chart_data[%d]", i)
		seg := projects.PieChartSegment{Category: strings.TrimSpace(sg.Category), Value: sg.Value}
		if err := validateSegment(seg); err != nil {
			fail(item, err)
			continue
		}
		if err := s.Repo.UpsertPieChartSegment(ctx, id, seg); err != nil {
			fail(item, err)
			continue
		}
		rep.Inserted++
	}

	log.Info("gis data ingested",
		zap.String("project_code", code),
		zap.Int("inserted", rep.Inserted),
		zap.Int("failed", len(rep.Failures)),
	)
	return rep, nil
}

func validatePoint(p projects.TimeSeriesPoint) error {
	if p.Year < projects.MinSeriesYear || p.Year > projects.MaxSeriesYear {
		return fmt.Errorf("%w: year %d out of range", projects.ErrInvalidInput, p.Year)
	}
	if math.IsNaN(p.Value) || math.IsInf(p.Value, 0) {
		return fmt.Errorf("%w: value must be a finite number", projects.ErrInvalidInput)
	}
	// net emissions may be negative, lost forest may not
	if p.Type == projects.SeriesDeforestation && p.Value < 0 {
		return fmt.Errorf("%w: hectares %v must not be negative", projects.ErrInvalidInput, p.Value)
	}
	return nil
}

func validateSegment(s projects.PieChartSegment) error {
	if s.Category == "" {
		return fmt.Errorf("%w: category is required", projects.ErrInvalidInput)
	}
	if math.IsNaN(s.Value) || math.IsInf(s.Value, 0) || s.Value < 0 {
		return fmt.Errorf("%w: value %v must be a non-negative number", projects.ErrInvalidInput, s.Value)
	}
	return nil
}
