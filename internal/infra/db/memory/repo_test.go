package memory

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/carbon-validator/internal/application"
	"github.com/bryanwahyu/carbon-validator/internal/domain/projects"
)

func result(code string) projects.CompositeAnalysisResult {
	return projects.CompositeAnalysisResult{
		Project: &projects.ProjectInfo{
			ProjectCode: code,
			Name:        "Project " + code,
			Coordinates: &projects.Coordinates{Lat: -0.02, Lng: 37.9},
			StartDate:   "2020-01-01",
		},
		Risks: []projects.RiskMetric{
			{Category: "Permanence", Score: 40},
			{Category: "Leakage", Score: 20},
		},
		Summary: &projects.Summary{OverallSummary: "ok", Recommendations: []projects.Recommendation{{Action: "a", Priority: "high"}}},
	}
}

func TestSaveAndBundle(t *testing.T) {
	ctx := context.Background()
	r := New(application.FixedClock{T: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)})

	res := result("GF-001")
	res.TimeSeries = []projects.TimeSeriesPoint{{Type: projects.SeriesEmissions, Year: 2021, Value: 3}}
	id, err := r.SaveAnalysis(ctx, res)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := r.FindProjectByCode(ctx, "GF-001")
	require.NoError(t, err)
	assert.Equal(t, id, got)

	b, err := r.GetProjectBundle(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Project GF-001", b.Project.Name)
	assert.Equal(t, []string{"Permanence", "Leakage"}, []string{b.Risks[0].Category, b.Risks[1].Category})
	require.NotNil(t, b.Summary)
	assert.Equal(t, "ok", b.Summary.OverallSummary)
	assert.Equal(t, res.TimeSeries, b.TimeSeries)

	require.Len(t, b.Geo, 1)
	var geom struct {
		Type        string    `json:"type"`
		Coordinates []float64 `json:"coordinates"`
	}
	require.NoError(t, json.Unmarshal(b.Geo[0].Geometry, &geom))
	assert.Equal(t, "Point", geom.Type)
	assert.Equal(t, []float64{37.9, -0.02}, geom.Coordinates)
}

func TestSaveAnalysis_SupersedesByCode(t *testing.T) {
	ctx := context.Background()
	r := New(nil)

	first, err := r.SaveAnalysis(ctx, result("GF-001"))
	require.NoError(t, err)

	again := result("GF-001")
	again.Project.Name = "Renamed"
	again.Risks = again.Risks[:1]
	second, err := r.SaveAnalysis(ctx, again)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	b, err := r.GetProjectBundle(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", b.Project.Name)
	assert.Len(t, b.Risks, 1)

	list, err := r.ListProjects(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestSaveAnalysis_Incomplete(t *testing.T) {
	r := New(nil)
	_, err := r.SaveAnalysis(context.Background(), projects.CompositeAnalysisResult{Project: &projects.ProjectInfo{ProjectCode: "X"}})
	assert.ErrorIs(t, err, projects.ErrIncompleteResult)
}

func TestUpserts(t *testing.T) {
	ctx := context.Background()
	r := New(nil)
	id, err := r.SaveAnalysis(ctx, result("GF-001"))
	require.NoError(t, err)

	pt := projects.TimeSeriesPoint{Type: projects.SeriesDeforestation, Year: 2020, Value: 150}
	require.NoError(t, r.UpsertTimeSeriesPoint(ctx, id, pt))
	pt.Value = 175
	require.NoError(t, r.UpsertTimeSeriesPoint(ctx, id, pt))
	require.NoError(t, r.UpsertPieChartSegment(ctx, id, projects.PieChartSegment{Category: "Forest", Value: 70}))
	require.NoError(t, r.UpsertPieChartSegment(ctx, id, projects.PieChartSegment{Category: "Cropland", Value: 20}))
	require.NoError(t, r.UpsertPieChartSegment(ctx, id, projects.PieChartSegment{Category: "Forest", Value: 80}))

	b, err := r.GetProjectBundle(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []projects.TimeSeriesPoint{pt}, b.TimeSeries)
	assert.Equal(t, []projects.PieChartSegment{{Category: "Forest", Value: 80}, {Category: "Cropland", Value: 20}}, b.PieChart)

	assert.ErrorIs(t, r.UpsertTimeSeriesPoint(ctx, "nope", pt), projects.ErrNotFound)
	assert.ErrorIs(t, r.UpsertPieChartSegment(ctx, "nope", projects.PieChartSegment{}), projects.ErrNotFound)
}

func TestNotFound(t *testing.T) {
	r := New(nil)
	_, err := r.FindProjectByCode(context.Background(), "none")
	assert.ErrorIs(t, err, projects.ErrNotFound)
	_, err = r.GetProjectBundle(context.Background(), "none")
	assert.ErrorIs(t, err, projects.ErrNotFound)
}

func TestBundleIsACopy(t *testing.T) {
	ctx := context.Background()
	r := New(nil)
	id, err := r.SaveAnalysis(ctx, result("GF-001"))
	require.NoError(t, err)

	b, err := r.GetProjectBundle(ctx, id)
	require.NoError(t, err)
	b.Risks[0].Score = 99
	b.Project.Coordinates.Lat = 10
	b.Summary.Recommendations[0].Action = "changed"

	fresh, err := r.GetProjectBundle(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 40, fresh.Risks[0].Score)
	assert.Equal(t, -0.02, fresh.Project.Coordinates.Lat)
	assert.Equal(t, "a", fresh.Summary.Recommendations[0].Action)
}

func TestConcurrentUse(t *testing.T) {
	ctx := context.Background()
	r := New(nil)
	id, err := r.SaveAnalysis(ctx, result("GF-001"))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(year int) {
			defer wg.Done()
			_ = r.UpsertTimeSeriesPoint(ctx, id, projects.TimeSeriesPoint{Type: projects.SeriesEmissions, Year: year, Value: 1})
			_, _ = r.GetProjectBundle(ctx, id)
		}(2000 + i)
	}
	wg.Wait()

	b, err := r.GetProjectBundle(ctx, id)
	require.NoError(t, err)
	assert.Len(t, b.TimeSeries, 20)
}
