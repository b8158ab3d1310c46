package gis

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/carbon-validator/internal/domain/projects"
	"github.com/bryanwahyu/carbon-validator/internal/infra/db/memory"
)

func seeded(t *testing.T) (*memory.Repository, projects.ProjectID) {
	t.Helper()
	repo := memory.New(nil)
	id, err := repo.SaveAnalysis(context.Background(), projects.CompositeAnalysisResult{
		Project: &projects.ProjectInfo{ProjectCode: "GF-001", Name: "Project Green Forest"},
		Summary: &projects.Summary{OverallSummary: "ok"},
	})
	require.NoError(t, err)
	return repo, id
}

func TestIngest_GreenForest(t *testing.T) {
	repo, id := seeded(t)
	svc := &Service{Repo: repo}

	rep, err := svc.Ingest(context.Background(), "GF-001", Bundle{
		Deforestation: []DeforestationPoint{{Year: 2020, Hectares: 150}},
	})
	require.NoError(t, err)
	assert.True(t, rep.OK())
	assert.Equal(t, 1, rep.Inserted)

	b, err := repo.GetProjectBundle(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, []projects.TimeSeriesPoint{{Type: projects.SeriesDeforestation, Year: 2020, Value: 150}}, b.TimeSeries)
}

func TestIngest_UnknownCode(t *testing.T) {
	repo, _ := seeded(t)
	svc := &Service{Repo: repo}

	_, err := svc.Ingest(context.Background(), "XX-404", Bundle{
		Deforestation: []DeforestationPoint{{Year: 2020, Hectares: 150}},
	})
	assert.ErrorIs(t, err, projects.ErrNotFound)

	_, err = svc.Ingest(context.Background(), " ", Bundle{})
	assert.ErrorIs(t, err, projects.ErrInvalidInput)
}

func TestIngest_IsIdempotent(t *testing.T) {
	repo, id := seeded(t)
	svc := &Service{Repo: repo}
	bundle := Bundle{
		Deforestation: []DeforestationPoint{{Year: 2020, Hectares: 150}, {Year: 2021, Hectares: 90}},
		Emissions:     []EmissionsPoint{{Year: 2020, Tonnes: -12.5}},
		PieChart:      []Segment{{Category: "Forest", Value: 80}, {Category: "Grassland", Value: 20}},
	}
	for i := 0; i < 2; i++ {
		rep, err := svc.Ingest(context.Background(), "GF-001", bundle)
		require.NoError(t, err)
		assert.Equal(t, 5, rep.Inserted)
	}

	b, err := repo.GetProjectBundle(context.Background(), id)
	require.NoError(t, err)
	assert.Len(t, b.TimeSeries, 3)
	assert.Len(t, b.PieChart, 2)
}

func TestIngest_ReportsBadItems(t *testing.T) {
	repo, _ := seeded(t)
	svc := &Service{Repo: repo}

	rep, err := svc.Ingest(context.Background(), "GF-001", Bundle{
		Deforestation: []DeforestationPoint{{Year: 2020, Hectares: 150}, {Year: 0, Hectares: 1}, {Year: 2022, Hectares: -3}},
		Emissions:     []EmissionsPoint{{Year: 2020, Tonnes: math.NaN()}},
		PieChart:      []Segment{{Category: "  ", Value: 1}, {Category: "Forest", Value: 80}},
	})
	require.NoError(t, err)
	assert.False(t, rep.OK())
	assert.Equal(t, 2, rep.Inserted)

	items := make([]string, 0, len(rep.Failures))
	for _, f := range rep.Failures {
		items = append(items, f.Item)
	}
	assert.Equal(t, []string{"deforestation_data[1]", "deforestation_data[2]", "emissions_data[0]", "pie_chart_data[0]"}, items)
}

type failingRepo struct {
	*memory.Repository
}

func (failingRepo) UpsertPieChartSegment(context.Context, projects.ProjectID, projects.PieChartSegment) error {
	return errors.New("disk full")
}

func TestIngest_StoreFailureDoesNotStopOthers(t *testing.T) {
	repo, _ := seeded(t)
	svc := &Service{Repo: failingRepo{repo}}

	rep, err := svc.Ingest(context.Background(), "GF-001", Bundle{
		PieChart:      []Segment{{Category: "Forest", Value: 80}},
		Deforestation: []DeforestationPoint{{Year: 2020, Hectares: 150}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Inserted)
	require.Len(t, rep.Failures, 1)
	assert.Equal(t, "pie_chart_data[0]", rep.Failures[0].Item)
	assert.Contains(t, rep.Failures[0].Error, "disk full")
}
