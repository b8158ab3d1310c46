// Package memory is an in-process projects.Repository used when no database is
// configured and in tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/bryanwahyu/carbon-validator/internal/application"
	"github.com/bryanwahyu/carbon-validator/internal/domain/projects"
)

type seriesKey struct {
	typ  projects.SeriesType
	year int
}

type record struct {
	project projects.Project
	summary projects.Summary
	risks   []projects.RiskMetric
	series  map[seriesKey]float64
	pie     map[string]float64
	pieKeys []string
	geo     []projects.GeoFeature
}

// Repository keeps everything in maps guarded by one RWMutex.
type Repository struct {
	mu     sync.RWMutex
	byID   map[projects.ProjectID]*record
	byCode map[string]projects.ProjectID
	clock  application.Clock
}

func New(clock application.Clock) *Repository {
	if clock == nil {
		clock = application.SystemClock{}
	}
	return &Repository{
		byID:   make(map[projects.ProjectID]*record),
		byCode: make(map[string]projects.ProjectID),
		clock:  clock,
	}
}

func (r *Repository) SaveAnalysis(_ context.Context, res projects.CompositeAnalysisResult) (projects.ProjectID, error) {
	if err := res.Validate(); err != nil {
		return "", err
	}
	now := r.clock.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.recordByCode(res.Project.ProjectCode)
	if !ok {
		id := projects.ProjectID(uuid.NewString())
		rec = &record{
			project: projects.Project{ID: id, CreatedAt: now},
			series:  make(map[seriesKey]float64),
			pie:     make(map[string]float64),
		}
		r.byID[id] = rec
		r.byCode[res.Project.ProjectCode] = id
	}

	rec.project.ProjectInfo = cloneInfo(*res.Project)
	rec.project.UpdatedAt = now
	rec.summary = cloneSummary(*res.Summary)
	rec.risks = append([]projects.RiskMetric{}, res.Risks...)
	rec.geo = nil
	if f, ok := res.Project.PointFeature(); ok {
		rec.geo = []projects.GeoFeature{f}
	}
	for _, p := range res.TimeSeries {
		rec.series[seriesKey{p.Type, p.Year}] = p.Value
	}
	for _, s := range res.PieChart {
		rec.putSegment(s)
	}
	return rec.project.ID, nil
}

func (r *Repository) recordByCode(code string) (*record, bool) {
	id, ok := r.byCode[code]
	if !ok {
		return nil, false
	}
	return r.byID[id], true
}

func (r *Repository) FindProjectByCode(_ context.Context, code string) (projects.ProjectID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byCode[code]
	if !ok {
		return "", projects.ErrNotFound
	}
	return id, nil
}

func (r *Repository) UpsertTimeSeriesPoint(_ context.Context, id projects.ProjectID, p projects.TimeSeriesPoint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.byID[id]
	if !ok {
		return projects.ErrNotFound
	}
	rec.series[seriesKey{p.Type, p.Year}] = p.Value
	return nil
}

func (r *Repository) UpsertPieChartSegment(_ context.Context, id projects.ProjectID, s projects.PieChartSegment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.byID[id]
	if !ok {
		return projects.ErrNotFound
	}
	rec.putSegment(s)
	return nil
}

func (rec *record) putSegment(s projects.PieChartSegment) {
	if _, ok := rec.pie[s.Category]; !ok {
		rec.pieKeys = append(rec.pieKeys, s.Category)
	}
	rec.pie[s.Category] = s.Value
}

// ListProjects returns projects ordered by creation time, newest first.
func (r *Repository) ListProjects(_ context.Context) ([]projects.Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]projects.Project, 0, len(r.byID))
	for _, rec := range r.byID {
		p := rec.project
		p.ProjectInfo = cloneInfo(p.ProjectInfo)
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ProjectCode < out[j].ProjectCode
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *Repository) GetProjectBundle(_ context.Context, id projects.ProjectID) (*projects.ProjectBundle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.byID[id]
	if !ok {
		return nil, projects.ErrNotFound
	}

	b := &projects.ProjectBundle{
		Project:    rec.project,
		Risks:      append([]projects.RiskMetric{}, rec.risks...),
		TimeSeries: make([]projects.TimeSeriesPoint, 0, len(rec.series)),
		PieChart:   make([]projects.PieChartSegment, 0, len(rec.pieKeys)),
		Geo:        append([]projects.GeoFeature{}, rec.geo...),
	}
	b.Project.ProjectInfo = cloneInfo(rec.project.ProjectInfo)
	sum := cloneSummary(rec.summary)
	b.Summary = &sum

	for k, v := range rec.series {
		b.TimeSeries = append(b.TimeSeries, projects.TimeSeriesPoint{Type: k.typ, Year: k.year, Value: v})
	}
	sort.Slice(b.TimeSeries, func(i, j int) bool {
		if b.TimeSeries[i].Type != b.TimeSeries[j].Type {
			return b.TimeSeries[i].Type < b.TimeSeries[j].Type
		}
		return b.TimeSeries[i].Year < b.TimeSeries[j].Year
	})
	for _, c := range rec.pieKeys {
		b.PieChart = append(b.PieChart, projects.PieChartSegment{Category: c, Value: rec.pie[c]})
	}
	return b, nil
}

func cloneInfo(in projects.ProjectInfo) projects.ProjectInfo {
	if in.Coordinates != nil {
		c := *in.Coordinates
		in.Coordinates = &c
	}
	return in
}

func cloneSummary(s projects.Summary) projects.Summary {
	s.Recommendations = append([]projects.Recommendation{}, s.Recommendations...)
	return s
}
