package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bryanwahyu/carbon-validator/internal/domain/projects"
)

type ProjectRepository struct {
	db *sql.DB
}

func NewProjectRepository(db *sql.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// SaveAnalysis writes one analysis run in a single transaction. An existing
// project_code keeps its id; summary, risk metrics and location are replaced.
func (r *ProjectRepository) SaveAnalysis(ctx context.Context, res projects.CompositeAnalysisResult) (projects.ProjectID, error) {
	if err := res.Validate(); err != nil {
		return "", err
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback() //nolint:errcheck

	p := res.Project
	now := time.Now().UTC()
	lat, lng := coordinateArgs(p.Coordinates)

	const upsertProject = `
INSERT INTO projects
  (id, project_code, name, description, location, latitude, longitude, status,
   start_date, end_date, methodology, size, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
ON CONFLICT (project_code) DO UPDATE SET
  name=EXCLUDED.name, description=EXCLUDED.description, location=EXCLUDED.location,
  latitude=EXCLUDED.latitude, longitude=EXCLUDED.longitude, status=EXCLUDED.status,
  start_date=EXCLUDED.start_date, end_date=EXCLUDED.end_date, methodology=EXCLUDED.methodology,
  size=EXCLUDED.size, updated_at=EXCLUDED.updated_at;
`
	if _, err := tx.ExecContext(ctx, upsertProject,
		uuid.NewString(), p.ProjectCode, p.Name, stringOrDash(p.Description), stringOrDash(p.Location),
		lat, lng, stringOrDash(p.Status), p.StartDate, nullString(p.EndDate),
		nullString(p.Methodology), nullString(p.Size), now, now,
	); err != nil {
		return "", fmt.Errorf("upsert project: %w", err)
	}

	var id string
	if err := tx.QueryRowContext(ctx, `SELECT id FROM projects WHERE project_code=$1`, p.ProjectCode).Scan(&id); err != nil {
		return "", fmt.Errorf("resolve project id: %w", err)
	}

	recs, err := encodeRecommendations(res.Summary.Recommendations)
	if err != nil {
		return "", err
	}
	const upsertSummary = `
INSERT INTO summaries (project_id, overall_summary, recommendations, additional_insights)
VALUES ($1,$2,$3,$4)
ON CONFLICT (project_id) DO UPDATE SET
  overall_summary=EXCLUDED.overall_summary, recommendations=EXCLUDED.recommendations,
  additional_insights=EXCLUDED.additional_insights;
`
	if _, err := tx.ExecContext(ctx, upsertSummary, id, res.Summary.OverallSummary, recs, nullString(res.Summary.AdditionalInsights)); err != nil {
		return "", fmt.Errorf("upsert summary: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM risk_metrics WHERE project_id=$1`, id); err != nil {
		return "", fmt.Errorf("clear risk metrics: %w", err)
	}
	const insertRisk = `
INSERT INTO risk_metrics (project_id, position, category, score, impact, likelihood, description)
VALUES ($1,$2,$3,$4,$5,$6,$7);
`
	for i, m := range res.Risks {
		if _, err := tx.ExecContext(ctx, insertRisk, id, i, m.Category, m.Score, string(m.Impact), string(m.Likelihood), m.Description); err != nil {
			return "", fmt.Errorf("insert risk metric %d: %w", i, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM geo_data WHERE project_id=$1`, id); err != nil {
		return "", fmt.Errorf("clear geo data: %w", err)
	}
	if f, ok := p.PointFeature(); ok {
		props, _ := json.Marshal(f.Properties)
		if _, err := tx.ExecContext(ctx, `INSERT INTO geo_data (project_id, geometry, properties) VALUES ($1,$2,$3)`,
			id, string(f.Geometry), string(props)); err != nil {
			return "", fmt.Errorf("insert geo data: %w", err)
		}
	}

	for _, pt := range res.TimeSeries {
		if err := upsertPoint(ctx, tx, id, pt); err != nil {
			return "", err
		}
	}
	for _, s := range res.PieChart {
		if err := upsertSegment(ctx, tx, id, s); err != nil {
			return "", err
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return projects.ProjectID(id), nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsertPoint(ctx context.Context, db execer, id string, p projects.TimeSeriesPoint) error {
	const q = `
INSERT INTO time_series_data (project_id, type, year, value)
VALUES ($1,$2,$3,$4)
ON CONFLICT (project_id, type, year) DO UPDATE SET value=EXCLUDED.value;
`
	if _, err := db.ExecContext(ctx, q, id, string(p.Type), p.Year, p.Value); err != nil {
		return fmt.Errorf("upsert time series %s/%d: %w", p.Type, p.Year, err)
	}
	return nil
}

func upsertSegment(ctx context.Context, db execer, id string, s projects.PieChartSegment) error {
	const q = `
INSERT INTO pie_chart_data (project_id, category, value)
VALUES ($1,$2,$3)
ON CONFLICT (project_id, category) DO UPDATE SET value=EXCLUDED.value;
`
	if _, err := db.ExecContext(ctx, q, id, s.Category, s.Value); err != nil {
		return fmt.Errorf("upsert pie chart %s: %w", s.Category, err)
	}
	return nil
}

func (r *ProjectRepository) FindProjectByCode(ctx context.Context, code string) (projects.ProjectID, error) {
	var id string
	err := r.db.QueryRowContext(ctx, `SELECT id FROM projects WHERE project_code=$1`, code).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", projects.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return projects.ProjectID(id), nil
}

func (r *ProjectRepository) exists(ctx context.Context, id projects.ProjectID) error {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM projects WHERE id=$1`, string(id)).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return projects.ErrNotFound
	}
	return err
}

func (r *ProjectRepository) UpsertTimeSeriesPoint(ctx context.Context, id projects.ProjectID, p projects.TimeSeriesPoint) error {
	if err := r.exists(ctx, id); err != nil {
		return err
	}
	return upsertPoint(ctx, r.db, string(id), p)
}

func (r *ProjectRepository) UpsertPieChartSegment(ctx context.Context, id projects.ProjectID, s projects.PieChartSegment) error {
	if err := r.exists(ctx, id); err != nil {
		return err
	}
	return upsertSegment(ctx, r.db, string(id), s)
}

const selectProject = `
SELECT id, project_code, name, description, location, latitude, longitude, status,
       start_date, end_date, methodology, size, created_at, updated_at
FROM projects`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (projects.Project, error) {
	var (
		p                      projects.Project
		id                     string
		lat, lng               sql.NullFloat64
		end, methodology, size sql.NullString
	)
	if err := row.Scan(&id, &p.ProjectCode, &p.Name, &p.Description, &p.Location, &lat, &lng, &p.Status,
		&p.StartDate, &end, &methodology, &size, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return projects.Project{}, err
	}
	p.ID = projects.ProjectID(id)
	p.Description = dashToEmpty(p.Description)
	p.Location = dashToEmpty(p.Location)
	p.Status = dashToEmpty(p.Status)
	p.Coordinates = coordinates(lat, lng)
	p.EndDate = end.String
	p.Methodology = methodology.String
	p.Size = size.String
	return p, nil
}

// ListProjects returns all projects, newest first
func (r *ProjectRepository) ListProjects(ctx context.Context) ([]projects.Project, error) {
	rows, err := r.db.QueryContext(ctx, selectProject+` ORDER BY created_at DESC, project_code ASC;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []projects.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *ProjectRepository) GetProjectBundle(ctx context.Context, id projects.ProjectID) (*projects.ProjectBundle, error) {
	p, err := scanProject(r.db.QueryRowContext(ctx, selectProject+` WHERE id=$1;`, string(id)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, projects.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	b := &projects.ProjectBundle{
		Project:    p,
		Risks:      []projects.RiskMetric{},
		TimeSeries: []projects.TimeSeriesPoint{},
		PieChart:   []projects.PieChartSegment{},
		Geo:        []projects.GeoFeature{},
	}

	var (
		sum      projects.Summary
		recs     string
		insights sql.NullString
	)
	err = r.db.QueryRowContext(ctx,
		`SELECT overall_summary, recommendations, additional_insights FROM summaries WHERE project_id=$1`, string(id),
	).Scan(&sum.OverallSummary, &recs, &insights)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return nil, err
	default:
		if sum.Recommendations, err = decodeRecommendations(recs); err != nil {
			return nil, fmt.Errorf("decode recommendations: %w", err)
		}
		sum.AdditionalInsights = insights.String
		b.Summary = &sum
	}

	if err := r.loadRisks(ctx, id, b); err != nil {
		return nil, err
	}
	if err := r.loadSeries(ctx, id, b); err != nil {
		return nil, err
	}
	if err := r.loadGeo(ctx, id, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (r *ProjectRepository) loadRisks(ctx context.Context, id projects.ProjectID, b *projects.ProjectBundle) error {
	rows, err := r.db.QueryContext(ctx, `
SELECT category, score, impact, likelihood, description
FROM risk_metrics WHERE project_id=$1 ORDER BY position ASC;`, string(id))
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var m projects.RiskMetric
		var impact, likelihood string
		if err := rows.Scan(&m.Category, &m.Score, &impact, &likelihood, &m.Description); err != nil {
			return err
		}
		m.Impact = projects.Impact(impact)
		m.Likelihood = projects.Likelihood(likelihood)
		b.Risks = append(b.Risks, m)
	}
	return rows.Err()
}

func (r *ProjectRepository) loadSeries(ctx context.Context, id projects.ProjectID, b *projects.ProjectBundle) error {
	rows, err := r.db.QueryContext(ctx, `
SELECT type, year, value FROM time_series_data WHERE project_id=$1 ORDER BY type ASC, year ASC;`, string(id))
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var p projects.TimeSeriesPoint
		var typ string
		if err := rows.Scan(&typ, &p.Year, &p.Value); err != nil {
			return err
		}
		p.Type = projects.SeriesType(typ)
		b.TimeSeries = append(b.TimeSeries, p)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	pie, err := r.db.QueryContext(ctx, `
SELECT category, value FROM pie_chart_data WHERE project_id=$1 ORDER BY id ASC;`, string(id))
	if err != nil {
		return err
	}
	defer pie.Close()
	for pie.Next() {
		var s projects.PieChartSegment
		if err := pie.Scan(&s.Category, &s.Value); err != nil {
			return err
		}
		b.PieChart = append(b.PieChart, s)
	}
	return pie.Err()
}

func (r *ProjectRepository) loadGeo(ctx context.Context, id projects.ProjectID, b *projects.ProjectBundle) error {
	rows, err := r.db.QueryContext(ctx, `
SELECT geometry, properties FROM geo_data WHERE project_id=$1 ORDER BY id ASC;`, string(id))
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var geom, props []byte
		if err := rows.Scan(&geom, &props); err != nil {
			return err
		}
		f := projects.GeoFeature{Type: "Feature", Geometry: json.RawMessage(geom), Properties: map[string]any{}}
		if len(props) > 0 {
			if err := json.Unmarshal(props, &f.Properties); err != nil {
				return fmt.Errorf("decode geo properties: %w", err)
			}
		}
		b.Geo = append(b.Geo, f)
	}
	return rows.Err()
}
