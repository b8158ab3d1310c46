package projects

import "context"

// Repository port (interface untuk persistence)
type Repository interface {
	// SaveAnalysis stores project info, summary, risk metrics and any GIS rows of one run.
	// A result whose project code already exists supersedes the stored info, summary and
	// risk metrics and keeps the existing id.
	SaveAnalysis(ctx context.Context, r CompositeAnalysisResult) (ProjectID, error)
	FindProjectByCode(ctx context.Context, code string) (ProjectID, error)
	UpsertTimeSeriesPoint(ctx context.Context, id ProjectID, p TimeSeriesPoint) error
	UpsertPieChartSegment(ctx context.Context, id ProjectID, s PieChartSegment) error
	ListProjects(ctx context.Context) ([]Project, error)
	GetProjectBundle(ctx context.Context, id ProjectID) (*ProjectBundle, error)
}
