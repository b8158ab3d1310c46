package projects

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/carbon-validator/internal/application"
	domain "github.com/bryanwahyu/carbon-validator/internal/domain/projects"
	"github.com/bryanwahyu/carbon-validator/internal/infra/db/memory"
)

func TestService(t *testing.T) {
	ctx := context.Background()
	repo := memory.New(application.FixedClock{T: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)})
	svc := &Service{Repo: repo}

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)

	_, err = repo.SaveAnalysis(ctx, domain.CompositeAnalysisResult{
		Project: &domain.ProjectInfo{ProjectCode: "GF-001", Name: "Project Green Forest"},
		Summary: &domain.Summary{OverallSummary: "ok"},
	})
	require.NoError(t, err)

	list, err = svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "GF-001", list[0].ProjectCode)

	b, err := svc.Get(ctx, "GF-001")
	require.NoError(t, err)
	assert.Equal(t, "Project Green Forest", b.Project.Name)

	_, err = svc.Get(ctx, "XX-404")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = svc.Get(ctx, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	ok, err := svc.Exists(ctx, "GF-001")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = svc.Exists(ctx, "XX-404")
	require.NoError(t, err)
	assert.False(t, ok)
}
