package projects

import (
	"context"
	"errors"
	"fmt"
	"strings"

	domain "github.com/bryanwahyu/carbon-validator/internal/domain/projects"
)

// Service implements the read side: listing, detail and existence checks.
type Service struct {
	Repo domain.Repository
}

func (s *Service) List(ctx context.Context) ([]domain.Project, error) {
	list, err := s.Repo.ListProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	if list == nil {
		list = []domain.Project{}
	}
	return list, nil
}

// Get returns the full bundle for a project code.
func (s *Service) Get(ctx context.Context, code string) (*domain.ProjectBundle, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, fmt.Errorf("%w: project code is required", domain.ErrInvalidInput)
	}
	id, err := s.Repo.FindProjectByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return s.Repo.GetProjectBundle(ctx, id)
}

func (s *Service) Exists(ctx context.Context, code string) (bool, error) {
	_, err := s.Repo.FindProjectByCode(ctx, strings.TrimSpace(code))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, domain.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}
