package projects

import (
	"context"

	"github.com/pricofy/translation-desk/internal/apperrors"
	"github.com/pricofy/translation-desk/internal/domain"
	"github.com/pricofy/translation-desk/internal/store"
)

// summaryColumns are the project columns shown in the admin listing.
var summaryColumns = []string{"id", "project_name", "languages", "status", "owner_id", "created_at"}

// Get returns the project and its rows ordered by block index.
func (s *Service) Get(ctx context.Context, projectID string) (*domain.Project, []domain.ProjectRow, error) {
	var projects []domain.Project
	if err := s.store.Select(ctx, domain.TableProjects, store.NewQuery().Eq("id", projectID).Select("*"), &projects); err != nil {
		return nil, nil, err
	}
	if len(projects) == 0 {
		return nil, nil, apperrors.NotFound("Project not found")
	}

	rows := []domain.ProjectRow{}
	q := rowsOf(projectID).Select("*").OrderAsc("block_index")
	if err := s.store.Select(ctx, domain.TableProjectRows, q, &rows); err != nil {
		return nil, nil, err
	}

	return &projects[0], rows, nil
}

// List returns every project, newest first.
func (s *Service) List(ctx context.Context) ([]domain.Project, error) {
	projects := []domain.Project{}
	q := store.NewQuery().Select("*").OrderDesc("created_at")
	if err := s.store.Select(ctx, domain.TableProjects, q, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// ListSummaries returns every project with the summary columns, newest first.
func (s *Service) ListSummaries(ctx context.Context) ([]domain.Project, error) {
	projects := []domain.Project{}
	q := store.NewQuery().Select(summaryColumns...).OrderDesc("created_at")
	if err := s.store.Select(ctx, domain.TableProjects, q, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}
