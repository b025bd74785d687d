package projects

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/pricofy/translation-desk/internal/apperrors"
	"github.com/pricofy/translation-desk/internal/domain"
	"github.com/pricofy/translation-desk/internal/store"
)

// CreateInput describes a new project and its blocks.
type CreateInput struct {
	Name       string
	Languages  []string
	Blocks     []domain.Block
	Status     domain.Status
	ReviewedBy string
	OwnerID    string
}

// CreateResult reports what Create stored.
type CreateResult struct {
	ProjectID    domain.ID `json:"projectId"`
	RowsInserted int       `json:"rowsInserted"`
}

// Create inserts the project, then its rows. If the row insert fails the
// project stays in the store without rows and the row error is returned.
func (s *Service) Create(ctx context.Context, in CreateInput) (*CreateResult, error) {
	status := in.Status
	if status == "" {
		status = domain.StatusDraft
	}
	reviewedAt := ReviewStamp(status, in.ReviewedBy, s.now())

	var projectID domain.ID
	result := &CreateResult{}

	err := s.runSteps(ctx, "create",
		step{name: "insert project", run: func(ctx context.Context) error {
			project := domain.Project{
				Name:      in.Name,
				Languages: in.Languages,
				Status:    status,
			}
			if in.OwnerID != "" {
				owner := in.OwnerID
				project.OwnerID = &owner
			}

			var stored []domain.Project
			if err := s.store.Insert(ctx, domain.TableProjects, []domain.Project{project}, &stored); err != nil {
				return err
			}
			if len(stored) == 0 || stored[0].ID == "" {
				return apperrors.Upstream(nil, "Failed to get project ID from store.")
			}
			projectID = stored[0].ID
			return nil
		}},
		step{name: "insert rows", run: func(ctx context.Context) error {
			rows := rowsFromBlocks(projectID, in.Blocks, status, in.ReviewedBy, reviewedAt)
			var stored []domain.ProjectRow
			if err := s.store.Insert(ctx, domain.TableProjectRows, rows, &stored); err != nil {
				return err
			}
			result.RowsInserted = len(stored)
			return nil
		}},
	)
	if err != nil {
		return nil, err
	}

	result.ProjectID = projectID
	s.logger.Info("Project created",
		zap.String("project_id", projectID.String()),
		zap.Int("rows", result.RowsInserted))
	return result, nil
}

// UpdateInput patches a project and all of its rows in place with a single block.
type UpdateInput struct {
	ProjectID    string
	Name         string   // unchanged when empty
	Languages    []string // unchanged when nil
	Block        domain.Block
	Status       domain.Status
	ReviewedBy   string
	MarkReviewed bool
}

// Update patches the project record, then every row of the project.
// MarkReviewed forces status Reviewed and writes the review fields; otherwise
// the review fields are left alone.
func (s *Service) Update(ctx context.Context, in UpdateInput) error {
	now := s.now().UTC()
	status := in.Status
	if in.MarkReviewed {
		status = domain.StatusReviewed
	}
	if status == "" {
		status = domain.StatusDraft
	}

	err := s.runSteps(ctx, "update",
		step{name: "patch project", run: func(ctx context.Context) error {
			return s.patchProject(ctx, in.ProjectID, in.Name, in.Languages, status, now)
		}},
		step{name: "patch rows", run: func(ctx context.Context) error {
			patch := map[string]any{
				"english_text": nullable(in.Block.EnglishText),
				"status":       status,
				"updated_at":   now,
			}
			localePatch(patch, in.Block.Translations)
			if in.MarkReviewed {
				patch["reviewed_by"] = nullable(in.ReviewedBy)
				patch["reviewed_at"] = ReviewStamp(status, in.ReviewedBy, now)
			}
			return s.store.Update(ctx, domain.TableProjectRows, rowsOf(in.ProjectID), patch, nil)
		}},
	)
	if err != nil {
		return err
	}

	s.logger.Info("Project updated", zap.String("project_id", in.ProjectID), zap.String("status", string(status)))
	return nil
}

// ReplaceInput replaces every row of a project with Blocks.
type ReplaceInput struct {
	ProjectID  string
	Name       string   // unchanged when empty
	Languages  []string // unchanged when nil
	Blocks     []domain.Block
	Status     domain.Status
	ReviewedBy string
}

// ReplaceResult reports what Replace changed.
type ReplaceResult struct {
	RowsDeleted  int `json:"rowsDeleted"`
	RowsInserted int `json:"rowsInserted"`
}

// Replace patches the project, deletes all of its rows and inserts the new
// ones. Concurrent replaces of the same project are not serialized.
func (s *Service) Replace(ctx context.Context, in ReplaceInput) (*ReplaceResult, error) {
	now := s.now().UTC()
	status := in.Status
	if status == "" {
		status = domain.StatusDraft
	}
	reviewedAt := ReviewStamp(status, in.ReviewedBy, now)
	result := &ReplaceResult{}

	err := s.runSteps(ctx, "replace",
		step{name: "patch project", run: func(ctx context.Context) error {
			return s.patchProject(ctx, in.ProjectID, in.Name, in.Languages, status, now)
		}},
		step{name: "delete rows", run: func(ctx context.Context) error {
			n, err := s.store.Delete(ctx, domain.TableProjectRows, rowsOf(in.ProjectID))
			result.RowsDeleted = n
			return err
		}},
		step{name: "insert rows", run: func(ctx context.Context) error {
			if len(in.Blocks) == 0 {
				return nil
			}
			rows := rowsFromBlocks(domain.ID(in.ProjectID), in.Blocks, status, in.ReviewedBy, reviewedAt)
			var stored []domain.ProjectRow
			if err := s.store.Insert(ctx, domain.TableProjectRows, rows, &stored); err != nil {
				return err
			}
			result.RowsInserted = len(stored)
			return nil
		}},
	)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Project rows replaced",
		zap.String("project_id", in.ProjectID),
		zap.Int("rows_deleted", result.RowsDeleted),
		zap.Int("rows_inserted", result.RowsInserted))
	return result, nil
}

// SetStatusInput moves a project and all of its rows to Status.
type SetStatusInput struct {
	ProjectID string
	Status    domain.Status
	// ReviewedBy is written to the rows only when non-nil; an empty string clears it.
	ReviewedBy *string
}

// SetStatus patches the project status, then the status and review fields of
// every row.
func (s *Service) SetStatus(ctx context.Context, in SetStatusInput) error {
	reviewer := ""
	if in.ReviewedBy != nil {
		reviewer = *in.ReviewedBy
	}
	reviewedAt := ReviewStamp(in.Status, reviewer, s.now())

	err := s.runSteps(ctx, "set status",
		step{name: "patch project", run: func(ctx context.Context) error {
			patch := map[string]any{"status": in.Status}
			return s.store.Update(ctx, domain.TableProjects, store.NewQuery().Eq("id", in.ProjectID), patch, nil)
		}},
		step{name: "patch rows", run: func(ctx context.Context) error {
			patch := map[string]any{
				"status":      in.Status,
				"reviewed_at": reviewedAt,
			}
			if in.ReviewedBy != nil {
				patch["reviewed_by"] = nullable(reviewer)
			}
			return s.store.Update(ctx, domain.TableProjectRows, rowsOf(in.ProjectID), patch, nil)
		}},
	)
	if err != nil {
		return err
	}

	s.logger.Info("Project status set", zap.String("project_id", in.ProjectID), zap.String("status", string(in.Status)))
	return nil
}

// DeleteResult reports how many records each step removed.
type DeleteResult struct {
	RowsDeleted     int
	ProjectsDeleted int
}

// Delete removes the rows of the project, then the project. No existence check
// is made: an unknown id matches nothing and succeeds.
func (s *Service) Delete(ctx context.Context, projectID string) (*DeleteResult, error) {
	result := &DeleteResult{}

	err := s.runSteps(ctx, "delete",
		step{name: "delete rows", run: func(ctx context.Context) error {
			n, err := s.store.Delete(ctx, domain.TableProjectRows, rowsOf(projectID))
			result.RowsDeleted = n
			return err
		}},
		step{name: "delete project", run: func(ctx context.Context) error {
			n, err := s.store.Delete(ctx, domain.TableProjects, store.NewQuery().Eq("id", projectID))
			result.ProjectsDeleted = n
			return err
		}},
	)
	if err != nil {
		return nil, err
	}

	if result.ProjectsDeleted == 0 {
		s.logger.Warn("Delete matched no project", zap.String("project_id", projectID), zap.Int("rows_deleted", result.RowsDeleted))
	} else {
		s.logger.Info("Project deleted", zap.String("project_id", projectID), zap.Int("rows_deleted", result.RowsDeleted))
	}
	return result, nil
}

func (s *Service) patchProject(ctx context.Context, projectID, name string, languages []string, status domain.Status, now time.Time) error {
	patch := map[string]any{
		"status":     status,
		"updated_at": now,
	}
	if name != "" {
		patch["project_name"] = name
	}
	if languages != nil {
		patch["languages"] = languages
	}
	return s.store.Update(ctx, domain.TableProjects, store.NewQuery().Eq("id", projectID), patch, nil)
}

func rowsOf(projectID string) *store.Query {
	return store.NewQuery().Eq("project_id", projectID)
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
