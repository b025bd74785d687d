package handler

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/pricofy/translation-desk/internal/apperrors"
	"github.com/pricofy/translation-desk/internal/domain"
	"github.com/pricofy/translation-desk/internal/projects"
)

// projectBody is the request shape shared by save and update. Older clients
// send projectName plus a single englishText/translations pair instead of
// name and blocks; both are accepted.
type projectBody struct {
	ProjectID    domain.ID         `json:"projectId"`
	Name         string            `json:"name"`
	ProjectName  string            `json:"projectName"`
	Languages    []string          `json:"languages"`
	Blocks       []domain.Block    `json:"blocks"`
	EnglishText  string            `json:"englishText"`
	Translations map[string]string `json:"translations"`
	Status       string            `json:"status"`
	ReviewedBy   string            `json:"reviewedBy"`
	MarkReviewed bool              `json:"markReviewed"`
}

func (b *projectBody) name() string {
	if n := strings.TrimSpace(b.Name); n != "" {
		return n
	}
	return strings.TrimSpace(b.ProjectName)
}

// blocks returns Blocks, or the legacy single block when Blocks is absent.
func (b *projectBody) blocks() []domain.Block {
	if b.Blocks != nil {
		return b.Blocks
	}
	if b.EnglishText != "" {
		return []domain.Block{{EnglishText: b.EnglishText, Translations: b.Translations}}
	}
	return nil
}

func (b *projectBody) status() (domain.Status, error) {
	status, err := domain.ParseStatus(b.Status)
	if err != nil {
		return "", apperrors.BadRequest("Invalid status")
	}
	return status, nil
}

func validateBlocks(blocks []domain.Block) error {
	for i, block := range blocks {
		if strings.TrimSpace(block.EnglishText) == "" {
			return apperrors.BadRequest("Block %d is missing englishText", i)
		}
	}
	return nil
}

// SaveProject creates a project owned by the caller with one row per block.
func (a *App) SaveProject(ctx context.Context, req *Request) (any, error) {
	caller, err := a.gate.Authorize(ctx, req.BearerToken())
	if err != nil {
		return nil, err
	}

	var body projectBody
	if err := req.Decode(&body); err != nil {
		return nil, err
	}
	blocks := body.blocks()
	if body.name() == "" || len(body.Languages) == 0 || len(blocks) == 0 {
		return nil, apperrors.BadRequest("Missing projectName, languages, or blocks")
	}
	if err := validateBlocks(blocks); err != nil {
		return nil, err
	}
	status, err := body.status()
	if err != nil {
		return nil, err
	}

	return a.projects.Create(ctx, projects.CreateInput{
		Name:       body.name(),
		Languages:  body.Languages,
		Blocks:     blocks,
		Status:     status,
		ReviewedBy: body.ReviewedBy,
		OwnerID:    caller.UserID,
	})
}

type replaceResponse struct {
	OK bool `json:"ok"`
	*projects.ReplaceResult
}

// UpdateProject replaces every row of the project when blocks are supplied,
// and otherwise patches the project and its rows in place.
func (a *App) UpdateProject(ctx context.Context, req *Request) (any, error) {
	caller, err := a.gate.Authorize(ctx, req.BearerToken())
	if err != nil {
		return nil, err
	}

	var body projectBody
	if err := req.Decode(&body); err != nil {
		return nil, err
	}
	if body.ProjectID == "" {
		return nil, apperrors.BadRequest("Missing projectId")
	}
	status, err := body.status()
	if err != nil {
		return nil, err
	}

	if body.Blocks != nil {
		if err := validateBlocks(body.Blocks); err != nil {
			return nil, err
		}
		result, err := a.projects.Replace(ctx, projects.ReplaceInput{
			ProjectID:  body.ProjectID.String(),
			Name:       body.name(),
			Languages:  body.Languages,
			Blocks:     body.Blocks,
			Status:     status,
			ReviewedBy: body.ReviewedBy,
		})
		if err != nil {
			return nil, err
		}
		return replaceResponse{OK: true, ReplaceResult: result}, nil
	}

	err = a.projects.Update(ctx, projects.UpdateInput{
		ProjectID:    body.ProjectID.String(),
		Name:         body.name(),
		Languages:    body.Languages,
		Block:        domain.Block{EnglishText: body.EnglishText, Translations: body.Translations},
		Status:       status,
		ReviewedBy:   body.ReviewedBy,
		MarkReviewed: body.MarkReviewed,
	})
	if err != nil {
		return nil, err
	}

	a.logger.Debug("Project updated in place",
		zap.String("project_id", body.ProjectID.String()),
		zap.String("user_id", caller.UserID))
	return OK{OK: true}, nil
}

type deleteBody struct {
	ID domain.ID `json:"id"`
}

// DeleteProject removes a project and its rows.
func (a *App) DeleteProject(ctx context.Context, req *Request) (any, error) {
	if _, err := a.gate.Authorize(ctx, req.BearerToken()); err != nil {
		return nil, err
	}
	return a.deleteProject(ctx, req)
}

func (a *App) deleteProject(ctx context.Context, req *Request) (any, error) {
	var body deleteBody
	if err := req.Decode(&body); err != nil {
		return nil, err
	}
	if body.ID == "" {
		return nil, apperrors.BadRequest("Missing project id")
	}

	if _, err := a.projects.Delete(ctx, body.ID.String()); err != nil {
		return nil, err
	}
	return OK{OK: true}, nil
}

// GetProjects lists every project, newest first.
func (a *App) GetProjects(ctx context.Context, _ *Request) (any, error) {
	list, err := a.projects.List(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]any{"projects": list}, nil
}

type projectResponse struct {
	Project *domain.Project     `json:"project"`
	Rows    []domain.ProjectRow `json:"rows"`
}

// GetProject returns one project with its rows in block order.
func (a *App) GetProject(ctx context.Context, req *Request) (any, error) {
	id := strings.TrimSpace(req.QueryValue("id"))
	if id == "" {
		return nil, apperrors.BadRequest("Missing project ID")
	}

	project, rows, err := a.projects.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return projectResponse{Project: project, Rows: rows}, nil
}

// AdminGetAllProjects lists the summary columns of every project.
func (a *App) AdminGetAllProjects(ctx context.Context, req *Request) (any, error) {
	if _, err := a.gate.Authorize(ctx, req.BearerToken(), domain.RoleAdmin); err != nil {
		return nil, err
	}

	list, err := a.projects.ListSummaries(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]any{"projects": list}, nil
}

// AdminDeleteProject removes a project and its rows.
func (a *App) AdminDeleteProject(ctx context.Context, req *Request) (any, error) {
	if _, err := a.gate.Authorize(ctx, req.BearerToken(), domain.RoleAdmin); err != nil {
		return nil, err
	}
	return a.deleteProject(ctx, req)
}

type setStatusBody struct {
	ProjectID  domain.ID `json:"projectId"`
	Status     string    `json:"status"`
	ReviewedBy *string   `json:"reviewedBy"`
}

// AdminSetProjectStatus moves a project and all of its rows to a status.
func (a *App) AdminSetProjectStatus(ctx context.Context, req *Request) (any, error) {
	if _, err := a.gate.Authorize(ctx, req.BearerToken(), domain.RoleAdmin); err != nil {
		return nil, err
	}

	var body setStatusBody
	if err := req.Decode(&body); err != nil {
		return nil, err
	}
	if body.ProjectID == "" || body.Status == "" {
		return nil, apperrors.BadRequest("Missing projectId/status")
	}
	status, err := domain.ParseStatus(body.Status)
	if err != nil {
		return nil, apperrors.BadRequest("Invalid status %q", body.Status)
	}

	err = a.projects.SetStatus(ctx, projects.SetStatusInput{
		ProjectID:  body.ProjectID.String(),
		Status:     status,
		ReviewedBy: body.ReviewedBy,
	})
	if err != nil {
		return nil, err
	}
	return OK{OK: true}, nil
}
