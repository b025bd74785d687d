// Package projects writes and reads projects and their rows. Writes span two
// collections without a transaction: steps run in a fixed order and the first
// failing step aborts the sequence, leaving earlier steps applied.
package projects

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/pricofy/translation-desk/internal/domain"
	"github.com/pricofy/translation-desk/internal/logging"
	"github.com/pricofy/translation-desk/internal/store"
)

// Store is the subset of the store client the service needs.
type Store interface {
	Select(ctx context.Context, table string, q *store.Query, out any) error
	Insert(ctx context.Context, table string, rows any, out any) error
	Update(ctx context.Context, table string, q *store.Query, patch any, out any) error
	Delete(ctx context.Context, table string, q *store.Query) (int, error)
}

// Service implements the project operations.
type Service struct {
	store  Store
	now    func() time.Time
	logger *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the clock used for review and update timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a project service.
func NewService(s Store, logger *zap.Logger, opts ...Option) *Service {
	svc := &Service{
		store:  s,
		now:    time.Now,
		logger: logger.Named("projects"),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// step is one write of a multi-record sequence.
type step struct {
	name string
	run  func(ctx context.Context) error
}

// runSteps executes steps in order. The first error stops the sequence and is
// returned unchanged; completed steps are not undone.
func (s *Service) runSteps(ctx context.Context, operation string, steps ...step) error {
	for i, st := range steps {
		if err := st.run(ctx); err != nil {
			s.logger.Error("Write step failed",
				zap.String("operation", operation),
				zap.String("step", st.name),
				zap.Int("completed_steps", i),
				zap.Int("total_steps", len(steps)),
				zap.String("error", logging.SanitizeError(err)))
			return err
		}
	}
	return nil
}

// ReviewStamp returns the review timestamp for a row moving to status.
// It is now when status is Reviewed or Approved and a reviewer is named,
// and nil otherwise.
func ReviewStamp(status domain.Status, reviewer string, now time.Time) *time.Time {
	if !status.IsReviewed() || reviewer == "" {
		return nil
	}
	t := now.UTC()
	return &t
}

// rowsFromBlocks builds the rows of projectID from blocks, numbering them
// from zero in input order.
func rowsFromBlocks(projectID domain.ID, blocks []domain.Block, status domain.Status, reviewer string, reviewedAt *time.Time) []domain.ProjectRow {
	rows := make([]domain.ProjectRow, 0, len(blocks))
	for i, b := range blocks {
		row := domain.ProjectRow{
			ProjectID:   projectID,
			BlockIndex:  i,
			EnglishText: b.EnglishText,
			Status:      status,
			ReviewedAt:  reviewedAt,
		}
		if reviewer != "" {
			r := reviewer
			row.ReviewedBy = &r
		}
		for _, loc := range domain.Locales {
			row.SetTranslation(loc.Code, b.Translations[loc.Code])
		}
		rows = append(rows, row)
	}
	return rows
}

// localePatch sets every locale column from translations; absent codes are null.
func localePatch(patch map[string]any, translations map[string]string) {
	for _, loc := range domain.Locales {
		if text, ok := translations[loc.Code]; ok && text != "" {
			patch[loc.Column] = text
		} else {
			patch[loc.Column] = nil
		}
	}
}
