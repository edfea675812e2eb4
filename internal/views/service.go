package views

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/vikramshaw/shopora-backend/internal/catalog"
	pkgerrors "github.com/vikramshaw/shopora-backend/pkg/errors"
	"github.com/vikramshaw/shopora-backend/pkg/logger"
	"github.com/vikramshaw/shopora-backend/pkg/pagination"
)

// ViewCounter tracks aggregate per-variant view counts. Implemented by the
// redis client; nil disables counting without affecting history.
type ViewCounter interface {
	Incr(ctx context.Context, key string) (int64, error)
	Get(ctx context.Context, key string) (string, error)
	ViewCountKey(variantID string) string
}

// HistoryEntry is one recently viewed variant with its catalog summary and
// the aggregate view count across all users.
type HistoryEntry struct {
	VariantID uuid.UUID              `json:"variant_id"`
	Variant   catalog.VariantSummary `json:"variant"`
	ViewedAt  time.Time              `json:"viewed_at"`
	ViewCount int64                  `json:"view_count"`
}

// ServiceParams groups dependencies for the view-history service.
type ServiceParams struct {
	Repo    *Repository
	Catalog catalog.Service
	Counter ViewCounter
	Logger  *logger.Logger
}

// Service records product views and serves per-user view history.
type Service interface {
	RecordView(ctx context.Context, userID, variantID uuid.UUID) error
	History(ctx context.Context, userID uuid.UUID, limit int) ([]HistoryEntry, error)
}

type service struct {
	repo    *Repository
	catalog catalog.Service
	counter ViewCounter
	logg    *logger.Logger
	now     func() time.Time
}

// NewService builds the view-history service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "view repo is required")
	}
	if params.Catalog == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "catalog service is required")
	}
	return &service{
		repo:    params.Repo,
		catalog: params.Catalog,
		counter: params.Counter,
		logg:    params.Logger,
		now:     time.Now,
	}, nil
}

// RecordView stores a view event and bumps the variant's aggregate counter.
// Counter failures are logged, not returned; history is the durable record.
func (s *service) RecordView(ctx context.Context, userID, variantID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if variantID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "variant id is required")
	}
	if _, err := s.catalog.VariantSummary(ctx, variantID); err != nil {
		return err
	}
	if err := s.repo.RecordView(ctx, userID, variantID, s.now().UTC()); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record view event")
	}
	if s.counter != nil {
		if _, err := s.counter.Incr(ctx, s.counter.ViewCountKey(variantID.String())); err != nil && s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "variant_id", variantID.String()), "increment view counter failed")
		}
	}
	return nil
}

// History returns the user's most recently viewed variants, newest first.
func (s *service) History(ctx context.Context, userID uuid.UUID, limit int) ([]HistoryEntry, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	recent, err := s.repo.RecentViews(ctx, userID, pagination.NormalizeLimit(limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list recent views")
	}

	variantIDs := make([]uuid.UUID, 0, len(recent))
	for _, view := range recent {
		variantIDs = append(variantIDs, view.VariantID)
	}
	summaries, err := s.catalog.VariantSummaries(ctx, variantIDs)
	if err != nil {
		return nil, err
	}

	entries := make([]HistoryEntry, 0, len(recent))
	for _, view := range recent {
		entries = append(entries, HistoryEntry{
			VariantID: view.VariantID,
			Variant:   summaries[view.VariantID],
			ViewedAt:  view.ViewedAt,
			ViewCount: s.viewCount(ctx, view.VariantID),
		})
	}
	return entries, nil
}

func (s *service) viewCount(ctx context.Context, variantID uuid.UUID) int64 {
	if s.counter == nil {
		return 0
	}
	raw, err := s.counter.Get(ctx, s.counter.ViewCountKey(variantID.String()))
	if err != nil || raw == "" {
		return 0
	}
	count, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return count
}
