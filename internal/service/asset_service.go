package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/solve-chamados/internal/auth"
	"github.com/spec-kit/solve-chamados/internal/domain"
	"github.com/spec-kit/solve-chamados/internal/repository"
	apperrors "github.com/spec-kit/solve-chamados/pkg/util/errorutil"
	"github.com/spec-kit/solve-chamados/pkg/util/textutil"
)

// AssetService manages the equipment inventory and its audit trail.
type AssetService struct {
	assets repository.AssetRepository
	logger *zap.Logger
}

// NewAssetService builds the service.
func NewAssetService(assets repository.AssetRepository, logger *zap.Logger) *AssetService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssetService{assets: assets, logger: logger}
}

// AssetInput is the full set of editable asset fields.
type AssetInput struct {
	Name            string
	Code            *string
	Description     *string
	Status          domain.AssetStatus
	AcquisitionDate *time.Time
	WarrantyEnd     *time.Time
	Cost            *float64
}

func (in AssetInput) apply(a *domain.Asset) error {
	a.Name = textutil.StripHTML(in.Name)
	if a.Name == "" {
		return apperrors.NewValidationError("name is required", map[string]any{"field": "name"})
	}
	a.Code = textutil.StripHTMLPtr(in.Code)
	a.Description = textutil.StripHTMLPtr(in.Description)
	a.Status = in.Status
	if a.Status == "" {
		a.Status = domain.AssetStatusActive
	}
	if !a.Status.Valid() {
		return apperrors.NewValidationError("status must be one of active, maintenance, retired", map[string]any{"field": "status"})
	}
	if in.Cost != nil && *in.Cost < 0 {
		return apperrors.NewValidationError("cost cannot be negative", map[string]any{"field": "cost"})
	}
	a.Cost = in.Cost
	a.AcquisitionDate = in.AcquisitionDate
	a.WarrantyEnd = in.WarrantyEnd
	return nil
}

func (s *AssetService) List(ctx context.Context) ([]domain.Asset, error) {
	return s.assets.List(ctx)
}

func (s *AssetService) Get(ctx context.Context, id int64) (*domain.Asset, error) {
	return s.assets.GetByID(ctx, id)
}

// History returns the audit trail newest first.
func (s *AssetService) History(ctx context.Context, id int64) ([]domain.AssetHistory, error) {
	if _, err := s.assets.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.assets.History(ctx, id)
}

// Create registers an asset and its first audit entry atomically.
func (s *AssetService) Create(ctx context.Context, actor *auth.Principal, in AssetInput) (*domain.Asset, error) {
	asset := &domain.Asset{}
	if err := in.apply(asset); err != nil {
		return nil, err
	}

	err := s.assets.InTx(ctx, func(tx repository.AssetTx) error {
		if err := tx.Insert(ctx, asset); err != nil {
			return err
		}
		return tx.AppendHistory(ctx, &domain.AssetHistory{
			AssetID:     asset.ID,
			UserID:      actorID(actor),
			ActionType:  domain.AssetActionCreated,
			Description: domain.AssetCreatedMessage,
			NewStatus:   asset.Status,
		})
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("asset registered", zap.Int64("asset_id", asset.ID))
	return asset, nil
}

// Update replaces an asset's fields and records the diff, atomically.
func (s *AssetService) Update(ctx context.Context, actor *auth.Principal, id int64, in AssetInput) (*domain.Asset, error) {
	var updated *domain.Asset
	err := s.assets.InTx(ctx, func(tx repository.AssetTx) error {
		before, err := tx.LockByID(ctx, id)
		if err != nil {
			return err
		}
		after := *before
		if err := in.apply(&after); err != nil {
			return err
		}
		if err := tx.Update(ctx, &after); err != nil {
			return err
		}
		oldStatus := before.Status
		if err := tx.AppendHistory(ctx, &domain.AssetHistory{
			AssetID:     id,
			UserID:      actorID(actor),
			ActionType:  domain.AssetActionUpdated,
			Description: domain.DescribeChanges(*before, after),
			OldStatus:   &oldStatus,
			NewStatus:   after.Status,
		}); err != nil {
			return err
		}
		updated = &after
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes an asset unless tickets still reference it.
func (s *AssetService) Delete(ctx context.Context, id int64) error {
	return s.assets.Delete(ctx, id)
}

func actorID(p *auth.Principal) *int64 {
	if p == nil {
		return nil
	}
	id := p.ID
	return &id
}
