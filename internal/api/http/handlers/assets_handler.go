package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/solve-chamados/internal/api/dto"
	"github.com/spec-kit/solve-chamados/internal/auth"
	"github.com/spec-kit/solve-chamados/internal/domain"
	"github.com/spec-kit/solve-chamados/internal/service"
	apperrors "github.com/spec-kit/solve-chamados/pkg/util/errorutil"
)

// AssetsHandler manages the equipment inventory endpoints.
type AssetsHandler struct {
	service *service.AssetService
}

// NewAssetsHandler constructs handler.
func NewAssetsHandler(assetService *service.AssetService) *AssetsHandler {
	return &AssetsHandler{service: assetService}
}

// List GET /assets.
func (h *AssetsHandler) List(c *fiber.Ctx) error {
	assets, err := h.service.List(c.UserContext())
	if err != nil {
		return apperrors.MapError(err)
	}
	items := make([]dto.AssetResponse, 0, len(assets))
	for i := range assets {
		items = append(items, assetResponse(&assets[i]))
	}
	return ok(c, items)
}

// Get GET /assets/:id.
func (h *AssetsHandler) Get(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	asset, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return apperrors.MapError(err)
	}
	return ok(c, assetResponse(asset))
}

// History GET /assets/:id/history.
func (h *AssetsHandler) History(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	entries, err := h.service.History(c.UserContext(), id)
	if err != nil {
		return apperrors.MapError(err)
	}
	items := make([]dto.AssetHistoryResponse, 0, len(entries))
	for _, e := range entries {
		items = append(items, dto.AssetHistoryResponse{
			ID:          e.ID,
			AssetID:     e.AssetID,
			UserID:      e.UserID,
			UserName:    e.UserName,
			ActionType:  e.ActionType,
			Description: e.Description,
			OldStatus:   e.OldStatus,
			NewStatus:   e.NewStatus,
			CreatedAt:   e.CreatedAt,
		})
	}
	return ok(c, items)
}

// Create POST /assets.
func (h *AssetsHandler) Create(c *fiber.Ctx) error {
	input, err := assetInput(c)
	if err != nil {
		return err
	}
	principal, _ := auth.PrincipalFromContext(c)
	asset, err := h.service.Create(c.UserContext(), principal, input)
	if err != nil {
		return apperrors.MapError(err)
	}
	return created(c, assetResponse(asset))
}

// Update PUT /assets/:id.
func (h *AssetsHandler) Update(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	input, err := assetInput(c)
	if err != nil {
		return err
	}
	principal, _ := auth.PrincipalFromContext(c)
	asset, err := h.service.Update(c.UserContext(), principal, id, input)
	if err != nil {
		return apperrors.MapError(err)
	}
	return ok(c, assetResponse(asset))
}

// Delete DELETE /assets/:id.
func (h *AssetsHandler) Delete(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.UserContext(), id); err != nil {
		return apperrors.MapError(err)
	}
	return noContent(c)
}

func assetInput(c *fiber.Ctx) (service.AssetInput, error) {
	var req dto.AssetRequest
	if err := bind(c, &req); err != nil {
		return service.AssetInput{}, err
	}
	fields, err := req.Parse()
	if err != nil {
		return service.AssetInput{}, err
	}
	return service.AssetInput{
		Name:            fields.Name,
		Code:            fields.Code,
		Description:     fields.Description,
		Status:          fields.Status,
		AcquisitionDate: fields.AcquisitionDate,
		WarrantyEnd:     fields.WarrantyEnd,
		Cost:            fields.Cost,
	}, nil
}

func assetResponse(a *domain.Asset) dto.AssetResponse {
	return dto.AssetResponse{
		ID:              a.ID,
		Name:            a.Name,
		Code:            a.Code,
		Description:     a.Description,
		Status:          a.Status,
		AcquisitionDate: dto.FormatDate(a.AcquisitionDate),
		WarrantyEnd:     dto.FormatDate(a.WarrantyEnd),
		Cost:            a.Cost,
		LastLogStatus:   a.LastLogStatus,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}
