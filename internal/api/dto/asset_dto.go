package dto

import (
	"time"

	"github.com/spec-kit/solve-chamados/internal/domain"
	apperrors "github.com/spec-kit/solve-chamados/pkg/util/errorutil"
)

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

// AssetRequest is the full set of editable asset fields.
type AssetRequest struct {
	Name            string   `json:"name" validate:"required,max=200"`
	Code            *string  `json:"code,omitempty" validate:"omitempty,max=64"`
	Description     *string  `json:"description,omitempty"`
	Status          string   `json:"status" validate:"omitempty,oneof=active maintenance retired"`
	AcquisitionDate *string  `json:"acquisition_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	WarrantyEnd     *string  `json:"warranty_end,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Cost            *float64 `json:"cost,omitempty" validate:"omitempty,gte=0"`
}

// AssetFields is the parsed form of an AssetRequest.
type AssetFields struct {
	Name            string
	Code            *string
	Description     *string
	Status          domain.AssetStatus
	AcquisitionDate *time.Time
	WarrantyEnd     *time.Time
	Cost            *float64
}

// Parse converts dates; blank dates become nil.
func (r AssetRequest) Parse() (AssetFields, error) {
	acquired, err := parseDate("acquisition_date", r.AcquisitionDate)
	if err != nil {
		return AssetFields{}, err
	}
	warranty, err := parseDate("warranty_end", r.WarrantyEnd)
	if err != nil {
		return AssetFields{}, err
	}
	return AssetFields{
		Name:            r.Name,
		Code:            r.Code,
		Description:     r.Description,
		Status:          domain.AssetStatus(r.Status),
		AcquisitionDate: acquired,
		WarrantyEnd:     warranty,
		Cost:            r.Cost,
	}, nil
}

func parseDate(field string, raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, *raw)
	if err != nil {
		return nil, apperrors.NewValidationError(field+" must be a date formatted as "+DateLayout, map[string]any{"field": field})
	}
	return &t, nil
}

// AssetResponse is the asset view.
type AssetResponse struct {
	ID              int64               `json:"id"`
	Name            string              `json:"name"`
	Code            *string             `json:"code"`
	Description     *string             `json:"description"`
	Status          domain.AssetStatus  `json:"status"`
	AcquisitionDate *string             `json:"acquisition_date"`
	WarrantyEnd     *string             `json:"warranty_end"`
	Cost            *float64            `json:"cost"`
	LastLogStatus   *domain.AssetStatus `json:"last_log_status,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// AssetHistoryResponse is one audit entry.
type AssetHistoryResponse struct {
	ID          int64               `json:"id"`
	AssetID     int64               `json:"asset_id"`
	UserID      *int64              `json:"user_id"`
	UserName    *string             `json:"user_name"`
	ActionType  domain.AssetAction  `json:"action_type"`
	Description string              `json:"description"`
	OldStatus   *domain.AssetStatus `json:"old_status"`
	NewStatus   domain.AssetStatus  `json:"new_status"`
	CreatedAt   time.Time           `json:"created_at"`
}

// FormatDate renders an optional date in DateLayout.
func FormatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(DateLayout)
	return &s
}
