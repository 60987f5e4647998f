package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// AssetStatus enumerates equipment lifecycle states.
type AssetStatus string

const (
	AssetStatusActive      AssetStatus = "active"
	AssetStatusMaintenance AssetStatus = "maintenance"
	AssetStatusRetired     AssetStatus = "retired"
)

// Valid reports whether s is a known status.
func (s AssetStatus) Valid() bool {
	switch s {
	case AssetStatusActive, AssetStatusMaintenance, AssetStatusRetired:
		return true
	}
	return false
}

// Asset is one piece of inventoried equipment.
type Asset struct {
	ID              int64
	Name            string
	Code            *string
	Description     *string
	Status          AssetStatus
	AcquisitionDate *time.Time
	WarrantyEnd     *time.Time
	Cost            *float64
	LastLogStatus   *AssetStatus
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// AssetAction tags an audit entry.
type AssetAction string

const (
	AssetActionCreated AssetAction = "CREATED"
	AssetActionUpdated AssetAction = "UPDATED"
)

// AssetHistory is an immutable audit entry for an asset.
type AssetHistory struct {
	ID          int64
	AssetID     int64
	UserID      *int64
	UserName    *string
	ActionType  AssetAction
	Description string
	OldStatus   *AssetStatus
	NewStatus   AssetStatus
	CreatedAt   time.Time
}

const (
	// AssetCreatedMessage describes the first entry of every asset.
	AssetCreatedMessage = "Asset registered"
	// AssetNoChangesMessage is recorded when an update changed nothing.
	AssetNoChangesMessage = "No changes detected"

	diffSeparator        = " | "
	longDescriptionRunes = 50
)

// DescribeChanges renders a field-by-field diff between two versions of an asset.
func DescribeChanges(before, after Asset) string {
	var changes []string

	if before.Status != after.Status {
		changes = append(changes, fmt.Sprintf("Status: '%s' -> '%s'", before.Status, after.Status))
	}
	if before.Name != after.Name {
		changes = append(changes, fmt.Sprintf("Name: '%s' -> '%s'", before.Name, after.Name))
	}
	if deref(before.Code) != deref(after.Code) {
		changes = append(changes, fmt.Sprintf("Code: '%s' -> '%s'", orNA(before.Code), orNA(after.Code)))
	}
	if money(before.Cost) != money(after.Cost) {
		changes = append(changes, fmt.Sprintf("Cost: %s -> %s", money(before.Cost), money(after.Cost)))
	}
	if day(before.AcquisitionDate) != day(after.AcquisitionDate) {
		changes = append(changes, fmt.Sprintf("Acquisition: %s -> %s", day(before.AcquisitionDate), day(after.AcquisitionDate)))
	}
	if day(before.WarrantyEnd) != day(after.WarrantyEnd) {
		changes = append(changes, fmt.Sprintf("Warranty: %s -> %s", day(before.WarrantyEnd), day(after.WarrantyEnd)))
	}
	if deref(before.Description) != deref(after.Description) {
		if utf8.RuneCountInString(deref(after.Description)) < longDescriptionRunes {
			changes = append(changes, fmt.Sprintf("Description: '%s' -> '%s'", deref(before.Description), deref(after.Description)))
		} else {
			changes = append(changes, "Description updated")
		}
	}

	if len(changes) == 0 {
		return AssetNoChangesMessage
	}
	return strings.Join(changes, diffSeparator)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func orNA(s *string) string {
	if v := deref(s); v != "" {
		return v
	}
	return "N/A"
}

func money(v *float64) string {
	if v == nil {
		return "0.00"
	}
	return fmt.Sprintf("%.2f", *v)
}

func day(t *time.Time) string {
	if t == nil {
		return "N/A"
	}
	return t.UTC().Format("2006-01-02")
}
