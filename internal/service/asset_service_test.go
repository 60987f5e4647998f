package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/solve-chamados/internal/domain"
	"github.com/spec-kit/solve-chamados/internal/testutil"
	apperrors "github.com/spec-kit/solve-chamados/pkg/util/errorutil"
)

func ptr[T any](v T) *T { return &v }

func TestCreateAssetWritesHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	maria := f.createUser(t, "maria@example.com", domain.RoleTechnician)
	actor := principal(maria.ID, maria.Name, domain.RoleTechnician, domain.PermManageAssets)

	asset, err := f.assets.Create(ctx, actor, AssetInput{
		Name: "Notebook <b>Dell</b>",
		Code: ptr("NB-01"),
		Cost: ptr(3500.0),
	})
	require.NoError(t, err)
	assert.Equal(t, "Notebook Dell", asset.Name)
	assert.Equal(t, domain.AssetStatusActive, asset.Status)

	history, err := f.assets.History(ctx, asset.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, domain.AssetActionCreated, history[0].ActionType)
	assert.Equal(t, domain.AssetCreatedMessage, history[0].Description)
	assert.Nil(t, history[0].OldStatus)
	require.NotNil(t, history[0].UserID)
	assert.Equal(t, actor.ID, *history[0].UserID)
}

func TestCreateAssetValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		input AssetInput
	}{
		{"blank name", AssetInput{Name: " "}},
		{"bad status", AssetInput{Name: "Router", Status: "lost"}},
		{"negative cost", AssetInput{Name: "Router", Cost: ptr(-1.0)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.assets.Create(ctx, nil, tt.input)
			requireCode(t, err, apperrors.CodeValidation)
		})
	}
	assert.Zero(t, f.store.AssetCount())
}

func TestCreateAssetDuplicateCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.assets.Create(ctx, nil, AssetInput{Name: "Switch", Code: ptr("SW-1")})
	require.NoError(t, err)

	_, err = f.assets.Create(ctx, nil, AssetInput{Name: "Switch 2", Code: ptr("SW-1")})
	de := requireCode(t, err, apperrors.CodeConflict)
	assert.Equal(t, "asset code already in use", de.Message)
	assert.Equal(t, 1, f.store.AssetCount())
}

func TestCreateAssetRollsBackWhenHistoryFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.store.FailHistoryAppend = testutil.ErrInjected

	_, err := f.assets.Create(ctx, nil, AssetInput{Name: "Projector"})
	require.ErrorIs(t, err, testutil.ErrInjected)
	assert.Zero(t, f.store.AssetCount())
	assert.Empty(t, f.store.AssetHistory())
}

func TestUpdateAssetRecordsDiff(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	maria := f.createUser(t, "maria@example.com", domain.RoleTechnician)
	actor := principal(maria.ID, maria.Name, domain.RoleTechnician)
	asset, err := f.assets.Create(ctx, actor, AssetInput{Name: "Printer", Cost: ptr(100.0)})
	require.NoError(t, err)

	bought := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	updated, err := f.assets.Update(ctx, actor, asset.ID, AssetInput{
		Name:            "Printer HP",
		Status:          domain.AssetStatusMaintenance,
		Cost:            ptr(100.0),
		AcquisitionDate: &bought,
	})
	require.NoError(t, err)
	assert.Equal(t, "Printer HP", updated.Name)
	assert.Equal(t, domain.AssetStatusMaintenance, updated.Status)

	history, err := f.assets.History(ctx, asset.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	latest := history[0]
	assert.Equal(t, domain.AssetActionUpdated, latest.ActionType)
	require.NotNil(t, latest.OldStatus)
	assert.Equal(t, domain.AssetStatusActive, *latest.OldStatus)
	assert.Equal(t, domain.AssetStatusMaintenance, latest.NewStatus)
	assert.Contains(t, latest.Description, "Printer HP")
	assert.NotContains(t, latest.Description, "Cost")
	require.NotNil(t, latest.UserName)
	assert.Equal(t, maria.Name, *latest.UserName)
}

func TestAssetHistoryRejectsUnknownActor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.assets.Create(ctx, principal(9999, "Ghost", domain.RoleTechnician), AssetInput{Name: "Dock"})
	requireCode(t, err, apperrors.CodeReferentialIntegrity)
	assert.Zero(t, f.store.AssetCount())
	assert.Empty(t, f.store.AssetHistory())
}

func TestUpdateAssetNoChanges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	asset, err := f.assets.Create(ctx, nil, AssetInput{Name: "Monitor"})
	require.NoError(t, err)

	_, err = f.assets.Update(ctx, nil, asset.ID, AssetInput{Name: "Monitor"})
	require.NoError(t, err)

	history, err := f.assets.History(ctx, asset.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, domain.AssetNoChangesMessage, history[0].Description)
}

func TestUpdateAssetRollsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	asset, err := f.assets.Create(ctx, nil, AssetInput{Name: "Scanner"})
	require.NoError(t, err)

	f.store.FailHistoryAppend = testutil.ErrInjected
	_, err = f.assets.Update(ctx, nil, asset.ID, AssetInput{Name: "Scanner v2", Status: domain.AssetStatusRetired})
	require.ErrorIs(t, err, testutil.ErrInjected)

	current, err := f.assets.Get(ctx, asset.ID)
	require.NoError(t, err)
	assert.Equal(t, "Scanner", current.Name)
	assert.Equal(t, domain.AssetStatusActive, current.Status)
	assert.Len(t, f.store.AssetHistory(), 1)

	_, err = f.assets.Update(ctx, nil, 4040, AssetInput{Name: "Ghost"})
	requireCode(t, err, apperrors.CodeNotFound)
}

func TestAssetListAndDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	asset, err := f.assets.Create(ctx, nil, AssetInput{Name: "Phone", Status: domain.AssetStatusMaintenance})
	require.NoError(t, err)

	list, err := f.assets.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NotNil(t, list[0].LastLogStatus)
	assert.Equal(t, domain.AssetStatusMaintenance, *list[0].LastLogStatus)

	requester := f.createUser(t, "req@example.com", domain.RoleUser)
	_, err = f.tickets.Create(ctx, principal(requester.ID, requester.Name, domain.RoleUser), TicketCreateInput{
		Title: "Phone broken", Description: "No signal", AssetID: &asset.ID,
	})
	require.NoError(t, err)

	err = f.assets.Delete(ctx, asset.ID)
	requireCode(t, err, apperrors.CodeReferentialIntegrity)

	_, err = f.assets.History(ctx, 999)
	requireCode(t, err, apperrors.CodeNotFound)
}
