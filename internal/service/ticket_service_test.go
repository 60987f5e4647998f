package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/solve-chamados/internal/auth"
	"github.com/spec-kit/solve-chamados/internal/domain"
	"github.com/spec-kit/solve-chamados/internal/events"
	apperrors "github.com/spec-kit/solve-chamados/pkg/util/errorutil"
)

func newTicket(t *testing.T, f *fixture, requester *auth.Principal, priority string) *domain.Ticket {
	t.Helper()
	ticket, err := f.tickets.Create(context.Background(), requester, TicketCreateInput{
		Title:       "Printer jammed",
		Description: "Paper stuck in tray 2",
		Priority:    priority,
		Location:    "Room 12",
	})
	require.NoError(t, err)
	return ticket
}

func TestCreateTicketSLA(t *testing.T) {
	f := newFixture(t)
	requester := principal(1, "Requester", domain.RoleUser, domain.PermCreateTicket)

	tests := []struct {
		priority string
		want     domain.TicketPriority
		sla      time.Duration
	}{
		{"critica", domain.TicketPriorityCritical, 4 * time.Hour},
		{"high", domain.TicketPriorityHigh, 24 * time.Hour},
		{"", domain.TicketPriorityMedium, 48 * time.Hour},
		{"baixa", domain.TicketPriorityLow, 72 * time.Hour},
		{"whenever", domain.TicketPriorityMedium, 48 * time.Hour},
	}
	for _, tt := range tests {
		t.Run(tt.priority, func(t *testing.T) {
			ticket := newTicket(t, f, requester, tt.priority)
			assert.Equal(t, tt.want, ticket.Priority)
			assert.Equal(t, f.now.Add(tt.sla), ticket.SLADeadline)
			assert.Equal(t, domain.TicketStatusOpen, ticket.Status)
			assert.Equal(t, "Requester", ticket.RequesterName)
			assert.Empty(t, ticket.Updates)
		})
	}
}

func TestCreateTicketValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	requester := principal(1, "Requester", domain.RoleUser)

	_, err := f.tickets.Create(ctx, requester, TicketCreateInput{Title: "<script></script>", Description: "x"})
	requireCode(t, err, apperrors.CodeValidation)
	_, err = f.tickets.Create(ctx, requester, TicketCreateInput{Title: "x", Description: "  "})
	requireCode(t, err, apperrors.CodeValidation)

	missing := int64(555)
	_, err = f.tickets.Create(ctx, requester, TicketCreateInput{Title: "x", Description: "y", AssetID: &missing})
	requireCode(t, err, apperrors.CodeReferentialIntegrity)
}

func TestCreateTicketWithAttachment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	requester := principal(1, "Requester", domain.RoleUser)

	ticket, err := f.tickets.Create(ctx, requester, TicketCreateInput{
		Title: "Screen", Description: "Flickers",
		Attachment: &domain.Attachment{FileName: "photo.png", MimeType: "image/png", Data: []byte{0x89, 0x50}},
	})
	require.NoError(t, err)
	assert.True(t, ticket.HasAttachment)

	att, err := f.tickets.Attachment(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, "photo.png", att.FileName)

	bare := newTicket(t, f, requester, "low")
	_, err = f.tickets.Attachment(ctx, bare.ID)
	requireCode(t, err, apperrors.CodeNotFound)
}

func TestAssignThenRelease(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	requester := principal(1, "Requester", domain.RoleUser)
	tech := principal(2, "Tina", domain.RoleTechnician, domain.PermAssignTickets, domain.PermManageTickets)
	ticket := newTicket(t, f, requester, "high")

	assigned, err := f.tickets.Apply(ctx, tech, ticket.ID, domain.ActionAssign, "")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusInProgress, assigned.Status)
	require.NotNil(t, assigned.AssigneeID)
	assert.Equal(t, tech.ID, *assigned.AssigneeID)
	require.Len(t, assigned.Updates, 1)
	assert.Equal(t, "claimed by Tina", assigned.Updates[0].Text)

	released, err := f.tickets.Apply(ctx, tech, ticket.ID, domain.ActionRelease, "waiting on parts")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusPending, released.Status)
	assert.Nil(t, released.AssigneeID)
	assert.Nil(t, released.AssigneeName)
	require.Len(t, released.Updates, 2)
	assert.Equal(t, "Release: waiting on parts", released.Updates[1].Text)
	assert.Equal(t, "Tina", released.Updates[1].Author)

	again, err := f.tickets.Apply(ctx, tech, ticket.ID, domain.ActionAssign, "back on it")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusInProgress, again.Status)
	require.Len(t, again.Updates, 4)
	assert.Equal(t, "back on it", again.Updates[3].Text)
}

func TestResolveAndCancelAreTerminal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	requester := principal(1, "Requester", domain.RoleUser)
	tech := principal(2, "Tina", domain.RoleTechnician)

	for _, action := range []domain.TicketAction{domain.ActionResolve, domain.ActionCancel} {
		t.Run(string(action), func(t *testing.T) {
			ticket := newTicket(t, f, requester, "medium")
			_, err := f.tickets.Apply(ctx, tech, ticket.ID, domain.ActionAssign, "")
			require.NoError(t, err)

			done, err := f.tickets.Apply(ctx, tech, ticket.ID, action, "done")
			require.NoError(t, err)
			assert.True(t, done.Status.Terminal())
			last := done.Updates[len(done.Updates)-1].Text
			assert.True(t, strings.HasSuffix(last, ": done"), last)

			for _, next := range []domain.TicketAction{domain.ActionAssign, domain.ActionRelease, domain.ActionCancel, domain.ActionResolve} {
				_, err := f.tickets.Apply(ctx, tech, ticket.ID, next, "again")
				requireCode(t, err, apperrors.CodeInvalidTransition)
			}
			_, err = f.tickets.AddUpdate(ctx, tech, ticket.ID, "one more thing")
			requireCode(t, err, apperrors.CodeInvalidTransition)
		})
	}
}

func TestIllegalTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	requester := principal(1, "Requester", domain.RoleUser)
	tech := principal(2, "Tina", domain.RoleTechnician)
	ticket := newTicket(t, f, requester, "low")

	_, err := f.tickets.Apply(ctx, tech, ticket.ID, domain.ActionResolve, "fixed")
	de := requireCode(t, err, apperrors.CodeInvalidTransition)
	assert.Equal(t, 409, de.HTTPStatus)

	_, err = f.tickets.Apply(ctx, tech, ticket.ID, domain.ActionRelease, "nope")
	requireCode(t, err, apperrors.CodeInvalidTransition)

	_, err = f.tickets.Apply(ctx, tech, ticket.ID, domain.TicketAction("reopen"), "x")
	requireCode(t, err, apperrors.CodeValidation)

	_, err = f.tickets.ChangeStatus(ctx, tech, ticket.ID, domain.TicketStatusOpen, "")
	requireCode(t, err, apperrors.CodeValidation)

	_, err = f.tickets.Apply(ctx, tech, 9999, domain.ActionAssign, "")
	requireCode(t, err, apperrors.CodeNotFound)
}

func TestReasonRequired(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	requester := principal(1, "Requester", domain.RoleUser)
	tech := principal(2, "Tina", domain.RoleTechnician)
	ticket := newTicket(t, f, requester, "low")
	_, err := f.tickets.ChangeStatus(ctx, tech, ticket.ID, domain.TicketStatusInProgress, "")
	require.NoError(t, err)

	for _, target := range []domain.TicketStatus{domain.TicketStatusPending, domain.TicketStatusCancelled, domain.TicketStatusResolved} {
		_, err := f.tickets.ChangeStatus(ctx, tech, ticket.ID, target, "  <b> </b> ")
		requireCode(t, err, apperrors.CodeValidation)
	}

	current, err := f.tickets.Get(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusInProgress, current.Status)
}

func TestConcurrentStatusChangeIsRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	requester := principal(1, "Requester", domain.RoleUser)
	tech := principal(2, "Tina", domain.RoleTechnician)
	ticket := newTicket(t, f, requester, "low")

	f.store.BeforeTicketWrite = func(tk *domain.Ticket) { tk.Status = domain.TicketStatusCancelled }
	_, err := f.tickets.Apply(ctx, tech, ticket.ID, domain.ActionAssign, "")
	requireCode(t, err, apperrors.CodeInvalidTransition)
	_, err = f.tickets.AddUpdate(ctx, tech, ticket.ID, "late note")
	requireCode(t, err, apperrors.CodeInvalidTransition)
	f.store.BeforeTicketWrite = nil

	current, err := f.tickets.Get(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Empty(t, current.Updates)
}

func TestAddUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	requester := principal(1, "Requester", domain.RoleUser)
	ticket := newTicket(t, f, requester, "low")

	_, err := f.tickets.AddUpdate(ctx, requester, ticket.ID, "<br>")
	requireCode(t, err, apperrors.CodeValidation)

	updated, err := f.tickets.AddUpdate(ctx, requester, ticket.ID, "Still broken <b>today</b>")
	require.NoError(t, err)
	require.Len(t, updated.Updates, 1)
	assert.Equal(t, "Still broken today", updated.Updates[0].Text)
	assert.Equal(t, f.now, updated.Updates[0].Timestamp)
	assert.Equal(t, domain.TicketStatusOpen, updated.Status)
}

func TestListTickets(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	requester := principal(1, "Requester", domain.RoleUser)
	tech := principal(2, "Tina", domain.RoleTechnician)
	first := newTicket(t, f, requester, "low")
	second := newTicket(t, f, requester, "critical")
	_, err := f.tickets.Apply(ctx, tech, second.ID, domain.ActionAssign, "")
	require.NoError(t, err)

	all, err := f.tickets.List(ctx, TicketListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID)

	open := domain.TicketStatusOpen
	filtered, err := f.tickets.List(ctx, TicketListFilter{Status: &open})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, first.ID, filtered[0].ID)

	mine, err := f.tickets.List(ctx, TicketListFilter{AssigneeID: &tech.ID})
	require.NoError(t, err)
	require.Len(t, mine, 1)

	paged, err := f.tickets.List(ctx, TicketListFilter{Page: 2, PageSize: 1})
	require.NoError(t, err)
	require.Len(t, paged, 1)
	assert.Equal(t, first.ID, paged[0].ID)
}

func TestListFilterNormalize(t *testing.T) {
	f := TicketListFilter{Page: -1, PageSize: 1000}
	f.Normalize()
	assert.Equal(t, 1, f.Page)
	assert.Equal(t, 100, f.PageSize)

	f = TicketListFilter{}
	f.Normalize()
	assert.Equal(t, 20, f.PageSize)
}

func TestTicketEventsPublished(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	var got []events.Event
	for _, et := range events.AllTicketEvents {
		f.dispatcher.Subscribe(et, func(_ context.Context, e events.Event) error {
			got = append(got, e)
			return nil
		})
	}
	requester := principal(1, "Requester", domain.RoleUser)
	tech := principal(2, "Tina", domain.RoleTechnician)

	ticket := newTicket(t, f, requester, "high")
	_, err := f.tickets.Apply(ctx, tech, ticket.ID, domain.ActionAssign, "")
	require.NoError(t, err)
	_, err = f.tickets.AddUpdate(ctx, tech, ticket.ID, strings.Repeat("a", 200))
	require.NoError(t, err)

	require.Len(t, got, 3)
	assert.Equal(t, events.EventTicketCreated, got[0].Type)
	assert.Equal(t, events.EventTicketStatusChanged, got[1].Type)
	assert.Equal(t, events.EventTicketUpdateAdded, got[2].Type)
	for _, e := range got {
		assert.NotEmpty(t, e.ID)
		assert.Equal(t, ticket.ID, e.TicketID)
	}
	changed := got[1].Payload.(events.TicketStatusChangedPayload)
	assert.Equal(t, domain.TicketStatusOpen, changed.OldStatus)
	assert.Equal(t, domain.TicketStatusInProgress, changed.NewStatus)
	added := got[2].Payload.(events.TicketUpdateAddedPayload)
	assert.Equal(t, 81, len([]rune(added.TextPreview)))
}

func TestDeleteTicket(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ticket := newTicket(t, f, principal(1, "Requester", domain.RoleUser), "low")

	require.NoError(t, f.tickets.Delete(ctx, ticket.ID))
	_, err := f.tickets.Get(ctx, ticket.ID)
	requireCode(t, err, apperrors.CodeNotFound)
	err = f.tickets.Delete(ctx, ticket.ID)
	requireCode(t, err, apperrors.CodeNotFound)
}
