package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSLADeadline(t *testing.T) {
	t0 := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	tests := []struct {
		raw  string
		want time.Duration
	}{
		{"critical", 4 * time.Hour},
		{"critica", 4 * time.Hour},
		{"Crítica", 4 * time.Hour},
		{"high", 24 * time.Hour},
		{"alta", 24 * time.Hour},
		{"medium", 48 * time.Hour},
		{"low", 72 * time.Hour},
		{"baixa", 72 * time.Hour},
		{"whenever", 48 * time.Hour},
		{"", 48 * time.Hour},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, t0.Add(tt.want), SLADeadline(t0, ParsePriority(tt.raw)))
		})
	}
}

func TestParsePriority_UnknownIsMedium(t *testing.T) {
	assert.Equal(t, TicketPriorityMedium, ParsePriority("urgentissimo"))
	assert.Equal(t, TicketPriority("bogus").SLA(), 48*time.Hour)
}

func TestNextStatus(t *testing.T) {
	tests := []struct {
		name    string
		from    TicketStatus
		action  TicketAction
		want    TicketStatus
		wantErr error
	}{
		{"assign open", TicketStatusOpen, ActionAssign, TicketStatusInProgress, nil},
		{"assign pending", TicketStatusPending, ActionAssign, TicketStatusInProgress, nil},
		{"assign in progress", TicketStatusInProgress, ActionAssign, "", ErrIllegalTransition},
		{"release in progress", TicketStatusInProgress, ActionRelease, TicketStatusPending, nil},
		{"release open", TicketStatusOpen, ActionRelease, "", ErrIllegalTransition},
		{"cancel in progress", TicketStatusInProgress, ActionCancel, TicketStatusCancelled, nil},
		{"cancel open", TicketStatusOpen, ActionCancel, "", ErrIllegalTransition},
		{"resolve in progress", TicketStatusInProgress, ActionResolve, TicketStatusResolved, nil},
		{"resolve pending", TicketStatusPending, ActionResolve, "", ErrIllegalTransition},
		{"assign resolved", TicketStatusResolved, ActionAssign, "", ErrIllegalTransition},
		{"release cancelled", TicketStatusCancelled, ActionRelease, "", ErrIllegalTransition},
		{"unknown action", TicketStatusOpen, TicketAction("reopen"), "", ErrUnknownAction},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextStatus(tt.from, tt.action)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestActionForTarget(t *testing.T) {
	action, err := ActionForTarget(TicketStatusPending)
	require.NoError(t, err)
	assert.Equal(t, ActionRelease, action)

	_, err = ActionForTarget(TicketStatusOpen)
	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestTicketStatus_Terminal(t *testing.T) {
	assert.True(t, TicketStatusResolved.Terminal())
	assert.True(t, TicketStatusCancelled.Terminal())
	assert.False(t, TicketStatusPending.Terminal())
}

func TestTicket_Overdue(t *testing.T) {
	now := time.Now()
	ticket := &Ticket{Status: TicketStatusOpen, SLADeadline: now.Add(-time.Minute)}
	assert.True(t, ticket.Overdue(now))

	ticket.Status = TicketStatusResolved
	assert.False(t, ticket.Overdue(now))
}
