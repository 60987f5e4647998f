package domain

import (
	"errors"
	"strings"
	"time"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusPending    TicketStatus = "pending"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusResolved   TicketStatus = "resolved"
	TicketStatusCancelled  TicketStatus = "cancelled"
)

// Terminal reports whether no further changes are allowed.
func (s TicketStatus) Terminal() bool {
	return s == TicketStatusResolved || s == TicketStatusCancelled
}

// Valid reports whether s is a known status.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusPending, TicketStatusInProgress, TicketStatusResolved, TicketStatusCancelled:
		return true
	}
	return false
}

// TicketPriority enumerates SLA urgency.
type TicketPriority string

const (
	TicketPriorityLow      TicketPriority = "low"
	TicketPriorityMedium   TicketPriority = "medium"
	TicketPriorityHigh     TicketPriority = "high"
	TicketPriorityCritical TicketPriority = "critical"
)

var priorityAliases = map[string]TicketPriority{
	"low":      TicketPriorityLow,
	"baixa":    TicketPriorityLow,
	"medium":   TicketPriorityMedium,
	"media":    TicketPriorityMedium,
	"média":    TicketPriorityMedium,
	"high":     TicketPriorityHigh,
	"alta":     TicketPriorityHigh,
	"critical": TicketPriorityCritical,
	"critica":  TicketPriorityCritical,
	"crítica":  TicketPriorityCritical,
}

// ParsePriority maps user input (including the legacy Portuguese labels) to a
// priority. Anything unrecognised is medium.
func ParsePriority(raw string) TicketPriority {
	if p, ok := priorityAliases[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return p
	}
	return TicketPriorityMedium
}

var slaByPriority = map[TicketPriority]time.Duration{
	TicketPriorityCritical: 4 * time.Hour,
	TicketPriorityHigh:     24 * time.Hour,
	TicketPriorityMedium:   48 * time.Hour,
	TicketPriorityLow:      72 * time.Hour,
}

// SLA returns the resolution window for a priority.
func (p TicketPriority) SLA() time.Duration {
	if d, ok := slaByPriority[p]; ok {
		return d
	}
	return slaByPriority[TicketPriorityMedium]
}

// SLADeadline is fixed once, at creation.
func SLADeadline(createdAt time.Time, priority TicketPriority) time.Time {
	return createdAt.Add(priority.SLA())
}

// TicketUpdate is one entry of a ticket's append-only update log.
type TicketUpdate struct {
	Text      string    `json:"text"`
	Author    string    `json:"author"`
	AuthorID  *int64    `json:"author_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Attachment is binary content stored alongside the ticket.
type Attachment struct {
	FileName string
	MimeType string
	Data     []byte
}

// Ticket is the aggregate for support requests.
type Ticket struct {
	ID             int64
	Title          string
	Description    string
	Priority       TicketPriority
	Status         TicketStatus
	RequesterID    *int64
	RequesterName  string
	AssigneeID     *int64
	AssigneeName   *string
	Location       string
	AssetID        *int64
	AttachmentName *string
	AttachmentMime *string
	HasAttachment  bool
	SLADeadline    time.Time
	Updates        []TicketUpdate
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Overdue reports whether an unfinished ticket has passed its deadline.
func (t *Ticket) Overdue(now time.Time) bool {
	return !t.Status.Terminal() && now.After(t.SLADeadline)
}

// TicketAction names a state machine transition.
type TicketAction string

const (
	ActionAssign  TicketAction = "assign"
	ActionRelease TicketAction = "release"
	ActionCancel  TicketAction = "cancel"
	ActionResolve TicketAction = "resolve"
)

type transition struct {
	from []TicketStatus
	to   TicketStatus
}

var ticketTransitions = map[TicketAction]transition{
	ActionAssign:  {from: []TicketStatus{TicketStatusOpen, TicketStatusPending}, to: TicketStatusInProgress},
	ActionRelease: {from: []TicketStatus{TicketStatusInProgress}, to: TicketStatusPending},
	ActionCancel:  {from: []TicketStatus{TicketStatusInProgress}, to: TicketStatusCancelled},
	ActionResolve: {from: []TicketStatus{TicketStatusInProgress}, to: TicketStatusResolved},
}

var (
	// ErrUnknownAction is returned for an action outside the state machine.
	ErrUnknownAction = errors.New("unknown ticket action")
	// ErrIllegalTransition is returned when the current status does not allow the action.
	ErrIllegalTransition = errors.New("illegal ticket transition")
)

// TransitionSources lists the statuses an action may start from.
func TransitionSources(action TicketAction) []TicketStatus {
	return append([]TicketStatus(nil), ticketTransitions[action].from...)
}

// NextStatus returns the status reached by applying action from current.
func NextStatus(current TicketStatus, action TicketAction) (TicketStatus, error) {
	tr, ok := ticketTransitions[action]
	if !ok {
		return "", ErrUnknownAction
	}
	for _, s := range tr.from {
		if s == current {
			return tr.to, nil
		}
	}
	return "", ErrIllegalTransition
}

// RequiresReason reports whether the action must carry a non-blank reason.
func (a TicketAction) RequiresReason() bool {
	return a == ActionRelease || a == ActionCancel || a == ActionResolve
}

// ActionForTarget maps a requested target status onto the transition reaching it.
func ActionForTarget(target TicketStatus) (TicketAction, error) {
	switch target {
	case TicketStatusInProgress:
		return ActionAssign, nil
	case TicketStatusPending:
		return ActionRelease, nil
	case TicketStatusCancelled:
		return ActionCancel, nil
	case TicketStatusResolved:
		return ActionResolve, nil
	}
	return "", ErrUnknownAction
}

// Permission is the capability needed to perform the action.
func (a TicketAction) Permission() Permission {
	if a == ActionAssign {
		return PermAssignTickets
	}
	return PermManageTickets
}

// NonTerminalStatuses lists the statuses that still accept changes.
var NonTerminalStatuses = []TicketStatus{TicketStatusOpen, TicketStatusPending, TicketStatusInProgress}
