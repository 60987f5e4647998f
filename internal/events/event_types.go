package events

import (
	"time"

	"github.com/spec-kit/solve-chamados/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketUpdateAdded   EventType = "ticket_update_added"
)

// AllTicketEvents lists every ticket event type.
var AllTicketEvents = []EventType{
	EventTicketCreated,
	EventTicketStatusChanged,
	EventTicketUpdateAdded,
}

// Actor identifies who caused an event.
type Actor struct {
	UserID int64  `json:"user_id"`
	Name   string `json:"name"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	TicketID  int64     `json:"ticket_id"`
	Actor     Actor     `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Title       string                `json:"title"`
	Priority    domain.TicketPriority `json:"priority"`
	SLADeadline time.Time             `json:"sla_deadline"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	Action     domain.TicketAction `json:"action"`
	OldStatus  domain.TicketStatus `json:"old_status"`
	NewStatus  domain.TicketStatus `json:"new_status"`
	AssigneeID *int64              `json:"assignee_id,omitempty"`
	Reason     string              `json:"reason,omitempty"`
}

// TicketUpdateAddedPayload payload.
type TicketUpdateAddedPayload struct {
	Author      string `json:"author"`
	TextPreview string `json:"text_preview"`
}
