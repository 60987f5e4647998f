package service

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/spec-kit/solve-chamados/internal/auth"
	"github.com/spec-kit/solve-chamados/internal/domain"
	"github.com/spec-kit/solve-chamados/internal/events"
	"github.com/spec-kit/solve-chamados/internal/repository"
	apperrors "github.com/spec-kit/solve-chamados/pkg/util/errorutil"
	"github.com/spec-kit/solve-chamados/pkg/util/textutil"
)

// TicketService coordinates ticket workflows.
type TicketService struct {
	tickets    repository.TicketRepository
	dispatcher events.Dispatcher
	clock      Clock
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	Dispatcher events.Dispatcher
	Clock      Clock
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketRepo,
		dispatcher: deps.Dispatcher,
		clock:      deps.Clock,
	}
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title       string
	Description string
	Priority    string
	Location    string
	AssetID     *int64
	Attachment  *domain.Attachment
}

// TicketListFilter describes listing filters.
type TicketListFilter struct {
	Status     *domain.TicketStatus
	Priority   *domain.TicketPriority
	AssigneeID *int64
	Search     *string
	Page       int
	PageSize   int
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
	previewRunes    = 80
)

// Normalize clamps paging to sane bounds.
func (f *TicketListFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = defaultPageSize
	}
	if f.PageSize > maxPageSize {
		f.PageSize = maxPageSize
	}
}

// Create opens a ticket for the caller. The SLA deadline is fixed here.
func (s *TicketService) Create(ctx context.Context, actor *auth.Principal, input TicketCreateInput) (*domain.Ticket, error) {
	title := textutil.StripHTML(input.Title)
	description := textutil.StripHTML(input.Description)
	if title == "" {
		return nil, apperrors.NewValidationError("title is required", map[string]any{"field": "title"})
	}
	if description == "" {
		return nil, apperrors.NewValidationError("description is required", map[string]any{"field": "description"})
	}
	if input.Attachment != nil && len(input.Attachment.Data) == 0 {
		input.Attachment = nil
	}

	now := s.clock.now()
	priority := domain.ParsePriority(input.Priority)
	ticket := &domain.Ticket{
		Title:         title,
		Description:   description,
		Priority:      priority,
		Status:        domain.TicketStatusOpen,
		RequesterID:   &actor.ID,
		RequesterName: actor.Name,
		Location:      textutil.StripHTML(input.Location),
		AssetID:       input.AssetID,
		SLADeadline:   domain.SLADeadline(now, priority),
		Updates:       []domain.TicketUpdate{},
		CreatedAt:     now,
	}

	if err := s.tickets.Create(ctx, ticket, input.Attachment); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    actorOf(actor),
		Payload: events.TicketCreatedPayload{
			Title:       ticket.Title,
			Priority:    ticket.Priority,
			SLADeadline: ticket.SLADeadline,
		},
	})
	return ticket, nil
}

func (s *TicketService) Get(ctx context.Context, id int64) (*domain.Ticket, error) {
	return s.tickets.GetByID(ctx, id)
}

// List returns a page of tickets, newest first.
func (s *TicketService) List(ctx context.Context, filter TicketListFilter) ([]domain.Ticket, error) {
	filter.Normalize()
	return s.tickets.List(ctx, repository.TicketFilter{
		Status:     filter.Status,
		Priority:   filter.Priority,
		AssigneeID: filter.AssigneeID,
		Search:     filter.Search,
		Limit:      filter.PageSize,
		Offset:     (filter.Page - 1) * filter.PageSize,
	})
}

// Attachment returns the stored file of a ticket.
func (s *TicketService) Attachment(ctx context.Context, id int64) (*domain.Attachment, error) {
	return s.tickets.Attachment(ctx, id)
}

// ChangeStatus moves a ticket to target by way of the matching action.
func (s *TicketService) ChangeStatus(ctx context.Context, actor *auth.Principal, id int64, target domain.TicketStatus, reason string) (*domain.Ticket, error) {
	action, err := domain.ActionForTarget(target)
	if err != nil {
		return nil, apperrors.NewValidationError(fmt.Sprintf("status %q is not a valid target", target), map[string]any{"field": "status"})
	}
	return s.Apply(ctx, actor, id, action, reason)
}

// Apply runs one state machine action. Terminal tickets reject every action.
func (s *TicketService) Apply(ctx context.Context, actor *auth.Principal, id int64, action domain.TicketAction, reason string) (*domain.Ticket, error) {
	reason = textutil.StripHTML(reason)
	if action.RequiresReason() && reason == "" {
		return nil, apperrors.NewValidationError("a reason is required", map[string]any{"field": "reason", "action": action})
	}

	current, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status.Terminal() {
		return nil, terminalError(current)
	}
	next, err := domain.NextStatus(current.Status, action)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownAction) {
			return nil, apperrors.NewValidationError(err.Error(), map[string]any{"action": action})
		}
		return nil, apperrors.NewInvalidTransition(
			fmt.Sprintf("cannot %s a ticket that is %s", action, current.Status),
			map[string]any{"from": current.Status, "action": action})
	}

	now := s.clock.now()
	tr := repository.TicketTransition{
		ID:   id,
		From: domain.TransitionSources(action),
		To:   next,
	}
	switch action {
	case domain.ActionAssign:
		tr.SetAssignee = true
		tr.AssigneeID = &actor.ID
		tr.AssigneeName = &actor.Name
		tr.Updates = append(tr.Updates, s.entry(actor, "claimed by "+actor.Name, now))
		if reason != "" {
			tr.Updates = append(tr.Updates, s.entry(actor, reason, now))
		}
	case domain.ActionRelease:
		tr.SetAssignee = true
		tr.Updates = append(tr.Updates, s.entry(actor, "Release: "+reason, now))
	case domain.ActionCancel:
		tr.Updates = append(tr.Updates, s.entry(actor, "Cancellation: "+reason, now))
	case domain.ActionResolve:
		tr.Updates = append(tr.Updates, s.entry(actor, "Resolution: "+reason, now))
	}

	updated, err := s.tickets.Transition(ctx, tr)
	if err != nil {
		if errors.Is(err, repository.ErrStatusGuard) {
			return nil, apperrors.NewInvalidTransition("ticket changed while processing, reload and retry",
				map[string]any{"action": action})
		}
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: id,
		Actor:    actorOf(actor),
		Payload: events.TicketStatusChangedPayload{
			Action:     action,
			OldStatus:  current.Status,
			NewStatus:  updated.Status,
			AssigneeID: updated.AssigneeID,
			Reason:     reason,
		},
	})
	return updated, nil
}

// AddUpdate appends a follow-up note to a ticket that is still open for changes.
func (s *TicketService) AddUpdate(ctx context.Context, actor *auth.Principal, id int64, text string) (*domain.Ticket, error) {
	text = textutil.StripHTML(text)
	if text == "" {
		return nil, apperrors.NewValidationError("update text is required", map[string]any{"field": "text"})
	}

	current, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status.Terminal() {
		return nil, terminalError(current)
	}

	updated, err := s.tickets.AppendUpdate(ctx, id, s.entry(actor, text, s.clock.now()), domain.NonTerminalStatuses)
	if err != nil {
		if errors.Is(err, repository.ErrStatusGuard) {
			return nil, apperrors.NewInvalidTransition("ticket was closed while processing", nil)
		}
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketUpdateAdded,
		TicketID: id,
		Actor:    actorOf(actor),
		Payload: events.TicketUpdateAddedPayload{
			Author:      actor.Name,
			TextPreview: preview(text),
		},
	})
	return updated, nil
}

func (s *TicketService) Delete(ctx context.Context, id int64) error {
	return s.tickets.Delete(ctx, id)
}

func (s *TicketService) entry(actor *auth.Principal, text string, at time.Time) domain.TicketUpdate {
	return domain.TicketUpdate{Text: text, Author: actor.Name, AuthorID: &actor.ID, Timestamp: at}
}

func terminalError(t *domain.Ticket) error {
	return apperrors.NewInvalidTransition(
		fmt.Sprintf("ticket is %s, no further changes are allowed", t.Status),
		map[string]any{"from": t.Status})
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.clock.now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func actorOf(p *auth.Principal) events.Actor {
	return events.Actor{UserID: p.ID, Name: p.Name}
}

func preview(text string) string {
	if utf8.RuneCountInString(text) <= previewRunes {
		return text
	}
	return string([]rune(text)[:previewRunes]) + "…"
}
