package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/solve-chamados/internal/api/dto"
	"github.com/spec-kit/solve-chamados/internal/domain"
	"github.com/spec-kit/solve-chamados/internal/service"
	apperrors "github.com/spec-kit/solve-chamados/pkg/util/errorutil"
)

// TicketsHandler manages ticket endpoints.
type TicketsHandler struct {
	service *service.TicketService
	now     func() time.Time
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService, now: time.Now}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	attachment, err := req.Attachment.Decode()
	if err != nil {
		return err
	}

	ticket, err := h.service.Create(c.UserContext(), principal, service.TicketCreateInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Location:    req.Location,
		AssetID:     req.AssetID,
		Attachment:  attachment,
	})
	if err != nil {
		return apperrors.MapError(err)
	}
	return created(c, h.ticketResponse(ticket))
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	filter, err := parseTicketQuery(c)
	if err != nil {
		return err
	}
	tickets, err := h.service.List(c.UserContext(), filter)
	if err != nil {
		return apperrors.MapError(err)
	}
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, h.ticketResponse(&tickets[i]))
	}
	filter.Normalize()
	return c.JSON(fiber.Map{
		"data": items,
		"meta": dto.PageMeta{Page: filter.Page, PageSize: filter.PageSize},
	})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	ticket, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return apperrors.MapError(err)
	}
	return ok(c, h.ticketResponse(ticket))
}

// Attachment GET /tickets/:id/attachment streams the stored file.
func (h *TicketsHandler) Attachment(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	att, err := h.service.Attachment(c.UserContext(), id)
	if err != nil {
		return apperrors.MapError(err)
	}
	c.Set(fiber.HeaderContentType, att.MimeType)
	c.Set(fiber.HeaderContentDisposition, `inline; filename="`+strings.ReplaceAll(att.FileName, `"`, "")+`"`)
	return c.Send(att.Data)
}

// UpdateStatus PUT /tickets/:id/status. Claiming needs assign_tickets; every
// other move needs manage_tickets.
func (h *TicketsHandler) UpdateStatus(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req dto.UpdateStatusRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	target := domain.TicketStatus(req.Status)
	action, err := domain.ActionForTarget(target)
	if err != nil {
		return apperrors.NewValidationError("status is not a valid target", map[string]any{"field": "status"})
	}
	if perm := action.Permission(); !principal.Can(perm) {
		return apperrors.NewForbidden("permission required: " + string(perm))
	}

	ticket, err := h.service.ChangeStatus(c.UserContext(), principal, id, target, req.Reason)
	if err != nil {
		return apperrors.MapError(err)
	}
	return ok(c, h.ticketResponse(ticket))
}

// AddUpdate POST /tickets/:id/updates.
func (h *TicketsHandler) AddUpdate(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req dto.AddUpdateRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	ticket, err := h.service.AddUpdate(c.UserContext(), principal, id, req.Text)
	if err != nil {
		return apperrors.MapError(err)
	}
	return created(c, h.ticketResponse(ticket))
}

// DeleteTicket DELETE /tickets/:id.
func (h *TicketsHandler) DeleteTicket(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.UserContext(), id); err != nil {
		return apperrors.MapError(err)
	}
	return noContent(c)
}

func parseTicketQuery(c *fiber.Ctx) (service.TicketListFilter, error) {
	filter := service.TicketListFilter{
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "page_size", 20),
	}
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		status := domain.TicketStatus(raw)
		if !status.Valid() {
			return filter, apperrors.NewValidationError("unknown status filter", map[string]any{"field": "status"})
		}
		filter.Status = &status
	}
	if raw := strings.TrimSpace(c.Query("priority")); raw != "" {
		priority := domain.ParsePriority(raw)
		filter.Priority = &priority
	}
	if raw := c.Query("assignee_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return filter, apperrors.NewValidationError("assignee_id must be an integer", map[string]any{"field": "assignee_id"})
		}
		filter.AssigneeID = &id
	}
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		filter.Search = &q
	}
	return filter, nil
}

func (h *TicketsHandler) ticketResponse(t *domain.Ticket) dto.TicketResponse {
	updates := make([]dto.TicketUpdateResponse, 0, len(t.Updates))
	for _, u := range t.Updates {
		updates = append(updates, dto.TicketUpdateResponse{
			Text:      u.Text,
			Author:    u.Author,
			AuthorID:  u.AuthorID,
			Timestamp: u.Timestamp,
		})
	}
	return dto.TicketResponse{
		ID:             t.ID,
		Title:          t.Title,
		Description:    t.Description,
		Priority:       t.Priority,
		Status:         t.Status,
		RequesterID:    t.RequesterID,
		RequesterName:  t.RequesterName,
		AssigneeID:     t.AssigneeID,
		AssigneeName:   t.AssigneeName,
		Location:       t.Location,
		AssetID:        t.AssetID,
		HasAttachment:  t.HasAttachment,
		AttachmentName: t.AttachmentName,
		AttachmentMime: t.AttachmentMime,
		SLADeadline:    t.SLADeadline,
		Overdue:        t.Overdue(h.now()),
		Updates:        updates,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
}
