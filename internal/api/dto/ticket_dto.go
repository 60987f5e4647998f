package dto

import (
	"encoding/base64"
	"time"

	"github.com/spec-kit/solve-chamados/internal/domain"
	apperrors "github.com/spec-kit/solve-chamados/pkg/util/errorutil"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title       string             `json:"title" validate:"required,max=200"`
	Description string             `json:"description" validate:"required"`
	Priority    string             `json:"priority"`
	Location    string             `json:"location" validate:"max=200"`
	AssetID     *int64             `json:"asset_id,omitempty" validate:"omitempty,gt=0"`
	Attachment  *AttachmentRequest `json:"attachment,omitempty"`
}

// AttachmentRequest carries a file inline, base64 encoded.
type AttachmentRequest struct {
	FileName string `json:"file_name" validate:"required,max=255"`
	MimeType string `json:"mime_type" validate:"required,max=127"`
	Data     string `json:"data" validate:"required,base64"`
}

// Decode returns the attachment in storage form.
func (r *AttachmentRequest) Decode() (*domain.Attachment, error) {
	if r == nil {
		return nil, nil
	}
	data, err := base64.StdEncoding.DecodeString(r.Data)
	if err != nil {
		return nil, apperrors.NewValidationError("attachment data must be base64 encoded", map[string]any{"field": "attachment.data"})
	}
	return &domain.Attachment{FileName: r.FileName, MimeType: r.MimeType, Data: data}, nil
}

// UpdateStatusRequest moves a ticket to a target status.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=in_progress pending cancelled resolved"`
	Reason string `json:"reason"`
}

// AddUpdateRequest appends a follow-up note.
type AddUpdateRequest struct {
	Text string `json:"text" validate:"required"`
}

// TicketUpdateResponse is one entry of the ticket log.
type TicketUpdateResponse struct {
	Text      string    `json:"text"`
	Author    string    `json:"author"`
	AuthorID  *int64    `json:"author_id"`
	Timestamp time.Time `json:"timestamp"`
}

// TicketResponse is the ticket view. Attachment bytes are served separately.
type TicketResponse struct {
	ID             int64                  `json:"id"`
	Title          string                 `json:"title"`
	Description    string                 `json:"description"`
	Priority       domain.TicketPriority  `json:"priority"`
	Status         domain.TicketStatus    `json:"status"`
	RequesterID    *int64                 `json:"requester_id"`
	RequesterName  string                 `json:"requester_name"`
	AssigneeID     *int64                 `json:"assignee_id"`
	AssigneeName   *string                `json:"assignee_name"`
	Location       string                 `json:"location"`
	AssetID        *int64                 `json:"asset_id"`
	HasAttachment  bool                   `json:"has_attachment"`
	AttachmentName *string                `json:"attachment_name"`
	AttachmentMime *string                `json:"attachment_mime"`
	SLADeadline    time.Time              `json:"sla_deadline"`
	Overdue        bool                   `json:"overdue"`
	Updates        []TicketUpdateResponse `json:"updates"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
}

// PageMeta accompanies paged lists.
type PageMeta struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}
