package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/solve-chamados/internal/domain"
)

// ErrStatusGuard is returned when a guarded write found the ticket in a status
// the change does not start from.
var ErrStatusGuard = errors.New("ticket status changed concurrently")

// TicketFilter captures list parameters.
type TicketFilter struct {
	Status     *domain.TicketStatus
	Priority   *domain.TicketPriority
	AssigneeID *int64
	Search     *string
	Limit      int
	Offset     int
}

// TicketTransition is one guarded status change.
type TicketTransition struct {
	ID   int64
	From []domain.TicketStatus
	To   domain.TicketStatus
	// SetAssignee replaces the assignee with AssigneeID/AssigneeName (both nil clears it).
	SetAssignee  bool
	AssigneeID   *int64
	AssigneeName *string
	Updates      []domain.TicketUpdate
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket, attachment *domain.Attachment) error
	GetByID(ctx context.Context, id int64) (*domain.Ticket, error)
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	Attachment(ctx context.Context, id int64) (*domain.Attachment, error)
	Transition(ctx context.Context, tr TicketTransition) (*domain.Ticket, error)
	// AppendUpdate adds one entry while the ticket status is one of allowed.
	AppendUpdate(ctx context.Context, id int64, update domain.TicketUpdate, allowed []domain.TicketStatus) (*domain.Ticket, error)
	Delete(ctx context.Context, id int64) error
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, title, description, priority, status, requester_id, requester_name,
        assignee_id, assignee_name, location, asset_id, attachment_name, attachment_mime,
        attachment IS NOT NULL, sla_deadline, updates, created_at, updated_at`

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var t domain.Ticket
	if err := row.Scan(
		&t.ID,
		&t.Title,
		&t.Description,
		&t.Priority,
		&t.Status,
		&t.RequesterID,
		&t.RequesterName,
		&t.AssigneeID,
		&t.AssigneeName,
		&t.Location,
		&t.AssetID,
		&t.AttachmentName,
		&t.AttachmentMime,
		&t.HasAttachment,
		&t.SLADeadline,
		&t.Updates,
		&t.CreatedAt,
		&t.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if t.Updates == nil {
		t.Updates = []domain.TicketUpdate{}
	}
	return &t, nil
}

func statusStrings(statuses []domain.TicketStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket, attachment *domain.Attachment) error {
	var (
		data       []byte
		name, mime *string
	)
	if attachment != nil {
		data = attachment.Data
		name = &attachment.FileName
		mime = &attachment.MimeType
	}
	if ticket.Updates == nil {
		ticket.Updates = []domain.TicketUpdate{}
	}

	const query = `
        INSERT INTO tickets (title, description, priority, status, requester_id, requester_name,
            location, asset_id, attachment, attachment_name, attachment_mime, sla_deadline, updates, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13::jsonb,$14,$14)
        RETURNING id, updated_at`
	if err := r.pool.QueryRow(ctx, query,
		ticket.Title,
		ticket.Description,
		string(ticket.Priority),
		string(ticket.Status),
		ticket.RequesterID,
		ticket.RequesterName,
		ticket.Location,
		ticket.AssetID,
		data,
		name,
		mime,
		ticket.SLADeadline,
		ticket.Updates,
		ticket.CreatedAt,
	).Scan(&ticket.ID, &ticket.UpdatedAt); err != nil {
		return err
	}
	ticket.AttachmentName = name
	ticket.AttachmentMime = mime
	ticket.HasAttachment = data != nil
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	return scanTicket(r.pool.QueryRow(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id=$1`, id))
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.Priority != nil {
		args = append(args, string(*filter.Priority))
		clauses = append(clauses, fmt.Sprintf("priority=$%d", len(args)))
	}
	if filter.AssigneeID != nil {
		args = append(args, *filter.AssigneeID)
		clauses = append(clauses, fmt.Sprintf("assignee_id=$%d", len(args)))
	}
	if filter.Search != nil && strings.TrimSpace(*filter.Search) != "" {
		args = append(args, "%"+strings.TrimSpace(*filter.Search)+"%")
		clauses = append(clauses, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", len(args), len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	args = append(args, limit, filter.Offset)
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		ticketColumns, strings.Join(clauses, " AND "), len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tickets := make([]domain.Ticket, 0)
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, *t)
	}
	return tickets, rows.Err()
}

func (r *ticketRepository) Attachment(ctx context.Context, id int64) (*domain.Attachment, error) {
	const query = `
        SELECT attachment, COALESCE(attachment_name, ''), COALESCE(attachment_mime, '')
        FROM tickets WHERE id=$1 AND attachment IS NOT NULL`
	var a domain.Attachment
	if err := r.pool.QueryRow(ctx, query, id).Scan(&a.Data, &a.FileName, &a.MimeType); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *ticketRepository) Transition(ctx context.Context, tr TicketTransition) (*domain.Ticket, error) {
	args := []any{tr.ID, statusStrings(tr.From), string(tr.To), tr.Updates}
	set := "status=$3, updates = updates || $4::jsonb, updated_at=NOW()"
	if tr.SetAssignee {
		args = append(args, tr.AssigneeID, tr.AssigneeName)
		set += ", assignee_id=$5, assignee_name=$6"
	}
	query := `UPDATE tickets SET ` + set + `
        WHERE id=$1 AND status = ANY($2)
        RETURNING ` + ticketColumns

	t, err := scanTicket(r.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, r.guardMiss(ctx, tr.ID)
	}
	return t, err
}

func (r *ticketRepository) AppendUpdate(ctx context.Context, id int64, update domain.TicketUpdate, allowed []domain.TicketStatus) (*domain.Ticket, error) {
	query := `UPDATE tickets SET updates = updates || $3::jsonb, updated_at=NOW()
        WHERE id=$1 AND status = ANY($2)
        RETURNING ` + ticketColumns

	t, err := scanTicket(r.pool.QueryRow(ctx, query, id, statusStrings(allowed), []domain.TicketUpdate{update}))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, r.guardMiss(ctx, id)
	}
	return t, err
}

// guardMiss tells a missing ticket apart from one whose status blocked the write.
func (r *ticketRepository) guardMiss(ctx context.Context, id int64) error {
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM tickets WHERE id=$1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return pgx.ErrNoRows
	}
	return ErrStatusGuard
}

func (r *ticketRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM tickets WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
