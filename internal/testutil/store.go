// Package testutil provides in-memory repository fakes that mimic the
// Postgres constraints the services rely on.
package testutil

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/solve-chamados/internal/domain"
	"github.com/spec-kit/solve-chamados/internal/repository"
)

// Store is a shared in-memory database backing every fake repository.
type Store struct {
	mu sync.Mutex

	nextID   int64
	users    map[int64]*domain.User
	roles    map[int64]*domain.Role
	groups   map[int64]*domain.Group
	sessions map[string]*domain.Session
	assets   map[int64]*domain.Asset
	history  []domain.AssetHistory
	tickets  map[int64]*ticketRow

	// FailHistoryAppend makes the next AppendHistory call fail.
	FailHistoryAppend error
	// BeforeTicketWrite runs ahead of the status guard of every guarded
	// ticket write, simulating a concurrent change.
	BeforeTicketWrite func(t *domain.Ticket)
}

type ticketRow struct {
	ticket     domain.Ticket
	attachment *domain.Attachment
}

// NewStore returns a store seeded with the built-in roles.
func NewStore() *Store {
	s := &Store{
		users:    map[int64]*domain.User{},
		roles:    map[int64]*domain.Role{},
		groups:   map[int64]*domain.Group{},
		sessions: map[string]*domain.Session{},
		assets:   map[int64]*domain.Asset{},
		tickets:  map[int64]*ticketRow{},
	}
	seed := []domain.Role{
		{Name: domain.RoleAdmin, Label: "Administrator", Permissions: append([]domain.Permission(nil), domain.AllPermissions...)},
		{Name: domain.RoleTechnician, Label: "Technician", Permissions: []domain.Permission{
			domain.PermViewDashboard, domain.PermManageTickets, domain.PermCreateTicket,
			domain.PermAssignTickets, domain.PermManageAssets,
		}},
		{Name: domain.RoleUser, Label: "User", Permissions: []domain.Permission{domain.PermViewDashboard, domain.PermCreateTicket}},
	}
	for i := range seed {
		r := seed[i]
		r.ID = s.id()
		r.CreatedAt = time.Now()
		s.roles[r.ID] = &r
	}
	return s
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// UniqueViolation builds the error Postgres returns for a duplicate key.
func UniqueViolation(constraint string) error {
	return &pgconn.PgError{Code: "23505", ConstraintName: constraint}
}

// ForeignKeyViolation builds the error Postgres returns for a broken reference.
func ForeignKeyViolation(constraint string) error {
	return &pgconn.PgError{Code: "23503", ConstraintName: constraint}
}

// Users returns the user repository view.
func (s *Store) Users() repository.UserRepository { return &userRepo{s} }

// Roles returns the role repository view.
func (s *Store) Roles() repository.RoleRepository { return &roleRepo{s} }

// Groups returns the group repository view.
func (s *Store) Groups() repository.GroupRepository { return &groupRepo{s} }

// Sessions returns the session repository view.
func (s *Store) Sessions() repository.SessionRepository { return &sessionRepo{s} }

// Assets returns the asset repository view.
func (s *Store) Assets() repository.AssetRepository { return &assetRepo{s} }

// Tickets returns the ticket repository view.
func (s *Store) Tickets() repository.TicketRepository { return &ticketRepo{s} }

// SessionCount reports how many sessions exist for userID.
func (s *Store) SessionCount(userID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, sess := range s.sessions {
		if sess.UserID == userID {
			n++
		}
	}
	return n
}

// AssetHistory returns a copy of every stored history entry.
func (s *Store) AssetHistory() []domain.AssetHistory {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.AssetHistory(nil), s.history...)
}

// AssetCount reports the number of stored assets.
func (s *Store) AssetCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.assets)
}

func (s *Store) roleByName(name domain.RoleName) *domain.Role {
	for _, r := range s.roles {
		if r.Name == name {
			return r
		}
	}
	return nil
}

func (s *Store) userWithGroup(u domain.User) domain.User {
	u.GroupName = nil
	if u.GroupID != nil {
		if g, ok := s.groups[*u.GroupID]; ok {
			name := g.Name
			u.GroupName = &name
		}
	}
	return u
}

// --- users ---

type userRepo struct{ s *Store }

func (r *userRepo) checkRefs(u *domain.User) error {
	if r.s.roleByName(u.Role) == nil {
		return ForeignKeyViolation("users_role_fkey")
	}
	if u.GroupID != nil {
		if _, ok := r.s.groups[*u.GroupID]; !ok {
			return ForeignKeyViolation("users_group_id_fkey")
		}
	}
	for _, other := range r.s.users {
		if other.ID != u.ID && strings.EqualFold(other.Email, u.Email) {
			return UniqueViolation("users_email_key")
		}
	}
	return nil
}

func (r *userRepo) Create(_ context.Context, u *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.checkRefs(u); err != nil {
		return err
	}
	u.ID = r.s.id()
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	r.s.users[u.ID] = &cp
	return nil
}

func (r *userRepo) Update(_ context.Context, u *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.users[u.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	if err := r.checkRefs(u); err != nil {
		return err
	}
	existing.Name = u.Name
	existing.Email = u.Email
	existing.Role = u.Role
	existing.GroupID = u.GroupID
	existing.IsActive = u.IsActive
	existing.UpdatedAt = time.Now()
	u.UpdatedAt = existing.UpdatedAt
	return nil
}

func (r *userRepo) UpdatePassword(_ context.Context, id int64, hash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	u.PasswordHash = hash
	u.FailedLoginAttempts = 0
	u.LockoutUntil = nil
	return nil
}

func (r *userRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := r.s.userWithGroup(*u)
	return &cp, nil
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			cp := r.s.userWithGroup(*u)
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *userRepo) List(_ context.Context) ([]domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]domain.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		out = append(out, r.s.userWithGroup(*u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *userRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.s.users, id)
	for hash, sess := range r.s.sessions {
		if sess.UserID == id {
			delete(r.s.sessions, hash)
		}
	}
	return nil
}

func (r *userRepo) RecordLoginFailure(_ context.Context, id int64, now time.Time, policy domain.LockoutPolicy) (int, *time.Time, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok || u.IsLocked(now) {
		return 0, nil, pgx.ErrNoRows
	}
	u.FailedLoginAttempts, u.LockoutUntil = u.FailedLogin(now, policy)
	return u.FailedLoginAttempts, u.LockoutUntil, nil
}

func (r *userRepo) RecordLoginSuccess(_ context.Context, id int64, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	u.FailedLoginAttempts = 0
	u.LockoutUntil = nil
	u.LastLogin = &at
	return nil
}

func (r *userRepo) Stats(_ context.Context) (*domain.UserStats, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stats := &domain.UserStats{ByRole: []domain.RoleCount{}}
	counts := map[domain.RoleName]int{}
	for _, u := range r.s.users {
		stats.Total++
		if u.IsActive {
			stats.Active++
		}
		counts[u.Role]++
	}
	for role, n := range counts {
		stats.ByRole = append(stats.ByRole, domain.RoleCount{Role: role, Count: n})
	}
	sort.Slice(stats.ByRole, func(i, j int) bool { return stats.ByRole[i].Role < stats.ByRole[j].Role })
	return stats, nil
}

// --- roles ---

type roleRepo struct{ s *Store }

func (r *roleRepo) List(_ context.Context) ([]domain.Role, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]domain.Role, 0, len(r.s.roles))
	for _, role := range r.s.roles {
		out = append(out, *role)
	}
	sort.Slice(out, func(i, j int) bool {
		ai, aj := out[i].Name == domain.RoleAdmin, out[j].Name == domain.RoleAdmin
		if ai != aj {
			return ai
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *roleRepo) GetByID(_ context.Context, id int64) (*domain.Role, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	role, ok := r.s.roles[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *role
	return &cp, nil
}

func (r *roleRepo) GetByName(_ context.Context, name domain.RoleName) (*domain.Role, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	role := r.s.roleByName(name)
	if role == nil {
		return nil, pgx.ErrNoRows
	}
	cp := *role
	return &cp, nil
}

func (r *roleRepo) Create(_ context.Context, role *domain.Role) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.roleByName(role.Name) != nil {
		return UniqueViolation("roles_name_key")
	}
	role.ID = r.s.id()
	role.CreatedAt = time.Now()
	cp := *role
	r.s.roles[role.ID] = &cp
	return nil
}

func (r *roleRepo) Update(_ context.Context, role *domain.Role) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.roles[role.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	if other := r.s.roleByName(role.Name); other != nil && other.ID != role.ID {
		return UniqueViolation("roles_name_key")
	}
	if existing.Name != role.Name {
		for _, u := range r.s.users {
			if u.Role == existing.Name {
				u.Role = role.Name
			}
		}
	}
	cp := *role
	r.s.roles[role.ID] = &cp
	return nil
}

func (r *roleRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	role, ok := r.s.roles[id]
	if !ok {
		return pgx.ErrNoRows
	}
	for _, u := range r.s.users {
		if u.Role == role.Name {
			return ForeignKeyViolation("users_role_fkey")
		}
	}
	delete(r.s.roles, id)
	return nil
}

// --- groups ---

type groupRepo struct{ s *Store }

func (r *groupRepo) List(_ context.Context) ([]domain.Group, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]domain.Group, 0, len(r.s.groups))
	for _, g := range r.s.groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *groupRepo) Create(_ context.Context, g *domain.Group) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, other := range r.s.groups {
		if other.Name == g.Name {
			return UniqueViolation("groups_name_key")
		}
	}
	g.ID = r.s.id()
	g.CreatedAt = time.Now()
	cp := *g
	r.s.groups[g.ID] = &cp
	return nil
}

func (r *groupRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.groups[id]; !ok {
		return pgx.ErrNoRows
	}
	for _, u := range r.s.users {
		if u.GroupID != nil && *u.GroupID == id {
			return ForeignKeyViolation("users_group_id_fkey")
		}
	}
	delete(r.s.groups, id)
	return nil
}

// --- sessions ---

type sessionRepo struct{ s *Store }

func (r *sessionRepo) Create(_ context.Context, sess *domain.Session) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, exists := r.s.sessions[sess.TokenHash]; exists {
		return UniqueViolation("sessions_token_hash_key")
	}
	sess.ID = r.s.id()
	sess.CreatedAt = time.Now()
	cp := *sess
	r.s.sessions[sess.TokenHash] = &cp
	return nil
}

func (r *sessionRepo) FindIdentity(_ context.Context, hash string, now time.Time) (*domain.SessionIdentity, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sess, ok := r.s.sessions[hash]
	if !ok || sess.Expired(now) {
		return nil, pgx.ErrNoRows
	}
	u, ok := r.s.users[sess.UserID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	identity := &domain.SessionIdentity{
		SessionID:   sess.ID,
		ExpiresAt:   sess.ExpiresAt,
		User:        r.s.userWithGroup(*u),
		Permissions: []domain.Permission{},
	}
	identity.User.PasswordHash = ""
	if role := r.s.roleByName(u.Role); role != nil {
		identity.Permissions = append(identity.Permissions, role.Permissions...)
	}
	return identity, nil
}

func (r *sessionRepo) DeleteByTokenHash(_ context.Context, hash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.sessions, hash)
	return nil
}

func (r *sessionRepo) DeleteByUser(_ context.Context, userID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for hash, sess := range r.s.sessions {
		if sess.UserID == userID {
			delete(r.s.sessions, hash)
		}
	}
	return nil
}

func (r *sessionRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for hash, sess := range r.s.sessions {
		if sess.Expired(now) {
			delete(r.s.sessions, hash)
			n++
		}
	}
	return n, nil
}

// --- assets ---

type assetRepo struct{ s *Store }

func (r *assetRepo) List(_ context.Context) ([]domain.Asset, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]domain.Asset, 0, len(r.s.assets))
	for _, a := range r.s.assets {
		cp := *a
		for i := len(r.s.history) - 1; i >= 0; i-- {
			if r.s.history[i].AssetID == a.ID {
				st := r.s.history[i].NewStatus
				cp.LastLogStatus = &st
				break
			}
		}
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *assetRepo) GetByID(_ context.Context, id int64) (*domain.Asset, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.assets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *a
	return &cp, nil
}

func (r *assetRepo) History(_ context.Context, assetID int64) ([]domain.AssetHistory, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]domain.AssetHistory, 0)
	for i := len(r.s.history) - 1; i >= 0; i-- {
		h := r.s.history[i]
		if h.AssetID != assetID {
			continue
		}
		if h.UserID != nil {
			if u, ok := r.s.users[*h.UserID]; ok {
				name := u.Name
				h.UserName = &name
			}
		}
		out = append(out, h)
	}
	return out, nil
}

func (r *assetRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.assets[id]; !ok {
		return pgx.ErrNoRows
	}
	for _, row := range r.s.tickets {
		if row.ticket.AssetID != nil && *row.ticket.AssetID == id {
			return ForeignKeyViolation("tickets_asset_id_fkey")
		}
	}
	delete(r.s.assets, id)
	kept := r.s.history[:0]
	for _, h := range r.s.history {
		if h.AssetID != id {
			kept = append(kept, h)
		}
	}
	r.s.history = kept
	return nil
}

// InTx snapshots the asset tables and restores them if fn fails.
func (r *assetRepo) InTx(_ context.Context, fn func(tx repository.AssetTx) error) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	assets := make(map[int64]domain.Asset, len(r.s.assets))
	for id, a := range r.s.assets {
		assets[id] = *a
	}
	history := append([]domain.AssetHistory(nil), r.s.history...)
	nextID := r.s.nextID

	if err := fn(&assetTx{s: r.s}); err != nil {
		r.s.assets = make(map[int64]*domain.Asset, len(assets))
		for id, a := range assets {
			cp := a
			r.s.assets[id] = &cp
		}
		r.s.history = history
		r.s.nextID = nextID
		return err
	}
	return nil
}

// assetTx runs with the store lock already held by InTx.
type assetTx struct{ s *Store }

func (t *assetTx) checkCode(a *domain.Asset) error {
	if a.Code == nil {
		return nil
	}
	for _, other := range t.s.assets {
		if other.ID != a.ID && other.Code != nil && *other.Code == *a.Code {
			return UniqueViolation("assets_code_key")
		}
	}
	return nil
}

func (t *assetTx) Insert(_ context.Context, a *domain.Asset) error {
	if err := t.checkCode(a); err != nil {
		return err
	}
	a.ID = t.s.id()
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	cp := *a
	t.s.assets[a.ID] = &cp
	return nil
}

func (t *assetTx) LockByID(_ context.Context, id int64) (*domain.Asset, error) {
	a, ok := t.s.assets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *a
	return &cp, nil
}

func (t *assetTx) Update(_ context.Context, a *domain.Asset) error {
	if _, ok := t.s.assets[a.ID]; !ok {
		return pgx.ErrNoRows
	}
	if err := t.checkCode(a); err != nil {
		return err
	}
	a.UpdatedAt = time.Now()
	cp := *a
	t.s.assets[a.ID] = &cp
	return nil
}

func (t *assetTx) AppendHistory(_ context.Context, h *domain.AssetHistory) error {
	if err := t.s.FailHistoryAppend; err != nil {
		t.s.FailHistoryAppend = nil
		return err
	}
	if h.UserID != nil {
		if _, ok := t.s.users[*h.UserID]; !ok {
			return ForeignKeyViolation("asset_history_user_id_fkey")
		}
	}
	h.ID = t.s.id()
	h.CreatedAt = time.Now()
	t.s.history = append(t.s.history, *h)
	return nil
}

// --- tickets ---

type ticketRepo struct{ s *Store }

func cloneTicket(t domain.Ticket) *domain.Ticket {
	t.Updates = append([]domain.TicketUpdate{}, t.Updates...)
	return &t
}

func (r *ticketRepo) Create(_ context.Context, t *domain.Ticket, att *domain.Attachment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if t.AssetID != nil {
		if _, ok := r.s.assets[*t.AssetID]; !ok {
			return ForeignKeyViolation("tickets_asset_id_fkey")
		}
	}
	t.ID = r.s.id()
	t.UpdatedAt = t.CreatedAt
	if att != nil {
		t.HasAttachment = true
		t.AttachmentName = &att.FileName
		t.AttachmentMime = &att.MimeType
	}
	r.s.tickets[t.ID] = &ticketRow{ticket: *cloneTicket(*t), attachment: att}
	return nil
}

func (r *ticketRepo) GetByID(_ context.Context, id int64) (*domain.Ticket, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	row, ok := r.s.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return cloneTicket(row.ticket), nil
}

func (r *ticketRepo) List(_ context.Context, f repository.TicketFilter) ([]domain.Ticket, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]domain.Ticket, 0)
	for _, row := range r.s.tickets {
		t := row.ticket
		if f.Status != nil && t.Status != *f.Status {
			continue
		}
		if f.Priority != nil && t.Priority != *f.Priority {
			continue
		}
		if f.AssigneeID != nil && (t.AssigneeID == nil || *t.AssigneeID != *f.AssigneeID) {
			continue
		}
		if f.Search != nil {
			q := strings.ToLower(*f.Search)
			if !strings.Contains(strings.ToLower(t.Title), q) && !strings.Contains(strings.ToLower(t.Description), q) {
				continue
			}
		}
		out = append(out, *cloneTicket(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if f.Offset >= len(out) {
		return []domain.Ticket{}, nil
	}
	out = out[f.Offset:]
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *ticketRepo) Attachment(_ context.Context, id int64) (*domain.Attachment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	row, ok := r.s.tickets[id]
	if !ok || row.attachment == nil {
		return nil, pgx.ErrNoRows
	}
	cp := *row.attachment
	return &cp, nil
}

func (s *Store) beforeWrite(t *domain.Ticket) {
	if s.BeforeTicketWrite != nil {
		s.BeforeTicketWrite(t)
	}
}

func statusIn(s domain.TicketStatus, set []domain.TicketStatus) bool {
	for _, candidate := range set {
		if s == candidate {
			return true
		}
	}
	return false
}

func (r *ticketRepo) Transition(_ context.Context, tr repository.TicketTransition) (*domain.Ticket, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	row, ok := r.s.tickets[tr.ID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	r.s.beforeWrite(&row.ticket)
	if !statusIn(row.ticket.Status, tr.From) {
		return nil, repository.ErrStatusGuard
	}
	row.ticket.Status = tr.To
	if tr.SetAssignee {
		row.ticket.AssigneeID = tr.AssigneeID
		row.ticket.AssigneeName = tr.AssigneeName
	}
	row.ticket.Updates = append(row.ticket.Updates, tr.Updates...)
	row.ticket.UpdatedAt = time.Now()
	return cloneTicket(row.ticket), nil
}

func (r *ticketRepo) AppendUpdate(_ context.Context, id int64, u domain.TicketUpdate, allowed []domain.TicketStatus) (*domain.Ticket, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	row, ok := r.s.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	r.s.beforeWrite(&row.ticket)
	if !statusIn(row.ticket.Status, allowed) {
		return nil, repository.ErrStatusGuard
	}
	row.ticket.Updates = append(row.ticket.Updates, u)
	row.ticket.UpdatedAt = time.Now()
	return cloneTicket(row.ticket), nil
}

func (r *ticketRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.tickets[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.s.tickets, id)
	return nil
}

// ErrInjected is a ready-made failure for fault injection.
var ErrInjected = errors.New("injected failure")
