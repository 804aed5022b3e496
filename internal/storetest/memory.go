// Package storetest provides in-memory implementations of the credential,
// task and audit stores. They follow the repository contracts (sentinel
// errors, ordering, id validation) and are meant for tests only.
package storetest

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/iliyamo/taskboard/internal/model"
	"github.com/iliyamo/taskboard/internal/repository"
)

// Clock hands out strictly increasing timestamps so that ordering by
// time is deterministic even when calls land within the same instant.
type Clock struct {
	mu   sync.Mutex
	last time.Time
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now().UTC().Truncate(time.Millisecond)
	if !now.After(c.last) {
		now = c.last.Add(time.Millisecond)
	}
	c.last = now
	return now
}

// Users implements the user table.
type Users struct {
	mu     sync.Mutex
	nextID uint64
	byID   map[uint64]model.User
	Err    error
}

func NewUsers() *Users { return &Users{byID: map[uint64]model.User{}} }

func (s *Users) Create(_ context.Context, email, hash string, role model.Role) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	email = repository.NormalizeEmail(email)
	for _, u := range s.byID {
		if u.Email == email {
			return 0, repository.ErrEmailExists
		}
	}
	s.nextID++
	now := time.Now().UTC()
	s.byID[s.nextID] = model.User{ID: s.nextID, Email: email, PasswordHash: hash, Role: role, CreatedAt: now, UpdatedAt: now}
	return s.nextID, nil
}

func (s *Users) GetByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	email = repository.NormalizeEmail(email)
	for _, u := range s.byID {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (s *Users) GetByID(_ context.Context, id uint64) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	u, ok := s.byID[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return &u, nil
}

// SetRole changes a stored user's role.
func (s *Users) SetRole(id uint64, role model.Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.byID[id]
	u.Role = role
	s.byID[id] = u
}

// Remove drops a user, leaving any refresh tokens dangling.
func (s *Users) Remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byID, id)
}

// Tokens implements the refresh token table.
type Tokens struct {
	mu     sync.Mutex
	nextID uint64
	byHash map[string]model.RefreshToken
	Err    error
}

func NewTokens() *Tokens { return &Tokens{byHash: map[string]model.RefreshToken{}} }

func (s *Tokens) StoreRefresh(_ context.Context, userID uint64, hash string, exp time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.nextID++
	s.byHash[hash] = model.RefreshToken{ID: s.nextID, UserID: userID, TokenHash: hash, ExpiresAt: exp, CreatedAt: time.Now().UTC()}
	return nil
}

func (s *Tokens) FindByHash(_ context.Context, hash string) (*model.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	t, ok := s.byHash[hash]
	if !ok {
		return nil, repository.ErrTokenNotFound
	}
	return &t, nil
}

func (s *Tokens) RevokeByHash(_ context.Context, hash string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	t, ok := s.byHash[hash]
	if ok && t.RevokedAt == nil {
		at := at
		t.RevokedAt = &at
		s.byHash[hash] = t
	}
	return nil
}

// All returns a copy of every stored token.
func (s *Tokens) All() []model.RefreshToken {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.RefreshToken, 0, len(s.byHash))
	for _, t := range s.byHash {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// SetExpiry overwrites the expiry of every token of a user.
func (s *Tokens) SetExpiry(userID uint64, exp time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for h, t := range s.byHash {
		if t.UserID == userID {
			t.ExpiresAt = exp
			s.byHash[h] = t
		}
	}
}

// Cards implements the card collection.
type Cards struct {
	mu    sync.Mutex
	byID  map[string]model.Card
	clock *Clock
	Err   error
}

func NewCards(clock *Clock) *Cards {
	if clock == nil {
		clock = &Clock{}
	}
	return &Cards{byID: map[string]model.Card{}, clock: clock}
}

func (s *Cards) List(_ context.Context, includeArchived bool, p model.Page) ([]model.Card, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, 0, s.Err
	}
	var all []model.Card
	for _, c := range s.byID {
		if includeArchived || !c.Archived {
			all = append(all, c)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].UpdatedAt.After(all[j].UpdatedAt) })
	total := int64(len(all))
	return window(all, p), total, nil
}

func (s *Cards) Create(_ context.Context, c *model.Card) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	now := s.clock.Now()
	c.ID = bson.NewObjectID().Hex()
	c.CreatedAt, c.UpdatedAt = now, now
	s.byID[c.ID] = *c
	return nil
}

func (s *Cards) GetByID(_ context.Context, id string) (*model.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Cards) Exists(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.lookup(id)
	if err == repository.ErrCardNotFound {
		return false, nil
	}
	return err == nil, err
}

func (s *Cards) Update(_ context.Context, id string, p model.CardPatch) (*model.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	c = p.Apply(c)
	c.UpdatedAt = s.clock.Now()
	s.byID[id] = c
	return &c, nil
}

func (s *Cards) SetArchived(_ context.Context, id string, archived bool) (*model.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	c.Archived = archived
	c.UpdatedAt = s.clock.Now()
	s.byID[id] = c
	return &c, nil
}

func (s *Cards) Delete(_ context.Context, id string) (*model.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	delete(s.byID, id)
	return &c, nil
}

func (s *Cards) lookup(id string) (model.Card, error) {
	if s.Err != nil {
		return model.Card{}, s.Err
	}
	if !repository.ValidID(id) {
		return model.Card{}, repository.ErrInvalidID
	}
	c, ok := s.byID[id]
	if !ok {
		return model.Card{}, repository.ErrCardNotFound
	}
	return c, nil
}

// Comments implements the comment collection.
type Comments struct {
	mu    sync.Mutex
	byID  map[string]model.Comment
	clock *Clock
	Err   error
}

func NewComments(clock *Clock) *Comments {
	if clock == nil {
		clock = &Clock{}
	}
	return &Comments{byID: map[string]model.Comment{}, clock: clock}
}

func (s *Comments) ListByCard(_ context.Context, cardID string) ([]model.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	out := []model.Comment{}
	for _, c := range s.byID {
		if c.CardID == cardID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Comments) Create(_ context.Context, c *model.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if !repository.ValidID(c.CardID) {
		return repository.ErrInvalidID
	}
	now := s.clock.Now()
	c.ID = bson.NewObjectID().Hex()
	c.CreatedAt, c.UpdatedAt = now, now
	s.byID[c.ID] = *c
	return nil
}

func (s *Comments) GetByID(_ context.Context, id string) (*model.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Comments) UpdateBody(_ context.Context, id, body string) (*model.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	c.Body = body
	c.UpdatedAt = s.clock.Now()
	s.byID[id] = c
	return &c, nil
}

func (s *Comments) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.lookup(id); err != nil {
		return err
	}
	delete(s.byID, id)
	return nil
}

func (s *Comments) DeleteByCard(_ context.Context, cardID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	var n int64
	for id, c := range s.byID {
		if c.CardID == cardID {
			delete(s.byID, id)
			n++
		}
	}
	return n, nil
}

// Count returns the number of stored comments.
func (s *Comments) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

func (s *Comments) lookup(id string) (model.Comment, error) {
	if s.Err != nil {
		return model.Comment{}, s.Err
	}
	if !repository.ValidID(id) {
		return model.Comment{}, repository.ErrInvalidID
	}
	c, ok := s.byID[id]
	if !ok {
		return model.Comment{}, repository.ErrCommentNotFound
	}
	return c, nil
}

// AuditLog implements the append-only audit table.
type AuditLog struct {
	mu      sync.Mutex
	entries []model.AuditLogEntry
	Err     error
}

func NewAuditLog() *AuditLog { return &AuditLog{} }

func (s *AuditLog) Append(_ context.Context, e *model.AuditLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	e.ID = uint64(len(s.entries) + 1)
	s.entries = append(s.entries, *e)
	return nil
}

func (s *AuditLog) ListByEntity(_ context.Context, entityType, entityID string, p model.Page) ([]model.AuditLogEntry, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, 0, s.Err
	}
	var match []model.AuditLogEntry
	for i := len(s.entries) - 1; i >= 0; i-- {
		e := s.entries[i]
		if e.EntityType == entityType && e.EntityID == entityID {
			match = append(match, e)
		}
	}
	return window(match, p), int64(len(match)), nil
}

// Entries returns a copy of every entry in append order.
func (s *AuditLog) Entries() []model.AuditLogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.AuditLogEntry(nil), s.entries...)
}

func window[T any](items []T, p model.Page) []T {
	start := p.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := start + p.Limit
	if end > len(items) {
		end = len(items)
	}
	return append([]T{}, items[start:end]...)
}
