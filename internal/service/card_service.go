package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/iliyamo/taskboard/internal/model"
	"github.com/iliyamo/taskboard/internal/queue"
	"github.com/iliyamo/taskboard/internal/repository"
	"github.com/iliyamo/taskboard/internal/validation"
)

// CardStore is the task store's card collection.
type CardStore interface {
	List(ctx context.Context, includeArchived bool, p model.Page) ([]model.Card, int64, error)
	Create(ctx context.Context, c *model.Card) error
	GetByID(ctx context.Context, id string) (*model.Card, error)
	Exists(ctx context.Context, id string) (bool, error)
	Update(ctx context.Context, id string, p model.CardPatch) (*model.Card, error)
	SetArchived(ctx context.Context, id string, archived bool) (*model.Card, error)
	Delete(ctx context.Context, id string) (*model.Card, error)
}

// CommentStore is the task store's comment collection.
type CommentStore interface {
	ListByCard(ctx context.Context, cardID string) ([]model.Comment, error)
	Create(ctx context.Context, c *model.Comment) error
	GetByID(ctx context.Context, id string) (*model.Comment, error)
	UpdateBody(ctx context.Context, id, body string) (*model.Comment, error)
	Delete(ctx context.Context, id string) error
	DeleteByCard(ctx context.Context, cardID string) (int64, error)
}

// AuditStore is the append-only audit log.
type AuditStore interface {
	Append(ctx context.Context, e *model.AuditLogEntry) error
	ListByEntity(ctx context.Context, entityType, entityID string, p model.Page) ([]model.AuditLogEntry, int64, error)
}

// EventPublisher receives card activity after it has been audited.
type EventPublisher interface {
	PublishCardEvent(ctx context.Context, ev queue.CardEvent) error
}

// Page bounds shared by card and audit listings. MaxPage keeps
// (page-1)*MaxLimit within int64.
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
	MaxPage      = math.MaxInt64 / MaxLimit
)

type ListCardsInput struct {
	Page     int  `query:"page" validate:"min=1,max=92233720368547758"`
	Limit    int  `query:"limit" validate:"min=1,max=100"`
	Archived bool `query:"archived"`
}

type PageInput struct {
	Page  int `query:"page" validate:"min=1,max=92233720368547758"`
	Limit int `query:"limit" validate:"min=1,max=100"`
}

type CreateCardInput struct {
	Title       string           `json:"title" validate:"required"`
	Description string           `json:"description"`
	Status      model.CardStatus `json:"status" validate:"omitempty,oneof=todo inprogress done"`
}

// UpdateCardInput is a partial update; nil fields are left unchanged.
type UpdateCardInput struct {
	Title       *string           `json:"title"`
	Description *string           `json:"description"`
	Status      *model.CardStatus `json:"status"`
}

type CommentInput struct {
	Body string `json:"body" validate:"required"`
}

// PageResult is one page of a listing plus the total number of matches.
type PageResult[T any] struct {
	Items []T   `json:"items"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

// CardService implements card, comment and audit log operations. Every
// card mutation appends exactly one audit entry before returning.
type CardService struct {
	cards    CardStore
	comments CommentStore
	audit    AuditStore
	events   EventPublisher
	log      *slog.Logger

	Now func() time.Time
}

// NewCardService wires the stores. events may be nil.
func NewCardService(cards CardStore, comments CommentStore, audit AuditStore, events EventPublisher, logger *slog.Logger) *CardService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CardService{cards: cards, comments: comments, audit: audit, events: events, log: logger, Now: time.Now}
}

// List returns a page of cards ordered by last update.
func (s *CardService) List(ctx context.Context, in ListCardsInput) (*PageResult[model.Card], error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	p := model.Page{Page: in.Page, Limit: in.Limit}
	items, total, err := s.cards.List(ctx, in.Archived, p)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	return &PageResult[model.Card]{Items: items, Page: p.Page, Limit: p.Limit, Total: total}, nil
}

// Create stores a new card owned by the actor.
func (s *CardService) Create(ctx context.Context, actor model.Actor, in CreateCardInput) (*model.Card, error) {
	if in.Status == "" {
		in.Status = model.StatusTodo
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	card := &model.Card{
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
		CreatedBy:   actor.UserID,
	}
	if err := s.cards.Create(ctx, card); err != nil {
		return nil, fmt.Errorf("create card: %w", err)
	}
	if err := s.record(ctx, actor, model.ActionCardCreate, card, nil, card.Snapshot()); err != nil {
		return nil, err
	}
	return card, nil
}

// Get returns a single card.
func (s *CardService) Get(ctx context.Context, id string) (*model.Card, error) {
	if err := checkID("id", id); err != nil {
		return nil, err
	}
	card, err := s.cards.GetByID(ctx, id)
	if err != nil {
		return nil, cardErr(err, "load card")
	}
	return card, nil
}

// Update changes only the provided fields. Any authenticated user may
// update any card.
func (s *CardService) Update(ctx context.Context, actor model.Actor, id string, in UpdateCardInput) (*model.Card, error) {
	if err := checkID("id", id); err != nil {
		return nil, err
	}
	verr := &validation.Error{}
	if in.Title != nil && *in.Title == "" {
		verr.Add("title", "must not be empty")
	}
	if in.Status != nil && !in.Status.Valid() {
		verr.Add("status", "must be one of: todo inprogress done")
	}
	if len(verr.Fields) > 0 {
		return nil, verr
	}

	before, err := s.cards.GetByID(ctx, id)
	if err != nil {
		return nil, cardErr(err, "load card")
	}
	after, err := s.cards.Update(ctx, id, model.CardPatch{Title: in.Title, Description: in.Description, Status: in.Status})
	if err != nil {
		return nil, cardErr(err, "update card")
	}
	if err := s.record(ctx, actor, model.ActionCardUpdate, after, before.Snapshot(), after.Snapshot()); err != nil {
		return nil, err
	}
	return after, nil
}

// Archive hides a card from the default listing.
func (s *CardService) Archive(ctx context.Context, actor model.Actor, id string) (*model.Card, error) {
	return s.setArchived(ctx, actor, id, true)
}

// Unarchive makes an archived card visible again.
func (s *CardService) Unarchive(ctx context.Context, actor model.Actor, id string) (*model.Card, error) {
	return s.setArchived(ctx, actor, id, false)
}

func (s *CardService) setArchived(ctx context.Context, actor model.Actor, id string, archived bool) (*model.Card, error) {
	if err := checkID("id", id); err != nil {
		return nil, err
	}
	card, err := s.cards.SetArchived(ctx, id, archived)
	if err != nil {
		return nil, cardErr(err, "archive card")
	}
	action := model.ActionCardArchive
	if !archived {
		action = model.ActionCardUnarchive
	}
	// Archive state is not part of the snapshot contract.
	if err := s.record(ctx, actor, action, card, nil, nil); err != nil {
		return nil, err
	}
	return card, nil
}

// Delete removes a card, audits its prior state and then removes its
// comments. The steps are sequential; a failure after the card is gone
// can leave orphaned comments behind.
func (s *CardService) Delete(ctx context.Context, actor model.Actor, id string) error {
	if err := checkID("id", id); err != nil {
		return err
	}
	found, err := s.cards.Delete(ctx, id)
	if err != nil {
		return cardErr(err, "delete card")
	}
	if err := s.record(ctx, actor, model.ActionCardDelete, found, found.Snapshot(), nil); err != nil {
		return err
	}
	n, err := s.comments.DeleteByCard(ctx, found.ID)
	if err != nil {
		return fmt.Errorf("delete comments of card %s: %w", found.ID, err)
	}
	s.log.Debug("card deleted", "card_id", found.ID, "comments_removed", n)
	return nil
}

// ListComments returns the comments of a card, newest first. The card's
// existence is not checked.
func (s *CardService) ListComments(ctx context.Context, cardID string) ([]model.Comment, error) {
	if err := checkID("id", cardID); err != nil {
		return nil, err
	}
	items, err := s.comments.ListByCard(ctx, cardID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return items, nil
}

// AddComment attaches a comment authored by the actor to an existing card.
func (s *CardService) AddComment(ctx context.Context, actor model.Actor, cardID string, in CommentInput) (*model.Comment, error) {
	if err := checkID("id", cardID); err != nil {
		return nil, err
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	ok, err := s.cards.Exists(ctx, cardID)
	if err != nil {
		return nil, fmt.Errorf("check card: %w", err)
	}
	if !ok {
		return nil, ErrNotFound
	}
	c := &model.Comment{CardID: cardID, Body: in.Body, AuthorID: actor.UserID}
	if err := s.comments.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	return c, nil
}

// UpdateComment replaces the body of a comment. Only its author may do so.
func (s *CardService) UpdateComment(ctx context.Context, actor model.Actor, cardID, commentID string, in CommentInput) (*model.Comment, error) {
	if err := checkCommentPath(cardID, commentID); err != nil {
		return nil, err
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if _, err := s.ownedComment(ctx, actor, cardID, commentID); err != nil {
		return nil, err
	}
	c, err := s.comments.UpdateBody(ctx, commentID, in.Body)
	if err != nil {
		return nil, commentErr(err, "update comment")
	}
	return c, nil
}

// DeleteComment removes a comment. Only its author may do so.
func (s *CardService) DeleteComment(ctx context.Context, actor model.Actor, cardID, commentID string) error {
	if err := checkCommentPath(cardID, commentID); err != nil {
		return err
	}
	if _, err := s.ownedComment(ctx, actor, cardID, commentID); err != nil {
		return err
	}
	if err := s.comments.Delete(ctx, commentID); err != nil {
		return commentErr(err, "delete comment")
	}
	return nil
}

// ownedComment loads a comment addressed through its card and checks that
// the actor wrote it.
func (s *CardService) ownedComment(ctx context.Context, actor model.Actor, cardID, commentID string) (*model.Comment, error) {
	c, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return nil, commentErr(err, "load comment")
	}
	if c.CardID != cardID {
		return nil, ErrNotFound
	}
	if c.AuthorID != actor.UserID {
		return nil, ErrForbidden
	}
	return c, nil
}

// ListAuditLog returns a page of the card's audit entries, newest first.
func (s *CardService) ListAuditLog(ctx context.Context, cardID string, in PageInput) (*PageResult[model.AuditLogEntry], error) {
	if err := checkID("id", cardID); err != nil {
		return nil, err
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	p := model.Page{Page: in.Page, Limit: in.Limit}
	items, total, err := s.audit.ListByEntity(ctx, model.EntityCard, cardID, p)
	if err != nil {
		return nil, fmt.Errorf("list audit log: %w", err)
	}
	return &PageResult[model.AuditLogEntry]{Items: items, Page: p.Page, Limit: p.Limit, Total: total}, nil
}

// record appends the audit entry for a card mutation and then publishes
// the matching activity event. Only the audit append can fail the call.
func (s *CardService) record(ctx context.Context, actor model.Actor, action model.AuditAction, card *model.Card, before, after *model.Snapshot) error {
	now := s.Now().UTC()
	entry := &model.AuditLogEntry{
		ActorID:    actor.UserID,
		Action:     action,
		EntityType: model.EntityCard,
		EntityID:   card.ID,
		Before:     before,
		After:      after,
		IP:         actor.IP,
		CreatedAt:  now,
	}
	if err := s.audit.Append(ctx, entry); err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	if s.events == nil {
		return nil
	}
	ev := queue.CardEvent{
		Action:     string(action),
		CardID:     card.ID,
		ActorID:    actor.UserID,
		Title:      card.Title,
		OccurredAt: now,
	}
	if err := s.events.PublishCardEvent(ctx, ev); err != nil {
		s.log.Warn("card event not published", "action", action, "card_id", card.ID, "err", err)
	}
	return nil
}

func checkID(field, id string) error {
	if !repository.ValidID(id) {
		return validation.Field(field, "must be a valid id")
	}
	return nil
}

func checkCommentPath(cardID, commentID string) error {
	verr := &validation.Error{}
	if !repository.ValidID(cardID) {
		verr.Add("id", "must be a valid id")
	}
	if !repository.ValidID(commentID) {
		verr.Add("commentId", "must be a valid id")
	}
	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}

func cardErr(err error, op string) error {
	if errors.Is(err, repository.ErrCardNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

func commentErr(err error, op string) error {
	if errors.Is(err, repository.ErrCommentNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
