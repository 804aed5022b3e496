package service_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/iliyamo/taskboard/internal/mocks"
	"github.com/iliyamo/taskboard/internal/model"
	"github.com/iliyamo/taskboard/internal/queue"
	"github.com/iliyamo/taskboard/internal/repository"
	"github.com/iliyamo/taskboard/internal/service"
	"github.com/iliyamo/taskboard/internal/storetest"
	"github.com/iliyamo/taskboard/internal/validation"
)

var (
	alice = model.Actor{Identity: model.Identity{UserID: 1, Role: model.RoleUser}, IP: "10.0.0.1"}
	bob   = model.Actor{Identity: model.Identity{UserID: 2, Role: model.RoleUser}, IP: "10.0.0.2"}
)

type cardFixture struct {
	svc      *service.CardService
	cards    *storetest.Cards
	comments *storetest.Comments
	audit    *storetest.AuditLog
}

func newCardFixture(t *testing.T, events service.EventPublisher) *cardFixture {
	t.Helper()
	clock := &storetest.Clock{}
	f := &cardFixture{
		cards:    storetest.NewCards(clock),
		comments: storetest.NewComments(clock),
		audit:    storetest.NewAuditLog(),
	}
	f.svc = service.NewCardService(f.cards, f.comments, f.audit, events, nil)
	f.svc.Now = clock.Now
	return f
}

func (f *cardFixture) create(t *testing.T, title string) *model.Card {
	t.Helper()
	c, err := f.svc.Create(context.Background(), alice, service.CreateCardInput{Title: title})
	require.NoError(t, err)
	return c
}

func ptr[T any](v T) *T { return &v }

func firstPage() service.ListCardsInput {
	return service.ListCardsInput{Page: service.DefaultPage, Limit: service.DefaultLimit}
}

func TestCreate_DefaultsAndAudit(t *testing.T) {
	f := newCardFixture(t, nil)

	c, err := f.svc.Create(context.Background(), alice, service.CreateCardInput{Title: "Write docs"})
	require.NoError(t, err)
	assert.True(t, repository.ValidID(c.ID))
	assert.Equal(t, model.StatusTodo, c.Status)
	assert.Equal(t, "", c.Description)
	assert.False(t, c.Archived)
	assert.Equal(t, alice.UserID, c.CreatedBy)

	entries := f.audit.Entries()
	require.Len(t, entries, 1)
	e := entries[0]
	assert.Equal(t, model.ActionCardCreate, e.Action)
	assert.Equal(t, model.EntityCard, e.EntityType)
	assert.Equal(t, c.ID, e.EntityID)
	assert.Equal(t, alice.UserID, e.ActorID)
	assert.Equal(t, "10.0.0.1", e.IP)
	assert.Nil(t, e.Before)
	require.NotNil(t, e.After)
	assert.Equal(t, "Write docs", *e.After.Title)
	assert.Equal(t, "", *e.After.Description)
	assert.Equal(t, model.StatusTodo, *e.After.Status)
}

func TestCreate_Validation(t *testing.T) {
	f := newCardFixture(t, nil)

	_, err := f.svc.Create(context.Background(), alice, service.CreateCardInput{})
	var verr *validation.Error
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "title")

	_, err = f.svc.Create(context.Background(), alice, service.CreateCardInput{Title: "x", Status: "blocked"})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "status")
	assert.Empty(t, f.audit.Entries())
}

func TestUpdate_ChangesOnlyProvidedFields(t *testing.T) {
	f := newCardFixture(t, nil)
	c, err := f.svc.Create(context.Background(), alice, service.CreateCardInput{Title: "A", Description: "first"})
	require.NoError(t, err)

	updated, err := f.svc.Update(context.Background(), bob, c.ID, service.UpdateCardInput{Status: ptr(model.StatusInProgress)})
	require.NoError(t, err)
	assert.Equal(t, "A", updated.Title)
	assert.Equal(t, "first", updated.Description)
	assert.Equal(t, model.StatusInProgress, updated.Status)
	assert.True(t, updated.UpdatedAt.After(c.UpdatedAt))

	got, err := f.svc.Get(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, *updated, *got)

	entries := f.audit.Entries()
	require.Len(t, entries, 2)
	e := entries[1]
	assert.Equal(t, model.ActionCardUpdate, e.Action)
	assert.Equal(t, bob.UserID, e.ActorID)
	require.NotNil(t, e.Before)
	require.NotNil(t, e.After)
	assert.Equal(t, model.StatusTodo, *e.Before.Status)
	assert.Equal(t, model.StatusInProgress, *e.After.Status)
	assert.Equal(t, "A", *e.Before.Title)
	assert.Equal(t, "A", *e.After.Title)
}

func TestUpdate_Errors(t *testing.T) {
	f := newCardFixture(t, nil)
	c := f.create(t, "A")

	_, err := f.svc.Update(context.Background(), alice, c.ID, service.UpdateCardInput{Title: ptr("")})
	var verr *validation.Error
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "title")

	_, err = f.svc.Update(context.Background(), alice, c.ID, service.UpdateCardInput{Status: ptr(model.CardStatus("blocked"))})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "status")

	_, err = f.svc.Update(context.Background(), alice, "not-an-id", service.UpdateCardInput{Title: ptr("B")})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "id")

	_, err = f.svc.Update(context.Background(), alice, bson.NewObjectID().Hex(), service.UpdateCardInput{Title: ptr("B")})
	assert.ErrorIs(t, err, service.ErrNotFound)

	assert.Len(t, f.audit.Entries(), 1)
}

func TestArchive_HidesFromDefaultListing(t *testing.T) {
	f := newCardFixture(t, nil)
	a := f.create(t, "A")
	b := f.create(t, "B")

	archived, err := f.svc.Archive(context.Background(), alice, a.ID)
	require.NoError(t, err)
	assert.True(t, archived.Archived)

	page, err := f.svc.List(context.Background(), firstPage())
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, b.ID, page.Items[0].ID)
	assert.EqualValues(t, 1, page.Total)

	in := firstPage()
	in.Archived = true
	page, err = f.svc.List(context.Background(), in)
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Total)
	// Archiving touches updatedAt, so A is now the most recent.
	assert.Equal(t, a.ID, page.Items[0].ID)

	restored, err := f.svc.Unarchive(context.Background(), bob, a.ID)
	require.NoError(t, err)
	assert.False(t, restored.Archived)

	entries := f.audit.Entries()
	require.Len(t, entries, 4)
	assert.Equal(t, model.ActionCardArchive, entries[2].Action)
	assert.Equal(t, model.ActionCardUnarchive, entries[3].Action)
	for _, e := range entries[2:] {
		assert.Nil(t, e.Before)
		assert.Nil(t, e.After)
	}

	_, err = f.svc.Archive(context.Background(), alice, bson.NewObjectID().Hex())
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestList_PaginationBounds(t *testing.T) {
	f := newCardFixture(t, nil)
	var ids []string
	for _, title := range []string{"1", "2", "3", "4", "5"} {
		ids = append(ids, f.create(t, title).ID)
	}

	page, err := f.svc.List(context.Background(), service.ListCardsInput{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 5, page.Total)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 2, page.Limit)
	require.Len(t, page.Items, 2)
	// Newest first: 5 4 | 3 2 | 1
	assert.Equal(t, ids[2], page.Items[0].ID)
	assert.Equal(t, ids[1], page.Items[1].ID)

	page, err = f.svc.List(context.Background(), service.ListCardsInput{Page: 9, Limit: 2})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.EqualValues(t, 5, page.Total)

	page, err = f.svc.List(context.Background(), service.ListCardsInput{Page: service.MaxPage, Limit: service.MaxLimit})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.EqualValues(t, 5, page.Total)

	for _, in := range []service.ListCardsInput{{Page: 0, Limit: 10}, {Page: 1, Limit: 0}, {Page: 1, Limit: 101}, {Page: math.MaxInt64, Limit: 100}} {
		_, err := f.svc.List(context.Background(), in)
		var verr *validation.Error
		assert.ErrorAs(t, err, &verr, "%+v", in)
	}
}

func TestDelete_CascadesComments(t *testing.T) {
	f := newCardFixture(t, nil)
	keep := f.create(t, "keep")
	gone := f.create(t, "gone")

	for i := 0; i < 3; i++ {
		_, err := f.svc.AddComment(context.Background(), bob, gone.ID, service.CommentInput{Body: "hi"})
		require.NoError(t, err)
	}
	_, err := f.svc.AddComment(context.Background(), bob, keep.ID, service.CommentInput{Body: "stay"})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(context.Background(), alice, gone.ID))

	_, err = f.svc.Get(context.Background(), gone.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)
	assert.Equal(t, 1, f.comments.Count())

	left, err := f.svc.ListComments(context.Background(), gone.ID)
	require.NoError(t, err)
	assert.Empty(t, left)

	entries := f.audit.Entries()
	last := entries[len(entries)-1]
	assert.Equal(t, model.ActionCardDelete, last.Action)
	assert.Equal(t, gone.ID, last.EntityID)
	require.NotNil(t, last.Before)
	assert.Equal(t, "gone", *last.Before.Title)
	assert.Nil(t, last.After)

	assert.ErrorIs(t, f.svc.Delete(context.Background(), alice, gone.ID), service.ErrNotFound)
	assert.Len(t, f.audit.Entries(), len(entries))
}

func TestComments_AuthorOnly(t *testing.T) {
	f := newCardFixture(t, nil)
	c := f.create(t, "A")

	com, err := f.svc.AddComment(context.Background(), alice, c.ID, service.CommentInput{Body: "mine"})
	require.NoError(t, err)
	assert.Equal(t, alice.UserID, com.AuthorID)
	assert.Equal(t, c.ID, com.CardID)

	_, err = f.svc.UpdateComment(context.Background(), bob, c.ID, com.ID, service.CommentInput{Body: "hijack"})
	assert.ErrorIs(t, err, service.ErrForbidden)
	assert.ErrorIs(t, f.svc.DeleteComment(context.Background(), bob, c.ID, com.ID), service.ErrForbidden)

	edited, err := f.svc.UpdateComment(context.Background(), alice, c.ID, com.ID, service.CommentInput{Body: "edited"})
	require.NoError(t, err)
	assert.Equal(t, "edited", edited.Body)

	// A comment addressed through another card does not exist there.
	other := f.create(t, "B")
	_, err = f.svc.UpdateComment(context.Background(), alice, other.ID, com.ID, service.CommentInput{Body: "x"})
	assert.ErrorIs(t, err, service.ErrNotFound)

	require.NoError(t, f.svc.DeleteComment(context.Background(), alice, c.ID, com.ID))
	assert.ErrorIs(t, f.svc.DeleteComment(context.Background(), alice, c.ID, com.ID), service.ErrNotFound)

	// Comments are never audited.
	for _, e := range f.audit.Entries() {
		assert.Equal(t, model.ActionCardCreate, e.Action)
	}
}

func TestComments_OrderingAndValidation(t *testing.T) {
	f := newCardFixture(t, nil)
	c := f.create(t, "A")

	first, err := f.svc.AddComment(context.Background(), alice, c.ID, service.CommentInput{Body: "first"})
	require.NoError(t, err)
	second, err := f.svc.AddComment(context.Background(), bob, c.ID, service.CommentInput{Body: "second"})
	require.NoError(t, err)

	list, err := f.svc.ListComments(context.Background(), c.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)

	_, err = f.svc.AddComment(context.Background(), alice, c.ID, service.CommentInput{})
	var verr *validation.Error
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "body")

	_, err = f.svc.AddComment(context.Background(), alice, bson.NewObjectID().Hex(), service.CommentInput{Body: "x"})
	assert.ErrorIs(t, err, service.ErrNotFound)

	err = f.svc.DeleteComment(context.Background(), alice, "bad", "worse")
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "id")
	assert.Contains(t, verr.Fields, "commentId")
}

func TestListAuditLog_NewestFirst(t *testing.T) {
	f := newCardFixture(t, nil)
	c := f.create(t, "A")
	_, err := f.svc.Update(context.Background(), alice, c.ID, service.UpdateCardInput{Title: ptr("B")})
	require.NoError(t, err)
	_, err = f.svc.Archive(context.Background(), alice, c.ID)
	require.NoError(t, err)
	f.create(t, "unrelated")

	page, err := f.svc.ListAuditLog(context.Background(), c.ID, service.PageInput{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.Total)
	require.Len(t, page.Items, 2)
	assert.Equal(t, model.ActionCardArchive, page.Items[0].Action)
	assert.Equal(t, model.ActionCardUpdate, page.Items[1].Action)

	page, err = f.svc.ListAuditLog(context.Background(), c.ID, service.PageInput{Page: 2, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, model.ActionCardCreate, page.Items[0].Action)

	_, err = f.svc.ListAuditLog(context.Background(), c.ID, service.PageInput{Page: math.MaxInt64, Limit: 100})
	var verr *validation.Error
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "page")
}

func TestMutations_PublishEvents(t *testing.T) {
	events := new(mocks.EventPublisher)
	events.On("PublishCardEvent", mock.Anything, mock.MatchedBy(func(ev queue.CardEvent) bool {
		return ev.Action == string(model.ActionCardCreate) && ev.Title == "A" && ev.ActorID == alice.UserID
	})).Return(nil).Once()
	events.On("PublishCardEvent", mock.Anything, mock.MatchedBy(func(ev queue.CardEvent) bool {
		return ev.Action == string(model.ActionCardDelete)
	})).Return(errors.New("broker down")).Once()

	f := newCardFixture(t, events)
	c := f.create(t, "A")

	// A publish failure does not fail the mutation.
	require.NoError(t, f.svc.Delete(context.Background(), alice, c.ID))
	events.AssertExpectations(t)
}

func TestMutations_AuditFailureFailsCall(t *testing.T) {
	f := newCardFixture(t, nil)
	f.audit.Err = errors.New("disk full")

	_, err := f.svc.Create(context.Background(), alice, service.CreateCardInput{Title: "A"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, service.ErrNotFound)
}

func TestRecord_UsesServiceClock(t *testing.T) {
	f := newCardFixture(t, nil)
	at := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	f.svc.Now = func() time.Time { return at }

	f.create(t, "A")
	assert.Equal(t, at, f.audit.Entries()[0].CreatedAt)
}
