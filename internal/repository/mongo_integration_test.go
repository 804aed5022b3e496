//go:build integration

package repository

// These tests run the card and comment repositories against a real
// MongoDB. Run them with:
//
//	MONGO_URL=mongodb://localhost:27017 go test -tags integration ./internal/repository/

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/iliyamo/taskboard/internal/model"
)

// testDB returns a throwaway database that is dropped when t ends.
func testDB(t *testing.T) *mongo.Database {
	t.Helper()
	uri := os.Getenv("MONGO_URL")
	if uri == "" {
		t.Skip("MONGO_URL not set")
	}
	client, err := mongo.Connect(options.Client().ApplyURI(uri).SetServerSelectionTimeout(5 * time.Second))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, client.Ping(ctx, nil))

	db := client.Database(fmt.Sprintf("taskboard_it_%d", time.Now().UnixNano()))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
	})
	return db
}

// stepClock advances one second on every call so each write gets a
// distinct timestamp.
func stepClock() func() time.Time {
	t := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func seedCards(t *testing.T, r *CardRepo, titles ...string) []model.Card {
	t.Helper()
	out := make([]model.Card, 0, len(titles))
	for _, title := range titles {
		c := model.Card{Title: title, Status: model.StatusTodo, CreatedBy: 1}
		require.NoError(t, r.Create(context.Background(), &c))
		out = append(out, c)
	}
	return out
}

func titles(cards []model.Card) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.Title
	}
	return out
}

func TestCardRepo_ListOrderAndPaging(t *testing.T) {
	ctx := context.Background()
	r := NewCardRepo(testDB(t))
	r.now = stepClock()
	cards := seedCards(t, r, "a", "b", "c", "d", "e")

	got, total, err := r.List(ctx, false, model.Page{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	assert.Equal(t, []string{"e", "d"}, titles(got))

	got, total, err = r.List(ctx, false, model.Page{Page: 3, Limit: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	assert.Equal(t, []string{"a"}, titles(got))

	got, _, err = r.List(ctx, false, model.Page{Page: 4, Limit: 2})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	// An update moves the card to the front.
	title := "b2"
	_, err = r.Update(ctx, cards[1].ID, model.CardPatch{Title: &title})
	require.NoError(t, err)
	got, _, err = r.List(ctx, false, model.Page{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"b2", "e", "d", "c", "a"}, titles(got))
}

func TestCardRepo_ListHidesArchived(t *testing.T) {
	ctx := context.Background()
	r := NewCardRepo(testDB(t))
	r.now = stepClock()
	cards := seedCards(t, r, "a", "b", "c")

	archived, err := r.SetArchived(ctx, cards[0].ID, true)
	require.NoError(t, err)
	assert.True(t, archived.Archived)
	assert.True(t, archived.UpdatedAt.After(cards[0].UpdatedAt))

	got, total, err := r.List(ctx, false, model.Page{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Equal(t, []string{"c", "b"}, titles(got))

	got, total, err = r.List(ctx, true, model.Page{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, got, 3)

	restored, err := r.SetArchived(ctx, cards[0].ID, false)
	require.NoError(t, err)
	assert.False(t, restored.Archived)
	_, total, err = r.List(ctx, false, model.Page{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
}

func TestCardRepo_UpdateChangesOnlyGivenFields(t *testing.T) {
	ctx := context.Background()
	r := NewCardRepo(testDB(t))
	r.now = stepClock()
	c := model.Card{Title: "Write docs", Description: "intro", Status: model.StatusTodo, CreatedBy: 4}
	require.NoError(t, r.Create(ctx, &c))

	done := model.StatusDone
	got, err := r.Update(ctx, c.ID, model.CardPatch{Status: &done})
	require.NoError(t, err)
	assert.Equal(t, model.StatusDone, got.Status)
	assert.Equal(t, "Write docs", got.Title)
	assert.Equal(t, "intro", got.Description)
	assert.Equal(t, uint64(4), got.CreatedBy)
	assert.Equal(t, c.CreatedAt, got.CreatedAt)
	assert.True(t, got.UpdatedAt.After(c.UpdatedAt))

	stored, err := r.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, got, stored)
}

func TestCardRepo_DeleteReturnsPriorCard(t *testing.T) {
	ctx := context.Background()
	r := NewCardRepo(testDB(t))
	r.now = stepClock()
	c := seedCards(t, r, "gone")[0]

	ok, err := r.Exists(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	prior, err := r.Delete(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c, *prior)

	ok, err = r.Exists(ctx, c.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = r.Delete(ctx, c.ID)
	assert.ErrorIs(t, err, ErrCardNotFound)
}

func TestCardRepo_MissingAndMalformedIDs(t *testing.T) {
	ctx := context.Background()
	r := NewCardRepo(testDB(t))
	missing := bson.NewObjectID().Hex()
	title := "x"

	_, err := r.GetByID(ctx, missing)
	assert.ErrorIs(t, err, ErrCardNotFound)
	_, err = r.Update(ctx, missing, model.CardPatch{Title: &title})
	assert.ErrorIs(t, err, ErrCardNotFound)
	_, err = r.SetArchived(ctx, missing, true)
	assert.ErrorIs(t, err, ErrCardNotFound)

	_, err = r.GetByID(ctx, "nope")
	assert.ErrorIs(t, err, ErrInvalidID)
	_, err = r.Delete(ctx, "nope")
	assert.ErrorIs(t, err, ErrInvalidID)
	_, err = r.Exists(ctx, "nope")
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestCommentRepo_Lifecycle(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	r := NewCommentRepo(db)
	r.now = stepClock()
	card, other := bson.NewObjectID().Hex(), bson.NewObjectID().Hex()

	var ids []string
	for _, body := range []string{"first", "second", "third"} {
		c := model.Comment{CardID: card, Body: body, AuthorID: 1}
		require.NoError(t, r.Create(ctx, &c))
		assert.Equal(t, card, c.CardID)
		ids = append(ids, c.ID)
	}
	stray := model.Comment{CardID: other, Body: "elsewhere", AuthorID: 2}
	require.NoError(t, r.Create(ctx, &stray))

	got, err := r.ListByCard(ctx, card)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"third", "second", "first"}, []string{got[0].Body, got[1].Body, got[2].Body})

	edited, err := r.UpdateBody(ctx, ids[0], "first, edited")
	require.NoError(t, err)
	assert.Equal(t, "first, edited", edited.Body)
	assert.True(t, edited.UpdatedAt.After(edited.CreatedAt))

	require.NoError(t, r.Delete(ctx, ids[1]))
	assert.ErrorIs(t, r.Delete(ctx, ids[1]), ErrCommentNotFound)
	_, err = r.GetByID(ctx, ids[1])
	assert.ErrorIs(t, err, ErrCommentNotFound)

	n, err := r.DeleteByCard(ctx, card)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	got, err = r.ListByCard(ctx, card)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	left, err := r.ListByCard(ctx, other)
	require.NoError(t, err)
	assert.Len(t, left, 1)

	_, err = r.UpdateBody(ctx, bson.NewObjectID().Hex(), "x")
	assert.ErrorIs(t, err, ErrCommentNotFound)
	_, err = r.ListByCard(ctx, "nope")
	assert.ErrorIs(t, err, ErrInvalidID)
}
