package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestValidID(t *testing.T) {
	assert.True(t, ValidID(bson.NewObjectID().Hex()))
	assert.True(t, ValidID("507f1f77bcf86cd799439011"))
	assert.False(t, ValidID(""))
	assert.False(t, ValidID("123"))
	assert.False(t, ValidID("zzzzzzzzzzzzzzzzzzzzzzzz"))
}

func TestParseIDRejectsMalformed(t *testing.T) {
	_, err := parseID("not-an-id")
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestListFilter(t *testing.T) {
	assert.Equal(t, bson.M{}, ListFilter(true))
	assert.Equal(t, bson.M{"archived": bson.M{"$ne": true}}, ListFilter(false))
}

func TestCardDocToModel(t *testing.T) {
	oid := bson.NewObjectID()
	c := cardDoc{ID: oid, Title: "T", Status: "done", CreatedBy: 3}.toModel()
	assert.Equal(t, oid.Hex(), c.ID)
	assert.Equal(t, "T", c.Title)
	assert.EqualValues(t, "done", c.Status)
	assert.Equal(t, uint64(3), c.CreatedBy)
}

func TestCommentDocToModel(t *testing.T) {
	id, card := bson.NewObjectID(), bson.NewObjectID()
	c := commentDoc{ID: id, CardID: card, Body: "hi", AuthorID: 2}.toModel()
	assert.Equal(t, id.Hex(), c.ID)
	assert.Equal(t, card.Hex(), c.CardID)
	assert.Equal(t, "hi", c.Body)
}
