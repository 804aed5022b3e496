package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/iliyamo/taskboard/internal/model"
)

// CardsCollection is the collection holding card documents.
const CardsCollection = "cards"

// cardDoc is the stored shape of a card.
type cardDoc struct {
	ID          bson.ObjectID `bson:"_id"`
	Title       string        `bson:"title"`
	Description string        `bson:"description"`
	Status      string        `bson:"status"`
	CreatedBy   uint64        `bson:"createdBy"`
	Archived    bool          `bson:"archived"`
	CreatedAt   time.Time     `bson:"createdAt"`
	UpdatedAt   time.Time     `bson:"updatedAt"`
}

func (d cardDoc) toModel() model.Card {
	return model.Card{
		ID:          d.ID.Hex(),
		Title:       d.Title,
		Description: d.Description,
		Status:      model.CardStatus(d.Status),
		CreatedBy:   d.CreatedBy,
		Archived:    d.Archived,
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}
}

// CardRepo encapsulates all queries against the cards collection. The
// collection handle comes from a *mongo.Database built once at startup.
type CardRepo struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewCardRepo(db *mongo.Database) *CardRepo {
	return &CardRepo{coll: db.Collection(CardsCollection), now: time.Now}
}

// ListFilter returns the query used by List. Archived cards are hidden
// unless includeArchived is set.
func ListFilter(includeArchived bool) bson.M {
	if includeArchived {
		return bson.M{}
	}
	return bson.M{"archived": bson.M{"$ne": true}}
}

// List returns one page of cards ordered by last update, newest first,
// and the total number of cards matching the filter.
func (r *CardRepo) List(ctx context.Context, includeArchived bool, p model.Page) ([]model.Card, int64, error) {
	filter := ListFilter(includeArchived)
	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "updatedAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(p.Offset())).
		SetLimit(int64(p.Limit))
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	var docs []cardDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, err
	}
	out := make([]model.Card, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toModel())
	}
	return out, total, nil
}

// Create inserts c, assigning its ID and timestamps.
func (r *CardRepo) Create(ctx context.Context, c *model.Card) error {
	now := r.now().UTC().Truncate(time.Millisecond)
	doc := cardDoc{
		ID:          bson.NewObjectID(),
		Title:       c.Title,
		Description: c.Description,
		Status:      string(c.Status),
		CreatedBy:   c.CreatedBy,
		Archived:    c.Archived,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return err
	}
	*c = doc.toModel()
	return nil
}

// GetByID fetches a card. A malformed id yields ErrInvalidID, a missing
// card ErrCardNotFound.
func (r *CardRepo) GetByID(ctx context.Context, id string) (*model.Card, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	var d cardDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&d); err != nil {
		return nil, notFound(err, ErrCardNotFound)
	}
	c := d.toModel()
	return &c, nil
}

// Exists reports whether a card with id is stored.
func (r *CardRepo) Exists(ctx context.Context, id string) (bool, error) {
	oid, err := parseID(id)
	if err != nil {
		return false, err
	}
	n, err := r.coll.CountDocuments(ctx, bson.M{"_id": oid}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Update applies the non-nil fields of p and returns the updated card.
func (r *CardRepo) Update(ctx context.Context, id string, p model.CardPatch) (*model.Card, error) {
	set := bson.M{"updatedAt": r.now().UTC().Truncate(time.Millisecond)}
	if p.Title != nil {
		set["title"] = *p.Title
	}
	if p.Description != nil {
		set["description"] = *p.Description
	}
	if p.Status != nil {
		set["status"] = string(*p.Status)
	}
	return r.findAndUpdate(ctx, id, set)
}

// SetArchived flips the archived flag and returns the updated card.
func (r *CardRepo) SetArchived(ctx context.Context, id string, archived bool) (*model.Card, error) {
	return r.findAndUpdate(ctx, id, bson.M{
		"archived":  archived,
		"updatedAt": r.now().UTC().Truncate(time.Millisecond),
	})
}

func (r *CardRepo) findAndUpdate(ctx context.Context, id string, set bson.M) (*model.Card, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	var d cardDoc
	err = r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&d)
	if err != nil {
		return nil, notFound(err, ErrCardNotFound)
	}
	c := d.toModel()
	return &c, nil
}

// Delete removes a card and returns it as it was before removal.
func (r *CardRepo) Delete(ctx context.Context, id string) (*model.Card, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	var d cardDoc
	if err := r.coll.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&d); err != nil {
		return nil, notFound(err, ErrCardNotFound)
	}
	c := d.toModel()
	return &c, nil
}

func notFound(err, sentinel error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return sentinel
	}
	return err
}
