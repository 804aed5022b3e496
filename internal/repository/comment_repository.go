package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/iliyamo/taskboard/internal/model"
)

// CommentsCollection is the collection holding comment documents.
const CommentsCollection = "comments"

type commentDoc struct {
	ID        bson.ObjectID `bson:"_id"`
	CardID    bson.ObjectID `bson:"cardId"`
	Body      string        `bson:"body"`
	AuthorID  uint64        `bson:"authorId"`
	CreatedAt time.Time     `bson:"createdAt"`
	UpdatedAt time.Time     `bson:"updatedAt"`
}

func (d commentDoc) toModel() model.Comment {
	return model.Comment{
		ID:        d.ID.Hex(),
		CardID:    d.CardID.Hex(),
		Body:      d.Body,
		AuthorID:  d.AuthorID,
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
}

// CommentRepo encapsulates all queries against the comments collection.
type CommentRepo struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewCommentRepo(db *mongo.Database) *CommentRepo {
	return &CommentRepo{coll: db.Collection(CommentsCollection), now: time.Now}
}

// ListByCard returns the comments of a card, newest first. An unknown
// card simply has no comments.
func (r *CommentRepo) ListByCard(ctx context.Context, cardID string) ([]model.Comment, error) {
	oid, err := parseID(cardID)
	if err != nil {
		return nil, err
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := r.coll.Find(ctx, bson.M{"cardId": oid}, opts)
	if err != nil {
		return nil, err
	}
	var docs []commentDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]model.Comment, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toModel())
	}
	return out, nil
}

// Create inserts c, assigning its ID and timestamps.
func (r *CommentRepo) Create(ctx context.Context, c *model.Comment) error {
	cardID, err := parseID(c.CardID)
	if err != nil {
		return err
	}
	now := r.now().UTC().Truncate(time.Millisecond)
	doc := commentDoc{
		ID:        bson.NewObjectID(),
		CardID:    cardID,
		Body:      c.Body,
		AuthorID:  c.AuthorID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return err
	}
	*c = doc.toModel()
	return nil
}

// GetByID fetches a comment or returns ErrCommentNotFound.
func (r *CommentRepo) GetByID(ctx context.Context, id string) (*model.Comment, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	var d commentDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&d); err != nil {
		return nil, notFound(err, ErrCommentNotFound)
	}
	c := d.toModel()
	return &c, nil
}

// UpdateBody replaces the body of a comment and returns the result.
func (r *CommentRepo) UpdateBody(ctx context.Context, id, body string) (*model.Comment, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	var d commentDoc
	err = r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"body": body, "updatedAt": r.now().UTC().Truncate(time.Millisecond)}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&d)
	if err != nil {
		return nil, notFound(err, ErrCommentNotFound)
	}
	c := d.toModel()
	return &c, nil
}

// Delete removes a single comment.
func (r *CommentRepo) Delete(ctx context.Context, id string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrCommentNotFound
	}
	return nil
}

// DeleteByCard removes every comment of a card and reports how many went.
func (r *CommentRepo) DeleteByCard(ctx context.Context, cardID string) (int64, error) {
	oid, err := parseID(cardID)
	if err != nil {
		return 0, err
	}
	res, err := r.coll.DeleteMany(ctx, bson.M{"cardId": oid})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
