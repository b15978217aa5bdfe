package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/simple-media/pkg/simplemedia"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DefaultCollection is the collection documents are stored in.
const DefaultCollection = "media_documents"

// record is the stored shape of a simplemedia.Document.
type record struct {
	ID        string    `bson:"_id"`
	Kind      string    `bson:"kind"`
	Singleton string    `bson:"singleton,omitempty"`
	Status    string    `bson:"status"`
	Title     string    `bson:"title"`
	Summary   string    `bson:"summary"`
	Keywords  []string  `bson:"keywords,omitempty"`
	Body      bson.D    `bson:"body"`
	CreatedBy string    `bson:"created_by,omitempty"`
	UpdatedBy string    `bson:"updated_by,omitempty"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// Repository implements simplemedia.Repository on a MongoDB collection
type Repository struct {
	coll *mongo.Collection
}

// New creates a repository over coll
func New(coll *mongo.Collection) *Repository {
	return &Repository{coll: coll}
}

// NewWithDatabase creates a repository over the default collection of db
func NewWithDatabase(db *mongo.Database) *Repository {
	return New(db.Collection(DefaultCollection))
}

// EnsureIndexes creates the listing, text and singleton indexes.
func (r *Repository) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "kind", Value: 1}, {Key: "created_at", Value: -1}},
		},
		{
			Keys: bson.D{
				{Key: "title", Value: "text"},
				{Key: "summary", Value: "text"},
				{Key: "keywords", Value: "text"},
			},
			Options: options.Index().
				SetName("document_text").
				SetWeights(bson.D{{Key: "title", Value: 10}, {Key: "keywords", Value: 5}, {Key: "summary", Value: 1}}),
		},
		{
			Keys: bson.D{{Key: "singleton", Value: 1}},
			Options: options.Index().
				SetName("document_singleton").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"singleton": bson.M{"$exists": true}}),
		},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("create indexes: %w", err)
	}
	return nil
}

func (r *Repository) Create(ctx context.Context, doc *simplemedia.Document) error {
	rec, err := toRecord(doc)
	if err != nil {
		return err
	}
	if _, err := r.coll.InsertOne(ctx, rec); err != nil {
		return mapError("create document", err)
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, kind simplemedia.Kind, id uuid.UUID) (*simplemedia.Document, error) {
	return r.findOne(ctx, "get document", bson.M{"_id": id.String(), "kind": string(kind)})
}

func (r *Repository) Update(ctx context.Context, doc *simplemedia.Document) error {
	rec, err := toRecord(doc)
	if err != nil {
		return err
	}
	update := bson.M{"$set": bson.M{
		"status":     rec.Status,
		"title":      rec.Title,
		"summary":    rec.Summary,
		"keywords":   rec.Keywords,
		"body":       rec.Body,
		"updated_by": rec.UpdatedBy,
		"updated_at": rec.UpdatedAt,
	}}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": rec.ID, "kind": rec.Kind}, update)
	if err != nil {
		return mapError("update document", err)
	}
	if res.MatchedCount == 0 {
		return simplemedia.ErrNotFound
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, kind simplemedia.Kind, id uuid.UUID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id.String(), "kind": string(kind)})
	if err != nil {
		return mapError("delete document", err)
	}
	if res.DeletedCount == 0 {
		return simplemedia.ErrNotFound
	}
	return nil
}

func (r *Repository) List(ctx context.Context, filter simplemedia.ListFilter) ([]*simplemedia.Document, error) {
	q := bson.M{"kind": string(filter.Kind)}
	if filter.Status != nil {
		q["status"] = string(*filter.Status)
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}})
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}
	if filter.Offset > 0 {
		opts.SetSkip(int64(filter.Offset))
	}
	return r.find(ctx, "list documents", q, opts)
}

func (r *Repository) Search(ctx context.Context, kind simplemedia.Kind, query string, limit int) ([]*simplemedia.Document, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	q := bson.M{"kind": string(kind), "$text": bson.M{"$search": query}}
	score := bson.M{"score": bson.M{"$meta": "textScore"}}
	opts := options.Find().SetProjection(score).SetSort(score)
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return r.find(ctx, "search documents", q, opts)
}

func (r *Repository) GetSingleton(ctx context.Context, kind simplemedia.Kind) (*simplemedia.Document, error) {
	return r.findOne(ctx, "get singleton", bson.M{"kind": string(kind)})
}

func (r *Repository) findOne(ctx context.Context, operation string, q bson.M) (*simplemedia.Document, error) {
	var rec record
	if err := r.coll.FindOne(ctx, q).Decode(&rec); err != nil {
		return nil, mapError(operation, err)
	}
	return fromRecord(&rec)
}

func (r *Repository) find(ctx context.Context, operation string, q bson.M, opts *options.FindOptions) ([]*simplemedia.Document, error) {
	cur, err := r.coll.Find(ctx, q, opts)
	if err != nil {
		return nil, mapError(operation, err)
	}
	defer cur.Close(ctx)

	var docs []*simplemedia.Document
	for cur.Next(ctx) {
		var rec record
		if err := cur.Decode(&rec); err != nil {
			return nil, mapError(operation, err)
		}
		doc, err := fromRecord(&rec)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := cur.Err(); err != nil {
		return nil, mapError(operation, err)
	}
	return docs, nil
}

func mapError(operation string, err error) error {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return simplemedia.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%s: %w", operation, simplemedia.ErrAlreadyExists)
	default:
		return fmt.Errorf("database error in %s: %w", operation, err)
	}
}

func toRecord(doc *simplemedia.Document) (*record, error) {
	var body bson.D
	if len(doc.Body) > 0 {
		if err := bson.UnmarshalExtJSON(doc.Body, false, &body); err != nil {
			return nil, fmt.Errorf("convert document body: %w", err)
		}
	}
	rec := &record{
		ID:        doc.ID.String(),
		Kind:      string(doc.Kind),
		Status:    string(doc.Status),
		Title:     doc.Title,
		Summary:   doc.Summary,
		Keywords:  doc.Keywords,
		Body:      body,
		CreatedBy: doc.CreatedBy,
		UpdatedBy: doc.UpdatedBy,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
	if doc.Kind.IsSingleton() {
		rec.Singleton = string(doc.Kind)
	}
	return rec, nil
}

func fromRecord(rec *record) (*simplemedia.Document, error) {
	id, err := uuid.Parse(rec.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid document id %q: %w", rec.ID, err)
	}
	body := []byte("{}")
	if rec.Body != nil {
		body, err = bson.MarshalExtJSON(rec.Body, false, false)
		if err != nil {
			return nil, fmt.Errorf("convert document body: %w", err)
		}
	}
	return &simplemedia.Document{
		ID:        id,
		Kind:      simplemedia.Kind(rec.Kind),
		Status:    simplemedia.Status(rec.Status),
		Title:     rec.Title,
		Summary:   rec.Summary,
		Keywords:  rec.Keywords,
		Body:      body,
		CreatedBy: rec.CreatedBy,
		UpdatedBy: rec.UpdatedBy,
		CreatedAt: rec.CreatedAt.UTC(),
		UpdatedAt: rec.UpdatedAt.UTC(),
	}, nil
}
