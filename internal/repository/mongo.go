package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/forgo/odmapi/internal/odm"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoDocument struct {
	UID      string    `bson:"_id"`
	Data     bson.M    `bson:"data"`
	Created  time.Time `bson:"created"`
	Modified time.Time `bson:"modified"`
}

// MongoBackend stores each model in a collection of the same name, keyed by uid.
// Every criterion is pushed down to the server.
type MongoBackend struct {
	db *mongo.Database
}

// NewMongoBackend creates a backend over a connected database.
func NewMongoBackend(db *mongo.Database) *MongoBackend {
	return &MongoBackend{db: db}
}

func (b *MongoBackend) Load(ctx context.Context, model, uid string) (*odm.Document, error) {
	var row mongoDocument
	err := b.db.Collection(model).FindOne(ctx, bson.D{{Key: "_id", Value: uid}}).Decode(&row)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, odm.ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}
	return row.document(model), nil
}

func (b *MongoBackend) Save(ctx context.Context, doc *odm.Document) error {
	row := mongoDocument{
		UID:      doc.UID,
		Data:     bson.M(doc.Data),
		Created:  doc.Created,
		Modified: doc.Modified,
	}
	if row.Data == nil {
		row.Data = bson.M{}
	}
	_, err := b.db.Collection(doc.Model).ReplaceOne(ctx,
		bson.D{{Key: "_id", Value: doc.UID}},
		row,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	return nil
}

func (b *MongoBackend) Delete(ctx context.Context, model, uid string) error {
	res, err := b.db.Collection(model).DeleteOne(ctx, bson.D{{Key: "_id", Value: uid}})
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if res.DeletedCount == 0 {
		return odm.ErrDocumentNotFound
	}
	return nil
}

func (b *MongoBackend) Count(ctx context.Context, c odm.Criteria) (int, error) {
	if emptySelection(c) {
		return 0, nil
	}
	n, err := b.db.Collection(c.Model).CountDocuments(ctx, mongoFilter(c))
	if err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return int(n), nil
}

func (b *MongoBackend) Fetch(ctx context.Context, c odm.Criteria) ([]*odm.Document, error) {
	if emptySelection(c) {
		return []*odm.Document{}, nil
	}
	opts := options.Find().SetSort(mongoSort(c.Sort))
	if c.Skip > 0 {
		opts.SetSkip(int64(c.Skip))
	}
	if c.Limit > 0 {
		opts.SetLimit(int64(c.Limit))
	}

	cur, err := b.db.Collection(c.Model).Find(ctx, mongoFilter(c), opts)
	if err != nil {
		return nil, fmt.Errorf("fetch documents: %w", err)
	}
	var rows []mongoDocument
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("fetch documents: %w", err)
	}

	docs := make([]*odm.Document, 0, len(rows))
	for i := range rows {
		docs = append(docs, rows[i].document(c.Model))
	}
	return docs, nil
}

// Init indexes the timestamp sort keys of every model collection.
func (b *MongoBackend) Init(ctx context.Context, models []*odm.Model) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "created", Value: 1}, {Key: "_id", Value: 1}}},
		{Keys: bson.D{{Key: "modified", Value: 1}, {Key: "_id", Value: 1}}},
	}
	for _, m := range models {
		if _, err := b.db.Collection(m.Name).Indexes().CreateMany(ctx, indexes); err != nil {
			return fmt.Errorf("index %s: %w", m.Name, err)
		}
	}
	return nil
}

func (b *MongoBackend) Ping(ctx context.Context) error {
	return b.db.Client().Ping(ctx, nil)
}

func mongoFilter(c odm.Criteria) bson.D {
	filter := bson.D{}
	switch {
	case c.UIDs != nil && len(c.ExcludeUIDs) > 0:
		filter = append(filter, bson.E{Key: "_id", Value: bson.D{
			{Key: "$in", Value: c.UIDs},
			{Key: "$nin", Value: c.ExcludeUIDs},
		}})
	case c.UIDs != nil:
		filter = append(filter, bson.E{Key: "_id", Value: bson.D{{Key: "$in", Value: c.UIDs}}})
	case len(c.ExcludeUIDs) > 0:
		filter = append(filter, bson.E{Key: "_id", Value: bson.D{{Key: "$nin", Value: c.ExcludeUIDs}}})
	}
	for _, cond := range c.Conditions {
		filter = append(filter, bson.E{Key: "data." + cond.Field, Value: cond.Value})
	}
	return filter
}

func mongoSort(orders []odm.Order) bson.D {
	sort := make(bson.D, 0, len(orders)+1)
	for _, o := range orders {
		dir := 1
		if o.Desc {
			dir = -1
		}
		sort = append(sort, bson.E{Key: mongoSortField(o.Field), Value: dir})
	}
	return append(sort, bson.E{Key: "_id", Value: 1})
}

func mongoSortField(field string) string {
	switch field {
	case odm.SortCreated:
		return "created"
	case odm.SortModified:
		return "modified"
	}
	return "data." + field
}

func (r *mongoDocument) document(model string) *odm.Document {
	return &odm.Document{
		Model:    model,
		UID:      r.UID,
		Data:     normalizeData(r.Data),
		Created:  r.Created.UTC(),
		Modified: r.Modified.UTC(),
	}
}
