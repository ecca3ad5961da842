package repository

import (
	"context"
	"fmt"

	"github.com/forgo/odmapi/internal/database"
	"github.com/forgo/odmapi/internal/odm"
	"github.com/restream/reindexer/v4"
)

// reindexerDocument is one item of the documents namespace. Data is the JSON
// encoded field map; only the selection and sort columns are indexed.
type reindexerDocument struct {
	Key      string `json:"key" reindex:"key,hash,pk"`
	Model    string `json:"model" reindex:"model,hash"`
	UID      string `json:"uid" reindex:"uid,hash"`
	Data     string `json:"data"`
	Created  int64  `json:"created" reindex:"created,tree"`
	Modified int64  `json:"modified" reindex:"modified,tree"`
}

// ReindexerBackend keeps the documents of every model in one namespace.
// Like SQLBackend it narrows by model and uid on the server and evaluates
// data field filters and sorts in process.
type ReindexerBackend struct {
	db        *reindexer.Reindexer
	namespace string
}

// NewReindexerBackend creates a backend storing documents in namespace.
func NewReindexerBackend(db *reindexer.Reindexer, namespace string) *ReindexerBackend {
	return &ReindexerBackend{db: db, namespace: namespace}
}

func (b *ReindexerBackend) Load(ctx context.Context, model, uid string) (*odm.Document, error) {
	iter := b.db.WithContext(ctx).Query(b.namespace).
		Where("key", reindexer.EQ, odm.MakeRef(model, uid)).
		Limit(1).
		Exec()
	defer iter.Close()

	docs, err := reindexerDocuments(iter)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, odm.ErrDocumentNotFound
	}
	return docs[0], nil
}

func (b *ReindexerBackend) Save(ctx context.Context, doc *odm.Document) error {
	data, err := encodeData(doc.Data)
	if err != nil {
		return err
	}
	item := &reindexerDocument{
		Key:      odm.MakeRef(doc.Model, doc.UID),
		Model:    doc.Model,
		UID:      doc.UID,
		Data:     data,
		Created:  micros(doc.Created),
		Modified: micros(doc.Modified),
	}
	if err := b.db.WithContext(ctx).Upsert(b.namespace, item); err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	return nil
}

func (b *ReindexerBackend) Delete(ctx context.Context, model, uid string) error {
	n, err := b.db.WithContext(ctx).Query(b.namespace).
		Where("key", reindexer.EQ, odm.MakeRef(model, uid)).
		Delete()
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if n == 0 {
		return odm.ErrDocumentNotFound
	}
	return nil
}

func (b *ReindexerBackend) Count(ctx context.Context, c odm.Criteria) (int, error) {
	if emptySelection(c) {
		return 0, nil
	}
	if len(c.Conditions) > 0 {
		docs, err := b.selectAll(ctx, c)
		if err != nil {
			return 0, err
		}
		c.Skip, c.Limit = 0, 0
		return len(finish(docs, c)), nil
	}

	iter := b.query(ctx, c).ReqTotal().Exec()
	defer iter.Close()
	if err := iter.Error(); err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return iter.TotalCount(), nil
}

func (b *ReindexerBackend) Fetch(ctx context.Context, c odm.Criteria) ([]*odm.Document, error) {
	if emptySelection(c) {
		return []*odm.Document{}, nil
	}
	if inProcess(c) {
		docs, err := b.selectAll(ctx, c)
		if err != nil {
			return nil, err
		}
		return finish(docs, c), nil
	}

	q := b.query(ctx, c)
	for _, o := range c.Sort {
		q = q.Sort(sqlColumn(o.Field), o.Desc)
	}
	q = q.Sort("uid", false)
	if c.Limit > 0 {
		q = q.Limit(c.Limit)
	}
	if c.Skip > 0 {
		q = q.Offset(c.Skip)
	}
	iter := q.Exec()
	defer iter.Close()
	return reindexerDocuments(iter)
}

// Init opens the documents namespace, creating it and its indexes when missing.
func (b *ReindexerBackend) Init(ctx context.Context, _ []*odm.Model) error {
	err := b.db.WithContext(ctx).OpenNamespace(b.namespace, reindexer.DefaultNamespaceOptions(), reindexerDocument{})
	if err != nil {
		return fmt.Errorf("open namespace %s: %w", b.namespace, err)
	}
	return nil
}

func (b *ReindexerBackend) Ping(ctx context.Context) error {
	return database.PingReindexer(ctx, b.db)
}

func (b *ReindexerBackend) query(ctx context.Context, c odm.Criteria) *reindexer.Query {
	q := b.db.WithContext(ctx).Query(b.namespace).Where("model", reindexer.EQ, c.Model)
	if c.UIDs != nil {
		q = q.Where("uid", reindexer.SET, c.UIDs)
	}
	if len(c.ExcludeUIDs) > 0 {
		q = q.Not().Where("uid", reindexer.SET, c.ExcludeUIDs)
	}
	return q
}

func (b *ReindexerBackend) selectAll(ctx context.Context, c odm.Criteria) ([]*odm.Document, error) {
	iter := b.query(ctx, c).Exec()
	defer iter.Close()
	return reindexerDocuments(iter)
}

func reindexerDocuments(iter *reindexer.Iterator) ([]*odm.Document, error) {
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	var docs []*odm.Document
	for iter.Next() {
		item, ok := iter.Object().(*reindexerDocument)
		if !ok {
			return nil, fmt.Errorf("%w: unexpected item %T", database.ErrQuery, iter.Object())
		}
		data, err := decodeData(item.Data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", item.Key, err)
		}
		docs = append(docs, &odm.Document{
			Model:    item.Model,
			UID:      item.UID,
			Data:     data,
			Created:  fromMicros(item.Created),
			Modified: fromMicros(item.Modified),
		})
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	if docs == nil {
		docs = []*odm.Document{}
	}
	return docs, nil
}
