package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/forgo/odmapi/internal/odm"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

// sqlDocument is one row of the documents table. Data holds the JSON encoded
// fields; timestamps are unix microseconds so every dialect orders them alike.
type sqlDocument struct {
	bun.BaseModel `bun:"table:odm_documents"`

	Model    string `bun:"model,pk,type:varchar(64)"`
	UID      string `bun:"uid,pk,type:varchar(64)"`
	Data     string `bun:"data,notnull,type:text"`
	Created  int64  `bun:"created,notnull"`
	Modified int64  `bun:"modified,notnull"`
}

// SQLBackend stores documents of every model in one bun table.
// Filters and sorts on data fields run in process after the model and uid
// selection has been narrowed by the database.
type SQLBackend struct {
	db *bun.DB
}

// NewSQLBackend creates a backend over an open bun database.
func NewSQLBackend(db *bun.DB) *SQLBackend {
	return &SQLBackend{db: db}
}

func (b *SQLBackend) Load(ctx context.Context, model, uid string) (*odm.Document, error) {
	var row sqlDocument
	err := b.db.NewSelect().
		Model(&row).
		Where("model = ?", model).
		Where("uid = ?", uid).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, odm.ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}
	return row.document()
}

func (b *SQLBackend) Save(ctx context.Context, doc *odm.Document) error {
	data, err := encodeData(doc.Data)
	if err != nil {
		return err
	}
	row := &sqlDocument{
		Model:    doc.Model,
		UID:      doc.UID,
		Data:     data,
		Created:  micros(doc.Created),
		Modified: micros(doc.Modified),
	}

	q := b.db.NewInsert().Model(row)
	if b.db.Dialect().Name() == dialect.MySQL {
		q = q.On("DUPLICATE KEY UPDATE").
			Set("data = VALUES(data)").
			Set("created = VALUES(created)").
			Set("modified = VALUES(modified)")
	} else {
		q = q.On("CONFLICT (model, uid) DO UPDATE").
			Set("data = EXCLUDED.data").
			Set("created = EXCLUDED.created").
			Set("modified = EXCLUDED.modified")
	}
	if _, err := q.Exec(ctx); err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	return nil
}

func (b *SQLBackend) Delete(ctx context.Context, model, uid string) error {
	res, err := b.db.NewDelete().
		Model((*sqlDocument)(nil)).
		Where("model = ?", model).
		Where("uid = ?", uid).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if n == 0 {
		return odm.ErrDocumentNotFound
	}
	return nil
}

func (b *SQLBackend) Count(ctx context.Context, c odm.Criteria) (int, error) {
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
	n, err := sqlWhere(b.db.NewSelect().Model((*sqlDocument)(nil)), c).Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return n, nil
}

func (b *SQLBackend) Fetch(ctx context.Context, c odm.Criteria) ([]*odm.Document, error) {
	if emptySelection(c) {
		return []*odm.Document{}, nil
	}
	if inProcess(c) || (c.Limit == 0 && c.Skip > 0) {
		docs, err := b.selectAll(ctx, c)
		if err != nil {
			return nil, err
		}
		return finish(docs, c), nil
	}

	var rows []sqlDocument
	q := sqlWhere(b.db.NewSelect().Model(&rows), c)
	for _, o := range c.Sort {
		q = q.OrderExpr("? "+direction(o.Desc), bun.Ident(sqlColumn(o.Field)))
	}
	q = q.OrderExpr("uid ASC")
	if c.Limit > 0 {
		q = q.Limit(c.Limit).Offset(c.Skip)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("fetch documents: %w", err)
	}
	return sqlDocuments(rows)
}

// Init creates the documents table and its ordering index.
func (b *SQLBackend) Init(ctx context.Context, _ []*odm.Model) error {
	_, err := b.db.NewCreateTable().
		Model((*sqlDocument)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("create documents table: %w", err)
	}

	// MySQL has no CREATE INDEX IF NOT EXISTS; the primary key covers model there.
	if b.db.Dialect().Name() == dialect.MySQL {
		return nil
	}
	_, err = b.db.NewCreateIndex().
		Model((*sqlDocument)(nil)).
		Index("odm_documents_model_created").
		Column("model", "created").
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("create documents index: %w", err)
	}
	return nil
}

func (b *SQLBackend) Ping(ctx context.Context) error {
	return b.db.PingContext(ctx)
}

func (b *SQLBackend) selectAll(ctx context.Context, c odm.Criteria) ([]*odm.Document, error) {
	var rows []sqlDocument
	if err := sqlWhere(b.db.NewSelect().Model(&rows), c).Scan(ctx); err != nil {
		return nil, fmt.Errorf("fetch documents: %w", err)
	}
	return sqlDocuments(rows)
}

func sqlWhere(q *bun.SelectQuery, c odm.Criteria) *bun.SelectQuery {
	q = q.Where("model = ?", c.Model)
	if c.UIDs != nil {
		q = q.Where("uid IN (?)", bun.In(c.UIDs))
	}
	if len(c.ExcludeUIDs) > 0 {
		q = q.Where("uid NOT IN (?)", bun.In(c.ExcludeUIDs))
	}
	return q
}

func sqlColumn(field string) string {
	if field == odm.SortModified {
		return "modified"
	}
	return "created"
}

func direction(desc bool) string {
	if desc {
		return "DESC"
	}
	return "ASC"
}

func sqlDocuments(rows []sqlDocument) ([]*odm.Document, error) {
	docs := make([]*odm.Document, 0, len(rows))
	for i := range rows {
		doc, err := rows[i].document()
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (r *sqlDocument) document() (*odm.Document, error) {
	data, err := decodeData(r.Data)
	if err != nil {
		return nil, fmt.Errorf("%s:%s: %w", r.Model, r.UID, err)
	}
	return &odm.Document{
		Model:    r.Model,
		UID:      r.UID,
		Data:     data,
		Created:  fromMicros(r.Created),
		Modified: fromMicros(r.Modified),
	}, nil
}
