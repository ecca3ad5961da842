package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/forgo/odmapi/internal/database"
	"github.com/forgo/odmapi/internal/odm"
)

// SurrealBackend stores each model in its own SurrealDB table. The record id
// of an entity is its ref, so "article:abc" is record abc of table article.
type SurrealBackend struct {
	db database.Database
}

// NewSurrealBackend creates a backend over a connected database.
func NewSurrealBackend(db database.Database) *SurrealBackend {
	return &SurrealBackend{db: db}
}

func (b *SurrealBackend) Load(ctx context.Context, model, uid string) (*odm.Document, error) {
	query := `SELECT * FROM type::thing($tb, $uid)`
	vars := map[string]any{"tb": model, "uid": uid}

	record, err := b.db.QueryOne(ctx, query, vars)
	if errors.Is(err, database.ErrNotFound) {
		return nil, odm.ErrDocumentNotFound
	}
	if err != nil {
		return nil, err
	}
	return surrealDocument(model, record)
}

func (b *SurrealBackend) Save(ctx context.Context, doc *odm.Document) error {
	query := `UPSERT type::thing($tb, $uid) CONTENT $content`
	vars := map[string]any{
		"tb":  doc.Model,
		"uid": doc.UID,
		"content": map[string]any{
			"uid":      doc.UID,
			"data":     doc.Data,
			"created":  doc.Created,
			"modified": doc.Modified,
		},
	}
	return b.db.Execute(ctx, query, vars)
}

func (b *SurrealBackend) Delete(ctx context.Context, model, uid string) error {
	query := `DELETE type::thing($tb, $uid) RETURN BEFORE`
	vars := map[string]any{"tb": model, "uid": uid}

	results, err := b.db.Query(ctx, query, vars)
	if err != nil {
		return err
	}
	if len(results) == 0 || len(results[0].Records()) == 0 {
		return odm.ErrDocumentNotFound
	}
	return nil
}

func (b *SurrealBackend) Count(ctx context.Context, c odm.Criteria) (int, error) {
	if emptySelection(c) {
		return 0, nil
	}
	where, vars := surrealWhere(c)
	query := `SELECT count() AS count FROM type::table($tb)` + where + ` GROUP ALL`

	record, err := b.db.QueryOne(ctx, query, vars)
	if errors.Is(err, database.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	row, _ := record.(map[string]any)
	return toInt(row["count"]), nil
}

func (b *SurrealBackend) Fetch(ctx context.Context, c odm.Criteria) ([]*odm.Document, error) {
	if emptySelection(c) {
		return []*odm.Document{}, nil
	}
	query, vars := surrealSelect(c)

	results, err := b.db.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return []*odm.Document{}, nil
	}
	records := results[0].Records()
	docs := make([]*odm.Document, 0, len(records))
	for _, record := range records {
		doc, err := surrealDocument(c.Model, record)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Init defines a schemaless table per model with indexes on the sort columns.
func (b *SurrealBackend) Init(ctx context.Context, models []*odm.Model) error {
	var stmts []database.Statement
	for _, m := range models {
		stmts = append(stmts,
			database.Statement{Query: fmt.Sprintf("DEFINE TABLE IF NOT EXISTS %s SCHEMALESS", m.Name)},
			database.Statement{Query: fmt.Sprintf("DEFINE INDEX IF NOT EXISTS %s_created ON %s FIELDS created", m.Name, m.Name)},
			database.Statement{Query: fmt.Sprintf("DEFINE INDEX IF NOT EXISTS %s_modified ON %s FIELDS modified", m.Name, m.Name)},
		)
	}
	return b.db.Batch(ctx, stmts...)
}

func (b *SurrealBackend) Ping(ctx context.Context) error {
	return b.db.Ping(ctx)
}

// surrealWhere renders the filters of c. Field names are schema identifiers
// and safe to inline; values are always bound.
func surrealWhere(c odm.Criteria) (string, map[string]any) {
	vars := map[string]any{"tb": c.Model}
	var clauses []string
	if c.UIDs != nil {
		clauses = append(clauses, "uid INSIDE $uids")
		vars["uids"] = c.UIDs
	}
	if len(c.ExcludeUIDs) > 0 {
		clauses = append(clauses, "uid NOTINSIDE $exclude")
		vars["exclude"] = c.ExcludeUIDs
	}
	for i, cond := range c.Conditions {
		name := fmt.Sprintf("c%d", i)
		clauses = append(clauses, fmt.Sprintf("data.`%s` = $%s", cond.Field, name))
		vars[name] = cond.Value
	}
	if len(clauses) == 0 {
		return "", vars
	}
	return " WHERE " + strings.Join(clauses, " AND "), vars
}

func surrealSelect(c odm.Criteria) (string, map[string]any) {
	where, vars := surrealWhere(c)

	var b strings.Builder
	b.WriteString("SELECT * FROM type::table($tb)")
	b.WriteString(where)

	orders := make([]string, 0, len(c.Sort)+1)
	for _, o := range c.Sort {
		dir := "ASC"
		if o.Desc {
			dir = "DESC"
		}
		orders = append(orders, surrealSortField(o.Field)+" "+dir)
	}
	orders = append(orders, "uid ASC")
	b.WriteString(" ORDER BY ")
	b.WriteString(strings.Join(orders, ", "))

	if c.Limit > 0 {
		b.WriteString(" LIMIT $limit")
		vars["limit"] = c.Limit
	}
	if c.Skip > 0 {
		b.WriteString(" START $skip")
		vars["skip"] = c.Skip
	}
	return b.String(), vars
}

func surrealSortField(field string) string {
	switch field {
	case odm.SortCreated:
		return "created"
	case odm.SortModified:
		return "modified"
	}
	return fmt.Sprintf("data.`%s`", field)
}

func surrealDocument(model string, record any) (*odm.Document, error) {
	row, ok := normalize(record).(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected %s record %T", database.ErrQuery, model, record)
	}
	uid, _ := row["uid"].(string)
	return &odm.Document{
		Model:    model,
		UID:      uid,
		Data:     normalizeData(row["data"]),
		Created:  parseTime(row["created"]),
		Modified: parseTime(row["modified"]),
	}, nil
}
