package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/forgo/odmapi/internal/config"
	"github.com/forgo/odmapi/internal/database"
	"github.com/forgo/odmapi/internal/odm"
	"github.com/forgo/odmapi/internal/testing/fixtures"
	"github.com/forgo/odmapi/internal/testing/memstore"
	"github.com/forgo/odmapi/internal/testing/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func suiteModels(t *testing.T) []*odm.Model {
	t.Helper()
	article, err := odm.NewModel("article",
		&odm.Field{Name: "title", Kind: odm.KindString},
		&odm.Field{Name: "rank", Kind: odm.KindInt},
		&odm.Field{Name: "seq", Kind: odm.KindInt},
		&odm.Field{Name: "published", Kind: odm.KindBool},
	)
	require.NoError(t, err)
	note, err := odm.NewModel("note", &odm.Field{Name: "seq", Kind: odm.KindInt})
	require.NoError(t, err)
	return []*odm.Model{article, note}
}

// runBackendSuite checks the odm.Backend contract against one implementation.
func runBackendSuite(t *testing.T, newBackend func(t *testing.T) odm.Backend) {
	setup := func(t *testing.T) (odm.Backend, *fixtures.Factory) {
		b := newBackend(t)
		require.NoError(t, b.Init(t.Context(), suiteModels(t)))
		return b, fixtures.New(b)
	}

	t.Run("load missing", func(t *testing.T) {
		b, _ := setup(t)
		_, err := b.Load(t.Context(), "article", "absent")
		assert.ErrorIs(t, err, odm.ErrDocumentNotFound)
	})

	t.Run("save and load", func(t *testing.T) {
		b, f := setup(t)
		saved := f.CreateDocument(t, "article", fixtures.WithData(map[string]any{
			"title": "Hello",
			"rank":  int64(3),
			"tags":  []any{"go", "odm"},
			"meta":  map[string]any{"lang": "en"},
		}), fixtures.ModifiedAfter(time.Hour))

		got, err := b.Load(t.Context(), "article", saved.UID)
		require.NoError(t, err)
		assert.Equal(t, "article", got.Model)
		assert.Equal(t, saved.UID, got.UID)
		assert.Equal(t, "Hello", got.Data["title"])
		assert.Equal(t, "3", fmt.Sprint(got.Data["rank"]))
		assert.Equal(t, []any{"go", "odm"}, got.Data["tags"])
		assert.Equal(t, map[string]any{"lang": "en"}, got.Data["meta"])
		assert.True(t, saved.Created.Equal(got.Created), "created %v != %v", got.Created, saved.Created)
		assert.True(t, saved.Modified.Equal(got.Modified), "modified %v != %v", got.Modified, saved.Modified)
	})

	t.Run("save replaces", func(t *testing.T) {
		b, f := setup(t)
		doc := f.CreateDocument(t, "article", fixtures.WithData(map[string]any{"title": "v1", "rank": int64(1)}))

		doc.Data = map[string]any{"title": "v2"}
		doc.Modified = doc.Created.Add(time.Minute)
		require.NoError(t, b.Save(t.Context(), doc))

		got, err := b.Load(t.Context(), "article", doc.UID)
		require.NoError(t, err)
		assert.Equal(t, "v2", got.Data["title"])
		assert.NotContains(t, got.Data, "rank")
		assert.True(t, doc.Modified.Equal(got.Modified))

		n, err := b.Count(t.Context(), odm.Criteria{Model: "article"})
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("delete", func(t *testing.T) {
		b, f := setup(t)
		doc := f.CreateDocument(t, "article")

		require.NoError(t, b.Delete(t.Context(), "article", doc.UID))
		assert.ErrorIs(t, b.Delete(t.Context(), "article", doc.UID), odm.ErrDocumentNotFound)
		_, err := b.Load(t.Context(), "article", doc.UID)
		assert.ErrorIs(t, err, odm.ErrDocumentNotFound)
	})

	t.Run("models are isolated", func(t *testing.T) {
		b, f := setup(t)
		f.CreateDocuments(t, "article", 2)
		notes := f.CreateDocuments(t, "note", 3)

		n, err := b.Count(t.Context(), odm.Criteria{Model: "note"})
		require.NoError(t, err)
		assert.Equal(t, 3, n)

		_, err = b.Load(t.Context(), "article", notes[0].UID)
		assert.ErrorIs(t, err, odm.ErrDocumentNotFound)
		assert.ErrorIs(t, b.Delete(t.Context(), "article", notes[0].UID), odm.ErrDocumentNotFound)
	})

	t.Run("fetch window in creation order", func(t *testing.T) {
		b, f := setup(t)
		docs := f.CreateDocuments(t, "article", 7)

		got, err := b.Fetch(t.Context(), odm.Criteria{
			Model: "article",
			Sort:  []odm.Order{{Field: odm.SortCreated}},
			Skip:  2,
			Limit: 3,
		})
		require.NoError(t, err)
		assert.Equal(t, uids(docs[2:5]), uids(got))

		got, err = b.Fetch(t.Context(), odm.Criteria{
			Model: "article",
			Sort:  []odm.Order{{Field: odm.SortCreated, Desc: true}},
			Limit: 2,
		})
		require.NoError(t, err)
		assert.Equal(t, []string{docs[6].UID, docs[5].UID}, uids(got))

		got, err = b.Fetch(t.Context(), odm.Criteria{
			Model: "article",
			Sort:  []odm.Order{{Field: odm.SortCreated}},
			Skip:  10,
			Limit: 3,
		})
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("uid selection", func(t *testing.T) {
		b, f := setup(t)
		docs := f.CreateDocuments(t, "article", 5)

		c := odm.Criteria{
			Model:       "article",
			UIDs:        []string{docs[0].UID, docs[1].UID, docs[3].UID, "missing"},
			ExcludeUIDs: []string{docs[1].UID},
			Sort:        []odm.Order{{Field: odm.SortCreated}},
		}
		n, err := b.Count(t.Context(), c)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		got, err := b.Fetch(t.Context(), c)
		require.NoError(t, err)
		assert.Equal(t, []string{docs[0].UID, docs[3].UID}, uids(got))

		c = odm.Criteria{Model: "article", UIDs: []string{}, Sort: []odm.Order{{Field: odm.SortCreated}}}
		n, err = b.Count(t.Context(), c)
		require.NoError(t, err)
		assert.Zero(t, n)
		got, err = b.Fetch(t.Context(), c)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("conditions and data sort", func(t *testing.T) {
		b, f := setup(t)
		ranks := []int64{5, 1, 4, 2, 3}
		docs := make([]*odm.Document, len(ranks))
		for i, r := range ranks {
			docs[i] = f.CreateDocument(t, "article", fixtures.WithData(map[string]any{
				"rank":      r,
				"published": i%2 == 0,
			}))
		}

		c := odm.Criteria{
			Model:      "article",
			Conditions: []odm.Condition{{Field: "published", Value: true}},
			Sort:       []odm.Order{{Field: "rank"}},
		}
		n, err := b.Count(t.Context(), c)
		require.NoError(t, err)
		assert.Equal(t, 3, n)
		got, err := b.Fetch(t.Context(), c)
		require.NoError(t, err)
		assert.Equal(t, []string{docs[4].UID, docs[2].UID, docs[0].UID}, uids(got))

		got, err = b.Fetch(t.Context(), odm.Criteria{
			Model: "article",
			Sort:  []odm.Order{{Field: "rank", Desc: true}},
			Skip:  1,
			Limit: 2,
		})
		require.NoError(t, err)
		assert.Equal(t, []string{docs[2].UID, docs[4].UID}, uids(got))

		got, err = b.Fetch(t.Context(), odm.Criteria{
			Model:      "article",
			Conditions: []odm.Condition{{Field: "rank", Value: int64(2)}},
			Sort:       []odm.Order{{Field: odm.SortCreated}},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{docs[3].UID}, uids(got))
	})

	t.Run("modified sort", func(t *testing.T) {
		b, f := setup(t)
		older := f.CreateDocument(t, "article", fixtures.ModifiedAfter(time.Hour))
		newer := f.CreateDocument(t, "article")

		got, err := b.Fetch(t.Context(), odm.Criteria{
			Model: "article",
			Sort:  []odm.Order{{Field: odm.SortModified, Desc: true}},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{older.UID, newer.UID}, uids(got))
	})

	t.Run("ping", func(t *testing.T) {
		b, _ := setup(t)
		assert.NoError(t, b.Ping(t.Context()))
	})
}

func uids(docs []*odm.Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.UID
	}
	return out
}

func TestMemoryBackend(t *testing.T) {
	runBackendSuite(t, func(t *testing.T) odm.Backend { return memstore.New() })
}

func TestSQLBackend_SQLite(t *testing.T) {
	runBackendSuite(t, func(t *testing.T) odm.Backend {
		return NewSQLBackend(testdb.SQLite(t))
	})
}

func TestSurrealBackend(t *testing.T) {
	runBackendSuite(t, func(t *testing.T) odm.Backend {
		tdb := testdb.New(t)
		t.Cleanup(tdb.Close)
		return NewSurrealBackend(tdb.DB)
	})
}

func TestMongoBackend(t *testing.T) {
	runBackendSuite(t, func(t *testing.T) odm.Backend {
		return NewMongoBackend(testdb.Mongo(t).Database())
	})
}

func TestReindexerBackend(t *testing.T) {
	runBackendSuite(t, func(t *testing.T) odm.Backend {
		db, ns := testdb.Reindexer(t)
		return NewReindexerBackend(db, ns)
	})
}

func TestOpen_SQLite(t *testing.T) {
	cfg := &config.Config{
		Store: config.StoreConfig{Backend: config.BackendSQL},
		SQL:   config.SQLConfig{Type: "sqlite", Name: database.MemorySQLite},
	}

	b, closeFn, err := Open(t.Context(), cfg)
	require.NoError(t, err)
	defer func() { assert.NoError(t, closeFn()) }()

	assert.IsType(t, &SQLBackend{}, b)
	assert.NoError(t, b.Ping(t.Context()))
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, _, err := Open(t.Context(), &config.Config{Store: config.StoreConfig{Backend: "redis"}})
	assert.ErrorContains(t, err, "redis")
}
