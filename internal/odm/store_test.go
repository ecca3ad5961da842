package odm_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgo/odmapi/internal/odm"
	"github.com/forgo/odmapi/internal/testing/memstore"
)

const schema = `
models:
  - name: article
    http_api: {enabled: true}
    fields:
      - {name: title, kind: string, required: true}
      - {name: rank, kind: int}
      - {name: published, kind: bool, default: false}
      - {name: publish_time, kind: datetime}
      - {name: tags, kind: list}
  - name: comment
    fields:
      - {name: body, kind: string}
`

func newStore(t *testing.T) (*odm.Store, *memstore.Backend) {
	t.Helper()
	reg, err := odm.ParseSchema([]byte(schema))
	require.NoError(t, err)
	mem := memstore.New()
	return odm.NewStore(reg, mem), mem
}

func saveArticle(t *testing.T, st *odm.Store, title string, rank int) *odm.Entity {
	t.Helper()
	e, err := st.Dispense("article")
	require.NoError(t, err)
	require.NoError(t, e.Set("title", title))
	require.NoError(t, e.Set("rank", rank))
	require.NoError(t, st.Save(context.Background(), e))
	return e
}

func TestStore_DispenseSaveLoad(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st, _ := newStore(t)

	e, err := st.Dispense("article")
	require.NoError(t, err)
	assert.True(t, e.IsNew())
	published, _ := e.Get("published")
	assert.Equal(t, false, published, "defaults applied on dispense")

	require.NoError(t, e.Set("title", "Hello"))
	require.NoError(t, e.Set("publish_time", "2024-05-01T10:00:00Z"))
	require.NoError(t, e.Set("tags", []any{"go"}))
	require.NoError(t, st.Save(ctx, e))
	assert.False(t, e.IsNew())
	assert.False(t, e.Created().IsZero())

	got, err := st.GetByRef(ctx, e.Ref())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Hello", got.String("title"))
	pt, _ := got.Get("publish_time")
	assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), pt)
	tags, _ := got.Get("tags")
	assert.Equal(t, []any{"go"}, tags)
	assert.Equal(t, e.Created(), got.Created())

	view := got.AsJSONable()
	assert.Equal(t, e.Ref(), view["_ref"])
	assert.Equal(t, "article", view["_model"])
	assert.Equal(t, "2024-05-01T10:00:00Z", view["publish_time"])
	assert.Nil(t, view["rank"])
}

func TestStore_SaveRequiresFields(t *testing.T) {
	t.Parallel()
	st, mem := newStore(t)

	e, err := st.Dispense("article")
	require.NoError(t, err)
	err = st.Save(context.Background(), e)

	var fe *odm.FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "title", fe.Field)
	assert.ErrorIs(t, err, odm.ErrRequired)
	assert.Zero(t, mem.CallsTo("Save"))
}

func TestStore_GetByRefMisses(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st, _ := newStore(t)

	e, err := st.GetByRef(ctx, "article:doesnotexist")
	assert.NoError(t, err)
	assert.Nil(t, e)

	e, err = st.GetByRef(ctx, "garbage")
	assert.NoError(t, err)
	assert.Nil(t, e)

	_, err = st.GetByRef(ctx, "ghost:abc")
	assert.ErrorIs(t, err, odm.ErrModelNotRegistered)

	_, err = st.Dispense("ghost")
	assert.ErrorIs(t, err, odm.ErrModelNotRegistered)
	_, err = st.Find("ghost")
	assert.ErrorIs(t, err, odm.ErrModelNotRegistered)
}

func TestStore_Delete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st, mem := newStore(t)

	e := saveArticle(t, st, "gone", 1)
	require.NoError(t, st.Delete(ctx, e))
	assert.Zero(t, mem.Len())
	assert.ErrorIs(t, st.Delete(ctx, e), odm.ErrDocumentNotFound)

	fresh, _ := st.Dispense("article")
	assert.ErrorIs(t, st.Delete(ctx, fresh), odm.ErrDocumentNotFound)
}

func TestEntity_SetErrors(t *testing.T) {
	t.Parallel()
	st, _ := newStore(t)
	e, _ := st.Dispense("article")

	err := e.Set("nope", 1)
	assert.ErrorIs(t, err, odm.ErrUnknownField)
	_, err = e.Get("nope")
	assert.ErrorIs(t, err, odm.ErrUnknownField)

	err = e.Set("rank", "high")
	var fe *odm.FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "rank", fe.Field)
	assert.ErrorIs(t, err, odm.ErrTypeMismatch)

	require.NoError(t, e.Set("rank", 3))
	require.NoError(t, e.Set("rank", nil))
	v, _ := e.Get("rank")
	assert.Nil(t, v)
}

func TestQuery_FiltersAndWindows(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st, _ := newStore(t)

	var all []*odm.Entity
	for i := range 5 {
		all = append(all, saveArticle(t, st, "t", i))
	}

	q, err := st.Find("article")
	require.NoError(t, err)
	n, err := q.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	q, _ = st.Find("article")
	q, err = q.Sort("rank", true)
	require.NoError(t, err)
	page, err := q.Skip(1).Limit(2).Fetch(ctx)
	require.NoError(t, err)
	require.Len(t, page, 2)
	r0, _ := page[0].Get("rank")
	r1, _ := page[1].Get("rank")
	assert.Equal(t, int64(3), r0)
	assert.Equal(t, int64(2), r1)

	q, _ = st.Find("article")
	q.IncludeRefs(all[0].Ref(), all[1].Ref(), all[2].Ref(), "comment:x").ExcludeRefs(all[1].Ref())
	n, err = q.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	q, _ = st.Find("article")
	_, err = q.Eq("rank", "4")
	require.NoError(t, err)
	got, err := q.Fetch(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, all[4].Ref(), got[0].Ref())

	q, _ = st.Find("article")
	_, err = q.Eq("tags", "x")
	assert.ErrorIs(t, err, odm.ErrTypeMismatch)
	_, err = q.Eq("missing", "x")
	assert.ErrorIs(t, err, odm.ErrUnknownField)
	_, err = q.Sort("missing", false)
	assert.ErrorIs(t, err, odm.ErrUnknownField)
}

func TestQuery_IncludeNothing(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st, mem := newStore(t)
	saveArticle(t, st, "t", 1)
	mem.ResetCalls()

	q, _ := st.Find("article")
	q.IncludeRefs("comment:abc")
	n, err := q.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	items, err := q.Fetch(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Zero(t, mem.Calls(), "an empty include set short-circuits")
}

func TestQuery_Clone(t *testing.T) {
	t.Parallel()
	st, _ := newStore(t)

	q, _ := st.Find("article")
	q.Skip(5)
	c := q.Clone().Skip(0).Limit(3)

	assert.Equal(t, 5, q.Criteria().Skip)
	assert.Equal(t, 0, c.Criteria().Skip)
	assert.Equal(t, []odm.Order{{Field: odm.SortCreated}}, q.Criteria().Sort)
}
