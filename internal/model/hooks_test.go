package model

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgo/odmapi/internal/odm"
	"github.com/forgo/odmapi/internal/testing/memstore"
)

const hookSchema = `
models:
  - name: article
    http_api: {enabled: true}
    fields:
      - {name: title, kind: string, required: true}
      - {name: body, kind: string}
      - {name: author, kind: string}
      - {name: published, kind: bool, default: false}
      - {name: publish_time, kind: datetime}
  - name: comment
    http_api: {enabled: true}
    fields:
      - {name: thread, kind: ref, model: article, required: true}
      - {name: body, kind: string}
      - {name: email, kind: string}
  - name: account
    fields:
      - {name: login, kind: string}
`

func newHookStore(t *testing.T) *odm.Store {
	t.Helper()
	reg, err := odm.ParseSchema([]byte(hookSchema))
	require.NoError(t, err)
	st := odm.NewStore(reg, memstore.New())
	applied := RegisterExposures(reg, st)
	assert.ElementsMatch(t, []string{ArticleModel, CommentModel}, applied)
	return st
}

func article(t *testing.T, st *odm.Store, title, author string, published bool) *odm.Entity {
	t.Helper()
	e, err := st.Dispense(ArticleModel)
	require.NoError(t, err)
	require.NoError(t, e.Set("title", title))
	require.NoError(t, e.Set("author", author))
	require.NoError(t, e.Set("published", published))
	require.NoError(t, st.Save(context.Background(), e))
	return e
}

func TestArticleExposure_Query(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := newHookStore(t)

	article(t, st, "a", "ann", true)
	article(t, st, "b", "bob", true)
	article(t, st, "c", "ann", false)

	exp, ok := st.Registry().Exposure(ArticleModel)
	require.True(t, ok)

	count := func(p odm.Params) int {
		q, err := st.Find(ArticleModel)
		require.NoError(t, err)
		require.NoError(t, exp.Query(ctx, q, p))
		n, err := q.Count(ctx)
		require.NoError(t, err)
		return n
	}

	assert.Equal(t, 2, count(odm.NewParams()))
	assert.Equal(t, 3, count(odm.NewParams(odm.Param{Key: "drafts", Value: "true"})))
	assert.Equal(t, 1, count(odm.NewParams(odm.Param{Key: "author", Value: "ann"})))
}

func TestArticleExposure_OnCreateAndView(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fixed := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	exp := &ArticleExposure{DefaultExposure: odm.DefaultExposure{Enable: true}, now: func() time.Time { return fixed }}

	st := newHookStore(t)
	e, err := st.Dispense(ArticleModel)
	require.NoError(t, err)
	require.NoError(t, e.Set("title", "t"))
	require.NoError(t, e.Set("body", strings.Repeat("word ", 60)))

	require.NoError(t, exp.OnCreate(ctx, e, odm.NewParams()))
	pt, _ := e.Get("publish_time")
	assert.Equal(t, fixed, pt)

	view, err := exp.View(ctx, e, odm.NewParams())
	require.NoError(t, err)
	ex, _ := view["excerpt"].(string)
	assert.True(t, strings.HasSuffix(ex, "…"))
	assert.LessOrEqual(t, len([]rune(ex)), ExcerptLength+1)
	assert.Equal(t, "2025-01-02T03:04:05Z", view["publish_time"])
}

func TestCommentExposure(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := newHookStore(t)
	a := article(t, st, "a", "ann", true)

	exp, ok := st.Registry().Exposure(CommentModel)
	require.True(t, ok)

	c, _ := st.Dispense(CommentModel)
	require.NoError(t, c.Set("thread", a.Ref()))
	require.NoError(t, c.Set("email", "x@example.com"))
	require.NoError(t, exp.OnCreate(ctx, c, odm.NewParams()))

	view, err := exp.View(ctx, c, odm.NewParams())
	require.NoError(t, err)
	_, hasEmail := view["email"]
	assert.False(t, hasEmail)

	orphan, _ := st.Dispense(CommentModel)
	require.NoError(t, orphan.Set("thread", "article:missing"))
	err = exp.OnCreate(ctx, orphan, odm.NewParams())
	var fe *odm.FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "thread", fe.Field)
	assert.ErrorIs(t, err, odm.ErrTypeMismatch)
}

func TestRegisterExposures_SkipsUnexposed(t *testing.T) {
	t.Parallel()

	reg, err := odm.ParseSchema([]byte("models:\n  - name: article\n    fields: []\n"))
	require.NoError(t, err)
	assert.Empty(t, RegisterExposures(reg, nil))
	_, ok := reg.Exposure(ArticleModel)
	assert.False(t, ok)
}

func TestExcerpt(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "short text", excerpt("  short \n text ", 20))
	assert.Equal(t, "abc…", excerpt("abcdef", 3))
}
