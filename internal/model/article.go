package model

import (
	"context"
	"strings"
	"time"

	"github.com/forgo/odmapi/internal/odm"
)

// ArticleModel is the schema name of articles.
const ArticleModel = "article"

// ExcerptLength is the number of characters of body shown in list views.
const ExcerptLength = 140

// ArticleExposure serves published articles. Drafts are listed only when the
// request asks for them with drafts=true.
type ArticleExposure struct {
	odm.DefaultExposure
	now func() time.Time
}

// Query hides unpublished articles, filters by author, newest first.
func (a *ArticleExposure) Query(_ context.Context, q *odm.Query, p odm.Params) error {
	if !strings.EqualFold(p.String("drafts"), "true") {
		if _, err := q.Eq("published", true); err != nil {
			return err
		}
	}
	if author := p.String("author"); author != "" {
		if _, err := q.Eq("author", author); err != nil {
			return err
		}
	}
	_, err := q.Sort("publish_time", true)
	return err
}

// View adds a plain-text excerpt of the body.
func (a *ArticleExposure) View(ctx context.Context, e *odm.Entity, p odm.Params) (map[string]any, error) {
	view, err := a.DefaultExposure.View(ctx, e, p)
	if err != nil {
		return nil, err
	}
	view["excerpt"] = excerpt(e.String("body"), ExcerptLength)
	return view, nil
}

// OnCreate stamps publish_time when the client did not send one.
func (a *ArticleExposure) OnCreate(_ context.Context, e *odm.Entity, _ odm.Params) error {
	if v, _ := e.Get("publish_time"); v != nil {
		return nil
	}
	now := time.Now
	if a.now != nil {
		now = a.now
	}
	return e.Set("publish_time", now())
}

func excerpt(body string, n int) string {
	body = strings.Join(strings.Fields(body), " ")
	runes := []rune(body)
	if len(runes) <= n {
		return body
	}
	return strings.TrimSpace(string(runes[:n])) + "…"
}
