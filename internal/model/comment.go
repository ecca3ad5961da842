package model

import (
	"context"
	"fmt"

	"github.com/forgo/odmapi/internal/odm"
)

// CommentModel is the schema name of comments.
const CommentModel = "comment"

// CommentExposure serves comments attached to a thread (an article ref).
type CommentExposure struct {
	odm.DefaultExposure
	loader EntityLoader
}

// Query filters by the thread parameter when given.
func (c *CommentExposure) Query(_ context.Context, q *odm.Query, p odm.Params) error {
	if thread := p.String("thread"); thread != "" {
		if _, err := q.Eq("thread", thread); err != nil {
			return err
		}
	}
	return nil
}

// View leaves the author's email out of responses.
func (c *CommentExposure) View(ctx context.Context, e *odm.Entity, p odm.Params) (map[string]any, error) {
	view, err := c.DefaultExposure.View(ctx, e, p)
	if err != nil {
		return nil, err
	}
	delete(view, "email")
	return view, nil
}

// OnCreate requires the thread to exist.
func (c *CommentExposure) OnCreate(ctx context.Context, e *odm.Entity, _ odm.Params) error {
	thread := e.String("thread")
	if thread == "" || c.loader == nil {
		return nil
	}
	target, err := c.loader.GetByRef(ctx, thread)
	if err != nil {
		return err
	}
	if target == nil {
		return &odm.FieldError{
			Field: "thread",
			Err:   fmt.Errorf("%w: %s does not exist", odm.ErrTypeMismatch, thread),
		}
	}
	return nil
}
