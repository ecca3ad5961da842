package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgo/odmapi/internal/database"
	"github.com/forgo/odmapi/internal/model"
	"github.com/forgo/odmapi/internal/odm"
	"github.com/forgo/odmapi/internal/service"
)

// ============================================================================
// Mock EntityService
// ============================================================================

type mockEntityService struct {
	listFunc   func(ctx context.Context, model string, p odm.Params) (*service.Page, error)
	getFunc    func(ctx context.Context, ref string, p odm.Params) (map[string]any, error)
	createFunc func(ctx context.Context, model string, p odm.Params) (map[string]any, error)
	updateFunc func(ctx context.Context, ref string, p odm.Params) (map[string]any, error)
	deleteFunc func(ctx context.Context, ref string, p odm.Params) error
	models     []service.ModelInfo
}

func (m *mockEntityService) List(ctx context.Context, model string, p odm.Params) (*service.Page, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, model, p)
	}
	return &service.Page{Items: []map[string]any{}, Limit: 10, Links: service.PageLinks(0, 0, 10)}, nil
}

func (m *mockEntityService) Get(ctx context.Context, ref string, p odm.Params) (map[string]any, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, ref, p)
	}
	return map[string]any{"_ref": ref}, nil
}

func (m *mockEntityService) Create(ctx context.Context, model string, p odm.Params) (map[string]any, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, model, p)
	}
	return map[string]any{"_ref": model + ":new"}, nil
}

func (m *mockEntityService) Update(ctx context.Context, ref string, p odm.Params) (map[string]any, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, ref, p)
	}
	return map[string]any{"_ref": ref}, nil
}

func (m *mockEntityService) Delete(ctx context.Context, ref string, p odm.Params) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, ref, p)
	}
	return nil
}

func (m *mockEntityService) Models() []service.ModelInfo {
	return m.models
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func newMockRouter(svc *mockEntityService) http.Handler {
	health := NewHealthHandler(pingFunc(func(context.Context) error { return nil }), "memory")
	return NewRouter(Routes(NewEntityHandler(svc), health))
}

func serve(h http.Handler, method, target, contentType, body string) *httptest.ResponseRecorder {
	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		r = httptest.NewRequest(method, target, nil)
	}
	if contentType != "" {
		r.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) model.ProblemDetails {
	t.Helper()
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	var pd model.ProblemDetails
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&pd))
	return pd
}

// ============================================================================
// Handler Tests
// ============================================================================

func TestEntityHandler_List_WritesArrayAndHeaders(t *testing.T) {
	t.Parallel()

	var gotModel string
	var gotParams odm.Params
	svc := &mockEntityService{
		listFunc: func(_ context.Context, model string, p odm.Params) (*service.Page, error) {
			gotModel, gotParams = model, p
			return &service.Page{
				Items: []map[string]any{{"_ref": "article:a"}, {"_ref": "article:b"}},
				Total: 25, Skip: 0, Limit: 10,
				Links: service.PageLinks(25, 0, 10),
			}, nil
		},
	}

	rec := serve(newMockRouter(svc), http.MethodGet, "/odm/entities/article?tag=go&limit=10", "", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "article", gotModel)
	assert.Equal(t, []string{"tag", "limit"}, gotParams.Keys())
	assert.Equal(t, "25", rec.Header().Get("X-Total-Count"))
	assert.Equal(t,
		`</odm/entities/article?tag=go&limit=10&skip=0>; rel="first", `+
			`</odm/entities/article?tag=go&limit=10&skip=15>; rel="last", `+
			`</odm/entities/article?tag=go&limit=10&skip=10>; rel="next"`,
		rec.Header().Get("Link"))

	var items []map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&items))
	assert.Len(t, items, 2)
}

func TestEntityHandler_List_LinksIgnoreHostHeaders(t *testing.T) {
	svc := &mockEntityService{
		listFunc: func(context.Context, string, odm.Params) (*service.Page, error) {
			return &service.Page{Total: 3, Limit: 2, Links: service.PageLinks(3, 0, 2)}, nil
		},
	}

	r := httptest.NewRequest(http.MethodGet, "/odm/entities/article?limit=2", nil)
	r.Host = "attacker.example"
	r.Header.Set("X-Forwarded-Proto", "https")
	rec := httptest.NewRecorder()
	newMockRouter(svc).ServeHTTP(rec, r)

	require.Equal(t, http.StatusOK, rec.Code)
	link := rec.Header().Get("Link")
	assert.NotContains(t, link, "attacker.example")
	assert.NotContains(t, link, "https:")
	assert.Contains(t, link, `</odm/entities/article?limit=2&skip=2>; rel="next"`)
}

func TestEntityHandler_Create_Returns201WithLocation(t *testing.T) {
	t.Parallel()

	var got odm.Params
	svc := &mockEntityService{
		createFunc: func(_ context.Context, model string, p odm.Params) (map[string]any, error) {
			got = p
			return map[string]any{"_ref": model + ":abc", "title": p.String("title")}, nil
		},
	}

	rec := serve(newMockRouter(svc), http.MethodPost, "/odm/entity/article", "application/json", `{"title":"Hi","body":"x"}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "/odm/entity/article:abc", rec.Header().Get("Location"))
	assert.Equal(t, []string{"title", "body"}, got.Keys())
}

func TestEntityHandler_Delete_ReturnsStatusTrue(t *testing.T) {
	t.Parallel()

	rec := serve(newMockRouter(&mockEntityService{}), http.MethodDelete, "/odm/entity/article:abc", "", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":true}`, rec.Body.String())
}

func TestEntityHandler_ErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		err    error
		status int
		code   model.ErrorCode
	}{
		{"model not registered", service.ErrModelNotRegistered, http.StatusNotFound, model.ErrCodeNotFound},
		{"entity not found", service.ErrEntityNotFound, http.StatusNotFound, model.ErrCodeNotFound},
		{"forbidden", service.ErrForbidden, http.StatusForbidden, model.ErrCodeForbidden},
		{"operation forbidden", service.ErrOperationForbidden, http.StatusForbidden, model.ErrCodeOperationForbidden},
		{"invalid field", &service.FieldError{Field: "_id", Err: service.ErrInvalidField}, http.StatusUnprocessableEntity, model.ErrCodeValidation},
		{"invalid parameter", service.ErrInvalidParameter, http.StatusBadRequest, model.ErrCodeInvalidInput},
		{"storage down", database.ErrConnection, http.StatusServiceUnavailable, model.ErrCodeDatabase},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, model.ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc := &mockEntityService{
				getFunc: func(context.Context, string, odm.Params) (map[string]any, error) { return nil, tt.err },
			}
			rec := serve(newMockRouter(svc), http.MethodGet, "/odm/entity/article:abc", "", "")

			require.Equal(t, tt.status, rec.Code)
			pd := decodeProblem(t, rec)
			assert.Equal(t, tt.code, pd.Code)
			assert.Equal(t, "/odm/entity/article:abc", pd.Instance)
			if tt.status == http.StatusInternalServerError {
				assert.NotContains(t, pd.Detail, "boom")
			}
		})
	}
}

func TestEntityHandler_FieldErrorDetail(t *testing.T) {
	t.Parallel()

	svc := &mockEntityService{
		updateFunc: func(context.Context, string, odm.Params) (map[string]any, error) {
			return nil, &service.FieldError{Field: "tags", Err: service.ErrInvalidFieldFormat, Detail: "unexpected end of JSON input"}
		},
	}
	rec := serve(newMockRouter(svc), http.MethodPatch, "/odm/entity/article:abc", "application/x-www-form-urlencoded", "tags=%5B1")

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	pd := decodeProblem(t, rec)
	require.Len(t, pd.Errors, 1)
	assert.Equal(t, "tags", pd.Errors[0].Field)
	assert.Equal(t, "invalid format of the field: unexpected end of JSON input", pd.Errors[0].Message)
}

func TestEntityHandler_MalformedBody(t *testing.T) {
	t.Parallel()

	called := false
	svc := &mockEntityService{
		createFunc: func(context.Context, string, odm.Params) (map[string]any, error) {
			called = true
			return nil, nil
		},
	}
	rec := serve(newMockRouter(svc), http.MethodPost, "/odm/entity/article", "application/json", `{"title":`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, called)
}

func TestEntityHandler_Models(t *testing.T) {
	t.Parallel()

	svc := &mockEntityService{models: []service.ModelInfo{{Name: "article", Fields: []service.FieldInfo{{Name: "title", Kind: odm.KindString}}}}}
	rec := serve(newMockRouter(svc), http.MethodGet, "/odm/models", "", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"name":"article","fields":[{"name":"title","kind":"string"}]}]`, rec.Body.String())
}

func TestHealthHandler(t *testing.T) {
	t.Parallel()

	down := NewHealthHandler(pingFunc(func(context.Context) error { return database.ErrConnection }), "surreal")
	rec := httptest.NewRecorder()
	down.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = serve(newMockRouter(&mockEntityService{}), http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","backend":"memory"}`, rec.Body.String())
}
