package odm

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSchema = `
models:
  - name: article
    http_api:
      enabled: true
    fields:
      - {name: title, kind: string, required: true, max_length: 100}
      - {name: views, kind: int, default: 0}
      - {name: tags, kind: list}
  - name: draft
    http_api:
      enabled: false
    fields:
      - {name: body, kind: string}
  - name: account
    fields:
      - {name: login, kind: string}
      - {name: password, kind: password}
`

func TestParseSchema(t *testing.T) {
	t.Parallel()

	reg, err := ParseSchema([]byte(testSchema))
	require.NoError(t, err)

	models := reg.Models()
	require.Len(t, models, 3)
	assert.Equal(t, "article", models[0].Name)
	assert.Equal(t, "draft", models[1].Name)

	article, err := reg.Model("article")
	require.NoError(t, err)
	title, ok := article.Field("title")
	require.True(t, ok)
	assert.True(t, title.Required)
	assert.Equal(t, 100, title.MaxLength)
	views, _ := article.Field("views")
	assert.Equal(t, int64(0), views.Default)

	exp, ok := reg.Exposure("article")
	require.True(t, ok)
	assert.True(t, exp.Enabled())

	exp, ok = reg.Exposure("draft")
	require.True(t, ok)
	assert.False(t, exp.Enabled())

	_, ok = reg.Exposure("account")
	assert.False(t, ok, "models without http_api are not exposed")

	account, _ := reg.Model("account")
	pw, _ := account.Field("password")
	assert.True(t, pw.Hidden)

	_, err = reg.Model("nope")
	assert.ErrorIs(t, err, ErrModelNotRegistered)
}

func TestParseSchema_Invalid(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"empty":            `models: []`,
		"not yaml":         `models: [`,
		"bad kind":         "models:\n  - name: a\n    fields:\n      - {name: f, kind: blob}\n",
		"underscore field": "models:\n  - name: a\n    fields:\n      - {name: _id, kind: string}\n",
		"duplicate field":  "models:\n  - name: a\n    fields:\n      - {name: f, kind: string}\n      - {name: f, kind: int}\n",
		"bad model name":   "models:\n  - name: A-b\n    fields: []\n",
		"duplicate model":  "models:\n  - name: a\n  - name: a\n",
		"bad default":      "models:\n  - name: a\n    fields:\n      - {name: n, kind: int, default: lots}\n",
	}

	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseSchema([]byte(src))
			assert.ErrorIs(t, err, ErrInvalidSchema)
		})
	}
}

func TestLoadSchema(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "models.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testSchema), 0o600))

	reg, err := LoadSchema(path)
	require.NoError(t, err)
	assert.Len(t, reg.Models(), 3)

	_, err = LoadSchema(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestRegistry_Hook(t *testing.T) {
	t.Parallel()

	reg, err := ParseSchema([]byte(testSchema))
	require.NoError(t, err)

	type custom struct{ DefaultExposure }
	build := func(d DefaultExposure) Exposure { return custom{d} }

	assert.True(t, reg.Hook("article", build))
	exp, _ := reg.Exposure("article")
	_, isCustom := exp.(custom)
	assert.True(t, isCustom)
	assert.True(t, exp.Enabled(), "hook keeps the schema flag")

	assert.False(t, reg.Hook("account", build), "unexposed models stay unexposed")
	assert.False(t, reg.Hook("missing", build))
}
