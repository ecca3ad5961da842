package odm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParams_PreservesOrder(t *testing.T) {
	t.Parallel()

	p := NewParams(
		Param{"zeta", "1"},
		Param{"alpha", "2"},
		Param{"mid", "3"},
		Param{"alpha", "4"},
	)

	assert.Equal(t, []string{"zeta", "alpha", "mid"}, p.Keys())
	assert.Equal(t, "4", p.String("alpha"))

	var seen []string
	for k := range p.All() {
		seen = append(seen, k)
	}
	assert.Equal(t, p.Keys(), seen)
}

func TestParams_Immutable(t *testing.T) {
	t.Parallel()

	base := NewParams(Param{"skip", "0"}, Param{"tag", "go"})

	next := base.With("skip", "10").With("limit", "10")
	trimmed := base.Without("tag")

	assert.Equal(t, "0", base.String("skip"))
	assert.False(t, base.Has("limit"))
	assert.Equal(t, 2, base.Len())

	assert.Equal(t, []string{"skip", "tag", "limit"}, next.Keys())
	assert.Equal(t, "10", next.String("skip"))
	assert.Equal(t, []string{"skip"}, trimmed.Keys())
}

func TestParams_Merge(t *testing.T) {
	t.Parallel()

	a := NewParams(Param{"a", 1}, Param{"b", 2})
	b := NewParams(Param{"c", 3}, Param{"a", 9})

	m := a.Merge(b)
	assert.Equal(t, []string{"a", "b", "c"}, m.Keys())
	v, _ := m.Get("a")
	assert.Equal(t, 9, v)

	v, ok := m.Get("missing")
	assert.Nil(t, v)
	assert.False(t, ok)
	assert.Equal(t, "", NewParams(Param{"n", 5}).String("n"))
}
