package opt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaybeZeroValueIsUndefined(t *testing.T) {
	var m Maybe[string]
	assert.False(t, m.IsDefined())
	assert.Equal(t, "", m.Value())
	assert.Equal(t, "fallback", m.OrElse("fallback"))
	assert.Equal(t, "[none]", m.String())
}

func TestMaybeSome(t *testing.T) {
	m := Some(3)
	assert.True(t, m.IsDefined())
	assert.Equal(t, 3, m.Value())
	assert.Equal(t, 3, m.OrElse(4))
	assert.Equal(t, "3", m.String())
}

func TestMaybeNone(t *testing.T) {
	m := None[int]()
	assert.False(t, m.IsDefined())
	assert.Equal(t, 0, m.Value())
	assert.Equal(t, 4, m.OrElse(4))
}
