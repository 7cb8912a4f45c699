package language

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSignal(t *testing.T) {
	assert.Equal(t, "tr", NewSignal(" TR ").Current())
	assert.Equal(t, DefaultLanguage, NewSignal("").Current())
}

func TestSignal_Set(t *testing.T) {
	s := NewSignal("en")

	var got [][2]string
	unsubscribe := s.Subscribe(func(previous, current string) {
		got = append(got, [2]string{previous, current})
	})

	assert.True(t, s.Set("tr"))
	assert.False(t, s.Set("tr"), "same language is not a change")
	assert.False(t, s.Set("  "), "blank language is ignored")
	assert.Equal(t, "tr", s.Current())

	require.Len(t, got, 1)
	assert.Equal(t, [2]string{"en", "tr"}, got[0])

	unsubscribe()
	assert.True(t, s.Set("de"))
	assert.Len(t, got, 1, "unsubscribed listener must not be called")
}
