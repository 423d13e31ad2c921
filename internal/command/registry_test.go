package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveLabel(t *testing.T) {
	assert.Equal(t, "idiomatic_english", Resolve("Idiomatic English"))
}

func TestResolveKey(t *testing.T) {
	assert.Equal(t, "idiomatic_english", Resolve("idiomatic_english"))
}

func TestResolvePrefixed(t *testing.T) {
	assert.Equal(t, "idiomatic_english", Resolve("💡 /Idiomatic English"))
	assert.Equal(t, "summarize", Resolve("💡 /Summarize"))
}

func TestResolvePlainText(t *testing.T) {
	assert.Empty(t, Resolve("random text"))
	assert.Empty(t, Resolve(""))
	assert.Empty(t, Resolve("💡 /unknown thing"))
}

func TestResolveLabelBeforeKey(t *testing.T) {
	// Labels are checked before raw keys, so visible text always takes
	// precedence over identifiers when both could match.
	for _, def := range All() {
		assert.Equal(t, def.Key, Resolve(def.Label))
	}
}

func TestIsCommand(t *testing.T) {
	assert.True(t, IsCommand("Idiomatic English"))
	assert.True(t, IsCommand("💡 /idiomatic_english"))
	assert.False(t, IsCommand("Hello there"))
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Idiomatic English", DisplayName("idiomatic_english"))
	// Unknown keys fall back to the key itself, never an error.
	assert.Equal(t, "made_up", DisplayName("made_up"))
}

func TestLookup(t *testing.T) {
	def, ok := Lookup("summarize")
	require.True(t, ok)
	assert.Equal(t, "Summarize", def.Label)

	_, ok = Lookup("nope")
	assert.False(t, ok)
}

func TestStripPrefix(t *testing.T) {
	assert.Equal(t, "Idiomatic English", StripPrefix("💡 /Idiomatic English"))
	assert.Equal(t, "no prefix here", StripPrefix("no prefix here"))
}
