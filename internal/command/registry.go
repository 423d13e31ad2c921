// Package command contains the static registry of session commands.
// Keys are stable English identifiers; labels are the default
// user-visible text a client renders in its command menu.
package command

import "strings"

// Def describes a single registered command.
type Def struct {
	Key   string // stable identifier, e.g. "idiomatic_english"
	Label string // default display text
}

// Prefix marks a command selection sent via a client's command menu,
// e.g. "💡 /Idiomatic English".
const Prefix = "💡 /"

// all is the list of supported commands. Order matters only for
// deterministic iteration; keys are unique.
var all = []Def{
	{Key: "idiomatic_english", Label: "Idiomatic English"},
	{Key: "summarize", Label: "Summarize"},
	{Key: "analyze_topic", Label: "Analyze Topic"},
}

// All returns the registered commands in registration order.
func All() []Def {
	out := make([]Def, len(all))
	copy(out, all)
	return out
}

// Lookup returns the command definition for a key.
func Lookup(key string) (Def, bool) {
	for _, def := range all {
		if def.Key == key {
			return def, true
		}
	}
	return Def{}, false
}

// DisplayName returns the label for a key, falling back to the key
// itself when unknown. Never fails.
func DisplayName(key string) string {
	if def, ok := Lookup(key); ok {
		return def.Label
	}
	return key
}

// Resolve maps user-visible text to an internal command key. The prefix
// marker is stripped if present, then the text is matched against
// display labels before raw keys, so user-visible text wins when a
// label happens to collide with another command's key. Returns "" when
// the text is plain conversational input.
func Resolve(text string) string {
	stripped := StripPrefix(text)
	for _, def := range all {
		if def.Label == stripped {
			return def.Key
		}
	}
	for _, def := range all {
		if def.Key == stripped {
			return def.Key
		}
	}
	return ""
}

// IsCommand reports whether the text resolves to a registered command.
func IsCommand(text string) bool {
	return Resolve(text) != ""
}

// StripPrefix removes the command menu marker if present.
func StripPrefix(text string) string {
	return strings.TrimPrefix(text, Prefix)
}
