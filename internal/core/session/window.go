package session

import (
	"strings"

	"github.com/example/thoughtstream/internal/models"
)

// Window selects the slice of conversation history eligible as input to
// a command invocation: the user-authored, non-command messages after
// the most recent prior invocation of the same command key (or
// conversation start if none). This is what prevents re-processing text
// already handled by an earlier invocation of the same command.
//
// upto bounds the scan: messages[upto:] are ignored. Pass the index of
// the triggering command message (or len(messages) when it has not been
// appended yet). The window is derived from persisted history, so it
// survives restarts and reflects any edits made since a failure.
func Window(messages []*models.Message, commandKey string, upto int) []*models.Message {
	if upto > len(messages) {
		upto = len(messages)
	}

	start := 0
	for i := upto - 1; i >= 0; i-- {
		if messages[i].CommandKey == commandKey {
			start = i + 1
			break
		}
	}

	var window []*models.Message
	for _, m := range messages[start:upto] {
		if m.SentByUser && !m.IsCommand() {
			window = append(window, m)
		}
	}
	return window
}

// JoinWindow serializes a window into the text payload sent to the
// execution service. Blank messages contribute nothing.
func JoinWindow(window []*models.Message) string {
	var parts []string
	for _, m := range window {
		if t := strings.TrimSpace(m.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n")
}
