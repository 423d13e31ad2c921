package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/example/thoughtstream/internal/ports/primary"
)

// ConversationAdapter is a thin adapter that translates CLI operations
// to ConversationService calls.
type ConversationAdapter struct {
	service primary.ConversationService
	out     io.Writer
}

// NewConversationAdapter creates a new ConversationAdapter with the
// given service.
func NewConversationAdapter(service primary.ConversationService, out io.Writer) *ConversationAdapter {
	return &ConversationAdapter{service: service, out: out}
}

// List lists conversations, most recently updated first.
func (a *ConversationAdapter) List(ctx context.Context, limit int) error {
	summaries, err := a.service.ListConversations(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to list conversations: %w", err)
	}

	if len(summaries) == 0 {
		fmt.Fprintln(a.out, "No conversations yet.")
		fmt.Fprintln(a.out)
		fmt.Fprintln(a.out, "Start one:")
		fmt.Fprintln(a.out, "  thoughtstream chat")
		return nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tTAGS\tUPDATED\tBODY")
	fmt.Fprintln(w, "--\t-----\t----\t-------\t----")
	for _, s := range summaries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			s.ID,
			s.Title,
			strings.Join(s.Tags, ","),
			s.UpdatedAt.Format("2006-01-02 15:04"),
			truncate(s.Body, 48),
		)
	}
	w.Flush()
	return nil
}

// Show renders one conversation in full.
func (a *ConversationAdapter) Show(ctx context.Context, id string) error {
	detail, err := a.service.GetConversation(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get conversation: %w", err)
	}

	fmt.Fprintf(a.out, "%s\n", detail.Summary.Title)
	if len(detail.Summary.Tags) > 0 {
		fmt.Fprintf(a.out, "tags: %s\n", strings.Join(detail.Summary.Tags, ", "))
	}
	fmt.Fprintln(a.out)

	for _, m := range detail.Messages {
		switch {
		case m.SentByUser && m.IsCommand():
			fmt.Fprintf(a.out, "you> [%s]\n", m.CommandLabel)
		case m.SentByUser:
			fmt.Fprintf(a.out, "you> %s\n", m.Text)
		default:
			fmt.Fprintf(a.out, "thoughtstream> %s\n", strings.TrimRight(m.Text, "\n"))
			if m.Analysis != nil {
				for _, rev := range m.Analysis.Revisions {
					for _, issue := range rev.Issues {
						fmt.Fprintf(a.out, "  issue: %s\n", issue)
					}
				}
			}
		}
	}
	return nil
}

// Delete removes a conversation and everything it owns.
func (a *ConversationAdapter) Delete(ctx context.Context, id string) error {
	if err := a.service.DeleteConversation(ctx, id); err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	fmt.Fprintf(a.out, "Deleted conversation %s\n", id)
	return nil
}

func truncate(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
