package llm

import (
	"context"
	"strings"
	"time"

	"github.com/example/thoughtstream/internal/models"
	"github.com/example/thoughtstream/internal/ports/secondary"
)

// LocalClient is a network-free execution backend that yields scripted
// fragments with small delays, mimicking token streaming. Useful for
// demos and offline development.
type LocalClient struct {
	// Delay between fragments. Zero is allowed (tests).
	Delay time.Duration
}

// NewLocalClient creates a local canned execution client.
func NewLocalClient(delay time.Duration) *LocalClient {
	return &LocalClient{Delay: delay}
}

// Execute yields a canned response for the command.
func (c *LocalClient) Execute(ctx context.Context, req secondary.ExecutionRequest) (*secondary.ExecutionStream, error) {
	chunks, analysis := c.script(req)

	stream := secondary.NewExecutionStream(len(chunks))
	go func() {
		for i, chunk := range chunks {
			if c.Delay > 0 {
				select {
				case <-time.After(c.Delay + time.Duration(i)*c.Delay/4):
				case <-ctx.Done():
					stream.Fail(secondary.NewExecutionError(secondary.ErrorKindCanceled, "execution canceled"))
					return
				}
			}
			if !stream.Yield(ctx, chunk) {
				stream.Fail(secondary.NewExecutionError(secondary.ErrorKindCanceled, "execution canceled"))
				return
			}
		}
		stream.Finish(&secondary.ExecutionResult{Analysis: analysis})
	}()
	return stream, nil
}

func (c *LocalClient) script(req secondary.ExecutionRequest) ([]string, *models.Analysis) {
	switch req.CommandKey {
	case "idiomatic_english":
		rewritten := idiomaticRewrite(req.Input)
		return splitChunks("Here's a more idiomatic version: \n\n" + rewritten),
			&models.Analysis{
				Revisions: []models.Revision{{
					Original:  req.Input,
					Rewritten: rewritten,
				}},
			}
	case "summarize":
		return splitChunks("Summary: " + firstLine(req.Input)), nil
	default:
		return []string{"Command received: " + req.CommandKey + ". ", "This is a locally simulated streaming response."}, nil
	}
}

// idiomaticRewrite is a deliberately naive rewrite; a real backend
// produces this server-side.
func idiomaticRewrite(text string) string {
	trimmed := strings.TrimSpace(text)
	lower := strings.ToLower(trimmed)
	switch {
	case strings.HasPrefix(lower, "i write to you"):
		return "I'm writing to ask for your help regarding…"
	case strings.HasPrefix(lower, "please help"):
		return "Could you please help me with…"
	default:
		return trimmed
	}
}

// splitChunks breaks text into 2-4 rough pieces to mimic streaming.
func splitChunks(text string) []string {
	runes := []rune(text)
	bounds := []int{24, 64}
	var chunks []string
	prev := 0
	for _, b := range bounds {
		if b >= len(runes) {
			break
		}
		chunks = append(chunks, string(runes[prev:b]))
		prev = b
	}
	if prev < len(runes) {
		chunks = append(chunks, string(runes[prev:]))
	}
	if len(chunks) == 0 {
		chunks = []string{""}
	}
	return chunks
}

func firstLine(text string) string {
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		return text[:i]
	}
	return text
}
