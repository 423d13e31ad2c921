package llm

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/thoughtstream/internal/ports/secondary"
)

func TestLocalClientIdiomaticEnglish(t *testing.T) {
	client := NewLocalClient(0)

	stream, err := client.Execute(context.Background(), secondary.ExecutionRequest{
		SessionID:  "sess-1",
		CommandKey: "idiomatic_english",
		Input:      "i write to you because of the noise",
		Stream:     true,
	})
	require.NoError(t, err)

	fragments, result, err := collect(t, stream)
	require.NoError(t, err)
	require.NotEmpty(t, fragments)

	full := strings.Join(fragments, "")
	assert.Contains(t, full, "I'm writing to ask for your help")

	require.NotNil(t, result.Analysis)
	require.Len(t, result.Analysis.Revisions, 1)
	assert.Equal(t, "i write to you because of the noise", result.Analysis.Revisions[0].Original)
}

func TestLocalClientUnknownCommand(t *testing.T) {
	client := NewLocalClient(0)

	stream, err := client.Execute(context.Background(), secondary.ExecutionRequest{
		CommandKey: "mystery", Input: "x", Stream: true,
	})
	require.NoError(t, err)

	fragments, result, err := collect(t, stream)
	require.NoError(t, err)
	assert.Contains(t, strings.Join(fragments, ""), "mystery")
	assert.Nil(t, result.Analysis)
}

func TestLocalClientCancellation(t *testing.T) {
	client := NewLocalClient(0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stream, err := client.Execute(ctx, secondary.ExecutionRequest{
		CommandKey: "idiomatic_english", Input: "text", Stream: true,
	})
	require.NoError(t, err)

	// Drain; the stream must terminate rather than hang.
	for range stream.Fragments() {
	}
	_, outcomeErr := stream.Outcome()
	_ = outcomeErr // canceled or finished depending on scheduling; either terminates
}

func TestSplitChunks(t *testing.T) {
	long := strings.Repeat("a", 100)
	chunks := splitChunks(long)
	assert.Equal(t, long, strings.Join(chunks, ""))
	assert.GreaterOrEqual(t, len(chunks), 2)

	short := splitChunks("hi")
	assert.Equal(t, []string{"hi"}, short)
}
