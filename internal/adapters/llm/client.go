// Package llm contains execution-client adapters for the remote
// analysis service.
package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/example/thoughtstream/internal/models"
	"github.com/example/thoughtstream/internal/ports/secondary"
)

// Client executes commands against the remote analysis API over HTTP.
// Streaming responses arrive as server-sent events; the client performs
// no retries — a failure is reported once and left to the orchestrator's
// retry machinery.
type Client struct {
	baseURL    string
	apiKey     string
	stream     bool
	httpClient *http.Client
	logger     *zap.Logger
}

// Config holds the remote client settings.
type Config struct {
	BaseURL string
	APIKey  string
	Stream  bool // request server-sent events instead of a single body
	Timeout time.Duration
}

// NewClient creates a remote execution client.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		stream:     cfg.Stream,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type executeRequest struct {
	Command string       `json:"command"`
	Input   executeInput `json:"input"`
	Stream  bool         `json:"stream"`
}

type executeInput struct {
	Text string `json:"text"`
}

// executeResponse is one response document: the whole body for
// non-streaming calls, one SSE event for streaming ones.
type executeResponse struct {
	Text     string           `json:"text,omitempty"`
	Analysis *models.Analysis `json:"analysis,omitempty"`
	Error    *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Execute runs a command. The returned stream yields fragments in
// arrival order and terminates with the structured analysis, if any.
func (c *Client) Execute(ctx context.Context, req secondary.ExecutionRequest) (*secondary.ExecutionStream, error) {
	if c.apiKey == "" {
		return nil, secondary.NewExecutionError(secondary.ErrorKindRemote, "API key not configured")
	}

	stream := secondary.NewExecutionStream(100)
	go c.run(ctx, req, stream)
	return stream, nil
}

func (c *Client) run(ctx context.Context, req secondary.ExecutionRequest, stream *secondary.ExecutionStream) {
	start := time.Now()
	streaming := req.Stream && c.stream

	body, err := json.Marshal(executeRequest{
		Command: req.CommandKey,
		Input:   executeInput{Text: req.Input},
		Stream:  streaming,
	})
	if err != nil {
		stream.Fail(secondary.NewExecutionError(secondary.ErrorKindMalformed, "failed to marshal request: %v", err))
		return
	}

	url := fmt.Sprintf("%s/v1/sessions/%s/commands", c.baseURL, req.SessionID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		stream.Fail(secondary.NewExecutionError(secondary.ErrorKindNetwork, "failed to create request: %v", err))
		return
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	if streaming {
		httpReq.Header.Set("Accept", "text/event-stream")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			stream.Fail(secondary.NewExecutionError(secondary.ErrorKindCanceled, "execution canceled"))
			return
		}
		stream.Fail(secondary.NewExecutionError(secondary.ErrorKindNetwork, "request failed: %v", err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		stream.Fail(secondary.NewExecutionError(secondary.ErrorKindRemote,
			"API request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody))))
		return
	}

	if !streaming {
		c.consumeSingle(resp.Body, stream)
		return
	}

	c.consumeSSE(ctx, resp.Body, stream)
	c.logger.Debug("execution stream finished",
		zap.String("command", req.CommandKey),
		zap.Duration("elapsed", time.Since(start)))
}

func (c *Client) consumeSingle(body io.Reader, stream *secondary.ExecutionStream) {
	var doc executeResponse
	if err := json.NewDecoder(body).Decode(&doc); err != nil {
		stream.Fail(secondary.NewExecutionError(secondary.ErrorKindMalformed, "failed to decode response: %v", err))
		return
	}
	if doc.Error != nil {
		stream.Fail(secondary.NewExecutionError(secondary.ErrorKindRemote, "%s", doc.Error.Message))
		return
	}
	stream.Finish(&secondary.ExecutionResult{Text: doc.Text, Analysis: doc.Analysis})
}

func (c *Client) consumeSSE(ctx context.Context, body io.Reader, stream *secondary.ExecutionStream) {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var analysis *models.Analysis
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "" {
			continue
		}
		if data == "[DONE]" {
			stream.Finish(&secondary.ExecutionResult{Analysis: analysis})
			return
		}

		var event executeResponse
		if err := json.Unmarshal([]byte(data), &event); err != nil {
			stream.Fail(secondary.NewExecutionError(secondary.ErrorKindMalformed, "malformed stream event: %v", err))
			return
		}
		if event.Error != nil {
			stream.Fail(secondary.NewExecutionError(secondary.ErrorKindRemote, "%s", event.Error.Message))
			return
		}
		if event.Analysis != nil {
			analysis = event.Analysis
		}
		if event.Text != "" {
			if !stream.Yield(ctx, event.Text) {
				stream.Fail(secondary.NewExecutionError(secondary.ErrorKindCanceled, "execution canceled"))
				return
			}
		}
	}

	if err := scanner.Err(); err != nil {
		if ctx.Err() != nil {
			stream.Fail(secondary.NewExecutionError(secondary.ErrorKindCanceled, "execution canceled"))
			return
		}
		stream.Fail(secondary.NewExecutionError(secondary.ErrorKindNetwork, "stream error: %v", err))
		return
	}

	// Stream ended without a [DONE] terminator; treat what arrived as
	// complete rather than dropping it.
	stream.Finish(&secondary.ExecutionResult{Analysis: analysis})
}
