package secondary

import (
	"context"
	"fmt"
	"sync"

	"github.com/example/thoughtstream/internal/models"
)

// ExecutionClient defines the secondary port for the remote command
// execution service. The client performs no retries of its own; a
// failed execution is reported once and left to the caller.
type ExecutionClient interface {
	// Execute runs a command against the session's windowed input.
	// Fragments arrive on the returned stream in order; the terminal
	// outcome is available once the fragment channel closes.
	Execute(ctx context.Context, req ExecutionRequest) (*ExecutionStream, error)
}

// ExecutionRequest is the structured input for one command execution.
type ExecutionRequest struct {
	SessionID  string
	CommandKey string
	Input      string
	Stream     bool
}

// ExecutionResult is the terminal payload of a successful execution.
// Text is the full response for non-streaming executions (empty when
// the response arrived as fragments); Analysis is optional.
type ExecutionResult struct {
	Text     string
	Analysis *models.Analysis
}

// ExecutionErrorKind classifies execution failures.
type ExecutionErrorKind string

const (
	ErrorKindNetwork   ExecutionErrorKind = "network"
	ErrorKindRemote    ExecutionErrorKind = "remote"
	ErrorKindMalformed ExecutionErrorKind = "malformed"
	ErrorKindCanceled  ExecutionErrorKind = "canceled"
)

// ExecutionError is the single failure shape surfaced by execution
// clients: network failure, non-2xx response, or malformed body.
type ExecutionError struct {
	Kind    ExecutionErrorKind
	Message string
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("execution failed (%s): %s", e.Kind, e.Message)
}

// NewExecutionError builds an ExecutionError wrapping a cause.
func NewExecutionError(kind ExecutionErrorKind, format string, args ...any) *ExecutionError {
	return &ExecutionError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// ExecutionStream carries one execution's incremental output. The
// producer side (a client implementation) yields fragments and then
// finishes or fails exactly once; the consumer ranges over Fragments
// and reads the outcome afterwards. Fragment order is the arrival
// order, with no reordering or deduplication.
type ExecutionStream struct {
	fragments chan string
	done      chan struct{}

	mu     sync.Mutex
	result *ExecutionResult
	err    error
}

// NewExecutionStream creates a stream with the given fragment buffer.
func NewExecutionStream(buffer int) *ExecutionStream {
	return &ExecutionStream{
		fragments: make(chan string, buffer),
		done:      make(chan struct{}),
	}
}

// Fragments returns the ordered fragment channel. It is closed when the
// execution finishes or fails.
func (s *ExecutionStream) Fragments() <-chan string {
	return s.fragments
}

// Outcome blocks until the execution terminates and returns its result
// or error. Exactly one of the two is non-nil.
func (s *ExecutionStream) Outcome() (*ExecutionResult, error) {
	<-s.done
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result, s.err
}

// Yield delivers one fragment to the consumer. Blocks until the
// consumer accepts it or ctx is canceled; returns false on cancel.
func (s *ExecutionStream) Yield(ctx context.Context, fragment string) bool {
	select {
	case s.fragments <- fragment:
		return true
	case <-ctx.Done():
		return false
	}
}

// Finish terminates the stream successfully.
func (s *ExecutionStream) Finish(result *ExecutionResult) {
	s.mu.Lock()
	if result != nil {
		s.result = result
	} else {
		s.result = &ExecutionResult{}
	}
	s.mu.Unlock()
	close(s.fragments)
	close(s.done)
}

// Fail terminates the stream with an error.
func (s *ExecutionStream) Fail(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
	close(s.fragments)
	close(s.done)
}
