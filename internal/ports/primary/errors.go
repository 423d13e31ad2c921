package primary

import "fmt"

// ValidationError rejects a command synchronously, before any pending
// task is created.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// StoreError reports a persistence failure. Store writes are not
// retried automatically; the error is surfaced and in-memory state
// remains the working truth until the next successful write.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store operation %s failed: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
