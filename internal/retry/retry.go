// Package retry classifies errors as transient or terminal and retries
// transient ones with exponential backoff. The pool runner wraps
// checkpoint and result flushes with it: completed work must never be
// dropped because of a recoverable write failure, and a terminal failure
// must abort the batch before any machine is marked completed.
package retry

import (
	"context"
	"errors"
	"io/fs"
	"syscall"
	"time"
)

type Class string

const (
	ClassTerminal  Class = "terminal"
	ClassTransient Class = "transient"
)

type Decision struct {
	Class  Class
	Reason string
}

func (d Decision) IsTransient() bool {
	return d.Class == ClassTransient
}

type classifiedError struct {
	err    error
	class  Class
	reason string
}

func (e *classifiedError) Error() string {
	return e.err.Error()
}

func (e *classifiedError) Unwrap() error {
	return e.err
}

// Transient marks err as retryable regardless of its underlying type.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &classifiedError{err: err, class: ClassTransient, reason: "explicit_transient"}
}

// Terminal marks err as non-retryable regardless of its underlying type.
func Terminal(err error) error {
	if err == nil {
		return nil
	}
	return &classifiedError{err: err, class: ClassTerminal, reason: "explicit_terminal"}
}

// Classify decides whether an error is worth retrying. Explicit markers
// win; otherwise context cancellation is terminal, deadline expiry and
// resource-pressure filesystem errors are transient, and everything else
// (including missing files) is terminal.
func Classify(err error) Decision {
	if err == nil {
		return Decision{Class: ClassTerminal, Reason: "nil_error"}
	}

	var marked *classifiedError
	if errors.As(err, &marked) {
		return Decision{Class: marked.class, Reason: marked.reason}
	}

	if errors.Is(err, context.Canceled) {
		return Decision{Class: ClassTerminal, Reason: "context_canceled"}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Decision{Class: ClassTransient, Reason: "context_deadline_exceeded"}
	}

	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
		return Decision{Class: ClassTerminal, Reason: "fs_terminal"}
	}
	switch {
	case errors.Is(err, syscall.EAGAIN):
		return Decision{Class: ClassTransient, Reason: "eagain"}
	case errors.Is(err, syscall.EINTR):
		return Decision{Class: ClassTransient, Reason: "eintr"}
	case errors.Is(err, syscall.ENOSPC):
		return Decision{Class: ClassTransient, Reason: "enospc"}
	case errors.Is(err, syscall.EBUSY):
		return Decision{Class: ClassTransient, Reason: "ebusy"}
	}

	return Decision{Class: ClassTerminal, Reason: "unclassified"}
}

// Policy bounds the retry loop.
type Policy struct {
	MaxAttempts    int
	BackoffInitial time.Duration
	BackoffMax     time.Duration
}

// DefaultPolicy matches the write-retry budget used throughout the runner.
var DefaultPolicy = Policy{
	MaxAttempts:    4,
	BackoffInitial: 200 * time.Millisecond,
	BackoffMax:     3 * time.Second,
}

// Do runs fn, retrying transient failures with exponential backoff until
// MaxAttempts is exhausted. The last error is returned unwrapped of any
// classification marker semantics (callers see the original error chain).
func (p Policy) Do(ctx context.Context, fn func() error) error {
	backoff := p.BackoffInitial
	var err error
	for attempt := 1; ; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		if attempt >= p.MaxAttempts || !Classify(err).IsTransient() {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > p.BackoffMax {
			backoff = p.BackoffMax
		}
	}
}
