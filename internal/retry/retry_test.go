package retry

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Class
	}{
		{"nil", nil, ClassTerminal},
		{"context canceled", context.Canceled, ClassTerminal},
		{"deadline exceeded", context.DeadlineExceeded, ClassTransient},
		{"not exist", fs.ErrNotExist, ClassTerminal},
		{"permission", fs.ErrPermission, ClassTerminal},
		{"eagain", syscall.EAGAIN, ClassTransient},
		{"eintr", syscall.EINTR, ClassTransient},
		{"enospc", syscall.ENOSPC, ClassTransient},
		{"ebusy", syscall.EBUSY, ClassTransient},
		{"plain error", errors.New("boom"), ClassTerminal},
		{"wrapped enospc", fmt.Errorf("flush results: %w", syscall.ENOSPC), ClassTransient},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err).Class)
		})
	}
}

func TestClassify_ExplicitMarkersWin(t *testing.T) {
	// A missing file is normally terminal; an explicit marker overrides.
	d := Classify(Transient(fs.ErrNotExist))
	assert.True(t, d.IsTransient())
	assert.Equal(t, "explicit_transient", d.Reason)

	d = Classify(Terminal(syscall.EAGAIN))
	assert.False(t, d.IsTransient())
	assert.Equal(t, "explicit_terminal", d.Reason)
}

func TestMarkers_PreserveChain(t *testing.T) {
	base := errors.New("boom")
	assert.ErrorIs(t, Transient(base), base)
	assert.ErrorIs(t, Terminal(base), base)
	assert.NoError(t, Transient(nil))
	assert.NoError(t, Terminal(nil))
}

func fastPolicy() Policy {
	return Policy{MaxAttempts: 4, BackoffInitial: time.Millisecond, BackoffMax: 4 * time.Millisecond}
}

func TestDo_SucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	err := fastPolicy().Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return Transient(errors.New("flaky"))
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_TerminalStopsImmediately(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	err := fastPolicy().Do(context.Background(), func() error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	calls := 0
	err := fastPolicy().Do(context.Background(), func() error {
		calls++
		return Transient(errors.New("still down"))
	})
	require.Error(t, err)
	assert.Equal(t, 4, calls)
}

func TestDo_CanceledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	policy := Policy{MaxAttempts: 3, BackoffInitial: time.Minute, BackoffMax: time.Minute}

	calls := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	err := policy.Do(ctx, func() error {
		calls++
		return Transient(errors.New("flaky"))
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
