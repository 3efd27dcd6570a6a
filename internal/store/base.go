package store

import (
	"context"
	"errors"
	"sync"

	"english_edu_dashboard/internal/apiclient"
	"english_edu_dashboard/pkg/logger"

	"go.uber.org/zap"
)

type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusLoaded  Status = "loaded"
	StatusFailed  Status = "failed"
)

var (
	// ErrBusy is returned while the same action is still in flight.
	ErrBusy = errors.New("request already in progress")
	// ErrStale means the store was reset while the request was running; its
	// response has been dropped.
	ErrStale = errors.New("response discarded after store reset")
)

// State is what a screen renders next to the store's data.
type State struct {
	Status    Status `json:"status"`
	LastError string `json:"last_error,omitempty"`
}

// base carries the loading flag, last error and request generation shared by
// every store. Data fields live in the embedding store and are guarded by mu.
type base struct {
	name string

	mu        sync.Mutex
	status    Status
	lastError string
	gen       uint64
	inflight  map[string]bool
}

func newBase(name string) base {
	return base{name: name, status: StatusIdle, inflight: make(map[string]bool)}
}

func (b *base) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return State{Status: b.status, LastError: b.lastError}
}

// Invalidate drops every in-flight response and returns the store to idle.
func (b *base) Invalidate() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.gen++
	b.inflight = make(map[string]bool)
	b.status = StatusIdle
	b.lastError = ""
}

func (b *base) begin(action string) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.inflight[action] {
		return 0, ErrBusy
	}
	b.inflight[action] = true
	b.status = StatusLoading
	return b.gen, nil
}

// finish settles an action. apply runs under mu and only when the request
// succeeded within the current generation.
func (b *base) finish(action string, gen uint64, err error, apply func()) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if gen != b.gen {
		return ErrStale
	}
	delete(b.inflight, action)

	if err != nil {
		b.status = StatusFailed
		b.lastError = apiclient.MessageOf(err)
		logger.Log.Warn("store action failed",
			zap.String("store", b.name),
			zap.String("action", action),
			zap.Int("status", apiclient.StatusOf(err)),
			zap.Error(err))
		return err
	}

	if apply != nil {
		apply()
	}
	if len(b.inflight) == 0 {
		b.status = StatusLoaded
	}
	b.lastError = ""
	return nil
}

// run wraps one backend call with the busy check and generation guard.
func run[T any](ctx context.Context, b *base, action string, call func(context.Context) (T, error), apply func(T)) (T, error) {
	var zero T
	gen, err := b.begin(action)
	if err != nil {
		return zero, err
	}

	v, err := call(ctx)
	if err := b.finish(action, gen, err, func() {
		if apply != nil {
			apply(v)
		}
	}); err != nil {
		return zero, err
	}
	return v, nil
}
