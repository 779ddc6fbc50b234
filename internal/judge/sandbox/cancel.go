package sandbox

import (
	"context"

	"github.com/zeromicro/go-zero/core/syncx"
)

// CancelToken stops one judge run. Once cancelled it stays cancelled.
type CancelToken struct {
	ctx     context.Context
	cancel  context.CancelFunc
	stopped *syncx.AtomicBool
}

// NewCancelToken derives a cancellable context from parent.
func NewCancelToken(parent context.Context) *CancelToken {
	ctx, cancel := context.WithCancel(parent)
	return &CancelToken{ctx: ctx, cancel: cancel, stopped: syncx.NewAtomicBool()}
}

// Context is passed to the worker; cancelling the token cancels it.
func (t *CancelToken) Context() context.Context {
	return t.ctx
}

// Cancel requests a stop. It reports whether this call flipped the flag.
func (t *CancelToken) Cancel() bool {
	first := t.stopped.CompareAndSwap(false, true)
	t.cancel()
	return first
}

// Cancelled reports whether Cancel was called.
func (t *CancelToken) Cancelled() bool {
	return t.stopped.True()
}

// Release frees the context resources without marking the run stopped.
func (t *CancelToken) Release() {
	t.cancel()
}
