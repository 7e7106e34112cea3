package widget

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrTimeout means the widget did not become ready in time.
	ErrTimeout = errors.New("booking widget readiness timed out")
	// ErrUnreachable means the widget script could not be loaded.
	ErrUnreachable = errors.New("booking widget unreachable")
)

// Readiness is a resolve-once signal set by the widget loader.
type Readiness struct {
	once sync.Once
	done chan struct{}
	err  error
}

func NewReadiness() *Readiness {
	return &Readiness{done: make(chan struct{})}
}

// Resolve settles the signal with err (nil means ready). Only the first call
// has an effect; it reports whether this call settled the signal.
func (r *Readiness) Resolve(err error) bool {
	settled := false
	r.once.Do(func() {
		r.err = err
		close(r.done)
		settled = true
	})
	return settled
}

// Done is closed once the signal is resolved.
func (r *Readiness) Done() <-chan struct{} { return r.done }

// Resolved reports whether Resolve has been called, and with which error.
func (r *Readiness) Resolved() (bool, error) {
	select {
	case <-r.done:
		return true, r.err
	default:
		return false, nil
	}
}

// Wait blocks until the signal resolves or ctx ends.
func (r *Readiness) Wait(ctx context.Context) error {
	select {
	case <-r.done:
		return r.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
