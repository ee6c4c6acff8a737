package metrics

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Request is one in-flight chart load started through a Display.
type Request struct {
	ID     string
	ctx    context.Context
	cancel context.CancelFunc
	ticket uint64
}

// Context is cancelled when a newer request supersedes this one.
func (r *Request) Context() context.Context {
	return r.ctx
}

// DisplayState is the currently shown chart. A nil Series with a nil Err
// means nothing has loaded yet.
type DisplayState struct {
	Series    *Series
	Err       error
	RequestID string
	UpdatedAt time.Time
}

// Display is the single "currently displayed series" cell. Only the most
// recently begun request may write it: starting a request cancels the one
// before it, and a late completion from a superseded request is discarded.
type Display struct {
	mu       sync.Mutex
	latest   uint64
	applied  uint64
	inflight context.CancelFunc
	state    DisplayState
}

// Begin starts a new request derived from ctx and cancels the previous one.
func (d *Display) Begin(ctx context.Context) *Request {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.inflight != nil {
		d.inflight()
	}
	d.latest++
	rctx, cancel := context.WithCancel(ctx)
	d.inflight = cancel
	return &Request{ID: uuid.NewString(), ctx: rctx, cancel: cancel, ticket: d.latest}
}

// Complete records the result of r. It reports whether the result was
// applied; results of superseded requests are not, and neither is a
// cancellation of the latest request by its caller, which leaves the
// previous state on display.
func (d *Display) Complete(r *Request, s *Series, err error) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	defer r.cancel()

	if r.ticket != d.latest || r.ticket <= d.applied {
		return false
	}
	if errors.Is(err, context.Canceled) {
		d.inflight = nil
		return false
	}
	d.applied = r.ticket
	d.inflight = nil
	d.state = DisplayState{Series: s, Err: err, RequestID: r.ID, UpdatedAt: time.Now()}
	return true
}

// Current returns the displayed state.
func (d *Display) Current() DisplayState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Load runs fn as a new request and publishes its result if it is still the
// latest when it finishes.
func (d *Display) Load(ctx context.Context, fn func(context.Context) (*Series, error)) (*Series, bool, error) {
	r := d.Begin(ctx)
	s, err := fn(r.Context())
	return s, d.Complete(r, s, err), err
}
