// Package clipboard copies code blocks to a clipboard and tracks the
// short-lived "copied" acknowledgement of each block.
package clipboard

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// DefaultAckTTL is how long a block stays in the copied state.
const DefaultAckTTL = 2000 * time.Millisecond

// FailureMessage is reported when a clipboard write fails.
const FailureMessage = "Failed to copy to clipboard"

// State is the display state of one code block's copy action.
type State string

const (
	StateIdle   State = "idle"
	StateCopied State = "copied"
)

// BlockKey identifies a code block within a rendered document.
type BlockKey struct {
	DocumentID string `json:"document_id"`
	BlockID    string `json:"block_id"`
}

// Clipboard writes text to the system clipboard.
type Clipboard interface {
	Write(ctx context.Context, text string) error
}

// ErrorReporter receives user-facing error messages.
type ErrorReporter interface {
	ReportError(msg string)
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithTTL overrides the copied-state duration.
func WithTTL(d time.Duration) Option {
	return func(t *Tracker) {
		if d > 0 {
			t.ttl = d
		}
	}
}

// WithListener registers fn to be called on every state transition.
// fn runs outside the tracker lock.
func WithListener(fn func(BlockKey, State)) Option {
	return func(t *Tracker) { t.listener = fn }
}

type ack struct {
	timer *time.Timer
	gen   uint64
}

// Tracker performs copies and owns the per-block copied state. Blocks are
// independent: copying one never changes another's state.
type Tracker struct {
	clip     Clipboard
	errs     ErrorReporter
	ttl      time.Duration
	listener func(BlockKey, State)

	mu     sync.Mutex
	gen    uint64
	copied map[BlockKey]ack
	closed bool
}

// NewTracker returns a tracker writing through clip and reporting failures
// to errs. errs may be nil.
func NewTracker(clip Clipboard, errs ErrorReporter, opts ...Option) *Tracker {
	t := &Tracker{
		clip:   clip,
		errs:   errs,
		ttl:    DefaultAckTTL,
		copied: make(map[BlockKey]ack),
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// TTL returns the copied-state duration.
func (t *Tracker) TTL() time.Duration { return t.ttl }

// Copy writes text to the clipboard. On success the block is copied for the
// tracker TTL, restarting the timer if it was already copied. On failure the
// error is reported and the block is left idle.
func (t *Tracker) Copy(ctx context.Context, key BlockKey, text string) error {
	if err := t.clip.Write(ctx, text); err != nil {
		t.reset(key)
		if t.errs != nil {
			t.errs.ReportError(FailureMessage)
		}
		return fmt.Errorf("clipboard: copy %s: %w", key.BlockID, err)
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	if prev, ok := t.copied[key]; ok {
		prev.timer.Stop()
	}
	t.gen++
	gen := t.gen
	t.copied[key] = ack{
		gen:   gen,
		timer: time.AfterFunc(t.ttl, func() { t.expire(key, gen) }),
	}
	t.mu.Unlock()

	t.notify(key, StateCopied)
	return nil
}

// State returns the current state of a block.
func (t *Tracker) State(key BlockKey) State {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.copied[key]; ok {
		return StateCopied
	}
	return StateIdle
}

// Copied returns the ids of the blocks of documentID that are currently copied.
func (t *Tracker) Copied(documentID string) map[string]bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]bool)
	for k := range t.copied {
		if k.DocumentID == documentID {
			out[k.BlockID] = true
		}
	}
	return out
}

// Close stops all pending timers. Blocks keep no state afterwards.
func (t *Tracker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	for k, a := range t.copied {
		a.timer.Stop()
		delete(t.copied, k)
	}
}

func (t *Tracker) expire(key BlockKey, gen uint64) {
	t.mu.Lock()
	a, ok := t.copied[key]
	if !ok || a.gen != gen {
		t.mu.Unlock()
		return
	}
	delete(t.copied, key)
	t.mu.Unlock()

	t.notify(key, StateIdle)
}

func (t *Tracker) reset(key BlockKey) {
	t.mu.Lock()
	a, ok := t.copied[key]
	if ok {
		a.timer.Stop()
		delete(t.copied, key)
	}
	t.mu.Unlock()

	if ok {
		t.notify(key, StateIdle)
	}
}

func (t *Tracker) notify(key BlockKey, s State) {
	if t.listener != nil {
		t.listener(key, s)
	}
}
