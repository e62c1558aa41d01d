// Package search turns raw search-box keystrokes into settled filter
// queries, either on every keystroke or after a quiet period.
package search

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/user/rowview/internal/logger"
)

// DefaultQuietPeriod is how long lazy mode waits after the last keystroke.
const DefaultQuietPeriod = 400 * time.Millisecond

// Mode selects when a keystroke becomes the effective query.
type Mode string

const (
	// ModeEager applies every keystroke immediately.
	ModeEager Mode = "eager"
	// ModeLazy applies the value once typing pauses for the quiet period.
	ModeLazy Mode = "lazy"
)

// ParseMode accepts "eager" or "lazy", any case.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeEager, ModeLazy:
		return m, nil
	}
	return "", fmt.Errorf("unknown search mode %q (want eager or lazy)", s)
}

// Target receives settled queries.
type Target interface {
	SetFilterQuery(text string)
}

// TargetFunc adapts a function to Target.
type TargetFunc func(text string)

func (f TargetFunc) SetFilterQuery(text string) { f(text) }

// Controller debounces search input in front of a Target. Eager mode is a
// quiet period of zero.
//
// At most one trigger is pending at a time, and the delivered query is
// always the last value seen before it fired. Target must not call back
// into the controller.
type Controller struct {
	target Target
	clock  clock.Clock
	mode   Mode
	quiet  time.Duration
	log    logger.Logger

	quietSet bool

	mu      sync.Mutex
	value   string
	pending *clock.Timer
	gen     uint64
	closed  bool

	// deliverMu keeps deliveries in order.
	deliverMu sync.Mutex
}

// Option configures a Controller.
type Option func(*Controller)

// WithMode sets eager or lazy mode. The default is lazy.
func WithMode(m Mode) Option {
	return func(c *Controller) { c.mode = m }
}

// WithQuietPeriod sets the lazy-mode quiet period.
func WithQuietPeriod(d time.Duration) Option {
	return func(c *Controller) {
		c.quiet = d
		c.quietSet = true
	}
}

// WithClock replaces the wall clock, mainly for tests.
func WithClock(clk clock.Clock) Option {
	return func(c *Controller) { c.clock = clk }
}

// WithLogger sets the logger for delivery traces.
func WithLogger(l logger.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// New creates a controller that feeds target.
func New(target Target, opts ...Option) *Controller {
	c := &Controller{
		target: target,
		clock:  clock.New(),
		mode:   ModeLazy,
		log:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	switch {
	case c.mode == ModeEager:
		c.quiet = 0
	case !c.quietSet:
		c.quiet = DefaultQuietPeriod
	case c.quiet < 0:
		c.quiet = 0
	}
	return c
}

// Mode returns the configured mode.
func (c *Controller) Mode() Mode { return c.mode }

// QuietPeriod returns the effective quiet period; zero means eager.
func (c *Controller) QuietPeriod() time.Duration { return c.quiet }

// OnValueChange records a keystroke. The query is delivered now in eager
// mode or when the text is empty, otherwise after the quiet period unless a
// newer keystroke arrives first.
func (c *Controller) OnValueChange(raw string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.value = raw
	c.cancelLocked()
	gen := c.gen
	if c.quiet <= 0 || raw == "" {
		c.mu.Unlock()
		c.deliver(gen, raw)
		return
	}
	c.pending = c.clock.AfterFunc(c.quiet, func() { c.fire(gen) })
	c.mu.Unlock()
}

// Flush delivers a pending value immediately.
func (c *Controller) Flush() {
	c.mu.Lock()
	if c.closed || c.pending == nil {
		c.mu.Unlock()
		return
	}
	c.cancelLocked()
	gen, text := c.gen, c.value
	c.mu.Unlock()
	c.deliver(gen, text)
}

// Cancel drops the pending trigger, if any.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelLocked()
}

// Close cancels any pending trigger and ignores further input.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.cancelLocked()
}

// Value returns the latest raw text.
func (c *Controller) Value() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// Pending reports whether a trigger is scheduled.
func (c *Controller) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending != nil
}

// cancelLocked stops the pending timer and invalidates any callback that
// already fired but has not delivered yet.
func (c *Controller) cancelLocked() {
	c.gen++
	if c.pending != nil {
		c.pending.Stop()
		c.pending = nil
	}
}

func (c *Controller) fire(gen uint64) {
	c.mu.Lock()
	if c.closed || gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.pending = nil
	text := c.value
	c.mu.Unlock()
	c.deliver(gen, text)
}

func (c *Controller) deliver(gen uint64, text string) {
	c.deliverMu.Lock()
	defer c.deliverMu.Unlock()

	c.mu.Lock()
	stale := c.closed || gen != c.gen
	c.mu.Unlock()
	if stale {
		return
	}
	c.log.Debug("search query settled", "query", text, "mode", c.mode)
	c.target.SetFilterQuery(text)
}
