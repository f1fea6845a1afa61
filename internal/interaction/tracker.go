// Package interaction tracks user gestures on the chart and reports when the
// view is busy so automatic scrolling stays out of the user's way.
package interaction

import (
	"time"

	"github.com/alanyoungcy/tickboard/internal/domain"
)

// QuietPeriods holds how long each gesture kind keeps the tracker busy after
// its last event.
type QuietPeriods struct {
	Wheel time.Duration
	Pan   time.Duration
	Zoom  time.Duration
	Touch time.Duration
}

// DefaultQuietPeriods returns the stock debounce windows.
func DefaultQuietPeriods() QuietPeriods {
	return QuietPeriods{
		Wheel: 800 * time.Millisecond,
		Pan:   1500 * time.Millisecond,
		Zoom:  1500 * time.Millisecond,
		Touch: 2000 * time.Millisecond,
	}
}

// For returns the quiet period of a gesture kind. Unknown kinds get the
// pan period.
func (q QuietPeriods) For(kind domain.GestureKind) time.Duration {
	switch kind {
	case domain.GestureWheel:
		return q.Wheel
	case domain.GesturePan:
		return q.Pan
	case domain.GestureZoom:
		return q.Zoom
	case domain.GestureTouch:
		return q.Touch
	}
	return q.Pan
}

// Tracker is the Idle/Busy state machine. It holds no timers: the caller
// feeds it the current time and arms its own timer at Deadline.
type Tracker struct {
	quiet    QuietPeriods
	busy     bool
	deadline time.Time
	last     domain.GestureKind
}

// NewTracker creates an idle Tracker.
func NewTracker(q QuietPeriods) *Tracker {
	return &Tracker{quiet: q}
}

// Gesture records one gesture event at now. Every event, including a phase
// "end", pushes the deadline out to now plus the kind's quiet period. The
// deadline never moves backwards, so a short wheel tick cannot cut a pan's
// grace window short. It returns the new deadline.
func (t *Tracker) Gesture(kind domain.GestureKind, now time.Time) time.Time {
	d := now.Add(t.quiet.For(kind))
	if !t.busy || d.After(t.deadline) {
		t.deadline = d
	}
	t.busy = true
	t.last = kind
	return t.deadline
}

// Busy reports whether a gesture is in progress or within its quiet period.
func (t *Tracker) Busy() bool { return t.busy }

// Deadline returns when the tracker may go idle. It is zero while idle.
func (t *Tracker) Deadline() time.Time {
	if !t.busy {
		return time.Time{}
	}
	return t.deadline
}

// LastKind returns the kind of the most recent gesture.
func (t *Tracker) LastKind() domain.GestureKind { return t.last }

// Expire moves the tracker to idle if the quiet period has elapsed by now.
// It returns true only on the Busy to Idle transition, so a quiet period
// produces exactly one transition no matter how many events it absorbed.
func (t *Tracker) Expire(now time.Time) bool {
	if !t.busy || now.Before(t.deadline) {
		return false
	}
	t.busy = false
	t.deadline = time.Time{}
	return true
}

// Reset forces the tracker idle without reporting a transition.
func (t *Tracker) Reset() {
	t.busy = false
	t.deadline = time.Time{}
}
