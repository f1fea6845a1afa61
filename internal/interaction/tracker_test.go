package interaction

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/alanyoungcy/tickboard/internal/domain"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestTracker_IdleByDefault(t *testing.T) {
	tr := NewTracker(DefaultQuietPeriods())
	assert.False(t, tr.Busy())
	assert.True(t, tr.Deadline().IsZero())
	assert.False(t, tr.Expire(t0))
}

func TestTracker_GestureMakesBusy(t *testing.T) {
	tests := []struct {
		kind  domain.GestureKind
		quiet time.Duration
	}{
		{domain.GestureWheel, 800 * time.Millisecond},
		{domain.GesturePan, 1500 * time.Millisecond},
		{domain.GestureZoom, 1500 * time.Millisecond},
		{domain.GestureTouch, 2000 * time.Millisecond},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			tr := NewTracker(DefaultQuietPeriods())
			deadline := tr.Gesture(tt.kind, t0)

			assert.True(t, tr.Busy())
			assert.Equal(t, t0.Add(tt.quiet), deadline)
			assert.False(t, tr.Expire(t0.Add(tt.quiet-time.Millisecond)))
			assert.True(t, tr.Busy())
			assert.True(t, tr.Expire(t0.Add(tt.quiet)))
			assert.False(t, tr.Busy())
		})
	}
}

func TestTracker_DebounceResetsDeadline(t *testing.T) {
	tr := NewTracker(DefaultQuietPeriods())
	tr.Gesture(domain.GesturePan, t0)
	tr.Gesture(domain.GesturePan, t0.Add(time.Second))
	tr.Gesture(domain.GesturePan, t0.Add(2*time.Second))

	// The first event's deadline has passed but later events pushed it out.
	assert.False(t, tr.Expire(t0.Add(1600*time.Millisecond)))
	assert.True(t, tr.Busy())
	assert.Equal(t, t0.Add(3500*time.Millisecond), tr.Deadline())
}

func TestTracker_IdleTransitionOncePerPeriod(t *testing.T) {
	tr := NewTracker(DefaultQuietPeriods())
	for i := 0; i < 10; i++ {
		tr.Gesture(domain.GestureWheel, t0.Add(time.Duration(i)*100*time.Millisecond))
	}

	transitions := 0
	for step := 0; step < 40; step++ {
		if tr.Expire(t0.Add(time.Duration(step) * 100 * time.Millisecond)) {
			transitions++
		}
	}
	assert.Equal(t, 1, transitions)

	// A new gesture starts a new period with its own single transition.
	tr.Gesture(domain.GestureTouch, t0.Add(10*time.Second))
	assert.False(t, tr.Expire(t0.Add(11*time.Second)))
	assert.True(t, tr.Expire(t0.Add(12*time.Second)))
	assert.False(t, tr.Expire(t0.Add(13*time.Second)))
}

func TestTracker_ShortGestureDoesNotShortenDeadline(t *testing.T) {
	tr := NewTracker(DefaultQuietPeriods())
	tr.Gesture(domain.GestureTouch, t0)
	deadline := tr.Gesture(domain.GestureWheel, t0.Add(100*time.Millisecond))

	assert.Equal(t, t0.Add(2*time.Second), deadline)
	assert.Equal(t, domain.GestureWheel, tr.LastKind())
}

func TestTracker_Reset(t *testing.T) {
	tr := NewTracker(DefaultQuietPeriods())
	tr.Gesture(domain.GestureZoom, t0)
	tr.Reset()
	assert.False(t, tr.Busy())
	assert.False(t, tr.Expire(t0.Add(time.Hour)))
}
