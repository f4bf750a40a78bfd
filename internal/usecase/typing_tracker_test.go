package usecase

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type publishRecorder struct {
	mu     sync.Mutex
	events []bool
}

func (r *publishRecorder) record(typing bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, typing)
}

func (r *publishRecorder) snapshot() []bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]bool(nil), r.events...)
}

func newTestTracker(idle time.Duration) (*TypingTracker, *publishRecorder) {
	rec := &publishRecorder{}
	tracker := NewTypingTracker(rec.record)
	tracker.idle = idle
	return tracker, rec
}

func TestTypingBurstPublishesOnce(t *testing.T) {
	tracker, rec := newTestTracker(50 * time.Millisecond)
	defer tracker.Close()

	tracker.Keystroke()
	tracker.Keystroke()
	tracker.Keystroke()

	assert.Equal(t, []bool{true}, rec.snapshot())
}

func TestTypingStopsAfterIdle(t *testing.T) {
	tracker, rec := newTestTracker(20 * time.Millisecond)
	defer tracker.Close()

	tracker.Keystroke()
	time.Sleep(80 * time.Millisecond)

	assert.Equal(t, []bool{true, false}, rec.snapshot())
}

func TestKeystrokeExtendsBurst(t *testing.T) {
	tracker, rec := newTestTracker(60 * time.Millisecond)
	defer tracker.Close()

	tracker.Keystroke()
	time.Sleep(30 * time.Millisecond)
	tracker.Keystroke()
	time.Sleep(30 * time.Millisecond)

	// Still inside the extended burst: no stop yet.
	assert.Equal(t, []bool{true}, rec.snapshot())

	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, []bool{true, false}, rec.snapshot())
}

func TestMessageSentStopsImmediately(t *testing.T) {
	tracker, rec := newTestTracker(time.Minute)
	defer tracker.Close()

	tracker.Keystroke()
	tracker.MessageSent()

	require.Equal(t, []bool{true, false}, rec.snapshot())

	// No trailing stop fires later.
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, []bool{true, false}, rec.snapshot())
}

func TestNewBurstAfterSend(t *testing.T) {
	tracker, rec := newTestTracker(time.Minute)
	defer tracker.Close()

	tracker.Keystroke()
	tracker.MessageSent()
	tracker.Keystroke()

	assert.Equal(t, []bool{true, false, true}, rec.snapshot())
}

func TestCloseWithoutActivityPublishesNothing(t *testing.T) {
	tracker, rec := newTestTracker(time.Minute)
	tracker.Close()

	assert.Empty(t, rec.snapshot())
}
