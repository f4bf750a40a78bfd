package usecase

import (
	"sync"
	"time"
)

const typingIdleTimeout = time.Second

// TypingTracker debounces a composer's keystrokes into at most one
// "typing started" signal and one "typing stopped" signal per burst.
// The publish callback receives true on the first keystroke of a burst
// and false once no keystroke has arrived for the idle timeout, or
// immediately when the message is sent.
type TypingTracker struct {
	publish func(bool)
	idle    time.Duration

	mu     sync.Mutex
	typing bool
	timer  *time.Timer
}

func NewTypingTracker(publish func(bool)) *TypingTracker {
	return &TypingTracker{publish: publish, idle: typingIdleTimeout}
}

// Keystroke registers composer activity and restarts the idle timer.
func (t *TypingTracker) Keystroke() {
	t.mu.Lock()
	wasTyping := t.typing
	t.typing = true
	if t.timer != nil {
		t.timer.Stop()
	}
	t.timer = time.AfterFunc(t.idle, t.idleExpired)
	t.mu.Unlock()

	if !wasTyping {
		t.publish(true)
	}
}

// MessageSent lowers the flag immediately. The stop signal must reach
// the store before the message does, so the receiver never sees a
// typing indicator for a message already delivered.
func (t *TypingTracker) MessageSent() {
	t.stop()
}

// Close lowers the flag if raised and releases the timer. Used on
// thread deselect and session teardown.
func (t *TypingTracker) Close() {
	t.stop()
}

func (t *TypingTracker) stop() {
	t.mu.Lock()
	wasTyping := t.typing
	t.typing = false
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.mu.Unlock()

	if wasTyping {
		t.publish(false)
	}
}

func (t *TypingTracker) idleExpired() {
	t.mu.Lock()
	wasTyping := t.typing
	t.typing = false
	t.timer = nil
	t.mu.Unlock()

	if wasTyping {
		t.publish(false)
	}
}
