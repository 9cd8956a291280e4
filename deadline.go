package fortress

import (
	"sync"
	"time"
)

// Deadline is a rearmable timer owned by a single client.
//
// Arm and Cancel must be called with the owner's lock held, and the expiry
// callback runs with that same lock held. An expiry that was superseded by a
// later Arm or Cancel never runs.
type Deadline struct {
	lock  sync.Locker
	timer *time.Timer
	gen   uint64
}

func NewDeadline(lock sync.Locker) *Deadline {
	return &Deadline{lock: lock}
}

// Arm schedules fn to run after d, cancelling whatever was pending.
func (t *Deadline) Arm(d time.Duration, fn func()) {
	t.Cancel()
	gen := t.gen
	t.timer = time.AfterFunc(d, func() {
		t.lock.Lock()
		defer t.lock.Unlock()
		if t.gen != gen {
			return
		}
		t.timer = nil
		t.gen++
		fn()
	})
}

// Cancel stops the pending expiry, if any.
func (t *Deadline) Cancel() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.gen++
}

// Armed reports whether an expiry is pending.
func (t *Deadline) Armed() bool {
	return t.timer != nil
}
