package service

import (
	"sync"
	"time"

	"resportal/internal/housing/models"
)

// opFlag is the tri-state busy indicator for one remote operation. After a
// terminal status (success or error) it auto-reverts to idle once the
// display window elapses; starting a new operation cancels any pending
// revert so an overlapping trigger never flips a fresh status back early.
type opFlag struct {
	mu     sync.Mutex
	status models.OpStatus
	timer  *time.Timer
	window time.Duration
}

func newOpFlag(window time.Duration) *opFlag {
	return &opFlag{status: models.OpIdle, window: window}
}

func (f *opFlag) begin() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
	f.status = models.OpBusy
}

func (f *opFlag) finish(ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.timer != nil {
		f.timer.Stop()
	}
	if ok {
		f.status = models.OpSuccess
	} else {
		f.status = models.OpError
	}
	terminal := f.status
	f.timer = time.AfterFunc(f.window, func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.status == terminal {
			f.status = models.OpIdle
			f.timer = nil
		}
	})
}

func (f *opFlag) Status() models.OpStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}
