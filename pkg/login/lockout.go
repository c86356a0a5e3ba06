package login

import (
	"fmt"
	"time"
)

// beginLockout disables the form and starts the one-second countdown.
// The countdown is purely presentational; whether the account is
// actually locked is the server's call.
func (f *Flow) beginLockout(d time.Duration) {
	f.mu.Lock()
	if f.countdownStop != nil {
		close(f.countdownStop)
	}
	stop := make(chan struct{})
	f.countdownStop = stop
	f.state = StateLockedOut
	f.lockoutDeadline = f.cfg.Clock().Add(d)
	f.errorMessage = fmt.Sprintf("Too many failed attempts. Try again in %s.", FormatRemaining(d))
	f.mu.Unlock()

	if f.cfg.OnLockoutTick != nil {
		f.cfg.OnLockoutTick(d)
	}

	go f.countdown(stop)
}

func (f *Flow) countdown(stop chan struct{}) {
	ticker := time.NewTicker(f.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if done := f.tick(); done {
				return
			}
		}
	}
}

// tick advances the countdown once. Returns true when the lockout has
// expired and the form was re-enabled.
func (f *Flow) tick() bool {
	f.mu.Lock()
	rem := f.lockoutDeadline.Sub(f.cfg.Clock())
	if rem <= 0 {
		// Lockout over: clear the error and re-enable the form.
		f.state = StateIdle
		f.errorMessage = ""
		f.lockoutDeadline = time.Time{}
		f.countdownStop = nil
		f.mu.Unlock()
		if f.cfg.OnLockoutTick != nil {
			f.cfg.OnLockoutTick(0)
		}
		return true
	}
	f.errorMessage = fmt.Sprintf("Too many failed attempts. Try again in %s.", FormatRemaining(rem))
	f.mu.Unlock()
	if f.cfg.OnLockoutTick != nil {
		f.cfg.OnLockoutTick(rem)
	}
	return false
}

// FormatRemaining renders a countdown duration as "5m 0s" / "42s".
func FormatRemaining(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Round(time.Second) / time.Second)
	minutes := total / 60
	seconds := total % 60
	if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%ds", seconds)
}
