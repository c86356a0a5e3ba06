package notify

import "sync"

// Capture is a Notifier that records every notice it receives.
// Intended for tests.
type Capture struct {
	mu      sync.Mutex
	notices []Notice
}

func (c *Capture) Notify(n Notice) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notices = append(c.notices, n)
}

// Notices returns a copy of everything recorded so far.
func (c *Capture) Notices() []Notice {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Notice, len(c.notices))
	copy(out, c.notices)
	return out
}

// Last returns the most recent notice, or a zero Notice if none.
func (c *Capture) Last() Notice {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.notices) == 0 {
		return Notice{}
	}
	return c.notices[len(c.notices)-1]
}

// Reset discards all recorded notices.
func (c *Capture) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notices = nil
}
