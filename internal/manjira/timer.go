package manjira

import "time"

// Handle is a pending poll that can be cancelled.
type Handle interface {
	// Stop cancels the poll. It reports false if the poll already ran.
	Stop() bool
}

// Timer arms one-shot polls. The scheduler keeps at most one armed at a time.
type Timer interface {
	AfterFunc(d time.Duration, f func()) Handle
}

// WallTimer arms polls on the runtime timer.
type WallTimer struct{}

func (WallTimer) AfterFunc(d time.Duration, f func()) Handle {
	return time.AfterFunc(d, f)
}
