package sync

import (
	"sync"
	"sync/atomic"
)

// CancelBridge is the shared cancellation flag plus a handle to whatever
// stream is currently open. Cancelling both stops further account processing
// and force-closes the in-flight connection, so an active session notices
// immediately instead of at the next loop iteration.
type CancelBridge struct {
	cancelled atomic.Bool

	mu          sync.Mutex
	closeStream func()
}

func NewCancelBridge() *CancelBridge {
	return &CancelBridge{}
}

// RequestCancel sets the flag and closes the active stream, if any.
func (b *CancelBridge) RequestCancel() {
	b.cancelled.Store(true)

	b.mu.Lock()
	closeStream := b.closeStream
	b.mu.Unlock()

	if closeStream != nil {
		closeStream()
	}
}

func (b *CancelBridge) IsCancelled() bool {
	return b.cancelled.Load()
}

// BindActiveStream registers the close function of the stream a session just
// opened. If cancellation already happened, the stream is closed on the spot
// rather than left running until the session's next check.
func (b *CancelBridge) BindActiveStream(closeStream func()) {
	b.mu.Lock()
	b.closeStream = closeStream
	b.mu.Unlock()

	if b.cancelled.Load() && closeStream != nil {
		closeStream()
	}
}

func (b *CancelBridge) ReleaseActiveStream() {
	b.mu.Lock()
	b.closeStream = nil
	b.mu.Unlock()
}
