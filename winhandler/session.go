package winhandler

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// session is the handshake state of one Start/Stop cycle. It starts
// uninitialized and flips once, on the first INIT from the companion.
type session struct {
	id          string
	initialized atomic.Bool
}

func newSession() *session {
	return &session{id: uuid.NewString()}
}

// markInitialized reports whether this call performed the transition.
func (s *session) markInitialized() bool {
	return s.initialized.CompareAndSwap(false, true)
}
