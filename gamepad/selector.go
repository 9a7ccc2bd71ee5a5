package gamepad

import (
	"sync"

	"github.com/Alia5/winbridge/internal/metrics"
)

// Selector decides which source answers the companion's gamepad queries and
// owns the snapshot buffer of the remembered physical controller.
//
// At most one physical controller is remembered at a time. A virtual profile,
// when active, bypasses physical controller lookups entirely.
type Selector struct {
	mu       sync.Mutex
	current  *Controller
	devices  ControllerProvider
	profiles ProfileSource
	buffer   *StateBuffer
}

// NewSelector builds a selector. profiles may be nil when no on-screen
// profiles exist.
func NewSelector(devices ControllerProvider, profiles ProfileSource) *Selector {
	return &Selector{
		devices:  devices,
		profiles: profiles,
		buffer:   NewStateBuffer(),
	}
}

// Buffer returns the snapshot buffer.
func (s *Selector) Buffer() *StateBuffer { return s.buffer }

// Current returns the remembered physical controller, or nil.
func (s *Selector) Current() *Controller {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *Selector) virtual() Source {
	if s.profiles == nil {
		return nil
	}
	if p := s.profiles.Current(); p != nil && p.Active() {
		return p
	}
	return nil
}

// Gamepad resolves the source answering a GET_GAMEPAD query. Without an
// active virtual profile, a missing or disconnected controller is released
// and controller 0 is acquired from the input subsystem. Returns nil when no
// source is available.
func (s *Selector) Gamepad() Source {
	if v := s.virtual(); v != nil {
		return v
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil || !s.current.Connected() {
		s.releaseLocked()
		if s.devices != nil {
			s.current = s.devices.ControllerAt(0)
		}
		if s.current != nil {
			metrics.Get().ControllerChanges.WithLabelValues("acquire").Inc()
		}
	}
	if s.current == nil {
		return nil
	}
	return s.current
}

// State answers a GET_GAMEPAD_STATE query for gamepadID. A remembered
// controller with a different device id is forgotten, forcing the next
// GET_GAMEPAD to reselect. Buffered snapshots are returned oldest first;
// with an empty buffer the live state of the active source is captured.
func (s *Selector) State(gamepadID int32) (Snapshot, bool) {
	v := s.virtual()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil && s.current.ID() != gamepadID {
		s.current = nil
		metrics.Get().ControllerChanges.WithLabelValues("mismatch").Inc()
	}
	if s.current == nil && v == nil {
		return nil, false
	}
	if snap, ok := s.buffer.Pop(); ok {
		return snap, true
	}
	if v != nil {
		return v.State().Snapshot(), true
	}
	return s.current.State().Snapshot(), true
}

// Release forgets the remembered controller and drops all buffered
// snapshots.
func (s *Selector) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releaseLocked()
}

func (s *Selector) releaseLocked() {
	if s.current != nil {
		metrics.Get().ControllerChanges.WithLabelValues("release").Inc()
	}
	s.current = nil
	s.buffer.Clear()
}

// OnMotionEvent applies ev to the remembered controller when the device ids
// match. State changes are buffered.
func (s *Selector) OnMotionEvent(ev MotionEvent) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.current
	if c == nil || c.ID() != ev.DeviceID {
		return false
	}
	before := c.State()
	handled := c.HandleMotion(ev)
	if handled {
		s.saveIfChangedLocked(c, before)
	}
	return handled
}

// OnKeyEvent applies ev to the remembered controller when the device ids
// match. Repeated key events are ignored.
func (s *Selector) OnKeyEvent(ev KeyEvent) bool {
	if ev.RepeatCount != 0 {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.current
	if c == nil || c.ID() != ev.DeviceID {
		return false
	}
	before := c.State()
	handled := c.HandleKey(ev)
	if handled {
		s.saveIfChangedLocked(c, before)
	}
	return handled
}

// Update replaces the live state of c. The new state is buffered when c is
// the remembered controller and the state changed.
func (s *Selector) Update(c *Controller, st State) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := c.SetState(st)
	if changed && c == s.current {
		s.buffer.Save(st.Snapshot())
	}
	return changed
}

// Save buffers st directly, regardless of the remembered controller.
func (s *Selector) Save(st State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buffer.Save(st.Snapshot())
}

func (s *Selector) saveIfChangedLocked(c *Controller, before State) {
	if after := c.State(); after != before {
		s.buffer.Save(after.Snapshot())
	}
}
