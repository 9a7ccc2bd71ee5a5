package gamepad

import "sync"

// Controller is a physical gamepad known to the input subsystem. Its live
// state is updated from motion and key events.
type Controller struct {
	mu        sync.RWMutex
	id        int32
	name      string
	connected bool
	state     State
	dpad      [4]bool
}

// NewController returns a connected controller in the neutral state.
func NewController(id int32, name string) *Controller {
	return &Controller{id: id, name: name, connected: true, state: NewState()}
}

func (c *Controller) ID() int32    { return c.id }
func (c *Controller) Name() string { return c.name }

// Active reports whether the controller is still connected.
func (c *Controller) Active() bool { return c.Connected() }

func (c *Controller) Connected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

func (c *Controller) SetConnected(connected bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = connected
}

// State returns a copy of the live state.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// SetState replaces the live state and reports whether it changed.
func (c *Controller) SetState(s State) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	changed := c.state != s
	c.state = s
	return changed
}

// HandleMotion applies axis positions from ev. It reports whether any axis
// was recognized.
func (c *Controller) HandleMotion(ev MotionEvent) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	handled := false
	for axis, v := range ev.Axes {
		switch axis {
		case AxisX:
			c.state.LX = stickValue(v)
		case AxisY:
			c.state.LY = stickValue(v)
		case AxisZ:
			c.state.RX = stickValue(v)
		case AxisRZ:
			c.state.RY = stickValue(v)
		case AxisLTrigger, AxisBrake:
			c.state.LT = triggerValue(v)
		case AxisRTrigger, AxisGas:
			c.state.RT = triggerValue(v)
		case AxisHatX:
			c.dpad[dpadLeft] = v < -0.5
			c.dpad[dpadRight] = v > 0.5
			c.state.Hat = c.hat()
		case AxisHatY:
			c.dpad[dpadUp] = v < -0.5
			c.dpad[dpadDown] = v > 0.5
			c.state.Hat = c.hat()
		default:
			continue
		}
		handled = true
	}
	return handled
}

// HandleKey applies a button press or release. Unknown keys are ignored.
func (c *Controller) HandleKey(ev KeyEvent) bool {
	pressed := ev.Action == KeyDown

	c.mu.Lock()
	defer c.mu.Unlock()

	if bit, ok := keyButtons[ev.KeyCode]; ok {
		if pressed {
			c.state.Buttons |= bit
		} else {
			c.state.Buttons &^= bit
		}
		return true
	}
	if dir, ok := keyDPad[ev.KeyCode]; ok {
		c.dpad[dir] = pressed
		c.state.Hat = c.hat()
		return true
	}
	return false
}

func (c *Controller) hat() uint8 {
	return HatFromDPad(c.dpad[dpadUp], c.dpad[dpadRight], c.dpad[dpadDown], c.dpad[dpadLeft])
}
