package gamepad

import (
	"fmt"
	"sync"
)

// Devices tracks the physical controllers currently attached, in connection
// order.
type Devices struct {
	mu          sync.RWMutex
	controllers []*Controller
}

func NewDevices() *Devices { return &Devices{} }

// Connect attaches a controller. Device ids must be unique and non-zero; a
// zero id is reserved for "no gamepad" on the wire.
func (d *Devices) Connect(c *Controller) error {
	if c.ID() == 0 {
		return fmt.Errorf("device id 0 is reserved")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, e := range d.controllers {
		if e.ID() == c.ID() {
			return fmt.Errorf("device %d already connected", c.ID())
		}
	}
	c.SetConnected(true)
	d.controllers = append(d.controllers, c)
	return nil
}

// Disconnect detaches the controller with the given device id. The
// controller is marked disconnected so any selector still holding it will
// reselect on the next query.
func (d *Devices) Disconnect(id int32) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, c := range d.controllers {
		if c.ID() == id {
			c.SetConnected(false)
			d.controllers = append(d.controllers[:i], d.controllers[i+1:]...)
			return true
		}
	}
	return false
}

// ControllerAt returns the index-th attached controller, or nil.
func (d *Devices) ControllerAt(index int) *Controller {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if index < 0 || index >= len(d.controllers) {
		return nil
	}
	return d.controllers[index]
}

// ByID returns the attached controller with the given device id, or nil.
func (d *Devices) ByID(id int32) *Controller {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, c := range d.controllers {
		if c.ID() == id {
			return c
		}
	}
	return nil
}

// List returns the attached controllers in connection order.
func (d *Devices) List() []*Controller {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]*Controller(nil), d.controllers...)
}
