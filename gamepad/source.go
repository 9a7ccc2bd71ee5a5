package gamepad

// Source answers gamepad queries. Physical controllers and virtual on-screen
// profiles both implement it.
type Source interface {
	// Active reports whether the source can currently answer queries: a
	// physical controller is connected, a profile declares itself virtual.
	Active() bool
	ID() int32
	Name() string
	State() State
}

// ProfileSource yields the input profile currently shown on screen, or nil.
type ProfileSource interface {
	Current() Source
}

// ControllerProvider is the physical input subsystem as seen by the Selector.
type ControllerProvider interface {
	// ControllerAt returns the index-th connected controller, or nil.
	ControllerAt(index int) *Controller
}
