package gamepad

// Axis identifies a motion axis reported by the input subsystem. Values match
// the platform's joystick axis ids.
type Axis uint8

const (
	AxisX        Axis = 0
	AxisY        Axis = 1
	AxisZ        Axis = 11
	AxisRZ       Axis = 14
	AxisHatX     Axis = 15
	AxisHatY     Axis = 16
	AxisLTrigger Axis = 17
	AxisRTrigger Axis = 18
	AxisGas      Axis = 22
	AxisBrake    Axis = 23
)

// KeyCode identifies a gamepad key reported by the input subsystem.
type KeyCode int32

const (
	KeyDPadUp       KeyCode = 19
	KeyDPadDown     KeyCode = 20
	KeyDPadLeft     KeyCode = 21
	KeyDPadRight    KeyCode = 22
	KeyButtonA      KeyCode = 96
	KeyButtonB      KeyCode = 97
	KeyButtonX      KeyCode = 99
	KeyButtonY      KeyCode = 100
	KeyButtonL1     KeyCode = 102
	KeyButtonR1     KeyCode = 103
	KeyButtonL2     KeyCode = 104
	KeyButtonR2     KeyCode = 105
	KeyButtonThumbL KeyCode = 106
	KeyButtonThumbR KeyCode = 107
	KeyButtonStart  KeyCode = 108
	KeyButtonSelect KeyCode = 109
)

// KeyAction is the direction of a key event.
type KeyAction uint8

const (
	KeyDown KeyAction = iota
	KeyUp
)

// MotionEvent carries new axis positions for one device. Stick axes range
// over [-1, 1], trigger axes over [0, 1].
type MotionEvent struct {
	DeviceID int32
	Axes     map[Axis]float32
}

// KeyEvent is one key press or release on one device.
type KeyEvent struct {
	DeviceID    int32
	KeyCode     KeyCode
	Action      KeyAction
	RepeatCount int
}

var keyButtons = map[KeyCode]uint16{
	KeyButtonA:      ButtonA,
	KeyButtonB:      ButtonB,
	KeyButtonX:      ButtonX,
	KeyButtonY:      ButtonY,
	KeyButtonL1:     ButtonL1,
	KeyButtonR1:     ButtonR1,
	KeyButtonL2:     ButtonL2,
	KeyButtonR2:     ButtonR2,
	KeyButtonThumbL: ButtonL3,
	KeyButtonThumbR: ButtonR3,
	KeyButtonStart:  ButtonStart,
	KeyButtonSelect: ButtonSelect,
}

const (
	dpadUp = iota
	dpadRight
	dpadDown
	dpadLeft
)

var keyDPad = map[KeyCode]int{
	KeyDPadUp:    dpadUp,
	KeyDPadRight: dpadRight,
	KeyDPadDown:  dpadDown,
	KeyDPadLeft:  dpadLeft,
}

func stickValue(v float32) int16 {
	if v > 1 {
		v = 1
	} else if v < -1 {
		v = -1
	}
	return int16(v * 32767)
}

func triggerValue(v float32) uint8 {
	if v > 1 {
		v = 1
	} else if v < 0 {
		v = 0
	}
	return uint8(v * 255)
}
