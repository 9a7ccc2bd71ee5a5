// Package gamepad tracks the controllers that answer the companion's gamepad
// queries: physical controllers fed by input events, on-screen virtual
// profiles, the selector choosing between them, and the bounded buffer of
// snapshots that keeps rapid input changes from being lost between polls.
package gamepad

import (
	"encoding/binary"
	"io"
)

// StateSize is the size of a serialized State.
const StateSize = 13

// Button bits of State.Buttons.
const (
	ButtonA      uint16 = 1 << 0
	ButtonB      uint16 = 1 << 1
	ButtonX      uint16 = 1 << 2
	ButtonY      uint16 = 1 << 3
	ButtonL1     uint16 = 1 << 4
	ButtonR1     uint16 = 1 << 5
	ButtonSelect uint16 = 1 << 6
	ButtonStart  uint16 = 1 << 7
	ButtonL3     uint16 = 1 << 8
	ButtonR3     uint16 = 1 << 9
	ButtonL2     uint16 = 1 << 10
	ButtonR2     uint16 = 1 << 11
)

// POV hat directions. HatCentered means no direction is held.
const (
	HatUp        uint8 = 0
	HatUpRight   uint8 = 1
	HatRight     uint8 = 2
	HatDownRight uint8 = 3
	HatDown      uint8 = 4
	HatDownLeft  uint8 = 5
	HatLeft      uint8 = 6
	HatUpLeft    uint8 = 7
	HatCentered  uint8 = 0xff
)

// State is one capture of a gamepad's buttons and axes.
//
// Wire format: fixed 13 bytes, little-endian.
//
//	Buttons: 2 bytes (LE uint16)
//	Hat:     1 byte
//	LX, LY:  2 bytes each (LE int16)
//	RX, RY:  2 bytes each (LE int16)
//	LT, RT:  1 byte each
type State struct {
	Buttons uint16
	Hat     uint8
	LX, LY  int16
	RX, RY  int16
	LT, RT  uint8
}

// NewState returns a neutral state (nothing pressed, hat centered).
func NewState() State {
	return State{Hat: HatCentered}
}

// MarshalBinary encodes State to the fixed 13-byte wire format.
func (s State) MarshalBinary() ([]byte, error) {
	return s.Snapshot(), nil
}

// UnmarshalBinary decodes State from the fixed 13-byte wire format.
func (s *State) UnmarshalBinary(data []byte) error {
	if len(data) < StateSize {
		return io.ErrUnexpectedEOF
	}
	s.Buttons = binary.LittleEndian.Uint16(data[0:2])
	s.Hat = data[2]
	s.LX = int16(binary.LittleEndian.Uint16(data[3:5]))
	s.LY = int16(binary.LittleEndian.Uint16(data[5:7]))
	s.RX = int16(binary.LittleEndian.Uint16(data[7:9]))
	s.RY = int16(binary.LittleEndian.Uint16(data[9:11]))
	s.LT = data[11]
	s.RT = data[12]
	return nil
}

// Snapshot serializes the state into a new buffer.
func (s State) Snapshot() Snapshot {
	b := make([]byte, StateSize)
	binary.LittleEndian.PutUint16(b[0:2], s.Buttons)
	b[2] = s.Hat
	binary.LittleEndian.PutUint16(b[3:5], uint16(s.LX))
	binary.LittleEndian.PutUint16(b[5:7], uint16(s.LY))
	binary.LittleEndian.PutUint16(b[7:9], uint16(s.RX))
	binary.LittleEndian.PutUint16(b[9:11], uint16(s.RY))
	b[11] = s.LT
	b[12] = s.RT
	return b
}

// Snapshot is a serialized State as sent in GET_GAMEPAD_STATE replies.
type Snapshot []byte

// HatFromDPad folds four d-pad booleans into a POV hat direction.
func HatFromDPad(up, right, down, left bool) uint8 {
	switch {
	case up && right:
		return HatUpRight
	case up && left:
		return HatUpLeft
	case down && right:
		return HatDownRight
	case down && left:
		return HatDownLeft
	case up:
		return HatUp
	case right:
		return HatRight
	case down:
		return HatDown
	case left:
		return HatLeft
	default:
		return HatCentered
	}
}
