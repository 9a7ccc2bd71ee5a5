// Package protocol implements the datagram layouts spoken between the host
// bridge and the companion process running inside the Windows environment.
//
// Every datagram starts with a one byte RequestCode followed by a fixed,
// little-endian body. Datagrams never exceed MaxDatagramSize bytes; encoders
// reject payloads that would not fit instead of truncating them.
package protocol

import (
	"fmt"
	"strings"
)

// Well-known endpoints. The bridge listens on ServerPort; the companion
// listens on ClientPort.
const (
	ServerPort = 7947
	ClientPort = 7946
)

// MaxDatagramSize is the size of the send and receive buffers on both ends.
const MaxDatagramSize = 64

// RequestCode identifies a datagram kind and determines its body layout.
type RequestCode uint8

const (
	RequestInit               RequestCode = 1
	RequestExec               RequestCode = 2
	RequestKillProcess        RequestCode = 3
	RequestListProcesses      RequestCode = 4
	RequestGetProcess         RequestCode = 5
	RequestSetProcessAffinity RequestCode = 6
	RequestMouseEvent         RequestCode = 7
	RequestGetGamepad         RequestCode = 8
	RequestGetGamepadState    RequestCode = 9
	RequestReleaseGamepad     RequestCode = 10
)

var requestNames = map[RequestCode]string{
	RequestInit:               "init",
	RequestExec:               "exec",
	RequestKillProcess:        "kill_process",
	RequestListProcesses:      "list_processes",
	RequestGetProcess:         "get_process",
	RequestSetProcessAffinity: "set_process_affinity",
	RequestMouseEvent:         "mouse_event",
	RequestGetGamepad:         "get_gamepad",
	RequestGetGamepadState:    "get_gamepad_state",
	RequestReleaseGamepad:     "release_gamepad",
}

func (c RequestCode) String() string {
	if n, ok := requestNames[c]; ok {
		return n
	}
	return fmt.Sprintf("unknown(%d)", uint8(c))
}

// Valid reports whether c is one of the known request codes.
func (c RequestCode) Valid() bool {
	_, ok := requestNames[c]
	return ok
}

// MapperType is the DirectInput button mapping convention reported to the
// companion in GET_GAMEPAD replies.
type MapperType uint8

const (
	MapperStandard MapperType = 0
	MapperXInput   MapperType = 1
)

func (m MapperType) String() string {
	switch m {
	case MapperStandard:
		return "standard"
	case MapperXInput:
		return "xinput"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(m))
	}
}

// ParseMapperType parses "standard" or "xinput" (case-insensitive).
func ParseMapperType(s string) (MapperType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "standard", "0":
		return MapperStandard, nil
	case "xinput", "1":
		return MapperXInput, nil
	default:
		return 0, fmt.Errorf("unknown mapper type %q", s)
	}
}

// Mouse event flags, as understood by the companion's SendInput call.
const (
	MouseEventMove       int32 = 0x0001
	MouseEventLeftDown   int32 = 0x0002
	MouseEventLeftUp     int32 = 0x0004
	MouseEventRightDown  int32 = 0x0008
	MouseEventRightUp    int32 = 0x0010
	MouseEventMiddleDown int32 = 0x0020
	MouseEventMiddleUp   int32 = 0x0040
	MouseEventXDown      int32 = 0x0080
	MouseEventXUp        int32 = 0x0100
	MouseEventWheel      int32 = 0x0800
	MouseEventHWheel     int32 = 0x1000
	MouseEventAbsolute   int32 = 0x8000
)
