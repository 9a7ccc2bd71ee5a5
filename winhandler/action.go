package winhandler

import (
	"fmt"
	"net/netip"

	"github.com/Alia5/winbridge/protocol"
)

// Action is one outbound datagram waiting in the queue. Only the fields
// belonging to Code are meaningful. Every field is a plain value, so actions
// compare with == and never observe later changes made by their producer.
type Action struct {
	Code protocol.RequestCode
	// To overrides the configured client address. Replies to companion
	// queries carry the source of the query here.
	To netip.AddrPort

	Exec     protocol.ExecRequest
	Kill     protocol.KillProcessRequest
	Affinity protocol.SetProcessAffinityRequest
	Mouse    protocol.MouseEventRequest
	Gamepad  protocol.GamepadReply

	GamepadID int32
	// Snapshot is the encoded gamepad state of a GET_GAMEPAD_STATE reply.
	// Empty means "no gamepad".
	Snapshot string
}

func (a Action) encode() ([]byte, error) {
	switch a.Code {
	case protocol.RequestExec:
		return a.Exec.MarshalBinary()
	case protocol.RequestKillProcess:
		return a.Kill.MarshalBinary()
	case protocol.RequestListProcesses:
		return protocol.EncodeListProcesses(), nil
	case protocol.RequestSetProcessAffinity:
		return a.Affinity.MarshalBinary()
	case protocol.RequestMouseEvent:
		return a.Mouse.MarshalBinary()
	case protocol.RequestGetGamepad:
		return a.Gamepad.MarshalBinary()
	case protocol.RequestGetGamepadState:
		return protocol.GamepadStateReply{
			HasState:  a.Snapshot != "",
			GamepadID: a.GamepadID,
			Snapshot:  []byte(a.Snapshot),
		}.MarshalBinary()
	default:
		return nil, fmt.Errorf("encode %s: %w", a.Code, protocol.ErrUnexpectedRequest)
	}
}
