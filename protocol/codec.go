package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"unicode/utf8"
)

var (
	// ErrShortDatagram is returned when a datagram ends before its layout does.
	ErrShortDatagram = errors.New("short datagram")
	// ErrPayloadTooLarge is returned when an encoded message would exceed MaxDatagramSize.
	ErrPayloadTooLarge = errors.New("payload exceeds datagram size")
	// ErrUnknownRequest is returned for request codes outside the known set.
	ErrUnknownRequest = errors.New("unknown request code")
	// ErrUnexpectedRequest is returned when a datagram carries a different code than the decoder expects.
	ErrUnexpectedRequest = errors.New("unexpected request code")
)

// Fixed body sizes (code byte included).
const (
	execHeaderSize       = 1 + 4 + 4 + 4
	killHeaderSize       = 1 + 4
	listProcessesSize    = 1 + 4
	affinitySize         = 1 + 4 + 4 + 4
	mouseEventSize       = 1 + 4 + 4 + 2 + 2 + 2
	processNameSize      = 32
	getProcessSize       = 1 + 4 + 2 + 2 + 4 + 8 + 4 + processNameSize
	gamepadRequestSize   = 1 + 1
	gamepadHeaderSize    = 1 + 4 + 1 + 4
	gamepadStateReqSize  = 1 + 4
	gamepadStateHdrSize  = 1 + 1 + 4
	affinityPayloadLen   = 8
	mouseEventPayloadLen = 10
)

// MaxGamepadNameSize is the longest gamepad name a GET_GAMEPAD reply can carry.
const MaxGamepadNameSize = MaxDatagramSize - gamepadHeaderSize

// PeekCode returns the request code of a datagram without decoding its body.
func PeekCode(data []byte) (RequestCode, error) {
	if len(data) < 1 {
		return 0, ErrShortDatagram
	}
	return RequestCode(data[0]), nil
}

// EncodeCode builds a body-less datagram (INIT, RELEASE_GAMEPAD).
func EncodeCode(code RequestCode) []byte {
	return []byte{byte(code)}
}

type writer struct{ b []byte }

func newWriter(code RequestCode, size int) *writer {
	b := make([]byte, 0, size)
	return &writer{b: append(b, byte(code))}
}

func (w *writer) u8(v uint8) { w.b = append(w.b, v) }
func (w *writer) i16(v int16) { w.b = binary.LittleEndian.AppendUint16(w.b, uint16(v)) }
func (w *writer) i32(v int32) { w.b = binary.LittleEndian.AppendUint32(w.b, uint32(v)) }
func (w *writer) i64(v int64) { w.b = binary.LittleEndian.AppendUint64(w.b, uint64(v)) }
func (w *writer) bytes(v []byte) { w.b = append(w.b, v...) }
func (w *writer) bytesN(v []byte, n int) {
	pad := make([]byte, n)
	copy(pad, v)
	w.b = append(w.b, pad...)
}

type reader struct {
	b   []byte
	o   int
	err error
}

func newReader(data []byte, want RequestCode) *reader {
	r := &reader{b: data}
	code, err := PeekCode(data)
	if err != nil {
		r.err = err
		return r
	}
	if code != want {
		r.err = fmt.Errorf("%w: got %s, want %s", ErrUnexpectedRequest, code, want)
		return r
	}
	r.o = 1
	return r
}

func (r *reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || len(r.b)-r.o < n {
		r.err = ErrShortDatagram
		return nil
	}
	v := r.b[r.o : r.o+n]
	r.o += n
	return v
}

func (r *reader) u8() uint8 {
	if v := r.take(1); v != nil {
		return v[0]
	}
	return 0
}

func (r *reader) i16() int16 {
	if v := r.take(2); v != nil {
		return int16(binary.LittleEndian.Uint16(v))
	}
	return 0
}

func (r *reader) i32() int32 {
	if v := r.take(4); v != nil {
		return int32(binary.LittleEndian.Uint32(v))
	}
	return 0
}

func (r *reader) i64() int64 {
	if v := r.take(8); v != nil {
		return int64(binary.LittleEndian.Uint64(v))
	}
	return 0
}

func (r *reader) rest() []byte {
	if r.err != nil {
		return nil
	}
	v := r.b[r.o:]
	r.o = len(r.b)
	return v
}

func checkSize(code RequestCode, size int) error {
	if size > MaxDatagramSize {
		return fmt.Errorf("%s: %w (%d > %d)", code, ErrPayloadTooLarge, size, MaxDatagramSize)
	}
	return nil
}

// ExecRequest asks the companion to start a program.
//
// Layout: code, i32 total (fileLen+paramsLen+8), i32 fileLen, i32 paramsLen,
// filename bytes, parameter bytes.
type ExecRequest struct {
	Filename   string
	Parameters string
}

// Validate reports whether the request fits a single datagram.
func (r ExecRequest) Validate() error {
	return checkSize(RequestExec, execHeaderSize+len(r.Filename)+len(r.Parameters))
}

func (r ExecRequest) MarshalBinary() ([]byte, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	w := newWriter(RequestExec, execHeaderSize+len(r.Filename)+len(r.Parameters))
	w.i32(int32(len(r.Filename) + len(r.Parameters) + 8))
	w.i32(int32(len(r.Filename)))
	w.i32(int32(len(r.Parameters)))
	w.bytes([]byte(r.Filename))
	w.bytes([]byte(r.Parameters))
	return w.b, nil
}

func (r *ExecRequest) UnmarshalBinary(data []byte) error {
	rd := newReader(data, RequestExec)
	total := rd.i32()
	fileLen := rd.i32()
	paramsLen := rd.i32()
	if rd.err == nil && total != fileLen+paramsLen+8 {
		return fmt.Errorf("exec: payload length %d does not match %d+%d+8", total, fileLen, paramsLen)
	}
	file := rd.take(int(fileLen))
	params := rd.take(int(paramsLen))
	if rd.err != nil {
		return rd.err
	}
	r.Filename = string(file)
	r.Parameters = string(params)
	return nil
}

// KillProcessRequest asks the companion to terminate processes by image name.
type KillProcessRequest struct {
	Name string
}

func (r KillProcessRequest) Validate() error {
	return checkSize(RequestKillProcess, killHeaderSize+len(r.Name))
}

func (r KillProcessRequest) MarshalBinary() ([]byte, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	w := newWriter(RequestKillProcess, killHeaderSize+len(r.Name))
	w.i32(int32(len(r.Name)))
	w.bytes([]byte(r.Name))
	return w.b, nil
}

func (r *KillProcessRequest) UnmarshalBinary(data []byte) error {
	rd := newReader(data, RequestKillProcess)
	n := rd.i32()
	name := rd.take(int(n))
	if rd.err != nil {
		return rd.err
	}
	r.Name = string(name)
	return nil
}

// EncodeListProcesses builds a LIST_PROCESSES request (code, i32 zero).
func EncodeListProcesses() []byte {
	w := newWriter(RequestListProcesses, listProcessesSize)
	w.i32(0)
	return w.b
}

// SetProcessAffinityRequest pins a process to a CPU mask.
type SetProcessAffinityRequest struct {
	PID          int32
	AffinityMask int32
}

func (r SetProcessAffinityRequest) MarshalBinary() ([]byte, error) {
	w := newWriter(RequestSetProcessAffinity, affinitySize)
	w.i32(affinityPayloadLen)
	w.i32(r.PID)
	w.i32(r.AffinityMask)
	return w.b, nil
}

func (r *SetProcessAffinityRequest) UnmarshalBinary(data []byte) error {
	rd := newReader(data, RequestSetProcessAffinity)
	_ = rd.i32()
	pid := rd.i32()
	mask := rd.i32()
	if rd.err != nil {
		return rd.err
	}
	r.PID, r.AffinityMask = pid, mask
	return nil
}

// MouseEventRequest injects one pointer event.
type MouseEventRequest struct {
	Flags      int32
	DX, DY     int16
	WheelDelta int16
}

func (r MouseEventRequest) MarshalBinary() ([]byte, error) {
	w := newWriter(RequestMouseEvent, mouseEventSize)
	w.i32(mouseEventPayloadLen)
	w.i32(r.Flags)
	w.i16(r.DX)
	w.i16(r.DY)
	w.i16(r.WheelDelta)
	return w.b, nil
}

func (r *MouseEventRequest) UnmarshalBinary(data []byte) error {
	rd := newReader(data, RequestMouseEvent)
	_ = rd.i32()
	flags := rd.i32()
	dx := rd.i16()
	dy := rd.i16()
	wheel := rd.i16()
	if rd.err != nil {
		return rd.err
	}
	*r = MouseEventRequest{Flags: flags, DX: dx, DY: dy, WheelDelta: wheel}
	return nil
}

// ProcessReply is one GET_PROCESS datagram sent by the companion in answer to
// LIST_PROCESSES.
//
// Layout: code, i32 payloadLen (ignored), i16 count, i16 index, i32 pid,
// i64 memory, i32 affinity, 32-byte ANSI name.
type ProcessReply struct {
	Count int16
	Index int16
	Info  ProcessInfo
}

func (r ProcessReply) MarshalBinary() ([]byte, error) {
	name, err := encodeANSI(r.Info.Name)
	if err != nil {
		return nil, err
	}
	w := newWriter(RequestGetProcess, getProcessSize)
	w.i32(getProcessSize - 5)
	w.i16(r.Count)
	w.i16(r.Index)
	w.i32(r.Info.PID)
	w.i64(r.Info.MemoryUsage)
	w.i32(r.Info.AffinityMask)
	w.bytesN(name, processNameSize)
	return w.b, nil
}

func (r *ProcessReply) UnmarshalBinary(data []byte) error {
	rd := newReader(data, RequestGetProcess)
	_ = rd.i32()
	count := rd.i16()
	index := rd.i16()
	pid := rd.i32()
	mem := rd.i64()
	mask := rd.i32()
	raw := rd.take(processNameSize)
	if rd.err != nil {
		return rd.err
	}
	name, err := decodeANSI(raw)
	if err != nil {
		return fmt.Errorf("get_process: name: %w", err)
	}
	*r = ProcessReply{
		Count: count,
		Index: index,
		Info:  ProcessInfo{PID: pid, Name: name, MemoryUsage: mem, AffinityMask: mask},
	}
	return nil
}

// GamepadRequest is the companion's GET_GAMEPAD query.
type GamepadRequest struct {
	XInput bool
}

func (r GamepadRequest) MarshalBinary() ([]byte, error) {
	w := newWriter(RequestGetGamepad, gamepadRequestSize)
	if r.XInput {
		w.u8(1)
	} else {
		w.u8(0)
	}
	return w.b, nil
}

func (r *GamepadRequest) UnmarshalBinary(data []byte) error {
	rd := newReader(data, RequestGetGamepad)
	v := rd.u8()
	if rd.err != nil {
		return rd.err
	}
	r.XInput = v == 1
	return nil
}

// GamepadReply answers GET_GAMEPAD. When Present is false the body is a single
// i32 zero.
type GamepadReply struct {
	Present bool
	ID      int32
	Mapper  MapperType
	Name    string
}

// MarshalBinary encodes the reply. Names longer than MaxGamepadNameSize are
// cut to fit the datagram, on a rune boundary.
func (r GamepadReply) MarshalBinary() ([]byte, error) {
	if !r.Present {
		w := newWriter(RequestGetGamepad, 5)
		w.i32(0)
		return w.b, nil
	}
	name := []byte(r.Name)
	if len(name) > MaxGamepadNameSize {
		cut := MaxGamepadNameSize
		for cut > 0 && !utf8.RuneStart(name[cut]) {
			cut--
		}
		name = name[:cut]
	}
	w := newWriter(RequestGetGamepad, gamepadHeaderSize+len(name))
	w.i32(r.ID)
	w.u8(uint8(r.Mapper))
	w.i32(int32(len(name)))
	w.bytes(name)
	return w.b, nil
}

// UnmarshalBinary decodes a reply. A zero id with no further bytes means no
// gamepad.
func (r *GamepadReply) UnmarshalBinary(data []byte) error {
	rd := newReader(data, RequestGetGamepad)
	id := rd.i32()
	if rd.err != nil {
		return rd.err
	}
	if id == 0 && len(data) == 5 {
		*r = GamepadReply{}
		return nil
	}
	mapper := rd.u8()
	n := rd.i32()
	name := rd.take(int(n))
	if rd.err != nil {
		return rd.err
	}
	*r = GamepadReply{Present: true, ID: id, Mapper: MapperType(mapper), Name: string(name)}
	return nil
}

// GamepadStateRequest is the companion's GET_GAMEPAD_STATE poll.
type GamepadStateRequest struct {
	GamepadID int32
}

func (r GamepadStateRequest) MarshalBinary() ([]byte, error) {
	w := newWriter(RequestGetGamepadState, gamepadStateReqSize)
	w.i32(r.GamepadID)
	return w.b, nil
}

func (r *GamepadStateRequest) UnmarshalBinary(data []byte) error {
	rd := newReader(data, RequestGetGamepadState)
	id := rd.i32()
	if rd.err != nil {
		return rd.err
	}
	r.GamepadID = id
	return nil
}

// GamepadStateReply answers GET_GAMEPAD_STATE. Snapshot is an opaque,
// fixed-size serialized gamepad state.
type GamepadStateReply struct {
	HasState  bool
	GamepadID int32
	Snapshot  []byte
}

func (r GamepadStateReply) Validate() error {
	if !r.HasState {
		return nil
	}
	return checkSize(RequestGetGamepadState, gamepadStateHdrSize+len(r.Snapshot))
}

func (r GamepadStateReply) MarshalBinary() ([]byte, error) {
	if !r.HasState {
		w := newWriter(RequestGetGamepadState, 2)
		w.u8(0)
		return w.b, nil
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	w := newWriter(RequestGetGamepadState, gamepadStateHdrSize+len(r.Snapshot))
	w.u8(1)
	w.i32(r.GamepadID)
	w.bytes(r.Snapshot)
	return w.b, nil
}

func (r *GamepadStateReply) UnmarshalBinary(data []byte) error {
	rd := newReader(data, RequestGetGamepadState)
	has := rd.u8()
	if rd.err != nil {
		return rd.err
	}
	if has == 0 {
		*r = GamepadStateReply{}
		return nil
	}
	id := rd.i32()
	snap := rd.rest()
	if rd.err != nil {
		return rd.err
	}
	*r = GamepadStateReply{HasState: true, GamepadID: id, Snapshot: append([]byte(nil), snap...)}
	return nil
}
