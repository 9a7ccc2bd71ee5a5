package winhandler_test

import (
	"log/slog"
	"net"
	"net/netip"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alia5/winbridge/gamepad"
	handlerTest "github.com/Alia5/winbridge/internal/testing"
	"github.com/Alia5/winbridge/protocol"
	"github.com/Alia5/winbridge/winhandler"
)

const (
	quiet   = 100 * time.Millisecond
	timeout = 2 * time.Second
)

type fixture struct {
	h       *winhandler.Handler
	peer    *handlerTest.FakePeer
	devices *gamepad.Devices
}

func newFixture(t *testing.T, ids ...int32) *fixture {
	t.Helper()
	devices := gamepad.NewDevices()
	for _, id := range ids {
		require.NoError(t, devices.Connect(gamepad.NewController(id, "Pad")))
	}
	peer := handlerTest.NewFakePeer(t)
	cfg := winhandler.Config{
		Host:       "127.0.0.1",
		ServerPort: 0,
		ClientPort: peer.Port(),
		Mapper:     protocol.MapperXInput,
	}
	h := winhandler.New(cfg, gamepad.NewSelector(devices, &gamepad.Profiles{}), slog.Default(), nil)
	return &fixture{h: h, peer: peer, devices: devices}
}

func (f *fixture) start(t *testing.T) {
	t.Helper()
	require.NoError(t, f.h.Start())
	t.Cleanup(f.h.Stop)
}

func (f *fixture) init(t *testing.T) {
	t.Helper()
	f.peer.Send(f.h.LocalAddr(), protocol.EncodeCode(protocol.RequestInit))
	require.Eventually(t, f.h.Initialized, timeout, 5*time.Millisecond)
}

func (f *fixture) query(t *testing.T, data []byte) []byte {
	t.Helper()
	f.peer.Send(f.h.LocalAddr(), data)
	return f.peer.MustRecv(timeout)
}

func TestHandler_ExecWaitsForInit(t *testing.T) {
	f := newFixture(t)
	f.start(t)

	require.NoError(t, f.h.Exec("game.exe -fullscreen"))
	assert.Nil(t, f.peer.Recv(quiet), "nothing may be sent before INIT")
	assert.Equal(t, 1, f.h.Pending())

	f.init(t)
	data := f.peer.MustRecv(timeout)
	var req protocol.ExecRequest
	require.NoError(t, req.UnmarshalBinary(data))
	assert.Equal(t, "game.exe", req.Filename)
	assert.Equal(t, "-fullscreen", req.Parameters)

	assert.Nil(t, f.peer.Recv(quiet), "exactly one EXEC datagram")
}

func TestHandler_ExecInput(t *testing.T) {
	f := newFixture(t)

	assert.NoError(t, f.h.Exec("   "))
	assert.Equal(t, 0, f.h.Pending())

	long := make([]byte, protocol.MaxDatagramSize)
	for i := range long {
		long[i] = 'a'
	}
	assert.ErrorIs(t, f.h.Exec(string(long)), protocol.ErrPayloadTooLarge)
	assert.ErrorIs(t, f.h.KillProcess(string(long)), protocol.ErrPayloadTooLarge)
	assert.Equal(t, 0, f.h.Pending())
}

func TestHandler_QueuedActionsKeepOrder(t *testing.T) {
	f := newFixture(t)
	f.start(t)

	require.NoError(t, f.h.Exec("notepad.exe"))
	require.NoError(t, f.h.KillProcess("game.exe"))
	f.h.SetProcessAffinity(42, 0x3)
	f.init(t)

	codes := []protocol.RequestCode{}
	for i := 0; i < 3; i++ {
		code, err := protocol.PeekCode(f.peer.MustRecv(timeout))
		require.NoError(t, err)
		codes = append(codes, code)
	}
	assert.Equal(t, []protocol.RequestCode{
		protocol.RequestExec,
		protocol.RequestKillProcess,
		protocol.RequestSetProcessAffinity,
	}, codes)
}

func TestHandler_MouseEventDroppedBeforeInit(t *testing.T) {
	f := newFixture(t)
	f.start(t)

	assert.False(t, f.h.MouseEvent(protocol.MouseEventMove, 3, -4, 0))
	assert.Equal(t, 0, f.h.Pending())

	f.init(t)
	assert.True(t, f.h.MouseEvent(protocol.MouseEventMove, 3, -4, 0))
	data := f.peer.MustRecv(timeout)
	var ev protocol.MouseEventRequest
	require.NoError(t, ev.UnmarshalBinary(data))
	assert.Equal(t, protocol.MouseEventRequest{Flags: protocol.MouseEventMove, DX: 3, DY: -4}, ev)
}

type processCalls struct {
	mu    sync.Mutex
	calls []processCall
}

type processCall struct {
	index, count int
	info         *protocol.ProcessInfo
}

func (p *processCalls) listener(index, count int, info *protocol.ProcessInfo) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, processCall{index, count, info})
}

func (p *processCalls) get() []processCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]processCall(nil), p.calls...)
}

func TestHandler_ListProcessesSendFailure(t *testing.T) {
	f := newFixture(t)
	calls := &processCalls{}
	f.h.SetProcessInfoListener(calls.listener)

	f.h.ListProcesses()
	assert.Equal(t, []processCall{{0, 0, nil}}, calls.get())
}

func TestHandler_ListProcessesBeforeInit(t *testing.T) {
	f := newFixture(t)
	calls := &processCalls{}
	f.h.SetProcessInfoListener(calls.listener)
	f.start(t)

	f.h.ListProcesses()
	data := f.peer.MustRecv(timeout)
	assert.Equal(t, protocol.EncodeListProcesses(), data)

	reply, err := protocol.ProcessReply{
		Count: 2,
		Index: 1,
		Info:  protocol.ProcessInfo{PID: 1234, Name: "game.exe", MemoryUsage: 1 << 20, AffinityMask: 0xf},
	}.MarshalBinary()
	require.NoError(t, err)
	f.peer.Send(f.h.LocalAddr(), reply)

	require.Eventually(t, func() bool { return len(calls.get()) == 1 }, timeout, 5*time.Millisecond)
	c := calls.get()[0]
	assert.Equal(t, 1, c.index)
	assert.Equal(t, 2, c.count)
	require.NotNil(t, c.info)
	assert.Equal(t, "game.exe", c.info.Name)
	assert.Equal(t, int32(1234), c.info.PID)
}

func TestHandler_GamepadReplyGoesToSource(t *testing.T) {
	f := newFixture(t, 3)
	f.start(t)
	f.init(t)

	other, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	defer other.Close()

	q, err := protocol.GamepadRequest{XInput: true}.MarshalBinary()
	require.NoError(t, err)
	srv := netip.AddrPortFrom(netip.MustParseAddr("127.0.0.1"), f.h.LocalAddr().Port())
	_, err = other.WriteToUDPAddrPort(q, srv)
	require.NoError(t, err)

	buf := make([]byte, 128)
	require.NoError(t, other.SetReadDeadline(time.Now().Add(timeout)))
	n, _, err := other.ReadFromUDPAddrPort(buf)
	require.NoError(t, err)

	var reply protocol.GamepadReply
	require.NoError(t, reply.UnmarshalBinary(buf[:n]))
	assert.Equal(t, protocol.GamepadReply{Present: true, ID: 3, Mapper: protocol.MapperXInput, Name: "Pad"}, reply)
	assert.Nil(t, f.peer.Recv(quiet), "reply must not go to the client port")
}

func TestHandler_GamepadStateMismatch(t *testing.T) {
	f := newFixture(t, 3)
	f.h.SetDInputMapperType(protocol.MapperStandard)
	f.start(t)
	f.init(t)

	gp, err := protocol.GamepadRequest{}.MarshalBinary()
	require.NoError(t, err)
	var reply protocol.GamepadReply
	require.NoError(t, reply.UnmarshalBinary(f.query(t, gp)))
	require.True(t, reply.Present)
	assert.Equal(t, int32(3), reply.ID)
	assert.Equal(t, protocol.MapperStandard, reply.Mapper)

	stateQuery := func(id int32) protocol.GamepadStateReply {
		t.Helper()
		q, err := protocol.GamepadStateRequest{GamepadID: id}.MarshalBinary()
		require.NoError(t, err)
		var r protocol.GamepadStateReply
		require.NoError(t, r.UnmarshalBinary(f.query(t, q)))
		return r
	}

	assert.False(t, stateQuery(5).HasState)
	assert.False(t, stateQuery(3).HasState, "no gamepad until GET_GAMEPAD reselects")

	require.NoError(t, reply.UnmarshalBinary(f.query(t, gp)))
	require.True(t, reply.Present)

	f.h.UpdateController(f.devices.ByID(3), gamepad.State{Buttons: gamepad.ButtonA, Hat: gamepad.HatCentered})
	st := stateQuery(3)
	require.True(t, st.HasState)
	assert.Equal(t, int32(3), st.GamepadID)
	assert.Equal(t, []byte(gamepad.State{Buttons: gamepad.ButtonA, Hat: gamepad.HatCentered}.Snapshot()), st.Snapshot)
}

func TestHandler_ReleaseGamepad(t *testing.T) {
	f := newFixture(t, 3)
	f.start(t)
	f.init(t)

	gp, err := protocol.GamepadRequest{}.MarshalBinary()
	require.NoError(t, err)
	f.query(t, gp)
	f.h.SaveGamepadState(gamepad.NewState())
	require.Equal(t, 1, f.h.Selector().Buffer().Len())

	f.peer.Send(f.h.LocalAddr(), protocol.EncodeCode(protocol.RequestReleaseGamepad))
	require.Eventually(t, func() bool { return f.h.Selector().Current() == nil }, timeout, 5*time.Millisecond)
	assert.Equal(t, 0, f.h.Selector().Buffer().Len())
}

func TestHandler_BadDatagramsAreDropped(t *testing.T) {
	f := newFixture(t)
	f.start(t)

	f.peer.Send(f.h.LocalAddr(), []byte{0xEE, 1, 2})
	f.peer.Send(f.h.LocalAddr(), []byte{byte(protocol.RequestGetGamepadState), 1})
	f.init(t)
	assert.True(t, f.h.Running())
}

func TestHandler_RestartResetsSession(t *testing.T) {
	f := newFixture(t)
	f.start(t)
	f.init(t)
	first := f.h.SessionID()

	f.h.Stop()
	f.h.Stop()
	assert.False(t, f.h.Running())
	assert.False(t, f.h.LocalAddr().IsValid())

	require.NoError(t, f.h.Start())
	assert.False(t, f.h.Initialized())
	assert.NotEqual(t, first, f.h.SessionID())

	require.NoError(t, f.h.Exec("notepad.exe"))
	assert.Nil(t, f.peer.Recv(quiet))
	f.init(t)
	assert.NotNil(t, f.peer.Recv(timeout))
}

func TestHandler_StartTwice(t *testing.T) {
	f := newFixture(t)
	f.start(t)
	assert.Error(t, f.h.Start())
}
