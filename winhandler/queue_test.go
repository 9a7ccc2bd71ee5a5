package winhandler

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alia5/winbridge/protocol"
)

func always() bool { return true }

func TestActionQueue_FIFO(t *testing.T) {
	q := newActionQueue()
	q.open()

	want := []Action{
		{Code: protocol.RequestExec, Exec: protocol.ExecRequest{Filename: "a.exe"}},
		{Code: protocol.RequestKillProcess, Kill: protocol.KillProcessRequest{Name: "b.exe"}},
		{Code: protocol.RequestListProcesses},
		{Code: protocol.RequestSetProcessAffinity, Affinity: protocol.SetProcessAffinityRequest{PID: 1, AffinityMask: 3}},
	}
	for _, a := range want {
		q.enqueue(a)
	}
	assert.Equal(t, len(want), q.len())

	for _, a := range want {
		got, ok := q.next(always)
		require.True(t, ok)
		assert.Equal(t, a, got)
	}
	assert.Equal(t, 0, q.len())
}

func TestActionQueue_WaitsUntilReady(t *testing.T) {
	q := newActionQueue()
	q.open()
	var ready atomic.Bool

	got := make(chan Action, 1)
	go func() {
		a, ok := q.next(ready.Load)
		if ok {
			got <- a
		}
	}()

	q.enqueue(Action{Code: protocol.RequestListProcesses})
	select {
	case <-got:
		t.Fatal("action ran before the queue was ready")
	case <-time.After(50 * time.Millisecond):
	}

	ready.Store(true)
	q.wake()
	select {
	case a := <-got:
		assert.Equal(t, protocol.RequestListProcesses, a.Code)
	case <-time.After(time.Second):
		t.Fatal("action not released after wake")
	}
}

func TestActionQueue_CloseReleasesWaiter(t *testing.T) {
	q := newActionQueue()
	q.open()

	done := make(chan bool, 1)
	go func() {
		_, ok := q.next(always)
		done <- ok
	}()

	time.Sleep(20 * time.Millisecond)
	q.close()
	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("close did not release the waiter")
	}

	q.enqueue(Action{Code: protocol.RequestListProcesses})
	_, ok := q.next(always)
	assert.False(t, ok, "closed queue never hands out actions")
	assert.Equal(t, 1, q.drop())
	assert.Equal(t, 0, q.len())
}

func TestAction_Encode(t *testing.T) {
	tests := []struct {
		name string
		a    Action
		want []byte
	}{
		{
			name: "list processes",
			a:    Action{Code: protocol.RequestListProcesses},
			want: []byte{4, 0, 0, 0, 0},
		},
		{
			name: "no gamepad state",
			a:    Action{Code: protocol.RequestGetGamepadState, GamepadID: 5},
			want: []byte{9, 0},
		},
		{
			name: "gamepad state",
			a:    Action{Code: protocol.RequestGetGamepadState, GamepadID: 3, Snapshot: "\x01\x02"},
			want: []byte{9, 1, 3, 0, 0, 0, 1, 2},
		},
		{
			name: "no gamepad",
			a:    Action{Code: protocol.RequestGetGamepad},
			want: []byte{8, 0, 0, 0, 0},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.a.encode()
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	_, err := Action{Code: protocol.RequestInit}.encode()
	assert.ErrorIs(t, err, protocol.ErrUnexpectedRequest)
}
