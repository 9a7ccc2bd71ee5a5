package handler_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alia5/winbridge/apiclient"
	"github.com/Alia5/winbridge/apitypes"
	"github.com/Alia5/winbridge/internal/server/api"
	"github.com/Alia5/winbridge/internal/server/api/handler"
	handlerTest "github.com/Alia5/winbridge/internal/testing"
	"github.com/Alia5/winbridge/protocol"
)

func registerProcess(r *api.Router, b *handlerTest.Bridge, apiSrv *api.Server) {
	collector := handler.NewProcessCollector(apiSrv.Config().ProcessListTimeout)
	b.Handler.SetProcessInfoListener(collector.OnProcessInfo)
	r.Register("exec", handler.Exec(b.Handler))
	r.Register("kill", handler.Kill(b.Handler))
	r.Register("affinity", handler.Affinity(b.Handler))
	r.Register("ps", handler.Processes(b.Handler, collector))
}

func TestExec(t *testing.T) {
	addr, b, done := handlerTest.StartAPIServer(t, registerProcess)
	defer done()

	assert.Equal(t, `{"filename":"game.exe","parameters":"-fullscreen"}`, handlerTest.ExecCmd(t, addr, "exec game.exe -fullscreen"))
	assert.Equal(t, `{"error":"missing command line"}`, handlerTest.ExecCmd(t, addr, "exec"))
	assert.Equal(t, 1, b.Handler.Pending())
	assert.Nil(t, b.Peer.Recv(100*time.Millisecond))

	b.Init(t)
	var req protocol.ExecRequest
	require.NoError(t, req.UnmarshalBinary(b.Peer.MustRecv(2*time.Second)))
	assert.Equal(t, protocol.ExecRequest{Filename: "game.exe", Parameters: "-fullscreen"}, req)
}

func TestKill(t *testing.T) {
	addr, b, done := handlerTest.StartAPIServer(t, registerProcess)
	defer done()
	b.Init(t)

	assert.Equal(t, `{"name":"wineserver.exe"}`, handlerTest.ExecCmd(t, addr, "kill wineserver.exe"))
	var req protocol.KillProcessRequest
	require.NoError(t, req.UnmarshalBinary(b.Peer.MustRecv(2*time.Second)))
	assert.Equal(t, "wineserver.exe", req.Name)
}

func TestAffinity(t *testing.T) {
	tests := []struct {
		name     string
		cmd      string
		expected string
		sent     *protocol.SetProcessAffinityRequest
	}{
		{
			name:     "hex mask",
			cmd:      "affinity 42 0xf",
			expected: `{"pid":42,"affinityMask":15}`,
			sent:     &protocol.SetProcessAffinityRequest{PID: 42, AffinityMask: 0xf},
		},
		{
			name:     "full mask",
			cmd:      "affinity 7 0xffffffff",
			expected: `{"pid":7,"affinityMask":4294967295}`,
			sent:     &protocol.SetProcessAffinityRequest{PID: 7, AffinityMask: -1},
		},
		{
			name:     "missing mask",
			cmd:      "affinity 42",
			expected: `{"error":"usage: affinity <pid> <mask>"}`,
		},
		{
			name:     "invalid pid",
			cmd:      "affinity abc 1",
			expected: `{"error":"invalid pid: strconv.ParseInt: parsing \"abc\": invalid syntax"}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, b, done := handlerTest.StartAPIServer(t, registerProcess)
			defer done()
			b.Init(t)

			assert.Equal(t, tt.expected, handlerTest.ExecCmd(t, addr, tt.cmd))
			if tt.sent == nil {
				assert.Equal(t, 0, b.Handler.Pending())
				return
			}
			var got protocol.SetProcessAffinityRequest
			require.NoError(t, got.UnmarshalBinary(b.Peer.MustRecv(2*time.Second)))
			assert.Equal(t, *tt.sent, got)
		})
	}
}

func sendProcess(t *testing.T, b *handlerTest.Bridge, index, count int16, info protocol.ProcessInfo) {
	t.Helper()
	data, err := protocol.ProcessReply{Index: index, Count: count, Info: info}.MarshalBinary()
	require.NoError(t, err)
	b.Peer.Send(b.Handler.LocalAddr(), data)
}

func TestProcesses(t *testing.T) {
	addr, b, done := handlerTest.StartAPIServer(t, registerProcess)
	defer done()
	c := apiclient.New(addr)

	type result struct {
		resp *apitypes.ProcessListResponse
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		resp, err := c.Processes(context.Background())
		ch <- result{resp, err}
	}()

	assert.Equal(t, protocol.EncodeListProcesses(), b.Peer.MustRecv(2*time.Second))
	sendProcess(t, b, 1, 2, protocol.ProcessInfo{PID: 20, Name: "game.exe", MemoryUsage: 4096, AffinityMask: 3})
	sendProcess(t, b, 0, 2, protocol.ProcessInfo{PID: 10, Name: "explorer.exe", MemoryUsage: 1024, AffinityMask: 1})

	res := <-ch
	require.NoError(t, res.err)
	assert.True(t, res.resp.Complete)
	assert.Equal(t, []apitypes.Process{
		{PID: 10, Name: "explorer.exe", MemoryUsage: 1024, AffinityMask: 1},
		{PID: 20, Name: "game.exe", MemoryUsage: 4096, AffinityMask: 3},
	}, res.resp.Processes)
}

func TestProcesses_Incomplete(t *testing.T) {
	addr, b, done := handlerTest.StartAPIServer(t, registerProcess)
	defer done()

	ch := make(chan string, 1)
	go func() {
		line, _ := apiclient.NewTransport(addr).Do("ps", nil, nil)
		ch <- line
	}()

	b.Peer.MustRecv(2 * time.Second)
	sendProcess(t, b, 0, 3, protocol.ProcessInfo{PID: 10, Name: "explorer.exe"})

	assert.Equal(t, `{"processes":[{"pid":10,"name":"explorer.exe","memoryUsage":0,"affinityMask":0}],"complete":false}`, <-ch)
}
