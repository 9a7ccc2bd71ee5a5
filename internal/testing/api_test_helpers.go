package testing

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/Alia5/winbridge/gamepad"
	"github.com/Alia5/winbridge/internal/server/api"
	"github.com/Alia5/winbridge/protocol"
	"github.com/Alia5/winbridge/winhandler"
)

// Bridge bundles a handler with its controller registry and a fake companion.
type Bridge struct {
	Handler  *winhandler.Handler
	Devices  *gamepad.Devices
	Profiles *gamepad.Profiles
	Peer     *FakePeer
}

// NewBridge builds a stopped handler whose companion is a FakePeer.
func NewBridge(t *testing.T) *Bridge {
	t.Helper()
	b := &Bridge{
		Devices:  gamepad.NewDevices(),
		Profiles: &gamepad.Profiles{},
		Peer:     NewFakePeer(t),
	}
	cfg := winhandler.Config{
		Host:       "127.0.0.1",
		ClientPort: b.Peer.Port(),
		Mapper:     protocol.MapperXInput,
	}
	b.Handler = winhandler.New(cfg, gamepad.NewSelector(b.Devices, b.Profiles), slog.Default(), nil)
	return b
}

// Init sends INIT from the fake companion and waits for the handshake.
func (b *Bridge) Init(t *testing.T) {
	t.Helper()
	b.Peer.Send(b.Handler.LocalAddr(), protocol.EncodeCode(protocol.RequestInit))
	deadline := time.Now().Add(2 * time.Second)
	for !b.Handler.Initialized() {
		if time.Now().After(deadline) {
			t.Fatalf("handshake not completed")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// StartAPIServer starts a bridge and an API server on a free port and calls
// register to allow the caller to register the handlers needed for the test.
// Returns the address, the bridge and a function to call when done.
func StartAPIServer(t *testing.T, register func(r *api.Router, b *Bridge, apiSrv *api.Server)) (addr string, b *Bridge, done func()) {
	t.Helper()
	b = NewBridge(t)
	if err := b.Handler.Start(); err != nil {
		t.Fatalf("winhandler start failed: %v", err)
	}

	apiSrv := api.New("127.0.0.1:0", api.ServerConfig{ProcessListTimeout: 500 * time.Millisecond}, slog.Default())
	if register != nil {
		register(apiSrv.Router(), b, apiSrv)
	}
	if err := apiSrv.Start(); err != nil {
		t.Fatalf("api start failed: %v", err)
	}

	done = func() {
		apiSrv.Close()
		b.Handler.Stop()
		time.Sleep(10 * time.Millisecond)
	}
	return apiSrv.Addr(), b, done
}

// ExecCmd dials the API server, sends cmd (newline not required) and returns
// the response line without the trailing newline. Client errors call t.Fatalf.
func ExecCmd(t *testing.T, addr string, cmd string) string {
	t.Helper()
	c, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer c.Close()
	r := bufio.NewReader(c)
	_, _ = fmt.Fprintf(c, "%s\n", cmd)
	line, err := r.ReadString('\n')
	if err != nil {
		if err != io.EOF {
			t.Fatalf("read failed: %v", err)
		}
	}
	if len(line) == 0 {
		return ""
	}
	return line[:len(line)-1]
}

// ExecuteLine routes a single command string (one full line without trailing newline)
// through the provided router, emulating the server's connection handling
// without network IO. Returns the response line as produced by the API contract.
func ExecuteLine(t *testing.T, r *api.Router, line string) string {
	t.Helper()
	path, args, payload := api.ParseLine(line)
	if path == "" {
		return jsonError("empty")
	}
	if h, params := r.Match(path); h != nil {
		req := &api.Request{Params: params, Args: args, Payload: payload}
		res := &api.Response{}
		if err := h(req, res, slog.Default()); err != nil {
			return jsonError(err.Error())
		}
		return res.JSON
	}
	return jsonError("unknown path")
}

func jsonError(msg string) string {
	problem := map[string]string{"error": msg}
	b, _ := json.Marshal(problem)
	return string(b)
}
