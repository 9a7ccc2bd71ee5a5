// Package winhandler runs the host side of the companion control protocol.
//
// A Handler owns one UDP socket and two goroutines: a listener that answers
// the companion's queries and a dispatcher that drains the outbound action
// queue. Nothing leaves the queue until the companion has sent INIT.
package winhandler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/netip"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/Alia5/winbridge/gamepad"
	"github.com/Alia5/winbridge/internal/log"
	"github.com/Alia5/winbridge/internal/metrics"
	"github.com/Alia5/winbridge/protocol"
)

var (
	// ErrNotRunning is returned for sends attempted while the handler is stopped.
	ErrNotRunning = errors.New("winhandler not running")
	// ErrNoPeer is returned for sends when the companion address could not be resolved.
	ErrNoPeer = errors.New("companion address unresolved")
)

// Config represents the UDP endpoint configuration.
type Config struct {
	Host       string              `help:"Host the companion listens on" default:"localhost" env:"WINBRIDGE_HOST"`
	ServerPort int                 `help:"UDP port the bridge listens on (0 picks a free port)" default:"7947" env:"WINBRIDGE_SERVER_PORT"`
	ClientPort int                 `help:"UDP port the companion listens on" default:"7946" env:"WINBRIDGE_CLIENT_PORT"`
	Mapper     protocol.MapperType `kong:"-"`
}

// Handler is the host endpoint of the companion protocol.
type Handler struct {
	cfg      Config
	logger   *slog.Logger
	raw      log.RawLogger
	selector *gamepad.Selector
	queue    *actionQueue

	mapper   atomic.Uint32
	listener atomic.Pointer[protocol.ProcessInfoListener]

	lifecycle sync.Mutex
	running   atomic.Bool
	sess      atomic.Pointer[session]
	wg        sync.WaitGroup

	mu     sync.RWMutex
	conn   *net.UDPConn
	client netip.AddrPort
}

// New creates a stopped handler. selector answers gamepad queries; raw may
// be nil.
func New(cfg Config, selector *gamepad.Selector, logger *slog.Logger, raw log.RawLogger) *Handler {
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.ClientPort == 0 {
		cfg.ClientPort = protocol.ClientPort
	}
	if raw == nil {
		raw = log.NewRaw(nil)
	}
	h := &Handler{
		cfg:      cfg,
		logger:   logger,
		raw:      raw,
		selector: selector,
		queue:    newActionQueue(),
	}
	h.mapper.Store(uint32(cfg.Mapper))
	return h
}

// Selector returns the gamepad selector answering companion queries.
func (h *Handler) Selector() *gamepad.Selector { return h.selector }

// Start resolves the companion address, binds the server port and starts the
// listener and dispatcher. Every Start begins a new uninitialized session.
// A resolution failure is logged and sends fail until the next Start.
func (h *Handler) Start() error {
	h.lifecycle.Lock()
	defer h.lifecycle.Unlock()

	if h.running.Load() {
		return errors.New("winhandler already running")
	}

	client, err := resolveClient(h.cfg.Host, h.cfg.ClientPort)
	if err != nil {
		h.logger.Warn("Failed to resolve companion host", "host", h.cfg.Host, "error", err)
	}

	lc := net.ListenConfig{Control: reuseAddr}
	pc, err := lc.ListenPacket(context.Background(), "udp4", net.JoinHostPort("", strconv.Itoa(h.cfg.ServerPort)))
	if err != nil {
		return fmt.Errorf("bind server port %d: %w", h.cfg.ServerPort, err)
	}
	conn := pc.(*net.UDPConn)

	s := newSession()
	logger := h.logger.With("session", s.id)

	h.mu.Lock()
	h.conn = conn
	h.client = client
	h.mu.Unlock()

	h.sess.Store(s)
	h.queue.open()
	h.running.Store(true)

	h.wg.Add(2)
	go h.listen(conn, logger)
	go h.dispatch(logger)

	logger.Info("WinHandler started", "listen", conn.LocalAddr().String(), "companion", client.String())
	return nil
}

// Stop closes the socket and waits for both goroutines to exit. Actions
// still queued are discarded. Stop is idempotent.
func (h *Handler) Stop() {
	h.lifecycle.Lock()
	defer h.lifecycle.Unlock()

	if !h.running.Swap(false) {
		return
	}
	h.queue.close()

	h.mu.Lock()
	conn := h.conn
	h.conn = nil
	h.mu.Unlock()
	if conn != nil {
		_ = conn.Close()
	}
	h.wg.Wait()

	if n := h.queue.drop(); n > 0 {
		h.logger.Debug("Discarded pending actions", "count", n)
	}
	h.logger.Info("WinHandler stopped")
}

// Running reports whether the handler is started.
func (h *Handler) Running() bool { return h.running.Load() }

// Initialized reports whether the current session has seen INIT.
func (h *Handler) Initialized() bool {
	s := h.sess.Load()
	return s != nil && s.initialized.Load()
}

// SessionID returns the id of the current session, or "" before the first Start.
func (h *Handler) SessionID() string {
	if s := h.sess.Load(); s != nil {
		return s.id
	}
	return ""
}

// LocalAddr returns the bound server address, or an invalid AddrPort when stopped.
func (h *Handler) LocalAddr() netip.AddrPort {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.conn == nil {
		return netip.AddrPort{}
	}
	ap := h.conn.LocalAddr().(*net.UDPAddr).AddrPort()
	return netip.AddrPortFrom(ap.Addr().Unmap(), ap.Port())
}

// Pending returns the number of queued outbound actions.
func (h *Handler) Pending() int { return h.queue.len() }

// Exec asks the companion to run command. The first space separates the
// program from its arguments. An empty command is ignored.
func (h *Handler) Exec(command string) error {
	command = strings.TrimSpace(command)
	if command == "" {
		return nil
	}
	filename, params, _ := strings.Cut(command, " ")
	req := protocol.ExecRequest{Filename: filename, Parameters: params}
	if err := req.Validate(); err != nil {
		return err
	}
	h.queue.enqueue(Action{Code: protocol.RequestExec, Exec: req})
	return nil
}

// KillProcess asks the companion to terminate every process named name.
func (h *Handler) KillProcess(name string) error {
	req := protocol.KillProcessRequest{Name: name}
	if err := req.Validate(); err != nil {
		return err
	}
	h.queue.enqueue(Action{Code: protocol.RequestKillProcess, Kill: req})
	return nil
}

// ListProcesses asks the companion for its process list. Each entry arrives
// through the process info listener. Before INIT the request is sent
// immediately instead of being queued; if a send fails the listener is
// called once with (0, 0, nil).
func (h *Handler) ListProcesses() {
	a := Action{Code: protocol.RequestListProcesses}
	if h.Initialized() {
		h.queue.enqueue(a)
		return
	}
	if err := h.send(a); err != nil {
		h.sendFailed(h.logger, a, err)
	}
}

// SetProcessAffinity pins process pid to the CPUs in mask.
func (h *Handler) SetProcessAffinity(pid, mask int32) {
	h.queue.enqueue(Action{
		Code:     protocol.RequestSetProcessAffinity,
		Affinity: protocol.SetProcessAffinityRequest{PID: pid, AffinityMask: mask},
	})
}

// MouseEvent injects a pointer event. Events before INIT are dropped and
// reported as false.
func (h *Handler) MouseEvent(flags int32, dx, dy, wheelDelta int16) bool {
	if !h.Initialized() {
		metrics.Get().DatagramsDropped.WithLabelValues("not_initialized").Inc()
		return false
	}
	h.queue.enqueue(Action{
		Code:  protocol.RequestMouseEvent,
		Mouse: protocol.MouseEventRequest{Flags: flags, DX: dx, DY: dy, WheelDelta: wheelDelta},
	})
	return true
}

// SetDInputMapperType sets the mapper type reported in GET_GAMEPAD replies.
func (h *Handler) SetDInputMapperType(t protocol.MapperType) { h.mapper.Store(uint32(t)) }

// DInputMapperType returns the mapper type reported in GET_GAMEPAD replies.
func (h *Handler) DInputMapperType() protocol.MapperType {
	return protocol.MapperType(h.mapper.Load())
}

// SetProcessInfoListener replaces the process list callback. nil removes it.
func (h *Handler) SetProcessInfoListener(l protocol.ProcessInfoListener) {
	if l == nil {
		h.listener.Store(nil)
		return
	}
	h.listener.Store(&l)
}

func (h *Handler) notifyProcess(index, count int, info *protocol.ProcessInfo) {
	if l := h.listener.Load(); l != nil {
		(*l)(index, count, info)
	}
}

// OnMotionEvent feeds an axis event of a physical controller.
func (h *Handler) OnMotionEvent(ev gamepad.MotionEvent) bool { return h.selector.OnMotionEvent(ev) }

// OnKeyEvent feeds a button event of a physical controller.
func (h *Handler) OnKeyEvent(ev gamepad.KeyEvent) bool { return h.selector.OnKeyEvent(ev) }

// SaveGamepadState buffers st for the next GET_GAMEPAD_STATE poll.
func (h *Handler) SaveGamepadState(st gamepad.State) { h.selector.Save(st) }

// UpdateController replaces the live state of c, buffering it when c is the
// selected controller.
func (h *Handler) UpdateController(c *gamepad.Controller, st gamepad.State) bool {
	return h.selector.Update(c, st)
}

func resolveClient(host string, port int) (netip.AddrPort, error) {
	addr, err := net.ResolveUDPAddr("udp4", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return netip.AddrPort{}, err
	}
	ap := addr.AddrPort()
	return netip.AddrPortFrom(ap.Addr().Unmap(), ap.Port()), nil
}
