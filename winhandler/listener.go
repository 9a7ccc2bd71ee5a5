package winhandler

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/netip"

	"github.com/Alia5/winbridge/internal/metrics"
	"github.com/Alia5/winbridge/protocol"
)

func (h *Handler) listen(conn *net.UDPConn, logger *slog.Logger) {
	defer h.wg.Done()

	buf := make([]byte, protocol.MaxDatagramSize)
	for {
		n, from, err := conn.ReadFromUDPAddrPort(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) || !h.running.Load() {
				logger.Debug("Listener exiting")
				return
			}
			logger.Debug("Receive failed", "error", err)
			continue
		}
		from = netip.AddrPortFrom(from.Addr().Unmap(), from.Port())
		h.raw.Log(true, from, buf[:n])

		if err := h.handleRequest(buf[:n], from, logger); err != nil {
			logger.Debug("Dropped datagram", "from", from.String(), "error", err)
			metrics.Get().DatagramsDropped.WithLabelValues(dropReason(err)).Inc()
		}
	}
}

// handleRequest processes one datagram from the companion. Query replies are
// queued addressed to from.
func (h *Handler) handleRequest(data []byte, from netip.AddrPort, logger *slog.Logger) error {
	code, err := protocol.PeekCode(data)
	if err != nil {
		return err
	}
	metrics.Get().DatagramsReceived.WithLabelValues(code.String()).Inc()

	switch code {
	case protocol.RequestInit:
		s := h.sess.Load()
		if s != nil && s.markInitialized() {
			metrics.Get().Handshakes.Inc()
			logger.Info("Companion initialized", "from", from.String())
			h.queue.wake()
		}

	case protocol.RequestGetProcess:
		var r protocol.ProcessReply
		if err := r.UnmarshalBinary(data); err != nil {
			return err
		}
		info := r.Info
		h.notifyProcess(int(r.Index), int(r.Count), &info)

	case protocol.RequestGetGamepad:
		var req protocol.GamepadRequest
		if err := req.UnmarshalBinary(data); err != nil {
			return err
		}
		reply := protocol.GamepadReply{}
		if src := h.selector.Gamepad(); src != nil {
			reply = protocol.GamepadReply{
				Present: true,
				ID:      src.ID(),
				Mapper:  h.DInputMapperType(),
				Name:    src.Name(),
			}
		}
		logger.Debug("Gamepad query", "xinput", req.XInput, "present", reply.Present, "id", reply.ID)
		h.queue.enqueue(Action{Code: protocol.RequestGetGamepad, To: from, Gamepad: reply})

	case protocol.RequestGetGamepadState:
		var req protocol.GamepadStateRequest
		if err := req.UnmarshalBinary(data); err != nil {
			return err
		}
		a := Action{Code: protocol.RequestGetGamepadState, To: from, GamepadID: req.GamepadID}
		if snap, ok := h.selector.State(req.GamepadID); ok {
			a.Snapshot = string(snap)
		}
		h.queue.enqueue(a)

	case protocol.RequestReleaseGamepad:
		h.selector.Release()

	default:
		return fmt.Errorf("%w: %s", protocol.ErrUnknownRequest, code)
	}
	return nil
}

func dropReason(err error) string {
	switch {
	case errors.Is(err, protocol.ErrShortDatagram):
		return "short"
	case errors.Is(err, protocol.ErrUnknownRequest):
		return "unknown_code"
	default:
		return "decode"
	}
}
