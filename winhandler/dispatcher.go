package winhandler

import (
	"log/slog"

	"github.com/Alia5/winbridge/internal/metrics"
	"github.com/Alia5/winbridge/protocol"
)

func (h *Handler) dispatch(logger *slog.Logger) {
	defer h.wg.Done()
	for {
		a, ok := h.queue.next(h.Initialized)
		if !ok {
			logger.Debug("Dispatcher exiting")
			return
		}
		if err := h.send(a); err != nil {
			h.sendFailed(logger, a, err)
		}
	}
}

// send encodes a into a fresh buffer and writes it to the companion.
func (h *Handler) send(a Action) error {
	data, err := a.encode()
	if err != nil {
		return err
	}

	h.mu.RLock()
	conn, to := h.conn, h.client
	h.mu.RUnlock()
	if a.To.IsValid() {
		to = a.To
	}
	if conn == nil {
		return ErrNotRunning
	}
	if !to.IsValid() {
		return ErrNoPeer
	}

	if _, err := conn.WriteToUDPAddrPort(data, to); err != nil {
		return err
	}
	h.raw.Log(false, to, data)
	metrics.Get().DatagramsSent.WithLabelValues(a.Code.String()).Inc()
	return nil
}

func (h *Handler) sendFailed(logger *slog.Logger, a Action, err error) {
	logger.Debug("Send failed", "code", a.Code, "error", err)
	metrics.Get().SendErrors.WithLabelValues(a.Code.String()).Inc()
	if a.Code == protocol.RequestListProcesses {
		h.notifyProcess(0, 0, nil)
	}
}
