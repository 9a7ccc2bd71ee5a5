package handler

import (
	"log/slog"

	"github.com/Alia5/winbridge/apitypes"
	"github.com/Alia5/winbridge/internal/server/api"
	"github.com/Alia5/winbridge/winhandler"
)

// Status reports the session and gamepad state of the bridge.
func Status(h *winhandler.Handler) api.HandlerFunc {
	return func(_ *api.Request, res *api.Response, _ *slog.Logger) error {
		out := apitypes.StatusResponse{
			Running:     h.Running(),
			Initialized: h.Initialized(),
			Session:     h.SessionID(),
			Mapper:      h.DInputMapperType().String(),
			Pending:     h.Pending(),
			Buffered:    h.Selector().Buffer().Len(),
		}
		if addr := h.LocalAddr(); addr.IsValid() {
			out.Listen = addr.String()
		}
		if c := h.Selector().Current(); c != nil {
			out.Gamepad = &apitypes.GamepadInfo{ID: c.ID(), Name: c.Name(), Connected: c.Connected(), Current: true}
		}
		return writeJSON(res, out)
	}
}
