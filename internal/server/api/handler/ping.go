package handler

import (
	"encoding/json"
	"log/slog"

	"github.com/Alia5/winbridge/apitypes"
	"github.com/Alia5/winbridge/internal/server/api"
	"github.com/Alia5/winbridge/internal/version"
)

// Ping returns a handler for the "ping" endpoint.
// It provides a minimal identity + version response.
func Ping() api.HandlerFunc {
	return func(_ *api.Request, res *api.Response, _ *slog.Logger) error {
		b, err := json.Marshal(apitypes.PingResponse{Server: "winbridge", Version: version.Version})
		if err != nil {
			return err
		}
		res.JSON = string(b)
		return nil
	}
}

func writeJSON(res *api.Response, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	res.JSON = string(b)
	return nil
}
