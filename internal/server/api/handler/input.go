package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/Alia5/winbridge/apitypes"
	"github.com/Alia5/winbridge/internal/server/api"
	"github.com/Alia5/winbridge/protocol"
	"github.com/Alia5/winbridge/winhandler"
)

// Mouse injects one pointer event. Arguments: flags dx dy [wheel]. flags
// accepts 0x prefixes. Events before the companion's handshake are dropped.
func Mouse(h *winhandler.Handler) api.HandlerFunc {
	return func(req *api.Request, res *api.Response, _ *slog.Logger) error {
		if len(req.Args) < 3 || len(req.Args) > 4 {
			return errors.New("usage: mouse <flags> <dx> <dy> [wheel]")
		}
		flags, err := strconv.ParseUint(req.Args[0], 0, 32)
		if err != nil {
			return fmt.Errorf("invalid flags: %w", err)
		}
		var vals [3]int16
		for i, a := range req.Args[1:] {
			v, err := strconv.ParseInt(a, 10, 16)
			if err != nil {
				return fmt.Errorf("invalid argument %q: %w", a, err)
			}
			vals[i] = int16(v)
		}
		sent := h.MouseEvent(int32(uint32(flags)), vals[0], vals[1], vals[2])
		return writeJSON(res, apitypes.MouseResponse{Sent: sent})
	}
}

// Mapper reports the DirectInput mapper type, or sets it when given one
// argument (standard or xinput).
func Mapper(h *winhandler.Handler) api.HandlerFunc {
	return func(req *api.Request, res *api.Response, logger *slog.Logger) error {
		if len(req.Args) > 1 {
			return errors.New("usage: mapper [standard|xinput]")
		}
		if len(req.Args) == 1 {
			t, err := protocol.ParseMapperType(req.Args[0])
			if err != nil {
				return err
			}
			h.SetDInputMapperType(t)
			logger.Info("Mapper type changed", "mapper", t)
		}
		return writeJSON(res, apitypes.MapperResponse{Mapper: h.DInputMapperType().String()})
	}
}
