package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"strings"

	"github.com/Alia5/winbridge/apitypes"
	"github.com/Alia5/winbridge/gamepad"
	"github.com/Alia5/winbridge/internal/server/api"
	"github.com/Alia5/winbridge/winhandler"
)

// GamepadList lists the attached physical controllers.
func GamepadList(devices *gamepad.Devices, sel *gamepad.Selector) api.HandlerFunc {
	return func(_ *api.Request, res *api.Response, _ *slog.Logger) error {
		current := sel.Current()
		out := apitypes.GamepadListResponse{Gamepads: []apitypes.GamepadInfo{}}
		for _, c := range devices.List() {
			out.Gamepads = append(out.Gamepads, apitypes.GamepadInfo{
				ID:        c.ID(),
				Name:      c.Name(),
				Connected: c.Connected(),
				Current:   c == current,
			})
		}
		return writeJSON(res, out)
	}
}

// GamepadConnect attaches a physical controller. Arguments: id [name...].
func GamepadConnect(devices *gamepad.Devices) api.HandlerFunc {
	return func(req *api.Request, res *api.Response, logger *slog.Logger) error {
		if len(req.Args) < 1 {
			return errors.New("usage: gamepad/connect <id> [name]")
		}
		id, err := parseDeviceID(req.Args[0])
		if err != nil {
			return err
		}
		name := strings.Join(req.Args[1:], " ")
		if name == "" {
			name = fmt.Sprintf("Gamepad %d", id)
		}
		if err := devices.Connect(gamepad.NewController(id, name)); err != nil {
			return err
		}
		logger.Info("Gamepad connected", "id", id, "name", name)
		return writeJSON(res, apitypes.GamepadConnectResponse{ID: id})
	}
}

// GamepadDisconnect detaches the controller named by the {id} path parameter.
func GamepadDisconnect(devices *gamepad.Devices) api.HandlerFunc {
	return func(req *api.Request, res *api.Response, logger *slog.Logger) error {
		id, err := parseDeviceID(req.Params["id"])
		if err != nil {
			return err
		}
		if !devices.Disconnect(id) {
			return fmt.Errorf("gamepad %d not found", id)
		}
		logger.Info("Gamepad disconnected", "id", id)
		return writeJSON(res, apitypes.GamepadDisconnectResponse{ID: id})
	}
}

// GamepadStream feeds a controller with raw gamepad.State frames read from
// the connection until the client disconnects or the controller goes away.
func GamepadStream(devices *gamepad.Devices, h *winhandler.Handler) api.StreamHandlerFunc {
	return func(conn net.Conn, params map[string]string, logger *slog.Logger) error {
		id, err := parseDeviceID(params["id"])
		if err != nil {
			return err
		}
		c := devices.ByID(id)
		if c == nil {
			return fmt.Errorf("gamepad %d not found", id)
		}

		buf := make([]byte, gamepad.StateSize)
		var st gamepad.State
		frames := 0
		for {
			if _, err := io.ReadFull(conn, buf); err != nil {
				if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
					logger.Debug("Gamepad stream closed", "id", id, "frames", frames)
					return nil
				}
				return fmt.Errorf("read state: %w", err)
			}
			if !c.Connected() {
				return fmt.Errorf("gamepad %d disconnected", id)
			}
			if err := st.UnmarshalBinary(buf); err != nil {
				return err
			}
			h.UpdateController(c, st)
			frames++
		}
	}
}

func parseDeviceID(s string) (int32, error) {
	id, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid gamepad id: %w", err)
	}
	return int32(id), nil
}
