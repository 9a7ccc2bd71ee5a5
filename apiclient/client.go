package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Alia5/winbridge/apitypes"
)

// Client provides a high-level interface to the bridge's control API,
// handling request formatting, response parsing, and error handling.
type Client struct{ transport *Transport }

// New constructs a high-level API client using the internal low-level Transport.
// The addr parameter specifies the TCP address (host:port) of the control API.
func New(addr string) *Client { return &Client{transport: NewTransport(addr)} }

// NewWithConfig constructs a client with custom transport timeouts.
func NewWithConfig(addr string, cfg *Config) *Client {
	return &Client{transport: NewTransportWithConfig(addr, cfg)}
}

// WithTransport constructs a Client using a custom Transport implementation.
func WithTransport(t *Transport) *Client { return &Client{transport: t} }

func (c *Client) Ping(ctx context.Context) (*apitypes.PingResponse, error) {
	return do[apitypes.PingResponse](ctx, c, "ping", nil, nil)
}

// Status reports the bridge's session and gamepad state.
func (c *Client) Status(ctx context.Context) (*apitypes.StatusResponse, error) {
	return do[apitypes.StatusResponse](ctx, c, "status", nil, nil)
}

// Exec queues a program launch inside the Windows environment. The first
// space separates the program from its arguments.
func (c *Client) Exec(ctx context.Context, commandLine string) (*apitypes.ExecResponse, error) {
	return do[apitypes.ExecResponse](ctx, c, "exec", commandLine, nil)
}

// Kill queues termination of every process with the given image name.
func (c *Client) Kill(ctx context.Context, name string) (*apitypes.KillResponse, error) {
	return do[apitypes.KillResponse](ctx, c, "kill", name, nil)
}

// Processes lists the companion's processes.
func (c *Client) Processes(ctx context.Context) (*apitypes.ProcessListResponse, error) {
	return do[apitypes.ProcessListResponse](ctx, c, "ps", nil, nil)
}

// Affinity pins process pid to the CPUs in mask.
func (c *Client) Affinity(ctx context.Context, pid int32, mask uint32) (*apitypes.AffinityResponse, error) {
	return do[apitypes.AffinityResponse](ctx, c, "affinity", fmt.Sprintf("%d %#x", pid, mask), nil)
}

// Mouse injects one pointer event. Sent is false when the companion has not
// completed its handshake yet.
func (c *Client) Mouse(ctx context.Context, flags int32, dx, dy, wheel int16) (*apitypes.MouseResponse, error) {
	payload := fmt.Sprintf("%#x %d %d %d", uint32(flags), dx, dy, wheel)
	return do[apitypes.MouseResponse](ctx, c, "mouse", payload, nil)
}

// Mapper returns the DirectInput mapper type. A non-empty mapper changes it first.
func (c *Client) Mapper(ctx context.Context, mapper string) (*apitypes.MapperResponse, error) {
	var payload any
	if mapper != "" {
		payload = mapper
	}
	return do[apitypes.MapperResponse](ctx, c, "mapper", payload, nil)
}

// GamepadList lists the attached physical controllers.
func (c *Client) GamepadList(ctx context.Context) (*apitypes.GamepadListResponse, error) {
	return do[apitypes.GamepadListResponse](ctx, c, "gamepad/list", nil, nil)
}

// GamepadConnect attaches a physical controller with the given device id.
func (c *Client) GamepadConnect(ctx context.Context, id int32, name string) (*apitypes.GamepadConnectResponse, error) {
	payload := fmt.Sprintf("%d", id)
	if name != "" {
		payload += " " + name
	}
	return do[apitypes.GamepadConnectResponse](ctx, c, "gamepad/connect", payload, nil)
}

// GamepadDisconnect detaches a physical controller.
func (c *Client) GamepadDisconnect(ctx context.Context, id int32) (*apitypes.GamepadDisconnectResponse, error) {
	params := map[string]string{"id": fmt.Sprintf("%d", id)}
	return do[apitypes.GamepadDisconnectResponse](ctx, c, "gamepad/{id}/disconnect", nil, params)
}

func do[T any](ctx context.Context, c *Client, path string, payload any, params map[string]string) (*T, error) {
	line, err := c.transport.DoCtx(ctx, path, payload, params)
	if err != nil {
		return nil, err
	}
	return parse[T](line)
}

func parse[T any](line string) (*T, error) {
	if line == "" {
		return nil, errors.New("empty response")
	}
	var ae apitypes.ApiError
	if err := json.Unmarshal([]byte(line), &ae); err == nil && ae.Error != "" {
		return nil, errors.New(ae.Error)
	}
	var out T
	dec := json.NewDecoder(bytes.NewReader([]byte(line)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return &out, nil
}
