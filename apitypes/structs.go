package apitypes

// Shared API response structs used by both handlers and clients.

type ApiError struct {
	Error string `json:"error"`
}

type PingResponse struct {
	Server  string `json:"server"`
	Version string `json:"version"`
}

type StatusResponse struct {
	Running     bool         `json:"running"`
	Initialized bool         `json:"initialized"`
	Session     string       `json:"session"`
	Listen      string       `json:"listen"`
	Mapper      string       `json:"mapper"`
	Pending     int          `json:"pending"`
	Buffered    int          `json:"buffered"`
	Gamepad     *GamepadInfo `json:"gamepad,omitempty"`
}

type ExecResponse struct {
	Filename   string `json:"filename"`
	Parameters string `json:"parameters"`
}

type KillResponse struct {
	Name string `json:"name"`
}

type Process struct {
	PID          int32  `json:"pid"`
	Name         string `json:"name"`
	MemoryUsage  int64  `json:"memoryUsage"`
	AffinityMask uint32 `json:"affinityMask"`
}

type ProcessListResponse struct {
	Processes []Process `json:"processes"`
	// Complete is false when the companion did not report every process in time.
	Complete bool `json:"complete"`
}

type AffinityResponse struct {
	PID          int32  `json:"pid"`
	AffinityMask uint32 `json:"affinityMask"`
}

type MouseResponse struct {
	Sent bool `json:"sent"`
}

type MapperResponse struct {
	Mapper string `json:"mapper"`
}

type GamepadInfo struct {
	ID        int32  `json:"id"`
	Name      string `json:"name"`
	Connected bool   `json:"connected"`
	Current   bool   `json:"current"`
}

type GamepadListResponse struct {
	Gamepads []GamepadInfo `json:"gamepads"`
}

type GamepadConnectResponse struct {
	ID int32 `json:"id"`
}

type GamepadDisconnectResponse struct {
	ID int32 `json:"id"`
}
