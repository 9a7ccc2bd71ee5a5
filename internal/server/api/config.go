package api

import "time"

// ServerConfig represents the control API configuration.
type ServerConfig struct {
	Addr               string        `help:"Control API listen address" default:"127.0.0.1:7948" env:"WINBRIDGE_API_ADDR"`
	ProcessListTimeout time.Duration `help:"How long ps waits for the companion to report all processes" default:"2s" env:"WINBRIDGE_API_PS_TIMEOUT"`
}
