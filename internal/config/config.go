// Package config defines the CLI structure and configuration for winbridge.
package config

import (
	"github.com/Alia5/winbridge/internal/cmd"
)

type Log struct {
	Level   string `help:"Log level: trace, debug, info, warn, error" default:"info" env:"WINBRIDGE_LOG_LEVEL"`
	File    string `help:"Log file path (default: none; logs only to console)" env:"WINBRIDGE_LOG_FILE"`
	RawFile string `help:"Raw datagram log file path (default: none)" env:"WINBRIDGE_LOG_RAW_FILE"`
}

// CLI is the root command structure for Kong CLI parsing.
type CLI struct {
	Log    `embed:"" prefix:"log."`
	Config string `help:"Config file (JSON, YAML or TOML)" type:"path" env:"WINBRIDGE_CONFIG"`

	Serve    cmd.Serve    `cmd:"" help:"Run the bridge"`
	Exec     cmd.Exec     `cmd:"" help:"Start a program in the Windows environment"`
	Kill     cmd.Kill     `cmd:"" help:"Terminate processes by name"`
	Ps       cmd.Ps       `cmd:"" help:"List processes in the Windows environment"`
	Affinity cmd.Affinity `cmd:"" help:"Set the CPU affinity of a process"`
	Mouse    cmd.Mouse    `cmd:"" help:"Inject a mouse event"`
	Mapper   cmd.Mapper   `cmd:"" help:"Show or change the DirectInput mapper type"`
	Status   cmd.Status   `cmd:"" help:"Show the bridge status"`

	Install   cmd.Install   `cmd:"" help:"Start the bridge automatically at login"`
	Uninstall cmd.Uninstall `cmd:"" help:"Remove the automatic startup entry"`
}
