package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Alia5/winbridge/gamepad"
	"github.com/Alia5/winbridge/internal/log"
	"github.com/Alia5/winbridge/internal/metrics"
	"github.com/Alia5/winbridge/internal/server/api"
	"github.com/Alia5/winbridge/internal/server/api/handler"
	"github.com/Alia5/winbridge/protocol"
	"github.com/Alia5/winbridge/winhandler"
)

// Serve runs the bridge: the companion endpoint plus the control API.
type Serve struct {
	Bridge      winhandler.Config `embed:""`
	API         api.ServerConfig  `embed:"" prefix:"api."`
	Mapper      string            `help:"DirectInput mapper type reported to the companion" enum:"standard,xinput" default:"xinput" env:"WINBRIDGE_MAPPER"`
	Profile     string            `help:"Virtual gamepad profile file (YAML or TOML)" type:"existingfile" env:"WINBRIDGE_PROFILE"`
	Devices     string            `help:"Physical controllers to attach at startup (YAML or TOML)" type:"existingfile" env:"WINBRIDGE_DEVICES"`
	MetricsAddr string            `help:"Prometheus metrics listen address (empty disables)" env:"WINBRIDGE_METRICS_ADDR"`
}

// Run is called by Kong when the serve command is executed.
func (s *Serve) Run(logger *slog.Logger, rawLogger log.RawLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mapper, err := protocol.ParseMapperType(s.Mapper)
	if err != nil {
		return err
	}
	s.Bridge.Mapper = mapper

	devices := gamepad.NewDevices()
	if s.Devices != "" {
		controllers, err := gamepad.LoadDevices(s.Devices)
		if err != nil {
			return err
		}
		for _, c := range controllers {
			if err := devices.Connect(c); err != nil {
				return fmt.Errorf("devices file: %w", err)
			}
		}
		logger.Info("Attached gamepads", "count", len(controllers))
	}

	profiles := &gamepad.Profiles{}
	if s.Profile != "" {
		pad, err := gamepad.LoadProfile(s.Profile)
		if err != nil {
			return err
		}
		profiles.Set(pad)
		logger.Info("Loaded profile", "name", pad.Name(), "virtual", pad.Active())
	}

	h := winhandler.New(s.Bridge, gamepad.NewSelector(devices, profiles), logger, rawLogger)
	collector := handler.NewProcessCollector(s.API.ProcessListTimeout)
	h.SetProcessInfoListener(collector.OnProcessInfo)

	logger.Info("Starting winbridge", "host", s.Bridge.Host, "serverPort", s.Bridge.ServerPort, "clientPort", s.Bridge.ClientPort, "mapper", mapper)
	if err := h.Start(); err != nil {
		return err
	}
	defer h.Stop()

	apiSrv := api.New(s.API.Addr, s.API, logger)
	registerRoutes(apiSrv.Router(), h, devices, collector)
	if err := apiSrv.Start(); err != nil {
		return fmt.Errorf("start control API: %w", err)
	}
	defer apiSrv.Close()

	metricsErrCh := make(chan error, 1)
	if s.MetricsAddr != "" {
		go func() {
			metricsErrCh <- metrics.Serve(ctx, s.MetricsAddr, logger)
		}()
	}

	select {
	case <-ctx.Done():
		logger.Info("Shutting down winbridge")
		return nil
	case err := <-metricsErrCh:
		return fmt.Errorf("metrics server: %w", err)
	}
}

func registerRoutes(r *api.Router, h *winhandler.Handler, devices *gamepad.Devices, collector *handler.ProcessCollector) {
	r.Register("ping", handler.Ping())
	r.Register("status", handler.Status(h))
	r.Register("exec", handler.Exec(h))
	r.Register("kill", handler.Kill(h))
	r.Register("ps", handler.Processes(h, collector))
	r.Register("affinity", handler.Affinity(h))
	r.Register("mouse", handler.Mouse(h))
	r.Register("mapper", handler.Mapper(h))
	r.Register("gamepad/list", handler.GamepadList(devices, h.Selector()))
	r.Register("gamepad/connect", handler.GamepadConnect(devices))
	r.Register("gamepad/{id}/disconnect", handler.GamepadDisconnect(devices))
	r.RegisterStream("gamepad/{id}", handler.GamepadStream(devices, h))
}
