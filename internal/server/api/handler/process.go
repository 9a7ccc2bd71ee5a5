package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/Alia5/winbridge/apitypes"
	"github.com/Alia5/winbridge/internal/server/api"
	"github.com/Alia5/winbridge/winhandler"
)

// Exec queues a program launch. The payload is the full command line.
func Exec(h *winhandler.Handler) api.HandlerFunc {
	return func(req *api.Request, res *api.Response, logger *slog.Logger) error {
		if req.Payload == "" {
			return errors.New("missing command line")
		}
		if err := h.Exec(req.Payload); err != nil {
			return err
		}
		filename, params, _ := strings.Cut(req.Payload, " ")
		logger.Info("Queued exec", "filename", filename)
		return writeJSON(res, apitypes.ExecResponse{Filename: filename, Parameters: params})
	}
}

// Kill queues termination of every process with the given image name.
func Kill(h *winhandler.Handler) api.HandlerFunc {
	return func(req *api.Request, res *api.Response, _ *slog.Logger) error {
		if req.Payload == "" {
			return errors.New("missing process name")
		}
		if err := h.KillProcess(req.Payload); err != nil {
			return err
		}
		return writeJSON(res, apitypes.KillResponse{Name: req.Payload})
	}
}

// Affinity pins a process to a CPU mask. Arguments: pid mask. The mask
// accepts 0x and 0b prefixes.
func Affinity(h *winhandler.Handler) api.HandlerFunc {
	return func(req *api.Request, res *api.Response, _ *slog.Logger) error {
		if len(req.Args) != 2 {
			return errors.New("usage: affinity <pid> <mask>")
		}
		pid, err := strconv.ParseInt(req.Args[0], 10, 32)
		if err != nil {
			return fmt.Errorf("invalid pid: %w", err)
		}
		mask, err := strconv.ParseUint(req.Args[1], 0, 32)
		if err != nil {
			return fmt.Errorf("invalid mask: %w", err)
		}
		h.SetProcessAffinity(int32(pid), int32(uint32(mask)))
		return writeJSON(res, apitypes.AffinityResponse{PID: int32(pid), AffinityMask: uint32(mask)})
	}
}

// Processes lists the companion's processes through collector.
func Processes(h *winhandler.Handler, collector *ProcessCollector) api.HandlerFunc {
	return func(req *api.Request, res *api.Response, logger *slog.Logger) error {
		infos, complete := collector.Collect(req.Ctx, h.ListProcesses)
		if !complete {
			logger.Warn("Process list incomplete", "received", len(infos))
		}
		out := apitypes.ProcessListResponse{Processes: make([]apitypes.Process, 0, len(infos)), Complete: complete}
		for _, p := range infos {
			out.Processes = append(out.Processes, apitypes.Process{
				PID:          p.PID,
				Name:         p.Name,
				MemoryUsage:  p.MemoryUsage,
				AffinityMask: uint32(p.AffinityMask),
			})
		}
		return writeJSON(res, out)
	}
}
