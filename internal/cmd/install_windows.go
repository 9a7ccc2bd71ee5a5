//go:build windows

package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"golang.org/x/sys/windows/registry"
)

const (
	runKeyPath  = `Software\Microsoft\Windows\CurrentVersion\Run`
	runValueKey = "winbridge"
)

// commandLine renders the Run value: the quoted executable followed by its
// arguments, quoting only those that need it.
func commandLine(exe string, args []string) string {
	parts := []string{quoteArg(exe)}
	for _, a := range args {
		if strings.ContainsAny(a, " \t\"") {
			a = quoteArg(a)
		}
		parts = append(parts, a)
	}
	return strings.Join(parts, " ")
}

func quoteArg(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}

func install(exe string, args []string, logger *slog.Logger) error {
	key, _, err := registry.CreateKey(registry.CURRENT_USER, runKeyPath, registry.SET_VALUE)
	if err != nil {
		return fmt.Errorf("open run key: %w", err)
	}
	defer key.Close()

	value := commandLine(exe, args)
	if err := key.SetStringValue(runValueKey, value); err != nil {
		return fmt.Errorf("write run value: %w", err)
	}

	if err := exec.Command(exe, args...).Start(); err != nil {
		return fmt.Errorf("failed to start bridge: %w", err)
	}

	logger.Info("winbridge install completed for Windows autorun", "command", value)
	return nil
}

func uninstall(logger *slog.Logger) error {
	key, err := registry.OpenKey(registry.CURRENT_USER, runKeyPath, registry.SET_VALUE)
	if errors.Is(err, registry.ErrNotExist) {
		logger.Info("winbridge autorun not installed")
		return nil
	}
	if err != nil {
		return fmt.Errorf("open run key: %w", err)
	}
	defer key.Close()

	if err := key.DeleteValue(runValueKey); err != nil && !errors.Is(err, registry.ErrNotExist) {
		return fmt.Errorf("delete run value: %w", err)
	}

	logger.Info("winbridge autorun entry removed")
	return nil
}
