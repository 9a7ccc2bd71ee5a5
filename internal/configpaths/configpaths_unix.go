//go:build !windows

package configpaths

import (
	"os"
	"path/filepath"
)

// ServiceConfigDir returns the directory read when running as a service.
// On Unix, root services use /etc/winbridge.
func ServiceConfigDir() (string, error) {
	if os.Geteuid() == 0 {
		return filepath.Join(string(os.PathSeparator), "etc", appDir), nil
	}
	return DefaultConfigDir()
}
