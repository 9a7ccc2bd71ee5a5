//go:build windows

package configpaths

// ServiceConfigDir returns the directory read when running as a service.
func ServiceConfigDir() (string, error) {
	return DefaultConfigDir()
}
