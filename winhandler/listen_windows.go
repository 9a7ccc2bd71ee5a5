//go:build windows

package winhandler

import "syscall"

// SO_REUSEADDR on Windows allows other processes to steal the port, so the
// socket is bound without it.
func reuseAddr(_, _ string, _ syscall.RawConn) error { return nil }
