package log

import (
	"fmt"
	"io"
	"net/netip"
	"sync"
	"time"
)

// RawLogger dumps datagrams exchanged with the companion.
type RawLogger interface {
	// Log records one datagram. inbound is true for datagrams received from peer.
	Log(inbound bool, peer netip.AddrPort, data []byte)
}

type rawLogger struct {
	mu sync.Mutex
	w  io.Writer
}

// NewRaw returns a RawLogger writing hex dumps to w. A nil w discards
// everything.
func NewRaw(w io.Writer) RawLogger {
	if w == nil {
		return discardRaw{}
	}
	return &rawLogger{w: w}
}

func (l *rawLogger) Log(inbound bool, peer netip.AddrPort, data []byte) {
	dir := "->"
	if inbound {
		dir = "<-"
	}
	line := fmt.Sprintf("%s %s %s [%d] % x\n",
		time.Now().Format("15:04:05.000000"), dir, peer, len(data), data)

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = io.WriteString(l.w, line)
}

type discardRaw struct{}

func (discardRaw) Log(bool, netip.AddrPort, []byte) {}
