package protocol

import (
	"bytes"
	"fmt"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// ProcessInfo describes one process running inside the Windows environment.
type ProcessInfo struct {
	PID          int32
	Name         string
	MemoryUsage  int64
	AffinityMask int32
}

// ProcessInfoListener receives the companion's answers to LIST_PROCESSES,
// once per GET_PROCESS datagram. It is also called once with (0, 0, nil) when
// the LIST_PROCESSES request could not be sent.
type ProcessInfoListener func(index, count int, info *ProcessInfo)

// The companion writes process names in the Windows ANSI code page.
var ansi = charmap.Windows1252

func decodeANSI(raw []byte) (string, error) {
	if i := bytes.IndexByte(raw, 0); i >= 0 {
		raw = raw[:i]
	}
	raw = bytes.TrimRight(raw, " ")
	out, err := ansi.NewDecoder().Bytes(raw)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func encodeANSI(s string) ([]byte, error) {
	out, err := encoding.ReplaceUnsupported(ansi.NewEncoder()).Bytes([]byte(s))
	if err != nil {
		return nil, err
	}
	if len(out) > processNameSize {
		return nil, fmt.Errorf("process name: %w (%d > %d)", ErrPayloadTooLarge, len(out), processNameSize)
	}
	return out, nil
}
