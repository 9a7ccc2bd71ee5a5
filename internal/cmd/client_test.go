package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Alia5/winbridge/apitypes"
)

func TestFormatBytes(t *testing.T) {
	tests := map[int64]string{
		0:               "0 B",
		1023:            "1023 B",
		1024:            "1.0 KiB",
		5 * 1024 * 1024: "5.0 MiB",
	}
	for in, want := range tests {
		assert.Equal(t, want, formatBytes(in))
	}
}

func TestWriteProcessTable(t *testing.T) {
	out := &apitypes.ProcessListResponse{
		Processes: []apitypes.Process{
			{PID: 10, Name: "explorer.exe", MemoryUsage: 2048, AffinityMask: 0xf},
			{PID: 20, Name: "a-very-long-process-name.exe", MemoryUsage: 1},
		},
	}

	var buf bytes.Buffer
	writeProcessTable(&buf, out, 0)
	s := buf.String()
	assert.Contains(t, s, "PID")
	assert.Contains(t, s, "explorer.exe")
	assert.Contains(t, s, "a-very-long-process-name.exe")
	assert.Contains(t, s, "2.0 KiB")
	assert.Contains(t, s, "0xf")
	assert.Contains(t, s, "incomplete")

	buf.Reset()
	out.Complete = true
	writeProcessTable(&buf, out, 38+6)
	assert.NotContains(t, buf.String(), "a-very-long")
	assert.Contains(t, buf.String(), "a-very")
	assert.NotContains(t, buf.String(), "incomplete")
}
