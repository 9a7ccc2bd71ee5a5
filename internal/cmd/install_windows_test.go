//go:build windows

package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommandLine(t *testing.T) {
	tests := []struct {
		name string
		exe  string
		args []string
		want string
	}{
		{name: "plain", exe: `C:\winbridge.exe`, args: serveArgs(nil), want: `"C:\winbridge.exe" serve`},
		{name: "spaced arg", exe: `C:\wb.exe`, args: serveArgs([]string{`--profile=C:\my pad.yaml`}), want: `"C:\wb.exe" serve "--profile=C:\my pad.yaml"`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, commandLine(tc.exe, tc.args))
		})
	}
}
