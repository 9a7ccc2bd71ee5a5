package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"golang.org/x/term"

	"github.com/Alia5/winbridge/apiclient"
	"github.com/Alia5/winbridge/apitypes"
)

// APIClient holds the flags shared by commands talking to a running bridge.
type APIClient struct {
	APIAddr string        `name:"api.addr" help:"Control API address of the running bridge" default:"127.0.0.1:7948" env:"WINBRIDGE_API_ADDR"`
	Timeout time.Duration `help:"Request timeout" default:"10s" env:"WINBRIDGE_CLIENT_TIMEOUT"`
}

func (a APIClient) client() (*apiclient.Client, context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), a.Timeout)
	return apiclient.NewWithConfig(a.APIAddr, &apiclient.Config{
		DialTimeout:  3 * time.Second,
		ReadTimeout:  a.Timeout,
		WriteTimeout: 5 * time.Second,
	}), ctx, cancel
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Exec starts a program inside the Windows environment.
type Exec struct {
	APIClient `embed:""`
	Command   []string `arg:"" passthrough:"" help:"Program and arguments"`
}

func (e *Exec) Run() error {
	c, ctx, cancel := e.client()
	defer cancel()
	out, err := c.Exec(ctx, strings.Join(e.Command, " "))
	if err != nil {
		return err
	}
	return printJSON(os.Stdout, out)
}

// Kill terminates processes by image name.
type Kill struct {
	APIClient `embed:""`
	Name      string `arg:"" help:"Process image name, e.g. game.exe"`
}

func (k *Kill) Run() error {
	c, ctx, cancel := k.client()
	defer cancel()
	out, err := c.Kill(ctx, k.Name)
	if err != nil {
		return err
	}
	return printJSON(os.Stdout, out)
}

// Ps lists the processes running inside the Windows environment.
type Ps struct {
	APIClient `embed:""`
	JSON      bool `help:"Print JSON instead of a table"`
}

func (p *Ps) Run() error {
	c, ctx, cancel := p.client()
	defer cancel()
	out, err := c.Processes(ctx)
	if err != nil {
		return err
	}
	if p.JSON {
		return printJSON(os.Stdout, out)
	}
	writeProcessTable(os.Stdout, out, terminalWidth())
	return nil
}

func terminalWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return 0
	}
	w, _, err := term.GetSize(fd)
	if err != nil {
		return 0
	}
	return w
}

// writeProcessTable prints processes, cutting names so rows fit width. A
// width of 0 disables cutting.
func writeProcessTable(w io.Writer, out *apitypes.ProcessListResponse, width int) {
	const fixed = 8 + 12 + 12 + 6
	nameWidth := 0
	if width > fixed {
		nameWidth = width - fixed
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PID\tMEMORY\tAFFINITY\tNAME")
	for _, p := range out.Processes {
		name := p.Name
		if nameWidth > 0 && len(name) > nameWidth {
			name = name[:nameWidth]
		}
		fmt.Fprintf(tw, "%d\t%s\t%#x\t%s\n", p.PID, formatBytes(p.MemoryUsage), p.AffinityMask, name)
	}
	_ = tw.Flush()
	if !out.Complete {
		fmt.Fprintln(w, "(incomplete: the companion did not report every process)")
	}
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// Affinity pins a process to a CPU mask.
type Affinity struct {
	APIClient `embed:""`
	PID       int32  `arg:"" help:"Process id"`
	Mask      uint32 `arg:"" help:"CPU affinity bit mask"`
}

func (a *Affinity) Run() error {
	c, ctx, cancel := a.client()
	defer cancel()
	out, err := c.Affinity(ctx, a.PID, a.Mask)
	if err != nil {
		return err
	}
	return printJSON(os.Stdout, out)
}

// Mouse injects one pointer event.
type Mouse struct {
	APIClient `embed:""`
	Flags     int32 `arg:"" help:"MOUSEEVENTF_* flags"`
	DX        int16 `arg:"" help:"Horizontal movement"`
	DY        int16 `arg:"" help:"Vertical movement"`
	Wheel     int16 `arg:"" optional:"" help:"Wheel delta"`
}

func (m *Mouse) Run() error {
	c, ctx, cancel := m.client()
	defer cancel()
	out, err := c.Mouse(ctx, m.Flags, m.DX, m.DY, m.Wheel)
	if err != nil {
		return err
	}
	if !out.Sent {
		return fmt.Errorf("companion not initialized; event dropped")
	}
	return nil
}

// Mapper shows or changes the DirectInput mapper type.
type Mapper struct {
	APIClient `embed:""`
	Type      string `arg:"" optional:"" help:"New mapper type: standard or xinput"`
}

func (m *Mapper) Run() error {
	c, ctx, cancel := m.client()
	defer cancel()
	out, err := c.Mapper(ctx, m.Type)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(os.Stdout, out.Mapper)
	return err
}

// Status prints the bridge's session and gamepad state.
type Status struct {
	APIClient `embed:""`
}

func (s *Status) Run() error {
	c, ctx, cancel := s.client()
	defer cancel()
	out, err := c.Status(ctx)
	if err != nil {
		return err
	}
	return printJSON(os.Stdout, out)
}
