package gamepad

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/pelletier/go-toml"
	"gopkg.in/yaml.v3"
)

// VirtualPad is an on-screen input profile. When the profile declares itself
// a virtual gamepad it takes precedence over any physical controller.
type VirtualPad struct {
	mu      sync.RWMutex
	id      int32
	name    string
	virtual bool
	state   State
}

// NewVirtualPad returns a profile in the neutral state.
func NewVirtualPad(id int32, name string, virtual bool) *VirtualPad {
	return &VirtualPad{id: id, name: name, virtual: virtual, state: NewState()}
}

func (v *VirtualPad) ID() int32    { return v.id }
func (v *VirtualPad) Name() string { return v.name }

// Active reports whether the profile is in virtual gamepad mode.
func (v *VirtualPad) Active() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.virtual
}

func (v *VirtualPad) SetVirtual(virtual bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.virtual = virtual
}

func (v *VirtualPad) State() State {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.state
}

func (v *VirtualPad) SetState(s State) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state = s
}

// Profile is the on-disk description of a virtual gamepad profile.
type Profile struct {
	ID             int32  `yaml:"id" toml:"id"`
	Name           string `yaml:"name" toml:"name"`
	VirtualGamepad bool   `yaml:"virtualGamepad" toml:"virtualGamepad"`
}

// LoadProfile reads a profile from a YAML (.yaml, .yml) or TOML (.toml) file.
func LoadProfile(path string) (*VirtualPad, error) {
	var p Profile
	if err := decodeFile(path, &p); err != nil {
		return nil, err
	}
	if p.Name == "" {
		return nil, fmt.Errorf("profile %s: missing name", path)
	}
	if p.ID == 0 {
		return nil, fmt.Errorf("profile %s: id 0 is reserved", path)
	}
	return NewVirtualPad(p.ID, p.Name, p.VirtualGamepad), nil
}

// DeviceList is the on-disk list of physical controllers attached at startup.
type DeviceList struct {
	Gamepads []struct {
		ID   int32  `yaml:"id" toml:"id"`
		Name string `yaml:"name" toml:"name"`
	} `yaml:"gamepads" toml:"gamepads"`
}

// LoadDevices reads a DeviceList file and returns one controller per entry,
// ready for Devices.Connect. Unnamed entries are called "Gamepad <id>".
func LoadDevices(path string) ([]*Controller, error) {
	var l DeviceList
	if err := decodeFile(path, &l); err != nil {
		return nil, err
	}
	out := make([]*Controller, 0, len(l.Gamepads))
	for _, g := range l.Gamepads {
		name := g.Name
		if name == "" {
			name = fmt.Sprintf("Gamepad %d", g.ID)
		}
		out = append(out, NewController(g.ID, name))
	}
	return out, nil
}

func decodeFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, v)
	case ".toml":
		err = toml.Unmarshal(data, v)
	default:
		return fmt.Errorf("unsupported file format: %s", path)
	}
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// Profiles holds the profile currently shown on screen.
type Profiles struct {
	cur atomic.Pointer[VirtualPad]
}

// Set replaces the current profile; nil clears it.
func (p *Profiles) Set(v *VirtualPad) { p.cur.Store(v) }

// Pad returns the current profile, or nil.
func (p *Profiles) Pad() *VirtualPad { return p.cur.Load() }

// Current implements ProfileSource.
func (p *Profiles) Current() Source {
	if v := p.cur.Load(); v != nil {
		return v
	}
	return nil
}
