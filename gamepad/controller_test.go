package gamepad_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alia5/winbridge/gamepad"
)

func TestStateWireFormat(t *testing.T) {
	st := gamepad.State{
		Buttons: gamepad.ButtonA | gamepad.ButtonStart,
		Hat:     gamepad.HatRight,
		LX:      1234,
		LY:      -2345,
		RX:      -32768,
		RY:      32767,
		LT:      0x10,
		RT:      0xff,
	}
	want := []byte{
		0x81, 0x00,
		0x02,
		0xD2, 0x04,
		0xD7, 0xF6,
		0x00, 0x80,
		0xFF, 0x7F,
		0x10,
		0xFF,
	}
	b, err := st.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, want, b)
	assert.Len(t, b, gamepad.StateSize)

	var got gamepad.State
	require.NoError(t, got.UnmarshalBinary(b))
	assert.Equal(t, st, got)
	assert.Error(t, got.UnmarshalBinary(b[:5]))
}

func TestHatFromDPad(t *testing.T) {
	tests := []struct {
		name                  string
		up, right, down, left bool
		want                  uint8
	}{
		{name: "centered", want: gamepad.HatCentered},
		{name: "up", up: true, want: gamepad.HatUp},
		{name: "up right", up: true, right: true, want: gamepad.HatUpRight},
		{name: "down left", down: true, left: true, want: gamepad.HatDownLeft},
		{name: "left", left: true, want: gamepad.HatLeft},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, gamepad.HatFromDPad(tc.up, tc.right, tc.down, tc.left))
		})
	}
}

func TestController_HandleKey(t *testing.T) {
	c := gamepad.NewController(3, "Pad")

	assert.True(t, c.HandleKey(gamepad.KeyEvent{DeviceID: 3, KeyCode: gamepad.KeyButtonA, Action: gamepad.KeyDown}))
	assert.True(t, c.HandleKey(gamepad.KeyEvent{DeviceID: 3, KeyCode: gamepad.KeyButtonThumbR, Action: gamepad.KeyDown}))
	assert.Equal(t, gamepad.ButtonA|gamepad.ButtonR3, c.State().Buttons)

	assert.True(t, c.HandleKey(gamepad.KeyEvent{DeviceID: 3, KeyCode: gamepad.KeyButtonA, Action: gamepad.KeyUp}))
	assert.Equal(t, gamepad.ButtonR3, c.State().Buttons)

	assert.True(t, c.HandleKey(gamepad.KeyEvent{DeviceID: 3, KeyCode: gamepad.KeyDPadDown, Action: gamepad.KeyDown}))
	assert.True(t, c.HandleKey(gamepad.KeyEvent{DeviceID: 3, KeyCode: gamepad.KeyDPadRight, Action: gamepad.KeyDown}))
	assert.Equal(t, gamepad.HatDownRight, c.State().Hat)

	assert.False(t, c.HandleKey(gamepad.KeyEvent{DeviceID: 3, KeyCode: 4242, Action: gamepad.KeyDown}))
}

func TestController_HandleMotion(t *testing.T) {
	c := gamepad.NewController(3, "Pad")

	handled := c.HandleMotion(gamepad.MotionEvent{DeviceID: 3, Axes: map[gamepad.Axis]float32{
		gamepad.AxisX:        1,
		gamepad.AxisY:        -1.5,
		gamepad.AxisRZ:       0.5,
		gamepad.AxisLTrigger: 1,
		gamepad.AxisGas:      0,
		gamepad.AxisHatY:     -1,
	}})
	require.True(t, handled)

	st := c.State()
	assert.Equal(t, int16(32767), st.LX)
	assert.Equal(t, int16(-32767), st.LY)
	assert.Equal(t, int16(16383), st.RY)
	assert.Equal(t, uint8(255), st.LT)
	assert.Equal(t, uint8(0), st.RT)
	assert.Equal(t, gamepad.HatUp, st.Hat)

	assert.False(t, c.HandleMotion(gamepad.MotionEvent{DeviceID: 3, Axes: map[gamepad.Axis]float32{42: 1}}))
}

func TestLoadProfile(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "pad.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("id: 12\nname: Touch Pad\nvirtualGamepad: true\n"), 0o644))
	p, err := gamepad.LoadProfile(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, int32(12), p.ID())
	assert.Equal(t, "Touch Pad", p.Name())
	assert.True(t, p.Active())

	tomlPath := filepath.Join(dir, "pad.toml")
	require.NoError(t, os.WriteFile(tomlPath, []byte("id = 13\nname = \"Keys\"\nvirtualGamepad = false\n"), 0o644))
	p, err = gamepad.LoadProfile(tomlPath)
	require.NoError(t, err)
	assert.Equal(t, int32(13), p.ID())
	assert.False(t, p.Active())

	_, err = gamepad.LoadProfile(filepath.Join(dir, "pad.ini"))
	assert.Error(t, err)

	noID := filepath.Join(dir, "noid.yaml")
	require.NoError(t, os.WriteFile(noID, []byte("name: Touch\nvirtualGamepad: true\n"), 0o644))
	_, err = gamepad.LoadProfile(noID)
	assert.ErrorContains(t, err, "reserved")

	noName := filepath.Join(dir, "empty.yml")
	require.NoError(t, os.WriteFile(noName, []byte("id: 1\n"), 0o644))
	_, err = gamepad.LoadProfile(noName)
	assert.Error(t, err)
}

func TestLoadDevices(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "devices.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("gamepads:\n  - id: 3\n    name: Left\n  - id: 4\n"), 0o644))
	cs, err := gamepad.LoadDevices(yamlPath)
	require.NoError(t, err)
	require.Len(t, cs, 2)
	assert.Equal(t, int32(3), cs[0].ID())
	assert.Equal(t, "Left", cs[0].Name())
	assert.Equal(t, "Gamepad 4", cs[1].Name())

	tomlPath := filepath.Join(dir, "devices.toml")
	require.NoError(t, os.WriteFile(tomlPath, []byte("[[gamepads]]\nid = 7\nname = \"Stick\"\n"), 0o644))
	cs, err = gamepad.LoadDevices(tomlPath)
	require.NoError(t, err)
	require.Len(t, cs, 1)
	assert.Equal(t, int32(7), cs[0].ID())

	_, err = gamepad.LoadDevices(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestDevices(t *testing.T) {
	d := gamepad.NewDevices()
	require.NoError(t, d.Connect(gamepad.NewController(3, "A")))
	assert.Error(t, d.Connect(gamepad.NewController(3, "dup")))
	assert.Error(t, d.Connect(gamepad.NewController(0, "zero")))
	require.NoError(t, d.Connect(gamepad.NewController(4, "B")))

	assert.Equal(t, int32(3), d.ControllerAt(0).ID())
	assert.Nil(t, d.ControllerAt(2))
	assert.Len(t, d.List(), 2)

	c := d.ByID(3)
	assert.True(t, d.Disconnect(3))
	assert.False(t, c.Connected())
	assert.False(t, d.Disconnect(3))
	assert.Equal(t, int32(4), d.ControllerAt(0).ID())
}
