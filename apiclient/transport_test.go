package apiclient

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToPayloadBytes(t *testing.T) {
	b, ok := toPayloadBytes(nil)
	assert.True(t, ok)
	assert.Nil(t, b)

	orig := []byte{0x01, 0x02, 0x03}
	b, ok = toPayloadBytes(orig)
	assert.True(t, ok)
	assert.Equal(t, orig, b)

	b, ok = toPayloadBytes("game.exe -fullscreen")
	assert.True(t, ok)
	assert.Equal(t, []byte("game.exe -fullscreen"), b)

	type S struct {
		A int    `json:"a"`
		B string `json:"b"`
	}
	b, ok = toPayloadBytes(S{A: 5, B: "x"})
	assert.True(t, ok)
	var s S
	assert.NoError(t, json.Unmarshal(b, &s))
	assert.Equal(t, 5, s.A)
	assert.Equal(t, "x", s.B)

	_, ok = toPayloadBytes(make(chan int))
	assert.False(t, ok)
}

func TestFillPath(t *testing.T) {
	tests := []struct {
		pattern string
		params  map[string]string
		want    string
	}{
		{pattern: "Status", want: "status"},
		{pattern: "gamepad/{id}/disconnect", params: map[string]string{"id": "7"}, want: "gamepad/7/disconnect"},
		{pattern: "gamepad/{id}", params: map[string]string{"id": "a b"}, want: "gamepad/a%20b"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, fillPath(tc.pattern, tc.params))
	}
}
