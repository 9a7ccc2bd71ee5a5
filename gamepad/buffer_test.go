package gamepad_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alia5/winbridge/gamepad"
)

func snap(i int) gamepad.Snapshot {
	return gamepad.State{Buttons: uint16(i), Hat: gamepad.HatCentered}.Snapshot()
}

func TestStateBuffer_EvictsOldest(t *testing.T) {
	b := gamepad.NewStateBuffer()
	for i := 1; i <= gamepad.StateBufferCapacity; i++ {
		assert.False(t, b.Save(snap(i)))
	}
	assert.True(t, b.Save(snap(21)))
	assert.Equal(t, gamepad.StateBufferCapacity, b.Len())

	for i := 2; i <= 21; i++ {
		got, ok := b.Pop()
		require.True(t, ok)
		assert.Equal(t, snap(i), got)
	}
	_, ok := b.Pop()
	assert.False(t, ok)
}

func TestStateBuffer_SaveCopies(t *testing.T) {
	b := gamepad.NewStateBuffer()
	s := snap(7)
	b.Save(s)
	s[0] = 0xee

	got, ok := b.Pop()
	require.True(t, ok)
	assert.Equal(t, snap(7), got)
}

func TestStateBuffer_Clear(t *testing.T) {
	b := gamepad.NewStateBuffer()
	for i := 0; i < 5; i++ {
		b.Save(snap(i))
	}
	assert.Equal(t, 5, b.Clear())
	assert.Equal(t, 0, b.Len())
	_, ok := b.Pop()
	assert.False(t, ok)
}

func TestStateBuffer_ConcurrentSavesStayBounded(t *testing.T) {
	b := gamepad.NewStateBuffer()
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				b.Save(snap(i))
				assert.LessOrEqual(t, b.Len(), gamepad.StateBufferCapacity)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, gamepad.StateBufferCapacity, b.Len())
}
