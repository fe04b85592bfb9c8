package kernel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBitmapSetClearOn(t *testing.T) {
	var b Bitmap
	assert.True(t, b.Empty())

	b.Set(3)
	b.Set(0)
	assert.True(t, b.On(3))
	assert.True(t, b.On(0))
	assert.False(t, b.On(1))
	assert.False(t, b.Empty())

	b.Clear(3)
	assert.False(t, b.On(3))
	assert.Equal(t, 1, b.PopCount())
}

func TestBitmapFirstSetIsHighestPriority(t *testing.T) {
	var b Bitmap
	b.Set(5)
	b.Set(2)
	b.Set(7)
	assert.EqualValues(t, 2, b.FirstSet())
}

func TestBitmapFirstSetPanicsWhenEmpty(t *testing.T) {
	var b Bitmap
	assert.Panics(t, func() { b.FirstSet() })
}
