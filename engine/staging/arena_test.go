package staging

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendLittleEndian(t *testing.T) {
	a := New(16)
	m := a.Mark()
	a.F32(1.5).U32(7).U16(0xBEEF)

	b := a.BytesFrom(m)
	require.Len(t, b, 10)
	assert.Equal(t, float32(1.5), math.Float32frombits(binary.LittleEndian.Uint32(b[0:])))
	assert.Equal(t, uint32(7), binary.LittleEndian.Uint32(b[4:]))
	assert.Equal(t, uint16(0xBEEF), binary.LittleEndian.Uint16(b[8:]))
}

func TestMarksAreIndependent(t *testing.T) {
	a := New(8)
	a.Vec2([2]float32{1, 2})
	m := a.Mark()
	a.Vec4([4]float32{3, 4, 5, 6})
	assert.Len(t, a.BytesFrom(m), 16)
	assert.Equal(t, 24, a.Len())
}

func TestGrowKeepsContents(t *testing.T) {
	a := New(4)
	a.U32(42)
	a.U32(43).U32(44)
	assert.GreaterOrEqual(t, a.Cap(), 12)
	assert.Equal(t, uint32(42), binary.LittleEndian.Uint32(a.Bytes()))
	assert.Equal(t, uint32(44), binary.LittleEndian.Uint32(a.Bytes()[8:]))
}

func TestPadAndAlign(t *testing.T) {
	a := New(0)
	m := a.Mark()
	a.F32(1).AlignTo(m, 16)
	assert.Equal(t, 16, a.Len())
	a.AlignTo(m, 16)
	assert.Equal(t, 16, a.Len(), "already aligned")
	a.Pad(3)
	assert.Equal(t, []byte{0, 0, 0}, a.Bytes()[16:])
}

func TestResetKeepsCapacityAndPeak(t *testing.T) {
	a := New(8)
	a.Pad(100)
	c := a.Cap()
	a.Reset()
	assert.Zero(t, a.Len())
	assert.Equal(t, c, a.Cap())
	assert.Equal(t, 100, a.Peak())
}
