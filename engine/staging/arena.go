// Package staging holds the per-frame byte arena that instance data is
// encoded into before it is written to GPU buffers.
//
// Initialize once with New(capacity) and Reset() every frame. Growth is
// amortized; a steady-state frame does not allocate.
package staging

import (
	"encoding/binary"
	"math"
)

type Arena struct {
	buf  []byte
	peak int
}

func New(capacity int) *Arena {
	if capacity <= 0 {
		capacity = 4 * 1024
	}
	return &Arena{buf: make([]byte, 0, capacity)}
}

// Reset clears the buffer length without freeing memory.
func (a *Arena) Reset() {
	if len(a.buf) > a.peak {
		a.peak = len(a.buf)
	}
	a.buf = a.buf[:0]
}

func (a *Arena) Cap() int { return cap(a.buf) }
func (a *Arena) Len() int { return len(a.buf) }

// Peak is the largest length reached before a Reset.
func (a *Arena) Peak() int {
	if len(a.buf) > a.peak {
		return len(a.buf)
	}
	return a.peak
}

// GrowTo increases capacity (and copies current contents) if needed.
func (a *Arena) GrowTo(minCapacity int) {
	if minCapacity <= cap(a.buf) {
		return
	}
	nb := make([]byte, len(a.buf), minCapacity)
	copy(nb, a.buf)
	a.buf = nb
}

// Ensure makes room for at least n more bytes.
func (a *Arena) Ensure(n int) {
	if len(a.buf)+n > cap(a.buf) {
		newCap := cap(a.buf) * 2
		if newCap < len(a.buf)+n {
			newCap = len(a.buf) + n
		}
		a.GrowTo(newCap)
	}
}

// Mark returns a bookmark to later slice the output.
//
//	m := arena.Mark(); ...; data := arena.BytesFrom(m)
func (a *Arena) Mark() int { return len(a.buf) }

// BytesFrom returns the bytes produced since mark. The slice aliases the
// arena and is valid until the next Reset.
func (a *Arena) BytesFrom(mark int) []byte { return a.buf[mark:] }

func (a *Arena) Bytes() []byte { return a.buf }

// ----- Append primitives (chainable, little endian) -----

func (a *Arena) F32(v float32) *Arena {
	a.buf = binary.LittleEndian.AppendUint32(a.buf, math.Float32bits(v))
	return a
}

func (a *Arena) U32(v uint32) *Arena {
	a.buf = binary.LittleEndian.AppendUint32(a.buf, v)
	return a
}

func (a *Arena) U16(v uint16) *Arena {
	a.buf = binary.LittleEndian.AppendUint16(a.buf, v)
	return a
}

func (a *Arena) Vec2(v [2]float32) *Arena { return a.F32(v[0]).F32(v[1]) }
func (a *Arena) Vec4(v [4]float32) *Arena { return a.F32(v[0]).F32(v[1]).F32(v[2]).F32(v[3]) }

// Pad appends n zero bytes.
func (a *Arena) Pad(n int) *Arena {
	if n <= 0 {
		return a
	}
	a.Ensure(n)
	for i := 0; i < n; i++ {
		a.buf = append(a.buf, 0)
	}
	return a
}

// AlignTo pads with zeros up to the next multiple of n measured from mark.
func (a *Arena) AlignTo(mark, n int) *Arena {
	if rem := (len(a.buf) - mark) % n; rem != 0 {
		a.Pad(n - rem)
	}
	return a
}
