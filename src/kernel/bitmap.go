package kernel

import "math/bits"

// Bitmap is the 32-bit priority-ready bitmap: bit p is set iff
// ready_table[p] is non-empty, an invariant kept by SchedReady and
// SchedUnready and by TaskInit and Delay, which link and unlink ready-list
// nodes directly and set or clear the matching bit alongside.
type Bitmap uint32

// Set marks priority p ready.
func (b *Bitmap) Set(p uint8) { *b |= 1 << p }

// Clear marks priority p empty.
func (b *Bitmap) Clear(p uint8) { *b &^= 1 << p }

// On reports whether priority p is marked ready.
func (b Bitmap) On(p uint8) bool { return b&(1<<p) != 0 }

// Empty reports whether no priority is ready.
func (b Bitmap) Empty() bool { return b == 0 }

// FirstSet returns the highest-priority (lowest-numbered) set bit. It panics
// when the bitmap is empty (callers must guarantee at least the idle task's
// bit is always set).
//
// bits.TrailingZeros32 lowers to a single CTZ/CLZ machine instruction on
// every architecture the Go compiler targets, the hardware
// count-trailing-zeros primitive this needs.
func (b Bitmap) FirstSet() uint8 {
	if b == 0 {
		panic("kernel: FirstSet called on an empty bitmap")
	}
	return uint8(bits.TrailingZeros32(uint32(b)))
}

// PopCount returns the number of set priorities.
func (b Bitmap) PopCount() int { return bits.OnesCount32(uint32(b)) }
