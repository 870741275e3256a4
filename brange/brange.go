// Package brange provides a single abstraction for "a contiguous
// byte range with unaligned read/write accessors" — collapsing what a
// garbage-collected-heap-vs-off-heap reference implementation would
// thread through every codec routine as a (base, address, limit)
// triple down to a plain Go slice with bounds-checked accessors.
// There is no moving collector to pin against here, so Go's ordinary
// slice aliasing already gives the stability the original triple was
// for.
package brange

import (
	"fmt"

	"github.com/chronos-tachyon/assert"

	"github.com/AlvinKuruvilla/frasc/internal/le"
)

// Range is a read/write window over a byte slice, tracking how far
// the caller may read or write without re-deriving bounds at every
// call site.
type Range struct {
	buf   []byte
	limit int
}

// New wraps buf, limiting reads and writes to its first limit bytes.
// limit may be less than len(buf) when the caller has reserved
// trailing slack (e.g. the 8 bytes of zero padding literals decoding
// wants for its unaligned 8-byte reads).
func New(buf []byte, limit int) Range {
	assert.Assertf(limit <= len(buf), "limit %d exceeds backing slice length %d", limit, len(buf))
	return Range{buf: buf, limit: limit}
}

// Len returns the addressable length of the range.
func (r Range) Len() int { return r.limit }

// Bytes returns the full addressable slice.
func (r Range) Bytes() []byte { return r.buf[:r.limit] }

// Slice returns the sub-range [lo, hi), still backed by the same
// array.
func (r Range) Slice(lo, hi int) (Range, error) {
	if lo < 0 || hi < lo || hi > r.limit {
		return Range{}, fmt.Errorf("brange: slice [%d:%d) out of range [0:%d)", lo, hi, r.limit)
	}
	return Range{buf: r.buf[lo:hi], limit: hi - lo}, nil
}

// CheckRead reports whether [off, off+n) lies within the range.
func (r Range) CheckRead(off, n int) error {
	if off < 0 || n < 0 || off+n > r.limit {
		return fmt.Errorf("brange: read [%d:%d) exceeds range of length %d", off, off+n, r.limit)
	}
	return nil
}

// Byte reads a single byte at off, bounds-checked.
func (r Range) Byte(off int) (byte, error) {
	if err := r.CheckRead(off, 1); err != nil {
		return 0, err
	}
	return r.buf[off], nil
}

// Load32 reads an unaligned little-endian uint32 at off, bounds-
// checked against the declared limit (not just the backing slice's
// true length, which may run past it into caller-owned padding).
func (r Range) Load32(off int) (uint32, error) {
	if err := r.CheckRead(off, 4); err != nil {
		return 0, err
	}
	return le.Load32(r.buf, off), nil
}

// Load64 reads an unaligned little-endian uint64 at off, bounds-
// checked the same way as Load32.
func (r Range) Load64(off int) (uint64, error) {
	if err := r.CheckRead(off, 8); err != nil {
		return 0, err
	}
	return le.Load64(r.buf, off), nil
}

// Store64 writes an unaligned little-endian uint64 at off. The
// caller must ensure off+8 is within the backing slice; match-copy's
// overlap-safe head copy deliberately writes a few bytes past the
// declared output limit into slack the caller reserved for exactly
// this purpose, so this does not re-check against limit the way the
// read accessors do.
func (r Range) Store64(off int, v uint64) {
	assert.Assertf(off+8 <= len(r.buf), "store64 at %d overruns backing slice of length %d", off, len(r.buf))
	le.Store64(r.buf, off, v)
}

// CopyWithin copies n bytes from src to dst within the same backing
// array, byte by byte when the ranges overlap (as match copies with
// a small offset do) and via the runtime's overlap-aware copy
// otherwise.
func (r Range) CopyWithin(dst, src, n int) {
	assert.Assertf(dst >= 0 && src >= 0 && dst+n <= len(r.buf) && src+n <= len(r.buf),
		"copyWithin dst=%d src=%d n=%d out of backing slice of length %d", dst, src, n, len(r.buf))
	if dst <= src || dst >= src+n {
		copy(r.buf[dst:dst+n], r.buf[src:src+n])
		return
	}
	for i := 0; i < n; i++ {
		r.buf[dst+i] = r.buf[src+i]
	}
}
