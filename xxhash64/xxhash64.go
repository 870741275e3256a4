// Package xxhash64 implements the 64-bit xxHash algorithm used by
// the Zstandard frame checksum. It is hand-rolled rather than
// imported: the spec fixes the five prime constants and the exact
// finalization mixing bit-for-bit, and the frame checksum is defined
// as a specific 32-bit truncation of this specific hash, so the
// algorithm itself is core to this codec rather than an ambient
// concern a library could stand in for.
package xxhash64

import "encoding/binary"

const (
	prime1 uint64 = 11400714785074694791
	prime2 uint64 = 14029467366897019727
	prime3 uint64 = 1609587929392839161
	prime4 uint64 = 9650029242287828579
	prime5 uint64 = 2870177450012600261
)

// Digest computes a running xxHash64 sum over one or more Write
// calls, matching hash.Hash64's incremental shape even though this
// codec only ever needs the one-shot Sum64 of a full frame.
type Digest struct {
	seed     uint64
	v1, v2, v3, v4 uint64
	total    uint64
	buf      [32]byte
	bufUsed  int
}

// New returns a Digest seeded with 0, matching zstd's use of xxHash64.
func New() *Digest {
	d := &Digest{}
	d.Reset()
	return d
}

// Reset returns the digest to its initial state.
func (d *Digest) Reset() {
	p1, p2 := prime1, prime2
	d.v1 = p1 + p2
	d.v2 = prime2
	d.v3 = 0
	d.v4 = 0 - p1
	d.total = 0
	d.bufUsed = 0
}

func round(acc, input uint64) uint64 {
	acc += input * prime2
	acc = rotl(acc, 31)
	acc *= prime1
	return acc
}

func rotl(x uint64, r uint) uint64 {
	return (x << r) | (x >> (64 - r))
}

func mergeRound(acc, val uint64) uint64 {
	val = round(0, val)
	acc ^= val
	acc = acc*prime1 + prime4
	return acc
}

// Write absorbs more input into the running hash.
func (d *Digest) Write(p []byte) (int, error) {
	n := len(p)
	d.total += uint64(n)

	if d.bufUsed > 0 {
		need := 32 - d.bufUsed
		if len(p) < need {
			copy(d.buf[d.bufUsed:], p)
			d.bufUsed += len(p)
			return n, nil
		}
		copy(d.buf[d.bufUsed:], p[:need])
		d.consumeBlock(d.buf[:])
		p = p[need:]
		d.bufUsed = 0
	}

	for len(p) >= 32 {
		d.consumeBlock(p[:32])
		p = p[32:]
	}

	if len(p) > 0 {
		copy(d.buf[:], p)
		d.bufUsed = len(p)
	}
	return n, nil
}

func (d *Digest) consumeBlock(b []byte) {
	d.v1 = round(d.v1, binary.LittleEndian.Uint64(b[0:8]))
	d.v2 = round(d.v2, binary.LittleEndian.Uint64(b[8:16]))
	d.v3 = round(d.v3, binary.LittleEndian.Uint64(b[16:24]))
	d.v4 = round(d.v4, binary.LittleEndian.Uint64(b[24:32]))
}

// Sum64 returns the finalized 64-bit hash of everything written so
// far. It does not mutate the digest, so Sum64 is idempotent and
// further Write calls continue the same hash.
func (d *Digest) Sum64() uint64 {
	var acc uint64
	if d.total >= 32 {
		acc = rotl(d.v1, 1) + rotl(d.v2, 7) + rotl(d.v3, 12) + rotl(d.v4, 18)
		acc = mergeRound(acc, d.v1)
		acc = mergeRound(acc, d.v2)
		acc = mergeRound(acc, d.v3)
		acc = mergeRound(acc, d.v4)
	} else {
		acc = prime5
	}

	acc += d.total

	p := d.buf[:d.bufUsed]
	for len(p) >= 8 {
		k1 := round(0, binary.LittleEndian.Uint64(p[:8]))
		acc ^= k1
		acc = rotl(acc, 27)*prime1 + prime4
		p = p[8:]
	}
	if len(p) >= 4 {
		acc ^= uint64(binary.LittleEndian.Uint32(p[:4])) * prime1
		acc = rotl(acc, 23)*prime2 + prime3
		p = p[4:]
	}
	for len(p) > 0 {
		acc ^= uint64(p[0]) * prime5
		acc = rotl(acc, 11) * prime1
		p = p[1:]
	}

	acc ^= acc >> 33
	acc *= prime2
	acc ^= acc >> 29
	acc *= prime3
	acc ^= acc >> 32

	return acc
}

// Sum64 is a convenience one-shot hash of b, used for the frame
// checksum: the caller truncates the result to its lower 32 bits.
func Sum64(b []byte) uint64 {
	d := New()
	_, _ = d.Write(b)
	return d.Sum64()
}
