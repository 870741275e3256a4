package fse

import (
	"errors"
	"fmt"
)

// byteReader is a small forward-reading cursor, separate from the
// backward bitio.Reader used elsewhere: the normalized-count header
// is the one piece of an FSE-coded section read forward, byte by
// byte, before the backward-reading symbol stream begins.
type byteReader struct {
	b   []byte
	off int
}

func (b *byteReader) remaining() int { return len(b.b) - b.off }

func (b *byteReader) uint32() uint32 {
	v := b.b[b.off:]
	return uint32(v[0]) | uint32(v[1])<<8 | uint32(v[2])<<16 | uint32(v[3])<<24
}

func (b *byteReader) advance(n uint) { b.off += int(n) }

// ReadNCount parses a normalized-count header (spec §4.5) from b,
// returning the per-symbol counts, the symbol count actually present,
// and the declared table log. maxSymbolValue bounds the alphabet; a
// header naming more symbols than that is malformed input.
func ReadNCount(buf []byte, maxSymbolValue int) (norm []int16, symbolLen int, tableLog uint8, consumed int, err error) {
	b := &byteReader{b: buf}
	if b.remaining() < 4 {
		return nil, 0, 0, 0, errors.New("fse: normalized-count header too small")
	}

	norm = make([]int16, maxSymbolValue+2)

	bitStream := b.uint32()
	nbBits := uint((bitStream & 0xF) + MinTableLog)
	if nbBits > MaxTableLog {
		return nil, 0, 0, 0, fmt.Errorf("fse: tableLog %d exceeds maximum %d", nbBits, MaxTableLog)
	}
	tableLog = uint8(nbBits)
	bitStream >>= 4
	bitCount := uint(4)

	remaining := int32((1 << nbBits) + 1)
	threshold := int32(1 << nbBits)
	gotTotal := int32(0)
	nbBits++

	var charnum uint16
	var previous0 bool
	iend := b.remaining()

	for remaining > 1 {
		if previous0 {
			n0 := charnum
			for (bitStream & 0xFFFF) == 0xFFFF {
				n0 += 24
				if b.off < iend-5 {
					b.advance(2)
					bitStream = b.uint32() >> bitCount
				} else {
					bitStream >>= 16
					bitCount += 16
				}
			}
			for (bitStream & 3) == 3 {
				n0 += 3
				bitStream >>= 2
				bitCount += 2
			}
			n0 += uint16(bitStream & 3)
			bitCount += 2
			if int(n0) > maxSymbolValue {
				return nil, 0, 0, 0, errors.New("fse: maxSymbolValue too small for header")
			}
			for charnum < n0 {
				norm[charnum] = 0
				charnum++
			}
			if b.off <= iend-7 || b.off+int(bitCount>>3) <= iend-4 {
				b.advance(bitCount >> 3)
				bitCount &= 7
				bitStream = b.uint32() >> bitCount
			} else {
				bitStream >>= 2
			}
		}

		max := (2*threshold - 1) - remaining
		var count int32
		if (int32(bitStream) & (threshold - 1)) < max {
			count = int32(bitStream) & (threshold - 1)
			bitCount += nbBits - 1
		} else {
			count = int32(bitStream) & (2*threshold - 1)
			if count >= threshold {
				count -= max
			}
			bitCount += nbBits
		}
		count--
		if count < 0 {
			remaining += count
			gotTotal -= count
		} else {
			remaining -= count
			gotTotal += count
		}
		if int(charnum) > maxSymbolValue {
			return nil, 0, 0, 0, errors.New("fse: charnum exceeds maxSymbolValue")
		}
		norm[charnum] = int16(count)
		charnum++
		previous0 = count == 0
		for remaining < threshold {
			nbBits--
			threshold >>= 1
		}

		if b.off <= iend-7 || b.off+int(bitCount>>3) <= iend-4 {
			b.advance(bitCount >> 3)
			bitCount &= 7
		} else {
			bitCount -= uint(8 * (iend - 4 - b.off))
			b.off = iend - 4
		}
		bitStream = b.uint32() >> (bitCount & 31)
	}
	symbolLen = int(charnum)

	if symbolLen < 1 {
		return nil, 0, 0, 0, fmt.Errorf("fse: symbolLen (%d) too small", symbolLen)
	}
	if symbolLen > maxSymbolValue+1 {
		return nil, 0, 0, 0, fmt.Errorf("fse: symbolLen (%d) too big", symbolLen)
	}
	if remaining != 1 {
		return nil, 0, 0, 0, fmt.Errorf("fse: corrupted header (remaining %d != 1)", remaining)
	}
	if bitCount > 32 {
		return nil, 0, 0, 0, fmt.Errorf("fse: corrupted header (bitCount %d > 32)", bitCount)
	}
	if gotTotal != 1<<tableLog {
		return nil, 0, 0, 0, fmt.Errorf("fse: corrupted header (total %d != %d)", gotTotal, 1<<tableLog)
	}
	b.advance((bitCount + 7) >> 3)
	return norm[:maxSymbolValue+1], symbolLen, tableLog, b.off, nil
}
