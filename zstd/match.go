package zstd

// minMatch is the shortest match this encoder will ever emit. The
// format allows length-3 matches (match-length codes have a baseline
// of 3), but requiring 4 bytes lets the match finder hash and verify
// a fixed 4-byte prefix at each candidate.
const minMatch = 4

// maxHashLog bounds the hash table's size regardless of input size,
// keeping its allocation bounded for very large blocks.
const maxHashLog = 17

func hashLogFor(n int) uint {
	log := uint(10)
	for (1 << log) < n && log < maxHashLog {
		log++
	}
	return log
}

// hash4 mixes the first 4 bytes of b into a well-distributed 32-bit
// value; the caller masks it down to the table's size.
func hash4(b []byte) uint32 {
	v := uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
	return v * 2654435761
}

// matchLengthAt returns how many leading bytes of src[b:] equal
// src[a:], stopping at the end of src.
func matchLengthAt(src []byte, a, b int) int {
	n := len(src) - b
	i := 0
	for i < n && src[a+i] == src[b+i] {
		i++
	}
	return i
}

// compressBlockFast greedily finds matches in src using a single-entry
// hash table (the format's FAST strategy: no chaining, no lazy
// matching, no backward extension), returning the concatenated
// unmatched bytes as literals and one (literalsLength, matchLength,
// offset) triple per match found, in order. mo holds each match's raw
// byte distance; resolveOffsetValues turns those into the wire
// Offset_Value domain, substituting a repeated-offset selector
// wherever a distance reuses one of the block's three most recent
// offsets.
func compressBlockFast(src []byte) (literals []byte, ll, ml, mo []int) {
	n := len(src)
	if n < minMatch+1 {
		return append([]byte(nil), src...), nil, nil, nil
	}

	log := hashLogFor(n)
	mask := uint32(1)<<log - 1
	table := make([]int32, 1<<log)
	for i := range table {
		table[i] = -1
	}

	litStart := 0
	pos := 0
	limit := n - minMatch
	for pos <= limit {
		h := (hash4(src[pos:]) >> (32 - log)) & mask
		candidate := table[h]
		table[h] = int32(pos)

		if candidate < 0 {
			pos++
			continue
		}
		c := int(candidate)
		if src[c] != src[pos] || src[c+1] != src[pos+1] || src[c+2] != src[pos+2] || src[c+3] != src[pos+3] {
			pos++
			continue
		}

		length := minMatch + matchLengthAt(src, c+minMatch, pos+minMatch)
		offset := pos - c

		literals = append(literals, src[litStart:pos]...)
		ll = append(ll, pos-litStart)
		ml = append(ml, length)
		mo = append(mo, offset)

		pos += length
		litStart = pos
		if pos > limit {
			break
		}
	}

	literals = append(literals, src[litStart:]...)
	return literals, ll, ml, mo
}

// resolveOffsetValues converts each match's raw byte distance in mo
// into the wire Offset_Value domain, substituting a repeated-offset
// selector whenever a distance reuses one of ctx's three most recent
// offsets. ctx.offsets is advanced in place exactly the way
// decodeSequences advances it on the way back out, so a decoder
// replaying this encoder's own output reconstructs the same offset
// and the same rotated triple for the next sequence.
func resolveOffsetValues(ctx *encoderContext, ll, mo []int) []uint32 {
	values := make([]uint32, len(mo))
	for i, off := range mo {
		values[i] = resolveOneOffsetValue(&ctx.offsets, ll[i], off)
	}
	return values
}

// resolveOneOffsetValue is decodeSequences' repeated-offset resolution
// run in reverse: given the literal length and actual distance of one
// sequence, it finds which (if any) of offsets[0..2] the distance
// repeats, returns the Offset_Value that selects it, and rotates
// offsets the same way the matching decode-side selector would. A
// distance with literal length zero can't repeat offsets[0] itself
// (decodeSequences reserves that combination for offsets[0]-1
// instead), mirroring the format's codeLL==0 bias exactly.
func resolveOneOffsetValue(offsets *[3]int, litLength, off int) uint32 {
	o0, o1, o2 := offsets[0], offsets[1], offsets[2]

	if litLength != 0 {
		switch off {
		case o0:
			return 1
		case o1:
			offsets[0], offsets[1] = o1, o0
			return 2
		case o2:
			offsets[0], offsets[1], offsets[2] = o2, o0, o1
			return 3
		}
	} else {
		switch off {
		case o1:
			offsets[0], offsets[1] = o1, o0
			return 1
		case o2:
			offsets[0], offsets[1], offsets[2] = o2, o0, o1
			return 2
		default:
			temp := o0 - 1
			if temp < 1 {
				temp = 1
			}
			if off == temp {
				offsets[0], offsets[1], offsets[2] = temp, o0, o1
				return 3
			}
		}
	}

	offsets[0], offsets[1], offsets[2] = off, o0, o1
	return uint32(off) + 3
}
