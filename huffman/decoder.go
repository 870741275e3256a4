package huffman

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/AlvinKuruvilla/frasc/bitio"
)

type decEntry struct {
	sym   uint8
	nBits uint8
}

// DTable is a fully built decompression table: the top TableLog bits
// of the bitstream index directly into single, canonical-Huffman
// style.
type DTable struct {
	tableLog uint8
	single   []decEntry
}

// BuildDTable reconstructs a decompression table from the weight
// array ReadWeights returned (not including the implied final
// weight, which this derives from the power-of-two total constraint).
func BuildDTable(weights []uint8) (*DTable, error) {
	if len(weights) == 0 || len(weights) > MaxSymbolValue {
		return nil, fmt.Errorf("huffman: %d weights out of range", len(weights))
	}

	var rankStats [MaxTableLog + 1]uint32
	var weightTotal uint32
	for _, w := range weights {
		if w > MaxTableLog {
			return nil, errors.New("huffman: corrupt input: weight too large")
		}
		rankStats[w]++
		weightTotal += (uint32(1) << w) >> 1
	}
	if weightTotal == 0 {
		return nil, errors.New("huffman: corrupt input: weights all zero")
	}

	tableLog := highBit32(weightTotal) + 1
	if tableLog > MaxTableLog {
		return nil, errors.New("huffman: corrupt input: tableLog too big")
	}
	total := uint32(1) << tableLog
	rest := total - weightTotal
	verif := uint32(1) << highBit32(rest)
	lastWeight := highBit32(rest) + 1
	if verif != rest {
		return nil, errors.New("huffman: corrupt input: last weight not a clean power of two")
	}

	allWeights := append(append([]uint8{}, weights...), uint8(lastWeight))
	rankStats[lastWeight]++

	if rankStats[1] < 2 || rankStats[1]&1 != 0 {
		return nil, errors.New("huffman: corrupt input: rank-1 count must be even and nonzero")
	}

	var nextRankStart uint32
	for n := uint8(1); n < uint8(tableLog)+1; n++ {
		current := nextRankStart
		nextRankStart += rankStats[n] << (n - 1)
		rankStats[n] = current
	}

	dt := &DTable{
		tableLog: uint8(tableLog),
		single:   make([]decEntry, 1<<tableLog),
	}
	for sym, w := range allWeights {
		if w == 0 {
			continue
		}
		length := (uint32(1) << w) >> 1
		e := decEntry{sym: uint8(sym), nBits: uint8(tableLog) + 1 - w}
		for u := rankStats[w]; u < rankStats[w]+length; u++ {
			dt.single[u] = e
		}
		rankStats[w] += length
	}
	return dt, nil
}

// Decompress1X decodes a single Huffman-coded stream, producing
// exactly outSize bytes.
func Decompress1X(dt *DTable, in []byte, outSize int) ([]byte, error) {
	if outSize == 0 {
		return nil, nil
	}
	var r bitio.Reader
	if err := r.Init(in); err != nil {
		return nil, err
	}
	out := make([]byte, 0, outSize)
	for len(out) < outSize {
		r.Fill()
		code := r.Bits(dt.tableLog)
		e := dt.single[code]
		if e.nBits == 0 {
			return nil, errors.New("huffman: corrupt bitstream: zero-width code")
		}
		r.Advance(e.nBits)
		out = append(out, e.sym)
	}
	if err := r.Close(); err != nil {
		return nil, err
	}
	return out, nil
}

// streamSizes4X splits a regenerated size across the format's four
// independently-decodable Huffman streams: the first three each get
// ceil(total/4) bytes, the last absorbs the remainder.
func streamSizes4X(total int) [4]int {
	chunk := (total + 3) / 4
	var sizes [4]int
	sizes[0], sizes[1], sizes[2] = chunk, chunk, chunk
	sizes[3] = total - 3*chunk
	return sizes
}

// Decompress4X decodes the format's 4-stream literals layout: a
// 6-byte jump table giving the byte length of streams 1-3 (stream 4's
// length is whatever remains), each stream decoded independently and
// concatenated in order.
func Decompress4X(dt *DTable, in []byte, outSize int) ([]byte, error) {
	if len(in) < 6 {
		return nil, errors.New("huffman: 4X stream too small for jump table")
	}
	l1 := int(binary.LittleEndian.Uint16(in[0:2]))
	l2 := int(binary.LittleEndian.Uint16(in[2:4]))
	l3 := int(binary.LittleEndian.Uint16(in[4:6]))
	body := in[6:]
	if l1+l2+l3 > len(body) {
		return nil, errors.New("huffman: 4X jump table overruns input")
	}
	l4 := len(body) - l1 - l2 - l3

	sizes := streamSizes4X(outSize)
	streams := [4][]byte{body[:l1], body[l1 : l1+l2], body[l1+l2 : l1+l2+l3], body[l1+l2+l3 : l1+l2+l3+l4]}

	out := make([]byte, 0, outSize)
	for i, s := range streams {
		part, err := Decompress1X(dt, s, sizes[i])
		if err != nil {
			return nil, fmt.Errorf("huffman: stream %d: %w", i, err)
		}
		out = append(out, part...)
	}
	return out, nil
}
