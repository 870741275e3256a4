package fse

import (
	"errors"
	"fmt"
)

// WriteNCount serializes a normalized-count array into the header
// format ReadNCount parses: a 4-bit (tableLog-MinTableLog) field
// followed by variable-width per-symbol counts, with up to three
// 2-bit "repeat zero" extensions per run of zero-count symbols.
func WriteNCount(norm []int16, maxSymbolValue int, tableLog uint8) ([]byte, error) {
	if tableLog < MinTableLog || tableLog > MaxTableLog {
		return nil, fmt.Errorf("fse: tableLog %d out of range", tableLog)
	}
	var out []byte
	var bitStream uint32
	var bitCount uint

	addBits := func(value uint32, bits uint) {
		if bits == 0 {
			return
		}
		bitStream |= (value & ((1 << bits) - 1)) << bitCount
		bitCount += bits
		for bitCount >= 16 {
			out = append(out, byte(bitStream), byte(bitStream>>8))
			bitStream >>= 16
			bitCount -= 16
		}
	}

	addBits(uint32(tableLog-MinTableLog), 4)

	tableSize := int32(1) << tableLog
	remaining := tableSize + 1
	threshold := tableSize
	nbBits := int(tableLog) + 1
	previousIs0 := false

	symbol := 0
	for symbol <= maxSymbolValue && remaining > 1 {
		if previousIs0 {
			start := symbol
			for symbol <= maxSymbolValue && norm[symbol] == 0 {
				symbol++
			}
			for symbol >= start+24 {
				start += 24
				addBits(0xFFFF, 16)
			}
			for symbol >= start+3 {
				start += 3
				addBits(3, 2)
			}
			addBits(uint32(symbol-start), 2)
		}
		if symbol > maxSymbolValue {
			break
		}

		count := int32(norm[symbol])
		symbol++
		max := (2*threshold - 1) - remaining
		if count < 0 {
			remaining -= -count
		} else {
			remaining -= count
		}
		count++
		if count >= threshold {
			count += max
		}
		width := nbBits
		if count < max {
			width--
		}
		addBits(uint32(count), uint(width))
		previousIs0 = count == 1

		if remaining < 1 {
			return nil, errors.New("fse: normalized counts cannot be represented (remaining < 1)")
		}
		for remaining < threshold {
			nbBits--
			threshold >>= 1
		}
	}
	if remaining != 1 {
		return nil, fmt.Errorf("fse: normalized counts do not sum to table size (remaining %d)", remaining)
	}

	nbBytes := (bitCount + 7) / 8
	for i := uint(0); i < nbBytes; i++ {
		out = append(out, byte(bitStream))
		bitStream >>= 8
	}
	return out, nil
}

// Normalize turns a raw symbol histogram into a normalized-count
// array summing to 1<<tableLog, the form both ReadNCount/WriteNCount
// and BuildTable operate on. Symbols with a share of the distribution
// too small to round to at least 1 are marked -1 (present, below
// 1/tableSize probability) rather than dropped, so the table still
// reserves a state for them.
func Normalize(count []uint32, maxSymbolValue int, tableLog uint8) ([]int16, error) {
	var total uint64
	for _, c := range count[:maxSymbolValue+1] {
		total += uint64(c)
	}
	if total == 0 {
		return nil, errors.New("fse: empty histogram")
	}
	tableSize := uint32(1) << tableLog

	norm := make([]int16, maxSymbolValue+1)
	var distributed int32
	var lowProbSlots int32
	best := -1
	var bestNorm int32

	for s := 0; s <= maxSymbolValue; s++ {
		c := count[s]
		if c == 0 {
			continue
		}
		share := (uint64(c) * uint64(tableSize)) / total
		if share == 0 {
			norm[s] = -1
			lowProbSlots++
			continue
		}
		n := int32(share)
		norm[s] = int16(n)
		distributed += n
		if n > bestNorm {
			bestNorm = n
			best = s
		}
	}
	if best < 0 {
		return nil, ErrIncompressible
	}
	diff := int32(tableSize) - distributed - lowProbSlots
	norm[best] += int16(diff)
	if norm[best] < 1 {
		return nil, ErrIncompressible
	}
	return norm, nil
}

// symbolTransform holds the per-symbol constants FSE_encodeSymbol
// needs to compute both the number of bits to flush and the next
// state, without a division in the hot path.
type symbolTransform struct {
	deltaNbBits    uint32
	deltaFindState int32
}

// CTable is a fully built FSE compression table, the encode-side
// counterpart to Table: one stateTable entry per table slot plus one
// symbolTransform per symbol.
type CTable struct {
	TableLog   uint8
	stateTable []uint16
	symbolTT   []symbolTransform
}

// BuildCTable constructs a compression table from a normalized-count
// array, the same input BuildTable takes.
func BuildCTable(norm []int16, maxSymbolValue int, tableLog uint8) (*CTable, error) {
	if tableLog > MaxTableLog {
		return nil, fmt.Errorf("fse: tableLog %d exceeds maximum %d", tableLog, MaxTableLog)
	}
	tableSize := uint32(1) << tableLog
	tableMask := tableSize - 1
	highThreshold := tableSize - 1

	cumul := make([]uint32, maxSymbolValue+2)
	tableSymbol := make([]uint8, tableSize)

	for u := 1; u <= maxSymbolValue+1; u++ {
		if norm[u-1] == -1 {
			cumul[u] = cumul[u-1] + 1
			tableSymbol[highThreshold] = uint8(u - 1)
			highThreshold--
		} else {
			cumul[u] = cumul[u-1] + uint32(norm[u-1])
		}
	}
	cumul[maxSymbolValue+1] = tableSize + 1

	step := tableStep(tableSize)
	position := uint32(0)
	for symbol := 0; symbol <= maxSymbolValue; symbol++ {
		freq := int(norm[symbol])
		for i := 0; i < freq; i++ {
			tableSymbol[position] = uint8(symbol)
			position = (position + step) & tableMask
			for position > highThreshold {
				position = (position + step) & tableMask
			}
		}
	}
	if position != 0 {
		return nil, errors.New("fse: corrupted normalized counts (spreading walk did not return to zero)")
	}

	ct := &CTable{
		TableLog:   tableLog,
		stateTable: make([]uint16, tableSize),
		symbolTT:   make([]symbolTransform, maxSymbolValue+1),
	}
	cursor := append([]uint32(nil), cumul...)
	for u := uint32(0); u < tableSize; u++ {
		s := tableSymbol[u]
		ct.stateTable[cursor[s]] = uint16(tableSize + u)
		cursor[s]++
	}

	var total int32
	for s := 0; s <= maxSymbolValue; s++ {
		switch norm[s] {
		case 0:
			ct.symbolTT[s].deltaNbBits = (uint32(tableLog+1) << 16) - tableSize
		case -1, 1:
			ct.symbolTT[s].deltaNbBits = (uint32(tableLog) << 16) - tableSize
			ct.symbolTT[s].deltaFindState = total - 1
			total++
		default:
			maxBitsOut := uint32(tableLog) - highBit(uint32(norm[s]-1))
			minStatePlus := uint32(norm[s]) << maxBitsOut
			ct.symbolTT[s].deltaNbBits = (maxBitsOut << 16) - minStatePlus
			ct.symbolTT[s].deltaFindState = total - int32(norm[s])
			total += int32(norm[s])
		}
	}
	return ct, nil
}

// bitWriter is the minimal surface CState needs; *bitio.Writer
// satisfies it.
type bitWriter interface {
	AddBits(value uint32, nbBits uint8)
}

// CState is one cursor into a CTable, tracking the current ANS state
// for a single channel while encoding.
type CState struct {
	ct    *CTable
	value uint32
}

// Init seeds the state to its table-log-wide initial value, the
// starting point for a channel that is not seeded with InitFirst;
// every symbol is then passed through Encode.
func (c *CState) Init(ct *CTable) {
	c.ct = ct
	c.value = uint32(1) << ct.TableLog
}

// InitFirst seeds the state directly from the first symbol to be
// encoded, folding what would otherwise be an Init followed by an
// Encode into one cheaper step. Sequences are encoded back to front,
// so "first" here means the last sequence in the block.
func (c *CState) InitFirst(ct *CTable, symbol uint8) {
	c.ct = ct
	tt := ct.symbolTT[symbol]
	nbBitsOut := (tt.deltaNbBits + (1 << 15)) >> 16
	c.value = (nbBitsOut << 16) - tt.deltaNbBits
	idx := int32(c.value>>nbBitsOut) + tt.deltaFindState
	c.value = uint32(ct.stateTable[idx])
}

// Encode flushes the bits needed to transition from the previous
// state through symbol, then advances to the new state.
func (c *CState) Encode(bw bitWriter, symbol uint8) {
	tt := c.ct.symbolTT[symbol]
	nbBitsOut := (c.value + tt.deltaNbBits) >> 16
	bw.AddBits(c.value, uint8(nbBitsOut))
	idx := int32(c.value>>nbBitsOut) + tt.deltaFindState
	c.value = uint32(c.ct.stateTable[idx])
}

// Flush writes out the final state value, TableLog bits wide. The
// caller must do this for every channel once all symbols are encoded.
func (c *CState) Flush(bw bitWriter) {
	bw.AddBits(c.value, c.ct.TableLog)
}
