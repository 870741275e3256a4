// Package fse implements Finite-State Entropy (FSE) table
// construction, decoding, and encoding as used by the Zstandard
// frame format: directly for the three sequence channels (literals
// length, match length, offset code) and indirectly to compress
// Huffman weight arrays.
//
// The decoding table layout ({symbol, newState, numberOfBits} per
// state) and the state-spreading walk mirror the zstd reference
// decoder; the compression table mirrors the matching reference
// encoder so that normalized counts written by WriteNCount round-trip
// through ReadNCount, and tables from BuildCTable and BuildTable agree,
// bit-for-bit.
package fse

import (
	"errors"
	"fmt"
	"math/bits"
)

const (
	// MaxTableLog is the largest table log this codec will build or
	// accept for any FSE channel (the literals-length and match-length
	// channels use it as their cap; the offset channel caps lower; see
	// zstd package).
	MaxTableLog = 9
	// MinTableLog is the smallest table log a normalized-count header
	// can declare.
	MinTableLog = 5
	// MaxSymbolValue bounds every channel's alphabet.
	MaxSymbolValue = 255
)

// ErrIncompressible is returned by the encoder when the input's
// distribution cannot be usefully normalized (e.g. too many distinct
// symbols for the requested table size).
var ErrIncompressible = errors.New("fse: input not compressible with requested table size")

// tableStep returns the next table index in the state-spreading walk,
// per the zstd reference: (tableSize>>1) + (tableSize>>3) + 3.
func tableStep(tableSize uint32) uint32 {
	return (tableSize >> 1) + (tableSize >> 3) + 3
}

func highBit(v uint32) uint32 {
	return uint32(bits.Len32(v)) - 1
}

// decSymbol is one state's entry in a decoding table.
type decSymbol struct {
	newState uint16
	symbol   uint8
	nbBits   uint8
}

// Table is a fully built FSE decoding table, ready to drive one or
// more independent State cursors over a shared bit reader.
type Table struct {
	TableLog       uint8
	MaxSymbolValue uint8
	SymbolLen      uint16
	dt             []decSymbol
}

// BuildTable constructs a decoding table from a normalized-count
// array (as produced by ReadNCount or by a predefined distribution).
// norm must have one entry per symbol in [0, maxSymbolValue], with -1
// meaning "present with probability below 1/tableSize".
func BuildTable(norm []int16, maxSymbolValue int, tableLog uint8) (*Table, error) {
	if tableLog > MaxTableLog {
		return nil, fmt.Errorf("fse: tableLog %d exceeds maximum %d", tableLog, MaxTableLog)
	}
	tableSize := uint32(1) << tableLog
	highThreshold := tableSize - 1

	t := &Table{
		TableLog:       tableLog,
		MaxSymbolValue: uint8(maxSymbolValue),
		SymbolLen:      uint16(maxSymbolValue + 1),
		dt:             make([]decSymbol, tableSize),
	}

	symbolNext := make([]uint16, maxSymbolValue+1)
	for i, v := range norm[:maxSymbolValue+1] {
		if v == -1 {
			t.dt[highThreshold].symbol = uint8(i)
			highThreshold--
			symbolNext[i] = 1
		} else {
			symbolNext[i] = uint16(v)
		}
	}

	tableMask := tableSize - 1
	step := tableStep(tableSize)
	position := uint32(0)
	for s, v := range norm[:maxSymbolValue+1] {
		for i := 0; i < int(v); i++ {
			t.dt[position].symbol = uint8(s)
			position = (position + step) & tableMask
			for position > highThreshold {
				position = (position + step) & tableMask
			}
		}
	}
	if position != 0 {
		return nil, errors.New("fse: corrupted input (spreading walk did not return to zero)")
	}

	for u := range t.dt {
		symbol := t.dt[u].symbol
		nextState := symbolNext[symbol]
		symbolNext[symbol] = nextState + 1
		nbBits := tableLog - uint8(highBit(uint32(nextState)))
		t.dt[u].nbBits = nbBits
		newState := (nextState << nbBits) - uint16(tableSize)
		t.dt[u].newState = newState
	}
	return t, nil
}

// State is one cursor into a Table, tracking the current ANS state
// for a single channel. Multiple States can share one bit reader, as
// the zstd sequence decoder does for its three channels.
type State struct {
	dt    []decSymbol
	state uint16
}

// Init seeds the state by consuming TableLog bits from br. The
// caller must have called br.Fill() recently enough that tableLog
// bits are available.
func (s *State) Init(br bitReader, t *Table) {
	s.dt = t.dt
	s.state = uint16(br.ReadBits(t.TableLog))
}

// bitReader is the minimal surface State needs from a bit reader; it
// is satisfied by *bitio.Reader. Declared locally so this package
// doesn't need to import bitio just to name the type in signatures.
type bitReader interface {
	ReadBits(n uint8) uint32
}

// Symbol returns the symbol encoded by the current state, without
// consuming any bits.
func (s *State) Symbol() uint8 {
	return s.dt[s.state].symbol
}

// NumberOfBits returns how many bits the next Update call will
// consume from the bit reader.
func (s *State) NumberOfBits() uint8 {
	return s.dt[s.state].nbBits
}

// Update advances to the next state, consuming NumberOfBits() bits
// from br.
func (s *State) Update(br bitReader) {
	e := s.dt[s.state]
	low := br.ReadBits(e.nbBits)
	s.state = e.newState + uint16(low)
}
