package huffman

import (
	"errors"
	"fmt"

	"github.com/AlvinKuruvilla/frasc/fse"
)

// weightsFromTable derives the per-symbol weight array a table's
// header describes: weight 0 for an absent symbol, otherwise
// TableLog+1-NBits. Only the first SymbolLen-1 entries are ever
// serialized; the last present symbol's weight is implied by the
// constraint that weights decode to a power-of-two total.
func weightsFromTable(ct *CTable) []uint8 {
	w := make([]uint8, ct.SymbolLen-1)
	for i := range w {
		e := ct.entries[i]
		if e.NBits == 0 {
			w[i] = 0
			continue
		}
		w[i] = ct.TableLog + 1 - e.NBits
	}
	return w
}

// WriteWeights serializes ct's weight table. Alphabets of 128
// symbols or fewer use the raw, 4-bit-per-symbol encoding (two
// symbols packed per byte); the header byte follows the format's
// "iSize >= 128 means uncompressed" convention, iSize = 127 +
// symbolCount. Larger alphabets (routine for literals, which often
// use most of the 256 byte values) don't fit that byte-sized header
// and are FSE-compressed instead, with iSize giving the compressed
// payload's length.
func WriteWeights(ct *CTable) ([]byte, error) {
	if ct.SymbolLen == 0 || ct.SymbolLen > MaxSymbolValue+1 {
		return nil, fmt.Errorf("huffman: symbolLen %d out of range", ct.SymbolLen)
	}
	w := weightsFromTable(ct)
	n := len(w)

	if n <= 128 {
		out := make([]byte, 1+(n+1)/2)
		out[0] = byte(127 + n)
		for i := 0; i < n; i += 2 {
			hi := w[i]
			var lo uint8
			if i+1 < n {
				lo = w[i+1]
			}
			out[1+i/2] = hi<<4 | lo
		}
		return out, nil
	}

	compressed, err := fse.CompressBytes(w, MaxTableLog, weightTableLog(n))
	if err != nil {
		return nil, fmt.Errorf("huffman: compressing weights: %w", err)
	}
	if len(compressed) >= 128 {
		return nil, fmt.Errorf("huffman: compressed weight header (%d bytes) too large to tag", len(compressed))
	}
	out := make([]byte, 1+len(compressed))
	out[0] = byte(len(compressed))
	copy(out[1:], compressed)
	return out, nil
}

// weightTableLog picks a table log for FSE-compressing n weight
// values: deep enough to discriminate a skewed distribution, shallow
// enough to stay cheap for small weight counts.
func weightTableLog(n int) uint8 {
	log := uint8(fseHighBit(uint32(n))) + 1
	if log < fse.MinTableLog {
		log = fse.MinTableLog
	}
	if log > fse.MaxTableLog {
		log = fse.MaxTableLog
	}
	return log
}

func fseHighBit(v uint32) uint32 { return highBit32(v) }

// ReadWeights parses a weight header written by WriteWeights or by an
// FSE-compressed encoder, returning the weight array (not including
// the implied final weight) and the number of header bytes consumed.
func ReadWeights(in []byte) (weights []uint8, consumed int, err error) {
	if len(in) < 1 {
		return nil, 0, errors.New("huffman: weight header too small")
	}
	iSize := in[0]
	in = in[1:]
	if iSize >= 128 {
		n := int(iSize) - 127
		need := (n + 1) / 2
		if need > len(in) {
			return nil, 0, errors.New("huffman: truncated raw weight header")
		}
		weights = make([]uint8, n)
		for i := 0; i < n; i += 2 {
			v := in[i/2]
			weights[i] = v >> 4
			if i+1 < n {
				weights[i+1] = v & 0xF
			}
		}
		return weights, 1 + need, nil
	}

	if int(iSize) > len(in) {
		return nil, 0, errors.New("huffman: truncated FSE weight header")
	}
	const maxWeightSymbol = MaxTableLog // weights are bounded by tableLogMax
	weights, err = fse.DecompressBytes(in[:iSize], maxWeightSymbol, MaxSymbolValue)
	if err != nil {
		return nil, 0, fmt.Errorf("huffman: decompressing weights: %w", err)
	}
	return weights, 1 + int(iSize), nil
}
