package huffman

import (
	"encoding/binary"
	"fmt"

	"github.com/AlvinKuruvilla/frasc/bitio"
)

// Compress1X Huffman-codes literals into a single bitstream. Symbols
// are written in reverse order so that bitio.Reader, which reads
// backward from the end of the buffer, recovers them in original
// order.
func Compress1X(ct *CTable, literals []byte) ([]byte, error) {
	var w bitio.Writer
	w.Reset(nil)
	for i := len(literals) - 1; i >= 0; i-- {
		e := ct.Entry(literals[i])
		if e.NBits == 0 {
			return nil, fmt.Errorf("huffman: symbol %#x has no assigned code", literals[i])
		}
		w.AddBits(uint32(e.Val), e.NBits)
	}
	return w.Close(), nil
}

// Compress4X splits literals into the format's four streams, encodes
// each independently, and prefixes the result with the 6-byte jump
// table giving the byte lengths of streams 1-3.
func Compress4X(ct *CTable, literals []byte) ([]byte, error) {
	sizes := streamSizes4X(len(literals))
	var chunks [4][]byte
	off := 0
	for i, n := range sizes {
		chunks[i] = literals[off : off+n]
		off += n
	}

	var encoded [4][]byte
	for i, c := range chunks {
		e, err := Compress1X(ct, c)
		if err != nil {
			return nil, fmt.Errorf("huffman: stream %d: %w", i, err)
		}
		encoded[i] = e
	}

	for _, n := range [3]int{len(encoded[0]), len(encoded[1]), len(encoded[2])} {
		if n > 0xFFFF {
			return nil, fmt.Errorf("huffman: stream length %d overflows 16-bit jump table", n)
		}
	}

	out := make([]byte, 6)
	binary.LittleEndian.PutUint16(out[0:2], uint16(len(encoded[0])))
	binary.LittleEndian.PutUint16(out[2:4], uint16(len(encoded[1])))
	binary.LittleEndian.PutUint16(out[4:6], uint16(len(encoded[2])))
	for _, e := range encoded {
		out = append(out, e...)
	}
	return out, nil
}
