package zstd

import (
	"github.com/AlvinKuruvilla/frasc/fse"
	"github.com/AlvinKuruvilla/frasc/huffman"
)

// decoderContext is the per-frame state the spec's design notes call
// for: repeated offsets and the currently loaded entropy tables, reset
// at frame boundaries and threaded through block-level decode calls
// instead of living as ambient fields on the decoder.
type decoderContext struct {
	offsets [3]int

	huffTable  *huffman.DTable
	huffLoaded bool

	llTable *fse.Table
	mlTable *fse.Table
	ofTable *fse.Table
	llValid bool
	mlValid bool
	ofValid bool

	litScratch []byte
}

func newDecoderContext() *decoderContext {
	c := &decoderContext{}
	c.reset()
	return c
}

func (c *decoderContext) reset() {
	c.offsets = [3]int{1, 4, 8}
	c.huffLoaded = false
	c.llValid = false
	c.mlValid = false
	c.ofValid = false
}

// encoderContext mirrors decoderContext for the encode side: the
// repeated-offsets triple each resolved match offset updates, plus
// whichever per-channel FSE table and Huffman table were most
// recently built, so a later block in the same frame can reuse them
// under REPEAT/TREELESS instead of paying to rebuild one from
// scratch.
type encoderContext struct {
	offsets [3]int

	llTable *fse.CTable
	mlTable *fse.CTable
	ofTable *fse.CTable
	llNorm  []int16
	mlNorm  []int16
	ofNorm  []int16
	llValid bool
	mlValid bool
	ofValid bool

	huffTable *huffman.CTable
	huffValid bool
}

func newEncoderContext() *encoderContext {
	c := &encoderContext{}
	c.reset()
	return c
}

func (c *encoderContext) reset() {
	c.offsets = [3]int{1, 4, 8}
	c.llValid = false
	c.mlValid = false
	c.ofValid = false
	c.huffValid = false
}
