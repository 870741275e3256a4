package zstd

import (
	"fmt"

	"github.com/chronos-tachyon/enumhelper"
)

// LiteralsBlockType identifies how a block's literals section is encoded.
type LiteralsBlockType byte

const (
	// LiteralsRaw carries the literals verbatim.
	LiteralsRaw LiteralsBlockType = iota

	// LiteralsRLE expands a single byte outSize times.
	LiteralsRLE

	// LiteralsCompressed carries a Huffman table followed by one or
	// four Huffman-coded streams.
	LiteralsCompressed

	// LiteralsTreeless reuses the Huffman table already loaded for
	// this frame; it never carries a table of its own.
	LiteralsTreeless
)

var literalsBlockTypeData = []enumhelper.EnumData{
	{GoName: "LiteralsRaw", Name: "raw"},
	{GoName: "LiteralsRLE", Name: "rle"},
	{GoName: "LiteralsCompressed", Name: "compressed"},
	{GoName: "LiteralsTreeless", Name: "treeless"},
}

// GoString returns the Go string representation of this LiteralsBlockType constant.
func (b LiteralsBlockType) GoString() string {
	return enumhelper.DereferenceEnumData("LiteralsBlockType", literalsBlockTypeData, uint(b)).GoName
}

// String returns the string representation of this LiteralsBlockType constant.
func (b LiteralsBlockType) String() string {
	return enumhelper.DereferenceEnumData("LiteralsBlockType", literalsBlockTypeData, uint(b)).Name
}

// MarshalJSON returns the JSON representation of this LiteralsBlockType constant.
func (b LiteralsBlockType) MarshalJSON() ([]byte, error) {
	return enumhelper.MarshalEnumToJSON("LiteralsBlockType", literalsBlockTypeData, uint(b))
}

var _ fmt.Stringer = LiteralsBlockType(0)
