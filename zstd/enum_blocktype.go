package zstd

import (
	"fmt"

	"github.com/chronos-tachyon/enumhelper"
)

// BlockType identifies how a block's payload is encoded on the wire.
type BlockType byte

const (
	// BlockRaw carries its payload verbatim.
	BlockRaw BlockType = iota

	// BlockRLE replicates a single payload byte blockSize times.
	BlockRLE

	// BlockCompressed holds a literals section followed by a
	// sequences section.
	BlockCompressed

	// BlockReserved is never produced by a conformant encoder; seeing
	// it on decode is a malformed-input error.
	BlockReserved
)

var blockTypeData = []enumhelper.EnumData{
	{GoName: "BlockRaw", Name: "raw"},
	{GoName: "BlockRLE", Name: "rle"},
	{GoName: "BlockCompressed", Name: "compressed"},
	{GoName: "BlockReserved", Name: "reserved"},
}

// GoString returns the Go string representation of this BlockType constant.
func (b BlockType) GoString() string {
	return enumhelper.DereferenceEnumData("BlockType", blockTypeData, uint(b)).GoName
}

// String returns the string representation of this BlockType constant.
func (b BlockType) String() string {
	return enumhelper.DereferenceEnumData("BlockType", blockTypeData, uint(b)).Name
}

// MarshalJSON returns the JSON representation of this BlockType constant.
func (b BlockType) MarshalJSON() ([]byte, error) {
	return enumhelper.MarshalEnumToJSON("BlockType", blockTypeData, uint(b))
}

var _ fmt.Stringer = BlockType(0)
