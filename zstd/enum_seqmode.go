package zstd

import (
	"fmt"

	"github.com/chronos-tachyon/enumhelper"
)

// SequenceMode identifies how one of the three sequence channels
// (literals-length, offset, match-length) supplies its FSE table.
type SequenceMode byte

const (
	// SeqPredefined loads the hard-coded distribution for this channel.
	SeqPredefined SequenceMode = iota

	// SeqRLE reads a single byte and builds a degenerate one-symbol table.
	SeqRLE

	// SeqFSECompressed reads a normalized-counts header and builds a
	// fresh table from it.
	SeqFSECompressed

	// SeqRepeat reuses the table currently installed for this channel.
	SeqRepeat
)

var sequenceModeData = []enumhelper.EnumData{
	{GoName: "SeqPredefined", Name: "predefined"},
	{GoName: "SeqRLE", Name: "rle"},
	{GoName: "SeqFSECompressed", Name: "fse_compressed"},
	{GoName: "SeqRepeat", Name: "repeat"},
}

// GoString returns the Go string representation of this SequenceMode constant.
func (m SequenceMode) GoString() string {
	return enumhelper.DereferenceEnumData("SequenceMode", sequenceModeData, uint(m)).GoName
}

// String returns the string representation of this SequenceMode constant.
func (m SequenceMode) String() string {
	return enumhelper.DereferenceEnumData("SequenceMode", sequenceModeData, uint(m)).Name
}

// MarshalJSON returns the JSON representation of this SequenceMode constant.
func (m SequenceMode) MarshalJSON() ([]byte, error) {
	return enumhelper.MarshalEnumToJSON("SequenceMode", sequenceModeData, uint(m))
}

var _ fmt.Stringer = SeqPredefined
