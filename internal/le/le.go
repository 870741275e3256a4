// Package le provides unaligned little-endian load/store helpers
// over byte slices. Only the encoding/binary-backed form is kept:
// the rest of this codec's hot paths (entropy coding, match copy) are
// bit- or byte-stream driven rather than raw pointer arithmetic, so
// there's no loop here hot enough to justify an unsafe.Pointer
// variant and its platform build tags.
package le

import "encoding/binary"

func Load16(b []byte, i int) uint16 { return binary.LittleEndian.Uint16(b[i:]) }
func Load32(b []byte, i int) uint32 { return binary.LittleEndian.Uint32(b[i:]) }
func Load64(b []byte, i int) uint64 { return binary.LittleEndian.Uint64(b[i:]) }

func Store16(b []byte, i int, v uint16) { binary.LittleEndian.PutUint16(b[i:], v) }
func Store32(b []byte, i int, v uint32) { binary.LittleEndian.PutUint32(b[i:], v) }
func Store64(b []byte, i int, v uint64) { binary.LittleEndian.PutUint64(b[i:], v) }
