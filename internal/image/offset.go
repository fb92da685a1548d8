package image

import (
	"fmt"
	"math"
)

// FieldSize is the width of the patched size field.
const FieldSize = 4

// ComputeOffset translates a symbol address into a file offset of an image
// loaded at base. The field must lie entirely within the image.
func ComputeOffset(addr, base uint64, length int64) (int64, error) {
	if addr < base {
		off := int64(math.MinInt64)
		if d := base - addr; d <= math.MaxInt64 {
			off = -int64(d)
		}
		return 0, &OffsetRangeError{Addr: addr, Base: base, Offset: off, Length: length}
	}
	d := addr - base
	if d > math.MaxInt64 || int64(d) > length-FieldSize {
		off := int64(math.MaxInt64)
		if d <= math.MaxInt64 {
			off = int64(d)
		}
		return 0, &OffsetRangeError{Addr: addr, Base: base, Offset: off, Length: length}
	}
	return int64(d), nil
}

// SizeField returns the value stored for an image of the given length.
func SizeField(length int64) (uint32, error) {
	if length < 0 || length > math.MaxUint32 {
		return 0, fmt.Errorf("%w: %d bytes", ErrImageTooLarge, length)
	}
	return uint32(length), nil
}
