package image

import (
	"errors"
	"fmt"
)

var ErrImageTooLarge = errors.New("image does not fit a 32-bit size field")

type MissingInputFileError struct {
	Path string
	Err  error
}

func (e *MissingInputFileError) Error() string {
	return fmt.Sprintf("input file %s not usable: %v", e.Path, e.Err)
}

func (e *MissingInputFileError) Unwrap() error { return e.Err }

// OffsetRangeError means the symbol does not map to 4 bytes inside the image,
// usually because the base address does not match the memory layout.
type OffsetRangeError struct {
	Addr   uint64
	Base   uint64
	Offset int64
	Length int64
}

func (e *OffsetRangeError) Error() string {
	return fmt.Sprintf("calculated offset %s (symbol 0x%X - base 0x%X) is out of bounds for image of %d bytes",
		formatOffset(e.Offset), e.Addr, e.Base, e.Length)
}

type PatchIOError struct {
	Op     string
	Path   string
	Offset int64
	Err    error
}

func (e *PatchIOError) Error() string {
	return fmt.Sprintf("%s %s at offset 0x%X: %v", e.Op, e.Path, e.Offset, e.Err)
}

func (e *PatchIOError) Unwrap() error { return e.Err }

// VerificationError is a write the OS accepted but that did not read back.
type VerificationError struct {
	Path   string
	Offset int64
	Want   [4]byte
	Got    [4]byte
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("verification failed for %s at offset 0x%X: wrote %x, read %x", e.Path, e.Offset, e.Want[:], e.Got[:])
}

func formatOffset(off int64) string {
	if off < 0 {
		return fmt.Sprintf("-0x%X", uint64(-off))
	}
	return fmt.Sprintf("0x%X", off)
}
