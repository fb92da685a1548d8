package report

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"

	"github.com/VladMinzatu/fwsize/internal/patcher"
)

// WriteSummary prints the progress lines of a completed run to w.
func WriteSummary(w io.Writer, res *patcher.Result) error {
	lines := []string{
		fmt.Sprintf("    -> Bin File Size: %d bytes (%s)", res.ImageSize, humanize.IBytes(uint64(res.ImageSize))),
		fmt.Sprintf("    -> Symbol '%s' found at VMA: 0x%X (Offset: 0x%X)", res.Symbol.Name, res.Symbol.Addr, res.Offset),
	}
	if rec := res.Patch; rec != nil {
		lines = append(lines,
			fmt.Sprintf("    -> Patching offset 0x%X ...", rec.Offset),
			fmt.Sprintf("       [Write] %d (Hex: %x)", rec.Value, rec.Written[:]),
			fmt.Sprintf("       [Read ] Verified! Data at 0x%X is correct (%x).", rec.Offset, rec.ReadBack[:]),
		)
	} else {
		lines = append(lines, fmt.Sprintf("    -> Dry run, offset 0x%X not written.", res.Offset))
	}

	for _, l := range lines {
		if _, err := fmt.Fprintln(w, l); err != nil {
			return err
		}
	}
	return nil
}
