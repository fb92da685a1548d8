package report

import (
	"bytes"
	"errors"
	"testing"

	"github.com/VladMinzatu/fwsize/internal/image"
	"github.com/VladMinzatu/fwsize/internal/patcher"
	"github.com/VladMinzatu/fwsize/internal/symbolizer"
)

func TestWriteSummary_PatchedImage(t *testing.T) {
	res := &patcher.Result{
		Symbol:    symbolizer.Symbol{Name: "_bin_file_size", Addr: 0x08000010},
		Base:      0x08000000,
		ImageSize: 2048,
		Offset:    0x10,
		Patch: &image.PatchRecord{
			Offset:   0x10,
			Value:    2048,
			Written:  [4]byte{0x00, 0x08, 0x00, 0x00},
			ReadBack: [4]byte{0x00, 0x08, 0x00, 0x00},
		},
	}

	var buf bytes.Buffer
	if err := WriteSummary(&buf, res); err != nil {
		t.Fatalf("WriteSummary: %v", err)
	}

	want := "    -> Bin File Size: 2048 bytes (2.0 KiB)\n" +
		"    -> Symbol '_bin_file_size' found at VMA: 0x8000010 (Offset: 0x10)\n" +
		"    -> Patching offset 0x10 ...\n" +
		"       [Write] 2048 (Hex: 00080000)\n" +
		"       [Read ] Verified! Data at 0x10 is correct (00080000).\n"
	if got := buf.String(); got != want {
		t.Fatalf("unexpected summary:\n got: %q\nwant: %q", got, want)
	}
}

func TestWriteSummary_DryRun(t *testing.T) {
	res := &patcher.Result{
		Symbol:    symbolizer.Symbol{Name: "_bin_file_size", Addr: 0x80000004},
		ImageSize: 1000,
		Offset:    0x4,
	}

	var buf bytes.Buffer
	if err := WriteSummary(&buf, res); err != nil {
		t.Fatalf("WriteSummary: %v", err)
	}

	want := "    -> Bin File Size: 1000 bytes (1000 B)\n" +
		"    -> Symbol '_bin_file_size' found at VMA: 0x80000004 (Offset: 0x4)\n" +
		"    -> Dry run, offset 0x4 not written.\n"
	if got := buf.String(); got != want {
		t.Fatalf("unexpected summary:\n got: %q\nwant: %q", got, want)
	}
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) { return 0, errors.New("closed pipe") }

func TestWriteSummary_PropagatesWriteErrors(t *testing.T) {
	err := WriteSummary(failingWriter{}, &patcher.Result{})
	if err == nil || err.Error() != "closed pipe" {
		t.Fatalf("expected writer error, got %v", err)
	}
}
