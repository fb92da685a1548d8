package main

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type fixture struct {
	dir string
	elf string
	bin string
	nm  string
}

func newFixture(t *testing.T, binSize int, nmOutput string) *fixture {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake nm is a shell script")
	}
	dir := t.TempDir()
	f := &fixture{
		dir: dir,
		elf: filepath.Join(dir, "fw.elf"),
		bin: filepath.Join(dir, "fw.bin"),
		nm:  filepath.Join(dir, "fake-nm"),
	}
	require.NoError(t, os.WriteFile(f.elf, []byte("\x7fELF"), 0o644))
	require.NoError(t, os.WriteFile(f.bin, make([]byte, binSize), 0o644))
	script := "#!/bin/sh\ncat <<'EOF'\n" + nmOutput + "\nEOF\n"
	require.NoError(t, os.WriteFile(f.nm, []byte(script), 0o755))
	return f
}

func (f *fixture) args(extra ...string) []string {
	return append([]string{"--elf", f.elf, "--bin", f.bin, "--nm", f.nm}, extra...)
}

func TestRun_PatchesImage(t *testing.T) {
	f := newFixture(t, 2048, "08000000 T _start\n08000010 D _bin_file_size")

	var stdout, stderr bytes.Buffer
	code := run(f.args("--base", "0x08000000"), &stdout, &stderr)
	require.Equal(t, exitOK, code, stderr.String())

	data, err := os.ReadFile(f.bin)
	require.NoError(t, err)
	require.Len(t, data, 2048)
	require.Equal(t, []byte{0x00, 0x08, 0x00, 0x00}, data[0x10:0x14])
	require.Contains(t, stdout.String(), "[Write] 2048 (Hex: 00080000)")
	require.Contains(t, stdout.String(), "Verified!")
}

func TestRun_ExitCodes(t *testing.T) {
	t.Run("offset_at_image_end", func(t *testing.T) {
		f := newFixture(t, 1024, "08000400 D _bin_file_size")
		var stdout, stderr bytes.Buffer
		code := run(f.args("--base", "08000000"), &stdout, &stderr)
		require.Equal(t, exitOffsetRange, code)
		require.Contains(t, stderr.String(), "0x400")
		require.Contains(t, stderr.String(), "1024 bytes")

		data, err := os.ReadFile(f.bin)
		require.NoError(t, err)
		require.Equal(t, make([]byte, 1024), data)
	})

	t.Run("symbol_missing", func(t *testing.T) {
		f := newFixture(t, 64, "08000000 T _start")
		var stdout, stderr bytes.Buffer
		code := run(f.args("--base", "08000000"), &stdout, &stderr)
		require.Equal(t, exitSymbol, code)
		require.Contains(t, stderr.String(), "_bin_file_size")
		require.Contains(t, stderr.String(), f.elf)

		data, err := os.ReadFile(f.bin)
		require.NoError(t, err)
		require.Equal(t, make([]byte, 64), data)
	})

	t.Run("custom_symbol", func(t *testing.T) {
		f := newFixture(t, 64, "08000020 D image_len")
		var stdout, stderr bytes.Buffer
		code := run(f.args("--base", "08000000", "--symbol", "image_len"), &stdout, &stderr)
		require.Equal(t, exitOK, code, stderr.String())
	})

	t.Run("missing_bin", func(t *testing.T) {
		f := newFixture(t, 64, "08000010 D _bin_file_size")
		require.NoError(t, os.Remove(f.bin))
		var stdout, stderr bytes.Buffer
		code := run(f.args("--base", "08000000"), &stdout, &stderr)
		require.Equal(t, exitMissingInput, code)
	})

	t.Run("bad_base", func(t *testing.T) {
		f := newFixture(t, 64, "08000010 D _bin_file_size")
		var stdout, stderr bytes.Buffer
		code := run(f.args("--base", "zz"), &stdout, &stderr)
		require.Equal(t, exitUsage, code)
		require.Contains(t, stderr.String(), "invalid --base")
	})

	t.Run("missing_required_flag", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		code := run([]string{"--bin", "fw.bin", "--base", "0"}, &stdout, &stderr)
		require.Equal(t, exitUsage, code)
		require.Contains(t, stderr.String(), "elf")
	})

	t.Run("dry_run_leaves_image_alone", func(t *testing.T) {
		f := newFixture(t, 64, "08000010 D _bin_file_size")
		var stdout, stderr bytes.Buffer
		code := run(f.args("--base", "08000000", "--dry-run"), &stdout, &stderr)
		require.Equal(t, exitOK, code, stderr.String())
		require.True(t, strings.Contains(stdout.String(), "Dry run"))

		data, err := os.ReadFile(f.bin)
		require.NoError(t, err)
		require.Equal(t, make([]byte, 64), data)
	})
}

func TestParseAddress(t *testing.T) {
	tests := []struct {
		in      string
		want    uint64
		wantErr bool
	}{
		{in: "0x08000000", want: 0x08000000},
		{in: "0X80000000", want: 0x80000000},
		{in: "80000000", want: 0x80000000},
		{in: " 0x0800_0000 ", want: 0x08000000},
		{in: "ffffffffffffffff", want: 0xffffffffffffffff},
		{in: "0x", wantErr: true},
		{in: "", wantErr: true},
		{in: "0x8g", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseAddress(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}
