package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/VladMinzatu/fwsize/internal/image"
	"github.com/VladMinzatu/fwsize/internal/patcher"
	"github.com/VladMinzatu/fwsize/internal/report"
	"github.com/VladMinzatu/fwsize/internal/symbolizer"
)

const (
	exitOK = iota
	exitUsage
	exitMissingInput
	exitSymbol
	exitOffsetRange
	exitPatchIO
	exitVerification
)

type options struct {
	elf     string
	bin     string
	symbol  string
	base    string
	nm      string
	dryRun  bool
	verbose bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	var opts options
	app := kingpin.New(filepath.Base(os.Args[0]), "Patch a flat firmware image with its own size at the address of a linker symbol.")
	app.UsageWriter(stderr).ErrorWriter(stderr)
	app.HelpFlag.Short('h')
	app.Flag("elf", "Linked executable containing the symbol table.").Required().StringVar(&opts.elf)
	app.Flag("bin", "Flat binary image to patch.").Required().StringVar(&opts.bin)
	app.Flag("symbol", "Symbol marking the 4-byte size field.").Default("_bin_file_size").StringVar(&opts.symbol)
	app.Flag("base", "Load address of the first byte of the image (hex).").Required().StringVar(&opts.base)
	app.Flag("nm", "Symbol listing command.").Default(symbolizer.DefaultNmCommand).Envar("NM").StringVar(&opts.nm)
	app.Flag("dry-run", "Resolve and validate the offset without writing.").BoolVar(&opts.dryRun)
	app.Flag("verbose", "Enable debug logging.").Short('v').BoolVar(&opts.verbose)

	if _, err := app.Parse(args); err != nil {
		fmt.Fprintf(stderr, "[Error] %v\n", err)
		return exitUsage
	}

	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})))

	base, err := parseAddress(opts.base)
	if err != nil {
		fmt.Fprintf(stderr, "[Error] invalid --base %q: %v\n", opts.base, err)
		return exitUsage
	}

	lister, err := symbolizer.NewNmLister(opts.nm)
	if err != nil {
		fmt.Fprintf(stderr, "[Error] %v\n", err)
		return exitUsage
	}
	p, err := patcher.NewPatcher(symbolizer.NewResolver(lister), image.NewOsStore())
	if err != nil {
		slog.Error("Failed to initialise patcher", "error", err)
		return exitUsage
	}

	res, err := p.Run(patcher.Config{
		ElfPath: opts.elf,
		BinPath: opts.bin,
		Symbol:  opts.symbol,
		Base:    base,
		DryRun:  opts.dryRun,
	})
	if err != nil {
		return checkError(stderr, err)
	}
	if err := report.WriteSummary(stdout, res); err != nil {
		slog.Warn("Failed to write summary", "error", err)
	}
	return exitOK
}

func checkError(w io.Writer, err error) int {
	fmt.Fprintf(w, "[Error] %v\n", err)

	var (
		missing  *image.MissingInputFileError
		symErr   *symbolizer.SymbolResolutionError
		rangeErr *image.OffsetRangeError
		ioErr    *image.PatchIOError
		vErr     *image.VerificationError
	)
	switch {
	case errors.As(err, &missing):
		return exitMissingInput
	case errors.As(err, &symErr):
		return exitSymbol
	case errors.As(err, &rangeErr):
		return exitOffsetRange
	case errors.As(err, &vErr):
		return exitVerification
	case errors.As(err, &ioErr):
		return exitPatchIO
	}
	return exitUsage
}

// parseAddress accepts a hexadecimal address with or without a 0x prefix.
func parseAddress(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if len(s) > 1 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	if s == "" {
		return 0, errors.New("empty address")
	}
	s = strings.ReplaceAll(s, "_", "")
	return strconv.ParseUint(s, 16, 64)
}
