package patcher

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/VladMinzatu/fwsize/internal/image"
	"github.com/VladMinzatu/fwsize/internal/symbolizer"
)

type SymbolResolver interface {
	Resolve(path, name string) (symbolizer.Symbol, error)
}

type Image interface {
	RequireFile(path string) (os.FileInfo, error)
	Size(path string) (int64, error)
	Patch(path string, offset int64, value uint32) (*image.PatchRecord, error)
}

type Stage int

const (
	StageStart Stage = iota
	StageResolveSymbol
	StageComputeOffset
	StageValidateOffset
	StageWritePatch
	StageVerifyPatch
	StageSuccess
)

func (s Stage) String() string {
	switch s {
	case StageStart:
		return "start"
	case StageResolveSymbol:
		return "resolve symbol"
	case StageComputeOffset:
		return "compute offset"
	case StageValidateOffset:
		return "validate offset"
	case StageWritePatch:
		return "write patch"
	case StageVerifyPatch:
		return "verify patch"
	case StageSuccess:
		return "success"
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// StageError records the step at which a run failed.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

type Config struct {
	ElfPath string
	BinPath string
	Symbol  string
	Base    uint64
	DryRun  bool
}

type Result struct {
	Symbol    symbolizer.Symbol
	Base      uint64
	ImageSize int64
	Offset    int64
	// Patch is nil for dry runs.
	Patch *image.PatchRecord
}

type Patcher struct {
	resolver SymbolResolver
	image    Image
}

func NewPatcher(resolver SymbolResolver, img Image) (*Patcher, error) {
	if resolver == nil {
		return nil, errors.New("invalid resolver; must not be nil")
	}
	if img == nil {
		return nil, errors.New("invalid image store; must not be nil")
	}
	return &Patcher{resolver: resolver, image: img}, nil
}

// Run resolves cfg.Symbol in cfg.ElfPath and stores the size of cfg.BinPath
// at the matching offset of the image. The image is not opened for writing
// unless every earlier step succeeded.
func (p *Patcher) Run(cfg Config) (*Result, error) {
	res := &Result{Base: cfg.Base}

	size, err := p.image.Size(cfg.BinPath)
	if err != nil {
		return nil, &StageError{Stage: StageStart, Err: err}
	}
	if _, err := p.image.RequireFile(cfg.ElfPath); err != nil {
		return nil, &StageError{Stage: StageStart, Err: err}
	}
	res.ImageSize = size
	slog.Info("Bin file size", "path", cfg.BinPath, "bytes", size)

	sym, err := p.resolver.Resolve(cfg.ElfPath, cfg.Symbol)
	if err != nil {
		return nil, &StageError{Stage: StageResolveSymbol, Err: err}
	}
	res.Symbol = sym

	value, err := image.SizeField(size)
	if err != nil {
		return nil, &StageError{Stage: StageComputeOffset, Err: err}
	}

	offset, err := image.ComputeOffset(sym.Addr, cfg.Base, size)
	if err != nil {
		return nil, &StageError{Stage: StageValidateOffset, Err: err}
	}
	res.Offset = offset
	slog.Info("Symbol found", "symbol", sym.Name, "vma", fmt.Sprintf("0x%X", sym.Addr), "offset", fmt.Sprintf("0x%X", offset))

	if cfg.DryRun {
		slog.Info("Dry run, image left unmodified", "path", cfg.BinPath)
		return res, nil
	}

	rec, err := p.image.Patch(cfg.BinPath, offset, value)
	if err != nil {
		return nil, &StageError{Stage: patchStage(err), Err: err}
	}
	res.Patch = rec
	slog.Info("Patched and verified", "path", cfg.BinPath, "offset", fmt.Sprintf("0x%X", offset), "value", value)
	return res, nil
}

func patchStage(err error) Stage {
	var vErr *image.VerificationError
	if errors.As(err, &vErr) {
		return StageVerifyPatch
	}
	var ioErr *image.PatchIOError
	if errors.As(err, &ioErr) && (ioErr.Op == "reopen" || ioErr.Op == "read") {
		return StageVerifyPatch
	}
	return StageWritePatch
}
