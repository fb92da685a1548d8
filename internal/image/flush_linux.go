package image

import (
	"log/slog"

	"github.com/spf13/afero"
	"golang.org/x/sys/unix"
)

// flush makes the field durable and evicts its page from the cache so the
// read-back is served from the file rather than from the written buffer.
func flush(f afero.File, offset int64) error {
	fd, ok := f.(interface{ Fd() uintptr })
	if !ok {
		return f.Sync()
	}
	if err := unix.Fdatasync(int(fd.Fd())); err != nil {
		return err
	}
	if err := unix.Fadvise(int(fd.Fd()), offset, FieldSize, unix.FADV_DONTNEED); err != nil {
		slog.Debug("Could not drop cached pages before read-back", "path", f.Name(), "error", err)
	}
	return nil
}
