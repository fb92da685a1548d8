package image

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/spf13/afero"
)

type PatchRecord struct {
	Path     string
	Offset   int64
	Value    uint32
	Written  [FieldSize]byte
	ReadBack [FieldSize]byte
}

// Store patches flat images on a filesystem.
type Store struct {
	fs afero.Fs
}

func NewStore(fs afero.Fs) *Store {
	return &Store{fs: fs}
}

func NewOsStore() *Store {
	return NewStore(afero.NewOsFs())
}

// RequireFile checks that path names an existing regular file.
func (s *Store) RequireFile(path string) (os.FileInfo, error) {
	fi, err := s.fs.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &MissingInputFileError{Path: path, Err: fs.ErrNotExist}
		}
		return nil, &PatchIOError{Op: "stat", Path: path, Err: err}
	}
	if !fi.Mode().IsRegular() {
		return nil, &MissingInputFileError{Path: path, Err: errors.New("not a regular file")}
	}
	return fi, nil
}

func (s *Store) Size(path string) (int64, error) {
	fi, err := s.RequireFile(path)
	if err != nil {
		return 0, err
	}
	return fi.Size(), nil
}

// Patch writes value little-endian at offset and confirms it through a
// separate read handle opened after the write handle is flushed and closed.
func (s *Store) Patch(path string, offset int64, value uint32) (*PatchRecord, error) {
	rec := &PatchRecord{Path: path, Offset: offset, Value: value}
	binary.LittleEndian.PutUint32(rec.Written[:], value)

	if err := s.write(path, offset, rec.Written[:]); err != nil {
		return nil, err
	}
	slog.Debug("Wrote size field", "path", path, "offset", offset, "value", value)

	if err := s.readAt(path, offset, rec.ReadBack[:]); err != nil {
		return nil, err
	}
	if !bytes.Equal(rec.Written[:], rec.ReadBack[:]) {
		return nil, &VerificationError{Path: path, Offset: offset, Want: rec.Written, Got: rec.ReadBack}
	}
	return rec, nil
}

func (s *Store) write(path string, offset int64, buf []byte) (err error) {
	f, err := s.fs.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return &PatchIOError{Op: "open", Path: path, Offset: offset, Err: err}
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = &PatchIOError{Op: "close", Path: path, Offset: offset, Err: cerr}
		}
	}()

	// the image may have changed since its size was taken
	fi, err := f.Stat()
	if err != nil {
		return &PatchIOError{Op: "stat", Path: path, Offset: offset, Err: err}
	}
	if offset < 0 || offset > fi.Size()-int64(len(buf)) {
		return &PatchIOError{Op: "write", Path: path, Offset: offset,
			Err: errors.New("offset beyond end of file")}
	}

	n, err := f.WriteAt(buf, offset)
	if err == nil && n < len(buf) {
		err = io.ErrShortWrite
	}
	if err != nil {
		return &PatchIOError{Op: "write", Path: path, Offset: offset, Err: err}
	}
	if err := flush(f, offset); err != nil {
		return &PatchIOError{Op: "sync", Path: path, Offset: offset, Err: err}
	}
	return nil
}

func (s *Store) readAt(path string, offset int64, buf []byte) error {
	f, err := s.fs.Open(path)
	if err != nil {
		return &PatchIOError{Op: "reopen", Path: path, Offset: offset, Err: err}
	}
	defer f.Close()

	n, err := f.ReadAt(buf, offset)
	if n == len(buf) {
		return nil
	}
	if err == nil || err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return &PatchIOError{Op: "read", Path: path, Offset: offset, Err: err}
}
