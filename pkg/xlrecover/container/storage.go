// Package container reads and writes the zip container of an .xlsx package
// and manages the working directories of a recovery run.
package container

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrDuplicatePart is returned when a package part is written twice to the
// same archive.
var ErrDuplicatePart = errors.New("duplicate package part")

// Storage receives package parts by their slash-separated part name. Extract
// and CopyDir fill the working trees through it; Pack drains a tree into it.
type Storage interface {
	WriteBlob(name string, blob []byte) error
}

// DirStorage lays parts out as files below Dir. It backs the extracted,
// template and output trees of a Workspace.
type DirStorage struct {
	Dir string
}

func NewDirStorage(dir string) *DirStorage {
	return &DirStorage{Dir: dir}
}

// WriteBlob replaces the file for name, creating missing directories.
func (ds *DirStorage) WriteBlob(name string, blob []byte) error {
	fn := filepath.Join(ds.Dir, filepath.FromSlash(partName(name)))
	if err := os.MkdirAll(filepath.Dir(fn), 0755); err != nil {
		return err
	}
	return os.WriteFile(fn, blob, 0644)
}

// ZipStorage writes the recovered package. Entries are deflated and keep the
// order of the WriteBlob calls.
type ZipStorage struct {
	zw      *zip.Writer
	written map[string]bool
}

func NewZipStorage(w io.Writer) *ZipStorage {
	return &ZipStorage{zw: zip.NewWriter(w), written: map[string]bool{}}
}

// WriteBlob adds name as a new entry. Part names are unique within a package,
// so a second write of the same name fails with ErrDuplicatePart.
func (zs *ZipStorage) WriteBlob(name string, blob []byte) error {
	name = partName(name)
	if zs.written[name] {
		return fmt.Errorf("%w: %s", ErrDuplicatePart, name)
	}
	w, err := zs.zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate})
	if err != nil {
		return err
	}
	if _, err := w.Write(blob); err != nil {
		return err
	}
	zs.written[name] = true
	return nil
}

// Close writes the central directory. The archive is unreadable until then.
func (zs *ZipStorage) Close() error {
	return zs.zw.Close()
}

// partName strips the leading slash of an OPC part name.
func partName(name string) string {
	return strings.TrimPrefix(name, "/")
}
