package container

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
)

// ContentTypesPart is the part every package must contain at its root.
const ContentTypesPart = "[Content_Types].xml"

// ErrUnsafePath indicates an archive entry whose name escapes the
// extraction directory.
var ErrUnsafePath = errors.New("archive entry escapes target directory")

// Extract unpacks the zip archive at zipPath into dir.
func Extract(zipPath, dir string) error {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return fmt.Errorf("open package: %w", err)
	}
	defer r.Close()

	return ExtractReader(&r.Reader, dir)
}

// ExtractReader unpacks every entry of r into dir. Entry names that would
// resolve outside dir are rejected with ErrUnsafePath.
func ExtractReader(r *zip.Reader, dir string) error {
	ds := NewDirStorage(dir)
	for _, f := range r.File {
		name, err := safeEntryName(f.Name)
		if err != nil {
			return err
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(filepath.Join(dir, filepath.FromSlash(name)), 0755); err != nil {
				return err
			}
			continue
		}
		blob, err := readZipEntry(f)
		if err != nil {
			return fmt.Errorf("read %s: %w", f.Name, err)
		}
		if err := ds.WriteBlob(name, blob); err != nil {
			return err
		}
	}
	return nil
}

func safeEntryName(name string) (string, error) {
	slashed := strings.ReplaceAll(name, `\`, "/")
	if strings.HasPrefix(slashed, "/") || filepath.VolumeName(name) != "" {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, name)
	}
	for _, elem := range strings.Split(slashed, "/") {
		if elem == ".." {
			return "", fmt.Errorf("%w: %q", ErrUnsafePath, name)
		}
	}
	clean := path.Clean(slashed)
	if clean == "." {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, name)
	}
	return clean, nil
}

func readZipEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// Pack writes every regular file below dir to s, using slash-separated
// paths relative to dir. [Content_Types].xml is written first and the rest
// in lexical order, so identical trees produce identical archives.
func Pack(dir string, s Storage) error {
	var files []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			rel, err := filepath.Rel(dir, p)
			if err != nil {
				return err
			}
			files = append(files, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		return err
	}

	slices.SortFunc(files, func(a, b string) int {
		switch {
		case a == ContentTypesPart:
			return -1
		case b == ContentTypesPart:
			return 1
		}
		return strings.Compare(a, b)
	})

	for _, name := range files {
		blob, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(name)))
		if err != nil {
			return err
		}
		if err := s.WriteBlob(name, blob); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	return nil
}

// PackFile writes the tree below dir to a new zip archive at out. A partly
// written archive is removed when packing fails.
func PackFile(dir, out string) (err error) {
	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return err
	}
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(out)
		}
	}()

	zs := NewZipStorage(f)
	if err := Pack(dir, zs); err != nil {
		zs.Close()
		return err
	}
	return zs.Close()
}

// CopyDir copies the tree below src to dst. Paths (slash-separated,
// relative to src) for which skip returns true are left out, together with
// everything below them when they are directories.
func CopyDir(src, dst string, skip func(rel string) bool) error {
	ds := NewDirStorage(dst)
	return filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return os.MkdirAll(dst, 0755)
		}
		if skip != nil && skip(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return os.MkdirAll(filepath.Join(dst, filepath.FromSlash(rel)), 0755)
		}
		if !d.Type().IsRegular() {
			return nil
		}
		blob, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		return ds.WriteBlob(rel, blob)
	})
}
