package filesystem

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/charlievieth/fastwalk"
	"github.com/gabriel-vasile/mimetype"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// ErrNotArchive is returned by Extract for payloads it cannot unpack.
var ErrNotArchive = errors.New("not a supported archive")

// maxExtractBytes bounds the total size written by one extraction.
const maxExtractBytes = 1 << 30

// Kind is an archive container format.
type Kind int

const (
	KindNone Kind = iota
	KindZip
	KindTar
	KindTarGzip
	KindTarZstd
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case KindZip:
		return "zip"
	case KindTar:
		return "tar"
	case KindTarGzip:
		return "tar.gz"
	case KindTarZstd:
		return "tar.zst"
	default:
		return "none"
	}
}

// ParseKind maps a format name to a Kind.
func ParseKind(s string) (Kind, bool) {
	switch strings.ToLower(s) {
	case "zip":
		return KindZip, true
	case "tar":
		return KindTar, true
	case "tgz", "tar.gz", "gzip":
		return KindTarGzip, true
	case "tzst", "tar.zst", "zstd":
		return KindTarZstd, true
	}
	return KindNone, false
}

// Detect classifies data by content. Compressed payloads count as archives;
// Extract rejects them if they do not hold a tar stream.
func Detect(data []byte) Kind {
	for mt := mimetype.Detect(data); mt != nil; mt = mt.Parent() {
		switch {
		case mt.Is("application/zip"):
			return KindZip
		case mt.Is("application/x-tar"):
			return KindTar
		case mt.Is("application/gzip"):
			return KindTarGzip
		case mt.Is("application/zstd"):
			return KindTarZstd
		}
	}
	return KindNone
}

// Extract unpacks data into dest and returns the number of files written.
// Entries escaping dest and non-regular files are skipped. A single
// top-level directory is flattened into dest.
func Extract(ctx context.Context, data []byte, kind Kind, dest string) (int, error) {
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return 0, fmt.Errorf("create destination: %w", err)
	}

	var (
		n   int
		err error
	)
	switch kind {
	case KindZip:
		n, err = extractZip(ctx, data, dest)
	case KindTar:
		n, err = extractTar(ctx, bytes.NewReader(data), dest)
	case KindTarGzip:
		var gz *gzip.Reader
		if gz, err = gzip.NewReader(bytes.NewReader(data)); err != nil {
			return 0, fmt.Errorf("gzip: %w", err)
		}
		defer gz.Close()
		n, err = extractTar(ctx, gz, dest)
	case KindTarZstd:
		var zr *zstd.Decoder
		if zr, err = zstd.NewReader(bytes.NewReader(data)); err != nil {
			return 0, fmt.Errorf("zstd: %w", err)
		}
		defer zr.Close()
		n, err = extractTar(ctx, zr, dest)
	default:
		return 0, ErrNotArchive
	}
	if err != nil {
		return n, err
	}
	return n, flattenSingleDir(dest)
}

func extractZip(ctx context.Context, data []byte, dest string) (int, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("zip: %w", err)
	}

	budget := int64(maxExtractBytes)
	count := 0
	for _, file := range reader.File {
		if err := ctx.Err(); err != nil {
			return count, fmt.Errorf("extraction cancelled: %w", err)
		}

		destPath, ok := within(dest, file.Name)
		if !ok {
			continue
		}
		if file.FileInfo().IsDir() {
			if err := os.MkdirAll(destPath, 0o755); err != nil {
				return count, err
			}
			continue
		}
		if !file.Mode().IsRegular() {
			continue
		}

		src, err := file.Open()
		if err != nil {
			return count, fmt.Errorf("zip entry %s: %w", file.Name, err)
		}
		written, err := writeFile(destPath, src, budget)
		src.Close()
		if err != nil {
			return count, err
		}
		budget -= written
		count++
	}
	return count, nil
}

func extractTar(ctx context.Context, r io.Reader, dest string) (int, error) {
	tr := tar.NewReader(r)
	budget := int64(maxExtractBytes)
	count := 0
	for {
		if err := ctx.Err(); err != nil {
			return count, fmt.Errorf("extraction cancelled: %w", err)
		}

		header, err := tr.Next()
		if err == io.EOF {
			return count, nil
		}
		if err != nil {
			if count == 0 {
				return 0, fmt.Errorf("%w: %v", ErrNotArchive, err)
			}
			return count, fmt.Errorf("tar: %w", err)
		}

		destPath, ok := within(dest, header.Name)
		if !ok {
			continue
		}
		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(destPath, 0o755); err != nil {
				return count, err
			}
		case tar.TypeReg:
			written, err := writeFile(destPath, tr, budget)
			if err != nil {
				return count, err
			}
			budget -= written
			count++
		}
	}
}

// within joins name onto dest and reports whether the result stays inside.
func within(dest, name string) (string, bool) {
	p := filepath.Join(dest, name)
	return p, strings.HasPrefix(p, filepath.Clean(dest)+string(os.PathSeparator))
}

func writeFile(path string, r io.Reader, budget int64) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, err
	}
	out, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	defer out.Close()

	n, err := io.CopyN(out, r, budget+1)
	if err != nil && err != io.EOF {
		return n, fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if n > budget {
		return n, fmt.Errorf("archive exceeds %d bytes", int64(maxExtractBytes))
	}
	return n, nil
}

// flattenSingleDir moves the contents of a lone top-level directory up into dir.
func flattenSingleDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	if len(entries) != 1 || !entries[0].IsDir() {
		return nil
	}

	inner := filepath.Join(dir, entries[0].Name())
	children, err := os.ReadDir(inner)
	if err != nil {
		return err
	}
	for _, c := range children {
		if err := os.Rename(filepath.Join(inner, c.Name()), filepath.Join(dir, c.Name())); err != nil {
			return fmt.Errorf("flatten %s: %w", c.Name(), err)
		}
	}
	return os.Remove(inner)
}

// Pack writes the contents of src to w as an archive of the given kind.
func Pack(ctx context.Context, src string, w io.Writer, kind Kind) error {
	files, err := listFiles(ctx, src)
	if err != nil {
		return err
	}

	switch kind {
	case KindZip:
		zw := zip.NewWriter(w)
		for _, rel := range files {
			fw, err := zw.Create(filepath.ToSlash(rel))
			if err != nil {
				return err
			}
			if err := copyFrom(filepath.Join(src, rel), fw); err != nil {
				return err
			}
		}
		return zw.Close()
	case KindTar:
		return packTar(src, files, w)
	case KindTarGzip:
		gz := gzip.NewWriter(w)
		if err := packTar(src, files, gz); err != nil {
			return err
		}
		return gz.Close()
	case KindTarZstd:
		zw, err := zstd.NewWriter(w)
		if err != nil {
			return err
		}
		if err := packTar(src, files, zw); err != nil {
			zw.Close()
			return err
		}
		return zw.Close()
	default:
		return ErrNotArchive
	}
}

func packTar(src string, files []string, w io.Writer) error {
	tw := tar.NewWriter(w)
	for _, rel := range files {
		path := filepath.Join(src, rel)
		info, err := os.Stat(path)
		if err != nil {
			return err
		}
		header, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		header.Name = filepath.ToSlash(rel)
		if err := tw.WriteHeader(header); err != nil {
			return err
		}
		if err := copyFrom(path, tw); err != nil {
			return err
		}
	}
	return tw.Close()
}

// listFiles returns the regular files under root, relative and sorted.
func listFiles(ctx context.Context, root string) ([]string, error) {
	var (
		files []string
		mu    sync.Mutex
	)
	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		mu.Lock()
		files = append(files, rel)
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	sort.Strings(files)
	return files, nil
}

func copyFrom(path string, w io.Writer) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(w, f)
	return err
}
