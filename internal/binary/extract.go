package binary

import (
	"archive/tar"
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"

	"github.com/ZebulonRouseFrantzich/clang-toolbox/internal/fault"
)

// Compression identifies the compression of an archive stream.
type Compression string

const (
	CompressionNone Compression = "none"
	CompressionXZ   Compression = "xz"
	CompressionGzip Compression = "gzip"
	CompressionZstd Compression = "zstd"
	CompressionLZ4  Compression = "lz4"
)

var magics = []struct {
	magic       []byte
	compression Compression
}{
	{[]byte{0xFD, '7', 'z', 'X', 'Z', 0x00}, CompressionXZ},
	{[]byte{0x1F, 0x8B}, CompressionGzip},
	{[]byte{0x28, 0xB5, 0x2F, 0xFD}, CompressionZstd},
	{[]byte{0x04, 0x22, 0x4D, 0x18}, CompressionLZ4},
}

// DetectCompression identifies the compression from the leading bytes of
// a stream.
func DetectCompression(head []byte) Compression {
	for _, m := range magics {
		if bytes.HasPrefix(head, m.magic) {
			return m.compression
		}
	}
	return CompressionNone
}

// Extractor handles archive extraction
type Extractor struct {
	logger *slog.Logger
}

// NewExtractor creates a new extractor
func NewExtractor(logger *slog.Logger) *Extractor {
	return &Extractor{logger: orDiscard(logger)}
}

// Extract reads a tar stream from r and writes the entries listed in paths
// into destDir, flattened to their base names. Entries match either by
// their full name or with the archive's top level directory removed.
// Everything else is skipped.
//
// Nothing is written to destDir unless every path was found; the returned
// files are in the order of paths.
func (e *Extractor) Extract(r io.Reader, paths []string, destDir string) ([]string, error) {
	want := make(map[string]string, len(paths))
	owner := make(map[string]string, len(paths))
	for _, p := range paths {
		p = path.Clean(p)
		base := path.Base(p)
		if other, ok := owner[base]; ok && other != p {
			return nil, fault.Configuration.New("%s and %s would both be written to %s", other, p, base)
		}
		owner[base] = p
		want[p] = base
	}

	stream, closeStream, compression, err := decompress(r)
	if err != nil {
		return nil, err
	}
	defer closeStream()
	e.logger.Debug("Reading archive", "compression", compression)

	temps := make(map[string]string, len(want))
	success := false
	defer func() {
		if success {
			return
		}
		for _, tmp := range temps {
			os.Remove(tmp)
		}
	}()

	var skipped int
	var skippedBytes int64
	tarReader := tar.NewReader(stream)
	for len(temps) < len(want) {
		header, err := tarReader.Next()
		if err == io.EOF {
			break // End of archive
		}
		if err != nil {
			return nil, fault.Archive.Wrap(fmt.Errorf("read tar header: %w", err))
		}

		name, err := entryName(header.Name)
		if err != nil {
			return nil, err
		}

		match, ok := lookup(want, name)
		if !ok {
			skipped++
			skippedBytes += header.Size
			e.logger.Debug("Skipping entry", "name", header.Name)
			continue
		}
		if _, done := temps[match]; done {
			continue
		}

		if !header.FileInfo().Mode().IsRegular() {
			return nil, fault.Archive.New("%s is not a regular file", header.Name)
		}

		tmp, err := writeTemp(destDir, tarReader, header.FileInfo().Mode().Perm())
		if tmp != "" {
			temps[match] = tmp
		}
		if err != nil {
			return nil, fmt.Errorf("extract %s: %w", header.Name, err)
		}
		e.logger.Debug("Extracted entry", "name", header.Name, "size", humanize.IBytes(uint64(header.Size)))
	}

	if len(temps) < len(want) {
		var missing []string
		for _, p := range paths {
			if _, ok := temps[path.Clean(p)]; !ok {
				missing = append(missing, p)
			}
		}
		return nil, fault.Archive.New("not found in archive: %s", strings.Join(missing, ", "))
	}

	files := make([]string, 0, len(paths))
	for _, p := range paths {
		p = path.Clean(p)
		target := filepath.Join(destDir, want[p])
		if err := os.Rename(temps[p], target); err != nil {
			return nil, fmt.Errorf("rename temp file: %w", err)
		}
		delete(temps, p)
		files = append(files, target)
	}
	success = true

	e.logger.Debug("Archive read", "extracted", len(files), "skipped", skipped, "skipped_size", humanize.IBytes(uint64(skippedBytes)))
	return files, nil
}

// entryName cleans an entry name and rejects names escaping the archive.
func entryName(raw string) (string, error) {
	name := path.Clean(strings.TrimPrefix(raw, "./"))

	// Security check: prevent path traversal
	if path.IsAbs(name) || name == ".." || strings.HasPrefix(name, "../") {
		return "", fault.Archive.New("illegal file path: %s", raw)
	}
	return name, nil
}

// lookup matches an entry against the wanted paths, first by full name,
// then with its top level directory removed.
func lookup(want map[string]string, name string) (string, bool) {
	if _, ok := want[name]; ok {
		return name, true
	}
	if i := strings.IndexByte(name, '/'); i >= 0 {
		if _, ok := want[name[i+1:]]; ok {
			return name[i+1:], true
		}
	}
	return "", false
}

// writeTemp copies r into a new temporary file in dir and returns its
// name, which is set even when copying fails.
func writeTemp(dir string, r io.Reader, perm os.FileMode) (string, error) {
	tmpFile, err := os.CreateTemp(dir, ".clang-toolbox-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	if _, err := io.Copy(tmpFile, r); err != nil {
		tmpFile.Close()
		return tmpPath, fault.Archive.Wrap(fmt.Errorf("write temp file: %w", err))
	}

	// Close temp file before chmod and rename
	if err := tmpFile.Close(); err != nil {
		return tmpPath, fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Chmod(tmpPath, perm); err != nil {
		return tmpPath, fmt.Errorf("chmod temp file: %w", err)
	}
	return tmpPath, nil
}

// decompress wraps r in the decompressor matching its magic bytes.
func decompress(r io.Reader) (io.Reader, func(), Compression, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(6)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, nil, "", fault.Archive.Wrap(fmt.Errorf("read archive: %w", err))
	}
	if len(head) == 0 {
		return nil, nil, "", fault.Archive.New("archive is empty")
	}

	compression := DetectCompression(head)
	noop := func() {}

	switch compression {
	case CompressionXZ:
		xzReader, err := xz.NewReader(br)
		if err != nil {
			return nil, nil, compression, fault.Archive.Wrap(fmt.Errorf("create xz reader: %w", err))
		}
		return xzReader, noop, compression, nil

	case CompressionGzip:
		gzipReader, err := gzip.NewReader(br)
		if err != nil {
			return nil, nil, compression, fault.Archive.Wrap(fmt.Errorf("create gzip reader: %w", err))
		}
		return gzipReader, func() { gzipReader.Close() }, compression, nil

	case CompressionZstd:
		zstdReader, err := zstd.NewReader(br)
		if err != nil {
			return nil, nil, compression, fault.Archive.Wrap(fmt.Errorf("create zstd reader: %w", err))
		}
		return zstdReader, zstdReader.Close, compression, nil

	case CompressionLZ4:
		return lz4.NewReader(br), noop, compression, nil

	default:
		return br, noop, compression, nil
	}
}

// SetExecutable adds the owner execute bit to a file, keeping every other
// permission bit.
func SetExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("set executable: %w", err)
	}
	if err := os.Chmod(path, info.Mode().Perm()|0o100); err != nil {
		return fmt.Errorf("set executable: %w", err)
	}
	return nil
}
