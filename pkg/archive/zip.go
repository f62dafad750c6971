// Package archive unpacks reference stub bundles.
package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const (
	maxFileSize  = 100 * 1024 * 1024  // 100 MB per file
	maxTotalSize = 1024 * 1024 * 1024 // 1 GB total extracted
	maxFileCount = 50000              // maximum number of files in archive
)

// ExtractZip unpacks an in-memory zip archive to a temp directory named
// after prefix. The returned cleanup func removes the directory.
//
// Entries escaping the directory are rejected, symlinks are skipped and
// size limits are enforced.
func ExtractZip(data []byte, prefix string) (dir string, cleanup func(), err error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", nil, fmt.Errorf("failed to read zip archive: %w", err)
	}
	return extract(reader, prefix)
}

// ExtractZipFile unpacks the zip archive at path, see ExtractZip.
func ExtractZipFile(path string) (dir string, cleanup func(), err error) {
	rc, err := zip.OpenReader(path)
	if err != nil {
		return "", nil, fmt.Errorf("failed to open zip archive %s: %w", path, err)
	}
	defer rc.Close()

	prefix := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return extract(&rc.Reader, prefix)
}

func extract(reader *zip.Reader, prefix string) (string, func(), error) {
	if len(reader.File) > maxFileCount {
		return "", nil, fmt.Errorf("zip archive contains %d files, exceeds maximum of %d", len(reader.File), maxFileCount)
	}

	tmpDir, err := os.MkdirTemp("", "stubcheck-"+sanitize(prefix)+"-*")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	cleanup := func() { os.RemoveAll(tmpDir) }

	base, err := filepath.Abs(tmpDir)
	if err != nil {
		cleanup()
		return "", nil, fmt.Errorf("failed to resolve base path: %w", err)
	}

	var total int64
	for _, file := range reader.File {
		n, err := extractEntry(base, file)
		if err != nil {
			cleanup()
			return "", nil, err
		}
		total += n
		if total > maxTotalSize {
			cleanup()
			return "", nil, fmt.Errorf("total extracted size exceeds maximum of %d bytes", maxTotalSize)
		}
	}

	return tmpDir, cleanup, nil
}

// extractEntry writes one archive entry below base and returns the
// number of bytes written.
func extractEntry(base string, file *zip.File) (int64, error) {
	if file.Mode()&os.ModeSymlink != 0 {
		return 0, nil
	}

	target, err := filepath.Abs(filepath.Join(base, file.Name))
	if err != nil {
		return 0, fmt.Errorf("failed to resolve path %s: %w", file.Name, err)
	}
	if target != base && !strings.HasPrefix(target, base+string(os.PathSeparator)) {
		return 0, fmt.Errorf("zip entry attempts path traversal: %s", file.Name)
	}

	if file.FileInfo().IsDir() {
		if err := os.MkdirAll(target, 0o755); err != nil {
			return 0, fmt.Errorf("failed to create directory %s: %w", file.Name, err)
		}
		return 0, nil
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return 0, fmt.Errorf("failed to create parent directory for %s: %w", file.Name, err)
	}

	rc, err := file.Open()
	if err != nil {
		return 0, fmt.Errorf("failed to open zip entry %s: %w", file.Name, err)
	}
	defer rc.Close()

	out, err := os.Create(target)
	if err != nil {
		return 0, fmt.Errorf("failed to create file %s: %w", file.Name, err)
	}
	defer out.Close()

	n, err := io.Copy(out, io.LimitReader(rc, maxFileSize+1))
	if err != nil {
		return 0, fmt.Errorf("failed to extract %s: %w", file.Name, err)
	}
	if n > maxFileSize {
		return 0, fmt.Errorf("file %s exceeds maximum size of %d bytes", file.Name, maxFileSize)
	}
	return n, nil
}

// sanitize keeps temp directory names free of separators and patterns.
func sanitize(prefix string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', '*':
			return '_'
		}
		return r
	}, prefix)
}
