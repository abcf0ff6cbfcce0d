package util

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/afero"
)

// ErrArchiveOrSave wraps every failure to build or write an archive.
var ErrArchiveOrSave = errors.New("archive or save failed")

// archiveModTime is stamped on every entry so equal inputs give equal bytes.
var archiveModTime = time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC)

// BuildArchive zips files in memory, one deflated entry per path. Paths and
// contents are written verbatim, in sorted order.
func BuildArchive(files map[string]string) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	names := lo.Keys(files)
	slices.Sort(names)
	for _, name := range names {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     name,
			Method:   zip.Deflate,
			Modified: archiveModTime,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: add %s: %v", ErrArchiveOrSave, name, err)
		}
		if _, err := io.WriteString(w, files[name]); err != nil {
			return nil, fmt.Errorf("%w: write %s: %v", ErrArchiveOrSave, name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArchiveOrSave, err)
	}
	return buf.Bytes(), nil
}

// ExtractArchive reads every file entry of a zip into a map. Directory
// entries are skipped.
func ExtractArchive(blob []byte) (map[string]string, error) {
	zr, err := zip.NewReader(bytes.NewReader(blob), int64(len(blob)))
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	files := make(map[string]string, len(zr.File))
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f.Name, err)
		}
		files[f.Name] = string(data)
	}
	return files, nil
}

// ArchiveName is the file name for an app's archive saved at now.
func ArchiveName(appID string, now time.Time) string {
	return fmt.Sprintf("app-%s-%d.zip", appID, now.UnixMilli())
}

// SaveArchive writes blob as ArchiveName(appID, now) inside dir and returns
// the written path. The directory is created if needed.
func SaveArchive(fs afero.Fs, dir string, blob []byte, appID string, now time.Time) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: create %s: %v", ErrArchiveOrSave, dir, err)
	}
	path := filepath.Join(dir, ArchiveName(appID, now))
	if err := afero.WriteFile(fs, path, blob, 0o644); err != nil {
		return "", fmt.Errorf("%w: write %s: %v", ErrArchiveOrSave, path, err)
	}
	return path, nil
}
