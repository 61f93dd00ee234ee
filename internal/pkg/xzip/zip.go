// Package xzip reads image entries out of zip archives and writes archives of named files.
package xzip

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
)

// ErrNoImages is returned when an archive holds no png entry.
var ErrNoImages = errors.New("no images found in archive")

var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// IsZip reports whether data starts with the zip local header magic.
func IsZip(data []byte) bool {
	return len(data) >= 2 && data[0] == 'P' && data[1] == 'K'
}

// IsPNG reports whether data starts with the png signature.
func IsPNG(data []byte) bool {
	return bytes.HasPrefix(data, pngSignature)
}

// Entry is one named file.
type Entry struct {
	Name string
	Data []byte
}

// ExtractPNGs returns every entry whose name ends in .png, sorted by name.
func ExtractPNGs(data []byte) ([]Entry, error) {
	files, err := open(data)
	if err != nil {
		return nil, err
	}

	var entries []Entry

	for _, f := range files {
		if !strings.HasSuffix(f.Name, ".png") {
			continue
		}

		content, err := readFile(f)
		if err != nil {
			return nil, err
		}

		entries = append(entries, Entry{Name: f.Name, Data: content})
	}

	if len(entries) == 0 {
		return nil, ErrNoImages
	}

	return entries, nil
}

// FirstPNG returns the first png-like entry in name order: a .png name in any case,
// or content that starts with the png signature.
func FirstPNG(data []byte) (Entry, error) {
	files, err := open(data)
	if err != nil {
		return Entry{}, err
	}

	for _, f := range files {
		content, err := readFile(f)
		if err != nil {
			return Entry{}, err
		}

		if strings.HasSuffix(strings.ToLower(f.Name), ".png") || IsPNG(content) {
			return Entry{Name: f.Name, Data: content}, nil
		}
	}

	return Entry{}, ErrNoImages
}

// Write writes entries as a zip archive to w, in the given order.
func Write(w io.Writer, entries []Entry) error {
	zw := zip.NewWriter(w)

	for _, e := range entries {
		fw, err := zw.Create(e.Name)
		if err != nil {
			return fmt.Errorf("failed to create zip entry %s: %w", e.Name, err)
		}

		if _, err := fw.Write(e.Data); err != nil {
			return fmt.Errorf("failed to write zip entry %s: %w", e.Name, err)
		}
	}

	return zw.Close()
}

// Bundle returns entries as an in-memory zip archive.
func Bundle(entries []Entry) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, entries); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// open returns the regular files of the archive sorted by name.
func open(data []byte) ([]*zip.File, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open zip archive: %w", err)
	}

	files := make([]*zip.File, 0, len(zr.File))
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}

		files = append(files, f)
	}

	sort.SliceStable(files, func(i, j int) bool {
		return files[i].Name < files[j].Name
	})

	return files, nil
}

func readFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open zip entry %s: %w", f.Name, err)
	}
	defer rc.Close()

	content, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read zip entry %s: %w", f.Name, err)
	}

	return content, nil
}
