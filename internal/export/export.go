// Package export writes generated images and session bundles to a filesystem.
package export

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/afero"

	"github.com/zer0thgear/zer0-novel-utillities/internal/log"
	"github.com/zer0thgear/zer0-novel-utillities/internal/objects"
	"github.com/zer0thgear/zer0-novel-utillities/internal/pkg/xtime"
	"github.com/zer0thgear/zer0-novel-utillities/internal/pkg/xzip"
)

// ErrEmptyImage is returned for an image without data.
var ErrEmptyImage = errors.New("image has no data")

// ImageFileName returns novelai_<YYYY-MM-DDTHH-MM-SS>_<seed>.png, stamped with the image's UTC timestamp.
func ImageFileName(img objects.GeneratedImage) string {
	stamp := xtime.FileStamp(xtime.FromUnixMilli(img.Timestamp))
	return "novelai_" + stamp + "_" + strconv.FormatInt(img.Seed, 10) + ".png"
}

// SessionBundleName returns the name of a session archive created at t.
func SessionBundleName(t time.Time) string {
	return "novelai_session_" + xtime.FileStamp(t) + ".zip"
}

// WriteImage writes img into dir and returns the written path.
func WriteImage(fs afero.Fs, dir string, img objects.GeneratedImage) (string, error) {
	if len(img.Data) == 0 {
		return "", fmt.Errorf("%w: %s", ErrEmptyImage, img.ID)
	}

	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	path := filepath.Join(dir, ImageFileName(img))
	if err := afero.WriteFile(fs, path, img.Data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write image %s: %w", img.ID, err)
	}

	return path, nil
}

// Entries names every image for a bundle. Images that share a name keep the
// position of the first one and the data of the last one.
func Entries(images []objects.GeneratedImage) []xzip.Entry {
	entries := make([]xzip.Entry, 0, len(images))
	index := make(map[string]int, len(images))

	for _, img := range images {
		name := ImageFileName(img)

		if i, ok := index[name]; ok {
			entries[i].Data = img.Data
			continue
		}

		index[name] = len(entries)
		entries = append(entries, xzip.Entry{Name: name, Data: img.Data})
	}

	return entries
}

// WriteSession bundles images into a zip archive in dir.
// Nothing is written for an empty session and the returned path is empty.
func WriteSession(ctx context.Context, fs afero.Fs, dir string, images []objects.GeneratedImage, clock xtime.Clock) (string, error) {
	if len(images) == 0 {
		log.Debug(ctx, "empty session, nothing to export")
		return "", nil
	}

	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	now := xtime.FromUnixMilli(clock.UnixMilli())
	path := filepath.Join(dir, SessionBundleName(now))

	f, err := fs.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create session bundle: %w", err)
	}

	if err := xzip.Write(f, Entries(images)); err != nil {
		_ = f.Close()
		return "", err
	}

	if err := f.Close(); err != nil {
		return "", err
	}

	log.Info(ctx, "exported session", log.String("path", path), log.Int("images", len(images)))

	return path, nil
}
