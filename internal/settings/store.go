// Package settings persists the generation form settings and enforces their invariants.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/afero"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/zer0thgear/zer0-novel-utillities/internal/log"
	"github.com/zer0thgear/zer0-novel-utillities/internal/objects"
)

var (
	ErrPromptNotFound    = errors.New("base prompt not found")
	ErrCharacterNotFound = errors.New("character not found")

	// ErrCharacterCap is returned when enabling a character would exceed the enabled limit.
	ErrCharacterCap = fmt.Errorf("at most %d characters can be enabled at once", objects.MaxEnabledCharacters)
)

// Store holds the settings and writes them back after every change.
type Store struct {
	mu    sync.Mutex
	fs    afero.Fs
	path  string
	state objects.FormSettings
}

// Open loads the settings at path. A missing file starts from the defaults,
// an unreadable record is logged and replaced by the defaults on the next write.
func Open(ctx context.Context, fs afero.Fs, path string) (*Store, error) {
	state, found, err := load(fs, path)
	if err != nil {
		if !errors.Is(err, ErrCorrupt) {
			return nil, err
		}

		log.Warn(ctx, "discarding unreadable settings", log.String("path", path), log.Cause(err))

		state = objects.DefaultFormSettings()
	}

	normalize(&state)

	log.Debug(ctx, "settings loaded", log.String("path", path), log.Bool("found", found))

	return &Store{fs: fs, path: path, state: state}, nil
}

// Path returns where the settings are persisted.
func (s *Store) Path() string {
	return s.path
}

// Get returns a copy of the current settings.
func (s *Store) Get() objects.FormSettings {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state.Clone()
}

// Update applies fn to a copy of the settings, normalizes the result and persists it.
// Nothing changes when fn returns an error.
func (s *Store) Update(fn func(st *objects.FormSettings) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state.Clone()
	if err := fn(&next); err != nil {
		return err
	}

	normalize(&next)

	if err := save(s.fs, s.path, next); err != nil {
		return err
	}

	s.state = next

	return nil
}

// Reset restores the defaults.
func (s *Store) Reset() error {
	return s.Update(func(st *objects.FormSettings) error {
		*st = objects.DefaultFormSettings()
		return nil
	})
}

// Patch sets one field addressed by its JSON path, for example "width" or "characters.0.uc".
func (s *Store) Patch(path string, value any) error {
	return s.patch(path, func(data []byte) ([]byte, error) {
		return sjson.SetBytes(data, path, value)
	})
}

func (s *Store) patch(path string, set func(data []byte) ([]byte, error)) error {
	if !knownPath(path) {
		return fmt.Errorf("unknown settings field %q", path)
	}

	return s.Update(func(st *objects.FormSettings) error {
		data, err := json.Marshal(st)
		if err != nil {
			return err
		}

		patched, err := set(data)
		if err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}

		next := objects.FormSettings{}
		if err := json.Unmarshal(patched, &next); err != nil {
			return fmt.Errorf("invalid value for %s: %w", path, err)
		}

		*st = next

		return nil
	})
}

// PatchText sets a field from command line text: valid JSON is used as is, anything else as a string.
func (s *Store) PatchText(path, text string) error {
	if gjson.Valid(text) {
		return s.patch(path, func(data []byte) ([]byte, error) {
			return sjson.SetRawBytes(data, path, []byte(text))
		})
	}

	return s.Patch(path, text)
}

// normalize enforces the invariants every stored state satisfies.
func normalize(st *objects.FormSettings) {
	if st.PromptMode != objects.PromptModeBatch {
		st.PromptMode = objects.PromptModeSingle

		seen := false
		for i := range st.BasePrompts {
			if st.BasePrompts[i].Selected {
				if seen {
					st.BasePrompts[i].Selected = false
				}

				seen = true
			}
		}
	}

	if st.Characters == nil {
		st.Characters = []objects.CharacterPromptEntry{}
	}

	enabled := 0
	for i := range st.Characters {
		c := &st.Characters[i]
		c.Center.X = clamp01(c.Center.X)
		c.Center.Y = clamp01(c.Center.Y)

		if c.Enabled {
			enabled++
			if enabled > objects.MaxEnabledCharacters {
				c.Enabled = false
			}
		}
	}
}

// knownPath reports whether the first segment of path names a settings field.
func knownPath(path string) bool {
	data, err := json.Marshal(objects.DefaultFormSettings())
	if err != nil {
		return false
	}

	head, _, _ := strings.Cut(path, ".")

	return gjson.GetBytes(data, head).Exists()
}

func clamp01(v float64) float64 {
	return min(1, max(0, v))
}
