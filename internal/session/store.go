// Package session holds the state of one working session: the api key, produced images,
// the focused image, the streaming preview and the last error.
package session

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/samber/lo"
	"go.uber.org/multierr"

	"github.com/zer0thgear/zer0-novel-utillities/internal/log"
	"github.com/zer0thgear/zer0-novel-utillities/internal/objects"
)

// ErrImageNotFound is returned for ids that are not in the session.
var ErrImageNotFound = errors.New("image not found")

// BatchProgress reports how far a batch has come.
type BatchProgress struct {
	Current int `json:"current"`
	Total   int `json:"total"`
}

// State is a snapshot of the session.
type State struct {
	APIKey    string
	Images    []objects.GeneratedImage
	FocusedID string
	Loading   bool
	Preview   objects.DisplayRef
	LastError string
	Batch     *BatchProgress
}

// Store owns the session state. All mutations go through update, which also releases
// the display references the mutation dropped.
type Store struct {
	mu        sync.Mutex
	state     State
	resources *Resources
	listeners []func(State)
}

func NewStore(resources *Resources) *Store {
	if resources == nil {
		resources = NewResources()
	}

	return &Store{resources: resources}
}

// Resources returns the registry backing the display references of this session.
func (s *Store) Resources() *Resources {
	return s.resources
}

// Subscribe registers fn to receive a snapshot after every change.
func (s *Store) Subscribe(fn func(State)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.listeners = append(s.listeners, fn)
}

// update applies fn under the lock. fn returns the references it dropped.
func (s *Store) update(fn func(st *State) ([]objects.DisplayRef, error)) error {
	s.mu.Lock()

	released, err := fn(&s.state)
	if err != nil {
		s.mu.Unlock()
		return err
	}

	var releaseErr error
	for _, ref := range released {
		releaseErr = multierr.Append(releaseErr, s.resources.Release(ref))
	}

	snapshot := s.snapshotLocked()
	listeners := slices.Clone(s.listeners)
	s.mu.Unlock()

	if releaseErr != nil {
		log.Warn(context.Background(), "failed to release display references", log.Cause(releaseErr))
	}

	for _, l := range listeners {
		l(snapshot)
	}

	return releaseErr
}

func (s *Store) snapshotLocked() State {
	st := s.state
	st.Images = slices.Clone(s.state.Images)

	if s.state.Batch != nil {
		b := *s.state.Batch
		st.Batch = &b
	}

	return st
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.snapshotLocked()
}

func (s *Store) APIKey() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state.APIKey
}

func (s *Store) SetAPIKey(key string) {
	_ = s.update(func(st *State) ([]objects.DisplayRef, error) {
		st.APIKey = key
		return nil, nil
	})
}

func (s *Store) SetLoading(loading bool) {
	_ = s.update(func(st *State) ([]objects.DisplayRef, error) {
		st.Loading = loading
		return nil, nil
	})
}

// SetBatch sets the batch progress, nil clears it.
func (s *Store) SetBatch(progress *BatchProgress) {
	_ = s.update(func(st *State) ([]objects.DisplayRef, error) {
		st.Batch = progress
		return nil, nil
	})
}

// SetPreview replaces the preview with data, releasing the previous one.
func (s *Store) SetPreview(data []byte) objects.DisplayRef {
	ref := s.resources.Acquire(data)

	_ = s.update(func(st *State) ([]objects.DisplayRef, error) {
		previous := st.Preview
		st.Preview = ref

		return []objects.DisplayRef{previous}, nil
	})

	return ref
}

// ClearPreview releases the preview, if any.
func (s *Store) ClearPreview() {
	_ = s.update(func(st *State) ([]objects.DisplayRef, error) {
		previous := st.Preview
		st.Preview = ""

		return []objects.DisplayRef{previous}, nil
	})
}

// AddImages prepends images, newest first, and focuses the first of them.
// Images without a display reference get one.
func (s *Store) AddImages(images ...objects.GeneratedImage) {
	if len(images) == 0 {
		return
	}

	added := make([]objects.GeneratedImage, len(images))
	for i, img := range images {
		if img.Display == "" {
			img.Display = s.resources.Acquire(img.Data)
		}

		added[i] = img
	}

	_ = s.update(func(st *State) ([]objects.DisplayRef, error) {
		st.Images = append(added, st.Images...)
		st.FocusedID = added[0].ID

		return nil, nil
	})
}

// Load appends previously persisted images, given newest first, behind the current ones.
// Focus only moves when nothing is focused yet.
func (s *Store) Load(images []objects.GeneratedImage) {
	if len(images) == 0 {
		return
	}

	loaded := lo.Map(images, func(img objects.GeneratedImage, _ int) objects.GeneratedImage {
		if img.Display == "" {
			img.Display = s.resources.Acquire(img.Data)
		}

		return img
	})

	_ = s.update(func(st *State) ([]objects.DisplayRef, error) {
		st.Images = append(slices.Clone(st.Images), loaded...)
		if st.FocusedID == "" {
			st.FocusedID = st.Images[0].ID
		}

		return nil, nil
	})
}

// Image returns the session image with id.
func (s *Store) Image(id string) (objects.GeneratedImage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return lo.Find(s.state.Images, func(img objects.GeneratedImage) bool {
		return img.ID == id
	})
}

// RemoveImage drops one image and its display references. Focus moves to the first remaining image.
func (s *Store) RemoveImage(id string) error {
	return s.update(func(st *State) ([]objects.DisplayRef, error) {
		target, idx, ok := lo.FindIndexOf(st.Images, func(img objects.GeneratedImage) bool {
			return img.ID == id
		})
		if !ok {
			return nil, ErrImageNotFound
		}

		st.Images = slices.Delete(slices.Clone(st.Images), idx, idx+1)

		if st.FocusedID == id {
			st.FocusedID = ""
			if len(st.Images) > 0 {
				st.FocusedID = st.Images[0].ID
			}
		}

		return imageRefs(target), nil
	})
}

// ClearImages drops every image and its display references.
func (s *Store) ClearImages() error {
	return s.update(func(st *State) ([]objects.DisplayRef, error) {
		refs := lo.FlatMap(st.Images, func(img objects.GeneratedImage, _ int) []objects.DisplayRef {
			return imageRefs(img)
		})

		st.Images = nil
		st.FocusedID = ""

		return refs, nil
	})
}

// Close releases everything the session still holds.
func (s *Store) Close() error {
	return multierr.Combine(s.ClearImages(), s.update(func(st *State) ([]objects.DisplayRef, error) {
		previous := st.Preview
		st.Preview = ""

		return []objects.DisplayRef{previous}, nil
	}))
}

func (s *Store) SetFocused(id string) error {
	return s.update(func(st *State) ([]objects.DisplayRef, error) {
		if id != "" && !lo.ContainsBy(st.Images, func(img objects.GeneratedImage) bool { return img.ID == id }) {
			return nil, ErrImageNotFound
		}

		st.FocusedID = id

		return nil, nil
	})
}

func (s *Store) SetLastError(msg string) {
	_ = s.update(func(st *State) ([]objects.DisplayRef, error) {
		st.LastError = msg
		return nil, nil
	})
}

func (s *Store) ClearError() {
	s.SetLastError("")
}

func imageRefs(img objects.GeneratedImage) []objects.DisplayRef {
	return lo.Compact([]objects.DisplayRef{img.Display, img.SourceDisplay})
}
