package session

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/zer0thgear/zer0-novel-utillities/internal/objects"
)

// ErrUnknownRef is returned when releasing a reference that is not live.
var ErrUnknownRef = errors.New("unknown display reference")

// Resources tracks display references handed out for image bytes.
// Every Acquire must be matched by exactly one Release.
type Resources struct {
	mu   sync.Mutex
	live map[objects.DisplayRef][]byte
}

func NewResources() *Resources {
	return &Resources{
		live: make(map[objects.DisplayRef][]byte),
	}
}

// Acquire registers data and returns a new reference to it.
func (r *Resources) Acquire(data []byte) objects.DisplayRef {
	ref := objects.DisplayRef("disp-" + uuid.NewString())

	r.mu.Lock()
	defer r.mu.Unlock()

	r.live[ref] = data

	return ref
}

// Release frees ref. Releasing the zero reference is a no-op.
func (r *Resources) Release(ref objects.DisplayRef) error {
	if ref == "" {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.live[ref]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownRef, ref)
	}

	delete(r.live, ref)

	return nil
}

// Bytes returns the data behind a live reference.
func (r *Resources) Bytes(ref objects.DisplayRef) ([]byte, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, ok := r.live[ref]

	return data, ok
}

// Live returns the number of unreleased references.
func (r *Resources) Live() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.live)
}
