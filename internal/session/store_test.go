package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zer0thgear/zer0-novel-utillities/internal/objects"
)

func img(id string) objects.GeneratedImage {
	return objects.GeneratedImage{ID: id, Data: []byte(id)}
}

func TestResources(t *testing.T) {
	r := NewResources()

	ref := r.Acquire([]byte("abc"))
	assert.Equal(t, 1, r.Live())

	data, ok := r.Bytes(ref)
	require.True(t, ok)
	assert.Equal(t, []byte("abc"), data)

	require.NoError(t, r.Release(ref))
	require.ErrorIs(t, r.Release(ref), ErrUnknownRef)
	require.NoError(t, r.Release(""))
	assert.Equal(t, 0, r.Live())
}

func TestStore_AddImagesPrependsAndFocuses(t *testing.T) {
	s := NewStore(nil)

	s.AddImages(img("a"))
	s.AddImages(img("b"), img("c"))

	st := s.Snapshot()
	ids := []string{st.Images[0].ID, st.Images[1].ID, st.Images[2].ID}
	assert.Equal(t, []string{"b", "c", "a"}, ids)
	assert.Equal(t, "b", st.FocusedID)
	assert.Equal(t, 3, s.Resources().Live())

	for _, image := range st.Images {
		data, ok := s.Resources().Bytes(image.Display)
		require.True(t, ok)
		assert.Equal(t, []byte(image.ID), data)
	}
}

func TestStore_RemoveImage(t *testing.T) {
	s := NewStore(nil)
	s.AddImages(img("a"))
	s.AddImages(img("b"))

	enhanced := img("c")
	enhanced.SourceImageID = "b"
	enhanced.SourceDisplay = s.Resources().Acquire([]byte("b"))
	s.AddImages(enhanced)

	assert.Equal(t, 4, s.Resources().Live())

	require.NoError(t, s.RemoveImage("c"))

	st := s.Snapshot()
	assert.Equal(t, "b", st.FocusedID, "focus moves to the first remaining image")
	assert.Equal(t, 2, s.Resources().Live())

	require.NoError(t, s.RemoveImage("a"))
	assert.Equal(t, "b", s.Snapshot().FocusedID)

	require.ErrorIs(t, s.RemoveImage("missing"), ErrImageNotFound)
}

func TestStore_ClearImagesDrainsResources(t *testing.T) {
	s := NewStore(nil)
	s.AddImages(img("a"), img("b"))
	s.SetPreview([]byte("frame"))

	require.NoError(t, s.ClearImages())
	assert.Empty(t, s.Snapshot().Images)
	assert.Empty(t, s.Snapshot().FocusedID)
	assert.Equal(t, 1, s.Resources().Live())

	require.NoError(t, s.Close())
	assert.Equal(t, 0, s.Resources().Live())
}

func TestStore_PreviewReplacementReleases(t *testing.T) {
	s := NewStore(nil)

	first := s.SetPreview([]byte("1"))
	second := s.SetPreview([]byte("2"))

	assert.NotEqual(t, first, second)
	assert.Equal(t, 1, s.Resources().Live())

	_, ok := s.Resources().Bytes(first)
	assert.False(t, ok)

	s.ClearPreview()
	assert.Equal(t, 0, s.Resources().Live())
	assert.Empty(t, s.Snapshot().Preview)
}

func TestStore_Load(t *testing.T) {
	s := NewStore(nil)
	s.AddImages(img("new"))
	s.Load([]objects.GeneratedImage{img("old1"), img("old2")})

	st := s.Snapshot()
	require.Len(t, st.Images, 3)
	assert.Equal(t, "new", st.Images[0].ID)
	assert.Equal(t, "old2", st.Images[2].ID)
	assert.Equal(t, "new", st.FocusedID)
}

func TestStore_Subscribe(t *testing.T) {
	s := NewStore(nil)

	var seen []State
	s.Subscribe(func(st State) { seen = append(seen, st) })

	s.SetAPIKey("pst-1")
	s.SetLastError("boom")
	s.ClearError()

	require.Len(t, seen, 3)
	assert.Equal(t, "pst-1", seen[0].APIKey)
	assert.Equal(t, "boom", seen[1].LastError)
	assert.Empty(t, seen[2].LastError)
	assert.Equal(t, "pst-1", s.APIKey())
}

func TestStore_SetFocused(t *testing.T) {
	s := NewStore(nil)
	s.AddImages(img("a"), img("b"))

	require.NoError(t, s.SetFocused("b"))
	assert.Equal(t, "b", s.Snapshot().FocusedID)

	require.ErrorIs(t, s.SetFocused("zzz"), ErrImageNotFound)
	require.NoError(t, s.SetFocused(""))
}
