package settings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zer0thgear/zer0-novel-utillities/internal/objects"
)

func selectedIDs(st objects.FormSettings) []string {
	var ids []string

	for _, p := range st.BasePrompts {
		if p.Selected {
			ids = append(ids, p.ID)
		}
	}

	return ids
}

func TestPromptEditor_SingleMode(t *testing.T) {
	s, _ := newStore(t)

	second, err := s.AddPrompt()
	require.NoError(t, err)
	assert.Equal(t, "Prompt 2", second.Label)
	assert.False(t, second.Selected)

	third, err := s.AddPrompt()
	require.NoError(t, err)

	require.NoError(t, s.SelectPrompt(second.ID))
	assert.Equal(t, []string{second.ID}, selectedIDs(s.Get()))

	require.NoError(t, s.TogglePrompt(third.ID, true))
	assert.Equal(t, []string{third.ID}, selectedIDs(s.Get()))

	// Removing the selection promotes the first remaining prompt.
	require.NoError(t, s.RemovePrompt(third.ID))
	assert.Equal(t, []string{"p-default"}, selectedIDs(s.Get()))

	require.ErrorIs(t, s.RemovePrompt("missing"), ErrPromptNotFound)
	require.ErrorIs(t, s.SelectPrompt("missing"), ErrPromptNotFound)
}

func TestPromptEditor_BatchMode(t *testing.T) {
	s, _ := newStore(t)

	second, err := s.AddPrompt()
	require.NoError(t, err)
	third, err := s.AddPrompt()
	require.NoError(t, err)

	require.NoError(t, s.SwitchMode(objects.PromptModeBatch))
	require.NoError(t, s.TogglePrompt(second.ID, true))
	require.NoError(t, s.TogglePrompt(third.ID, true))
	assert.Equal(t, []string{"p-default", second.ID, third.ID}, selectedIDs(s.Get()))

	require.NoError(t, s.TogglePrompt("p-default", false))

	// Back to single keeps the first selected prompt.
	require.NoError(t, s.SwitchMode(objects.PromptModeSingle))
	assert.Equal(t, []string{second.ID}, selectedIDs(s.Get()))

	require.NoError(t, s.SwitchMode(objects.PromptModeBatch))
	require.NoError(t, s.TogglePrompt(second.ID, false))
	assert.Empty(t, selectedIDs(s.Get()))

	// With nothing selected the first prompt is kept.
	require.NoError(t, s.SwitchMode(objects.PromptModeSingle))
	assert.Equal(t, []string{"p-default"}, selectedIDs(s.Get()))

	require.Error(t, s.SwitchMode("parallel"))
}

func TestPromptEditor_TextAndLabel(t *testing.T) {
	s, _ := newStore(t)

	require.NoError(t, s.SetPromptText("p-default", "1girl"))
	require.NoError(t, s.SetPromptLabel("p-default", "Main"))

	p, ok := s.Get().SelectedPrompt()
	require.True(t, ok)
	assert.Equal(t, "1girl", p.Text)
	assert.Equal(t, "Main", p.Label)
}

func TestCharacterEditor_Cap(t *testing.T) {
	s, _ := newStore(t)

	for range objects.MaxEnabledCharacters {
		c, err := s.AddCharacter()
		require.NoError(t, err)
		assert.True(t, c.Enabled)
		assert.Equal(t, objects.Center{X: 0.5, Y: 0.5}, c.Center)
	}

	seventh, err := s.AddCharacter()
	require.NoError(t, err)
	assert.False(t, seventh.Enabled, "added past the limit starts disabled")
	assert.Len(t, s.Get().Characters, 7)

	require.ErrorIs(t, s.SetCharacterEnabled(seventh.ID, true), ErrCharacterCap)

	got := s.Get()
	assert.Len(t, got.Characters, 7)
	assert.False(t, got.Characters[6].Enabled)
	assert.Len(t, got.EnabledCharacters(), objects.MaxEnabledCharacters)

	// Freeing a slot allows it.
	require.NoError(t, s.SetCharacterEnabled(got.Characters[0].ID, false))
	require.NoError(t, s.SetCharacterEnabled(seventh.ID, true))
	assert.True(t, s.Get().Characters[6].Enabled)
}

func TestCharacterEditor_UpdateClampsCenter(t *testing.T) {
	s, _ := newStore(t)

	c, err := s.AddCharacter()
	require.NoError(t, err)

	require.NoError(t, s.UpdateCharacter(c.ID, func(e *objects.CharacterPromptEntry) {
		e.Prompt = "boy"
		e.UC = "hat"
		e.Center = objects.Center{X: -0.5, Y: 1.7}
		e.Enabled = false
	}))

	got := s.Get().Characters[0]
	assert.Equal(t, "boy", got.Prompt)
	assert.Equal(t, objects.Center{X: 0, Y: 1}, got.Center)
	assert.True(t, got.Enabled, "enabled is only changed through SetCharacterEnabled")

	require.NoError(t, s.RemoveCharacter(c.ID))
	assert.Empty(t, s.Get().Characters)
	require.ErrorIs(t, s.RemoveCharacter(c.ID), ErrCharacterNotFound)
}

func TestNormalize_CapsLoadedCharacters(t *testing.T) {
	st := objects.DefaultFormSettings()
	for range 8 {
		st.Characters = append(st.Characters, objects.CharacterPromptEntry{Enabled: true})
	}

	normalize(&st)

	assert.Len(t, st.Characters, 8)
	assert.Len(t, st.EnabledCharacters(), objects.MaxEnabledCharacters)
	assert.False(t, st.Characters[7].Enabled)
}
