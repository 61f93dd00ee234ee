package settings

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/zer0thgear/zer0-novel-utillities/internal/objects"
)

// AddPrompt appends an empty, unselected base prompt.
func (s *Store) AddPrompt() (objects.BasePrompt, error) {
	var added objects.BasePrompt

	err := s.Update(func(st *objects.FormSettings) error {
		added = objects.BasePrompt{
			ID:    uuid.NewString(),
			Label: fmt.Sprintf("Prompt %d", len(st.BasePrompts)+1),
		}
		st.BasePrompts = append(st.BasePrompts, added)

		return nil
	})

	return added, err
}

// RemovePrompt removes a base prompt. In single mode the first remaining prompt
// becomes selected when the removed one was the selection.
func (s *Store) RemovePrompt(id string) error {
	return s.Update(func(st *objects.FormSettings) error {
		idx := promptIndex(st, id)
		if idx < 0 {
			return fmt.Errorf("%w: %s", ErrPromptNotFound, id)
		}

		st.BasePrompts = append(st.BasePrompts[:idx], st.BasePrompts[idx+1:]...)

		if st.PromptMode == objects.PromptModeSingle && len(st.BasePrompts) > 0 &&
			!lo.SomeBy(st.BasePrompts, func(p objects.BasePrompt) bool { return p.Selected }) {
			st.BasePrompts[0].Selected = true
		}

		return nil
	})
}

// SetPromptText replaces the text of a base prompt.
func (s *Store) SetPromptText(id, text string) error {
	return s.updatePrompt(id, func(p *objects.BasePrompt) { p.Text = text })
}

// SetPromptLabel replaces the label of a base prompt.
func (s *Store) SetPromptLabel(id, label string) error {
	return s.updatePrompt(id, func(p *objects.BasePrompt) { p.Label = label })
}

// SelectPrompt makes id the only selected prompt.
func (s *Store) SelectPrompt(id string) error {
	return s.Update(func(st *objects.FormSettings) error {
		if promptIndex(st, id) < 0 {
			return fmt.Errorf("%w: %s", ErrPromptNotFound, id)
		}

		for i := range st.BasePrompts {
			st.BasePrompts[i].Selected = st.BasePrompts[i].ID == id
		}

		return nil
	})
}

// TogglePrompt sets the selection of one prompt. In single mode selecting behaves like SelectPrompt.
func (s *Store) TogglePrompt(id string, selected bool) error {
	if selected && s.Get().PromptMode == objects.PromptModeSingle {
		return s.SelectPrompt(id)
	}

	return s.updatePrompt(id, func(p *objects.BasePrompt) { p.Selected = selected })
}

// SwitchMode changes the prompt mode. Switching to single keeps the first selected prompt,
// or the first prompt when none is selected.
func (s *Store) SwitchMode(mode objects.PromptMode) error {
	if mode != objects.PromptModeSingle && mode != objects.PromptModeBatch {
		return fmt.Errorf("unknown prompt mode %q", mode)
	}

	return s.Update(func(st *objects.FormSettings) error {
		if mode == objects.PromptModeSingle && len(st.BasePrompts) > 0 {
			keep, ok := lo.Find(st.BasePrompts, func(p objects.BasePrompt) bool { return p.Selected })
			if !ok {
				keep = st.BasePrompts[0]
			}

			for i := range st.BasePrompts {
				st.BasePrompts[i].Selected = st.BasePrompts[i].ID == keep.ID
			}
		}

		st.PromptMode = mode

		return nil
	})
}

func (s *Store) updatePrompt(id string, fn func(p *objects.BasePrompt)) error {
	return s.Update(func(st *objects.FormSettings) error {
		idx := promptIndex(st, id)
		if idx < 0 {
			return fmt.Errorf("%w: %s", ErrPromptNotFound, id)
		}

		fn(&st.BasePrompts[idx])

		return nil
	})
}

func promptIndex(st *objects.FormSettings, id string) int {
	_, idx, _ := lo.FindIndexOf(st.BasePrompts, func(p objects.BasePrompt) bool { return p.ID == id })
	return idx
}

// AddCharacter appends a character centered in the frame. It starts enabled unless
// the enabled limit is already reached.
func (s *Store) AddCharacter() (objects.CharacterPromptEntry, error) {
	var added objects.CharacterPromptEntry

	err := s.Update(func(st *objects.FormSettings) error {
		added = objects.CharacterPromptEntry{
			ID:      uuid.NewString(),
			Center:  objects.Center{X: 0.5, Y: 0.5},
			Enabled: enabledCount(st) < objects.MaxEnabledCharacters,
		}
		st.Characters = append(st.Characters, added)

		return nil
	})

	return added, err
}

// SetCharacterEnabled enables or disables a character.
// Enabling past the limit returns ErrCharacterCap and leaves the entry disabled.
func (s *Store) SetCharacterEnabled(id string, enabled bool) error {
	return s.Update(func(st *objects.FormSettings) error {
		idx := characterIndex(st, id)
		if idx < 0 {
			return fmt.Errorf("%w: %s", ErrCharacterNotFound, id)
		}

		c := &st.Characters[idx]
		if enabled && !c.Enabled && enabledCount(st) >= objects.MaxEnabledCharacters {
			return ErrCharacterCap
		}

		c.Enabled = enabled

		return nil
	})
}

// UpdateCharacter edits a character. Center values are clamped to [0, 1] afterwards.
// The enabled flag cannot be changed here, use SetCharacterEnabled.
func (s *Store) UpdateCharacter(id string, fn func(c *objects.CharacterPromptEntry)) error {
	return s.Update(func(st *objects.FormSettings) error {
		idx := characterIndex(st, id)
		if idx < 0 {
			return fmt.Errorf("%w: %s", ErrCharacterNotFound, id)
		}

		c := &st.Characters[idx]
		enabled := c.Enabled
		fn(c)
		c.Enabled = enabled

		return nil
	})
}

// RemoveCharacter removes a character.
func (s *Store) RemoveCharacter(id string) error {
	return s.Update(func(st *objects.FormSettings) error {
		idx := characterIndex(st, id)
		if idx < 0 {
			return fmt.Errorf("%w: %s", ErrCharacterNotFound, id)
		}

		st.Characters = append(st.Characters[:idx], st.Characters[idx+1:]...)

		return nil
	})
}

func characterIndex(st *objects.FormSettings, id string) int {
	_, idx, _ := lo.FindIndexOf(st.Characters, func(c objects.CharacterPromptEntry) bool { return c.ID == id })
	return idx
}

func enabledCount(st *objects.FormSettings) int {
	return lo.CountBy(st.Characters, func(c objects.CharacterPromptEntry) bool { return c.Enabled })
}
