package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cast"
	"github.com/tidwall/gjson"

	"github.com/zer0thgear/zer0-novel-utillities/internal/objects"
)

// Version is the current version of the persisted record.
const Version = 2

// ErrCorrupt is returned when a persisted record cannot be decoded.
var ErrCorrupt = errors.New("corrupt settings record")

// envelope is the persisted record.
type envelope struct {
	State   json.RawMessage `json:"state"`
	Version int             `json:"version"`
}

// Decode reads a persisted record, migrating older versions.
// Fields missing from the record keep their defaults.
func Decode(data []byte) (objects.FormSettings, error) {
	if !gjson.ValidBytes(data) {
		return objects.FormSettings{}, errors.New("settings record is not valid JSON")
	}

	version := int(gjson.GetBytes(data, "version").Int())
	state := gjson.GetBytes(data, "state")

	if !state.IsObject() {
		return objects.FormSettings{}, errors.New("settings record has no state object")
	}

	raw := []byte(state.Raw)

	if version < Version {
		migrated, err := migrateV1(raw)
		if err != nil {
			return objects.FormSettings{}, fmt.Errorf("failed to migrate settings from version %d: %w", version, err)
		}

		raw = migrated
	}

	out := objects.DefaultFormSettings()
	if err := json.Unmarshal(raw, &out); err != nil {
		return objects.FormSettings{}, fmt.Errorf("failed to decode settings: %w", err)
	}

	if out.Characters == nil {
		out.Characters = []objects.CharacterPromptEntry{}
	}

	return out, nil
}

// Encode returns the persisted record for s.
func Encode(s objects.FormSettings) ([]byte, error) {
	state, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}

	return json.MarshalIndent(envelope{State: state, Version: Version}, "", "  ")
}

// migrateV1 turns the single prompt string of version 1 into a base prompt list.
// Version 1 records were written by hand as often as by the client, so scalar fields are coerced.
func migrateV1(raw []byte) ([]byte, error) {
	var state map[string]any
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, err
	}

	text, _ := state["prompt"].(string)
	delete(state, "prompt")

	state["basePrompts"] = []objects.BasePrompt{{ID: "migrated", Label: "Prompt 1", Text: text, Selected: true}}
	state["promptMode"] = objects.PromptModeSingle
	state["furMode"] = false
	state["nsfwMode"] = false
	state["qualityTags"] = false
	state["baseNegativeCaptions"] = false

	for _, key := range []string{"width", "height", "steps"} {
		if v, ok := state[key]; ok {
			state[key] = cast.ToInt(v)
		}
	}

	for _, key := range []string{"scale", "cfgRescale"} {
		if v, ok := state[key]; ok {
			state[key] = cast.ToFloat64(v)
		}
	}

	if v, ok := state["seed"]; ok {
		state["seed"] = cast.ToInt64(v)
	}

	for _, key := range []string{"smea", "smeaDyn", "qualityToggle", "useCoords", "streamingMode"} {
		if v, ok := state[key]; ok {
			state[key] = cast.ToBool(v)
		}
	}

	return json.Marshal(state)
}

// load reads the record at path. A missing file yields the defaults.
func load(fs afero.Fs, path string) (objects.FormSettings, bool, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return objects.DefaultFormSettings(), false, nil
		}

		return objects.FormSettings{}, false, fmt.Errorf("failed to read settings: %w", err)
	}

	s, err := Decode(data)
	if err != nil {
		return objects.FormSettings{}, false, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}

	return s, true, nil
}

func save(fs afero.Fs, path string, s objects.FormSettings) error {
	data, err := Encode(s)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create settings directory: %w", err)
		}
	}

	if err := afero.WriteFile(fs, path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}

	return nil
}
