package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/zer0thgear/zer0-novel-utillities/internal/objects"
	"github.com/zer0thgear/zer0-novel-utillities/internal/settings"
)

var (
	settingsFormat string

	characterUC string
	characterX  float64
	characterY  float64

	disableCharacter bool
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show and edit the saved generation settings",
}

// withSettings opens the settings store before running fn.
func withSettings(fn func(cmd *cobra.Command, args []string, store *settings.Store) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		store, err := settings.Open(cmd.Context(), appFs, cfg.Client.SettingsPath)
		if err != nil {
			return err
		}

		return fn(cmd, args, store)
	}
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the settings",
	Args:  cobra.NoArgs,
	RunE: withSettings(func(cmd *cobra.Command, args []string, store *settings.Store) error {
		var (
			out []byte
			err error
		)

		switch settingsFormat {
		case "json":
			out, err = marshalJSON(cmd.OutOrStdout(), store.Get())
		case "yml", "yaml":
			out, err = yaml.Marshal(store.Get())
		default:
			return fmt.Errorf("unsupported format: %s", settingsFormat)
		}

		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), string(out))

		return nil
	}),
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <field> <value>",
	Short: "Set a field by its JSON path",
	Long: `Set a field by its JSON path. JSON values are used as is, anything else is a string.

Examples:
  novelstudio settings set width 1024
  novelstudio settings set sampler k_dpmpp_2m
  novelstudio settings set characters.0.uc "hat"`,
	Args: cobra.ExactArgs(2),
	RunE: withSettings(func(cmd *cobra.Command, args []string, store *settings.Store) error {
		return store.PatchText(args[0], args[1])
	}),
}

var settingsSetPromptCmd = &cobra.Command{
	Use:   "set-prompt <prompt-id> <text>",
	Short: "Replace the text of a base prompt",
	Args:  cobra.ExactArgs(2),
	RunE: withSettings(func(cmd *cobra.Command, args []string, store *settings.Store) error {
		return store.SetPromptText(args[0], args[1])
	}),
}

var settingsAddPromptCmd = &cobra.Command{
	Use:   "add-prompt [text]",
	Short: "Add a base prompt",
	Args:  cobra.MaximumNArgs(1),
	RunE: withSettings(func(cmd *cobra.Command, args []string, store *settings.Store) error {
		added, err := store.AddPrompt()
		if err != nil {
			return err
		}

		if len(args) == 1 {
			if err := store.SetPromptText(added.ID, args[0]); err != nil {
				return err
			}
		}

		fmt.Fprintln(cmd.OutOrStdout(), added.ID)

		return nil
	}),
}

var settingsRemovePromptCmd = &cobra.Command{
	Use:   "remove-prompt <prompt-id>",
	Short: "Remove a base prompt",
	Args:  cobra.ExactArgs(1),
	RunE: withSettings(func(cmd *cobra.Command, args []string, store *settings.Store) error {
		return store.RemovePrompt(args[0])
	}),
}

var settingsSelectCmd = &cobra.Command{
	Use:   "select <prompt-id> [true|false]",
	Short: "Select a base prompt, in batch mode the selection can be toggled",
	Args:  cobra.RangeArgs(1, 2),
	RunE: withSettings(func(cmd *cobra.Command, args []string, store *settings.Store) error {
		selected := true

		if len(args) == 2 {
			v, err := strconv.ParseBool(args[1])
			if err != nil {
				return fmt.Errorf("invalid selection %q: %w", args[1], err)
			}

			selected = v
		}

		return store.TogglePrompt(args[0], selected)
	}),
}

var settingsModeCmd = &cobra.Command{
	Use:       "mode <single|batch>",
	Short:     "Switch between single and batch prompt mode",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{string(objects.PromptModeSingle), string(objects.PromptModeBatch)},
	RunE: withSettings(func(cmd *cobra.Command, args []string, store *settings.Store) error {
		return store.SwitchMode(objects.PromptMode(args[0]))
	}),
}

var settingsAddCharacterCmd = &cobra.Command{
	Use:   "add-character [prompt]",
	Short: "Add a character prompt",
	Args:  cobra.MaximumNArgs(1),
	RunE: withSettings(func(cmd *cobra.Command, args []string, store *settings.Store) error {
		added, err := store.AddCharacter()
		if err != nil {
			return err
		}

		err = store.UpdateCharacter(added.ID, func(c *objects.CharacterPromptEntry) {
			if len(args) == 1 {
				c.Prompt = args[0]
			}

			c.UC = characterUC
			c.Center = objects.Center{X: characterX, Y: characterY}
		})
		if err != nil {
			return err
		}

		state := "enabled"
		if !added.Enabled {
			state = fmt.Sprintf("disabled, at most %d characters can be enabled", objects.MaxEnabledCharacters)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", added.ID, state)

		return nil
	}),
}

var settingsEnableCharacterCmd = &cobra.Command{
	Use:   "enable-character <character-id>",
	Short: "Enable or disable a character prompt",
	Args:  cobra.ExactArgs(1),
	RunE: withSettings(func(cmd *cobra.Command, args []string, store *settings.Store) error {
		return store.SetCharacterEnabled(args[0], !disableCharacter)
	}),
}

// toggles maps the toggle names to their settings fields.
var toggles = map[string]func(st *objects.FormSettings) *bool{
	"fur":            func(st *objects.FormSettings) *bool { return &st.FurMode },
	"nsfw":           func(st *objects.FormSettings) *bool { return &st.NSFWMode },
	"quality":        func(st *objects.FormSettings) *bool { return &st.QualityTags },
	"base-negative":  func(st *objects.FormSettings) *bool { return &st.BaseNegativeCaptions },
	"stream":         func(st *objects.FormSettings) *bool { return &st.StreamingMode },
	"smea":           func(st *objects.FormSettings) *bool { return &st.SMEA },
	"smea-dyn":       func(st *objects.FormSettings) *bool { return &st.SMEADyn },
	"coords":         func(st *objects.FormSettings) *bool { return &st.UseCoords },
	"quality-toggle": func(st *objects.FormSettings) *bool { return &st.QualityToggle },
}

var settingsToggleCmd = &cobra.Command{
	Use:   "toggle <fur|nsfw|quality|base-negative|stream|smea|smea-dyn|coords|quality-toggle> [on|off]",
	Short: "Flip a switch, or set it with on/off",
	Args:  cobra.RangeArgs(1, 2),
	RunE: withSettings(func(cmd *cobra.Command, args []string, store *settings.Store) error {
		field, ok := toggles[args[0]]
		if !ok {
			return fmt.Errorf("unknown toggle %q", args[0])
		}

		var value *bool

		if len(args) == 2 {
			switch args[1] {
			case "on", "true":
				v := true
				value = &v
			case "off", "false":
				v := false
				value = &v
			default:
				return fmt.Errorf("invalid value %q, use on or off", args[1])
			}
		}

		var result bool

		err := store.Update(func(st *objects.FormSettings) error {
			target := field(st)
			if value != nil {
				*target = *value
			} else {
				*target = !*target
			}

			result = *target

			return nil
		})
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s: %t\n", args[0], result)

		return nil
	}),
}

var settingsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore the default settings",
	Args:  cobra.NoArgs,
	RunE: withSettings(func(cmd *cobra.Command, args []string, store *settings.Store) error {
		return store.Reset()
	}),
}

func init() {
	rootCmd.AddCommand(settingsCmd)
	settingsCmd.AddCommand(
		settingsShowCmd,
		settingsSetCmd,
		settingsSetPromptCmd,
		settingsAddPromptCmd,
		settingsRemovePromptCmd,
		settingsSelectCmd,
		settingsModeCmd,
		settingsAddCharacterCmd,
		settingsEnableCharacterCmd,
		settingsToggleCmd,
		settingsResetCmd,
	)

	settingsShowCmd.Flags().StringVarP(&settingsFormat, "format", "f", "json", "Output format: json, yml")

	settingsAddCharacterCmd.Flags().StringVar(&characterUC, "uc", "", "Character negative prompt")
	settingsAddCharacterCmd.Flags().Float64Var(&characterX, "x", 0.5, "Horizontal center, 0 to 1")
	settingsAddCharacterCmd.Flags().Float64Var(&characterY, "y", 0.5, "Vertical center, 0 to 1")

	settingsEnableCharacterCmd.Flags().BoolVar(&disableCharacter, "disable", false, "Disable instead of enable")
}
