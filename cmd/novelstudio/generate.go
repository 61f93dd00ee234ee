package main

import (
	"context"
	"fmt"
	"io"

	"dario.cat/mergo"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/zer0thgear/zer0-novel-utillities/internal/export"
	"github.com/zer0thgear/zer0-novel-utillities/internal/log"
	"github.com/zer0thgear/zer0-novel-utillities/internal/novelai"
	"github.com/zer0thgear/zer0-novel-utillities/internal/objects"
)

// generateFlags are one run overrides, they are never persisted.
type generateFlags struct {
	apiKey    string
	prompt    string
	negative  string
	model     string
	sampler   string
	size      string
	width     int
	height    int
	steps     int
	scale     float64
	seed      int64
	stream    bool
	outputDir string
}

var genFlags generateFlags

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate images from the saved settings",
	Long: `Generate images from the saved settings. In batch mode every selected prompt is
generated in turn and the run stops at the first failure.

Examples:
  novelstudio generate
  novelstudio generate --prompt "1girl, forest" --seed 42
  novelstudio generate --size "Landscape" --stream`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	flags := generateCmd.Flags()
	flags.StringVar(&genFlags.apiKey, "api-key", "", "NovelAI API key (default: client.api_key)")
	flags.StringVarP(&genFlags.prompt, "prompt", "p", "", "Generate this prompt instead of the saved ones")
	flags.StringVar(&genFlags.negative, "negative", "", "Negative prompt")
	flags.StringVar(&genFlags.model, "model", "", "Model id")
	flags.StringVar(&genFlags.sampler, "sampler", "", "Sampler id")
	flags.StringVar(&genFlags.size, "size", "", "Size preset label, e.g. Portrait")
	flags.IntVar(&genFlags.width, "width", 0, "Width in pixels")
	flags.IntVar(&genFlags.height, "height", 0, "Height in pixels")
	flags.IntVar(&genFlags.steps, "steps", 0, "Sampling steps")
	flags.Float64Var(&genFlags.scale, "scale", 0, "Prompt guidance")
	flags.Int64Var(&genFlags.seed, "seed", 0, "Seed, 0 picks a random one per image")
	flags.BoolVar(&genFlags.stream, "stream", false, "Stream preview frames")
	flags.StringVarP(&genFlags.outputDir, "output", "o", "", "Directory images are written to (default: client.output_dir)")
}

// overrides returns the settings fields given on the command line.
func (f generateFlags) overrides(cmd *cobra.Command) (objects.FormSettings, error) {
	var o objects.FormSettings

	if f.prompt != "" {
		o.BasePrompts = []objects.BasePrompt{{ID: "cli", Label: "Command line", Text: f.prompt, Selected: true}}
		o.PromptMode = objects.PromptModeSingle
	}

	// Model and sampler ids are passed through, the provider decides what is valid.
	if f.model != "" && !novelai.IsKnown(novelai.Models, f.model) {
		log.Warn(context.Background(), "model is not in the catalog", log.String("model", f.model))
	}

	if f.sampler != "" && !novelai.IsKnown(novelai.Samplers, f.sampler) {
		log.Warn(context.Background(), "sampler is not in the catalog", log.String("sampler", f.sampler))
	}

	o.NegativePrompt = f.negative
	o.Model = f.model
	o.Sampler = f.sampler
	o.Width = f.width
	o.Height = f.height
	o.Steps = f.steps
	o.Scale = f.scale
	o.Seed = f.seed

	if f.size != "" {
		preset, ok := novelai.FindSizePreset(f.size)
		if !ok {
			return o, fmt.Errorf("unknown size preset %q", f.size)
		}

		o.Width = preset.Width
		o.Height = preset.Height
	}

	if cmd != nil && cmd.Flags().Changed("stream") {
		o.StreamingMode = f.stream
	}

	return o, nil
}

// applyOverrides merges the non-zero override fields into s.
func applyOverrides(s objects.FormSettings, o objects.FormSettings, streamChanged bool) (objects.FormSettings, error) {
	merged := s.Clone()

	err := mergo.Merge(&merged, o, mergo.WithOverride)
	if err != nil {
		return s, fmt.Errorf("failed to apply overrides: %w", err)
	}

	// A false flag is a zero value, which mergo never copies.
	if streamChanged {
		merged.StreamingMode = o.StreamingMode
	}

	return merged, nil
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	c, err := openClient(ctx, cfg)
	if err != nil {
		return err
	}
	defer c.Close()

	overrides, err := genFlags.overrides(cmd)
	if err != nil {
		return err
	}

	s, err := applyOverrides(c.settings.Get(), overrides, cmd.Flags().Changed("stream"))
	if err != nil {
		return err
	}

	gen := c.generator(c.transport(), genFlags.apiKey, out)

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	result, err := gen.Submit(ctx, s)
	if writeErr := writeImages(out, lo.CoalesceOrEmpty(genFlags.outputDir, cfg.Client.OutputDir), result.Images); writeErr != nil {
		return multierr.Append(err, writeErr)
	}

	if err != nil {
		if result.FailedAt > 0 && result.Progress.Total > 1 {
			return fmt.Errorf("batch stopped at %d of %d: %w", result.FailedAt, result.Progress.Total, err)
		}

		return err
	}

	return nil
}

// writeImages saves images to dir and prints one line per image.
func writeImages(out io.Writer, dir string, images []objects.GeneratedImage) error {
	for _, img := range images {
		path, err := export.WriteImage(appFs, dir, img)
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "%s  seed=%d  %s\n", img.ID, img.Seed, path)
	}

	return nil
}
