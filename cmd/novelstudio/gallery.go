package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/zer0thgear/zer0-novel-utillities/internal/export"
	"github.com/zer0thgear/zer0-novel-utillities/internal/objects"
	"github.com/zer0thgear/zer0-novel-utillities/internal/pkg/xtime"
)

const promptPreviewLength = 60

var galleryExportDir string

var galleryCmd = &cobra.Command{
	Use:   "gallery",
	Short: "Manage generated images",
}

// withClient opens the settings, gallery and session for one command.
func withClient(fn func(cmd *cobra.Command, args []string, c *client) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		c, err := openClient(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer c.Close()

		return fn(cmd, args, c)
	}
}

var galleryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored images, newest first",
	Args:  cobra.NoArgs,
	RunE: withClient(func(cmd *cobra.Command, args []string, c *client) error {
		images, err := c.gallery.List(cmd.Context())
		if err != nil {
			return err
		}

		if len(images) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No images yet.")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tCREATED\tSEED\tSIZE\tPROMPT")

		for _, img := range images {
			fmt.Fprintf(w, "%s\t%s\t%d\t%dx%d\t%s\n",
				img.ID,
				xtime.FromUnixMilli(img.Timestamp).Format("2006-01-02 15:04:05"),
				img.Seed,
				img.Parameters.Width,
				img.Parameters.Height,
				previewPrompt(img),
			)
		}

		return w.Flush()
	}),
}

func previewPrompt(img objects.GeneratedImage) string {
	text := strings.Join(strings.Fields(img.Prompt), " ")
	if img.SourceImageID != "" {
		text = "[enhanced] " + text
	}

	return lo.Ellipsis(text, promptPreviewLength)
}

var galleryExportCmd = &cobra.Command{
	Use:   "export [image-id]",
	Short: "Export one image as png, or every image as a zip bundle",
	Args:  cobra.MaximumNArgs(1),
	RunE: withClient(func(cmd *cobra.Command, args []string, c *client) error {
		ctx := cmd.Context()
		dir := lo.CoalesceOrEmpty(galleryExportDir, c.config.Client.OutputDir)

		if len(args) == 1 {
			img, err := c.gallery.Get(ctx, args[0])
			if err != nil {
				return err
			}

			path, err := export.WriteImage(appFs, dir, img)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), path)

			return nil
		}

		images, err := c.gallery.List(ctx)
		if err != nil {
			return err
		}

		path, err := export.WriteSession(ctx, appFs, dir, images, xtime.Now)
		if err != nil {
			return err
		}

		if path == "" {
			fmt.Fprintln(cmd.OutOrStdout(), "No images to export.")
			return nil
		}

		fmt.Fprintln(cmd.OutOrStdout(), path)

		return nil
	}),
}

var galleryDeleteCmd = &cobra.Command{
	Use:   "delete <image-id>...",
	Short: "Delete stored images",
	Args:  cobra.MinimumNArgs(1),
	RunE: withClient(func(cmd *cobra.Command, args []string, c *client) error {
		for _, id := range args {
			if err := c.gallery.Delete(cmd.Context(), id); err != nil {
				return fmt.Errorf("failed to delete %s: %w", id, err)
			}
		}

		return nil
	}),
}

var galleryClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every stored image",
	Args:  cobra.NoArgs,
	RunE: withClient(func(cmd *cobra.Command, args []string, c *client) error {
		return c.gallery.Clear(cmd.Context())
	}),
}

func init() {
	rootCmd.AddCommand(galleryCmd)
	galleryCmd.AddCommand(galleryListCmd, galleryExportCmd, galleryDeleteCmd, galleryClearCmd)

	galleryExportCmd.Flags().StringVarP(&galleryExportDir, "dir", "d", "", "Export directory (default: client.output_dir)")
}
