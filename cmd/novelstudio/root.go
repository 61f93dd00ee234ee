package main

import (
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/zer0thgear/zer0-novel-utillities/conf"
	"github.com/zer0thgear/zer0-novel-utillities/internal/log"
)

var (
	configFile string

	// appFs backs settings and exported files.
	appFs afero.Fs = afero.NewOsFs()
)

var rootCmd = &cobra.Command{
	Use:   "novelstudio",
	Short: "NovelAI image generation studio",
	Long: `Build NovelAI image generation requests from saved settings, run them through
a local proxy that attaches your API key, and keep the results in a local gallery.`,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Config file (default: config.yml in ., ./conf, $HOME/.novelstudio, /etc/novelstudio)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig loads the config and applies its log settings.
func loadConfig() (conf.Config, error) {
	cfg, err := conf.LoadFile(configFile)
	if err != nil {
		return conf.Config{}, err
	}

	log.SetGlobalConfig(cfg.Log)

	return cfg, nil
}
