package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/andreazorzetto/yh/highlight"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/zer0thgear/zer0-novel-utillities/conf"
)

var previewFormat string

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the configuration",
}

var configPreviewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Preview the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := conf.LoadFile(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		output, err := previewConfig(cmd.OutOrStdout(), cfg, previewFormat)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), output)

		return nil
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := conf.LoadFile(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		problems := validateConfig(cfg)
		if len(problems) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "Configuration is valid!")
			return nil
		}

		fmt.Fprintln(cmd.OutOrStdout(), "Configuration validation failed:")

		for _, problem := range problems {
			fmt.Fprintf(cmd.OutOrStdout(), "  - %s\n", problem)
		}

		return errors.New("invalid configuration")
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a specific config value",
	Long: `Get a specific config value.

Available keys:
  server.port          Proxy port
  server.name          Proxy name
  server.debug         Debug mode
  upstream.base_url    NovelAI image API base URL
  simulator.port       Simulator port
  client.proxy_url     Proxy URL used by the client commands
  client.direct        Skip the proxy and call the upstream directly
  client.settings_path Settings file
  client.gallery_dsn   Gallery database
  client.output_dir    Directory generated images are written to`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := conf.LoadFile(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		value, err := configValue(cfg, args[0])
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), value)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configPreviewCmd, configValidateCmd, configGetCmd)

	configPreviewCmd.Flags().StringVarP(&previewFormat, "format", "f", "yml", "Output format: yml, json")
}

func previewConfig(w io.Writer, cfg conf.Config, format string) (string, error) {
	switch format {
	case "json":
		b, err := marshalJSON(w, cfg)
		if err != nil {
			return "", fmt.Errorf("failed to preview config: %w", err)
		}

		return string(b), nil
	case "yml", "yaml":
		b, err := yaml.Marshal(cfg)
		if err != nil {
			return "", fmt.Errorf("failed to preview config: %w", err)
		}

		output, err := highlight.Highlight(bytes.NewBuffer(b))
		if err != nil {
			return "", fmt.Errorf("failed to preview config: %w", err)
		}

		return output, nil
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

func validateConfig(config conf.Config) []string {
	var errors []string

	if config.APIServer.Port <= 0 || config.APIServer.Port > 65535 {
		errors = append(errors, "server.port must be between 1 and 65535")
	}

	if config.Simulator.Port <= 0 || config.Simulator.Port > 65535 {
		errors = append(errors, "simulator.port must be between 1 and 65535")
	}

	if config.Upstream.BaseURL == "" {
		errors = append(errors, "upstream.base_url cannot be empty")
	}

	if config.Log.Name == "" {
		errors = append(errors, "log.name cannot be empty")
	}

	if config.APIServer.CORS.Enabled && len(config.APIServer.CORS.AllowedOrigins) == 0 {
		errors = append(errors, "server.cors.allowed_origins cannot be empty when CORS is enabled")
	}

	if len(config.APIServer.APIKey.Headers) == 0 {
		errors = append(errors, "server.api_key.headers cannot be empty")
	}

	if !config.Client.Direct && config.Client.ProxyURL == "" {
		errors = append(errors, "client.proxy_url cannot be empty unless client.direct is set")
	}

	if config.Client.SettingsPath == "" {
		errors = append(errors, "client.settings_path cannot be empty")
	}

	return errors
}

func configValue(config conf.Config, key string) (any, error) {
	switch key {
	case "server.port":
		return config.APIServer.Port, nil
	case "server.name":
		return config.APIServer.Name, nil
	case "server.debug":
		return config.APIServer.Debug, nil
	case "upstream.base_url":
		return config.Upstream.BaseURL, nil
	case "simulator.port":
		return config.Simulator.Port, nil
	case "client.proxy_url":
		return config.Client.ProxyURL, nil
	case "client.direct":
		return config.Client.Direct, nil
	case "client.settings_path":
		return config.Client.SettingsPath, nil
	case "client.gallery_dsn":
		return config.Client.GalleryDSN, nil
	case "client.output_dir":
		return config.Client.OutputDir, nil
	default:
		return nil, fmt.Errorf("unknown config key: %s", key)
	}
}
