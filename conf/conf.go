package conf

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
	"go.uber.org/fx"

	"github.com/zer0thgear/zer0-novel-utillities/internal/log"
	"github.com/zer0thgear/zer0-novel-utillities/internal/server"
	"github.com/zer0thgear/zer0-novel-utillities/internal/server/api"
	"github.com/zer0thgear/zer0-novel-utillities/internal/simulator"
)

const EnvPrefix = "NOVELSTUDIO"

type Config struct {
	fx.Out `yaml:"-" json:"-" conf:"-"`

	APIServer server.Config      `conf:"server" yaml:"server" json:"server"`
	Log       log.Config         `conf:"log" yaml:"log" json:"log"`
	Upstream  api.UpstreamConfig `conf:"upstream" yaml:"upstream" json:"upstream"`
	Simulator simulator.Config   `conf:"simulator" yaml:"simulator" json:"simulator"`
	Client    ClientConfig       `conf:"client" yaml:"client" json:"client"`
}

// ClientConfig configures the command line client.
type ClientConfig struct {
	// ProxyURL is the base URL of the proxy server.
	ProxyURL string `conf:"proxy_url" yaml:"proxy_url" json:"proxy_url"`

	// Direct sends requests to the upstream with a bearer token instead of the proxy.
	Direct bool `conf:"direct" yaml:"direct" json:"direct"`

	// APIKey is the NovelAI key used when --api-key is not given.
	APIKey string `conf:"api_key" yaml:"api_key" json:"-"`

	SettingsPath string `conf:"settings_path" yaml:"settings_path" json:"settings_path"`
	GalleryDSN   string `conf:"gallery_dsn" yaml:"gallery_dsn" json:"gallery_dsn"`
	OutputDir    string `conf:"output_dir" yaml:"output_dir" json:"output_dir"`

	Timeout time.Duration `conf:"timeout" yaml:"timeout" json:"timeout"`
}

// Load reads config.yml from the default search paths, missing files are fine.
func Load() (Config, error) {
	return LoadFile("")
}

// LoadFile reads the given file, or searches the default paths when file is empty.
func LoadFile(file string) (Config, error) {
	v := viper.New()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yml")
		v.AddConfigPath(".")
		v.AddConfigPath("./conf")
		v.AddConfigPath("$HOME/.novelstudio")
		v.AddConfigPath("/etc/novelstudio")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	err := v.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config

	err = v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "conf"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	})
	if err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8090)
	v.SetDefault("server.name", "novelstudio")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.request_timeout", "30s")
	v.SetDefault("server.generation_timeout", "5m")
	v.SetDefault("server.debug", false)
	v.SetDefault("server.trace.trace_header", "NS-Trace-Id")
	v.SetDefault("server.trace.request_header", "NS-Request-Id")
	v.SetDefault("server.api_key.headers", []string{"X-Api-Key"})
	v.SetDefault("server.api_key.allowed_prefixes", []string{})
	v.SetDefault("server.cors.enabled", false)
	v.SetDefault("server.cors.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.cors.allowed_methods", []string{"GET", "POST", "OPTIONS"})
	v.SetDefault("server.cors.allowed_headers", []string{"Content-Type", "X-Api-Key"})
	v.SetDefault("server.cors.exposed_headers", []string{"NS-Trace-Id", "NS-Request-Id"})
	v.SetDefault("server.cors.allow_credentials", false)
	v.SetDefault("server.cors.max_age", "12h")

	v.SetDefault("log.name", "novelstudio")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.output", "stderr")
	v.SetDefault("log.debug", false)
	v.SetDefault("log.file.path", "logs/novelstudio.log")
	v.SetDefault("log.file.max_size", 100)
	v.SetDefault("log.file.max_age", 7)
	v.SetDefault("log.file.max_backups", 5)
	v.SetDefault("log.file.local_time", false)
	v.SetDefault("log.file.compress", false)

	v.SetDefault("upstream.base_url", api.DefaultUpstreamURL)

	v.SetDefault("simulator.host", "127.0.0.1")
	v.SetDefault("simulator.port", 8091)
	v.SetDefault("simulator.api_key", "")
	v.SetDefault("simulator.steps", 4)
	v.SetDefault("simulator.step_delay", "150ms")

	v.SetDefault("client.proxy_url", "http://localhost:8090")
	v.SetDefault("client.direct", false)
	v.SetDefault("client.api_key", "")
	v.SetDefault("client.settings_path", "data/settings.json")
	v.SetDefault("client.gallery_dsn", "data/gallery.db")
	v.SetDefault("client.output_dir", "output")
	v.SetDefault("client.timeout", "5m")
}
