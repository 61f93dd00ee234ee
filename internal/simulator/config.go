package simulator

import "time"

type Config struct {
	Host string `conf:"host" yaml:"host" json:"host"`
	Port int    `conf:"port" yaml:"port" json:"port"`

	// APIKey is the only bearer token accepted. Any non-empty token is accepted when unset.
	APIKey string `conf:"api_key" yaml:"api_key" json:"-"`

	// Steps is the number of intermediate frames sent before the final image.
	Steps int `conf:"steps" yaml:"steps" json:"steps"`

	StepDelay time.Duration `conf:"step_delay" yaml:"step_delay" json:"step_delay"`
}
