package types

import (
	"time"

	"github.com/c2h5oh/datasize"
)

// Settings holds the tool-level configuration. It is loaded once per
// invocation and passed explicitly to whatever needs it.
type Settings struct {
	API         APIConfig         `yaml:"API" mapstructure:"api"`
	Region      string            `yaml:"Region" mapstructure:"region"`
	Images      ImagesConfig      `yaml:"Images" mapstructure:"images"`
	Copy        CopyConfig        `yaml:"Copy" mapstructure:"copy"`
	Description DescriptionConfig `yaml:"Description" mapstructure:"description"`
}

type APIConfig struct {
	// Endpoint is the base URL of the cloud control plane.
	Endpoint string `yaml:"Endpoint" mapstructure:"endpoint"`
	// Token is sent as a bearer token when set.
	Token   string        `yaml:"Token" mapstructure:"token"`
	Timeout time.Duration `yaml:"Timeout" mapstructure:"timeout"`
	// Retries applies to read-only calls only. Submissions and kills are
	// never retried.
	Retries int `yaml:"Retries" mapstructure:"retries"`
}

type ImagesConfig struct {
	// AllowedPrefixes lists the registry prefixes a job image must start with.
	AllowedPrefixes []string `yaml:"AllowedPrefixes" mapstructure:"allowed_prefixes"`
}

type CopyConfig struct {
	// WarnSize logs a warning when a run copy is larger than this.
	WarnSize datasize.ByteSize `yaml:"WarnSize" mapstructure:"warn_size"`
}

type DescriptionConfig struct {
	// StripPrefixes are removed from the working directory before it is
	// used as a job description.
	StripPrefixes []string `yaml:"StripPrefixes" mapstructure:"strip_prefixes"`
}
