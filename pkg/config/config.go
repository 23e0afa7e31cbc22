package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/bacalhau-project/cryri/pkg/config/types"
)

const (
	environmentVariablePrefix = "CRYRI"
	configDirEnvVar           = "CRYRI_DIR"
	defaultConfigDir          = "~/.cryri"

	configType = "yaml"
	configName = "config"
)

var environmentVariableReplace = strings.NewReplacer(".", "_")

// Default returns the settings used when neither a config file nor an
// environment variable overrides a key.
func Default() map[string]any {
	return map[string]any{
		types.APIEndpoint:              "http://localhost:8080",
		types.APIToken:                 "",
		types.APITimeout:               5 * time.Minute,
		types.APIRetries:               0,
		types.Region:                   "SR006",
		types.ImagesAllowedPrefixes:    []string{"cr."},
		types.CopyWarnSize:             "1GB",
		types.DescriptionStripPrefixes: []string{"/home/jovyan"},
	}
}

// DefaultDir returns the directory holding config.yaml: $CRYRI_DIR if set,
// otherwise ~/.cryri.
func DefaultDir() (string, error) {
	if dir := os.Getenv(configDirEnvVar); dir != "" {
		return homedir.Expand(dir)
	}
	return homedir.Expand(defaultConfigDir)
}

type Params struct {
	// File is an explicit config file. When empty, config.yaml is looked up in Dir.
	File string
	Dir  string
}

// Load reads settings from the config file (if any) and CRYRI_ prefixed
// environment variables, on top of Default. A missing config file is not an
// error.
func Load(params Params) (types.Settings, error) {
	v := viper.New()
	v.SetConfigType(configType)
	v.SetEnvPrefix(environmentVariablePrefix)
	v.SetEnvKeyReplacer(environmentVariableReplace)
	v.AutomaticEnv()

	for _, key := range types.AllKeys {
		v.SetDefault(key, Default()[key])
	}

	if params.File != "" {
		v.SetConfigFile(params.File)
	} else {
		if params.Dir == "" {
			dir, err := DefaultDir()
			if err != nil {
				return types.Settings{}, fmt.Errorf("resolving config directory: %w", err)
			}
			params.Dir = dir
		}
		v.AddConfigPath(params.Dir)
		v.SetConfigName(configName)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if params.File != "" || !errors.As(err, &notFound) {
			return types.Settings{}, fmt.Errorf("reading config: %w", err)
		}
	}

	var out types.Settings
	decodeHook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&out, decodeHook); err != nil {
		return types.Settings{}, fmt.Errorf("decoding config: %w", err)
	}

	if err := Validate(out); err != nil {
		return types.Settings{}, err
	}
	return out, nil
}

// Validate checks settings that would otherwise fail late, mid-request.
func Validate(s types.Settings) error {
	u, err := url.Parse(s.API.Endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid %s %q: must be an absolute http(s) URL", types.APIEndpoint, s.API.Endpoint)
	}
	if s.API.Timeout <= 0 {
		return fmt.Errorf("invalid %s %s: must be positive", types.APITimeout, s.API.Timeout)
	}
	if s.API.Retries < 0 {
		return fmt.Errorf("invalid %s %d: must not be negative", types.APIRetries, s.API.Retries)
	}
	if strings.TrimSpace(s.Region) == "" {
		return fmt.Errorf("%s must not be empty", types.Region)
	}
	return nil
}

// KeyAsEnvVar returns the environment variable that overrides key.
func KeyAsEnvVar(key string) string {
	return environmentVariablePrefix + "_" + strings.ToUpper(environmentVariableReplace.Replace(key))
}

// ConfigFile returns the path Load looks at when no explicit file is given.
func ConfigFile(dir string) string {
	return filepath.Join(dir, configName+"."+configType)
}
