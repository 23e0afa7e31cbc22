package jobspec

import (
	"errors"
	"fmt"
	"os"

	"github.com/bacalhau-project/cryri/pkg/cryerrors"
	"github.com/bacalhau-project/cryri/pkg/lib/envvar"
	"github.com/bacalhau-project/cryri/pkg/lib/marshaller"
)

// Parse decodes a job file, applies defaults and validates it. Unknown keys
// are ignored.
func Parse(b []byte) (JobConfig, error) {
	cfg := Default()
	if err := marshaller.YAMLUnmarshalWithMax(b, &cfg); err != nil {
		return JobConfig{}, cryerrors.NewValidationError("", "parsing job file: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		return JobConfig{}, err
	}
	return cfg, nil
}

// Load reads and parses the job file at path.
func Load(path string) (JobConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return JobConfig{}, fmt.Errorf("job file %q not found", path)
		}
		return JobConfig{}, fmt.Errorf("reading job file %q: %w", path, err)
	}
	cfg, err := Parse(b)
	if err != nil {
		return JobConfig{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Expand returns a copy of the config with environment values, work_dir and
// cry_copy_dir expanded. Nothing else is touched.
func (c JobConfig) Expand(e *envvar.Expander) JobConfig {
	out := c.Copy()
	out.Container.Environment = e.ExpandMap(c.Container.Environment)
	out.Container.WorkDir = e.Expand(c.Container.WorkDir)
	out.Container.CopyDir = e.Expand(c.Container.CopyDir)
	return out
}

// ResolveRegion picks the region to submit to: the command line flag wins,
// then the job file, then the settings default.
func (c *JobConfig) ResolveRegion(flagRegion string, defaultRegion string) {
	switch {
	case flagRegion != "":
		c.Cloud.Region = flagRegion
	case c.Cloud.Region == "":
		c.Cloud.Region = defaultRegion
	}
}
