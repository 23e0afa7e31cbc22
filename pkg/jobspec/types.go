package jobspec

import (
	"golang.org/x/exp/maps"

	"github.com/bacalhau-project/cryri/pkg/models"
	"github.com/bacalhau-project/cryri/pkg/workspace"
)

const (
	DefaultNWorkers           = 1
	DefaultProcessesPerWorker = 1
)

// JobConfig is the YAML job file.
type JobConfig struct {
	Container ContainerSpec `json:"container" yaml:"container"`
	Cloud     CloudSpec     `json:"cloud,omitempty" yaml:"cloud"`
}

type ContainerSpec struct {
	Image   string `json:"image" yaml:"image" jsonschema:"description=Container image from an accepted registry"`
	Command string `json:"command" yaml:"command" jsonschema:"description=Command run inside work_dir"`
	// Environment values may reference local environment variables and ~.
	Environment map[string]string `json:"environment,omitempty" yaml:"environment"`
	WorkDir     string            `json:"work_dir,omitempty" yaml:"work_dir"`
	RunFromCopy bool              `json:"run_from_copy,omitempty" yaml:"run_from_copy"`
	CopyDir     string            `json:"cry_copy_dir,omitempty" yaml:"cry_copy_dir"`
	// ExcludeFromCopy holds doublestar patterns skipped when run_from_copy is set.
	ExcludeFromCopy []string `json:"exclude_from_copy,omitempty" yaml:"exclude_from_copy"`
}

type CloudSpec struct {
	Region             string          `json:"region,omitempty" yaml:"region"`
	InstanceType       string          `json:"instance_type,omitempty" yaml:"instance_type"`
	NWorkers           int             `json:"n_workers,omitempty" yaml:"n_workers"`
	Priority           models.Priority `json:"priority,omitempty" yaml:"priority"`
	Description        string          `json:"description,omitempty" yaml:"description"`
	ProcessesPerWorker int             `json:"processes_per_worker,omitempty" yaml:"processes_per_worker"`
}

// Default returns a JobConfig with every optional field at its default. The
// job file is decoded on top of it.
func Default() JobConfig {
	return JobConfig{
		Cloud: CloudSpec{
			NWorkers:           DefaultNWorkers,
			Priority:           models.DefaultPriority,
			ProcessesPerWorker: DefaultProcessesPerWorker,
		},
	}
}

// Normalize fills in defaults for fields explicitly left empty in the file,
// such as `priority: ""`.
func (c *JobConfig) Normalize() {
	if c.Cloud.Priority == "" {
		c.Cloud.Priority = models.DefaultPriority
	}
}

func (c JobConfig) Copy() JobConfig {
	out := c
	out.Container.Environment = maps.Clone(c.Container.Environment)
	if c.Container.ExcludeFromCopy != nil {
		out.Container.ExcludeFromCopy = append([]string(nil), c.Container.ExcludeFromCopy...)
	}
	return out
}

// WorkspaceOptions describes how the container's working directory is
// materialized. Call it on an expanded config.
func (c ContainerSpec) WorkspaceOptions() workspace.Options {
	return workspace.Options{
		WorkDir:     c.WorkDir,
		RunFromCopy: c.RunFromCopy,
		CopyDir:     c.CopyDir,
		Exclude:     c.ExcludeFromCopy,
	}
}
