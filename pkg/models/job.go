package models

import (
	"time"

	"golang.org/x/exp/maps"
)

const (
	// JobTypeBinary runs Script inside the image.
	JobTypeBinary = "binary"
)

// JobRequest is a fully resolved submission, ready for the control plane.
type JobRequest struct {
	Image   string `json:"image" yaml:"image"`
	Command string `json:"command" yaml:"command"`
	// Script is the shell invocation actually executed: it changes into
	// SubmitDir before running Command.
	Script             string            `json:"script" yaml:"script"`
	Environment        map[string]string `json:"environment,omitempty" yaml:"environment,omitempty"`
	SubmitDir          string            `json:"submit_dir" yaml:"submit_dir"`
	Region             string            `json:"region" yaml:"region"`
	InstanceType       string            `json:"instance_type" yaml:"instance_type"`
	NWorkers           int               `json:"n_workers" yaml:"n_workers"`
	ProcessesPerWorker int               `json:"processes_per_worker" yaml:"processes_per_worker"`
	Priority           Priority          `json:"priority" yaml:"priority"`
	Description        string            `json:"description" yaml:"description"`
	Type               string            `json:"type" yaml:"type"`
}

func (r *JobRequest) Copy() *JobRequest {
	if r == nil {
		return nil
	}
	out := new(JobRequest)
	*out = *r
	out.Environment = maps.Clone(r.Environment)
	return out
}

// JobSummary is one entry of a job listing. It is owned by the control plane
// and only ever read locally.
type JobSummary struct {
	ID           string    `json:"id" yaml:"id"`
	State        string    `json:"state" yaml:"state"`
	Region       string    `json:"region" yaml:"region"`
	Description  string    `json:"description,omitempty" yaml:"description,omitempty"`
	InstanceType string    `json:"instance_type,omitempty" yaml:"instance_type,omitempty"`
	Priority     Priority  `json:"priority,omitempty" yaml:"priority,omitempty"`
	CreatedAt    time.Time `json:"created_at,omitempty" yaml:"created_at,omitempty"`
}

// InstanceType describes a machine shape offered in a region.
type InstanceType struct {
	Name        string `json:"name" yaml:"name"`
	GPU         int    `json:"gpu" yaml:"gpu"`
	CPU         int    `json:"cpu" yaml:"cpu"`
	Memory      string `json:"memory" yaml:"memory"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}
