package models

import "time"

// BuildVersionInfo describes the build of the cryri binary.
type BuildVersionInfo struct {
	Major      string    `json:"major,omitempty" yaml:"major,omitempty"`
	Minor      string    `json:"minor,omitempty" yaml:"minor,omitempty"`
	GitVersion string    `json:"gitversion" yaml:"gitversion"`
	GitCommit  string    `json:"gitcommit,omitempty" yaml:"gitcommit,omitempty"`
	BuildDate  time.Time `json:"builddate,omitempty" yaml:"builddate,omitempty"`
	GOOS       string    `json:"goos" yaml:"goos"`
	GOARCH     string    `json:"goarch" yaml:"goarch"`
}
