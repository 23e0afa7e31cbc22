//go:build unit || !integration

package jobspec

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/bacalhau-project/cryri/pkg/cryerrors"
	"github.com/bacalhau-project/cryri/pkg/lib/envvar"
	"github.com/bacalhau-project/cryri/pkg/logger"
	"github.com/bacalhau-project/cryri/pkg/models"
)

const minimalJob = `
container:
  image: cr.x/job-custom-image-demo
  command: python a.py
`

type LoadSuite struct {
	suite.Suite
}

func TestLoadSuite(t *testing.T) {
	suite.Run(t, new(LoadSuite))
}

func (s *LoadSuite) SetupTest() {
	logger.ConfigureTestLogging(s.T())
}

func (s *LoadSuite) requireValidationError(err error, field string) {
	var validationErr cryerrors.ValidationError
	s.Require().ErrorAs(err, &validationErr)
	s.Equal(field, validationErr.Field)
}

func (s *LoadSuite) TestDefaults() {
	cfg, err := Parse([]byte(minimalJob))
	s.Require().NoError(err)

	s.Equal("cr.x/job-custom-image-demo", cfg.Container.Image)
	s.Equal("python a.py", cfg.Container.Command)
	s.False(cfg.Container.RunFromCopy)
	s.Equal(1, cfg.Cloud.NWorkers)
	s.Equal(1, cfg.Cloud.ProcessesPerWorker)
	s.Equal(models.PriorityMedium, cfg.Cloud.Priority)
	s.Empty(cfg.Cloud.Region)
}

func (s *LoadSuite) TestFullFile() {
	cfg, err := Parse([]byte(`
container:
  image: cr.ai.cloud.ru/team/trainer:latest
  command: python train.py --config "conf.yaml"
  environment:
    WANDB_API_KEY: $WANDB_API_KEY
    DATA: ~/data
  work_dir: ~/project
  run_from_copy: true
  cry_copy_dir: $HOME/.cryri/runs
  exclude_from_copy: ["*.ckpt", "wandb"]
cloud:
  region: SR004
  instance_type: a100.1gpu
  n_workers: 1
  priority: high
  description: my experiment
  processes_per_worker: 4
`))
	s.Require().NoError(err)

	s.Equal(map[string]string{"WANDB_API_KEY": "$WANDB_API_KEY", "DATA": "~/data"}, cfg.Container.Environment)
	s.True(cfg.Container.RunFromCopy)
	s.Equal([]string{"*.ckpt", "wandb"}, cfg.Container.ExcludeFromCopy)
	s.Equal("SR004", cfg.Cloud.Region)
	s.Equal("a100.1gpu", cfg.Cloud.InstanceType)
	s.Equal(models.PriorityHigh, cfg.Cloud.Priority)
	s.Equal("my experiment", cfg.Cloud.Description)
	s.Equal(4, cfg.Cloud.ProcessesPerWorker)
}

func (s *LoadSuite) TestUnknownKeysAreIgnored() {
	cfg, err := Parse([]byte(minimalJob + `
  gpus: 8
cloud:
  flavour: large
unrelated: true
`))
	s.Require().NoError(err)
	s.Equal("python a.py", cfg.Container.Command)
}

func (s *LoadSuite) TestExplicitEmptyPriorityIsDefaulted() {
	cfg, err := Parse([]byte(minimalJob + `
cloud:
  priority: ""
`))
	s.Require().NoError(err)
	s.Equal(models.PriorityMedium, cfg.Cloud.Priority)
}

func (s *LoadSuite) TestMultipleWorkersRejected() {
	_, err := Parse([]byte(minimalJob + `
cloud:
  n_workers: 2
`))
	s.requireValidationError(err, "cloud.n_workers")
	s.ErrorContains(err, "multi-worker jobs are not supported")
}

func (s *LoadSuite) TestInvalidPriority() {
	_, err := Parse([]byte(minimalJob + `
cloud:
  priority: urgent
`))
	s.requireValidationError(err, "cloud.priority")
}

func (s *LoadSuite) TestInvalidProcessesPerWorker() {
	_, err := Parse([]byte(minimalJob + `
cloud:
  processes_per_worker: 0
`))
	s.requireValidationError(err, "cloud.processes_per_worker")
}

func (s *LoadSuite) TestCopyWithoutCopyDir() {
	_, err := Parse([]byte(minimalJob + `
  run_from_copy: true
`))
	s.requireValidationError(err, "container.cry_copy_dir")
}

func (s *LoadSuite) TestAllProblemsReportedOnOneLine() {
	_, err := Parse([]byte(`
container:
  work_dir: /tmp
cloud:
  n_workers: 3
`))
	s.Require().Error(err)
	s.Equal("invalid job: container.image: must not be empty; "+
		"invalid job: container.command: must not be empty; "+
		"invalid job: cloud.n_workers: must be 1, multi-worker jobs are not supported (got 3)",
		err.Error())
}

func (s *LoadSuite) TestMalformedDocuments() {
	for _, doc := range []string{"", "   \n", "container: [unclosed", "container: 3"} {
		_, err := Parse([]byte(doc))
		s.requireValidationError(err, "")
	}
}

func (s *LoadSuite) TestLoad() {
	path := filepath.Join(s.T().TempDir(), "job.yaml")
	s.Require().NoError(os.WriteFile(path, []byte(minimalJob), 0o600))

	cfg, err := Load(path)
	s.Require().NoError(err)
	s.Equal("cr.x/job-custom-image-demo", cfg.Container.Image)

	_, err = Load(filepath.Join(s.T().TempDir(), "missing.yaml"))
	s.ErrorContains(err, "not found")

	bad := filepath.Join(s.T().TempDir(), "bad.yaml")
	s.Require().NoError(os.WriteFile(bad, []byte(minimalJob+"\ncloud:\n  n_workers: 2\n"), 0o600))
	_, err = Load(bad)
	s.requireValidationError(err, "cloud.n_workers")
	s.ErrorContains(err, bad)
}

func (s *LoadSuite) TestResolveRegion() {
	for _, tc := range []struct {
		name, file, flag, expected string
	}{
		{name: "default", expected: "SR006"},
		{name: "file", file: "SR004", expected: "SR004"},
		{name: "flag", flag: "SR008", expected: "SR008"},
		{name: "flag beats file", file: "SR004", flag: "SR008", expected: "SR008"},
	} {
		s.Run(tc.name, func() {
			cfg := Default()
			cfg.Cloud.Region = tc.file
			cfg.ResolveRegion(tc.flag, "SR006")
			s.Equal(tc.expected, cfg.Cloud.Region)
		})
	}
}

func (s *LoadSuite) TestExpandOnlyTouchesExpandableFields() {
	cfg, err := Parse([]byte(`
container:
  image: cr.x/$IMAGE
  command: echo $DATA
  environment:
    DATA: $DATA_ROOT/set
    SECRET: $UNSET_SECRET
  work_dir: ~/project
  run_from_copy: true
  cry_copy_dir: ${DATA_ROOT}/runs
cloud:
  description: $DATA_ROOT
`))
	s.Require().NoError(err)

	expander := envvar.NewExpander(envvar.Env{"HOME": "/home/jovyan", "DATA_ROOT": "/mnt/data", "IMAGE": "img"})
	expanded := cfg.Expand(expander)

	s.Equal(map[string]string{"DATA": "/mnt/data/set", "SECRET": "$UNSET_SECRET"}, expanded.Container.Environment)
	s.Equal("/home/jovyan/project", expanded.Container.WorkDir)
	s.Equal("/mnt/data/runs", expanded.Container.CopyDir)
	s.Equal("cr.x/$IMAGE", expanded.Container.Image)
	s.Equal("echo $DATA", expanded.Container.Command)
	s.Equal("$DATA_ROOT", expanded.Cloud.Description)

	s.Equal("$DATA_ROOT/set", cfg.Container.Environment["DATA"], "the parsed config is not modified")
	s.Equal(expanded, expanded.Expand(expander))
}

func (s *LoadSuite) TestWorkspaceOptions() {
	cfg := Default()
	cfg.Container = ContainerSpec{
		WorkDir:         "/w",
		RunFromCopy:     true,
		CopyDir:         "/c",
		ExcludeFromCopy: []string{"*.ckpt"},
	}
	opts := cfg.Container.WorkspaceOptions()
	s.Equal("/w", opts.WorkDir)
	s.True(opts.RunFromCopy)
	s.Equal("/c", opts.CopyDir)
	s.Equal([]string{"*.ckpt"}, opts.Exclude)
}
