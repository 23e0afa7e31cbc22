package cmdtesting

import (
	"bytes"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/suite"

	"github.com/bacalhau-project/cryri/cmd/cli"
	"github.com/bacalhau-project/cryri/cmd/util"
	"github.com/bacalhau-project/cryri/pkg/config"
	"github.com/bacalhau-project/cryri/pkg/config/types"
	"github.com/bacalhau-project/cryri/pkg/logger"
	"github.com/bacalhau-project/cryri/pkg/publicapi/fake"
)

const TestToken = "test-token"

// BaseSuite points the CLI at a fake control plane and an empty settings
// directory for each test.
type BaseSuite struct {
	suite.Suite
	Server    *fake.ControlPlane
	ConfigDir string
}

// before each test
func (s *BaseSuite) SetupTest() {
	logger.ConfigureTestLogging(s.T())
	util.Fatal = util.FakeFatalErrorHandler

	s.Server = fake.NewControlPlane()
	s.T().Cleanup(s.Server.Close)

	s.ConfigDir = s.T().TempDir()
	s.T().Setenv("CRYRI_DIR", s.ConfigDir)
	s.T().Setenv(config.KeyAsEnvVar(types.APIEndpoint), s.Server.URL)
	s.T().Setenv(config.KeyAsEnvVar(types.APIToken), TestToken)
	s.T().Setenv(config.KeyAsEnvVar(types.Region), "SR006")
	s.T().Setenv("TEAM_NAME", "")
}

// ExecuteTestCobraCommand runs the root command with args, capturing its
// stdout and stderr separately.
func (s *BaseSuite) ExecuteTestCobraCommand(args ...string) (c *cobra.Command, stdout string, stderr string, err error) {
	return ExecuteTestCobraCommand(args...)
}

func ExecuteTestCobraCommand(args ...string) (c *cobra.Command, stdout string, stderr string, err error) {
	outBuf, errBuf := new(bytes.Buffer), new(bytes.Buffer)
	root := cli.NewRootCmd()
	root.SetOut(outBuf)
	root.SetErr(errBuf)
	root.SetArgs(args)

	c, err = root.ExecuteC()
	return c, outBuf.String(), errBuf.String(), err
}
