package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bacalhau-project/cryri/cmd/cli/validate"
	versioncmd "github.com/bacalhau-project/cryri/cmd/cli/version"
	"github.com/bacalhau-project/cryri/cmd/util"
	"github.com/bacalhau-project/cryri/cmd/util/flags"
	"github.com/bacalhau-project/cryri/cmd/util/output"
	"github.com/bacalhau-project/cryri/pkg/config"
	"github.com/bacalhau-project/cryri/pkg/logger"
	"github.com/bacalhau-project/cryri/pkg/version"
)

var shutdownSignals = []os.Signal{
	syscall.SIGTERM,
	syscall.SIGINT,
}

const rootLong = `Submit jobs described by a YAML file to the cloud scheduler, and list,
inspect or kill the jobs already running there.

Exactly one action runs per invocation: a job file, --jobs, --instance_types,
--logs or --kill.`

const rootExample = `  # Submit the job described in job.yaml and print its id
  cryri job.yaml

  # Show what would be submitted, without copying or submitting anything
  cryri --dry-run job.yaml

  # List jobs in the SR004 region
  cryri --jobs --region SR004

  # Stream the logs of the job whose id starts with lm-mpi-job-1a2b
  cryri --logs lm-mpi-job-1a2b`

// RootOptions holds the flags of the root command.
type RootOptions struct {
	Jobs          bool
	InstanceTypes bool
	Logs          string
	Kill          string
	Region        string
	DryRun        bool
	ConfigFile    string
	LogMode       logger.LogMode
	OutputOpts    output.OutputOptions
}

func NewRootOptions() *RootOptions {
	mode, _ := logger.ParseLogMode(os.Getenv("LOG_TYPE"))
	return &RootOptions{
		LogMode:    mode,
		OutputOpts: output.OutputOptions{Format: output.TableFormat},
	}
}

func NewRootCmd() *cobra.Command {
	o := NewRootOptions()

	rootCmd := &cobra.Command{
		Use:           "cryri [job.yaml]",
		Short:         "Submit and manage jobs on the cloud scheduler",
		Long:          rootLong,
		Example:       rootExample,
		Version:       version.Get().GitVersion,
		Args:          cobra.MaximumNArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			logger.ConfigureLogging(o.LogMode)

			settings, err := config.Load(config.Params{File: o.ConfigFile})
			if err != nil {
				return err
			}
			cmd.SetContext(util.WithSettings(cmd.Context(), settings))
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, args)
		},
	}

	rootCmd.Flags().BoolVar(&o.Jobs, "jobs", o.Jobs, "List the jobs in the region.")
	rootCmd.Flags().BoolVar(&o.InstanceTypes, "instance_types", o.InstanceTypes,
		"List the instance types offered in the region.")
	rootCmd.Flags().StringVar(&o.Logs, "logs", o.Logs,
		"Print the logs of the job whose id starts with the given fragment.")
	rootCmd.Flags().StringVar(&o.Kill, "kill", o.Kill,
		"Kill the job whose id starts with the given fragment.")
	rootCmd.Flags().BoolVar(&o.DryRun, "dry-run", o.DryRun,
		"Print the job request for a job file without copying or submitting anything.")
	rootCmd.Flags().AddFlagSet(flags.OutputFormatFlags(&o.OutputOpts))

	rootCmd.Flags().StringVar(&o.Region, "region", o.Region,
		"Cloud region, for example SR004 or SR006. Overrides the job file and the configured default.")
	rootCmd.PersistentFlags().StringVar(&o.ConfigFile, "config", o.ConfigFile,
		"Path to a settings file. Defaults to config.yaml in $CRYRI_DIR or ~/.cryri.")
	rootCmd.PersistentFlags().Var(flags.LoggingFlag(&o.LogMode), "log-mode",
		`Log format: 'default' or 'json'`)

	rootCmd.AddCommand(validate.NewCmd())
	rootCmd.AddCommand(versioncmd.NewCmd())

	return rootCmd
}

func Execute() {
	rootCmd := NewRootCmd()

	// Ensure commands are able to stop cleanly if someone presses ctrl+c
	ctx, cancel := signal.NotifyContext(context.Background(), shutdownSignals...)
	defer cancel()
	rootCmd.SetContext(ctx)

	// job ids and listings go to stdout so that e.g. ID=$(cryri job.yaml) works
	rootCmd.SetOut(os.Stdout)
	rootCmd.SetErr(os.Stderr)

	if err := rootCmd.Execute(); err != nil {
		util.Fatal(rootCmd, err, 1)
	}
}
