package validate

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bacalhau-project/cryri/cmd/util"
	"github.com/bacalhau-project/cryri/pkg/jobspec"
)

const validateExample = `  # Validate the job described in job.yaml
  cryri validate ./job.yaml

  # Print the JSON schema of a job file
  cryri validate --output-schema`

type ValidateOptions struct {
	OutputSchema bool // Print the schema to stdout and exit
}

func NewCmd() *cobra.Command {
	o := &ValidateOptions{}

	validateCmd := &cobra.Command{
		Use:     "validate [job.yaml]",
		Short:   "Validate a job file without submitting it",
		Long:    "Validate a job file against the job schema and the checks run before submission.",
		Example: validateExample,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, args)
		},
	}

	validateCmd.Flags().BoolVar(&o.OutputSchema, "output-schema", o.OutputSchema,
		"Output the JSON schema for a job file to stdout then exit")

	return validateCmd
}

func (o *ValidateOptions) run(cmd *cobra.Command, args []string) error {
	if o.OutputSchema {
		schema, err := jobspec.GenerateJSONSchema()
		if err != nil {
			return err
		}
		cmd.Println(string(schema))
		return nil
	}

	if len(args) == 0 {
		return fmt.Errorf("a job file is required, or use --output-schema")
	}
	path := args[0]

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("job file %q not found", path)
		}
		return fmt.Errorf("reading job file: %w", err)
	}

	violations, err := jobspec.ValidateSchema(data)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if len(violations) > 0 {
		return fmt.Errorf("%s does not match the job schema: %s", path, strings.Join(violations, "; "))
	}

	cfg, err := jobspec.Parse(data)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if settings, ok := util.GetSettings(cmd.Context()); ok {
		if err = jobspec.ValidateImage(cfg.Container.Image, settings.Images.AllowedPrefixes); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}

	cmd.Println("The job is valid")
	return nil
}
