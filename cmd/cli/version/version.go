package version

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/bacalhau-project/cryri/cmd/util/flags"
	"github.com/bacalhau-project/cryri/cmd/util/output"
	"github.com/bacalhau-project/cryri/pkg/models"
	"github.com/bacalhau-project/cryri/pkg/version"
)

type VersionOptions struct {
	OutputOpts output.OutputOptions
}

func NewVersionOptions() *VersionOptions {
	return &VersionOptions{
		OutputOpts: output.OutputOptions{Format: output.TableFormat},
	}
}

func NewCmd() *cobra.Command {
	oV := NewVersionOptions()

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version of cryri",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return output.OutputOne(cmd, versionColumns, oV.OutputOpts, version.Get())
		},
	}
	versionCmd.Flags().AddFlagSet(flags.OutputFormatFlags(&oV.OutputOpts))

	return versionCmd
}

var versionColumns = []output.TableColumn[*models.BuildVersionInfo]{
	{
		ColumnConfig: table.ColumnConfig{Name: "version"},
		Value:        func(v *models.BuildVersionInfo) string { return v.GitVersion },
	},
	{
		ColumnConfig: table.ColumnConfig{Name: "commit"},
		Value:        func(v *models.BuildVersionInfo) string { return v.GitCommit },
	},
	{
		ColumnConfig: table.ColumnConfig{Name: "built"},
		Value: func(v *models.BuildVersionInfo) string {
			if v.BuildDate.IsZero() {
				return ""
			}
			return v.BuildDate.UTC().Format("2006-01-02")
		},
	},
	{
		ColumnConfig: table.ColumnConfig{Name: "platform"},
		Value:        func(v *models.BuildVersionInfo) string { return v.GOOS + "/" + v.GOARCH },
	},
}
