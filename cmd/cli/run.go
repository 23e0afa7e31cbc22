package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/bacalhau-project/cryri/cmd/util"
	"github.com/bacalhau-project/cryri/cmd/util/output"
	"github.com/bacalhau-project/cryri/cmd/util/printer"
	"github.com/bacalhau-project/cryri/pkg/config/types"
	"github.com/bacalhau-project/cryri/pkg/jobs"
	"github.com/bacalhau-project/cryri/pkg/jobspec"
	"github.com/bacalhau-project/cryri/pkg/lib/envvar"
	"github.com/bacalhau-project/cryri/pkg/publicapi/client"
	"github.com/bacalhau-project/cryri/pkg/util/closer"
	"github.com/bacalhau-project/cryri/pkg/workspace"
)

type action string

const (
	actionSubmit        action = "job file"
	actionJobs          action = "--jobs"
	actionInstanceTypes action = "--instance_types"
	actionLogs          action = "--logs"
	actionKill          action = "--kill"
)

// selectAction returns the single action requested on the command line.
// An empty action means nothing was asked for.
func (o *RootOptions) selectAction(cmd *cobra.Command, args []string) (action, error) {
	var selected []action
	if len(args) == 1 {
		selected = append(selected, actionSubmit)
	}
	if o.Jobs {
		selected = append(selected, actionJobs)
	}
	if o.InstanceTypes {
		selected = append(selected, actionInstanceTypes)
	}
	if cmd.Flags().Changed("logs") {
		selected = append(selected, actionLogs)
	}
	if cmd.Flags().Changed("kill") {
		selected = append(selected, actionKill)
	}

	if len(selected) > 1 {
		names := make([]string, len(selected))
		for i, a := range selected {
			names[i] = string(a)
		}
		return "", fmt.Errorf("only one action can run at a time, got: %s", strings.Join(names, ", "))
	}
	if o.DryRun && (len(selected) == 0 || selected[0] != actionSubmit) {
		return "", fmt.Errorf("--dry-run needs a job file")
	}
	if len(selected) == 0 {
		return "", nil
	}
	return selected[0], nil
}

func (o *RootOptions) run(cmd *cobra.Command, args []string) error {
	selected, err := o.selectAction(cmd, args)
	if err != nil {
		return err
	}
	if selected == "" {
		return cmd.Help()
	}

	settings, ok := util.GetSettings(cmd.Context())
	if !ok {
		return fmt.Errorf("settings were not loaded")
	}

	switch selected {
	case actionSubmit:
		return o.submit(cmd, settings, args[0])
	case actionJobs:
		return o.listJobs(cmd, settings)
	case actionInstanceTypes:
		return o.listInstanceTypes(cmd, settings)
	case actionLogs:
		return o.showLogs(cmd, settings)
	case actionKill:
		return o.kill(cmd, settings)
	default:
		return fmt.Errorf("unknown action %q", selected)
	}
}

// region is the region for listing and job lookups. Submissions resolve their
// region against the job file instead.
func (o *RootOptions) region(settings types.Settings) string {
	if o.Region != "" {
		return o.Region
	}
	return settings.Region
}

func (o *RootOptions) submit(cmd *cobra.Command, settings types.Settings, path string) error {
	ctx := cmd.Context()

	cfg, err := jobspec.Load(path)
	if err != nil {
		return err
	}
	cfg.ResolveRegion(o.Region, settings.Region)

	env := envvar.Snapshot()
	cfg = cfg.Expand(envvar.NewExpander(env))
	if err = jobspec.ValidateImage(cfg.Container.Image, settings.Images.AllowedPrefixes); err != nil {
		return err
	}

	builder := jobspec.Builder{
		AllowedImagePrefixes: settings.Images.AllowedPrefixes,
		StripPrefixes:        settings.Description.StripPrefixes,
		Env:                  env,
	}
	materializer := workspace.NewMaterializer(settings.Copy.WarnSize)
	wsOpts := cfg.Container.WorkspaceOptions()

	if o.DryRun {
		ws, resolveErr := materializer.Resolve(wsOpts)
		if resolveErr != nil {
			return resolveErr
		}
		req, buildErr := builder.Build(cfg, ws)
		if buildErr != nil {
			return buildErr
		}
		return output.OutputNonTabular(cmd, o.OutputOpts, req)
	}

	gateway, err := util.GetAPIClient(settings)
	if err != nil {
		return err
	}

	spinner, err := printer.NewSpinner(ctx, cmd.ErrOrStderr(), showProgress(cmd))
	if err != nil {
		return err
	}
	if wsOpts.RunFromCopy {
		spinner.NextStep("Copying workspace")
	} else {
		spinner.NextStep("Resolving workspace")
	}
	ws, err := materializer.Materialize(ctx, wsOpts)
	if err != nil {
		spinner.Done(false)
		return err
	}
	req, err := builder.Build(cfg, ws)
	if err != nil {
		spinner.Done(false)
		return err
	}

	spinner.NextStep("Submitting job")
	id, err := gateway.Submit(ctx, req)
	spinner.Done(err == nil)
	if err != nil {
		return err
	}

	log.Ctx(ctx).Debug().
		Str("job_id", id).
		Str("region", req.Region).
		Str("submit_dir", req.SubmitDir).
		Msg("job submitted")
	cmd.Println(id)
	return nil
}

func (o *RootOptions) listJobs(cmd *cobra.Command, settings types.Settings) error {
	gateway, err := util.GetAPIClient(settings)
	if err != nil {
		return err
	}
	summaries, err := gateway.List(cmd.Context(), o.region(settings))
	if err != nil {
		return err
	}
	return output.Output(cmd, jobColumns, o.OutputOpts, summaries)
}

func (o *RootOptions) listInstanceTypes(cmd *cobra.Command, settings types.Settings) error {
	gateway, err := util.GetAPIClient(settings)
	if err != nil {
		return err
	}
	instanceTypes, err := gateway.InstanceTypes(cmd.Context(), o.region(settings))
	if err != nil {
		return err
	}
	return output.Output(cmd, instanceTypeColumns, o.OutputOpts, instanceTypes)
}

func (o *RootOptions) showLogs(cmd *cobra.Command, settings types.Settings) error {
	ctx := cmd.Context()
	gateway, err := util.GetAPIClient(settings)
	if err != nil {
		return err
	}
	region := o.region(settings)
	id, err := resolveJob(ctx, gateway, region, o.Logs)
	if err != nil {
		return err
	}

	body, err := gateway.Logs(ctx, region, id)
	if err != nil {
		return err
	}
	defer closer.CloseWithLogOnError(ctx, "logs", body)

	if _, err = io.Copy(cmd.OutOrStdout(), body); err != nil {
		return fmt.Errorf("reading logs of job %s: %w", id, err)
	}
	return nil
}

func (o *RootOptions) kill(cmd *cobra.Command, settings types.Settings) error {
	ctx := cmd.Context()
	gateway, err := util.GetAPIClient(settings)
	if err != nil {
		return err
	}
	region := o.region(settings)
	id, err := resolveJob(ctx, gateway, region, o.Kill)
	if err != nil {
		return err
	}
	if err = gateway.Kill(ctx, region, id); err != nil {
		return err
	}
	cmd.Println(id)
	return nil
}

// resolveJob expands a job id fragment against the jobs listed in region.
func resolveJob(ctx context.Context, gateway client.Gateway, region string, fragment string) (string, error) {
	if err := jobs.ValidateFragment(fragment); err != nil {
		return "", err
	}
	summaries, err := gateway.List(ctx, region)
	if err != nil {
		return "", err
	}
	id, err := jobs.ResolveID(fragment, region, summaries)
	if err != nil {
		return "", err
	}
	log.Ctx(ctx).Debug().Str("fragment", fragment).Str("job_id", id).Msg("resolved job")
	return id, nil
}

// showProgress is true when stderr is an interactive terminal.
func showProgress(cmd *cobra.Command) bool {
	f, ok := cmd.ErrOrStderr().(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}
