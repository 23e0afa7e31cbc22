package jobspec

import (
	"fmt"
	"strings"

	"github.com/bacalhau-project/cryri/pkg/cryerrors"
	"github.com/bacalhau-project/cryri/pkg/lib/envvar"
	"github.com/bacalhau-project/cryri/pkg/models"
	"github.com/bacalhau-project/cryri/pkg/workspace"
)

const teamNameVar = "TEAM_NAME"

// Builder turns an expanded JobConfig and its materialized workspace into a
// JobRequest. It does no network or filesystem access.
type Builder struct {
	AllowedImagePrefixes []string
	// StripPrefixes are removed from the submit directory when deriving a
	// description. The first matching prefix wins.
	StripPrefixes []string
	// Env is the invoking process environment, consulted for TEAM_NAME.
	Env envvar.Env
}

func (b Builder) Build(cfg JobConfig, ws workspace.ResolvedWorkspace) (*models.JobRequest, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := ValidateImage(cfg.Container.Image, b.AllowedImagePrefixes); err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.Cloud.Region) == "" {
		return nil, cryerrors.NewValidationError("cloud.region", "must not be empty")
	}
	if ws.SubmitDir == "" {
		return nil, cryerrors.NewValidationError("container.work_dir", "no submit directory was resolved")
	}

	return &models.JobRequest{
		Image:              cfg.Container.Image,
		Command:            cfg.Container.Command,
		Script:             RunScript(ws.SubmitDir, cfg.Container.Command),
		Environment:        cfg.Container.Environment,
		SubmitDir:          ws.SubmitDir,
		Region:             cfg.Cloud.Region,
		InstanceType:       cfg.Cloud.InstanceType,
		NWorkers:           cfg.Cloud.NWorkers,
		ProcessesPerWorker: cfg.Cloud.ProcessesPerWorker,
		Priority:           cfg.Cloud.Priority,
		Description:        b.description(cfg, ws.SubmitDir),
		Type:               models.JobTypeBinary,
	}, nil
}

// description names the directory the job runs from, so a run copy is
// identifiable by its snapshot name.
func (b Builder) description(cfg JobConfig, submitDir string) string {
	desc := cfg.Cloud.Description
	if desc == "" {
		desc = submitDir
		for _, prefix := range b.StripPrefixes {
			if prefix != "" && strings.HasPrefix(desc, prefix) {
				desc = strings.TrimPrefix(desc, prefix)
				break
			}
		}
		desc = strings.ReplaceAll(desc, "/", "-")
	}

	team := cfg.Container.Environment[teamNameVar]
	if team == "" {
		team, _ = b.Env.Lookup(teamNameVar)
	}
	if team != "" {
		desc = fmt.Sprintf("%s #%s", desc, team)
	}
	return desc
}

// RunScript wraps command so that it runs from dir:
//
//	bash -c "cd '<dir>' && <command>"
//
// Double quotes in command are escaped. The command is otherwise passed
// through untouched, so variables in it are expanded remotely.
func RunScript(dir string, command string) string {
	quotedCommand := strings.ReplaceAll(command, `"`, `\"`)
	return fmt.Sprintf(`bash -c "cd %s && %s"`, quoteDir(dir), quotedCommand)
}

var doubleQuoteEscaper = strings.NewReplacer(`\`, `\\`, `$`, `\$`, "`", "\\`", `"`, `\"`)

// quoteDir single-quotes dir for the inner shell, then escapes the result
// for the surrounding double quotes.
func quoteDir(dir string) string {
	single := "'" + strings.ReplaceAll(dir, "'", `'\''`) + "'"
	return doubleQuoteEscaper.Replace(single)
}
