// Package workspace decides which directory a job runs from and, for
// run_from_copy jobs, produces an isolated snapshot of the working directory.
//
// Snapshots are written to a hidden staging directory that is created
// exclusively by one invocation and renamed into place once the whole tree
// has been copied. Concurrent invocations against the same working directory
// therefore never share a destination and never observe a partial copy.
// Snapshots are never deleted by this package.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/c2h5oh/datasize"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/bacalhau-project/cryri/pkg/cryerrors"
)

const (
	snapshotPrefix     = "run_"
	stagingSuffix      = ".partial"
	snapshotTimeFormat = "2006_01_02_1504"
	snapshotIDLength   = 8
	maxNameAttempts    = 5

	dirPerm = 0o755
)

var (
	errNotDirectory = errors.New("not a directory")

	snapshotNamePattern = regexp.MustCompile(`^run_\d{4}_\d{2}_\d{2}_\d{4}_[0-9a-f]{8}$`)
)

// isSnapshotEntry reports whether name is a snapshot or a staging directory
// written by a Materializer.
func isSnapshotEntry(name string) bool {
	if strings.HasPrefix(name, ".") && strings.HasSuffix(name, stagingSuffix) {
		name = strings.TrimSuffix(strings.TrimPrefix(name, "."), stagingSuffix)
	}
	return snapshotNamePattern.MatchString(name)
}

// ResolvedWorkspace is where a job runs from. SubmitDir equals SourceDir
// unless IsCopy is set.
type ResolvedWorkspace struct {
	SourceDir string            `json:"source_dir" yaml:"source_dir"`
	SubmitDir string            `json:"submit_dir" yaml:"submit_dir"`
	IsCopy    bool              `json:"is_copy" yaml:"is_copy"`
	Files     int               `json:"files,omitempty" yaml:"files,omitempty"`
	Bytes     datasize.ByteSize `json:"bytes,omitempty" yaml:"bytes,omitempty"`
}

type Options struct {
	// WorkDir is the expanded work_dir. Empty means the process working
	// directory.
	WorkDir     string
	RunFromCopy bool
	// CopyDir is the expanded cry_copy_dir. Required with RunFromCopy.
	CopyDir string
	// Exclude holds doublestar patterns matched against both the base name
	// and the slash separated path relative to WorkDir.
	Exclude []string
}

type Materializer struct {
	// WarnSize logs a warning when a snapshot is larger. Zero disables it.
	WarnSize datasize.ByteSize

	now   func() time.Time
	newID func() string
}

func NewMaterializer(warnSize datasize.ByteSize) *Materializer {
	return &Materializer{
		WarnSize: warnSize,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Resolve returns the workspace a job would run from without writing
// anything. For copy mode SubmitDir is left as the source directory.
func (m *Materializer) Resolve(opts Options) (ResolvedWorkspace, error) {
	if err := validateOptions(opts); err != nil {
		return ResolvedWorkspace{}, err
	}
	source, err := resolveSourceDir(opts.WorkDir)
	if err != nil {
		return ResolvedWorkspace{}, err
	}
	return ResolvedWorkspace{SourceDir: source, SubmitDir: source}, nil
}

// Materialize resolves the working directory and, when RunFromCopy is set,
// copies it into a new uniquely named directory under CopyDir.
func (m *Materializer) Materialize(ctx context.Context, opts Options) (ResolvedWorkspace, error) {
	ws, err := m.Resolve(opts)
	if err != nil || !opts.RunFromCopy {
		return ws, err
	}

	copyRoot, err := prepareCopyRoot(opts.CopyDir)
	if err != nil {
		return ResolvedWorkspace{}, err
	}

	p, err := newPlanner(ws.SourceDir, copyRoot, opts.Exclude).plan(ctx)
	if err != nil {
		return ResolvedWorkspace{}, err
	}
	if m.WarnSize > 0 && p.bytes > m.WarnSize {
		log.Ctx(ctx).Warn().
			Str("work_dir", ws.SourceDir).
			Str("size", p.bytes.HR()).
			Str("threshold", m.WarnSize.HR()).
			Msg("working directory is large, copying it may take a while")
	}

	staging, final, err := m.createStaging(copyRoot)
	if err != nil {
		return ResolvedWorkspace{}, err
	}
	log.Ctx(ctx).Debug().
		Str("source", ws.SourceDir).
		Str("staging", staging).
		Int("files", p.files).
		Msg("copying working directory")

	if err = p.copyInto(ctx, staging); err != nil {
		return ResolvedWorkspace{}, err
	}
	if err = os.Rename(staging, final); err != nil {
		return ResolvedWorkspace{}, cryerrors.NewWorkspaceError("rename", staging, err)
	}

	log.Ctx(ctx).Info().
		Str("snapshot", final).
		Int("files", p.files).
		Str("size", p.bytes.HR()).
		Msg("created run copy")

	ws.SubmitDir = final
	ws.IsCopy = true
	ws.Files = p.files
	ws.Bytes = p.bytes
	return ws, nil
}

func validateOptions(opts Options) error {
	if opts.RunFromCopy && strings.TrimSpace(opts.CopyDir) == "" {
		return cryerrors.NewValidationError("container.cry_copy_dir", "must be set when run_from_copy is true")
	}
	for _, pattern := range opts.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return cryerrors.NewValidationError("container.exclude_from_copy", "invalid pattern %q", pattern)
		}
	}
	return nil
}

// resolveSourceDir returns the absolute, symlink free path of workDir and
// checks that it is a readable directory.
func resolveSourceDir(workDir string) (string, error) {
	if workDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", cryerrors.NewWorkspaceError("resolve", ".", err)
		}
		workDir = cwd
	}
	abs, err := filepath.Abs(workDir)
	if err != nil {
		return "", cryerrors.NewWorkspaceError("resolve", workDir, err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", cryerrors.NewWorkspaceError("resolve", abs, err)
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return "", cryerrors.NewWorkspaceError("stat", resolved, err)
	}
	if !info.IsDir() {
		return "", cryerrors.NewWorkspaceError("resolve", resolved, errNotDirectory)
	}
	f, err := os.Open(resolved)
	if err != nil {
		return "", cryerrors.NewWorkspaceError("read", resolved, err)
	}
	defer f.Close()
	if _, err = f.Readdirnames(1); err != nil && !errors.Is(err, io.EOF) {
		return "", cryerrors.NewWorkspaceError("read", resolved, err)
	}
	return resolved, nil
}

func prepareCopyRoot(copyDir string) (string, error) {
	abs, err := filepath.Abs(copyDir)
	if err != nil {
		return "", cryerrors.NewWorkspaceError("resolve", copyDir, err)
	}
	if err = os.MkdirAll(abs, dirPerm); err != nil {
		return "", cryerrors.NewWorkspaceError("create", abs, err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", cryerrors.NewWorkspaceError("resolve", abs, err)
	}
	return resolved, nil
}

func (m *Materializer) snapshotName() string {
	id := strings.ReplaceAll(m.newID(), "-", "")
	if len(id) > snapshotIDLength {
		id = id[:snapshotIDLength]
	}
	return fmt.Sprintf("%s%s_%s", snapshotPrefix, m.now().Format(snapshotTimeFormat), id)
}

// createStaging exclusively creates the staging directory for a fresh
// snapshot name, retrying with a new name when one is already taken.
func (m *Materializer) createStaging(copyRoot string) (staging string, final string, err error) {
	for attempt := 0; attempt < maxNameAttempts; attempt++ {
		name := m.snapshotName()
		staging = filepath.Join(copyRoot, "."+name+stagingSuffix)
		final = filepath.Join(copyRoot, name)

		if _, statErr := os.Lstat(final); statErr == nil {
			continue
		}
		err = os.Mkdir(staging, dirPerm)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", "", cryerrors.NewWorkspaceError("create", staging, err)
		}
		return staging, final, nil
	}
	return "", "", cryerrors.NewWorkspaceError("create", copyRoot,
		fmt.Errorf("no free snapshot name after %d attempts", maxNameAttempts))
}
