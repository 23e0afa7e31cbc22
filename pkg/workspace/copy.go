package workspace

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/c2h5oh/datasize"
	"github.com/rs/zerolog/log"

	"github.com/bacalhau-project/cryri/pkg/cryerrors"
	"github.com/bacalhau-project/cryri/pkg/util/closer"
)

type entry struct {
	// rel is slash separated and relative to the source directory.
	rel  string
	src  string
	mode fs.FileMode
	dir  bool
}

type copyPlan struct {
	entries []entry
	files   int
	bytes   datasize.ByteSize
}

type planner struct {
	source   string
	copyRoot string
	exclude  []string

	// ancestors holds the resolved directories on the current walk path.
	ancestors map[string]bool
	result    *copyPlan
}

func newPlanner(source string, copyRoot string, exclude []string) *planner {
	return &planner{
		source:    source,
		copyRoot:  copyRoot,
		exclude:   exclude,
		ancestors: map[string]bool{},
		result:    &copyPlan{},
	}
}

// plan walks the source tree following symlinks and records everything that
// will be copied, so that size can be reported before anything is written.
func (p *planner) plan(ctx context.Context) (*copyPlan, error) {
	p.ancestors[p.source] = true
	if err := p.walk(ctx, p.source, ""); err != nil {
		return nil, err
	}
	return p.result, nil
}

func (p *planner) walk(ctx context.Context, dir string, rel string) error {
	if err := ctx.Err(); err != nil {
		return cryerrors.NewWorkspaceError("read", dir, err)
	}
	children, err := os.ReadDir(dir)
	if err != nil {
		return cryerrors.NewWorkspaceError("read", dir, err)
	}

	for _, child := range children {
		childRel := path.Join(rel, child.Name())
		src := filepath.Join(dir, child.Name())
		// the copy directory may be the working directory itself
		if dir == p.copyRoot && isSnapshotEntry(child.Name()) {
			log.Ctx(ctx).Debug().Str("path", childRel).Msg("not copying an earlier snapshot")
			continue
		}
		excluded, err := p.isExcluded(child.Name(), childRel)
		if err != nil {
			return err
		}
		if excluded {
			log.Ctx(ctx).Debug().Str("path", childRel).Msg("excluded from copy")
			continue
		}

		info, err := os.Stat(src)
		if err != nil {
			if lInfo, lErr := os.Lstat(src); lErr == nil && lInfo.Mode()&fs.ModeSymlink != 0 {
				log.Ctx(ctx).Warn().Str("path", src).Msg("skipping broken symlink")
				continue
			}
			return cryerrors.NewWorkspaceError("stat", src, err)
		}

		switch {
		case info.IsDir():
			if err = p.walkDir(ctx, src, childRel, info.Mode()); err != nil {
				return err
			}
		case info.Mode().IsRegular():
			p.result.entries = append(p.result.entries, entry{rel: childRel, src: src, mode: info.Mode()})
			p.result.files++
			p.result.bytes += datasize.ByteSize(info.Size())
		default:
			log.Ctx(ctx).Warn().Str("path", src).Str("mode", info.Mode().String()).
				Msg("skipping special file")
		}
	}
	return nil
}

func (p *planner) walkDir(ctx context.Context, src string, rel string, mode fs.FileMode) error {
	resolved, err := filepath.EvalSymlinks(src)
	if err != nil {
		return cryerrors.NewWorkspaceError("resolve", src, err)
	}
	if resolved == p.copyRoot {
		log.Ctx(ctx).Debug().Str("path", src).Msg("not copying the copy directory into itself")
		return nil
	}
	if p.ancestors[resolved] {
		log.Ctx(ctx).Warn().Str("path", src).Str("target", resolved).Msg("skipping symlink cycle")
		return nil
	}

	p.result.entries = append(p.result.entries, entry{rel: rel, src: src, mode: mode, dir: true})
	p.ancestors[resolved] = true
	defer delete(p.ancestors, resolved)
	return p.walk(ctx, src, rel)
}

func (p *planner) isExcluded(name string, rel string) (bool, error) {
	for _, pattern := range p.exclude {
		for _, candidate := range []string{name, rel} {
			matched, err := doublestar.Match(pattern, candidate)
			if err != nil {
				return false, cryerrors.NewValidationError("container.exclude_from_copy", "invalid pattern %q: %v", pattern, err)
			}
			if matched {
				return true, nil
			}
		}
	}
	return false, nil
}

// copyInto writes the planned tree below dest. Directory permissions are
// applied last so that read-only directories can still be filled.
func (c *copyPlan) copyInto(ctx context.Context, dest string) error {
	var dirs []entry
	for _, e := range c.entries {
		if err := ctx.Err(); err != nil {
			return cryerrors.NewWorkspaceError("copy", dest, err)
		}
		target := filepath.Join(dest, filepath.FromSlash(e.rel))
		if e.dir {
			if err := os.Mkdir(target, dirPerm); err != nil {
				return cryerrors.NewWorkspaceError("copy", target, err)
			}
			dirs = append(dirs, e)
			continue
		}
		if err := copyFile(ctx, e.src, target, e.mode.Perm()); err != nil {
			return err
		}
	}

	for i := len(dirs) - 1; i >= 0; i-- {
		target := filepath.Join(dest, filepath.FromSlash(dirs[i].rel))
		if err := os.Chmod(target, dirs[i].mode.Perm()); err != nil {
			return cryerrors.NewWorkspaceError("chmod", target, err)
		}
	}
	return nil
}

func copyFile(ctx context.Context, src string, dst string, perm fs.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return cryerrors.NewWorkspaceError("read", src, err)
	}
	defer closer.CloseWithLogOnError(ctx, src, in)

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return cryerrors.NewWorkspaceError("copy", dst, err)
	}
	if _, err = io.Copy(out, in); err != nil {
		_ = out.Close()
		return cryerrors.NewWorkspaceError("copy", dst, fmt.Errorf("copying from %s: %w", src, err))
	}
	if err = out.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		return cryerrors.NewWorkspaceError("copy", dst, err)
	}
	if err = os.Chmod(dst, perm); err != nil {
		return cryerrors.NewWorkspaceError("chmod", dst, err)
	}
	return nil
}
