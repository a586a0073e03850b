package repo

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/vclabs/vc/pkg/object"
)

// Repo represents an opened vc repository. It is an explicit handle
// constructed once per command invocation and threaded through every
// operation; there is no ambient global repository state.
type Repo struct {
	RootDir string        // working directory root
	VCDir   string        // .vc/ directory
	Store   *object.Store // content-addressed object store
}

// repoRelPath converts a path (absolute, or relative to CWD) into a
// forward-slash path relative to the repository root. Paths outside the
// repository are treated as already repo-relative.
func (r *Repo) repoRelPath(p string) (string, error) {
	if filepath.IsAbs(p) {
		rel, err := filepath.Rel(r.RootDir, p)
		if err != nil {
			return "", fmt.Errorf("cannot make %q relative to %q: %w", p, r.RootDir, err)
		}
		return filepath.ToSlash(rel), nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return filepath.ToSlash(filepath.Clean(p)), nil
	}

	abs := filepath.Join(cwd, p)
	rel, err := filepath.Rel(r.RootDir, abs)
	if err != nil {
		return filepath.ToSlash(filepath.Clean(p)), nil
	}
	if len(rel) >= 2 && rel[:2] == ".." {
		return filepath.ToSlash(filepath.Clean(p)), nil
	}
	return filepath.ToSlash(rel), nil
}

// workPath returns the absolute working-directory path for a repo-relative
// forward-slash path.
func (r *Repo) workPath(rel string) string {
	return filepath.Join(r.RootDir, filepath.FromSlash(rel))
}
