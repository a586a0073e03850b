package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vclabs/vc/pkg/object"
)

// DefaultBranch is the branch HEAD points at in a fresh repository.
const DefaultBranch = "master"

// Init creates a new vc repository at path. It creates the .vc/ directory
// structure: HEAD, objects/, refs/heads/, logs/, and a default config.
// Fails with ErrAlreadyInitialized if a .vc/ directory already exists.
func Init(path string, initialBranch string) (*Repo, error) {
	vcDir := filepath.Join(path, ".vc")

	if _, err := os.Stat(vcDir); err == nil {
		return nil, fmt.Errorf("init %s: %w", vcDir, ErrAlreadyInitialized)
	}

	if strings.TrimSpace(initialBranch) == "" {
		initialBranch = DefaultBranch
	}

	dirs := []string{
		filepath.Join(vcDir, "objects"),
		filepath.Join(vcDir, "refs", "heads"),
		filepath.Join(vcDir, "logs", "refs", "heads"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, fmt.Errorf("init: mkdir %s: %w", d, err)
		}
	}

	headPath := filepath.Join(vcDir, "HEAD")
	if err := os.WriteFile(headPath, []byte("ref: refs/heads/"+initialBranch+"\n"), 0o644); err != nil {
		return nil, fmt.Errorf("init: write HEAD: %w", err)
	}

	r := &Repo{
		RootDir: path,
		VCDir:   vcDir,
		Store:   object.NewStore(vcDir),
	}

	cfg := defaultConfig()
	cfg.Core.DefaultBranch = initialBranch
	if err := r.WriteConfig(cfg); err != nil {
		return nil, fmt.Errorf("init: %w", err)
	}
	return r, nil
}

// Open searches upward from path for a .vc/ directory and opens the
// repository. Fails with ErrNotARepository if none is found.
func Open(path string) (*Repo, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("open: abs path: %w", err)
	}

	cur := abs
	for {
		vcDir := filepath.Join(cur, ".vc")
		info, err := os.Stat(vcDir)
		if err == nil && info.IsDir() {
			return &Repo{
				RootDir: cur,
				VCDir:   vcDir,
				Store:   object.NewStore(vcDir),
			}, nil
		}

		parent := filepath.Dir(cur)
		if parent == cur {
			return nil, fmt.Errorf("open %s: %w", path, ErrNotARepository)
		}
		cur = parent
	}
}
