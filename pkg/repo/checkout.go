package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vclabs/vc/pkg/object"
)

// Checkout switches the working directory to the state of target, which is
// either a branch name or a raw commit hash.
//
//  1. Resolve target: an existing branch makes HEAD symbolic; an existing
//     commit hash detaches HEAD; anything else fails with ErrTargetNotFound.
//  2. OLD = file paths in the tree of the currently checked-out commit.
//  3. NEW = file paths in the destination commit's tree.
//  4. Delete every working file in OLD \ NEW, pruning emptied directories.
//  5. Materialize every entry of the destination tree.
//  6. Clear the staging index: the destination commit is the new baseline.
//  7. Update HEAD last, so an interrupted switch leaves HEAD on the
//     pre-checkout state instead of declaring a move that never finished.
func (r *Repo) Checkout(target string) error {
	head, err := r.Head()
	if err != nil {
		return fmt.Errorf("checkout: %w", err)
	}

	// 1. Resolve target.
	var destHash object.Hash
	var newHead string
	switch {
	case r.BranchExists(target):
		h, err := r.BranchCommit(target)
		if err != nil {
			return fmt.Errorf("checkout: %w", err)
		}
		destHash = h
		newHead = "ref: " + headsPrefix + target

	case head == headsPrefix+target:
		// The unborn branch HEAD already points at: destination is the
		// empty tree.
		destHash = ""
		newHead = "ref: " + headsPrefix + target

	default:
		h := object.Hash(target)
		if _, err := r.Store.ReadCommit(h); err != nil {
			return fmt.Errorf("checkout %q: %w", target, ErrTargetNotFound)
		}
		destHash = h
		newHead = target
	}

	// 2. OLD: paths of the commit currently checked out (empty if none).
	oldFiles := make(map[string]object.Hash)
	var oldCommit object.Hash
	if currentHash, err := r.ResolveRef("HEAD"); err == nil && currentHash != "" {
		oldCommit = currentHash
		current, err := r.Store.ReadCommit(currentHash)
		if err != nil {
			return fmt.Errorf("checkout: read current commit %s: %w", currentHash, err)
		}
		oldFiles, err = r.TreePathHashes(current.TreeHash)
		if err != nil {
			return fmt.Errorf("checkout: flatten current tree: %w", err)
		}
	}

	// 3. NEW: paths of the destination tree (empty for an unborn branch).
	var newFiles []TreeFileEntry
	newPaths := make(map[string]struct{})
	if destHash != "" {
		commit, err := r.Store.ReadCommit(destHash)
		if err != nil {
			return fmt.Errorf("checkout: read commit %s: %w", destHash, err)
		}
		newFiles, err = r.FlattenTree(commit.TreeHash)
		if err != nil {
			return fmt.Errorf("checkout: flatten target tree: %w", err)
		}
		for _, f := range newFiles {
			newPaths[f.Path] = struct{}{}
		}
	}

	// 4. Remove files unique to the tree being left.
	for path := range oldFiles {
		if _, kept := newPaths[path]; kept {
			continue
		}
		absPath := r.workPath(path)
		if err := os.Remove(absPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("checkout: remove %q: %w", path, err)
		}
		r.removeEmptyParents(filepath.Dir(absPath))
	}

	// 5. Materialize the destination tree. Overwriting an identical file is
	// fine; correctness needs no skip optimization.
	for _, f := range newFiles {
		absPath := r.workPath(f.Path)
		if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
			return fmt.Errorf("checkout: mkdir for %q: %w", f.Path, err)
		}

		blob, err := r.Store.ReadBlob(f.BlobHash)
		if err != nil {
			return fmt.Errorf("checkout: read blob for %q: %w", f.Path, err)
		}
		if err := os.WriteFile(absPath, blob.Data, 0o644); err != nil {
			return fmt.Errorf("checkout: write %q: %w", f.Path, err)
		}
	}

	// 6. Clear the staging index.
	if err := r.WriteStaging(&Staging{Entries: make(map[string]*StagingEntry)}); err != nil {
		return fmt.Errorf("checkout: %w", err)
	}

	// 7. Update HEAD last.
	if err := r.setHead(newHead); err != nil {
		return fmt.Errorf("checkout: %w", err)
	}

	if err := r.appendReflog("HEAD", oldCommit, destHash, "checkout: moving to "+target); err != nil {
		return fmt.Errorf("checkout: reflog: %w", err)
	}

	return nil
}

// removeEmptyParents removes empty directories up to (but not including)
// the repository root.
func (r *Repo) removeEmptyParents(dir string) {
	for {
		if dir == r.RootDir || !strings.HasPrefix(dir, r.RootDir) {
			return
		}

		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			return
		}

		os.Remove(dir)
		dir = filepath.Dir(dir)
	}
}
