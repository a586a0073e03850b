package repo

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/vclabs/vc/pkg/object"
)

// StagedKind labels how a staged path differs from the committed tree.
type StagedKind string

const (
	StagedNew      StagedKind = "new file"
	StagedModified StagedKind = "modified"
)

// StagedChange is one staged-for-commit entry.
type StagedChange struct {
	Path string
	Kind StagedKind
}

// Status is the three-way comparison of staged, committed, and on-disk
// state: four disjoint, independently path-sorted lists.
type Status struct {
	Branch    string // current branch name, "" when detached
	Detached  bool
	HasCommit bool

	Staged    []StagedChange // staged, differing from (or absent in) HEAD tree
	NotStaged []string       // on-disk content differs from the staged blob
	Untracked []string       // on disk, in neither staging nor HEAD tree
	Deleted   []string       // staged or committed, but gone from disk
}

// Clean reports a working tree with nothing to show.
func (s *Status) Clean() bool {
	return len(s.Staged) == 0 && len(s.NotStaged) == 0 &&
		len(s.Untracked) == 0 && len(s.Deleted) == 0
}

// Status computes the working tree status:
//
//  1. Read the staging index.
//  2. Flatten the HEAD commit's tree (empty if no commits yet).
//  3. Walk the working directory, skipping .vc/ and ignored paths.
//  4. Bucket every path into exactly one of the four lists.
func (r *Repo) Status() (*Status, error) {
	st := &Status{}

	branch, err := r.CurrentBranch()
	if err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}
	st.Branch = branch
	st.Detached = branch == ""

	stg, err := r.ReadStaging()
	if err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}

	committed, err := r.headTreePathHashes()
	if err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}
	st.HasCommit = committed != nil
	if committed == nil {
		committed = make(map[string]object.Hash)
	}

	working, err := r.walkWorkingTree()
	if err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}

	// Staged for commit: in staging, differing from or absent in HEAD tree.
	for path, se := range stg.Entries {
		headHash, inHead := committed[path]
		switch {
		case !inHead:
			st.Staged = append(st.Staged, StagedChange{Path: path, Kind: StagedNew})
		case se.BlobHash != headHash:
			st.Staged = append(st.Staged, StagedChange{Path: path, Kind: StagedModified})
		}
	}

	// Not staged: on disk and staged, with differing content.
	for path, se := range stg.Entries {
		if !working[path] {
			continue
		}
		differs, err := r.workingFileDiffers(path, se)
		if err != nil {
			return nil, fmt.Errorf("status: %w", err)
		}
		if differs {
			st.NotStaged = append(st.NotStaged, path)
		}
	}

	// Untracked: on disk, known to neither staging nor HEAD tree.
	for path := range working {
		_, staged := stg.Entries[path]
		_, inHead := committed[path]
		if !staged && !inHead {
			st.Untracked = append(st.Untracked, path)
		}
	}

	// Deleted: tracked (staged or committed) but gone from disk.
	deleted := make(map[string]struct{})
	for path := range stg.Entries {
		if !working[path] {
			deleted[path] = struct{}{}
		}
	}
	for path := range committed {
		if !working[path] {
			deleted[path] = struct{}{}
		}
	}
	for path := range deleted {
		st.Deleted = append(st.Deleted, path)
	}

	sort.Slice(st.Staged, func(i, j int) bool { return st.Staged[i].Path < st.Staged[j].Path })
	sort.Strings(st.NotStaged)
	sort.Strings(st.Untracked)
	sort.Strings(st.Deleted)

	return st, nil
}

// workingFileDiffers reports whether the on-disk content no longer matches
// the staged blob. The xxh3 checksum short-circuits the common unchanged
// case; a differing checksum is confirmed against the blob hash, which is
// what actually defines identity.
func (r *Repo) workingFileDiffers(path string, se *StagingEntry) (bool, error) {
	content, err := os.ReadFile(r.workPath(path))
	if err != nil {
		return false, fmt.Errorf("read %q: %w", path, err)
	}
	if contentChecksum(content) == se.Checksum {
		return false, nil
	}
	return object.HashObject(object.TypeBlob, content) != se.BlobHash, nil
}

// headTreePathHashes flattens the HEAD commit's tree into a path → hash
// map. No commits yet returns nil. A resolvable HEAD whose objects cannot
// be read is an error: corruption never degrades into "file missing".
func (r *Repo) headTreePathHashes() (map[string]object.Hash, error) {
	headHash, err := r.ResolveRef("HEAD")
	if err != nil {
		if errors.Is(err, ErrNoCommitsYet) {
			return nil, nil
		}
		return nil, err
	}
	if headHash == "" {
		return nil, nil
	}

	commit, err := r.Store.ReadCommit(headHash)
	if err != nil {
		return nil, fmt.Errorf("read HEAD commit %s: %w", headHash, err)
	}
	return r.TreePathHashes(commit.TreeHash)
}

// walkWorkingTree collects the set of live repo-relative file paths,
// honoring the ignore rules.
func (r *Repo) walkWorkingTree() (map[string]bool, error) {
	ic := NewIgnoreChecker(r.RootDir)
	files := make(map[string]bool)

	err := filepath.WalkDir(r.RootDir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		rel, err := filepath.Rel(r.RootDir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}

		if ic.IsIgnored(rel) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if !d.IsDir() && d.Type().IsRegular() {
			files[rel] = true
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk working tree: %w", err)
	}
	return files, nil
}
