package repo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/vclabs/vc/pkg/object"
)

const (
	refLockRetryDelay = 5 * time.Millisecond
	refLockWaitLimit  = 2 * time.Second

	headsPrefix = "refs/heads/"
)

// Head reads .vc/HEAD. If the content starts with "ref: ", it returns the
// ref path (e.g. "refs/heads/master"). Otherwise it returns the raw content
// as a detached hash string.
func (r *Repo) Head() (string, error) {
	data, err := os.ReadFile(filepath.Join(r.VCDir, "HEAD"))
	if err != nil {
		return "", fmt.Errorf("head: %w", err)
	}
	content := strings.TrimRight(string(data), "\n")

	if strings.HasPrefix(content, "ref: ") {
		return strings.TrimPrefix(content, "ref: "), nil
	}
	return content, nil
}

// CurrentBranch returns the branch name HEAD symbolically points at, or ""
// when HEAD is detached.
func (r *Repo) CurrentBranch() (string, error) {
	head, err := r.Head()
	if err != nil {
		return "", fmt.Errorf("current branch: %w", err)
	}
	if strings.HasPrefix(head, headsPrefix) {
		return strings.TrimPrefix(head, headsPrefix), nil
	}
	return "", nil
}

// setHead atomically replaces .vc/HEAD with the given content (either
// "ref: refs/heads/<name>" or a raw commit hash). A reader never observes a
// half-written HEAD.
func (r *Repo) setHead(content string) error {
	headPath := filepath.Join(r.VCDir, "HEAD")
	lockPath := headPath + ".lock"

	lockFile, err := acquireRefLock(lockPath)
	if err != nil {
		return fmt.Errorf("set HEAD: lock: %w", err)
	}
	cleanupLock := true
	defer func() {
		if lockFile != nil {
			_ = lockFile.Close()
		}
		if cleanupLock {
			_ = os.Remove(lockPath)
		}
	}()

	if _, err := lockFile.WriteString(content + "\n"); err != nil {
		return fmt.Errorf("set HEAD: write: %w", err)
	}
	if err := lockFile.Sync(); err != nil {
		return fmt.Errorf("set HEAD: sync: %w", err)
	}
	if err := lockFile.Close(); err != nil {
		lockFile = nil
		return fmt.Errorf("set HEAD: close: %w", err)
	}
	lockFile = nil

	if err := os.Rename(lockPath, headPath); err != nil {
		return fmt.Errorf("set HEAD: rename: %w", err)
	}
	cleanupLock = false
	return nil
}

// ResolveRef resolves a ref name to an object hash.
//
// Resolution order:
//  1. "HEAD": read HEAD; if symbolic, resolve the target ref; if detached,
//     the value is the hash.
//  2. Names starting with "refs/" read .vc/<name>.
//  3. Anything else tries "refs/heads/<name>".
//
// A symbolic HEAD whose branch has no ref file yet (unborn branch) fails
// with ErrNoCommitsYet.
func (r *Repo) ResolveRef(name string) (object.Hash, error) {
	if name == "HEAD" {
		head, err := r.Head()
		if err != nil {
			return "", err
		}
		if strings.HasPrefix(head, "refs/") {
			return r.ResolveRef(head)
		}
		return object.Hash(head), nil
	}

	var refPath string
	if strings.HasPrefix(name, "refs/") {
		refPath = filepath.Join(r.VCDir, filepath.FromSlash(name))
	} else {
		refPath = filepath.Join(r.VCDir, "refs", "heads", name)
	}

	data, err := os.ReadFile(refPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("resolve ref %q: %w", name, ErrNoCommitsYet)
		}
		return "", fmt.Errorf("resolve ref %q: %w", name, err)
	}
	return object.Hash(strings.TrimSpace(string(data))), nil
}

// UpdateRefCAS writes a hash to the named ref file under .vc/ using
// lockfile + fsync + rename semantics, so no reader ever observes a torn
// ref. If expectedOld is provided, the update only succeeds when the
// current ref hash matches it; a mismatch fails with ErrRefCASMismatch and
// leaves the ref untouched. Every successful update appends a reflog entry.
func (r *Repo) UpdateRefCAS(name string, h object.Hash, expectedOld ...object.Hash) error {
	if len(expectedOld) > 1 {
		return fmt.Errorf("update ref %q: expected at most one old hash", name)
	}

	refPath := filepath.Join(r.VCDir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(refPath), 0o755); err != nil {
		return fmt.Errorf("update ref %q: mkdir: %w", name, err)
	}

	lockPath := refPath + ".lock"
	lockFile, err := acquireRefLock(lockPath)
	if err != nil {
		return fmt.Errorf("update ref %q: lock: %w", name, err)
	}
	cleanupLock := true
	defer func() {
		if lockFile != nil {
			_ = lockFile.Close()
		}
		if cleanupLock {
			_ = os.Remove(lockPath)
		}
	}()

	oldHash, err := readRefHash(refPath)
	if err != nil {
		return fmt.Errorf("update ref %q: read old hash: %w", name, err)
	}
	if len(expectedOld) == 1 && oldHash != expectedOld[0] {
		return fmt.Errorf(
			"update ref %q: %w (expected %q, found %q)",
			name, ErrRefCASMismatch, expectedOld[0], oldHash,
		)
	}

	if _, err := lockFile.WriteString(string(h) + "\n"); err != nil {
		return fmt.Errorf("update ref %q: write: %w", name, err)
	}
	if err := lockFile.Sync(); err != nil {
		return fmt.Errorf("update ref %q: sync: %w", name, err)
	}
	if err := lockFile.Close(); err != nil {
		lockFile = nil
		return fmt.Errorf("update ref %q: close: %w", name, err)
	}
	lockFile = nil

	if err := os.Rename(lockPath, refPath); err != nil {
		return fmt.Errorf("update ref %q: rename: %w", name, err)
	}
	cleanupLock = false

	if err := r.appendReflog(name, oldHash, h, "update"); err != nil {
		return fmt.Errorf("update ref %q: reflog: %w", name, err)
	}
	return nil
}

func acquireRefLock(lockPath string) (*os.File, error) {
	deadline := time.Now().Add(refLockWaitLimit)
	for {
		f, err := os.OpenFile(lockPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return f, nil
		}
		if os.IsExist(err) {
			if time.Now().After(deadline) {
				return nil, fmt.Errorf("timeout waiting for lock %q", lockPath)
			}
			time.Sleep(refLockRetryDelay)
			continue
		}
		return nil, err
	}
}

func readRefHash(refPath string) (object.Hash, error) {
	data, err := os.ReadFile(refPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	return object.Hash(strings.TrimSpace(string(data))), nil
}

// ---------------------------------------------------------------------------
// Branches
// ---------------------------------------------------------------------------

// BranchExists reports whether .vc/refs/heads/<name> exists.
func (r *Repo) BranchExists(name string) bool {
	info, err := os.Stat(filepath.Join(r.VCDir, "refs", "heads", name))
	return err == nil && !info.IsDir()
}

// CreateBranch creates a new branch pointing at the given target hash.
// Fails with ErrBranchAlreadyExists if the ref file is present. Creation is
// a CAS against the empty hash, so two racing creators cannot both win.
func (r *Repo) CreateBranch(name string, target object.Hash) error {
	if err := r.UpdateRefCAS(headsPrefix+name, target, ""); err != nil {
		if errors.Is(err, ErrRefCASMismatch) {
			return fmt.Errorf("create branch %q: %w", name, ErrBranchAlreadyExists)
		}
		return fmt.Errorf("create branch %q: %w", name, err)
	}
	return nil
}

// CreateBranchAtHead creates a branch anchored at the current commit.
// Fails with ErrNoCommitsYet when the repository has no commit to anchor
// the new ref to, so a branch ref is never left dangling.
func (r *Repo) CreateBranchAtHead(name string) error {
	current, err := r.ResolveRef("HEAD")
	if err != nil || current == "" {
		return fmt.Errorf("create branch %q: %w", name, ErrNoCommitsYet)
	}
	return r.CreateBranch(name, current)
}

// DeleteBranch removes .vc/refs/heads/<name>. Deleting the currently
// checked-out branch is rejected: it would leave HEAD pointing at nothing.
func (r *Repo) DeleteBranch(name string) error {
	current, err := r.CurrentBranch()
	if err != nil {
		return fmt.Errorf("delete branch: %w", err)
	}
	if current == name {
		return fmt.Errorf("delete branch: %q is the current branch", name)
	}

	refPath := filepath.Join(r.VCDir, "refs", "heads", name)
	if err := os.Remove(refPath); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("delete branch %q: %w", name, ErrBranchNotFound)
		}
		return fmt.Errorf("delete branch %q: %w", name, err)
	}
	return nil
}

// ListBranches reads .vc/refs/heads/ and returns the branch names sorted
// alphabetically.
func (r *Repo) ListBranches() ([]string, error) {
	headsDir := filepath.Join(r.VCDir, "refs", "heads")

	entries, err := os.ReadDir(headsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list branches: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || strings.HasSuffix(e.Name(), ".lock") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// BranchCommit returns the commit hash a branch points at. Fails with
// ErrBranchNotFound if the ref file does not exist.
func (r *Repo) BranchCommit(name string) (object.Hash, error) {
	h, err := readRefHash(filepath.Join(r.VCDir, "refs", "heads", name))
	if err != nil {
		return "", fmt.Errorf("branch %q: %w", name, err)
	}
	if h == "" {
		return "", fmt.Errorf("branch %q: %w", name, ErrBranchNotFound)
	}
	return h, nil
}
