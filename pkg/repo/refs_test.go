package repo

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vclabs/vc/pkg/object"
)

func fakeCommitHash(t *testing.T, r *Repo, msg string) object.Hash {
	t.Helper()
	h, err := r.Store.WriteCommit(&object.CommitObj{
		TreeHash:  mustEmptyTree(t, r),
		Author:    "tester",
		Committer: "tester",
		Timestamp: 1700000000,
		TZ:        "+0000",
		Message:   msg,
	})
	if err != nil {
		t.Fatalf("write commit: %v", err)
	}
	return h
}

func mustEmptyTree(t *testing.T, r *Repo) object.Hash {
	t.Helper()
	h, err := r.Store.WriteTree(&object.TreeObj{})
	if err != nil {
		t.Fatalf("write empty tree: %v", err)
	}
	return h
}

func TestHeadSymbolicAndDetached(t *testing.T) {
	r := newTestRepo(t)

	head, err := r.Head()
	if err != nil {
		t.Fatalf("Head: %v", err)
	}
	if head != "refs/heads/master" {
		t.Errorf("expected refs/heads/master, got %q", head)
	}

	branch, err := r.CurrentBranch()
	if err != nil {
		t.Fatalf("CurrentBranch: %v", err)
	}
	if branch != "master" {
		t.Errorf("expected master, got %q", branch)
	}

	h := fakeCommitHash(t, r, "detach")
	if err := r.setHead(string(h)); err != nil {
		t.Fatalf("setHead: %v", err)
	}
	branch, err = r.CurrentBranch()
	if err != nil {
		t.Fatalf("CurrentBranch detached: %v", err)
	}
	if branch != "" {
		t.Errorf("expected empty branch when detached, got %q", branch)
	}

	resolved, err := r.ResolveRef("HEAD")
	if err != nil {
		t.Fatalf("ResolveRef detached: %v", err)
	}
	if resolved != h {
		t.Errorf("expected %s, got %s", h, resolved)
	}
}

func TestResolveRefUnbornBranch(t *testing.T) {
	r := newTestRepo(t)

	_, err := r.ResolveRef("HEAD")
	if !errors.Is(err, ErrNoCommitsYet) {
		t.Errorf("expected ErrNoCommitsYet, got %v", err)
	}
}

func TestUpdateRefCAS(t *testing.T) {
	r := newTestRepo(t)
	h1 := fakeCommitHash(t, r, "one")
	h2 := fakeCommitHash(t, r, "two")

	// Creation is a CAS against the empty hash.
	if err := r.UpdateRefCAS("refs/heads/master", h1, ""); err != nil {
		t.Fatalf("create ref: %v", err)
	}
	got, err := r.ResolveRef("master")
	if err != nil {
		t.Fatalf("ResolveRef: %v", err)
	}
	if got != h1 {
		t.Errorf("expected %s, got %s", h1, got)
	}

	// Advance with the correct expected hash.
	if err := r.UpdateRefCAS("refs/heads/master", h2, h1); err != nil {
		t.Fatalf("advance ref: %v", err)
	}

	// A stale expected hash must fail and leave the ref untouched.
	err = r.UpdateRefCAS("refs/heads/master", h1, h1)
	if !errors.Is(err, ErrRefCASMismatch) {
		t.Fatalf("expected ErrRefCASMismatch, got %v", err)
	}
	got, err = r.ResolveRef("master")
	if err != nil {
		t.Fatalf("ResolveRef after mismatch: %v", err)
	}
	if got != h2 {
		t.Errorf("ref moved on failed CAS: expected %s, got %s", h2, got)
	}
}

func TestUpdateRefLeavesNoLockfile(t *testing.T) {
	r := newTestRepo(t)
	h := fakeCommitHash(t, r, "one")

	if err := r.UpdateRefCAS("refs/heads/master", h); err != nil {
		t.Fatalf("update ref: %v", err)
	}
	if _, err := os.Stat(filepath.Join(r.VCDir, "refs", "heads", "master.lock")); !os.IsNotExist(err) {
		t.Errorf("lockfile left behind: %v", err)
	}
}

func TestCreateBranch(t *testing.T) {
	r := newTestRepo(t)
	h := fakeCommitHash(t, r, "base")

	if err := r.CreateBranch("feature", h); err != nil {
		t.Fatalf("CreateBranch: %v", err)
	}
	if !r.BranchExists("feature") {
		t.Error("expected feature branch to exist")
	}

	err := r.CreateBranch("feature", h)
	if !errors.Is(err, ErrBranchAlreadyExists) {
		t.Errorf("expected ErrBranchAlreadyExists, got %v", err)
	}
}

func TestCreateBranchAtHeadWithoutCommits(t *testing.T) {
	r := newTestRepo(t)

	err := r.CreateBranchAtHead("feature")
	if !errors.Is(err, ErrNoCommitsYet) {
		t.Errorf("expected ErrNoCommitsYet, got %v", err)
	}
	if r.BranchExists("feature") {
		t.Error("no ref file should be created on failure")
	}
}

func TestDeleteBranch(t *testing.T) {
	r := newTestRepo(t)
	h := fakeCommitHash(t, r, "base")
	if err := r.UpdateRefCAS("refs/heads/master", h); err != nil {
		t.Fatalf("update master: %v", err)
	}
	if err := r.CreateBranch("feature", h); err != nil {
		t.Fatalf("CreateBranch: %v", err)
	}

	// The checked-out branch cannot be deleted.
	if err := r.DeleteBranch("master"); err == nil {
		t.Error("expected error deleting current branch")
	}

	if err := r.DeleteBranch("feature"); err != nil {
		t.Fatalf("DeleteBranch: %v", err)
	}
	if r.BranchExists("feature") {
		t.Error("feature branch still exists after delete")
	}

	err := r.DeleteBranch("feature")
	if !errors.Is(err, ErrBranchNotFound) {
		t.Errorf("expected ErrBranchNotFound, got %v", err)
	}
}

func TestListBranchesSortedSkipsLocks(t *testing.T) {
	r := newTestRepo(t)
	h := fakeCommitHash(t, r, "base")

	for _, name := range []string{"zeta", "alpha", "mid"} {
		if err := r.CreateBranch(name, h); err != nil {
			t.Fatalf("CreateBranch %s: %v", name, err)
		}
	}
	lockPath := filepath.Join(r.VCDir, "refs", "heads", "stray.lock")
	if err := os.WriteFile(lockPath, []byte(""), 0o644); err != nil {
		t.Fatalf("write stray lock: %v", err)
	}

	names, err := r.ListBranches()
	if err != nil {
		t.Fatalf("ListBranches: %v", err)
	}
	if strings.Join(names, ",") != "alpha,mid,zeta" {
		t.Errorf("unexpected branch list %v", names)
	}
}

func TestBranchCommitMissing(t *testing.T) {
	r := newTestRepo(t)

	_, err := r.BranchCommit("nope")
	if !errors.Is(err, ErrBranchNotFound) {
		t.Errorf("expected ErrBranchNotFound, got %v", err)
	}
}
