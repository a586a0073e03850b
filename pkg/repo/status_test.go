package repo

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func TestStatusFreshRepoIsClean(t *testing.T) {
	r := newTestRepo(t)

	st, err := r.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !st.Clean() {
		t.Errorf("expected clean status, got %+v", st)
	}
	if st.Branch != "master" || st.Detached {
		t.Errorf("expected branch master, got %q detached=%v", st.Branch, st.Detached)
	}
	if st.HasCommit {
		t.Error("fresh repo reports a commit")
	}
}

func TestStatusUntracked(t *testing.T) {
	r := newTestRepo(t)
	writeWorkFile(t, r, "new.txt", "n")

	st, err := r.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if len(st.Untracked) != 1 || st.Untracked[0] != "new.txt" {
		t.Errorf("expected untracked [new.txt], got %v", st.Untracked)
	}
	if len(st.Staged) != 0 || len(st.NotStaged) != 0 || len(st.Deleted) != 0 {
		t.Errorf("other buckets should be empty: %+v", st)
	}
}

func TestStatusStagedNewFile(t *testing.T) {
	r := newTestRepo(t)
	writeWorkFile(t, r, "a.txt", "a")
	if err := r.Add([]string{"a.txt"}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	st, err := r.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if len(st.Staged) != 1 || st.Staged[0].Path != "a.txt" || st.Staged[0].Kind != StagedNew {
		t.Errorf("expected staged new file a.txt, got %+v", st.Staged)
	}
	if len(st.Untracked) != 0 {
		t.Errorf("staged file also listed untracked: %v", st.Untracked)
	}
}

func TestStatusCleanAfterCommit(t *testing.T) {
	r := newTestRepo(t)
	commitFile(t, r, "a.txt", "a", "base")

	st, err := r.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !st.Clean() {
		t.Errorf("expected clean after commit, got %+v", st)
	}
	if !st.HasCommit {
		t.Error("HasCommit false after committing")
	}
}

func TestStatusStagedModified(t *testing.T) {
	r := newTestRepo(t)
	commitFile(t, r, "a.txt", "v1", "base")

	writeWorkFile(t, r, "a.txt", "v2")
	if err := r.Add([]string{"a.txt"}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	st, err := r.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if len(st.Staged) != 1 || st.Staged[0].Kind != StagedModified {
		t.Errorf("expected staged modified, got %+v", st.Staged)
	}
}

func TestStatusModifiedNotStaged(t *testing.T) {
	r := newTestRepo(t)
	writeWorkFile(t, r, "a.txt", "v1")
	if err := r.Add([]string{"a.txt"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	writeWorkFile(t, r, "a.txt", "v2 after staging")

	st, err := r.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if len(st.NotStaged) != 1 || st.NotStaged[0] != "a.txt" {
		t.Errorf("expected not-staged [a.txt], got %v", st.NotStaged)
	}
	// Still staged as new against the empty HEAD tree.
	if len(st.Staged) != 1 || st.Staged[0].Kind != StagedNew {
		t.Errorf("expected staged new entry to remain, got %+v", st.Staged)
	}
}

func TestStatusRewriteToSameContentStaysClean(t *testing.T) {
	r := newTestRepo(t)
	writeWorkFile(t, r, "a.txt", "stable")
	if err := r.Add([]string{"a.txt"}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	// Rewriting identical bytes changes mtime but not content; the
	// checksum fast path must report it unchanged.
	writeWorkFile(t, r, "a.txt", "stable")

	st, err := r.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if len(st.NotStaged) != 0 {
		t.Errorf("identical rewrite reported modified: %v", st.NotStaged)
	}
}

func TestStatusDeleted(t *testing.T) {
	r := newTestRepo(t)
	commitFile(t, r, "a.txt", "a", "base")

	if err := os.Remove(filepath.Join(r.RootDir, "a.txt")); err != nil {
		t.Fatalf("remove: %v", err)
	}

	st, err := r.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if len(st.Deleted) != 1 || st.Deleted[0] != "a.txt" {
		t.Errorf("expected deleted [a.txt], got %v", st.Deleted)
	}
	if len(st.Untracked) != 0 || len(st.NotStaged) != 0 {
		t.Errorf("deleted file leaked into other buckets: %+v", st)
	}
}

func TestStatusIgnoredFilesAreInvisible(t *testing.T) {
	r := newTestRepo(t)
	writeWorkFile(t, r, ".vcignore", "*.log\n")
	writeWorkFile(t, r, "app.go", "code")
	writeWorkFile(t, r, "noise.log", "noise")

	st, err := r.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	for _, p := range st.Untracked {
		if p == "noise.log" {
			t.Error("ignored file listed as untracked")
		}
	}
}

func TestStatusListsAreSortedAndDisjoint(t *testing.T) {
	r := newTestRepo(t)
	commitFile(t, r, "committed.txt", "c", "base")

	writeWorkFile(t, r, "z-untracked.txt", "z")
	writeWorkFile(t, r, "a-untracked.txt", "a")
	writeWorkFile(t, r, "staged.txt", "s")
	if err := r.Add([]string{"staged.txt"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := os.Remove(filepath.Join(r.RootDir, "committed.txt")); err != nil {
		t.Fatalf("remove: %v", err)
	}

	st, err := r.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}

	if !sort.StringsAreSorted(st.Untracked) {
		t.Errorf("untracked not sorted: %v", st.Untracked)
	}

	seen := make(map[string]int)
	for _, s := range st.Staged {
		seen[s.Path]++
	}
	for _, lists := range [][]string{st.NotStaged, st.Untracked, st.Deleted} {
		for _, p := range lists {
			seen[p]++
		}
	}
	for p, n := range seen {
		if n > 1 {
			t.Errorf("path %s appears in %d buckets", p, n)
		}
	}
}

func TestStatusDetached(t *testing.T) {
	r := newTestRepo(t)
	h := commitFile(t, r, "a.txt", "a", "base")

	if err := r.Checkout(string(h)); err != nil {
		t.Fatalf("Checkout: %v", err)
	}

	st, err := r.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !st.Detached || st.Branch != "" {
		t.Errorf("expected detached status, got branch=%q detached=%v", st.Branch, st.Detached)
	}
	if !st.Clean() {
		t.Errorf("expected clean detached status, got %+v", st)
	}
}
