package repo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/vclabs/vc/pkg/object"
)

// newTestRepo initializes a fresh repository in a temp directory.
func newTestRepo(t *testing.T) *Repo {
	t.Helper()
	r, err := Init(t.TempDir(), "")
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	return r
}

// writeWorkFile creates a file (and parent dirs) under the working tree.
func writeWorkFile(t *testing.T, r *Repo, rel, content string) {
	t.Helper()
	abs := filepath.Join(r.RootDir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", rel, err)
	}
	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
}

// readWorkFile reads a working-tree file, failing the test on error.
func readWorkFile(t *testing.T, r *Repo, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(r.RootDir, filepath.FromSlash(rel)))
	if err != nil {
		t.Fatalf("read %s: %v", rel, err)
	}
	return string(data)
}

// commitFile writes, stages, and commits a single file, returning the new
// commit hash.
func commitFile(t *testing.T, r *Repo, rel, content, message string) object.Hash {
	t.Helper()
	writeWorkFile(t, r, rel, content)
	if err := r.Add([]string{rel}); err != nil {
		t.Fatalf("Add %s: %v", rel, err)
	}
	h, err := r.Commit(message, "tester", "")
	if err != nil {
		t.Fatalf("Commit %q: %v", message, err)
	}
	return h
}

func TestRepoRelPathAbsolute(t *testing.T) {
	r := newTestRepo(t)

	rel, err := r.repoRelPath(filepath.Join(r.RootDir, "a", "b.txt"))
	if err != nil {
		t.Fatalf("repoRelPath: %v", err)
	}
	if rel != "a/b.txt" {
		t.Errorf("expected a/b.txt, got %q", rel)
	}
}
