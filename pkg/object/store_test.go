package object

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteRead_RoundTrip(t *testing.T) {
	s := NewStore(t.TempDir())

	h, err := s.Write(TypeBlob, []byte("hello world"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if len(h) != 64 {
		t.Fatalf("hash length = %d, want 64", len(h))
	}

	objType, data, err := s.Read(h)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if objType != TypeBlob {
		t.Errorf("type = %q, want %q", objType, TypeBlob)
	}
	if string(data) != "hello world" {
		t.Errorf("data = %q, want %q", data, "hello world")
	}
}

func TestWrite_Idempotent(t *testing.T) {
	root := t.TempDir()
	s := NewStore(root)

	h1, err := s.Write(TypeBlob, []byte("same content"))
	if err != nil {
		t.Fatalf("first Write: %v", err)
	}
	h2, err := s.Write(TypeBlob, []byte("same content"))
	if err != nil {
		t.Fatalf("second Write: %v", err)
	}
	if h1 != h2 {
		t.Fatalf("hashes differ: %s vs %s", h1, h2)
	}

	// Exactly one stored object.
	var count int
	err = filepath.WalkDir(filepath.Join(root, "objects"), func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			count++
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk: %v", err)
	}
	if count != 1 {
		t.Errorf("stored object count = %d, want 1", count)
	}
}

func TestWrite_ShardLayout(t *testing.T) {
	root := t.TempDir()
	s := NewStore(root)

	h, err := s.Write(TypeBlob, []byte("shard me"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	want := filepath.Join(root, "objects", string(h[:2]), string(h[2:]))
	if _, err := os.Stat(want); err != nil {
		t.Errorf("object not at sharded path %s: %v", want, err)
	}
}

func TestRead_NotFound(t *testing.T) {
	s := NewStore(t.TempDir())

	_, _, err := s.Read(Hash("deadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeef"))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestRead_CorruptObject(t *testing.T) {
	root := t.TempDir()
	s := NewStore(root)

	h, err := s.Write(TypeBlob, []byte("will be damaged"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	// Overwrite the stored bytes with garbage that cannot decompress.
	path := filepath.Join(root, "objects", string(h[:2]), string(h[2:]))
	if err := os.WriteFile(path, []byte("not zlib at all"), 0o644); err != nil {
		t.Fatalf("damage object: %v", err)
	}

	_, _, err = s.Read(h)
	if !errors.Is(err, ErrCorrupt) {
		t.Fatalf("err = %v, want ErrCorrupt", err)
	}
}

func TestRead_CompressedOnDisk(t *testing.T) {
	root := t.TempDir()
	s := NewStore(root)

	payload := []byte("blob payload stored compressed as one unit")
	h, err := s.Write(TypeBlob, payload)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	stored, err := os.ReadFile(filepath.Join(root, "objects", string(h[:2]), string(h[2:])))
	if err != nil {
		t.Fatalf("read stored file: %v", err)
	}
	// Compression choice never affects identity: the hash matches the
	// uncompressed envelope even though disk bytes differ from it.
	if string(stored) == "blob 42\x00"+string(payload) {
		t.Error("object stored uncompressed")
	}
	if got := HashObject(TypeBlob, payload); got != h {
		t.Errorf("HashObject = %s, want %s", got, h)
	}
}

func TestReadTyped_Mismatch(t *testing.T) {
	s := NewStore(t.TempDir())

	h, err := s.WriteBlob(&Blob{Data: []byte("not a commit")})
	if err != nil {
		t.Fatalf("WriteBlob: %v", err)
	}
	if _, err := s.ReadCommit(h); err == nil {
		t.Fatal("ReadCommit on a blob succeeded")
	}
}
