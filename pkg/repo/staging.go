package repo

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/zeebo/xxh3"

	"github.com/vclabs/vc/pkg/object"
)

// StagingEntry records the staged state of a single file.
type StagingEntry struct {
	Path     string      `json:"path"`
	BlobHash object.Hash `json:"blob_hash"`
	Size     int64       `json:"size"`
	Checksum string      `json:"checksum"` // xxh3-128 of content, status fast path
}

// Staging holds the full staging area (index): a flat map from repo-relative
// forward-slash path to its staged blob. Removals are represented by
// absence, never by tombstone entries.
type Staging struct {
	Entries map[string]*StagingEntry `json:"entries"`
}

func (r *Repo) indexPath() string {
	return filepath.Join(r.VCDir, "index")
}

// contentChecksum is a fast non-cryptographic content fingerprint. It never
// participates in object identity; that is always the SHA-256 envelope hash.
func contentChecksum(data []byte) string {
	return fmt.Sprintf("%x", xxh3.Hash128(data).Bytes())
}

// ReadStaging loads the staging area from .vc/index. A missing file is an
// empty staging area, not an error.
func (r *Repo) ReadStaging() (*Staging, error) {
	data, err := os.ReadFile(r.indexPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Staging{Entries: make(map[string]*StagingEntry)}, nil
		}
		return nil, fmt.Errorf("read staging: %w", err)
	}

	var stg Staging
	if err := json.Unmarshal(data, &stg); err != nil {
		return nil, fmt.Errorf("read staging: unmarshal: %w", err)
	}
	if stg.Entries == nil {
		stg.Entries = make(map[string]*StagingEntry)
	}
	return &stg, nil
}

// WriteStaging atomically replaces .vc/index. The index is always rewritten
// as a whole, so an interrupted command never leaves it torn.
func (r *Repo) WriteStaging(s *Staging) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("write staging: marshal: %w", err)
	}

	tmp, err := os.CreateTemp(r.VCDir, ".index-tmp-*")
	if err != nil {
		return fmt.Errorf("write staging: tmpfile: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write staging: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write staging: close: %w", err)
	}

	if err := os.Rename(tmpName, r.indexPath()); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write staging: rename: %w", err)
	}
	return nil
}

// Add stages the given paths. Files are staged directly; directories are
// walked recursively, staging every regular file not excluded by the ignore
// rules. The whole call is one read-modify-write cycle over the index.
//
// Missing paths fail with ErrPathNotFound; paths that are neither regular
// files nor directories fail with ErrInvalidPath.
func (r *Repo) Add(paths []string) error {
	stg, err := r.ReadStaging()
	if err != nil {
		return fmt.Errorf("add: %w", err)
	}

	ic := NewIgnoreChecker(r.RootDir)

	for _, p := range paths {
		relPath, err := r.repoRelPath(p)
		if err != nil {
			return fmt.Errorf("add: resolve path %q: %w", p, err)
		}

		info, err := os.Stat(r.workPath(relPath))
		if err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("add %q: %w", p, ErrPathNotFound)
			}
			return fmt.Errorf("add: stat %q: %w", relPath, err)
		}

		switch {
		case info.Mode().IsRegular():
			if err := r.stageFile(stg, relPath); err != nil {
				return fmt.Errorf("add: %w", err)
			}
		case info.IsDir():
			if err := r.stageDir(stg, ic, relPath); err != nil {
				return fmt.Errorf("add: %w", err)
			}
		default:
			return fmt.Errorf("add %q: %w", p, ErrInvalidPath)
		}
	}

	if err := r.WriteStaging(stg); err != nil {
		return fmt.Errorf("add: %w", err)
	}
	return nil
}

// stageFile writes the file's content as a blob and records it in the index.
func (r *Repo) stageFile(stg *Staging, relPath string) error {
	content, err := os.ReadFile(r.workPath(relPath))
	if err != nil {
		return fmt.Errorf("read %q: %w", relPath, err)
	}

	blobHash, err := r.Store.WriteBlob(&object.Blob{Data: content})
	if err != nil {
		return fmt.Errorf("write blob %q: %w", relPath, err)
	}

	stg.Entries[relPath] = &StagingEntry{
		Path:     relPath,
		BlobHash: blobHash,
		Size:     int64(len(content)),
		Checksum: contentChecksum(content),
	}
	return nil
}

// stageDir stages every regular file beneath relDir, skipping the control
// directory and ignored paths.
func (r *Repo) stageDir(stg *Staging, ic *IgnoreChecker, relDir string) error {
	root := r.workPath(relDir)
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
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
		if d.IsDir() {
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		return r.stageFile(stg, rel)
	})
}

// Remove deletes the given files from the working directory and drops their
// entries from the index. A path that is neither on disk nor staged fails
// with ErrPathNotFound.
func (r *Repo) Remove(paths []string) error {
	stg, err := r.ReadStaging()
	if err != nil {
		return fmt.Errorf("rm: %w", err)
	}

	for _, p := range paths {
		relPath, err := r.repoRelPath(p)
		if err != nil {
			return fmt.Errorf("rm: resolve path %q: %w", p, err)
		}

		_, staged := stg.Entries[relPath]
		err = os.Remove(r.workPath(relPath))
		if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("rm %q: %w", relPath, err)
		}
		if err != nil && !staged {
			return fmt.Errorf("rm %q: %w", p, ErrPathNotFound)
		}

		delete(stg.Entries, relPath)
	}

	if err := r.WriteStaging(stg); err != nil {
		return fmt.Errorf("rm: %w", err)
	}
	return nil
}
