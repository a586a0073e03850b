package repo

import (
	"fmt"
	"strings"
	"time"

	"github.com/vclabs/vc/pkg/object"
)

// CommitSigner signs canonical commit payload bytes and returns an encoded
// signature string to be persisted in CommitObj.Signature.
type CommitSigner func(payload []byte) (string, error)

// Commit creates a new commit from the current staging area.
//
//  1. Read staging; an empty index fails with ErrNothingToCommit.
//  2. Build the tree from staging.
//  3. Resolve the current head commit (if any) as the sole parent.
//  4. If the parent's tree equals the new tree, nothing changed: fail with
//     ErrNothingToCommit without touching any ref.
//  5. Write the commit object.
//  6. Advance the branch ref (or detached HEAD) via CAS against the parent,
//     then clear the staging index.
func (r *Repo) Commit(message, author, committer string) (object.Hash, error) {
	return r.CommitWithSigner(message, author, committer, nil)
}

// CommitWithSigner creates a new commit and signs it when signer is provided.
func (r *Repo) CommitWithSigner(message, author, committer string, signer CommitSigner) (object.Hash, error) {
	stg, err := r.ReadStaging()
	if err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	if len(stg.Entries) == 0 {
		return "", fmt.Errorf("commit: %w", ErrNothingToCommit)
	}

	treeHash, err := r.BuildTree(stg)
	if err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}

	var parents []object.Hash
	var parentHash object.Hash
	if h, err := r.ResolveRef("HEAD"); err == nil && h != "" {
		parentHash = h
		parents = append(parents, h)

		parent, err := r.Store.ReadCommit(h)
		if err != nil {
			return "", fmt.Errorf("commit: read parent %s: %w", h, err)
		}
		if parent.TreeHash == treeHash {
			// Content identical to the head snapshot, even if files were
			// re-staged.
			return "", fmt.Errorf("commit: %w", ErrNothingToCommit)
		}
	}

	if committer == "" {
		committer = author
	}
	now := time.Now()
	commitObj := &object.CommitObj{
		TreeHash:  treeHash,
		Parents:   parents,
		Author:    author,
		Committer: committer,
		Timestamp: now.Unix(),
		TZ:        now.Format("-0700"),
		Message:   message,
	}
	if signer != nil {
		signature, err := signer(object.CommitSigningPayload(commitObj))
		if err != nil {
			return "", fmt.Errorf("commit: sign: %w", err)
		}
		commitObj.Signature = signature
	}

	commitHash, err := r.Store.WriteCommit(commitObj)
	if err != nil {
		return "", fmt.Errorf("commit: write commit: %w", err)
	}

	head, err := r.Head()
	if err != nil {
		return "", fmt.Errorf("commit: read HEAD: %w", err)
	}
	if strings.HasPrefix(head, "refs/") {
		if err := r.UpdateRefCAS(head, commitHash, parentHash); err != nil {
			return "", fmt.Errorf("commit: update ref %q: %w", head, err)
		}
	} else {
		// Detached HEAD: advance HEAD itself, guarded against racing moves.
		if err := r.UpdateRefCAS("HEAD", commitHash, parentHash); err != nil {
			return "", fmt.Errorf("commit: update detached HEAD: %w", err)
		}
	}

	if err := r.WriteStaging(&Staging{Entries: make(map[string]*StagingEntry)}); err != nil {
		return "", fmt.Errorf("commit: clear staging: %w", err)
	}

	return commitHash, nil
}

// Log walks the commit history starting from the given hash, following
// first-parent links, returning up to limit commits newest first. The walk
// stops at the root commit or after limit entries, whichever comes first;
// it cannot cycle because every parent existed before its child was
// created.
func (r *Repo) Log(start object.Hash, limit int) ([]*object.CommitObj, error) {
	var commits []*object.CommitObj
	current := start

	for limit <= 0 || len(commits) < limit {
		c, err := r.Store.ReadCommit(current)
		if err != nil {
			return nil, fmt.Errorf("log: read commit %s: %w", current, err)
		}
		commits = append(commits, c)

		if len(c.Parents) == 0 {
			break
		}
		current = c.Parents[0]
	}

	return commits, nil
}
