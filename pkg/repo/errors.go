package repo

import "errors"

// Sentinel errors for every recoverable failure the engine can produce.
// Components wrap these with context via fmt.Errorf("%w"); only the CLI
// dispatch layer converts them to user-facing text.
var (
	ErrNotARepository      = errors.New("not a vc repository")
	ErrAlreadyInitialized  = errors.New("repository already initialized")
	ErrPathNotFound        = errors.New("path not found")
	ErrInvalidPath         = errors.New("path is neither a file nor a directory")
	ErrNothingToCommit     = errors.New("nothing to commit")
	ErrBranchAlreadyExists = errors.New("branch already exists")
	ErrBranchNotFound      = errors.New("branch not found")
	ErrTargetNotFound      = errors.New("target is neither a branch nor a commit")
	ErrNoCommitsYet        = errors.New("no commits yet")

	// ErrRefCASMismatch reports a lost-update race on a ref file: the ref no
	// longer holds the hash the caller based its update on.
	ErrRefCASMismatch = errors.New("ref compare-and-swap mismatch")
)
