package object

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// rawHashLen is the length of a decoded SHA-256 digest.
const rawHashLen = 32

// ---------------------------------------------------------------------------
// Blob
// ---------------------------------------------------------------------------

// MarshalBlob serializes a Blob to raw bytes (identity).
func MarshalBlob(b *Blob) []byte {
	out := make([]byte, len(b.Data))
	copy(out, b.Data)
	return out
}

// UnmarshalBlob deserializes raw bytes into a Blob.
func UnmarshalBlob(data []byte) (*Blob, error) {
	out := make([]byte, len(data))
	copy(out, data)
	return &Blob{Data: out}, nil
}

// ---------------------------------------------------------------------------
// TreeObj
// ---------------------------------------------------------------------------

// MarshalTree serializes a TreeObj. Entries are sorted by Name so the
// payload is canonical: two trees with the same entry set always serialize
// to the same bytes. Each entry is
//
//	"<mode> <name>\0" + raw hash bytes
//
// where mode is 100644 for files and 40000 for subtrees.
func MarshalTree(tr *TreeObj) []byte {
	sorted := make([]TreeEntry, len(tr.Entries))
	copy(sorted, tr.Entries)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})

	var buf bytes.Buffer
	for _, e := range sorted {
		mode := e.Mode
		if mode == "" {
			mode = TreeModeFile
		}
		fmt.Fprintf(&buf, "%s %s\x00", mode, e.Name)
		raw, err := hex.DecodeString(string(e.Hash))
		if err != nil || len(raw) != rawHashLen {
			// An entry hash that is not a valid digest can only come from a
			// programming error; serialize a zero digest rather than panic.
			raw = make([]byte, rawHashLen)
		}
		buf.Write(raw)
	}
	return buf.Bytes()
}

// UnmarshalTree parses a TreeObj from its serialized form.
func UnmarshalTree(data []byte) (*TreeObj, error) {
	tr := &TreeObj{}
	i := 0
	for i < len(data) {
		nul := bytes.IndexByte(data[i:], 0)
		if nul < 0 {
			return nil, fmt.Errorf("unmarshal tree: entry header without NUL")
		}
		header := string(data[i : i+nul])
		mode, name, ok := strings.Cut(header, " ")
		if !ok || name == "" {
			return nil, fmt.Errorf("unmarshal tree: malformed entry header %q", header)
		}
		if mode != TreeModeFile && mode != TreeModeDir {
			return nil, fmt.Errorf("unmarshal tree: unknown mode %q", mode)
		}

		start := i + nul + 1
		if start+rawHashLen > len(data) {
			return nil, fmt.Errorf("unmarshal tree: truncated hash for entry %q", name)
		}
		h := Hash(hex.EncodeToString(data[start : start+rawHashLen]))

		tr.Entries = append(tr.Entries, TreeEntry{Mode: mode, Name: name, Hash: h})
		i = start + rawHashLen
	}
	return tr, nil
}

// ---------------------------------------------------------------------------
// CommitObj
// ---------------------------------------------------------------------------

// MarshalCommit serializes a CommitObj:
//
//	tree H
//	parent H         (zero or one)
//	author N TS TZ
//	committer N TS TZ
//	signature S      (optional)
//
//	message
func MarshalCommit(c *CommitObj) []byte {
	tz := c.TZ
	if tz == "" {
		tz = "+0000"
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "tree %s\n", string(c.TreeHash))
	for _, p := range c.Parents {
		fmt.Fprintf(&buf, "parent %s\n", string(p))
	}
	fmt.Fprintf(&buf, "author %s %d %s\n", c.Author, c.Timestamp, tz)
	fmt.Fprintf(&buf, "committer %s %d %s\n", c.Committer, c.Timestamp, tz)
	if strings.TrimSpace(c.Signature) != "" {
		fmt.Fprintf(&buf, "signature %s\n", c.Signature)
	}
	buf.WriteByte('\n')
	buf.WriteString(c.Message)
	return buf.Bytes()
}

// CommitSigningPayload returns the canonical bytes a signer must sign: the
// serialized commit with the signature header omitted.
func CommitSigningPayload(c *CommitObj) []byte {
	unsigned := *c
	unsigned.Signature = ""
	return MarshalCommit(&unsigned)
}

// UnmarshalCommit parses a CommitObj from its serialized form.
func UnmarshalCommit(data []byte) (*CommitObj, error) {
	idx := bytes.Index(data, []byte("\n\n"))
	if idx < 0 {
		return nil, fmt.Errorf("unmarshal commit: missing header/message separator")
	}
	header := string(data[:idx])
	message := string(data[idx+2:])

	c := &CommitObj{Message: message}
	for _, line := range strings.Split(header, "\n") {
		key, val, ok := strings.Cut(line, " ")
		if !ok {
			return nil, fmt.Errorf("unmarshal commit: malformed header line %q", line)
		}
		switch key {
		case "tree":
			c.TreeHash = Hash(val)
		case "parent":
			c.Parents = append(c.Parents, Hash(val))
		case "author":
			name, ts, tz, err := parseIdentLine(val)
			if err != nil {
				return nil, fmt.Errorf("unmarshal commit: author: %w", err)
			}
			c.Author = name
			c.Timestamp = ts
			c.TZ = tz
		case "committer":
			name, _, _, err := parseIdentLine(val)
			if err != nil {
				return nil, fmt.Errorf("unmarshal commit: committer: %w", err)
			}
			c.Committer = name
		case "signature":
			c.Signature = val
		default:
			return nil, fmt.Errorf("unmarshal commit: unknown header key %q", key)
		}
	}
	if c.TreeHash == "" {
		return nil, fmt.Errorf("unmarshal commit: missing tree header")
	}
	return c, nil
}

// parseIdentLine splits "NAME TS TZ" from the right, so names may contain
// spaces.
func parseIdentLine(val string) (name string, ts int64, tz string, err error) {
	lastSp := strings.LastIndexByte(val, ' ')
	if lastSp < 0 {
		return "", 0, "", fmt.Errorf("malformed ident %q", val)
	}
	tz = val[lastSp+1:]
	rest := val[:lastSp]

	tsSp := strings.LastIndexByte(rest, ' ')
	if tsSp < 0 {
		return "", 0, "", fmt.Errorf("malformed ident %q", val)
	}
	ts, err = strconv.ParseInt(rest[tsSp+1:], 10, 64)
	if err != nil {
		return "", 0, "", fmt.Errorf("bad timestamp in ident %q: %w", val, err)
	}
	return rest[:tsSp], ts, tz, nil
}
