package models

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

// ErrInvalidPath is returned when a raw path cannot be interpreted as a
// location inside the store: it is absolute, or one of its components would
// escape the store root. Callers should use [errors.Is] to match against it.
var ErrInvalidPath = errors.New("invalid store path")

// StorePath is a slash-separated logical path relative to the store root.
//
// A StorePath is always held in normalized form: forward slashes only, no
// "." or ".." components, no leading or trailing slash. The empty StorePath
// addresses the store root itself. Two StorePaths address the same entry if
// and only if their string forms are equal, so StorePath values can be used
// directly as map keys.
//
// The logical name of a file entry never carries the on-disk ciphertext
// extension: the entry stored as "web/github.gpg" has the StorePath
// "web/github".
type StorePath string

// ParseStorePath normalizes raw into a StorePath.
//
// Empty input and "." address the store root. Redundant slashes and "."
// components are collapsed, a trailing slash is dropped. Absolute paths and
// paths containing a ".." component are rejected with [ErrInvalidPath]:
// the store never resolves locations outside its root, so ".." is refused
// outright instead of being collapsed away.
func ParseStorePath(raw string) (StorePath, error) {
	if raw == "" || raw == "." {
		return "", nil
	}
	if strings.HasPrefix(raw, "/") {
		return "", fmt.Errorf("%w: %q is not relative to the store root", ErrInvalidPath, raw)
	}
	for _, segment := range strings.Split(raw, "/") {
		if segment == ".." {
			return "", fmt.Errorf("%w: %q would escape the store root", ErrInvalidPath, raw)
		}
	}

	cleaned := path.Clean(raw)
	if cleaned == "." {
		return "", nil
	}
	return StorePath(cleaned), nil
}

// String returns the normalized string form of the path. The root path
// renders as the empty string.
func (p StorePath) String() string {
	return string(p)
}

// IsRoot reports whether p addresses the store root.
func (p StorePath) IsRoot() bool {
	return p == ""
}

// Name returns the final path segment, i.e. the entry's own name.
// The root path has no name and yields the empty string.
func (p StorePath) Name() string {
	if p.IsRoot() {
		return ""
	}
	if i := strings.LastIndexByte(string(p), '/'); i >= 0 {
		return string(p[i+1:])
	}
	return string(p)
}

// Parent returns the path of the directory containing p. The parent of a
// top-level entry, and of the root itself, is the root path.
func (p StorePath) Parent() StorePath {
	if i := strings.LastIndexByte(string(p), '/'); i >= 0 {
		return p[:i]
	}
	return ""
}

// Join appends a single name segment to p. It is intended for walking down
// the tree with already-validated names; it performs no normalization.
func (p StorePath) Join(name string) StorePath {
	if p.IsRoot() {
		return StorePath(name)
	}
	return StorePath(string(p) + "/" + name)
}

// HasPrefix reports whether p lies inside the subtree rooted at prefix.
// Every path lies inside the root subtree, and a path lies inside its own
// subtree.
func (p StorePath) HasPrefix(prefix StorePath) bool {
	if prefix.IsRoot() || p == prefix {
		return true
	}
	return strings.HasPrefix(string(p), string(prefix)+"/")
}
