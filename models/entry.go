package models

import "sort"

// Entry is a single node of the store tree: either a [Directory] or a
// [File]. Callers distinguish the two variants with a type switch, mirroring
// the on-disk reality that a store path resolves to exactly one of them.
type Entry interface {
	// Path returns the normalized logical path of the entry.
	Path() StorePath

	// Name returns the last segment of the entry's path.
	Name() string
}

// Directory is an inner node of the store tree. It owns its children
// exclusively; the tree carries no parent links, so ancestry is derived from
// path prefixes instead of stored back-references.
type Directory struct {
	path     StorePath
	children []Entry
}

// NewDirectory builds a Directory at p owning the given children. Children
// are re-ordered by name (ties resolved files-first) so that enumeration is
// deterministic regardless of the order the filesystem produced them in.
func NewDirectory(p StorePath, children []Entry) *Directory {
	sorted := make([]Entry, len(children))
	copy(sorted, children)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Name() != sorted[j].Name() {
			return sorted[i].Name() < sorted[j].Name()
		}
		_, iIsFile := sorted[i].(*File)
		_, jIsFile := sorted[j].(*File)
		return iIsFile && !jIsFile
	})
	return &Directory{path: p, children: sorted}
}

// Path implements [Entry].
func (d *Directory) Path() StorePath { return d.path }

// Name implements [Entry].
func (d *Directory) Name() string { return d.path.Name() }

// Children returns the directory's direct children in deterministic order.
// The returned slice is shared with the Directory and must not be modified.
func (d *Directory) Children() []Entry { return d.children }

// Files flattens the subtree below d into the logical paths of all files it
// contains, sorted lexicographically by full path.
func (d *Directory) Files() []StorePath {
	var paths []StorePath
	d.appendFiles(&paths)
	sort.Slice(paths, func(i, j int) bool { return paths[i] < paths[j] })
	return paths
}

func (d *Directory) appendFiles(paths *[]StorePath) {
	for _, child := range d.children {
		switch c := child.(type) {
		case *File:
			*paths = append(*paths, c.Path())
		case *Directory:
			c.appendFiles(paths)
		}
	}
}

// File is a leaf of the store tree: one encrypted secret. The logical path
// omits the ciphertext extension; CipherPath keeps the absolute location of
// the encrypted bytes on disk.
type File struct {
	path       StorePath
	cipherPath string
}

// NewFile builds a File entry at p whose ciphertext lives at cipherPath.
func NewFile(p StorePath, cipherPath string) *File {
	return &File{path: p, cipherPath: cipherPath}
}

// Path implements [Entry].
func (f *File) Path() StorePath { return f.path }

// Name implements [Entry].
func (f *File) Name() string { return f.path.Name() }

// CipherPath returns the absolute filesystem location of the entry's
// on-disk ciphertext.
func (f *File) CipherPath() string { return f.cipherPath }
