package doctree

import (
	"path"
	"strings"
)

// Kind is the declared type of a source unit, taken from its top-level element.
type Kind int

const (
	KindUnknown Kind = iota
	KindProgramUnit
	KindInterface
	KindDataType
	KindGlobalList
)

func (k Kind) String() string {
	switch k {
	case KindProgramUnit:
		return "POU"
	case KindInterface:
		return "Interface"
	case KindDataType:
		return "DUT"
	case KindGlobalList:
		return "GVL"
	default:
		return "Unknown"
	}
}

// Segment is one labeled block of source text extracted from a unit.
type Segment struct {
	Label string // e.g. "Declaration", "Method Init Implementation"
	Text  string // Literal source lines, trimmed of surrounding whitespace
}

// Unit is one extracted input file.
type Unit struct {
	Path      string    // File path as discovered
	Folder    string    // Containing folder relative to the input root, slash separated ("." for the root)
	Kind      Kind      // Declared kind
	Name      string    // Name attribute ("Unknown" if absent)
	Qualifier string    // SpecialFunc marker for program units (may be empty)
	Title     string    // Display title used in the outline
	Segments  []Segment // Canonical order, empty payloads omitted
}

// Folder is a node in the input directory tree. Children and Files keep the
// order in which the directory walk first reached them.
type Folder struct {
	Name     string    // Base name ("." for the root)
	Path     string    // Slash separated path relative to the input root ("." for the root)
	Files    []string  // Discovered source files directly in this folder
	Units    []*Unit   // Successfully extracted units, in Files order
	Children []*Folder // Subfolders
}

// NewRoot returns an empty root folder.
func NewRoot() *Folder {
	return &Folder{Name: ".", Path: "."}
}

// Child returns the named subfolder, creating it if needed.
func (f *Folder) Child(name string) *Folder {
	for _, c := range f.Children {
		if c.Name == name {
			return c
		}
	}
	c := &Folder{Name: name, Path: name}
	if f.Path != "." {
		c.Path = path.Join(f.Path, name)
	}
	f.Children = append(f.Children, c)
	return c
}

// Lookup returns the folder at a slash separated relative path, creating
// intermediate folders as needed.
func (f *Folder) Lookup(rel string) *Folder {
	rel = path.Clean(rel)
	if rel == "." || rel == "" {
		return f
	}
	cur := f
	for _, part := range strings.Split(rel, "/") {
		cur = cur.Child(part)
	}
	return cur
}

// Walk visits f and its descendants in pre-order. Returning false from fn
// skips the folder's children.
func (f *Folder) Walk(fn func(*Folder) bool) {
	if !fn(f) {
		return
	}
	for _, c := range f.Children {
		c.Walk(fn)
	}
}

// FileCount returns the number of discovered files in the subtree.
func (f *Folder) FileCount() int {
	n := 0
	f.Walk(func(d *Folder) bool {
		n += len(d.Files)
		return true
	})
	return n
}

// UnitCount returns the number of extracted units in the subtree.
func (f *Folder) UnitCount() int {
	n := 0
	f.Walk(func(d *Folder) bool {
		n += len(d.Units)
		return true
	})
	return n
}

// HasUnits reports whether any folder in the subtree holds an extracted unit.
func (f *Folder) HasUnits() bool {
	return f.UnitCount() > 0
}
