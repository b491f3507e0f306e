// Package report lays out extracted units as a numbered document and hands
// the layout to a format-specific Writer.
package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dgallion1/plcdoc/internal/doctree"
)

// Layout selects how folders are numbered.
type Layout string

const (
	// LayoutFlat gives every folder holding units a top-level number and
	// labels it with its full relative path.
	LayoutFlat Layout = "flat"
	// LayoutNested numbers folders by depth. Inside folder P.k, files take
	// P.k.1..n and subfolders continue at P.k.(n+1).
	LayoutNested Layout = "nested"
)

// ParseLayout validates a layout name. Empty means flat.
func ParseLayout(s string) (Layout, error) {
	switch Layout(strings.ToLower(s)) {
	case "", LayoutFlat:
		return LayoutFlat, nil
	case LayoutNested:
		return LayoutNested, nil
	default:
		return "", fmt.Errorf("unknown layout %q (want flat or nested)", s)
	}
}

// EntryKind tells folder headings from unit headings.
type EntryKind int

const (
	FolderEntry EntryKind = iota
	UnitEntry
)

// Entry is one numbered heading. The same slice feeds the table of contents
// and the body, so both always show identical numbers.
type Entry struct {
	Kind   EntryKind
	Number string // dotted section number, e.g. "2.1"
	Title  string
	Depth  int // 0 for top-level folders
	Folder *doctree.Folder
	Unit   *doctree.Unit // nil for folder entries
}

// Label is the heading text: number, one space, title.
func (e Entry) Label() string {
	return e.Number + " " + e.Title
}

// Anchor is a stable identifier for links to this heading.
func (e Entry) Anchor() string {
	return "sec-" + strings.ReplaceAll(e.Number, ".", "-")
}

// Outline numbers every folder that holds units and every unit in it.
// Folders without units anywhere below them are omitted.
func Outline(root *doctree.Folder, layout Layout) []Entry {
	if layout == LayoutNested {
		return nestedOutline(root)
	}
	return flatOutline(root)
}

func flatOutline(root *doctree.Folder) []Entry {
	var out []Entry
	k := 0
	root.Walk(func(f *doctree.Folder) bool {
		if len(f.Units) == 0 {
			return true
		}
		k++
		num := strconv.Itoa(k)
		out = append(out, Entry{Kind: FolderEntry, Number: num, Title: f.Path, Folder: f})
		out = appendUnits(out, f, num, 1)
		return true
	})
	return out
}

func nestedOutline(root *doctree.Folder) []Entry {
	var out []Entry
	k := 0
	if len(root.Units) > 0 {
		k++
		num := strconv.Itoa(k)
		out = append(out, Entry{Kind: FolderEntry, Number: num, Title: root.Path, Folder: root})
		out = appendUnits(out, root, num, 1)
	}
	for _, c := range root.Children {
		if !c.HasUnits() {
			continue
		}
		k++
		out = appendNested(out, c, strconv.Itoa(k), 0)
	}
	return out
}

// appendNested emits folder f numbered num, then its units, then its
// subfolders numbered after the units.
func appendNested(out []Entry, f *doctree.Folder, num string, depth int) []Entry {
	out = append(out, Entry{Kind: FolderEntry, Number: num, Title: f.Name, Depth: depth, Folder: f})
	out = appendUnits(out, f, num, depth+1)
	j := len(f.Units)
	for _, c := range f.Children {
		if !c.HasUnits() {
			continue
		}
		j++
		out = appendNested(out, c, num+"."+strconv.Itoa(j), depth+1)
	}
	return out
}

func appendUnits(out []Entry, f *doctree.Folder, prefix string, depth int) []Entry {
	for j, u := range f.Units {
		out = append(out, Entry{
			Kind:   UnitEntry,
			Number: prefix + "." + strconv.Itoa(j+1),
			Title:  u.Title,
			Depth:  depth,
			Folder: f,
			Unit:   u,
		})
	}
	return out
}
