package collect

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/dgallion1/plcdoc/internal/doctree"
	"github.com/dgallion1/plcdoc/internal/parser"
	"github.com/gobwas/glob"
)

// compiledPattern keeps the source pattern next to its compiled glob.
type compiledPattern struct {
	pattern string
	glob    glob.Glob
}

// Collector walks an input root and groups supported source files by folder.
type Collector struct {
	rootDir string
	ignore  []compiledPattern
}

// New compiles the ignore patterns. Patterns match slash separated paths
// relative to rootDir, e.g. "**/_Boilerplate/**".
func New(rootDir string, ignorePatterns []string) (*Collector, error) {
	c := &Collector{rootDir: rootDir}
	for _, p := range ignorePatterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("compile ignore pattern %q: %w", p, err)
		}
		c.ignore = append(c.ignore, compiledPattern{pattern: p, glob: g})
	}
	return c, nil
}

// Collect returns the folder tree of every supported file below the root.
// Directory entries are visited in lexical order; within a folder, files
// come before subfolders in the tree regardless of name. Any unreadable
// directory fails the whole collection.
func (c *Collector) Collect() (*doctree.Folder, error) {
	info, err := os.Stat(c.rootDir)
	if err != nil {
		return nil, fmt.Errorf("stat input root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("input root %s is not a directory", c.rootDir)
	}

	// A trailing separator makes the walk descend into a symlinked root.
	walkRoot := c.rootDir
	if !strings.HasSuffix(walkRoot, string(os.PathSeparator)) {
		walkRoot += string(os.PathSeparator)
	}

	root := doctree.NewRoot()
	err = filepath.WalkDir(walkRoot, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("walk %s: %w", p, err)
		}

		rel, err := filepath.Rel(c.rootDir, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}

		if d.IsDir() {
			if c.Ignored(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if !parser.IsSupportedExtension(d.Name()) || c.Ignored(rel) || !isRegularFile(p, d) {
			return nil
		}

		folder := root.Lookup(path.Dir(rel))
		folder.Files = append(folder.Files, p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return root, nil
}

// isRegularFile accepts regular files and symlinks to regular files.
// Symlinked directories are not followed.
func isRegularFile(p string, d fs.DirEntry) bool {
	if d.Type().IsRegular() {
		return true
	}
	if d.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}

// Ignored checks a slash separated path relative to the root, and the
// directory form "rel/**", against the ignore patterns.
func (c *Collector) Ignored(rel string) bool {
	for _, cp := range c.ignore {
		if cp.glob.Match(rel) || cp.glob.Match(rel+"/**") {
			return true
		}
		// "**/x" should also match "x" at the root.
		if !strings.Contains(rel, "/") && strings.HasPrefix(cp.pattern, "**/") {
			g, err := glob.Compile(strings.TrimPrefix(cp.pattern, "**/"), '/')
			if err == nil && (g.Match(rel) || g.Match(rel+"/**")) {
				return true
			}
		}
	}
	return false
}
