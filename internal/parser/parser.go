package parser

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dgallion1/plcdoc/internal/doctree"
)

// Parser converts raw source file bytes into a Unit.
type Parser interface {
	Parse(r io.Reader, filename string) (*doctree.Unit, error)
}

// SupportedExtensions lists the file suffixes the collector picks up.
// Matching is case-sensitive, as written by the TwinCAT engineering tools.
var SupportedExtensions = map[string]bool{
	".TcPOU": true, // program units, function blocks, functions
	".TcDUT": true, // data types
	".TcGVL": true, // global variable lists
	".TcIO":  true, // interfaces
}

// ParseError reports a single input file that could not be extracted.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string) (Parser, error) {
	ext := filepath.Ext(filename)
	switch ext {
	case ".TcPOU", ".TcDUT", ".TcGVL", ".TcIO":
		return &TwinCATParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %q", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	return SupportedExtensions[filepath.Ext(filename)]
}

// ParseFile opens and extracts one file. Every failure is returned as a
// *ParseError naming the path.
func ParseFile(path string) (*doctree.Unit, error) {
	p, err := ForFile(path)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	defer f.Close()

	unit, err := p.Parse(f, filepath.Base(path))
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	unit.Path = path
	return unit, nil
}
