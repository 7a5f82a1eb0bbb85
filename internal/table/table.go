// Package table holds the delimited-text helpers shared by the lexicon and
// trace readers: opening inputs, resolving declared columns and choosing a
// delimiter.
package table

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned when an input file does not exist.
var ErrNotFound = errors.New("input file not found")

// ColumnError reports a declared column that is absent from a header.
type ColumnError struct {
	Column string
	Found  []string
}

func (e *ColumnError) Error() string {
	return fmt.Sprintf("expected column %q, found columns [%s]", e.Column, strings.Join(e.Found, ", "))
}

// Open opens an input file. A missing file yields an error wrapping
// ErrNotFound that names the path.
func Open(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, nil
}

// Header maps column names to their position.
type Header struct {
	names []string
	index map[string]int
}

// NewHeader builds a Header from a header row. Surrounding whitespace and a
// UTF-8 byte order mark on the first cell are ignored.
func NewHeader(row []string) Header {
	h := Header{
		names: make([]string, len(row)),
		index: make(map[string]int, len(row)),
	}
	for i, v := range row {
		if i == 0 {
			v = strings.TrimPrefix(v, "\ufeff")
		}
		v = strings.TrimSpace(v)
		h.names[i] = v
		if _, dup := h.index[v]; !dup {
			h.index[v] = i
		}
	}
	return h
}

// Names returns the column names in file order.
func (h Header) Names() []string {
	return append([]string(nil), h.names...)
}

// Len returns the number of columns.
func (h Header) Len() int {
	return len(h.names)
}

// Index returns the position of a column, or a *ColumnError if the header does
// not declare it. Matching is exact.
func (h Header) Index(column string) (int, error) {
	i, ok := h.index[column]
	if !ok {
		return -1, &ColumnError{Column: column, Found: h.Names()}
	}
	return i, nil
}

// Has reports whether the header declares a column.
func (h Header) Has(column string) bool {
	_, ok := h.index[column]
	return ok
}

// Delimiter resolves the field separator for a file. An explicit value wins
// ("tab", "\t", ",", "comma", ";"); otherwise .tsv and .tab files are
// tab-separated and everything else is comma-separated.
func Delimiter(path, explicit string) (rune, error) {
	switch strings.ToLower(explicit) {
	case "":
	case "tab", `\t`, "\t":
		return '\t', nil
	case "comma", ",":
		return ',', nil
	case "semicolon", ";":
		return ';', nil
	default:
		return 0, fmt.Errorf("unsupported delimiter %q", explicit)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tsv", ".tab", ".log":
		return '\t', nil
	}
	return ',', nil
}

// EnsureDir creates the parent directory of path when it does not exist.
func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}
	return nil
}
