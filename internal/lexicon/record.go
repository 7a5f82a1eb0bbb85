// Package lexicon turns cognate-coded word lists into binary
// presence/absence matrices for phylogenetic inference.
package lexicon

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ppiankov/dravlex/internal/table"
)

// Schema names the columns holding each record field. Columns are matched
// exactly; there is no fallback to alternative names.
type Schema struct {
	Language string
	Concept  string
	Cognate  string
}

// Validate checks that every field is declared.
func (s Schema) Validate() error {
	switch {
	case s.Language == "":
		return errors.New("schema: language column not declared")
	case s.Concept == "":
		return errors.New("schema: concept column not declared")
	case s.Cognate == "":
		return errors.New("schema: cognate column not declared")
	}
	return nil
}

// A Record is one word of one language for one concept, tagged with its
// cognate class. Class ids are only meaningful within a concept.
type Record struct {
	Language string
	Concept  string
	Cognate  string   // canonical class id, "" when missing
	Row      []string // the source row, for filtered re-export
}

// HasClass reports whether the record carries a valid cognate class.
func (r Record) HasClass() bool {
	return r.Cognate != ""
}

// Table is a parsed lexicon file.
type Table struct {
	Header  []string
	Records []Record
}

// CanonicalClass normalizes a raw cognate cell. Missing markers (empty,
// NaN, NA, none, null) and numeric zero map to "". Integral numbers lose any
// fractional suffix so "12.0" and "12" denote the same class.
func CanonicalClass(raw string) string {
	v := strings.TrimSpace(raw)
	switch strings.ToLower(v) {
	case "", "nan", "na", "n/a", "none", "null", "?", "-":
		return ""
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		if f == 0 {
			return ""
		}
		if f == float64(int64(f)) {
			return strconv.FormatInt(int64(f), 10)
		}
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return v
}

// Read parses a delimited lexicon with a header row.
func Read(in io.Reader, schema Schema, delim rune) (*Table, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	r := csv.NewReader(in)
	r.Comma = delim
	r.TrimLeadingSpace = true
	r.LazyQuotes = true
	r.FieldsPerRecord = -1

	head, err := r.Read()
	if err != nil {
		if err == io.EOF {
			return nil, errors.New("header (lexicon): empty input")
		}
		return nil, fmt.Errorf("header (lexicon): %w", err)
	}
	h := table.NewHeader(head)
	lang, err := h.Index(schema.Language)
	if err != nil {
		return nil, fmt.Errorf("header (lexicon): %w", err)
	}
	concept, err := h.Index(schema.Concept)
	if err != nil {
		return nil, fmt.Errorf("header (lexicon): %w", err)
	}
	cog, err := h.Index(schema.Cognate)
	if err != nil {
		return nil, fmt.Errorf("header (lexicon): %w", err)
	}

	t := &Table{Header: h.Names()}
	for i := 1; ; i++ {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("(lexicon) row %d: %w", i, err)
		}
		if len(row) != h.Len() {
			return nil, fmt.Errorf("(lexicon) row %d: %d fields, header declares %d", i, len(row), h.Len())
		}
		t.Records = append(t.Records, Record{
			Language: strings.TrimSpace(row[lang]),
			Concept:  strings.TrimSpace(row[concept]),
			Cognate:  CanonicalClass(row[cog]),
			Row:      row,
		})
	}
	return t, nil
}

// ReadFile opens and parses a lexicon file. The delimiter is resolved with
// table.Delimiter.
func ReadFile(path string, schema Schema, delimiter string) (*Table, error) {
	delim, err := table.Delimiter(path, delimiter)
	if err != nil {
		return nil, err
	}
	f, err := table.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	t, err := Read(f, schema, delim)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Filter returns the records whose language is one of targets.
func (t *Table) Filter(targets []string) *Table {
	keep := make(map[string]bool, len(targets))
	for _, l := range targets {
		keep[l] = true
	}
	out := &Table{Header: t.Header}
	for _, r := range t.Records {
		if keep[r.Language] {
			out.Records = append(out.Records, r)
		}
	}
	return out
}

// Concepts returns the number of distinct concepts.
func (t *Table) Concepts() int {
	seen := make(map[string]bool)
	for _, r := range t.Records {
		seen[r.Concept] = true
	}
	return len(seen)
}
