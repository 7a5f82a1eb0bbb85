package lexicon

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ppiankov/dravlex/internal/table"
)

// LanguageColumn heads the taxon column of wide and long tables.
const LanguageColumn = "Language"

// WriteWide writes the matrix with one row per language. The layout
// (Language, feature...) is also what BEASTling reads.
func WriteWide(w io.Writer, m *Matrix) error {
	if err := m.Validate(); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	head := make([]string, 0, len(m.Features)+1)
	head = append(head, LanguageColumn)
	for _, f := range m.Features {
		head = append(head, f.Name())
	}
	if err := cw.Write(head); err != nil {
		return err
	}
	row := make([]string, len(head))
	for i, l := range m.Languages {
		row[0] = l
		for j, v := range m.Cells[i] {
			row[j+1] = strconv.Itoa(int(v))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteLong writes (Language, Feature, Value) rows.
func WriteLong(w io.Writer, long []LongRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{LanguageColumn, "Feature", "Value"}); err != nil {
		return err
	}
	for _, r := range long {
		if err := cw.Write([]string{r.Language, r.Feature, strconv.Itoa(int(r.Value))}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteRecords writes the source rows of a table as CSV with its header.
func WriteRecords(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return err
	}
	for _, r := range t.Records {
		if err := cw.Write(r.Row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadWide parses a wide matrix: first column languages, then one 0/1
// column per feature.
func ReadWide(in io.Reader) (*Matrix, error) {
	r := csv.NewReader(in)
	r.TrimLeadingSpace = true
	head, err := r.Read()
	if err != nil {
		if err == io.EOF {
			return nil, errors.New("header (matrix): empty input")
		}
		return nil, fmt.Errorf("header (matrix): %w", err)
	}
	h := table.NewHeader(head)
	names := h.Names()
	if len(names) < 1 {
		return nil, errors.New("header (matrix): no columns")
	}
	m := &Matrix{}
	for _, n := range names[1:] {
		f, err := ParseFeature(n)
		if err != nil {
			return nil, fmt.Errorf("header (matrix): %w", err)
		}
		m.Features = append(m.Features, f)
	}
	for i := 1; ; i++ {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("(matrix) row %d: %w", i, err)
		}
		cells := make([]uint8, len(m.Features))
		for j, v := range row[1:] {
			switch strings.TrimSpace(v) {
			case "0", "0.0", "":
			case "1", "1.0":
				cells[j] = 1
			default:
				return nil, fmt.Errorf("(matrix) row %d, column %q: value %q is not 0 or 1", i, names[j+1], v)
			}
		}
		m.Languages = append(m.Languages, strings.TrimSpace(row[0]))
		m.Cells = append(m.Cells, cells)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// ReadWideFile opens and parses a wide matrix file.
func ReadWideFile(path string) (*Matrix, error) {
	f, err := table.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	m, err := ReadWide(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// ReadLong parses a (Language, Feature, Value) table.
func ReadLong(in io.Reader) ([]LongRow, error) {
	r := csv.NewReader(in)
	r.TrimLeadingSpace = true
	head, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("header (long): %w", err)
	}
	h := table.NewHeader(head)
	lang, err := h.Index(LanguageColumn)
	if err != nil {
		return nil, fmt.Errorf("header (long): %w", err)
	}
	feat, err := h.Index("Feature")
	if err != nil {
		return nil, fmt.Errorf("header (long): %w", err)
	}
	val, err := h.Index("Value")
	if err != nil {
		return nil, fmt.Errorf("header (long): %w", err)
	}
	var out []LongRow
	for i := 1; ; i++ {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("(long) row %d: %w", i, err)
		}
		v, err := strconv.ParseUint(strings.TrimSpace(row[val]), 10, 8)
		if err != nil || v > 1 {
			return nil, fmt.Errorf("(long) row %d: value %q is not 0 or 1", i, row[val])
		}
		out = append(out, LongRow{Language: row[lang], Feature: row[feat], Value: uint8(v)})
	}
	return out, nil
}

// WriteFile creates path (and its directory) and fills it with write. The
// file is removed if write fails.
func WriteFile(path string, write func(io.Writer) error) (err error) {
	if err := table.EnsureDir(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, closeErr)
		}
		if err != nil {
			_ = os.Remove(path)
		}
	}()
	if err := write(f); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
