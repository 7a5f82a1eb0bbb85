// Package trace reads MCMC trace logs and trims burn-in.
//
// A trace log is tab-separated text. Lines starting with '#' are comments,
// the first other line is the header naming each logged parameter, and every
// following line is one retained sample in sampling order.
package trace

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/ppiankov/dravlex/internal/table"
)

// DefaultBurnIn is the fraction of samples discarded when none is given.
const DefaultBurnIn = 0.1

var (
	// ErrEmptyTrace is returned for a log with a header but no samples.
	ErrEmptyTrace = errors.New("trace has no samples")
	// ErrBurnIn is returned for a burn-in fraction outside [0,1).
	ErrBurnIn = errors.New("burn-in fraction must be in [0,1)")
)

// Trace is an ordered sequence of samples, stored column-major.
type Trace struct {
	header table.Header
	values [][]float64 // values[column][sample]
	n      int
}

// Read parses a trace log. A trailing tab at the end of the header or of a
// row is ignored.
func Read(in io.Reader) (*Trace, error) {
	r := csv.NewReader(in)
	r.Comma = '\t'
	r.Comment = '#'
	r.ReuseRecord = true
	r.FieldsPerRecord = -1

	head, err := r.Read()
	if err != nil {
		if err == io.EOF {
			return nil, errors.New("header (trace): no header line")
		}
		return nil, fmt.Errorf("header (trace): %w", err)
	}
	head = trimTrailingEmpty(head)
	t := &Trace{header: table.NewHeader(head)}
	width := t.header.Len()
	t.values = make([][]float64, width)

	for i := 1; ; i++ {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("(trace) row %d: %w", i, err)
		}
		if len(row) > width {
			row = trimTrailingEmpty(row)
		}
		if len(row) != width {
			return nil, fmt.Errorf("(trace) row %d: %d fields, want %d", i, len(row), width)
		}
		for j, cell := range row {
			v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil {
				return nil, fmt.Errorf("(trace) row %d, column %q: %w", i, t.header.Names()[j], err)
			}
			t.values[j] = append(t.values[j], v)
		}
		t.n++
	}
	if t.n == 0 {
		return nil, ErrEmptyTrace
	}
	return t, nil
}

// trimTrailingEmpty drops one empty last cell left by a trailing tab.
func trimTrailingEmpty(row []string) []string {
	if n := len(row); n > 1 && strings.TrimSpace(row[n-1]) == "" {
		return row[:n-1]
	}
	return row
}

// ReadFile opens and parses a trace log.
func ReadFile(path string) (*Trace, error) {
	f, err := table.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	t, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Len returns the number of samples.
func (t *Trace) Len() int {
	return t.n
}

// Columns returns the logged parameter names.
func (t *Trace) Columns() []string {
	return t.header.Names()
}

// Has reports whether the trace logs a parameter.
func (t *Trace) Has(column string) bool {
	return t.header.Has(column)
}

// Column returns the values of a parameter in sampling order. The slice is
// shared with the trace and must not be modified. A missing column yields a
// *table.ColumnError.
func (t *Trace) Column(name string) ([]float64, error) {
	i, err := t.header.Index(name)
	if err != nil {
		return nil, err
	}
	return t.values[i], nil
}

// BurnInCount returns floor(n * fraction).
func BurnInCount(n int, fraction float64) (int, error) {
	if math.IsNaN(fraction) || fraction < 0 || fraction >= 1 {
		return 0, fmt.Errorf("%w: %v", ErrBurnIn, fraction)
	}
	return int(math.Floor(float64(n) * fraction)), nil
}

// Discard returns a new trace without the first floor(n * fraction) samples.
// The receiver is left untouched and the order of retained samples is kept.
func (t *Trace) Discard(fraction float64) (*Trace, int, error) {
	k, err := BurnInCount(t.n, fraction)
	if err != nil {
		return nil, 0, err
	}
	out := &Trace{
		header: t.header,
		values: make([][]float64, len(t.values)),
		n:      t.n - k,
	}
	for i, col := range t.values {
		out.values[i] = col[k:len(col):len(col)]
	}
	return out, k, nil
}

// New builds a trace from named columns of equal length. It is used by
// callers that already hold samples in memory.
func New(columns []string, values [][]float64) (*Trace, error) {
	if len(columns) != len(values) {
		return nil, fmt.Errorf("%d column names for %d columns", len(columns), len(values))
	}
	t := &Trace{header: table.NewHeader(columns), values: make([][]float64, len(values))}
	for i, col := range values {
		if i == 0 {
			t.n = len(col)
		} else if len(col) != t.n {
			return nil, fmt.Errorf("column %q has %d samples, want %d", columns[i], len(col), t.n)
		}
		t.values[i] = append([]float64(nil), col...)
	}
	return t, nil
}
