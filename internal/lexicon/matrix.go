package lexicon

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

var (
	// ErrDuplicateTaxon is returned when a language would occupy two rows.
	ErrDuplicateTaxon = errors.New("duplicate taxon")
	// ErrAbsentLanguage is returned in strict mode for a target language
	// without records.
	ErrAbsentLanguage = errors.New("target language has no records")
	// ErrNoTargets is returned when no target language is declared.
	ErrNoTargets = errors.New("no target languages")
)

// A Feature is one cognate class of one concept.
type Feature struct {
	Concept string
	Class   string
}

// Name returns the column name "{concept}_{class}".
func (f Feature) Name() string {
	return f.Concept + "_" + f.Class
}

// ParseFeature splits a feature name at its last underscore.
func ParseFeature(name string) (Feature, error) {
	i := strings.LastIndex(name, "_")
	if i <= 0 || i == len(name)-1 {
		return Feature{}, fmt.Errorf("feature %q: want {concept}_{class}", name)
	}
	return Feature{Concept: name[:i], Class: name[i+1:]}, nil
}

// Matrix is a language x feature binary matrix. Cells[i][j] is the value of
// Features[j] for Languages[i].
type Matrix struct {
	Languages []string
	Features  []Feature
	Cells     [][]uint8
}

// LongRow is one (language, feature, value) triple.
type LongRow struct {
	Language string
	Feature  string
	Value    uint8
}

// Result is the output of Build.
type Result struct {
	Matrix *Matrix
	Long   []LongRow
	Absent []string // target languages without any record
}

// Build codes records into a binary matrix over targets. Records of other
// languages are ignored. Every target gets a row even when it has no records;
// such languages are listed in Result.Absent.
func Build(records []Record, targets []string) (*Result, error) {
	if len(targets) == 0 {
		return nil, ErrNoTargets
	}
	if err := checkUnique(targets); err != nil {
		return nil, err
	}
	row := make(map[string]int, len(targets))
	for i, l := range targets {
		row[l] = i
	}

	// concept -> class -> languages carrying it
	classes := make(map[string]map[string]map[int]bool)
	seen := make([]bool, len(targets))
	for _, r := range records {
		i, ok := row[r.Language]
		if !ok {
			continue
		}
		seen[i] = true
		if !r.HasClass() {
			continue
		}
		byClass, ok := classes[r.Concept]
		if !ok {
			byClass = make(map[string]map[int]bool)
			classes[r.Concept] = byClass
		}
		langs, ok := byClass[r.Cognate]
		if !ok {
			langs = make(map[int]bool)
			byClass[r.Cognate] = langs
		}
		langs[i] = true
	}

	var features []Feature
	for concept, byClass := range classes {
		for class := range byClass {
			features = append(features, Feature{Concept: concept, Class: class})
		}
	}
	sortFeatures(features)

	m := &Matrix{
		Languages: append([]string(nil), targets...),
		Features:  features,
		Cells:     make([][]uint8, len(targets)),
	}
	for i := range m.Cells {
		m.Cells[i] = make([]uint8, len(features))
	}
	long := make([]LongRow, 0, len(features)*len(targets))
	for j, f := range features {
		langs := classes[f.Concept][f.Class]
		for i, l := range targets {
			var v uint8
			if langs[i] {
				v = 1
			}
			m.Cells[i][j] = v
			long = append(long, LongRow{Language: l, Feature: f.Name(), Value: v})
		}
	}

	res := &Result{Matrix: m, Long: long}
	for i, ok := range seen {
		if !ok {
			res.Absent = append(res.Absent, targets[i])
		}
	}
	return res, nil
}

// sortFeatures orders features by concept, then by class. Numeric classes
// sort numerically and before non-numeric ones.
func sortFeatures(fs []Feature) {
	sort.Slice(fs, func(a, b int) bool {
		if fs[a].Concept != fs[b].Concept {
			return fs[a].Concept < fs[b].Concept
		}
		na, errA := strconv.ParseFloat(fs[a].Class, 64)
		nb, errB := strconv.ParseFloat(fs[b].Class, 64)
		switch {
		case errA == nil && errB == nil && na != nb:
			return na < nb
		case errA == nil && errB != nil:
			return true
		case errA != nil && errB == nil:
			return false
		}
		return fs[a].Class < fs[b].Class
	})
}

func checkUnique(languages []string) error {
	seen := make(map[string]bool, len(languages))
	var dups []string
	for _, l := range languages {
		if seen[l] {
			dups = append(dups, l)
		}
		seen[l] = true
	}
	if len(dups) > 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateTaxon, strings.Join(dups, ", "))
	}
	return nil
}

// Validate checks the matrix invariants: unique languages, one row per
// language, one cell per feature and binary values.
func (m *Matrix) Validate() error {
	if err := checkUnique(m.Languages); err != nil {
		return err
	}
	if len(m.Cells) != len(m.Languages) {
		return fmt.Errorf("matrix has %d rows for %d languages", len(m.Cells), len(m.Languages))
	}
	for i, row := range m.Cells {
		if len(row) != len(m.Features) {
			return fmt.Errorf("row %q has %d cells, want %d", m.Languages[i], len(row), len(m.Features))
		}
		for j, v := range row {
			if v > 1 {
				return fmt.Errorf("cell (%s, %s) = %d, want 0 or 1", m.Languages[i], m.Features[j].Name(), v)
			}
		}
	}
	names := make(map[string]bool, len(m.Features))
	for _, f := range m.Features {
		if names[f.Name()] {
			return fmt.Errorf("duplicate feature %q", f.Name())
		}
		names[f.Name()] = true
	}
	return nil
}

// Row returns the 0/1 string of one language.
func (m *Matrix) Row(i int) string {
	var b strings.Builder
	b.Grow(len(m.Cells[i]))
	for _, v := range m.Cells[i] {
		b.WriteByte('0' + v)
	}
	return b.String()
}

// Column returns the values of feature j, one per language.
func (m *Matrix) Column(j int) []uint8 {
	col := make([]uint8, len(m.Languages))
	for i := range m.Languages {
		col[i] = m.Cells[i][j]
	}
	return col
}

// Index returns the column of a named feature, or -1.
func (m *Matrix) Index(feature string) int {
	for j, f := range m.Features {
		if f.Name() == feature {
			return j
		}
	}
	return -1
}

// Long returns the long-format rows of the matrix, feature-major.
func (m *Matrix) Long() []LongRow {
	long := make([]LongRow, 0, len(m.Features)*len(m.Languages))
	for j, f := range m.Features {
		for i, l := range m.Languages {
			long = append(long, LongRow{Language: l, Feature: f.Name(), Value: m.Cells[i][j]})
		}
	}
	return long
}

// Pivot rebuilds a wide matrix from long rows. Languages and features keep
// their order of first appearance; combinations not present are 0. A
// (language, feature) pair given twice with different values is an error.
func Pivot(long []LongRow) (*Matrix, error) {
	m := &Matrix{}
	li := make(map[string]int)
	fi := make(map[string]int)
	for _, r := range long {
		if _, ok := li[r.Language]; !ok {
			li[r.Language] = len(m.Languages)
			m.Languages = append(m.Languages, r.Language)
		}
		if _, ok := fi[r.Feature]; !ok {
			f, err := ParseFeature(r.Feature)
			if err != nil {
				return nil, err
			}
			fi[r.Feature] = len(m.Features)
			m.Features = append(m.Features, f)
		}
	}
	m.Cells = make([][]uint8, len(m.Languages))
	set := make([][]bool, len(m.Languages))
	for i := range m.Cells {
		m.Cells[i] = make([]uint8, len(m.Features))
		set[i] = make([]bool, len(m.Features))
	}
	for _, r := range long {
		if r.Value > 1 {
			return nil, fmt.Errorf("(%s, %s) = %d, want 0 or 1", r.Language, r.Feature, r.Value)
		}
		i, j := li[r.Language], fi[r.Feature]
		if set[i][j] && m.Cells[i][j] != r.Value {
			return nil, fmt.Errorf("(%s, %s) given twice with different values", r.Language, r.Feature)
		}
		m.Cells[i][j] = r.Value
		set[i][j] = true
	}
	return m, nil
}
