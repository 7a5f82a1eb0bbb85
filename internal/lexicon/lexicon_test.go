package lexicon

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/dravlex/internal/table"
)

var targets = []string{"Telugu", "Tamil", "Kannada", "Malayalam"}

var lingpySchema = Schema{Language: "DOCULECT", Concept: "CONCEPT", Cognate: "COGID"}

const dravlex = "ID\tDOCULECT\tCONCEPT\tIPA\tCOGID\n" +
	"1\tTelugu\twater\tnīru\t1\n" +
	"2\tTamil\twater\tnīr\t1\n" +
	"3\tKannada\twater\tjala\t2\n" +
	"4\tMalayalam\twater\tveḷḷam\t1\n" +
	"5\tTelugu\tfire\tnippu\t3.0\n" +
	"6\tTamil\tfire\tti\t4\n" +
	"7\tKannada\tfire\tbeṅki\t0\n" +
	"8\tMalayalam\tfire\tti\t4\n" +
	"9\tKota\twater\tnīr\t1\n" +
	"10\tKota\tstone\tkal\t9\n" +
	"11\tTamil\tstone\tkal\t\n"

func records(triples ...[3]string) []Record {
	out := make([]Record, len(triples))
	for i, tr := range triples {
		out[i] = Record{Language: tr[0], Concept: tr[1], Cognate: CanonicalClass(tr[2])}
	}
	return out
}

func TestBuild_WaterScenario(t *testing.T) {
	recs := records(
		[3]string{"Telugu", "water", "1"},
		[3]string{"Tamil", "water", "1"},
		[3]string{"Kannada", "water", "2"},
		[3]string{"Malayalam", "water", "1"},
	)

	res, err := Build(recs, targets)
	require.NoError(t, err)
	m := res.Matrix

	require.Len(t, m.Features, 2)
	assert.Equal(t, "water_1", m.Features[0].Name())
	assert.Equal(t, "water_2", m.Features[1].Name())
	assert.Equal(t, []uint8{1, 1, 0, 1}, m.Column(m.Index("water_1")))
	assert.Equal(t, []uint8{0, 0, 1, 0}, m.Column(m.Index("water_2")))
	assert.Empty(t, res.Absent)
	assert.Len(t, res.Long, 8)
}

func TestBuild_AbsentLanguageGetsZeroRow(t *testing.T) {
	recs := records(
		[3]string{"Telugu", "water", "1"},
		[3]string{"Tamil", "water", "2"},
		[3]string{"Kannada", "water", "1"},
	)

	res, err := Build(recs, targets)
	require.NoError(t, err)

	m := res.Matrix
	require.Equal(t, targets, m.Languages)
	assert.Equal(t, "00", m.Row(3))
	assert.Equal(t, []string{"Malayalam"}, res.Absent)
}

func TestBuild_MissingClassesProduceNoFeature(t *testing.T) {
	recs := records(
		[3]string{"Telugu", "eye", ""},
		[3]string{"Tamil", "eye", "NaN"},
		[3]string{"Kannada", "eye", "0"},
		[3]string{"Malayalam", "eye", "none"},
		[3]string{"Telugu", "ear", "5"},
	)

	res, err := Build(recs, targets)
	require.NoError(t, err)

	require.Len(t, res.Matrix.Features, 1)
	assert.Equal(t, "ear_5", res.Matrix.Features[0].Name())
	assert.Empty(t, res.Absent, "a language with only missing classes still has records")
}

func TestBuild_ClassesAreScopedToConcept(t *testing.T) {
	recs := records(
		[3]string{"Telugu", "water", "1"},
		[3]string{"Tamil", "fire", "1"},
	)

	res, err := Build(recs, targets)
	require.NoError(t, err)

	m := res.Matrix
	assert.Equal(t, []uint8{1, 0, 0, 0}, m.Column(m.Index("water_1")))
	assert.Equal(t, []uint8{0, 1, 0, 0}, m.Column(m.Index("fire_1")))
}

func TestBuild_IgnoresNonTargetLanguages(t *testing.T) {
	recs := records(
		[3]string{"Kota", "stone", "9"},
		[3]string{"Tamil", "stone", "1"},
	)

	res, err := Build(recs, targets)
	require.NoError(t, err)

	require.Len(t, res.Matrix.Features, 1)
	assert.Equal(t, "stone_1", res.Matrix.Features[0].Name())
}

func TestBuild_DuplicateTargets(t *testing.T) {
	_, err := Build(nil, []string{"Tamil", "Telugu", "Tamil"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateTaxon))
	assert.Contains(t, err.Error(), "Tamil")
}

func TestBuild_NoTargets(t *testing.T) {
	_, err := Build(nil, nil)
	assert.True(t, errors.Is(err, ErrNoTargets))
}

func TestBuild_MatrixProperties(t *testing.T) {
	tbl, err := Read(strings.NewReader(dravlex), lingpySchema, '\t')
	require.NoError(t, err)

	res, err := Build(tbl.Records, targets)
	require.NoError(t, err)
	m := res.Matrix

	require.NoError(t, m.Validate())
	assert.Equal(t, targets, m.Languages)
	for j := range m.Features {
		sum := 0
		for _, v := range m.Column(j) {
			assert.LessOrEqual(t, v, uint8(1))
			sum += int(v)
		}
		assert.GreaterOrEqual(t, sum, 1, m.Features[j].Name())
		assert.LessOrEqual(t, sum, len(targets), m.Features[j].Name())
	}
}

func TestBuild_FeatureOrderIsStable(t *testing.T) {
	recs := records(
		[3]string{"Telugu", "water", "10"},
		[3]string{"Tamil", "water", "2"},
		[3]string{"Kannada", "fire", "b"},
		[3]string{"Malayalam", "fire", "1"},
	)

	var names []string
	for i := 0; i < 5; i++ {
		res, err := Build(recs, targets)
		require.NoError(t, err)
		var got []string
		for _, f := range res.Matrix.Features {
			got = append(got, f.Name())
		}
		if names == nil {
			names = got
		}
		assert.Equal(t, names, got)
	}
	assert.Equal(t, []string{"fire_1", "fire_b", "water_2", "water_10"}, names)
}

func TestPivot_RoundTrip(t *testing.T) {
	tbl, err := Read(strings.NewReader(dravlex), lingpySchema, '\t')
	require.NoError(t, err)
	res, err := Build(tbl.Records, targets)
	require.NoError(t, err)

	back, err := Pivot(res.Long)
	require.NoError(t, err)

	if diff := cmp.Diff(res.Matrix, back); diff != "" {
		t.Errorf("long -> wide mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(res.Long, res.Matrix.Long()); diff != "" {
		t.Errorf("matrix long form mismatch (-want +got):\n%s", diff)
	}
}

func TestPivot_ConflictingValues(t *testing.T) {
	_, err := Pivot([]LongRow{
		{Language: "Tamil", Feature: "water_1", Value: 1},
		{Language: "Tamil", Feature: "water_1", Value: 0},
	})
	assert.Error(t, err)
}

func TestPivot_FillsMissingWithZero(t *testing.T) {
	m, err := Pivot([]LongRow{
		{Language: "Tamil", Feature: "water_1", Value: 1},
		{Language: "Telugu", Feature: "fire_2", Value: 1},
	})
	require.NoError(t, err)

	assert.Equal(t, [][]uint8{{1, 0}, {0, 1}}, m.Cells)
}

func TestRead_ExplicitSchema(t *testing.T) {
	tbl, err := Read(strings.NewReader(dravlex), lingpySchema, '\t')
	require.NoError(t, err)

	require.Len(t, tbl.Records, 11)
	assert.Equal(t, "3", tbl.Records[4].Cognate, "3.0 is canonicalized")
	assert.Equal(t, "", tbl.Records[6].Cognate, "0 is missing")
	assert.Equal(t, "", tbl.Records[10].Cognate, "empty is missing")
	assert.Equal(t, 3, tbl.Concepts())
}

func TestRead_MissingColumnFailsFast(t *testing.T) {
	schema := Schema{Language: "Language", Concept: "CONCEPT", Cognate: "COGID"}

	_, err := Read(strings.NewReader(dravlex), schema, '\t')

	var colErr *table.ColumnError
	require.True(t, errors.As(err, &colErr))
	assert.Equal(t, "Language", colErr.Column)
	assert.Contains(t, err.Error(), "DOCULECT")
}

func TestRead_UndeclaredSchema(t *testing.T) {
	_, err := Read(strings.NewReader(dravlex), Schema{Language: "DOCULECT"}, '\t')
	assert.Error(t, err)
}

func TestReadFile_Missing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "DravLex.tsv")

	_, err := ReadFile(path, lingpySchema, "")

	assert.True(t, errors.Is(err, table.ErrNotFound))
	assert.Contains(t, err.Error(), path)
}

func TestTable_Filter(t *testing.T) {
	tbl, err := Read(strings.NewReader(dravlex), lingpySchema, '\t')
	require.NoError(t, err)

	f := tbl.Filter(targets)

	assert.Len(t, f.Records, 9)
	for _, r := range f.Records {
		assert.NotEqual(t, "Kota", r.Language)
	}

	var buf bytes.Buffer
	require.NoError(t, WriteRecords(&buf, f))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 10)
	assert.Equal(t, "ID,DOCULECT,CONCEPT,IPA,COGID", lines[0])
}

func TestCanonicalClass(t *testing.T) {
	tests := map[string]string{
		"":      "",
		" NaN ": "",
		"NA":    "",
		"0":     "",
		"0.0":   "",
		"none":  "",
		"7":     "7",
		"7.0":   "7",
		"7.5":   "7.5",
		"a12":   "a12",
	}
	for in, want := range tests {
		assert.Equal(t, want, CanonicalClass(in), "input %q", in)
	}
}

func TestParseFeature(t *testing.T) {
	f, err := ParseFeature("to_bite_12")
	require.NoError(t, err)
	assert.Equal(t, Feature{Concept: "to_bite", Class: "12"}, f)

	for _, bad := range []string{"water", "_1", "water_"} {
		_, err := ParseFeature(bad)
		assert.Error(t, err, bad)
	}
}
