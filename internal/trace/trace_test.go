package trace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/dravlex/internal/table"
)

const beastLog = `# BEAST v2.7.7
# Generated Tue Oct 14 2025
Sample	posterior	likelihood	Tree.height
0	-1500.5	-1400.25	5.1
1000	-1200.0	-1100.0	4.9
2000	-1190.5	-1090.0	4.2
`

func TestRead_SkipsCommentsAndParsesColumns(t *testing.T) {
	tr, err := Read(strings.NewReader(beastLog))
	require.NoError(t, err)

	assert.Equal(t, 3, tr.Len())
	assert.Equal(t, []string{"Sample", "posterior", "likelihood", "Tree.height"}, tr.Columns())

	h, err := tr.Column("Tree.height")
	require.NoError(t, err)
	assert.Equal(t, []float64{5.1, 4.9, 4.2}, h)
}

func TestRead_MissingColumn(t *testing.T) {
	tr, err := Read(strings.NewReader(beastLog))
	require.NoError(t, err)

	_, err = tr.Column("TreeHeight")

	var colErr *table.ColumnError
	require.True(t, errors.As(err, &colErr))
	assert.Contains(t, err.Error(), `expected column "TreeHeight"`)
	assert.Contains(t, err.Error(), "Tree.height")
}

func TestRead_MalformedRows(t *testing.T) {
	tests := map[string]string{
		"short row":   "a\tb\n1\t2\n3\n",
		"long row":    "a\tb\n1\t2\t3\n",
		"non-numeric": "a\tb\n1\tx\n",
		"no header":   "# only comments\n",
		"no samples":  "# c\na\tb\n",
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Read(strings.NewReader(in))
			assert.Error(t, err)
		})
	}

	_, err := Read(strings.NewReader("a\tb\n"))
	assert.True(t, errors.Is(err, ErrEmptyTrace))
}

func TestRead_TrailingTabs(t *testing.T) {
	in := "# BEAST v2.6.7\nSample\tposterior\tTree.height\t\n0\t-1500.5\t5.1\t\n1000\t-1200.0\t4.9\n"

	tr, err := Read(strings.NewReader(in))
	require.NoError(t, err)

	assert.Equal(t, []string{"Sample", "posterior", "Tree.height"}, tr.Columns())
	assert.Equal(t, 2, tr.Len())
	h, err := tr.Column("Tree.height")
	require.NoError(t, err)
	assert.Equal(t, []float64{5.1, 4.9}, h)
}

func TestReadFile_Missing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.log")

	_, err := ReadFile(path)

	assert.True(t, errors.Is(err, table.ErrNotFound))
	assert.Contains(t, err.Error(), path)
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")
	require.NoError(t, os.WriteFile(path, []byte(beastLog), 0644))

	tr, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 3, tr.Len())
}

func sequenceTrace(t *testing.T, n int) *Trace {
	t.Helper()
	var b strings.Builder
	b.WriteString("# comment\nSample\tTree.height\n")
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&b, "%d\t%d\n", i, i)
	}
	tr, err := Read(strings.NewReader(b.String()))
	require.NoError(t, err)
	return tr
}

func TestDiscard_HundredSamplesTenPercent(t *testing.T) {
	tr := sequenceTrace(t, 100)

	post, k, err := tr.Discard(0.1)
	require.NoError(t, err)

	assert.Equal(t, 10, k)
	assert.Equal(t, 90, post.Len())
	s, err := post.Column("Sample")
	require.NoError(t, err)
	assert.Equal(t, 11.0, s[0])
	assert.Equal(t, 100.0, s[len(s)-1])
	for i := 1; i < len(s); i++ {
		assert.Less(t, s[i-1], s[i], "order must be preserved")
	}

	// the original trace is untouched
	assert.Equal(t, 100, tr.Len())
}

func TestDiscard_ZeroFractionIsIdentity(t *testing.T) {
	tr := sequenceTrace(t, 57)
	post, _, err := tr.Discard(0.1)
	require.NoError(t, err)

	again, k, err := post.Discard(0)
	require.NoError(t, err)

	assert.Equal(t, 0, k)
	a, _ := post.Column("Tree.height")
	b, _ := again.Column("Tree.height")
	assert.Equal(t, a, b)
}

func TestDiscard_Floor(t *testing.T) {
	tr := sequenceTrace(t, 9)

	post, k, err := tr.Discard(0.25)
	require.NoError(t, err)

	assert.Equal(t, 2, k)
	assert.Equal(t, 7, post.Len())
}

func TestBurnInCount_Bounds(t *testing.T) {
	for _, f := range []float64{-0.1, 1, 1.5} {
		_, err := BurnInCount(100, f)
		assert.True(t, errors.Is(err, ErrBurnIn), "fraction %v", f)
	}
	k, err := BurnInCount(0, 0.5)
	require.NoError(t, err)
	assert.Equal(t, 0, k)
}

func TestNew(t *testing.T) {
	tr, err := New([]string{"a", "b"}, [][]float64{{1, 2}, {3, 4}})
	require.NoError(t, err)
	assert.Equal(t, 2, tr.Len())

	_, err = New([]string{"a", "b"}, [][]float64{{1, 2}, {3}})
	assert.Error(t, err)
}
