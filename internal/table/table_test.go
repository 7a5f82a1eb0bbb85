package table

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_MissingFileNamesPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.tsv")

	_, err := Open(path)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), path)
}

func TestHeader_Index(t *testing.T) {
	h := NewHeader([]string{"\ufeffID", " DOCULECT ", "CONCEPT", "COGID"})

	i, err := h.Index("DOCULECT")
	require.NoError(t, err)
	assert.Equal(t, 1, i)

	i, err = h.Index("ID")
	require.NoError(t, err)
	assert.Equal(t, 0, i)

	_, err = h.Index("Language")
	var colErr *ColumnError
	require.True(t, errors.As(err, &colErr))
	assert.Equal(t, "Language", colErr.Column)
	assert.Equal(t, []string{"ID", "DOCULECT", "CONCEPT", "COGID"}, colErr.Found)
	assert.Equal(t, `expected column "Language", found columns [ID, DOCULECT, CONCEPT, COGID]`, err.Error())
}

func TestDelimiter(t *testing.T) {
	tests := []struct {
		path, explicit string
		want           rune
	}{
		{"data.tsv", "", '\t'},
		{"run.log", "", '\t'},
		{"data.csv", "", ','},
		{"data.txt", "tab", '\t'},
		{"data.tsv", "comma", ','},
		{"data.csv", ";", ';'},
	}
	for _, tt := range tests {
		got, err := Delimiter(tt.path, tt.explicit)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%s/%s", tt.path, tt.explicit)
	}

	_, err := Delimiter("data.csv", "pipe")
	assert.Error(t, err)
}

func TestEnsureDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "out.csv")

	require.NoError(t, EnsureDir(path))

	info, err := os.Stat(filepath.Dir(path))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
