package timeline

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/dravlex/internal/model"
)

func sampleDocument() *Document {
	return &Document{
		Title:    "Dravidian Language Evolution Timeline",
		Subtitle: "Telugu, Tamil, Kannada, Malayalam",
		Present:  2025,
		Events: []Event{
			{Year: 2025, Title: "Present Day", Kind: KindModern, Languages: []string{"Telugu", "Tamil"},
				Description: "Four major South Dravidian languages"},
			{Year: 300, BCE: true, KYA: 2.33, Title: "Tamil Attestation", Category: "Epigraphy", Kind: KindHistory,
				Description: strings.Repeat("x", 120)},
			{Year: 2220, BCE: true, KYA: 4.22, Title: "PROTO-DRAVIDIAN", Kind: KindProto,
				Estimate: &Estimate{Mean: 4.22, Lower: 3.08, Upper: 5.79,
					Reference: &model.Reference{Label: "Kolipakam et al. (2018)", Mean: 4.65, Lower: 3, Upper: 6.5}}},
		},
		Notes: []string{"Phylogenetic analysis: 267 binary cognate features"},
	}
}

// elements counts start elements by local name.
func elements(t *testing.T, data []byte) map[string]int {
	t.Helper()
	counts := make(map[string]int)
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		if se, ok := tok.(xml.StartElement); ok {
			counts[se.Name.Local]++
		}
	}
	return counts
}

func TestRender_WellFormed(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, Render(&buf, sampleDocument(), 0))

	out := buf.Bytes()
	assert.True(t, bytes.HasPrefix(out, []byte(xml.Header)))
	counts := elements(t, out)
	assert.Equal(t, 1, counts["svg"])
	assert.Equal(t, 1, counts["line"])
	assert.Equal(t, 3, counts["rect"], "one box per event")
	assert.Equal(t, 3+len(legend), counts["circle"], "event nodes plus legend markers")
	assert.Contains(t, buf.String(), `width="1400"`)
	assert.Contains(t, buf.String(), `class="proto-box"`)
}

func TestRender_EventText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, sampleDocument(), 1200))
	out := buf.String()

	assert.Contains(t, out, "300 BCE (2.33 kya)")
	assert.Contains(t, out, "[Epigraphy]")
	assert.Contains(t, out, strings.Repeat("x", 90)+"...")
	assert.NotContains(t, out, strings.Repeat("x", 91))
	assert.Contains(t, out, "Bayesian estimate: 4.22 kya [95% HPD: 3.08-5.79]")
	assert.Contains(t, out, "Kolipakam et al. (2018): 4.65 kya [3.0-6.5]")
	assert.Contains(t, out, "Phylogenetic analysis: 267 binary cognate features")
	assert.Contains(t, out, `viewBox="0 0 1200 `)
}

func TestRender_ProtoNodeIsLarger(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, sampleDocument(), 0))

	assert.Contains(t, buf.String(), `r="18" fill="#2196f3"`)
	assert.Contains(t, buf.String(), `r="12" fill="#27ae60"`)
}

func TestRender_RejectsInvalidDocument(t *testing.T) {
	d := sampleDocument()
	d.Events[0].Kind = "ancient"

	err := Render(io.Discard, d, 0)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "ancient")
}

func TestApplyReport_OverridesProtoEstimate(t *testing.T) {
	d := sampleDocument()
	rep := &model.Report{Focal: model.Summary{Mean: 4.4, HPDLower: 3.2, HPDUpper: 5.9}}

	require.NoError(t, d.ApplyReport(rep))

	e := d.Events[2]
	assert.Equal(t, 4.4, e.KYA)
	assert.Equal(t, 2376, e.Year)
	assert.True(t, e.BCE)
	require.NotNil(t, e.Estimate)
	assert.Equal(t, 3.2, e.Estimate.Lower)
	require.NotNil(t, e.Estimate.Reference, "the configured reference is kept")
	assert.Equal(t, 4.65, e.Estimate.Reference.Mean)
}

func TestApplyReport_NoProto(t *testing.T) {
	d := sampleDocument()
	d.Events = d.Events[:2]

	err := d.ApplyReport(&model.Report{})

	assert.True(t, errors.Is(err, ErrNoProto))
}

func TestCalendarYear(t *testing.T) {
	y, bce := calendarYear(2025, 0.017)
	assert.Equal(t, 2008, y)
	assert.False(t, bce)

	y, bce = calendarYear(2025, 2.025)
	assert.Equal(t, 1, y)
	assert.True(t, bce, "there is no year 0")
}

func TestLoad_SampleTimeline(t *testing.T) {
	d, err := Load(filepath.Join("..", "..", "timeline.yaml"))
	require.NoError(t, err)

	assert.Len(t, d.Events, 17)
	assert.Len(t, d.Notes, 2)
	var proto int
	for _, e := range d.Events {
		if e.Kind == KindProto {
			proto++
			require.NotNil(t, e.Estimate)
			assert.Equal(t, 4.22, e.Estimate.Mean)
		}
	}
	assert.Equal(t, 1, proto)
}

func TestLoad_RejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "timeline.yaml")
	require.NoError(t, os.WriteFile(path, []byte("title: x\ncolour: red\nevents: []\n"), 0644))

	_, err := Load(path)

	assert.Error(t, err)
}

func TestLoad_RejectsInvertedEstimate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "timeline.yaml")
	doc := "title: x\nevents:\n  - {title: root, kind: proto, estimate: {mean: 4, lower: 5, upper: 3}}\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	_, err := Load(path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "lower bound")
}

func TestWriteFile_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "figures", "timeline.svg")

	require.NoError(t, sampleDocument().WriteFile(path, 0))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "<?xml"))
}
