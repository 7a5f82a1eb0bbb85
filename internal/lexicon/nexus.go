package lexicon

import (
	"fmt"
	"io"
	"strings"
)

// nexusNameWidth is the column width taxon names are padded to.
const nexusNameWidth = 20

// WriteNexus writes the matrix as a NEXUS DATA block with a binary
// alphabet, the alignment format BEAUti imports.
func WriteNexus(w io.Writer, m *Matrix) error {
	if err := m.Validate(); err != nil {
		return err
	}
	var b strings.Builder
	b.WriteString("#NEXUS\n\n")
	b.WriteString("BEGIN DATA;\n")
	fmt.Fprintf(&b, "    DIMENSIONS NTAX=%d NCHAR=%d;\n", len(m.Languages), len(m.Features))
	b.WriteString("    FORMAT DATATYPE=STANDARD MISSING=? GAP=- SYMBOLS=\"01\";\n")
	b.WriteString("    MATRIX\n")
	for i, l := range m.Languages {
		fmt.Fprintf(&b, "        %-*s %s\n", nexusNameWidth, nexusName(l), m.Row(i))
	}
	b.WriteString("    ;\n")
	b.WriteString("END;\n")
	_, err := io.WriteString(w, b.String())
	return err
}

// nexusName quotes a taxon name that contains blanks or NEXUS punctuation.
func nexusName(s string) string {
	if s != "" && !strings.ContainsAny(s, " \t\n()[]{}/\\,;:=*'\"`+-<>") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
