package timeline

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Layout constants, in SVG user units.
const (
	DefaultWidth  = 1400
	lineX         = 200
	startY        = 120
	eventSpacing  = 140
	boxHeight     = 110
	protoHeight   = 150
	descMaxRunes  = 90
	legendSpacing = 30
)

const stylesheet = `
.title { font: bold 32px sans-serif; fill: #2c3e50; }
.subtitle { font: 20px sans-serif; fill: #34495e; }
.date-label { font: 16px monospace; fill: #7f8c8d; }
.event-title { font: bold 16px sans-serif; fill: #2c3e50; }
.event-desc { font: 14px sans-serif; fill: #34495e; }
.estimate { font: bold 14px sans-serif; fill: #34495e; }
.category { font: italic 13px sans-serif; fill: #16a085; }
.language { font: bold 14px sans-serif; fill: #2980b9; }
.note { font: italic 12px sans-serif; fill: #7f8c8d; }
.legend { font: 14px sans-serif; fill: #2c3e50; }
.modern-box { fill: #e8f8f0; stroke: #27ae60; stroke-width: 2; }
.history-box { fill: #fff3e0; stroke: #ff9800; stroke-width: 2; }
.phylo-box { fill: #e8f5e9; stroke: #4caf50; stroke-width: 2; }
.proto-box { fill: #e3f2fd; stroke: #2196f3; stroke-width: 3; }
.timeline-line { stroke: #bdc3c7; stroke-width: 3; }
`

var nodeColor = map[Kind]string{
	KindModern:  "#27ae60",
	KindHistory: "#e67e22",
	KindPhylo:   "#9b59b6",
	KindProto:   "#2196f3",
}

var legend = []struct {
	kind  Kind
	label string
}{
	{KindPhylo, "Phylogenetic estimates (Bayesian MCMC)"},
	{KindHistory, "Historical/epigraphic evidence"},
	{KindProto, "Proto-language (phylogenetic root)"},
	{KindModern, "Modern period"},
}

// svgWriter emits elements and keeps the first encoding error.
type svgWriter struct {
	e   *xml.Encoder
	err error
}

func attrs(kv ...string) []xml.Attr {
	out := make([]xml.Attr, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		out = append(out, xml.Attr{Name: xml.Name{Local: kv[i]}, Value: kv[i+1]})
	}
	return out
}

func (w *svgWriter) token(t xml.Token) {
	if w.err != nil {
		return
	}
	w.err = w.e.EncodeToken(t)
}

func (w *svgWriter) open(name string, kv ...string) xml.StartElement {
	start := xml.StartElement{Name: xml.Name{Local: name}, Attr: attrs(kv...)}
	w.token(start)
	return start
}

// elem writes a complete element with optional text content.
func (w *svgWriter) elem(name, text string, kv ...string) {
	start := w.open(name, kv...)
	if text != "" {
		w.token(xml.CharData(text))
	}
	w.token(start.End())
}

func (w *svgWriter) text(x, y int, class, text string) {
	w.elem("text", text, "x", itoa(x), "y", itoa(y), "class", class)
}

func itoa(v int) string { return strconv.Itoa(v) }

// Height returns the canvas height needed for n events.
func Height(n int) int {
	return startY + n*eventSpacing + 50 + legendSpacing*len(legend) + 180
}

// Render writes the document as an SVG element tree with an XML declaration
// and two-space indentation. Events are drawn top-down in document order.
func Render(out io.Writer, d *Document, width int) error {
	if err := d.Validate(); err != nil {
		return err
	}
	if width <= 0 {
		width = DefaultWidth
	}
	height := Height(len(d.Events))

	if _, err := io.WriteString(out, xml.Header); err != nil {
		return err
	}
	w := &svgWriter{e: xml.NewEncoder(out)}
	w.e.Indent("", "  ")

	svg := w.open("svg",
		"width", itoa(width),
		"height", itoa(height),
		"xmlns", "http://www.w3.org/2000/svg",
		"viewBox", fmt.Sprintf("0 0 %d %d", width, height))
	w.elem("style", stylesheet)

	center := itoa(width / 2)
	w.elem("text", d.Title, "x", center, "y", "40", "class", "title", "text-anchor", "middle")
	if d.Subtitle != "" {
		w.elem("text", d.Subtitle, "x", center, "y", "70", "class", "subtitle", "text-anchor", "middle")
	}

	w.elem("line", "",
		"x1", itoa(lineX), "y1", itoa(startY),
		"x2", itoa(lineX), "y2", itoa(startY+len(d.Events)*eventSpacing),
		"class", "timeline-line")

	for i, e := range d.Events {
		drawEvent(w, e, startY+i*eventSpacing, width)
	}

	legendY := startY + len(d.Events)*eventSpacing + 50
	legendX := 100
	w.text(legendX, legendY, "subtitle", "Legend:")
	for i, item := range legend {
		y := legendY + legendSpacing*(i+1)
		w.elem("circle", "", "cx", itoa(legendX+10), "cy", itoa(y-5), "r", "8", "fill", nodeColor[item.kind])
		w.text(legendX+30, y, "legend", item.label)
	}

	noteY := legendY + legendSpacing*len(legend) + 60
	for i, n := range d.Notes {
		w.text(legendX, noteY+20*i, "note", n)
	}

	w.token(svg.End())
	if w.err != nil {
		return w.err
	}
	if err := w.e.Flush(); err != nil {
		return err
	}
	_, err := io.WriteString(out, "\n")
	return err
}

func drawEvent(w *svgWriter, e Event, y, width int) {
	r, h := 12, boxHeight
	if e.Kind == KindProto {
		r, h = 18, protoHeight
	}
	w.elem("circle", "",
		"cx", itoa(lineX), "cy", itoa(y), "r", itoa(r),
		"fill", nodeColor[e.Kind], "stroke", "#2c3e50", "stroke-width", "2")

	boxX := lineX + 40
	top := y - h/2
	w.elem("rect", "",
		"x", itoa(boxX), "y", itoa(top),
		"width", itoa(width-boxX-40), "height", itoa(h),
		"class", string(e.Kind)+"-box", "rx", "8")

	x := boxX + 10
	w.text(x, top+25, "date-label", e.Date())
	w.text(x, top+50, "event-title", e.Title)
	if e.Category != "" {
		w.text(x, top+70, "category", "["+e.Category+"]")
	}
	w.text(x, top+90, "event-desc", truncate(e.Description, descMaxRunes))

	if est := e.Estimate; est != nil {
		w.text(x, top+115, "estimate",
			fmt.Sprintf("Bayesian estimate: %.2f kya [95%% HPD: %.2f-%.2f]", est.Mean, est.Lower, est.Upper))
		if ref := est.Reference; ref != nil {
			w.text(x, top+135, "event-desc",
				fmt.Sprintf("%s: %.2f kya [%.1f-%.1f]; this analysis: %.2f kya", ref.Label, ref.Mean, ref.Lower, ref.Upper, est.Mean))
		}
	}
	for j, lang := range e.Languages {
		w.text(x+j*100, top+110, "language", lang)
	}
}

// truncate shortens s to n runes, marking the cut with "...".
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	var b strings.Builder
	for i, r := range []rune(s) {
		if i == n {
			break
		}
		b.WriteRune(r)
	}
	return b.String() + "..."
}
