// Package timeline renders a dated sequence of historical and phylogenetic
// events as an SVG figure.
package timeline

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/dravlex/internal/model"
	"github.com/ppiankov/dravlex/internal/table"
)

// Kind selects how an event is drawn.
type Kind string

const (
	KindModern  Kind = "modern"
	KindHistory Kind = "history"
	KindPhylo   Kind = "phylo"
	KindProto   Kind = "proto"
)

// ErrNoProto is returned when an estimate override finds no proto event.
var ErrNoProto = errors.New("timeline has no proto event")

// Estimate is a posterior age estimate attached to an event, in kya.
type Estimate struct {
	Mean      float64          `yaml:"mean"`
	Lower     float64          `yaml:"lower"`
	Upper     float64          `yaml:"upper"`
	Reference *model.Reference `yaml:"reference,omitempty"`
}

// Event is one dated entry of the timeline.
type Event struct {
	Year        int       `yaml:"year"`
	BCE         bool      `yaml:"bce"`
	KYA         float64   `yaml:"kya"`
	Title       string    `yaml:"title"`
	Category    string    `yaml:"category"`
	Description string    `yaml:"description"`
	Kind        Kind      `yaml:"kind"`
	Languages   []string  `yaml:"languages,omitempty"`
	Estimate    *Estimate `yaml:"estimate,omitempty"`
}

// Date formats the calendar date with its age, e.g. "300 BCE (2.33 kya)".
func (e Event) Date() string {
	era := "CE"
	if e.BCE {
		era = "BCE"
	}
	return fmt.Sprintf("%d %s (%.2f kya)", e.Year, era, e.KYA)
}

// Document is a complete timeline.
type Document struct {
	Title    string   `yaml:"title"`
	Subtitle string   `yaml:"subtitle"`
	Present  int      `yaml:"present"` // calendar year of 0 kya
	Events   []Event  `yaml:"events"`
	Notes    []string `yaml:"notes,omitempty"`
}

// Load reads a timeline YAML file. Unknown keys are rejected.
func Load(path string) (*Document, error) {
	f, err := table.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	var d Document
	if err := dec.Decode(&d); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &d, nil
}

// Validate checks event kinds and estimate bounds.
func (d *Document) Validate() error {
	if len(d.Events) == 0 {
		return errors.New("timeline has no events")
	}
	for i, e := range d.Events {
		switch e.Kind {
		case KindModern, KindHistory, KindPhylo, KindProto:
		default:
			return fmt.Errorf("event %d (%s): unknown kind %q", i+1, e.Title, e.Kind)
		}
		if e.Estimate != nil && e.Estimate.Lower > e.Estimate.Upper {
			return fmt.Errorf("event %d (%s): estimate lower bound above upper bound", i+1, e.Title)
		}
	}
	return nil
}

// ApplyReport replaces the estimate of the first proto event with the focal
// summary of a posterior report and redates the event to its mean.
func (d *Document) ApplyReport(rep *model.Report) error {
	for i := range d.Events {
		e := &d.Events[i]
		if e.Kind != KindProto {
			continue
		}
		est := &Estimate{Mean: rep.Focal.Mean, Lower: rep.Focal.HPDLower, Upper: rep.Focal.HPDUpper}
		if e.Estimate != nil {
			est.Reference = e.Estimate.Reference
		}
		if rep.Reference != nil {
			ref := *rep.Reference
			est.Reference = &ref
		}
		e.Estimate = est
		e.KYA = rep.Focal.Mean
		if d.Present > 0 {
			e.Year, e.BCE = calendarYear(d.Present, rep.Focal.Mean)
		}
		return nil
	}
	return ErrNoProto
}

// calendarYear converts an age in kya to a calendar year. There is no year 0.
func calendarYear(present int, kya float64) (int, bool) {
	y := present - int(math.Round(kya*1000))
	if y > 0 {
		return y, false
	}
	return 1 - y, true
}

// WriteFile renders the document as SVG at path.
func (d *Document) WriteFile(path string, width int) error {
	if err := table.EnsureDir(path); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := Render(&buf, d, width); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
