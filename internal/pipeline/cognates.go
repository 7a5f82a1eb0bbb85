package pipeline

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/ppiankov/dravlex/internal/lexicon"
)

// CognateResult describes one cognate matrix build.
type CognateResult struct {
	Source   string
	Records  int // records of target languages
	Concepts int
	Result   *lexicon.Result
	Outputs  []string
}

// BuildCognates reads a lexicon, codes the target languages into a binary
// matrix and writes the filtered records, long, wide and NEXUS files. The
// matrix is validated before the first file is written.
func (p *Pipeline) BuildCognates(path string) (*CognateResult, error) {
	cfg := p.config.Cognates
	schema := lexicon.Schema{
		Language: cfg.LanguageColumn,
		Concept:  cfg.ConceptColumn,
		Cognate:  cfg.CognateColumn,
	}
	tbl, err := lexicon.ReadFile(path, schema, cfg.Delimiter)
	if err != nil {
		return nil, fmt.Errorf("read lexicon: %w", err)
	}
	filtered := tbl.Filter(cfg.Targets)
	p.logger.Info("lexicon loaded",
		zap.String("source", path),
		zap.Int("records", len(tbl.Records)),
		zap.Int("target_records", len(filtered.Records)))

	res, err := lexicon.Build(filtered.Records, cfg.Targets)
	if err != nil {
		return nil, fmt.Errorf("build matrix: %w", err)
	}
	if len(res.Absent) > 0 {
		if cfg.Strict {
			return nil, fmt.Errorf("%w: %s", lexicon.ErrAbsentLanguage, strings.Join(res.Absent, ", "))
		}
		p.logger.Warn("target languages without records get all-zero rows", zap.Strings("languages", res.Absent))
	}
	if err := res.Matrix.Validate(); err != nil {
		return nil, fmt.Errorf("build matrix: %w", err)
	}

	out := &CognateResult{
		Source:   path,
		Records:  len(filtered.Records),
		Concepts: filtered.Concepts(),
		Result:   res,
	}
	base := filepath.Join(cfg.OutputDir, cfg.Prefix)
	files := []struct {
		path  string
		write func(io.Writer) error
	}{
		{base + "_records.csv", func(w io.Writer) error { return lexicon.WriteRecords(w, filtered) }},
		{base + "_long.csv", func(w io.Writer) error { return lexicon.WriteLong(w, res.Long) }},
		{base + "_wide.csv", func(w io.Writer) error { return lexicon.WriteWide(w, res.Matrix) }},
		{base + ".nex", func(w io.Writer) error { return lexicon.WriteNexus(w, res.Matrix) }},
	}
	for _, f := range files {
		if err := lexicon.WriteFile(f.path, f.write); err != nil {
			return nil, err
		}
		out.Outputs = append(out.Outputs, f.path)
		p.logger.Debug("wrote", zap.String("path", f.path))
	}
	return out, nil
}

// ConvertNexus reads a wide matrix and writes it as NEXUS at dst.
func (p *Pipeline) ConvertNexus(src, dst string) (*lexicon.Matrix, error) {
	m, err := lexicon.ReadWideFile(src)
	if err != nil {
		return nil, fmt.Errorf("read matrix: %w", err)
	}
	if err := lexicon.WriteFile(dst, func(w io.Writer) error { return lexicon.WriteNexus(w, m) }); err != nil {
		return nil, err
	}
	p.logger.Info("nexus written",
		zap.String("path", dst),
		zap.Int("ntax", len(m.Languages)),
		zap.Int("nchar", len(m.Features)))
	return m, nil
}
