// Package beastxml rewrites BEAST 2.0 job files so BEAST 2.7 can load them.
package beastxml

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/ppiankov/dravlex/internal/model"
	"github.com/ppiankov/dravlex/internal/table"
)

const (
	legacyNamespace = `namespace="beast.core:beast.evolution.alignment:beast.evolution.tree.coalescent:beast.core.util:beast.evolution.nuc:beast.evolution.operators:beast.evolution.sitemodel:beast.evolution.substitutionmodel:beast.evolution.likelihood"`
	modernNamespace = `namespace="beast.base.core:beast.base.inference:beast.base.evolution.alignment:beast.base.evolution.tree.coalescent:beast.base.util:beast.base.math:beast.base.evolution.operator:beast.base.inference.operator:beast.base.evolution.sitemodel:beast.base.evolution.substitutionmodel:beast.base.evolution.likelihood"`

	mcmcSpec = `spec="beast.base.inference.MCMC"`
)

// Builtin is the ordered list of substitutions. Whole namespace and class
// names come before the package prefixes that would otherwise split them.
var Builtin = []model.Replacement{
	{Old: legacyNamespace, New: modernNamespace},

	{Old: "beast.math.distributions.Beta", New: "beast.base.inference.distribution.Beta"},
	{Old: "beast.math.distributions.Exponential", New: "beast.base.inference.distribution.Exponential"},
	{Old: "beast.math.distributions.InverseGamma", New: "beast.base.inference.distribution.InverseGamma"},
	{Old: "beast.math.distributions.LogNormalDistributionModel", New: "beast.base.inference.distribution.LogNormalDistributionModel"},
	{Old: "beast.math.distributions.Gamma", New: "beast.base.inference.distribution.Gamma"},
	{Old: "beast.math.distributions.Uniform", New: "beast.base.inference.distribution.Uniform"},
	{Old: "beast.math.distributions.LaplaceDistribution", New: "beast.base.inference.distribution.LaplaceDistribution"},
	{Old: "beast.math.distributions.OneOnX", New: "beast.base.inference.distribution.OneOnX"},
	{Old: "beast.math.distributions.Normal", New: "beast.base.inference.distribution.Normal"},
	{Old: "beast.math.distributions.Prior", New: "beast.base.inference.distribution.Prior"},
	{Old: "beast.evolution.alignment.Taxon", New: "beast.base.evolution.alignment.Taxon"},

	{Old: `spec="MCMC"`, New: mcmcSpec},

	{Old: "beast.core.parameter.", New: "beast.base.inference.parameter."},
	{Old: "beast.core.util.", New: "beast.base.util."},
	{Old: "beast.core.", New: "beast.base.inference."},
	{Old: "beast.evolution.alignment.", New: "beast.base.evolution.alignment."},
	{Old: "beast.evolution.tree.", New: "beast.base.evolution.tree."},
	{Old: "beast.evolution.operators.", New: "beast.base.evolution.operators."},
	{Old: "beast.evolution.sitemodel.", New: "beast.base.evolution.sitemodel."},
	{Old: "beast.evolution.substitutionmodel.", New: "beast.base.evolution.substitutionmodel."},
	{Old: "beast.evolution.likelihood.", New: "beast.base.evolution.likelihood."},
	{Old: "beast.evolution.branchratemodel.", New: "beast.base.evolution.branchratemodel."},
	{Old: "beast.evolution.speciation.", New: "beast.base.evolution.speciation."},
	{Old: "beast.math.", New: "beast.base.math."},
}

// Change counts the occurrences one substitution replaced.
type Change struct {
	Old   string `json:"old"`
	New   string `json:"new"`
	Count int    `json:"count"`
}

// Result describes one patched file.
type Result struct {
	Path      string   `json:"path"`
	Output    string   `json:"output,omitempty"`
	Skipped   bool     `json:"skipped,omitempty"`
	Changes   []Change `json:"changes,omitempty"`
	Replaced  int      `json:"replaced"`
	MCMC      bool     `json:"mcmc_spec"`
	Namespace bool     `json:"namespace"`
}

// Patcher applies the built-in substitutions followed by configured extras.
type Patcher struct {
	rules  []model.Replacement
	outDir string
	logger *zap.Logger
}

// NewPatcher validates extra and returns a patcher. With an empty outDir
// files are rewritten in place.
func NewPatcher(cfg model.BeastConfig, logger *zap.Logger) (*Patcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	rules := make([]model.Replacement, 0, len(Builtin)+len(cfg.Extra))
	rules = append(rules, Builtin...)
	for i, r := range cfg.Extra {
		if r.Old == "" {
			return nil, fmt.Errorf("beast extra replacement %d: empty search string", i+1)
		}
		rules = append(rules, r)
	}
	return &Patcher{rules: rules, outDir: cfg.OutDir, logger: logger}, nil
}

// Patch applies every substitution in order and returns the new content
// with the non-zero counts.
func (p *Patcher) Patch(content string) (string, []Change) {
	var changes []Change
	for _, r := range p.rules {
		n := strings.Count(content, r.Old)
		if n == 0 {
			continue
		}
		content = strings.ReplaceAll(content, r.Old, r.New)
		changes = append(changes, Change{Old: r.Old, New: r.New, Count: n})
	}
	return content, changes
}

// PatchFile patches one file. A missing file is reported as skipped, not as
// an error. The patched document must still be well-formed XML; a file with
// nothing to replace is not rewritten.
func (p *Patcher) PatchFile(path string) (*Result, error) {
	res := &Result{Path: path}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			p.logger.Warn("beast xml not found, skipping", zap.String("path", path))
			res.Skipped = true
			return res, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	out, changes := p.Patch(string(data))
	res.Changes = changes
	for _, c := range changes {
		res.Replaced += c.Count
	}
	res.MCMC = strings.Contains(out, mcmcSpec)
	res.Namespace = strings.Contains(out, `namespace="beast.base.`)

	if err := wellFormed(out); err != nil {
		return nil, fmt.Errorf("%s: patched xml: %w", path, err)
	}

	dst := path
	if p.outDir != "" {
		dst = filepath.Join(p.outDir, filepath.Base(path))
	} else if res.Replaced == 0 {
		p.logger.Debug("beast xml already current", zap.String("path", path))
		return res, nil
	}
	if err := table.EnsureDir(dst); err != nil {
		return nil, err
	}
	if err := os.WriteFile(dst, []byte(out), 0644); err != nil {
		return nil, fmt.Errorf("write %s: %w", dst, err)
	}
	res.Output = dst
	p.logger.Info("beast xml patched",
		zap.String("path", path),
		zap.String("output", dst),
		zap.Int("replaced", res.Replaced))
	return res, nil
}

// PatchFiles patches each path in turn and stops at the first error.
func (p *Patcher) PatchFiles(paths []string) ([]*Result, error) {
	results := make([]*Result, 0, len(paths))
	for _, path := range paths {
		res, err := p.PatchFile(path)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

func wellFormed(doc string) error {
	dec := xml.NewDecoder(strings.NewReader(doc))
	dec.Strict = true
	for {
		_, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
