// Package sensitivity compares one parameter's posterior across prior
// scenarios and classifies how strongly the data constrain it.
package sensitivity

import (
	"errors"
	"fmt"
	"math"

	"github.com/ppiankov/dravlex/internal/model"
)

// ErrNoScenarios is returned when there is nothing to compare.
var ErrNoScenarios = errors.New("no scenarios to compare")

// Analyzer classifies scenario spreads and generates signals.
type Analyzer struct {
	policy    model.SignalPolicy
	reference model.Reference
}

// NewAnalyzer creates an analyzer. Zero spread cutoffs fall back to the
// defaults, as does a zero width ratio; an unset reference disables the
// overlap and width signals.
func NewAnalyzer(policy model.SignalPolicy, reference model.Reference) *Analyzer {
	def := model.DefaultSignalPolicy()
	if policy.StrongBelow == 0 && policy.ModerateBelow == 0 {
		policy.StrongBelow, policy.ModerateBelow = def.StrongBelow, def.ModerateBelow
	}
	if policy.NarrowWidthRatio == 0 {
		policy.NarrowWidthRatio = def.NarrowWidthRatio
	}
	return &Analyzer{policy: policy, reference: reference}
}

// Compare fills in overlap flags, the spread of means, the strength
// classification, signals and the recommended scenario. Scenario order is
// preserved.
func (a *Analyzer) Compare(results []model.ScenarioResult, recommend string) (*model.SensitivityReport, error) {
	if len(results) == 0 {
		return nil, ErrNoScenarios
	}
	if err := a.validatePolicy(); err != nil {
		return nil, err
	}

	rep := &model.SensitivityReport{
		Parameter: results[0].Summary.Parameter,
		Scenarios: make([]model.ScenarioResult, len(results)),
		Policy:    a.policy,
	}
	copy(rep.Scenarios, results)
	if a.reference.IsSet() {
		ref := a.reference
		rep.Reference = &ref
		for i := range rep.Scenarios {
			rep.Scenarios[i].Overlap = rep.Scenarios[i].Summary.Overlaps(ref)
		}
	}

	rep.Spread = Spread(rep.Scenarios)
	rep.Strength = a.Classify(rep.Spread)

	rep.Signals = append(rep.Signals, a.strengthSignal(rep))
	if rep.Reference != nil {
		rep.Signals = append(rep.Signals, a.overlapSignal(rep.Scenarios))
		rep.Signals = append(rep.Signals, a.widthSignal(rep.Scenarios))
	}

	if recommend != "" {
		for i := range rep.Scenarios {
			if rep.Scenarios[i].Scenario.Label == recommend {
				r := rep.Scenarios[i]
				rep.Recommendation = &r
				break
			}
		}
		if rep.Recommendation == nil {
			return nil, fmt.Errorf("recommended scenario %q is not among the compared scenarios", recommend)
		}
	}
	return rep, nil
}

// Spread is max(mean) - min(mean) over the scenarios.
func Spread(results []model.ScenarioResult) float64 {
	if len(results) == 0 {
		return 0
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, r := range results {
		lo = math.Min(lo, r.Summary.Mean)
		hi = math.Max(hi, r.Summary.Mean)
	}
	return hi - lo
}

// Classify maps a spread to a strength using the analyzer's policy.
func (a *Analyzer) Classify(spread float64) model.Strength {
	switch {
	case spread < a.policy.StrongBelow:
		return model.StrengthStrong
	case spread < a.policy.ModerateBelow:
		return model.StrengthModerate
	default:
		return model.StrengthWeak
	}
}

func (a *Analyzer) validatePolicy() error {
	p := a.policy
	if p.StrongBelow <= 0 || p.ModerateBelow < p.StrongBelow {
		return fmt.Errorf("invalid signal policy: strong_below=%g moderate_below=%g", p.StrongBelow, p.ModerateBelow)
	}
	if p.NarrowWidthRatio < 0 {
		return fmt.Errorf("invalid signal policy: narrow_width_ratio=%g", p.NarrowWidthRatio)
	}
	return nil
}

func (a *Analyzer) strengthSignal(rep *model.SensitivityReport) model.Signal {
	severity := model.SeverityInfo
	var desc string
	switch rep.Strength {
	case model.StrengthStrong:
		desc = "Strong data signal: estimates robust to prior choice"
	case model.StrengthModerate:
		severity = model.SeverityWarning
		desc = "Moderate data signal: some prior influence"
	default:
		severity = model.SeverityCritical
		desc = "Weak data signal: prior strongly influences the estimate"
	}

	means := make(map[string]float64, len(rep.Scenarios))
	for _, r := range rep.Scenarios {
		means[r.Scenario.Label] = r.Summary.Mean
	}

	return model.Signal{
		Type:        model.SignalDataStrength,
		Severity:    severity,
		Description: fmt.Sprintf("%s (spread %.3f)", desc, rep.Spread),
		Data: map[string]interface{}{
			"spread":         rep.Spread,
			"means":          means,
			"strong_below":   a.policy.StrongBelow,
			"moderate_below": a.policy.ModerateBelow,
			"formula":        "max(mean) - min(mean) across scenarios",
		},
	}
}

func (a *Analyzer) overlapSignal(results []model.ScenarioResult) model.Signal {
	var overlapping []string
	for _, r := range results {
		if r.Overlap {
			overlapping = append(overlapping, r.Scenario.Label)
		}
	}

	severity := model.SeverityInfo
	if len(overlapping) == 0 {
		severity = model.SeverityCritical
	} else if len(overlapping) < len(results) {
		severity = model.SeverityWarning
	}

	return model.Signal{
		Type:     model.SignalReferenceOverlap,
		Severity: severity,
		Description: fmt.Sprintf("%d of %d scenarios overlap %s [%.2f, %.2f]",
			len(overlapping), len(results), a.reference.Label, a.reference.Lower, a.reference.Upper),
		Data: map[string]interface{}{
			"overlapping": overlapping,
			"reference":   a.reference.Label,
			"formula":     "hpd_lower <= ref_upper && hpd_upper >= ref_lower",
		},
	}
}

// widthSignal flags scenarios whose interval is much narrower than the
// reference interval, a sign the prior rather than the data sets the
// uncertainty.
func (a *Analyzer) widthSignal(results []model.ScenarioResult) model.Signal {
	refWidth := a.reference.Width()
	ratios := make(map[string]float64, len(results))
	minRatio := math.Inf(1)
	for _, r := range results {
		ratio := 0.0
		if refWidth > 0 {
			ratio = r.Summary.HPDWidth / refWidth
		}
		ratios[r.Scenario.Label] = ratio
		minRatio = math.Min(minRatio, ratio)
	}

	severity := model.SeverityInfo
	if minRatio < a.policy.NarrowWidthRatio {
		severity = model.SeverityWarning
	}

	return model.Signal{
		Type:        model.SignalIntervalWidth,
		Severity:    severity,
		Description: fmt.Sprintf("Narrowest interval is %.2fx the reference width", minRatio),
		Data: map[string]interface{}{
			"ratios":          ratios,
			"reference_width": refWidth,
			"narrow_below":    a.policy.NarrowWidthRatio,
			"formula":         "hpd_width / (ref_upper - ref_lower)",
		},
	}
}
