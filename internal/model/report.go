package model

import "time"

// Summary holds the posterior statistics of one parameter after burn-in.
// HPDLower/HPDUpper are the 2.5th and 97.5th empirical percentiles, an
// equal-tailed interval rather than a highest-density one; the names follow
// the reports this tool has always produced.
type Summary struct {
	Parameter string  `json:"parameter"`
	Samples   int     `json:"samples"`
	Mean      float64 `json:"mean"`
	Median    float64 `json:"median"`
	StdDev    float64 `json:"std"`
	HPDLower  float64 `json:"hpd_lower"`
	HPDUpper  float64 `json:"hpd_upper"`
	HPDWidth  float64 `json:"hpd_width"`
}

// Overlaps reports whether the credible interval intersects a reference.
func (s Summary) Overlaps(ref Reference) bool {
	return s.HPDLower <= ref.Upper && s.HPDUpper >= ref.Lower
}

// Report is the posterior summary of one trace log.
type Report struct {
	RunID       string       `json:"run_id"`
	Source      string       `json:"source"`
	GeneratedAt time.Time    `json:"generated_at"`
	Parameter   string       `json:"parameter"`
	Unit        string       `json:"unit,omitempty"`
	BurnIn      BurnIn       `json:"burnin"`
	Focal       Summary      `json:"focal"`
	Summaries   []Summary    `json:"summaries"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
	Reference   *Reference   `json:"reference,omitempty"`
	Overlap     *bool        `json:"reference_overlap,omitempty"`
	Figures     []string     `json:"figures,omitempty"`
}

// BurnIn records how a trace was trimmed.
type BurnIn struct {
	Fraction  float64 `json:"fraction"`
	Total     int     `json:"total_samples"`
	Discarded int     `json:"discarded"`
	Retained  int     `json:"post_burnin_samples"`
}

// Diagnostic is a convergence check on a log-density column: its raw first
// and last values and its post-burn-in mean.
type Diagnostic struct {
	Column string  `json:"column"`
	First  float64 `json:"first"`
	Last   float64 `json:"last"`
	Mean   float64 `json:"mean"`
}

// Strength classifies how strongly data constrain a parameter across priors.
type Strength string

const (
	StrengthStrong   Strength = "strong"
	StrengthModerate Strength = "moderate"
	StrengthWeak     Strength = "weak"
)

// ScenarioResult is one scenario of a sensitivity comparison.
type ScenarioResult struct {
	Scenario Scenario `json:"scenario"`
	BurnIn   BurnIn   `json:"burnin"`
	Summary  Summary  `json:"summary"`
	Overlap  bool     `json:"reference_overlap"`
}

// SensitivityReport compares one parameter across prior scenarios.
type SensitivityReport struct {
	RunID          string           `json:"run_id"`
	GeneratedAt    time.Time        `json:"generated_at"`
	Parameter      string           `json:"parameter"`
	Unit           string           `json:"unit,omitempty"`
	Scenarios      []ScenarioResult `json:"scenarios"`
	Spread         float64          `json:"spread"`
	Strength       Strength         `json:"strength"`
	Policy         SignalPolicy     `json:"policy"`
	Reference      *Reference       `json:"reference,omitempty"`
	Signals        []Signal         `json:"signals"`
	Recommendation *ScenarioResult  `json:"recommendation,omitempty"`
	Figures        []string         `json:"figures,omitempty"`
}

// Signal is a diagnostic finding with the data that produced it.
type Signal struct {
	Type        SignalType             `json:"type"`
	Severity    SignalSeverity         `json:"severity"`
	Description string                 `json:"description"`
	Data        map[string]interface{} `json:"data,omitempty"`
}

// SignalType classifies a diagnostic signal.
type SignalType string

const (
	SignalDataStrength     SignalType = "data_strength"     // spread of means across priors
	SignalReferenceOverlap SignalType = "reference_overlap" // interval vs literature estimate
	SignalIntervalWidth    SignalType = "interval_width"    // uncertainty vs literature estimate
)

// SignalSeverity indicates the importance of the signal
type SignalSeverity string

const (
	SeverityInfo     SignalSeverity = "info"
	SeverityWarning  SignalSeverity = "warning"
	SeverityCritical SignalSeverity = "critical"
)
