package model

// Config is the complete dravlex configuration. Every section can be set from
// ~/.dravlex/config.yaml, DRAVLEX_* environment variables or command flags.
type Config struct {
	Cognates    CognateConfig     `yaml:"cognates" mapstructure:"cognates"`
	Trace       TraceConfig       `yaml:"trace" mapstructure:"trace"`
	Plot        PlotConfig        `yaml:"plot" mapstructure:"plot"`
	Sensitivity SensitivityConfig `yaml:"sensitivity" mapstructure:"sensitivity"`
	Timeline    TimelineConfig    `yaml:"timeline" mapstructure:"timeline"`
	Beast       BeastConfig       `yaml:"beast" mapstructure:"beast"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
}

// CognateConfig declares the lexicon schema and the taxa to code.
type CognateConfig struct {
	LanguageColumn string   `yaml:"language_column" mapstructure:"language_column"`
	ConceptColumn  string   `yaml:"concept_column" mapstructure:"concept_column"`
	CognateColumn  string   `yaml:"cognate_column" mapstructure:"cognate_column"`
	Delimiter      string   `yaml:"delimiter" mapstructure:"delimiter"` // "", "tab" or "comma"; empty picks by extension
	Targets        []string `yaml:"targets" mapstructure:"targets"`
	OutputDir      string   `yaml:"output_dir" mapstructure:"output_dir"`
	Prefix         string   `yaml:"prefix" mapstructure:"prefix"`
	Strict         bool     `yaml:"strict" mapstructure:"strict"` // absent target languages are fatal
}

// TraceConfig controls posterior summarization.
type TraceConfig struct {
	BurnIn           float64   `yaml:"burnin" mapstructure:"burnin"`
	Parameter        string    `yaml:"parameter" mapstructure:"parameter"`         // focal parameter, e.g. Tree.height
	Columns          []string  `yaml:"columns" mapstructure:"columns"`             // extra parameters to summarize
	PanelColumns     []string  `yaml:"panel_columns" mapstructure:"panel_columns"` // dashboard trace panels
	PosteriorColumn  string    `yaml:"posterior_column" mapstructure:"posterior_column"`
	LikelihoodColumn string    `yaml:"likelihood_column" mapstructure:"likelihood_column"`
	Unit             string    `yaml:"unit" mapstructure:"unit"`
	Reference        Reference `yaml:"reference" mapstructure:"reference"`
}

// Reference is an external literature estimate drawn as a fixed band.
type Reference struct {
	Label string  `yaml:"label" json:"label" mapstructure:"label"`
	Mean  float64 `yaml:"mean" json:"mean" mapstructure:"mean"`
	Lower float64 `yaml:"lower" json:"lower" mapstructure:"lower"`
	Upper float64 `yaml:"upper" json:"upper" mapstructure:"upper"`
}

// IsSet reports whether a reference interval was configured.
func (r Reference) IsSet() bool {
	return r.Upper > r.Lower
}

// Width returns the reference interval width.
func (r Reference) Width() float64 {
	return r.Upper - r.Lower
}

// PlotConfig sets raster output geometry.
type PlotConfig struct {
	OutputDir string  `yaml:"output_dir" mapstructure:"output_dir"`
	Width     float64 `yaml:"width_in" mapstructure:"width_in"`
	Height    float64 `yaml:"height_in" mapstructure:"height_in"`
	DPI       int     `yaml:"dpi" mapstructure:"dpi"`
	Bins      int     `yaml:"bins" mapstructure:"bins"`
}

// Scenario is one prior configuration in a sensitivity comparison.
type Scenario struct {
	Label      string  `yaml:"label" json:"label" mapstructure:"label"`
	Path       string  `yaml:"path" json:"path" mapstructure:"path"`
	Color      string  `yaml:"color" json:"color" mapstructure:"color"`
	PriorSigma float64 `yaml:"prior_sigma" json:"prior_sigma" mapstructure:"prior_sigma"`
}

// SignalPolicy holds the cutoffs that classify how strongly the data
// constrain a parameter across prior scenarios.
type SignalPolicy struct {
	StrongBelow      float64 `yaml:"strong_below" json:"strong_below" mapstructure:"strong_below"`
	ModerateBelow    float64 `yaml:"moderate_below" json:"moderate_below" mapstructure:"moderate_below"`
	// NarrowWidthRatio flags a scenario interval narrower than this fraction
	// of the reference interval.
	NarrowWidthRatio float64 `yaml:"narrow_width_ratio" json:"narrow_width_ratio" mapstructure:"narrow_width_ratio"`
}

// Default signal cutoffs, in the unit of the compared parameter.
const (
	DefaultStrongBelow   = 0.5
	DefaultModerateBelow = 1.0

	DefaultNarrowWidthRatio = 0.25
)

// DefaultSignalPolicy returns the standard cutoffs.
func DefaultSignalPolicy() SignalPolicy {
	return SignalPolicy{
		StrongBelow:      DefaultStrongBelow,
		ModerateBelow:    DefaultModerateBelow,
		NarrowWidthRatio: DefaultNarrowWidthRatio,
	}
}

// SensitivityConfig declares a prior sensitivity comparison.
type SensitivityConfig struct {
	Scenarios []Scenario   `yaml:"scenarios" mapstructure:"scenarios"`
	Policy    SignalPolicy `yaml:"policy" mapstructure:"policy"`
	Recommend string       `yaml:"recommend" mapstructure:"recommend"` // label quoted in the recommendation
	Output    string       `yaml:"output" mapstructure:"output"`       // report path stem
}

// TimelineConfig locates timeline inputs and outputs.
type TimelineConfig struct {
	Events string `yaml:"events" mapstructure:"events"`
	Output string `yaml:"output" mapstructure:"output"`
	Width  int    `yaml:"width" mapstructure:"width"`
}

// Replacement is one literal substitution applied to engine XML.
type Replacement struct {
	Old string `yaml:"old" mapstructure:"old"`
	New string `yaml:"new" mapstructure:"new"`
}

// BeastConfig lists the engine XML files to patch and extra substitutions
// applied after the built-ins.
type BeastConfig struct {
	Files  []string      `yaml:"files" mapstructure:"files"`
	OutDir string        `yaml:"out_dir" mapstructure:"out_dir"` // empty patches in place
	Extra  []Replacement `yaml:"extra" mapstructure:"extra"`
}

// CacheConfig controls the summary cache.
type CacheConfig struct {
	Enabled   bool   `yaml:"enabled" mapstructure:"enabled"`
	Dir       string `yaml:"dir" mapstructure:"dir"`
	MemoryTTL string `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   string `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// OutputConfig controls report rendering.
type OutputConfig struct {
	Verbose  bool   `yaml:"verbose" mapstructure:"verbose"`
	Reports  string `yaml:"reports_dir" mapstructure:"reports_dir"`
	Markdown bool   `yaml:"markdown" mapstructure:"markdown"`
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() *Config {
	return &Config{
		Cognates: CognateConfig{
			LanguageColumn: "DOCULECT",
			ConceptColumn:  "CONCEPT",
			CognateColumn:  "COGID",
			Targets:        []string{"Telugu", "Tamil", "Kannada", "Malayalam"},
			OutputDir:      "data/processed",
			Prefix:         "cognates_4lang",
		},
		Trace: TraceConfig{
			BurnIn:           0.1,
			Parameter:        "Tree.height",
			Columns:          []string{"ucldMean", "birthRate", "Tree.treeLength"},
			PanelColumns:     []string{"posterior", "likelihood", "Tree.height", "ucldMean", "birthRate", "Tree.treeLength"},
			PosteriorColumn:  "posterior",
			LikelihoodColumn: "likelihood",
			Unit:             "kya",
			Reference: Reference{
				Label: "Kolipakam et al. (2018)",
				Mean:  4.65,
				Lower: 3.0,
				Upper: 6.5,
			},
		},
		Plot: PlotConfig{
			OutputDir: "results/figures",
			Width:     10,
			Height:    6,
			DPI:       150,
			Bins:      50,
		},
		Sensitivity: SensitivityConfig{
			Scenarios: []Scenario{
				{Label: "Loose (σ=1.5)", Path: "results/sensitivity/loose/dravidian_loose_prior.log", Color: "lightcoral", PriorSigma: 1.5},
				{Label: "Medium (σ=1.0)", Path: "results/sensitivity/medium/dravidian_medium_prior.log", Color: "coral", PriorSigma: 1.0},
				{Label: "Tight (σ=0.5)", Path: "results/sensitivity/tight/dravidian_tight_prior.log", Color: "darkorange", PriorSigma: 0.5},
			},
			Policy:    DefaultSignalPolicy(),
			Recommend: "Medium (σ=1.0)",
			Output:    "results/sensitivity/sensitivity",
		},
		Timeline: TimelineConfig{
			Events: "timeline.yaml",
			Output: "results/figures/dravidian_timeline.svg",
			Width:  1400,
		},
		Beast: BeastConfig{
			Files: []string{
				"results/xml/dravidian_4lang_test.xml",
				"results/xml/dravidian_4lang_prior.xml",
				"results/xml/dravidian_4lang.xml",
			},
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       ".dravlex-cache",
			MemoryTTL: "1h",
			DiskTTL:   "720h",
		},
		Output: OutputConfig{
			Reports:  "results",
			Markdown: true,
		},
	}
}
