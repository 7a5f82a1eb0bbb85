package sensitivity

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/dravlex/internal/model"
)

var kolipakam = model.Reference{Label: "Kolipakam et al. (2018)", Mean: 4.65, Lower: 3.0, Upper: 6.5}

func scenario(label string, mean, lower, upper float64) model.ScenarioResult {
	return model.ScenarioResult{
		Scenario: model.Scenario{Label: label},
		Summary: model.Summary{
			Parameter: "Tree.height",
			Samples:   900,
			Mean:      mean,
			Median:    mean,
			HPDLower:  lower,
			HPDUpper:  upper,
			HPDWidth:  upper - lower,
		},
	}
}

func TestAnalyzer_Compare_Strong(t *testing.T) {
	a := NewAnalyzer(model.DefaultSignalPolicy(), kolipakam)
	results := []model.ScenarioResult{
		scenario("Loose", 4.6, 3.1, 6.2),
		scenario("Medium", 4.4, 3.2, 5.9),
		scenario("Tight", 4.3, 3.5, 5.2),
	}

	rep, err := a.Compare(results, "Medium")
	require.NoError(t, err)

	assert.InDelta(t, 0.3, rep.Spread, 1e-9)
	assert.Equal(t, model.StrengthStrong, rep.Strength)
	assert.Equal(t, "Tree.height", rep.Parameter)
	for _, r := range rep.Scenarios {
		assert.True(t, r.Overlap, r.Scenario.Label)
	}
	require.NotNil(t, rep.Recommendation)
	assert.Equal(t, "Medium", rep.Recommendation.Scenario.Label)
	require.Len(t, rep.Signals, 3)
	assert.Equal(t, model.SignalDataStrength, rep.Signals[0].Type)
	assert.Equal(t, model.SeverityInfo, rep.Signals[0].Severity)
	assert.Contains(t, rep.Signals[0].Data, "formula")
}

func TestAnalyzer_Classify_Boundaries(t *testing.T) {
	a := NewAnalyzer(model.DefaultSignalPolicy(), model.Reference{})

	tests := []struct {
		spread float64
		want   model.Strength
	}{
		{0, model.StrengthStrong},
		{0.49, model.StrengthStrong},
		{0.5, model.StrengthModerate},
		{0.99, model.StrengthModerate},
		{1.0, model.StrengthWeak},
		{3.2, model.StrengthWeak},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, a.Classify(tt.spread), "spread %v", tt.spread)
	}
}

func TestAnalyzer_CustomPolicy(t *testing.T) {
	a := NewAnalyzer(model.SignalPolicy{StrongBelow: 0.1, ModerateBelow: 0.2}, model.Reference{})

	rep, err := a.Compare([]model.ScenarioResult{
		scenario("A", 4.0, 3, 5),
		scenario("B", 4.3, 3, 5),
	}, "")
	require.NoError(t, err)

	assert.Equal(t, model.StrengthWeak, rep.Strength)
	assert.Nil(t, rep.Reference)
	assert.Nil(t, rep.Recommendation)
	assert.Len(t, rep.Signals, 1, "no reference signals without a reference")
}

func TestAnalyzer_ZeroPolicyUsesDefaults(t *testing.T) {
	a := NewAnalyzer(model.SignalPolicy{}, model.Reference{})
	assert.Equal(t, model.StrengthModerate, a.Classify(0.7))
}

func TestAnalyzer_InvalidPolicy(t *testing.T) {
	a := NewAnalyzer(model.SignalPolicy{StrongBelow: 1.0, ModerateBelow: 0.5}, model.Reference{})

	_, err := a.Compare([]model.ScenarioResult{scenario("A", 4, 3, 5)}, "")
	assert.Error(t, err)
}

func TestAnalyzer_OverlapPerScenario(t *testing.T) {
	a := NewAnalyzer(model.DefaultSignalPolicy(), kolipakam)

	rep, err := a.Compare([]model.ScenarioResult{
		scenario("Loose", 7.5, 6.6, 9.0),
		scenario("Edge", 7.0, 6.5, 8.0),
		scenario("Young", 2.0, 1.0, 2.9),
	}, "")
	require.NoError(t, err)

	assert.False(t, rep.Scenarios[0].Overlap)
	assert.True(t, rep.Scenarios[1].Overlap, "touching bounds overlap")
	assert.False(t, rep.Scenarios[2].Overlap)
	assert.Equal(t, model.SeverityWarning, rep.Signals[1].Severity)
	assert.Equal(t, []string{"Edge"}, rep.Signals[1].Data["overlapping"])
}

func TestAnalyzer_DoesNotMutateInput(t *testing.T) {
	a := NewAnalyzer(model.DefaultSignalPolicy(), kolipakam)
	results := []model.ScenarioResult{scenario("A", 4, 3, 5)}

	_, err := a.Compare(results, "")
	require.NoError(t, err)

	assert.False(t, results[0].Overlap)
}

func TestAnalyzer_UnknownRecommendation(t *testing.T) {
	a := NewAnalyzer(model.DefaultSignalPolicy(), kolipakam)

	_, err := a.Compare([]model.ScenarioResult{scenario("A", 4, 3, 5)}, "Medium (σ=1.0)")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "Medium")
}

func TestAnalyzer_NoScenarios(t *testing.T) {
	_, err := NewAnalyzer(model.DefaultSignalPolicy(), kolipakam).Compare(nil, "")
	assert.True(t, errors.Is(err, ErrNoScenarios))
}

func TestSpread(t *testing.T) {
	assert.Equal(t, 0.0, Spread(nil))
	assert.InDelta(t, 1.5, Spread([]model.ScenarioResult{
		scenario("A", 5.5, 0, 0),
		scenario("B", 4.0, 0, 0),
		scenario("C", 4.2, 0, 0),
	}), 1e-12)
}

func TestAnalyzer_WidthSignalUsesPolicyRatio(t *testing.T) {
	results := []model.ScenarioResult{scenario("Tight", 4.3, 4.0, 5.0)} // 1.0 / 3.5 = 0.286

	rep, err := NewAnalyzer(model.DefaultSignalPolicy(), kolipakam).Compare(results, "")
	require.NoError(t, err)
	width := rep.Signals[2]
	assert.Equal(t, model.SignalIntervalWidth, width.Type)
	assert.Equal(t, model.SeverityInfo, width.Severity)
	assert.Equal(t, model.DefaultNarrowWidthRatio, width.Data["narrow_below"])

	policy := model.DefaultSignalPolicy()
	policy.NarrowWidthRatio = 0.5
	rep, err = NewAnalyzer(policy, kolipakam).Compare(results, "")
	require.NoError(t, err)
	assert.Equal(t, model.SeverityWarning, rep.Signals[2].Severity)
	assert.Equal(t, 0.5, rep.Signals[2].Data["narrow_below"])
}

func TestAnalyzer_ZeroWidthRatioUsesDefault(t *testing.T) {
	a := NewAnalyzer(model.SignalPolicy{StrongBelow: 0.1, ModerateBelow: 0.2}, kolipakam)

	rep, err := a.Compare([]model.ScenarioResult{scenario("A", 4, 3.9, 4.1)}, "")
	require.NoError(t, err)

	assert.Equal(t, model.DefaultNarrowWidthRatio, rep.Policy.NarrowWidthRatio)
	assert.Equal(t, model.SeverityWarning, rep.Signals[2].Severity)
}
