package prioritize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specdraft/specdraft/internal/classify"
)

func TestRankOrdersByTier(t *testing.T) {
	questions := []string{
		"Should the theme be customizable?",
		"What security measures and data protection requirements apply?",
		"Do you need email notification alerts?",
	}

	ranked := Rank(questions, classify.TypeCRUD)
	require.Len(t, ranked, 3)

	// The security question outranks the cosmetic and notification ones.
	assert.Equal(t, "What security measures and data protection requirements apply?", ranked[0].Question)
	assert.Equal(t, TierCritical, ranked[0].Tier)
	for i := 1; i < len(ranked); i++ {
		assert.GreaterOrEqual(t, tierOrder[ranked[i].Tier], tierOrder[ranked[i-1].Tier])
	}
}

func TestRankIsStableWithinTier(t *testing.T) {
	questions := []string{
		"Should the layout design be responsive?",
		"Do you want an interface design theme?",
	}
	ranked := Rank(questions, classify.TypeUI)
	require.Len(t, ranked, 2)
	if ranked[0].Tier == ranked[1].Tier {
		assert.Equal(t, questions[0], ranked[0].Question)
		assert.Equal(t, questions[1], ranked[1].Question)
	}
}

func TestScoreToTierTightensForSensitiveFeatures(t *testing.T) {
	// The same middling score is high for a general feature but only
	// medium when the feature handles credentials or money.
	assert.Equal(t, TierHigh, scoreToTier(1.6, classify.TypeGeneral))
	assert.Equal(t, TierMedium, scoreToTier(1.6, classify.TypeAuthentication))
	assert.Equal(t, TierMedium, scoreToTier(1.6, classify.TypePayment))
}

func TestRankUnknownFeatureType(t *testing.T) {
	ranked := Rank([]string{"What security measures are required?"}, "nonsense")
	require.Len(t, ranked, 1)
	assert.Positive(t, ranked[0].Score)
}
