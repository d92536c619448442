package dedupe

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/specdraft/specdraft/internal/question"
)

func TestTopics(t *testing.T) {
	topics := Topics("Will the system support multi-factor authentication?")
	assert.True(t, topics["2fa"])

	topics = Topics("What password requirements should we implement?")
	assert.True(t, topics["password_complexity"])

	assert.Empty(t, Topics("Should the dashboard refresh automatically?"))
}

func TestIsDuplicate(t *testing.T) {
	existing := []question.Question{
		{Text: "Do you need password complexity rules?", Status: question.StatusAnswered, UserAnswer: "Minimum 12 characters"},
		{Text: "Will the system support multi-factor authentication?", Status: question.StatusPending},
	}

	// Differently worded, same topic as the answered question.
	assert.True(t, IsDuplicate("What password requirements should we implement?", existing))
	// Pending questions also block their topic.
	assert.True(t, IsDuplicate("Should we add two-factor login?", existing))
	// A fresh topic passes.
	assert.False(t, IsDuplicate("Should the dashboard refresh automatically?", existing))
}

func TestIsDuplicateIgnoresDisregarded(t *testing.T) {
	existing := []question.Question{
		{Text: "Do you need password complexity rules?", Status: question.StatusDisregarded},
	}
	assert.False(t, IsDuplicate("What password requirements should we implement?", existing))
}

func TestIsDuplicateNoTopics(t *testing.T) {
	existing := []question.Question{
		{Text: "Should the dashboard refresh automatically?", Status: question.StatusPending},
	}
	// Candidates outside every topic class never match.
	assert.False(t, IsDuplicate("How often should the report run?", existing))
}

func TestFilter(t *testing.T) {
	existing := []question.Question{
		{Text: "Do you need password complexity rules?", Status: question.StatusAnswered},
	}
	candidates := []string{
		"What password requirements should we implement?",
		"Will the system support multi-factor authentication?",
		"Should we add two-factor login?",
		"Should the dashboard refresh automatically?",
	}

	got := Filter(candidates, existing)

	// The password candidate collides with the existing question, and the
	// second 2FA candidate collides with the first surviving one.
	assert.Equal(t, []string{
		"Will the system support multi-factor authentication?",
		"Should the dashboard refresh automatically?",
	}, got)
}

func TestFilterIdempotent(t *testing.T) {
	existing := []question.Question{
		{Text: "Will the system support multi-factor authentication?", Status: question.StatusPending},
	}
	candidates := []string{"Should the dashboard refresh automatically?"}

	once := Filter(candidates, existing)
	twice := Filter(once, existing)
	assert.Equal(t, once, twice)
}
