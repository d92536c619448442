package enrich

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specdraft/specdraft/internal/classify"
	"github.com/specdraft/specdraft/internal/question"
)

func TestEnrichAttachesMetadata(t *testing.T) {
	p := New()

	out, err := p.Enrich(context.Background(), Input{
		SessionID:    "sess-1",
		UserMessages: []string{"I want a login system with password reset"},
		Candidates:   []string{"Will the system support multi-factor authentication?"},
	})
	require.NoError(t, err)

	assert.Equal(t, classify.TypeAuthentication, out.FeatureType.PrimaryType)
	require.NotEmpty(t, out.Questions)
	for _, q := range out.Questions {
		assert.Equal(t, question.StatusPending, q.Status)
		assert.Equal(t, classify.TypeAuthentication, q.FeatureType)
		assert.NotEmpty(t, q.Priority)
	}
}

func TestEnrichDropsDuplicateCandidates(t *testing.T) {
	p := New()

	out, err := p.Enrich(context.Background(), Input{
		SessionID:    "sess-1",
		UserMessages: []string{"I want a login system"},
		Existing: []question.Question{{
			Text:       "Do you need password complexity rules?",
			Status:     question.StatusAnswered,
			UserAnswer: "Minimum 12 characters",
		}},
		Candidates: []string{"What password requirements should we implement?"},
	})
	require.NoError(t, err)

	for _, q := range out.Questions {
		assert.NotEqual(t, "What password requirements should we implement?", q.Text)
	}
}

func TestEnrichAddsGapQuestions(t *testing.T) {
	p := New()

	// An authentication feature with nothing covering data management
	// gets a synthesized gap question.
	out, err := p.Enrich(context.Background(), Input{
		SessionID:    "sess-1",
		UserMessages: []string{"I want a login system"},
	})
	require.NoError(t, err)

	texts := make([]string, 0, len(out.Questions))
	for _, q := range out.Questions {
		texts = append(texts, q.Text)
	}
	assert.Contains(t, texts, "What data will be stored and how should it be managed?")
	require.NotNil(t, out.Insight)
	assert.NotEmpty(t, out.Insight.Gaps)
}

func TestEnrichSeedsTemplatesOnQuietFirstTurn(t *testing.T) {
	p := New()

	// Opening turn, model proposed nothing: the canned questions for the
	// detected type fill in.
	out, err := p.Enrich(context.Background(), Input{
		SessionID:    "sess-1",
		UserMessages: []string{"I want a login system with password reset"},
	})
	require.NoError(t, err)

	texts := make([]string, 0, len(out.Questions))
	for _, q := range out.Questions {
		texts = append(texts, q.Text)
	}
	for _, want := range classify.QuestionTemplates(classify.TypeAuthentication)[:3] {
		assert.Contains(t, texts, want)
	}

	// A follow-up with existing questions never seeds templates.
	out, err = p.Enrich(context.Background(), Input{
		SessionID:    "sess-1",
		UserMessages: []string{"I want a login system with password reset", "yes to email"},
		Existing:     []question.Question{question.New("Should sessions expire?")},
	})
	require.NoError(t, err)
	for _, q := range out.Questions {
		for _, tmpl := range classify.QuestionTemplates(classify.TypeAuthentication) {
			assert.NotEqual(t, tmpl, q.Text)
		}
	}
}

func TestEnrichRanksCriticalFirst(t *testing.T) {
	p := New()

	out, err := p.Enrich(context.Background(), Input{
		SessionID:    "sess-1",
		UserMessages: []string{"Build a task list tool called xyzzy"},
		Candidates: []string{
			"Should the theme be customizable?",
			"What security measures and data protection requirements apply?",
		},
	})
	require.NoError(t, err)

	require.NotEmpty(t, out.Questions)
	assert.Equal(t, "What security measures and data protection requirements apply?", out.Questions[0].Text)
}

func TestEnrichCachePerSession(t *testing.T) {
	p := New()
	messages := []string{"I want a login system"}

	first, err := p.Enrich(context.Background(), Input{SessionID: "sess-1", UserMessages: messages})
	require.NoError(t, err)

	// Same message count reuses the cached classification.
	second, err := p.Enrich(context.Background(), Input{SessionID: "sess-1", UserMessages: messages})
	require.NoError(t, err)
	assert.Equal(t, first.FeatureType.PrimaryType, second.FeatureType.PrimaryType)

	// A new message recomputes; a changed topic can flip the type.
	third, err := p.Enrich(context.Background(), Input{
		SessionID: "sess-1",
		UserMessages: append(messages,
			"Actually focus on the analytics dashboard with charts, metrics, statistics, and monitoring reports"),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, third.FeatureType.PrimaryType)

	p.Invalidate("sess-1")
	fourth, err := p.Enrich(context.Background(), Input{SessionID: "sess-1", UserMessages: messages})
	require.NoError(t, err)
	assert.Equal(t, classify.TypeAuthentication, fourth.FeatureType.PrimaryType)
}

func TestEnrichCanceledContext(t *testing.T) {
	p := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Enrich(ctx, Input{SessionID: "sess-1", UserMessages: []string{"login"}})
	assert.ErrorIs(t, err, context.Canceled)
}
