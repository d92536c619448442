package insight

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specdraft/specdraft/internal/classify"
	"github.com/specdraft/specdraft/internal/question"
)

func TestAnalyzeDefaults(t *testing.T) {
	ins := Analyze(nil, nil, classify.TypeGeneral)

	assert.Equal(t, StyleNeutral, ins.Style)
	assert.Equal(t, DetailMedium, ins.DetailLevel)
	assert.Equal(t, ExpertiseIntermediate, ins.Expertise)
	assert.Empty(t, ins.Evolution)
}

func TestAnalyzeTopicsAndGaps(t *testing.T) {
	messages := []string{"I want a login system for my customers"}
	questions := []question.Question{
		{Text: "What password rules do you need?", Status: question.StatusPending},
		{Text: "What user roles are required?", Status: question.StatusAnswered, UserAnswer: "admin and member"},
	}

	ins := Analyze(messages, questions, classify.TypeAuthentication)

	assert.True(t, ins.PendingTopics["security"])
	assert.True(t, ins.AnsweredTopics["user_management"])
	// Authentication features expect data management to be covered too.
	assert.Contains(t, ins.Gaps, "Missing data_management considerations")
	assert.NotContains(t, ins.Gaps, "Missing security considerations")
}

func TestAnalyzePreferences(t *testing.T) {
	ins := Analyze([]string{"Keep it simple, high security, and integrate with our api"}, nil, classify.TypeGeneral)

	assert.Equal(t, "high", ins.Preferences["security_level"])
	assert.Equal(t, "simple", ins.Preferences["ui_complexity"])
	assert.Equal(t, "yes", ins.Preferences["integration_needs"])
}

func TestAnalyzeStyleAndExpertise(t *testing.T) {
	technical := []string{
		"The api endpoint should write to the database schema",
		"Use a framework with a documented protocol",
	}
	ins := Analyze(technical, nil, classify.TypeGeneral)
	assert.Equal(t, StyleTechnical, ins.Style)

	beginner := []string{"Something simple and easy, no technical knowledge needed"}
	assert.Equal(t, ExpertiseBeginner, Analyze(beginner, nil, classify.TypeGeneral).Expertise)
}

func TestAnalyzeEvolution(t *testing.T) {
	ins := Analyze([]string{
		"I want a task tracker",
		"Additionally it should send reminders",
	}, nil, classify.TypeGeneral)

	require.Len(t, ins.Evolution, 1)
	assert.Contains(t, ins.Evolution[0], "Additionally it should send reminders")
}

func TestContextQuestionsFillGaps(t *testing.T) {
	ins := &Insight{
		Gaps:        []string{"Missing security considerations", "Missing data_management considerations"},
		Preferences: map[string]string{},
		Expertise:   ExpertiseIntermediate,
	}

	got := ContextQuestions(ins, nil)
	require.NotEmpty(t, got)
	assert.Contains(t, got, "Are there any security considerations we should address?")
	assert.Contains(t, got, "What data will be stored and how should it be managed?")
}

func TestContextQuestionsAdaptToExpertise(t *testing.T) {
	ins := &Insight{
		Gaps:        []string{"Missing security considerations"},
		Preferences: map[string]string{},
		Expertise:   ExpertiseExpert,
	}

	got := ContextQuestions(ins, nil)
	require.NotEmpty(t, got)
	assert.Equal(t, "What specific security measures and compliance requirements should be implemented?", got[0])
}

func TestContextQuestionsBounded(t *testing.T) {
	ins := &Insight{
		Gaps: []string{
			"Missing security considerations",
			"Missing performance considerations",
			"Missing integration considerations",
			"Missing data_management considerations",
		},
		Preferences: map[string]string{"security_level": "high", "ui_complexity": "advanced"},
		Style:       StyleTechnical,
	}

	got := ContextQuestions(ins, nil)
	assert.Len(t, got, maxContextQuestions)
}

func TestContextQuestionsSkipExisting(t *testing.T) {
	ins := &Insight{
		Gaps:        []string{"Missing security considerations"},
		Preferences: map[string]string{},
	}
	existing := []string{"Are there any security considerations we should address?"}

	assert.Empty(t, ContextQuestions(ins, existing))
}
