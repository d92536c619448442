// Package prioritize ranks clarifying questions into priority tiers.
// Security, compliance, and financial questions score highest; cosmetic
// ones lowest. Thresholds tighten for authentication and payment features
// where weak clarification is costlier.
package prioritize

import (
	"regexp"
	"sort"
	"strings"

	"github.com/specdraft/specdraft/internal/classify"
)

// Tier is a question priority level, ordered critical first.
type Tier string

const (
	TierCritical Tier = "critical"
	TierHigh     Tier = "high"
	TierMedium   Tier = "medium"
	TierLow      Tier = "low"
)

var tierOrder = map[Tier]int{
	TierCritical: 0,
	TierHigh:     1,
	TierMedium:   2,
	TierLow:      3,
}

// Ranked pairs a question with its computed tier and raw score.
type Ranked struct {
	Question string
	Tier     Tier
	Score    float64
}

type tierProfile struct {
	keywords []string
	patterns []*regexp.Regexp
	weight   float64
}

func compile(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile("(?i)" + e)
	}
	return out
}

var tierProfiles = map[Tier]tierProfile{
	TierCritical: {
		keywords: []string{
			"security", "authentication", "authorization", "password", "login",
			"data protection", "privacy", "compliance", "gdpr", "hipaa",
			"payment", "billing", "financial", "money", "credit card",
			"user data", "personal information", "confidential",
		},
		patterns: compile(
			`security.*(requirement|measure|protection)`,
			`authentication.*(method|system|process)`,
			`payment.*(process|gateway|method)`,
			`data.*(protection|privacy|confidential)`,
			`compliance.*(requirement|regulation)`,
		),
		weight: 1.0,
	},
	TierHigh: {
		keywords: []string{
			"user", "account", "registration", "profile", "settings",
			"core functionality", "main feature", "primary", "essential",
			"performance", "scalability", "reliability", "availability",
			"integration", "api", "external", "third party",
		},
		patterns: compile(
			`user.*(account|registration|profile)`,
			`core.*(functionality|feature)`,
			`main.*(feature|functionality)`,
			`performance.*(requirement|expectation)`,
			`integration.*(api|external)`,
		),
		weight: 0.8,
	},
	TierMedium: {
		keywords: []string{
			"interface", "design", "layout", "ui", "ux", "user experience",
			"notification", "email", "sms", "alert", "reminder",
			"search", "filter", "sort", "organize", "categorize",
			"report", "analytics", "dashboard", "metrics",
		},
		patterns: compile(
			`interface.*(design|layout)`,
			`notification.*(email|sms|alert)`,
			`search.*(functionality|feature)`,
			`report.*(generate|view|analytics)`,
		),
		weight: 0.6,
	},
	TierLow: {
		keywords: []string{
			"nice to have", "optional", "additional", "extra", "bonus",
			"cosmetic", "aesthetic", "visual", "animation", "theme",
			"preference", "customization", "personalization",
		},
		patterns: compile(
			`nice.*to.*have`,
			`optional.*(feature|functionality)`,
			`cosmetic.*(change|improvement)`,
			`visual.*(enhancement|improvement)`,
		),
		weight: 0.4,
	},
}

var featureTypeWeights = map[string]float64{
	classify.TypeAuthentication: 1.0,
	classify.TypePayment:        1.0,
	classify.TypeCRUD:           0.8,
	classify.TypeIntegration:    0.8,
	classify.TypeWorkflow:       0.8,
	classify.TypeReporting:      0.6,
	classify.TypeNotification:   0.6,
	classify.TypeSearch:         0.6,
	classify.TypeUI:             0.5,
	classify.TypeGeneral:        0.5,
}

const (
	keywordScore = 1.0
	patternScore = 2.0
)

// Rank scores every question and returns them stably sorted critical
// through low, preserving input order within a tier.
func Rank(questions []string, featureType string) []Ranked {
	out := make([]Ranked, len(questions))
	for i, q := range questions {
		tier, score := scoreQuestion(q, featureType)
		out[i] = Ranked{Question: q, Tier: tier, Score: score}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return tierOrder[out[i].Tier] < tierOrder[out[j].Tier]
	})
	return out
}

// scoreQuestion takes the best score across the four tier profiles, with
// keyword hits worth 1.0 and pattern hits 2.0, scaled by the tier weight
// and the feature type weight, then maps that score to a final tier.
func scoreQuestion(q, featureType string) (Tier, float64) {
	lower := strings.ToLower(q)
	featureWeight, ok := featureTypeWeights[featureType]
	if !ok {
		featureWeight = 0.5
	}

	maxScore := 0.0
	for _, p := range tierProfiles {
		score := 0.0
		for _, kw := range p.keywords {
			if strings.Contains(lower, kw) {
				score += keywordScore
			}
		}
		for _, re := range p.patterns {
			if re.MatchString(lower) {
				score += patternScore
			}
		}
		score *= p.weight * featureWeight
		if score > maxScore {
			maxScore = score
		}
	}
	return scoreToTier(maxScore, featureType), maxScore
}

func scoreToTier(score float64, featureType string) Tier {
	// Security and financial features demand more signal before a
	// question counts as critical.
	if featureType == classify.TypeAuthentication || featureType == classify.TypePayment {
		switch {
		case score >= 3.0:
			return TierCritical
		case score >= 2.0:
			return TierHigh
		case score >= 1.0:
			return TierMedium
		}
		return TierLow
	}
	switch {
	case score >= 2.5:
		return TierCritical
	case score >= 1.5:
		return TierHigh
	case score >= 0.8:
		return TierMedium
	}
	return TierLow
}
