// Package insight derives conversation-level signals from the
// user-authored side of a session: stated preferences, conversational
// style, detail level, technical expertise, feature evolution, and topic
// gaps relative to what the detected feature type is expected to cover.
package insight

import (
	"strings"

	"github.com/specdraft/specdraft/internal/classify"
	"github.com/specdraft/specdraft/internal/question"
)

// Style labels for the conversation-style signal.
const (
	StyleNeutral   = "neutral"
	StyleDetailed  = "detailed"
	StyleConcise   = "concise"
	StyleTechnical = "technical"
	StyleBusiness  = "business"
)

// Detail levels.
const (
	DetailHigh   = "high"
	DetailMedium = "medium"
	DetailLow    = "low"
)

// Expertise levels.
const (
	ExpertiseExpert       = "expert"
	ExpertiseIntermediate = "intermediate"
	ExpertiseBeginner     = "beginner"
)

// Insight is the per-turn analysis result. It is recomputed from the
// history snapshot each turn and never persisted.
type Insight struct {
	Preferences    map[string]string
	AnsweredTopics map[string]bool
	PendingTopics  map[string]bool
	Style          string
	DetailLevel    string
	Expertise      string
	Evolution      []string
	Gaps           []string
}

var topicKeywords = map[string][]string{
	"security": {
		"security", "authentication", "authorization", "password", "login",
		"2fa", "two-factor", "encryption", "privacy", "gdpr", "compliance",
	},
	"user_management": {
		"user", "account", "registration", "profile", "role", "permission",
		"admin", "moderator", "user type", "user group",
	},
	"data_management": {
		"data", "database", "storage", "backup", "export", "import",
		"migration", "sync", "replication", "archive",
	},
	"ui_ux": {
		"interface", "design", "layout", "ui", "ux", "user experience",
		"responsive", "mobile", "desktop", "theme", "customization",
	},
	"performance": {
		"performance", "speed", "response time", "scalability", "load",
		"concurrent", "throughput", "optimization", "caching",
	},
	"integration": {
		"api", "integration", "third-party", "external", "webhook",
		"synchronization", "connector", "plugin", "extension",
	},
	"notifications": {
		"notification", "email", "sms", "push", "alert", "reminder",
		"communication", "messaging", "in-app",
	},
	"reporting": {
		"report", "analytics", "dashboard", "metrics", "statistics",
		"insights", "kpi", "monitoring", "tracking",
	},
	"workflow": {
		"workflow", "process", "approval", "status", "state", "transition",
		"automation", "business logic", "rules",
	},
	"payment": {
		"payment", "billing", "subscription", "pricing", "invoice",
		"transaction", "gateway", "stripe", "paypal",
	},
}

var styleIndicators = map[string][]string{
	StyleDetailed: {
		"specifically", "in detail", "comprehensive", "thorough",
		"complete", "full", "extensive", "detailed",
	},
	StyleConcise: {
		"simple", "basic", "minimal", "essential", "core", "just",
		"only", "straightforward", "direct",
	},
	StyleTechnical: {
		"api", "endpoint", "database", "schema", "architecture",
		"framework", "protocol", "algorithm", "optimization",
	},
	StyleBusiness: {
		"business", "user", "customer", "stakeholder", "requirement",
		"goal", "objective", "value", "benefit", "roi",
	},
}

var expertiseIndicators = map[string][]string{
	ExpertiseExpert: {
		"microservices", "distributed", "scalable", "optimization",
		"performance", "security", "compliance", "architecture",
		"infrastructure", "devops",
	},
	ExpertiseIntermediate: {
		"api", "database", "frontend", "backend", "integration",
		"authentication", "deployment", "testing", "monitoring",
	},
	ExpertiseBeginner: {
		"simple", "basic", "easy", "user-friendly", "intuitive",
		"straightforward", "no technical knowledge", "plug-and-play",
	},
}

var expectedTopics = map[string][]string{
	classify.TypeAuthentication: {"security", "user_management", "data_management"},
	classify.TypePayment:        {"payment", "security", "data_management", "integration"},
	classify.TypeCRUD:           {"data_management", "ui_ux", "performance", "user_management"},
	classify.TypeIntegration:    {"integration", "performance", "data_management"},
	classify.TypeWorkflow:       {"workflow", "user_management", "notifications", "ui_ux"},
	classify.TypeReporting:      {"reporting", "data_management", "ui_ux", "performance"},
	classify.TypeNotification:   {"notifications", "user_management", "integration"},
	classify.TypeSearch:         {"performance", "ui_ux", "data_management"},
	classify.TypeUI:             {"ui_ux", "performance", "user_management"},
	classify.TypeGeneral:        {"user_management", "ui_ux", "data_management"},
}

// evolutionMarkers flag turns that extend an earlier request rather than
// opening a new one.
var evolutionMarkers = []string{"also", "additionally", "plus", "and", "also need"}

// Analyze computes insights from the user-authored messages of a session
// together with the current question set. Empty input falls back to the
// neutral/medium/intermediate defaults.
func Analyze(userMessages []string, questions []question.Question, featureType string) *Insight {
	var answered, pending []question.Question
	for _, q := range questions {
		switch q.Status {
		case question.StatusAnswered:
			answered = append(answered, q)
		case question.StatusPending:
			pending = append(pending, q)
		}
	}

	ins := &Insight{
		Preferences:    analyzePreferences(userMessages),
		AnsweredTopics: questionTopics(answered),
		PendingTopics:  questionTopics(pending),
		Style:          dominantLabel(userMessages, styleIndicators, StyleNeutral),
		DetailLevel:    assessDetailLevel(userMessages),
		Expertise:      dominantLabel(userMessages, expertiseIndicators, ExpertiseIntermediate),
		Evolution:      trackEvolution(userMessages),
	}
	ins.Gaps = identifyGaps(ins.AnsweredTopics, ins.PendingTopics, featureType)
	return ins
}

func analyzePreferences(messages []string) map[string]string {
	prefs := make(map[string]string)
	for _, msg := range messages {
		lower := strings.ToLower(msg)

		if containsAny(lower, "secure", "security", "protected") {
			switch {
			case strings.Contains(lower, "no security") || strings.Contains(lower, "minimal security"):
				prefs["security_level"] = "minimal"
			case strings.Contains(lower, "high security") || strings.Contains(lower, "maximum security"):
				prefs["security_level"] = "high"
			default:
				prefs["security_level"] = "standard"
			}
		}

		switch {
		case containsAny(lower, "simple", "basic", "minimal"):
			prefs["ui_complexity"] = "simple"
		case containsAny(lower, "advanced", "complex", "detailed"):
			prefs["ui_complexity"] = "advanced"
		default:
			prefs["ui_complexity"] = "standard"
		}

		switch {
		case containsAny(lower, "integrate", "api", "external"):
			prefs["integration_needs"] = "yes"
		case strings.Contains(lower, "no integration") || strings.Contains(lower, "standalone"):
			prefs["integration_needs"] = "no"
		}
	}
	return prefs
}

func questionTopics(qs []question.Question) map[string]bool {
	topics := make(map[string]bool)
	for _, q := range qs {
		lower := strings.ToLower(q.Text)
		for topic, keywords := range topicKeywords {
			if containsAny(lower, keywords...) {
				topics[topic] = true
			}
		}
	}
	return topics
}

// dominantLabel counts messages hitting each indicator set and returns
// the most frequent label, breaking ties deterministically by the fixed
// label order below. No hits returns the fallback.
func dominantLabel(messages []string, indicators map[string][]string, fallback string) string {
	order := []string{
		StyleDetailed, StyleConcise, StyleTechnical, StyleBusiness,
		ExpertiseExpert, ExpertiseIntermediate, ExpertiseBeginner,
	}
	counts := make(map[string]int)
	for _, msg := range messages {
		lower := strings.ToLower(msg)
		for label, words := range indicators {
			if containsAny(lower, words...) {
				counts[label]++
			}
		}
	}
	best, bestCount := fallback, 0
	for _, label := range order {
		if counts[label] > bestCount {
			best, bestCount = label, counts[label]
		}
	}
	return best
}

func assessDetailLevel(messages []string) string {
	detailed, concise := 0, 0
	for _, msg := range messages {
		lower := strings.ToLower(msg)
		switch {
		case containsAny(lower, styleIndicators[StyleDetailed]...):
			detailed++
		case containsAny(lower, styleIndicators[StyleConcise]...):
			concise++
		}
	}
	switch {
	case detailed > concise:
		return DetailHigh
	case concise > detailed:
		return DetailLow
	default:
		return DetailMedium
	}
}

func trackEvolution(messages []string) []string {
	var out []string
	for _, msg := range messages {
		if containsAny(strings.ToLower(msg), evolutionMarkers...) {
			out = append(out, truncate(msg, 100)+"...")
		}
	}
	return out
}

func identifyGaps(answered, pending map[string]bool, featureType string) []string {
	expected, ok := expectedTopics[featureType]
	if !ok {
		expected = []string{"user_management", "ui_ux"}
	}
	var gaps []string
	for _, topic := range expected {
		if !answered[topic] && !pending[topic] {
			gaps = append(gaps, "Missing "+topic+" considerations")
		}
	}
	return gaps
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
