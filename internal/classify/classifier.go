// Package classify detects the dominant feature category of a feature
// description using keyword and regex-pattern scoring. The result steers
// question prioritization, gap analysis, and the question templates
// offered for under-specified requests.
package classify

import (
	"regexp"
	"sort"
	"strings"
)

// Feature type labels.
const (
	TypeAuthentication = "authentication"
	TypeCRUD           = "crud"
	TypeReporting      = "reporting"
	TypeIntegration    = "integration"
	TypeUI             = "ui"
	TypeNotification   = "notification"
	TypePayment        = "payment"
	TypeSearch         = "search"
	TypeWorkflow       = "workflow"
	TypeGeneral        = "general"
)

const (
	keywordScore = 1.0
	patternScore = 3.0

	// Raw score treated as a solid match when normalizing to confidence.
	baselineScore = 5.0
	// Raw score at which confidence gets the clear-match boost.
	clearMatchScore = 3.0
	clearMatchBoost = 1.5
)

// Result is the outcome of classifying a feature description.
type Result struct {
	PrimaryType   string
	Confidence    float64
	AllScores     map[string]float64
	KeywordsFound []string
}

type profile struct {
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

var profiles = map[string]profile{
	TypeAuthentication: {
		keywords: []string{
			"login", "logout", "sign in", "sign out", "register", "registration",
			"password", "reset password", "forgot password", "two factor", "2fa",
			"authentication", "authorization", "jwt", "token", "session",
			"user account", "profile", "credentials", "verify", "verification",
		},
		patterns: compile(
			`user.*(login|sign in|authentication)`,
			`(login|sign in).*system`,
			`password.*(reset|forgot|recovery)`,
			`two.?factor.*authentication`,
			`user.*(register|registration)`,
			`account.*(create|setup|management)`,
		),
		weight: 1.0,
	},
	TypeCRUD: {
		keywords: []string{
			"create", "read", "update", "delete", "add", "remove", "edit",
			"manage", "list", "view", "show", "display", "store", "save",
			"insert", "modify", "change", "archive",
		},
		patterns: compile(
			`(create|add).*(user|item|record|data)`,
			`(edit|update|modify).*(user|item|record|data)`,
			`(delete|remove).*(user|item|record|data)`,
			`(list|view|show).*(user|item|record|data)`,
			`manage.*(user|item|record|data)`,
		),
		weight: 0.8,
	},
	TypeReporting: {
		keywords: []string{
			"dashboard", "report", "analytics", "chart", "graph", "statistics",
			"metrics", "kpi", "data visualization", "insights", "trends",
			"summary", "overview", "monitoring", "tracking", "performance",
		},
		patterns: compile(
			`dashboard.*(view|display|show)`,
			`report.*(generate|create|view|show)`,
			`analytics.*(dashboard|report)`,
			`chart.*(display|show|view)`,
			`data.*(visualization|insights)`,
			`reports.*(show|display|user|activity)`,
			`statistics.*(report|show|display)`,
		),
		weight: 0.9,
	},
	TypeIntegration: {
		keywords: []string{
			"api", "integration", "webhook", "third party", "external",
			"connect", "sync", "import", "export", "callback",
			"oauth", "rest", "graphql", "microservice", "service",
		},
		patterns: compile(
			`api.*(integration|connect)`,
			`third.?party.*(service|integration)`,
			`webhook.*(receive|send)`,
			`sync.*(data|information)`,
			`import.*(data|file)`,
		),
		weight: 0.85,
	},
	TypeUI: {
		keywords: []string{
			"interface", "form", "button", "modal", "popup", "navigation",
			"menu", "sidebar", "header", "footer", "layout", "design",
			"responsive", "mobile", "desktop", "component", "widget",
		},
		patterns: compile(
			`user.*interface.*(design|layout)`,
			`form.*(input|submit|validation)`,
			`responsive.*(design|layout)`,
			`mobile.*(app|interface)`,
			`component.*(ui|interface)`,
		),
		weight: 0.7,
	},
	TypeNotification: {
		keywords: []string{
			"notification", "email", "sms", "push", "alert", "message",
			"reminder", "announcement", "broadcast", "send", "deliver",
			"subscribe", "unsubscribe", "preferences", "settings",
		},
		patterns: compile(
			`email.*(notification|send|deliver)`,
			`sms.*(notification|send|deliver)`,
			`push.*(notification|alert)`,
			`notification.*(system|service)`,
			`alert.*(user|send|system)`,
			`alert.*system.*(administrator|admin)`,
		),
		weight: 0.8,
	},
	TypePayment: {
		keywords: []string{
			"payment", "billing", "subscription", "invoice", "charge",
			"credit card", "paypal", "stripe", "transaction", "purchase",
			"order", "checkout", "cart", "pricing", "plan",
		},
		patterns: compile(
			`payment.*(process|gateway|method)`,
			`billing.*(system|service)`,
			`subscription.*(manage|billing)`,
			`credit.?card.*(payment|process)`,
			`checkout.*(process|payment)`,
			`invoice.*(generate|management|system)`,
		),
		weight: 0.9,
	},
	TypeSearch: {
		keywords: []string{
			"search", "filter", "sort", "query", "find", "lookup",
			"discover", "browse", "explore", "keyword", "tag",
			"category", "advanced search", "full text",
		},
		patterns: compile(
			`search.*(functionality|feature)`,
			`filter.*(results|data)`,
			`advanced.*search`,
			`full.?text.*search`,
			`keyword.*(search|find)`,
		),
		weight: 0.8,
	},
	TypeWorkflow: {
		keywords: []string{
			"workflow", "process", "approval", "automation", "pipeline",
			"status", "state", "transition", "step", "stage", "task",
			"assignment", "delegation", "escalation", "business process",
		},
		patterns: compile(
			`workflow.*(process|automation)`,
			`approval.*(process|workflow)`,
			`business.*process.*(automation|workflow)`,
			`status.*(transition|change)`,
			`task.*(assignment|delegation)`,
		),
		weight: 0.85,
	},
	TypeGeneral: {
		keywords: []string{
			"simple", "basic", "file", "upload", "download", "calculator",
			"contact", "form", "system", "feature", "functionality",
			"tool", "utility", "helper", "assistant", "widget",
		},
		patterns: compile(
			`simple.*(system|feature|tool)`,
			`basic.*(form|system|feature)`,
			`file.*(upload|download)`,
			`contact.*form`,
			`calculator.*(simple|basic)`,
		),
		weight: 0.5,
	},
}

// Classify scores description against every feature-type profile. Each
// keyword hit adds 1.0 and each pattern hit adds 3.0 before the per-type
// weight is applied. Confidence is the top score normalized by a fixed
// baseline, boosted by 1.5x (capped at 1.0) when the raw score clears the
// clear-match threshold. No matches at all yields general at confidence 0.
func Classify(description string) Result {
	lower := strings.ToLower(description)
	scores := make(map[string]float64)
	seen := make(map[string]bool)
	var keywords []string

	for name, p := range profiles {
		score := 0.0
		var hits []string
		for _, kw := range p.keywords {
			if strings.Contains(lower, kw) {
				score += keywordScore
				hits = append(hits, kw)
			}
		}
		for _, re := range p.patterns {
			if re.MatchString(lower) {
				score += patternScore
			}
		}
		score *= p.weight
		if score > 0 {
			scores[name] = score
			for _, kw := range hits {
				if !seen[kw] {
					seen[kw] = true
					keywords = append(keywords, kw)
				}
			}
		}
	}

	if len(scores) == 0 {
		return Result{PrimaryType: TypeGeneral, AllScores: scores}
	}

	primary, best := "", -1.0
	for _, name := range sortedTypes(scores) {
		if scores[name] > best {
			primary, best = name, scores[name]
		}
	}
	confidence := min(best/baselineScore, 1.0)
	if best >= clearMatchScore {
		confidence = min(confidence*clearMatchBoost, 1.0)
	}
	sort.Strings(keywords)
	return Result{
		PrimaryType:   primary,
		Confidence:    confidence,
		AllScores:     scores,
		KeywordsFound: keywords,
	}
}

// sortedTypes keeps tie-breaking deterministic across map iteration order.
func sortedTypes(scores map[string]float64) []string {
	names := make([]string, 0, len(scores))
	for name := range scores {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
