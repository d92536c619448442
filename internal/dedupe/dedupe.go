// Package dedupe suppresses clarifying questions that cover the same
// topic as a question the session already tracks. Similarity is decided by
// a fixed set of topic-keyword equivalence classes rather than text
// distance, so differently worded questions about the same subject still
// collapse.
package dedupe

import (
	"strings"

	"github.com/specdraft/specdraft/internal/question"
)

// Topic equivalence classes. A question belongs to a topic when it
// contains any of the topic's keywords; two questions sharing any topic
// count as duplicates.
var topicKeywords = map[string][]string{
	"2fa": {
		"2fa", "two factor", "two-factor", "authentication", "additional authentication",
	},
	"password_reset": {
		"password reset", "forgotten password", "forgot password", "password recovery", "reset password",
	},
	"registration": {
		"register", "registration", "sign up", "account creation", "new account",
	},
	"password_complexity": {
		"password complexity", "password rules", "password requirements", "minimum length",
		"special characters", "uppercase", "lowercase", "numbers", "password strength",
	},
	"password_attempts": {
		"wrong password", "incorrect password", "failed attempts", "attempts",
		"lock account", "lockout", "brute force", "wait", "hour", "block",
	},
	"security": {
		"security measures", "security", "protection", "lock", "secure",
	},
	"email": {
		"email verification", "email link", "email code", "email reset", "email",
	},
	"user_management": {
		"user", "account", "profile", "user type", "role",
	},
}

// Topics returns the equivalence classes a question text falls into.
func Topics(text string) map[string]bool {
	lower := strings.ToLower(text)
	topics := make(map[string]bool)
	for topic, keywords := range topicKeywords {
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				topics[topic] = true
				break
			}
		}
	}
	return topics
}

func sameTopic(a, b map[string]bool) bool {
	for t := range a {
		if b[t] {
			return true
		}
	}
	return false
}

// IsDuplicate reports whether candidate shares a topic with any existing
// question that is answered or still pending. Disregarded questions do
// not block a topic from being asked again.
func IsDuplicate(candidate string, existing []question.Question) bool {
	candidateTopics := Topics(candidate)
	if len(candidateTopics) == 0 {
		return false
	}
	for _, q := range existing {
		if q.Status == question.StatusDisregarded {
			continue
		}
		if sameTopic(candidateTopics, Topics(q.Text)) {
			return true
		}
	}
	return false
}

// Filter drops candidates that duplicate an existing question, and also
// candidates that duplicate an earlier survivor in the same batch.
// Filtering is idempotent: running it twice over the same existing set
// changes nothing.
func Filter(candidates []string, existing []question.Question) []string {
	var (
		out  []string
		kept []question.Question
	)
	for _, c := range candidates {
		if IsDuplicate(c, existing) || IsDuplicate(c, kept) {
			continue
		}
		out = append(out, c)
		kept = append(kept, question.New(c))
	}
	return out
}
