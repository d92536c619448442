package protocol

import (
	"strconv"
	"strings"
)

const (
	sectionSecurity = "SECURITY"
	sectionContext  = "CONTEXT"
)

// SecurityVerdict is the parsed output of the security classification
// call. Confidence shapes only the phrasing of a rejection, never the
// accept/reject decision itself.
type SecurityVerdict struct {
	Accepted   bool
	Confidence float64
	Reasoning  string
}

// ContextVerdict is the parsed output of the contextual-relevance call.
type ContextVerdict struct {
	Accepted  bool
	Reasoning string
}

// ParseSecurityVerdict parses the SECURITY: key/value block. An
// unparseable or absent confidence defaults to 1.0 so a rejection without
// one reads as decisive. A missing SECURITY section yields a *ParseError.
func ParseSecurityVerdict(text string) (*SecurityVerdict, error) {
	sections := splitSections(strings.TrimSpace(text), []Label{{Name: sectionSecurity, Terminal: true}})
	body, ok := sections[sectionSecurity]
	if !ok {
		return nil, &ParseError{Missing: sectionSecurity}
	}
	kv := parseKeyValues(body)

	confidence := 1.0
	if f, err := strconv.ParseFloat(kv["confidence"], 64); err == nil {
		confidence = f
	}
	return &SecurityVerdict{
		Accepted:   strings.EqualFold(kv["is_feature_request"], "true"),
		Confidence: confidence,
		Reasoning:  kv["reasoning"],
	}, nil
}

// ParseContextVerdict parses the CONTEXT: key/value block. A missing
// CONTEXT section yields a *ParseError.
func ParseContextVerdict(text string) (*ContextVerdict, error) {
	sections := splitSections(strings.TrimSpace(text), []Label{{Name: sectionContext, Terminal: true}})
	body, ok := sections[sectionContext]
	if !ok {
		return nil, &ParseError{Missing: sectionContext}
	}
	kv := parseKeyValues(body)
	return &ContextVerdict{
		Accepted:  strings.EqualFold(kv["is_contextually_relevant"], "true"),
		Reasoning: kv["reasoning"],
	}, nil
}
