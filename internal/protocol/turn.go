package protocol

import (
	"fmt"
	"strings"
)

const (
	sectionResponse  = "RESPONSE"
	sectionQuestions = "PENDING QUESTIONS"
	sectionMarkdown  = "MARKDOWN"

	// Fragments shorter than this are discarded by the fallback question
	// extraction.
	minFallbackQuestionLen = 10
)

// ParseError reports a structurally invalid model turn. Missing names the
// absent required section.
type ParseError struct {
	Missing string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("model output missing required %s section", e.Missing)
}

// Turn is the parsed form of one conversational model response.
type Turn struct {
	Response  string
	Markdown  string
	Questions []string
}

var turnLabels = []Label{
	{Name: sectionResponse},
	{Name: sectionQuestions},
	{Name: sectionMarkdown, Terminal: true},
}

// ParseTurn extracts the RESPONSE, optional PENDING QUESTIONS, and
// MARKDOWN sections from raw model text. Question bullets accept both "-"
// and "*" markers. When the PENDING QUESTIONS section is absent or empty,
// candidate questions are derived from the RESPONSE text instead. A
// missing RESPONSE or MARKDOWN section yields a *ParseError.
func ParseTurn(text string) (*Turn, error) {
	sections := splitSections(strings.TrimSpace(text), turnLabels)

	response, ok := sections[sectionResponse]
	if !ok {
		return nil, &ParseError{Missing: sectionResponse}
	}
	markdown, ok := sections[sectionMarkdown]
	if !ok {
		return nil, &ParseError{Missing: sectionMarkdown}
	}

	questions := parseQuestionBullets(sections[sectionQuestions])
	if len(questions) == 0 {
		questions = FallbackQuestions(response)
	}

	return &Turn{Response: response, Markdown: markdown, Questions: questions}, nil
}

func parseQuestionBullets(body string) []string {
	var out []string
	for _, line := range strings.Split(body, "\n") {
		if q := cleanBullet(line); q != "" {
			out = append(out, q)
		}
	}
	return out
}

// FallbackQuestions derives candidate questions from free text by
// splitting on question marks and keeping fragments above a minimum
// length. Trailing fragments get a question mark re-appended, so a
// non-interrogative tail can surface as a "question"; that quirk is
// intentional and matched by the downstream dedup filter.
func FallbackQuestions(text string) []string {
	var out []string
	for _, frag := range strings.Split(text, "?") {
		frag = strings.TrimSpace(frag)
		if frag == "" {
			continue
		}
		q := frag + "?"
		if len(q) > minFallbackQuestionLen {
			out = append(out, q)
		}
	}
	return out
}
