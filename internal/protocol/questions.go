package protocol

import (
	"strings"

	"github.com/specdraft/specdraft/internal/question"
)

const sectionQuestionBlock = "QUESTIONS"

var questionBlockLabels = []Label{{Name: sectionQuestionBlock, Terminal: true}}

// ParseQuestionBlock parses the QUESTIONS: block returned by the
// follow-up-analysis call into reclassification triples. Entries use the
// form:
//
//	- question: "<text>"
//	  status: "answered|pending|disregarded"
//	  user_answer: "<text>" | null
//
// Entries with an unrecognized status are skipped; the lifecycle merge
// treats unmentioned questions as unchanged, so a malformed entry degrades
// to "no change" rather than failing the turn. A missing QUESTIONS section
// yields a *ParseError.
func ParseQuestionBlock(text string) ([]question.Reclassification, error) {
	sections := splitSections(strings.TrimSpace(text), questionBlockLabels)
	body, ok := sections[sectionQuestionBlock]
	if !ok {
		return nil, &ParseError{Missing: sectionQuestionBlock}
	}

	var (
		out     []question.Reclassification
		current *question.Reclassification
	)
	flush := func() {
		if current != nil && current.Text != "" && current.Status.Valid() {
			out = append(out, *current)
		}
		current = nil
	}

	for _, raw := range strings.Split(body, "\n") {
		line := strings.TrimSpace(raw)
		switch {
		case strings.HasPrefix(line, "- question:"):
			flush()
			current = &question.Reclassification{
				Text: unquote(strings.TrimPrefix(line, "- question:")),
			}
		case strings.HasPrefix(line, "status:"):
			if current == nil {
				continue
			}
			if st, err := question.ParseStatus(strings.TrimPrefix(line, "status:")); err == nil {
				current.Status = st
			}
		case strings.HasPrefix(line, "user_answer:"):
			if current == nil {
				continue
			}
			val := strings.TrimSpace(strings.TrimPrefix(line, "user_answer:"))
			if !strings.EqualFold(val, "null") {
				current.UserAnswer = unquote(val)
			}
		}
	}
	flush()
	return out, nil
}

func unquote(s string) string {
	return strings.Trim(strings.TrimSpace(s), `"`)
}
