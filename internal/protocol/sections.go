// Package protocol parses the structured-text blocks emitted by the model
// calls: the RESPONSE / PENDING QUESTIONS / MARKDOWN turn format, the
// QUESTIONS reclassification block, the SECURITY and CONTEXT verdict
// blocks, and the generated markdown document itself.
//
// Section extraction is a small line-state tokenizer rather than a regex
// over the whole blob: each line either opens a known section or is
// accumulated into the one currently open. Labels are case-sensitive and
// must start the line.
package protocol

import "strings"

// Label names a section header the tokenizer recognizes. A Terminal label
// consumes everything to the end of the input, so later header-looking
// lines inside it (for example a "QUESTIONS:" line inside generated
// markdown) stay part of its body.
type Label struct {
	Name     string
	Terminal bool
}

// splitSections scans text line by line and returns the body of each
// recognized section, keyed by label name. Content on the header line
// after the colon belongs to the section. Lines before the first header
// are discarded. A label appearing twice keeps the first occurrence.
func splitSections(text string, labels []Label) map[string]string {
	var (
		bodies   = make(map[string]*strings.Builder)
		current  *strings.Builder
		terminal bool
	)
	for _, line := range strings.Split(text, "\n") {
		if !terminal {
			if lbl, rest, ok := matchHeader(line, labels); ok {
				if _, seen := bodies[lbl.Name]; !seen {
					current = &strings.Builder{}
					bodies[lbl.Name] = current
					terminal = lbl.Terminal
					if rest != "" {
						current.WriteString(rest)
						current.WriteString("\n")
					}
					continue
				}
			}
		}
		if current != nil {
			current.WriteString(line)
			current.WriteString("\n")
		}
	}

	out := make(map[string]string, len(bodies))
	for name, b := range bodies {
		out[name] = strings.TrimSpace(b.String())
	}
	return out
}

func matchHeader(line string, labels []Label) (Label, string, bool) {
	trimmed := strings.TrimSpace(line)
	for _, lbl := range labels {
		if rest, ok := strings.CutPrefix(trimmed, lbl.Name+":"); ok {
			return lbl, strings.TrimSpace(rest), true
		}
	}
	return Label{}, "", false
}

// cleanBullet strips a leading "-" or "*" marker, with or without a
// trailing space, from a list line.
func cleanBullet(line string) string {
	line = strings.TrimSpace(line)
	for _, marker := range []string{"- ", "* ", "-", "*"} {
		if rest, ok := strings.CutPrefix(line, marker); ok {
			return strings.TrimSpace(rest)
		}
	}
	return line
}

// parseKeyValues parses "key: value" lines into a map, splitting on the
// first colon only and dropping a trailing semicolon from the value.
func parseKeyValues(body string) map[string]string {
	out := make(map[string]string)
	for _, line := range strings.Split(body, "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		out[strings.TrimSpace(key)] = strings.TrimSuffix(strings.TrimSpace(value), ";")
	}
	return out
}
