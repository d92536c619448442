package insight

import "strings"

// maxContextQuestions bounds how many gap-filling questions one turn may
// add on top of the model's own.
const maxContextQuestions = 3

// ContextQuestions synthesizes up to three additional clarifying
// questions from the insight's gaps, preferences, and style, skipping any
// already present in current. The phrasing adapts to the detected
// expertise and detail level so experts get sharper questions.
func ContextQuestions(ins *Insight, current []string) []string {
	have := make(map[string]bool, len(current))
	for _, q := range current {
		have[q] = true
	}

	var out []string
	add := func(q string) {
		if q != "" && !have[q] {
			have[q] = true
			out = append(out, q)
		}
	}

	for _, gap := range ins.Gaps {
		add(gapQuestion(gap, ins))
	}
	for _, q := range preferenceQuestions(ins) {
		add(q)
	}
	for _, q := range styleQuestions(ins) {
		add(q)
	}

	if len(out) > maxContextQuestions {
		out = out[:maxContextQuestions]
	}
	return out
}

func gapQuestion(gap string, ins *Insight) string {
	lower := strings.ToLower(gap)
	switch {
	case strings.Contains(lower, "security"):
		if ins.Expertise == ExpertiseExpert {
			return "What specific security measures and compliance requirements should be implemented?"
		}
		return "Are there any security considerations we should address?"
	case strings.Contains(lower, "performance"):
		if ins.DetailLevel == DetailHigh {
			return "What are the expected performance requirements and scalability needs?"
		}
		return "Are there any performance considerations we should keep in mind?"
	case strings.Contains(lower, "integration"):
		if ins.Preferences["integration_needs"] == "yes" {
			return "Which external systems or APIs need to be integrated?"
		}
		return "Will this feature need to integrate with any other systems?"
	case strings.Contains(lower, "user management"), strings.Contains(lower, "user_management"):
		return "Who are the primary users and what roles or permissions are needed?"
	case strings.Contains(lower, "data management"), strings.Contains(lower, "data_management"):
		return "What data will be stored and how should it be managed?"
	}
	return ""
}

func preferenceQuestions(ins *Insight) []string {
	var out []string
	switch ins.Preferences["security_level"] {
	case "minimal":
		out = append(out, "Are you comfortable with basic authentication, or do you need additional security measures?")
	case "high":
		out = append(out, "What specific security requirements and compliance standards need to be met?")
	}
	switch ins.Preferences["ui_complexity"] {
	case "simple":
		out = append(out, "Should the interface be kept simple and minimal, or do you need advanced features?")
	case "advanced":
		out = append(out, "What advanced UI features and customizations are required?")
	}
	return out
}

func styleQuestions(ins *Insight) []string {
	switch ins.Style {
	case StyleTechnical:
		return []string{"What technical specifications and implementation details should be considered?"}
	case StyleBusiness:
		return []string{"What are the business goals and success metrics for this feature?"}
	case StyleDetailed:
		return []string{"Are there any specific requirements or edge cases we should address?"}
	}
	return nil
}
