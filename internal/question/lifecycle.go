package question

// Reclassification is one triple produced by the follow-up-analysis call:
// an existing question together with its newly judged status and, when
// answered, the extracted answer text.
type Reclassification struct {
	Text       string
	Status     Status
	UserAnswer string
}

// Merge applies a set of reclassifications to the prior question list.
// The classification output is authoritative for every question it
// mentions, with one exception: a question that already left the pending
// state stays resolved, so a stray "pending" reclassification never
// reopens it. Questions not mentioned keep their prior state. The input
// slice is not mutated.
func Merge(prior []Question, updates []Reclassification) []Question {
	byText := make(map[string]Reclassification, len(updates))
	for _, u := range updates {
		byText[NormalizeText(u.Text)] = u
	}

	out := make([]Question, len(prior))
	copy(out, prior)
	for i, q := range out {
		u, ok := byText[NormalizeText(q.Text)]
		if !ok {
			continue
		}
		if q.Status.Resolved() && u.Status == StatusPending {
			continue
		}
		out[i].Status = u.Status
		if u.Status == StatusAnswered {
			out[i].UserAnswer = u.UserAnswer
		} else {
			out[i].UserAnswer = ""
		}
	}
	return out
}
