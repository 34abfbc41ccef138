package domain

import "sort"

// FilterAnswered keeps answered questions only. The public board must go
// through this even if the server already filtered.
func FilterAnswered(questions []Question) []Question {
	answered := make([]Question, 0, len(questions))
	for _, q := range questions {
		if q.IsAnswered() && q.Answer != nil {
			answered = append(answered, q)
		}
	}
	return answered
}

// Partition splits questions by status. Pending keeps the input order,
// answered is sorted most recent first and capped to answeredLimit
// (answeredLimit <= 0 means no cap).
func Partition(questions []Question, answeredLimit int) (pending, answered []Question) {
	pending = []Question{}
	answered = []Question{}
	for _, q := range questions {
		if q.IsAnswered() {
			answered = append(answered, q)
		} else {
			pending = append(pending, q)
		}
	}

	SortByRecent(answered)
	if answeredLimit > 0 && len(answered) > answeredLimit {
		answered = answered[:answeredLimit]
	}
	return pending, answered
}

// SortByRecent orders questions by last activity, newest first.
func SortByRecent(questions []Question) {
	sort.SliceStable(questions, func(i, j int) bool {
		return questions[i].LastActivity().After(questions[j].LastActivity())
	})
}
