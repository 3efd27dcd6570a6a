package exam

import (
	"sort"

	"english_edu_dashboard/internal/model"
)

// PlaceholderTimeSpent is sent for every answer; per-question timing is not measured.
const PlaceholderTimeSpent = 0

// BuildSubmitRequest turns the full answer map into the submit payload,
// ordered by question id.
func BuildSubmitRequest(mockID string, answers map[uint]string) model.SubmitRequest {
	ids := make([]uint, 0, len(answers))
	for id := range answers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]model.SubmitAnswer, 0, len(ids))
	for _, id := range ids {
		out = append(out, model.SubmitAnswer{
			QuestionID: id,
			Answer:     answers[id],
			TimeSpent:  PlaceholderTimeSpent,
		})
	}
	return model.SubmitRequest{MockID: mockID, Answers: out}
}
