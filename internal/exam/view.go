package exam

import "english_edu_dashboard/internal/model"

// View is a copy of everything a screen needs to render the session.
type View struct {
	Phase          Phase             `json:"phase"`
	MockID         string            `json:"mock_id,omitempty"`
	ExamType       string            `json:"exam_type,omitempty"`
	Remaining      int               `json:"remaining_seconds"`
	CurrentPage    int               `json:"current_page"`
	TotalPages     int               `json:"total_pages"`
	Page           *Page             `json:"page,omitempty"`
	Answered       int               `json:"answered"`
	Total          int               `json:"total"`
	Answers        map[uint]string   `json:"answers,omitempty"`
	AnswerCard     []CardEntry       `json:"answer_card,omitempty"`
	AnswerCardOpen bool              `json:"answer_card_open"`
	ScrollTarget   string            `json:"scroll_target,omitempty"`
	Result         *model.MockResult `json:"result,omitempty"`
	LastError      string            `json:"last_error,omitempty"`
}

// CardEntry is one cell of the answer-card overview.
type CardEntry struct {
	Number     int  `json:"number"`
	QuestionID uint `json:"question_id"`
	Page       int  `json:"page"`
	Answered   bool `json:"answered"`
}

// Snapshot copies the visible state under the session lock.
func (s *Session) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		Phase:          s.phase,
		Remaining:      s.countdown.Remaining(),
		CurrentPage:    s.current,
		Answered:       s.answers.Count(),
		AnswerCardOpen: s.answerCardOpen,
		ScrollTarget:   s.scrollTarget,
		Result:         s.result,
		LastError:      s.lastError,
	}
	if s.exam == nil {
		return v
	}

	pages := s.pages.Pages(s.exam)
	v.MockID = s.exam.MockID
	v.ExamType = s.exam.ExamType
	v.TotalPages = len(pages)
	v.Answers = s.answers.Snapshot()
	if s.current < len(pages) {
		p := pages[s.current]
		v.Page = &p
	}

	for i := range pages {
		for j, q := range pages[i].Questions {
			_, answered := v.Answers[q.ID]
			v.AnswerCard = append(v.AnswerCard, CardEntry{
				Number:     pages[i].GlobalStart + j + 1,
				QuestionID: q.ID,
				Page:       i,
				Answered:   answered,
			})
		}
	}
	v.Total = len(v.AnswerCard)
	return v
}
