package model

import "encoding/json"

// MockExam is the payload returned by POST /exam/mock/start. It is read-only
// for the lifetime of one session.
// swagger:model MockExam
type MockExam struct {
	MockID           string    `json:"mock_id"`
	ExamType         string    `json:"exam_type"`
	TimeLimitMinutes int       `json:"time_limit_minutes"`
	Sections         []Section `json:"sections"`
}

// QuestionCount is the number of questions across every section and passage group.
func (m *MockExam) QuestionCount() int {
	if m == nil {
		return 0
	}
	n := 0
	for i := range m.Sections {
		n += len(m.Sections[i].Questions)
		for j := range m.Sections[i].PassageGroups {
			n += len(m.Sections[i].PassageGroups[j].Questions)
		}
	}
	return n
}

// FindQuestion looks a question up by id in sections and passage groups.
func (m *MockExam) FindQuestion(id uint) (*Question, bool) {
	if m == nil {
		return nil, false
	}
	for i := range m.Sections {
		s := &m.Sections[i]
		for j := range s.Questions {
			if s.Questions[j].ID == id {
				return &s.Questions[j], true
			}
		}
		for g := range s.PassageGroups {
			qs := s.PassageGroups[g].Questions
			for j := range qs {
				if qs[j].ID == id {
					return &qs[j], true
				}
			}
		}
	}
	return nil, false
}

// swagger:model Section
type Section struct {
	SectionType      string         `json:"section_type"`
	Part             int            `json:"part,omitempty"`
	PartTitle        string         `json:"part_title,omitempty"`
	Title            string         `json:"title"`
	Instruction      string         `json:"instruction"`
	ScorePerQuestion *float64       `json:"score_per_question,omitempty"`
	TotalScore       float64        `json:"total_score"`
	Questions        []Question     `json:"questions,omitempty"`
	PassageGroups    []PassageGroup `json:"passage_groups,omitempty"`
}

// PartNumber returns the section's part, defaulting to 1 when the backend omits it.
func (s *Section) PartNumber() int {
	if s.Part <= 0 {
		return 1
	}
	return s.Part
}

// swagger:model PassageGroup
type PassageGroup struct {
	GroupID   uint       `json:"group_id,omitempty"`
	Passage   string     `json:"passage,omitempty"`
	Questions []Question `json:"questions"`
}

// swagger:model Question
type Question struct {
	ID         uint     `json:"id"`
	Content    string   `json:"content"`
	Options    []string `json:"options"`
	Passage    string   `json:"passage,omitempty"`
	Difficulty string   `json:"difficulty,omitempty"`
	GroupID    *uint    `json:"group_id,omitempty"`
	GroupIndex *int     `json:"group_index,omitempty"`
}

type StartMockRequest struct {
	ExamType string `json:"exam_type,omitempty"`
}

type SubmitAnswer struct {
	QuestionID uint   `json:"question_id"`
	Answer     string `json:"answer"`
	TimeSpent  int    `json:"time_spent"`
}

type SubmitRequest struct {
	MockID  string         `json:"mock_id"`
	Answers []SubmitAnswer `json:"answers"`
}

// MockResult is the graded submission. Only the fields the dashboard renders
// are typed; the full backend object is kept in Raw.
// swagger:model MockResult
type MockResult struct {
	MockID        string          `json:"mock_id"`
	TotalScore    float64         `json:"total_score"`
	MaxScore      float64         `json:"max_score"`
	CEFRLevel     string          `json:"cefr_level,omitempty"`
	SectionScores []SectionScore  `json:"section_scores,omitempty"`
	AIComment     string          `json:"ai_comment,omitempty"`
	Raw           json.RawMessage `json:"-"`
}

// UnmarshalJSON keeps the untouched payload next to the typed fields.
func (r *MockResult) UnmarshalJSON(data []byte) error {
	type alias MockResult
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*r = MockResult(a)
	r.Raw = append(json.RawMessage(nil), data...)
	return nil
}

type SectionScore struct {
	SectionType string  `json:"section_type"`
	Score       float64 `json:"score"`
	MaxScore    float64 `json:"max_score"`
}

// swagger:model MockHistoryItem
type MockHistoryItem struct {
	ID     string  `json:"id"`
	Date   string  `json:"date"`
	Score  float64 `json:"score"`
	Status string  `json:"status"`
}
