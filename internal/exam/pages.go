package exam

import "english_edu_dashboard/internal/model"

// Page is one renderable unit of the exam: a whole section, or one passage
// group of a grouped section.
type Page struct {
	Kind              SectionKind      `json:"kind"`
	SectionType       string           `json:"section_type"`
	Title             string           `json:"title"`
	Instruction       string           `json:"instruction"`
	ScorePerQuestion  *float64         `json:"score_per_question,omitempty"`
	SectionScore      float64          `json:"section_score"`
	Part              int              `json:"part"`
	PartTitle         string           `json:"part_title,omitempty"`
	SectionIndex      int              `json:"section_index"`
	GroupIndex        int              `json:"group_index"`
	Passage           string           `json:"passage,omitempty"`
	Questions         []model.Question `json:"questions"`
	GlobalStart       int              `json:"global_start"`
	IsFirstPageOfPart bool             `json:"is_first_page_of_part"`
}

// Contains reports whether the question is rendered on this page.
func (p *Page) Contains(questionID uint) bool {
	for i := range p.Questions {
		if p.Questions[i].ID == questionID {
			return true
		}
	}
	return false
}

// DerivePages flattens sections into pages, preserving section order and,
// within a section, passage-group order. It has no state of its own.
func DerivePages(sections []model.Section) []Page {
	var pages []Page
	seenParts := make(map[int]bool)
	globalStart := 0

	add := func(p Page) {
		p.GlobalStart = globalStart
		if !seenParts[p.Part] {
			seenParts[p.Part] = true
			p.IsFirstPageOfPart = true
		}
		globalStart += len(p.Questions)
		pages = append(pages, p)
	}

	for si := range sections {
		s := &sections[si]
		base := Page{
			Kind:             SectionKindOf(s.SectionType),
			SectionType:      s.SectionType,
			Title:            s.Title,
			Instruction:      s.Instruction,
			ScorePerQuestion: s.ScorePerQuestion,
			SectionScore:     s.TotalScore,
			Part:             s.PartNumber(),
			PartTitle:        s.PartTitle,
			SectionIndex:     si,
			GroupIndex:       -1,
		}

		if !hasGroups(s) {
			p := base
			p.Questions = s.Questions
			add(p)
			continue
		}

		for gi := range s.PassageGroups {
			g := &s.PassageGroups[gi]
			if len(g.Questions) == 0 {
				continue
			}
			p := base
			p.GroupIndex = gi
			p.Questions = g.Questions
			p.Passage = g.Questions[0].Passage
			if p.Passage == "" {
				p.Passage = g.Passage
			}
			add(p)
		}
	}
	return pages
}

func hasGroups(s *model.Section) bool {
	return len(s.PassageGroups) > 0
}

// PageCache memoizes DerivePages on the identity of the exam it was built from.
type PageCache struct {
	exam  *model.MockExam
	pages []Page
}

func (c *PageCache) Pages(exam *model.MockExam) []Page {
	if exam == nil {
		c.exam, c.pages = nil, nil
		return nil
	}
	if exam != c.exam {
		c.exam = exam
		c.pages = DerivePages(exam.Sections)
	}
	return c.pages
}

// PageOf returns the index of the page rendering the question, or -1.
func PageOf(pages []Page, questionID uint) int {
	for i := range pages {
		if pages[i].Contains(questionID) {
			return i
		}
	}
	return -1
}
