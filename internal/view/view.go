// Package view renders the server-side exam screens.
package view

import (
	"embed"
	"fmt"
	"html/template"

	"english_edu_dashboard/internal/exam"

	"github.com/gin-contrib/multitemplate"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	ExamPage    = "exam_page"
	ExamResult  = "exam_result"
	ExamIdle    = "exam_idle"
	ExamHistory = "exam_history"
)

var pages = map[string]string{
	ExamPage:    "templates/exam_page.html",
	ExamResult:  "templates/exam_result.html",
	ExamIdle:    "templates/exam_idle.html",
	ExamHistory: "templates/exam_history.html",
}

// Funcs are the helpers the templates call.
var Funcs = template.FuncMap{
	"add":    func(a, b int) int { return a + b },
	"sub":    func(a, b int) int { return a - b },
	"number": func(start, i int) int { return start + i + 1 },
	"anchor": exam.QuestionAnchor,
	"letter": exam.ExtractLetter,
	"words":  exam.WordCount,
	"clock":  Clock,
	"answer": func(answers map[uint]string, id uint) string { return answers[id] },
}

// Clock formats remaining seconds as mm:ss, or hh:mm:ss from one hour up.
func Clock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h, m, s := seconds/3600, seconds%3600/60, seconds%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// NewRenderer parses every screen against the shared layout.
func NewRenderer() (multitemplate.Render, error) {
	r := multitemplate.New()
	for name, file := range pages {
		tmpl, err := template.New(name).Funcs(Funcs).ParseFS(templateFS, "templates/layout.html", file)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		r.Add(name, tmpl.Lookup("layout"))
	}
	return r, nil
}

// ExamData is the model of the exam screens.
type ExamData struct {
	View exam.View
}

// HistoryData is the model of the history screen.
type HistoryData struct {
	History interface{}
	Error   string
}

// ScreenFor picks the template for the session phase.
func ScreenFor(phase exam.Phase) string {
	switch phase {
	case exam.PhaseInExam:
		return ExamPage
	case exam.PhaseResult:
		return ExamResult
	default:
		return ExamIdle
	}
}
