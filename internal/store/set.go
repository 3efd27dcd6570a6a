package store

import (
	"time"

	"english_edu_dashboard/internal/apiclient"
)

// Set is every store of one learner, sharing one authenticated client.
type Set struct {
	Exam       *ExamStore
	Grammar    *GrammarStore
	Textbook   *TextbookStore
	Story      *StoryStore
	Arena      *ArenaStore
	Quests     *QuestStore
	Clinic     *ClinicStore
	Missions   *MissionStore
	Progress   *ProgressStore
	XP         *XPStore
	Onboarding *OnboardingStore
}

func NewSet(client *apiclient.Client, clinicPoll time.Duration) *Set {
	return &Set{
		Exam:       NewExamStore(client),
		Grammar:    NewGrammarStore(client),
		Textbook:   NewTextbookStore(client),
		Story:      NewStoryStore(client),
		Arena:      NewArenaStore(client),
		Quests:     NewQuestStore(client),
		Clinic:     NewClinicStore(client, clinicPoll),
		Missions:   NewMissionStore(client),
		Progress:   NewProgressStore(client),
		XP:         NewXPStore(client),
		Onboarding: NewOnboardingStore(client),
	}
}

// Invalidate drops in-flight responses of every store, e.g. on logout.
func (s *Set) Invalidate() {
	for _, b := range []*base{
		&s.Exam.base, &s.Grammar.base, &s.Textbook.base, &s.Story.base, &s.Arena.base,
		&s.Quests.base, &s.Clinic.base, &s.Missions.base, &s.Progress.base, &s.XP.base,
		&s.Onboarding.base,
	} {
		b.Invalidate()
	}
}
