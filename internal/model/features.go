package model

// Grammar practice

type GrammarTopic struct {
	ID          uint   `json:"id"`
	Title       string `json:"title"`
	Level       string `json:"level"`
	Description string `json:"description,omitempty"`
	Mastery     int    `json:"mastery"`
}

type GrammarExercise struct {
	ID      uint     `json:"id"`
	TopicID uint     `json:"topic_id"`
	Prompt  string   `json:"prompt"`
	Options []string `json:"options,omitempty"`
}

type GrammarCheckRequest struct {
	Answer string `json:"answer"`
}

type GrammarCheckResult struct {
	Correct     bool   `json:"correct"`
	Expected    string `json:"expected,omitempty"`
	Explanation string `json:"explanation,omitempty"`
	XPGained    int    `json:"xp_gained"`
}

// Textbook vocabulary units

type TextbookUnit struct {
	ID        uint   `json:"id"`
	Book      string `json:"book"`
	Title     string `json:"title"`
	WordCount int    `json:"word_count"`
}

type VocabularyWord struct {
	Word     string `json:"word"`
	Phonetic string `json:"phonetic,omitempty"`
	Meaning  string `json:"meaning"`
	Example  string `json:"example,omitempty"`
	Mastered bool   `json:"mastered"`
}

type TextbookUnitDetail struct {
	TextbookUnit
	Words []VocabularyWord `json:"words"`
}

// Story-based reading

type StorySummary struct {
	ID       uint   `json:"id"`
	Title    string `json:"title"`
	Level    string `json:"level"`
	Chapters int    `json:"chapters"`
	Progress int    `json:"progress"`
}

type StoryChapter struct {
	Index int    `json:"index"`
	Title string `json:"title"`
	Text  string `json:"text"`
}

type StoryDetail struct {
	StorySummary
	Content []StoryChapter `json:"content"`
}

type StoryProgressRequest struct {
	Chapter int `json:"chapter"`
}

// PvP arena

type ArenaMatchRequest struct {
	Mode string `json:"mode,omitempty"`
}

type ArenaBattle struct {
	ID            string     `json:"id"`
	Status        string     `json:"status"`
	Opponent      string     `json:"opponent,omitempty"`
	MyScore       int        `json:"my_score"`
	OpponentScore int        `json:"opponent_score"`
	Questions     []Question `json:"questions,omitempty"`
	Round         int        `json:"round"`
}

type ArenaAnswerRequest struct {
	QuestionID uint   `json:"question_id"`
	Answer     string `json:"answer"`
}

// Quests and daily missions

type Quest struct {
	ID        uint   `json:"id"`
	Title     string `json:"title"`
	Progress  int    `json:"progress"`
	Target    int    `json:"target"`
	RewardXP  int    `json:"reward_xp"`
	Claimable bool   `json:"claimable"`
	Claimed   bool   `json:"claimed"`
}

type Mission struct {
	ID        uint   `json:"id"`
	Title     string `json:"title"`
	Kind      string `json:"kind"`
	RewardXP  int    `json:"reward_xp"`
	Completed bool   `json:"completed"`
}

type RewardResult struct {
	XPGained int `json:"xp_gained"`
	TotalXP  int `json:"total_xp"`
}

// Writing clinic (AI feedback on essays)

type EssaySubmission struct {
	Prompt string `json:"prompt,omitempty"`
	Text   string `json:"text"`
}

type EssayFeedback struct {
	ID          string            `json:"id"`
	Status      string            `json:"status"`
	Score       float64           `json:"score,omitempty"`
	CEFRLevel   string            `json:"cefr_level,omitempty"`
	Summary     string            `json:"summary,omitempty"`
	Corrections []EssayCorrection `json:"corrections,omitempty"`
}

type EssayCorrection struct {
	Original   string `json:"original"`
	Suggestion string `json:"suggestion"`
	Reason     string `json:"reason,omitempty"`
}

const EssayStatusDone = "done"
const EssayStatusFailed = "failed"

// Progress and XP

type ProgressOverview struct {
	CEFRLevel      string         `json:"cefr_level"`
	StreakDays     int            `json:"streak_days"`
	StudyMinutes   int            `json:"study_minutes"`
	SkillScores    map[string]int `json:"skill_scores"`
	RecentActivity []string       `json:"recent_activity,omitempty"`
}

type XPSummary struct {
	TotalXP     int `json:"total_xp"`
	Level       int `json:"level"`
	NextLevelXP int `json:"next_level_xp"`
	TodayXP     int `json:"today_xp"`
}

// Onboarding placement questionnaire

type OnboardingQuestion struct {
	ID      uint     `json:"id"`
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
}

type OnboardingAnswer struct {
	QuestionID uint   `json:"question_id"`
	Answer     string `json:"answer"`
}

type OnboardingSubmitRequest struct {
	Answers []OnboardingAnswer `json:"answers"`
}

type OnboardingResult struct {
	CEFRLevel   string `json:"cefr_level"`
	Recommended string `json:"recommended,omitempty"`
}
