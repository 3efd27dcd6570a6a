package model

import "gorm.io/datatypes"

// ExamAttemptRecord 本地留存的模考提交记录，便于结果页回放
type ExamAttemptRecord struct {
	BaseModel
	UserID        uint           `gorm:"index" json:"userId"`
	MockID        string         `gorm:"index;type:varchar(64)" json:"mockId"`
	ExamType      string         `gorm:"type:varchar(64)" json:"examType"`
	TotalScore    float64        `json:"totalScore"`
	MaxScore      float64        `json:"maxScore"`
	AnsweredCount int            `json:"answeredCount"`
	QuestionCount int            `json:"questionCount"`
	Trigger       string         `gorm:"type:varchar(16)" json:"trigger"`
	Answers       datatypes.JSON `json:"answers"`
	Result        datatypes.JSON `json:"result"`
	ArchiveURL    string         `gorm:"type:varchar(512)" json:"archiveUrl,omitempty"`
}

func (ExamAttemptRecord) TableName() string {
	return "exam_attempt_records"
}
