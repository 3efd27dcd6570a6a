package repository

import (
	"english_edu_dashboard/internal/model"

	"gorm.io/gorm"
)

type AttemptRepository struct {
	DB *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) *AttemptRepository {
	return &AttemptRepository{DB: db}
}

func (r *AttemptRepository) Create(record *model.ExamAttemptRecord) error {
	return r.DB.Create(record).Error
}

// ListByUser returns the newest attempts first. limit <= 0 means no limit.
func (r *AttemptRepository) ListByUser(userID uint, limit int) ([]*model.ExamAttemptRecord, error) {
	var records []*model.ExamAttemptRecord
	q := r.DB.Where("user_id = ?", userID).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&records).Error
	return records, err
}

func (r *AttemptRepository) FindByMockID(userID uint, mockID string) (*model.ExamAttemptRecord, error) {
	var record model.ExamAttemptRecord
	err := r.DB.Where("user_id = ? AND mock_id = ?", userID, mockID).First(&record).Error
	return &record, err
}

func (r *AttemptRepository) UpdateArchiveURL(id uint, url string) error {
	return r.DB.Model(&model.ExamAttemptRecord{}).
		Where("id = ?", id).
		Update("archive_url", url).
		Error
}
