package repository

import (
	"campus_exam_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type AttemptRepository struct {
	DB *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) *AttemptRepository {
	return &AttemptRepository{DB: db}
}

func (r *AttemptRepository) Create(attempt *model.ExamAttempt) error {
	return r.DB.Create(attempt).Error
}

func (r *AttemptRepository) Update(attempt *model.ExamAttempt) error {
	return r.DB.Save(attempt).Error
}

func (r *AttemptRepository) FindByID(id string) (*model.ExamAttempt, error) {
	var a model.ExamAttempt
	if err := r.DB.Where("id = ?", id).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// FindOpen returns the open attempt for a (student, session) pair, if any.
func (r *AttemptRepository) FindOpen(studentID, sessionID uint) (*model.ExamAttempt, error) {
	var a model.ExamAttempt
	err := r.DB.Where("student_id = ? AND exam_session_id = ? AND is_submitted = ?",
		studentID, sessionID, false).First(&a).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

func (r *AttemptRepository) HasSubmitted(studentID, sessionID uint) (bool, error) {
	var count int64
	err := r.DB.Model(&model.ExamAttempt{}).
		Where("student_id = ? AND exam_session_id = ? AND is_submitted = ?", studentID, sessionID, true).
		Count(&count).Error
	return count > 0, err
}

func (r *AttemptRepository) ListByStudent(studentID uint) ([]model.ExamAttempt, error) {
	var attempts []model.ExamAttempt
	err := r.DB.Where("student_id = ?", studentID).
		Order("start_time desc").Find(&attempts).Error
	return attempts, err
}

// ListPendingManual returns submitted but not fully graded attempts of an exam.
func (r *AttemptRepository) ListPendingManual(examID uint) ([]model.ExamAttempt, error) {
	var attempts []model.ExamAttempt
	err := r.DB.Where("exam_id = ? AND is_submitted = ? AND is_graded = ?",
		examID, true, false).Find(&attempts).Error
	return attempts, err
}

// ListExpiredOpen returns open attempts whose session window ended before
// the cutoff; used by the reaper.
func (r *AttemptRepository) ListExpiredOpen(cutoff time.Time) ([]model.ExamAttempt, error) {
	var attempts []model.ExamAttempt
	err := r.DB.
		Joins("JOIN exam_sessions ON exam_sessions.id = exam_attempts.exam_session_id").
		Where("exam_attempts.is_submitted = ? AND exam_sessions.end_time < ?", false, cutoff).
		Find(&attempts).Error
	return attempts, err
}
