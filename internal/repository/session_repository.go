package repository

import (
	"campus_exam_backend/internal/model"

	"gorm.io/gorm"
)

type SessionRepository struct {
	DB *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{DB: db}
}

func (r *SessionRepository) Create(session *model.ExamSession) error {
	return r.DB.Create(session).Error
}

func (r *SessionRepository) Update(session *model.ExamSession) error {
	return r.DB.Save(session).Error
}

func (r *SessionRepository) FindByID(id uint) (*model.ExamSession, error) {
	var session model.ExamSession
	if err := r.DB.First(&session, id).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *SessionRepository) ListByExam(examID uint) ([]model.ExamSession, error) {
	var sessions []model.ExamSession
	err := r.DB.Where("exam_id = ?", examID).Order("start_time asc").Find(&sessions).Error
	return sessions, err
}

func (r *SessionRepository) AssignStudent(assignment *model.SessionAssignment) error {
	return r.DB.Create(assignment).Error
}

func (r *SessionRepository) HasAssignment(sessionID, studentID uint) (bool, error) {
	var count int64
	err := r.DB.Model(&model.SessionAssignment{}).
		Where("exam_session_id = ? AND student_id = ?", sessionID, studentID).
		Count(&count).Error
	return count > 0, err
}

func (r *SessionRepository) CountAssignments(sessionID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.SessionAssignment{}).
		Where("exam_session_id = ?", sessionID).
		Count(&count).Error
	return count, err
}
