package repository

import (
	"campus_exam_backend/internal/model"

	"gorm.io/gorm"
)

type AnswerRepository struct {
	DB *gorm.DB
}

func NewAnswerRepository(db *gorm.DB) *AnswerRepository {
	return &AnswerRepository{DB: db}
}

// Upsert writes the answer for (attempt, question), replacing any prior row
// in place. The unique index on the pair is the backstop for concurrent
// writers racing through the read-then-save path.
func (r *AnswerRepository) Upsert(answer *model.AttemptAnswer) error {
	var existing model.AttemptAnswer
	err := r.DB.Where("attempt_id = ? AND question_id = ?", answer.AttemptID, answer.QuestionID).
		First(&existing).Error
	if err != nil && err != gorm.ErrRecordNotFound {
		return err
	}
	if existing.ID == "" {
		return r.DB.Create(answer).Error
	}
	answer.ID = existing.ID
	answer.CreatedAt = existing.CreatedAt
	if answer.AttachmentURL == "" {
		answer.AttachmentURL = existing.AttachmentURL
	}
	return r.DB.Save(answer).Error
}

func (r *AnswerRepository) Save(answer *model.AttemptAnswer) error {
	return r.DB.Save(answer).Error
}

func (r *AnswerRepository) FindByAttemptAndQuestion(attemptID string, questionID uint) (*model.AttemptAnswer, error) {
	var a model.AttemptAnswer
	if err := r.DB.Where("attempt_id = ? AND question_id = ?", attemptID, questionID).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AnswerRepository) ListByAttempt(attemptID string) ([]model.AttemptAnswer, error) {
	var answers []model.AttemptAnswer
	err := r.DB.Where("attempt_id = ?", attemptID).Find(&answers).Error
	return answers, err
}
