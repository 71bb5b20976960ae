package repository

import (
	"campus_exam_backend/internal/model"

	"gorm.io/gorm"
)

type QuestionRepository struct {
	DB *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) *QuestionRepository {
	return &QuestionRepository{DB: db}
}

func (r *QuestionRepository) Create(question *model.BankQuestion) error {
	return r.DB.Create(question).Error
}

func (r *QuestionRepository) CreateBatch(questions []model.BankQuestion) error {
	if len(questions) == 0 {
		return nil
	}
	return r.DB.Create(&questions).Error
}

func (r *QuestionRepository) Update(question *model.BankQuestion) error {
	return r.DB.Save(question).Error
}

func (r *QuestionRepository) FindByID(id uint) (*model.BankQuestion, error) {
	var q model.BankQuestion
	if err := r.DB.First(&q, id).Error; err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *QuestionRepository) DeleteByID(id uint) error {
	return r.DB.Delete(&model.BankQuestion{}, id).Error
}

// ListActiveByExam returns the questions eligible for sampling.
func (r *QuestionRepository) ListActiveByExam(examID uint) ([]model.BankQuestion, error) {
	var qs []model.BankQuestion
	err := r.DB.Where("exam_id = ? AND is_active = ?", examID, true).
		Order("display_order asc").Find(&qs).Error
	return qs, err
}

func (r *QuestionRepository) ListByIDs(ids []uint) ([]model.BankQuestion, error) {
	var qs []model.BankQuestion
	if len(ids) == 0 {
		return qs, nil
	}
	err := r.DB.Where("id IN ?", ids).Find(&qs).Error
	return qs, err
}
