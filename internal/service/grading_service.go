package service

import (
	"campus_exam_backend/internal/model"
	"campus_exam_backend/internal/repository"
	"campus_exam_backend/internal/util"
	"time"

	"gorm.io/gorm"
)

// GradingService covers the staff side of scoring: listing attempts that
// still need manual marks and entering those marks. Objective marks are
// never editable here; they are fixed at answer-write time.
type GradingService struct {
	DB           *gorm.DB
	Policy       *AccessPolicy
	AttemptRepo  *repository.AttemptRepository
	AnswerRepo   *repository.AnswerRepository
	QuestionRepo *repository.QuestionRepository
	ExamRepo     *repository.ExamRepository
}

func NewGradingService(db *gorm.DB, policy *AccessPolicy, attemptRepo *repository.AttemptRepository,
	answerRepo *repository.AnswerRepository, questionRepo *repository.QuestionRepository,
	examRepo *repository.ExamRepository) *GradingService {
	return &GradingService{
		DB:           db,
		Policy:       policy,
		AttemptRepo:  attemptRepo,
		AnswerRepo:   answerRepo,
		QuestionRepo: questionRepo,
		ExamRepo:     examRepo,
	}
}

type ManualMark struct {
	QuestionID uint    `json:"questionId" binding:"required"`
	Marks      float64 `json:"marks"`
	Comment    string  `json:"comment"`
}

func (s *GradingService) ListPendingManual(examID uint, graderID uint, role model.UserRole) ([]model.ExamAttempt, error) {
	exam, err := s.ExamRepo.FindByID(examID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, util.NotFoundError("exam not found")
		}
		return nil, util.InternalError(err)
	}
	privileged, err := s.Policy.IsPrivileged(graderID, role, exam.CourseID)
	if err != nil {
		return nil, util.InternalError(err)
	}
	if !privileged {
		return nil, util.AuthorizationError("not allowed to grade this exam")
	}

	attempts, err := s.AttemptRepo.ListPendingManual(examID)
	if err != nil {
		return nil, util.InternalError(err)
	}
	return attempts, nil
}

// GradeAttempt records manual marks for subjective answers of a submitted
// attempt, then recomputes the aggregate score and graded flag.
func (s *GradingService) GradeAttempt(graderID uint, role model.UserRole, attemptID string, marks []ManualMark) (*SubmissionResult, error) {
	attempt, err := s.AttemptRepo.FindByID(attemptID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, util.NotFoundError("attempt not found")
		}
		return nil, util.InternalError(err)
	}
	if !attempt.IsSubmitted {
		return nil, util.ValidationError("attempt is not submitted yet")
	}

	exam, err := s.ExamRepo.FindByID(attempt.ExamID)
	if err != nil {
		return nil, util.InternalError(err)
	}
	privileged, err := s.Policy.IsPrivileged(graderID, role, exam.CourseID)
	if err != nil {
		return nil, util.InternalError(err)
	}
	if !privileged {
		return nil, util.AuthorizationError("not allowed to grade this exam")
	}

	ids, err := attempt.PresentedQuestionIDs()
	if err != nil {
		return nil, util.InternalError(err)
	}
	questions, err := s.QuestionRepo.ListByIDs(ids)
	if err != nil {
		return nil, util.InternalError(err)
	}
	questionByID := make(map[uint]*model.BankQuestion, len(questions))
	for i := range questions {
		questionByID[questions[i].ID] = &questions[i]
	}

	now := time.Now()
	var agg ScoreAggregate
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		for _, m := range marks {
			q := questionByID[m.QuestionID]
			if q == nil {
				return util.ValidationError("question %d is not part of this attempt", m.QuestionID)
			}
			if q.QuestionType.IsObjective() {
				return util.ValidationError("question %d is auto-graded and cannot be marked manually", m.QuestionID)
			}
			if m.Marks < 0 || m.Marks > q.Marks {
				return util.ValidationError("marks for question %d must be between 0 and %v", m.QuestionID, q.Marks)
			}

			var answer model.AttemptAnswer
			if err := tx.Where("attempt_id = ? AND question_id = ?", attempt.ID, m.QuestionID).
				First(&answer).Error; err != nil {
				if err == gorm.ErrRecordNotFound {
					return util.NotFoundError("no answer recorded for question %d", m.QuestionID)
				}
				return err
			}

			awarded := m.Marks
			correct := awarded >= q.Marks
			answer.MarksAwarded = &awarded
			answer.IsCorrect = &correct
			answer.GraderID = &graderID
			answer.GradedAt = &now
			if err := tx.Save(&answer).Error; err != nil {
				return err
			}
		}

		var allAnswers []model.AttemptAnswer
		if err := tx.Where("attempt_id = ?", attempt.ID).Find(&allAnswers).Error; err != nil {
			return err
		}
		answerByQuestion := make(map[uint]*model.AttemptAnswer, len(allAnswers))
		for i := range allAnswers {
			answerByQuestion[allAnswers[i].QuestionID] = &allAnswers[i]
		}

		agg = AggregateScore(questions, answerByQuestion)
		attempt.ScoreAchieved = agg.Score
		attempt.IsGraded = agg.IsGraded
		return tx.Save(attempt).Error
	})
	if err != nil {
		return nil, util.AsAppError(err)
	}

	return &SubmissionResult{
		AttemptID:             attempt.ID,
		ScoreAchieved:         agg.Score,
		IsGraded:              agg.IsGraded,
		RequiresManualGrading: agg.RequiresManualGrading,
	}, nil
}
