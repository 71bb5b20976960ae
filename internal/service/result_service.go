package service

import (
	"campus_exam_backend/internal/model"
	"campus_exam_backend/internal/repository"
	"campus_exam_backend/internal/util"

	"gorm.io/gorm"
)

// ResultService assembles a visibility-filtered view of a closed attempt.
type ResultService struct {
	Policy       *AccessPolicy
	AttemptRepo  *repository.AttemptRepository
	AnswerRepo   *repository.AnswerRepository
	QuestionRepo *repository.QuestionRepository
	SessionRepo  *repository.SessionRepository
	ExamRepo     *repository.ExamRepository
	UserRepo     *repository.UserRepository
}

func NewResultService(policy *AccessPolicy, attemptRepo *repository.AttemptRepository,
	answerRepo *repository.AnswerRepository, questionRepo *repository.QuestionRepository,
	sessionRepo *repository.SessionRepository, examRepo *repository.ExamRepository,
	userRepo *repository.UserRepository) *ResultService {
	return &ResultService{
		Policy:       policy,
		AttemptRepo:  attemptRepo,
		AnswerRepo:   answerRepo,
		QuestionRepo: questionRepo,
		SessionRepo:  sessionRepo,
		ExamRepo:     examRepo,
		UserRepo:     userRepo,
	}
}

func (s *ResultService) GetAttemptResult(attemptID string, viewerID uint, role model.UserRole) (*AttemptResultView, error) {
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

	privileged, err := s.Policy.IsPrivileged(viewerID, role, exam.CourseID)
	if err != nil {
		return nil, util.InternalError(err)
	}
	if !privileged && attempt.StudentID != viewerID {
		return nil, util.AuthorizationError("not allowed to view this attempt")
	}

	session, err := s.SessionRepo.FindByID(attempt.ExamSessionID)
	if err != nil {
		return nil, util.InternalError(err)
	}
	student, err := s.UserRepo.FindByID(attempt.StudentID)
	if err != nil {
		return nil, util.InternalError(err)
	}

	ids, err := attempt.PresentedQuestionIDs()
	if err != nil {
		return nil, util.InternalError(err)
	}
	questions, err := s.QuestionRepo.ListByIDs(ids)
	if err != nil {
		return nil, util.InternalError(err)
	}
	answers, err := s.AnswerRepo.ListByAttempt(attempt.ID)
	if err != nil {
		return nil, util.InternalError(err)
	}

	includeGradingDetail := privileged || exam.Status == model.ExamStatusResultsPublished

	view, err := BuildAttemptResultView(attempt, exam, session, student, questions, answers, includeGradingDetail)
	if err != nil {
		return nil, util.InternalError(err)
	}
	return view, nil
}
