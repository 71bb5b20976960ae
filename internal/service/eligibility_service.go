package service

import (
	"campus_exam_backend/internal/model"
	"campus_exam_backend/internal/repository"
	"campus_exam_backend/internal/util"
	"time"

	"gorm.io/gorm"
)

// EligibilityService runs the read-only checks gating attempt creation. It
// has no side effects; the attempt state machine acts on its verdict.
type EligibilityService struct {
	UserRepo    *repository.UserRepository
	ExamRepo    *repository.ExamRepository
	SessionRepo *repository.SessionRepository
	AttemptRepo *repository.AttemptRepository
}

func NewEligibilityService(userRepo *repository.UserRepository, examRepo *repository.ExamRepository, sessionRepo *repository.SessionRepository, attemptRepo *repository.AttemptRepository) *EligibilityService {
	return &EligibilityService{
		UserRepo:    userRepo,
		ExamRepo:    examRepo,
		SessionRepo: sessionRepo,
		AttemptRepo: attemptRepo,
	}
}

type EligibilityResult struct {
	Exam    *model.Exam
	Session *model.ExamSession
}

// Validate checks, in order: assignment, account active, session/exam
// status, time window, no open attempt, no prior submitted attempt (unless
// the exam allows retakes).
func (s *EligibilityService) Validate(studentID, sessionID uint, now time.Time) (*EligibilityResult, error) {
	session, err := s.SessionRepo.FindByID(sessionID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, util.NotFoundError("exam session not found")
		}
		return nil, util.InternalError(err)
	}

	assigned, err := s.SessionRepo.HasAssignment(sessionID, studentID)
	if err != nil {
		return nil, util.InternalError(err)
	}
	if !assigned {
		return nil, util.AuthorizationError("student is not assigned to this exam session")
	}

	student, err := s.UserRepo.FindByID(studentID)
	if err != nil {
		return nil, util.InternalError(err)
	}
	if student.Disabled {
		return nil, util.AuthorizationError("student account is not active")
	}

	exam, err := s.ExamRepo.FindByID(session.ExamID)
	if err != nil {
		return nil, util.InternalError(err)
	}
	if !session.IsActive || !exam.AcceptsAttempts() {
		return nil, util.AuthorizationError("exam session is not open for attempts")
	}

	if !session.WindowContains(now) {
		return nil, util.AuthorizationError("current time is outside the session window")
	}

	open, err := s.AttemptRepo.FindOpen(studentID, sessionID)
	if err != nil {
		return nil, util.InternalError(err)
	}
	if open != nil {
		return nil, util.ConflictError("an open attempt already exists for this session")
	}

	if !exam.AllowRetake {
		submitted, err := s.AttemptRepo.HasSubmitted(studentID, sessionID)
		if err != nil {
			return nil, util.InternalError(err)
		}
		if submitted {
			return nil, util.ConflictError("a submitted attempt already exists for this session")
		}
	}

	return &EligibilityResult{Exam: exam, Session: session}, nil
}
