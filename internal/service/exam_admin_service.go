package service

import (
	"campus_exam_backend/internal/model"
	"campus_exam_backend/internal/repository"
	"campus_exam_backend/internal/util"
	"context"
	"encoding/json"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ExamAdminService is the staff-facing registry surface the attempt core
// depends on: exams, sessions, assignments and bank questions. It is
// deliberately minimal; wider academic administration lives elsewhere.
type ExamAdminService struct {
	CourseRepo   *repository.CourseRepository
	ExamRepo     *repository.ExamRepository
	SessionRepo  *repository.SessionRepository
	QuestionRepo *repository.QuestionRepository
	UserRepo     *repository.UserRepository
	Selector     *QuestionSelector
}

func NewExamAdminService(courseRepo *repository.CourseRepository, examRepo *repository.ExamRepository,
	sessionRepo *repository.SessionRepository, questionRepo *repository.QuestionRepository,
	userRepo *repository.UserRepository, selector *QuestionSelector) *ExamAdminService {
	return &ExamAdminService{
		CourseRepo:   courseRepo,
		ExamRepo:     examRepo,
		SessionRepo:  sessionRepo,
		QuestionRepo: questionRepo,
		UserRepo:     userRepo,
		Selector:     selector,
	}
}

type CourseCreateRequest struct {
	Code  string `json:"code" binding:"required"`
	Title string `json:"title" binding:"required"`
}

func (s *ExamAdminService) CreateCourse(ownerID uint, req CourseCreateRequest) (*model.Course, error) {
	course := &model.Course{Code: req.Code, Title: req.Title, OwnerID: ownerID}
	if err := s.CourseRepo.Create(course); err != nil {
		if err == gorm.ErrDuplicatedKey {
			return nil, util.ConflictError("course code %s already exists", req.Code)
		}
		return nil, util.InternalError(err)
	}
	return course, nil
}

func (s *ExamAdminService) AssignLecturer(courseID, staffID uint) error {
	if _, err := s.CourseRepo.FindByID(courseID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return util.NotFoundError("course not found")
		}
		return util.InternalError(err)
	}
	staff, err := s.UserRepo.FindByID(staffID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return util.NotFoundError("staff member not found")
		}
		return util.InternalError(err)
	}
	if staff.Role != model.Staff && staff.Role != model.Admin {
		return util.ValidationError("user %d is not a staff member", staffID)
	}
	if err := s.CourseRepo.AssignLecturer(courseID, staffID); err != nil {
		if err == gorm.ErrDuplicatedKey {
			return util.ConflictError("lecturer already assigned to this course")
		}
		return util.InternalError(err)
	}
	return nil
}

type ExamCreateRequest struct {
	CourseID           uint           `json:"courseId" binding:"required"`
	Title              string         `json:"title" binding:"required"`
	ExamType           model.ExamType `json:"examType"`
	DurationMinutes    int            `json:"durationMinutes"`
	TotalMarks         int            `json:"totalMarks"`
	PassMark           int            `json:"passMark"`
	QuestionsToAttempt int            `json:"questionsToAttempt"`
}

func (s *ExamAdminService) CreateExam(creatorID uint, req ExamCreateRequest) (*model.Exam, error) {
	if req.QuestionsToAttempt <= 0 {
		return nil, util.ValidationError("questionsToAttempt must be positive")
	}
	examType := req.ExamType
	if examType == "" {
		examType = model.ExamTypeRegular
	}

	exam := &model.Exam{
		CourseID:           req.CourseID,
		CreatorID:          creatorID,
		Title:              req.Title,
		ExamType:           examType,
		Status:             model.ExamStatusDraft,
		DurationMinutes:    req.DurationMinutes,
		TotalMarks:         req.TotalMarks,
		PassMark:           req.PassMark,
		QuestionsToAttempt: req.QuestionsToAttempt,
		AllowRetake:        examType == model.ExamTypeMakeup,
	}
	if err := s.ExamRepo.Create(exam); err != nil {
		return nil, util.InternalError(err)
	}
	return exam, nil
}

type ExamUpdateRequest struct {
	Title              string `json:"title"`
	DurationMinutes    int    `json:"durationMinutes"`
	TotalMarks         int    `json:"totalMarks"`
	PassMark           int    `json:"passMark"`
	QuestionsToAttempt int    `json:"questionsToAttempt"`
}

// UpdateExam edits exam parameters; only draft exams are editable so live
// attempts never see their sample size or marks shift underneath them.
func (s *ExamAdminService) UpdateExam(examID uint, req ExamUpdateRequest) (*model.Exam, error) {
	exam, err := s.ExamRepo.FindByID(examID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, util.NotFoundError("exam not found")
		}
		return nil, util.InternalError(err)
	}
	if exam.Status != model.ExamStatusDraft {
		return nil, util.ValidationError("only draft exams can be edited")
	}
	if req.QuestionsToAttempt <= 0 {
		return nil, util.ValidationError("questionsToAttempt must be positive")
	}

	exam.Title = req.Title
	exam.DurationMinutes = req.DurationMinutes
	exam.TotalMarks = req.TotalMarks
	exam.PassMark = req.PassMark
	exam.QuestionsToAttempt = req.QuestionsToAttempt
	if err := s.ExamRepo.Update(exam); err != nil {
		return nil, util.InternalError(err)
	}
	return exam, nil
}

func (s *ExamAdminService) ListExams(courseID uint, page, limit int) ([]model.Exam, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	exams, total, err := s.ExamRepo.ListByCourse(courseID, page, limit)
	if err != nil {
		return nil, 0, util.InternalError(err)
	}
	return exams, total, nil
}

// validStatusTransitions captures the exam lifecycle; anything not listed is
// rejected.
var validStatusTransitions = map[model.ExamStatus][]model.ExamStatus{
	model.ExamStatusDraft:            {model.ExamStatusActive},
	model.ExamStatusActive:           {model.ExamStatusGrading, model.ExamStatusResultsPublished},
	model.ExamStatusGrading:          {model.ExamStatusResultsPublished},
	model.ExamStatusResultsPublished: {model.ExamStatusArchived},
}

func (s *ExamAdminService) UpdateExamStatus(examID uint, next model.ExamStatus) (*model.Exam, error) {
	exam, err := s.ExamRepo.FindByID(examID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, util.NotFoundError("exam not found")
		}
		return nil, util.InternalError(err)
	}

	allowed := false
	for _, status := range validStatusTransitions[exam.Status] {
		if status == next {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, util.ValidationError("cannot move exam from %s to %s", exam.Status, next)
	}

	if err := s.ExamRepo.SetStatus(examID, next); err != nil {
		return nil, util.InternalError(err)
	}
	exam.Status = next
	return exam, nil
}

type SessionCreateRequest struct {
	ExamID         uint      `json:"examId" binding:"required"`
	Title          string    `json:"title"`
	Venue          string    `json:"venue"`
	StartTime      time.Time `json:"startTime" binding:"required"`
	EndTime        time.Time `json:"endTime" binding:"required"`
	Capacity       int       `json:"capacity"`
	AccessPassword string    `json:"accessPassword"`
}

func (s *ExamAdminService) CreateSession(req SessionCreateRequest) (*model.ExamSession, error) {
	if !req.EndTime.After(req.StartTime) {
		return nil, util.ValidationError("session end time must be after start time")
	}
	if _, err := s.ExamRepo.FindByID(req.ExamID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, util.NotFoundError("exam not found")
		}
		return nil, util.InternalError(err)
	}

	session := &model.ExamSession{
		ExamID:    req.ExamID,
		Title:     req.Title,
		Venue:     req.Venue,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Capacity:  req.Capacity,
		IsActive:  true,
	}
	if req.AccessPassword != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.AccessPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, util.InternalError(err)
		}
		session.AccessPasswordHash = string(hash)
	}
	if err := s.SessionRepo.Create(session); err != nil {
		return nil, util.InternalError(err)
	}
	return session, nil
}

func (s *ExamAdminService) ListSessions(examID uint) ([]model.ExamSession, error) {
	if _, err := s.ExamRepo.FindByID(examID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, util.NotFoundError("exam not found")
		}
		return nil, util.InternalError(err)
	}
	sessions, err := s.SessionRepo.ListByExam(examID)
	if err != nil {
		return nil, util.InternalError(err)
	}
	return sessions, nil
}

// CloseSession deactivates a session, stopping new attempts immediately.
// Open attempts keep running until the window ends or they submit.
func (s *ExamAdminService) CloseSession(sessionID uint) (*model.ExamSession, error) {
	session, err := s.SessionRepo.FindByID(sessionID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, util.NotFoundError("exam session not found")
		}
		return nil, util.InternalError(err)
	}
	if !session.IsActive {
		return session, nil
	}
	session.IsActive = false
	if err := s.SessionRepo.Update(session); err != nil {
		return nil, util.InternalError(err)
	}
	return session, nil
}

func (s *ExamAdminService) AssignStudent(sessionID, studentID, assignedBy uint) (*model.SessionAssignment, error) {
	session, err := s.SessionRepo.FindByID(sessionID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, util.NotFoundError("exam session not found")
		}
		return nil, util.InternalError(err)
	}

	student, err := s.UserRepo.FindByID(studentID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, util.NotFoundError("student not found")
		}
		return nil, util.InternalError(err)
	}
	if student.Role != model.Student {
		return nil, util.ValidationError("user %d is not a student", studentID)
	}

	if session.Capacity > 0 {
		count, err := s.SessionRepo.CountAssignments(sessionID)
		if err != nil {
			return nil, util.InternalError(err)
		}
		if count >= int64(session.Capacity) {
			return nil, util.CapacityError("session is at capacity (%d seats)", session.Capacity)
		}
	}

	assignment := &model.SessionAssignment{
		ExamSessionID: sessionID,
		StudentID:     studentID,
		AssignedBy:    assignedBy,
	}
	if err := s.SessionRepo.AssignStudent(assignment); err != nil {
		if err == gorm.ErrDuplicatedKey {
			return nil, util.ConflictError("student already assigned to this session")
		}
		return nil, util.InternalError(err)
	}
	return assignment, nil
}

type QuestionRequest struct {
	QuestionType     model.QuestionType     `json:"questionType" binding:"required"`
	Text             string                 `json:"text" binding:"required"`
	Marks            float64                `json:"marks"`
	Options          []model.QuestionOption `json:"options"`
	CorrectOptionKey string                 `json:"correctOptionKey"`
	Explanation      string                 `json:"explanation"`
	DisplayOrder     int                    `json:"displayOrder"`
}

func (s *ExamAdminService) validateQuestion(req *QuestionRequest) error {
	if req.Marks <= 0 {
		return util.ValidationError("marks must be positive")
	}
	if !req.QuestionType.IsObjective() {
		return nil
	}
	if len(req.Options) < 2 {
		return util.ValidationError("objective questions need at least two options")
	}
	for _, opt := range req.Options {
		if opt.Key == req.CorrectOptionKey {
			return nil
		}
	}
	return util.ValidationError("correctOptionKey must match one of the options")
}

func (s *ExamAdminService) AddQuestion(ctx context.Context, examID uint, req QuestionRequest) (*model.BankQuestion, error) {
	if _, err := s.ExamRepo.FindByID(examID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, util.NotFoundError("exam not found")
		}
		return nil, util.InternalError(err)
	}
	if err := s.validateQuestion(&req); err != nil {
		return nil, err
	}

	optionsJSON, err := json.Marshal(req.Options)
	if err != nil {
		return nil, util.InternalError(err)
	}
	question := &model.BankQuestion{
		ExamID:           examID,
		QuestionType:     req.QuestionType,
		Text:             req.Text,
		Marks:            req.Marks,
		Options:          optionsJSON,
		CorrectOptionKey: req.CorrectOptionKey,
		Explanation:      req.Explanation,
		DisplayOrder:     req.DisplayOrder,
		IsActive:         true,
	}
	if err := s.QuestionRepo.Create(question); err != nil {
		return nil, util.InternalError(err)
	}

	s.Selector.InvalidateCache(ctx, examID)
	return question, nil
}

func (s *ExamAdminService) UpdateQuestion(ctx context.Context, examID, questionID uint, req QuestionRequest) (*model.BankQuestion, error) {
	question, err := s.QuestionRepo.FindByID(questionID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, util.NotFoundError("question not found")
		}
		return nil, util.InternalError(err)
	}
	if question.ExamID != examID {
		return nil, util.NotFoundError("question does not belong to this exam")
	}
	if err := s.validateQuestion(&req); err != nil {
		return nil, err
	}

	optionsJSON, err := json.Marshal(req.Options)
	if err != nil {
		return nil, util.InternalError(err)
	}
	question.QuestionType = req.QuestionType
	question.Text = req.Text
	question.Marks = req.Marks
	question.Options = optionsJSON
	question.CorrectOptionKey = req.CorrectOptionKey
	question.Explanation = req.Explanation
	question.DisplayOrder = req.DisplayOrder
	if err := s.QuestionRepo.Update(question); err != nil {
		return nil, util.InternalError(err)
	}

	s.Selector.InvalidateCache(ctx, examID)
	return question, nil
}

func (s *ExamAdminService) DeleteQuestion(ctx context.Context, examID, questionID uint) error {
	question, err := s.QuestionRepo.FindByID(questionID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return util.NotFoundError("question not found")
		}
		return util.InternalError(err)
	}
	if question.ExamID != examID {
		return util.NotFoundError("question does not belong to this exam")
	}
	if err := s.QuestionRepo.DeleteByID(questionID); err != nil {
		return util.InternalError(err)
	}

	s.Selector.InvalidateCache(ctx, examID)
	return nil
}
