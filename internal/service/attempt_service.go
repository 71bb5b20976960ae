package service

import (
	"campus_exam_backend/internal/model"
	"campus_exam_backend/internal/repository"
	"campus_exam_backend/internal/util"
	"campus_exam_backend/pkg/logger"
	"campus_exam_backend/pkg/monitoring"
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	submitTriggerExplicit = "explicit"
	submitTriggerAuto     = "auto"
	submitTriggerReaper   = "reaper"
)

// AttemptService owns the attempt lifecycle: OPEN on start, SUBMITTED on
// explicit submit, forced auto-submit, or the reaper. Answers may only be
// written while the attempt is open and inside the session window.
type AttemptService struct {
	DB          *gorm.DB
	Eligibility *EligibilityService
	Selector    *QuestionSelector

	AttemptRepo  *repository.AttemptRepository
	AnswerRepo   *repository.AnswerRepository
	QuestionRepo *repository.QuestionRepository
	SessionRepo  *repository.SessionRepository
	ExamRepo     *repository.ExamRepository
}

func NewAttemptService(db *gorm.DB, eligibility *EligibilityService, selector *QuestionSelector,
	attemptRepo *repository.AttemptRepository, answerRepo *repository.AnswerRepository,
	questionRepo *repository.QuestionRepository, sessionRepo *repository.SessionRepository,
	examRepo *repository.ExamRepository) *AttemptService {
	return &AttemptService{
		DB:           db,
		Eligibility:  eligibility,
		Selector:     selector,
		AttemptRepo:  attemptRepo,
		AnswerRepo:   answerRepo,
		QuestionRepo: questionRepo,
		SessionRepo:  sessionRepo,
		ExamRepo:     examRepo,
	}
}

// AttemptQuestionView is a bank question as presented to the student: the
// correct option indicator and explanation are never included.
type AttemptQuestionView struct {
	ID           uint                   `json:"id"`
	QuestionType model.QuestionType     `json:"questionType"`
	Text         string                 `json:"text"`
	Marks        float64                `json:"marks"`
	DisplayOrder int                    `json:"displayOrder"`
	Options      []model.QuestionOption `json:"options,omitempty"`
}

type SessionWindow struct {
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
}

type ExamMetadata struct {
	ID                 uint   `json:"id"`
	Title              string `json:"title"`
	DurationMinutes    int    `json:"durationMinutes"`
	TotalMarks         int    `json:"totalMarks"`
	PassMark           int    `json:"passMark"`
	QuestionsToAttempt int    `json:"questionsToAttempt"`
}

type StartAttemptResult struct {
	AttemptID string                `json:"attemptId"`
	Exam      ExamMetadata          `json:"exam"`
	Window    SessionWindow         `json:"sessionWindow"`
	Questions []AttemptQuestionView `json:"questions"`
}

type SaveAnswerRequest struct {
	QuestionID        uint   `json:"questionId" binding:"required"`
	SelectedOptionKey string `json:"selectedOptionKey"`
	AnswerText        string `json:"answerText"`
}

type AnswerView struct {
	QuestionID        uint     `json:"questionId"`
	SelectedOptionKey string   `json:"selectedOptionKey,omitempty"`
	AnswerText        string   `json:"answerText,omitempty"`
	IsCorrect         *bool    `json:"isCorrect,omitempty"`
	MarksAwarded      *float64 `json:"marksAwarded,omitempty"`
}

type SubmissionResult struct {
	AttemptID             string  `json:"attemptId"`
	ScoreAchieved         float64 `json:"scoreAchieved"`
	IsGraded              bool    `json:"isGraded"`
	RequiresManualGrading bool    `json:"requiresManualGrading"`
}

// StartAttempt validates eligibility, draws the question sample and creates
// the attempt row. The unique open-slot index is the optimistic guard: a
// concurrent duplicate start loses with a conflict.
func (s *AttemptService) StartAttempt(ctx context.Context, studentID, sessionID uint, accessPassword, clientIP, clientUserAgent string) (*StartAttemptResult, error) {
	now := time.Now()

	elig, err := s.Eligibility.Validate(studentID, sessionID, now)
	if err != nil {
		return nil, err
	}
	exam, session := elig.Exam, elig.Session

	if session.AccessPasswordHash != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(session.AccessPasswordHash), []byte(accessPassword)); err != nil {
			return nil, util.AuthorizationError("invalid session access password")
		}
	}

	questions, err := s.Selector.Select(ctx, exam.ID, exam.QuestionsToAttempt)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, len(questions))
	for i, q := range questions {
		ids[i] = q.ID
	}
	idsJSON, err := json.Marshal(ids)
	if err != nil {
		return nil, util.InternalError(err)
	}

	attempt := &model.ExamAttempt{
		StudentID:       studentID,
		ExamID:          exam.ID,
		ExamSessionID:   sessionID,
		OpenSlot:        model.NewOpenSlot(),
		StartTime:       now,
		QuestionIDs:     idsJSON,
		ClientIP:        clientIP,
		ClientUserAgent: clientUserAgent,
	}
	if err := s.AttemptRepo.Create(attempt); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, util.ConflictError("an open attempt already exists for this session")
		}
		return nil, util.InternalError(err)
	}

	monitoring.AttemptsStarted.Inc()
	logger.Log.Info("attempt started",
		zap.String("attemptId", attempt.ID),
		zap.Uint("studentId", studentID),
		zap.Uint("sessionId", sessionID),
	)

	views := make([]AttemptQuestionView, 0, len(questions))
	for i := range questions {
		view, err := presentQuestion(&questions[i])
		if err != nil {
			return nil, util.InternalError(err)
		}
		views = append(views, *view)
	}

	return &StartAttemptResult{
		AttemptID: attempt.ID,
		Exam: ExamMetadata{
			ID:                 exam.ID,
			Title:              exam.Title,
			DurationMinutes:    exam.DurationMinutes,
			TotalMarks:         exam.TotalMarks,
			PassMark:           exam.PassMark,
			QuestionsToAttempt: exam.QuestionsToAttempt,
		},
		Window:    SessionWindow{StartTime: session.StartTime, EndTime: session.EndTime},
		Questions: views,
	}, nil
}

func presentQuestion(q *model.BankQuestion) (*AttemptQuestionView, error) {
	view := &AttemptQuestionView{
		ID:           q.ID,
		QuestionType: q.QuestionType,
		Text:         q.Text,
		Marks:        q.Marks,
		DisplayOrder: q.DisplayOrder,
	}
	if len(q.Options) > 0 {
		if err := json.Unmarshal(q.Options, &view.Options); err != nil {
			return nil, err
		}
	}
	return view, nil
}

// SaveAnswer is the per-question write path. Objective answers are graded
// synchronously; subjective ones stay ungraded pending manual marks. A write
// past the session deadline force-submits the attempt and still fails.
func (s *AttemptService) SaveAnswer(ctx context.Context, attemptID string, studentID uint, req SaveAnswerRequest) (*AnswerView, error) {
	attempt, err := s.AttemptRepo.FindByID(attemptID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, util.NotFoundError("attempt not found")
		}
		return nil, util.InternalError(err)
	}
	if attempt.StudentID != studentID {
		return nil, util.AuthorizationError("attempt does not belong to caller")
	}
	if attempt.IsSubmitted {
		return nil, util.ValidationError("attempt already submitted")
	}

	session, err := s.SessionRepo.FindByID(attempt.ExamSessionID)
	if err != nil {
		return nil, util.InternalError(err)
	}
	now := time.Now()
	if now.After(session.EndTime) {
		// Lazy expiry: the late write closes the attempt but does not land.
		if _, ferr := s.finalize(attempt, now, true, submitTriggerAuto); ferr != nil {
			logger.Log.Error("forced auto-submit failed",
				zap.String("attemptId", attempt.ID), zap.Error(ferr))
		}
		return nil, util.ValidationError("session time has expired; attempt was submitted automatically")
	}

	question, err := s.QuestionRepo.FindByID(req.QuestionID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, util.NotFoundError("question not found")
		}
		return nil, util.InternalError(err)
	}

	presented, err := attempt.PresentedQuestionIDs()
	if err != nil {
		return nil, util.InternalError(err)
	}
	inSet := false
	for _, id := range presented {
		if id == req.QuestionID {
			inSet = true
			break
		}
	}
	if !inSet {
		return nil, util.ValidationError("question is not part of this attempt")
	}

	answer := &model.AttemptAnswer{
		AttemptID:  attempt.ID,
		QuestionID: question.ID,
	}
	if question.QuestionType.IsObjective() {
		if req.SelectedOptionKey == "" {
			return nil, util.ValidationError("selectedOptionKey is required for objective questions")
		}
		isCorrect, marks := GradeObjective(question, req.SelectedOptionKey)
		answer.SelectedOptionKey = req.SelectedOptionKey
		answer.IsCorrect = &isCorrect
		answer.MarksAwarded = &marks
	} else {
		if req.AnswerText == "" {
			return nil, util.ValidationError("answerText is required for subjective questions")
		}
		answer.AnswerText = req.AnswerText
	}

	if err := s.AnswerRepo.Upsert(answer); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, util.ConflictError("concurrent write for this question, retry")
		}
		return nil, util.InternalError(err)
	}

	return &AnswerView{
		QuestionID:        answer.QuestionID,
		SelectedOptionKey: answer.SelectedOptionKey,
		AnswerText:        answer.AnswerText,
		IsCorrect:         answer.IsCorrect,
		MarksAwarded:      answer.MarksAwarded,
	}, nil
}

// AttachAnswerFile records an uploaded attachment URL on a subjective answer.
func (s *AttemptService) AttachAnswerFile(attemptID string, studentID uint, questionID uint, url string) error {
	attempt, err := s.AttemptRepo.FindByID(attemptID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return util.NotFoundError("attempt not found")
		}
		return util.InternalError(err)
	}
	if attempt.StudentID != studentID {
		return util.AuthorizationError("attempt does not belong to caller")
	}
	if attempt.IsSubmitted {
		return util.ValidationError("attempt already submitted")
	}

	answer, err := s.AnswerRepo.FindByAttemptAndQuestion(attemptID, questionID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return util.NotFoundError("answer the question before attaching a file")
		}
		return util.InternalError(err)
	}
	answer.AttachmentURL = url
	if err := s.AnswerRepo.Save(answer); err != nil {
		return util.InternalError(err)
	}
	return nil
}

// SubmitAttempt closes an open attempt. Not idempotent: a second call is a
// conflict.
func (s *AttemptService) SubmitAttempt(ctx context.Context, attemptID string, studentID uint, autoSubmit bool) (*SubmissionResult, error) {
	attempt, err := s.AttemptRepo.FindByID(attemptID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, util.NotFoundError("attempt not found")
		}
		return nil, util.InternalError(err)
	}
	if attempt.StudentID != studentID {
		return nil, util.AuthorizationError("attempt does not belong to caller")
	}
	if attempt.IsSubmitted {
		return nil, util.ConflictError("attempt already submitted")
	}

	trigger := submitTriggerExplicit
	if autoSubmit {
		trigger = submitTriggerAuto
	}
	return s.finalize(attempt, time.Now(), autoSubmit, trigger)
}

// finalize runs the submission and scoring engine exactly once per attempt:
// sets the end time, aggregates marks over the persisted sampled subset and
// flips the row to SUBMITTED, freeing the open slot. The flip is a
// conditional update keyed on is_submitted = false, so of two racing
// finalizers (say the reaper against an explicit submit) exactly one lands;
// the loser gets a conflict and the stored end time never moves.
func (s *AttemptService) finalize(attempt *model.ExamAttempt, now time.Time, autoSubmitted bool, trigger string) (*SubmissionResult, error) {
	ids, err := attempt.PresentedQuestionIDs()
	if err != nil {
		return nil, util.InternalError(err)
	}

	var agg ScoreAggregate
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		var questions []model.BankQuestion
		if err := tx.Where("id IN ?", ids).Find(&questions).Error; err != nil {
			return err
		}
		var answers []model.AttemptAnswer
		if err := tx.Where("attempt_id = ?", attempt.ID).Find(&answers).Error; err != nil {
			return err
		}
		answerByQuestion := make(map[uint]*model.AttemptAnswer, len(answers))
		for i := range answers {
			answerByQuestion[answers[i].QuestionID] = &answers[i]
		}

		agg = AggregateScore(questions, answerByQuestion)

		used := int(now.Sub(attempt.StartTime).Seconds())
		if used < 0 {
			used = 0
		}

		res := tx.Model(&model.ExamAttempt{}).
			Where("id = ? AND is_submitted = ?", attempt.ID, false).
			Updates(map[string]interface{}{
				"end_time":          now,
				"time_used_seconds": used,
				"is_submitted":      true,
				"auto_submitted":    autoSubmitted,
				"open_slot":         nil,
				"score_achieved":    agg.Score,
				"is_graded":         agg.IsGraded,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return util.ConflictError("attempt already submitted")
		}

		attempt.EndTime = &now
		attempt.TimeUsedSeconds = used
		attempt.IsSubmitted = true
		attempt.AutoSubmitted = autoSubmitted
		attempt.OpenSlot = nil
		attempt.ScoreAchieved = agg.Score
		attempt.IsGraded = agg.IsGraded
		return nil
	})
	if err != nil {
		return nil, util.AsAppError(err)
	}

	monitoring.AttemptsSubmitted.WithLabelValues(trigger).Inc()
	logger.Log.Info("attempt submitted",
		zap.String("attemptId", attempt.ID),
		zap.String("trigger", trigger),
		zap.Float64("score", agg.Score),
		zap.Bool("graded", agg.IsGraded),
	)

	return &SubmissionResult{
		AttemptID:             attempt.ID,
		ScoreAchieved:         agg.Score,
		IsGraded:              agg.IsGraded,
		RequiresManualGrading: agg.RequiresManualGrading,
	}, nil
}

// ReapExpired force-submits open attempts whose session window has elapsed.
// Called from the background ticker.
func (s *AttemptService) ReapExpired(now time.Time) error {
	expired, err := s.AttemptRepo.ListExpiredOpen(now)
	if err != nil {
		return err
	}
	for i := range expired {
		if _, err := s.finalize(&expired[i], now, true, submitTriggerReaper); err != nil {
			logger.Log.Error("reaper failed to close attempt",
				zap.String("attemptId", expired[i].ID), zap.Error(err))
		}
	}
	return nil
}

// AttemptSummary is a student-facing listing row; the score is withheld
// until the exam's results are published.
type AttemptSummary struct {
	AttemptID     string     `json:"attemptId"`
	ExamID        uint       `json:"examId"`
	ExamTitle     string     `json:"examTitle"`
	ExamSessionID uint       `json:"examSessionId"`
	StartTime     time.Time  `json:"startTime"`
	EndTime       *time.Time `json:"endTime,omitempty"`
	IsSubmitted   bool       `json:"isSubmitted"`
	ScoreAchieved *float64   `json:"scoreAchieved,omitempty"`
}

func (s *AttemptService) ListStudentAttempts(studentID uint) ([]AttemptSummary, error) {
	attempts, err := s.AttemptRepo.ListByStudent(studentID)
	if err != nil {
		return nil, util.InternalError(err)
	}

	examCache := make(map[uint]*model.Exam)
	summaries := make([]AttemptSummary, 0, len(attempts))
	for i := range attempts {
		a := &attempts[i]
		exam := examCache[a.ExamID]
		if exam == nil {
			exam, err = s.ExamRepo.FindByID(a.ExamID)
			if err != nil {
				return nil, util.InternalError(err)
			}
			examCache[a.ExamID] = exam
		}

		summary := AttemptSummary{
			AttemptID:     a.ID,
			ExamID:        a.ExamID,
			ExamTitle:     exam.Title,
			ExamSessionID: a.ExamSessionID,
			StartTime:     a.StartTime,
			EndTime:       a.EndTime,
			IsSubmitted:   a.IsSubmitted,
		}
		if exam.Status == model.ExamStatusResultsPublished {
			score := a.ScoreAchieved
			summary.ScoreAchieved = &score
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}
