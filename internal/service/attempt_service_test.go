package service

import (
	"campus_exam_backend/internal/model"
	"campus_exam_backend/internal/repository"
	"campus_exam_backend/internal/util"
	"campus_exam_backend/pkg/database"
	"campus_exam_backend/pkg/logger"
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	glogger "gorm.io/gorm/logger"
)

type testEnv struct {
	db *gorm.DB

	userRepo     *repository.UserRepository
	courseRepo   *repository.CourseRepository
	examRepo     *repository.ExamRepository
	sessionRepo  *repository.SessionRepository
	questionRepo *repository.QuestionRepository
	attemptRepo  *repository.AttemptRepository
	answerRepo   *repository.AnswerRepository

	selector    *QuestionSelector
	eligibility *EligibilityService
	attempt     *AttemptService
	result      *ResultService
	grading     *GradingService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger.Log = zap.NewNop()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         glogger.Default.LogMode(glogger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}

	e := &testEnv{
		db:           db,
		userRepo:     repository.NewUserRepository(db),
		courseRepo:   repository.NewCourseRepository(db),
		examRepo:     repository.NewExamRepository(db),
		sessionRepo:  repository.NewSessionRepository(db),
		questionRepo: repository.NewQuestionRepository(db),
		attemptRepo:  repository.NewAttemptRepository(db),
		answerRepo:   repository.NewAnswerRepository(db),
	}

	e.selector = NewQuestionSelector(e.questionRepo, nil, time.Minute, rand.New(rand.NewSource(1)))
	e.eligibility = NewEligibilityService(e.userRepo, e.examRepo, e.sessionRepo, e.attemptRepo)
	e.attempt = NewAttemptService(db, e.eligibility, e.selector,
		e.attemptRepo, e.answerRepo, e.questionRepo, e.sessionRepo, e.examRepo)

	policy := NewAccessPolicy(e.userRepo, e.courseRepo)
	e.result = NewResultService(policy, e.attemptRepo, e.answerRepo,
		e.questionRepo, e.sessionRepo, e.examRepo, e.userRepo)
	e.grading = NewGradingService(db, policy, e.attemptRepo, e.answerRepo,
		e.questionRepo, e.examRepo)

	return e
}

type fixture struct {
	student model.User
	staff   model.User
	exam    model.Exam
	session model.ExamSession
}

// seedExam builds an active exam with an open session the student is
// assigned to, plus numMCQ five-mark MCQs (correct key "B") and numEssay
// ten-mark essays.
func (e *testEnv) seedExam(t *testing.T, numMCQ, numEssay, toAttempt int) *fixture {
	t.Helper()

	f := &fixture{
		student: model.User{Name: "Ada Student", Email: "ada@example.test", Password: "x", Role: model.Student, RegNo: "REG001"},
		staff:   model.User{Name: "Sam Staff", Email: "sam@example.test", Password: "x", Role: model.Staff},
	}
	if err := e.db.Create(&f.student).Error; err != nil {
		t.Fatalf("seed student: %v", err)
	}
	if err := e.db.Create(&f.staff).Error; err != nil {
		t.Fatalf("seed staff: %v", err)
	}

	course := model.Course{Code: "CSC101", Title: "Intro", OwnerID: f.staff.ID}
	if err := e.db.Create(&course).Error; err != nil {
		t.Fatalf("seed course: %v", err)
	}

	f.exam = model.Exam{
		CourseID:           course.ID,
		CreatorID:          f.staff.ID,
		Title:              "Midterm",
		ExamType:           model.ExamTypeRegular,
		Status:             model.ExamStatusActive,
		DurationMinutes:    60,
		TotalMarks:         100,
		PassMark:           40,
		QuestionsToAttempt: toAttempt,
	}
	if err := e.db.Create(&f.exam).Error; err != nil {
		t.Fatalf("seed exam: %v", err)
	}

	now := time.Now()
	f.session = model.ExamSession{
		ExamID:    f.exam.ID,
		Title:     "Sitting A",
		StartTime: now.Add(-time.Hour),
		EndTime:   now.Add(time.Hour),
		IsActive:  true,
	}
	if err := e.db.Create(&f.session).Error; err != nil {
		t.Fatalf("seed session: %v", err)
	}
	if err := e.db.Create(&model.SessionAssignment{
		ExamSessionID: f.session.ID,
		StudentID:     f.student.ID,
		AssignedBy:    f.staff.ID,
	}).Error; err != nil {
		t.Fatalf("seed assignment: %v", err)
	}

	for i := 0; i < numMCQ; i++ {
		q := model.BankQuestion{
			ExamID:           f.exam.ID,
			QuestionType:     model.QuestionTypeMCQ,
			Text:             fmt.Sprintf("MCQ %d", i+1),
			Marks:            5,
			Options:          datatypes.JSON(`[{"key":"A","text":"first"},{"key":"B","text":"second"}]`),
			CorrectOptionKey: "B",
			IsActive:         true,
		}
		if err := e.db.Create(&q).Error; err != nil {
			t.Fatalf("seed mcq: %v", err)
		}
	}
	for i := 0; i < numEssay; i++ {
		q := model.BankQuestion{
			ExamID:       f.exam.ID,
			QuestionType: model.QuestionTypeEssay,
			Text:         fmt.Sprintf("Essay %d", i+1),
			Marks:        10,
			IsActive:     true,
		}
		if err := e.db.Create(&q).Error; err != nil {
			t.Fatalf("seed essay: %v", err)
		}
	}

	return f
}

func wantStatus(t *testing.T, err error, status int) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with status %d, got nil", status)
	}
	if got := util.AsAppError(err).Status; got != status {
		t.Fatalf("error status = %d, want %d (err: %v)", got, status, err)
	}
}

func TestStartAttempt_DrawsSampleAndOpensSlot(t *testing.T) {
	e := newTestEnv(t)
	f := e.seedExam(t, 6, 0, 4)
	ctx := context.Background()

	res, err := e.attempt.StartAttempt(ctx, f.student.ID, f.session.ID, "", "10.0.0.1", "test-agent")
	if err != nil {
		t.Fatalf("StartAttempt: %v", err)
	}
	if len(res.Questions) != 4 {
		t.Fatalf("presented %d questions, want 4", len(res.Questions))
	}

	seen := map[uint]bool{}
	for _, q := range res.Questions {
		if seen[q.ID] {
			t.Fatalf("question %d presented twice", q.ID)
		}
		seen[q.ID] = true
	}

	stored, err := e.attemptRepo.FindByID(res.AttemptID)
	if err != nil {
		t.Fatalf("load attempt: %v", err)
	}
	if stored.OpenSlot == nil {
		t.Error("open attempt must hold the open slot")
	}
	ids, err := stored.PresentedQuestionIDs()
	if err != nil {
		t.Fatalf("decode sampled ids: %v", err)
	}
	if len(ids) != 4 {
		t.Errorf("persisted %d sampled ids, want 4", len(ids))
	}
}

func TestStartAttempt_SecondStartConflicts(t *testing.T) {
	e := newTestEnv(t)
	f := e.seedExam(t, 4, 0, 2)
	ctx := context.Background()

	if _, err := e.attempt.StartAttempt(ctx, f.student.ID, f.session.ID, "", "", ""); err != nil {
		t.Fatalf("first StartAttempt: %v", err)
	}
	_, err := e.attempt.StartAttempt(ctx, f.student.ID, f.session.ID, "", "", "")
	wantStatus(t, err, http.StatusConflict)
}

func TestStartAttempt_RequiresAssignment(t *testing.T) {
	e := newTestEnv(t)
	f := e.seedExam(t, 4, 0, 2)

	outsider := model.User{Name: "Out Sider", Email: "out@example.test", Password: "x", Role: model.Student}
	if err := e.db.Create(&outsider).Error; err != nil {
		t.Fatalf("seed outsider: %v", err)
	}

	_, err := e.attempt.StartAttempt(context.Background(), outsider.ID, f.session.ID, "", "", "")
	wantStatus(t, err, http.StatusForbidden)
}

func TestStartAttempt_OutsideWindow(t *testing.T) {
	e := newTestEnv(t)
	f := e.seedExam(t, 4, 0, 2)

	f.session.StartTime = time.Now().Add(time.Hour)
	f.session.EndTime = time.Now().Add(2 * time.Hour)
	if err := e.db.Save(&f.session).Error; err != nil {
		t.Fatalf("move session window: %v", err)
	}

	_, err := e.attempt.StartAttempt(context.Background(), f.student.ID, f.session.ID, "", "", "")
	wantStatus(t, err, http.StatusForbidden)
}

func TestStartAttempt_InsufficientBank(t *testing.T) {
	e := newTestEnv(t)
	f := e.seedExam(t, 3, 0, 5)

	_, err := e.attempt.StartAttempt(context.Background(), f.student.ID, f.session.ID, "", "", "")
	wantStatus(t, err, http.StatusBadRequest)
}

func TestStartAttempt_NoRetakeAfterSubmission(t *testing.T) {
	e := newTestEnv(t)
	f := e.seedExam(t, 4, 0, 2)
	ctx := context.Background()

	res, err := e.attempt.StartAttempt(ctx, f.student.ID, f.session.ID, "", "", "")
	if err != nil {
		t.Fatalf("StartAttempt: %v", err)
	}
	if _, err := e.attempt.SubmitAttempt(ctx, res.AttemptID, f.student.ID, false); err != nil {
		t.Fatalf("SubmitAttempt: %v", err)
	}

	_, err = e.attempt.StartAttempt(ctx, f.student.ID, f.session.ID, "", "", "")
	wantStatus(t, err, http.StatusConflict)

	// A makeup exam allows another attempt after submission.
	f.exam.AllowRetake = true
	if err := e.db.Save(&f.exam).Error; err != nil {
		t.Fatalf("enable retake: %v", err)
	}
	if _, err := e.attempt.StartAttempt(ctx, f.student.ID, f.session.ID, "", "", ""); err != nil {
		t.Fatalf("retake StartAttempt: %v", err)
	}
}

func TestAnswerGradingAndSubmission(t *testing.T) {
	e := newTestEnv(t)
	f := e.seedExam(t, 4, 0, 4)
	ctx := context.Background()

	res, err := e.attempt.StartAttempt(ctx, f.student.ID, f.session.ID, "", "", "")
	if err != nil {
		t.Fatalf("StartAttempt: %v", err)
	}

	// Three correct answers, one wrong.
	for i, q := range res.Questions {
		key := "B"
		if i == 3 {
			key = "A"
		}
		view, err := e.attempt.SaveAnswer(ctx, res.AttemptID, f.student.ID, SaveAnswerRequest{
			QuestionID:        q.ID,
			SelectedOptionKey: key,
		})
		if err != nil {
			t.Fatalf("SaveAnswer q%d: %v", q.ID, err)
		}
		if view.IsCorrect == nil || view.MarksAwarded == nil {
			t.Fatalf("objective answer q%d not graded synchronously", q.ID)
		}
	}

	sub, err := e.attempt.SubmitAttempt(ctx, res.AttemptID, f.student.ID, false)
	if err != nil {
		t.Fatalf("SubmitAttempt: %v", err)
	}
	if sub.ScoreAchieved != 15 {
		t.Errorf("score = %v, want 15", sub.ScoreAchieved)
	}
	if !sub.IsGraded {
		t.Error("objective-only attempt must be graded on submit")
	}
	if sub.RequiresManualGrading {
		t.Error("no manual grading expected")
	}

	// Second submit conflicts, and the open slot is released.
	_, err = e.attempt.SubmitAttempt(ctx, res.AttemptID, f.student.ID, false)
	wantStatus(t, err, http.StatusConflict)

	open, err := e.attemptRepo.FindOpen(f.student.ID, f.session.ID)
	if err != nil {
		t.Fatalf("FindOpen: %v", err)
	}
	if open != nil {
		t.Error("submitted attempt must release the open slot")
	}

	// Writes after submission are rejected.
	_, err = e.attempt.SaveAnswer(ctx, res.AttemptID, f.student.ID, SaveAnswerRequest{
		QuestionID:        res.Questions[0].ID,
		SelectedOptionKey: "B",
	})
	wantStatus(t, err, http.StatusBadRequest)
}

func TestSaveAnswer_ReanswerOverwrites(t *testing.T) {
	e := newTestEnv(t)
	f := e.seedExam(t, 2, 0, 2)
	ctx := context.Background()

	res, err := e.attempt.StartAttempt(ctx, f.student.ID, f.session.ID, "", "", "")
	if err != nil {
		t.Fatalf("StartAttempt: %v", err)
	}
	q := res.Questions[0]

	if _, err := e.attempt.SaveAnswer(ctx, res.AttemptID, f.student.ID, SaveAnswerRequest{
		QuestionID: q.ID, SelectedOptionKey: "A",
	}); err != nil {
		t.Fatalf("first SaveAnswer: %v", err)
	}
	if _, err := e.attempt.SaveAnswer(ctx, res.AttemptID, f.student.ID, SaveAnswerRequest{
		QuestionID: q.ID, SelectedOptionKey: "B",
	}); err != nil {
		t.Fatalf("second SaveAnswer: %v", err)
	}

	answers, err := e.answerRepo.ListByAttempt(res.AttemptID)
	if err != nil {
		t.Fatalf("ListByAttempt: %v", err)
	}
	if len(answers) != 1 {
		t.Fatalf("got %d answer rows, want 1", len(answers))
	}
	if answers[0].SelectedOptionKey != "B" {
		t.Errorf("selected key = %q, want B", answers[0].SelectedOptionKey)
	}
	if answers[0].MarksAwarded == nil || *answers[0].MarksAwarded != 5 {
		t.Errorf("re-answer not regraded: %+v", answers[0].MarksAwarded)
	}
}

func TestSubmitAttempt_RacingFinalizeLosesWithConflict(t *testing.T) {
	e := newTestEnv(t)
	f := e.seedExam(t, 2, 0, 2)
	ctx := context.Background()

	res, err := e.attempt.StartAttempt(ctx, f.student.ID, f.session.ID, "", "", "")
	if err != nil {
		t.Fatalf("StartAttempt: %v", err)
	}

	// Two finalizers holding stale copies of the same open row, the way an
	// explicit submit races the reaper near the session deadline.
	first, err := e.attemptRepo.FindByID(res.AttemptID)
	if err != nil {
		t.Fatalf("load first copy: %v", err)
	}
	second, err := e.attemptRepo.FindByID(res.AttemptID)
	if err != nil {
		t.Fatalf("load second copy: %v", err)
	}

	submitTime := time.Now()
	if _, err := e.attempt.finalize(first, submitTime, false, submitTriggerExplicit); err != nil {
		t.Fatalf("first finalize: %v", err)
	}

	_, err = e.attempt.finalize(second, submitTime.Add(3*time.Second), true, submitTriggerReaper)
	wantStatus(t, err, http.StatusConflict)

	stored, err := e.attemptRepo.FindByID(res.AttemptID)
	if err != nil {
		t.Fatalf("load attempt: %v", err)
	}
	if stored.EndTime == nil {
		t.Fatal("winning finalize must set the end time")
	}
	if d := stored.EndTime.Sub(submitTime); d < -time.Second || d > time.Second {
		t.Errorf("end time moved on a losing finalize: got %v, want %v", stored.EndTime, submitTime)
	}
	if stored.AutoSubmitted {
		t.Error("losing auto-submit must not rewrite an explicit submission")
	}
}

func TestSaveAnswer_ReanswerKeepsAttachment(t *testing.T) {
	e := newTestEnv(t)
	f := e.seedExam(t, 0, 1, 1)
	ctx := context.Background()

	res, err := e.attempt.StartAttempt(ctx, f.student.ID, f.session.ID, "", "", "")
	if err != nil {
		t.Fatalf("StartAttempt: %v", err)
	}
	q := res.Questions[0]

	if _, err := e.attempt.SaveAnswer(ctx, res.AttemptID, f.student.ID, SaveAnswerRequest{
		QuestionID: q.ID, AnswerText: "first draft",
	}); err != nil {
		t.Fatalf("first SaveAnswer: %v", err)
	}
	url := "/uploads/attempts/x/q1_1.pdf"
	if err := e.attempt.AttachAnswerFile(res.AttemptID, f.student.ID, q.ID, url); err != nil {
		t.Fatalf("AttachAnswerFile: %v", err)
	}
	if _, err := e.attempt.SaveAnswer(ctx, res.AttemptID, f.student.ID, SaveAnswerRequest{
		QuestionID: q.ID, AnswerText: "second draft",
	}); err != nil {
		t.Fatalf("second SaveAnswer: %v", err)
	}

	answer, err := e.answerRepo.FindByAttemptAndQuestion(res.AttemptID, q.ID)
	if err != nil {
		t.Fatalf("FindByAttemptAndQuestion: %v", err)
	}
	if answer.AnswerText != "second draft" {
		t.Errorf("answer text = %q, want %q", answer.AnswerText, "second draft")
	}
	if answer.AttachmentURL != url {
		t.Errorf("re-answer dropped the attachment: %q, want %q", answer.AttachmentURL, url)
	}
}

func TestSaveAnswer_RejectsQuestionOutsideSample(t *testing.T) {
	e := newTestEnv(t)
	f := e.seedExam(t, 6, 0, 3)
	ctx := context.Background()

	res, err := e.attempt.StartAttempt(ctx, f.student.ID, f.session.ID, "", "", "")
	if err != nil {
		t.Fatalf("StartAttempt: %v", err)
	}

	presented := map[uint]bool{}
	for _, q := range res.Questions {
		presented[q.ID] = true
	}
	all, err := e.questionRepo.ListActiveByExam(f.exam.ID)
	if err != nil {
		t.Fatalf("list bank: %v", err)
	}
	var outside uint
	for _, q := range all {
		if !presented[q.ID] {
			outside = q.ID
			break
		}
	}
	if outside == 0 {
		t.Fatal("no bank question outside the sample")
	}

	_, err = e.attempt.SaveAnswer(ctx, res.AttemptID, f.student.ID, SaveAnswerRequest{
		QuestionID: outside, SelectedOptionKey: "B",
	})
	wantStatus(t, err, http.StatusBadRequest)
}

func TestSaveAnswer_PastDeadlineForcesSubmit(t *testing.T) {
	e := newTestEnv(t)
	f := e.seedExam(t, 2, 0, 2)
	ctx := context.Background()

	res, err := e.attempt.StartAttempt(ctx, f.student.ID, f.session.ID, "", "", "")
	if err != nil {
		t.Fatalf("StartAttempt: %v", err)
	}

	f.session.EndTime = time.Now().Add(-time.Minute)
	if err := e.db.Save(&f.session).Error; err != nil {
		t.Fatalf("expire session: %v", err)
	}

	_, err = e.attempt.SaveAnswer(ctx, res.AttemptID, f.student.ID, SaveAnswerRequest{
		QuestionID: res.Questions[0].ID, SelectedOptionKey: "B",
	})
	wantStatus(t, err, http.StatusBadRequest)

	stored, err := e.attemptRepo.FindByID(res.AttemptID)
	if err != nil {
		t.Fatalf("load attempt: %v", err)
	}
	if !stored.IsSubmitted || !stored.AutoSubmitted {
		t.Errorf("late write must auto-submit: submitted=%v auto=%v", stored.IsSubmitted, stored.AutoSubmitted)
	}
	if stored.OpenSlot != nil {
		t.Error("auto-submitted attempt must release the open slot")
	}
}

func TestReapExpired(t *testing.T) {
	e := newTestEnv(t)
	f := e.seedExam(t, 2, 0, 2)
	ctx := context.Background()

	res, err := e.attempt.StartAttempt(ctx, f.student.ID, f.session.ID, "", "", "")
	if err != nil {
		t.Fatalf("StartAttempt: %v", err)
	}
	if _, err := e.attempt.SaveAnswer(ctx, res.AttemptID, f.student.ID, SaveAnswerRequest{
		QuestionID: res.Questions[0].ID, SelectedOptionKey: "B",
	}); err != nil {
		t.Fatalf("SaveAnswer: %v", err)
	}

	f.session.EndTime = time.Now().Add(-time.Minute)
	if err := e.db.Save(&f.session).Error; err != nil {
		t.Fatalf("expire session: %v", err)
	}

	if err := e.attempt.ReapExpired(time.Now()); err != nil {
		t.Fatalf("ReapExpired: %v", err)
	}

	stored, err := e.attemptRepo.FindByID(res.AttemptID)
	if err != nil {
		t.Fatalf("load attempt: %v", err)
	}
	if !stored.IsSubmitted || !stored.AutoSubmitted {
		t.Errorf("reaper must close expired attempts: submitted=%v auto=%v", stored.IsSubmitted, stored.AutoSubmitted)
	}
	if stored.ScoreAchieved != 5 {
		t.Errorf("reaped score = %v, want 5", stored.ScoreAchieved)
	}
}

func TestListStudentAttempts_ScoreHiddenUntilPublished(t *testing.T) {
	e := newTestEnv(t)
	f := e.seedExam(t, 2, 0, 2)
	ctx := context.Background()

	res, err := e.attempt.StartAttempt(ctx, f.student.ID, f.session.ID, "", "", "")
	if err != nil {
		t.Fatalf("StartAttempt: %v", err)
	}
	if _, err := e.attempt.SubmitAttempt(ctx, res.AttemptID, f.student.ID, false); err != nil {
		t.Fatalf("SubmitAttempt: %v", err)
	}

	summaries, err := e.attempt.ListStudentAttempts(f.student.ID)
	if err != nil {
		t.Fatalf("ListStudentAttempts: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("got %d summaries, want 1", len(summaries))
	}
	if summaries[0].ScoreAchieved != nil {
		t.Error("score must be hidden before results are published")
	}

	f.exam.Status = model.ExamStatusResultsPublished
	if err := e.db.Save(&f.exam).Error; err != nil {
		t.Fatalf("publish results: %v", err)
	}

	summaries, err = e.attempt.ListStudentAttempts(f.student.ID)
	if err != nil {
		t.Fatalf("ListStudentAttempts after publish: %v", err)
	}
	if summaries[0].ScoreAchieved == nil {
		t.Error("score must be visible after publication")
	}
}
