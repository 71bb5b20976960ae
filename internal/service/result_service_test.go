package service

import (
	"campus_exam_backend/internal/model"
	"context"
	"net/http"
	"testing"
)

// submitMixedAttempt runs a full attempt over 2 MCQs (both answered
// correctly, 5 marks each) and 1 essay, then submits it.
func submitMixedAttempt(t *testing.T, e *testEnv, f *fixture) *SubmissionResult {
	t.Helper()
	ctx := context.Background()

	res, err := e.attempt.StartAttempt(ctx, f.student.ID, f.session.ID, "", "", "")
	if err != nil {
		t.Fatalf("StartAttempt: %v", err)
	}
	for _, q := range res.Questions {
		req := SaveAnswerRequest{QuestionID: q.ID}
		if q.QuestionType.IsObjective() {
			req.SelectedOptionKey = "B"
		} else {
			req.AnswerText = "a considered argument"
		}
		if _, err := e.attempt.SaveAnswer(ctx, res.AttemptID, f.student.ID, req); err != nil {
			t.Fatalf("SaveAnswer q%d: %v", q.ID, err)
		}
	}

	sub, err := e.attempt.SubmitAttempt(ctx, res.AttemptID, f.student.ID, false)
	if err != nil {
		t.Fatalf("SubmitAttempt: %v", err)
	}
	return sub
}

func TestGetAttemptResult_StudentRedactedUntilPublished(t *testing.T) {
	e := newTestEnv(t)
	f := e.seedExam(t, 2, 1, 3)
	sub := submitMixedAttempt(t, e, f)

	view, err := e.result.GetAttemptResult(sub.AttemptID, f.student.ID, model.Student)
	if err != nil {
		t.Fatalf("GetAttemptResult: %v", err)
	}

	if view.ScoreAchieved != nil || view.IsGraded != nil {
		t.Error("aggregate score must be hidden from the student before publication")
	}
	for _, a := range view.Answers {
		if a.IsCorrect != nil || a.MarksAwarded != nil {
			t.Errorf("q%d: per-answer grading leaked to student", a.QuestionID)
		}
		if a.CorrectOptionKey != "" || a.Explanation != "" {
			t.Errorf("q%d: answer key leaked to student", a.QuestionID)
		}
		// The student's own content stays visible.
		if a.QuestionType.IsObjective() && a.SelectedOptionKey == "" {
			t.Errorf("q%d: own selection missing", a.QuestionID)
		}
	}

	f.exam.Status = model.ExamStatusResultsPublished
	if err := e.db.Save(&f.exam).Error; err != nil {
		t.Fatalf("publish results: %v", err)
	}

	view, err = e.result.GetAttemptResult(sub.AttemptID, f.student.ID, model.Student)
	if err != nil {
		t.Fatalf("GetAttemptResult after publish: %v", err)
	}
	if view.ScoreAchieved == nil {
		t.Fatal("score must be visible after publication")
	}
	if *view.ScoreAchieved != 10 {
		t.Errorf("score = %v, want 10", *view.ScoreAchieved)
	}
}

func TestGetAttemptResult_CourseStaffSeesDetail(t *testing.T) {
	e := newTestEnv(t)
	f := e.seedExam(t, 2, 1, 3)
	sub := submitMixedAttempt(t, e, f)

	view, err := e.result.GetAttemptResult(sub.AttemptID, f.staff.ID, model.Staff)
	if err != nil {
		t.Fatalf("GetAttemptResult as staff: %v", err)
	}
	if view.ScoreAchieved == nil || view.RequiresManualGrading == nil {
		t.Fatal("staff view must include grading detail")
	}
	if !*view.RequiresManualGrading {
		t.Error("essay still ungraded, manual grading flag expected")
	}

	sawKey := false
	for _, a := range view.Answers {
		if a.QuestionType.IsObjective() && a.CorrectOptionKey == "B" {
			sawKey = true
		}
	}
	if !sawKey {
		t.Error("staff view must include correct option keys")
	}
}

func TestGetAttemptResult_OtherStudentForbidden(t *testing.T) {
	e := newTestEnv(t)
	f := e.seedExam(t, 2, 0, 2)
	sub := submitMixedAttempt(t, e, f)

	other := model.User{Name: "Eve Other", Email: "eve@example.test", Password: "x", Role: model.Student}
	if err := e.db.Create(&other).Error; err != nil {
		t.Fatalf("seed other student: %v", err)
	}

	_, err := e.result.GetAttemptResult(sub.AttemptID, other.ID, model.Student)
	wantStatus(t, err, http.StatusForbidden)
}

func TestGetAttemptResult_OpenAttemptRejected(t *testing.T) {
	e := newTestEnv(t)
	f := e.seedExam(t, 2, 0, 2)

	res, err := e.attempt.StartAttempt(context.Background(), f.student.ID, f.session.ID, "", "", "")
	if err != nil {
		t.Fatalf("StartAttempt: %v", err)
	}

	_, err = e.result.GetAttemptResult(res.AttemptID, f.student.ID, model.Student)
	wantStatus(t, err, http.StatusBadRequest)
}

func TestManualGrading(t *testing.T) {
	e := newTestEnv(t)
	f := e.seedExam(t, 2, 1, 3)
	sub := submitMixedAttempt(t, e, f)

	if sub.IsGraded {
		t.Fatal("attempt with an essay cannot be graded at submit time")
	}
	if !sub.RequiresManualGrading {
		t.Fatal("essay must flag manual grading")
	}
	if sub.ScoreAchieved != 10 {
		t.Fatalf("objective score = %v, want 10", sub.ScoreAchieved)
	}

	pending, err := e.grading.ListPendingManual(f.exam.ID, f.staff.ID, model.Staff)
	if err != nil {
		t.Fatalf("ListPendingManual: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != sub.AttemptID {
		t.Fatalf("pending listing = %+v, want the submitted attempt", pending)
	}

	attempt, err := e.attemptRepo.FindByID(sub.AttemptID)
	if err != nil {
		t.Fatalf("load attempt: %v", err)
	}
	ids, _ := attempt.PresentedQuestionIDs()
	var essayID, mcqID uint
	for _, id := range ids {
		q, err := e.questionRepo.FindByID(id)
		if err != nil {
			t.Fatalf("load question: %v", err)
		}
		if q.QuestionType == model.QuestionTypeEssay {
			essayID = id
		} else {
			mcqID = id
		}
	}

	// Students cannot grade.
	_, err = e.grading.GradeAttempt(f.student.ID, model.Student, sub.AttemptID, []ManualMark{{QuestionID: essayID, Marks: 7}})
	wantStatus(t, err, http.StatusForbidden)

	// Objective questions cannot be marked manually.
	_, err = e.grading.GradeAttempt(f.staff.ID, model.Staff, sub.AttemptID, []ManualMark{{QuestionID: mcqID, Marks: 3}})
	wantStatus(t, err, http.StatusBadRequest)

	// Marks above the question maximum are rejected.
	_, err = e.grading.GradeAttempt(f.staff.ID, model.Staff, sub.AttemptID, []ManualMark{{QuestionID: essayID, Marks: 11}})
	wantStatus(t, err, http.StatusBadRequest)

	result, err := e.grading.GradeAttempt(f.staff.ID, model.Staff, sub.AttemptID, []ManualMark{{QuestionID: essayID, Marks: 7}})
	if err != nil {
		t.Fatalf("GradeAttempt: %v", err)
	}
	if result.ScoreAchieved != 17 {
		t.Errorf("score = %v, want 17", result.ScoreAchieved)
	}
	if !result.IsGraded {
		t.Error("attempt must be graded once manual marks are in")
	}
	if result.RequiresManualGrading {
		t.Error("no manual grading left")
	}

	pending, err = e.grading.ListPendingManual(f.exam.ID, f.staff.ID, model.Staff)
	if err != nil {
		t.Fatalf("ListPendingManual after grading: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("pending listing after grading = %d rows, want 0", len(pending))
	}
}
