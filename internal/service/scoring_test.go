package service

import (
	"campus_exam_backend/internal/model"
	"testing"
)

func boolPtr(b bool) *bool { return &b }

func floatPtr(f float64) *float64 { return &f }

func TestGradeObjective(t *testing.T) {
	q := &model.BankQuestion{
		QuestionType:     model.QuestionTypeMCQ,
		Marks:            5,
		CorrectOptionKey: "B",
	}

	tests := []struct {
		name        string
		selected    string
		wantCorrect bool
		wantMarks   float64
	}{
		{name: "correct key", selected: "B", wantCorrect: true, wantMarks: 5},
		{name: "wrong key", selected: "A", wantCorrect: false, wantMarks: 0},
		{name: "empty selection", selected: "", wantCorrect: false, wantMarks: 0},
		{name: "case sensitive", selected: "b", wantCorrect: false, wantMarks: 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			correct, marks := GradeObjective(q, tc.selected)
			if correct != tc.wantCorrect {
				t.Errorf("isCorrect = %v, want %v", correct, tc.wantCorrect)
			}
			if marks != tc.wantMarks {
				t.Errorf("marks = %v, want %v", marks, tc.wantMarks)
			}
		})
	}
}

func mcqQuestion(id uint, marks float64) model.BankQuestion {
	return model.BankQuestion{
		BaseModel:        model.BaseModel{ID: id},
		QuestionType:     model.QuestionTypeMCQ,
		Marks:            marks,
		CorrectOptionKey: "A",
	}
}

func essayQuestion(id uint, marks float64) model.BankQuestion {
	return model.BankQuestion{
		BaseModel:    model.BaseModel{ID: id},
		QuestionType: model.QuestionTypeEssay,
		Marks:        marks,
	}
}

func gradedAnswer(questionID uint, marks float64) *model.AttemptAnswer {
	correct := marks > 0
	return &model.AttemptAnswer{
		QuestionID:   questionID,
		IsCorrect:    &correct,
		MarksAwarded: &marks,
	}
}

func TestAggregateScore_AllObjectiveGraded(t *testing.T) {
	questions := make([]model.BankQuestion, 0, 10)
	answers := make(map[uint]*model.AttemptAnswer, 10)
	for i := uint(1); i <= 10; i++ {
		questions = append(questions, mcqQuestion(i, 5))
		answers[i] = gradedAnswer(i, 5)
	}

	agg := AggregateScore(questions, answers)
	if agg.Score != 50 {
		t.Errorf("score = %v, want 50", agg.Score)
	}
	if !agg.IsGraded {
		t.Error("expected attempt to be fully graded")
	}
	if agg.RequiresManualGrading {
		t.Error("objective-only attempt must not require manual grading")
	}
}

func TestAggregateScore_UngradedEssaysPending(t *testing.T) {
	var questions []model.BankQuestion
	answers := make(map[uint]*model.AttemptAnswer)
	for i := uint(1); i <= 5; i++ {
		questions = append(questions, mcqQuestion(i, 5))
		answers[i] = gradedAnswer(i, 5)
	}
	for i := uint(6); i <= 10; i++ {
		questions = append(questions, essayQuestion(i, 10))
		answers[i] = &model.AttemptAnswer{QuestionID: i, AnswerText: "a response"}
	}

	agg := AggregateScore(questions, answers)
	if agg.Score != 25 {
		t.Errorf("score = %v, want 25 (objective marks only)", agg.Score)
	}
	if agg.IsGraded {
		t.Error("attempt with ungraded essays must not be marked graded")
	}
	if !agg.RequiresManualGrading {
		t.Error("ungraded essays must flag manual grading")
	}
}

func TestAggregateScore_ManualMarksComplete(t *testing.T) {
	questions := []model.BankQuestion{
		mcqQuestion(1, 5),
		essayQuestion(2, 10),
	}
	answers := map[uint]*model.AttemptAnswer{
		1: gradedAnswer(1, 0),
		2: {QuestionID: 2, AnswerText: "essay", MarksAwarded: floatPtr(7.5), IsCorrect: boolPtr(false)},
	}

	agg := AggregateScore(questions, answers)
	if agg.Score != 7.5 {
		t.Errorf("score = %v, want 7.5", agg.Score)
	}
	if !agg.IsGraded {
		t.Error("expected fully graded once manual marks exist")
	}
	if agg.RequiresManualGrading {
		t.Error("nothing left to grade manually")
	}
}

func TestAggregateScore_MissingAnswerLeavesUngraded(t *testing.T) {
	questions := []model.BankQuestion{
		mcqQuestion(1, 5),
		mcqQuestion(2, 5),
	}
	answers := map[uint]*model.AttemptAnswer{
		1: gradedAnswer(1, 5),
	}

	agg := AggregateScore(questions, answers)
	if agg.Score != 5 {
		t.Errorf("score = %v, want 5", agg.Score)
	}
	if agg.IsGraded {
		t.Error("question with no answer row must keep the attempt ungraded")
	}
	if agg.RequiresManualGrading {
		t.Error("unanswered objective question does not need manual grading")
	}
}

func TestAggregateScore_IgnoresAnswersOutsideSubset(t *testing.T) {
	questions := []model.BankQuestion{mcqQuestion(1, 5)}
	answers := map[uint]*model.AttemptAnswer{
		1:  gradedAnswer(1, 5),
		99: gradedAnswer(99, 100),
	}

	agg := AggregateScore(questions, answers)
	if agg.Score != 5 {
		t.Errorf("score = %v, want 5 (answers outside the presented set do not count)", agg.Score)
	}
}
