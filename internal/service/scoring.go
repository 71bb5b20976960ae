package service

import (
	"campus_exam_backend/internal/model"
)

// GradeObjective scores an objective answer by exact comparison of the
// selected option key against the question's correct key. Empty or
// non-matching selections score zero.
func GradeObjective(q *model.BankQuestion, selectedKey string) (isCorrect bool, marks float64) {
	if selectedKey != "" && selectedKey == q.CorrectOptionKey {
		return true, q.Marks
	}
	return false, 0
}

// ScoreAggregate is the outcome of aggregating an attempt's answers.
type ScoreAggregate struct {
	Score float64
	// IsGraded is true only when every question in the evaluated set has a
	// non-nil mark. A question with no answer row leaves the attempt
	// ungraded.
	IsGraded bool
	// RequiresManualGrading is true while any subjective question of the set
	// has no manual mark yet.
	RequiresManualGrading bool
}

// AggregateScore sums awarded marks over the evaluated question set. The set
// is the attempt's persisted sampled subset, not the exam's full bank; an
// answer missing from the map counts as zero and keeps the attempt ungraded.
func AggregateScore(questions []model.BankQuestion, answers map[uint]*model.AttemptAnswer) ScoreAggregate {
	agg := ScoreAggregate{IsGraded: true}
	for i := range questions {
		q := &questions[i]
		ans := answers[q.ID]
		if ans == nil || ans.MarksAwarded == nil {
			agg.IsGraded = false
			if !q.QuestionType.IsObjective() {
				agg.RequiresManualGrading = true
			}
			continue
		}
		agg.Score += *ans.MarksAwarded
	}
	return agg
}
