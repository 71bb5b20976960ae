package model

import "time"

// AttemptAnswer is one student's answer to one question of one attempt.
// Rows are unique per (attempt, question); re-answering overwrites in place.
//
// MarksAwarded is nil until graded. Objective answers are graded at write
// time; subjective ones stay nil until a grader enters marks.
type AttemptAnswer struct {
	UUIDBase
	AttemptID  string `gorm:"size:36;index;uniqueIndex:idx_attempt_question" json:"attemptId"`
	QuestionID uint   `gorm:"type:bigint unsigned;index;uniqueIndex:idx_attempt_question" json:"questionId"`

	SelectedOptionKey string `gorm:"size:10" json:"selectedOptionKey,omitempty"`
	AnswerText        string `gorm:"type:text" json:"answerText,omitempty"`
	AttachmentURL     string `gorm:"size:512" json:"attachmentUrl,omitempty"`

	IsCorrect    *bool    `json:"isCorrect,omitempty"`
	MarksAwarded *float64 `json:"marksAwarded,omitempty"`

	GraderID *uint      `gorm:"type:bigint unsigned" json:"graderId,omitempty"`
	GradedAt *time.Time `json:"gradedAt,omitempty"`
}

func (AttemptAnswer) TableName() string {
	return "attempt_answers"
}
