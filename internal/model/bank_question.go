package model

import "gorm.io/datatypes"

type QuestionType string

const (
	QuestionTypeMCQ         QuestionType = "mcq"
	QuestionTypeTrueFalse   QuestionType = "true_false"
	QuestionTypeShortAnswer QuestionType = "short_answer"
	QuestionTypeEssay       QuestionType = "essay"
)

// IsObjective reports whether answers of this type are graded synchronously
// at write time. Everything else waits for manual marks.
func (t QuestionType) IsObjective() bool {
	return t == QuestionTypeMCQ || t == QuestionTypeTrueFalse
}

// QuestionOption is one selectable option of an objective question. The
// correct key is stored on the question row, never inside Options, so option
// sets can be sent to students as-is.
type QuestionOption struct {
	Key  string `json:"key"`
	Text string `json:"text"`
}

// swagger:model BankQuestion
type BankQuestion struct {
	BaseModel
	ExamID       uint           `gorm:"index;type:bigint unsigned" json:"examId"`
	QuestionType QuestionType   `gorm:"size:30;not null" json:"questionType"`
	Text         string         `gorm:"type:text;not null" json:"text"`
	Marks        float64        `gorm:"default:0" json:"marks"`
	Options      datatypes.JSON `json:"options"` // []QuestionOption, empty for subjective types

	CorrectOptionKey string `gorm:"size:10" json:"-"`
	Explanation      string `gorm:"type:text" json:"-"`

	DisplayOrder int  `gorm:"default:0" json:"displayOrder"`
	IsActive     bool `gorm:"default:true" json:"isActive"` // eligible for sampling
}

func (BankQuestion) TableName() string {
	return "bank_questions"
}
