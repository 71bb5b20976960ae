package model

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// attemptOpenSlot is the sentinel stored in OpenSlot while an attempt is
// open. Together with the composite unique index it guarantees at most one
// open attempt per (student, session): MySQL ignores NULLs in unique
// indexes, so submitted rows (OpenSlot = NULL) never collide.
const attemptOpenSlot = "open"

// swagger:model ExamAttempt
type ExamAttempt struct {
	UUIDBase
	StudentID     uint `gorm:"index;type:bigint unsigned;uniqueIndex:idx_open_attempt" json:"studentId"`
	ExamID        uint `gorm:"index;type:bigint unsigned" json:"examId"`
	ExamSessionID uint `gorm:"index;type:bigint unsigned;uniqueIndex:idx_open_attempt" json:"examSessionId"`

	OpenSlot *string `gorm:"size:10;uniqueIndex:idx_open_attempt" json:"-"`

	StartTime       time.Time  `json:"startTime"`
	EndTime         *time.Time `json:"endTime,omitempty"`
	IsSubmitted     bool       `gorm:"default:false;index" json:"isSubmitted"`
	IsGraded        bool       `gorm:"default:false" json:"isGraded"`
	AutoSubmitted   bool       `gorm:"default:false" json:"autoSubmitted"`
	ScoreAchieved   float64    `gorm:"default:0" json:"scoreAchieved"`
	TimeUsedSeconds int        `gorm:"default:0" json:"timeUsedSeconds"`

	// QuestionIDs is the sampled subset presented to this attempt, stored at
	// start so scoring and replay work against exactly what the student saw.
	QuestionIDs datatypes.JSON `json:"questionIds"`

	ClientIP        string `gorm:"size:45" json:"clientIp"`
	ClientUserAgent string `gorm:"size:512" json:"clientUserAgent"`
}

func (ExamAttempt) TableName() string {
	return "exam_attempts"
}

// NewOpenSlot returns the OpenSlot value for a freshly created attempt.
func NewOpenSlot() *string {
	s := attemptOpenSlot
	return &s
}

// PresentedQuestionIDs decodes the persisted sampled question-id set.
func (a *ExamAttempt) PresentedQuestionIDs() ([]uint, error) {
	var ids []uint
	if len(a.QuestionIDs) == 0 {
		return ids, nil
	}
	err := json.Unmarshal(a.QuestionIDs, &ids)
	return ids, err
}
