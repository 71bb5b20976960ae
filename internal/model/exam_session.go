package model

import "time"

// ExamSession is one scheduled sitting of an exam. Many attempts reference
// one session; the [StartTime, EndTime] window bounds attempt creation and
// answer writes.
type ExamSession struct {
	BaseModel
	ExamID    uint      `gorm:"index;type:bigint unsigned" json:"examId"`
	Title     string    `gorm:"size:255" json:"title"`
	Venue     string    `gorm:"size:255" json:"venue"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
	Capacity  int       `gorm:"default:0" json:"capacity"`
	IsActive  bool      `gorm:"default:true" json:"isActive"`

	// Optional bcrypt hash; when set, startAttempt must present the password.
	AccessPasswordHash string `gorm:"size:100" json:"-"`
}

func (ExamSession) TableName() string {
	return "exam_sessions"
}

// WindowContains reports whether t lies inside the session window.
func (s *ExamSession) WindowContains(t time.Time) bool {
	return !t.Before(s.StartTime) && !t.After(s.EndTime)
}
