package model

// SessionAssignment binds a student to an exam session. Its existence is a
// precondition for starting an attempt.
type SessionAssignment struct {
	BaseModel
	ExamSessionID uint `gorm:"index;type:bigint unsigned;uniqueIndex:idx_session_student" json:"examSessionId"`
	StudentID     uint `gorm:"index;type:bigint unsigned;uniqueIndex:idx_session_student" json:"studentId"`
	AssignedBy    uint `gorm:"type:bigint unsigned" json:"assignedBy"`
}

func (SessionAssignment) TableName() string {
	return "session_assignments"
}
