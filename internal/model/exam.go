package model

type ExamStatus string

const (
	ExamStatusDraft            ExamStatus = "draft"
	ExamStatusActive           ExamStatus = "active"
	ExamStatusGrading          ExamStatus = "grading"
	ExamStatusResultsPublished ExamStatus = "results_published"
	ExamStatusArchived         ExamStatus = "archived"
)

type ExamType string

const (
	ExamTypeRegular ExamType = "regular"
	ExamTypeMakeup  ExamType = "makeup"
)

// swagger:model Exam
type Exam struct {
	BaseModel
	CourseID  uint       `gorm:"index;type:bigint unsigned" json:"courseId"`
	CreatorID uint       `gorm:"index;type:bigint unsigned" json:"creatorId"`
	Title     string     `gorm:"size:255;not null" json:"title"`
	ExamType  ExamType   `gorm:"size:20;default:'regular'" json:"examType"`
	Status    ExamStatus `gorm:"size:30;default:'draft';index" json:"status"`

	DurationMinutes    int `gorm:"default:60" json:"durationMinutes"`
	TotalMarks         int `gorm:"default:100" json:"totalMarks"`
	PassMark           int `gorm:"default:40" json:"passMark"`
	QuestionsToAttempt int `gorm:"default:0" json:"questionsToAttempt"` // sample size per attempt

	// AllowRetake permits a new attempt after a submitted one. Set for
	// makeup exams; everything else is one attempt per session.
	AllowRetake bool `gorm:"default:false" json:"allowRetake"`
}

func (Exam) TableName() string {
	return "exams"
}

// AcceptsAttempts reports whether attempts may be started or modified.
func (e *Exam) AcceptsAttempts() bool {
	return e.Status == ExamStatusActive
}
