package model

// Course carries only what attempt authorization needs: ownership and
// lecturer assignment. Full course administration lives in another service.
type Course struct {
	BaseModel
	Code    string `gorm:"size:20;uniqueIndex;not null" json:"code"`
	Title   string `gorm:"size:255;not null" json:"title"`
	OwnerID uint   `gorm:"index;type:bigint unsigned" json:"ownerId"` // owning staff member
}

func (Course) TableName() string {
	return "courses"
}

// CourseLecturer links an assigned lecturer to a course.
type CourseLecturer struct {
	BaseModel
	CourseID uint `gorm:"index;type:bigint unsigned;uniqueIndex:idx_course_lecturer" json:"courseId"`
	StaffID  uint `gorm:"index;type:bigint unsigned;uniqueIndex:idx_course_lecturer" json:"staffId"`
}

func (CourseLecturer) TableName() string {
	return "course_lecturers"
}
