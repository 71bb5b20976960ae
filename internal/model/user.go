package model

import "time"

type UserRole string

const (
	Student UserRole = "student"
	Staff   UserRole = "staff"
	Admin   UserRole = "admin"
)

// swagger:model User
type User struct {
	BaseModel
	Name     string   `gorm:"size:100;not null" json:"name"`
	Email    string   `gorm:"size:100;unique;not null" json:"email"`
	Password string   `gorm:"size:100;not null" json:"-"`
	Role     UserRole `gorm:"size:20;default:'student'" json:"role"`
	RegNo    string   `gorm:"size:30;index" json:"regNo"` // student registration number

	Disabled bool `gorm:"default:false" json:"disabled"`
	// CanManageExams grants staff the exam-management capability (create
	// exams, view any result, enter manual marks).
	CanManageExams bool `gorm:"default:false" json:"canManageExams"`

	LastLogin time.Time `gorm:"autoCreateTime" json:"lastLogin"`
	LastSeen  time.Time `gorm:"autoCreateTime" json:"lastSeen"`
}

func (User) TableName() string {
	return "users"
}
