package repository

import (
	"campus_exam_backend/internal/model"

	"gorm.io/gorm"
)

type CourseRepository struct {
	DB *gorm.DB
}

func NewCourseRepository(db *gorm.DB) *CourseRepository {
	return &CourseRepository{DB: db}
}

func (r *CourseRepository) FindByID(id uint) (*model.Course, error) {
	var course model.Course
	if err := r.DB.First(&course, id).Error; err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *CourseRepository) Create(course *model.Course) error {
	return r.DB.Create(course).Error
}

func (r *CourseRepository) AssignLecturer(courseID, staffID uint) error {
	return r.DB.Create(&model.CourseLecturer{CourseID: courseID, StaffID: staffID}).Error
}

// IsCourseStaff reports whether the staff member owns the course or is an
// assigned lecturer on it.
func (r *CourseRepository) IsCourseStaff(courseID, staffID uint) (bool, error) {
	var course model.Course
	if err := r.DB.First(&course, courseID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return false, nil
		}
		return false, err
	}
	if course.OwnerID == staffID {
		return true, nil
	}
	var count int64
	err := r.DB.Model(&model.CourseLecturer{}).
		Where("course_id = ? AND staff_id = ?", courseID, staffID).
		Count(&count).Error
	return count > 0, err
}
