package service

import (
	"campus_exam_backend/internal/model"
	"campus_exam_backend/internal/repository"
)

// AccessPolicy resolves whether a viewer holds the privileged capability for
// an exam: administrators always, staff with the exam-management capability,
// and staff who own or lecture the exam's course.
type AccessPolicy struct {
	UserRepo   *repository.UserRepository
	CourseRepo *repository.CourseRepository
}

func NewAccessPolicy(userRepo *repository.UserRepository, courseRepo *repository.CourseRepository) *AccessPolicy {
	return &AccessPolicy{UserRepo: userRepo, CourseRepo: courseRepo}
}

func (p *AccessPolicy) IsPrivileged(viewerID uint, role model.UserRole, courseID uint) (bool, error) {
	switch role {
	case model.Admin:
		return true, nil
	case model.Staff:
		viewer, err := p.UserRepo.FindByID(viewerID)
		if err != nil {
			return false, err
		}
		if viewer.CanManageExams {
			return true, nil
		}
		return p.CourseRepo.IsCourseStaff(courseID, viewerID)
	default:
		return false, nil
	}
}
