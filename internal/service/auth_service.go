package service

import (
	"campus_exam_backend/internal/config"
	"campus_exam_backend/internal/model"
	"campus_exam_backend/internal/repository"
	"campus_exam_backend/internal/util"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthService struct {
	UserRepo *repository.UserRepository
	Cfg      *config.Config
}

func NewAuthService(userRepo *repository.UserRepository, cfg *config.Config) *AuthService {
	return &AuthService{
		UserRepo: userRepo,
		Cfg:      cfg,
	}
}

func (s *AuthService) Register(user *model.User) error {
	_, err := s.UserRepo.FindByEmail(user.Email)
	if err == nil {
		return util.ConflictError("email already registered")
	} else if err != gorm.ErrRecordNotFound {
		return util.InternalError(err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return util.InternalError(err)
	}
	user.Password = string(hashedPassword)
	if err := s.UserRepo.Create(user); err != nil {
		return util.InternalError(err)
	}
	return nil
}

func (s *AuthService) Login(email, password string) (string, error) {
	user, err := s.UserRepo.FindByEmail(email)
	if err != nil {
		return "", util.AuthorizationError("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", util.AuthorizationError("invalid credentials")
	}
	if user.Disabled {
		return "", util.AuthorizationError("account is disabled")
	}

	s.UserRepo.UpdateLastLogin(user.ID)

	token, err := util.GenerateJWT(user, s.Cfg.JWT.Secret, s.Cfg.JWT.ExpireTime)
	if err != nil {
		return "", util.InternalError(err)
	}
	return token, nil
}
