package service

import (
	"context"
	"errors"
	"lingua_backend/internal/config"
	"lingua_backend/internal/model"
	"lingua_backend/internal/repository"
	"lingua_backend/internal/util"
	"lingua_backend/pkg/logger"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthService struct {
	UserRepo    *repository.UserRepository
	Progression *ProgressionService
	Cfg         *config.Config
}

func NewAuthService(userRepo *repository.UserRepository, progression *ProgressionService, cfg *config.Config) *AuthService {
	return &AuthService{
		UserRepo:    userRepo,
		Progression: progression,
		Cfg:         cfg,
	}
}

// Register 创建用户并为每个主题初始化第 1 级
func (s *AuthService) Register(ctx context.Context, user *model.User) error {
	_, err := s.UserRepo.FindByEmail(ctx, user.Email)
	if err == nil {
		return util.ErrEmailRegistered
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.Password = string(hashedPassword)
	if err := s.UserRepo.Create(ctx, user); err != nil {
		return err
	}

	if err := s.Progression.InitializeUserLevels(ctx, user.ID); err != nil {
		// 等级记录会在首次创建任务时补建
		logger.Log.Error("Failed to initialize user levels", zap.String("user_id", user.ID), zap.Error(err))
	}
	return nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (string, *model.User, error) {
	user, err := s.UserRepo.FindByEmail(ctx, email)
	if err != nil {
		return "", nil, util.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", nil, util.ErrInvalidCredentials
	}

	now := time.Now()
	user.LastLogin = &now
	if err := s.UserRepo.UpdateLastLogin(ctx, user); err != nil {
		logger.Log.Warn("Failed to update last login", zap.String("user_id", user.ID), zap.Error(err))
	}

	token, err := util.GenerateJWT(user, s.Cfg.JWT.Secret, s.Cfg.JWT.ExpireTime)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

func (s *AuthService) GetUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.UserRepo.FindByID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrUserNotFound
	}
	return user, err
}
