package service

import (
	"context"
	"errors"
	"fmt"
	"lingua_backend/internal/model"
	"lingua_backend/internal/repository"
	"lingua_backend/internal/util"
	"lingua_backend/pkg/logger"
	"lingua_backend/pkg/monitoring"
	"math"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Clock 当前时间来源，测试中可替换
type Clock func() time.Time

// levelScorePolicy 计算某用户某主题某等级的得分
type levelScorePolicy func(ctx context.Context, tasks *repository.TaskRepository, userID, topicName string, level int) (float64, error)

// sumLevelScores 该等级下所有任务分数之和（对话任务完成时使用）
func sumLevelScores(ctx context.Context, tasks *repository.TaskRepository, userID, topicName string, level int) (float64, error) {
	return tasks.SumScores(ctx, userID, topicName, level)
}

// averageCompletedScores 已完成任务分数的平均值，四舍五入；没有已完成任务时为 60
// （显式结算等级时使用）
func averageCompletedScores(ctx context.Context, tasks *repository.TaskRepository, userID, topicName string, level int) (float64, error) {
	avg, count, err := tasks.AverageCompletedScores(ctx, userID, topicName, level)
	if err != nil {
		return 0, err
	}
	if count == 0 {
		return util.DefaultLevelScore, nil
	}
	return math.Round(avg), nil
}

// LevelCompletionResult 显式结算等级的结果，失败时 Success 为 false 并带错误信息
type LevelCompletionResult struct {
	Success     bool    `json:"success"`
	EarnedScore float64 `json:"earnedScore"`
	NextLevel   int     `json:"nextLevel,omitempty"`
	Error       string  `json:"error,omitempty"`
}

// LevelProgress 用户等级记录及其状态
type LevelProgress struct {
	model.UserLevel
	State model.LevelState `json:"state"`
}

// ProgressionService 维护用户等级得分并驱动等级解锁
type ProgressionService struct {
	DB        *gorm.DB
	TaskRepo  *repository.TaskRepository
	LevelRepo *repository.UserLevelRepository
	TopicRepo *repository.TopicRepository
	Clock     Clock
}

func NewProgressionService(
	db *gorm.DB,
	taskRepo *repository.TaskRepository,
	levelRepo *repository.UserLevelRepository,
	topicRepo *repository.TopicRepository,
) *ProgressionService {
	return &ProgressionService{
		DB:        db,
		TaskRepo:  taskRepo,
		LevelRepo: levelRepo,
		TopicRepo: topicRepo,
		Clock:     time.Now,
	}
}

// EnsureUserLevel 记录不存在时创建（得分 0），并发创建不会冲突
func (s *ProgressionService) EnsureUserLevel(ctx context.Context, tx *gorm.DB, userID, topicName string, level int) (bool, error) {
	return s.LevelRepo.WithTx(tx).EnsureExists(ctx, userID, topicName, level)
}

// UpdateLevelScore 每次任务完成后把当前等级得分刷新为所有任务分数之和
func (s *ProgressionService) UpdateLevelScore(ctx context.Context, userID, topicName string, level int) (float64, error) {
	var total float64
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.EnsureUserLevel(ctx, tx, userID, topicName, level); err != nil {
			return err
		}

		sum, err := sumLevelScores(ctx, s.TaskRepo.WithTx(tx), userID, topicName, level)
		if err != nil {
			return err
		}
		if _, err := s.LevelRepo.WithTx(tx).UpdateScore(ctx, userID, topicName, level, sum); err != nil {
			return err
		}
		total = sum
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("update level score: %w", err)
	}
	return total, nil
}

// CompleteLevelFromConversation 对话任务完成时结算当前等级并解锁下一等级。
// 得分写入与下一等级的创建在同一事务中；已存在的下一等级记录保持不变。
func (s *ProgressionService) CompleteLevelFromConversation(ctx context.Context, userID, topicName string, level int) (float64, error) {
	var (
		earned   float64
		unlocked bool
	)
	now := s.Clock()

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		levels := s.LevelRepo.WithTx(tx)
		if _, err := levels.EnsureExists(ctx, userID, topicName, level); err != nil {
			return err
		}

		sum, err := sumLevelScores(ctx, s.TaskRepo.WithTx(tx), userID, topicName, level)
		if err != nil {
			return err
		}
		if _, err := levels.Complete(ctx, userID, topicName, level, sum, now); err != nil {
			return err
		}

		created, err := levels.EnsureExists(ctx, userID, topicName, level+1)
		if err != nil {
			return err
		}
		earned, unlocked = sum, created
		return nil
	})
	if err != nil {
		logger.Log.Error("Failed to complete level from conversation",
			zap.String("user_id", userID),
			zap.String("topic", topicName),
			zap.Int("level", level),
			zap.Error(err))
		return 0, fmt.Errorf("complete level: %w", err)
	}

	if unlocked {
		monitoring.LevelsUnlocked.Inc()
	}
	logger.Log.Info("Level completed",
		zap.String("user_id", userID),
		zap.String("topic", topicName),
		zap.Int("level", level),
		zap.Float64("earned_score", earned),
		zap.Bool("next_unlocked", unlocked))
	return earned, nil
}

// CompleteUserLevel 显式结算：得分为已完成任务的平均分，
// 若主题定义了下一等级则同时创建其记录。错误不会返回给调用方，而是写入结果。
func (s *ProgressionService) CompleteUserLevel(ctx context.Context, userID, topicName string, level int) LevelCompletionResult {
	if level <= 0 {
		return LevelCompletionResult{Error: util.ErrInvalidLevel.Error()}
	}

	var result LevelCompletionResult
	now := s.Clock()

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		levels := s.LevelRepo.WithTx(tx)

		exists, err := s.TopicRepo.WithTx(tx).LevelExists(ctx, topicName, level)
		if err != nil {
			return err
		}
		if !exists {
			return util.ErrTopicLevelNotFound
		}

		score, err := averageCompletedScores(ctx, s.TaskRepo.WithTx(tx), userID, topicName, level)
		if err != nil {
			return err
		}

		if _, err := levels.EnsureExists(ctx, userID, topicName, level); err != nil {
			return err
		}
		if _, err := levels.Complete(ctx, userID, topicName, level, score, now); err != nil {
			return err
		}
		result.EarnedScore = score

		hasNext, err := s.TopicRepo.WithTx(tx).LevelExists(ctx, topicName, level+1)
		if err != nil {
			return err
		}
		if hasNext {
			if _, err := levels.EnsureExists(ctx, userID, topicName, level+1); err != nil {
				return err
			}
			result.NextLevel = level + 1
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, util.ErrTopicLevelNotFound) {
			logger.Log.Error("Failed to complete user level",
				zap.String("user_id", userID),
				zap.String("topic", topicName),
				zap.Int("level", level),
				zap.Error(err))
		}
		return LevelCompletionResult{Error: err.Error()}
	}

	result.Success = true
	return result
}

// InitializeUserLevels 为所有主题创建第 1 级记录
func (s *ProgressionService) InitializeUserLevels(ctx context.Context, userID string) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		names, err := s.TopicRepo.WithTx(tx).FindNames(ctx)
		if err != nil {
			return err
		}
		for _, name := range names {
			if _, err := s.EnsureUserLevel(ctx, tx, userID, name, 1); err != nil {
				return fmt.Errorf("initialize %s: %w", name, err)
			}
		}
		return nil
	})
}

func (s *ProgressionService) LevelState(ctx context.Context, userID, topicName string, level int) (model.LevelState, error) {
	ul, err := s.LevelRepo.Find(ctx, userID, topicName, level)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.LevelNotStarted, nil
	}
	if err != nil {
		return "", err
	}
	return ul.State(), nil
}

func (s *ProgressionService) GetUserLevels(ctx context.Context, userID, topicName string) ([]LevelProgress, error) {
	levels, err := s.LevelRepo.FindByUser(ctx, userID, topicName)
	if err != nil {
		return nil, err
	}
	out := make([]LevelProgress, 0, len(levels))
	for i := range levels {
		out = append(out, LevelProgress{UserLevel: levels[i], State: levels[i].State()})
	}
	return out, nil
}

func (s *ProgressionService) ListTopics(ctx context.Context) ([]model.Topic, error) {
	return s.TopicRepo.FindAll(ctx)
}
