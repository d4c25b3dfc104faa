package service

import (
	"context"
	"errors"
	"fmt"
	"lingua_backend/internal/model"
	"lingua_backend/internal/repository"
	"lingua_backend/internal/util"
	"lingua_backend/pkg/lock"
	"lingua_backend/pkg/logger"
	"lingua_backend/pkg/monitoring"
	"lingua_backend/pkg/tracing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// WordLinkResult 批量关联词汇的结果，单个词失败不影响其他词
type WordLinkResult struct {
	Linked []string `json:"linked"`
	Failed []string `json:"failed"`
}

// TaskService 任务的创建、完成与查询
type TaskService struct {
	DB          *gorm.DB
	TaskRepo    *repository.TaskRepository
	UserRepo    *repository.UserRepository
	TopicRepo   *repository.TopicRepository
	WordRepo    *repository.WordRepository
	Progression *ProgressionService
	// Locker 为 nil 时只依赖唯一索引防止重复创建
	Locker lock.Locker
	Clock  Clock
	IDGen  func() string
}

func NewTaskService(
	db *gorm.DB,
	taskRepo *repository.TaskRepository,
	userRepo *repository.UserRepository,
	topicRepo *repository.TopicRepository,
	wordRepo *repository.WordRepository,
	progression *ProgressionService,
	locker lock.Locker,
) *TaskService {
	return &TaskService{
		DB:          db,
		TaskRepo:    taskRepo,
		UserRepo:    userRepo,
		TopicRepo:   topicRepo,
		WordRepo:    wordRepo,
		Progression: progression,
		Locker:      locker,
		Clock:       time.Now,
		IDGen:       model.GenerateUUID,
	}
}

func taskLockKey(userID, topicName string, level int, taskType model.TaskType) string {
	return fmt.Sprintf("task:%s:%s:%d:%s", userID, topicName, level, taskType)
}

// CreateTask 返回 (用户, 主题, 等级, 类型) 上唯一的未完成任务，不存在时创建。
// created 表示本次调用是否插入了新任务。
func (s *TaskService) CreateTask(ctx context.Context, userID, topicName string, level int, taskType model.TaskType) (task *model.Task, created bool, err error) {
	if !taskType.Valid() {
		return nil, false, util.ErrInvalidTaskType
	}
	if level <= 0 {
		return nil, false, util.ErrInvalidLevel
	}

	ctx, span := tracing.StartSpan(ctx, "TaskService.CreateTask",
		attribute.String("topic", topicName),
		attribute.Int("level", level),
		attribute.String("task_type", taskType.String()))
	defer span.End()

	if s.Locker != nil {
		unlock, err := s.Locker.Lock(ctx, taskLockKey(userID, topicName, level, taskType))
		if err != nil {
			return nil, false, fmt.Errorf("acquire task lock: %w", err)
		}
		defer unlock()
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		exists, err := s.UserRepo.WithTx(tx).Exists(ctx, userID)
		if err != nil {
			return err
		}
		if !exists {
			return util.ErrUserNotFound
		}

		exists, err = s.TopicRepo.WithTx(tx).LevelExists(ctx, topicName, level)
		if err != nil {
			return err
		}
		if !exists {
			return util.ErrTopicLevelNotFound
		}

		tasks := s.TaskRepo.WithTx(tx)
		existing, err := tasks.FindOpen(ctx, userID, topicName, level, taskType)
		if err == nil {
			task = existing
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		zero := 0.0
		slot := model.OpenSlotValue
		candidate := &model.Task{
			ID:        s.IDGen(),
			UserID:    userID,
			TopicName: topicName,
			Level:     level,
			TaskType:  taskType,
			OpenSlot:  &slot,
			Score:     &zero,
			CreatedAt: s.Clock(),
		}
		inserted, err := tasks.CreateIfAbsent(ctx, candidate)
		if err != nil {
			return err
		}
		if !inserted {
			// 其他实例抢先插入，返回其任务
			existing, err := tasks.FindOpen(ctx, userID, topicName, level, taskType)
			if err != nil {
				return util.ErrTaskNotCreated
			}
			task = existing
			return nil
		}

		if _, err := s.Progression.EnsureUserLevel(ctx, tx, userID, topicName, level); err != nil {
			return err
		}
		task, created = candidate, true
		return nil
	})
	if err != nil {
		if !isReferenceError(err) {
			logger.Log.Error("Failed to create task",
				zap.String("user_id", userID),
				zap.String("topic", topicName),
				zap.Int("level", level),
				zap.Stringer("task_type", taskType),
				zap.Error(err))
		}
		return nil, false, err
	}

	if created {
		monitoring.TasksCreated.WithLabelValues(taskType.String()).Inc()
	}
	return task, created, nil
}

func isReferenceError(err error) bool {
	return errors.Is(err, util.ErrUserNotFound) || errors.Is(err, util.ErrTopicLevelNotFound)
}

// CompleteTask 写入完成时间、分数与用时，随后刷新等级得分；
// 对话任务还会结算当前等级并解锁下一等级。
// 等级更新失败只记录日志，不回滚任务的完成状态。
func (s *TaskService) CompleteTask(ctx context.Context, taskID string, score float64, durationSeconds *int) (*model.Task, error) {
	if score < 0 {
		return nil, util.ErrInvalidScore
	}
	if durationSeconds != nil && *durationSeconds < 0 {
		return nil, util.ErrInvalidDuration
	}

	ctx, span := tracing.StartSpan(ctx, "TaskService.CompleteTask", attribute.String("task_id", taskID))
	defer span.End()

	task, err := s.TaskRepo.FindByID(ctx, taskID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrTaskNotFound
	}
	if err != nil {
		return nil, err
	}
	if !task.IsOpen() {
		return nil, util.ErrTaskAlreadyCompleted
	}

	now := s.Clock()
	duration := elapsedSeconds(task.CreatedAt, now)
	if durationSeconds != nil {
		duration = *durationSeconds
	}

	rows, err := s.TaskRepo.MarkCompleted(ctx, taskID, now, score, duration)
	if err != nil {
		logger.Log.Error("Failed to complete task", zap.String("task_id", taskID), zap.Error(err))
		return nil, err
	}
	if rows == 0 {
		return nil, util.ErrTaskAlreadyCompleted
	}

	task.CompletedAt = &now
	task.Score = &score
	task.DurationSeconds = &duration
	task.OpenSlot = nil
	monitoring.TasksCompleted.WithLabelValues(task.TaskType.String()).Inc()

	if _, err := s.Progression.UpdateLevelScore(ctx, task.UserID, task.TopicName, task.Level); err != nil {
		logger.Log.Error("Failed to update level score",
			zap.String("task_id", taskID),
			zap.String("user_id", task.UserID),
			zap.Error(err))
	}

	if task.TaskType.CompletesLevel() {
		if _, err := s.Progression.CompleteLevelFromConversation(ctx, task.UserID, task.TopicName, task.Level); err != nil {
			logger.Log.Error("Failed to complete level",
				zap.String("task_id", taskID),
				zap.String("user_id", task.UserID),
				zap.Error(err))
		}
	}

	return task, nil
}

// elapsedSeconds 整秒，时钟回拨时为 0
func elapsedSeconds(start, end time.Time) int {
	d := end.Sub(start)
	if d < 0 {
		return 0
	}
	return int(d / time.Second)
}

// AddWordsToTask 逐个关联词汇，重复关联视为成功；不存在或写入失败的词计入 Failed
func (s *TaskService) AddWordsToTask(ctx context.Context, taskID string, wordIDs []string) (*WordLinkResult, error) {
	result := &WordLinkResult{Linked: []string{}, Failed: []string{}}
	if len(wordIDs) == 0 {
		return result, nil
	}

	if _, err := s.TaskRepo.FindByID(ctx, taskID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrTaskNotFound
		}
		return nil, err
	}

	seen := make(map[string]struct{}, len(wordIDs))
	for _, wordID := range wordIDs {
		if _, dup := seen[wordID]; dup {
			continue
		}
		seen[wordID] = struct{}{}

		if _, err := s.WordRepo.FindByID(ctx, wordID); err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				logger.Log.Warn("Failed to look up word",
					zap.String("task_id", taskID),
					zap.String("word_id", wordID),
					zap.Error(err))
			}
			result.Failed = append(result.Failed, wordID)
			continue
		}

		if err := s.TaskRepo.LinkWord(ctx, taskID, wordID); err != nil {
			logger.Log.Warn("Failed to link word to task",
				zap.String("task_id", taskID),
				zap.String("word_id", wordID),
				zap.Error(err))
			result.Failed = append(result.Failed, wordID)
			continue
		}
		result.Linked = append(result.Linked, wordID)
	}

	return result, nil
}

// GetUserTasks 未完成的任务在前，各组内按创建时间倒序
func (s *TaskService) GetUserTasks(ctx context.Context, userID, topicName string) ([]model.Task, error) {
	return s.TaskRepo.FindByUser(ctx, userID, topicName)
}

// GetTask 只允许任务所有者查看
func (s *TaskService) GetTask(ctx context.Context, userID, taskID string) (*model.Task, error) {
	task, err := s.TaskRepo.FindByID(ctx, taskID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrTaskNotFound
	}
	if err != nil {
		return nil, err
	}
	if task.UserID != userID {
		return nil, util.ErrPermissionDenied
	}
	return task, nil
}

func (s *TaskService) GetTaskWords(ctx context.Context, taskID string) ([]model.Word, error) {
	return s.TaskRepo.FindWords(ctx, taskID)
}
