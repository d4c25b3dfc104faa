package repository

import (
	"context"
	"database/sql"
	"lingua_backend/internal/model"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TaskRepository struct {
	DB *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{DB: db}
}

// WithTx 返回绑定到事务的仓储
func (r *TaskRepository) WithTx(tx *gorm.DB) *TaskRepository {
	if tx == nil {
		return r
	}
	return &TaskRepository{DB: tx}
}

func (r *TaskRepository) FindByID(ctx context.Context, id string) (*model.Task, error) {
	var task model.Task
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *TaskRepository) FindOpen(ctx context.Context, userID, topicName string, level int, taskType model.TaskType) (*model.Task, error) {
	var task model.Task
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND topic_name = ? AND level = ? AND task_type = ? AND completed_at IS NULL",
			userID, topicName, level, taskType).
		First(&task).Error
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// CreateIfAbsent 依赖 idx_task_open 唯一索引，已有未完成任务时不插入
func (r *TaskRepository) CreateIfAbsent(ctx context.Context, task *model.Task) (bool, error) {
	result := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(task)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// MarkCompleted 只更新未完成的任务，返回受影响行数
func (r *TaskRepository) MarkCompleted(ctx context.Context, id string, completedAt time.Time, score float64, durationSeconds int) (int64, error) {
	result := r.DB.WithContext(ctx).
		Model(&model.Task{}).
		Where("id = ? AND completed_at IS NULL", id).
		Updates(map[string]interface{}{
			"completed_at":     completedAt,
			"score":            score,
			"duration_seconds": durationSeconds,
			"open_slot":        nil,
		})
	return result.RowsAffected, result.Error
}

func (r *TaskRepository) UpdateSourceText(ctx context.Context, id, text string) error {
	return r.DB.WithContext(ctx).
		Model(&model.Task{}).
		Where("id = ?", id).
		Update("source_text", text).Error
}

// FindByUser 未完成任务在前，组内按创建时间倒序
func (r *TaskRepository) FindByUser(ctx context.Context, userID, topicName string) ([]model.Task, error) {
	var tasks []model.Task
	query := r.DB.WithContext(ctx).Where("user_id = ?", userID)
	if topicName != "" {
		query = query.Where("topic_name = ?", topicName)
	}
	err := query.
		Order("CASE WHEN completed_at IS NULL THEN 0 ELSE 1 END").
		Order("created_at DESC").
		Find(&tasks).Error
	return tasks, err
}

// SumScores 汇总某用户某主题某等级下所有任务的分数
func (r *TaskRepository) SumScores(ctx context.Context, userID, topicName string, level int) (float64, error) {
	var sum sql.NullFloat64
	err := r.DB.WithContext(ctx).
		Model(&model.Task{}).
		Select("SUM(score)").
		Where("user_id = ? AND topic_name = ? AND level = ?", userID, topicName, level).
		Row().Scan(&sum)
	if err != nil {
		return 0, err
	}
	return sum.Float64, nil
}

// AverageCompletedScores 只统计已完成的任务
func (r *TaskRepository) AverageCompletedScores(ctx context.Context, userID, topicName string, level int) (float64, int64, error) {
	var (
		count int64
		avg   sql.NullFloat64
	)
	err := r.DB.WithContext(ctx).
		Model(&model.Task{}).
		Select("COUNT(*), AVG(score)").
		Where("user_id = ? AND topic_name = ? AND level = ? AND completed_at IS NOT NULL AND score IS NOT NULL",
			userID, topicName, level).
		Row().Scan(&count, &avg)
	if err != nil {
		return 0, 0, err
	}
	return avg.Float64, count, nil
}

type taskTypeCount struct {
	TaskType model.TaskType
	Count    int64
}

func (r *TaskRepository) CountOpenByType(ctx context.Context) (map[model.TaskType]int64, error) {
	var rows []taskTypeCount
	err := r.DB.WithContext(ctx).
		Model(&model.Task{}).
		Select("task_type, COUNT(*) AS count").
		Where("completed_at IS NULL").
		Group("task_type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[model.TaskType]int64, len(model.AllTaskTypes))
	for _, t := range model.AllTaskTypes {
		counts[t] = 0
	}
	for _, row := range rows {
		counts[row.TaskType] = row.Count
	}
	return counts, nil
}

// LinkWord 重复关联静默忽略
func (r *TaskRepository) LinkWord(ctx context.Context, taskID, wordID string) error {
	return r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.TaskWord{TaskID: taskID, WordID: wordID}).Error
}

func (r *TaskRepository) FindWords(ctx context.Context, taskID string) ([]model.Word, error) {
	var words []model.Word
	err := r.DB.WithContext(ctx).
		Joins("JOIN task_words ON task_words.word_id = words.id").
		Where("task_words.task_id = ?", taskID).
		Order("task_words.id ASC").
		Find(&words).Error
	return words, err
}
