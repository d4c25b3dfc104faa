package repository

import (
	"context"
	"lingua_backend/internal/model"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserLevelRepository struct {
	DB *gorm.DB
}

func NewUserLevelRepository(db *gorm.DB) *UserLevelRepository {
	return &UserLevelRepository{DB: db}
}

func (r *UserLevelRepository) WithTx(tx *gorm.DB) *UserLevelRepository {
	if tx == nil {
		return r
	}
	return &UserLevelRepository{DB: tx}
}

// EnsureExists 不存在时以 0 分插入，已有记录保持不变
func (r *UserLevelRepository) EnsureExists(ctx context.Context, userID, topicName string, level int) (bool, error) {
	row := &model.UserLevel{
		UserID:    userID,
		TopicName: topicName,
		Level:     level,
	}
	result := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(row)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *UserLevelRepository) Find(ctx context.Context, userID, topicName string, level int) (*model.UserLevel, error) {
	var ul model.UserLevel
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND topic_name = ? AND level = ?", userID, topicName, level).
		First(&ul).Error
	if err != nil {
		return nil, err
	}
	return &ul, nil
}

func (r *UserLevelRepository) FindByUser(ctx context.Context, userID, topicName string) ([]model.UserLevel, error) {
	var levels []model.UserLevel
	query := r.DB.WithContext(ctx).Where("user_id = ?", userID)
	if topicName != "" {
		query = query.Where("topic_name = ?", topicName)
	}
	err := query.Order("topic_name ASC").Order("level ASC").Find(&levels).Error
	return levels, err
}

func (r *UserLevelRepository) UpdateScore(ctx context.Context, userID, topicName string, level int, score float64) (int64, error) {
	result := r.DB.WithContext(ctx).
		Model(&model.UserLevel{}).
		Where("user_id = ? AND topic_name = ? AND level = ?", userID, topicName, level).
		Update("earned_score", score)
	return result.RowsAffected, result.Error
}

// Complete 写入最终分数与完成时间
func (r *UserLevelRepository) Complete(ctx context.Context, userID, topicName string, level int, score float64, completedAt time.Time) (int64, error) {
	result := r.DB.WithContext(ctx).
		Model(&model.UserLevel{}).
		Where("user_id = ? AND topic_name = ? AND level = ?", userID, topicName, level).
		Updates(map[string]interface{}{
			"earned_score": score,
			"completed_at": completedAt,
		})
	return result.RowsAffected, result.Error
}
