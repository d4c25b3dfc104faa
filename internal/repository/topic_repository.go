package repository

import (
	"context"
	"lingua_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TopicRepository struct {
	DB *gorm.DB
}

func NewTopicRepository(db *gorm.DB) *TopicRepository {
	return &TopicRepository{DB: db}
}

func (r *TopicRepository) WithTx(tx *gorm.DB) *TopicRepository {
	if tx == nil {
		return r
	}
	return &TopicRepository{DB: tx}
}

func (r *TopicRepository) FindAll(ctx context.Context) ([]model.Topic, error) {
	var topics []model.Topic
	err := r.DB.WithContext(ctx).
		Preload("Levels", func(db *gorm.DB) *gorm.DB {
			return db.Order("level ASC")
		}).
		Order("name ASC").
		Find(&topics).Error
	return topics, err
}

func (r *TopicRepository) LevelExists(ctx context.Context, topicName string, level int) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).
		Model(&model.TopicLevel{}).
		Where("topic_name = ? AND level = ?", topicName, level).
		Count(&count).Error
	return count > 0, err
}

func (r *TopicRepository) FindNames(ctx context.Context) ([]string, error) {
	var names []string
	err := r.DB.WithContext(ctx).Model(&model.Topic{}).Order("name ASC").Pluck("name", &names).Error
	return names, err
}

// Seed 插入主题及其等级，已存在的行保持不变
func (r *TopicRepository) Seed(ctx context.Context, topics []model.Topic) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, t := range topics {
			levels := t.Levels
			t.Levels = nil
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&t).Error; err != nil {
				return err
			}
			if len(levels) == 0 {
				continue
			}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&levels).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
