package repository

import (
	"context"
	"lingua_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WordRepository struct {
	DB *gorm.DB
}

func NewWordRepository(db *gorm.DB) *WordRepository {
	return &WordRepository{DB: db}
}

func (r *WordRepository) WithTx(tx *gorm.DB) *WordRepository {
	if tx == nil {
		return r
	}
	return &WordRepository{DB: tx}
}

func (r *WordRepository) FindByID(ctx context.Context, id string) (*model.Word, error) {
	var word model.Word
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&word).Error; err != nil {
		return nil, err
	}
	return &word, nil
}

func (r *WordRepository) FindByTopicLevel(ctx context.Context, topicName string, level int) ([]model.Word, error) {
	var words []model.Word
	err := r.DB.WithContext(ctx).
		Where("topic_name = ? AND level = ?", topicName, level).
		Order("text ASC").
		Find(&words).Error
	return words, err
}

// UpsertBatch 按 (topic, level, text) 去重，冲突时更新释义和例句
func (r *WordRepository) UpsertBatch(ctx context.Context, words []model.Word) (int64, error) {
	if len(words) == 0 {
		return 0, nil
	}
	result := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "topic_name"}, {Name: "level"}, {Name: "text"}},
			DoUpdates: clause.AssignmentColumns([]string{"translation", "example", "updated_at"}),
		}).
		CreateInBatches(&words, 100)
	return result.RowsAffected, result.Error
}
