package service

import (
	"context"
	"encoding/json"
	"fmt"
	"lingua_backend/internal/model"
	"lingua_backend/internal/repository"
	"lingua_backend/pkg/logger"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// ContentGenerator 内容生成接口，由 AIService 实现
type ContentGenerator interface {
	GenerateVocabulary(ctx context.Context, topic string, level, count int) ([]GeneratedWord, error)
	GeneratePost(ctx context.Context, topic string, level int, words []string) (string, error)
}

type VocabularyResult struct {
	Words []model.Word    `json:"words"`
	Link  *WordLinkResult `json:"link"`
}

type ContentService struct {
	AI       ContentGenerator
	Tasks    *TaskService
	TaskRepo *repository.TaskRepository
	WordRepo *repository.WordRepository
	// Redis 为 nil 时不缓存
	Redis    *redis.Client
	CacheTTL time.Duration
}

func NewContentService(ai ContentGenerator, tasks *TaskService, taskRepo *repository.TaskRepository, wordRepo *repository.WordRepository, rdb *redis.Client) *ContentService {
	return &ContentService{
		AI:       ai,
		Tasks:    tasks,
		TaskRepo: taskRepo,
		WordRepo: wordRepo,
		Redis:    rdb,
		CacheTTL: 6 * time.Hour,
	}
}

const vocabularyCacheKeyPrefix = "vocabulary:"

func vocabularyCacheKey(topic string, level, count int) string {
	return fmt.Sprintf("%s%s:%d:%d", vocabularyCacheKeyPrefix, topic, level, count)
}

func (s *ContentService) cachedVocabulary(ctx context.Context, key string) ([]GeneratedWord, bool) {
	if s.Redis == nil {
		return nil, false
	}
	data, err := s.Redis.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Log.Warn("Vocabulary cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	var words []GeneratedWord
	if err := json.Unmarshal(data, &words); err != nil {
		return nil, false
	}
	return words, true
}

func (s *ContentService) storeVocabulary(ctx context.Context, key string, words []GeneratedWord) {
	if s.Redis == nil {
		return
	}
	data, err := json.Marshal(words)
	if err != nil {
		return
	}
	if err := s.Redis.Set(ctx, key, data, s.CacheTTL).Err(); err != nil {
		logger.Log.Warn("Vocabulary cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// GenerateVocabulary 为任务生成词汇，写入词库并关联到任务
func (s *ContentService) GenerateVocabulary(ctx context.Context, userID, taskID string, count int) (*VocabularyResult, error) {
	task, err := s.Tasks.GetTask(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}

	key := vocabularyCacheKey(task.TopicName, task.Level, count)
	generated, ok := s.cachedVocabulary(ctx, key)
	if !ok {
		generated, err = s.AI.GenerateVocabulary(ctx, task.TopicName, task.Level, count)
		if err != nil {
			return nil, err
		}
		s.storeVocabulary(ctx, key, generated)
	}

	rows := make([]model.Word, 0, len(generated))
	wanted := make(map[string]struct{}, len(generated))
	for _, g := range generated {
		text := strings.ToLower(strings.TrimSpace(g.Word))
		if text == "" {
			continue
		}
		if _, dup := wanted[text]; dup {
			continue
		}
		wanted[text] = struct{}{}
		rows = append(rows, model.Word{
			Text:        text,
			Translation: g.Translation,
			Example:     g.Example,
			TopicName:   task.TopicName,
			Level:       task.Level,
		})
	}
	if _, err := s.WordRepo.UpsertBatch(ctx, rows); err != nil {
		return nil, fmt.Errorf("save vocabulary: %w", err)
	}

	// 冲突的行不会回填 ID，重新按主题等级读取
	stored, err := s.WordRepo.FindByTopicLevel(ctx, task.TopicName, task.Level)
	if err != nil {
		return nil, err
	}
	words := make([]model.Word, 0, len(wanted))
	ids := make([]string, 0, len(wanted))
	for _, w := range stored {
		if _, ok := wanted[w.Text]; ok {
			words = append(words, w)
			ids = append(ids, w.ID)
		}
	}

	link, err := s.Tasks.AddWordsToTask(ctx, task.ID, ids)
	if err != nil {
		return nil, err
	}
	return &VocabularyResult{Words: words, Link: link}, nil
}

// GeneratePost 生成任务的源文本并保存，评论将与之比对
func (s *ContentService) GeneratePost(ctx context.Context, userID, taskID string) (string, error) {
	task, err := s.Tasks.GetTask(ctx, userID, taskID)
	if err != nil {
		return "", err
	}

	linked, err := s.Tasks.GetTaskWords(ctx, task.ID)
	if err != nil {
		return "", err
	}
	texts := make([]string, 0, len(linked))
	for _, w := range linked {
		texts = append(texts, w.Text)
	}

	post, err := s.AI.GeneratePost(ctx, task.TopicName, task.Level, texts)
	if err != nil {
		return "", err
	}
	if err := s.TaskRepo.UpdateSourceText(ctx, task.ID, post); err != nil {
		return "", err
	}
	return post, nil
}
