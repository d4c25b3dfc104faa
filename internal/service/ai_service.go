package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"lingua_backend/internal/config"
	"lingua_backend/internal/util"
	"lingua_backend/pkg/logger"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/felixgeelhaar/fortify/circuitbreaker"
	"github.com/felixgeelhaar/fortify/retry"
	"go.uber.org/zap"
)

// AIService 调用 OpenAI 兼容的 chat completion 接口生成学习内容
type AIService struct {
	mu     sync.RWMutex
	config config.AIConfig
	client *http.Client

	breaker circuitbreaker.CircuitBreaker[string]
	retrier retry.Retry[string]
}

func NewAIService(cfg config.AIConfig) *AIService {
	return newAIService(cfg, time.Second)
}

func newAIService(cfg config.AIConfig, initialDelay time.Duration) *AIService {
	s := &AIService{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout()},
	}

	s.breaker = circuitbreaker.New[string](circuitbreaker.Config{
		MaxRequests: 2,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts circuitbreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(from, to circuitbreaker.State) {
			logger.Log.Warn("AI circuit breaker state change",
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	s.retrier = retry.New[string](retry.Config{
		MaxAttempts:   3,
		InitialDelay:  initialDelay,
		MaxDelay:      initialDelay * 10,
		Multiplier:    2.0,
		BackoffPolicy: retry.BackoffExponential,
		Jitter:        true,
		IsRetryable:   isRetryableAIError,
	})

	return s
}

// UpdateConfig 配置热更新时替换接口地址、密钥和模型
func (s *AIService) UpdateConfig(cfg config.AIConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config = cfg
	s.client = &http.Client{Timeout: cfg.Timeout()}
}

func (s *AIService) snapshot() (config.AIConfig, *http.Client) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config, s.client
}

type AIChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatCompletionRequest struct {
	Model       string          `json:"model"`
	Messages    []AIChatMessage `json:"messages"`
	Temperature float64         `json:"temperature,omitempty"`
}

type ChatCompletionResponse struct {
	Choices []struct {
		Message AIChatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// apiStatusError 非 200 响应
type apiStatusError struct {
	StatusCode int
	Body       string
}

func (e *apiStatusError) Error() string {
	return fmt.Sprintf("AI API error (status %d): %s", e.StatusCode, e.Body)
}

func isRetryableAIError(err error) bool {
	var statusErr *apiStatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode == http.StatusTooManyRequests || statusErr.StatusCode >= 500
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// Chat 单轮对话，经过熔断与重试
func (s *AIService) Chat(ctx context.Context, systemPrompt, prompt string) (string, error) {
	op := func(ctx context.Context) (string, error) {
		return s.doChat(ctx, systemPrompt, prompt)
	}

	out, err := s.breaker.Execute(ctx, func(ctx context.Context) (string, error) {
		return s.retrier.Do(ctx, op)
	})
	if err != nil {
		logger.Log.Error("AI chat failed", zap.Error(err))
		return "", fmt.Errorf("%w: %v", util.ErrAIUnavailable, err)
	}
	return out, nil
}

func (s *AIService) doChat(ctx context.Context, systemPrompt, prompt string) (string, error) {
	cfg, client := s.snapshot()

	reqBody := ChatCompletionRequest{
		Model: cfg.Model,
		Messages: []AIChatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: 0.7,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	url := strings.TrimRight(cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+cfg.APIKey)

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", &apiStatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var chatResp ChatCompletionResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("decode AI response: %w", err)
	}
	if chatResp.Error != nil {
		return "", fmt.Errorf("AI API error: %s", chatResp.Error.Message)
	}
	if len(chatResp.Choices) == 0 {
		return "", errors.New("AI API returned no choices")
	}
	return strings.TrimSpace(chatResp.Choices[0].Message.Content), nil
}

// GeneratedWord 模型生成的词条
type GeneratedWord struct {
	Word        string `json:"word"`
	Translation string `json:"translation"`
	Example     string `json:"example"`
}

const contentSystemPrompt = "You are an English teacher creating learning material for language learners. Follow the requested output format exactly."

// GenerateVocabulary 生成某主题某等级的词汇表
func (s *AIService) GenerateVocabulary(ctx context.Context, topic string, level, count int) ([]GeneratedWord, error) {
	if count <= 0 {
		count = 10
	}
	prompt := fmt.Sprintf(
		"Generate %d English vocabulary words about the topic %q for a learner at level %d of 5. "+
			"Answer with a JSON array only, each item having the keys \"word\", \"translation\" and \"example\".",
		count, topic, level)

	out, err := s.Chat(ctx, contentSystemPrompt, prompt)
	if err != nil {
		return nil, err
	}

	words, err := parseGeneratedWords(out)
	if err != nil {
		logger.Log.Warn("Unparseable vocabulary response", zap.String("topic", topic), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", util.ErrAIUnavailable, err)
	}
	return words, nil
}

// parseGeneratedWords 兼容模型用 ``` 包裹 JSON 的情况，丢弃空词
func parseGeneratedWords(raw string) ([]GeneratedWord, error) {
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start < 0 || end < start {
		return nil, errors.New("no JSON array in response")
	}

	var words []GeneratedWord
	if err := json.Unmarshal([]byte(raw[start:end+1]), &words); err != nil {
		return nil, err
	}

	out := words[:0]
	for _, w := range words {
		w.Word = strings.TrimSpace(w.Word)
		if w.Word == "" {
			continue
		}
		out = append(out, w)
	}
	return out, nil
}

// GeneratePost 生成供用户评论的短文，尽量使用给定词汇
func (s *AIService) GeneratePost(ctx context.Context, topic string, level int, words []string) (string, error) {
	prompt := fmt.Sprintf(
		"Write a short social media style post (80-120 words) about %q for a learner at level %d of 5. "+
			"End it with one open question to the reader.",
		topic, level)
	if len(words) > 0 {
		prompt += " Use these words naturally: " + strings.Join(words, ", ") + "."
	}
	return s.Chat(ctx, contentSystemPrompt, prompt)
}
