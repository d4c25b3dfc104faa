package service

import (
	"context"
	"lingua_backend/internal/grading"
	"lingua_backend/internal/model"
	"lingua_backend/pkg/monitoring"
)

// SubmissionResult 校验不通过时 Scoring 为空，任务保持未完成
type SubmissionResult struct {
	Validation grading.ValidationResult `json:"validation"`
	Scoring    *grading.ScoringResult   `json:"scoring,omitempty"`
	Task       *model.Task              `json:"task,omitempty"`
}

// SubmissionService 校验、评分并完成任务
type SubmissionService struct {
	Tasks *TaskService
}

func NewSubmissionService(tasks *TaskService) *SubmissionService {
	return &SubmissionService{Tasks: tasks}
}

func (s *SubmissionService) Submit(ctx context.Context, userID, taskID, comment string) (*SubmissionResult, error) {
	task, err := s.Tasks.GetTask(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}

	result := &SubmissionResult{
		Validation: grading.Validate(comment, task.SourceText),
	}
	if !result.Validation.Valid {
		return result, nil
	}

	words, err := s.Tasks.GetTaskWords(ctx, task.ID)
	if err != nil {
		return nil, err
	}
	required := make([]string, 0, len(words))
	for _, w := range words {
		required = append(required, w.Text)
	}

	scoring := grading.Score(comment, task.SourceText, required, task.TopicName)
	result.Scoring = &scoring
	monitoring.SubmissionScore.Observe(float64(scoring.Total))

	completed, err := s.Tasks.CompleteTask(ctx, task.ID, float64(scoring.Total), nil)
	if err != nil {
		return nil, err
	}
	result.Task = completed
	return result, nil
}
