package service

import (
	"context"
	"fmt"
	"time"

	"disaster-response-go/internal/apperr"
	"disaster-response-go/pkg/tasks"
)

// TriageService 把消息流中的分诊任务交给 ClassifyService，并整理为结果消息。
type TriageService struct {
	classify ClassifyService
	modelID  string
}

// NewTriageService 创建一个新的 TriageService 实例。
func NewTriageService(classify ClassifyService, runtime *Runtime) *TriageService {
	return &TriageService{classify: classify, modelID: runtime.Classifier().ID()}
}

// Triage 实现 kafka.TaskProcessor。
func (s *TriageService) Triage(ctx context.Context, task tasks.TriageTask) (tasks.TriageResult, error) {
	if task.Message == "" {
		return tasks.TriageResult{}, fmt.Errorf("task %s: %w", task.ID, apperr.ErrEmptyQuery)
	}
	c, err := s.classify.Classify(ctx, task.Message, task.Genre)
	if err != nil {
		return tasks.TriageResult{}, err
	}

	res := tasks.TriageResult{
		ID:          task.ID,
		Message:     task.Message,
		Genre:       task.Genre,
		ModelID:     s.modelID,
		Labels:      make(map[string]uint8, len(c.Results)),
		ProcessedAt: time.Now().UTC(),
	}
	for _, r := range c.Results {
		res.Labels[r.Category] = r.Label
		if r.Label == 1 {
			res.Categories = append(res.Categories, r.Category)
		}
	}
	return res, nil
}
