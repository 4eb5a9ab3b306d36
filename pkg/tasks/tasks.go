// Package tasks 定义了在 Kafka 上传递的分诊消息结构。
package tasks

import "time"

// TriageTask 是输入主题上的一条待分类消息。
type TriageTask struct {
	ID      string `json:"id"`
	Message string `json:"message"`
	Genre   string `json:"genre"`
}

// TriageResult 是输出主题上的分类结果。
type TriageResult struct {
	ID      string `json:"id"`
	Message string `json:"message"`
	Genre   string `json:"genre"`
	ModelID string `json:"model_id"`
	// Categories 按类别名升序列出标签为 1 的类别。
	Categories  []string         `json:"categories"`
	Labels      map[string]uint8 `json:"labels"`
	ProcessedAt time.Time        `json:"processed_at"`
}
