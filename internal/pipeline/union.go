package pipeline

import (
	"fmt"

	"disaster-response-go/internal/model"
	"disaster-response-go/pkg/forest"
)

// FeatureUnion 并列执行多个 Transformer 并按顺序拼接输出。
type FeatureUnion struct {
	parts []Transformer
}

// NewFeatureUnion 创建一个 FeatureUnion。
func NewFeatureUnion(parts ...Transformer) *FeatureUnion {
	return &FeatureUnion{parts: parts}
}

// Columns 实现 Transformer，按顺序列出各步骤读取的输入列。
func (u *FeatureUnion) Columns() []string {
	var cols []string
	for _, p := range u.parts {
		cols = append(cols, p.Columns()...)
	}
	return cols
}

// Dim 实现 Transformer。
func (u *FeatureUnion) Dim() int {
	n := 0
	for _, p := range u.parts {
		n += p.Dim()
	}
	return n
}

// Fit 实现 Transformer。
func (u *FeatureUnion) Fit(rows []model.FeatureRow) error {
	for i, p := range u.parts {
		if err := p.Fit(rows); err != nil {
			return fmt.Errorf("feature union step %d: %w", i, err)
		}
	}
	return nil
}

// Transform 实现 Transformer。
func (u *FeatureUnion) Transform(rows []model.FeatureRow) ([]forest.Sample, error) {
	outputs := make([][]forest.Sample, len(u.parts))
	offsets := make([]int32, len(u.parts))
	offset := int32(0)
	for i, p := range u.parts {
		out, err := p.Transform(rows)
		if err != nil {
			return nil, fmt.Errorf("feature union step %d: %w", i, err)
		}
		outputs[i] = out
		offsets[i] = offset
		offset += int32(p.Dim())
	}

	result := make([]forest.Sample, len(rows))
	parts := make([]forest.Sample, len(u.parts))
	for r := range rows {
		for i := range u.parts {
			parts[i] = outputs[i][r]
		}
		result[r] = forest.Concat(parts, offsets)
	}
	return result, nil
}
