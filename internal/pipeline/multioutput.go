package pipeline

import (
	"context"
	"fmt"

	"disaster-response-go/pkg/forest"
)

// MultiOutput 为每个类别独立拟合一个随机森林。
type MultiOutput struct {
	Params  forest.Params
	Forests []*forest.Forest
}

// NewMultiOutput 创建一个未拟合的多标签分类器。
func NewMultiOutput(params forest.Params) *MultiOutput {
	return &MultiOutput{Params: params}
}

// Fit 实现 Classifier。y 的每一行长度必须一致，第 c 列训练第 c 个森林。
func (m *MultiOutput) Fit(ctx context.Context, x []forest.Sample, dim int, y [][]uint8) error {
	if len(x) != len(y) {
		return fmt.Errorf("multi-output: %d samples but %d label rows", len(x), len(y))
	}
	if len(y) == 0 {
		return forest.ErrEmptyTrainingSet
	}
	outputs := len(y[0])
	column := make([]uint8, len(y))
	forests := make([]*forest.Forest, outputs)
	for c := 0; c < outputs; c++ {
		for i, row := range y {
			if len(row) != outputs {
				return fmt.Errorf("multi-output: row %d has %d labels, want %d", i, len(row), outputs)
			}
			column[i] = row[c]
		}
		p := m.Params
		p.Seed = m.Params.Seed + uint64(c)*1_000_003
		f, err := forest.Fit(ctx, x, column, dim, p)
		if err != nil {
			return fmt.Errorf("multi-output: output %d: %w", c, err)
		}
		forests[c] = f
	}
	m.Forests = forests
	return nil
}

// Predict 实现 Predictor。
func (m *MultiOutput) Predict(x []forest.Sample) ([][]uint8, error) {
	if len(m.Forests) == 0 {
		return nil, ErrNotFitted
	}
	out := make([][]uint8, len(x))
	for i, s := range x {
		row := make([]uint8, len(m.Forests))
		for c, f := range m.Forests {
			row[c] = f.Predict(s)
		}
		out[i] = row
	}
	return out, nil
}

// Outputs 返回输出的类别数量。
func (m *MultiOutput) Outputs() int {
	return len(m.Forests)
}
