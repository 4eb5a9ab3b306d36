package pipeline

import (
	"disaster-response-go/internal/model"
	"disaster-response-go/pkg/forest"
)

// GenrePassthrough 原样输出三个来源指示列，无需拟合。
type GenrePassthrough struct{}

// Columns 实现 Transformer。
func (GenrePassthrough) Columns() []string {
	return model.GenreColumns
}

// Dim 实现 Transformer。
func (GenrePassthrough) Dim() int {
	return len(model.GenreColumns)
}

// Fit 实现 Transformer。
func (GenrePassthrough) Fit([]model.FeatureRow) error {
	return nil
}

// Transform 实现 Transformer。
func (GenrePassthrough) Transform(rows []model.FeatureRow) ([]forest.Sample, error) {
	out := make([]forest.Sample, len(rows))
	for i, r := range rows {
		v := r.Values()
		out[i] = forest.Dense(v[:])
	}
	return out, nil
}
