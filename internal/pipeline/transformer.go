// Package pipeline 定义了分类流水线：特征提取（文本 TF-IDF 与来源透传）加多标签分类器。
package pipeline

import (
	"context"

	"disaster-response-go/internal/model"
	"disaster-response-go/pkg/forest"
)

// Transformer 是流水线中的特征提取步骤。Fit 学习状态，Transform 输出特征。
type Transformer interface {
	Fit(rows []model.FeatureRow) error
	Transform(rows []model.FeatureRow) ([]forest.Sample, error)
	// Dim 返回 Transform 输出的特征维度，Fit 之前为 0。
	Dim() int
	// Columns 返回该步骤读取的输入列。
	Columns() []string
}

// Predictor 对特征矩阵给出每行每个类别的标签。
type Predictor interface {
	Predict(x []forest.Sample) ([][]uint8, error)
}

// Classifier 是可训练的多标签分类器。
type Classifier interface {
	Fit(ctx context.Context, x []forest.Sample, dim int, y [][]uint8) error
	Predictor
}
