package pipeline

import (
	"context"
	"fmt"
	"time"

	"disaster-response-go/internal/apperr"
	"disaster-response-go/internal/model"
	"disaster-response-go/pkg/forest"
	"disaster-response-go/pkg/nlp"
)

// Pipeline 组合特征提取与多标签分类器：
// [TF-IDF(message) ..., genre_direct, genre_news, genre_social] -> MultiOutput。
type Pipeline struct {
	categories []string
	tokenizer  *nlp.Tokenizer
	text       *TextVectorizer
	features   *FeatureUnion
	classifier *MultiOutput

	id        string
	createdAt time.Time
}

// New 创建一个未拟合的流水线。categories 决定输出列的顺序。
func New(categories []string, params forest.Params) *Pipeline {
	tok := nlp.NewTokenizer()
	text := NewTextVectorizer(tok)
	return &Pipeline{
		categories: append([]string(nil), categories...),
		tokenizer:  tok,
		text:       text,
		features:   NewFeatureUnion(text, GenrePassthrough{}),
		classifier: NewMultiOutput(params),
	}
}

// Categories 返回输出类别，顺序与 Predict 的列一致。
func (p *Pipeline) Categories() []string {
	return p.categories
}

// FeatureColumns 返回流水线读取的输入列。
func (p *Pipeline) FeatureColumns() []string {
	return p.features.Columns()
}

// Dim 返回特征维度。
func (p *Pipeline) Dim() int {
	return p.features.Dim()
}

// Params 返回分类器的超参数。
func (p *Pipeline) Params() forest.Params {
	return p.classifier.Params
}

// NodeCount 返回所有类别森林的节点总数。
func (p *Pipeline) NodeCount() int {
	n := 0
	for _, f := range p.classifier.Forests {
		n += f.NodeCount()
	}
	return n
}

// Fit 拟合特征提取步骤与分类器。labels 的每一行与 Categories 对齐。
func (p *Pipeline) Fit(ctx context.Context, rows []model.FeatureRow, labels [][]uint8) error {
	if len(rows) != len(labels) {
		return fmt.Errorf("pipeline: %d rows but %d label rows", len(rows), len(labels))
	}
	for i, l := range labels {
		if len(l) != len(p.categories) {
			return fmt.Errorf("pipeline: row %d has %d labels, want %d: %w",
				i, len(l), len(p.categories), apperr.ErrSchemaMismatch)
		}
	}
	if err := p.features.Fit(rows); err != nil {
		return err
	}
	x, err := p.features.Transform(rows)
	if err != nil {
		return err
	}
	if err := p.classifier.Fit(ctx, x, p.features.Dim(), labels); err != nil {
		return err
	}
	p.stamp()
	return nil
}

// Predict 返回每行每个类别的 0/1 标签。
func (p *Pipeline) Predict(rows []model.FeatureRow) ([][]uint8, error) {
	if p.classifier.Outputs() != len(p.categories) {
		return nil, ErrNotFitted
	}
	x, err := p.features.Transform(rows)
	if err != nil {
		return nil, err
	}
	return p.classifier.Predict(x)
}
