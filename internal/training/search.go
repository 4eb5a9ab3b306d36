package training

import (
	"context"
	"fmt"

	"disaster-response-go/internal/model"
	"disaster-response-go/internal/pipeline"
	"disaster-response-go/pkg/forest"
	"disaster-response-go/pkg/log"
	"disaster-response-go/pkg/metrics"
)

// Candidate 是网格中一组参数的交叉验证得分。
type Candidate struct {
	NEstimators int
	FoldScores  []float64
	MeanScore   float64
}

// GridSearch 在 n_estimators 网格上做 k 折交叉验证，评分为子集准确率。
type GridSearch struct {
	Base       forest.Params
	Grid       []int
	Folds      int
	Categories []string
}

// Search 返回最优参数与每个候选的得分。得分相同时取网格中靠前的候选。
// 折数小于 2 或网格只有一个候选时不做交叉验证，直接返回网格第一项。
func (g GridSearch) Search(ctx context.Context, rows []model.FeatureRow, labels [][]uint8) (forest.Params, []Candidate, error) {
	grid := g.Grid
	if len(grid) == 0 {
		grid = []int{forest.DefaultNEstimators}
	}
	best := g.Base
	best.NEstimators = grid[0]

	folds := g.Folds
	if folds > len(rows) {
		folds = len(rows)
	}
	if folds < 2 || len(grid) == 1 {
		return best, nil, nil
	}

	split := KFold(len(rows), folds)
	candidates := make([]Candidate, 0, len(grid))
	bestScore := -1.0
	for _, n := range grid {
		params := g.Base
		params.NEstimators = n
		c := Candidate{NEstimators: n}
		for i, valid := range split {
			score, err := g.scoreFold(ctx, params, rows, labels, valid)
			if err != nil {
				return forest.Params{}, nil, fmt.Errorf("n_estimators=%d fold %d: %w", n, i+1, err)
			}
			c.FoldScores = append(c.FoldScores, score)
			c.MeanScore += score / float64(len(split))
			log.Infof("[Training] CV %d/%d n_estimators=%d score=%.3f", i+1, len(split), n, score)
		}
		candidates = append(candidates, c)
		if c.MeanScore > bestScore {
			bestScore = c.MeanScore
			best = params
		}
	}
	return best, candidates, nil
}

func (g GridSearch) scoreFold(ctx context.Context, params forest.Params, rows []model.FeatureRow, labels [][]uint8, valid []int) (float64, error) {
	inValid := make(map[int]struct{}, len(valid))
	for _, i := range valid {
		inValid[i] = struct{}{}
	}
	var trainRows, validRows []model.FeatureRow
	var trainLabels, validLabels [][]uint8
	for i := range rows {
		if _, ok := inValid[i]; ok {
			validRows = append(validRows, rows[i])
			validLabels = append(validLabels, labels[i])
		} else {
			trainRows = append(trainRows, rows[i])
			trainLabels = append(trainLabels, labels[i])
		}
	}

	p := pipeline.New(g.Categories, params)
	if err := p.Fit(ctx, trainRows, trainLabels); err != nil {
		return 0, err
	}
	pred, err := p.Predict(validRows)
	if err != nil {
		return 0, err
	}
	return metrics.SubsetAccuracy(validLabels, pred), nil
}
