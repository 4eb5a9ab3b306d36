package forest

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Params 是随机森林的超参数。零值字段使用默认值。
type Params struct {
	NEstimators     int
	MaxDepth        int // 0 表示不限深度
	MinSamplesSplit int // 默认 2
	MaxFeatures     int // 0 表示 sqrt(特征维度)
	Workers         int // 0 表示 GOMAXPROCS
	Seed            uint64
}

// DefaultNEstimators 是未指定树数量时的默认值。
const DefaultNEstimators = 100

func (p Params) withDefaults(dim int) Params {
	if p.NEstimators <= 0 {
		p.NEstimators = DefaultNEstimators
	}
	if p.MinSamplesSplit < 2 {
		p.MinSamplesSplit = 2
	}
	if p.MaxFeatures <= 0 {
		p.MaxFeatures = int(math.Max(1, math.Floor(math.Sqrt(float64(dim)))))
	}
	if p.Workers <= 0 {
		p.Workers = runtime.GOMAXPROCS(0)
	}
	return p
}

// Forest 是拟合好的二分类随机森林。
type Forest struct {
	Params Params
	Dim    int
	Trees  []Tree
}

var ErrEmptyTrainingSet = errors.New("forest: empty training set")

// Fit 使用自助采样并行生长 NEstimators 棵树。y 的取值必须为 0 或 1。
func Fit(ctx context.Context, x []Sample, y []uint8, dim int, params Params) (*Forest, error) {
	if len(x) == 0 {
		return nil, ErrEmptyTrainingSet
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("forest: %d samples but %d labels", len(x), len(y))
	}
	for i, v := range y {
		if v > 1 {
			return nil, fmt.Errorf("forest: label %d at row %d is not binary", v, i)
		}
	}

	p := params.withDefaults(dim)
	tp := treeParams{
		maxDepth:        p.MaxDepth,
		minSamplesSplit: p.MinSamplesSplit,
		maxFeatures:     p.MaxFeatures,
	}
	f := &Forest{Params: p, Dim: dim, Trees: make([]Tree, p.NEstimators)}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.Workers)
	for i := 0; i < p.NEstimators; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			// 每棵树独立的随机源，结果与并发调度无关
			rng := rand.New(rand.NewPCG(p.Seed, uint64(i)))
			samples := make([]int32, len(x))
			for j := range samples {
				samples[j] = int32(rng.IntN(len(x)))
			}
			f.Trees[i] = buildTree(x, y, dim, samples, tp, rng)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return f, nil
}

// PredictProba 返回各棵树正类概率的平均值。
func (f *Forest) PredictProba(s Sample) float64 {
	if len(f.Trees) == 0 {
		return 0
	}
	sum := 0.0
	for i := range f.Trees {
		sum += f.Trees[i].PredictProba(s)
	}
	return sum / float64(len(f.Trees))
}

// Predict 返回 s 的预测标签，概率严格大于 0.5 时为 1。
func (f *Forest) Predict(s Sample) uint8 {
	if f.PredictProba(s) > 0.5 {
		return 1
	}
	return 0
}

// NodeCount 返回所有树的节点总数。
func (f *Forest) NodeCount() int {
	n := 0
	for i := range f.Trees {
		n += len(f.Trees[i].Nodes)
	}
	return n
}
