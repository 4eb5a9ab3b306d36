package forest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// separable 构造一个由特征 3 决定标签的稀疏数据集，其余特征是噪声。
func separable() ([]Sample, []uint8) {
	var x []Sample
	var y []uint8
	for i := 0; i < 60; i++ {
		s := Sample{}
		if i%2 == 0 {
			s.Indices = append(s.Indices, 1)
			s.Values = append(s.Values, float64(i%5)/5)
		}
		if i%3 == 0 {
			s.Indices = append(s.Indices, 3)
			s.Values = append(s.Values, 0.8)
			y = append(y, 1)
		} else {
			y = append(y, 0)
		}
		x = append(x, s)
	}
	return x, y
}

func TestSampleGet(t *testing.T) {
	s := Sample{Indices: []int32{2, 5, 9}, Values: []float64{0.1, 0.5, 0.9}}

	assert.Equal(t, 0.5, s.Get(5))
	assert.Equal(t, 0.9, s.Get(9))
	assert.Zero(t, s.Get(0))
	assert.Zero(t, s.Get(6))
	assert.Zero(t, s.Get(100))
}

func TestDenseAndConcat(t *testing.T) {
	a := Dense([]float64{0, 0.5, 0})
	b := Dense([]float64{1, 0})

	c := Concat([]Sample{a, b}, []int32{0, 3})
	assert.Equal(t, []int32{1, 3}, c.Indices)
	assert.Equal(t, []float64{0.5, 1}, c.Values)
}

func TestFitLearnsSeparableData(t *testing.T) {
	x, y := separable()

	f, err := Fit(context.Background(), x, y, 5, Params{NEstimators: 15, Seed: 7, MaxFeatures: 5})
	require.NoError(t, err)
	assert.Len(t, f.Trees, 15)

	for i, s := range x {
		assert.Equal(t, y[i], f.Predict(s), "row %d", i)
	}
	assert.Equal(t, uint8(1), f.Predict(Sample{Indices: []int32{3}, Values: []float64{0.9}}))
	assert.Equal(t, uint8(0), f.Predict(Sample{}))
}

func TestFitIsDeterministicForSeed(t *testing.T) {
	x, y := separable()

	a, err := Fit(context.Background(), x, y, 5, Params{NEstimators: 5, Seed: 11, Workers: 4})
	require.NoError(t, err)
	b, err := Fit(context.Background(), x, y, 5, Params{NEstimators: 5, Seed: 11, Workers: 1})
	require.NoError(t, err)

	assert.Equal(t, a.Trees, b.Trees)
}

func TestFitSingleClass(t *testing.T) {
	x := []Sample{{}, Dense([]float64{1, 0}), Dense([]float64{0, 1})}
	y := []uint8{0, 0, 0}

	f, err := Fit(context.Background(), x, y, 2, Params{NEstimators: 3})
	require.NoError(t, err)
	for _, tree := range f.Trees {
		assert.Len(t, tree.Nodes, 1)
	}
	assert.Zero(t, f.PredictProba(Dense([]float64{1, 1})))
}

func TestFitRejectsBadInput(t *testing.T) {
	_, err := Fit(context.Background(), nil, nil, 3, Params{})
	assert.ErrorIs(t, err, ErrEmptyTrainingSet)

	_, err = Fit(context.Background(), []Sample{{}}, []uint8{2}, 3, Params{})
	assert.Error(t, err)

	_, err = Fit(context.Background(), []Sample{{}}, []uint8{0, 1}, 3, Params{})
	assert.Error(t, err)
}

func TestMaxDepthLimitsTree(t *testing.T) {
	x, y := separable()

	f, err := Fit(context.Background(), x, y, 5, Params{NEstimators: 2, MaxDepth: 1, MaxFeatures: 5})
	require.NoError(t, err)
	for _, tree := range f.Trees {
		assert.LessOrEqual(t, len(tree.Nodes), 3)
	}
}
