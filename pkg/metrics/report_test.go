package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassification(t *testing.T) {
	yTrue := []uint8{1, 1, 1, 0, 0, 0, 0, 0}
	yPred := []uint8{1, 1, 0, 1, 0, 0, 0, 0}

	r := Classification("water", yTrue, yPred)
	require.Len(t, r.Classes, 2)

	neg, pos := r.Classes[0], r.Classes[1]
	assert.InDelta(t, 4.0/5.0, neg.Precision, 1e-9)
	assert.InDelta(t, 4.0/5.0, neg.Recall, 1e-9)
	assert.Equal(t, 5, neg.Support)

	assert.InDelta(t, 2.0/3.0, pos.Precision, 1e-9)
	assert.InDelta(t, 2.0/3.0, pos.Recall, 1e-9)
	assert.InDelta(t, 2.0/3.0, pos.F1, 1e-9)
	assert.Equal(t, 3, pos.Support)

	assert.InDelta(t, 6.0/8.0, r.Accuracy, 1e-9)
	assert.InDelta(t, (0.8+2.0/3.0)/2, r.Macro.Precision, 1e-9)
	assert.InDelta(t, 0.8*5/8+2.0/3.0*3/8, r.Weighted.F1, 1e-9)
}

func TestClassificationSingleLabelPresent(t *testing.T) {
	r := Classification("child_alone", []uint8{0, 0, 0}, []uint8{0, 0, 0})

	require.Len(t, r.Classes, 1)
	assert.Equal(t, 1.0, r.Classes[0].F1)
	assert.Equal(t, 1.0, r.Accuracy)
}

func TestClassificationZeroDivision(t *testing.T) {
	r := Classification("fire", []uint8{1, 0}, []uint8{0, 0})

	require.Len(t, r.Classes, 2)
	assert.Zero(t, r.Classes[1].Precision)
	assert.Zero(t, r.Classes[1].F1)
}

func TestReportString(t *testing.T) {
	out := Classification("water", []uint8{1, 0}, []uint8{1, 0}).String()

	assert.Contains(t, out, "water:")
	assert.Contains(t, out, "precision")
	assert.Contains(t, out, "macro avg")
	assert.Contains(t, out, "weighted avg")
}

func TestSubsetAccuracy(t *testing.T) {
	yTrue := [][]uint8{{1, 0}, {0, 0}, {1, 1}}
	yPred := [][]uint8{{1, 0}, {0, 1}, {1, 1}}

	assert.InDelta(t, 2.0/3.0, SubsetAccuracy(yTrue, yPred), 1e-9)
	assert.Zero(t, SubsetAccuracy(nil, nil))
}
