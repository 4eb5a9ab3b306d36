package training

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"disaster-response-go/internal/apperr"
	"disaster-response-go/internal/config"
	"disaster-response-go/internal/model"
	"disaster-response-go/internal/pipeline"
	"disaster-response-go/pkg/forest"
)

type fakeRepo struct {
	table *model.MessageTable
	err   error
}

func (f *fakeRepo) Replace(context.Context, *model.MessageTable) error { return nil }

func (f *fakeRepo) Load(context.Context) (*model.MessageTable, error) {
	return f.table, f.err
}

type fakeUploader struct {
	paths []string
}

func (f *fakeUploader) UploadArtifact(_ context.Context, localPath string) error {
	f.paths = append(f.paths, localPath)
	return nil
}

func waterFoodTable(n int) *model.MessageTable {
	t := &model.MessageTable{Categories: []string{"water", "food"}}
	for i := 0; i < n; i++ {
		r := model.MessageRecord{ID: int64(i + 1), Genre: "direct", GenreIndicators: model.GenreIndicators{Direct: 1}}
		if i%2 == 0 {
			r.Message, r.Labels = "need water", []uint8{1, 0}
		} else {
			r.Message, r.Labels = "need food", []uint8{0, 1}
		}
		t.Records = append(t.Records, r)
	}
	return t
}

func TestSplit(t *testing.T) {
	train, test, err := Split(10, 0.2, 42)
	require.NoError(t, err)
	assert.Len(t, train, 8)
	assert.Len(t, test, 2)

	seen := make(map[int]bool)
	for _, i := range append(append([]int{}, train...), test...) {
		assert.False(t, seen[i], "index %d repeated", i)
		seen[i] = true
	}
	assert.Len(t, seen, 10)

	train2, test2, err := Split(10, 0.2, 42)
	require.NoError(t, err)
	assert.Equal(t, train, train2)
	assert.Equal(t, test, test2)

	// 测试集大小向上取整
	_, test, err = Split(7, 0.2, 1)
	require.NoError(t, err)
	assert.Len(t, test, 2)
}

func TestSplitRejectsTinyInput(t *testing.T) {
	_, _, err := Split(1, 0.2, 1)
	assert.Error(t, err)
	_, _, err = Split(10, 1.5, 1)
	assert.Error(t, err)
	_, _, err = Split(10, 0, 1)
	assert.Error(t, err)
}

func TestKFold(t *testing.T) {
	assert.Equal(t, [][]int{{0, 1}, {2, 3}, {4}}, KFold(5, 3))
	assert.Equal(t, [][]int{{0}, {1}}, KFold(2, 5))
}

func TestGridSearchPicksCandidateFromGrid(t *testing.T) {
	table := waterFoodTable(20)
	g := GridSearch{
		Base:       forest.Params{Seed: 5},
		Grid:       []int{3, 5},
		Folds:      2,
		Categories: table.Categories,
	}

	best, candidates, err := g.Search(context.Background(), table.Features(), table.Labels())
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Contains(t, []int{3, 5}, best.NEstimators)
	assert.Equal(t, uint64(5), best.Seed)
	for _, c := range candidates {
		assert.Len(t, c.FoldScores, 2)
		assert.GreaterOrEqual(t, c.MeanScore, 0.0)
		assert.LessOrEqual(t, c.MeanScore, 1.0)
	}
}

func TestGridSearchSingleCandidateSkipsCV(t *testing.T) {
	g := GridSearch{Grid: []int{7}, Folds: 5}
	best, candidates, err := g.Search(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Nil(t, candidates)
	assert.Equal(t, 7, best.NEstimators)
}

type constPredictor struct {
	rows [][]uint8
}

func (c constPredictor) Predict([]model.FeatureRow) ([][]uint8, error) {
	return c.rows, nil
}

func TestEvaluatePrintsReportPerCategory(t *testing.T) {
	rows := []model.FeatureRow{{Message: "a"}, {Message: "b"}}
	labels := [][]uint8{{1, 0}, {0, 0}}
	var out bytes.Buffer

	reports, err := Evaluate(constPredictor{rows: [][]uint8{{1, 0}, {1, 0}}}, []string{"water", "food"}, rows, labels, &out)
	require.NoError(t, err)
	require.Len(t, reports, 2)

	assert.InDelta(t, 0.5, reports[0].Accuracy, 1e-9)
	assert.InDelta(t, 1.0, reports[1].Accuracy, 1e-9)
	text := out.String()
	assert.Contains(t, text, "water:\n")
	assert.Contains(t, text, "food:\n")
	assert.Equal(t, 2, strings.Count(text, reportSeparator))
}

func TestTrainerRun(t *testing.T) {
	dir := t.TempDir()
	modelPath := filepath.Join(dir, "classifier.bin")
	uploader := &fakeUploader{}
	cfg := config.TrainConfig{
		TestSize:    0.25,
		Seed:        1,
		CVFolds:     2,
		NEstimators: []int{3, 5},
	}

	var out bytes.Buffer
	p, err := NewTrainer(&fakeRepo{table: waterFoodTable(40)}, cfg, uploader).
		Run(context.Background(), Paths{Database: "data/DisasterResponse.db", Model: modelPath}, &out)
	require.NoError(t, err)

	text := out.String()
	steps := []string{
		"Loading data...\n    DATABASE: data/DisasterResponse.db\n",
		"Building model...\n",
		"Training model...\n",
		"Evaluating model...\n",
		"Saving model...\n    MODEL: " + modelPath + "\n",
		"Trained model saved!\n",
	}
	last := -1
	for _, s := range steps {
		idx := strings.Index(text, s)
		require.GreaterOrEqual(t, idx, 0, "missing %q", s)
		assert.Greater(t, idx, last, "out of order: %q", s)
		last = idx
	}

	assert.Equal(t, []string{modelPath}, uploader.paths)
	loaded, err := pipeline.LoadFile(modelPath)
	require.NoError(t, err)
	assert.Equal(t, p.ID(), loaded.ID())
	assert.Equal(t, []string{"water", "food"}, loaded.Categories())
}

func TestTrainerRunPropagatesLoadError(t *testing.T) {
	var out bytes.Buffer
	_, err := NewTrainer(&fakeRepo{err: apperr.ErrInputNotFound}, config.TrainConfig{TestSize: 0.2}, nil).
		Run(context.Background(), Paths{Database: "missing.db", Model: filepath.Join(t.TempDir(), "m.bin")}, &out)
	assert.ErrorIs(t, err, apperr.ErrInputNotFound)
	assert.NotContains(t, out.String(), "Building model...")
}
