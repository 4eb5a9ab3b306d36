package training

import (
	"context"
	"fmt"
	"io"

	"disaster-response-go/internal/config"
	"disaster-response-go/internal/model"
	"disaster-response-go/internal/pipeline"
	"disaster-response-go/internal/repository"
	"disaster-response-go/pkg/forest"
	"disaster-response-go/pkg/log"
)

// ArtifactUploader 把训练产物复制到远端存储，为可选步骤。
type ArtifactUploader interface {
	UploadArtifact(ctx context.Context, localPath string) error
}

// Paths 是一次训练运行的输入与输出位置。
type Paths struct {
	Database string
	Model    string
}

// Trainer 串联加载、建模、训练、评估、保存五个步骤。
type Trainer struct {
	repo     repository.MessageRepository
	cfg      config.TrainConfig
	uploader ArtifactUploader
}

// NewTrainer 创建一个新的 Trainer 实例。uploader 可以为 nil。
func NewTrainer(repo repository.MessageRepository, cfg config.TrainConfig, uploader ArtifactUploader) *Trainer {
	return &Trainer{repo: repo, cfg: cfg, uploader: uploader}
}

// Run 执行完整的训练流程，进度与评估报告输出到 out。
func (t *Trainer) Run(ctx context.Context, paths Paths, out io.Writer) (*pipeline.Pipeline, error) {
	fmt.Fprintf(out, "Loading data...\n    DATABASE: %s\n", paths.Database)
	table, err := t.repo.Load(ctx)
	if err != nil {
		log.Errorf("[Training] 步骤1: 加载数据失败: %v", err)
		return nil, fmt.Errorf("加载数据失败: %w", err)
	}
	rows, labels := table.Features(), table.Labels()
	trainIdx, testIdx, err := Split(len(rows), t.cfg.TestSize, t.cfg.Seed)
	if err != nil {
		return nil, fmt.Errorf("划分数据失败: %w", err)
	}
	trainRows, trainLabels := subset(rows, labels, trainIdx)
	testRows, testLabels := subset(rows, labels, testIdx)
	log.Infof("[Training] 步骤1: 共 %d 行, 训练 %d 行, 测试 %d 行, %d 个类别",
		len(rows), len(trainRows), len(testRows), len(table.Categories))

	fmt.Fprintln(out, "Building model...")
	search := GridSearch{
		Base: forest.Params{
			MaxDepth:        t.cfg.MaxDepth,
			MinSamplesSplit: t.cfg.MinSamplesSplit,
			Workers:         t.cfg.Workers,
			Seed:            t.cfg.Seed,
		},
		Grid:       t.cfg.NEstimators,
		Folds:      t.cfg.CVFolds,
		Categories: table.Categories,
	}

	fmt.Fprintln(out, "Training model...")
	best, candidates, err := search.Search(ctx, trainRows, trainLabels)
	if err != nil {
		log.Errorf("[Training] 步骤3: 网格搜索失败: %v", err)
		return nil, fmt.Errorf("网格搜索失败: %w", err)
	}
	for _, c := range candidates {
		log.Infof("[Training] 步骤3: n_estimators=%d 平均得分 %.4f", c.NEstimators, c.MeanScore)
	}
	log.Infof("[Training] 步骤3: 最优 n_estimators=%d, 在完整训练集上重新拟合", best.NEstimators)
	p := pipeline.New(table.Categories, best)
	if err := p.Fit(ctx, trainRows, trainLabels); err != nil {
		log.Errorf("[Training] 步骤3: 拟合失败: %v", err)
		return nil, fmt.Errorf("拟合模型失败: %w", err)
	}
	log.Infof("[Training] 步骤3: 拟合完成, n_estimators=%d, 特征维度 %d, 节点总数 %d",
		p.Params().NEstimators, p.Dim(), p.NodeCount())

	fmt.Fprintln(out, "Evaluating model...")
	if _, err := Evaluate(p, table.Categories, testRows, testLabels, out); err != nil {
		return nil, fmt.Errorf("评估模型失败: %w", err)
	}

	fmt.Fprintf(out, "Saving model...\n    MODEL: %s\n", paths.Model)
	if err := pipeline.SaveFile(paths.Model, p); err != nil {
		log.Errorf("[Training] 步骤5: 保存模型失败: %v", err)
		return nil, fmt.Errorf("保存模型失败: %w", err)
	}
	log.Infof("[Training] 步骤5: 模型已保存, ID: %s", p.ID())

	if t.uploader != nil {
		if err := t.uploader.UploadArtifact(ctx, paths.Model); err != nil {
			log.Warnf("[Training] 步骤6: 上传模型失败: %v", err)
		} else {
			log.Infof("[Training] 步骤6: 模型已上传到对象存储")
		}
	}

	fmt.Fprintln(out, "Trained model saved!")
	return p, nil
}

func subset(rows []model.FeatureRow, labels [][]uint8, idx []int) ([]model.FeatureRow, [][]uint8) {
	r := make([]model.FeatureRow, len(idx))
	l := make([][]uint8, len(idx))
	for i, j := range idx {
		r[i] = rows[j]
		l[i] = labels[j]
	}
	return r, l
}
