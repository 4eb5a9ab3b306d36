package etl

import (
	"context"
	"fmt"
	"io"

	"disaster-response-go/internal/model"
	"disaster-response-go/internal/repository"
	"disaster-response-go/pkg/log"
)

// MessageIndexer 把清洗后的消息写入检索索引，为可选步骤。
type MessageIndexer interface {
	IndexMessages(ctx context.Context, table *model.MessageTable) error
}

// Paths 是一次 ETL 运行的输入与输出位置。
type Paths struct {
	Messages   string
	Categories string
	Database   string
}

// Processor 串联加载、清洗、保存三个步骤。
type Processor struct {
	repo    repository.MessageRepository
	indexer MessageIndexer
}

// NewProcessor 创建一个新的 Processor 实例。indexer 可以为 nil。
func NewProcessor(repo repository.MessageRepository, indexer MessageIndexer) *Processor {
	return &Processor{repo: repo, indexer: indexer}
}

// Run 执行完整的 ETL 流程，进度输出到 out。
func (p *Processor) Run(ctx context.Context, paths Paths, out io.Writer) (*model.MessageTable, error) {
	fmt.Fprintf(out, "Loading data...\n    MESSAGES: %s\n    CATEGORIES: %s\n", paths.Messages, paths.Categories)
	rows, err := LoadData(paths.Messages, paths.Categories)
	if err != nil {
		log.Errorf("[ETL] 步骤1: 加载数据失败: %v", err)
		return nil, fmt.Errorf("加载数据失败: %w", err)
	}
	log.Infof("[ETL] 步骤1: 合并完成, 共 %d 行", len(rows))

	fmt.Fprintln(out, "Cleaning data...")
	table, err := CleanData(rows)
	if err != nil {
		log.Errorf("[ETL] 步骤2: 清洗数据失败: %v", err)
		return nil, fmt.Errorf("清洗数据失败: %w", err)
	}

	fmt.Fprintf(out, "Saving data...\n    DATABASE: %s\n", paths.Database)
	if err := p.repo.Replace(ctx, table); err != nil {
		log.Errorf("[ETL] 步骤3: 保存数据失败: %v", err)
		return nil, fmt.Errorf("保存数据失败: %w", err)
	}
	log.Infof("[ETL] 步骤3: 已写入 %d 行", table.Len())

	if p.indexer != nil {
		if err := p.indexer.IndexMessages(ctx, table); err != nil {
			// 检索索引只是副本，失败不影响结构化数据表
			log.Warnf("[ETL] 步骤4: 写入检索索引失败: %v", err)
		} else {
			log.Infof("[ETL] 步骤4: 已写入检索索引 %d 条", table.Len())
		}
	}

	fmt.Fprintln(out, "Cleaned data saved to database!")
	return table, nil
}
