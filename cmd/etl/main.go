// Package main 是 ETL 命令的入口：合并消息与类别 CSV，清洗后写入结构化数据表。
package main

import (
	"context"
	"os"

	"disaster-response-go/internal/cli"
	"disaster-response-go/internal/etl"
	"disaster-response-go/internal/repository"
	"disaster-response-go/pkg/database"
	"disaster-response-go/pkg/es"
	"disaster-response-go/pkg/log"

	"github.com/spf13/cobra"
)

const usage = "Please provide the filepaths of the messages and categories " +
	"datasets as the first and second argument respectively, as " +
	"well as the filepath of the database to save the cleaned data " +
	"to as the third argument. \n\nExample: etl " +
	"disaster_messages.csv disaster_categories.csv " +
	"DisasterResponse.db"

func main() {
	os.Exit(cli.Execute(newCommand(), os.Args[1:], os.Stderr))
}

func newCommand() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "etl MESSAGES CATEGORIES DATABASE",
		Short: "Merge and clean disaster messages into the structured store",
		Long:  usage,
		Args:  cli.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), configPath, etl.Paths{
				Messages:   args[0],
				Categories: args[1],
				Database:   args[2],
			})
		},
	}
	cli.AddConfigFlag(cmd, &configPath)
	return cmd
}

func run(ctx context.Context, configPath string, paths etl.Paths) error {
	// 1. 初始化配置与日志
	cfg, err := cli.Setup(configPath)
	if err != nil {
		return err
	}
	defer log.Sync()

	// 2. 打开数据库
	db, err := database.Open(cli.DatabaseFor(cfg.Database, paths.Database))
	if err != nil {
		return err
	}
	defer database.Close(db)

	// 3. 可选的检索索引
	var indexer etl.MessageIndexer
	if cfg.Elasticsearch.Enabled {
		idx, err := es.NewMessageIndexer(cfg.Elasticsearch)
		if err != nil {
			log.Warnf("Elasticsearch 初始化失败，跳过检索索引: %v", err)
		} else {
			indexer = idx
		}
	}

	// 4. 执行 ETL
	repo := repository.NewMessageRepository(db, cfg.Database.Table)
	_, err = etl.NewProcessor(repo, indexer).Run(ctx, paths, os.Stdout)
	return err
}
