// Package main 是训练命令的入口：从结构化数据表训练多标签分类流水线并保存产物。
package main

import (
	"context"
	"os"

	"disaster-response-go/internal/cli"
	"disaster-response-go/internal/repository"
	"disaster-response-go/internal/training"
	"disaster-response-go/pkg/database"
	"disaster-response-go/pkg/log"
	"disaster-response-go/pkg/storage"

	"github.com/spf13/cobra"
)

const usage = "Please provide the filepath of the disaster messages database " +
	"as the first argument and the filepath of the model file to " +
	"save the model to as the second argument. \n\nExample: train " +
	"../data/DisasterResponse.db classifier.bin"

func main() {
	os.Exit(cli.Execute(newCommand(), os.Args[1:], os.Stderr))
}

func newCommand() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "train DATABASE MODEL",
		Short: "Train the message classifier and save the model artifact",
		Long:  usage,
		Args:  cli.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), configPath, training.Paths{
				Database: args[0],
				Model:    args[1],
			})
		},
	}
	cli.AddConfigFlag(cmd, &configPath)
	return cmd
}

func run(ctx context.Context, configPath string, paths training.Paths) error {
	// 1. 初始化配置与日志
	cfg, err := cli.Setup(configPath)
	if err != nil {
		return err
	}
	defer log.Sync()

	// 2. 打开已有的数据库
	db, err := database.OpenExisting(cli.DatabaseFor(cfg.Database, paths.Database))
	if err != nil {
		return err
	}
	defer database.Close(db)

	// 3. 可选的对象存储
	var uploader training.ArtifactUploader
	if cfg.MinIO.Enabled {
		store, err := storage.NewArtifactStore(ctx, cfg.MinIO, cfg.Model.ObjectKey)
		if err != nil {
			log.Warnf("MinIO 初始化失败，模型只保存在本地: %v", err)
		} else {
			uploader = store
		}
	}

	// 4. 训练
	repo := repository.NewMessageRepository(db, cfg.Database.Table)
	_, err = training.NewTrainer(repo, cfg.Train, uploader).Run(ctx, paths, os.Stdout)
	return err
}
