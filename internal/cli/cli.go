// Package cli 是 etl 与 train 两个命令共用的启动逻辑：参数校验、配置与日志初始化、退出码。
package cli

import (
	"errors"
	"fmt"
	"io"

	"disaster-response-go/internal/apperr"
	"disaster-response-go/internal/config"
	"disaster-response-go/pkg/log"

	"github.com/spf13/cobra"
)

// ExactArgs 与 cobra.ExactArgs 相同，但错误归类为 ErrUsage。
func ExactArgs(n int) cobra.PositionalArgs {
	check := cobra.ExactArgs(n)
	return func(cmd *cobra.Command, args []string) error {
		if err := check(cmd, args); err != nil {
			return fmt.Errorf("%v: %w", err, apperr.ErrUsage)
		}
		return nil
	}
}

// Execute 运行命令并返回进程退出码。参数错误时输出 usage 与说明文字。
func Execute(cmd *cobra.Command, args []string, stderr io.Writer) int {
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	cmd.SetArgs(args)
	cmd.SetErr(stderr)

	err := cmd.Execute()
	if err == nil {
		return apperr.ExitOK
	}
	if errors.Is(err, apperr.ErrUsage) {
		fmt.Fprintln(stderr, cmd.UsageString())
		if cmd.Long != "" {
			fmt.Fprintln(stderr, cmd.Long)
		}
		return apperr.ExitUsage
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return apperr.ExitCode(err)
}

// AddConfigFlag 注册 --config 参数。
func AddConfigFlag(cmd *cobra.Command, path *string) {
	cmd.PersistentFlags().StringVarP(path, "config", "c", config.DefaultPath, "Path to config file")
}

// Setup 加载配置并初始化日志。
func Setup(configPath string) (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	return cfg, nil
}

// DatabaseFor 返回命令行 DATABASE 参数对应的数据库配置：
// sqlite 时参数即数据库文件路径；mysql 时使用配置中的 DSN，参数只用于展示。
func DatabaseFor(cfg config.DatabaseConfig, arg string) config.DatabaseConfig {
	if cfg.Driver == "" || cfg.Driver == "sqlite" {
		cfg.Driver = "sqlite"
		cfg.DSN = arg
	} else {
		log.Warnf("数据库驱动为 %s，忽略命令行 DATABASE 参数 %s，使用配置中的 DSN", cfg.Driver, arg)
	}
	return cfg
}
