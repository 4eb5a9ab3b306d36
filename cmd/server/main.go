// Package main 是看板服务的入口。
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"disaster-response-go/internal/apperr"
	"disaster-response-go/internal/config"
	"disaster-response-go/internal/handler"
	"disaster-response-go/internal/middleware"
	"disaster-response-go/internal/pipeline"
	"disaster-response-go/internal/repository"
	"disaster-response-go/internal/service"
	"disaster-response-go/pkg/database"
	"disaster-response-go/pkg/kafka"
	"disaster-response-go/pkg/log"
	"disaster-response-go/pkg/storage"
	"disaster-response-go/web"

	"github.com/gin-gonic/gin"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "Path to config file")
	flag.Parse()

	// 1. 初始化配置
	config.Init(*configPath)
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync() // 确保在程序退出时刷新所有缓冲的日志条目
	log.Info("日志记录器初始化成功")

	if err := run(cfg); err != nil {
		log.Errorf("服务异常退出: %v", err)
		log.Sync()
		os.Exit(apperr.ExitCode(err))
	}
}

func run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 3. 加载结构化数据表（只加载一次，更新数据需重启）
	db, err := database.OpenExisting(cfg.Database)
	if err != nil {
		return err
	}
	table, err := repository.NewMessageRepository(db, cfg.Database.Table).Load(ctx)
	database.Close(db)
	if err != nil {
		return fmt.Errorf("加载数据表失败: %w", err)
	}
	log.Infof("数据表加载完成, 共 %d 行, %d 个类别", table.Len(), len(table.Categories))

	// 4. 加载模型
	if cfg.Model.Source == "minio" {
		store, err := storage.NewArtifactStore(ctx, cfg.MinIO, cfg.Model.ObjectKey)
		if err != nil {
			return err
		}
		if err := store.DownloadArtifact(ctx, cfg.Model.Path); err != nil {
			return err
		}
	}
	model, err := pipeline.LoadFile(cfg.Model.Path)
	if err != nil {
		return fmt.Errorf("加载模型失败: %w", err)
	}
	log.Infof("模型加载完成, ID: %s", model.ID())

	// 5. 构建只读运行时与 Service
	runtime, err := service.NewRuntime(table, model)
	if err != nil {
		return err
	}
	var cache service.PredictionCache
	var attempts kafka.AttemptCounter
	if cfg.Redis.Enabled {
		rdb, err := database.NewRedis(cfg.Redis)
		if err != nil {
			log.Warnf("Redis 不可用，关闭预测缓存: %v", err)
		} else {
			defer rdb.Close()
			cache = database.NewPredictionCache(rdb, time.Duration(cfg.Redis.TTLMinutes)*time.Minute)
			attempts = database.NewAttemptCounter(rdb, 24*time.Hour)
		}
	}
	classifyService := service.NewClassifyService(runtime, cache)

	// 6. 启动后台 Kafka 消费者
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka)
		defer producer.Close()
		consumer := kafka.NewConsumer(service.NewTriageService(classifyService, runtime), producer, attempts)
		go consumer.Start(ctx, cfg.Kafka)
	}

	// 7. 设置 Gin 模式并创建路由引擎
	gin.SetMode(cfg.Server.Mode)
	r := gin.New() // 使用 New() 创建一个不带默认中间件的引擎
	r.Use(middleware.RequestLogger(), gin.Recovery())
	tmpl, err := web.Templates()
	if err != nil {
		return fmt.Errorf("解析模板失败: %w", err)
	}
	r.SetHTMLTemplate(tmpl)

	// 8. 注册路由
	handler.RegisterRoutes(r, handler.NewDashboardHandler(runtime, classifyService))

	// 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("HTTP 服务监听失败: %w", err)
	case <-ctx.Done():
	}
	log.Info("接收到停机信号，正在关闭服务...")

	// 设置一个5秒的超时上下文
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP 服务器关闭失败: %w", err)
	}

	log.Info("服务已优雅关闭")
	return nil
}
