// Package database 负责打开结构化数据表所在的关系型存储。
package database

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"disaster-response-go/internal/apperr"
	"disaster-response-go/internal/config"
	"disaster-response-go/pkg/log"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open 根据配置打开数据库连接。sqlite 文件不存在时会被创建，供 ETL 写入使用。
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "", "sqlite":
		if dir := filepath.Dir(cfg.DSN); dir != "" {
			_ = os.MkdirAll(dir, os.ModePerm)
		}
		dialector = sqlite.Open(cfg.DSN)
	case "mysql":
		dialector = mysql.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("不支持的数据库驱动 %q: %w", cfg.Driver, apperr.ErrUsage)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	// 配置连接池
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if cfg.Driver == "mysql" {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	} else {
		// sqlite 单文件，单连接即可避免写锁竞争
		sqlDB.SetMaxOpenConns(1)
	}

	log.Infof("database connected successfully, driver=%s", dialectorName(cfg.Driver))
	return db, nil
}

// OpenExisting 与 Open 相同，但要求 sqlite 文件已经存在，供训练与服务阶段只读使用。
func OpenExisting(cfg config.DatabaseConfig) (*gorm.DB, error) {
	if cfg.Driver == "" || cfg.Driver == "sqlite" {
		if _, err := os.Stat(cfg.DSN); err != nil {
			return nil, fmt.Errorf("数据库文件 %s 不可用: %w", cfg.DSN, apperr.ErrInputNotFound)
		}
	}
	return Open(cfg)
}

// Close 关闭底层连接。
func Close(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func dialectorName(driver string) string {
	if driver == "" {
		return "sqlite"
	}
	return driver
}
