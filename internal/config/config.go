// Package config 负责加载和管理应用程序的配置。
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// DefaultPath 是三个命令默认读取的配置文件路径。
const DefaultPath = "./configs/config.yaml"

// 全局配置变量，存储从配置文件加载的所有设置。
var Conf Config

// Config 是整个应用程序的配置结构体，与 config.yaml 文件结构对应。
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Log           LogConfig           `mapstructure:"log"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Model         ModelConfig         `mapstructure:"model"`
	Train         TrainConfig         `mapstructure:"train"`
	MinIO         MinIOConfig         `mapstructure:"minio"`
	Kafka         KafkaConfig         `mapstructure:"kafka"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
}

// ServerConfig 存储服务器相关的配置。
type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

// LogConfig 存储日志相关的配置。
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// DatabaseConfig 描述结构化数据表所在的关系型存储。
// Driver 为 sqlite 时 DSN 是数据库文件路径；为 mysql 时是完整的 DSN。
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
	Table  string `mapstructure:"table"`
}

// ModelConfig 描述训练产物的位置。
type ModelConfig struct {
	Path string `mapstructure:"path"`
	// Source 为 file 或 minio；minio 时服务启动前先从对象存储下载到 Path。
	Source    string `mapstructure:"source"`
	ObjectKey string `mapstructure:"object_key"`
}

// TrainConfig 存储训练阶段的超参数。
type TrainConfig struct {
	TestSize        float64 `mapstructure:"test_size"`
	Seed            uint64  `mapstructure:"seed"`
	CVFolds         int     `mapstructure:"cv_folds"`
	NEstimators     []int   `mapstructure:"n_estimators"`
	MaxDepth        int     `mapstructure:"max_depth"`
	MinSamplesSplit int     `mapstructure:"min_samples_split"`
	Workers         int     `mapstructure:"workers"`
}

// MinIOConfig 存储 MinIO 对象存储的配置。
type MinIOConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	BucketName      string `mapstructure:"bucket_name"`
}

// KafkaConfig 存储分诊消息流的配置。
type KafkaConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Brokers     string `mapstructure:"brokers"`
	InputTopic  string `mapstructure:"input_topic"`
	OutputTopic string `mapstructure:"output_topic"`
	GroupID     string `mapstructure:"group_id"`
}

// RedisConfig 存储预测缓存的配置。
type RedisConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Addr       string `mapstructure:"addr"`
	Password   string `mapstructure:"password"`
	DB         int    `mapstructure:"db"`
	TTLMinutes int    `mapstructure:"ttl_minutes"`
}

// ElasticsearchConfig 存储消息检索索引的配置。
type ElasticsearchConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Addresses string `mapstructure:"addresses"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	IndexName string `mapstructure:"index_name"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "3001")
	v.SetDefault("server.mode", "release")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "data/DisasterResponse.db")
	v.SetDefault("database.table", "Disaster")
	v.SetDefault("model.path", "models/classifier.bin")
	v.SetDefault("model.source", "file")
	v.SetDefault("model.object_key", "models/classifier.bin")
	v.SetDefault("train.test_size", 0.2)
	v.SetDefault("train.seed", 42)
	v.SetDefault("train.cv_folds", 5)
	v.SetDefault("train.n_estimators", []int{50, 80, 70})
	v.SetDefault("train.max_depth", 0)
	v.SetDefault("train.min_samples_split", 2)
	v.SetDefault("train.workers", 0)
	v.SetDefault("minio.bucket_name", "disaster-response")
	v.SetDefault("kafka.input_topic", "disaster-messages")
	v.SetDefault("kafka.output_topic", "disaster-triage")
	v.SetDefault("kafka.group_id", "disaster-response-triage")
	v.SetDefault("redis.ttl_minutes", 60)
	v.SetDefault("elasticsearch.index_name", "disaster_messages")
}

// Load 读取配置文件并解析为 Config。文件不存在时只使用默认值与环境变量，
// 环境变量前缀为 DR_，例如 DR_DATABASE_DSN。
func Load(configPath string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("DR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			v.SetConfigFile(configPath)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return Config{}, fmt.Errorf("读取配置文件失败: %w", err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("无法将配置解析到结构体中: %w", err)
	}
	return cfg, nil
}

// Init 初始化全局配置 Conf，失败时直接 panic。
func Init(configPath string) {
	cfg, err := Load(configPath)
	if err != nil {
		panic(err)
	}
	Conf = cfg
}
