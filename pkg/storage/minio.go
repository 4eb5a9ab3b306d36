// Package storage 提供了与对象存储服务（如 MinIO）交互的功能，用于在训练机与服务机之间传递模型产物。
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"disaster-response-go/internal/config"
	"disaster-response-go/pkg/log"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// artifactContentType 是模型产物对象的 Content-Type。
const artifactContentType = "application/zstd"

// ArtifactStore 把模型产物保存到固定的存储桶与对象键。
type ArtifactStore struct {
	client    *minio.Client
	bucket    string
	objectKey string
}

// NewArtifactStore 初始化 MinIO 客户端并确保指定的存储桶存在。
func NewArtifactStore(ctx context.Context, cfg config.MinIOConfig, objectKey string) (*ArtifactStore, error) {
	// 1. 初始化 MinIO 客户端
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("初始化 MinIO 客户端失败: %w", err)
	}
	log.Info("MinIO 客户端初始化成功")

	// 2. 检查存储桶 (Bucket) 是否存在，如果不存在则创建
	exists, err := client.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("检查 MinIO 存储桶失败: %w", err)
	}
	if !exists {
		log.Infof("存储桶 '%s' 不存在，正在创建...", cfg.BucketName)
		if err := client.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("创建 MinIO 存储桶失败: %w", err)
		}
		log.Infof("存储桶 '%s' 创建成功", cfg.BucketName)
	}

	return &ArtifactStore{client: client, bucket: cfg.BucketName, objectKey: objectKey}, nil
}

// UploadArtifact 上传本地模型文件。
func (s *ArtifactStore) UploadArtifact(ctx context.Context, localPath string) error {
	info, err := s.client.FPutObject(ctx, s.bucket, s.objectKey, localPath, minio.PutObjectOptions{
		ContentType: artifactContentType,
	})
	if err != nil {
		return fmt.Errorf("上传模型到 %s/%s 失败: %w", s.bucket, s.objectKey, err)
	}
	log.Infof("模型已上传到 %s/%s, 大小: %d", s.bucket, s.objectKey, info.Size)
	return nil
}

// DownloadArtifact 把远端模型下载到 localPath，必要时创建父目录。
func (s *ArtifactStore) DownloadArtifact(ctx context.Context, localPath string) error {
	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return err
	}
	if err := s.client.FGetObject(ctx, s.bucket, s.objectKey, localPath, minio.GetObjectOptions{}); err != nil {
		return fmt.Errorf("下载模型 %s/%s 失败: %w", s.bucket, s.objectKey, err)
	}
	log.Infof("模型已从 %s/%s 下载到 %s", s.bucket, s.objectKey, localPath)
	return nil
}
