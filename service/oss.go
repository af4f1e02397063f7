package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"MagicMentor-server/config"
	"MagicMentor-server/logger"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// publicFolders 对匿名读开放，章节图片和语音需要长期可访问
var publicFolders = []string{ImageFolder, AudioFolder}

// MinioStorage 实现 Storage：对象名为 folder/<uuid>.<ext>，返回永久公开地址
type MinioStorage struct {
	client  *minio.Client
	bucket  string
	domain  string
	timeout time.Duration
	log     *logger.Logger

	mu          sync.Mutex
	bucketReady bool
}

// NewMinioStorage 初始化连接，在 main.go 中调用
func NewMinioStorage(cfg *config.Config, log *logger.Logger) (*MinioStorage, error) {
	c := cfg.MinIO
	client, err := minio.New(c.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(c.AccessKey, c.SecretKey, ""),
		Secure: c.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("MinIO 初始化失败: %w", err)
	}
	log.Info("MinIO 连接成功", "endpoint", c.Endpoint, "bucket", c.Bucket)
	return &MinioStorage{
		client:  client,
		bucket:  c.Bucket,
		domain:  strings.TrimRight(c.Domain, "/"),
		timeout: c.Timeout,
		log:     log.With("component", "MinioStorage"),
	}, nil
}

// ensureBucket 首次上传时检查 Bucket，不存在则自动创建，并设置公开读策略；失败时下次上传重试
func (m *MinioStorage) ensureBucket(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.bucketReady {
		return nil
	}
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("检查 Bucket 失败: %w", err)
	}
	if !exists {
		if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("创建 Bucket 失败: %w", err)
		}
		m.log.Info("Bucket 已创建", "bucket", m.bucket)
	}
	policy, err := publicReadPolicy(m.bucket, publicFolders)
	if err != nil {
		return err
	}
	if err := m.client.SetBucketPolicy(ctx, m.bucket, policy); err != nil {
		return fmt.Errorf("设置 Bucket 公开读策略失败: %w", err)
	}
	m.bucketReady = true
	return nil
}

func (m *MinioStorage) Upload(ctx context.Context, data []byte, mimeType, folder string) (string, error) {
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}
	if err := m.ensureBucket(ctx); err != nil {
		return "", err
	}

	objectName := ObjectName(folder, mimeType)
	_, err := m.client.PutObject(ctx, m.bucket, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: mimeType,
	})
	if err != nil {
		return "", fmt.Errorf("上传到 MinIO 失败: %w", err)
	}

	m.log.Debug("文件已上传", "object", objectName)
	return m.PublicURL(objectName), nil
}

// PublicURL 返回对象的永久地址，配置了 Domain 时走 CDN 域名
func (m *MinioStorage) PublicURL(objectName string) string {
	if m.domain != "" {
		return fmt.Sprintf("%s/%s/%s", m.domain, m.bucket, objectName)
	}
	u := *m.client.EndpointURL()
	u.Path = path.Join("/", m.bucket, objectName)
	return u.String()
}

type policyStatement struct {
	Effect    string              `json:"Effect"`
	Principal map[string][]string `json:"Principal"`
	Action    []string            `json:"Action"`
	Resource  []string            `json:"Resource"`
}

type bucketPolicy struct {
	Version   string            `json:"Version"`
	Statement []policyStatement `json:"Statement"`
}

// publicReadPolicy 生成只对指定目录开放 s3:GetObject 的策略
func publicReadPolicy(bucket string, folders []string) (string, error) {
	resources := make([]string, 0, len(folders))
	for _, f := range folders {
		resources = append(resources, fmt.Sprintf("arn:aws:s3:::%s/%s/*", bucket, strings.Trim(f, "/")))
	}
	b, err := json.Marshal(bucketPolicy{
		Version: "2012-10-17",
		Statement: []policyStatement{{
			Effect:    "Allow",
			Principal: map[string][]string{"AWS": {"*"}},
			Action:    []string{"s3:GetObject"},
			Resource:  resources,
		}},
	})
	if err != nil {
		return "", fmt.Errorf("生成 Bucket 策略失败: %w", err)
	}
	return string(b), nil
}

// ObjectName 生成云端路径，例如 mentor/3f0c...e1.png
func ObjectName(folder, mimeType string) string {
	name := uuid.NewString() + extensionFor(mimeType)
	if folder == "" {
		return name
	}
	return strings.Trim(folder, "/") + "/" + name
}

// extensionFor 根据 ContentType 确定文件扩展名
func extensionFor(mimeType string) string {
	switch strings.ToLower(strings.TrimSpace(mimeType)) {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	case "audio/mpeg", "audio/mp3":
		return ".mp3"
	case "audio/wav", "audio/x-wav":
		return ".wav"
	default:
		return ".bin"
	}
}
