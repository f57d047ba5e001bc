// Package storage 提供了论文文件、附件与头像的对象存储抽象。
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"pastpapers-go/internal/config"
)

// ErrObjectNotFound 表示对象在存储中不存在。
var ErrObjectNotFound = errors.New("object not found")

// ObjectInfo 描述一个已存储对象的元数据。
type ObjectInfo struct {
	Key  string
	Size int64
}

// ObjectStore 是业务层依赖的存储接口，MinIO 与本地磁盘各有一个实现。
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (ObjectInfo, error)
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Stat(ctx context.Context, key string) (ObjectInfo, error)
	Delete(ctx context.Context, key string) error
	// URL 返回可直接下载对象的地址，expiry 只对支持预签名的实现生效。
	URL(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// 存储驱动名。
const (
	DriverMinIO = "minio"
	DriverLocal = "local"
)

// New 按配置创建对象存储。minio 驱动会初始化全局 MinioClient 并确保存储桶存在。
func New(cfg config.StorageConfig, minioCfg config.MinIOConfig) (ObjectStore, error) {
	switch cfg.Driver {
	case DriverLocal:
		return NewLocalStore(cfg.LocalRoot, cfg.MediaURL)
	case DriverMinIO, "":
		InitMinIO(minioCfg)
		return NewMinIOStore(MinioClient, minioCfg.BucketName), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
