package service

import (
	"context"
	"fmt"
	"time"

	"pastpapers-go/internal/model"
	"pastpapers-go/internal/repository"
	"pastpapers-go/pkg/log"
	"pastpapers-go/pkg/storage"
)

// presignExpiry 是下载链接的有效期。
const presignExpiry = time.Hour

// DownloadService 接口定义了论文下载与下载统计。
type DownloadService interface {
	// Download 记录下载并返回文件地址。
	Download(ctx context.Context, paperID uint, user *model.User) (string, error)
}

type downloadService struct {
	paperService PaperService
	downloadRepo repository.DownloadRepository
	store        storage.ObjectStore
}

// NewDownloadService 创建一个新的 DownloadService 实例。
func NewDownloadService(paperService PaperService, downloadRepo repository.DownloadRepository, store storage.ObjectStore) DownloadService {
	return &downloadService{paperService: paperService, downloadRepo: downloadRepo, store: store}
}

func (s *downloadService) Download(ctx context.Context, paperID uint, user *model.User) (string, error) {
	paper, err := s.paperService.Get(paperID)
	if err != nil {
		return "", err
	}
	if !paper.HasFile() {
		return "", ErrPaperHasNoFile
	}

	firstTime, err := s.downloadRepo.Record(user.ID, paper.ID)
	if err != nil {
		log.Errorf("[DownloadService] 记录下载失败, paperID: %d, userID: %d, error: %v", paper.ID, user.ID, err)
		return "", fmt.Errorf("记录下载失败: %w", err)
	}
	if firstTime {
		log.Infof("[DownloadService] 用户首次下载论文, paperID: %d, user: %s", paper.ID, user.Username)
	}

	url, err := s.store.URL(ctx, paper.FileKey, presignExpiry)
	if err != nil {
		return "", fmt.Errorf("生成下载链接失败: %w", err)
	}
	return url, nil
}
