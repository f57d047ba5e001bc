// Package service 提供了搜索相关的业务逻辑。
package service

import (
	"context"
	"strings"

	"pastpapers-go/internal/model"
	"pastpapers-go/pkg/log"
)

const (
	defaultSearchSize = 10
	maxSearchSize     = 50
)

// PaperSearcher 在论文全文索引上检索，由 es.PaperIndex 实现。
type PaperSearcher interface {
	Search(ctx context.Context, query string, size int) ([]model.SearchResponseDTO, error)
}

// SearchService 接口定义了搜索操作。
type SearchService interface {
	Search(ctx context.Context, query string, size int) ([]model.SearchResponseDTO, error)
}

type searchService struct {
	searcher PaperSearcher
}

// NewSearchService 创建一个新的 SearchService 实例，searcher 为 nil 时搜索不可用。
func NewSearchService(searcher PaperSearcher) SearchService {
	return &searchService{searcher: searcher}
}

func (s *searchService) Search(ctx context.Context, query string, size int) ([]model.SearchResponseDTO, error) {
	if s.searcher == nil {
		return nil, ErrSearchUnavailable
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return []model.SearchResponseDTO{}, nil
	}
	if size <= 0 {
		size = defaultSearchSize
	}
	if size > maxSearchSize {
		size = maxSearchSize
	}
	results, err := s.searcher.Search(ctx, query, size)
	if err != nil {
		log.Errorf("[SearchService] 全文检索失败, query: %s, error: %v", query, err)
		return nil, err
	}
	return results, nil
}
