// Package pipeline 定义了论文正文索引的处理流程。
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"pastpapers-go/internal/model"
	"pastpapers-go/internal/repository"
	"pastpapers-go/pkg/log"
	"pastpapers-go/pkg/storage"
	"pastpapers-go/pkg/tasks"

	"gorm.io/gorm"
)

// TextExtractor 从文件中提取纯文本，由 tika.Client 实现。
type TextExtractor interface {
	ExtractText(ctx context.Context, r io.Reader, fileName string) (string, error)
}

// DocumentIndex 是论文全文索引，由 es.PaperIndex 实现。
type DocumentIndex interface {
	IndexPaper(ctx context.Context, doc model.PaperDocument) error
	DeletePaper(ctx context.Context, paperID uint) error
}

// Processor 封装了论文索引的所有依赖和逻辑。
type Processor struct {
	paperRepo repository.PaperRepository
	store     storage.ObjectStore
	extractor TextExtractor
	index     DocumentIndex
}

// NewProcessor 创建一个新的 Processor 实例。
func NewProcessor(paperRepo repository.PaperRepository, store storage.ObjectStore, extractor TextExtractor, index DocumentIndex) *Processor {
	return &Processor{
		paperRepo: paperRepo,
		store:     store,
		extractor: extractor,
		index:     index,
	}
}

// Process 处理一条索引任务。返回错误时由消费者决定是否重试。
func (p *Processor) Process(ctx context.Context, task tasks.PaperIndexTask) error {
	log.Infof("[Processor] 开始处理任务, TaskID: %s, Action: %s, PaperID: %d", task.TaskID, task.Action, task.PaperID)

	switch task.Action {
	case tasks.ActionDelete:
		return p.remove(ctx, task.PaperID)
	case tasks.ActionIndex:
	default:
		log.Warnf("[Processor] 未知的任务类型 '%s', 已忽略", task.Action)
		return nil
	}

	// 1. 以数据库中的最新记录为准，任务里的元数据可能已过期
	paper, err := p.paperRepo.FindByID(task.PaperID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		log.Infof("[Processor] 论文 %d 已不存在, 从索引中移除", task.PaperID)
		return p.remove(ctx, task.PaperID)
	}
	if err != nil {
		return fmt.Errorf("查询论文失败: %w", err)
	}

	doc := model.PaperDocument{
		PaperID:    paper.ID,
		Title:      paper.Title,
		CourseCode: paper.CourseCode,
		Department: paper.Department,
		Year:       paper.Year,
		Semester:   paper.Semester,
	}

	// 2. 提取正文；没有文件或文件已丢失时只索引元数据
	if paper.HasFile() {
		text, err := p.extract(ctx, paper.FileKey)
		if err != nil {
			return err
		}
		doc.TextContent = text
	}

	// 3. 写入索引
	if err := p.index.IndexPaper(ctx, doc); err != nil {
		log.Errorf("[Processor] 索引论文 %d 失败, Error: %v", paper.ID, err)
		return fmt.Errorf("索引论文到 Elasticsearch 失败: %w", err)
	}
	log.Infof("[Processor] 论文 %d 索引成功, 正文长度: %d 字符", paper.ID, utf8.RuneCountInString(doc.TextContent))
	return nil
}

func (p *Processor) extract(ctx context.Context, key string) (string, error) {
	object, err := p.store.Get(ctx, key)
	if errors.Is(err, storage.ErrObjectNotFound) {
		log.Warnf("[Processor] 对象 %s 不存在, 仅索引元数据", key)
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("读取对象 %s 失败: %w", key, err)
	}
	defer object.Close()

	text, err := p.extractor.ExtractText(ctx, object, key)
	if err != nil {
		log.Errorf("[Processor] 使用Tika提取文本失败, Object: %s, Error: %v", key, err)
		return "", fmt.Errorf("使用 Tika 提取文本失败: %w", err)
	}
	if text == "" {
		// 扫描版 PDF 没有文本层
		log.Warnf("[Processor] Tika提取的文本内容为空, Object: %s", key)
	}
	return text, nil
}

func (p *Processor) remove(ctx context.Context, paperID uint) error {
	if err := p.index.DeletePaper(ctx, paperID); err != nil {
		return fmt.Errorf("从索引中删除论文 %d 失败: %w", paperID, err)
	}
	log.Infof("[Processor] 论文 %d 已从索引中移除", paperID)
	return nil
}
