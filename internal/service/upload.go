package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"pastpapers-go/internal/model"
	"pastpapers-go/pkg/log"
	"pastpapers-go/pkg/storage"
	"pastpapers-go/pkg/tasks"

	"github.com/google/uuid"
)

// Upload 是一个待保存到对象存储的文件。
type Upload struct {
	Filename    string
	Size        int64
	ContentType string
	Open        func() (io.ReadCloser, error)
}

// UploadFromHeader 把 multipart 文件头包装成 Upload。
func UploadFromHeader(fh *multipart.FileHeader) Upload {
	return Upload{
		Filename:    fh.Filename,
		Size:        fh.Size,
		ContentType: fh.Header.Get("Content-Type"),
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

// UploadFromBytes 用内存中的数据构造 Upload。
func UploadFromBytes(name string, data []byte) Upload {
	return Upload{
		Filename: name,
		Size:     int64(len(data)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// UploadFromFile 用本地文件构造 Upload。
func UploadFromFile(path string) (Upload, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return Upload{}, err
	}
	return Upload{
		Filename: fi.Name(),
		Size:     fi.Size(),
		Open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}, nil
}

// IndexProducer 投递论文索引任务，通常由 Kafka 生产者实现。
type IndexProducer interface {
	ProducePaperTask(ctx context.Context, task tasks.PaperIndexTask) error
}

// cleanFilename 去掉路径部分并把空白替换为下划线。
func cleanFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.Join(strings.Fields(name), "_")
	if name == "" || name == "." || name == "/" {
		return "file"
	}
	return name
}

func shortID() string {
	return uuid.NewString()[:8]
}

// PaperObjectKey 返回论文或附件在对象存储中的路径。
func PaperObjectKey(department string, year int, semester, filename string) string {
	return fmt.Sprintf("papers/%s/%d/%s/%s_%s", department, year, semester, shortID(), cleanFilename(filename))
}

// AvatarObjectKey 返回头像在对象存储中的路径。
func AvatarObjectKey(userID uint, filename string) string {
	return fmt.Sprintf("profiles/%d/%s_%s", userID, shortID(), cleanFilename(filename))
}

// putObject 把 up 写入 key，返回实际写入的字节数。
func putObject(ctx context.Context, store storage.ObjectStore, key string, up Upload) (int64, error) {
	r, err := up.Open()
	if err != nil {
		return 0, fmt.Errorf("打开上传文件失败: %w", err)
	}
	defer r.Close()

	contentType := up.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	info, err := store.Put(ctx, key, r, up.Size, contentType)
	if err != nil {
		return 0, err
	}
	return info.Size, nil
}

// deleteObjects 尽力删除对象，失败只记录日志。
func deleteObjects(ctx context.Context, store storage.ObjectStore, keys ...string) {
	for _, key := range keys {
		if key == "" {
			continue
		}
		if err := store.Delete(ctx, key); err != nil {
			log.Warnf("[Storage] 删除对象失败, key: %s, error: %v", key, err)
		}
	}
}

// enqueueIndex 尽力投递索引任务，producer 为 nil 时跳过。
func enqueueIndex(ctx context.Context, producer IndexProducer, action string, paper *model.Paper) {
	if producer == nil || paper == nil {
		return
	}
	task := tasks.PaperIndexTask{
		Action:     action,
		PaperID:    paper.ID,
		FileKey:    paper.FileKey,
		Title:      paper.Title,
		CourseCode: paper.CourseCode,
		Department: paper.Department,
		Year:       paper.Year,
		Semester:   paper.Semester,
	}
	if err := producer.ProducePaperTask(ctx, task); err != nil {
		log.Warnf("[IndexProducer] 投递索引任务失败, paperID: %d, action: %s, error: %v", paper.ID, action, err)
	}
}
