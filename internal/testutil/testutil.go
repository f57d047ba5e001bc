// Package testutil 提供测试用的数据库、存储与任务生产者。
package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"pastpapers-go/internal/model"
	"pastpapers-go/pkg/database"
	"pastpapers-go/pkg/hash"
	"pastpapers-go/pkg/storage"
	"pastpapers-go/pkg/tasks"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbSeq int64

// NewDB 为每个测试打开一个独立的内存 SQLite 数据库并完成迁移。
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, atomic.AddInt64(&dbSeq, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent), TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// NewStore 返回一个以临时目录为根的本地对象存储。
func NewStore(t testing.TB) *storage.LocalStore {
	t.Helper()
	store, err := storage.NewLocalStore(t.TempDir(), "/media")
	if err != nil {
		t.Fatalf("local store: %v", err)
	}
	return store
}

// CreateUser 直接写入一个用户，密码为 password123。
func CreateUser(t testing.TB, db *gorm.DB, username, role string) *model.User {
	t.Helper()
	hashed, err := hash.HashPassword("password123")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	u := &model.User{Username: username, Email: username + "@example.edu", Password: hashed, Role: role}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

// CreatePaper 直接写入一篇论文。
func CreatePaper(t testing.TB, db *gorm.DB, p model.Paper) *model.Paper {
	t.Helper()
	if err := db.Create(&p).Error; err != nil {
		t.Fatalf("create paper: %v", err)
	}
	return &p
}

// Producer 记录所有投递的索引任务，Err 非空时投递失败。
type Producer struct {
	mu    sync.Mutex
	Tasks []tasks.PaperIndexTask
	Err   error
}

func (p *Producer) ProducePaperTask(_ context.Context, task tasks.PaperIndexTask) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.Tasks = append(p.Tasks, task)
	return nil
}

// Sent 返回已投递任务的副本。
func (p *Producer) Sent() []tasks.PaperIndexTask {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]tasks.PaperIndexTask(nil), p.Tasks...)
}
