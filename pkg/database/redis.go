package database

import (
	"context"
	"time"

	"pastpapers-go/internal/config"
	"pastpapers-go/pkg/log"

	"github.com/go-redis/redis/v8"
)

// RDB 保存令牌黑名单与索引任务的重试计数；未配置 Redis 时为 nil。
var RDB *redis.Client

// InitRedis 连接 Redis，连接失败直接退出。
func InitRedis(cfg config.RedisConfig) {
	RDB = redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := RDB.Ping(ctx).Err(); err != nil {
		log.Fatal("连接 Redis 失败", err)
	}
	log.Infof("Redis 连接成功, addr: %s, db: %d", cfg.Addr, cfg.DB)
}

// CloseRedis 关闭 Redis 连接，未初始化时什么也不做。
func CloseRedis() {
	if RDB == nil {
		return
	}
	if err := RDB.Close(); err != nil {
		log.Warnf("关闭 Redis 连接失败: %v", err)
	}
}
