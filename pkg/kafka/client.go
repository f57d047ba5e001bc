// Package kafka 提供了与 Kafka 消息队列交互的功能。
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"pastpapers-go/internal/config"
	"pastpapers-go/pkg/log"
	"pastpapers-go/pkg/tasks"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// maxAttempts 是同一任务允许失败的次数，超过后提交 offset 放弃重试。
const maxAttempts = 3

const retryBackoff = 2 * time.Second

// TaskProcessor defines the interface for any service that can process a task.
// This decouples the Kafka consumer from the concrete pipeline implementation.
type TaskProcessor interface {
	Process(ctx context.Context, task tasks.PaperIndexTask) error
}

// Producer 把论文索引任务写入 Kafka。
type Producer struct {
	writer *kafka.Writer
}

// NewProducer 初始化 Kafka 生产者。
func NewProducer(cfg config.KafkaConfig) *Producer {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(strings.Split(cfg.Brokers, ",")...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
	log.Info("Kafka 生产者初始化成功")
	return &Producer{writer: w}
}

// ProducePaperTask 发送一个论文索引任务到 Kafka，同一论文的任务落在同一分区以保证顺序。
func (p *Producer) ProducePaperTask(ctx context.Context, task tasks.PaperIndexTask) error {
	if task.TaskID == "" {
		task.TaskID = uuid.NewString()
	}
	taskBytes, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(fmt.Sprintf("paper-%d", task.PaperID)),
		Value: taskBytes,
	})
}

// Close 关闭底层 writer。
func (p *Producer) Close() error {
	return p.writer.Close()
}

func attemptsKey(task tasks.PaperIndexTask) string {
	return fmt.Sprintf("kafka:attempts:%s", task.TaskID)
}

// StartConsumer 启动一个 Kafka 消费者来处理索引任务，ctx 取消时退出。
func StartConsumer(ctx context.Context, cfg config.KafkaConfig, processor TaskProcessor, rdb *redis.Client) {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  strings.Split(cfg.Brokers, ","),
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
	})
	defer func() {
		if err := r.Close(); err != nil {
			log.Errorf("关闭 Kafka 消费者失败: %v", err)
		}
	}()

	log.Infof("Kafka 消费者已启动，正在监听主题 '%s'", cfg.Topic)

	for {
		m, err := r.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				log.Info("Kafka 消费者已停止")
				return
			}
			log.Error("从 Kafka 读取消息失败", err)
			return
		}

		var task tasks.PaperIndexTask
		if err := json.Unmarshal(m.Value, &task); err != nil {
			log.Errorf("无法解析 Kafka 消息: %v, value: %s", err, string(m.Value))
			// 消息格式错误，直接提交，避免阻塞队列
			if err := r.CommitMessages(ctx, m); err != nil {
				log.Errorf("提交错误消息失败: %v", err)
			}
			continue
		}

		log.Infof("开始处理索引任务: action=%s, paperID=%d", task.Action, task.PaperID)
		if !processWithRetry(ctx, processor, rdb, task) && ctx.Err() != nil {
			// 停机时不提交 offset，重启后重新投递
			log.Info("Kafka 消费者已停止")
			return
		}

		if err := r.CommitMessages(ctx, m); err != nil {
			log.Errorf("提交 Kafka 消息 offset 失败: %v", err)
		}
	}
}

// processWithRetry 在原地重试失败的任务，直到成功或达到最大次数。返回任务是否成功。
func processWithRetry(ctx context.Context, processor TaskProcessor, rdb *redis.Client, task tasks.PaperIndexTask) bool {
	for attempt := 1; ; attempt++ {
		err := processor.Process(ctx, task)
		if err == nil {
			log.Infof("索引任务处理成功: paperID=%d", task.PaperID)
			if rdb != nil {
				_ = rdb.Del(ctx, attemptsKey(task)).Err()
			}
			return true
		}
		log.Errorf("处理索引任务失败: paperID=%d, Error: %v", task.PaperID, err)
		if attempt >= maxAttempts || shouldGiveUp(ctx, rdb, task) {
			log.Errorf("索引任务多次失败(>=%d)，提交 offset 终止重试: paperID=%d", maxAttempts, task.PaperID)
			return false
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(retryBackoff):
		}
	}
}

// shouldGiveUp 使用 Redis 累计跨重启的失败次数，停机前未提交的任务重新投递后也不会无限重试。
// Redis 不可用时只依赖本地计数。
func shouldGiveUp(ctx context.Context, rdb *redis.Client, task tasks.PaperIndexTask) bool {
	if rdb == nil {
		return false
	}
	key := attemptsKey(task)
	attempts, err := rdb.Incr(ctx, key).Result()
	if err != nil {
		return false
	}
	_ = rdb.Expire(ctx, key, 24*time.Hour).Err()
	return attempts >= maxAttempts
}
