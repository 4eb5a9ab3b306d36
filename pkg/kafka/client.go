// Package kafka 提供了与 Kafka 消息队列交互的功能：消费待分诊消息，发布分类结果。
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"disaster-response-go/internal/config"
	"disaster-response-go/pkg/log"
	"disaster-response-go/pkg/tasks"

	"github.com/segmentio/kafka-go"
)

// maxAttempts 是一条消息处理失败后重试的上限，达到后提交 offset 放弃该消息。
const maxAttempts = 3

// TaskProcessor 对单条分诊任务给出分类结果。
type TaskProcessor interface {
	Triage(ctx context.Context, task tasks.TriageTask) (tasks.TriageResult, error)
}

// AttemptCounter 记录任务的失败次数，为可选依赖。
type AttemptCounter interface {
	Incr(ctx context.Context, key string) (int64, error)
	Reset(ctx context.Context, key string) error
}

// MessageWriter 是结果发布所需的最小接口，*kafka.Writer 满足该接口。
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// NewProducer 创建结果主题的生产者。
func NewProducer(cfg config.KafkaConfig) *kafka.Writer {
	w := &kafka.Writer{
		Addr:     kafka.TCP(brokers(cfg)...),
		Topic:    cfg.OutputTopic,
		Balancer: &kafka.LeastBytes{},
	}
	log.Info("Kafka 生产者初始化成功")
	return w
}

func brokers(cfg config.KafkaConfig) []string {
	var out []string
	for _, b := range strings.Split(cfg.Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

// Consumer 从输入主题读取分诊任务，分类后把结果写到输出主题。
type Consumer struct {
	processor TaskProcessor
	writer    MessageWriter
	attempts  AttemptCounter
}

// NewConsumer 创建一个 Consumer。attempts 为 nil 时失败的消息直接提交。
func NewConsumer(processor TaskProcessor, writer MessageWriter, attempts AttemptCounter) *Consumer {
	return &Consumer{processor: processor, writer: writer, attempts: attempts}
}

// Start 阻塞消费直到 ctx 取消或读取失败。
func (c *Consumer) Start(ctx context.Context, cfg config.KafkaConfig) {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers(cfg),
		Topic:    cfg.InputTopic,
		GroupID:  cfg.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
	})

	log.Infof("Kafka 消费者已启动，正在监听主题 '%s'", cfg.InputTopic)

	for {
		m, err := r.FetchMessage(ctx)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				log.Error("从 Kafka 读取消息失败", err)
			}
			break
		}

		log.Infof("收到 Kafka 消息: offset %d", m.Offset)
		if c.handleMessage(ctx, m) {
			if err := r.CommitMessages(ctx, m); err != nil {
				log.Errorf("提交 Kafka 消息 offset 失败: %v", err)
			}
		}
	}

	if err := r.Close(); err != nil {
		log.Errorf("关闭 Kafka 消费者失败: %v", err)
	}
}

// handleMessage 处理一条消息，返回是否应提交 offset。
func (c *Consumer) handleMessage(ctx context.Context, m kafka.Message) bool {
	var task tasks.TriageTask
	if err := json.Unmarshal(m.Value, &task); err != nil {
		log.Errorf("无法解析 Kafka 消息: %v, value: %s", err, string(m.Value))
		// 消息格式错误，直接提交，避免阻塞队列
		return true
	}
	if task.ID == "" {
		task.ID = fmt.Sprintf("%s-%d-%d", m.Topic, m.Partition, m.Offset)
	}

	attemptsKey := fmt.Sprintf("kafka:attempts:%s", task.ID)
	err := c.process(ctx, task)
	if err == nil {
		log.Infof("分诊任务处理成功: ID=%s", task.ID)
		if c.attempts != nil {
			_ = c.attempts.Reset(ctx, attemptsKey)
		}
		return true
	}

	log.Errorf("处理分诊任务失败: ID=%s, Error: %v", task.ID, err)
	if c.attempts == nil {
		return true
	}
	attempts, incErr := c.attempts.Incr(ctx, attemptsKey)
	if incErr != nil {
		// 计数不可用时保守处理：不提交 offset，让 Kafka 重试
		return false
	}
	if attempts >= maxAttempts {
		log.Errorf("分诊任务多次失败(>=%d)，提交 offset 终止重试: ID=%s", maxAttempts, task.ID)
		return true
	}
	return false
}

func (c *Consumer) process(ctx context.Context, task tasks.TriageTask) error {
	result, err := c.processor.Triage(ctx, task)
	if err != nil {
		return err
	}
	value, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return c.writer.WriteMessages(ctx, kafka.Message{Key: []byte(result.ID), Value: value})
}
