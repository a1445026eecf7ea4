package collab

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/IBM/sarama"
)

// KafkaDispatcher：本地有界队列 + worker 异步发送 + 有限重试。
// 审计流是尽力而为的，跟主链路（队列→应用）隔离：
// - Enqueue 只负责入队，不阻塞应用循环
// - Kafka 短暂不可用时靠队列吸收，后台慢慢补发
// - 队列满时降级丢弃，避免内存无限增长
// 注意这条链路的有界队列和 EditQueue 的无界语义是两码事。
type KafkaDispatcher struct {
	producer sarama.SyncProducer
	topic    string

	queue chan EditEvent

	// sem 限制并发的 SendMessage 数量
	sem *SemaphoreControl

	workers     int
	maxRetry    int
	baseBackoff time.Duration
	maxBackoff  time.Duration
}

type KafkaDispatcherOptions struct {
	QueueSize   int
	Workers     int
	MaxRetry    int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
}

func NewKafkaDispatcher(producer sarama.SyncProducer, topic string, sem *SemaphoreControl, opt KafkaDispatcherOptions) *KafkaDispatcher {
	d := &KafkaDispatcher{
		producer:    producer,
		topic:       topic,
		queue:       make(chan EditEvent, opt.QueueSize),
		sem:         sem,
		workers:     opt.Workers,
		maxRetry:    opt.MaxRetry,
		baseBackoff: opt.BaseBackoff,
		maxBackoff:  opt.MaxBackoff,
	}

	d.Start()
	return d
}

// Enqueue：把事件放入本地队列。队列满时直接丢弃——
// 审计事件不要求每条都送达，绝不能反压应用循环。
func (d *KafkaDispatcher) Enqueue(ctx context.Context, evt EditEvent) {
	select {
	case d.queue <- evt:
	case <-ctx.Done():
	default:
		log.Printf("kafka queue full, drop event doc=%s rev=%d", evt.DocID, evt.Revision)
	}
}

func (d *KafkaDispatcher) Start() {
	for i := 0; i < d.workers; i++ {
		go d.workerLoop(i)
	}
}

// Close 关闭入队端，worker 把剩余事件发完后自行退出。
func (d *KafkaDispatcher) Close() {
	close(d.queue)
}

func (d *KafkaDispatcher) workerLoop(workerID int) {
	for evt := range d.queue {
		d.sendWithRetry(workerID, evt)
	}
}

func (d *KafkaDispatcher) sendWithRetry(workerID int, evt EditEvent) {
	for attempt := 0; attempt <= d.maxRetry; attempt++ {
		if d.sem != nil {
			// worker 允许一直等（不在主链路上）
			_ = d.sem.Acquire(context.Background())
		}

		err := d.sendOnce(evt)

		if d.sem != nil {
			_ = d.sem.Release()
		}

		if err == nil {
			return
		}

		if attempt == d.maxRetry {
			log.Printf("kafka send failed, drop event doc=%s type=%s rev=%d worker=%d err=%v",
				evt.DocID, evt.EditType, evt.Revision, workerID, err)
			return
		}

		// 退避，每次时间 X2，封顶
		backoff := d.baseBackoff * time.Duration(1<<attempt)
		if backoff > d.maxBackoff {
			backoff = d.maxBackoff
		}
		time.Sleep(backoff)
	}
}

func (d *KafkaDispatcher) sendOnce(evt EditEvent) error {
	if d.producer == nil || d.topic == "" {
		return nil
	}
	b, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	msg := &sarama.ProducerMessage{
		Topic: d.topic,
		Key:   sarama.StringEncoder(evt.DocID),
		Value: sarama.ByteEncoder(b),
	}
	_, _, err = d.producer.SendMessage(msg)
	return err
}
