package collab

import (
	"context"
	"testing"
	"time"
)

func TestKafkaDispatcher_EnqueueNeverBlocksWhenFull(t *testing.T) {
	// workers=0：没人消费，队列很快满。满了必须直接丢，不能反压应用循环
	d := NewKafkaDispatcher(nil, "", nil, KafkaDispatcherOptions{
		QueueSize: 2,
		Workers:   0,
	})
	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			d.Enqueue(context.Background(), EditEvent{DocID: "doc-1", Revision: uint64(i)})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Enqueue blocked on a full queue")
	}
}

func TestKafkaDispatcher_NilProducerDrains(t *testing.T) {
	// producer 为空时 sendOnce 是空操作，worker 应把队列安静地消化掉
	d := NewKafkaDispatcher(nil, "", nil, KafkaDispatcherOptions{
		QueueSize:   8,
		Workers:     1,
		MaxRetry:    1,
		BaseBackoff: time.Millisecond,
		MaxBackoff:  time.Millisecond,
	})
	for i := 0; i < 8; i++ {
		d.Enqueue(context.Background(), EditEvent{DocID: "doc-1", Revision: uint64(i)})
	}
	// 再塞一轮能进去，说明前面的被消费了
	deadline := time.Now().Add(time.Second)
	for i := 0; i < 8; i++ {
		for len(d.queue) == cap(d.queue) {
			if time.Now().After(deadline) {
				t.Fatal("worker did not drain the queue")
			}
			time.Sleep(time.Millisecond)
		}
		d.Enqueue(context.Background(), EditEvent{DocID: "doc-1", Revision: uint64(8 + i)})
	}
	d.Close()
}
