package collab

import "sync"

// EditQueue：接收协程和引擎主循环之间唯一共享的资源。
// 无界 FIFO，入队永不阻塞；消费侧可阻塞等待也可一次性排空。
// 不设上限：远端编辑一条都不能丢，满队丢弃之类的降级策略
// 不适用于这条链路（Kafka 审计那条链路才用有界队列）。
//
// 没法用 chan：chan 必须有界，而且排空（drain）要 len+循环两步，
// 这里直接用锁 + 条件变量护一个切片。
type EditQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	edits  []*Edit
	closed bool
}

func NewEditQueue() *EditQueue {
	q := &EditQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Enqueue 入队一条编辑。永不阻塞，永不失败。
// 多个生产者并发调用时各自的顺序保持，消费侧按入队顺序取出。
func (q *EditQueue) Enqueue(e *Edit) {
	q.mu.Lock()
	q.edits = append(q.edits, e)
	q.mu.Unlock()
	// 唤醒可能阻塞在 Dequeue 的消费者
	q.cond.Signal()
}

// Dequeue 阻塞取出一条编辑。队列空时挂起，直到有数据或 Close。
// 关闭且排空后返回 (nil, false)。一条记录只会交给一次 Dequeue。
func (q *EditQueue) Dequeue() (*Edit, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.edits) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.edits) == 0 {
		// closed 且没有剩余
		return nil, false
	}
	e := q.edits[0]
	q.edits[0] = nil // 让 GC 尽快回收
	q.edits = q.edits[1:]
	return e, true
}

// TryDequeue 非阻塞取一条；队列空返回 (nil, false)。
func (q *EditQueue) TryDequeue() (*Edit, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.edits) == 0 {
		return nil, false
	}
	e := q.edits[0]
	q.edits[0] = nil
	q.edits = q.edits[1:]
	return e, true
}

// Drain 非阻塞取走当前积压的全部编辑，保持入队顺序。
// 引擎主循环每轮调一次，把积压一口气消化掉。
func (q *EditQueue) Drain() []*Edit {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.edits) == 0 {
		return nil
	}
	out := q.edits
	q.edits = nil
	return out
}

func (q *EditQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.edits)
}

// Close 用于确定性停机：唤醒阻塞中的消费者。
// 已入队未取出的记录仍可被取完，之后 Dequeue 返回 false。
func (q *EditQueue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.cond.Broadcast()
}
