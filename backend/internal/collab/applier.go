package collab

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"
)

// Applier：引擎主循环持有的应用器。
// 每个调度机会把队列一次性排空，按 FIFO 逐条落到缓冲区上。
// 单条应用失败只影响那一条（记下来交给引擎的错误面），不影响后面的，
// 更不会停掉循环——可用性优先。
type Applier struct {
	queue *EditQueue
	docID string

	// 已应用的编辑数，兼作文档版本号（远端已线性化，本地只递增）
	revision uint64

	// 可选：把“已应用”事件镜像到 Kafka 审计流
	dispatcher *KafkaDispatcher
}

func NewApplier(queue *EditQueue, docID string, dispatcher *KafkaDispatcher) *Applier {
	return &Applier{queue: queue, docID: docID, dispatcher: dispatcher}
}

// ApplyReady 排空队列并应用每一条。返回成功应用的条数，
// err 汇总了本轮所有失败（errors.Join），调用方决定上报方式。
func (a *Applier) ApplyReady(ctx context.Context) (int, error) {
	applied := 0
	var errs []error
	for _, e := range a.queue.Drain() {
		if err := a.applyOne(e); err != nil {
			log.Printf("apply failed, drop edit doc=%s type=%s line=%d: %v", a.docID, e.Type, e.Line, err)
			errs = append(errs, err)
			continue
		}
		applied++
		a.revision++
		if a.dispatcher != nil {
			a.dispatcher.Enqueue(ctx, NewEditEvent(a.docID, a.revision, e))
		}
	}
	return applied, errors.Join(errs...)
}

// 按判别标签分发到缓冲区的五个操作之一。
// 编辑应用完即被丢弃，一条记录最多应用一次。
func (a *Applier) applyOne(e *Edit) error {
	if e.Buf == nil {
		return fmt.Errorf("edit %s has no target buffer", e.Type)
	}
	switch e.Type {
	case EditAppendLine:
		return e.Buf.AppendLine(e.Line, e.Text)
	case EditInsertText:
		return e.Buf.InsertText(e.Line, e.Index, e.Text)
	case EditRemoveLine:
		return e.Buf.RemoveLine(e.Line)
	case EditDeleteText:
		return e.Buf.DeleteText(e.Line, e.Index, e.Length)
	case EditReplaceLine:
		return e.Buf.ReplaceLine(e.Line, e.Text)
	default:
		// 解码时已经筛过一遍，到这说明有人手搓了坏记录
		return fmt.Errorf("%w: %q", ErrUnknownEditType, e.Type)
	}
}

// ApplyLocal 应用一条本地编辑（不经过队列——本地编辑由引擎
// 线程直接产生，队列只给远端来的编辑用）。失败原样上抛，
// 镜像发送由调用方在应用成功后做。
func (a *Applier) ApplyLocal(ctx context.Context, e *Edit) error {
	if err := a.applyOne(e); err != nil {
		return err
	}
	a.revision++
	if a.dispatcher != nil {
		a.dispatcher.Enqueue(ctx, NewEditEvent(a.docID, a.revision, e))
	}
	return nil
}

// Revision 返回当前文档版本号（已应用的编辑数）。
func (a *Applier) Revision() uint64 { return a.revision }

// NewEditEvent 由一条已应用的编辑构造审计事件。
func NewEditEvent(docID string, revision uint64, e *Edit) EditEvent {
	return EditEvent{
		EventType: "EDIT_APPLIED",
		DocID:     docID,
		Revision:  revision,
		EditType:  string(e.Type),
		Line:      e.Line,
		Index:     e.Index,
		Length:    e.Length,
		Text:      e.Text,
		AppliedAt: time.Now(),
	}
}
