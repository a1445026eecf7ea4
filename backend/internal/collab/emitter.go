package collab

import "fmt"

// 出站消息通道。ws.Client 实现它；测试里随便用个假的。
type MessageWriter interface {
	WriteMessage(msg map[string]any) error
}

// RemoteEmitter：本地编辑发生时由引擎同步调用，把编辑
// 编码成 wire 消息后交给出站通道。不排队、不重试：
// 发送失败走引擎的错误上报面，本地编辑本身不回滚
// （本地优先，远端副本落后一条是可接受的）。
type RemoteEmitter struct {
	w MessageWriter
}

func NewRemoteEmitter(w MessageWriter) *RemoteEmitter {
	return &RemoteEmitter{w: w}
}

// Emit 把一条本地编辑镜像到远端。调用方所在线程定序。
func (em *RemoteEmitter) Emit(e *Edit) error {
	if err := em.w.WriteMessage(Encode(e)); err != nil {
		return fmt.Errorf("emit %s: %w", e.Type, err)
	}
	return nil
}
