package collab

import (
	"errors"
	"testing"
)

type captureWriter struct {
	msgs []map[string]any
	err  error
}

func (w *captureWriter) WriteMessage(msg map[string]any) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msg)
	return nil
}

func TestRemoteEmitter_EmitsOneMessage(t *testing.T) {
	// 本地 replace_line 编辑 → 恰好一条出站消息，键名按 wire 契约
	w := &captureWriter{}
	em := NewRemoteEmitter(w)

	if err := em.Emit(&Edit{Type: EditReplaceLine, Line: 5, Text: "x"}); err != nil {
		t.Fatalf("Emit() error = %v", err)
	}
	if len(w.msgs) != 1 {
		t.Fatalf("emitted %d messages, want 1", len(w.msgs))
	}
	m := w.msgs[0]
	if m[KeyType] != "replace_line" || m[KeyLine] != 5 || m[KeyText] != "x" {
		t.Fatalf("emitted message = %v", m)
	}
	if len(m) != 3 {
		t.Fatalf("emitted message has %d keys, want 3: %v", len(m), m)
	}
}

func TestRemoteEmitter_SendFailureSurfaced(t *testing.T) {
	sendErr := errors.New("connection reset")
	w := &captureWriter{err: sendErr}
	em := NewRemoteEmitter(w)

	err := em.Emit(&Edit{Type: EditRemoveLine, Line: 1})
	if !errors.Is(err, sendErr) {
		t.Fatalf("Emit() error = %v, want wrapped %v", err, sendErr)
	}
}
