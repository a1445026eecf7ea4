package collab

import (
	"errors"
	"testing"
)

func TestLineBuffer_InitialSplit(t *testing.T) {
	b := NewLineBuffer("Hello\nworld")
	if b.Lines() != 2 {
		t.Fatalf("Lines() = %d, want 2", b.Lines())
	}
	if got := b.String(); got != "Hello\nworld" {
		t.Fatalf("String() = %q, want %q", got, "Hello\nworld")
	}
	// 空文档也至少有一行
	if NewLineBuffer("").Lines() != 1 {
		t.Fatal("empty buffer should have one empty line")
	}
}

func TestLineBuffer_AppendLine(t *testing.T) {
	b := NewLineBuffer("a\nc")
	if err := b.AppendLine(0, "b"); err != nil {
		t.Fatalf("AppendLine() error = %v", err)
	}
	if got := b.String(); got != "a\nb\nc" {
		t.Fatalf("String() = %q, want %q", got, "a\nb\nc")
	}
	if err := b.AppendLine(9, "x"); !errors.Is(err, ErrLineOutOfRange) {
		t.Fatalf("AppendLine(9) error = %v, want ErrLineOutOfRange", err)
	}
}

func TestLineBuffer_InsertText(t *testing.T) {
	b := NewLineBuffer("Helloworld")
	if err := b.InsertText(0, 5, " "); err != nil {
		t.Fatalf("InsertText() error = %v", err)
	}
	if got := b.String(); got != "Hello world" {
		t.Fatalf("String() = %q, want %q", got, "Hello world")
	}
	if err := b.InsertText(0, 99, "x"); !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("InsertText(index=99) error = %v, want ErrIndexOutOfRange", err)
	}
}

func TestLineBuffer_InsertText_Runes(t *testing.T) {
	// index 数的是字符不是字节
	b := NewLineBuffer("你好世界")
	if err := b.InsertText(0, 2, "，"); err != nil {
		t.Fatalf("InsertText() error = %v", err)
	}
	if got := b.String(); got != "你好，世界" {
		t.Fatalf("String() = %q, want %q", got, "你好，世界")
	}
}

func TestLineBuffer_RemoveLine(t *testing.T) {
	b := NewLineBuffer("a\nb\nc")
	if err := b.RemoveLine(1); err != nil {
		t.Fatalf("RemoveLine() error = %v", err)
	}
	if got := b.String(); got != "a\nc" {
		t.Fatalf("String() = %q, want %q", got, "a\nc")
	}
	// 删到最后一行退化成空行
	b2 := NewLineBuffer("only")
	if err := b2.RemoveLine(0); err != nil {
		t.Fatalf("RemoveLine() error = %v", err)
	}
	if b2.Lines() != 1 || b2.String() != "" {
		t.Fatalf("after removing last line: Lines()=%d String()=%q", b2.Lines(), b2.String())
	}
}

func TestLineBuffer_DeleteText(t *testing.T) {
	b := NewLineBuffer("Hello collaborative world")
	if err := b.DeleteText(0, 5, 14); err != nil {
		t.Fatalf("DeleteText() error = %v", err)
	}
	if got := b.String(); got != "Hello world" {
		t.Fatalf("String() = %q, want %q", got, "Hello world")
	}
	if err := b.DeleteText(0, 8, 99); !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("DeleteText(overrun) error = %v, want ErrIndexOutOfRange", err)
	}
}

func TestLineBuffer_ReplaceLine(t *testing.T) {
	b := NewLineBuffer("a\nb")
	if err := b.ReplaceLine(1, "B"); err != nil {
		t.Fatalf("ReplaceLine() error = %v", err)
	}
	if got := b.String(); got != "a\nB" {
		t.Fatalf("String() = %q, want %q", got, "a\nB")
	}
	if err := b.ReplaceLine(-1, "x"); !errors.Is(err, ErrLineOutOfRange) {
		t.Fatalf("ReplaceLine(-1) error = %v, want ErrLineOutOfRange", err)
	}
}
