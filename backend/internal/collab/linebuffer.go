package collab

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrLineOutOfRange  = errors.New("LINE_OUT_OF_RANGE")
	ErrIndexOutOfRange = errors.New("INDEX_OUT_OF_RANGE")
)

// LineBuffer：按行存储的内存文档，Buffer 接口的引擎侧实现。
// 行号 0 基；文本按 rune 处理，index/length 数的是字符不是字节。
// 约定文档至少有一行（空文档就是一个空行），删到最后一行时退化成空行。
//
// 不加锁：缓冲区只被引擎主循环一个 goroutine 碰，
// 接收协程只往 EditQueue 里放，不直接摸文档。
type LineBuffer struct {
	lines []string
}

func NewLineBuffer(initial string) *LineBuffer {
	return &LineBuffer{lines: strings.Split(initial, "\n")}
}

// AppendLine 在 line 行之后追加一行 text。
func (b *LineBuffer) AppendLine(line int, text string) error {
	if line < 0 || line >= len(b.lines) {
		return fmt.Errorf("%w: append after line %d of %d", ErrLineOutOfRange, line, len(b.lines))
	}
	at := line + 1
	b.lines = append(b.lines[:at], append([]string{text}, b.lines[at:]...)...)
	return nil
}

// InsertText 在 line 行的第 index 个字符前插入 text。
func (b *LineBuffer) InsertText(line int, index int, text string) error {
	if line < 0 || line >= len(b.lines) {
		return fmt.Errorf("%w: insert at line %d of %d", ErrLineOutOfRange, line, len(b.lines))
	}
	r := []rune(b.lines[line])
	if index < 0 || index > len(r) {
		return fmt.Errorf("%w: insert at index %d of %d", ErrIndexOutOfRange, index, len(r))
	}
	b.lines[line] = string(r[:index]) + text + string(r[index:])
	return nil
}

// RemoveLine 删除 line 行。
func (b *LineBuffer) RemoveLine(line int) error {
	if line < 0 || line >= len(b.lines) {
		return fmt.Errorf("%w: remove line %d of %d", ErrLineOutOfRange, line, len(b.lines))
	}
	b.lines = append(b.lines[:line], b.lines[line+1:]...)
	if len(b.lines) == 0 {
		b.lines = []string{""}
	}
	return nil
}

// DeleteText 从 line 行第 index 个字符起删掉 length 个。
func (b *LineBuffer) DeleteText(line int, index int, length int) error {
	if line < 0 || line >= len(b.lines) {
		return fmt.Errorf("%w: delete at line %d of %d", ErrLineOutOfRange, line, len(b.lines))
	}
	r := []rune(b.lines[line])
	if index < 0 || length < 0 || index+length > len(r) {
		return fmt.Errorf("%w: delete [%d,%d) of %d", ErrIndexOutOfRange, index, index+length, len(r))
	}
	b.lines[line] = string(r[:index]) + string(r[index+length:])
	return nil
}

// ReplaceLine 用 text 整行替换 line 行。
func (b *LineBuffer) ReplaceLine(line int, text string) error {
	if line < 0 || line >= len(b.lines) {
		return fmt.Errorf("%w: replace line %d of %d", ErrLineOutOfRange, line, len(b.lines))
	}
	b.lines[line] = text
	return nil
}

func (b *LineBuffer) Lines() int { return len(b.lines) }

func (b *LineBuffer) Line(i int) (string, error) {
	if i < 0 || i >= len(b.lines) {
		return "", fmt.Errorf("%w: line %d of %d", ErrLineOutOfRange, i, len(b.lines))
	}
	return b.lines[i], nil
}

func (b *LineBuffer) String() string {
	return strings.Join(b.lines, "\n")
}
