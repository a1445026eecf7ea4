package collab

import (
	"encoding/json"
	"errors"
	"fmt"
)

// wire 消息的固定键名。这是与远端互通的兼容面，不能改。
const (
	KeyType   = "collabedit_type"
	KeyLine   = "line"
	KeyIndex  = "index"
	KeyText   = "text"
	KeyLength = "length"
)

var (
	// 消息整体不是一条编辑（不是键值映射，或没有判别字段）。
	// 同一通道上还有别的消息类型，这是常态，不算异常。
	ErrNotAnEdit = errors.New("NOT_AN_EDIT")
	// 判别字段的值不在五种已知类型里
	ErrUnknownEditType = errors.New("UNKNOWN_EDIT_TYPE")
	// 类型认识，但缺必填字段或字段类型不对
	ErrMalformedEdit = errors.New("MALFORMED_EDIT")
)

// Decode 把一条入站消息解析成 Edit。
// raw 通常来自 websocket 的 JSON 反序列化（map[string]any）。
// 三种错误都是调用方可丢弃可继续的，不会让接收循环停下来。
func Decode(raw any) (*Edit, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, ErrNotAnEdit
	}
	tv, ok := m[KeyType]
	if !ok {
		return nil, ErrNotAnEdit
	}
	// 判别值不是字符串按“形状不对”处理，跟缺键同一档
	ts, ok := tv.(string)
	if !ok {
		return nil, ErrNotAnEdit
	}

	e := &Edit{Type: EditType(ts)}
	var err error
	switch EditType(ts) {
	case EditAppendLine:
		if e.Line, err = intField(m, KeyLine); err != nil {
			return nil, err
		}
		if e.Text, err = strField(m, KeyText); err != nil {
			return nil, err
		}
	case EditInsertText:
		if e.Line, err = intField(m, KeyLine); err != nil {
			return nil, err
		}
		if e.Index, err = intField(m, KeyIndex); err != nil {
			return nil, err
		}
		if e.Text, err = strField(m, KeyText); err != nil {
			return nil, err
		}
	case EditRemoveLine:
		if e.Line, err = intField(m, KeyLine); err != nil {
			return nil, err
		}
	case EditDeleteText:
		if e.Line, err = intField(m, KeyLine); err != nil {
			return nil, err
		}
		if e.Index, err = intField(m, KeyIndex); err != nil {
			return nil, err
		}
		if e.Length, err = intField(m, KeyLength); err != nil {
			return nil, err
		}
	case EditReplaceLine:
		if e.Line, err = intField(m, KeyLine); err != nil {
			return nil, err
		}
		if e.Text, err = strField(m, KeyText); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEditType, ts)
	}
	return e, nil
}

// Encode 把 Edit 转成出站消息。键名顺序无所谓，键名本身是契约。
// 只写该变体用到的字段，Buf 不上线。
func Encode(e *Edit) map[string]any {
	m := map[string]any{KeyType: string(e.Type)}
	switch e.Type {
	case EditAppendLine:
		m[KeyLine] = e.Line
		m[KeyText] = e.Text
	case EditInsertText:
		m[KeyLine] = e.Line
		m[KeyIndex] = e.Index
		m[KeyText] = e.Text
	case EditRemoveLine:
		m[KeyLine] = e.Line
	case EditDeleteText:
		m[KeyLine] = e.Line
		m[KeyIndex] = e.Index
		m[KeyLength] = e.Length
	case EditReplaceLine:
		m[KeyLine] = e.Line
		m[KeyText] = e.Text
	}
	return m
}

// 取整数字段。JSON 反序列化出来的数字是 float64，
// 本地构造的消息可能直接放 int，两种都认。
func intField(m map[string]any, key string) (int, error) {
	v, ok := m[key]
	if !ok {
		return 0, fmt.Errorf("%w: missing %q", ErrMalformedEdit, key)
	}
	switch n := v.(type) {
	case float64:
		return int(n), nil
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not an integer", ErrMalformedEdit, key)
		}
		return int(i), nil
	default:
		return 0, fmt.Errorf("%w: %q is not an integer", ErrMalformedEdit, key)
	}
}

func strField(m map[string]any, key string) (string, error) {
	v, ok := m[key]
	if !ok {
		return "", fmt.Errorf("%w: missing %q", ErrMalformedEdit, key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %q is not a string", ErrMalformedEdit, key)
	}
	return s, nil
}
