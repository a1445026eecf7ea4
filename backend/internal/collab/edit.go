package collab

// 协同编辑操作类型。远端约定的五种原子编辑，
// 与 wire 消息里的 collabedit_type 字段一一对应。
type EditType string

const (
	EditAppendLine  EditType = "append_line"
	EditInsertText  EditType = "insert_text"
	EditRemoveLine  EditType = "remove_line"
	EditDeleteText  EditType = "delete_text"
	EditReplaceLine EditType = "replace_line"
)

// 一条编辑记录。Type 是判别标签，其余字段按变体取用：
//   - append_line:  Line, Text
//   - insert_text:  Line, Index, Text
//   - remove_line:  Line
//   - delete_text:  Line, Index, Length
//   - replace_line: Line, Text
//
// Line 由引擎定义语义（这里当作不透明整数透传），
// Index/Length 是 0 基的字符偏移/个数。
type Edit struct {
	Type   EditType
	Line   int
	Index  int
	Length int
	Text   string

	// 目标文档缓冲区句柄。解码时由接收方盖上，
	// 应用时原样取用，本包不关心其内部结构。
	Buf Buffer
}

// 抽象文档内容缓冲区接口（编辑引擎那一侧实现）。
// 五个操作与五种 EditType 一一对应。
type Buffer interface {
	// 在 line 行后追加一行 text
	AppendLine(line int, text string) error
	// 在 line 行的 index 处插入 text
	InsertText(line int, index int, text string) error
	// 删除 line 行
	RemoveLine(line int) error
	// 从 line 行的 index 处起删除 length 个字符
	DeleteText(line int, index int, length int) error
	// 用 text 整行替换 line 行
	ReplaceLine(line int, text string) error
}
