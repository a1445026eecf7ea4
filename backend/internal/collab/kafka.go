package collab

import "time"

// 发到 Kafka 审计流的“编辑已应用”事件，一条编辑一条事件。
type EditEvent struct {
	EventType string    `json:"eventType"` // 固定 "EDIT_APPLIED"
	DocID     string    `json:"docId"`
	Revision  uint64    `json:"revision"` // 应用后的本地版本号
	EditType  string    `json:"editType"` // collabedit_type 的值
	Line      int       `json:"line"`
	Index     int       `json:"index,omitempty"`
	Length    int       `json:"length,omitempty"`
	Text      string    `json:"text,omitempty"`
	AppliedAt time.Time `json:"appliedAt"`
}
