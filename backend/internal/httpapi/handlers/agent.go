package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rosalee33/collab-vim/backend/internal/cache"
	"github.com/rosalee33/collab-vim/backend/internal/collab"
)

// 引擎暴露给 HTTP 面的最小操作集。实现在 cmd 里，
// 读走快照接口，写（本地编辑）走通道进主循环，handler 不直接摸缓冲区。
type Engine interface {
	DocID() string
	// 当前文档内容和版本号的一致性读
	Snapshot() (content string, revision uint64)
	// 把一条本地编辑交给引擎主循环（应用到本地 + 镜像到远端）
	SubmitLocalEdit(ctx context.Context, e *collab.Edit) error
	// 持久化一份当前快照
	SaveSnapshot(ctx context.Context) error
}

type AgentHandlers struct {
	eng      Engine
	presence cache.PresenceCache // 可为 nil（未配置 redis）
}

func NewAgentHandlers(eng Engine, presence cache.PresenceCache) *AgentHandlers {
	return &AgentHandlers{eng: eng, presence: presence}
}

func (h *AgentHandlers) Healthz(c *gin.Context) {
	c.JSON(200, gin.H{"message": "ok"})
}

// GetDocument 返回当前文档内容和版本。
func (h *AgentHandlers) GetDocument(c *gin.Context) {
	content, rev := h.eng.Snapshot()
	c.JSON(200, gin.H{"docId": h.eng.DocID(), "revision": rev, "content": content})
}

// GetMembers 列出当前文档还活着的协作者。
func (h *AgentHandlers) GetMembers(c *gin.Context) {
	if h.presence == nil {
		c.JSON(200, gin.H{"members": []cache.PresenceMember{}})
		return
	}
	members, err := h.presence.GetAliveMembersWithNames(c.Request.Context(), h.eng.DocID())
	if err != nil {
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}
	c.JSON(200, gin.H{"members": members})
}

// SaveDocument 触发一次快照落库。
func (h *AgentHandlers) SaveDocument(c *gin.Context) {
	if err := h.eng.SaveSnapshot(c.Request.Context()); err != nil {
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}
	_, rev := h.eng.Snapshot()
	c.JSON(200, gin.H{"docId": h.eng.DocID(), "revision": rev, "saved": true})
}

// SubmitEdit 接收一条本地编辑，请求体就是 wire 形状的 JSON：
//
//	{"collabedit_type":"replace_line","line":5,"text":"x"}
//
// 解码失败按错误种类回 400，成功后交给引擎主循环。
func (h *AgentHandlers) SubmitEdit(c *gin.Context) {
	var raw map[string]any
	if err := c.ShouldBindJSON(&raw); err != nil {
		c.JSON(400, gin.H{"error": "INVALID_JSON"})
		return
	}
	edit, err := collab.Decode(raw)
	if err != nil {
		switch {
		case errors.Is(err, collab.ErrNotAnEdit),
			errors.Is(err, collab.ErrUnknownEditType),
			errors.Is(err, collab.ErrMalformedEdit):
			c.JSON(400, gin.H{"error": err.Error()})
		default:
			c.JSON(500, gin.H{"error": err.Error()})
		}
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 200*time.Millisecond)
	defer cancel()
	if err := h.eng.SubmitLocalEdit(ctx, edit); err != nil {
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}
	c.JSON(200, gin.H{"accepted": true, "type": string(edit.Type)})
}
