package ws

import (
	"context"
	"errors"
	"log"
	"net"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/rosalee33/collab-vim/backend/internal/collab"
)

// Client：到远端协同后端的 websocket 连接。
// 入站方向跑接收循环（独立 goroutine），出站方向是
// 加锁的同步写（RemoteEmitter 的出站通道）。
type Client struct {
	conn  *websocket.Conn
	queue *collab.EditQueue
	buf   collab.Buffer

	// gorilla 的连接同一时刻只允许一个写者
	writeMu sync.Mutex

	closeOnce sync.Once
}

// Dial 连接远端后端。url 形如 ws://host:port/collab/ws。
func Dial(ctx context.Context, url string, queue *collab.EditQueue, buf collab.Buffer) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return NewClient(conn, queue, buf), nil
}

// NewClient 包装一条已建立的连接（测试里配合 httptest 用）。
func NewClient(conn *websocket.Conn, queue *collab.EditQueue, buf collab.Buffer) *Client {
	return &Client{conn: conn, queue: queue, buf: buf}
}

// ReadLoop 接收循环：等消息 → 过滤 → 解码 → 入队，循环往复。
// 每条消息同步处理完再收下一条，不乱序、不并发解码。
// 坏消息只记日志不致命；循环只在连接关闭或 ctx 取消时退出。
// 调用方自起 goroutine 跑它。
func (c *Client) ReadLoop(ctx context.Context) {
	// ctx 取消时关掉连接，把阻塞中的 ReadJSON 顶出来
	stop := context.AfterFunc(ctx, func() { c.Close() })
	defer stop()

	for {
		var raw any
		if err := c.conn.ReadJSON(&raw); err != nil {
			if ctx.Err() == nil && !errors.Is(err, net.ErrClosed) {
				log.Printf("read message error: %v", err)
			}
			return
		}

		// FILTER：不是键值映射、或没有判别字段的，不是给我们的消息。
		// 消息照样算被消费掉了，跳过继续等下一条。
		dict, ok := raw.(map[string]any)
		if !ok {
			log.Printf("info: skipping non collabedit message")
			continue
		}
		if _, ok := dict[collab.KeyType]; !ok {
			log.Printf("info: skipping non collabedit dict")
			continue
		}

		// DECODE：失败记上错误种类然后丢弃，循环继续
		edit, err := collab.Decode(dict)
		if err != nil {
			log.Printf("info: drop inbound edit: %v", err)
			continue
		}

		// ENQUEUE：盖上目标缓冲区句柄，移交给应用循环
		edit.Buf = c.buf
		c.queue.Enqueue(edit)
	}
}

// WriteMessage 同步发一条出站消息，collab.MessageWriter 的实现。
// 顺序由调用方线程保证，这里只管互斥。
func (c *Client) WriteMessage(msg map[string]any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(msg)
}

func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() { err = c.conn.Close() })
	return err
}
