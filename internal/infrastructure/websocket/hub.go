package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/wupeiyao/larkchat/internal/domain/doc"
	"github.com/wupeiyao/larkchat/internal/infrastructure/log"
)

const (
	// TopicDocs 文档同步通知
	TopicDocs = "docs"
	// MessageTypeDocSync 同步报告消息类型
	MessageTypeDocSync = "doc_sync"

	broadcastBuffer = 64
)

// Envelope 推送给客户端的消息
type Envelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Message 待广播的消息
type Message struct {
	Topic string
	Data  []byte
}

// Hub WebSocket 连接管理中心
// 订阅表只由 Run 协程读写
type Hub struct {
	// 按主题分组的连接
	topics map[string]map[*Client]bool
	// 注册连接
	register chan *Client
	// 注销连接
	unregister chan *Client
	// 广播消息
	broadcast chan *Message

	clients  atomic.Int64
	stopCh   chan struct{}
	stopOnce sync.Once
	done     chan struct{}
	logger   *slog.Logger
}

var _ doc.Notifier = (*Hub)(nil)

// NewHub 创建 Hub
func NewHub() *Hub {
	return &Hub{
		topics:     make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *Message, broadcastBuffer),
		stopCh:     make(chan struct{}),
		done:       make(chan struct{}),
		logger:     log.NewModuleLogger("websocket", "hub"),
	}
}

// Run 运行 Hub（需要在 goroutine 中运行）
func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.stopCh:
			for _, clients := range h.topics {
				for c := range clients {
					close(c.send)
				}
			}
			h.topics = make(map[string]map[*Client]bool)
			h.clients.Store(0)
			return

		case c := <-h.register:
			if h.topics[c.topic] == nil {
				h.topics[c.topic] = make(map[*Client]bool)
			}
			h.topics[c.topic][c] = true
			h.clients.Add(1)

		case c := <-h.unregister:
			h.remove(c)

		case msg := <-h.broadcast:
			for c := range h.topics[msg.Topic] {
				select {
				case c.send <- msg.Data:
				default:
					// 慢消费者直接断开
					h.logger.Warn("Client send buffer full, dropping client", "topic", msg.Topic)
					h.remove(c)
				}
			}
		}
	}
}

func (h *Hub) remove(c *Client) {
	clients, ok := h.topics[c.topic]
	if !ok {
		return
	}
	if _, ok := clients[c]; !ok {
		return
	}
	delete(clients, c)
	close(c.send)
	h.clients.Add(-1)
	if len(clients) == 0 {
		delete(h.topics, c.topic)
	}
}

// Start 启动 Hub（启动后台 goroutine）
func (h *Hub) Start() {
	go h.Run()
}

// Stop 停止 Hub 并关闭全部连接的发送通道，可重复调用
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.stopCh)
		<-h.done
	})
}

// Register 注册连接，Hub 已停止时返回 false
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.stopCh:
		return false
	}
}

// Unregister 注销连接
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.stopCh:
	}
}

// ClientCount 当前连接数
func (h *Hub) ClientCount() int {
	return int(h.clients.Load())
}

// Publish 向主题广播消息，缓冲区满时丢弃
func (h *Hub) Publish(topic, msgType string, data any) error {
	payload, err := json.Marshal(Envelope{Type: msgType, Data: data})
	if err != nil {
		return err
	}

	select {
	case h.broadcast <- &Message{Topic: topic, Data: payload}:
	case <-h.stopCh:
	default:
		h.logger.Warn("Broadcast buffer full, dropping message", "topic", topic, "type", msgType)
	}
	return nil
}

// PublishSyncReport 推送同步报告
func (h *Hub) PublishSyncReport(report *doc.SyncReport) {
	if err := h.Publish(TopicDocs, MessageTypeDocSync, report); err != nil {
		h.logger.Error("Failed to publish sync report", "error", err)
	}
}
