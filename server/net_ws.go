package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// ClientConn 负责发送（写）数据到客户端的轻量包装
// 出站走有界队列：队列满时丢弃本条消息，宁可漏发增量也不阻塞状态变更路径
// （下一次 full-sync 会纠偏）
type ClientConn struct {
	ws      *websocket.Conn
	metrics *Metrics

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

func NewClientConn(ws *websocket.Conn, queueSize int, metrics *Metrics) *ClientConn {
	return &ClientConn{
		ws:      ws,
		send:    make(chan []byte, queueSize),
		metrics: metrics,
	}
}

// Enqueue 将要发送的消息压入队列（非阻塞，满则丢弃并计数）
// 广播路径在注册表锁外入队，此时连接可能已断开：
// closed 与 send 同锁保护，保证不会向已关闭的通道发送
func (c *ClientConn) Enqueue(b []byte) {
	if b == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return // 连接已关闭，晚到的广播直接丢弃
	}
	select {
	case c.send <- b:
	default:
		c.metrics.IncDropped()
	}
}

// Close 关闭底层连接与发送队列，可安全重复调用
func (c *ClientConn) Close() {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
	c.mu.Unlock()
	if c.ws != nil {
		_ = c.ws.Close()
	}
}

// writePump 独立协程，负责从 send 队列写出到 WS
func (c *ClientConn) writePump() {
	defer c.ws.Close()
	for msg := range c.send {
		_ = c.ws.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

// WSGateway WebSocket 接入层：升级连接、注册会话、分发入站事件
type WSGateway struct {
	Registry *RoomRegistry
	Config   *Config
	Metrics  *Metrics
	Log      *zap.SugaredLogger
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// 演示环境：允许所有来源（生产环境需严格限制）
		return true
	},
}

// HandleWS WebSocket 接入：每个连接分配一个不透明会话 id
func (gw *WSGateway) HandleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		gw.Log.Warnf("upgrade error: %v", err)
		return
	}

	id := SessionID(uuid.NewString())
	client := NewClientConn(ws, gw.Config.SendQueueSize, gw.Metrics)
	gw.Registry.Register(id, client)

	go client.writePump()
	go gw.readPump(client, id)
}

// readPump 读取并分发入站事件；退出时执行终态清理（幂等，恰好通知一次）
func (gw *WSGateway) readPump(c *ClientConn, id SessionID) {
	defer c.Close()
	defer gw.Registry.Disconnect(id)
	c.ws.SetReadLimit(1 << 20) // 1MB
	_ = c.ws.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(60 * time.Second))
	})

	for {
		_, payload, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		_ = c.ws.SetReadDeadline(time.Now().Add(60 * time.Second))

		var env Envelope
		if err := json.Unmarshal(payload, &env); err != nil {
			continue // 非法 JSON 跳过，不断连
		}
		gw.dispatch(c, id, env)
	}
}

// dispatch 按事件类型分发；字段校验在各 payload 解析后、状态变更前完成
// 未知类型静默忽略
func (gw *WSGateway) dispatch(c *ClientConn, id SessionID, env Envelope) {
	switch env.Type {
	case EvJoinRoom:
		var p JoinRoomPayload
		if json.Unmarshal(env.Data, &p) != nil {
			return
		}
		gw.Registry.Join(id, c, p)
	case EvMove:
		var p MovePayload
		if json.Unmarshal(env.Data, &p) != nil || p.Room == "" {
			return
		}
		gw.Registry.Move(id, p)
	case EvInputChanged:
		var p InputChangedPayload
		if json.Unmarshal(env.Data, &p) != nil || p.Room == "" {
			return
		}
		gw.Registry.InputChanged(id, p)
	case EvSendChat:
		var p SendChatPayload
		if json.Unmarshal(env.Data, &p) != nil || p.Text == "" {
			return
		}
		gw.Registry.SendChat(id, p)
	case EvRequestHistory:
		var p HistoryRequestPayload
		if json.Unmarshal(env.Data, &p) != nil || p.Room == "" {
			return
		}
		gw.Registry.History(id, p)
	}
}
