package server

import (
	"encoding/json"
	"strings"
)

// 入站事件类型（客户端 → 服务端），封闭集合，未知类型直接忽略
const (
	EvJoinRoom       = "join-room"
	EvMove           = "move"
	EvInputChanged   = "input-changed"
	EvSendChat       = "send-chat"
	EvRequestHistory = "request-chat-history"
)

// 出站事件类型（服务端 → 客户端）
const (
	EvInitialState   = "initial-state"
	EvSessionJoined  = "session-joined"
	EvSessionLeft    = "session-left"
	EvMoved          = "moved"
	EvChatMessage    = "chat-message"
	EvChatError      = "chat-error"
	EvChatHistory    = "chat-history"
	EvPrivateMessage = "private-message"
	EvFullSync       = "full-sync"
)

// Envelope 统一消息信封：{"type":"move","data":{...}}
// data 延迟解析，按 type 分发后再校验字段
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// JoinRoomPayload 加入房间请求；token 为身份服务签发的不透明令牌，可为空
type JoinRoomPayload struct {
	RoomName string `json:"roomName"`
	Token    string `json:"token,omitempty"`
}

// MovePayload 完整移动事件（位置 + 动画）
type MovePayload struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Facing    string  `json:"facing"`
	SpriteKey string  `json:"spriteKey"`
	Moving    bool    `json:"moving"`
	Room      string  `json:"room"`
}

// InputChangedPayload 仅携带朝向/动画的轻量事件，不更新位置
type InputChangedPayload struct {
	Facing    string `json:"facing"`
	SpriteKey string `json:"spriteKey"`
	Moving    bool   `json:"moving"`
	Room      string `json:"room"`
}

// SendChatPayload 聊天请求；私聊由文本前缀触发，见 chat.go
type SendChatPayload struct {
	Room     string `json:"room"`
	Username string `json:"username"`
	Text     string `json:"text"`
}

// HistoryRequestPayload 聊天历史回放请求
type HistoryRequestPayload struct {
	Room string `json:"room"`
}

// SessionState 广播给客户端的会话轻量状态
type SessionState struct {
	ID        string  `json:"id"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Facing    string  `json:"facing"`
	SpriteKey string  `json:"spriteKey"`
	Moving    bool    `json:"moving"`
	Color     string  `json:"color"`
	Username  string  `json:"username,omitempty"`
	Verified  bool    `json:"verified,omitempty"`
}

// Snapshot 某一时刻房间的完整状态（全量，非增量）
type Snapshot struct {
	Room       string                  `json:"room"`
	Sessions   map[string]SessionState `json:"sessions"`
	LastUpdate int64                   `json:"lastUpdate"`
}

// MovedEvent 转发给同房间其他会话的移动事件
type MovedEvent struct {
	SessionID string  `json:"sessionId"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Facing    string  `json:"facing"`
	SpriteKey string  `json:"spriteKey"`
	Moving    bool    `json:"moving"`
}

// InputChangedEvent 转发给同房间其他会话的输入变更事件
type InputChangedEvent struct {
	SessionID string `json:"sessionId"`
	Facing    string `json:"facing"`
	SpriteKey string `json:"spriteKey"`
	Moving    bool   `json:"moving"`
}

// ChatMessage 公聊消息；私聊复用同一结构并置位 IsPrivate
type ChatMessage struct {
	ID        string `json:"id"`
	SenderID  string `json:"senderSessionId"`
	Color     string `json:"displayColor"`
	Username  string `json:"username"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
	Room      string `json:"room"`

	IsPrivate            bool   `json:"isPrivate,omitempty"`
	TargetUsername       string `json:"targetUsername,omitempty"`
	TargetSessionID      string `json:"targetSessionId,omitempty"`
	IsSenderConfirmation bool   `json:"isSenderConfirmation,omitempty"`
}

// ChatErrorEvent 仅发给出错的发送者本人
type ChatErrorEvent struct {
	Message string `json:"message"`
}

// SessionLeftEvent 会话离开通知
type SessionLeftEvent struct {
	SessionID string `json:"sessionId"`
}

// ChatHistoryEvent 历史回放，最旧在前
type ChatHistoryEvent struct {
	Room     string        `json:"room"`
	Messages []ChatMessage `json:"messages"`
}

// validFacings 朝向的封闭集合，非法值在状态变更前拒绝
var validFacings = map[string]bool{
	"up":    true,
	"down":  true,
	"left":  true,
	"right": true,
}

// normalizeFacing 统一成小写再校验；入库与转发一律用规范化后的值，
// 保证快照中只出现封闭集合内的写法
func normalizeFacing(f string) (string, bool) {
	f = strings.ToLower(f)
	return f, validFacings[f]
}

// marshalEvent 打包出站事件；序列化失败属编程错误，返回 nil 由调用方丢弃
func marshalEvent(eventType string, payload any) []byte {
	b, err := json.Marshal(Envelope{Type: eventType, Data: mustRaw(payload)})
	if err != nil {
		return nil
	}
	return b
}

func mustRaw(payload any) json.RawMessage {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	return b
}
