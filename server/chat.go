package server

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// privatePrefix 私聊命令前缀："/w 用户名 内容"
const privatePrefix = "/w "

// 发给出错发送者的提示文案；错误只达本人，绝不广播、绝不断连
const (
	errNotInRoom      = "you must join the room before chatting"
	errPrivateUsage   = "usage: /w <username> <message>"
	errTargetNotFound = "player not found in this room"
	errSelfTarget     = "you cannot send a private message to yourself"
)

// SendChat 聊天入口：带私聊前缀则走私聊路径，否则公聊
// 公聊要求发送者已注册在该房间；成功后写入历史并广播全房间（含发送者）
func (g *RoomRegistry) SendChat(id SessionID, p SendChatPayload) {
	if strings.HasPrefix(p.Text, privatePrefix) {
		g.sendPrivate(id, p)
		return
	}

	g.mu.Lock()
	sess, room, ok := g.sessionInRoomLocked(id, p.Room)
	if !ok {
		g.mu.Unlock()
		g.chatError(id, errNotInRoom)
		return
	}

	msg := ChatMessage{
		ID:        uuid.NewString(),
		SenderID:  string(id),
		Color:     sess.Color,
		Username:  p.Username,
		Text:      p.Text,
		Timestamp: time.Now().UnixMilli(),
		Room:      p.Room,
	}
	room.appendHistory(msg)
	data := marshalEvent(EvChatMessage, msg)
	all := room.outboxes("")
	g.mu.Unlock()

	for _, o := range all {
		o.Enqueue(data)
	}
	g.metrics.IncChat()
}

// sendPrivate 解析并投递私聊：目标在同房间内按用户名大小写不敏感匹配
// 目标收 private-message，发送者收一份带确认标记的副本；不进历史
func (g *RoomRegistry) sendPrivate(id SessionID, p SendChatPayload) {
	rest := strings.TrimPrefix(p.Text, privatePrefix)
	target, body, found := strings.Cut(strings.TrimSpace(rest), " ")
	body = strings.TrimSpace(body)
	if !found || target == "" || body == "" {
		g.chatError(id, errPrivateUsage)
		return
	}

	g.mu.Lock()
	sess, room, ok := g.sessionInRoomLocked(id, p.Room)
	if !ok {
		g.mu.Unlock()
		g.chatError(id, errNotInRoom)
		return
	}

	targetSess := room.findByUsername(target)
	if targetSess == nil {
		g.mu.Unlock()
		g.chatError(id, errTargetNotFound)
		return
	}
	if targetSess.ID == id {
		g.mu.Unlock()
		g.chatError(id, errSelfTarget)
		return
	}

	msg := ChatMessage{
		ID:              uuid.NewString(),
		SenderID:        string(id),
		Color:           sess.Color,
		Username:        p.Username,
		Text:            body,
		Timestamp:       time.Now().UnixMilli(),
		Room:            p.Room,
		IsPrivate:       true,
		TargetUsername:  targetSess.Username,
		TargetSessionID: string(targetSess.ID),
	}
	targetOut := targetSess.Out
	senderOut := sess.Out
	g.mu.Unlock()

	if targetOut != nil {
		targetOut.Enqueue(marshalEvent(EvPrivateMessage, msg))
	}
	if senderOut != nil {
		confirm := msg
		confirm.IsSenderConfirmation = true
		senderOut.Enqueue(marshalEvent(EvPrivateMessage, confirm))
	}
	g.metrics.IncPrivate()
}

// History 时点回放：把房间已存的公聊历史（最旧在前）只发给请求者，不是订阅
func (g *RoomRegistry) History(id SessionID, p HistoryRequestPayload) {
	g.mu.Lock()
	sess, room, ok := g.sessionInRoomLocked(id, p.Room)
	if !ok {
		g.mu.Unlock()
		g.chatError(id, errNotInRoom)
		return
	}
	msgs := room.historyCopy()
	out := sess.Out
	g.mu.Unlock()

	if out != nil {
		out.Enqueue(marshalEvent(EvChatHistory, ChatHistoryEvent{Room: p.Room, Messages: msgs}))
	}
}

// chatError 仅向发送者本人投递错误事件
func (g *RoomRegistry) chatError(id SessionID, text string) {
	g.mu.Lock()
	var out Outbox
	if sess, ok := g.sessions[id]; ok {
		out = sess.Out
	}
	g.mu.Unlock()

	if out != nil {
		out.Enqueue(marshalEvent(EvChatError, ChatErrorEvent{Message: text}))
	}
	g.metrics.IncChatErrors()
}
