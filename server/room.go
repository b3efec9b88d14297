package server

import "strings"

// Room 命名房间：成员会话、有界聊天历史、快照时间戳
// 首次加入时隐式创建，空房间不回收；所有字段仅在注册表持锁时访问
type Room struct {
	Name       string
	Sessions   map[SessionID]*Session
	LastUpdate int64 // 最近一次快照时间（Unix 毫秒）

	history    []ChatMessage
	historyCap int
}

func newRoom(name string, historyCap int) *Room {
	return &Room{
		Name:       name,
		Sessions:   make(map[SessionID]*Session),
		history:    make([]ChatMessage, 0, historyCap),
		historyCap: historyCap,
	}
}

// appendHistory 追加公聊消息，超上限时严格 FIFO 淘汰最旧一条
// 私聊消息绝不进入历史，调用方保证
func (r *Room) appendHistory(msg ChatMessage) {
	if len(r.history) >= r.historyCap {
		r.history = r.history[1:]
	}
	r.history = append(r.history, msg)
}

// historyCopy 返回历史的只读副本（最旧在前），供锁外回放
func (r *Room) historyCopy() []ChatMessage {
	out := make([]ChatMessage, len(r.history))
	copy(out, r.history)
	return out
}

// findByUsername 按用户名在本房间内大小写不敏感查找，未命中返回 nil
func (r *Room) findByUsername(name string) *Session {
	for _, s := range r.Sessions {
		if s.Username != "" && strings.EqualFold(s.Username, name) {
			return s
		}
	}
	return nil
}

// snapshot 生成当前全量状态（成员副本），LastUpdate 由调用方先行盖章
func (r *Room) snapshot() Snapshot {
	sessions := make(map[string]SessionState, len(r.Sessions))
	for id, s := range r.Sessions {
		sessions[string(id)] = s.State()
	}
	return Snapshot{Room: r.Name, Sessions: sessions, LastUpdate: r.LastUpdate}
}

// outboxes 收集成员出站队列；exclude 非空时排除该会话（如不回显发送者）
func (r *Room) outboxes(exclude SessionID) []Outbox {
	outs := make([]Outbox, 0, len(r.Sessions))
	for id, s := range r.Sessions {
		if exclude != "" && id == exclude {
			continue
		}
		if s.Out != nil {
			outs = append(outs, s.Out)
		}
	}
	return outs
}
