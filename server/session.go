package server

// SessionID 一个连接的唯一标识（连接建立时分配，不透明）
type SessionID string

// Outbox 连接的出站抽象：Enqueue 不阻塞、不保证送达（队列满即丢弃）
// 状态变更路径上绝不等待网络写出，避免慢连接拖住整个房间
type Outbox interface {
	Enqueue(b []byte)
}

// Session 一个连接的游戏态（服务端权威）
// 仅允许持锁路径修改；Room 字段每次变更前重新读取，不信任 handler 本地缓存
type Session struct {
	ID        SessionID
	Room      string // 当前房间名，未加入时为空；空名不会与客户端房间名冲突（空的加入请求落到缺省房间）
	X         float64
	Y         float64
	Facing    string
	SpriteKey string
	Moving    bool
	Color     string

	// 以下由外部身份服务解析而来，解析失败保持空值（非致命）
	Username string
	Verified bool
	Wallet   string

	Out Outbox
}

// State 转为广播用的轻量结构（只读副本）
func (s *Session) State() SessionState {
	return SessionState{
		ID:        string(s.ID),
		X:         s.X,
		Y:         s.Y,
		Facing:    s.Facing,
		SpriteKey: s.SpriteKey,
		Moving:    s.Moving,
		Color:     s.Color,
		Username:  s.Username,
		Verified:  s.Verified,
	}
}

// displayColors 加入时轮转分配的显示色板
var displayColors = []string{
	"#e6194b", "#3cb44b", "#ffe119", "#4363d8",
	"#f58231", "#911eb4", "#46f0f0", "#f032e6",
}
