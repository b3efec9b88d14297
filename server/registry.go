package server

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// RoomRegistry 持有全部房间与会话，启动时构造一次并显式传入各 handler
// 单把互斥锁串行化所有状态变更（加入/离开/移动/聊天），出站发送一律在锁外入队
type RoomRegistry struct {
	mu       sync.Mutex
	rooms    map[string]*Room
	sessions map[SessionID]*Session // 会话 → 所属房间的反查

	cfg      *Config
	spawn    *SpawnPolicy
	identity IdentityResolver
	metrics  *Metrics
	log      *zap.SugaredLogger

	colorSeq int
}

func NewRoomRegistry(cfg *Config, identity IdentityResolver, metrics *Metrics, log *zap.SugaredLogger) *RoomRegistry {
	if identity == nil {
		identity = AnonymousResolver{}
	}
	if metrics == nil {
		metrics = &Metrics{}
	}
	return &RoomRegistry{
		rooms:    make(map[string]*Room),
		sessions: make(map[SessionID]*Session),
		cfg:      cfg,
		spawn:    NewSpawnPolicy(cfg),
		identity: identity,
		metrics:  metrics,
		log:      log,
	}
}

// Register 连接建立时创建未加入任何房间的会话
// 此时即可收到 chat-error 等定向事件，但不出现在任何房间快照中
func (g *RoomRegistry) Register(id SessionID, out Outbox) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.sessions[id]; ok {
		return
	}
	g.sessions[id] = &Session{
		ID:     id,
		Facing: "down",
		Color:  displayColors[g.colorSeq%len(displayColors)],
		Out:    out,
	}
	g.colorSeq++
}

// Join 将连接加入房间：计算出生点、挂入房间、对本人回发全量快照、
// 对房间其余成员广播 session-joined。同一连接再次 Join 视为先离开旧房间再加入
func (g *RoomRegistry) Join(id SessionID, out Outbox, p JoinRoomPayload) {
	roomName := p.RoomName
	if roomName == "" {
		roomName = g.cfg.DefaultRoom
	}

	// 身份解析走外部协作方，必须在锁外完成
	ident, _ := g.identity.Resolve(p.Token)

	x, y := g.spawn.Pick(roomName)

	g.mu.Lock()

	sess, ok := g.sessions[id]
	if !ok {
		sess = &Session{ID: id, Color: displayColors[g.colorSeq%len(displayColors)], Out: out}
		g.colorSeq++
		g.sessions[id] = sess
	}
	if out != nil {
		sess.Out = out
	}

	// 换房：先从旧房间摘除并准备 session-left 广播
	var leftOuts []Outbox
	var leftData []byte
	if sess.Room != "" {
		if oldRoom, ok := g.rooms[sess.Room]; ok {
			delete(oldRoom.Sessions, id)
			oldRoom.LastUpdate = time.Now().UnixMilli()
			leftOuts = oldRoom.outboxes("")
			leftData = marshalEvent(EvSessionLeft, SessionLeftEvent{SessionID: string(id)})
		}
	}

	sess.Room = roomName
	sess.X = x
	sess.Y = y
	sess.Facing = "down"
	sess.Moving = false
	if ident.Username != "" {
		sess.Username = ident.Username
		sess.Verified = ident.Verified
		sess.Wallet = ident.Wallet
	}

	room := g.getOrCreateRoomLocked(roomName)
	room.Sessions[id] = sess
	room.LastUpdate = time.Now().UnixMilli()

	out = sess.Out

	initData := marshalEvent(EvInitialState, room.snapshot())
	joinedData := marshalEvent(EvSessionJoined, sess.State())
	peers := room.outboxes(id)

	g.mu.Unlock()

	for _, o := range leftOuts {
		o.Enqueue(leftData)
	}
	if out != nil {
		out.Enqueue(initData)
	}
	for _, o := range peers {
		o.Enqueue(joinedData)
	}

	g.metrics.IncJoins()
	g.log.Infof("session %s joined room %s at (%.1f, %.1f)", id, roomName, x, y)
}

// Disconnect 终态清理：从所属房间摘除并广播一次 session-left
// 幂等，从未加入或已清理过的会话直接返回
func (g *RoomRegistry) Disconnect(id SessionID) {
	g.mu.Lock()
	sess, ok := g.sessions[id]
	if !ok {
		g.mu.Unlock()
		return
	}
	delete(g.sessions, id)

	var peers []Outbox
	if sess.Room != "" {
		if room, ok := g.rooms[sess.Room]; ok {
			delete(room.Sessions, id)
			room.LastUpdate = time.Now().UnixMilli()
			peers = room.outboxes("")
		}
	}
	g.mu.Unlock()

	if len(peers) > 0 {
		data := marshalEvent(EvSessionLeft, SessionLeftEvent{SessionID: string(id)})
		for _, o := range peers {
			o.Enqueue(data)
		}
	}

	g.metrics.IncLeaves()
	g.log.Infof("session %s disconnected from room %s", id, sess.Room)
}

// getOrCreateRoomLocked 取出或隐式创建房间，调用方必须持锁
func (g *RoomRegistry) getOrCreateRoomLocked(name string) *Room {
	room, ok := g.rooms[name]
	if !ok {
		room = newRoom(name, g.cfg.ChatHistoryCap)
		g.rooms[name] = room
		g.log.Infof("room %s created", name)
	}
	return room
}

// sessionInRoomLocked 校验发送者确已注册在其声称的房间，调用方必须持锁
// 聊天与移动转发的统一门禁
func (g *RoomRegistry) sessionInRoomLocked(id SessionID, roomName string) (*Session, *Room, bool) {
	sess, ok := g.sessions[id]
	if !ok || sess.Room != roomName {
		return nil, nil, false
	}
	room, ok := g.rooms[roomName]
	if !ok {
		return nil, nil, false
	}
	if _, ok := room.Sessions[id]; !ok {
		return nil, nil, false
	}
	return sess, room, true
}

// Counts 返回当前房间数与会话数，供诊断接口
func (g *RoomRegistry) Counts() (rooms, sessions int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.rooms), len(g.sessions)
}
