package server

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

func nowForTest() time.Time { return time.Now() }

// fakeOutbox 记录所有入队事件，代替真实 WebSocket 连接
type fakeOutbox struct {
	mu     sync.Mutex
	events []Envelope
}

func (f *fakeOutbox) Enqueue(b []byte) {
	if b == nil {
		return
	}
	var env Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		panic("fakeOutbox: bad event payload: " + err.Error())
	}
	f.mu.Lock()
	f.events = append(f.events, env)
	f.mu.Unlock()
}

// byType 返回指定类型的事件（按入队顺序）
func (f *fakeOutbox) byType(eventType string) []Envelope {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Envelope
	for _, e := range f.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

func (f *fakeOutbox) count(eventType string) int {
	return len(f.byType(eventType))
}

func (f *fakeOutbox) reset() {
	f.mu.Lock()
	f.events = nil
	f.mu.Unlock()
}

// stubResolver 把 token 原样当用户名，便于测试私聊寻址
type stubResolver struct{}

func (stubResolver) Resolve(token string) (Identity, bool) {
	if token == "" {
		return Identity{}, false
	}
	return Identity{Username: token, Verified: true}, true
}

func newTestRegistry(t *testing.T) *RoomRegistry {
	t.Helper()
	return NewRoomRegistry(DefaultConfig(), stubResolver{}, &Metrics{}, zap.NewNop().Sugar())
}

// joinAs 建连 + 加入房间，返回记录用 outbox
func joinAs(t *testing.T, g *RoomRegistry, id, room, username string) *fakeOutbox {
	t.Helper()
	out := &fakeOutbox{}
	g.Register(SessionID(id), out)
	g.Join(SessionID(id), out, JoinRoomPayload{RoomName: room, Token: username})
	return out
}

// decodeAs 把事件 data 解析为具体 payload
func decodeAs[T any](t *testing.T, env Envelope) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(env.Data, &v); err != nil {
		t.Fatalf("decode %s payload: %v", env.Type, err)
	}
	return v
}
