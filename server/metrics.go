package server

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
)

// Metrics 记录运行期关键指标（用于监控与调试）
type Metrics struct {
	Joins           int64 // 加入房间次数
	Leaves          int64 // 断连清理次数
	MovesRelayed    int64 // 转发的移动事件数
	InputsRelayed   int64 // 转发的输入变更事件数
	ChatMessages    int64 // 公聊消息数
	PrivateMessages int64 // 私聊投递数
	ChatErrors      int64 // 回给发送者的聊天错误数
	Ticks           int64 // 全量广播 tick 次数
	DroppedSends    int64 // 出站队列满被丢弃的消息数
}

func (m *Metrics) IncJoins()      { atomic.AddInt64(&m.Joins, 1) }
func (m *Metrics) IncLeaves()     { atomic.AddInt64(&m.Leaves, 1) }
func (m *Metrics) IncMoves()      { atomic.AddInt64(&m.MovesRelayed, 1) }
func (m *Metrics) IncInputs()     { atomic.AddInt64(&m.InputsRelayed, 1) }
func (m *Metrics) IncChat()       { atomic.AddInt64(&m.ChatMessages, 1) }
func (m *Metrics) IncPrivate()    { atomic.AddInt64(&m.PrivateMessages, 1) }
func (m *Metrics) IncChatErrors() { atomic.AddInt64(&m.ChatErrors, 1) }
func (m *Metrics) IncTicks()      { atomic.AddInt64(&m.Ticks, 1) }
func (m *Metrics) IncDropped()    { atomic.AddInt64(&m.DroppedSends, 1) }

// Snapshot 返回只读副本，便于 HTTP 输出
func (m *Metrics) Snapshot() map[string]int64 {
	return map[string]int64{
		"joins":            atomic.LoadInt64(&m.Joins),
		"leaves":           atomic.LoadInt64(&m.Leaves),
		"moves_relayed":    atomic.LoadInt64(&m.MovesRelayed),
		"inputs_relayed":   atomic.LoadInt64(&m.InputsRelayed),
		"chat_messages":    atomic.LoadInt64(&m.ChatMessages),
		"private_messages": atomic.LoadInt64(&m.PrivateMessages),
		"chat_errors":      atomic.LoadInt64(&m.ChatErrors),
		"ticks":            atomic.LoadInt64(&m.Ticks),
		"dropped_sends":    atomic.LoadInt64(&m.DroppedSends),
	}
}

// HandleDiagnostics 输出注册表规模与指标计数
// GET /diagnostics
func HandleDiagnostics(reg *RoomRegistry, m *Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rooms, sessions := reg.Counts()
		payload := map[string]any{
			"rooms":    rooms,
			"sessions": sessions,
			"metrics":  m.Snapshot(),
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(payload)
	}
}
