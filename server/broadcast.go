package server

import "time"

// BroadcastScheduler 按固定频率向每个非空房间推送全量快照
// 这是对增量转发丢失/乱序的纠偏机制，运行在单一 goroutine 上：
// 同一时刻只会有一个 tick 在执行，慢 tick 顺延而不重叠
type BroadcastScheduler struct {
	reg      *RoomRegistry
	interval time.Duration
	stop     chan struct{}
	done     chan struct{}
}

func NewBroadcastScheduler(reg *RoomRegistry, tickRate int) *BroadcastScheduler {
	return &BroadcastScheduler{
		reg:      reg,
		interval: time.Second / time.Duration(tickRate),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Run 启动 tick 循环，直到 Stop 被调用；应在独立 goroutine 中运行
func (s *BroadcastScheduler) Run() {
	defer close(s.done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case now := <-ticker.C:
			s.reg.FullSync(now)
		}
	}
}

// Stop 请求停止并等待当前 tick 结束，进程退出前调用一次
func (s *BroadcastScheduler) Stop() {
	close(s.stop)
	<-s.done
}

// FullSync 对每个有成员的房间盖章快照时间并推送 full-sync
// 空房间跳过；收集与序列化在锁内完成，入队在锁外
func (g *RoomRegistry) FullSync(now time.Time) {
	type flush struct {
		snap Snapshot
		outs []Outbox
	}

	g.mu.Lock()
	flushes := make([]flush, 0, len(g.rooms))
	ts := now.UnixMilli()
	for _, room := range g.rooms {
		if len(room.Sessions) == 0 {
			continue
		}
		room.LastUpdate = ts
		flushes = append(flushes, flush{snap: room.snapshot(), outs: room.outboxes("")})
	}
	g.mu.Unlock()

	for _, f := range flushes {
		data := marshalEvent(EvFullSync, f.snap)
		for _, o := range f.outs {
			o.Enqueue(data)
		}
	}
	g.metrics.IncTicks()
}
