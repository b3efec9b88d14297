package server

// Move 权威采纳发送者的最新位置与动画，并转发给同房间其他成员（不回显）
// 发送者未注册在声称的房间时整条丢弃，不产生任何转发
func (g *RoomRegistry) Move(id SessionID, p MovePayload) {
	facing, ok := normalizeFacing(p.Facing)
	if !ok {
		return
	}

	g.mu.Lock()
	sess, room, ok := g.sessionInRoomLocked(id, p.Room)
	if !ok {
		g.mu.Unlock()
		return
	}

	sess.X = p.X
	sess.Y = p.Y
	sess.Facing = facing
	sess.SpriteKey = p.SpriteKey
	sess.Moving = p.Moving

	data := marshalEvent(EvMoved, MovedEvent{
		SessionID: string(id),
		X:         p.X,
		Y:         p.Y,
		Facing:    facing,
		SpriteKey: p.SpriteKey,
		Moving:    p.Moving,
	})
	peers := room.outboxes(id)
	g.mu.Unlock()

	for _, o := range peers {
		o.Enqueue(data)
	}
	g.metrics.IncMoves()
}

// InputChanged 移动 tick 之间的轻量变更：只更新朝向/动画，不动位置
// 门禁与转发规则同 Move
func (g *RoomRegistry) InputChanged(id SessionID, p InputChangedPayload) {
	facing, ok := normalizeFacing(p.Facing)
	if !ok {
		return
	}

	g.mu.Lock()
	sess, room, ok := g.sessionInRoomLocked(id, p.Room)
	if !ok {
		g.mu.Unlock()
		return
	}

	sess.Facing = facing
	sess.SpriteKey = p.SpriteKey
	sess.Moving = p.Moving

	data := marshalEvent(EvInputChanged, InputChangedEvent{
		SessionID: string(id),
		Facing:    facing,
		SpriteKey: p.SpriteKey,
		Moving:    p.Moving,
	})
	peers := room.outboxes(id)
	g.mu.Unlock()

	for _, o := range peers {
		o.Enqueue(data)
	}
	g.metrics.IncInputs()
}
