package server

import "testing"

func TestJoinSpawnsWithinRoomRect(t *testing.T) {
	g := newTestRegistry(t)
	cases := []string{"cinema", "library", "townhall", "main", "uncharted-room"}
	for _, room := range cases {
		out := joinAs(t, g, "s-"+room, room, "")
		rect := g.spawn.Rect(room)

		inits := out.byType(EvInitialState)
		if len(inits) != 1 {
			t.Fatalf("room %s: expected 1 initial-state, got %d", room, len(inits))
		}
		snap := decodeAs[Snapshot](t, inits[0])
		state, ok := snap.Sessions["s-"+room]
		if !ok {
			t.Fatalf("room %s: joiner missing from its own initial snapshot", room)
		}
		if state.X < rect.XMin || state.X > rect.XMax || state.Y < rect.YMin || state.Y > rect.YMax {
			t.Errorf("room %s: spawn (%.1f, %.1f) outside rect %+v", room, state.X, state.Y, rect)
		}
	}
}

func TestJoinNotifiesExistingMembersOnly(t *testing.T) {
	g := newTestRegistry(t)
	outA := joinAs(t, g, "a", "townhall", "")
	outB := joinAs(t, g, "b", "townhall", "")

	if n := outA.count(EvSessionJoined); n != 1 {
		t.Fatalf("existing member should see 1 session-joined, got %d", n)
	}
	joined := decodeAs[SessionState](t, outA.byType(EvSessionJoined)[0])
	if joined.ID != "b" {
		t.Errorf("session-joined carries id %q, want b", joined.ID)
	}

	// 新加入者只收 initial-state，不收自己的 session-joined
	if n := outB.count(EvSessionJoined); n != 0 {
		t.Errorf("joiner should not receive its own session-joined, got %d", n)
	}
	snap := decodeAs[Snapshot](t, outB.byType(EvInitialState)[0])
	if len(snap.Sessions) != 2 {
		t.Errorf("joiner snapshot has %d sessions, want 2", len(snap.Sessions))
	}
}

func TestDisconnectIsIdempotentAndNotifiesOnce(t *testing.T) {
	g := newTestRegistry(t)
	joinAs(t, g, "a", "townhall", "")
	outB := joinAs(t, g, "b", "townhall", "")

	g.Disconnect("a")
	g.Disconnect("a") // 重复清理必须为 no-op

	if n := outB.count(EvSessionLeft); n != 1 {
		t.Fatalf("expected exactly 1 session-left, got %d", n)
	}
	left := decodeAs[SessionLeftEvent](t, outB.byType(EvSessionLeft)[0])
	if left.SessionID != "a" {
		t.Errorf("session-left carries %q, want a", left.SessionID)
	}

	_, sessions := g.Counts()
	if sessions != 1 {
		t.Errorf("registry holds %d sessions after disconnect, want 1", sessions)
	}
}

func TestDisconnectBeforeJoinIsNoop(t *testing.T) {
	g := newTestRegistry(t)
	out := &fakeOutbox{}
	g.Register("ghost", out)
	g.Disconnect("ghost")
	g.Disconnect("ghost")
	if len(out.events) != 0 {
		t.Errorf("unjoined session should produce no events, got %d", len(out.events))
	}
}

func TestRejoinSwitchesRoom(t *testing.T) {
	g := newTestRegistry(t)
	outPeer := joinAs(t, g, "peer", "cinema", "")
	outA := joinAs(t, g, "a", "cinema", "")
	outPeer.reset()
	outA.reset()

	// 同一连接二次 join：显式的先离开再加入
	g.Join("a", nil, JoinRoomPayload{RoomName: "library"})

	if n := outPeer.count(EvSessionLeft); n != 1 {
		t.Fatalf("old room peer expected 1 session-left, got %d", n)
	}
	snap := decodeAs[Snapshot](t, outA.byType(EvInitialState)[0])
	if snap.Room != "library" {
		t.Errorf("new snapshot room %q, want library", snap.Room)
	}
	if _, ok := snap.Sessions["a"]; !ok {
		t.Error("session missing from new room snapshot")
	}

	outPeer.reset()
	g.FullSync(nowForTest())
	cinemaSnap := decodeAs[Snapshot](t, outPeer.byType(EvFullSync)[0])
	if _, ok := cinemaSnap.Sessions["a"]; ok {
		t.Error("session still present in old room after switch")
	}
}

// 客户端可以把房间叫任何名字，"none" 也不例外，不得与内部未加入状态混淆
func TestRoomNamedNoneBehavesLikeAnyRoom(t *testing.T) {
	g := newTestRegistry(t)
	joinAs(t, g, "a", "none", "")
	outB := joinAs(t, g, "b", "none", "")
	outB.reset()

	g.Disconnect("a")
	if n := outB.count(EvSessionLeft); n != 1 {
		t.Fatalf("peer expected 1 session-left, got %d", n)
	}

	g.FullSync(nowForTest())
	snap := decodeAs[Snapshot](t, outB.byType(EvFullSync)[0])
	if snap.Room != "none" {
		t.Errorf("full-sync room %q, want none", snap.Room)
	}
	if _, ok := snap.Sessions["a"]; ok {
		t.Error("disconnected session still present in room snapshot")
	}
	if len(snap.Sessions) != 1 {
		t.Errorf("snapshot holds %d sessions, want 1", len(snap.Sessions))
	}
}

func TestVisibleCountTracksMembership(t *testing.T) {
	g := newTestRegistry(t)
	outs := make(map[string]*fakeOutbox)
	for _, id := range []string{"a", "b", "c"} {
		outs[id] = joinAs(t, g, id, "main", "")
	}
	g.Disconnect("b")
	for _, o := range outs {
		o.reset()
	}

	g.FullSync(nowForTest())
	snap := decodeAs[Snapshot](t, outs["a"].byType(EvFullSync)[0])
	if len(snap.Sessions) != 2 {
		t.Errorf("broadcast shows %d sessions, want 2", len(snap.Sessions))
	}
	if _, ok := snap.Sessions["b"]; ok {
		t.Error("disconnected session still visible in broadcast state")
	}
}
