package wsrooms

import (
	"errors"
	"testing"

	"go.uber.org/zap"
)

func TestRoom_AddConnection(t *testing.T) {
	room := createTestRoom()
	session := &stubSession{}

	room.AddConnection("alice", session)

	c, ok := room.CheckConnection("alice")
	if !ok {
		t.Fatalf("AddConnection didn't add connection")
	}

	if c.Session() != session {
		t.Fatalf("AddConnection installed a different session")
	}
}

func TestRoom_AddConnection_WithExistingID(t *testing.T) {
	room := createTestRoom()
	first := &stubSession{}
	second := &stubSession{}
	room.AddConnection("alice", first)

	room.AddConnection("alice", second)

	if room.Len() != 1 {
		t.Fatalf("room should contain exactly one connection, got %v", room.Len())
	}

	c, _ := room.CheckConnection("alice")
	if c.Session() != first {
		t.Fatalf("AddConnection should keep the first session for an existing id")
	}
}

func TestRoom_RemoveConnection(t *testing.T) {
	room := createTestRoom()
	session := &stubSession{}
	room.AddConnection("alice", session)

	got, ok := room.RemoveConnection("alice")

	if !ok {
		t.Fatalf("RemoveConnection should report the removal")
	}

	if got != session {
		t.Fatalf("RemoveConnection should return the removed session")
	}

	if room.Len() != 0 {
		t.Fatalf("RemoveConnection should remove the connection")
	}
}

func TestRoom_RemoveConnection_WithMissingID(t *testing.T) {
	room := createTestRoom()

	got, ok := room.RemoveConnection("alice")

	if ok || got != nil {
		t.Fatalf("RemoveConnection on a missing id should be a no-op")
	}
}

func TestRoom_CheckConnection_WithMissingID(t *testing.T) {
	room := createTestRoom()

	_, ok := room.CheckConnection("alice")

	if ok {
		t.Fatalf("CheckConnection should not find a missing id")
	}
}

func TestRoom_Broadcast(t *testing.T) {
	room := createTestRoom()
	sessionA := &stubSession{}
	sessionB := &stubSession{}
	room.AddConnection("alice", sessionA)
	room.AddConnection("bob", sessionB)

	room.Broadcast("hi")

	if len(sessionA.texts) != 1 || sessionA.texts[0] != "hi" {
		t.Fatalf("Broadcast didn't reach the first connection")
	}

	if len(sessionB.texts) != 1 || sessionB.texts[0] != "hi" {
		t.Fatalf("Broadcast didn't reach the second connection")
	}
}

func TestRoom_Broadcast_InInsertionOrder(t *testing.T) {
	room := createTestRoom()
	var order []string
	room.AddConnection("alice", &stubSession{name: "alice", seq: &order})
	room.AddConnection("bob", &stubSession{name: "bob", seq: &order})
	room.AddConnection("carol", &stubSession{name: "carol", seq: &order})

	room.Broadcast("hi")

	want := []string{"alice", "bob", "carol"}
	if len(order) != len(want) {
		t.Fatalf("Broadcast order = %v; want %v", order, want)
	}
	for i, name := range want {
		if order[i] != name {
			t.Fatalf("Broadcast order = %v; want %v", order, want)
		}
	}
}

func TestRoom_Broadcast_WithFailingConnection(t *testing.T) {
	room := createTestRoom()
	sessionA := &stubSession{}
	sessionB := &stubSession{fail: errors.New("transport gone")}
	sessionC := &stubSession{}
	room.AddConnection("alice", sessionA)
	room.AddConnection("bob", sessionB)
	room.AddConnection("carol", sessionC)

	room.Broadcast("hi")

	if len(sessionA.texts) != 1 || len(sessionC.texts) != 1 {
		t.Fatalf("a failing connection should not abort delivery to the others")
	}

	if room.Len() != 3 {
		t.Fatalf("a failing connection should not be removed from the room")
	}
}

func TestRoom_Broadcast_ShouldDispatch(t *testing.T) {
	done := make(chan struct{})
	var got Event
	dispatcher := mockDispatcher{
		dispatch: func(e Event) {
			got = e
			close(done)
		},
	}
	room := newRoom("test-room", zap.NewNop(), &dispatcher)
	room.AddConnection("alice", &stubSession{})

	room.Broadcast("hi")
	waitOrTimeout(done)

	if got.Room != "test-room" || got.Kind != EventText || string(got.Payload) != "hi" {
		t.Fatalf("Broadcast dispatched %+v; want a text event for test-room", got)
	}
}

func TestRoom_BroadcastIf(t *testing.T) {
	room := createTestRoom()
	sessionA := &stubSession{}
	sessionB := &stubSession{}
	room.AddConnection("alice", sessionA)
	room.AddConnection("bob", sessionB)

	room.BroadcastIf("hi", HasID("alice"))

	if len(sessionA.texts) != 1 {
		t.Fatalf("BroadcastIf didn't reach the matching connection")
	}

	if len(sessionB.texts) != 0 {
		t.Fatalf("BroadcastIf reached a non-matching connection")
	}
}

func TestRoom_BroadcastIfNot(t *testing.T) {
	room := createTestRoom()
	sessionA := &stubSession{}
	sessionB := &stubSession{}
	room.AddConnection("alice", sessionA)
	room.AddConnection("bob", sessionB)

	room.BroadcastIfNot("hi", HasID("alice"))

	if len(sessionA.texts) != 0 {
		t.Fatalf("BroadcastIfNot reached the matching connection")
	}

	if len(sessionB.texts) != 1 {
		t.Fatalf("BroadcastIfNot didn't reach the non-matching connection")
	}
}

func TestRoom_Binary(t *testing.T) {
	room := createTestRoom()
	session := &stubSession{}
	room.AddConnection("alice", session)

	room.Binary([]byte{1, 2, 3})

	if len(session.binaries) != 1 || len(session.binaries[0]) != 3 {
		t.Fatalf("Binary didn't deliver the payload")
	}
}

func TestRoom_Ping(t *testing.T) {
	room := createTestRoom()
	sessionA := &stubSession{}
	sessionB := &stubSession{}
	room.AddConnection("alice", sessionA)
	room.AddConnection("bob", sessionB)

	room.Ping([]byte("ping"))

	if len(sessionA.pings) != 1 || len(sessionB.pings) != 1 {
		t.Fatalf("Ping didn't reach every connection")
	}
}

func TestRoom_PingIf(t *testing.T) {
	room := createTestRoom()
	sessionA := &stubSession{}
	sessionB := &stubSession{}
	room.AddConnection("alice", sessionA)
	room.AddConnection("bob", sessionB)

	room.PingIf([]byte("ping"), HasID("bob"))

	if len(sessionA.pings) != 0 || len(sessionB.pings) != 1 {
		t.Fatalf("PingIf should reach only the matching connection")
	}
}

func TestRoom_Pong(t *testing.T) {
	room := createTestRoom()
	session := &stubSession{}
	room.AddConnection("alice", session)

	room.Pong([]byte("pong"))

	if len(session.pongs) != 1 {
		t.Fatalf("Pong didn't reach the connection")
	}
}

func TestRoom_Continuation(t *testing.T) {
	room := createTestRoom()
	session := &stubSession{}
	room.AddConnection("alice", session)

	room.Continuation(FirstText([]byte("he")))
	room.Continuation(Continue([]byte("ll")))
	room.Continuation(Last([]byte("o")))

	if len(session.frags) != 3 {
		t.Fatalf("Continuation should deliver one fragment per call, got %v", len(session.frags))
	}

	if session.frags[0].Kind != FragmentFirstText || session.frags[2].Kind != FragmentLast {
		t.Fatalf("Continuation delivered fragments out of order")
	}
}

func TestRoom_Close(t *testing.T) {
	room := createTestRoom()
	sessionA := &stubSession{}
	sessionB := &stubSession{}
	room.AddConnection("alice", sessionA)
	room.AddConnection("bob", sessionB)
	reason := CloseReason{Code: CloseNormal, Text: "done"}

	room.Close(reason)

	if room.Len() != 0 {
		t.Fatalf("Close should empty the room")
	}

	if !sessionA.closed || !sessionB.closed {
		t.Fatalf("Close should close every removed session")
	}

	if sessionA.reason != reason {
		t.Fatalf("Close should pass the reason to the session, got %+v", sessionA.reason)
	}
}

func TestRoom_CloseConn(t *testing.T) {
	room := createTestRoom()
	sessionA := &stubSession{}
	sessionB := &stubSession{}
	room.AddConnection("alice", sessionA)
	room.AddConnection("bob", sessionB)

	room.CloseConn(CloseReason{Code: CloseNormal}, "alice")

	if !sessionA.closed {
		t.Fatalf("CloseConn should close the matching session")
	}

	if sessionB.closed {
		t.Fatalf("CloseConn should not close other sessions")
	}

	if _, ok := room.CheckConnection("bob"); !ok || room.Len() != 1 {
		t.Fatalf("CloseConn should leave the rest of the room intact")
	}
}

func TestRoom_CloseIf(t *testing.T) {
	room := createTestRoom()
	sessionA := &stubSession{}
	sessionB := &stubSession{}
	room.AddConnection("alice", sessionA)
	room.AddConnection("bob", sessionB)

	room.CloseIf(CloseReason{Code: CloseGoingAway}, HasID("bob"))

	if sessionA.closed || !sessionB.closed {
		t.Fatalf("CloseIf should close only matching sessions")
	}
}

func TestRoom_CloseIfNot(t *testing.T) {
	room := createTestRoom()
	sessionA := &stubSession{}
	sessionB := &stubSession{}
	room.AddConnection("alice", sessionA)
	room.AddConnection("bob", sessionB)

	room.CloseIfNot(CloseReason{Code: CloseGoingAway}, HasID("bob"))

	if !sessionA.closed || sessionB.closed {
		t.Fatalf("CloseIfNot should close only non-matching sessions")
	}
}

func createTestRoom() *Room {
	return newRoom("test-room", zap.NewNop(), &noopDispatcher{})
}

type stubSession struct {
	name     string
	seq      *[]string
	texts    []string
	binaries [][]byte
	pings    [][]byte
	pongs    [][]byte
	frags    []Fragment
	closed   bool
	reason   CloseReason
	fail     error
}

func (s *stubSession) record() {
	if s.seq != nil {
		*s.seq = append(*s.seq, s.name)
	}
}

func (s *stubSession) Text(msg string) error {
	if s.fail != nil {
		return s.fail
	}
	s.record()
	s.texts = append(s.texts, msg)
	return nil
}

func (s *stubSession) Binary(data []byte) error {
	if s.fail != nil {
		return s.fail
	}
	s.record()
	s.binaries = append(s.binaries, data)
	return nil
}

func (s *stubSession) Ping(data []byte) error {
	if s.fail != nil {
		return s.fail
	}
	s.record()
	s.pings = append(s.pings, data)
	return nil
}

func (s *stubSession) Pong(data []byte) error {
	if s.fail != nil {
		return s.fail
	}
	s.record()
	s.pongs = append(s.pongs, data)
	return nil
}

func (s *stubSession) Continuation(frag Fragment) error {
	if s.fail != nil {
		return s.fail
	}
	s.record()
	s.frags = append(s.frags, frag)
	return nil
}

func (s *stubSession) Close(reason CloseReason) error {
	if s.fail != nil {
		return s.fail
	}
	s.closed = true
	s.reason = reason
	return nil
}
