package wsrooms

import (
	"sync"

	"go.uber.org/zap"
)

// Room is an insertion-ordered collection of connections sharing one
// broadcast channel. All fan-out operations deliver in insertion order
// and apply independently per connection: one connection's transport
// failure never aborts delivery to the remaining connections.
//
// Each room carries its own lock, so a broadcast serializes only
// against mutation of the same room, never against the rest of the
// registry. Fan-out snapshots the connection list and sends outside
// the lock; a stuck transport cannot block room mutation.
type Room struct {
	id         string
	log        *zap.Logger
	dispatcher Dispatcher

	mux   *sync.RWMutex
	conns []Connection
}

func newRoom(id string, log *zap.Logger, dispatcher Dispatcher) *Room {
	var mux sync.RWMutex
	return &Room{
		id:         id,
		log:        log,
		dispatcher: dispatcher,
		mux:        &mux,
	}
}

// ID returns the room's identifier.
func (r *Room) ID() string {
	return r.id
}

// Len returns the number of registered connections.
func (r *Room) Len() int {
	r.mux.RLock()
	defer r.mux.RUnlock()
	return len(r.conns)
}

// AddConnection registers a connection under the given id.
// Subsequent calls with an id already present in the room have no
// effect: the first session installed stays, the new one is ignored.
func (r *Room) AddConnection(id string, session Session) {
	r.mux.Lock()
	defer r.mux.Unlock()

	for _, c := range r.conns {
		if c.id == id {
			return
		}
	}

	r.conns = append(r.conns, Connection{id: id, session: session})
}

// RemoveConnection removes the connection with the given id and hands
// its session back to the caller, who becomes responsible for closing
// it. The second return value is false when no such connection exists.
func (r *Room) RemoveConnection(id string) (Session, bool) {
	r.mux.Lock()
	defer r.mux.Unlock()

	for i, c := range r.conns {
		if c.id == id {
			r.conns = append(r.conns[:i], r.conns[i+1:]...)
			return c.session, true
		}
	}

	return nil, false
}

// CheckConnection returns a copy of the connection with the given id.
// The copy shares the underlying session handle.
func (r *Room) CheckConnection(id string) (Connection, bool) {
	r.mux.RLock()
	defer r.mux.RUnlock()

	for _, c := range r.conns {
		if c.id == id {
			return c, true
		}
	}

	return Connection{}, false
}

// Broadcast sends a text frame to every connection and dispatches the
// message for other instances to mirror.
func (r *Room) Broadcast(msg string) {
	go r.dispatcher.Dispatch(Event{Room: r.id, Kind: EventText, Payload: []byte(msg)})
	r.fanOut("text", nil, func(s Session) error {
		return s.Text(msg)
	})
}

// BroadcastIf sends a text frame to every connection the filter
// matches. Filtered fan-out is instance-local; filters do not travel
// through the dispatcher.
func (r *Room) BroadcastIf(msg string, f Filter) {
	r.fanOut("text", f, func(s Session) error {
		return s.Text(msg)
	})
}

// BroadcastIfNot sends a text frame to every connection the filter
// does not match.
func (r *Room) BroadcastIfNot(msg string, f Filter) {
	r.BroadcastIf(msg, not(f))
}

// Binary sends a binary frame to every connection and dispatches the
// payload for other instances to mirror.
func (r *Room) Binary(data []byte) {
	go r.dispatcher.Dispatch(Event{Room: r.id, Kind: EventBinary, Payload: data})
	r.fanOut("binary", nil, func(s Session) error {
		return s.Binary(data)
	})
}

// BinaryIf sends a binary frame to every connection the filter matches.
func (r *Room) BinaryIf(data []byte, f Filter) {
	r.fanOut("binary", f, func(s Session) error {
		return s.Binary(data)
	})
}

// BinaryIfNot sends a binary frame to every connection the filter does
// not match.
func (r *Room) BinaryIfNot(data []byte, f Filter) {
	r.BinaryIf(data, not(f))
}

// Ping sends a ping control frame to every connection.
func (r *Room) Ping(data []byte) {
	r.fanOut("ping", nil, func(s Session) error {
		return s.Ping(data)
	})
}

// PingIf sends a ping to every connection the filter matches.
func (r *Room) PingIf(data []byte, f Filter) {
	r.fanOut("ping", f, func(s Session) error {
		return s.Ping(data)
	})
}

// PingIfNot sends a ping to every connection the filter does not match.
func (r *Room) PingIfNot(data []byte, f Filter) {
	r.PingIf(data, not(f))
}

// Pong sends a pong control frame to every connection.
func (r *Room) Pong(data []byte) {
	r.fanOut("pong", nil, func(s Session) error {
		return s.Pong(data)
	})
}

// PongIf sends a pong to every connection the filter matches.
func (r *Room) PongIf(data []byte, f Filter) {
	r.fanOut("pong", f, func(s Session) error {
		return s.Pong(data)
	})
}

// PongIfNot sends a pong to every connection the filter does not match.
func (r *Room) PongIfNot(data []byte, f Filter) {
	r.PongIf(data, not(f))
}

// Continuation fans out a single fragment of a segmented message.
// Issuing FirstText or FirstBinary, then Continue fragments, then
// exactly one Last across successive calls is the caller's
// responsibility; the room does not track sequencing between calls.
func (r *Room) Continuation(frag Fragment) {
	r.fanOut("continuation", nil, func(s Session) error {
		return s.Continuation(frag)
	})
}

// Close removes every connection from the room and closes each removed
// session. The emptied room stays registered until explicitly removed
// from the broadcaster.
func (r *Room) Close(reason CloseReason) {
	r.closeMatching(reason, nil)
}

// CloseIf closes and removes every connection the filter matches.
func (r *Room) CloseIf(reason CloseReason, f Filter) {
	r.closeMatching(reason, f)
}

// CloseIfNot closes and removes every connection the filter does not
// match.
func (r *Room) CloseIfNot(reason CloseReason, f Filter) {
	r.closeMatching(reason, not(f))
}

// CloseConn closes and removes the single connection with the given
// id. The room itself stays registered.
func (r *Room) CloseConn(reason CloseReason, id string) {
	r.closeMatching(reason, HasID(id))
}

// fanOut delivers one frame per connection, in insertion order, from a
// snapshot of the current membership. Send failures are logged and
// swallowed so the loop always reaches every connection; a failing
// connection is not removed.
func (r *Room) fanOut(frame string, f Filter, send func(Session) error) {
	for _, c := range r.snapshot() {
		if f != nil && !f.Matches(c) {
			continue
		}

		if err := send(c.session); err != nil {
			r.log.Debug("send failed",
				zap.String("frame", frame),
				zap.String("room", r.id),
				zap.String("conn", c.id),
				zap.Error(err))
		}
	}
}

// closeMatching removes matching connections under the write lock and
// closes their sessions after releasing it. A nil filter matches all.
func (r *Room) closeMatching(reason CloseReason, f Filter) {
	r.mux.Lock()
	var kept, removed []Connection
	for _, c := range r.conns {
		if f == nil || f.Matches(c) {
			removed = append(removed, c)
		} else {
			kept = append(kept, c)
		}
	}
	r.conns = kept
	r.mux.Unlock()

	for _, c := range removed {
		if err := c.session.Close(reason); err != nil {
			r.log.Debug("close failed",
				zap.String("room", r.id),
				zap.String("conn", c.id),
				zap.Error(err))
		}
	}
}

func (r *Room) snapshot() []Connection {
	r.mux.RLock()
	defer r.mux.RUnlock()
	return append([]Connection(nil), r.conns...)
}
