package wsrooms

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/xid"
	"go.uber.org/zap"
)

// Broadcaster is the registry of rooms shared by all request handlers.
// Its lock guards only the room table; each room carries its own lock,
// so fan-out in one room never blocks the rest of the registry.
//
// Room ids are unique within a broadcaster. Connection ids are unique
// within a room but not across rooms; keeping a connection id out of
// unrelated rooms is the caller's responsibility.
type Broadcaster struct {
	mux        *sync.RWMutex
	rooms      []*Room
	log        *zap.Logger
	dispatcher Dispatcher
}

// Option is used to change broadcaster settings.
type Option func(b *Broadcaster) error

// WithLogger sets the logger used for room lifecycle and swallowed
// send failures. Default is a no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(b *Broadcaster) error {
		if log == nil {
			return errors.New("logger cannot be nil")
		}

		b.log = log
		return nil
	}
}

// WithDispatcher sets a Dispatcher implementation. Default dispatcher
// performs no actions.
func WithDispatcher(dispatcher Dispatcher) Option {
	return func(b *Broadcaster) error {
		b.dispatcher = dispatcher
		return nil
	}
}

// New creates a new Broadcaster.
func New(options ...Option) (*Broadcaster, error) {
	var mux sync.RWMutex
	b := &Broadcaster{
		mux:        &mux,
		log:        zap.NewNop(),
		dispatcher: &noopDispatcher{},
	}

	for _, option := range options {
		err := option(b)

		if err != nil {
			return nil, err
		}
	}

	b.dispatcher.Received(func(e Event) {
		room, ok := b.CheckRoom(e.Room)
		if !ok {
			return
		}

		switch e.Kind {
		case EventText:
			room.fanOut("text", nil, func(s Session) error {
				return s.Text(string(e.Payload))
			})
		case EventBinary:
			room.fanOut("binary", nil, func(s Session) error {
				return s.Binary(e.Payload)
			})
		}
	})

	return b, nil
}

// Handle registers a connection in the given room, creating the room
// if needed, and returns the connection id in use. An empty connID is
// replaced with a generated unique id. This is the single call
// expected once per newly accepted connection; afterwards the
// transport's receive loop drives the room's fan-out operations.
func (b *Broadcaster) Handle(roomID, connID string, session Session) string {
	if connID == "" {
		connID = xid.New().String()
	}

	b.HandleRoom(roomID).AddConnection(connID, session)

	return connID
}

// HandleRoom returns the room with the given id, creating an empty one
// when absent. The returned room keeps its identity across calls. Use
// Check if you only need an existence test.
func (b *Broadcaster) HandleRoom(id string) *Room {
	b.mux.Lock()
	defer b.mux.Unlock()

	for _, room := range b.rooms {
		if room.id == id {
			return room
		}
	}

	room := newRoom(id, b.log, b.dispatcher)
	b.rooms = append(b.rooms, room)
	b.log.Debug("room created", zap.String("room", id))

	return room
}

// Room returns the room with the given id and panics when it does not
// exist. Callers must have established existence first, via Handle,
// HandleRoom or CheckRoom: a missing id here is a programming error,
// not a recoverable condition.
func (b *Broadcaster) Room(id string) *Room {
	room, ok := b.CheckRoom(id)
	if !ok {
		panic(fmt.Sprintf("wsrooms: room %q does not exist", id))
	}

	return room
}

// CheckRoom returns the room with the given id when it exists.
func (b *Broadcaster) CheckRoom(id string) (*Room, bool) {
	b.mux.RLock()
	defer b.mux.RUnlock()

	for _, room := range b.rooms {
		if room.id == id {
			return room, true
		}
	}

	return nil, false
}

// Check reports whether a room with the given id exists.
func (b *Broadcaster) Check(id string) bool {
	_, ok := b.CheckRoom(id)
	return ok
}

// RemoveRoom unregisters the room with the given id. Member sessions
// are not closed: close them first with Room.Close, or keep their
// handles and close them after removal.
func (b *Broadcaster) RemoveRoom(id string) {
	b.mux.Lock()
	defer b.mux.Unlock()

	for i, room := range b.rooms {
		if room.id == id {
			b.rooms = append(b.rooms[:i], b.rooms[i+1:]...)
			b.log.Debug("room removed", zap.String("room", id))
			return
		}
	}
}

// RemoveEmptyRooms unregisters every room with no connections.
// Intended to be invoked periodically or after closing connections; a
// room emptied by Close or RemoveConnection is not pruned on its own.
func (b *Broadcaster) RemoveEmptyRooms() {
	b.mux.Lock()
	defer b.mux.Unlock()

	var kept []*Room
	for _, room := range b.rooms {
		if room.Len() > 0 {
			kept = append(kept, room)
		}
	}

	b.rooms = kept
}

// RemoveConnection scans rooms in insertion order, removes the first
// connection with the given id and returns its session. Ownership of
// the session passes to the caller, who performs the final close. If
// the id exists in several rooms, only the first occurrence is
// removed.
func (b *Broadcaster) RemoveConnection(id string) (Session, bool) {
	b.mux.RLock()
	defer b.mux.RUnlock()

	for _, room := range b.rooms {
		if session, ok := room.RemoveConnection(id); ok {
			return session, true
		}
	}

	return nil, false
}

// EachRoom calls f for every room registered at the time of the call.
// f may invoke any Room operation, including mutating ones, but must
// not add or remove rooms on the broadcaster.
func (b *Broadcaster) EachRoom(f func(room *Room)) {
	b.mux.RLock()
	rooms := append([]*Room(nil), b.rooms...)
	b.mux.RUnlock()

	for _, room := range rooms {
		f(room)
	}
}

// Len returns the number of registered rooms.
func (b *Broadcaster) Len() int {
	b.mux.RLock()
	defer b.mux.RUnlock()
	return len(b.rooms)
}
