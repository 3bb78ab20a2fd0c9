package wsrooms

// EventKind identifies the payload type of a dispatched fan-out.
type EventKind int

const (
	EventText EventKind = iota
	EventBinary
)

// Event is a room fan-out mirrored to other instances. Only text and
// binary broadcasts are dispatched; control frames stay local.
type Event struct {
	Room    string
	Kind    EventKind
	Payload []byte
}

// Dispatcher allows events to be dispatched to external services.
// One possible use case is to send the events to a broker allowing
// other instances of the application to receive them. The dispatch
// package provides redis and kafka implementations.
type Dispatcher interface {
	// Dispatch sends an event to an external service.
	Dispatch(e Event)
	// Received is called with the callback the Dispatcher needs to use
	// when an event is received from an external service.
	Received(callback func(e Event))
}

type noopDispatcher struct{}

func (d *noopDispatcher) Dispatch(e Event) {
}

func (d *noopDispatcher) Received(callback func(e Event)) {
}
