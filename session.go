package wsrooms

// Session is the transport-level capability a connection uses to reach
// its peer. Implementations are provided by the websocket layer (see
// the fiberws package); the registry only ever tells a session to emit
// a frame or to close.
type Session interface {
	Text(msg string) error
	Binary(data []byte) error
	Ping(data []byte) error
	Pong(data []byte) error
	Continuation(frag Fragment) error
	Close(reason CloseReason) error
}

// FragmentKind identifies the position of a fragment inside a
// segmented message.
type FragmentKind int

const (
	FragmentFirstText FragmentKind = iota
	FragmentFirstBinary
	FragmentContinue
	FragmentLast
)

// Fragment is a single part of a segmented message. A well-formed
// sequence is one FirstText or FirstBinary, zero or more Continue and
// exactly one Last, issued across successive calls. Sequencing is not
// tracked by the library; an interrupted sequence leaves receivers
// with a partial message.
type Fragment struct {
	Kind FragmentKind
	Data []byte
}

// FirstText returns a fragment opening a segmented text message.
func FirstText(data []byte) Fragment {
	return Fragment{Kind: FragmentFirstText, Data: data}
}

// FirstBinary returns a fragment opening a segmented binary message.
func FirstBinary(data []byte) Fragment {
	return Fragment{Kind: FragmentFirstBinary, Data: data}
}

// Continue returns an intermediate fragment.
func Continue(data []byte) Fragment {
	return Fragment{Kind: FragmentContinue, Data: data}
}

// Last returns the fragment completing a segmented message.
func Last(data []byte) Fragment {
	return Fragment{Kind: FragmentLast, Data: data}
}

// CloseReason tells the peer why its connection is going away.
type CloseReason struct {
	Code uint16
	Text string
}

// Close codes from RFC 6455, section 7.4.1.
const (
	CloseNormal        uint16 = 1000
	CloseGoingAway     uint16 = 1001
	CloseProtocolError uint16 = 1002
	CloseUnsupported   uint16 = 1003
	CloseInternalErr   uint16 = 1011
)
