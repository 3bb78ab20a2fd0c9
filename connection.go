package wsrooms

// Connection pairs a room-unique identifier with the session used to
// reach the peer. Connection is a value type; copies share the same
// underlying session handle.
type Connection struct {
	id      string
	session Session
}

// ID returns the identifier of the connection.
func (c Connection) ID() string {
	return c.id
}

// Session returns the underlying session handle.
func (c Connection) Session() Session {
	return c.session
}

// Send delivers a text frame on the connection's session. The
// transport error, if any, is returned to the caller and has no effect
// on registry state.
func (c Connection) Send(msg string) error {
	return c.session.Text(msg)
}

// SendIf delivers a text frame when the filter matches the connection.
func (c Connection) SendIf(msg string, f Filter) error {
	if !f.Matches(c) {
		return nil
	}
	return c.session.Text(msg)
}

// SendIfNot delivers a text frame when the filter does not match.
func (c Connection) SendIfNot(msg string, f Filter) error {
	if f.Matches(c) {
		return nil
	}
	return c.session.Text(msg)
}

// Ping sends a ping control frame on the connection's session.
func (c Connection) Ping(data []byte) error {
	return c.session.Ping(data)
}

// PingIf sends a ping when the filter matches the connection.
func (c Connection) PingIf(data []byte, f Filter) error {
	if !f.Matches(c) {
		return nil
	}
	return c.session.Ping(data)
}

// PingIfNot sends a ping when the filter does not match.
func (c Connection) PingIfNot(data []byte, f Filter) error {
	if f.Matches(c) {
		return nil
	}
	return c.session.Ping(data)
}
