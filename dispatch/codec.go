// Package dispatch provides broker-backed wsrooms.Dispatcher
// implementations that mirror text and binary fan-out across instances
// of an application sharing a room namespace.
package dispatch

import (
	"encoding/json"

	"github.com/go-broadcast/wsrooms"
)

// envelope is the wire form shared by the broker dispatchers. Origin
// identifies the publishing instance so it can skip its own events;
// the local fan-out already happened at dispatch time.
type envelope struct {
	Origin  string `json:"origin"`
	Room    string `json:"room"`
	Kind    int    `json:"kind"`
	Payload []byte `json:"payload"`
}

func encodeEvent(origin string, e wsrooms.Event) ([]byte, error) {
	return json.Marshal(envelope{
		Origin:  origin,
		Room:    e.Room,
		Kind:    int(e.Kind),
		Payload: e.Payload,
	})
}

func decodeEvent(raw []byte) (string, wsrooms.Event, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return "", wsrooms.Event{}, err
	}

	e := wsrooms.Event{
		Room:    env.Room,
		Kind:    wsrooms.EventKind(env.Kind),
		Payload: env.Payload,
	}

	return env.Origin, e, nil
}
