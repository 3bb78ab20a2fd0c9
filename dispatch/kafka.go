package dispatch

import (
	"context"

	"github.com/rs/xid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/go-broadcast/wsrooms"
)

// Kafka relays events through a kafka topic. Each instance joins its
// own consumer group so all of them see every event.
type Kafka struct {
	writer   *kafkago.Writer
	reader   *kafkago.Reader
	origin   string
	log      *zap.Logger
	callback func(wsrooms.Event)
}

// NewKafka builds a dispatcher over the given brokers and topic. The
// topic must exist or the brokers must allow auto-creation.
func NewKafka(brokers []string, topic string, log *zap.Logger) *Kafka {
	origin := xid.New().String()

	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}

	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: "wsrooms-" + origin,
	})

	return &Kafka{writer: w, reader: r, origin: origin, log: log}
}

// Dispatch publishes the event for other instances to pick up. Events
// are keyed by room id so one room's events stay on one partition, in
// order.
func (d *Kafka) Dispatch(e wsrooms.Event) {
	raw, err := encodeEvent(d.origin, e)
	if err != nil {
		d.log.Debug("event encode failed", zap.Error(err))
		return
	}

	msg := kafkago.Message{
		Key:   []byte(e.Room),
		Value: raw,
	}

	if err := d.writer.WriteMessages(context.Background(), msg); err != nil {
		d.log.Debug("kafka write failed", zap.String("room", e.Room), zap.Error(err))
	}
}

// Received stores the callback invoked for events consumed in Run.
func (d *Kafka) Received(callback func(e wsrooms.Event)) {
	d.callback = callback
}

// Run consumes events published by other instances until ctx is done.
// Events published by this instance are skipped.
func (d *Kafka) Run(ctx context.Context) {
	for {
		msg, err := d.reader.ReadMessage(ctx)
		if err != nil {
			return
		}

		origin, e, err := decodeEvent(msg.Value)
		if err != nil {
			d.log.Debug("bad event payload", zap.Error(err))
			continue
		}

		if origin == d.origin || d.callback == nil {
			continue
		}

		d.callback(e)
	}
}

// Close shuts down the reader and the writer.
func (d *Kafka) Close() error {
	if err := d.reader.Close(); err != nil {
		return err
	}

	return d.writer.Close()
}
