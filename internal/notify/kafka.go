package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/mesapos/mesapos/internal/logging"
)

const publishTimeout = 5 * time.Second

// KafkaDispatcher bridges events to out-of-process terminals: one topic per
// audience group, keyed by business so one tenant's events stay ordered.
type KafkaDispatcher struct {
	writer      *kafka.Writer
	topicPrefix string
}

func NewKafkaDispatcher(brokers []string, topicPrefix string) *KafkaDispatcher {
	return &KafkaDispatcher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			Async:        false,
		},
		topicPrefix: topicPrefix,
	}
}

// Dispatch publishes in the background; broker failures are logged, never
// surfaced to the operation that produced the event.
func (d *KafkaDispatcher) Dispatch(ctx context.Context, ev Event) {
	l := logging.FromContext(ctx)
	go func() {
		pubCtx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()

		data, err := json.Marshal(ev)
		if err != nil {
			l.Error("notify_kafka_marshal", "event", string(ev.Type), "error", err)
			return
		}
		msgs := make([]kafka.Message, 0, len(Route(ev.Type)))
		for _, a := range Route(ev.Type) {
			msgs = append(msgs, kafka.Message{
				Topic: d.topicPrefix + "." + string(a),
				Key:   []byte(ev.BusinessID.String()),
				Value: data,
			})
		}
		if len(msgs) == 0 {
			return
		}
		if err := d.writer.WriteMessages(pubCtx, msgs...); err != nil {
			l.Error("notify_kafka_publish", "event", string(ev.Type), "error", err)
		}
	}()
}

func (d *KafkaDispatcher) Close() error {
	return d.writer.Close()
}
