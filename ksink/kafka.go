package ksink

import (
	"context"
	"fmt"

	"github.com/birdayz/kedgeio/kedge"
	"github.com/birdayz/kedgeio/kserde"
	"github.com/twmb/franz-go/pkg/kgo"
)

// HeaderTarget carries the target vertex id of a produced edge.
const HeaderTarget = "target"

// Producer is the part of *kgo.Client the Kafka sink uses.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// KafkaSink produces every edge as one record keyed by its source vertex,
// so all out-edges of a vertex land in the same partition.
type KafkaSink[V any] struct {
	producer   Producer
	topic      string
	serializer kserde.Serializer[V]
}

// NewKafkaSink returns a sink producing to topic. Close closes the producer
// when it has a Close method, like *kgo.Client.
func NewKafkaSink[V any](producer Producer, topic string, serializer kserde.Serializer[V]) *KafkaSink[V] {
	return &KafkaSink[V]{
		producer:   producer,
		topic:      topic,
		serializer: serializer,
	}
}

// Write produces edge and waits for the broker to acknowledge it.
func (s *KafkaSink[V]) Write(ctx context.Context, edge kedge.Edge[V]) error {
	value, err := s.serializer(edge.Value)
	if err != nil {
		return fmt.Errorf("serialize value of %s: %w", edge, err)
	}

	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(edge.Source),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: HeaderTarget, Value: []byte(edge.Target)},
		},
	}
	if err := s.producer.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce %s to %s: %w", edge, s.topic, err)
	}
	return nil
}

func (s *KafkaSink[V]) Close() error {
	if c, ok := s.producer.(interface{ Close() }); ok {
		c.Close()
	}
	return nil
}

// Target returns the target vertex id of a record produced by a KafkaSink.
func Target(r *kgo.Record) (string, bool) {
	for _, h := range r.Headers {
		if h.Key == HeaderTarget {
			return string(h.Value), true
		}
	}
	return "", false
}
