package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"

	"vn.io.arda/admin-event-interpreter/internal/domain"
)

// Publisher produces stored interpretations to an output topic,
// keyed by admin event id.
type Publisher struct {
	client *kgo.Client
	topic  string
}

// NewPublisher creates a producer-only franz-go client for topic.
func NewPublisher(brokers []string, topic string) (*Publisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	)
	if err != nil {
		return nil, err
	}
	return &Publisher{client: client, topic: topic}, nil
}

// Publish writes in to the output topic and waits for the broker ack.
func (p *Publisher) Publish(ctx context.Context, in *domain.Interpretation) error {
	record, err := newRecord(p.topic, in)
	if err != nil {
		return err
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce interpretation %s: %w", in.EventID, err)
	}
	return nil
}

// Close flushes pending records and closes the client.
func (p *Publisher) Close() {
	p.client.Close()
}

func newRecord(topic string, in *domain.Interpretation) (*kgo.Record, error) {
	value, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("marshal interpretation: %w", err)
	}
	key := in.EventID
	if key == "" {
		key = in.ID.String()
	}
	return &kgo.Record{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "realm", Value: []byte(in.RealmID)},
			{Key: "object_type", Value: []byte(in.ObjectType)},
		},
	}, nil
}
