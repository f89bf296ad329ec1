package kafka

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/twmb/franz-go/pkg/kgo"

	"vn.io.arda/admin-event-interpreter/internal/domain"
	"vn.io.arda/admin-event-interpreter/internal/kafka/registry"

	// Blank imports trigger init() in each handler file,
	// registering all event handlers into the registry.
	_ "vn.io.arda/admin-event-interpreter/internal/kafka/handlers"
)

// Interpreter is the use-case invoked for every decoded admin event.
type Interpreter interface {
	Interpret(ctx context.Context, ev domain.AdminEvent) (*domain.Interpretation, error)
}

const (
	defaultRetryBase = time.Second
	maxBackoff       = 30 * time.Second
	commitTimeout    = 10 * time.Second
)

// Consumer wraps the franz-go Kafka client.
type Consumer struct {
	client      *kgo.Client
	interpreter Interpreter
	retryBase   time.Duration
}

// New creates a Consumer with the given brokers, group ID, and topics.
func New(brokers []string, groupID string, topics []string, interpreter Interpreter) (*Consumer, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ConsumerGroup(groupID),
		kgo.ConsumeTopics(topics...),
		kgo.DisableAutoCommit(),
	)
	if err != nil {
		return nil, err
	}
	return &Consumer{client: client, interpreter: interpreter, retryBase: defaultRetryBase}, nil
}

// Start begins polling Kafka and processing records. Blocks until ctx is cancelled.
// Only records that were interpreted, or rejected for good, are committed.
func (c *Consumer) Start(ctx context.Context) {
	log.Info().Msg("kafka consumer started")

	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() || ctx.Err() != nil {
			break
		}

		fetches.EachError(func(topic string, partition int32, err error) {
			log.Error().Err(err).Str("topic", topic).Int32("partition", partition).Msg("kafka fetch error")
		})

		var handled []*kgo.Record
		for iter := fetches.RecordIter(); !iter.Done(); {
			r := iter.Next()
			if !c.handle(ctx, r) {
				break
			}
			handled = append(handled, r)
		}
		c.commit(handled)
	}

	c.client.Close()
	log.Info().Msg("kafka consumer stopped")
}

// commit runs on its own context so records handled before shutdown still
// get committed.
func (c *Consumer) commit(records []*kgo.Record) {
	if len(records) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), commitTimeout)
	defer cancel()
	if err := c.client.CommitRecords(ctx, records...); err != nil {
		log.Error().Err(err).Int("records", len(records)).Msg("kafka commit error")
	}
}

// handle processes r until it succeeds, backing off between attempts. It
// returns false when ctx is cancelled first; r is then left uncommitted and
// redelivered to the next group member.
func (c *Consumer) handle(ctx context.Context, r *kgo.Record) bool {
	backoff := c.retryBase
	for attempt := 1; ; attempt++ {
		err := c.process(ctx, r)
		if err == nil {
			return true
		}
		log.Warn().Err(err).
			Str("topic", r.Topic).
			Int32("partition", r.Partition).
			Int64("offset", r.Offset).
			Int("attempt", attempt).
			Dur("backoff", backoff).
			Msg("admin event interpretation failed, retrying")

		select {
		case <-ctx.Done():
			return false
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, maxBackoff)
	}
}

// process decodes a Kafka record through the registry and interprets it.
// Events the interpreter rejects for good are logged and dropped; any other
// failure is returned so the record is retried.
func (c *Consumer) process(ctx context.Context, r *kgo.Record) error {
	log.Debug().
		Str("topic", r.Topic).
		Str("key", string(r.Key)).
		Msg("processing kafka record")

	var ev *domain.AdminEvent
	if registry.HasDirect(r.Topic) {
		ev = registry.DispatchDirect(r.Topic, r.Value)
	} else {
		ev = registry.Dispatch(r.Topic, r.Value)
	}

	if ev == nil {
		log.Debug().Str("topic", r.Topic).Msg("no handler matched, skipping")
		return nil
	}

	_, err := c.interpreter.Interpret(ctx, *ev)
	if err == nil {
		return nil
	}
	if !rejected(err) {
		return err
	}

	entry := log.Error()
	if errors.Is(err, domain.ErrUnsupportedResourceType) || errors.Is(err, domain.ErrUnsupportedResourceName) {
		// Realm, client and component events are outside the interpreter's scope.
		entry = log.Debug()
	}
	entry.Err(err).
		Str("topic", r.Topic).
		Str("event_id", ev.ID).
		Str("resource_type", string(ev.ResourceType)).
		Str("resource_path", ev.ResourcePath).
		Msg("admin event not interpreted")
	return nil
}

// rejected reports whether err describes the event itself, so interpreting it
// again cannot succeed.
func rejected(err error) bool {
	for _, kind := range []error{
		domain.ErrUnsupportedResourceType,
		domain.ErrUnsupportedResourceName,
		domain.ErrMalformedResourcePath,
		domain.ErrAttributeParse,
		domain.ErrAttributeMissing,
		domain.ErrRoleNotFound,
		domain.ErrUnknownRealm,
	} {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}
