package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cwrk-planet/signaling-service/internal/domain"
	"github.com/cwrk-planet/signaling-service/internal/metrics"

	"github.com/IBM/sarama"
)

// enqueueTimeout bounds how long Publish waits for room in the producer queue.
const enqueueTimeout = 100 * time.Millisecond

var ErrQueueFull = errors.New("kafka: producer queue full")

type KafkaConfig struct {
	Brokers  []string
	Topic    string
	ClientID string
	Metrics  *metrics.Metrics
}

// NewSaramaConfig returns settings for an acked async producer with short
// network timeouts, so an unreachable broker fails deliveries fast.
func NewSaramaConfig(clientID string) *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_8_0_0
	cfg.ClientID = clientID
	cfg.Net.DialTimeout = 5 * time.Second
	cfg.Net.ReadTimeout = 5 * time.Second
	cfg.Net.WriteTimeout = 5 * time.Second
	cfg.Producer.Timeout = 5 * time.Second
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 3
	cfg.Producer.Return.Successes = true
	cfg.Producer.Return.Errors = true
	// same room, same partition: per-room ordering
	cfg.Producer.Partitioner = sarama.NewHashPartitioner
	return cfg
}

// KafkaPublisher hands events to a sarama AsyncProducer. Publish only
// enqueues; delivery results are drained in the background until Close.
type KafkaPublisher struct {
	producer sarama.AsyncProducer
	topic    string
	metrics  *metrics.Metrics

	wg        sync.WaitGroup
	closeOnce sync.Once
}

func NewKafkaPublisher(cfg KafkaConfig) (*KafkaPublisher, error) {
	producer, err := sarama.NewAsyncProducer(cfg.Brokers, NewSaramaConfig(cfg.ClientID))
	if err != nil {
		return nil, fmt.Errorf("kafka: new producer: %w", err)
	}
	return NewKafkaPublisherWithProducer(producer, cfg.Topic, cfg.Metrics), nil
}

func NewKafkaPublisherWithProducer(producer sarama.AsyncProducer, topic string, m *metrics.Metrics) *KafkaPublisher {
	p := &KafkaPublisher{producer: producer, topic: topic, metrics: m}
	p.wg.Add(2)
	go p.drainSuccesses()
	go p.drainErrors()
	return p
}

// Publish never waits on the broker. It fails with ErrQueueFull when the
// producer has not taken the message within enqueueTimeout.
func (p *KafkaPublisher) Publish(ctx context.Context, ev domain.RoomEvent) error {
	value, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("kafka: encode %s: %w", ev.Type, err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(ev.RoomID),
		Value: sarama.ByteEncoder(value),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event-type"), Value: []byte(ev.Type)},
		},
		Metadata: ev.Type,
	}

	timer := time.NewTimer(enqueueTimeout)
	defer timer.Stop()
	select {
	case p.producer.Input() <- msg:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("kafka: enqueue %s: %w", ev.Type, ctx.Err())
	case <-timer.C:
		return fmt.Errorf("kafka: enqueue %s: %w", ev.Type, ErrQueueFull)
	}
}

func (p *KafkaPublisher) drainSuccesses() {
	defer p.wg.Done()
	for msg := range p.producer.Successes() {
		typ, _ := msg.Metadata.(domain.EventType)
		p.metrics.EventDelivery(string(typ), nil)
		slog.Debug("event published",
			slog.String("type", string(typ)),
			slog.Int("partition", int(msg.Partition)),
			slog.Int64("offset", msg.Offset),
		)
	}
}

func (p *KafkaPublisher) drainErrors() {
	defer p.wg.Done()
	for perr := range p.producer.Errors() {
		var typ domain.EventType
		if perr.Msg != nil {
			typ, _ = perr.Msg.Metadata.(domain.EventType)
		}
		p.metrics.EventDelivery(string(typ), perr.Err)
		slog.Warn("kafka: event delivery failed",
			slog.String("type", string(typ)),
			slog.Any("err", perr.Err),
		)
	}
}

// Close flushes queued events and waits for the drain goroutines.
func (p *KafkaPublisher) Close() error {
	p.closeOnce.Do(func() {
		p.producer.AsyncClose()
		p.wg.Wait()
	})
	return nil
}
