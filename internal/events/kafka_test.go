package events

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cwrk-planet/signaling-service/internal/domain"
	"github.com/cwrk-planet/signaling-service/internal/metrics"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *metrics.Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	return rec.Body.String()
}

func TestKafkaPublisher_Publish(t *testing.T) {
	producer := mocks.NewAsyncProducer(t, NewSaramaConfig("test"))
	producer.ExpectInputWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		if msg.Topic != "room-events" {
			return errors.New("wrong topic " + msg.Topic)
		}
		key, _ := msg.Key.Encode()
		if string(key) != "r1" {
			return errors.New("wrong key " + string(key))
		}
		raw, _ := msg.Value.Encode()
		var ev domain.RoomEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			return err
		}
		if ev.Type != domain.EventRoomCreated || ev.ParticipantCount != 1 {
			return errors.New("unexpected payload " + string(raw))
		}
		return nil
	})

	m := metrics.New()
	p := NewKafkaPublisherWithProducer(producer, "room-events", m)
	err := p.Publish(context.Background(), domain.RoomEvent{
		Type:             domain.EventRoomCreated,
		RoomID:           "r1",
		ParticipantCount: 1,
	})
	require.NoError(t, err)
	require.NoError(t, p.Close())

	assert.Contains(t, scrape(t, m), `signaling_events_delivered_total{result="ok",type="room.created"} 1`)
}

func TestKafkaPublisher_DeliveryErrorIsNotReturned(t *testing.T) {
	producer := mocks.NewAsyncProducer(t, NewSaramaConfig("test"))
	producer.ExpectInputAndFail(sarama.ErrOutOfBrokers)

	m := metrics.New()
	p := NewKafkaPublisherWithProducer(producer, "room-events", m)
	err := p.Publish(context.Background(), domain.RoomEvent{Type: domain.EventRoomLeft, RoomID: "r1"})
	assert.NoError(t, err)
	require.NoError(t, p.Close())
	require.NoError(t, p.Close())

	assert.Contains(t, scrape(t, m), `signaling_events_delivered_total{result="error",type="room.left"} 1`)
}

// stalledProducer never takes messages off its input, like a producer whose
// broker is unreachable and whose buffers are full.
type stalledProducer struct {
	sarama.AsyncProducer
	input     chan *sarama.ProducerMessage
	successes chan *sarama.ProducerMessage
	errs      chan *sarama.ProducerError
}

func newStalledProducer() *stalledProducer {
	return &stalledProducer{
		input:     make(chan *sarama.ProducerMessage),
		successes: make(chan *sarama.ProducerMessage),
		errs:      make(chan *sarama.ProducerError),
	}
}

func (s *stalledProducer) Input() chan<- *sarama.ProducerMessage     { return s.input }
func (s *stalledProducer) Successes() <-chan *sarama.ProducerMessage { return s.successes }
func (s *stalledProducer) Errors() <-chan *sarama.ProducerError      { return s.errs }
func (s *stalledProducer) AsyncClose() {
	close(s.successes)
	close(s.errs)
}

func TestKafkaPublisher_StalledBrokerDoesNotBlock(t *testing.T) {
	p := NewKafkaPublisherWithProducer(newStalledProducer(), "room-events", nil)
	defer func() { _ = p.Close() }()

	start := time.Now()
	err := p.Publish(context.Background(), domain.RoomEvent{Type: domain.EventRoomJoined, RoomID: "r1"})
	assert.ErrorIs(t, err, ErrQueueFull)
	assert.Less(t, time.Since(start), 2*time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = p.Publish(ctx, domain.RoomEvent{Type: domain.EventRoomJoined, RoomID: "r1"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewSaramaConfig_ShortTimeouts(t *testing.T) {
	cfg := NewSaramaConfig("test")
	assert.LessOrEqual(t, cfg.Net.DialTimeout, 5*time.Second)
	assert.LessOrEqual(t, cfg.Net.ReadTimeout, 5*time.Second)
	assert.LessOrEqual(t, cfg.Net.WriteTimeout, 5*time.Second)
	assert.True(t, cfg.Producer.Return.Errors)
	require.NoError(t, cfg.Validate())
}

func TestNoop(t *testing.T) {
	var p Publisher = Noop{}
	assert.NoError(t, p.Publish(context.Background(), domain.RoomEvent{}))
	assert.NoError(t, p.Close())
}
