package kafka

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap/zaptest"

	"github.com/claudemarjean/Ivony/internal/core/domain"
	"github.com/claudemarjean/Ivony/internal/infra/config"
)

type fakeAsyncProducer struct {
	input  chan *sarama.ProducerMessage
	errors chan *sarama.ProducerError
}

func newFakeAsyncProducer() *fakeAsyncProducer {
	return &fakeAsyncProducer{
		input:  make(chan *sarama.ProducerMessage, 1),
		errors: make(chan *sarama.ProducerError, 1),
	}
}

func (f *fakeAsyncProducer) AsyncClose() {}

func (f *fakeAsyncProducer) Close() error { return nil }

func (f *fakeAsyncProducer) Input() chan<- *sarama.ProducerMessage { return f.input }

func (f *fakeAsyncProducer) Successes() <-chan *sarama.ProducerMessage { return nil }

func (f *fakeAsyncProducer) Errors() <-chan *sarama.ProducerError { return f.errors }

func (f *fakeAsyncProducer) IsTransactional() bool { return false }

func (f *fakeAsyncProducer) BeginTxn() error { return nil }

func (f *fakeAsyncProducer) CommitTxn() error { return nil }

func (f *fakeAsyncProducer) AbortTxn() error { return nil }

func (f *fakeAsyncProducer) AddOffsetsToTxn(offsets map[string][]*sarama.PartitionOffsetMetadata, groupID string) error {
	return nil
}

func (f *fakeAsyncProducer) AddMessageToTxn(msg *sarama.ConsumerMessage, groupID string, metadata *string) error {
	return nil
}

func (f *fakeAsyncProducer) TxnStatus() sarama.ProducerTxnStatusFlag {
	return sarama.ProducerTxnStatusFlag(0)
}

func newTestPublisher(t *testing.T) (*EventPublisher, *fakeAsyncProducer) {
	t.Helper()
	asyncProducer := newFakeAsyncProducer()

	producer := &Producer{
		producer: asyncProducer,
		logger:   zaptest.NewLogger(t),
		cfg: config.KafkaSettings{
			TopicPrefix: "ivony",
		},
		errChan: make(chan error, 1),
		done:    make(chan struct{}),
	}

	publisher := NewEventPublisher(producer, config.AppSettings{
		Name: "ivony-console",
		Env:  "test",
	}, zaptest.NewLogger(t))
	return publisher, asyncProducer
}

func receive(t *testing.T, p *fakeAsyncProducer) (*sarama.ProducerMessage, map[string]any) {
	t.Helper()
	select {
	case msg := <-p.input:
		bytes, err := msg.Value.Encode()
		if err != nil {
			t.Fatalf("Value.Encode returned error: %v", err)
		}
		var envelope map[string]any
		if err := json.Unmarshal(bytes, &envelope); err != nil {
			t.Fatalf("failed to unmarshal envelope: %v", err)
		}
		return msg, envelope
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message on async producer input channel")
	}
	return nil, nil
}

func TestPublishLoginAttemptedMasksEmail(t *testing.T) {
	publisher, asyncProducer := newTestPublisher(t)

	attemptedAt := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	event := domain.LoginAttemptedEvent{
		EventID:     "event-1",
		ConsoleID:   "console-1",
		Email:       "admin@ivony.io",
		Succeeded:   false,
		Attempt:     2,
		AttemptedAt: attemptedAt,
		IPAddress:   "203.0.113.7",
		Reason:      "invalid_credentials",
	}

	if err := publisher.PublishLoginAttempted(context.Background(), event); err != nil {
		t.Fatalf("PublishLoginAttempted returned error: %v", err)
	}

	msg, envelope := receive(t, asyncProducer)
	if msg.Topic != "ivony.console.login.attempted" {
		t.Fatalf("unexpected topic: %s", msg.Topic)
	}
	key, err := msg.Key.Encode()
	if err != nil || string(key) != "console-1" {
		t.Fatalf("expected console id as key, got %q (%v)", key, err)
	}

	if got := envelope["event_id"]; got != "event-1" {
		t.Fatalf("unexpected event_id: %v", got)
	}
	if got := envelope["timestamp"]; got != attemptedAt.Format(time.RFC3339Nano) {
		t.Fatalf("unexpected timestamp: %v", got)
	}

	payload, ok := envelope["payload"].(map[string]any)
	if !ok {
		t.Fatalf("payload not a map: %T", envelope["payload"])
	}
	if got := payload["email"]; got != "adm***@ivony.io" {
		t.Fatalf("expected masked email, got %v", got)
	}
	if got := payload["ip_address"]; got != "203.0.*.*" {
		t.Fatalf("expected masked ip, got %v", got)
	}
	if got := payload["attempt"].(float64); got != 2 {
		t.Fatalf("unexpected attempt: %v", got)
	}

	metadata, ok := envelope["metadata"].(map[string]any)
	if !ok {
		t.Fatalf("envelope metadata not a map: %T", envelope["metadata"])
	}
	if metadata["service"] != "ivony-console" || metadata["environment"] != "test" {
		t.Fatalf("unexpected metadata: %v", metadata)
	}
	if _, ok := metadata["trace_id"]; ok {
		t.Fatalf("expected no trace id without a span")
	}
}

func TestPublishVisitTrackedCarriesTraceID(t *testing.T) {
	publisher, asyncProducer := newTestPublisher(t)

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	event := domain.VisitTrackedEvent{
		ConsultationID: "c1",
		ApplicationID:  "a1",
		IsUnique:       true,
		Source:         "click",
		VisitedAt:      time.Now(),
	}
	if err := publisher.PublishVisitTracked(ctx, event); err != nil {
		t.Fatalf("PublishVisitTracked returned error: %v", err)
	}

	msg, envelope := receive(t, asyncProducer)
	if msg.Topic != "ivony.consultation.tracked" {
		t.Fatalf("unexpected topic: %s", msg.Topic)
	}
	if id, _ := envelope["event_id"].(string); id == "" {
		t.Fatalf("expected a generated event id")
	}
	metadata := envelope["metadata"].(map[string]any)
	if metadata["trace_id"] != traceID.String() {
		t.Fatalf("unexpected trace id: %v", metadata["trace_id"])
	}
}

func TestPublishRespectsCancelledContext(t *testing.T) {
	publisher, asyncProducer := newTestPublisher(t)
	asyncProducer.input <- &sarama.ProducerMessage{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := publisher.PublishSignedOut(ctx, domain.SignedOutEvent{ConsoleID: "console-1", Reason: "user_logout"})
	if err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestTopicName(t *testing.T) {
	p := &Producer{cfg: config.KafkaSettings{TopicPrefix: "ivony"}}
	if got := p.TopicName("user.administered"); got != "ivony.user.administered" {
		t.Fatalf("unexpected topic %s", got)
	}
	if got := p.TopicName("ivony.user.administered"); got != "ivony.user.administered" {
		t.Fatalf("prefix applied twice: %s", got)
	}
	p.cfg.TopicPrefix = ""
	if got := p.TopicName("user.administered"); got != "user.administered" {
		t.Fatalf("unexpected topic %s", got)
	}
}
