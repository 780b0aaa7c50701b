package kafka

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeWriter struct {
	mu   sync.Mutex
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func header(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

// --- Event ---

func TestTopic(t *testing.T) {
	assert.Equal(t, "storefront.cart.updated", Topic("cart", "updated"))
	assert.Equal(t, "storefront.dlq.storefront.product.changed", DLQTopic(Topic("product", "changed")))
}

func TestNewEvent_RoundTrip(t *testing.T) {
	ev, err := NewEvent("cart.updated", "guest:abc", "cart", "storefront", map[string]int{"items": 2})
	require.NoError(t, err)
	ev.WithCorrelationID("req-1").WithMetadata("store", "cart")

	data, err := ev.Marshal()
	require.NoError(t, err)

	got, err := UnmarshalEvent(data)
	require.NoError(t, err)
	assert.Equal(t, ev.EventID, got.EventID)
	assert.Equal(t, "req-1", got.CorrelationID)
	assert.Equal(t, "cart", got.Metadata["store"])

	var payload map[string]int
	require.NoError(t, got.UnmarshalData(&payload))
	assert.Equal(t, 2, payload["items"])
}

func TestUnmarshalEvent_RejectsMissingType(t *testing.T) {
	_, err := UnmarshalEvent([]byte(`{"event_id":"x"}`))
	assert.Error(t, err)

	_, err = UnmarshalEvent([]byte(`not json`))
	assert.Error(t, err)
}

// --- Carrier ---

func TestHeaderCarrier(t *testing.T) {
	var headers []kafka.Header
	c := NewHeaderCarrier(&headers)

	c.Set("traceparent", "a")
	c.Set("traceparent", "b")
	c.Set("tracestate", "s")

	assert.Equal(t, "b", c.Get("traceparent"))
	assert.Equal(t, "", c.Get("missing"))
	assert.ElementsMatch(t, []string{"traceparent", "tracestate"}, c.Keys())
	assert.Len(t, headers, 2)
}

// --- Producer ---

func TestProducer_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := &Producer{writer: w, logger: testLogger()}

	ev, err := NewEvent("cart.updated", "user:42", "cart", "storefront", nil)
	require.NoError(t, err)
	ev.WithCorrelationID("corr-9")

	require.NoError(t, p.Publish(context.Background(), Topic("cart", "updated"), ev))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "storefront.cart.updated", msg.Topic)
	assert.Equal(t, "user:42", string(msg.Key))
	assert.Equal(t, "cart.updated", header(msg, "event_type"))
	assert.Equal(t, "corr-9", header(msg, "correlation_id"))
}

func TestProducer_PublishError(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	p := &Producer{writer: w, logger: testLogger()}

	ev, _ := NewEvent("cart.updated", "user:42", "cart", "storefront", nil)
	err := p.Publish(context.Background(), "t", ev)
	assert.ErrorContains(t, err, "broker down")
}

func TestPingBrokers_NoBrokers(t *testing.T) {
	assert.Error(t, PingBrokers(context.Background(), nil))
}

// --- DLQ ---

func TestDLQProducer_Publish(t *testing.T) {
	w := &fakeWriter{}
	d := &DLQProducer{writer: w, logger: testLogger()}

	orig := kafka.Message{Topic: "storefront.product.changed", Partition: 2, Offset: 17, Key: []byte("p1"), Value: []byte("{}")}
	require.NoError(t, d.Publish(context.Background(), orig, errors.New("boom"), "catalog"))

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, "storefront.dlq.storefront.product.changed", msg.Topic)
	assert.Equal(t, "p1", string(msg.Key))
	assert.Equal(t, "2", header(msg, "dlq.original_partition"))
	assert.Equal(t, "17", header(msg, "dlq.original_offset"))
	assert.Equal(t, "catalog", header(msg, "dlq.consumer_group"))
	assert.Equal(t, "boom", header(msg, "dlq.error"))
}

// --- Consumer ---

type fakeReader struct {
	mu        sync.Mutex
	msgs      []kafka.Message
	committed []kafka.Message
	closed    bool
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.msgs) > 0 {
		m := r.msgs[0]
		r.msgs = r.msgs[1:]
		r.mu.Unlock()
		return m, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.committed = append(r.committed, msgs...)
	return nil
}

func (r *fakeReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

type recordingDLQ struct {
	mu   sync.Mutex
	msgs []kafka.Message
	errs []error
}

func (d *recordingDLQ) Publish(_ context.Context, m kafka.Message, lastErr error, _ string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.msgs = append(d.msgs, m)
	d.errs = append(d.errs, lastErr)
	return nil
}

func eventMessage(t *testing.T, id string) kafka.Message {
	t.Helper()
	ev, err := NewEvent("product.changed", "p1", "product", "test", nil)
	require.NoError(t, err)
	ev.EventID = id
	data, err := ev.Marshal()
	require.NoError(t, err)
	return kafka.Message{Topic: "storefront.product.changed", Value: data}
}

func newTestConsumer(r messageReader, dlq DeadLetterPublisher, h Handler) *Consumer {
	c := newConsumer(r, ConsumerConfig{Topic: "storefront.product.changed", GroupID: "test", DLQ: dlq}, h, testLogger())
	c.backoff = func(int) time.Duration { return time.Millisecond }
	return c
}

func TestConsumer_ProcessSuccess(t *testing.T) {
	var calls int
	c := newTestConsumer(&fakeReader{}, nil, func(context.Context, *Event) error {
		calls++
		return nil
	})

	assert.True(t, c.process(context.Background(), eventMessage(t, "e1")))
	assert.Equal(t, 1, calls)
}

func TestConsumer_RetriesThenDeadLetters(t *testing.T) {
	dlq := &recordingDLQ{}
	var calls int
	c := newTestConsumer(&fakeReader{}, dlq, func(context.Context, *Event) error {
		calls++
		return errors.New("index unavailable")
	})

	assert.True(t, c.process(context.Background(), eventMessage(t, "e1")))
	assert.Equal(t, maxHandlerRetries, calls)
	require.Len(t, dlq.msgs, 1)
	assert.EqualError(t, dlq.errs[0], "index unavailable")
}

func TestConsumer_RecoversOnRetry(t *testing.T) {
	dlq := &recordingDLQ{}
	var calls int
	c := newTestConsumer(&fakeReader{}, dlq, func(context.Context, *Event) error {
		calls++
		if calls < 2 {
			return errors.New("transient")
		}
		return nil
	})

	assert.True(t, c.process(context.Background(), eventMessage(t, "e1")))
	assert.Equal(t, 2, calls)
	assert.Empty(t, dlq.msgs)
}

func TestConsumer_PoisonMessageDeadLettered(t *testing.T) {
	dlq := &recordingDLQ{}
	c := newTestConsumer(&fakeReader{}, dlq, func(context.Context, *Event) error {
		t.Fatal("handler must not run for undecodable messages")
		return nil
	})

	assert.True(t, c.process(context.Background(), kafka.Message{Value: []byte("garbage")}))
	assert.Len(t, dlq.msgs, 1)
}

func TestConsumer_StartCommitsAndStops(t *testing.T) {
	r := &fakeReader{msgs: []kafka.Message{eventMessage(t, "e1"), eventMessage(t, "e2")}}

	ctx, cancel := context.WithCancel(context.Background())
	var mu sync.Mutex
	var seen []string
	c := newTestConsumer(r, nil, func(_ context.Context, ev *Event) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, ev.EventID)
		if len(seen) == 2 {
			cancel()
		}
		return nil
	})

	require.NoError(t, c.Start(ctx))
	assert.Equal(t, []string{"e1", "e2"}, seen)
	assert.True(t, r.closed)
	assert.Len(t, r.committed, 2)
}
