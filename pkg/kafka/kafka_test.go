package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"reservo/pkg/logger"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	mu       sync.Mutex
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func (w *fakeWriter) written() []kafka.Message {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]kafka.Message(nil), w.messages...)
}

func header(m kafka.Message, key string) string {
	for _, h := range m.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestProducer_PublishRunsMiddlewareInOrder(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, nil, "events", "", logger.Discard())

	var order []string
	p.Use(func(ctx context.Context, msg Message, next func(context.Context, Message) error) error {
		order = append(order, "first")
		return next(ctx, msg)
	})
	p.Use(func(ctx context.Context, msg Message, next func(context.Context, Message) error) error {
		order = append(order, "second")
		assert.Equal(t, "events", msg.Topic)
		return next(ctx, msg)
	})

	msg := NewMessage().WithKey("resource:r1").WithValue(map[string]string{"a": "b"}).WithEventType("booking.created").Build()
	require.NoError(t, p.Publish(context.Background(), msg))

	assert.Equal(t, []string{"first", "second"}, order)
	got := w.written()
	require.Len(t, got, 1)
	assert.Equal(t, "resource:r1", string(got[0].Key))
	assert.Equal(t, "booking.created", header(got[0], HeaderEventType))
	assert.NotEmpty(t, header(got[0], HeaderEventID))
}

func TestProducer_RejectsInvalidMessages(t *testing.T) {
	p := newProducer(&fakeWriter{}, nil, "events", "", logger.Discard())

	assert.ErrorIs(t, p.Publish(context.Background(), Message{Value: []byte("x")}), ErrEmptyKey)
	assert.ErrorIs(t, p.Publish(context.Background(), Message{Key: "k"}), ErrEmptyValue)
	assert.ErrorIs(t, p.PublishBatch(context.Background(), []Message{{Key: "k"}}), ErrInvalidMessage)

	require.NoError(t, p.Close())
	assert.ErrorIs(t, p.Publish(context.Background(), Message{Key: "k", Value: []byte("v")}), ErrProducerClosed)
}

func TestProducer_FailedWriteGoesToDLQ(t *testing.T) {
	w := &fakeWriter{err: errors.New("connection refused")}
	dlq := &fakeWriter{}
	p := newProducer(w, dlq, "events", "events.dlq", logger.Discard())

	msg := NewMessage().WithKey("k").WithRawValue([]byte(`{}`)).Build()
	err := p.Publish(context.Background(), msg)
	require.Error(t, err)

	got := dlq.written()
	require.Len(t, got, 1)
	assert.Equal(t, "events", header(got[0], HeaderOriginalTopic))
	assert.Equal(t, "connection refused", header(got[0], HeaderDLQError))
	_, leaked := msg.Headers[HeaderDLQError]
	assert.False(t, leaked, "DLQ headers must not leak into the caller's message")
}

type fakeReader struct {
	mu        sync.Mutex
	queue     []kafka.Message
	committed []int64
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.queue) > 0 {
		m := r.queue[0]
		r.queue = r.queue[1:]
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
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error { return nil }

func (r *fakeReader) commits() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.committed...)
}

func TestConsumer_RetriesTransientThenSucceeds(t *testing.T) {
	attempts := 0
	handler := func(ctx context.Context, msg Message) error {
		attempts++
		if attempts < 3 {
			return NewTransientError("broker busy", nil)
		}
		return nil
	}
	c := newConsumer(&fakeReader{}, nil, "timetable", "g", "", handler, logger.Discard())
	c.retryBackoff = time.Millisecond

	err := c.processMessage(context.Background(), Message{Key: "k", Value: []byte("{}"), Headers: map[string]string{}})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestConsumer_PermanentErrorGoesToDLQ(t *testing.T) {
	attempts := 0
	handler := func(ctx context.Context, msg Message) error {
		attempts++
		return NewPermanentError("bad payload", nil)
	}
	dlq := &fakeWriter{}
	c := newConsumer(&fakeReader{}, dlq, "timetable", "g", "timetable.dlq", handler, logger.Discard())

	err := c.processMessage(context.Background(), Message{Key: "k", Value: []byte("{}")})
	require.Error(t, err)
	assert.Equal(t, 1, attempts)

	got := dlq.written()
	require.Len(t, got, 1)
	assert.Equal(t, "g", header(got[0], HeaderDLQConsumerGroup))
	assert.Equal(t, "permanent", header(got[0], HeaderDLQErrorType))
}

func TestConsumer_StartCommitsAndStopsOnCancel(t *testing.T) {
	reader := &fakeReader{queue: []kafka.Message{
		{Key: []byte("a"), Value: []byte("1"), Offset: 10},
		{Key: []byte("b"), Value: []byte("2"), Offset: 11},
	}}
	var seen []string
	var mu sync.Mutex
	handler := func(ctx context.Context, msg Message) error {
		mu.Lock()
		seen = append(seen, msg.Key)
		mu.Unlock()
		return nil
	}
	c := newConsumer(reader, nil, "timetable", "g", "", handler, logger.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Start(ctx) }()

	assert.Eventually(t, func() bool { return len(reader.commits()) == 2 }, time.Second, 5*time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	require.NoError(t, c.Close())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"a", "b"}, seen)
	assert.Equal(t, []int64{10, 11}, reader.commits())
}

func TestRetryCountHeader(t *testing.T) {
	msg := Message{}
	for range 12 {
		msg.IncrementRetryCount()
	}
	assert.Equal(t, 12, msg.GetRetryCount())
}

func TestClassifyError(t *testing.T) {
	assert.Equal(t, ErrorTypeTransient, ClassifyError(errors.New("dial tcp: I/O TIMEOUT")))
	assert.Equal(t, ErrorTypeTransient, ClassifyError(context.DeadlineExceeded))
	assert.Equal(t, ErrorTypePermanent, ClassifyError(errors.New("schema mismatch")))
	assert.Equal(t, ErrorTypeBusiness, ClassifyError(NewBusinessError("nope", nil)))
	assert.False(t, ShouldRetry(NewTransientError("x", nil), 3, 3))
	assert.True(t, ShouldRetry(NewTransientError("x", nil), 0, 3))
}
