package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

type mockWriter struct {
	WriteMessagesFunc func(ctx context.Context, msgs ...kafka.Message) error
	written           []kafka.Message
	closed            bool
}

func (m *mockWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	m.written = append(m.written, msgs...)
	if m.WriteMessagesFunc != nil {
		return m.WriteMessagesFunc(ctx, msgs...)
	}
	return nil
}

func (m *mockWriter) Close() error {
	m.closed = true
	return nil
}

func TestProducer_Publish_KeyAndPayload(t *testing.T) {
	w := &mockWriter{}
	p := &Producer{writer: w, topic: "order.status_changed"}

	err := p.Publish(context.Background(), "order-1", map[string]string{"status": "delivered"})
	require.NoError(t, err)

	require.Len(t, w.written, 1)
	assert.Equal(t, "order-1", string(w.written[0].Key))

	var payload map[string]string
	require.NoError(t, json.Unmarshal(w.written[0].Value, &payload))
	assert.Equal(t, "delivered", payload["status"])
}

func TestProducer_Publish_InjectsTraceContext(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})
	tp := sdktrace.NewTracerProvider()
	defer tp.Shutdown(context.Background())

	ctx, span := tp.Tracer("test").Start(context.Background(), "transition")
	defer span.End()

	w := &mockWriter{}
	p := &Producer{writer: w, topic: "t"}

	require.NoError(t, p.Publish(ctx, "order-1", struct{}{}))

	carrier := headerCarrier{msg: &w.written[0]}
	assert.NotEmpty(t, carrier.Get("traceparent"))
}

func TestProducer_Publish_WriterError(t *testing.T) {
	w := &mockWriter{
		WriteMessagesFunc: func(ctx context.Context, msgs ...kafka.Message) error {
			return errors.New("broker unavailable")
		},
	}
	p := &Producer{writer: w, topic: "t"}

	err := p.Publish(context.Background(), "order-1", struct{}{})
	assert.ErrorContains(t, err, "broker unavailable")
}

func TestProducer_Close(t *testing.T) {
	w := &mockWriter{}
	p := &Producer{writer: w, topic: "t"}

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestHeaderCarrier_SetOverwrites(t *testing.T) {
	msg := kafka.Message{}
	c := headerCarrier{msg: &msg}

	c.Set("k", "v1")
	c.Set("k", "v2")

	assert.Equal(t, "v2", c.Get("k"))
	assert.Equal(t, []string{"k"}, c.Keys())
}
