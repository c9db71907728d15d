package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestKafka_Publish_EncodesEvent(t *testing.T) {
	fw := &fakeWriter{}
	k := &Kafka{w: fw}

	at := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	err := k.Publish(context.Background(), SecurityEvent{
		Type:       TypeRefreshTokenReuse,
		UserID:     "7f1b0c3e-0000-4000-8000-000000000001",
		RequestID:  "req-1",
		OccurredAt: at,
	})
	require.NoError(t, err)
	require.Len(t, fw.msgs, 1)

	msg := fw.msgs[0]
	require.Equal(t, "7f1b0c3e-0000-4000-8000-000000000001", string(msg.Key))
	require.Equal(t, "event_type", msg.Headers[0].Key)
	require.Equal(t, TypeRefreshTokenReuse, string(msg.Headers[0].Value))

	var got SecurityEvent
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	require.Equal(t, TypeRefreshTokenReuse, got.Type)
	require.Equal(t, "req-1", got.RequestID)
	require.True(t, at.Equal(got.OccurredAt))
}

func TestKafka_Publish_FillsTimestamp(t *testing.T) {
	fw := &fakeWriter{}
	k := &Kafka{w: fw}

	require.NoError(t, k.Publish(context.Background(), SecurityEvent{Type: TypeLoginFailed}))
	require.False(t, fw.msgs[0].Time.IsZero())
}

func TestKafka_Publish_WrapsWriterError(t *testing.T) {
	boom := errors.New("broker down")
	k := &Kafka{w: &fakeWriter{err: boom}}

	err := k.Publish(context.Background(), SecurityEvent{Type: TypeLoginFailed})
	require.ErrorIs(t, err, boom)
}

func TestKafka_Close(t *testing.T) {
	fw := &fakeWriter{}
	require.NoError(t, (&Kafka{w: fw}).Close())
	require.True(t, fw.closed)
}

func TestNewKafka_DefaultTopic(t *testing.T) {
	k := NewKafka([]string{"localhost:9092"}, "")
	w, ok := k.w.(*kafka.Writer)
	require.True(t, ok)
	require.Equal(t, DefaultTopic, w.Topic)
	require.True(t, w.Async)
}

func TestNop_Publish(t *testing.T) {
	require.NoError(t, Nop{}.Publish(context.Background(), SecurityEvent{}))
}
