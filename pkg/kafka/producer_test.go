package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func TestPublishEncodesJSONWithKey(t *testing.T) {
	w := &recordingWriter{}
	p := newProducer(w, "astro.transits", "snappy")

	err := p.Publish(context.Background(), "scan-1", map[string]int{"total_events": 3})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "scan-1", string(w.msgs[0].Key))

	var body map[string]int
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &body))
	assert.Equal(t, 3, body["total_events"])

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestPublishRawBytes(t *testing.T) {
	w := &recordingWriter{}
	p := newProducer(w, "t", "gzip")
	require.NoError(t, p.Publish(context.Background(), "k", []byte("raw")))
	assert.Equal(t, "raw", string(w.msgs[0].Value))
}

func TestPublishWrapsWriterError(t *testing.T) {
	boom := errors.New("leader not available")
	p := newProducer(&recordingWriter{err: boom}, "t", "gzip")
	err := p.Publish(context.Background(), "k", "v")
	assert.ErrorIs(t, err, boom)
}

func TestPublishRejectsNil(t *testing.T) {
	p := newProducer(&recordingWriter{}, "t", "gzip")
	assert.Error(t, p.Publish(context.Background(), "k", nil))
}

func TestNewProducerRequiresBrokersAndTopic(t *testing.T) {
	_, err := NewProducer(WithTopic("t"))
	assert.Error(t, err)
	_, err = NewProducer(WithBrokers([]string{"localhost:9092"}))
	assert.Error(t, err)
}

func TestParseCompression(t *testing.T) {
	assert.Equal(t, kafka.Zstd, parseCompression("zstd"))
	assert.Equal(t, kafka.Snappy, parseCompression("unknown"))
}
