package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bessaq/AstroManusJules/internal/domain/models"
)

type recordingProducer struct {
	keys   []string
	values []interface{}
	err    error
	closed bool
}

func (r *recordingProducer) Publish(_ context.Context, key string, value interface{}) error {
	r.keys = append(r.keys, key)
	r.values = append(r.values, value)
	return r.err
}

func (r *recordingProducer) Close() error {
	r.closed = true
	return nil
}

func TestPublishScanKeysByScanID(t *testing.T) {
	prod := &recordingProducer{}
	pub := NewKafkaEventPublisher(prod).(*KafkaEventPublisher)
	fixed := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	pub.now = func() time.Time { return fixed }

	scan := &models.TransitScan{
		Events:  []models.TransitEvent{{Date: "2025-01-01", Aspect: "trine"}},
		Summary: models.TransitSummary{ScanID: "abc", TotalEvents: 1},
	}
	require.NoError(t, pub.PublishScan(context.Background(), scan))

	require.Equal(t, []string{"abc"}, prod.keys)
	msg, ok := prod.values[0].(ScanMessage)
	require.True(t, ok)
	assert.Equal(t, "abc", msg.ScanID)
	assert.Equal(t, fixed, msg.PublishedAt)
	assert.Len(t, msg.Events, 1)

	require.NoError(t, pub.Close())
	assert.True(t, prod.closed)
}

func TestPublishScanWrapsErrors(t *testing.T) {
	boom := errors.New("broker unreachable")
	pub := NewKafkaEventPublisher(&recordingProducer{err: boom})

	err := pub.PublishScan(context.Background(), &models.TransitScan{Summary: models.TransitSummary{ScanID: "x"}})
	assert.ErrorIs(t, err, boom)
	assert.Error(t, pub.PublishScan(context.Background(), nil))
}
