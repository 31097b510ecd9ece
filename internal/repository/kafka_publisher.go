package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Bessaq/AstroManusJules/internal/domain/models"
	domrepo "github.com/Bessaq/AstroManusJules/internal/domain/repository"
)

type publisher interface {
	Publish(ctx context.Context, key string, value interface{}) error
	Close() error
}

// ScanMessage is the Kafka payload for one completed transit scan.
type ScanMessage struct {
	ScanID      string                `json:"scan_id"`
	PublishedAt time.Time             `json:"published_at"`
	Summary     models.TransitSummary `json:"summary"`
	Events      []models.TransitEvent `json:"events"`
}

// KafkaEventPublisher implements EventPublisher on a pkg/kafka producer.
// Messages are keyed by scan id.
type KafkaEventPublisher struct {
	producer publisher
	now      func() time.Time
}

// NewKafkaEventPublisher wraps producer, typically a *kafka.Producer.
func NewKafkaEventPublisher(producer publisher) domrepo.EventPublisher {
	return &KafkaEventPublisher{producer: producer, now: time.Now}
}

func (p *KafkaEventPublisher) PublishScan(ctx context.Context, scan *models.TransitScan) error {
	if scan == nil {
		return fmt.Errorf("nil scan")
	}
	msg := ScanMessage{
		ScanID:      scan.Summary.ScanID,
		PublishedAt: p.now().UTC(),
		Summary:     scan.Summary,
		Events:      scan.Events,
	}
	if err := p.producer.Publish(ctx, msg.ScanID, msg); err != nil {
		return fmt.Errorf("publish scan %s: %w", msg.ScanID, err)
	}
	return nil
}

func (p *KafkaEventPublisher) Close() error {
	return p.producer.Close()
}
