package repository

import (
	"context"

	"github.com/Bessaq/AstroManusJules/internal/domain/models"
)

// Geocoder resolves a place name. A place the service does not know is
// reported as (nil, nil), not as an error.
type Geocoder interface {
	Geocode(ctx context.Context, place string) (*models.GeocodeResult, error)
}

// TimezoneLookup resolves coordinates to an IANA timezone name.
type TimezoneLookup interface {
	TimezoneAt(ctx context.Context, lat, lng float64) (string, error)
}

// ElevationLookup resolves coordinates to meters above sea level.
type ElevationLookup interface {
	ElevationAt(ctx context.Context, lat, lng float64) (float64, error)
}

// EventPublisher ships completed transit scans downstream.
type EventPublisher interface {
	PublishScan(ctx context.Context, scan *models.TransitScan) error
	Close() error
}

type Metrics interface {
	RecordCacheLookup(cache string, hit bool)
	RecordExternalCall(service, result string)
	RecordError(kind string)
	RecordScanEvents(mode string, n int)
	RecordLatency(op string, seconds float64)
}

// NopMetrics discards everything.
type NopMetrics struct{}

func (NopMetrics) RecordCacheLookup(string, bool)    {}
func (NopMetrics) RecordExternalCall(string, string) {}
func (NopMetrics) RecordError(string)                {}
func (NopMetrics) RecordScanEvents(string, int)      {}
func (NopMetrics) RecordLatency(string, float64)     {}
