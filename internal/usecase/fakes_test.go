package usecase

import (
	"context"
	"errors"
	"sync"
	"time"
	_ "time/tzdata"

	"github.com/Bessaq/AstroManusJules/internal/domain/models"
)

type fakeProvider struct {
	mu       sync.Mutex
	charts   []models.Instant
	query    *models.TransitQuery
	chartFn  func(at models.Instant) (*models.Chart, error)
	events   []map[string]any
	evErr    error
	returns  []models.ReturnQuery
	returnAt func(q models.ReturnQuery) (time.Time, error)
}

func (f *fakeProvider) Chart(_ context.Context, at models.Instant, _ models.CalcMode) (*models.Chart, error) {
	f.mu.Lock()
	f.charts = append(f.charts, at)
	f.mu.Unlock()
	return f.chartFn(at)
}

func (f *fakeProvider) TransitEvents(_ context.Context, q models.TransitQuery) ([]map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.query = &q
	return f.events, f.evErr
}

func (f *fakeProvider) ReturnMoment(_ context.Context, q models.ReturnQuery) (time.Time, error) {
	f.mu.Lock()
	f.returns = append(f.returns, q)
	f.mu.Unlock()
	if f.returnAt == nil {
		return time.Time{}, errors.New("return search not supported")
	}
	return f.returnAt(q)
}

func (f *fakeProvider) chartCalls() []models.Instant {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Instant(nil), f.charts...)
}

type fakePublisher struct {
	scans []*models.TransitScan
	err   error
}

func (f *fakePublisher) PublishScan(_ context.Context, scan *models.TransitScan) error {
	f.scans = append(f.scans, scan)
	return f.err
}

func (f *fakePublisher) Close() error { return nil }

type fakeResolver struct {
	calls int
}

func (f *fakeResolver) Resolve(_ context.Context, place string, date time.Time) (*models.GeoResolution, error) {
	f.calls++
	if place != "Rome" {
		return nil, models.LocationNotFound(place)
	}
	return &models.GeoResolution{
		Input:     place,
		Latitude:  41.8933,
		Longitude: 12.4829,
		Address:   "Roma, Lazio, Italia",
		Timezone:  "Europe/Rome",
		TimezoneInfo: models.TimezoneInfo{
			Timezone:    "Europe/Rome",
			UTCOffset:   2,
			DateChecked: date.Format("2006-01-02"),
		},
	}, nil
}

func set(positions ...models.CelestialPosition) models.PositionSet {
	out := models.PositionSet{}
	for _, p := range positions {
		out[p.Body] = p
	}
	return out
}

func mustLoc(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

func natalInstant() models.Instant {
	return models.Instant{
		Local:     time.Date(1990, 5, 17, 14, 30, 0, 0, mustLoc("Europe/Rome")),
		Latitude:  41.9,
		Longitude: 12.5,
	}
}

func ptr[T any](v T) *T { return &v }
