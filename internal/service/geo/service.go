// Package geo resolves place names and coordinates through rate-limited,
// size-bounded caches in front of external geocoding, timezone and
// elevation services.
package geo

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Bessaq/AstroManusJules/internal/domain/models"
	"github.com/Bessaq/AstroManusJules/internal/domain/repository"
	"github.com/Bessaq/AstroManusJules/internal/service/ratelimit"
	"github.com/Bessaq/AstroManusJules/pkg/cache"
	"github.com/Bessaq/AstroManusJules/pkg/config"
	xhttp "github.com/Bessaq/AstroManusJules/pkg/http"
	"github.com/Bessaq/AstroManusJules/pkg/logger"
)

// Outbound service names, used as rate-limit keys and metric labels.
const (
	ServiceGeocode   = "geocode"
	ServiceTimezone  = "timezone"
	ServiceElevation = "elevation"
)

// Settings tune retries, spacing and cache sizes.
type Settings struct {
	GeocodeInterval   time.Duration
	TimezoneInterval  time.Duration
	ElevationInterval time.Duration
	MaxRetries        int
	RetryDelay        time.Duration
	CacheSize         int
	TTL               time.Duration
	// LookupTimeout bounds one shared place lookup, which outlives the
	// request that started it.
	LookupTimeout time.Duration
}

const defaultLookupTimeout = time.Minute

// SettingsFromConfig reads the geo and redis sections. The lookup timeout
// covers geocode, timezone and elevation each using every retry.
func SettingsFromConfig(cfg *config.Config) Settings {
	perCall := cfg.Geo.Timeout + cfg.Geo.RetryDelay
	return Settings{
		GeocodeInterval:   cfg.Geo.GeocodeInterval,
		TimezoneInterval:  cfg.Geo.TimezoneInterval,
		ElevationInterval: cfg.Geo.ElevationInterval,
		MaxRetries:        cfg.Geo.MaxRetries,
		RetryDelay:        cfg.Geo.RetryDelay,
		CacheSize:         cfg.Geo.CacheSize,
		TTL:               cfg.Redis.TTL,
		LookupTimeout:     3 * time.Duration(max(1, cfg.Geo.MaxRetries)) * perCall,
	}
}

// geocodeEntry caches misses too, so a misspelled place is looked up once.
type geocodeEntry struct {
	Found  bool                 `json:"found"`
	Result models.GeocodeResult `json:"result"`
}

// placeRecord is the date-independent part of a GeoResolution.
type placeRecord struct {
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Address   string   `json:"address"`
	Timezone  string   `json:"timezone"`
	Elevation *float64 `json:"elevation,omitempty"`
}

// Service is the Geo/Timezone resolution cache. One instance is shared by
// all requests; the interval limiter and caches are safe for concurrent use.
type Service struct {
	geocoder  repository.Geocoder
	timezones repository.TimezoneLookup
	elevation repository.ElevationLookup

	limiter  *ratelimit.Interval
	settings Settings
	metrics  repository.Metrics
	log      *logger.Logger

	geocodeCache   *cache.Layered[geocodeEntry]
	timezoneCache  *cache.Layered[string]
	elevationCache *cache.Layered[float64]
	placeCache     *cache.Layered[placeRecord]

	// concurrent misses for one place share a single lookup
	inflight singleflight.Group
}

// NewService wires the lookups behind caches. store may be nil, in which
// case only the in-process caches are used.
func NewService(
	geocoder repository.Geocoder,
	timezones repository.TimezoneLookup,
	elevation repository.ElevationLookup,
	store cache.Store,
	settings Settings,
	metrics repository.Metrics,
	log *logger.Logger,
) *Service {
	if settings.MaxRetries < 1 {
		settings.MaxRetries = 1
	}
	if settings.LookupTimeout <= 0 {
		settings.LookupTimeout = defaultLookupTimeout
	}
	if metrics == nil {
		metrics = repository.NopMetrics{}
	}
	layered := func(prefix string) []cache.LayeredOption {
		opts := []cache.LayeredOption{cache.WithLayeredPrefix("geo:" + prefix)}
		if settings.TTL > 0 {
			opts = append(opts, cache.WithLayeredTTL(settings.TTL))
		}
		return opts
	}

	return &Service{
		geocoder:       geocoder,
		timezones:      timezones,
		elevation:      elevation,
		limiter:        ratelimit.NewInterval(),
		settings:       settings,
		metrics:        metrics,
		log:            log,
		geocodeCache:   cache.NewLayered[geocodeEntry](settings.CacheSize, store, layered("geocode")...),
		timezoneCache:  cache.NewLayered[string](settings.CacheSize, store, layered("timezone")...),
		elevationCache: cache.NewLayered[float64](settings.CacheSize, store, layered("elevation")...),
		placeCache:     cache.NewLayered[placeRecord](settings.CacheSize, store, layered("place")...),
	}
}

// NormalizePlace is the geocode cache key: trimmed, lower-cased, single spaced.
func NormalizePlace(place string) string {
	return strings.ToLower(strings.Join(strings.Fields(place), " "))
}

// ValidateCoordinates rejects out-of-range or non-finite coordinates.
func ValidateCoordinates(lat, lng float64) error {
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return models.InvalidInput("latitude", "latitude must be within [-90, 90]")
	}
	if math.IsNaN(lng) || lng < -180 || lng > 180 {
		return models.InvalidInput("longitude", "longitude must be within [-180, 180]")
	}
	return nil
}

// Geocode resolves a place name. Unknown places yield a LocationNotFound error.
func (s *Service) Geocode(ctx context.Context, place string) (*models.GeocodeResult, error) {
	key := NormalizePlace(place)
	if key == "" {
		return nil, models.InvalidInput("city", "place name is empty")
	}

	if e, ok := s.geocodeCache.Get(ctx, key); ok {
		s.metrics.RecordCacheLookup(ServiceGeocode, true)
		s.log.Debug("geocode cache hit", logger.String("place", key), logger.Bool("found", e.Found))
		if !e.Found {
			return nil, models.LocationNotFound(place)
		}
		res := e.Result
		return &res, nil
	}
	s.metrics.RecordCacheLookup(ServiceGeocode, false)

	var res *models.GeocodeResult
	err := s.call(ctx, ServiceGeocode, s.settings.GeocodeInterval, func(ctx context.Context) error {
		var err error
		res, err = s.geocoder.Geocode(ctx, strings.TrimSpace(place))
		return err
	})
	if err != nil {
		return nil, err
	}

	entry := geocodeEntry{Found: res != nil}
	if res != nil {
		entry.Result = *res
	}
	s.store(ctx, ServiceGeocode, func(ctx context.Context) error { return s.geocodeCache.Set(ctx, key, entry) })

	if res == nil {
		s.metrics.RecordExternalCall(ServiceGeocode, "not_found")
		return nil, models.LocationNotFound(place)
	}
	return res, nil
}

// TimezoneAt resolves the IANA zone at a coordinate pair.
func (s *Service) TimezoneAt(ctx context.Context, lat, lng float64) (string, error) {
	if err := ValidateCoordinates(lat, lng); err != nil {
		return "", err
	}
	key := cache.CoordKey(lat, lng)
	if tz, ok := s.timezoneCache.Get(ctx, key); ok {
		s.metrics.RecordCacheLookup(ServiceTimezone, true)
		return tz, nil
	}
	s.metrics.RecordCacheLookup(ServiceTimezone, false)

	var tz string
	err := s.call(ctx, ServiceTimezone, s.settings.TimezoneInterval, func(ctx context.Context) error {
		var err error
		tz, err = s.timezones.TimezoneAt(ctx, lat, lng)
		return err
	})
	if err != nil {
		return "", err
	}
	s.store(ctx, ServiceTimezone, func(ctx context.Context) error { return s.timezoneCache.Set(ctx, key, tz) })
	return tz, nil
}

// ElevationAt resolves meters above sea level at a coordinate pair.
func (s *Service) ElevationAt(ctx context.Context, lat, lng float64) (float64, error) {
	if err := ValidateCoordinates(lat, lng); err != nil {
		return 0, err
	}
	key := cache.CoordKey(lat, lng)
	if v, ok := s.elevationCache.Get(ctx, key); ok {
		s.metrics.RecordCacheLookup(ServiceElevation, true)
		return v, nil
	}
	s.metrics.RecordCacheLookup(ServiceElevation, false)

	var v float64
	err := s.call(ctx, ServiceElevation, s.settings.ElevationInterval, func(ctx context.Context) error {
		var err error
		v, err = s.elevation.ElevationAt(ctx, lat, lng)
		return err
	})
	if err != nil {
		return 0, err
	}
	s.store(ctx, ServiceElevation, func(ctx context.Context) error { return s.elevationCache.Set(ctx, key, v) })
	return v, nil
}

// Resolve combines geocode, timezone and (best effort) elevation for a
// place, with timezone offsets evaluated on date. Only the date-independent
// part is cached.
func (s *Service) Resolve(ctx context.Context, place string, date time.Time) (*models.GeoResolution, error) {
	key := NormalizePlace(place)
	if key == "" {
		return nil, models.InvalidInput("city", "place name is empty")
	}

	rec, ok := s.placeCache.Get(ctx, key)
	s.metrics.RecordCacheLookup("place", ok)
	if !ok {
		var err error
		if rec, err = s.sharedLookup(ctx, key, place); err != nil {
			return nil, err
		}
	}

	info, err := DateInfo(rec.Timezone, date)
	if err != nil {
		return nil, models.ProviderFailure("timezone info", err)
	}
	return &models.GeoResolution{
		Input:        place,
		Latitude:     rec.Latitude,
		Longitude:    rec.Longitude,
		Address:      rec.Address,
		Timezone:     rec.Timezone,
		Elevation:    rec.Elevation,
		TimezoneInfo: info,
	}, nil
}

// sharedLookup lets concurrent misses for one place share a single lookup.
// The lookup runs detached from the caller so one cancelled request does
// not fail the others; each caller still stops waiting when its own ctx ends.
func (s *Service) sharedLookup(ctx context.Context, key, place string) (placeRecord, error) {
	ch := s.inflight.DoChan(key, func() (interface{}, error) {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.settings.LookupTimeout)
		defer cancel()

		r, err := s.lookupPlace(lctx, place)
		if err != nil {
			return nil, err
		}
		s.store(lctx, "place", func(ctx context.Context) error { return s.placeCache.Set(ctx, key, r) })
		return r, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return placeRecord{}, res.Err
		}
		if res.Shared {
			s.log.Debug("place lookup shared", logger.String("place", key))
		}
		return res.Val.(placeRecord), nil
	case <-ctx.Done():
		return placeRecord{}, models.ServiceUnavailable("place", ctx.Err())
	}
}

func (s *Service) lookupPlace(ctx context.Context, place string) (placeRecord, error) {
	g, err := s.Geocode(ctx, place)
	if err != nil {
		return placeRecord{}, err
	}
	tz, err := s.TimezoneAt(ctx, g.Latitude, g.Longitude)
	if err != nil {
		return placeRecord{}, err
	}
	rec := placeRecord{Latitude: g.Latitude, Longitude: g.Longitude, Address: g.Address, Timezone: tz}

	if s.elevation != nil {
		if elev, err := s.ElevationAt(ctx, g.Latitude, g.Longitude); err == nil {
			rec.Elevation = &elev
		} else {
			s.log.Warn("elevation lookup failed, continuing without it",
				logger.String("place", place),
				logger.Error(err),
			)
		}
	}
	return rec, nil
}

// ClearCaches empties every cache and returns how many local entries each held.
func (s *Service) ClearCaches(ctx context.Context) (map[string]int, error) {
	sizes := map[string]int{
		ServiceGeocode:   s.geocodeCache.Len(),
		ServiceTimezone:  s.timezoneCache.Len(),
		ServiceElevation: s.elevationCache.Len(),
		"place":          s.placeCache.Len(),
	}
	err := errors.Join(
		s.geocodeCache.Clear(ctx),
		s.timezoneCache.Clear(ctx),
		s.elevationCache.Clear(ctx),
		s.placeCache.Clear(ctx),
	)
	s.log.Info("geo caches cleared", logger.Any("entries", sizes))
	return sizes, err
}

// call runs fn behind the per-service interval limiter, retrying transient
// failures up to MaxRetries attempts with RetryDelay between them.
// Permanent failures surface as ProviderFailure, exhausted retries as
// ServiceUnavailable.
func (s *Service) call(ctx context.Context, service string, interval time.Duration, fn func(context.Context) error) error {
	var err error
	for attempt := 1; attempt <= s.settings.MaxRetries; attempt++ {
		waited, werr := s.limiter.Wait(ctx, service, interval)
		if werr != nil {
			return models.ServiceUnavailable(service, werr)
		}
		if waited > 0 {
			s.log.Debug("rate limit wait", logger.String("service", service), logger.Duration("waited_ms", waited))
		}

		if err = fn(ctx); err == nil {
			s.metrics.RecordExternalCall(service, "ok")
			return nil
		}
		if !transient(err) {
			s.metrics.RecordExternalCall(service, "error")
			s.log.Error("external lookup failed", logger.String("service", service), logger.Error(err))
			return models.ProviderFailure(service, err)
		}
		if attempt == s.settings.MaxRetries {
			break
		}

		s.metrics.RecordExternalCall(service, "retry")
		s.log.Warn("external lookup failed, retrying",
			logger.String("service", service),
			logger.Int("attempt", attempt),
			logger.Error(err),
		)
		select {
		case <-time.After(s.settings.RetryDelay):
		case <-ctx.Done():
			return models.ServiceUnavailable(service, ctx.Err())
		}
	}

	s.metrics.RecordExternalCall(service, "error")
	s.metrics.RecordError(string(models.KindUnavailable))
	s.log.Error("external lookup exhausted retries",
		logger.String("service", service),
		logger.Int("attempts", s.settings.MaxRetries),
		logger.Error(err),
	)
	return models.ServiceUnavailable(service, err)
}

// store writes through to the cache; a failing shared store is logged only.
func (s *Service) store(ctx context.Context, name string, set func(context.Context) error) {
	if err := set(ctx); err != nil {
		s.log.Warn("shared cache write failed", logger.String("cache", name), logger.Error(err))
	}
}

// transient reports errors worth retrying: timeouts, connection failures,
// 429 and 5xx. Other HTTP statuses and unusable payloads are permanent.
func transient(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, errBadPayload) {
		return false
	}
	var se *xhttp.StatusError
	if errors.As(err, &se) {
		return se.Temporary()
	}
	return true
}
