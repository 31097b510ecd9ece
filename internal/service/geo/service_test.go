package geo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bessaq/AstroManusJules/internal/domain/models"
	"github.com/Bessaq/AstroManusJules/internal/domain/repository"
	"github.com/Bessaq/AstroManusJules/pkg/config"
	xhttp "github.com/Bessaq/AstroManusJules/pkg/http"
	"github.com/Bessaq/AstroManusJules/pkg/logger"
)

type fakeGeocoder struct {
	mu      sync.Mutex
	calls   []time.Time
	results map[string]*models.GeocodeResult
	errs    []error // returned in order before falling back to results
}

func (f *fakeGeocoder) Geocode(_ context.Context, place string) (*models.GeocodeResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, time.Now())
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return nil, err
	}
	return f.results[place], nil
}

func (f *fakeGeocoder) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeTimezones struct {
	mu    sync.Mutex
	calls int
	zone  string
}

func (f *fakeTimezones) TimezoneAt(context.Context, float64, float64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.zone, nil
}

type fakeElevation struct {
	err   error
	value float64
}

func (f *fakeElevation) ElevationAt(context.Context, float64, float64) (float64, error) {
	return f.value, f.err
}

var rome = &models.GeocodeResult{Latitude: 41.8933, Longitude: 12.4829, Address: "Roma, Lazio, Italia"}

func testSettings() Settings {
	return Settings{
		GeocodeInterval:   5 * time.Millisecond,
		TimezoneInterval:  5 * time.Millisecond,
		ElevationInterval: 5 * time.Millisecond,
		MaxRetries:        3,
		RetryDelay:        time.Millisecond,
		CacheSize:         10,
	}
}

func newTestService(g repository.Geocoder, tz repository.TimezoneLookup, elev repository.ElevationLookup, s Settings) *Service {
	return NewService(g, tz, elev, nil, s, nil, logger.Nop())
}

func TestGeocodeCachesByNormalizedName(t *testing.T) {
	g := &fakeGeocoder{results: map[string]*models.GeocodeResult{"Rome": rome, "rome": rome}}
	svc := newTestService(g, &fakeTimezones{}, nil, testSettings())
	ctx := context.Background()

	first, err := svc.Geocode(ctx, "Rome")
	require.NoError(t, err)
	assert.Equal(t, rome.Latitude, first.Latitude)

	second, err := svc.Geocode(ctx, "  rome ")
	require.NoError(t, err)
	assert.Equal(t, *first, *second)
	assert.Equal(t, 1, g.count())
}

func TestGeocodeCacheHitSkipsRateLimiter(t *testing.T) {
	g := &fakeGeocoder{results: map[string]*models.GeocodeResult{"Rome": rome}}
	s := testSettings()
	s.GeocodeInterval = 500 * time.Millisecond
	svc := newTestService(g, &fakeTimezones{}, nil, s)
	ctx := context.Background()

	_, err := svc.Geocode(ctx, "Rome")
	require.NoError(t, err)

	start := time.Now()
	_, err = svc.Geocode(ctx, "Rome")
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestGeocodeCachesNegativeResults(t *testing.T) {
	g := &fakeGeocoder{}
	svc := newTestService(g, &fakeTimezones{}, nil, testSettings())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.Geocode(ctx, "Atlantis")
		require.Error(t, err)
		assert.Equal(t, models.KindNotFound, models.KindOf(err))
		assert.True(t, models.IsCallerError(err))
	}
	assert.Equal(t, 1, g.count())
}

func TestGeocodeEmptyPlace(t *testing.T) {
	svc := newTestService(&fakeGeocoder{}, &fakeTimezones{}, nil, testSettings())
	_, err := svc.Geocode(context.Background(), "   ")
	assert.Equal(t, models.KindInvalid, models.KindOf(err))
}

func TestGeocodeRetriesTransientErrors(t *testing.T) {
	g := &fakeGeocoder{
		results: map[string]*models.GeocodeResult{"Rome": rome},
		errs:    []error{errors.New("timeout"), &xhttp.StatusError{StatusCode: http.StatusTooManyRequests}},
	}
	svc := newTestService(g, &fakeTimezones{}, nil, testSettings())

	res, err := svc.Geocode(context.Background(), "Rome")
	require.NoError(t, err)
	assert.Equal(t, rome.Address, res.Address)
	assert.Equal(t, 3, g.count())
}

func TestGeocodeExhaustedRetriesIsUnavailable(t *testing.T) {
	timeout := errors.New("timeout")
	g := &fakeGeocoder{errs: []error{timeout, timeout, timeout}}
	svc := newTestService(g, &fakeTimezones{}, nil, testSettings())

	_, err := svc.Geocode(context.Background(), "Rome")
	require.Error(t, err)
	assert.Equal(t, models.KindUnavailable, models.KindOf(err))
	assert.ErrorIs(t, err, timeout)
	assert.Equal(t, 3, g.count())

	// failures are not cached
	g.results = map[string]*models.GeocodeResult{"Rome": rome}
	_, err = svc.Geocode(context.Background(), "Rome")
	assert.NoError(t, err)
}

func TestGeocodePermanentErrorIsNotRetried(t *testing.T) {
	g := &fakeGeocoder{errs: []error{&xhttp.StatusError{StatusCode: http.StatusForbidden}}}
	svc := newTestService(g, &fakeTimezones{}, nil, testSettings())

	_, err := svc.Geocode(context.Background(), "Rome")
	assert.Equal(t, models.KindProvider, models.KindOf(err))
	assert.Equal(t, 1, g.count())
}

func TestOutboundCallsAreSpaced(t *testing.T) {
	g := &fakeGeocoder{results: map[string]*models.GeocodeResult{}}
	s := testSettings()
	s.GeocodeInterval = 40 * time.Millisecond
	svc := newTestService(g, &fakeTimezones{}, nil, s)

	var wg sync.WaitGroup
	for _, place := range []string{"a", "b", "c"} {
		wg.Add(1)
		go func(p string) {
			defer wg.Done()
			_, _ = svc.Geocode(context.Background(), p)
		}(place)
	}
	wg.Wait()

	require.Equal(t, 3, g.count())
	first, last := g.calls[0], g.calls[0]
	for _, c := range g.calls {
		if c.Before(first) {
			first = c
		}
		if c.After(last) {
			last = c
		}
	}
	assert.GreaterOrEqual(t, last.Sub(first), 80*time.Millisecond)
}

func TestTimezoneAtValidatesAndCaches(t *testing.T) {
	tz := &fakeTimezones{zone: "Europe/Rome"}
	svc := newTestService(&fakeGeocoder{}, tz, nil, testSettings())
	ctx := context.Background()

	_, err := svc.TimezoneAt(ctx, 91, 0)
	assert.Equal(t, models.KindInvalid, models.KindOf(err))
	_, err = svc.TimezoneAt(ctx, 0, -181)
	assert.Equal(t, models.KindInvalid, models.KindOf(err))

	for i := 0; i < 2; i++ {
		zone, err := svc.TimezoneAt(ctx, 41.8933001, 12.4829)
		require.NoError(t, err)
		assert.Equal(t, "Europe/Rome", zone)
	}
	// rounds to the same 6-decimal key
	_, err = svc.TimezoneAt(ctx, 41.8933004, 12.4829)
	require.NoError(t, err)
	assert.Equal(t, 1, tz.calls)
}

func TestResolveIsDateSpecific(t *testing.T) {
	g := &fakeGeocoder{results: map[string]*models.GeocodeResult{"Rome": rome}}
	tz := &fakeTimezones{zone: "Europe/Rome"}
	svc := newTestService(g, tz, &fakeElevation{value: 21}, testSettings())
	ctx := context.Background()

	summer, err := svc.Resolve(ctx, "Rome", time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "Europe/Rome", summer.Timezone)
	require.NotNil(t, summer.Elevation)
	assert.Equal(t, 21.0, *summer.Elevation)
	assert.Equal(t, 2.0, summer.TimezoneInfo.UTCOffset)
	assert.True(t, summer.TimezoneInfo.IsDST)
	assert.Equal(t, 1.0, summer.TimezoneInfo.DSTOffset)
	assert.Equal(t, "2024-07-01", summer.TimezoneInfo.DateChecked)

	winter, err := svc.Resolve(ctx, "rome", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1.0, winter.TimezoneInfo.UTCOffset)
	assert.False(t, winter.TimezoneInfo.IsDST)

	assert.Equal(t, 1, g.count())
	assert.Equal(t, 1, tz.calls)
}

func TestResolveWithoutElevation(t *testing.T) {
	g := &fakeGeocoder{results: map[string]*models.GeocodeResult{"Rome": rome}}
	svc := newTestService(g, &fakeTimezones{zone: "Europe/Rome"}, &fakeElevation{err: errors.New("down")}, testSettings())

	res, err := svc.Resolve(context.Background(), "Rome", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Nil(t, res.Elevation)
	assert.Equal(t, rome.Address, res.Address)
}

func TestResolveUnknownPlace(t *testing.T) {
	svc := newTestService(&fakeGeocoder{}, &fakeTimezones{zone: "UTC"}, nil, testSettings())
	_, err := svc.Resolve(context.Background(), "Nowhere", time.Now())
	assert.Equal(t, models.KindNotFound, models.KindOf(err))
}

type slowGeocoder struct {
	fakeGeocoder
	delay time.Duration
}

func (f *slowGeocoder) Geocode(ctx context.Context, place string) (*models.GeocodeResult, error) {
	select {
	case <-time.After(f.delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return f.fakeGeocoder.Geocode(ctx, place)
}

func TestResolveSharesConcurrentLookups(t *testing.T) {
	g := &slowGeocoder{
		fakeGeocoder: fakeGeocoder{results: map[string]*models.GeocodeResult{"Rome": rome}},
		delay:        50 * time.Millisecond,
	}
	tz := &fakeTimezones{zone: "Europe/Rome"}
	svc := newTestService(g, tz, nil, testSettings())
	day := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

	var wg sync.WaitGroup
	results := make([]*models.GeoResolution, 5)
	errs := make([]error, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.Resolve(context.Background(), "Rome", day)
		}(i)
	}
	wg.Wait()

	for i := range results {
		require.NoError(t, errs[i])
		assert.Equal(t, "Europe/Rome", results[i].Timezone)
	}
	assert.Equal(t, 1, g.count())
	assert.Equal(t, 1, tz.calls)
}

func TestResolveSurvivesCancelledLeader(t *testing.T) {
	g := &slowGeocoder{
		fakeGeocoder: fakeGeocoder{results: map[string]*models.GeocodeResult{"Rome": rome}},
		delay:        80 * time.Millisecond,
	}
	svc := newTestService(g, &fakeTimezones{zone: "Europe/Rome"}, nil, testSettings())
	day := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

	leaderCtx, cancel := context.WithCancel(context.Background())
	leaderErr := make(chan error, 1)
	go func() {
		_, err := svc.Resolve(leaderCtx, "Rome", day)
		leaderErr <- err
	}()
	time.Sleep(10 * time.Millisecond)

	followerErr := make(chan error, 1)
	var follower *models.GeoResolution
	go func() {
		var err error
		follower, err = svc.Resolve(context.Background(), "Rome", day)
		followerErr <- err
	}()
	time.Sleep(10 * time.Millisecond)
	cancel()

	err := <-leaderErr
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, models.KindUnavailable, models.KindOf(err))

	require.NoError(t, <-followerErr)
	assert.Equal(t, "Europe/Rome", follower.Timezone)
	assert.Equal(t, 1, g.count())

	// the detached lookup filled the cache
	_, err = svc.Resolve(context.Background(), "rome", day)
	require.NoError(t, err)
	assert.Equal(t, 1, g.count())
}

func TestResolveEmptyZoneIsProviderFailure(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = w.Write([]byte(`{"timeZone": ""}`))
	}))
	defer srv.Close()

	ocean := &models.GeocodeResult{Latitude: 0, Longitude: -30, Address: "Atlantic Ocean"}
	g := &fakeGeocoder{results: map[string]*models.GeocodeResult{"Atlantic": ocean}}
	svc := newTestService(g, NewTimezoneClient(srv.URL, "astro-test", time.Second), nil, testSettings())

	_, err := svc.Resolve(context.Background(), "Atlantic", time.Now())
	require.Error(t, err)
	assert.Equal(t, models.KindProvider, models.KindOf(err))
	assert.ErrorIs(t, err, errBadPayload)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestSettingsFromConfigBoundsLookup(t *testing.T) {
	cfg := &config.Config{}
	cfg.Geo.Timeout = 10 * time.Second
	cfg.Geo.RetryDelay = 2 * time.Second
	cfg.Geo.MaxRetries = 3

	assert.Equal(t, 108*time.Second, SettingsFromConfig(cfg).LookupTimeout)

	svc := newTestService(&fakeGeocoder{}, &fakeTimezones{}, nil, testSettings())
	assert.Equal(t, defaultLookupTimeout, svc.settings.LookupTimeout)
}

func TestClearCaches(t *testing.T) {
	g := &fakeGeocoder{results: map[string]*models.GeocodeResult{"Rome": rome}}
	svc := newTestService(g, &fakeTimezones{zone: "Europe/Rome"}, nil, testSettings())
	ctx := context.Background()

	_, err := svc.Resolve(ctx, "Rome", time.Now())
	require.NoError(t, err)

	sizes, err := svc.ClearCaches(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sizes[ServiceGeocode])
	assert.Equal(t, 1, sizes[ServiceTimezone])
	assert.Equal(t, 1, sizes["place"])

	_, err = svc.Geocode(ctx, "Rome")
	require.NoError(t, err)
	assert.Equal(t, 2, g.count())
}

func TestDateInfo(t *testing.T) {
	info, err := DateInfo("Australia/Sydney", time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 11.0, info.UTCOffset)
	assert.Equal(t, 10.0, info.StandardOffset)
	assert.True(t, info.IsDST)

	info, err = DateInfo("Asia/Kolkata", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 5.5, info.UTCOffset)
	assert.Equal(t, 0.0, info.DSTOffset)

	_, err = DateInfo("Mars/Olympus", time.Now())
	assert.Equal(t, models.KindInvalid, models.KindOf(err))
}
