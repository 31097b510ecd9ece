package di

import (
	"fmt"

	"github.com/Bessaq/AstroManusJules/internal/domain/repository"
	domsvc "github.com/Bessaq/AstroManusJules/internal/domain/service"
	"github.com/Bessaq/AstroManusJules/internal/handler/api"
	internalrepo "github.com/Bessaq/AstroManusJules/internal/repository"
	"github.com/Bessaq/AstroManusJules/internal/service/ephemeris"
	"github.com/Bessaq/AstroManusJules/internal/service/geo"
	"github.com/Bessaq/AstroManusJules/internal/service/ratelimit"
	"github.com/Bessaq/AstroManusJules/internal/usecase"
	"github.com/Bessaq/AstroManusJules/pkg/cache"
	"github.com/Bessaq/AstroManusJules/pkg/config"
	xhttp "github.com/Bessaq/AstroManusJules/pkg/http"
	pkgkafka "github.com/Bessaq/AstroManusJules/pkg/kafka"
	"github.com/Bessaq/AstroManusJules/pkg/logger"
	"github.com/Bessaq/AstroManusJules/pkg/metrics"
	"github.com/Bessaq/AstroManusJules/pkg/server"
)

// ProvideLogger builds the application logger from the log section.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	l, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideCacheStore connects the shared Redis tier. With Redis disabled the
// store is nil and the geo caches stay in-process.
func ProvideCacheStore(cfg *config.Config, l *logger.Logger) (cache.Store, func(), error) {
	if !cfg.Redis.Enabled {
		return nil, func() {}, nil
	}
	rc, err := cache.NewRedisCache(
		cache.WithRedisHost(cfg.Redis.Host),
		cache.WithRedisPort(cfg.Redis.Port),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPrefix(cfg.Redis.Prefix),
		cache.WithRedisPool(cfg.Redis.PoolSize, cfg.Redis.MinIdleConns, cfg.Redis.PoolTimeout),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("redis cache: %w", err)
	}
	l.Info("redis cache connected", logger.String("host", cfg.Redis.Host), logger.Int("port", cfg.Redis.Port))
	return rc, func() {
		if err := rc.Close(); err != nil {
			l.Warn("redis close error", logger.Error(err))
		}
	}, nil
}

// ProvideEventPublisher creates the Kafka scan publisher, or nil when Kafka
// is disabled.
func ProvideEventPublisher(cfg *config.Config, l *logger.Logger) (repository.EventPublisher, func(), error) {
	if !cfg.Kafka.Enabled {
		return nil, func() {}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithTopic(cfg.Kafka.Topic),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithBatch(cfg.Kafka.BatchSize, cfg.Kafka.BatchBytes, cfg.Kafka.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.WriteTimeout, cfg.Kafka.WriteTimeout),
		pkgkafka.WithAsync(cfg.Kafka.Async),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	l.Info("kafka producer ready", logger.Strings("brokers", cfg.Kafka.Brokers), logger.String("topic", cfg.Kafka.Topic))
	pub := internalrepo.NewKafkaEventPublisher(producer)
	return pub, func() {
		if err := pub.Close(); err != nil {
			l.Warn("kafka producer close error", logger.Error(err))
		}
	}, nil
}

// ProvidePositionProvider creates the ephemeris service client.
func ProvidePositionProvider(cfg *config.Config, l *logger.Logger) domsvc.PositionProvider {
	return ephemeris.NewClient(cfg, l)
}

// ProvideGeoService wires geocoding, timezone and elevation lookups behind
// the layered caches.
func ProvideGeoService(cfg *config.Config, store cache.Store, m repository.Metrics, l *logger.Logger) *geo.Service {
	return geo.NewService(
		geo.NewNominatimClient(cfg.Geo.NominatimURL, cfg.Geo.UserAgent, cfg.Geo.Timeout),
		geo.NewTimezoneClient(cfg.Geo.TimezoneURL, cfg.Geo.UserAgent, cfg.Geo.Timeout),
		geo.NewElevationClient(cfg.Geo.ElevationURL, cfg.Geo.UserAgent, cfg.Geo.Timeout),
		store,
		geo.SettingsFromConfig(cfg),
		m,
		l,
	)
}

func ProvideLocationUseCase(g *geo.Service, l *logger.Logger) *usecase.LocationUseCase {
	return usecase.NewLocationUseCase(g, l)
}

func ProvideChartsUseCase(
	provider domsvc.PositionProvider,
	locations *usecase.LocationUseCase,
	m repository.Metrics,
	l *logger.Logger,
) *usecase.ChartsUseCase {
	return usecase.NewChartsUseCase(provider, locations, m, l)
}

func ProvideTransitScanner(
	cfg *config.Config,
	provider domsvc.PositionProvider,
	pub repository.EventPublisher,
	m repository.Metrics,
	l *logger.Logger,
) *usecase.TransitScanner {
	return usecase.NewTransitScanner(provider, pub, m, l, cfg.Scanner.Workers, cfg.Scanner.MaxRangeDays)
}

// ProvideHTTPHandler assembles the API routes.
func ProvideHTTPHandler(
	cfg *config.Config,
	l *logger.Logger,
	charts *usecase.ChartsUseCase,
	locations *usecase.LocationUseCase,
	scanner *usecase.TransitScanner,
	g *geo.Service,
) xhttp.Handler {
	throttle := api.ThrottleSettings{
		Limiter:      ratelimit.New(),
		Capacity:     cfg.Server.Throttle.Capacity,
		RefillPerSec: cfg.Server.Throttle.RefillPerSec,
	}
	return api.NewRouter(
		api.NewChartsEchoHandler(l, charts),
		api.NewTransitsEchoHandler(l, locations, scanner, throttle, cfg.Scanner.DefaultOrbMultiplier),
		api.NewGeoEchoHandler(l, g),
	)
}

// ProvideHTTPServer creates the Echo server.
func ProvideHTTPServer(cfg *config.Config, h xhttp.Handler, l *logger.Logger) *xhttp.Server {
	opts := []xhttp.ServerOption{
		xhttp.WithHost(cfg.Server.Host),
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithMetrics(cfg.Metrics.Enabled, cfg.Metrics.Path),
	}
	if cfg.Server.CORS.Enabled {
		opts = append(opts, xhttp.WithCORS(cfg.Server.CORS.AllowOrigins, cfg.Server.CORS.MaxAge))
	}
	return xhttp.NewServer(h, l, opts...)
}

// ProvideApp creates the application server.
func ProvideApp(cfg *config.Config, srv *xhttp.Server, l *logger.Logger) *server.App {
	return server.New(cfg, srv, l)
}
