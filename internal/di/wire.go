//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"github.com/Bessaq/AstroManusJules/pkg/config"
	"github.com/Bessaq/AstroManusJules/pkg/server"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideCacheStore,
		ProvideEventPublisher,
		ProvidePositionProvider,
		ProvideGeoService,

		// Use cases
		ProvideLocationUseCase,
		ProvideChartsUseCase,
		ProvideTransitScanner,

		// HTTP
		ProvideHTTPHandler,
		ProvideHTTPServer,
		ProvideApp,
	)
	return nil, nil, nil
}
