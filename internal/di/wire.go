//go:build wireinject
// +build wireinject

package di

import (
	"SignalBatch/pkg/config"
	"SignalBatch/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,
		ProvideRegistry,

		// Infrastructure clients
		ProvideRedisClient,
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideQueue,

		// Repositories
		ProvideJobStore,
		ProvideMarketData,
		ProvideVerdictSink,
		ProvideVerdictHistory,
		ProvideEventPublisher,

		// Use cases
		ProvideRetryPolicy,
		ProvideOrchestrator,
		ProvideSubmissionsHandler,
		ProvideQuoteStream,

		// HTTP surface
		ProvideHTTPHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
