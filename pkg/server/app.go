package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"SignalBatch/internal/service/marketdata"
	"SignalBatch/internal/usecase"
	pkgch "SignalBatch/pkg/clickhouse"
	"SignalBatch/pkg/config"
	xhttp "SignalBatch/pkg/http"
	"SignalBatch/pkg/http/middleware"
	pkgkafka "SignalBatch/pkg/kafka"
	applogger "SignalBatch/pkg/logger"
	"SignalBatch/pkg/queue"

	"github.com/labstack/echo/v4"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg         *config.Config
	logger      *applogger.Logger
	orch        *usecase.Orchestrator
	httpHandler xhttp.Handler
	httpServer  *xhttp.Server

	queue       *queue.RedisQueue
	consumer    *pkgkafka.Consumer
	submissions pkgkafka.MessageHandler
	quoteStream *marketdata.QuoteStream
	chClient    *pkgch.Client
}

// New creates a new App instance with all dependencies. Optional
// collaborators (queue, consumer, quote stream, clickhouse) may be nil.
func New(
	cfg *config.Config,
	lgr *applogger.Logger,
	orch *usecase.Orchestrator,
	httpHandler xhttp.Handler,
	q *queue.RedisQueue,
	consumer *pkgkafka.Consumer,
	submissions pkgkafka.MessageHandler,
	quoteStream *marketdata.QuoteStream,
	chClient *pkgch.Client,
) *App {
	return &App{
		cfg:         cfg,
		logger:      lgr,
		orch:        orch,
		httpHandler: httpHandler,
		queue:       q,
		consumer:    consumer,
		submissions: submissions,
		quoteStream: quoteStream,
		chClient:    chClient,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(a.httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithLogger(a.logger),
	)

	if a.cfg.RateLimit.Enabled {
		a.httpServer.Echo().Use(middleware.RateLimit(a.cfg.RateLimit.RPS, a.cfg.RateLimit.Burst))
	}
	a.httpServer.Echo().GET("/health", a.health)

	if a.queue != nil {
		if err := a.queue.Start(); err != nil {
			a.logger.Error("queue start error", applogger.Error(err))
			return err
		}
		a.logger.Info("job queue started", applogger.Int("workers", a.cfg.Queue.Workers))
	}

	if a.consumer != nil && a.submissions != nil {
		a.consumer.RegisterHandler(a.submissions)
		go func() {
			if err := a.consumer.Start(); err != nil {
				a.logger.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		a.logger.Info("kafka submissions consumer started",
			applogger.String("topic", a.submissions.Topic()))
	}

	if a.quoteStream != nil {
		go a.quoteStream.Run(ctx)
	}

	if err := a.httpServer.Start(); err != nil {
		a.logger.Error("http server start error", applogger.Error(err))
		return err
	}
	a.logger.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.logger.Info("shutdown signal received")
	cancel()
	return a.shutdown()
}

// shutdown gracefully stops all services: stop intake first, then wait
// for running jobs to drain.
func (a *App) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.logger.Error("http shutdown error", applogger.Error(err))
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(shutdownCtx); err != nil {
			a.logger.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	if a.queue != nil {
		if err := a.queue.Stop(shutdownCtx); err != nil {
			a.logger.Warn("queue stop error", applogger.Error(err))
		}
	}

	a.orch.Wait()

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.logger.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	a.logger.Info("shutdown complete")
	return nil
}

func (a *App) health(c echo.Context) error {
	checks := map[string]string{"status": "ok"}
	if a.chClient != nil {
		if err := a.chClient.Health(c.Request().Context()); err != nil {
			checks["status"] = "degraded"
			checks["clickhouse"] = err.Error()
			return c.JSON(http.StatusServiceUnavailable, checks)
		}
		checks["clickhouse"] = "ok"
	}
	return c.JSON(http.StatusOK, checks)
}
