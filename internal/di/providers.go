package di

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"SignalBatch/internal/domain/repository"
	"SignalBatch/internal/handler/api"
	"SignalBatch/internal/indicator"
	internalrepo "SignalBatch/internal/repository"
	"SignalBatch/internal/service/marketdata"
	"SignalBatch/internal/usecase"
	pkgcache "SignalBatch/pkg/cache"
	pkgch "SignalBatch/pkg/clickhouse"
	"SignalBatch/pkg/config"
	xhttp "SignalBatch/pkg/http"
	pkgkafka "SignalBatch/pkg/kafka"
	applogger "SignalBatch/pkg/logger"
	"SignalBatch/pkg/metrics"
	"SignalBatch/pkg/queue"
	"SignalBatch/pkg/server"

	"github.com/redis/go-redis/v9"
)

// ProvideLogger builds the application logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideRegistry exposes the built-in indicator set.
func ProvideRegistry() *indicator.Registry {
	return indicator.DefaultRegistry()
}

// ProvideRedisClient returns a shared Redis client, or nil when neither
// the store nor the queue needs one.
func ProvideRedisClient(cfg *config.Config) (*redis.Client, error) {
	if cfg.Store.Type != "redis" && !cfg.Queue.Enabled {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

// ProvideJobStore picks the store backend from config.
func ProvideJobStore(cfg *config.Config, lgr *applogger.Logger, client *redis.Client) (repository.JobStore, error) {
	if cfg.Store.Type == "redis" {
		if client == nil {
			return nil, fmt.Errorf("redis store requires a redis client")
		}
		return internalrepo.NewRedisJobStore(lgr, client,
			internalrepo.WithRetention(cfg.Store.Retention),
		), nil
	}
	return internalrepo.NewMemoryJobStore(), nil
}

// ProvideMarketData builds the candle provider chain: demo or REST
// upstream, wrapped in a read-through cache.
func ProvideMarketData(cfg *config.Config, lgr *applogger.Logger) (repository.MarketData, error) {
	if cfg.MarketData.Provider == "demo" {
		return marketdata.NewDemoProvider(), nil
	}

	timeout := cfg.MarketData.HTTPTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	upstream := marketdata.NewClient(
		xhttp.NewClient(xhttp.WithTimeout(timeout)),
		cfg.MarketData.BaseURL,
		cfg.MarketData.APIKey,
	)

	c, err := provideCandleCache(cfg)
	if err != nil {
		return nil, err
	}
	return marketdata.NewCachedProvider(lgr, upstream, c,
		marketdata.WithCandleTTL(cfg.MarketData.CacheTTL),
	), nil
}

func provideCandleCache(cfg *config.Config) (pkgcache.Service, error) {
	if cfg.Redis.Addr == "" {
		return pkgcache.NewMemoryCache(), nil
	}

	host, port := splitHostPort(cfg.Redis.Addr)
	rc, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisHost(host),
		pkgcache.WithRedisPort(port),
		pkgcache.WithRedisPassword(cfg.Redis.Password),
		pkgcache.WithRedisDB(cfg.Redis.DB),
	)
	if err != nil {
		return nil, fmt.Errorf("candle cache: %w", err)
	}
	return pkgcache.NewLayeredCache(rc), nil
}

func splitHostPort(addr string) (string, int) {
	host, portStr, ok := strings.Cut(addr, ":")
	if !ok {
		return addr, 6379
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return host, 6379
	}
	return host, port
}

// ProvideClickHouseClient creates a ClickHouse client, or nil when the
// verdict sink is disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}

	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx, internalrepo.VerdictSchema); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

// ProvideVerdictSink exposes verdict persistence when ClickHouse is up.
func ProvideVerdictSink(chClient *pkgch.Client, cfg *config.Config) repository.VerdictSink {
	if chClient == nil {
		return nil
	}
	return internalrepo.NewClickHouseVerdictSink(chClient.DB(), cfg.ClickHouse.Table)
}

// ProvideVerdictHistory exposes the read side of the same table.
func ProvideVerdictHistory(sink repository.VerdictSink) repository.VerdictHistory {
	if h, ok := sink.(repository.VerdictHistory); ok {
		return h
	}
	return nil
}

// ProvideKafkaProducer creates a Kafka producer, or nil when disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}

	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideEventPublisher publishes lifecycle events when Kafka is up.
func ProvideEventPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.EventPublisher {
	if producer == nil || cfg.Kafka.EventsTopic == "" {
		return nil
	}
	return internalrepo.NewKafkaEventPublisher(producer, cfg.Kafka.EventsTopic)
}

// ProvideKafkaConsumer creates the submissions consumer, or nil when the
// intake topic is not configured.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled || cfg.Kafka.SubmissionsTopic == "" {
		return nil, nil
	}

	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideQueue creates the Redis-backed job queue, or nil when disabled.
func ProvideQueue(cfg *config.Config, lgr *applogger.Logger, client *redis.Client) *queue.RedisQueue {
	if !cfg.Queue.Enabled || client == nil {
		return nil
	}
	return queue.NewRedisQueue(lgr, &queue.QueueConfig{
		Workers:    cfg.Queue.Workers,
		RetryLimit: cfg.Queue.RetryLimit,
		RetryDelay: cfg.Queue.RetryDelay,
	}, client)
}

// ProvideRetryPolicy builds the create-retry policy from config.
func ProvideRetryPolicy(cfg *config.Config) *usecase.RetryPolicy {
	p := usecase.DefaultRetryPolicy()
	if cfg.Jobs.CreateAttempts > 0 {
		p.MaxAttempts = cfg.Jobs.CreateAttempts
	}
	if cfg.Jobs.CreateBackoff > 0 {
		p.BaseBackoff = cfg.Jobs.CreateBackoff
	}
	return p
}

// ProvideOrchestrator wires the analysis core with its optional
// collaborators.
func ProvideOrchestrator(
	cfg *config.Config,
	lgr *applogger.Logger,
	store repository.JobStore,
	market repository.MarketData,
	mtr repository.Metrics,
	registry *indicator.Registry,
	retry *usecase.RetryPolicy,
	q *queue.RedisQueue,
	sink repository.VerdictSink,
	events repository.EventPublisher,
) *usecase.Orchestrator {
	opts := []usecase.OrchestratorOption{
		usecase.WithRetryPolicy(retry),
		usecase.WithWindow(cfg.Jobs.WindowBars),
		usecase.WithProgressEvery(cfg.Jobs.ProgressEvery),
		usecase.WithDemoData(marketdata.NewDemoProvider()),
	}
	if q != nil {
		opts = append(opts, usecase.WithDispatcher(usecase.NewQueueDispatcher(q)))
	}
	if sink != nil {
		opts = append(opts, usecase.WithVerdictSink(sink))
	}
	if events != nil {
		opts = append(opts, usecase.WithEventPublisher(events))
	}
	return usecase.NewOrchestrator(store, market, mtr, registry, lgr, opts...)
}

// ProvideHTTPHandler builds the jobs API handler.
func ProvideHTTPHandler(lgr *applogger.Logger, orch *usecase.Orchestrator, history repository.VerdictHistory) xhttp.Handler {
	return api.NewJobsHandler(lgr, orch, history)
}

// ProvideSubmissionsHandler accepts submissions over Kafka when the
// intake topic is configured.
func ProvideSubmissionsHandler(cfg *config.Config, lgr *applogger.Logger, orch *usecase.Orchestrator) pkgkafka.MessageHandler {
	if cfg.Kafka.SubmissionsTopic == "" {
		return nil
	}
	return usecase.NewKafkaSubmissionsHandler(lgr, cfg.Kafka.SubmissionsTopic, orch)
}

// ProvideQuoteStream builds the optional watchlist quote stream.
func ProvideQuoteStream(cfg *config.Config, lgr *applogger.Logger, mtr repository.Metrics) *marketdata.QuoteStream {
	if cfg.MarketData.Provider != "finnhub" || cfg.MarketData.WebSocketURL == "" || len(cfg.MarketData.Watchlist) == 0 {
		return nil
	}
	return marketdata.NewQuoteStream(lgr, mtr, cfg.MarketData.APIKey, cfg.MarketData.WebSocketURL, cfg.MarketData.Watchlist)
}

// logPublisher adapts the Kafka producer to the log collector's
// publisher interface.
type logPublisher struct {
	p *pkgkafka.Producer
}

func (l logPublisher) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return l.p.Publish(ctx, topic, nil, payload)
}

// ProvideApp assembles the application server. The queue's analysis job
// is registered here: the queue is built before the orchestrator, but
// its handler needs the orchestrator.
func ProvideApp(
	cfg *config.Config,
	lgr *applogger.Logger,
	orch *usecase.Orchestrator,
	httpHandler xhttp.Handler,
	q *queue.RedisQueue,
	producer *pkgkafka.Producer,
	consumer *pkgkafka.Consumer,
	submissions pkgkafka.MessageHandler,
	quoteStream *marketdata.QuoteStream,
	chClient *pkgch.Client,
) *server.App {
	if q != nil {
		q.RegisterJob(usecase.NewAnalyzeJob(orch))
	}
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NoopHook{})
	}
	if producer != nil {
		// Aggregate repeated error logs onto Kafka instead of flooding
		// the console on hot failure paths.
		lgr.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          "signalbatch.log-aggregates",
			Publisher:      logPublisher{producer},
		})
	}
	return server.New(cfg, lgr, orch, httpHandler, q, consumer, submissions, quoteStream, chClient)
}
