package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	amqp "github.com/rabbitmq/amqp091-go"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/orders/internal/domain"
	healthcheck "github.com/vladislavdragonenkov/orders/internal/health"
	"github.com/vladislavdragonenkov/orders/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/orders/internal/service/catalog"
	"github.com/vladislavdragonenkov/orders/internal/service/order"
	"github.com/vladislavdragonenkov/orders/internal/storage/memory"
	"github.com/vladislavdragonenkov/orders/internal/storage/postgres"
	"github.com/vladislavdragonenkov/orders/internal/transport/rabbit"
	"github.com/vladislavdragonenkov/orders/internal/version"
)

// Run собирает зависимости и держит сервис до отмены контекста.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")

	// Хранилище: PostgreSQL при заданном DSN, иначе in-memory для локального запуска.
	var (
		repo  domain.OrderRepository
		store *postgres.Store
	)
	if cfg.Postgres.DSN != "" {
		var err error
		store, err = postgres.Open(ctx, cfg.Postgres.DSN)
		if err != nil {
			return fmt.Errorf("open postgres: %w", err)
		}
		defer store.Close()

		if err := store.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
		repo = postgres.NewOrderRepository(store)
		logger.Info("postgres storage initialized")
	} else {
		repo = memory.NewOrderRepository()
		logger.Warn("postgres dsn is not set, using in-memory storage")
	}

	conn, err := amqp.Dial(cfg.AMQP.URL)
	if err != nil {
		return fmt.Errorf("dial amqp: %w", err)
	}
	defer conn.Close()

	commandCh, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open command channel: %w", err)
	}
	defer commandCh.Close()

	catalogCh, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open catalog channel: %w", err)
	}
	defer catalogCh.Close()

	catalogOpts := []catalog.Option{
		catalog.WithLogger(logger.WithField("layer", "catalog")),
		catalog.WithTimeout(cfg.AMQP.CallTimeout),
	}
	if cfg.AMQP.CatalogQueue != "" {
		catalogOpts = append(catalogOpts, catalog.WithRequestQueue(cfg.AMQP.CatalogQueue))
	}
	catalogClient, err := catalog.NewClient(catalogCh, catalogOpts...)
	if err != nil {
		return fmt.Errorf("init catalog client: %w", err)
	}

	// Инициализация Kafka producer (опционально).
	var kafkaProducer *kafka.Producer
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := kafka.NewProducer(cfg.Kafka.Brokers)
		if err != nil {
			logger.WithError(err).Warn("failed to create kafka producer, continuing without kafka")
		} else {
			kafkaProducer = producer
			logger.WithField("brokers", cfg.Kafka.Brokers).Info("kafka producer initialized")
		}
	}

	serviceLogger := logger.WithField("layer", "service")
	var orderService *order.Service
	if kafkaProducer != nil {
		orderService = order.NewServiceWithEvents(repo, catalogClient, kafkaProducer, serviceLogger)
	} else {
		orderService = order.NewService(repo, catalogClient, serviceLogger)
	}

	router := rabbit.NewRouter(commandCh,
		rabbit.WithPrefetch(cfg.AMQP.Prefetch),
		rabbit.WithCallTimeout(cfg.AMQP.CallTimeout),
		rabbit.WithRouterLogger(logger.WithField("layer", "transport")),
	)
	orderHandler := rabbit.NewOrderHandler(orderService, commandCh, logger.WithField("layer", "transport"))
	orderHandler.Register(router)

	// HTTP health checks + метрики.
	healthHandler := healthcheck.NewHandler(version.GetVersion())
	healthHandler.RegisterChecker("amqp", healthcheck.NewSimpleChecker("amqp", func() error {
		if conn.IsClosed() {
			return errors.New("amqp connection is closed")
		}
		return nil
	}))
	if store != nil {
		healthHandler.RegisterChecker("postgres", healthcheck.NewSimpleChecker("postgres", func() error {
			return store.Ping(context.Background())
		}))
	}

	metricsSrv := startMetricsServer(ctx, cfg.App.MetricsAddr, logger, healthHandler)

	if err := router.Start(); err != nil {
		shutdownHTTP(metricsSrv, logger)
		return fmt.Errorf("start command router: %w", err)
	}
	logger.Info("сервис заказов принимает команды")

	// Отслеживаем падение соединения с брокером: повторное подключение —
	// забота оркестрации процесса, сервис просто завершается с ошибкой.
	connClosed := conn.NotifyClose(make(chan *amqp.Error, 1))

	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, завершаем работу")
		shutdownHTTP(metricsSrv, logger)
		closeKafka(kafkaProducer, logger)
		return ctx.Err()
	case amqpErr := <-connClosed:
		shutdownHTTP(metricsSrv, logger)
		closeKafka(kafkaProducer, logger)
		if amqpErr != nil {
			return fmt.Errorf("amqp connection lost: %w", amqpErr)
		}
		return nil
	}
}

func closeKafka(producer *kafka.Producer, logger *log.Entry) {
	if producer == nil {
		return
	}
	if err := producer.Close(); err != nil {
		logger.WithError(err).Warn("failed to close kafka producer")
	} else {
		logger.Info("kafka producer closed")
	}
}

// startMetricsServer запускает HTTP-обработчики /metrics и health-проверок.
func startMetricsServer(ctx context.Context, addr string, logger *log.Entry, healthHandler *healthcheck.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/readyz", healthHandler.ReadinessHandler)
	mux.HandleFunc("/livez", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
		logger.Infof("health checks: %s/healthz, %s/readyz, %s/livez", addr, addr, addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, logger)
	}()

	return srv
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("metrics shutdown with error")
	}
}
