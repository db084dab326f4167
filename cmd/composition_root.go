package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"dispatch/internal/adapters/in/auth"
	apihttp "dispatch/internal/adapters/in/http"
	"dispatch/internal/adapters/in/ws"
	"dispatch/internal/adapters/out/estimator"
	"dispatch/internal/adapters/out/events"
	"dispatch/internal/adapters/out/memory"
	"dispatch/internal/adapters/out/postgres"
	"dispatch/internal/adapters/out/rabbitmq"
	redisadapter "dispatch/internal/adapters/out/redis"
	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/domain/services"
	"dispatch/internal/core/ports"
	"dispatch/internal/jobs"
	"dispatch/internal/pkg/metrics"
	"dispatch/internal/sync/hub"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type unitOfWorkFactory interface {
	Create() ports.UnitOfWork
}

// CompositionRoot owns every long-lived dependency and builds the handlers.
type CompositionRoot struct {
	cfg    Config
	logger *slog.Logger

	registry   *prometheus.Registry
	hub        *hub.Hub
	uowFactory unitOfWorkFactory
	locations  ports.LocationStore
	publisher  ports.EventPublisher
	estimator  ports.Estimator
	signer     services.ProofSigner
	auth       *auth.Authenticator

	eventBus *redisadapter.EventBus
	closers  []func()
}

func NewCompositionRoot(ctx context.Context, cfg Config, logger *slog.Logger) (*CompositionRoot, error) {
	c := &CompositionRoot{
		cfg:      cfg,
		logger:   logger,
		registry: prometheus.NewRegistry(),
		hub:      hub.New(logger, hub.DefaultOutboxSize),
	}
	c.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.Register(c.registry)

	var err error
	if c.signer, err = services.NewProofSigner([]byte(cfg.ProofSecret), cfg.ProofTTL); err != nil {
		return nil, fmt.Errorf("proof signer: %w", err)
	}
	if c.auth, err = auth.NewAuthenticator(cfg.JWTSecret); err != nil {
		return nil, fmt.Errorf("authenticator: %w", err)
	}

	c.estimator = c.buildEstimator()

	if err = c.connectSync(ctx); err != nil {
		c.Close()
		return nil, err
	}
	broadcaster, notifier, err := c.connectBroker()
	if err != nil {
		c.Close()
		return nil, err
	}
	c.publisher = events.NewDispatcher(c.syncPublisher(), broadcaster, notifier, logger)

	if err = c.openStorage(); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func (c *CompositionRoot) buildEstimator() ports.Estimator {
	tariff := services.NewTariffEstimator(nil)
	if c.cfg.EstimatorURL == "" {
		return tariff
	}
	return estimator.NewRemoteEstimator(c.cfg.EstimatorURL, c.cfg.EstimatorTimeout, tariff, c.logger)
}

// connectSync chooses between the in-process hub and the Redis event bus.
// With Redis, locations are shared across instances too.
func (c *CompositionRoot) connectSync(ctx context.Context) error {
	if c.cfg.RedisAddr == "" {
		c.locations = memory.NewLocationStore()
		return nil
	}

	client, err := redisadapter.Connect(ctx, redisadapter.Options{
		Addr:     c.cfg.RedisAddr,
		Password: c.cfg.RedisPassword,
		DB:       c.cfg.RedisDB,
	})
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	c.closers = append(c.closers, func() { _ = client.Close() })

	c.locations = redisadapter.NewLocationStore(client, c.cfg.LocationTTL)
	c.eventBus = redisadapter.NewEventBus(client, "", c.logger)
	return nil
}

func (c *CompositionRoot) syncPublisher() ports.EventPublisher {
	if c.eventBus != nil {
		return c.eventBus
	}
	return c.hub
}

// connectBroker returns nil consumers when no AMQP_URL is configured.
func (c *CompositionRoot) connectBroker() (ports.CourierBroadcaster, ports.LowBalanceNotifier, error) {
	if c.cfg.AMQPURL == "" {
		return nil, nil, nil
	}

	client, err := rabbitmq.Dial(c.cfg.AMQPURL)
	if err != nil {
		return nil, nil, fmt.Errorf("rabbitmq: %w", err)
	}
	c.closers = append(c.closers, client.Close)
	if err = client.DeclareTopology(); err != nil {
		return nil, nil, fmt.Errorf("rabbitmq topology: %w", err)
	}
	return rabbitmq.NewCourierBroadcaster(client), rabbitmq.NewLowBalanceNotifier(client), nil
}

func (c *CompositionRoot) openStorage() error {
	if c.cfg.Storage == StorageMemory {
		c.uowFactory = memory.NewUnitOfWorkFactory(memory.NewStore(), c.publisher, c.logger)
		return nil
	}

	db, err := gorm.Open(gormpostgres.Open(c.cfg.DSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	if sqlDB, dbErr := db.DB(); dbErr == nil {
		c.closers = append(c.closers, func() { _ = sqlDB.Close() })
	}
	if err = postgres.Migrate(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	c.uowFactory = postgres.NewGormUnitOfWorkFactory(db, c.publisher, c.logger)
	return nil
}

// RunBackground blocks relaying the Redis event bus into the local hub until
// ctx ends. Without Redis it returns at once.
func (c *CompositionRoot) RunBackground(ctx context.Context) error {
	if c.eventBus == nil {
		return nil
	}
	return c.eventBus.Run(ctx, c.hub.Deliver, nil)
}

// Close releases connections in reverse order of opening.
func (c *CompositionRoot) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}

func (c *CompositionRoot) orderUoW() commands.OrderUoWFactory {
	return commands.FuncOrderUoWFactory(func() commands.OrderUoW { return c.uowFactory.Create() })
}

func (c *CompositionRoot) commissionUoW() commands.CommissionUoWFactory {
	return commands.FuncCommissionUoWFactory(func() commands.CommissionUoW { return c.uowFactory.Create() })
}

func (c *CompositionRoot) fullUoW() commands.UoWFactory {
	return commands.FuncUoWFactory(func() commands.UoW { return c.uowFactory.Create() })
}

func (c *CompositionRoot) CreateCreateOrderCommandHandler() commands.CreateOrderCommandHandler {
	return commands.NewCreateOrderCommandHandler(c.orderUoW(), c.estimator, c.signer, c.logger)
}

func (c *CompositionRoot) CreateAssignCourierCommandHandler() commands.AssignCourierCommandHandler {
	return commands.NewAssignCourierCommandHandler(c.fullUoW(), c.logger)
}

func (c *CompositionRoot) CreateAdvanceOrderCommandHandler() commands.AdvanceOrderCommandHandler {
	return commands.NewAdvanceOrderCommandHandler(c.orderUoW(), c.logger)
}

func (c *CompositionRoot) CreateCompleteWithProofCommandHandler() commands.CompleteWithProofCommandHandler {
	return commands.NewCompleteWithProofCommandHandler(c.fullUoW(), c.signer, c.logger)
}

func (c *CompositionRoot) CreateReportLocationCommandHandler() commands.ReportLocationCommandHandler {
	return commands.NewReportLocationCommandHandler(c.orderUoW(), c.locations, c.publisher)
}

func (c *CompositionRoot) CreateExpirePendingOrdersCommandHandler() commands.ExpirePendingOrdersCommandHandler {
	return commands.NewExpirePendingOrdersCommandHandler(c.orderUoW(), c.logger)
}

func (c *CompositionRoot) CreateInitializeCommissionAccountCommandHandler() commands.InitializeCommissionAccountCommandHandler {
	return commands.NewInitializeCommissionAccountCommandHandler(c.commissionUoW(), c.cfg.LowBalanceThreshold, c.logger)
}

func (c *CompositionRoot) CreateRechargeCommissionCommandHandler() commands.RechargeCommissionCommandHandler {
	return commands.NewRechargeCommissionCommandHandler(c.commissionUoW(), c.logger)
}

func (c *CompositionRoot) CreateRefundCommissionCommandHandler() commands.RefundCommissionCommandHandler {
	return commands.NewRefundCommissionCommandHandler(c.commissionUoW(), c.logger)
}

func (c *CompositionRoot) CreateAuditLedgerCommandHandler() commands.AuditLedgerCommandHandler {
	return commands.NewAuditLedgerCommandHandler(c.commissionUoW(), c.logger)
}

func (c *CompositionRoot) CreateGetOrderQueryHandler() queries.GetOrderQueryHandler {
	return queries.NewGetOrderQueryHandler(c.uowFactory.Create().OrderRepository(), c.locations)
}

func (c *CompositionRoot) CreateGetActiveOrdersQueryHandler() queries.GetActiveOrdersQueryHandler {
	return queries.NewGetActiveOrdersQueryHandler(c.uowFactory.Create().OrderRepository(), c.locations)
}

func (c *CompositionRoot) CreateGetCommissionAccountQueryHandler() queries.GetCommissionAccountQueryHandler {
	return queries.NewGetCommissionAccountQueryHandler(c.uowFactory.Create().CommissionRepository())
}

func (c *CompositionRoot) CreateListCommissionTransactionsQueryHandler() queries.ListCommissionTransactionsQueryHandler {
	return queries.NewListCommissionTransactionsQueryHandler(c.uowFactory.Create().CommissionRepository())
}

func (c *CompositionRoot) CreateCanAcceptWorkQueryHandler() queries.CanAcceptWorkQueryHandler {
	return queries.NewCanAcceptWorkQueryHandler(c.uowFactory.Create().CommissionRepository())
}

// CreateHTTPServer builds the REST router and mounts the sync channel on it.
func (c *CompositionRoot) CreateHTTPServer(ctx context.Context) (*echo.Echo, error) {
	spec, err := apihttp.LoadSpec(ctx)
	if err != nil {
		return nil, fmt.Errorf("openapi spec: %w", err)
	}

	server := apihttp.NewServer(apihttp.Handlers{
		CreateOrder:       c.CreateCreateOrderCommandHandler(),
		AssignCourier:     c.CreateAssignCourierCommandHandler(),
		AdvanceOrder:      c.CreateAdvanceOrderCommandHandler(),
		CompleteWithProof: c.CreateCompleteWithProofCommandHandler(),
		ReportLocation:    c.CreateReportLocationCommandHandler(),
		InitializeAccount: c.CreateInitializeCommissionAccountCommandHandler(),
		Recharge:          c.CreateRechargeCommissionCommandHandler(),
		Refund:            c.CreateRefundCommissionCommandHandler(),
		AuditLedger:       c.CreateAuditLedgerCommandHandler(),
		GetOrder:          c.CreateGetOrderQueryHandler(),
		GetActiveOrders:   c.CreateGetActiveOrdersQueryHandler(),
		GetAccount:        c.CreateGetCommissionAccountQueryHandler(),
		ListTransactions:  c.CreateListCommissionTransactionsQueryHandler(),
		CanAcceptWork:     c.CreateCanAcceptWorkQueryHandler(),
	})

	e, err := apihttp.NewRouter(server, apihttp.RouterConfig{
		Auth:     c.auth,
		Spec:     spec,
		Gatherer: c.registry,
		Health: func() any {
			return map[string]any{
				"status":  "ok",
				"storage": c.cfg.Storage,
				"sync":    c.hub.Stats(),
			}
		},
	})
	if err != nil {
		return nil, err
	}

	syncHandler := ws.NewHandler(c.hub, c.auth,
		c.CreateGetActiveOrdersQueryHandler(), c.CreateCreateOrderCommandHandler(), c.logger)
	e.GET("/api/v1/sync", syncHandler.Serve)
	return e, nil
}

func (c *CompositionRoot) CreateJobManager() (*jobs.JobManager, error) {
	sweep := c.CreateExpirePendingOrdersCommandHandler()

	decline, err := jobs.NewDeclineUnclaimedJob(sweep, c.cfg.DispatchWindow, c.cfg.SweepSchedule, c.logger)
	if err != nil {
		return nil, err
	}
	cancel, err := jobs.NewAutoCancelStaleJob(sweep, c.cfg.StalePendingThreshold, c.cfg.SweepSchedule, c.logger)
	if err != nil {
		return nil, err
	}
	return jobs.NewJobManager(decline, cancel), nil
}
