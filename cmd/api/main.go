package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/repostock/internal/application/inventory"
	"github.com/jhoicas/repostock/internal/domain/repository"
	"github.com/jhoicas/repostock/internal/infrastructure/eventbus"
	"github.com/jhoicas/repostock/internal/infrastructure/lock"
	"github.com/jhoicas/repostock/internal/infrastructure/memory"
	"github.com/jhoicas/repostock/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/repostock/internal/interfaces/http"
	"github.com/jhoicas/repostock/pkg/config"
	"github.com/jhoicas/repostock/pkg/logger"
)

// repos adaptadores de persistencia del backend elegido (STORE_BACKEND).
type repos struct {
	txRunner inventory.TxRunner
	ops      repository.InventoryOperationRepository
	stores   repository.StoreRepository
	products repository.ProductRepository
	stock    repository.StockRepository
	params   repository.ParameterRepository
	close    func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("backend", cfg.DB.Backend).
		Msg("iniciando aplicación")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r, err := openRepos(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión al almacenamiento")
	}
	defer r.close()

	locker, closeLocker := newLocker(ctx, cfg, log)
	defer closeLocker()

	var (
		publisher inventory.EventPublisher = inventory.NopPublisher{}
		amqpConn  *amqp.Connection
	)
	if cfg.RabbitMQ.Enabled() {
		amqpConn, err = eventbus.Dial(ctx, cfg.RabbitMQ.URL, log.Named("eventbus"))
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a RabbitMQ")
		}
		defer amqpConn.Close()
		p, err := eventbus.NewPublisher(amqpConn, cfg.RabbitMQ.Exchange)
		if err != nil {
			log.Fatal().Err(err).Msg("publicador de eventos")
		}
		defer p.Close()
		publisher = p
	} else {
		log.Warn().Msg("RABBITMQ_URL vacío: eventos deshabilitados")
	}

	reader := inventory.NewStockSnapshotReader(r.stock, r.params)
	workflowUC := inventory.NewWorkflowUseCase(r.txRunner, r.ops, r.stores, locker, publisher, log.Named("workflow"))
	replenishmentUC := inventory.NewReplenishmentUseCase(r.stock, r.stores, r.products)
	parameterUC := inventory.NewParameterUseCase(reader, r.params, r.stores, r.products)

	if amqpConn != nil {
		consumer := eventbus.NewConsumer(amqpConn, eventbus.ConsumerConfig{
			Exchange:   cfg.RabbitMQ.Exchange,
			Queue:      cfg.RabbitMQ.FulfillmentQueue,
			RoutingKey: cfg.RabbitMQ.FulfillmentRoutingKey,
			Prefetch:   cfg.RabbitMQ.PrefetchCount,
		}, workflowUC, log.Named("fulfillment"))
		go func() {
			if err := consumer.Start(ctx); err != nil {
				log.Error().Err(err).Msg("consumidor de despacho finalizado")
			}
		}()
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(httpRouter.RequestLogger(log.Named("http")))

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat(cfg.App.SwaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: cfg.App.SwaggerFile,
			Path:     "docs",
			Title:    "Repostock API",
		}))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "backend": cfg.DB.Backend})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Workflow:           workflowUC,
		Replenishment:      replenishmentUC,
		Parameters:         parameterUC,
		Reader:             reader,
		DefaultOriginStore: cfg.Workflow.DefaultOriginStore,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

func openRepos(ctx context.Context, cfg *config.Config, log *logger.Logger) (*repos, error) {
	if cfg.DB.Backend == config.BackendMemory {
		log.Warn().Msg("STORE_BACKEND=memory: los datos se pierden al reiniciar")
		db := memory.NewStore()
		return &repos{
			txRunner: memory.NewTxRunner(db),
			ops:      memory.NewInventoryOperationRepository(db),
			stores:   memory.NewStoreRepository(db),
			products: memory.NewProductRepository(db),
			stock:    memory.NewStockRepository(db),
			params:   memory.NewParameterRepository(db),
			close:    func() {},
		}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	return &repos{
		txRunner: postgres.NewTxRunner(pool),
		ops:      postgres.NewInventoryOperationRepository(pool),
		stores:   postgres.NewStoreRepository(pool),
		products: postgres.NewProductRepository(pool),
		stock:    postgres.NewStockRepository(pool),
		params:   postgres.NewParameterRepository(pool),
		close:    pool.Close,
	}, nil
}

// newLocker usa Redis cuando REDIS_ADDR está configurado; si no, un candado por clave en el proceso.
func newLocker(ctx context.Context, cfg *config.Config, log *logger.Logger) (inventory.Locker, func()) {
	if cfg.Redis.Addr == "" {
		return lock.NewKeyedLocker(), func() {}
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("conexión a Redis")
	}
	return lock.NewRedisLocker(client, cfg.Workflow.LockTTL, cfg.Workflow.LockRetries, log.Named("lock")), func() {
		_ = client.Close()
	}
}
