package appcontext

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/RoyceAzure/lab/crm/internal/api/graph"
	"github.com/RoyceAzure/lab/crm/internal/api/handler"
	"github.com/RoyceAzure/lab/crm/internal/api/router"
	"github.com/RoyceAzure/lab/crm/internal/config"
	"github.com/RoyceAzure/lab/crm/internal/constants"
	"github.com/RoyceAzure/lab/crm/internal/infra/producer"
	"github.com/RoyceAzure/lab/crm/internal/infra/redisclient"
	"github.com/RoyceAzure/lab/crm/internal/infra/repository"
	"github.com/RoyceAzure/lab/crm/internal/infra/repository/db"
	"github.com/RoyceAzure/lab/crm/internal/infra/repository/memory"
	"github.com/RoyceAzure/lab/crm/internal/infra/repository/redis_repo"
	"github.com/RoyceAzure/lab/crm/internal/job"
	"github.com/RoyceAzure/lab/crm/internal/metrics"
	"github.com/RoyceAzure/lab/crm/internal/pkg/ratelimit"
	"github.com/RoyceAzure/lab/crm/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type publisher interface {
	service.EventPublisher
	Close() error
}

type ApplicationContext struct {
	Cf       *config.Config
	Logger   zerolog.Logger
	Store    repository.Store
	DbDao    *db.DbDao
	Redis    *redis.Client
	Producer publisher
	Metrics  *metrics.Metrics

	CustomerService *service.CustomerService
	ProductService  *service.ProductService
	OrderService    *service.OrderService
	StockService    *service.StockService
	QueryService    *service.QueryService

	Executor  *graph.Executor
	Router    *chi.Mux
	Jobs      map[string]job.Job
	Runner    *job.Runner
	Scheduler *job.Scheduler
}

func NewApplicationContext(ctx context.Context, cf *config.Config) (*ApplicationContext, error) {
	app := ApplicationContext{
		Cf:     cf,
		Logger: SetupLogger(cf),
	}
	app.Logger.Info().
		Str("env", cf.Env).
		Str("store_driver", cf.StoreDriver).
		Str("server_port", cf.ServerPort).
		Bool("redis", cf.RedisAddr != "").
		Strs("kafka_brokers", cf.KafkaBrokerList()).
		Str("graphql_endpoint", cf.GraphQLEndpoint).
		Msg("loaded config")

	if err := app.Init(ctx); err != nil {
		app.Shutdown(context.Background())
		return nil, err
	}
	return &app, nil
}

// SetupLogger 設定全域 logger, 非 production 使用 console 輸出
func SetupLogger(cf *config.Config) zerolog.Logger {
	config.ApplyLogLevel(cf.LogLevel)
	zerolog.TimeFieldFormat = time.RFC3339

	var logger zerolog.Logger
	if cf.IsProduction() {
		logger = zerolog.New(os.Stdout)
	} else {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: constants.LogSinkTimeFormat})
	}
	logger = logger.With().Timestamp().Str("service", "crm").Logger()
	log.Logger = logger
	return logger
}

func (app *ApplicationContext) Init(ctx context.Context) error {
	steps := []func(context.Context) error{
		app.setUpStore,
		app.setUpRedis,
		app.setUpProducer,
		app.setUpMetrics,
		app.setUpServices,
		app.setUpGraph,
		app.setUpRouter,
		app.setUpJobs,
	}
	for _, step := range steps {
		if err := step(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (app *ApplicationContext) setUpStore(ctx context.Context) error {
	app.Logger.Info().Msg("Start setup store")
	switch constants.StoreDriver(app.Cf.StoreDriver) {
	case constants.StoreDriverMemory:
		app.Store = memory.NewStore()
	default:
		gormLogger := app.Logger.With().Str("component", "gorm").Logger()
		conn, err := db.GetDbConn(db.BuildDSN(app.Cf.DbName, app.Cf.DbHost, app.Cf.DbPort, app.Cf.DbUser, app.Cf.DbPas, app.Cf.DbSSLMode), &gormLogger)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		app.DbDao = db.NewDbDao(conn)
		if err := app.DbDao.Ping(ctx); err != nil {
			return fmt.Errorf("ping database: %w", err)
		}
		app.Store = app.DbDao
	}
	app.Logger.Info().Str("driver", app.Cf.StoreDriver).Msg("Finish setup store")
	return nil
}

// setUpRedis 未設定 REDIS_ADDR 時略過, job 鎖與限流改用單機版本
func (app *ApplicationContext) setUpRedis(ctx context.Context) error {
	if app.Cf.RedisAddr == "" {
		app.Logger.Info().Msg("REDIS_ADDR not set, skip redis")
		return nil
	}
	app.Logger.Info().Msg("Start setup redis client")
	client, err := redisclient.New(ctx, app.Cf.RedisAddr,
		redisclient.WithPassword(app.Cf.RedisPassword),
		redisclient.WithDB(app.Cf.RedisDB),
	)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	app.Redis = client
	app.Logger.Info().Msg("Finish setup redis client")
	return nil
}

func (app *ApplicationContext) setUpProducer(context.Context) error {
	brokers := app.Cf.KafkaBrokerList()
	if len(brokers) == 0 {
		app.Logger.Info().Msg("KAFKA_BROKERS not set, events are dropped")
		app.Producer = producer.Noop{}
		return nil
	}
	app.Logger.Info().Msg("Start setup event producer")
	p, err := producer.NewEventProducer(producer.Config{
		Brokers: brokers,
		Topic:   app.Cf.KafkaTopic,
	})
	if err != nil {
		return fmt.Errorf("create event producer: %w", err)
	}
	app.Producer = p
	app.Logger.Info().Str("topic", app.Cf.KafkaTopic).Msg("Finish setup event producer")
	return nil
}

func (app *ApplicationContext) setUpMetrics(context.Context) error {
	app.Metrics = metrics.New(nil)
	return nil
}

func (app *ApplicationContext) setUpServices(context.Context) error {
	app.Logger.Info().Msg("Start setup services")
	opts := []service.Option{
		service.WithPublisher(app.Producer),
		service.WithObserver(app.Metrics),
	}
	app.CustomerService = service.NewCustomerService(app.Store, opts...)
	app.ProductService = service.NewProductService(app.Store, opts...)
	app.OrderService = service.NewOrderService(app.Store, opts...)
	app.StockService = service.NewStockService(app.Store, opts...)
	app.QueryService = service.NewQueryService(app.Store)
	app.Logger.Info().Msg("Finish setup services")
	return nil
}

func (app *ApplicationContext) setUpGraph(context.Context) error {
	schema, err := graph.NewSchema(graph.Deps{
		Customers: app.CustomerService,
		Products:  app.ProductService,
		Orders:    app.OrderService,
		Stock:     app.StockService,
		Queries:   app.QueryService,
	})
	if err != nil {
		return fmt.Errorf("build graphql schema: %w", err)
	}
	app.Executor = graph.NewExecutor(schema)
	return nil
}

func (app *ApplicationContext) setUpRouter(context.Context) error {
	app.Logger.Info().Msg("Start setup router")
	limitCfg := ratelimit.Config{
		Capacity: app.Cf.RateLimitCapacity,
		RatePS:   app.Cf.RateLimitPerSecond,
	}
	var limiter ratelimit.Limiter
	if app.Redis != nil {
		limiter = ratelimit.NewRedisTokenBucket(app.Redis, "crm:ratelimit", limitCfg)
	} else {
		limiter = ratelimit.NewTokenBucket(limitCfg)
	}

	pingers := map[string]handler.Pinger{}
	if app.DbDao != nil {
		pingers["postgres"] = app.DbDao
	}
	if app.Redis != nil {
		pingers["redis"] = redisclient.Pinger{Client: app.Redis}
	}

	app.Router = router.SetupRouter(&router.Server{
		GraphQLHandler: handler.NewGraphQLHandler(app.Executor),
		HealthHandler:  handler.NewHealthHandler(pingers),
		Metrics:        app.Metrics,
		Limiter:        limiter,
	}, app.Logger)
	app.Logger.Info().Msg("Finish setup router")
	return nil
}

// setUpJobs 有設定 GRAPHQL_ENDPOINT 時經由 HTTP 呼叫, 否則直接使用本 process 的 schema
func (app *ApplicationContext) setUpJobs(context.Context) error {
	app.Logger.Info().Msg("Start setup jobs")
	var client job.GraphQLClient
	if app.Cf.GraphQLEndpoint != "" {
		client = job.NewHTTPClient(app.Cf.GraphQLEndpoint, 30*time.Second)
	} else {
		client = job.NewInProcessClient(app.Executor)
	}

	heartbeat := job.NewHeartbeat(client, job.NewSink(app.Cf.HeartbeatLogPath, job.WithLayout(constants.HeartbeatTimeFormat)))
	restock := job.NewRestock(client, job.NewSink(app.Cf.RestockLogPath))
	report := job.NewReport(client, job.NewSink(app.Cf.ReportLogPath))
	reminders := job.NewOrderReminders(client, job.NewSink(app.Cf.OrderRemindersLogPath), app.Cf.ReminderLookbackDays, time.Now)

	app.Jobs = map[string]job.Job{
		heartbeat.Name(): heartbeat,
		restock.Name():   restock,
		report.Name():    report,
		reminders.Name(): reminders,
	}

	runnerOpts := []job.RunnerOption{job.WithObserver(app.Metrics)}
	if app.Redis != nil {
		runnerOpts = append(runnerOpts, job.WithRunState(redis_repo.NewJobRunRepo(app.Redis), app.Cf.JobLockTTL))
	}
	app.Runner = job.NewRunner(runnerOpts...)

	app.Scheduler = job.NewScheduler(app.Runner, app.Logger.With().Str("component", "scheduler").Logger())
	schedules := map[string]string{
		job.NameHeartbeat:      app.Cf.HeartbeatSchedule,
		job.NameRestock:        app.Cf.RestockSchedule,
		job.NameReport:         app.Cf.ReportSchedule,
		job.NameOrderReminders: app.Cf.OrderRemindersSchedule,
	}
	for name, spec := range schedules {
		if spec == "" {
			app.Logger.Info().Str("job", name).Msg("no schedule, job disabled")
			continue
		}
		if err := app.Scheduler.Register(spec, app.Jobs[name]); err != nil {
			return err
		}
	}
	app.Logger.Info().Int("jobs", len(app.Jobs)).Msg("Finish setup jobs")
	return nil
}

// RunJob 執行一次指定的 job, 回傳是否成功
func (app *ApplicationContext) RunJob(ctx context.Context, name string) (bool, error) {
	j, ok := app.Jobs[name]
	if !ok {
		return false, fmt.Errorf("unknown job %q", name)
	}
	return app.Runner.Run(ctx, j), nil
}

func (app *ApplicationContext) Shutdown(ctx context.Context) error {
	app.Logger.Info().Msg("Start application shutdown")

	done := make(chan error, 1)
	go func() {
		defer close(done)

		if app.Scheduler != nil {
			app.Logger.Info().Msg("Stopping scheduler...")
			timeout := constants.DefaultShutdownTimeout
			if deadline, ok := ctx.Deadline(); ok {
				timeout = time.Until(deadline)
			}
			//有錯誤不結束流程
			if err := app.Scheduler.Stop(timeout); err != nil {
				app.Logger.Error().Err(err).Msg("scheduler shutdown error")
			}
		}

		if app.Producer != nil {
			app.Logger.Info().Msg("Closing event producer...")
			if err := app.Producer.Close(); err != nil {
				app.Logger.Error().Err(err).Msg("event producer close error")
			}
		}

		if app.Redis != nil {
			app.Logger.Info().Msg("Closing redis client...")
			if err := app.Redis.Close(); err != nil {
				app.Logger.Error().Err(err).Msg("redis close error")
			}
		}

		if app.DbDao != nil {
			app.Logger.Info().Msg("Closing database connection...")
			if err := app.DbDao.Close(); err != nil {
				app.Logger.Error().Err(err).Msg("database close error")
			}
		}

		app.Logger.Info().Msg("Application shutdown complete")
		done <- nil
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("shutdown timeout: %v", ctx.Err())
	}
}
