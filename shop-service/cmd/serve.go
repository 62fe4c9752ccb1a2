package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/mcadelacruz/braceurself/pkg/logger"
	"github.com/mcadelacruz/braceurself/shop-service/internal/analytics"
	"github.com/mcadelacruz/braceurself/shop-service/internal/cache"
	"github.com/mcadelacruz/braceurself/shop-service/internal/config"
	"github.com/mcadelacruz/braceurself/shop-service/internal/consumer"
	"github.com/mcadelacruz/braceurself/shop-service/internal/domain"
	h "github.com/mcadelacruz/braceurself/shop-service/internal/http"
	"github.com/mcadelacruz/braceurself/shop-service/internal/publisher"
	"github.com/mcadelacruz/braceurself/shop-service/internal/repository"
	"github.com/mcadelacruz/braceurself/shop-service/internal/service"
	"github.com/mcadelacruz/braceurself/shop-service/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and background workers",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return serve(cmd.Context(), cfg)
	},
}

func loadConfig() (*config.Config, error) {
	var paths []string
	if configDir != "" {
		paths = append(paths, configDir)
	}
	return config.Load(paths...)
}

func credentials(cfg *config.Config) *repository.Credentials {
	return &repository.Credentials{
		Host:              cfg.DB.Host,
		Port:              cfg.DB.Port,
		User:              cfg.DB.User,
		Password:          cfg.DB.Password,
		DBName:            cfg.DB.Name,
		SSLMode:           cfg.DB.SSLMode,
		MigrationsDirPath: cfg.DB.MigrationsPath,
	}
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	if cfg.DB.Backend == "memory" {
		return store.NewMemoryStore(), nil
	}
	creds := credentials(cfg)
	repo, err := repository.NewRepository(ctx, creds)
	if err != nil {
		return nil, err
	}
	if err := repo.RunMigrations(creds); err != nil {
		repo.Close()
		return nil, err
	}
	return repo, nil
}

// openMessageLog returns the configured message log and a func that releases
// it. The store-backed log is closed with the store.
func openMessageLog(ctx context.Context, cfg *config.Config, st store.Store) (store.MessageLog, func(), error) {
	if cfg.Messages.Backend != "mongo" {
		return st, func() {}, nil
	}
	db, err := repository.ConnectMongoDB(ctx, repository.MongoOptions{
		URI:                    cfg.Mongo.URI,
		Database:               cfg.Mongo.Database,
		MaxPoolSize:            cfg.Mongo.MaxPoolSize,
		MinPoolSize:            cfg.Mongo.MinPoolSize,
		ConnectTimeout:         cfg.Mongo.ConnectTimeout,
		ServerSelectionTimeout: cfg.Mongo.ServerSelectionTimeout,
	})
	if err != nil {
		return nil, nil, err
	}
	log := repository.NewMongoMessageLog(db)
	closeLog := func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := log.Close(ctx); err != nil {
			slog.Warn("message log close failed", "error", err)
		}
	}
	if err := log.CreateIndexes(ctx); err != nil {
		closeLog()
		return nil, nil, err
	}
	return log, closeLog, nil
}

func serve(ctx context.Context, cfg *config.Config) error {
	log, err := logger.New(os.Stdout, logger.Options{
		Level:   cfg.Log.Level,
		Format:  logger.Format(cfg.Log.Format),
		Service: "shop-service",
	})
	if err != nil {
		return err
	}
	slog.SetDefault(log)

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	policy, err := domain.ParseTransitionPolicy(cfg.Orders.StatusPolicy)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	messageLog, closeMessageLog, err := openMessageLog(ctx, cfg, st)
	if err != nil {
		return fmt.Errorf("open message log: %w", err)
	}
	defer closeMessageLog()

	sellerID := cfg.Seller.UserID
	aggregator := analytics.NewAggregator(st, sellerID, loc)

	var (
		dashboard h.Dashboard = aggregator
		cached    *cache.CachedDashboard
		opts      = []service.Option{service.WithLogger(log)}
	)
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		cached = cache.NewCachedDashboard(aggregator, cache.NewRedisCache(client, cfg.Redis.TTL), log)
		dashboard = cached
		opts = append(opts, service.WithNotifier(cached))
	}

	sellers := service.NewSellerService(st, opts...)
	if _, err := sellers.EnsureSeller(ctx, sellerID); err != nil {
		return err
	}

	catalog := service.NewCatalogService(st, sellerID, opts...)
	orders := service.NewOrderService(st, service.OrderConfig{
		SellerID:        sellerID,
		StatusPolicy:    policy,
		FreezeCompleted: cfg.Orders.FreezeCompleted,
	}, opts...)
	designs := service.NewDesignService(st, opts...)
	messages := service.NewMessageService(st, messageLog, sellerID,
		append(opts, service.WithPageSize(cfg.Messages.PageSize))...)

	var workers sync.WaitGroup
	if len(cfg.Kafka.Brokers) > 0 {
		poller := publisher.NewOutboxPoller(st, publisher.NewWriter(cfg.Kafka.Topic, cfg.Kafka.Brokers...), log)
		defer poller.Close()
		workers.Add(1)
		go func() {
			defer workers.Done()
			poller.Run(ctx)
		}()

		if cached != nil {
			invalidator := consumer.NewDashboardInvalidator(
				consumer.NewReader(cfg.Kafka.Topic, cfg.Kafka.GroupID, cfg.Kafka.Brokers...), cached, log)
			defer invalidator.Close()
			workers.Add(1)
			go func() {
				defer workers.Done()
				invalidator.Run(ctx)
			}()
		}
	}

	timeout := cfg.HTTP.RequestTimeout
	router := h.NewRouter(h.Handlers{
		Products:  h.NewProductHandler(catalog, orders, timeout),
		Orders:    h.NewOrdersHandler(orders, designs, timeout),
		Messages:  h.NewMessageHandler(messages, timeout),
		Designs:   h.NewDesignHandler(designs, orders, timeout),
		Dashboard: h.NewDashboardHandler(dashboard, timeout),
	}, h.RouterConfig{
		SellerUserID:       sellerID,
		RequestTimeout:     timeout,
		MaxRequestBodySize: cfg.HTTP.MaxRequestBodySize,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTP.Port,
		Handler:      otelhttp.NewHandler(router, "shop-service"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: timeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("shop service starting", slog.String("addr", srv.Addr), slog.Int64("seller_id", sellerID))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			stop()
			workers.Wait()
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	workers.Wait()

	log.Info("server exited")
	return nil
}
