package main

import (
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/zigopay/cargo-gateway/internal/config"
	gateway "github.com/zigopay/cargo-gateway/internal/gateways"
	"github.com/zigopay/cargo-gateway/internal/handlers"
	"github.com/zigopay/cargo-gateway/internal/queue"
	"github.com/zigopay/cargo-gateway/internal/repository"
	"github.com/zigopay/cargo-gateway/internal/services"
	xhttp "github.com/zigopay/cargo-gateway/pkg/http"
	"github.com/zigopay/cargo-gateway/pkg/logger"
	"github.com/zigopay/cargo-gateway/pkg/pg"
	"github.com/zigopay/cargo-gateway/pkg/prom"
	"github.com/zigopay/cargo-gateway/pkg/redis"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {

	err := config.Load(argContainsEnvPath())
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return
	}

	// transport (tcp for now)
	s := xhttp.NewServer(xhttp.DefaultServerOption)
	s.Server.ReadBufferSize = 1024 * 16
	s.Server.WriteBufferSize = 1024 * 16
	s.Use(xhttp.CompressMiddleware(6))
	s.Use(xhttp.TimeoutMiddleware(time.Second * 5))
	s.Use(xhttp.RequestLoggerMiddleware)
	s.Use(xhttp.RecoverMiddleware)
	s.Router = xhttp.CreateDefaultRouter()

	readConf := pg.Config{
		User:     config.Get().PostgresReadUser,
		Host:     config.Get().PostgresReadHost,
		Port:     config.Get().PostgresReadPort,
		Password: config.Get().PostgresReadPassword,
		Database: config.Get().PostgresReadDatabase,
	}
	writeConf := pg.Config{
		User:     config.Get().PostgresWriteUser,
		Host:     config.Get().PostgresWriteHost,
		Port:     config.Get().PostgresWritePort,
		Password: config.Get().PostgresWritePassword,
		Database: config.Get().PostgresWriteDatabase,
	}

	pgDebug := false
	if config.Get().AppEnv == "dev" {
		pgDebug = true
	}
	db, err := pg.CreateReadWrite(readConf, writeConf, pgDebug)
	if err != nil {
		logger.Error("failed connecting to pg", "error", err)
		return
	}

	redisAdap, err := redis.NewRedisAdapter("default", config.Get().RedisUniversalKeyPrefix, &redis.Options{
		Addrs:      []string{config.Get().RedisAddr},
		ClientName: "default",
		DB:         config.Get().RedisDatabase,
		Username:   config.Get().RedisUsername,
		Password:   config.Get().RedisPassword,
	})
	if err != nil {
		logger.Error("failed connecting to redis", "error", err)
		return
	}

	notifyQ, err := queue.NewQueue(redisAdap, queue.QueueConfig{
		Name:              config.Get().NotifyQueueName,
		ConsumerGroup:     config.Get().NotifyQueueConsumerGroup,
		ConsumerName:      config.Get().NotifyQueueConsumerName,
		MaxRetries:        config.Get().NotifyQueueMaxRetries,
		VisibilityTimeout: config.Get().NotifyQueueVisibilityTimeout,
		PollInterval:      config.Get().NotifyQueuePollInterval,
		BatchSize:         config.Get().NotifyQueueBatchSize,
		MaxLen:            config.Get().NotifyQueueMaxLen,
		EnableDLQ:         config.Get().NotifyQueueEnableDLQ,
	})
	if err != nil {
		logger.Error("failed creating notification queue", "error", err)
		return
	}
	publisher := services.NewQueuePublisher(notifyQ)

	gw, err := gateway.NewClient(&gateway.Config{
		URL:        config.Get().PaymentGatewayURL,
		APIKey:     config.Get().PaymentGatewayAPIKey,
		Timeout:    config.Get().PaymentGatewayTimeout,
		MaxRetries: config.Get().PaymentGatewayRetries,
		MaxConns:   100,
	})
	if err != nil {
		logger.Error("failed to create payment gateway client", "error", err)
		return
	}

	cargoRepo := repository.NewCargoRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	releaseRepo := repository.NewReleaseOrderRepository(db)
	walletRepo := repository.NewWalletRepository(db)

	// services
	invoiceService := services.NewInvoiceService(invoiceRepo, cargoRepo, publisher,
		int64(config.Get().InvoiceRatePercent), config.Get().InvoiceDueDays)
	autoPayService := services.NewAutoPayService(walletRepo, invoiceRepo, paymentRepo, releaseRepo, publisher)
	cargoService := services.NewCargoService(cargoRepo, customerRepo, invoiceService, autoPayService)
	paymentService := services.NewPaymentService(paymentRepo, invoiceRepo, releaseRepo, cargoRepo, publisher)
	walletService := services.NewWalletService(walletRepo, invoiceRepo, paymentRepo, releaseRepo, cargoRepo,
		gw, publisher, config.Get().PaymentGatewayTimeout)
	healthService := services.NewHealthService(db)

	// v1 handlers
	cargoHandler := handlers.NewCargoHandler(cargoService)
	invoiceHandler := handlers.NewInvoiceHandler(invoiceService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)
	walletHandler := handlers.NewWalletHandler(walletService)
	healthHandler := handlers.NewHealthHandler(healthService)

	g := s.Router.Group("/api/v1")
	handlers.RegisterCargoRoutes(g, cargoHandler)
	handlers.RegisterInvoiceRoutes(g, invoiceHandler)
	handlers.RegisterPaymentRoutes(g, paymentHandler)
	handlers.RegisterWalletRoutes(g, walletHandler)
	handlers.RegisterHealthRoutes(g, healthHandler)

	var hostname string
	hostname, err = os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	err = prom.Create(hostname, config.Get().AppEnv, config.Get().PromNamespace)
	if err != nil {
		logger.Error("failed to create prometheus metrics", "error", err)
		return
	}

	if config.Get().AppDebugMetricsAddr != "" {
		go func() {
			prom.ListenAndServer(config.Get().AppDebugMetricsAddr, config.Get().AppDebugMetricsURI)
		}()
	}

	// Create new server
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		var err = s.ListenAndServe(config.Get().HttpListenAddr)
		if err != nil {
			logger.Error("error in running http-server", "error", err)
		}
	}()

	select {
	case <-c:
		s.Shutdown()
	}
}

func argContainsEnvPath() string {
	for _, v := range os.Args {
		if strings.Contains(v, "--env=") {
			s := strings.Split(v, "=")
			if _, err := os.Open(s[1]); err != nil {
				logger.Error("failed to open the passed env file, got error" + err.Error())
				return ""
			}
			return s[1]
		}
	}
	return ""
}
