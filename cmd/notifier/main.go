package main

import (
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/zigopay/cargo-gateway/internal/config"
	"github.com/zigopay/cargo-gateway/internal/notifier"
	"github.com/zigopay/cargo-gateway/pkg/logger"
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

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	dispatcher, err := notifier.NewWebhookDispatcher(notifier.WebhookConfig{
		URL:     config.Get().NotifyWebhookURL,
		Timeout: config.Get().NotifyWebhookTimeout,
	})
	if err != nil {
		logger.Error("failed to create webhook dispatcher", "error", err)
		return
	}

	idempotencyService := notifier.NewIdempotencyService(redisAdap, notifier.DefaultIdempotencyConfig())

	service, err := notifier.NewNotifierService(redisAdap)
	if err != nil {
		logger.Error("failed to create the notifier", "error", err)
		return
	}
	service.RegisterProcessor(notifier.NewNotificationProcessor(dispatcher, idempotencyService))

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

	go func() {
		prom.ListenAndServer(":9100", "/metrics")
	}()

	go func() {
		err := service.Start()
		if err != nil {
			logger.Error("failed to start notifier", "error", err)
		}
	}()

	select {
	case <-c:
		service.Stop()
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
