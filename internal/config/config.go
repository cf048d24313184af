package config

import (
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/zigopay/cargo-gateway/pkg/logger"
)

const ConfigTagName = "env"
const ConfigDefaultTagName = "default"

var config *Config

// Config holds every setting the process reads. Only this struct may be
// used to carry configuration values; no component reads env, ini or any
// other config source directly. Gateway credentials in particular are
// injected here at startup, never resolved at call time.
type Config struct {
	AppEnv              string `env:"APP_ENV" default:"dev"`
	AppName             string `env:"APP_NAME" default:"cargo_gateway"`
	AppDebug            bool   `env:"APP_DEBUG" default:"1"`
	AppDebugMetricsAddr string `env:"APP_DEBUG_METRIC_ADDR"`
	AppDebugMetricsURI  string `env:"APP_DEBUG_METRIC_URI"`

	HttpListenAddr         string `env:"HTTP_LISTEN_ADDR" validation:"mustExists"`
	HttpServerReadTimeout  int    `env:"HTTP_SERVER_READ_TIMEOUT"`
	HttpServerWriteTimeout int    `env:"HTTP_SERVER_WRITE_TIMEOUT"`

	PostgresReadHost     string `env:"POSTGRES_READ_HOST"`
	PostgresReadPort     string `env:"POSTGRES_READ_PORT"`
	PostgresReadUser     string `env:"POSTGRES_READ_USER"`
	PostgresReadPassword string `env:"POSTGRES_READ_PASSWORD"`
	PostgresReadDatabase string `env:"POSTGRES_READ_DBNAME"`

	PostgresWriteHost     string `env:"POSTGRES_WRITE_HOST"`
	PostgresWritePort     string `env:"POSTGRES_WRITE_PORT"`
	PostgresWriteUser     string `env:"POSTGRES_WRITE_USER"`
	PostgresWritePassword string `env:"POSTGRES_WRITE_PASSWORD"`
	PostgresWriteDatabase string `env:"POSTGRES_WRITE_DBNAME"`

	RedisAddr               string `env:"REDIS_ADDR"`
	RedisUsername           string `env:"REDIS_USER"`
	RedisPassword           string `env:"REDIS_PASS"`
	RedisDatabase           int    `env:"REDIS_DATABASE"`
	RedisUniversalKeyPrefix string `env:"REDIS_UNIVERSAL_KEY_PREFIX"`

	PromNamespace string `env:"PROM_NAMESPACE"`

	LogLevel []string `env:"LOG_LEVEL"`

	// Invoice amount on arrival as a percentage of cargo value.
	InvoiceRatePercent int `env:"INVOICE_RATE_PERCENT" default:"30"`
	// Days until a freshly minted invoice falls due.
	InvoiceDueDays int `env:"INVOICE_DUE_DAYS" default:"7"`

	PaymentGatewayURL     string        `env:"PAYMENT_GATEWAY_URL"`
	PaymentGatewayAPIKey  string        `env:"PAYMENT_GATEWAY_API_KEY"`
	PaymentGatewayTimeout time.Duration `env:"PAYMENT_GATEWAY_TIMEOUT" default:"5s"`
	PaymentGatewayRetries int           `env:"PAYMENT_GATEWAY_RETRIES" default:"2"`

	NotifyQueueName              string        `env:"NOTIFY_QUEUE_NAME" default:"notifications"`
	NotifyQueueConsumerGroup     string        `env:"NOTIFY_QUEUE_CONSUMER_GROUP" default:"notifier"`
	NotifyQueueConsumerName      string        `env:"NOTIFY_QUEUE_CONSUMER_NAME"`
	NotifyQueueMaxRetries        int           `env:"NOTIFY_QUEUE_MAX_RETRIES" default:"3"`
	NotifyQueueVisibilityTimeout time.Duration `env:"NOTIFY_QUEUE_VISIBILITY_TIMEOUT" default:"30s"`
	NotifyQueuePollInterval      time.Duration `env:"NOTIFY_QUEUE_POLL_INTERVAL" default:"1s"`
	NotifyQueueBatchSize         int64         `env:"NOTIFY_QUEUE_BATCH_SIZE" default:"10"`
	NotifyQueueMaxLen            int64         `env:"NOTIFY_QUEUE_MAX_LEN"`
	NotifyQueueEnableDLQ         bool          `env:"NOTIFY_QUEUE_ENABLE_DLQ" default:"1"`

	NotifyWebhookURL     string        `env:"NOTIFY_WEBHOOK_URL"`
	NotifyWebhookTimeout time.Duration `env:"NOTIFY_WEBHOOK_TIMEOUT" default:"5s"`
}

func Load(path string) error {
	logger.Info("loading configs..", "path", path)
	c := &Config{}
	var err error
	if path != "" {
		logger.Info("trying to publish env from file", "path", path)
		err = godotenv.Load(path)
		if err != nil {
			return errors.New("failed to load configuration file " + path + " error: " + err.Error())
		}
	}

	_, err = env.UnmarshalFromEnviron(c)

	if err != nil {
		return errors.New("failed to map env variables to Configuration object " + " error: " + err.Error())
	}

	config = c
	return nil
}

func Get() *Config {
	if config == nil {
		logger.Panic("Config is not initialized")
	}
	return config
}
