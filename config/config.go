/*
Copyright 2025 Mosolo Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package config

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"strings"
	"sync/atomic"

	"github.com/kelseyhightower/envconfig"

	"github.com/sirupsen/logrus"
)

const (
	DEFAULT_PORT                = "5001"
	DEFAULT_SETTLEMENT_CURRENCY = "CDF"
	DEFAULT_REQUEST_EXPIRY_HRS  = 72
	DEFAULT_PAGE_SIZE           = 50
)

var ConfigStore atomic.Value

type ServerConfig struct {
	SSL       bool   `json:"ssl" envconfig:"MOSOLO_SERVER_SSL"`
	Secure    bool   `json:"secure" envconfig:"MOSOLO_SERVER_SECURE"`
	SecretKey string `json:"secret_key" envconfig:"MOSOLO_SERVER_SECRET_KEY"`
	JWTSecret string `json:"jwt_secret" envconfig:"MOSOLO_SERVER_JWT_SECRET"`
	Domain    string `json:"domain" envconfig:"MOSOLO_SERVER_SSL_DOMAIN"`
	Email     string `json:"ssl_email" envconfig:"MOSOLO_SERVER_SSL_EMAIL"`
	Port      string `json:"port" envconfig:"MOSOLO_SERVER_PORT"`
}

type DataSourceConfig struct {
	Dns string `json:"dns" envconfig:"MOSOLO_DATA_SOURCE_DNS"`
}

type RedisConfig struct {
	Dns           string `json:"dns" envconfig:"MOSOLO_REDIS_DNS"`
	SkipTLSVerify bool   `json:"skip_tls_verify" envconfig:"MOSOLO_REDIS_SKIP_TLS_VERIFY"`
}

type ExchangeConfig struct {
	FeedURL   string `json:"feed_url" envconfig:"MOSOLO_EXCHANGE_FEED_URL"`
	TimeoutMS int    `json:"timeout_ms" envconfig:"MOSOLO_EXCHANGE_TIMEOUT_MS"`
}

type TransferConfig struct {
	SettlementCurrency string `json:"settlement_currency" envconfig:"MOSOLO_SETTLEMENT_CURRENCY"`
}

type RequestsConfig struct {
	ExpiryHours int `json:"expiry_hours" envconfig:"MOSOLO_REQUEST_EXPIRY_HOURS"`
	PageSize    int `json:"page_size" envconfig:"MOSOLO_REQUEST_PAGE_SIZE"`
}

type QueueConfig struct {
	NotificationQueue string `json:"notification_queue" envconfig:"MOSOLO_QUEUE_NOTIFICATION"`
	NumberOfQueues    int    `json:"number_of_queues" envconfig:"MOSOLO_QUEUE_NUMBER_OF_QUEUES"`
}

type RateLimitConfig struct {
	RequestsPerSecond  *float64 `json:"requests_per_second" envconfig:"MOSOLO_RATE_LIMIT_RPS"`
	Burst              *int     `json:"burst" envconfig:"MOSOLO_RATE_LIMIT_BURST"`
	CleanupIntervalSec *int     `json:"cleanup_interval_sec" envconfig:"MOSOLO_RATE_LIMIT_CLEANUP_INTERVAL_SEC"`
}

type SlackWebhook struct {
	WebhookUrl string `json:"webhook_url"`
}

type Notification struct {
	Slack SlackWebhook `json:"slack"`
}

type Configuration struct {
	ProjectName     string           `json:"project_name" envconfig:"MOSOLO_PROJECT_NAME"`
	EnableTelemetry bool             `json:"enable_telemetry" envconfig:"MOSOLO_ENABLE_TELEMETRY"`
	Server          ServerConfig     `json:"server"`
	DataSource      DataSourceConfig `json:"data_source"`
	Redis           RedisConfig      `json:"redis"`
	Exchange        ExchangeConfig   `json:"exchange"`
	Transfer        TransferConfig   `json:"transfer"`
	Requests        RequestsConfig   `json:"requests"`
	Queue           QueueConfig      `json:"queue"`
	Notification    Notification     `json:"notification"`
	RateLimit       RateLimitConfig  `json:"rate_limit"`
}

func loadConfigFromFile(file string) error {
	var cnf Configuration
	_, err := os.Stat(file)
	if err == nil {
		f, err := os.Open(file)
		if err != nil {
			return err
		}
		err = json.NewDecoder(f).Decode(&cnf)
		if err != nil {
			return err
		}

	} else if errors.Is(err, os.ErrNotExist) {
		log.Println("config json not passed, will use env variables")
	}

	// override config from environment variables
	err = envconfig.Process("mosolo", &cnf)
	if err != nil {
		return err
	}

	err = cnf.validateAndAddDefaults()
	if err != nil {
		return err
	}

	ConfigStore.Store(&cnf)
	return err
}

func InitConfig(configFile string) error {
	logger()
	return loadConfigFromFile(configFile)
}

func Fetch() (*Configuration, error) {
	config := ConfigStore.Load()
	c, ok := config.(*Configuration)
	if !ok {
		return nil, errors.New("config not loaded from file. Create a json file called mosolo.json with your config ❌")
	}
	return c, nil
}

func (cnf *Configuration) validateAndAddDefaults() error {
	if cnf.ProjectName == "" {
		log.Println("Warning: Project name is empty. Setting a default name.")
		cnf.ProjectName = "Mosolo Wallet"
	}

	if cnf.DataSource.Dns == "" {
		log.Println("Error: Data source DNS is empty. It's a required field.")
		return errors.New("data source DNS is required")
	}

	if cnf.Redis.Dns == "" {
		log.Println("Error: Redis DNS is empty. It's a required field.")
		return errors.New("redis DNS is required")
	}

	cnf.ProjectName = strings.TrimSpace(cnf.ProjectName)
	cnf.Server.Port = strings.TrimSpace(cnf.Server.Port)
	cnf.DataSource.Dns = strings.TrimSpace(cnf.DataSource.Dns)
	cnf.Redis.Dns = strings.TrimSpace(cnf.Redis.Dns)

	if cnf.Server.Port == "" {
		cnf.Server.Port = DEFAULT_PORT
		log.Printf("Warning: Port not specified in config. Setting default port: %s", DEFAULT_PORT)
	}

	if cnf.Transfer.SettlementCurrency == "" {
		cnf.Transfer.SettlementCurrency = DEFAULT_SETTLEMENT_CURRENCY
	}

	if cnf.Requests.ExpiryHours <= 0 {
		cnf.Requests.ExpiryHours = DEFAULT_REQUEST_EXPIRY_HRS
	}

	if cnf.Requests.PageSize <= 0 {
		cnf.Requests.PageSize = DEFAULT_PAGE_SIZE
	}

	if cnf.Queue.NotificationQueue == "" {
		cnf.Queue.NotificationQueue = "new:notification"
	}

	if cnf.Queue.NumberOfQueues <= 0 {
		cnf.Queue.NumberOfQueues = 4
	}

	if cnf.Exchange.TimeoutMS <= 0 {
		cnf.Exchange.TimeoutMS = 3000
	}

	// Rate limiting is disabled by default (when both RPS and Burst are nil)
	if cnf.RateLimit.RequestsPerSecond != nil && cnf.RateLimit.Burst == nil {
		defaultBurst := 2 * int(*cnf.RateLimit.RequestsPerSecond)
		cnf.RateLimit.Burst = &defaultBurst
		log.Printf("Warning: Rate limit burst not specified. Setting default value: %d", defaultBurst)
	}
	if cnf.RateLimit.RequestsPerSecond == nil && cnf.RateLimit.Burst != nil {
		defaultRPS := float64(*cnf.RateLimit.Burst) / 2
		cnf.RateLimit.RequestsPerSecond = &defaultRPS
		log.Printf("Warning: Rate limit RPS not specified. Setting default value: %.2f", defaultRPS)
	}
	if cnf.RateLimit.CleanupIntervalSec == nil {
		defaultCleanup := 10800 // 3 hours in seconds
		cnf.RateLimit.CleanupIntervalSec = &defaultCleanup
	}

	return nil
}

// MockConfig sets a mock configuration for testing purposes.
func MockConfig(mockConfig *Configuration) {
	ConfigStore.Store(mockConfig)
}

func logger() {
	logger := logrus.New()
	log.SetOutput(logger.Writer())
}
