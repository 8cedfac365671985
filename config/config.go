package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the service configuration
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Redis         RedisConfig
	MessageBus    MessageBusConfig
	Elasticsearch ElasticsearchConfig
	NewRelic      NewRelicConfig
	Worker        WorkerConfig
}

// ServerConfig holds the HTTP server configuration
type ServerConfig struct {
	Port int
	Mode string // debug, release, test
}

// DatabaseConfig holds the database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	Debug    bool
	MaxConn  int
	MaxIdle  int
	MaxLife  time.Duration
}

// RedisConfig holds the Redis configuration
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// MessageBusConfig holds the Azure Service Bus configuration
type MessageBusConfig struct {
	Enabled          bool
	ConnectionString string
	Prefix           string
}

// ElasticsearchConfig holds the Elasticsearch configuration
type ElasticsearchConfig struct {
	Enabled     bool
	URLs        []string
	Username    string
	Password    string
	IndexPrefix string
}

// NewRelicConfig holds the New Relic configuration
type NewRelicConfig struct {
	AppName    string
	LicenseKey string
	Enabled    bool
}

// WorkerConfig holds the background worker configuration
type WorkerConfig struct {
	Enabled        bool
	AutoAssignTime string // HH:MM in UTC+8, daily auto-assignment run
	AdminID        string // actor recorded on worker-created assignments
}

// InitConfig initializes the configuration using Viper
func InitConfig(cfgFile string) error {
	setDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
		viper.AddConfigPath("/etc/lorry-service")
		viper.SetConfigName("config")
	}

	// LORRY_SERVER_PORT overrides server.port, and so on
	viper.SetEnvPrefix("LORRY")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			fmt.Println("No config file found, using defaults and environment variables")
		} else {
			return fmt.Errorf("error reading config file: %w", err)
		}
	} else {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}

	return nil
}

// setDefaults sets default values for configuration
func setDefaults() {
	// Server defaults
	viper.SetDefault("server.port", 8094)
	viper.SetDefault("server.mode", "debug")

	// Database defaults
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "lorry")
	viper.SetDefault("database.password", "lorry")
	viper.SetDefault("database.dbname", "lorry_service_db")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.debug", false)
	viper.SetDefault("database.maxconn", 20)
	viper.SetDefault("database.maxidle", 5)
	viper.SetDefault("database.maxlife", "30m")

	// Redis defaults
	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	// Message bus defaults - no default connection string for security
	viper.SetDefault("messagebus.enabled", false)
	viper.SetDefault("messagebus.prefix", "")

	// Elasticsearch defaults
	viper.SetDefault("elasticsearch.enabled", false)
	viper.SetDefault("elasticsearch.urls", []string{"http://localhost:9200"})
	viper.SetDefault("elasticsearch.indexprefix", "lorry")

	// New Relic defaults
	viper.SetDefault("newrelic.appname", "Lorry Service Local")
	viper.SetDefault("newrelic.enabled", false)

	// Worker defaults
	viper.SetDefault("worker.enabled", true)
	viper.SetDefault("worker.autoassigntime", "05:30")
	viper.SetDefault("worker.adminid", "system")
}

// Load loads the configuration
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: viper.GetInt("server.port"),
			Mode: viper.GetString("server.mode"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("database.host"),
			Port:     viper.GetInt("database.port"),
			User:     viper.GetString("database.user"),
			Password: viper.GetString("database.password"),
			DBName:   viper.GetString("database.dbname"),
			SSLMode:  viper.GetString("database.sslmode"),
			Debug:    viper.GetBool("database.debug"),
			MaxConn:  viper.GetInt("database.maxconn"),
			MaxIdle:  viper.GetInt("database.maxidle"),
			MaxLife:  viper.GetDuration("database.maxlife"),
		},
		Redis: RedisConfig{
			Enabled:  viper.GetBool("redis.enabled"),
			Host:     viper.GetString("redis.host"),
			Port:     viper.GetInt("redis.port"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
		},
		MessageBus: MessageBusConfig{
			Enabled:          viper.GetBool("messagebus.enabled"),
			ConnectionString: viper.GetString("messagebus.connectionstring"),
			Prefix:           viper.GetString("messagebus.prefix"),
		},
		Elasticsearch: ElasticsearchConfig{
			Enabled:     viper.GetBool("elasticsearch.enabled"),
			URLs:        viper.GetStringSlice("elasticsearch.urls"),
			Username:    viper.GetString("elasticsearch.username"),
			Password:    viper.GetString("elasticsearch.password"),
			IndexPrefix: viper.GetString("elasticsearch.indexprefix"),
		},
		NewRelic: NewRelicConfig{
			AppName:    viper.GetString("newrelic.appname"),
			LicenseKey: viper.GetString("newrelic.licensekey"),
			Enabled:    viper.GetBool("newrelic.enabled"),
		},
		Worker: WorkerConfig{
			Enabled:        viper.GetBool("worker.enabled"),
			AutoAssignTime: viper.GetString("worker.autoassigntime"),
			AdminID:        viper.GetString("worker.adminid"),
		},
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", cfg.Server.Port)
	}
	if cfg.MessageBus.Enabled && cfg.MessageBus.ConnectionString == "" {
		return fmt.Errorf("messagebus.connectionstring is required when the message bus is enabled")
	}
	if cfg.Elasticsearch.Enabled && len(cfg.Elasticsearch.URLs) == 0 {
		return fmt.Errorf("elasticsearch.urls is required when Elasticsearch is enabled")
	}
	if _, err := time.Parse("15:04", cfg.Worker.AutoAssignTime); err != nil {
		return fmt.Errorf("invalid worker.autoassigntime %q: %w", cfg.Worker.AutoAssignTime, err)
	}
	return nil
}
