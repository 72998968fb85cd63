package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
)

// EngineConfig holds the resource caps of §5 — the only knobs the engine
// consults on every query.
type EngineConfig struct {
	MaxHopUpper    int `validate:"required,min=1,max=5" yaml:"maxHopUpper"`
	MaxSetBatch    int `validate:"required,min=1" yaml:"maxSetBatch"`
	MaxDeleteBatch int `validate:"required,min=1" yaml:"maxDeleteBatch"`
	SearchPageCap  int `validate:"required,min=1" yaml:"searchPageCap"`
}

// ObservabilityConfig toggles the ambient metrics/tracing stack.
type ObservabilityConfig struct {
	EnableMetrics bool
	EnableTracing bool
	ServiceName   string `validate:"required"`
}

// LoggingConfig configures zap.
type LoggingConfig struct {
	Level string `validate:"required,oneof=debug info warn error"`
}

// GraphServiceConfig selects and configures the GraphService backend.
type GraphServiceConfig struct {
	Backend           string `validate:"required,oneof=memory dynamodb"`
	DynamoDBTable     string
	KeywordIndexName  string
	RequestTimeoutMS  int `validate:"min=0"`
	EventBusName      string
}

// Config holds all application configuration.
type Config struct {
	ServerAddress string
	Environment   string
	AWSRegion     string

	Engine        EngineConfig
	Observability ObservabilityConfig
	Logging       LoggingConfig
	GraphService  GraphServiceConfig

	// ConfigPath, when set, is watched for hot-reload of the Engine group
	// (infrastructure/config/dynamic.go + watcher.go).
	ConfigPath string
}

var validate = validator.New()

// LoadConfig loads configuration from environment variables.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", ":8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),
		AWSRegion:     getEnv("AWS_REGION", "us-west-2"),

		Engine: EngineConfig{
			MaxHopUpper:    getEnvInt("BQL_MAX_HOP_UPPER", 5),
			MaxSetBatch:    getEnvInt("BQL_MAX_SET_BATCH", 10),
			MaxDeleteBatch: getEnvInt("BQL_MAX_DELETE_BATCH", 5),
			SearchPageCap:  getEnvInt("BQL_SEARCH_PAGE_CAP", 50),
		},
		Observability: ObservabilityConfig{
			EnableMetrics: getEnvBool("ENABLE_METRICS", false),
			EnableTracing: getEnvBool("ENABLE_TRACING", false),
			ServiceName:   getEnv("SERVICE_NAME", "bql-engine"),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		GraphService: GraphServiceConfig{
			Backend:          getEnv("GRAPH_SERVICE_BACKEND", "memory"),
			DynamoDBTable:    getEnv("TABLE_NAME", getEnv("DYNAMODB_TABLE", "bql-graph")),
			KeywordIndexName: getEnv("INDEX_NAME", "KeywordIndex"),
			RequestTimeoutMS: getEnvInt("GRAPH_SERVICE_TIMEOUT_MS", 3000),
			EventBusName:     getEnv("EVENT_BUS_NAME", ""),
		},
		ConfigPath: getEnv("BQL_ENGINE_CONFIG_PATH", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Load is an alias for LoadConfig for backwards compatibility.
func Load() (*Config, error) {
	return LoadConfig()
}

// Validate checks struct-tag constraints and a few cross-field invariants
// that validator/v10 tags alone cannot express.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.Engine.MaxHopUpper > 5 {
		return fmt.Errorf("engine.maxHopUpper %d exceeds the hard cap of 5", c.Engine.MaxHopUpper)
	}
	if c.GraphService.Backend == "dynamodb" && c.GraphService.DynamoDBTable == "" {
		return fmt.Errorf("graphService.dynamoDBTable is required when backend=dynamodb")
	}

	return nil
}

// IsDevelopment checks if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
