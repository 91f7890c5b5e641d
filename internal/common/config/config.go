package config

import (
	"fmt"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Generation    GenerationConfig        `mapstructure:"generation"`
	Analytics     AnalyticsConfig         `mapstructure:"analytics"`
	Database      DatabaseConfig          `mapstructure:"database"`
	AWS           AWSConfig               `mapstructure:"aws"`
	Observability ObservabilityConfig     `mapstructure:"observability"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	Logging       LoggingConfig           `mapstructure:"logging"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	Plaintext      bool   `mapstructure:"plaintext"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
	// BPMN files deployed at startup. Empty skips deployment.
	DeployResources []string `mapstructure:"deploy_resources"`
}

// GenerationConfig points the stages at the enhancement/synthesis/refinement backend.
type GenerationConfig struct {
	BaseURL            string `mapstructure:"base_url"`
	APIKey             string `mapstructure:"api_key"`
	EnhancementTimeout int    `mapstructure:"enhancement_timeout"` // milliseconds
	SynthesisTimeout   int    `mapstructure:"synthesis_timeout"`   // milliseconds
	RefinementTimeout  int    `mapstructure:"refinement_timeout"`  // milliseconds
}

func (g GenerationConfig) Validate() error {
	return validation.ValidateStruct(&g,
		validation.Field(&g.BaseURL, validation.Required, is.URL),
		validation.Field(&g.EnhancementTimeout, validation.Required, validation.Min(1)),
		validation.Field(&g.SynthesisTimeout, validation.Required, validation.Min(1)),
		validation.Field(&g.RefinementTimeout, validation.Required, validation.Min(1)),
	)
}

type AnalyticsConfig struct {
	Enabled         bool        `mapstructure:"enabled"`
	QueueSize       int         `mapstructure:"queue_size"`
	Workers         int         `mapstructure:"workers"`
	DeliveryTimeout int         `mapstructure:"delivery_timeout"` // milliseconds
	Sinks           SinksConfig `mapstructure:"sinks"`
}

type SinksConfig struct {
	Log           LogSinkConfig           `mapstructure:"log"`
	Redis         RedisSinkConfig         `mapstructure:"redis"`
	Postgres      PostgresSinkConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchSinkConfig `mapstructure:"elasticsearch"`
	SNS           SNSSinkConfig           `mapstructure:"sns"`
	SES           SESSinkConfig           `mapstructure:"ses"`
}

type LogSinkConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type RedisSinkConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Stream  string `mapstructure:"stream"`
	MaxLen  int64  `mapstructure:"max_len"`
}

type PostgresSinkConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	Table        string `mapstructure:"table"`
	CreateSchema bool   `mapstructure:"create_schema"`
}

type ElasticsearchSinkConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Index   string `mapstructure:"index"`
}

type SNSSinkConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	TopicARN string `mapstructure:"topic_arn"`
}

// SESSinkConfig drives the operator alert emails sent on failure events.
type SESSinkConfig struct {
	Enabled    bool     `mapstructure:"enabled"`
	FromEmail  string   `mapstructure:"from_email"`
	Recipients []string `mapstructure:"recipients"`
}

var tableNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*(\.[a-zA-Z_][a-zA-Z0-9_]*)?$`)

func (a AnalyticsConfig) Validate() error {
	if !a.Enabled {
		return nil
	}
	s := a.Sinks
	if err := validation.ValidateStruct(&a,
		validation.Field(&a.QueueSize, validation.Min(1)),
		validation.Field(&a.Workers, validation.Min(1)),
	); err != nil {
		return err
	}
	if err := validation.ValidateStruct(&s.Redis,
		validation.Field(&s.Redis.Stream, validation.When(s.Redis.Enabled, validation.Required)),
	); err != nil {
		return fmt.Errorf("sinks.redis: %w", err)
	}
	if err := validation.ValidateStruct(&s.Postgres,
		validation.Field(&s.Postgres.Table, validation.When(s.Postgres.Enabled,
			validation.Required, validation.Match(tableNamePattern))),
	); err != nil {
		return fmt.Errorf("sinks.postgres: %w", err)
	}
	if err := validation.ValidateStruct(&s.Elasticsearch,
		validation.Field(&s.Elasticsearch.Index, validation.When(s.Elasticsearch.Enabled, validation.Required)),
	); err != nil {
		return fmt.Errorf("sinks.elasticsearch: %w", err)
	}
	if err := validation.ValidateStruct(&s.SNS,
		validation.Field(&s.SNS.TopicARN, validation.When(s.SNS.Enabled, validation.Required)),
	); err != nil {
		return fmt.Errorf("sinks.sns: %w", err)
	}
	if err := validation.ValidateStruct(&s.SES,
		validation.Field(&s.SES.FromEmail, validation.When(s.SES.Enabled, validation.Required, is.EmailFormat)),
		validation.Field(&s.SES.Recipients, validation.When(s.SES.Enabled, validation.Required)),
	); err != nil {
		return fmt.Errorf("sinks.ses: %w", err)
	}
	return nil
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	URL       string   `mapstructure:"url"`
}

// GetAddresses prefers the explicit address list over the single URL.
func (e ElasticsearchConfig) GetAddresses() []string {
	if len(e.Addresses) > 0 {
		return e.Addresses
	}
	if e.URL != "" {
		return []string{e.URL}
	}
	return nil
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type AWSConfig struct {
	Region string `mapstructure:"region"`
}

type ObservabilityConfig struct {
	ServiceName     string `mapstructure:"service_name"`
	HTTPPort        int    `mapstructure:"http_port"`
	TracingEndpoint string `mapstructure:"tracing_endpoint"`
}

type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"` // milliseconds
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
