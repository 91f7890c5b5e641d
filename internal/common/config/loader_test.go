package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const minimalConfig = `
camunda:
  broker_address: "localhost:26500"
generation:
  base_url: "https://generation.example.com/api"
`

// ==========================
// LoadFromFile
// ==========================

func TestLoadFromFile_AppliesDefaults(t *testing.T) {
	cfg, err := LoadFromFile(writeConfigFile(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, "room-redesign-workers", cfg.App.Name)
	assert.Equal(t, 10, cfg.Camunda.MaxJobsActive)
	assert.Equal(t, 20000, cfg.Generation.EnhancementTimeout)
	assert.Equal(t, 90000, cfg.Generation.SynthesisTimeout)
	assert.Equal(t, 90000, cfg.Generation.RefinementTimeout)
	assert.Equal(t, 1024, cfg.Analytics.QueueSize)
	assert.Equal(t, "analytics:generation-events", cfg.Analytics.Sinks.Redis.Stream)
	assert.Equal(t, "generation_events", cfg.Analytics.Sinks.Postgres.Table)
	assert.Equal(t, "generation-events", cfg.Analytics.Sinks.Elasticsearch.Index)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "room-redesign-workers", cfg.Observability.ServiceName)
	assert.Equal(t, 8080, cfg.Observability.HTTPPort)
}

func TestLoadFromFile_ExpandsPlaceholders(t *testing.T) {
	t.Setenv("TEST_GENERATION_HOST", "https://gen.internal.example.com")

	cfg, err := LoadFromFile(writeConfigFile(t, `
camunda:
  broker_address: "localhost:26500"
generation:
  base_url: "${TEST_GENERATION_HOST}/api"
  enhancement_timeout: 1500
workers:
  generate-room-design:
    enabled: true
  refine-room-design:
    enabled: false
    max_jobs_active: 2
`))
	require.NoError(t, err)

	assert.Equal(t, "https://gen.internal.example.com/api", cfg.Generation.BaseURL)
	assert.Equal(t, 1500, cfg.Generation.EnhancementTimeout)

	gen := GetWorkerConfig(cfg, "generate-room-design")
	assert.True(t, gen.Enabled)
	assert.Equal(t, cfg.Camunda.MaxJobsActive, gen.MaxJobsActive)
	assert.Equal(t, cfg.Camunda.Timeout, gen.Timeout)

	refine := GetWorkerConfig(cfg, "refine-room-design")
	assert.False(t, refine.Enabled)
	assert.Equal(t, 2, refine.MaxJobsActive)

	assert.False(t, IsWorkerEnabled(cfg, "refine-room-design"))
	assert.True(t, IsWorkerEnabled(cfg, "validate-generation-request"))
}

func TestLoadFromFile_EnvOverridesSecrets(t *testing.T) {
	t.Setenv("GENERATION_API_KEY", "secret-key")
	t.Setenv("DB_PASSWORD", "db-secret")

	cfg, err := LoadFromFile(writeConfigFile(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, "secret-key", cfg.Generation.APIKey)
	assert.Equal(t, "db-secret", cfg.Database.Postgres.Password)
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

// ==========================
// Validation
// ==========================

func TestLoadFromFile_ValidationErrors(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		errContains string
	}{
		{
			name: "missing broker address",
			content: `
generation:
  base_url: "https://generation.example.com"
`,
			errContains: "camunda.broker_address",
		},
		{
			name: "missing generation base url",
			content: `
camunda:
  broker_address: "localhost:26500"
`,
			errContains: "generation",
		},
		{
			name: "invalid generation base url",
			content: `
camunda:
  broker_address: "localhost:26500"
generation:
  base_url: "not a url"
`,
			errContains: "BaseURL",
		},
		{
			name: "postgres sink without database",
			content: minimalConfig + `
analytics:
  enabled: true
  sinks:
    postgres:
      enabled: true
`,
			errContains: "postgres analytics sink",
		},
		{
			name: "postgres sink with unsafe table name",
			content: minimalConfig + `
analytics:
  enabled: true
  sinks:
    postgres:
      enabled: true
      table: "events; DROP TABLE users"
database:
  postgres:
    host: localhost
    database: rooms
`,
			errContains: "sinks.postgres",
		},
		{
			name: "ses sink without recipients",
			content: minimalConfig + `
analytics:
  enabled: true
  sinks:
    ses:
      enabled: true
      from_email: "alerts@example.com"
`,
			errContains: "sinks.ses",
		},
		{
			name: "redis sink without address",
			content: minimalConfig + `
analytics:
  enabled: true
  sinks:
    redis:
      enabled: true
`,
			errContains: "database.redis.address",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfigFile(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestAnalyticsConfig_DisabledSkipsSinkChecks(t *testing.T) {
	cfg := AnalyticsConfig{
		Enabled: false,
		Sinks: SinksConfig{
			SNS: SNSSinkConfig{Enabled: true},
		},
	}
	assert.NoError(t, cfg.Validate())
}

func TestElasticsearchConfig_GetAddresses(t *testing.T) {
	assert.Equal(t, []string{"http://a:9200", "http://b:9200"},
		ElasticsearchConfig{Addresses: []string{"http://a:9200", "http://b:9200"}, URL: "http://c:9200"}.GetAddresses())
	assert.Equal(t, []string{"http://c:9200"}, ElasticsearchConfig{URL: "http://c:9200"}.GetAddresses())
	assert.Nil(t, ElasticsearchConfig{}.GetAddresses())
}

func TestGetDuration(t *testing.T) {
	assert.Equal(t, 1500*time.Millisecond, GetDuration(1500))
	assert.Equal(t, time.Duration(0), GetDuration(0))
}

func TestPostgresConfig_GetDSN(t *testing.T) {
	dsn := PostgresConfig{
		Host: "db", Port: 5432, User: "rooms", Password: "pw", Database: "designs", SSLMode: "disable",
	}.GetDSN()
	assert.Equal(t, "host=db port=5432 user=rooms password=pw dbname=designs sslmode=disable", dsn)
}

func TestLoadFromFile_UnsetPlaceholdersAreEmpty(t *testing.T) {
	t.Setenv("GENERATION_BASE_URL", "https://gen.example.com")

	cfg, err := LoadFromFile(writeConfigFile(t, `
camunda:
  broker_address: "localhost:26500"
generation:
  base_url: "${GENERATION_BASE_URL}"
observability:
  tracing_endpoint: "${ROOM_REDESIGN_UNSET_TRACING_ENDPOINT}"
`))
	require.NoError(t, err)

	assert.Equal(t, "https://gen.example.com", cfg.Generation.BaseURL)
	assert.Empty(t, cfg.Observability.TracingEndpoint)
}
