package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Source names used to key rate limiter and client configuration
const (
	SourceCongressAPI    = "congress_api"
	SourceHouseClerk     = "house_clerk"
	SourceSenateGov      = "senate_gov"
	SourceCensusGeocoder = "census_geocoder"
	SourceCicero         = "cicero"
)

// BaseConfig holds base configuration
type BaseConfig struct {
	Debug     bool   `mapstructure:"debug"`
	SentryDSN string `mapstructure:"sentry_dsn"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadHost        string        `mapstructure:"read_host"`
	ReadPort        int           `mapstructure:"read_port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`     // Maximum number of open connections to the database
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`     // Maximum number of idle connections in the pool
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`  // Maximum amount of time a connection may be reused (e.g., "5m", "1h")
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"` // Maximum amount of time a connection may be idle (e.g., "10m", "30m")
}

// TemporalConfig holds Temporal configuration
type TemporalConfig struct {
	HostPort                           string  `mapstructure:"host_port"`
	Namespace                          string  `mapstructure:"namespace"`
	SyncTaskQueue                      string  `mapstructure:"sync_task_queue"`
	MaxConcurrentActivityExecutionSize int     `mapstructure:"max_concurrent_activity_execution_size"`
	WorkerActivitiesPerSecond          float64 `mapstructure:"worker_activities_per_second"`
	MaxConcurrentActivityTaskPollers   int     `mapstructure:"max_concurrent_activity_task_pollers"`
}

// SourcesConfig holds external data source configuration. Each source
// carries its own base URL and minimum inter-request interval, sized to
// the source's published or empirically safe limit.
type SourcesConfig struct {
	CongressAPIURL      string        `mapstructure:"congress_api_url"`
	CongressAPIKey      string        `mapstructure:"congress_api_key"`
	CongressAPIInterval time.Duration `mapstructure:"congress_api_interval"`

	HouseClerkURL      string        `mapstructure:"house_clerk_url"`
	HouseClerkInterval time.Duration `mapstructure:"house_clerk_interval"`

	SenateGovURL      string        `mapstructure:"senate_gov_url"`
	SenateGovInterval time.Duration `mapstructure:"senate_gov_interval"`

	CensusGeocoderURL      string        `mapstructure:"census_geocoder_url"`
	CensusGeocoderInterval time.Duration `mapstructure:"census_geocoder_interval"`

	// Cicero is optional: with no API key configured the resolver skips
	// this stage entirely
	CiceroURL      string        `mapstructure:"cicero_url"`
	CiceroAPIKey   string        `mapstructure:"cicero_api_key"`
	CiceroInterval time.Duration `mapstructure:"cicero_interval"`

	ZipDistrictCSVURL string `mapstructure:"zip_district_csv_url"`

	HTTPTimeout time.Duration `mapstructure:"http_timeout"`
}

// SourceLimitConfig holds rate limiting configuration for one external source
type SourceLimitConfig struct {
	MinInterval  time.Duration `mapstructure:"min_interval"`
	MaxQueueTime time.Duration `mapstructure:"max_queue_time"`
}

// RateLimiterConfig holds rate limiter configuration
type RateLimiterConfig struct {
	MaxWorkers   int                          `mapstructure:"max_workers"`
	MaxQueueSize int                          `mapstructure:"max_queue_size"`
	Sources      map[string]SourceLimitConfig `mapstructure:"sources"`
}

// RateLimiterConfig derives the per-source limiter configuration from
// the configured source intervals
func (c *SourcesConfig) RateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		Sources: map[string]SourceLimitConfig{
			SourceCongressAPI:    {MinInterval: c.CongressAPIInterval},
			SourceHouseClerk:     {MinInterval: c.HouseClerkInterval},
			SourceSenateGov:      {MinInterval: c.SenateGovInterval},
			SourceCensusGeocoder: {MinInterval: c.CensusGeocoderInterval},
			SourceCicero:         {MinInterval: c.CiceroInterval},
		},
	}
}

// SyncConfig holds chunked sync tuning. Chunk bounds are count-based,
// sized so a chunk finishes within the invoking scheduler's timeout
// given the per-item rate limits.
type SyncConfig struct {
	Congress               int           `mapstructure:"congress"`
	PageLimit              int           `mapstructure:"page_limit"`
	BillChunkSize          int           `mapstructure:"bill_chunk_size"`
	HouseMaxRollCalls      int           `mapstructure:"house_max_roll_calls"`
	SenateMaxRollCalls     int           `mapstructure:"senate_max_roll_calls"`
	SenateNotFoundLimit    int           `mapstructure:"senate_not_found_limit"`
	MemberFreshnessWindow  time.Duration `mapstructure:"member_freshness_window"`
	ZipDistrictBatchSize   int           `mapstructure:"zip_district_batch_size"`
	MissingMemberLogSample int           `mapstructure:"missing_member_log_sample"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`  // in seconds
	WriteTimeout int    `mapstructure:"write_timeout"` // in seconds
	IdleTimeout  int    `mapstructure:"idle_timeout"`  // in seconds
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	APIKeys []string `mapstructure:"api_keys"`
}

// WorkerConfig holds configuration for the sync worker binary
type WorkerConfig struct {
	BaseConfig `mapstructure:",squash"`
	Database   DatabaseConfig `mapstructure:"database"`
	Temporal   TemporalConfig `mapstructure:"temporal"`
	Sources    SourcesConfig  `mapstructure:"sources"`
	Sync       SyncConfig     `mapstructure:"sync"`
}

// APIConfig holds configuration for the API server
type APIConfig struct {
	BaseConfig `mapstructure:",squash"`
	Server     ServerConfig   `mapstructure:"server"`
	Database   DatabaseConfig `mapstructure:"database"`
	Temporal   TemporalConfig `mapstructure:"temporal"`
	Auth       AuthConfig     `mapstructure:"auth"`
	Sources    SourcesConfig  `mapstructure:"sources"`
	Sync       SyncConfig     `mapstructure:"sync"`
}

// SyncCLIConfig holds configuration for the one-shot sync binary
type SyncCLIConfig struct {
	BaseConfig `mapstructure:",squash"`
	Database   DatabaseConfig `mapstructure:"database"`
	Sources    SourcesConfig  `mapstructure:"sources"`
	Sync       SyncConfig     `mapstructure:"sync"`
}

// LoadWorkerConfig loads configuration for the sync worker
func LoadWorkerConfig(configFile string, envPath string) (*WorkerConfig, error) {
	v := configureViper("worker", configFile, envPath)

	setDatabaseDefaults(v)
	setTemporalDefaults(v)
	setSourceDefaults(v)
	setSyncDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			// Config file not found, use environment variables
		} else {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config WorkerConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateSources(&config.Sources); err != nil {
		return nil, err
	}

	return &config, nil
}

// LoadAPIConfig loads configuration for the API server
func LoadAPIConfig(configFile string, envPath string) (*APIConfig, error) {
	v := configureViper("api", configFile, envPath)

	v.SetDefault("debug", false)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("server.idle_timeout", 120)
	setDatabaseDefaults(v)
	setTemporalDefaults(v)
	setSourceDefaults(v)
	setSyncDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			// Config file not found, use environment variables
		} else {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config APIConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

// LoadSyncConfig loads configuration for the one-shot sync binary
func LoadSyncConfig(configFile string, envPath string) (*SyncCLIConfig, error) {
	v := configureViper("sync", configFile, envPath)

	setDatabaseDefaults(v)
	setSourceDefaults(v)
	setSyncDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			// Config file not found, use environment variables
		} else {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config SyncCLIConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateSources(&config.Sources); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDatabaseDefaults(v *viper.Viper) {
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.conn_max_idle_time", "10m")
}

func setTemporalDefaults(v *viper.Viper) {
	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.sync_task_queue", "congress-sync")
	v.SetDefault("temporal.max_concurrent_activity_execution_size", 10)
	v.SetDefault("temporal.worker_activities_per_second", 10)
	v.SetDefault("temporal.max_concurrent_activity_task_pollers", 4)
}

func setSourceDefaults(v *viper.Viper) {
	v.SetDefault("sources.congress_api_url", "https://api.congress.gov/v3")
	// 5000 requests/hour budget works out to one request per 720ms
	v.SetDefault("sources.congress_api_interval", "720ms")
	v.SetDefault("sources.house_clerk_url", "https://clerk.house.gov")
	v.SetDefault("sources.house_clerk_interval", "500ms")
	v.SetDefault("sources.senate_gov_url", "https://www.senate.gov")
	v.SetDefault("sources.senate_gov_interval", "500ms")
	v.SetDefault("sources.census_geocoder_url", "https://geocoding.geo.census.gov/geocoder/geographies/address")
	v.SetDefault("sources.census_geocoder_interval", "200ms")
	v.SetDefault("sources.cicero_url", "https://app.cicerodata.com/v3.1/official")
	// Cicero allows 200 requests/minute; 300ms keeps a margin
	v.SetDefault("sources.cicero_interval", "300ms")
	v.SetDefault("sources.zip_district_csv_url", "https://raw.githubusercontent.com/OpenSourceActivismTech/us-zipcodes-congress/master/zccd.csv")
	v.SetDefault("sources.http_timeout", "30s")
}

func setSyncDefaults(v *viper.Viper) {
	v.SetDefault("sync.congress", 119)
	v.SetDefault("sync.page_limit", 250)
	v.SetDefault("sync.bill_chunk_size", 100)
	v.SetDefault("sync.house_max_roll_calls", 50)
	v.SetDefault("sync.senate_max_roll_calls", 50)
	v.SetDefault("sync.senate_not_found_limit", 10)
	v.SetDefault("sync.member_freshness_window", "24h")
	v.SetDefault("sync.zip_district_batch_size", 1000)
	v.SetDefault("sync.missing_member_log_sample", 10)
}

// validateSources rejects configurations that cannot perform any sync.
// A missing Congress API key is a fatal configuration error; a missing
// Cicero key only disables that geocoder stage.
func validateSources(c *SourcesConfig) error {
	if c.CongressAPIKey == "" {
		return errors.New("sources.congress_api_key is required")
	}
	return nil
}

// configureViper returns a viper instance with the config file and environment variables set
func configureViper(service string, configFile string, envPath string) *viper.Viper {
	v := viper.New()

	// Load environment variables
	loadEnv(envPath, service)

	// Set config file
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		// Search for config.yaml in multiple locations:
		// 1. Current directory
		v.AddConfigPath(".")
		// 2. Service-specific directory (e.g., cmd/worker/, cmd/api/)
		v.AddConfigPath(fmt.Sprintf("cmd/%s/", service))
		// 3. Config directory
		v.AddConfigPath("config/")
	}

	// Set environment variables
	v.SetEnvPrefix("CONGRESS_INDEXER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Explicitly bind all environment variables
	bindAllEnvVars(v)
	return v
}

// bindAllEnvVars explicitly binds all possible environment variables
// This is required for viper to map env vars to config struct fields when no config file exists
func bindAllEnvVars(v *viper.Viper) {
	commonKeys := []string{
		"debug",
		"sentry_dsn",
		// Database
		"database.host",
		"database.port",
		"database.read_host",
		"database.read_port",
		"database.user",
		"database.password",
		"database.dbname",
		"database.sslmode",
		"database.max_open_conns",
		"database.max_idle_conns",
		"database.conn_max_lifetime",
		"database.conn_max_idle_time",
		// Temporal
		"temporal.host_port",
		"temporal.namespace",
		"temporal.sync_task_queue",
		"temporal.max_concurrent_activity_execution_size",
		"temporal.worker_activities_per_second",
		"temporal.max_concurrent_activity_task_pollers",
		// Sources
		"sources.congress_api_url",
		"sources.congress_api_key",
		"sources.congress_api_interval",
		"sources.house_clerk_url",
		"sources.house_clerk_interval",
		"sources.senate_gov_url",
		"sources.senate_gov_interval",
		"sources.census_geocoder_url",
		"sources.census_geocoder_interval",
		"sources.cicero_url",
		"sources.cicero_api_key",
		"sources.cicero_interval",
		"sources.zip_district_csv_url",
		"sources.http_timeout",
		// Sync
		"sync.congress",
		"sync.page_limit",
		"sync.bill_chunk_size",
		"sync.house_max_roll_calls",
		"sync.senate_max_roll_calls",
		"sync.senate_not_found_limit",
		"sync.member_freshness_window",
		"sync.zip_district_batch_size",
		"sync.missing_member_log_sample",
		// Server
		"server.host",
		"server.port",
		"server.read_timeout",
		"server.write_timeout",
		"server.idle_timeout",
		// Auth
		"auth.api_keys",
	}

	for _, key := range commonKeys {
		_ = v.BindEnv(key)
	}
}

// loadEnv loads environment variables from the config directory
func loadEnv(envPath string, service string) {
	// Always try shared base first, then local, then optional per-service local.
	envFiles := []string{".env", ".env.local"}
	if service != "" {
		envFiles = append(envFiles, ".env."+service+".local")
	}

	// Default to config directory
	if envPath == "" {
		envPath = "config/"
	}

	// Create candidates list
	for _, envFile := range envFiles {
		candidate := filepath.Join(envPath, envFile)
		_ = godotenv.Overload(candidate) // Overload lets later files override earlier ones
	}
}

// ChdirRepoRoot changes the current working directory to the repository root
func ChdirRepoRoot() {
	cwd, _ := os.Getwd()
	for range 5 {
		if _, err := os.Stat(filepath.Join(cwd, "config")); err == nil {
			_ = os.Chdir(cwd)
			return
		}
		cwd = filepath.Dir(cwd)
	}
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// ReadDSN returns the read-replica database connection string.
// If ReadPort is not configured, it falls back to Port.
func (c *DatabaseConfig) ReadDSN() string {
	port := c.ReadPort
	if port == 0 {
		port = c.Port
	}

	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.ReadHost, port, c.User, c.Password, c.DBName, c.SSLMode)
}
