// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configs/config.yaml, merges configs/config.<APP_ENVIRONMENT>.yaml
// over it and applies environment overrides.
func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // optional

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{".env", "../.env", "../../.env"}
	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// findProjectRoot walks up from the working directory looking for go.mod.
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			if expanded := os.ExpandEnv(strVal); expanded != strVal && expanded != "" {
				v.Set(key, expanded)
			}
		}
	}
}

// overrideEmptyConfig fills secrets that are conventionally passed without the config prefix.
func overrideEmptyConfig(cfg *Config) {
	if cfg.Database.Postgres.User == "" {
		cfg.Database.Postgres.User = os.Getenv("DB_USER")
	}
	if cfg.Database.Postgres.Password == "" {
		cfg.Database.Postgres.Password = os.Getenv("DB_PASSWORD")
	}
	if cfg.Database.Redis.Password == "" {
		cfg.Database.Redis.Password = os.Getenv("REDIS_PASSWORD")
	}
	if cfg.Morphology.RemoteURL == "" {
		cfg.Morphology.RemoteURL = os.Getenv("MORPHOLOGY_URL")
	}
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "complaint-workers"
	}
	if cfg.App.RegistryPath == "" {
		cfg.App.RegistryPath = "configs/activity-registry.json"
	}

	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 10
	}
	if cfg.Camunda.Timeout == 0 {
		cfg.Camunda.Timeout = 30000
	}
	if cfg.Camunda.RequestTimeout == 0 {
		cfg.Camunda.RequestTimeout = 30000
	}

	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}

	if cfg.Catalog.Source == "" {
		cfg.Catalog.Source = CatalogSourcePostgres
	}
	if cfg.Catalog.Index == "" {
		cfg.Catalog.Index = "service_catalog"
	}
	if cfg.Catalog.Table == "" {
		cfg.Catalog.Table = "service_types"
	}

	ApplyMatchingDefaults(&cfg.Matching)

	if cfg.Morphology.Backend == "" {
		cfg.Morphology.Backend = MorphologySnowball
	}
	if cfg.Morphology.Language == "" {
		cfg.Morphology.Language = "russian"
	}
	if cfg.Morphology.Timeout == 0 {
		cfg.Morphology.Timeout = 2000
	}

	if cfg.Similarity.Backend == "" {
		cfg.Similarity.Backend = SimilarityPostgres
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}

	if cfg.Notifications.SMS.MinConfidence == 0 {
		cfg.Notifications.SMS.MinConfidence = 0.8
	}

	for key, worker := range cfg.Workers {
		if worker.MaxJobsActive == 0 {
			worker.MaxJobsActive = 5
		}
		if worker.Timeout == 0 {
			worker.Timeout = 30000
		}
		if worker.MaxRetries == 0 {
			worker.MaxRetries = 3
		}
		cfg.Workers[key] = worker
	}
}

// ApplyMatchingDefaults fills the scoring weights used by the matching pipeline.
func ApplyMatchingDefaults(m *MatchingConfig) {
	if m.MinTokenLength == 0 {
		m.MinTokenLength = 2
	}
	if m.MaxTokenLength == 0 {
		m.MaxTokenLength = 20
	}
	if m.TopN == 0 {
		m.TopN = 5
	}
	if m.NameWeight == 0 {
		m.NameWeight = 0.4
	}
	if m.DescriptionWeight == 0 {
		m.DescriptionWeight = 0.2
	}
	if m.TagWeight == 0 {
		m.TagWeight = 0.2
	}
	if m.PhraseNameWeight == 0 {
		m.PhraseNameWeight = 0.5
	}
	if m.PhraseDescriptionWeight == 0 {
		m.PhraseDescriptionWeight = 0.3
	}
	if m.TagMinConfidence == 0 {
		m.TagMinConfidence = 0.3
	}
	if m.TrigramThreshold == 0 {
		m.TrigramThreshold = 0.3
	}
	if m.TrigramConcurrency == 0 {
		m.TrigramConcurrency = 8
	}
	if m.MorphologyBoost == 0 {
		m.MorphologyBoost = 0.3
	}
	if m.RerankMinConfidence == 0 {
		m.RerankMinConfidence = 0.4
	}
}

// DefaultMatchingConfig returns the matching weights with every default applied.
func DefaultMatchingConfig() MatchingConfig {
	var m MatchingConfig
	ApplyMatchingDefaults(&m)
	return m
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	if cfg.Camunda.BrokerAddress == "" {
		return fmt.Errorf("camunda.broker_address is required")
	}

	switch cfg.Catalog.Source {
	case CatalogSourcePostgres:
		if err := validatePostgres(cfg.Database.Postgres); err != nil {
			return err
		}
	case CatalogSourceElasticsearch:
		if len(cfg.Database.Elasticsearch.GetAddresses()) == 0 {
			return fmt.Errorf("database.elasticsearch.addresses or url is required for catalog.source=elasticsearch")
		}
	case CatalogSourceFile:
		if cfg.Catalog.FilePath == "" {
			return fmt.Errorf("catalog.file_path is required for catalog.source=file")
		}
	default:
		return fmt.Errorf("catalog.source %q is not supported", cfg.Catalog.Source)
	}

	switch cfg.Similarity.Backend {
	case SimilarityPostgres:
		if err := validatePostgres(cfg.Database.Postgres); err != nil {
			return err
		}
	case SimilarityLocal:
	default:
		return fmt.Errorf("similarity.backend %q is not supported", cfg.Similarity.Backend)
	}

	switch cfg.Morphology.Backend {
	case MorphologySnowball:
	case MorphologyRemote:
		if cfg.Morphology.RemoteURL == "" {
			return fmt.Errorf("morphology.remote_url is required for morphology.backend=remote")
		}
	default:
		return fmt.Errorf("morphology.backend %q is not supported", cfg.Morphology.Backend)
	}

	if cfg.Morphology.CacheTTL > 0 && cfg.Database.Redis.Address == "" {
		return fmt.Errorf("database.redis.address is required when morphology.cache_ttl is set")
	}

	m := cfg.Matching
	if m.MinTokenLength > m.MaxTokenLength {
		return fmt.Errorf("matching.min_token_length (%d) exceeds matching.max_token_length (%d)", m.MinTokenLength, m.MaxTokenLength)
	}
	for name, v := range map[string]float64{
		"tag_min_confidence":    m.TagMinConfidence,
		"trigram_threshold":     m.TrigramThreshold,
		"rerank_min_confidence": m.RerankMinConfidence,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("matching.%s must be within [0,1], got %v", name, v)
		}
	}

	return nil
}

func validatePostgres(p PostgresConfig) error {
	if p.Host == "" {
		return fmt.Errorf("database.postgres.host is required")
	}
	if p.Database == "" {
		return fmt.Errorf("database.postgres.database is required")
	}
	if p.User == "" {
		return fmt.Errorf("database.postgres.user is required")
	}
	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// GetWorkerConfig retrieves worker-specific configuration with fallback to defaults
func GetWorkerConfig(cfg *Config, workerName string) WorkerConfig {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker
	}
	return WorkerConfig{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       30000,
		MaxRetries:    3,
	}
}

// IsWorkerEnabled checks if a specific worker is enabled
func IsWorkerEnabled(cfg *Config, workerName string) bool {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker.Enabled
	}
	return true
}
