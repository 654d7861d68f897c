// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Database      DatabaseConfig          `mapstructure:"database"`
	Catalog       CatalogConfig           `mapstructure:"catalog"`
	Matching      MatchingConfig          `mapstructure:"matching"`
	Morphology    MorphologyConfig        `mapstructure:"morphology"`
	Similarity    SimilarityConfig        `mapstructure:"similarity"`
	Dictionaries  DictionaryConfig        `mapstructure:"dictionaries"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	Logging       LoggingConfig           `mapstructure:"logging"`
	Notifications NotificationConfig      `mapstructure:"notifications"`
	Server        ServerConfig            `mapstructure:"server"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`

	RegistryPath string `mapstructure:"registry_path"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
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

// GetDSN returns the PostgreSQL connection string
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
	URL       string   `mapstructure:"url"` // single URL, appended to Addresses
}

// GetAddresses merges URL into Addresses.
func (e ElasticsearchConfig) GetAddresses() []string {
	if e.URL == "" {
		return e.Addresses
	}
	for _, a := range e.Addresses {
		if a == e.URL {
			return e.Addresses
		}
	}
	return append([]string{e.URL}, e.Addresses...)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// --- Matching pipeline ---

const (
	CatalogSourcePostgres      = "postgres"
	CatalogSourceElasticsearch = "elasticsearch"
	CatalogSourceFile          = "file"

	MorphologySnowball = "snowball"
	MorphologyRemote   = "remote"

	SimilarityPostgres = "postgres"
	SimilarityLocal    = "local"
)

// CatalogConfig selects where service types are read from.
type CatalogConfig struct {
	Source         string `mapstructure:"source"`
	FilePath       string `mapstructure:"file_path"`
	Index          string `mapstructure:"index"`
	Table          string `mapstructure:"table"`
	ReloadInterval int    `mapstructure:"reload_interval"` // seconds, 0 disables auto reload
}

// MatchingConfig holds the static scoring weights and thresholds.
type MatchingConfig struct {
	MinTokenLength int `mapstructure:"min_token_length"`
	MaxTokenLength int `mapstructure:"max_token_length"`
	TopN           int `mapstructure:"top_n"`

	NameWeight              float64 `mapstructure:"name_weight"`
	DescriptionWeight       float64 `mapstructure:"description_weight"`
	TagWeight               float64 `mapstructure:"tag_weight"`
	PhraseNameWeight        float64 `mapstructure:"phrase_name_weight"`
	PhraseDescriptionWeight float64 `mapstructure:"phrase_description_weight"`
	TagMinConfidence        float64 `mapstructure:"tag_min_confidence"`

	TrigramThreshold   float64 `mapstructure:"trigram_threshold"`
	TrigramConcurrency int     `mapstructure:"trigram_concurrency"`

	MorphologyBoost     float64 `mapstructure:"morphology_boost"`
	RerankMinConfidence float64 `mapstructure:"rerank_min_confidence"`
}

type MorphologyConfig struct {
	Backend   string `mapstructure:"backend"`
	Language  string `mapstructure:"language"`
	RemoteURL string `mapstructure:"remote_url"`
	Timeout   int    `mapstructure:"timeout"`   // milliseconds
	CacheTTL  int    `mapstructure:"cache_ttl"` // seconds, 0 disables the redis cache
}

type SimilarityConfig struct {
	Backend string `mapstructure:"backend"`
}

type DictionaryConfig struct {
	Path  string `mapstructure:"path"`
	Watch bool   `mapstructure:"watch"` // reload on file change
}

// NotificationConfig holds settings for the notify-dispatcher worker.
type NotificationConfig struct {
	Email struct {
		Enabled   bool   `mapstructure:"enabled"`
		FromEmail string `mapstructure:"from_email"`
		ToEmail   string `mapstructure:"to_email"`
	} `mapstructure:"email"`
	SMS struct {
		Enabled       bool    `mapstructure:"enabled"`
		PhoneNumber   string  `mapstructure:"phone_number"`
		MinConfidence float64 `mapstructure:"min_confidence"`
	} `mapstructure:"sms"`
	AWS struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"aws"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
