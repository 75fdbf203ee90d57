// Package config loads the application configuration from YAML and the
// environment.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Dictionary DictionaryConfig `yaml:"dictionary"`
	Search     SearchConfig     `yaml:"search"`
	Database   DatabaseConfig   `yaml:"database"`
	Ingest     IngestConfig     `yaml:"ingest"`
	SRS        SRSConfig        `yaml:"srs"`
	CORS       CORSConfig       `yaml:"cors"`
	Log        LogConfig        `yaml:"log"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"SERVER_PORT"             env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DictionaryConfig locates the corpus, the auxiliary tables and the snapshot.
type DictionaryConfig struct {
	CorpusPath     string `yaml:"corpus_path"       env:"DICT_CORPUS_PATH"       env-default:"data/JMdict_e.xml"`
	CorpusURL      string `yaml:"corpus_url"        env:"DICT_CORPUS_URL"        env-default:"http://ftp.edrdg.org/pub/Nihongo/JMdict_e.gz"`
	AutoDownload   bool   `yaml:"auto_download"     env:"DICT_AUTO_DOWNLOAD"     env-default:"false"`
	SnapshotPath   string `yaml:"snapshot_path"     env:"DICT_SNAPSHOT_PATH"     env-default:"data/dictionary.json.gz"`
	LevelTablePath string `yaml:"level_table_path"  env:"DICT_LEVEL_TABLE_PATH"`
	GlossTablePath string `yaml:"gloss_table_path"  env:"DICT_GLOSS_TABLE_PATH"`
	WriteOnRebuild bool   `yaml:"write_on_rebuild"  env:"DICT_WRITE_ON_REBUILD"`
}

// SearchConfig holds query-serving settings.
type SearchConfig struct {
	CacheSize            int  `yaml:"cache_size" env:"SEARCH_CACHE_SIZE" env-default:"1024"`
	DisableLemmaFallback bool `yaml:"disable_lemma_fallback" env:"SEARCH_DISABLE_LEMMA_FALLBACK"`
}

// DatabaseConfig holds card store settings.
type DatabaseConfig struct {
	Path string `yaml:"path" env:"DATABASE_PATH" env-default:"data/pera.db"`
}

// IngestConfig holds harvest and seed settings.
type IngestConfig struct {
	Workers   int `yaml:"workers"    env:"INGEST_WORKERS"    env-default:"4"`
	BatchSize int `yaml:"batch_size" env:"INGEST_BATCH_SIZE" env-default:"50"`
}

// SRSConfig holds spaced-repetition parameters.
type SRSConfig struct {
	DefaultEaseFactor float64 `yaml:"default_ease_factor" env:"SRS_DEFAULT_EASE" env-default:"2.5"`
	DueLimit          int     `yaml:"due_limit"           env:"SRS_DUE_LIMIT"    env-default:"20"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins   string `yaml:"allowed_origins"   env:"CORS_ALLOWED_ORIGINS"   env-default:"*"`
	AllowedMethods   string `yaml:"allowed_methods"   env:"CORS_ALLOWED_METHODS"   env-default:"GET,POST,DELETE,OPTIONS"`
	AllowedHeaders   string `yaml:"allowed_headers"   env:"CORS_ALLOWED_HEADERS"   env-default:"Content-Type,X-Request-Id"`
	AllowCredentials bool   `yaml:"allow_credentials" env:"CORS_ALLOW_CREDENTIALS" env-default:"false"`
	MaxAge           int    `yaml:"max_age"           env:"CORS_MAX_AGE"           env-default:"86400"`
}

// OriginList splits AllowedOrigins on commas.
func (c CORSConfig) OriginList() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"text"`
}
