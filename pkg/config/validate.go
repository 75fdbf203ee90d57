package config

import (
	"fmt"
	"strings"

	"github.com/japaniel/pera/pkg/srs"
)

// Validate performs business-rule validation on the loaded configuration.
// Load calls it automatically.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1..65535 (got %d)", c.Server.Port)
	}
	if strings.TrimSpace(c.Dictionary.SnapshotPath) == "" && strings.TrimSpace(c.Dictionary.CorpusPath) == "" {
		return fmt.Errorf("dictionary: snapshot_path or corpus_path must be set")
	}
	if c.Dictionary.AutoDownload && strings.TrimSpace(c.Dictionary.CorpusURL) == "" {
		return fmt.Errorf("dictionary.corpus_url must be set when auto_download is enabled")
	}
	if c.Search.CacheSize < 0 {
		return fmt.Errorf("search.cache_size must be >= 0 (got %d)", c.Search.CacheSize)
	}
	if strings.TrimSpace(c.Database.Path) == "" {
		return fmt.Errorf("database.path must be set")
	}
	if c.Ingest.Workers <= 0 {
		return fmt.Errorf("ingest.workers must be > 0 (got %d)", c.Ingest.Workers)
	}
	if c.Ingest.BatchSize <= 0 {
		return fmt.Errorf("ingest.batch_size must be > 0 (got %d)", c.Ingest.BatchSize)
	}
	if err := c.SRS.validate(); err != nil {
		return fmt.Errorf("srs: %w", err)
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("log.format must be json or text (got %q)", c.Log.Format)
	}
	return nil
}

func (s *SRSConfig) validate() error {
	if s.DefaultEaseFactor < srs.MinEase {
		return fmt.Errorf("default_ease_factor must be >= %v (got %v)", srs.MinEase, s.DefaultEaseFactor)
	}
	if s.DueLimit <= 0 {
		return fmt.Errorf("due_limit must be > 0 (got %d)", s.DueLimit)
	}
	return nil
}
