package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Corpus    CorpusConfig     `json:"corpus"`
	Refman    RefmanConfig     `json:"refman"`
	Site      SiteConfig       `json:"site"`
	Search    SearchConfig     `json:"search"`
	LinkCheck LinkCheckConfig  `json:"linkcheck"`
	Server    ServerConfig     `json:"server"`
	LogConfig logger.LogConfig `json:"log_config"`
}

type CorpusConfig struct {
	Dir         string   `json:"dir"`
	Sitemap     string   `json:"sitemap"`
	SnippetsDir string   `json:"snippets_dir"`
	Ignore      []string `json:"ignore"`
}

type RefmanConfig struct {
	YamlDir       string `json:"yaml_dir"`
	Strict        bool   `json:"strict"`
	EnableModules bool   `json:"enable_modules"`
	LinkDefs      string `json:"link_defs"`
}

type SiteConfig struct {
	Title   string          `json:"title"`
	BaseURL string          `json:"base_url"`
	Store   FileStoreConfig `json:"store"`
}

type FileStoreConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type SearchConfig struct {
	DBPath string `json:"db_path"`
}

type LinkCheckConfig struct {
	TimeoutSec    int      `json:"timeout_sec"`
	Workers       int      `json:"workers"`
	CachePath     string   `json:"cache_path"`
	CacheTTLHours int      `json:"cache_ttl_hours"`
	Exclude       []string `json:"exclude"`
}

type ServerConfig struct {
	Port              int      `json:"port"`
	JWTSecret         string   `json:"jwt_secret"`
	JWTTTLHours       int      `json:"jwt_ttl_hours"`
	AdminPasswordHash string   `json:"admin_password_hash"`
	CORSOrigins       []string `json:"cors_origins"`
	WatchIntervalSec  int      `json:"watch_interval_sec"`
	LinkCheckCron     string   `json:"linkcheck_cron"`
}

// EditingEnabled reports whether the authenticated editing endpoints are
// exposed. They need an admin password hash to compare logins against.
func (c ServerConfig) EditingEnabled() bool {
	return c.AdminPasswordHash != ""
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Corpus.Dir == "" {
		return nil, fmt.Errorf("corpus.dir is required")
	}
	if cfg.Corpus.Sitemap == "" {
		return nil, fmt.Errorf("corpus.sitemap is required")
	}
	if cfg.Corpus.SnippetsDir == "" {
		cfg.Corpus.SnippetsDir = "snippets"
	}
	if cfg.Site.Title == "" {
		cfg.Site.Title = "Documentation"
	}
	if cfg.Site.BaseURL == "" {
		cfg.Site.BaseURL = "/"
	}
	if cfg.Site.Store.Type == "" {
		cfg.Site.Store.Type = "local"
		cfg.Site.Store.Data = map[string]interface{}{"dir": "public"}
	}
	if cfg.Search.DBPath == "" {
		cfg.Search.DBPath = "mdocs-index.db"
	}
	if cfg.LinkCheck.TimeoutSec <= 0 {
		cfg.LinkCheck.TimeoutSec = 60
	}
	if cfg.LinkCheck.Workers <= 0 {
		cfg.LinkCheck.Workers = 8
	}
	if cfg.LinkCheck.CacheTTLHours <= 0 {
		cfg.LinkCheck.CacheTTLHours = 24
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8091
	}
	if cfg.Server.JWTTTLHours == 0 {
		cfg.Server.JWTTTLHours = 72
	}
	if cfg.Server.WatchIntervalSec <= 0 {
		cfg.Server.WatchIntervalSec = 2
	}
	if cfg.Server.EditingEnabled() && cfg.Server.JWTSecret == "" {
		return nil, fmt.Errorf("server.jwt_secret is required when editing is enabled")
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	return &cfg, nil
}
