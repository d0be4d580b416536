package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port           int     `yaml:"port"`
		MediaDir       string  `yaml:"media_dir"`
		MaxUploadBytes int64   `yaml:"max_upload_bytes"`
		RatePerSecond  float64 `yaml:"rate_per_second"`
		RateBurst      int     `yaml:"rate_burst"`
	} `yaml:"server"`

	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	Backup struct {
		Enabled       bool   `yaml:"enabled"`
		IntervalHours int    `yaml:"interval_hours"`
		Path          string `yaml:"path"`
		RetentionDays int    `yaml:"retention_days"`
	} `yaml:"backup"`

	Redis struct {
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Geocoder struct {
		BaseURL         string `yaml:"base_url"`
		UserAgent       string `yaml:"user_agent"`
		CacheTTLSeconds int    `yaml:"cache_ttl_seconds"`
	} `yaml:"geocoder"`

	Auth struct {
		Secret           string `yaml:"secret"`
		AccessTTLMinutes int    `yaml:"access_ttl_minutes"`
		RefreshTTLHours  int    `yaml:"refresh_ttl_hours"`
	} `yaml:"auth"`

	Monitoring struct {
		HealthCheckPort   int  `yaml:"health_check_port"`
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`

	Export struct {
		Enabled       bool   `yaml:"enabled"`
		IntervalHours int    `yaml:"interval_hours"`
		Path          string `yaml:"path"`
		Sheets        struct {
			Enabled         bool   `yaml:"enabled"`
			SpreadsheetID   string `yaml:"spreadsheet_id"`
			CredentialsFile string `yaml:"credentials_file"`
		} `yaml:"sheets"`
	} `yaml:"export"`

	CategoriesConfigPath string `yaml:"categories_config_path"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = "configs/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Server.MediaDir == "" {
		cfg.Server.MediaDir = "media"
	}
	if cfg.Server.MaxUploadBytes <= 0 {
		cfg.Server.MaxUploadBytes = 5 << 20
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "data/terroir.db"
	}
	if cfg.CategoriesConfigPath == "" {
		cfg.CategoriesConfigPath = "configs/categories.yaml"
	}
	if cfg.Geocoder.BaseURL == "" {
		cfg.Geocoder.BaseURL = "https://nominatim.openstreetmap.org"
	}
	if cfg.Geocoder.UserAgent == "" {
		cfg.Geocoder.UserAgent = "terroir/1.0"
	}

	if err = os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// AccessTTL is the lifetime of issued access tokens.
func (c *Config) AccessTTL() time.Duration {
	if c.Auth.AccessTTLMinutes <= 0 {
		return 60 * time.Minute
	}
	return time.Duration(c.Auth.AccessTTLMinutes) * time.Minute
}

// RefreshTTL is the lifetime of issued refresh tokens.
func (c *Config) RefreshTTL() time.Duration {
	if c.Auth.RefreshTTLHours <= 0 {
		return 7 * 24 * time.Hour
	}
	return time.Duration(c.Auth.RefreshTTLHours) * time.Hour
}

// GeocodeCacheTTL is how long geocoder responses stay cached.
func (c *Config) GeocodeCacheTTL() time.Duration {
	if c.Geocoder.CacheTTLSeconds <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.Geocoder.CacheTTLSeconds) * time.Second
}
