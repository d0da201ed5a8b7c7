// internal/config/config.go
package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// Config holds all application configuration, loaded from a YAML file with
// environment-variable overrides for deployment-specific values.
type Config struct {
	App      AppConfig      `yaml:"app"`
	Database DatabaseConfig `yaml:"database"`
	Scraping ScrapingConfig `yaml:"scraping"`
	Status   StatusConfig   `yaml:"status"`
	OCR      OCRConfig      `yaml:"ocr"`
}

type AppConfig struct {
	Name     string `yaml:"name"`
	Port     int    `yaml:"port"`
	Timezone string `yaml:"timezone"`
	WebRoot  string `yaml:"web_root"`
	LogLevel string `yaml:"log_level"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`
}

type ScrapingConfig struct {
	BaseURL             string `yaml:"base_url"`
	UserAgent           string `yaml:"user_agent"`
	TimeoutSeconds      int    `yaml:"timeout_seconds"`
	DelayMinSeconds     int    `yaml:"delay_min_seconds"`
	DelayMaxSeconds     int    `yaml:"delay_max_seconds"`
	CycleSleepSeconds   int    `yaml:"cycle_sleep_seconds"`
	ErrorBackoffSeconds int    `yaml:"error_backoff_seconds"`
	URLsFile            string `yaml:"urls_file"`
	DebugDir            string `yaml:"debug_dir"`
	MetricsAddr         string `yaml:"metrics_addr"`
}

type StatusConfig struct {
	Dir string `yaml:"dir"`
}

type OCRConfig struct {
	Language string `yaml:"language"`
	ImageDir string `yaml:"image_dir"`
	Keyword  string `yaml:"keyword"`
}

// Load reads the YAML config at path and applies environment overrides.
// A .env file next to the binary is honoured when present.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg.applyDefaults()
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.App.Port == 0 {
		c.App.Port = 5001
	}
	if c.App.Timezone == "" {
		c.App.Timezone = "Europe/Oslo"
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Scraping.BaseURL == "" {
		c.Scraping.BaseURL = "https://www.finn.no"
	}
	if c.Scraping.UserAgent == "" {
		c.Scraping.UserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 " +
			"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	}
	if c.Scraping.TimeoutSeconds == 0 {
		c.Scraping.TimeoutSeconds = 10
	}
	if c.Scraping.DelayMinSeconds == 0 {
		c.Scraping.DelayMinSeconds = 2
	}
	if c.Scraping.DelayMaxSeconds == 0 {
		c.Scraping.DelayMaxSeconds = 5
	}
	if c.Scraping.CycleSleepSeconds == 0 {
		c.Scraping.CycleSleepSeconds = 600
	}
	if c.Scraping.ErrorBackoffSeconds == 0 {
		c.Scraping.ErrorBackoffSeconds = 60
	}
	if c.OCR.Language == "" {
		c.OCR.Language = "nor"
	}
	if c.OCR.Keyword == "" {
		c.OCR.Keyword = "varmepumpe"
	}
}

func (c *Config) applyEnv() {
	c.Database.Host = getEnv("DB_HOST", c.Database.Host)
	c.Database.Port = getEnv("DB_PORT", c.Database.Port)
	c.Database.User = getEnv("DB_USER", c.Database.User)
	c.Database.Password = getEnv("DB_PASSWORD", c.Database.Password)
	c.Database.Name = getEnv("DB_NAME", c.Database.Name)
	c.App.Port = getEnvInt("APP_PORT", c.App.Port)
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return "host=" + d.Host +
		" port=" + d.Port +
		" user=" + d.User +
		" password=" + d.Password +
		" dbname=" + d.Name +
		" sslmode=" + d.SSLMode
}

// Timeout returns the network timeout as a duration.
func (s ScrapingConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// urlsDoc is the on-disk shape of the search URL list.
type urlsDoc struct {
	URLs []string `json:"urls"`
}

// LoadURLs reads the JSON document listing base search URLs. A missing file
// is not an error: the orchestrator treats it as an empty cycle.
func LoadURLs(path string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var doc urlsDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return doc.URLs, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return fallback
}
