package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultPath = "./config/config.yaml"
)

// Path is the location of the yaml file read by New.
type Path string

type Config struct {
	Admin   Admin   `yaml:"admin"`
	Backend Backend `yaml:"backend"`
	Session Session `yaml:"session"`
	Log     Log     `yaml:"log"`
}

type Admin struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Backend is the REST api the admin front end talks to.
type Backend struct {
	BaseURL string `yaml:"base_url"`
	// Timeout of zero means outbound calls wait for the backend indefinitely.
	Timeout time.Duration `yaml:"timeout"`
}

type SessionStore string

const (
	StoreSQLite SessionStore = "sqlite"
	StoreFile   SessionStore = "file"
	StoreMemory SessionStore = "memory"
)

type Session struct {
	Store        SessionStore  `yaml:"store"`
	Path         string        `yaml:"path"`
	Lifetime     time.Duration `yaml:"lifetime"`
	CookieName   string        `yaml:"cookie_name"`
	CookieSecure bool          `yaml:"cookie_secure"`
}

type Log struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
	File        string `yaml:"file"`
	MaxSizeMB   int    `yaml:"max_size_mb"`
	MaxBackups  int    `yaml:"max_backups"`
	MaxAgeDays  int    `yaml:"max_age_days"`
}

func Default() *Config {
	return &Config{
		Admin: Admin{
			Host: "localhost",
			Port: 8123,
		},
		Backend: Backend{
			BaseURL: "http://127.0.0.1:8000",
		},
		Session: Session{
			Store:      StoreSQLite,
			Path:       "./data/sessions.db",
			Lifetime:   24 * time.Hour,
			CookieName: "naviplus_session",
		},
		Log: Log{
			Level:       "info",
			Development: true,
			MaxSizeMB:   10,
			MaxBackups:  3,
			MaxAgeDays:  28,
		},
	}
}

// New reads the yaml file at p on top of Default. A missing file at the
// default location is not an error.
func New(p Path) (*Config, error) {
	cfg := Default()

	path := string(p)
	if path == "" {
		path = DefaultPath
	}

	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) && path == DefaultPath {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Backend.BaseURL == "" {
		return errors.New("config: backend.base_url is required")
	}
	if c.Admin.Port <= 0 {
		return fmt.Errorf("config: invalid admin.port %d", c.Admin.Port)
	}

	switch c.Session.Store {
	case StoreSQLite, StoreFile:
		if c.Session.Path == "" {
			return fmt.Errorf("config: session.path is required for %s store", c.Session.Store)
		}
	case StoreMemory:
	default:
		return fmt.Errorf("config: unknown session.store %q", c.Session.Store)
	}

	return nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Admin.Host, c.Admin.Port)
}
