package config

import (
	"flag"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// Бэкенды хранилища.
const (
	BackendFile = "file"
	BackendSQL  = "sql"
)

type Config struct {
	// Storage
	DataDir     string `env:"SHOP_DATA_DIR"`
	Backend     string `env:"SHOP_BACKEND"`
	DatabaseDSN string `env:"DATABASE_URI"`

	// Session
	SessionSecret string        `env:"SESSION_SECRET"`
	SessionFile   string        `env:"SESSION_FILE"`
	SessionTTL    time.Duration `env:"SESSION_TTL"`

	// Logging
	LogLevel string `env:"LOG_LEVEL"`
	LogFile  string `env:"LOG_FILE"`

	Version bool `env:"-"` // show version and exit (flag only)
}

func NewConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{}
	_ = env.Parse(cfg)

	// флаги перекрывают env; значение из env служит значением по умолчанию
	flag.StringVar(&cfg.DataDir, "data", cfg.DataDir, "каталог файлов данных")
	flag.StringVar(&cfg.Backend, "backend", cfg.Backend, "хранилище: file|sql")
	flag.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "строка подключения к БД (backend=sql)")
	flag.StringVar(&cfg.SessionFile, "session-file", cfg.SessionFile, "path to session token file")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug|info|warn|error")
	flag.BoolVar(&cfg.Version, "version", cfg.Version, "Show version and exit")

	flag.Parse()

	cfg.fillDefaults()
	return cfg
}

func (cfg *Config) fillDefaults() {
	home, _ := os.UserHomeDir()
	if cfg.DataDir == "" {
		cfg.DataDir = filepath.Join(home, ".gophshop")
	}
	cfg.Backend = strings.ToLower(strings.TrimSpace(cfg.Backend))
	if cfg.Backend != BackendSQL {
		cfg.Backend = BackendFile
	}
	if cfg.Backend == BackendSQL && cfg.DatabaseDSN == "" {
		cfg.DatabaseDSN = filepath.Join(cfg.DataDir, "shop.sqlite")
	}
	if cfg.SessionSecret == "" {
		cfg.SessionSecret = "dev-secret-key"
	}
	if cfg.SessionFile == "" {
		cfg.SessionFile = filepath.Join(cfg.DataDir, "session")
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 24 * time.Hour
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "warn"
	}
}

// JournalPath is the checkout journal location inside DataDir.
func (cfg *Config) JournalPath() string {
	return filepath.Join(cfg.DataDir, "checkouts.journal")
}
