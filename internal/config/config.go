package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/neoarchive/neoarchive/internal/logger"
)

const envPrefix = "NEOARCHIVE"

type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	Remote  RemoteConfig
	Misc    MiscConfig
}

type ServerConfig struct {
	Port               int
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	IdleTimeout        time.Duration
	ShutDownTimeout    time.Duration
	RequestTimeout     time.Duration
	CORSAllowedOrigins string
	UIDir              string
}

type StorageConfig struct {
	Backend         string // file | sqlite
	Dir             string
	SQLitePath      string
	SnapshotKey     string
	SessionKey      string
	SchemaVersion   string
	PersistInterval time.Duration
}

type RemoteConfig struct {
	Driver         string // postgres | memory | none
	DSN            string
	SyncTimeout    time.Duration
	SyncInterval   time.Duration
	RetryAttempts  int
	RetryBaseDelay time.Duration
	CallTimeout    time.Duration
	AutoMigrate    bool
}

type MiscConfig struct {
	LogLevel string
	GinMode  string
}

// LoadConfig reads config.yaml from confPath (or $NEOARCHIVE_CONFIG_PATH,
// default ./config), applies defaults and environment overrides and
// validates the result. A .env file in confPath or the working directory is
// loaded first.
func LoadConfig(confPath string) (*Config, error) {
	if confPath == "" {
		confPath = getEnvOrDefault(envPrefix+"_CONFIG_PATH", "./config")
	}
	loadDotEnv(filepath.Join(confPath, ".env"), ".env")

	viper.Reset()
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(confPath)
	setDefaults(confPath)

	// NEOARCHIVE_REMOTE_DSN overrides remote.dsn
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config file error: %w", err)
		}
		logger.WithComponent("config").Debug("no config file found, using defaults and env vars")
	}

	port, err := getEnvOrViperPort("PORT", "server.port")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:               port,
			ReadTimeout:        viper.GetDuration("server.read_timeout"),
			WriteTimeout:       viper.GetDuration("server.write_timeout"),
			IdleTimeout:        viper.GetDuration("server.idle_timeout"),
			ShutDownTimeout:    viper.GetDuration("server.shutdown_timeout"),
			RequestTimeout:     viper.GetDuration("server.request_timeout"),
			CORSAllowedOrigins: viper.GetString("server.cors_allowed_origins"),
			UIDir:              viper.GetString("server.ui_dir"),
		},
		Storage: StorageConfig{
			Backend:         strings.ToLower(viper.GetString("storage.backend")),
			Dir:             viper.GetString("storage.dir"),
			SQLitePath:      viper.GetString("storage.sqlite_path"),
			SnapshotKey:     viper.GetString("storage.snapshot_key"),
			SessionKey:      viper.GetString("storage.session_key"),
			SchemaVersion:   viper.GetString("storage.schema_version"),
			PersistInterval: viper.GetDuration("storage.persist_interval"),
		},
		Remote: RemoteConfig{
			Driver:         strings.ToLower(viper.GetString("remote.driver")),
			DSN:            viper.GetString("remote.dsn"),
			SyncTimeout:    viper.GetDuration("remote.sync_timeout"),
			SyncInterval:   viper.GetDuration("remote.sync_interval"),
			RetryAttempts:  viper.GetInt("remote.retry_attempts"),
			RetryBaseDelay: viper.GetDuration("remote.retry_base_delay"),
			CallTimeout:    viper.GetDuration("remote.call_timeout"),
			AutoMigrate:    viper.GetBool("remote.auto_migrate"),
		},
		Misc: MiscConfig{
			LogLevel: getEnvOrDefault("LOG_LEVEL", viper.GetString("misc.log_level")),
			GinMode:  viper.GetString("misc.gin_mode"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if err := ensureStorageDir(cfg.Storage); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(confPath string) {
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 10*time.Second)
	viper.SetDefault("server.write_timeout", 10*time.Second)
	viper.SetDefault("server.idle_timeout", 120*time.Second)
	viper.SetDefault("server.shutdown_timeout", 5*time.Second)
	viper.SetDefault("server.request_timeout", 2*time.Second)
	viper.SetDefault("server.cors_allowed_origins", "*")
	viper.SetDefault("server.ui_dir", "./ui/dist")

	viper.SetDefault("storage.backend", "file")
	viper.SetDefault("storage.dir", filepath.Join(confPath, "data"))
	viper.SetDefault("storage.sqlite_path", filepath.Join(confPath, "data", "neoarchive.db"))
	viper.SetDefault("storage.snapshot_key", "neoarchive_data")
	viper.SetDefault("storage.session_key", "neoarchive_active_user")
	viper.SetDefault("storage.schema_version", "v3")
	viper.SetDefault("storage.persist_interval", 5*time.Second)

	viper.SetDefault("remote.driver", "none")
	viper.SetDefault("remote.dsn", "")
	viper.SetDefault("remote.sync_timeout", 5*time.Second)
	viper.SetDefault("remote.sync_interval", 60*time.Second)
	viper.SetDefault("remote.retry_attempts", 4)
	viper.SetDefault("remote.retry_base_delay", 250*time.Millisecond)
	viper.SetDefault("remote.call_timeout", 10*time.Second)
	viper.SetDefault("remote.auto_migrate", false)

	viper.SetDefault("misc.log_level", "info")
	viper.SetDefault("misc.gin_mode", "release")
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 || c.Server.IdleTimeout <= 0 {
		return errors.New("server read, write and idle timeouts must be positive")
	}
	if c.Server.ShutDownTimeout <= 0 {
		return errors.New("server shutdown timeout must be positive")
	}
	if c.Server.RequestTimeout <= 0 {
		return errors.New("server request timeout must be positive")
	}

	switch c.Storage.Backend {
	case "file":
		if c.Storage.Dir == "" {
			return errors.New("storage.dir is required for the file backend")
		}
	case "sqlite":
		if c.Storage.SQLitePath == "" {
			return errors.New("storage.sqlite_path is required for the sqlite backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.Storage.SnapshotKey == "" || c.Storage.SessionKey == "" {
		return errors.New("storage snapshot and session keys are required")
	}
	if c.Storage.SnapshotKey == c.Storage.SessionKey {
		return errors.New("storage snapshot and session keys must differ")
	}
	if c.Storage.SchemaVersion == "" {
		return errors.New("storage.schema_version is required")
	}
	if c.Storage.PersistInterval <= 0 {
		return errors.New("storage.persist_interval must be positive")
	}

	switch c.Remote.Driver {
	case "postgres":
		if c.Remote.DSN == "" {
			return errors.New("remote.dsn is required for the postgres driver")
		}
	case "memory", "none":
	default:
		return fmt.Errorf("unknown remote driver %q", c.Remote.Driver)
	}
	if c.Remote.SyncTimeout <= 0 || c.Remote.SyncInterval <= 0 {
		return errors.New("remote sync timeout and interval must be positive")
	}
	if c.Remote.RetryAttempts < 1 {
		return errors.New("remote.retry_attempts must be at least 1")
	}
	if c.Remote.RetryBaseDelay <= 0 {
		return errors.New("remote.retry_base_delay must be positive")
	}
	if c.Remote.CallTimeout < 0 {
		return errors.New("remote.call_timeout must not be negative")
	}

	if _, err := logrus.ParseLevel(c.Misc.LogLevel); err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.Misc.LogLevel, err)
	}
	switch c.Misc.GinMode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("invalid gin mode %q", c.Misc.GinMode)
	}
	return nil
}

func ensureStorageDir(s StorageConfig) error {
	dir := s.Dir
	if s.Backend == "sqlite" {
		dir = filepath.Dir(s.SQLitePath)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create storage dir: %w", err)
	}
	return nil
}

// loadDotEnv loads the first existing file; variables already set win.
func loadDotEnv(paths ...string) {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			logger.WithComponent("config").Warnf("cannot load %s: %v", p, err)
		}
		return
	}
}

func getEnvOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvOrViperPort(envKey, viperKey string) (int, error) {
	if v := os.Getenv(envKey); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s %q: %w", envKey, v, err)
		}
		return port, nil
	}
	return viper.GetInt(viperKey), nil
}
