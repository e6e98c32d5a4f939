// Package config loads server configuration from defaults, an optional YAML
// file, environment variables and command-line flags, in that order.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage backends
const (
	StorageSQLite = "sqlite"
	StorageRedis  = "redis"
	StorageMemory = "memory"
)

// Upload backends
const (
	UploadLocal = "local"
	UploadGCS   = "gcs"
)

// Config holds the application configuration.
type Config struct {
	Addr      string `yaml:"addr"`
	DataDir   string `yaml:"dataDir"`
	StaticDir string `yaml:"staticDir"`

	Storage      string        `yaml:"storage"`
	RedisAddr    string        `yaml:"redisAddr"`
	RedisChannel string        `yaml:"redisChannel"`
	StateKey     string        `yaml:"stateKey"`
	SyncInterval time.Duration `yaml:"syncInterval"`
	PollInterval time.Duration `yaml:"pollInterval"`

	PlannerCode string `yaml:"plannerCode"`
	GuestCode   string `yaml:"guestCode"`

	UploadBackend      string `yaml:"uploadBackend"`
	UploadDir          string `yaml:"uploadDir"`
	GCSBucket          string `yaml:"gcsBucket"`
	GCSCredentialsFile string `yaml:"gcsCredentialsFile"`
	PublicBaseURL      string `yaml:"publicBaseURL"`

	OpenAIAPIKey  string `yaml:"openaiAPIKey"`
	OpenAIBaseURL string `yaml:"openaiBaseURL"`
	OpenAIModel   string `yaml:"openaiModel"`

	LogLevel       string   `yaml:"logLevel"`
	LogFormat      string   `yaml:"logFormat"`
	AllowedOrigins []string `yaml:"allowedOrigins"`

	ConfigFile  string `yaml:"-"`
	HealthCheck bool   `yaml:"-"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Addr:          ":8099",
		DataDir:       "/data",
		StaticDir:     "./static",
		Storage:       StorageSQLite,
		RedisChannel:  "anniversary-planner:state",
		StateKey:      "anniversary-planner/state",
		SyncInterval:  5 * time.Minute,
		PollInterval:  2 * time.Second,
		PlannerCode:   "silver25",
		GuestCode:     "welcome",
		UploadBackend: UploadLocal,
		OpenAIBaseURL: "https://api.openai.com",
		OpenAIModel:   "gpt-4o-mini",
		LogLevel:      "info",
		LogFormat:     "console",
	}
}

// Load builds the configuration for args (without the program name).
func Load(args []string) (*Config, error) {
	cfg := Defaults()

	path := configFlag(args)
	if path == "" {
		path = os.Getenv("PLANNER_CONFIG")
	}
	if path != "" {
		if err := cfg.overlayFile(path); err != nil {
			return nil, err
		}
		cfg.ConfigFile = path
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	fs := cfg.flagSet()
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if cfg.UploadDir == "" {
		cfg.UploadDir = strings.TrimRight(cfg.DataDir, "/") + "/uploads"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) overlayFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.Addr = getEnv("PLANNER_ADDR", c.Addr)
	c.DataDir = getEnv("PLANNER_DATA_DIR", c.DataDir)
	c.StaticDir = getEnv("PLANNER_STATIC_DIR", c.StaticDir)
	c.Storage = getEnv("PLANNER_STORAGE", c.Storage)
	c.RedisAddr = getEnv("REDIS_ADDR", c.RedisAddr)
	c.RedisChannel = getEnv("REDIS_CHANNEL", c.RedisChannel)
	c.StateKey = getEnv("PLANNER_STATE_KEY", c.StateKey)
	c.PlannerCode = getEnv("PLANNER_CODE", c.PlannerCode)
	c.GuestCode = getEnv("GUEST_CODE", c.GuestCode)
	c.UploadBackend = getEnv("PLANNER_UPLOAD_BACKEND", c.UploadBackend)
	c.UploadDir = getEnv("PLANNER_UPLOAD_DIR", c.UploadDir)
	c.GCSBucket = getEnv("GCS_BUCKET", c.GCSBucket)
	c.GCSCredentialsFile = getEnv("GOOGLE_APPLICATION_CREDENTIALS", c.GCSCredentialsFile)
	c.PublicBaseURL = getEnv("PUBLIC_BASE_URL", c.PublicBaseURL)
	c.OpenAIAPIKey = getEnv("OPENAI_API_KEY", c.OpenAIAPIKey)
	c.OpenAIBaseURL = getEnv("OPENAI_BASE_URL", c.OpenAIBaseURL)
	c.OpenAIModel = getEnv("OPENAI_MODEL", c.OpenAIModel)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("LOG_FORMAT", c.LogFormat)
	if v := getEnv("ALLOWED_ORIGINS", ""); v != "" {
		c.AllowedOrigins = splitList(v)
	}

	var err error
	if c.SyncInterval, err = getEnvDuration("PLANNER_SYNC_INTERVAL", c.SyncInterval); err != nil {
		return err
	}
	if c.PollInterval, err = getEnvDuration("PLANNER_POLL_INTERVAL", c.PollInterval); err != nil {
		return err
	}
	return nil
}

func (c *Config) flagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("planner", flag.ContinueOnError)
	fs.StringVar(&c.ConfigFile, "config", c.ConfigFile, "Optional YAML config file")
	fs.StringVar(&c.Addr, "addr", c.Addr, "HTTP server address")
	fs.StringVar(&c.DataDir, "data", c.DataDir, "Data directory for the SQLite database and local uploads")
	fs.StringVar(&c.StaticDir, "static", c.StaticDir, "Directory for static frontend files")
	fs.StringVar(&c.Storage, "storage", c.Storage, "State storage backend: sqlite, redis or memory")
	fs.StringVar(&c.RedisAddr, "redis-addr", c.RedisAddr, "Redis address for -storage=redis")
	fs.StringVar(&c.RedisChannel, "redis-channel", c.RedisChannel, "Redis channel for change notifications")
	fs.StringVar(&c.StateKey, "state-key", c.StateKey, "Storage key of the shared state")
	fs.DurationVar(&c.SyncInterval, "sync-interval", c.SyncInterval, "Interval between automatic persists")
	fs.DurationVar(&c.PollInterval, "poll-interval", c.PollInterval, "SQLite change polling interval")
	fs.StringVar(&c.PlannerCode, "planner-code", c.PlannerCode, "Access code for the planner")
	fs.StringVar(&c.GuestCode, "guest-code", c.GuestCode, "Access code for the guest preview")
	fs.StringVar(&c.UploadBackend, "upload-backend", c.UploadBackend, "Upload backend: local or gcs")
	fs.StringVar(&c.UploadDir, "upload-dir", c.UploadDir, "Directory for local uploads")
	fs.StringVar(&c.GCSBucket, "gcs-bucket", c.GCSBucket, "Bucket for -upload-backend=gcs")
	fs.StringVar(&c.PublicBaseURL, "public-base-url", c.PublicBaseURL, "Public base URL prefixed to upload URLs")
	fs.StringVar(&c.OpenAIModel, "openai-model", c.OpenAIModel, "Model used for suggestions")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level: debug, info, warn, error")
	fs.StringVar(&c.LogFormat, "log-format", c.LogFormat, "Log format: console or json")
	fs.Func("allowed-origins", "Comma-separated CORS origins", func(v string) error {
		c.AllowedOrigins = splitList(v)
		return nil
	})
	fs.BoolVar(&c.HealthCheck, "health-check", false, "Run health check and exit")
	return fs
}

// Validate reports configuration that cannot work.
func (c *Config) Validate() error {
	var errs []error
	switch c.Storage {
	case StorageSQLite, StorageMemory:
	case StorageRedis:
		if c.RedisAddr == "" {
			errs = append(errs, errors.New("redis storage needs -redis-addr or REDIS_ADDR"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage backend %q", c.Storage))
	}
	switch c.UploadBackend {
	case UploadLocal:
	case UploadGCS:
		if c.GCSBucket == "" {
			errs = append(errs, errors.New("gcs uploads need -gcs-bucket or GCS_BUCKET"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown upload backend %q", c.UploadBackend))
	}
	if c.SyncInterval < time.Second {
		errs = append(errs, fmt.Errorf("sync interval %s is below one second", c.SyncInterval))
	}
	if strings.TrimSpace(c.PlannerCode) == "" {
		errs = append(errs, errors.New("planner code must not be empty"))
	}
	return errors.Join(errs...)
}

// configFlag finds -config in args before the flag set is parsed, so the
// file can sit below env and flags in precedence.
func configFlag(args []string) string {
	for i, a := range args {
		name, value, hasValue := strings.Cut(strings.TrimLeft(a, "-"), "=")
		if !strings.HasPrefix(a, "-") || name != "config" {
			continue
		}
		if hasValue {
			return value
		}
		if i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", key, err)
	}
	return d, nil
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
