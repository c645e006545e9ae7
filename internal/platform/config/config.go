// Package config loads process configuration from an optional YAML file and
// environment overrides so main stays lean.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete process configuration.
type Config struct {
	Server    Server      `yaml:"server"`
	Database  Database    `yaml:"database"`
	Directory Directory   `yaml:"directory"`
	Sync      Sync        `yaml:"sync"`
	Redis     RedisConfig `yaml:"redis"`
	Kafka     Kafka       `yaml:"kafka"`
	Log       Log         `yaml:"log"`
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `yaml:"addr"`
	JWTSigningKey   string        `yaml:"jwt_signing_key"`
	JWTIssuer       string        `yaml:"jwt_issuer"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Database points at the PostgreSQL system of record. An empty URL selects
// the in-memory stores.
type Database struct {
	URL             string        `yaml:"url"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// Directory is the LDAP endpoint and bind account.
type Directory struct {
	Host               string        `yaml:"host"`
	Port               int           `yaml:"port"`
	UseTLS             bool          `yaml:"use_tls"`
	InsecureSkipVerify bool          `yaml:"insecure_skip_verify"`
	Domain             string        `yaml:"domain"`
	BindUser           string        `yaml:"bind_user"`
	BindPassword       string        `yaml:"bind_password"`
	BaseDN             string        `yaml:"base_dn"`
	ConnectTimeout     time.Duration `yaml:"connect_timeout"`
	ReadTimeout        time.Duration `yaml:"read_timeout"`
	MaxRetries         int           `yaml:"max_retries"`
	RetryDelay         time.Duration `yaml:"retry_delay"`
	ModifyRate         float64       `yaml:"modify_rate"`
}

// Sync controls how and when reconciliation runs.
type Sync struct {
	// Interval between scheduled runs in serve mode; zero disables the scheduler.
	Interval            time.Duration `yaml:"interval"`
	TimezoneOffsetHours int           `yaml:"timezone_offset_hours"`
	MatchByEmployeeID   bool          `yaml:"match_by_employee_id"`
	LockTTL             time.Duration `yaml:"lock_ttl"`
}

// RedisConfig enables the distributed run lock when URL is set.
type RedisConfig struct {
	URL          string        `yaml:"url"`
	PoolSize     int           `yaml:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// Kafka enables the audit outbox relay when Brokers is non-empty.
type Kafka struct {
	Brokers       []string      `yaml:"brokers"`
	Topic         string        `yaml:"topic"`
	ClientID      string        `yaml:"client_id"`
	RelayInterval time.Duration `yaml:"relay_interval"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		Server: Server{
			Addr:            ":8080",
			ShutdownTimeout: 15 * time.Second,
		},
		Database: Database{
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Directory: Directory{
			Port:           389,
			ConnectTimeout: 30 * time.Second,
			ReadTimeout:    30 * time.Second,
			MaxRetries:     3,
			RetryDelay:     5 * time.Second,
		},
		Sync: Sync{
			TimezoneOffsetHours: 7,
			LockTTL:             30 * time.Minute,
		},
		Redis: RedisConfig{
			PoolSize:     10,
			MinIdleConns: 1,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: Kafka{
			Topic:         "hrsync.audit",
			ClientID:      "hrsync",
			RelayInterval: 5 * time.Second,
		},
		Log: Log{Level: "info", Format: "json"},
	}
}

// Load reads defaults, then the YAML file at path (if path is not empty),
// then environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %q: %w", path, err)
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from environment variables read through lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	e := envReader{lookup: lookup}

	e.str("HRSYNC_ADDR", &c.Server.Addr)
	e.str("JWT_SIGNING_KEY", &c.Server.JWTSigningKey)
	e.str("JWT_ISSUER", &c.Server.JWTIssuer)

	e.str("DATABASE_URL", &c.Database.URL)

	e.str("AD_SERVER", &c.Directory.Host)
	e.int("AD_PORT", &c.Directory.Port)
	e.bool("AD_USE_SSL", &c.Directory.UseTLS)
	e.bool("AD_TLS_INSECURE", &c.Directory.InsecureSkipVerify)
	e.str("AD_DOMAIN", &c.Directory.Domain)
	e.str("AD_USER", &c.Directory.BindUser)
	e.str("AD_PASSWORD", &c.Directory.BindPassword)
	e.str("AD_BASE_DN", &c.Directory.BaseDN)
	e.duration("AD_CONNECTION_TIMEOUT", &c.Directory.ConnectTimeout)
	e.duration("AD_READ_TIMEOUT", &c.Directory.ReadTimeout)
	e.int("AD_MAX_RETRIES", &c.Directory.MaxRetries)
	e.duration("AD_RETRY_DELAY", &c.Directory.RetryDelay)
	e.float("AD_MODIFY_RATE", &c.Directory.ModifyRate)

	e.duration("SYNC_INTERVAL", &c.Sync.Interval)
	e.int("SYNC_TZ_OFFSET_HOURS", &c.Sync.TimezoneOffsetHours)
	e.bool("SYNC_MATCH_BY_EMPLOYEE_ID", &c.Sync.MatchByEmployeeID)

	e.str("REDIS_URL", &c.Redis.URL)

	if v, ok := lookup("KAFKA_BROKERS"); ok {
		c.Kafka.Brokers = splitList(v)
	}
	e.str("KAFKA_TOPIC", &c.Kafka.Topic)

	e.str("LOG_LEVEL", &c.Log.Level)
	e.str("LOG_FORMAT", &c.Log.Format)

	return errors.Join(e.errs...)
}

// Validate reports settings that make a reconciliation run impossible.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Directory.Host) == "" {
		errs = append(errs, errors.New("directory host is required (AD_SERVER)"))
	}
	if strings.TrimSpace(c.Directory.BaseDN) == "" {
		errs = append(errs, errors.New("directory base DN is required (AD_BASE_DN)"))
	}
	if c.Directory.Port <= 0 || c.Directory.Port > 65535 {
		errs = append(errs, fmt.Errorf("directory port %d out of range", c.Directory.Port))
	}
	if c.Directory.MaxRetries < 1 {
		errs = append(errs, errors.New("directory max retries must be at least 1"))
	}
	if c.Sync.TimezoneOffsetHours < -12 || c.Sync.TimezoneOffsetHours > 14 {
		errs = append(errs, fmt.Errorf("timezone offset %d out of range", c.Sync.TimezoneOffsetHours))
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		errs = append(errs, errors.New("kafka topic is required when brokers are set"))
	}
	return errors.Join(errs...)
}

type envReader struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (e *envReader) get(key string) (string, bool) {
	v, ok := e.lookup(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func (e *envReader) str(key string, dst *string) {
	if v, ok := e.get(key); ok {
		*dst = v
	}
}

func (e *envReader) int(key string, dst *int) {
	if v, ok := e.get(key); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = n
	}
}

func (e *envReader) float(key string, dst *float64) {
	if v, ok := e.get(key); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = f
	}
}

func (e *envReader) bool(key string, dst *bool) {
	if v, ok := e.get(key); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = b
	}
}

// duration accepts Go durations ("30s") or a bare number of seconds ("30").
func (e *envReader) duration(key string, dst *time.Duration) {
	if v, ok := e.get(key); ok {
		if secs, err := strconv.Atoi(v); err == nil {
			*dst = time.Duration(secs) * time.Second
			return
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = d
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
