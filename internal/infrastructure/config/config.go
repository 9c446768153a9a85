package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	Log        LogConfig
	HTTP       HTTPConfig
	Sync       SyncConfig
	Security   SecurityConfig
	Automation AutomationConfig
	Backup     BackupConfig
	Storage    StorageConfig
	Telemetry  TelemetryConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// JWTConfig holds JWT settings
type JWTConfig struct {
	Secret                 string
	AccessTokenExpiration  time.Duration
	RefreshTokenExpiration time.Duration
	Issuer                 string
	RefreshSecret          string
	MaxRefreshCount        int
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout           time.Duration
	WriteTimeout          time.Duration
	IdleTimeout           time.Duration
	MaxHeaderBytes        int
	MaxBodySize           int64
	RateLimitEnabled      bool
	RateLimitRequests     int
	RateLimitWindow       time.Duration
	AuthRateLimitEnabled  bool
	AuthRateLimitRequests int
	AuthRateLimitWindow   time.Duration
	CORSAllowOrigins      []string
	CORSAllowMethods      []string
	CORSAllowHeaders      []string
	TrustedProxies        []string
}

// SyncConfig holds realtime change feed configuration
type SyncConfig struct {
	PollInterval time.Duration
	BatchSize    int
	Retention    time.Duration
}

// SecurityConfig holds security monitor configuration
type SecurityConfig struct {
	ScanInterval              time.Duration
	Window                    time.Duration
	FailedLoginThreshold      int64
	PermissionDeniedThreshold int64
	VolumeSigma               float64
	LockThreshold             int
	EventRetention            time.Duration
}

// AutomationConfig holds rule engine scheduler configuration
type AutomationConfig struct {
	Enabled      bool
	TickInterval time.Duration
}

// BackupConfig holds backup runner configuration
type BackupConfig struct {
	Dir           string
	UploadEnabled bool
	Retention     int // how many recent backups to keep
}

// StorageConfig holds S3-compatible object storage settings
type StorageConfig struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool
	CollectorEndpoint string
	SamplingRatio     float64
	ServiceName       string
	Insecure          bool
	DBTraceEnabled    bool
	DBSlowQueryThresh time.Duration
	ProfilerEnabled   bool
	ProfilerAddress   string
	LogsEnabled       bool
}

// section reads viper keys under a fixed prefix, so each config block
// below lists bare key names instead of repeating its section name.
type section struct {
	v      *viper.Viper
	prefix string
}

func (s section) str(key string) string        { return s.v.GetString(s.prefix + "." + key) }
func (s section) num(key string) int           { return s.v.GetInt(s.prefix + "." + key) }
func (s section) num64(key string) int64       { return s.v.GetInt64(s.prefix + "." + key) }
func (s section) flt(key string) float64       { return s.v.GetFloat64(s.prefix + "." + key) }
func (s section) flag(key string) bool         { return s.v.GetBool(s.prefix + "." + key) }
func (s section) dur(key string) time.Duration { return s.v.GetDuration(s.prefix + "." + key) }
func (s section) strSlice(key string) []string { return s.v.GetStringSlice(s.prefix + "." + key) }

// Load loads configuration from TOML file and environment variables.
// Priority (highest to lowest):
// 1. Environment variables with MARKETHUB_ prefix (e.g., MARKETHUB_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// no config file is fine, defaults and env vars apply
	}

	v.SetEnvPrefix("MARKETHUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	app := section{v, "app"}
	db := section{v, "database"}
	rds := section{v, "redis"}
	jwt := section{v, "jwt"}
	log := section{v, "log"}
	http := section{v, "http"}
	sync := section{v, "sync"}
	sec := section{v, "security"}
	auto := section{v, "automation"}
	bak := section{v, "backup"}
	sto := section{v, "storage"}
	tel := section{v, "telemetry"}

	cfg := &Config{
		App: AppConfig{
			Name: app.str("name"),
			Env:  app.str("env"),
			Port: app.str("port"),
		},
		Database: DatabaseConfig{
			Host:            db.str("host"),
			Port:            db.num("port"),
			User:            db.str("user"),
			Password:        db.str("password"),
			DBName:          db.str("dbname"),
			SSLMode:         db.str("sslmode"),
			MaxOpenConns:    db.num("max_open_conns"),
			MaxIdleConns:    db.num("max_idle_conns"),
			ConnMaxLifetime: db.num("conn_max_lifetime"),
			ConnMaxIdleTime: db.num("conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Host:     rds.str("host"),
			Port:     rds.num("port"),
			Password: rds.str("password"),
			DB:       rds.num("db"),
		},
		JWT: JWTConfig{
			Secret:                 jwt.str("secret"),
			AccessTokenExpiration:  jwt.dur("access_token_expiration"),
			RefreshTokenExpiration: jwt.dur("refresh_token_expiration"),
			Issuer:                 jwt.str("issuer"),
			RefreshSecret:          jwt.str("refresh_secret"),
			MaxRefreshCount:        jwt.num("max_refresh_count"),
		},
		Log: LogConfig{
			Level:  log.str("level"),
			Format: log.str("format"),
			Output: log.str("output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:           http.dur("read_timeout"),
			WriteTimeout:          http.dur("write_timeout"),
			IdleTimeout:           http.dur("idle_timeout"),
			MaxHeaderBytes:        http.num("max_header_bytes"),
			MaxBodySize:           http.num64("max_body_size"),
			RateLimitEnabled:      http.flag("rate_limit_enabled"),
			RateLimitRequests:     http.num("rate_limit_requests"),
			RateLimitWindow:       http.dur("rate_limit_window"),
			AuthRateLimitEnabled:  http.flag("auth_rate_limit_enabled"),
			AuthRateLimitRequests: http.num("auth_rate_limit_requests"),
			AuthRateLimitWindow:   http.dur("auth_rate_limit_window"),
			CORSAllowOrigins:      http.strSlice("cors_allow_origins"),
			CORSAllowMethods:      http.strSlice("cors_allow_methods"),
			CORSAllowHeaders:      http.strSlice("cors_allow_headers"),
			TrustedProxies:        http.strSlice("trusted_proxies"),
		},
		Sync: SyncConfig{
			PollInterval: sync.dur("poll_interval"),
			BatchSize:    sync.num("batch_size"),
			Retention:    sync.dur("retention"),
		},
		Security: SecurityConfig{
			ScanInterval:              sec.dur("scan_interval"),
			Window:                    sec.dur("window"),
			FailedLoginThreshold:      sec.num64("failed_login_threshold"),
			PermissionDeniedThreshold: sec.num64("permission_denied_threshold"),
			VolumeSigma:               sec.flt("volume_sigma"),
			LockThreshold:             sec.num("lock_threshold"),
			EventRetention:            sec.dur("event_retention"),
		},
		Automation: AutomationConfig{
			Enabled:      auto.flag("enabled"),
			TickInterval: auto.dur("tick_interval"),
		},
		Backup: BackupConfig{
			Dir:           bak.str("dir"),
			UploadEnabled: bak.flag("upload_enabled"),
			Retention:     bak.num("retention"),
		},
		Storage: StorageConfig{
			Endpoint:  sto.str("endpoint"),
			Region:    sto.str("region"),
			Bucket:    sto.str("bucket"),
			AccessKey: sto.str("access_key"),
			SecretKey: sto.str("secret_key"),
			UseSSL:    sto.flag("use_ssl"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           tel.flag("enabled"),
			CollectorEndpoint: tel.str("collector_endpoint"),
			SamplingRatio:     tel.flt("sampling_ratio"),
			ServiceName:       tel.str("service_name"),
			Insecure:          tel.flag("insecure"),
			DBTraceEnabled:    tel.flag("db_trace_enabled"),
			DBSlowQueryThresh: tel.dur("db_slow_query_threshold"),
			ProfilerEnabled:   tel.flag("profiler_enabled"),
			ProfilerAddress:   tel.str("profiler_address"),
			LogsEnabled:       tel.flag("logs_enabled"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// orDefault fills dst with def when dst holds its zero value. A zero in
// the environment therefore means "not set", never "literally zero".
func orDefault[T comparable](dst *T, def T) {
	var zero T
	if *dst == zero {
		*dst = def
	}
}

func applyDefaults(cfg *Config) {
	orDefault(&cfg.App.Name, "markethub-backend")
	orDefault(&cfg.App.Env, "development")
	orDefault(&cfg.App.Port, "8080")

	orDefault(&cfg.Database.Host, "localhost")
	orDefault(&cfg.Database.Port, 5432)
	orDefault(&cfg.Database.User, "postgres")
	orDefault(&cfg.Database.DBName, "markethub")
	orDefault(&cfg.Database.SSLMode, "disable")
	orDefault(&cfg.Database.MaxOpenConns, 25)
	orDefault(&cfg.Database.MaxIdleConns, 5)
	orDefault(&cfg.Database.ConnMaxLifetime, 60)
	orDefault(&cfg.Database.ConnMaxIdleTime, 30)

	orDefault(&cfg.Redis.Host, "localhost")
	orDefault(&cfg.Redis.Port, 6379)

	orDefault(&cfg.JWT.AccessTokenExpiration, 15*time.Minute)
	orDefault(&cfg.JWT.RefreshTokenExpiration, 168*time.Hour)
	orDefault(&cfg.JWT.Issuer, "markethub-backend")
	orDefault(&cfg.JWT.MaxRefreshCount, 10)

	orDefault(&cfg.Log.Level, "info")
	orDefault(&cfg.Log.Format, "console")
	orDefault(&cfg.Log.Output, "stdout")

	orDefault(&cfg.HTTP.ReadTimeout, 15*time.Second)
	orDefault(&cfg.HTTP.WriteTimeout, 15*time.Second)
	orDefault(&cfg.HTTP.IdleTimeout, 60*time.Second)
	orDefault(&cfg.HTTP.MaxHeaderBytes, 1<<20) // 1MB
	orDefault(&cfg.HTTP.MaxBodySize, 10<<20)   // 10MB
	orDefault(&cfg.HTTP.RateLimitRequests, 100)
	orDefault(&cfg.HTTP.RateLimitWindow, time.Minute)
	orDefault(&cfg.HTTP.AuthRateLimitRequests, 5)
	orDefault(&cfg.HTTP.AuthRateLimitWindow, time.Minute)
	// CORS origins deliberately have no wildcard fallback; an empty list
	// means cross-origin requests stay blocked until configured.
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "Authorization", "X-Request-ID"}
	}

	orDefault(&cfg.Sync.PollInterval, 5*time.Second)
	orDefault(&cfg.Sync.BatchSize, 200)
	orDefault(&cfg.Sync.Retention, 72*time.Hour)

	orDefault(&cfg.Security.ScanInterval, time.Minute)
	orDefault(&cfg.Security.Window, 15*time.Minute)
	orDefault(&cfg.Security.FailedLoginThreshold, 10)
	orDefault(&cfg.Security.PermissionDeniedThreshold, 20)
	orDefault(&cfg.Security.VolumeSigma, 3)
	orDefault(&cfg.Security.LockThreshold, 5)
	orDefault(&cfg.Security.EventRetention, 90*24*time.Hour)

	orDefault(&cfg.Automation.TickInterval, 30*time.Second)

	orDefault(&cfg.Backup.Dir, "/var/lib/markethub/backups")
	orDefault(&cfg.Backup.Retention, 14)

	orDefault(&cfg.Telemetry.CollectorEndpoint, "localhost:4317")
	orDefault(&cfg.Telemetry.SamplingRatio, 1.0)
	orDefault(&cfg.Telemetry.ServiceName, "markethub-backend")
	orDefault(&cfg.Telemetry.DBSlowQueryThresh, 200*time.Millisecond)
}

func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	if c.App.Env == "production" {
		if c.JWT.Secret == "" {
			return fmt.Errorf("jwt.secret is required in production")
		}
		if len(c.JWT.Secret) < 32 {
			return fmt.Errorf("jwt.secret must be at least 32 characters in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
		if c.Backup.UploadEnabled && c.Storage.Bucket == "" {
			return fmt.Errorf("storage.bucket is required when backup.upload_enabled is true")
		}
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// Addr returns the Redis address in host:port form
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}
