package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/chatwarden/chatwarden-backend/pkg/database"
	"github.com/chatwarden/chatwarden-backend/pkg/logger"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config 애플리케이션 설정
//
// Load 순서: 기본값 → YAML 파일 (있으면) → 환경 변수
type Config struct {
	App        AppConfig        `yaml:"app"        envconfig:"APP"`
	Server     ServerConfig     `yaml:"server"     envconfig:"SERVER"`
	Database   DatabaseConfig   `yaml:"database"   envconfig:"DB"`
	Redis      RedisConfig      `yaml:"redis"      envconfig:"REDIS"`
	Security   SecurityConfig   `yaml:"security"`
	Moderation ModerationConfig `yaml:"moderation"`
	Audit      AuditConfig      `yaml:"audit"      envconfig:"AUDIT"`
	Cache      CacheConfig      `yaml:"cache"`
	RateLimit  RateLimitConfig  `yaml:"rateLimit"`
	Chat       ChatConfig       `yaml:"chat"`
}

type AppConfig struct {
	Env string `yaml:"env" envconfig:"ENV"`
}

type ServerConfig struct {
	Port int `yaml:"port" envconfig:"PORT"`
}

type DatabaseConfig struct {
	Driver          string `yaml:"driver"          envconfig:"DRIVER"`
	File            string `yaml:"file"            envconfig:"FILE"`
	DSN             string `yaml:"dsn"             envconfig:"DSN"`
	MaxIdleConns    int    `yaml:"maxIdleConns"    envconfig:"MAX_IDLE_CONNS"`
	MaxOpenConns    int    `yaml:"maxOpenConns"    envconfig:"MAX_OPEN_CONNS"`
	ConnMaxLifetime int    `yaml:"connMaxLifetime" envconfig:"CONN_MAX_LIFETIME"` // seconds
}

type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"  envconfig:"ENABLED"`
	Host     string `yaml:"host"     envconfig:"HOST"`
	Port     int    `yaml:"port"     envconfig:"PORT"`
	Password string `yaml:"password" envconfig:"PASSWORD"`
	DB       int    `yaml:"db"       envconfig:"DB"`
	PoolSize int    `yaml:"poolSize" envconfig:"POOL_SIZE"`
}

type SecurityConfig struct {
	EncryptionKey      string `yaml:"encryptionKey"      envconfig:"ENCRYPTION_KEY"`
	ServiceTokenSecret string `yaml:"serviceTokenSecret" envconfig:"SERVICE_TOKEN_SECRET"`
}

// ModerationConfig durations are in minutes
type ModerationConfig struct {
	VoteThreshold int `yaml:"voteThreshold" envconfig:"MUTE_VOTE_THRESHOLD"`
	VoteWindow    int `yaml:"voteWindow"    envconfig:"MUTE_VOTE_WINDOW"`
	MuteDuration  int `yaml:"muteDuration"  envconfig:"MUTE_DURATION"`
	// nil follows VoteWindow, 0 disables the cooldown
	EscalationCooldown *int   `yaml:"escalationCooldown" envconfig:"ESCALATION_COOLDOWN"`
	OwnerID            int64  `yaml:"ownerId"            envconfig:"OWNER_ID"`
	OwnerNick          string `yaml:"ownerNick"          envconfig:"OWNER_NICK"`
}

type AuditConfig struct {
	RetentionDays int `yaml:"retentionDays" envconfig:"RETENTION_DAYS"`
	PurgeInterval int `yaml:"purgeInterval" envconfig:"PURGE_INTERVAL"` // minutes
}

type CacheConfig struct {
	Size     int `yaml:"size"     envconfig:"CACHE_SIZE"`
	TTL      int `yaml:"ttl"      envconfig:"CACHE_TTL"` // seconds
	PollSize int `yaml:"pollSize" envconfig:"POLL_CACHE_SIZE"`
}

type RateLimitConfig struct {
	CommandsPerMinute int `yaml:"commandsPerMinute" envconfig:"COMMAND_RATE_PER_MINUTE"`
	MessagesPerMinute int `yaml:"messagesPerMinute" envconfig:"MESSAGE_RATE_PER_MINUTE"`
}

type ChatConfig struct {
	RulesText string `yaml:"rulesText" envconfig:"RULES_TEXT"`
	AboutText string `yaml:"aboutText" envconfig:"ABOUT_TEXT"`
}

// Default returns the built-in defaults
func Default() *Config {
	return &Config{
		App:      AppConfig{Env: "development"},
		Server:   ServerConfig{Port: 8080},
		Database: DatabaseConfig{Driver: database.DriverSQLite, File: "chatbot.db"},
		Redis:    RedisConfig{Host: "localhost", Port: 6379, PoolSize: 10},
		Moderation: ModerationConfig{
			VoteThreshold: 5,
			VoteWindow:    60,
			MuteDuration:  30,
			OwnerNick:     "owner",
		},
		Audit:     AuditConfig{RetentionDays: 30, PurgeInterval: 60},
		Cache:     CacheConfig{Size: 1000, TTL: 300, PollSize: 100},
		RateLimit: RateLimitConfig{CommandsPerMinute: 10, MessagesPerMinute: 30},
	}
}

// Load reads defaults, then the YAML file at path if it exists, then the environment
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		buf, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(buf, cfg); err != nil {
				return nil, fmt.Errorf("parse config file %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("load config from environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and enum values
func (c *Config) Validate() error {
	var errs []error
	switch c.Database.Driver {
	case database.DriverSQLite, database.DriverMySQL, database.DriverPostgres:
	default:
		errs = append(errs, fmt.Errorf("unknown DB_DRIVER %q", c.Database.Driver))
	}
	if c.Database.Driver != database.DriverSQLite && c.Database.DSN == "" {
		errs = append(errs, fmt.Errorf("DB_DSN is required for %s", c.Database.Driver))
	}
	if c.Moderation.VoteThreshold < 1 {
		errs = append(errs, errors.New("MUTE_VOTE_THRESHOLD must be at least 1"))
	}
	if c.Moderation.VoteWindow < 1 {
		errs = append(errs, errors.New("MUTE_VOTE_WINDOW must be at least 1 minute"))
	}
	if c.Moderation.MuteDuration < 1 || c.Moderation.MuteDuration > 1440 {
		errs = append(errs, errors.New("MUTE_DURATION must be 1-1440 minutes"))
	}
	if c.Moderation.EscalationCooldown != nil && *c.Moderation.EscalationCooldown < 0 {
		errs = append(errs, errors.New("ESCALATION_COOLDOWN must not be negative"))
	}
	if c.Audit.RetentionDays < 1 {
		errs = append(errs, errors.New("AUDIT_RETENTION_DAYS must be at least 1"))
	}
	if c.Cache.Size < 1 || c.Cache.PollSize < 1 || c.Cache.TTL < 1 {
		errs = append(errs, errors.New("cache sizes and CACHE_TTL must be positive"))
	}
	return errors.Join(errs...)
}

// IsDevelopment reports whether APP_ENV selects a development profile
func (c *Config) IsDevelopment() bool {
	switch c.App.Env {
	case "development", "dev", "local":
		return true
	}
	return false
}

func (m ModerationConfig) Window() time.Duration {
	return time.Duration(m.VoteWindow) * time.Minute
}

func (m ModerationConfig) Mute() time.Duration {
	return time.Duration(m.MuteDuration) * time.Minute
}

// Cooldown defaults to the vote window
func (m ModerationConfig) Cooldown() time.Duration {
	if m.EscalationCooldown == nil {
		return m.Window()
	}
	return time.Duration(*m.EscalationCooldown) * time.Minute
}

func (a AuditConfig) Retention() time.Duration {
	return time.Duration(a.RetentionDays) * 24 * time.Hour
}

func (a AuditConfig) Interval() time.Duration {
	return time.Duration(a.PurgeInterval) * time.Minute
}

func (c CacheConfig) TTLDuration() time.Duration {
	return time.Duration(c.TTL) * time.Second
}

// LogResolved 최종 설정 출력 (비밀 값은 설정 여부만)
func LogResolved(cfg *Config) {
	logger.GetLogger().Info().
		Str("env", cfg.App.Env).
		Int("port", cfg.Server.Port).
		Str("db_driver", cfg.Database.Driver).
		Bool("redis", cfg.Redis.Enabled).
		Bool("encryption_key_set", cfg.Security.EncryptionKey != "").
		Bool("service_auth", cfg.Security.ServiceTokenSecret != "").
		Int("vote_threshold", cfg.Moderation.VoteThreshold).
		Dur("vote_window", cfg.Moderation.Window()).
		Dur("escalation_cooldown", cfg.Moderation.Cooldown()).
		Int("audit_retention_days", cfg.Audit.RetentionDays).
		Msg("config resolved")
}

// Options converts the database section for database.Open
func (d DatabaseConfig) Options() database.Options {
	return database.Options{
		Driver:          d.Driver,
		DSN:             d.DSN,
		File:            d.File,
		MaxIdleConns:    d.MaxIdleConns,
		MaxOpenConns:    d.MaxOpenConns,
		ConnMaxLifetime: time.Duration(d.ConnMaxLifetime) * time.Second,
	}
}
