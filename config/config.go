package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type HTTP struct {
	Addr         string        `yaml:"addr"`         // ":8080"
	ReadTimeout  time.Duration `yaml:"readTimeout"`  // "10s"
	WriteTimeout time.Duration `yaml:"writeTimeout"` // "15s"
	IdleTimeout  time.Duration `yaml:"idleTimeout"`  // "60s"
	// Upper bound for a single handler, applied by chi middleware.Timeout.
	HandlerTimeout time.Duration `yaml:"handlerTimeout"`
}

type Logging struct {
	Env       string `yaml:"env"`       // dev|stage|prod
	Service   string `yaml:"service"`   // signaling-service
	Version   string `yaml:"version"`   // v0.1.0
	Backend   string `yaml:"backend"`   // std|zap
	AddSource bool   `yaml:"addSource"` // false|true
	Debug     bool   `yaml:"debug"`     // false|true
}

type Redis struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"poolSize"`
}

type Store struct {
	Driver        string        `yaml:"driver"` // redis|memory
	KeyPrefix     string        `yaml:"keyPrefix"`
	SweepInterval time.Duration `yaml:"sweepInterval"` // memory driver only
	Redis         Redis         `yaml:"redis"`
}

type Auth struct {
	JWTSecret string        `yaml:"jwtSecret"`
	Issuer    string        `yaml:"issuer"`
	Audience  string        `yaml:"audience"`
	ClockSkew time.Duration `yaml:"clockSkew"`
}

type Encryption struct {
	Enabled bool   `yaml:"enabled"`
	Salt    string `yaml:"salt"`
}

type Rooms struct {
	TTL        time.Duration `yaml:"ttl"`        // 1h, sliding
	StaleAfter time.Duration `yaml:"staleAfter"` // 5m
	MailboxTTL time.Duration `yaml:"mailboxTTL"` // 30s
}

type Limit struct {
	Limit  int64         `yaml:"limit"`
	Window time.Duration `yaml:"window"`
}

type RateLimits struct {
	Create    Limit `yaml:"create"`
	Join      Limit `yaml:"join"`
	Signal    Limit `yaml:"signal"`
	Heartbeat Limit `yaml:"heartbeat"`
}

type Events struct {
	Brokers  []string `yaml:"brokers"`
	Topic    string   `yaml:"topic"`
	ClientID string   `yaml:"clientID"`
}

type Metrics struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type CORS struct {
	AllowedOrigins []string `yaml:"allowedOrigins"`
}

type Config struct {
	HTTP       HTTP       `yaml:"http"`
	Logging    Logging    `yaml:"logging"`
	Store      Store      `yaml:"store"`
	Auth       Auth       `yaml:"auth"`
	Encryption Encryption `yaml:"encryption"`
	Rooms      Rooms      `yaml:"rooms"`
	RateLimits RateLimits `yaml:"rateLimits"`
	Events     Events     `yaml:"events"`
	Metrics    Metrics    `yaml:"metrics"`
	CORS       CORS       `yaml:"cors"`
}

// LoadConfig reads the file named by CONFIG_PATH (./config/config.yaml by default).
func LoadConfig() (*Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "./config/config.yaml"
	}
	return Load(path)
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse expands ${VAR} references before decoding, so secrets can stay in the environment.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal yaml: %w", err)
	}
	cfg.setDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}
	c.HTTP.ReadTimeout = durationOr(c.HTTP.ReadTimeout, 10*time.Second)
	c.HTTP.WriteTimeout = durationOr(c.HTTP.WriteTimeout, 15*time.Second)
	c.HTTP.IdleTimeout = durationOr(c.HTTP.IdleTimeout, 60*time.Second)
	c.HTTP.HandlerTimeout = durationOr(c.HTTP.HandlerTimeout, 10*time.Second)

	if c.Logging.Service == "" {
		c.Logging.Service = "signaling-service"
	}
	if c.Logging.Env == "" {
		c.Logging.Env = "dev"
	}
	if c.Logging.Version == "" {
		c.Logging.Version = "v0.1.0"
	}
	if c.Logging.Backend == "" {
		c.Logging.Backend = "std"
	}

	if c.Store.Driver == "" {
		c.Store.Driver = "redis"
	}
	if c.Store.KeyPrefix == "" {
		c.Store.KeyPrefix = "signaling:"
	}
	c.Store.SweepInterval = durationOr(c.Store.SweepInterval, 30*time.Second)
	if c.Store.Redis.Addr == "" {
		c.Store.Redis.Addr = "localhost:6379"
	}
	if c.Store.Redis.PoolSize == 0 {
		c.Store.Redis.PoolSize = 20
	}

	if c.Auth.Issuer == "" {
		c.Auth.Issuer = "cwrk-planet"
	}
	c.Auth.ClockSkew = durationOr(c.Auth.ClockSkew, 30*time.Second)

	if c.Encryption.Salt == "" {
		c.Encryption.Salt = "signaling-response-v1"
	}

	c.Rooms.TTL = durationOr(c.Rooms.TTL, time.Hour)
	c.Rooms.StaleAfter = durationOr(c.Rooms.StaleAfter, 5*time.Minute)
	c.Rooms.MailboxTTL = durationOr(c.Rooms.MailboxTTL, 30*time.Second)

	c.RateLimits.Create = limitOr(c.RateLimits.Create, Limit{Limit: 5, Window: time.Hour})
	c.RateLimits.Join = limitOr(c.RateLimits.Join, Limit{Limit: 20, Window: time.Hour})
	c.RateLimits.Signal = limitOr(c.RateLimits.Signal, Limit{Limit: 50, Window: time.Hour})
	c.RateLimits.Heartbeat = limitOr(c.RateLimits.Heartbeat, Limit{Limit: 100, Window: time.Hour})

	if c.Events.Topic == "" {
		c.Events.Topic = "signaling.room-events"
	}
	if c.Events.ClientID == "" {
		c.Events.ClientID = c.Logging.Service
	}

	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
}

func (c *Config) validate() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwtSecret is required")
	}
	switch c.Store.Driver {
	case "redis", "memory":
	default:
		return fmt.Errorf("store.driver: unsupported value %q", c.Store.Driver)
	}
	if c.Rooms.StaleAfter >= c.Rooms.TTL {
		return errors.New("rooms.staleAfter must be shorter than rooms.ttl")
	}
	if c.Rooms.MailboxTTL > c.Rooms.TTL {
		return errors.New("rooms.mailboxTTL must not exceed rooms.ttl")
	}
	for name, l := range map[string]Limit{
		"create":    c.RateLimits.Create,
		"join":      c.RateLimits.Join,
		"signal":    c.RateLimits.Signal,
		"heartbeat": c.RateLimits.Heartbeat,
	} {
		if l.Limit < 0 || l.Window < time.Second {
			return fmt.Errorf("rateLimits.%s: limit must be >= 0 and window >= 1s", name)
		}
	}
	if c.Events.Topic == "" && len(c.Events.Brokers) > 0 {
		return errors.New("events.topic is required when brokers are set")
	}
	return nil
}

func durationOr(v, def time.Duration) time.Duration {
	if v > 0 {
		return v
	}
	return def
}

func limitOr(v, def Limit) Limit {
	if v.Limit == 0 && v.Window == 0 {
		return def
	}
	if v.Window == 0 {
		v.Window = def.Window
	}
	return v
}
