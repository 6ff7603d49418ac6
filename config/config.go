package config

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Astemirdum/fabtrack/pkg/kafka"
	"github.com/Astemirdum/fabtrack/pkg/logger"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
)

type HTTPServer struct {
	Host         string        `yaml:"host" envconfig:"HTTP_HOST" default:"0.0.0.0"`
	Port         string        `yaml:"port" envconfig:"HTTP_PORT" default:"8080"`
	ReadTimeout  time.Duration `yaml:"readTimeout" envconfig:"HTTP_READ" default:"15s"`
	WriteTimeout time.Duration `yaml:"writeTimeout" envconfig:"HTTP_WRITE"`
	// RPS limits requests per client IP; zero disables the limiter.
	RPS float64 `yaml:"rps" envconfig:"HTTP_RPS" default:"20"`
}

// Backend is the FabTrack REST API every page talks to.
type Backend struct {
	BaseURL string        `yaml:"baseURL" envconfig:"FABTRACK_API_BASE_URL" default:"http://localhost:5000"`
	Timeout time.Duration `yaml:"timeout" envconfig:"FABTRACK_API_TIMEOUT" default:"10s"`
}

const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

type Session struct {
	Store        string        `yaml:"store" envconfig:"SESSION_STORE" default:"memory"`
	TTL          time.Duration `yaml:"ttl" envconfig:"SESSION_TTL" default:"24h"`
	CookieSecure bool          `yaml:"cookieSecure" envconfig:"SESSION_COOKIE_SECURE"`
}

type Redis struct {
	Addr     string `yaml:"addr" envconfig:"REDIS_ADDR" default:"localhost:6379"`
	Password string `yaml:"-" json:"-" envconfig:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" envconfig:"REDIS_DB"`
}

type CSRF struct {
	Enable bool   `yaml:"enable" envconfig:"CSRF_ENABLE"`
	Key    string `yaml:"-" json:"-" envconfig:"CSRF_KEY"`
}

type Config struct {
	Server  HTTPServer   `yaml:"server"`
	Backend Backend      `yaml:"backend"`
	Session Session      `yaml:"session"`
	Redis   Redis        `yaml:"redis"`
	CSRF    CSRF         `yaml:"csrf"`
	Kafka   kafka.Config `yaml:"kafka"`
	Log     logger.Log   `yaml:"log"`
}

var (
	once sync.Once
	cfg  Config
)

// NewConfig reads config from environment once per process.
func NewConfig(ops ...Option) Config {
	once.Do(func() {
		c, err := Load(ops...)
		if err != nil {
			log.Fatal("NewConfig ", err)
		}
		cfg = c
		printConfig(cfg)
	})

	return cfg
}

// Load applies options and then the environment on top of them.
func Load(ops ...Option) (Config, error) {
	var c Config
	for _, op := range ops {
		op(&c)
	}
	if err := envconfig.Process("", &c); err != nil {
		return Config{}, errors.Wrap(err, "envconfig")
	}
	if err := c.validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) validate() error {
	switch c.Session.Store {
	case StoreMemory, StoreRedis:
	default:
		return errors.Errorf("unknown session store %q", c.Session.Store)
	}
	if c.CSRF.Enable && len(c.CSRF.Key) != 32 {
		return errors.New("CSRF_KEY must be 32 bytes")
	}
	if c.Kafka.Enable && len(c.Kafka.Addrs) == 0 {
		return errors.New("KAFKA_ADDRS is required when kafka is enabled")
	}
	return nil
}

func printConfig(cfg Config) {
	jscfg, _ := json.MarshalIndent(cfg, "", "	") //nolint:errcheck
	fmt.Println(string(jscfg))
}
