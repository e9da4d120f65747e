package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port         int           `yaml:"port"`
		ReadTimeout  time.Duration `yaml:"readTimeout"`
		WriteTimeout time.Duration `yaml:"writeTimeout"`
		IdleTimeout  time.Duration `yaml:"idleTimeout"`
		MaxBodyBytes int64         `yaml:"maxBodyBytes"`
	} `yaml:"server"`

	Log struct {
		Level       string `yaml:"level"`
		Development bool   `yaml:"development"`
	} `yaml:"log"`

	Session struct {
		AnalyzeDelay time.Duration `yaml:"analyzeDelay"`
		TypingDelay  time.Duration `yaml:"typingDelay"`
		TypingJitter time.Duration `yaml:"typingJitter"`
		IdleTTL      time.Duration `yaml:"idleTTL"`
	} `yaml:"session"`

	Scorer struct {
		GrammarWeighting bool `yaml:"grammarWeighting"`
	} `yaml:"scorer"`

	Chat struct {
		Provider string `yaml:"provider"` // rules | openai
	} `yaml:"chat"`

	OpenAI struct {
		APIKey  string `yaml:"apiKey"`
		Model   string `yaml:"model"`
		BaseURL string `yaml:"baseURL"`
	} `yaml:"openai"`

	History struct {
		Driver      string `yaml:"driver"` // memory | mysql | postgres | none
		MemoryLimit int    `yaml:"memoryLimit"`
	} `yaml:"history"`

	Database struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslMode"`
	} `yaml:"database"`

	Minio struct {
		Enabled    bool   `yaml:"enabled"`
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`

	CORS struct {
		AllowedOrigins []string `yaml:"allowedOrigins"`
	} `yaml:"cors"`

	RateLimit struct {
		Capacity   int `yaml:"capacity"`
		RefillRate int `yaml:"refillRate"`
	} `yaml:"rateLimit"`

	// client name -> API key; empty disables auth
	APIKeys map[string]string `yaml:"apiKeys"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

// Load baca file config.yaml over Default(). A missing file is not an error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	// decode di atas default, supaya nilai nol eksplisit (analyzeDelay: 0s) tetap dipakai
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.applyDriverDefaults()
	cfg.expandSecrets()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDriverDefaults fills the database port for the chosen history driver.
func (c *Config) applyDriverDefaults() {
	if c.Database.Port != 0 {
		return
	}
	switch strings.ToLower(c.History.Driver) {
	case "mysql":
		c.Database.Port = 3306
	case "postgres":
		c.Database.Port = 5432
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 15 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60 * time.Second
	}
	if c.Server.MaxBodyBytes == 0 {
		c.Server.MaxBodyBytes = 1 << 20
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Session.AnalyzeDelay == 0 {
		c.Session.AnalyzeDelay = 2 * time.Second
	}
	if c.Session.TypingDelay == 0 {
		c.Session.TypingDelay = time.Second
	}
	if c.Session.TypingJitter == 0 {
		c.Session.TypingJitter = time.Second
	}
	if c.Session.IdleTTL == 0 {
		c.Session.IdleTTL = 30 * time.Minute
	}
	if c.Chat.Provider == "" {
		c.Chat.Provider = "rules"
	}
	if c.History.Driver == "" {
		c.History.Driver = "memory"
	}
	if c.History.MemoryLimit == 0 {
		c.History.MemoryLimit = 10000
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if len(c.CORS.AllowedOrigins) == 0 {
		c.CORS.AllowedOrigins = []string{"*"}
	}
	if c.RateLimit.Capacity == 0 {
		c.RateLimit.Capacity = 60
	}
	if c.RateLimit.RefillRate == 0 {
		c.RateLimit.RefillRate = 1
	}
}

// Expand environment variables in secrets, e.g. apiKey: ${OPENAI_API_KEY}
func (c *Config) expandSecrets() {
	c.OpenAI.APIKey = os.ExpandEnv(c.OpenAI.APIKey)
	c.Database.Password = os.ExpandEnv(c.Database.Password)
	c.Minio.AccessKey = os.ExpandEnv(c.Minio.AccessKey)
	c.Minio.SecretKey = os.ExpandEnv(c.Minio.SecretKey)
	for k, v := range c.APIKeys {
		c.APIKeys[k] = os.ExpandEnv(v)
	}
}

func (c *Config) Validate() error {
	switch strings.ToLower(c.Chat.Provider) {
	case "rules":
	case "openai":
		if c.OpenAI.APIKey == "" {
			return fmt.Errorf("chat.provider=openai requires openai.apiKey")
		}
	default:
		return fmt.Errorf("unknown chat.provider %q (allowed: rules, openai)", c.Chat.Provider)
	}
	switch strings.ToLower(c.History.Driver) {
	case "memory", "mysql", "postgres", "none":
	default:
		return fmt.Errorf("unknown history.driver %q (allowed: memory, mysql, postgres, none)", c.History.Driver)
	}
	if c.Minio.Enabled && (c.Minio.Endpoint == "" || c.Minio.BucketName == "") {
		return fmt.Errorf("minio.enabled requires endpoint and bucketName")
	}
	if c.Session.AnalyzeDelay < 0 || c.Session.TypingDelay < 0 || c.Session.TypingJitter < 0 {
		return fmt.Errorf("session delays must not be negative")
	}
	if c.Session.IdleTTL < 0 {
		return fmt.Errorf("session.idleTTL must not be negative")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("server.maxBodyBytes must be positive")
	}
	if c.RateLimit.Capacity <= 0 || c.RateLimit.RefillRate < 0 {
		return fmt.Errorf("rateLimit.capacity must be positive and refillRate not negative")
	}
	return nil
}

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// Helper untuk build DSN Postgres (lib/pq key=value form)
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}
