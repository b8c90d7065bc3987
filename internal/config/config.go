package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env         string         `yaml:"env" env:"APP_ENV" env-default:"local" json:"-"`
	DatabaseDSN string         `yaml:"database_dsn" env:"DATABASE_URL" env-required:"true" json:"-"`
	HTTPServer  HTTPServer     `yaml:"http_server" json:"-"`
	App         AppConfig      `yaml:"app" json:"app"`
	Messages    MessagesConfig `yaml:"messages" json:"messages"`
	Typing      TypingConfig   `yaml:"typing" json:"typing"`
	Uploads     UploadsConfig  `yaml:"uploads" json:"uploads"`
}

type AppConfig struct {
	BaseURL string `yaml:"base_url" json:"base_url"`
}

type MessagesConfig struct {
	MaxTextLength  int `yaml:"max_text_length" env-default:"2000" json:"max_text_length"`
	MaxAttachments int `yaml:"max_attachments" env-default:"10" json:"max_attachments"`
	PageSize       int `yaml:"page_size" env-default:"30" json:"page_size"`
}

type TypingConfig struct {
	// TTL is the sliding expiry of a typing signal; clients re-signal while
	// the user keeps composing.
	TTL time.Duration `yaml:"ttl" env-default:"5s" json:"ttl_ms"`
	// RedisURL switches presence to a shared store so several instances see
	// the same indicators. Empty keeps the in-process cache.
	RedisURL string `yaml:"redis_url" env:"TYPING_REDIS_URL" json:"-"`
}

type UploadsConfig struct {
	Bucket        string        `yaml:"bucket" env:"S3_BUCKET" json:"-"`
	Region        string        `yaml:"region" env:"S3_REGION" json:"-"`
	Endpoint      string        `yaml:"endpoint" env:"S3_ENDPOINT" json:"-"`
	AccessKey     string        `yaml:"access_key" env:"S3_ACCESS_KEY" json:"-"`
	SecretKey     string        `yaml:"secret_key" env:"S3_SECRET_KEY" json:"-"`
	MaxSize       int64         `yaml:"max_size" env-default:"26214400" json:"max_size"`
	PresignExpiry time.Duration `yaml:"presign_expiry" env-default:"15m" json:"presign_expiry_ms"`
}

type HTTPServer struct {
	Address     string        `yaml:"address" env-default:"localhost:8082" json:"-"`
	Timeout     time.Duration `yaml:"timeout" env-default:"4s" json:"-"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s" json:"-"`
}

func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("config file does not exist: %s", configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config %s", err)
	}

	return &cfg
}
