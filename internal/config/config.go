package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Quiz struct {
		TTL string `yaml:"ttl"`
		// PassThresholdPercent is the single deployment-wide pass bar.
		PassThresholdPercent int `yaml:"pass_threshold_percent"`
	} `yaml:"quiz"`
	Auth struct {
		JWTSecret     string `yaml:"jwt_secret"`
		TokenTTL      string `yaml:"token_ttl"`
		SecureCookies bool   `yaml:"secure_cookies"`
	} `yaml:"auth"`
	CORS struct {
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"cors"`
}

// DefaultPassThresholdPercent applies when the config leaves the
// threshold unset.
const DefaultPassThresholdPercent = 75

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if cfg.Quiz.PassThresholdPercent <= 0 {
		cfg.Quiz.PassThresholdPercent = DefaultPassThresholdPercent
	}
	if cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	}
	return cfg, nil
}

// TTLDuration parses a duration string or returns the fallback if empty
// or invalid.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
