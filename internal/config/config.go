package config

import (
	"os"
	"path"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"github.com/safespace-dev/safespace/internal/domain"
)

type Config struct {
	Public  Public
	private Private
}

type Public struct {
	Env          string        `yaml:"env"` // "development" enables template reloading
	Port         string        `yaml:"port" validate:"required"`
	ReadTimeout  time.Duration `yaml:"read_timeout" validate:"required"`
	WriteTimeout time.Duration `yaml:"write_timeout" validate:"required"`

	ApiBaseURL string        `yaml:"api_base_url" validate:"required,url"`
	ApiTimeout time.Duration `yaml:"api_timeout" validate:"required"`

	LogLevel string `yaml:"log_level"`
	LogJSON  bool   `yaml:"log_json"`

	SecureCookies     bool   `yaml:"secure_cookies"`
	SessionCookieName string `yaml:"session_cookie_name" validate:"required"`
	LoginURL          string `yaml:"login_url" validate:"required"`

	Categories           []string      `yaml:"categories"`
	AnsweredDisplayLimit int           `yaml:"answered_display_limit" validate:"gte=0"`
	BannerTTL            time.Duration `yaml:"banner_ttl" validate:"required"`

	SubmissionRate     float64       `yaml:"submission_rate" validate:"gt=0"` // per second, per client IP
	SubmissionBurst    float64       `yaml:"submission_burst" validate:"gte=1"`
	SubmissionTokenTTL time.Duration `yaml:"submission_token_ttl" validate:"required"`

	CorsAllowedOrigins []string `yaml:"cors_allowed_origins"`
}

type Private struct {
	JwtSecret string `yaml:"jwt_secret" validate:"required"`
}

func (c *Config) JwtSecret() string {
	return c.private.JwtSecret
}

func (c *Config) IsDevelopment() bool {
	return c.Public.Env == "development"
}

func mustLoadPath(configPath string, output interface{}) {
	// check if file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}
	configFile, err := os.ReadFile(configPath)
	if err != nil {
		panic("can't read config file: " + configPath)
	}

	if err := yaml.Unmarshal(configFile, output); err != nil {
		panic("can't unmarshal config file " + configPath + ": " + err.Error())
	}
}

// MustLoad reads public.yaml and private.yaml from configFolder, applies
// environment overrides (a .env file in the working directory is honored)
// and validates the result. Any problem panics.
func MustLoad(configFolder string) *Config {
	// .env is optional; real environment variables win over it
	_ = godotenv.Load()

	var public Public
	mustLoadPath(path.Join(configFolder, "public.yaml"), &public)

	var private Private
	mustLoadPath(path.Join(configFolder, "private.yaml"), &private)

	cfg := &Config{Public: public, private: private}
	cfg.applyEnv()
	cfg.applyDefaults()

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(cfg.Public); err != nil {
		panic("invalid public config: " + err.Error())
	}
	if err := validate.Struct(cfg.private); err != nil {
		panic("invalid private config: " + err.Error())
	}
	return cfg
}

func (c *Config) applyEnv() {
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.private.JwtSecret = v
	}
	if v := os.Getenv("API_BASE_URL"); v != "" {
		c.Public.ApiBaseURL = v
	}
	if v := os.Getenv("PORT"); v != "" {
		c.Public.Port = v
	}
	if v := os.Getenv("ENV"); v != "" {
		c.Public.Env = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Public.LogLevel = v
	}
}

func (c *Config) applyDefaults() {
	if len(c.Public.Categories) == 0 {
		c.Public.Categories = domain.DefaultCategories
	}
	if c.Public.SessionCookieName == "" {
		c.Public.SessionCookieName = "accessToken"
	}
}
