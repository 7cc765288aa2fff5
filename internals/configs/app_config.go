package configs

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type DatabaseConfig struct {
	URL         string
	Host        string
	Port        string
	User        string
	Password    string
	Name        string
	SSLMode     string
	AutoMigrate bool
	MaxOpen     int
	MaxIdle     int
}

// DSN prefers DATABASE_URL and falls back to the discrete DB_* keys.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&application_name=lurnex&options=-c%%20statement_timeout=5000",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

type ZoomConfig struct {
	AccountID    string
	ClientID     string
	ClientSecret string
	APIBaseURL   string
	TokenURL     string
}

func (z ZoomConfig) Enabled() bool {
	return z.AccountID != "" && z.ClientID != "" && z.ClientSecret != ""
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
}

func (s SMTPConfig) Enabled() bool { return s.Host != "" && s.From != "" }

type AppConfig struct {
	Port           string
	JWTSecret      string
	JWTTTL         time.Duration
	CORSOrigins    []string
	SessionTZ      string
	DB             DatabaseConfig
	RedisURL       string
	KafkaBrokers   []string
	KafkaTopicBase string
	Zoom           ZoomConfig
	MeetingWorkers int
	SMTP           SMTPConfig
	CleanupSpec    string
}

// fileConfig mirrors configs/default.yaml. Secrets are expected from env.
type fileConfig struct {
	Server struct {
		Port        string   `yaml:"port"`
		CORSOrigins []string `yaml:"cors_origins"`
		Timezone    string   `yaml:"timezone"`
	} `yaml:"server"`
	Database struct {
		Host        string `yaml:"host"`
		Port        string `yaml:"port"`
		Name        string `yaml:"name"`
		SSLMode     string `yaml:"sslmode"`
		AutoMigrate *bool  `yaml:"auto_migrate"`
		MaxOpen     int    `yaml:"max_open"`
		MaxIdle     int    `yaml:"max_idle"`
	} `yaml:"database"`
	Dependencies struct {
		RedisURL     string   `yaml:"redis_url"`
		KafkaBrokers []string `yaml:"kafka_brokers"`
		KafkaTopic   string   `yaml:"kafka_topic_prefix"`
	} `yaml:"dependencies"`
	Meetings struct {
		APIBaseURL  string `yaml:"api_base_url"`
		TokenURL    string `yaml:"token_url"`
		Concurrency int    `yaml:"concurrency"`
	} `yaml:"meetings"`
	Mail struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		From     string `yaml:"from"`
		FromName string `yaml:"from_name"`
	} `yaml:"mail"`
	Jobs struct {
		RevokedTokenCleanup string `yaml:"revoked_token_cleanup"`
	} `yaml:"jobs"`
}

func defaults() AppConfig {
	return AppConfig{
		Port:           "3000",
		JWTTTL:         30 * 24 * time.Hour,
		CORSOrigins:    []string{"http://localhost:5173"},
		SessionTZ:      "Asia/Kolkata",
		DB:             DatabaseConfig{Port: "5432", SSLMode: "require", MaxOpen: 20, MaxIdle: 10},
		KafkaTopicBase: "lurnex",
		Zoom: ZoomConfig{
			APIBaseURL: "https://api.zoom.us/v2",
			TokenURL:   "https://zoom.us/oauth/token",
		},
		MeetingWorkers: 4,
		SMTP:           SMTPConfig{Port: 587, FromName: "Lurnex"},
		CleanupSpec:    "@every 6h",
	}
}

// Load resolves configuration as defaults -> file -> environment.
// A missing file is not an error.
func Load(path string) (AppConfig, error) {
	cfg := defaults()

	if raw, err := os.ReadFile(path); err == nil {
		var f fileConfig
		if err := yaml.Unmarshal(raw, &f); err != nil {
			return AppConfig{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
		applyFile(&cfg, f)
	}

	cfg.Port = GetEnv("PORT", cfg.Port)
	cfg.JWTSecret = GetEnv("JWT_SECRET", cfg.JWTSecret)
	cfg.JWTTTL = time.Duration(envInt("JWT_TTL_HOURS", int(cfg.JWTTTL.Hours()))) * time.Hour
	cfg.CORSOrigins = envCSV("CORS_ORIGINS", cfg.CORSOrigins)
	cfg.SessionTZ = GetEnv("SESSION_TIMEZONE", cfg.SessionTZ)

	cfg.DB.URL = GetEnv("DATABASE_URL", cfg.DB.URL)
	cfg.DB.Host = GetEnv("DB_HOST", cfg.DB.Host)
	cfg.DB.Port = GetEnv("DB_PORT", cfg.DB.Port)
	cfg.DB.User = GetEnv("DB_USER", cfg.DB.User)
	cfg.DB.Password = GetEnv("DB_PASSWORD", cfg.DB.Password)
	cfg.DB.Name = GetEnv("DB_NAME", cfg.DB.Name)
	cfg.DB.SSLMode = GetEnv("DB_SSLMODE", cfg.DB.SSLMode)
	cfg.DB.AutoMigrate = envBool("DB_AUTO_MIGRATE", cfg.DB.AutoMigrate)
	cfg.DB.MaxOpen = envInt("DB_MAX_OPEN_CONNS", cfg.DB.MaxOpen)
	cfg.DB.MaxIdle = envInt("DB_MAX_IDLE_CONNS", cfg.DB.MaxIdle)

	cfg.RedisURL = GetEnv("REDIS_URL", cfg.RedisURL)
	cfg.KafkaBrokers = envCSV("KAFKA_BROKERS", cfg.KafkaBrokers)
	cfg.KafkaTopicBase = GetEnv("KAFKA_TOPIC_PREFIX", cfg.KafkaTopicBase)

	cfg.Zoom.AccountID = GetEnv("ZOOM_ACCOUNT_ID", cfg.Zoom.AccountID)
	cfg.Zoom.ClientID = GetEnv("ZOOM_CLIENT_ID", cfg.Zoom.ClientID)
	cfg.Zoom.ClientSecret = GetEnv("ZOOM_CLIENT_SECRET", cfg.Zoom.ClientSecret)
	cfg.Zoom.APIBaseURL = strings.TrimRight(GetEnv("ZOOM_API_BASE_URL", cfg.Zoom.APIBaseURL), "/")
	cfg.Zoom.TokenURL = GetEnv("ZOOM_TOKEN_URL", cfg.Zoom.TokenURL)
	cfg.MeetingWorkers = envInt("MEETING_CONCURRENCY", cfg.MeetingWorkers)
	if cfg.MeetingWorkers < 1 {
		cfg.MeetingWorkers = 1
	}

	cfg.SMTP.Host = GetEnv("SMTP_HOST", cfg.SMTP.Host)
	cfg.SMTP.Port = envInt("SMTP_PORT", cfg.SMTP.Port)
	cfg.SMTP.Username = GetEnv("SMTP_USERNAME", cfg.SMTP.Username)
	cfg.SMTP.Password = GetEnv("SMTP_PASSWORD", cfg.SMTP.Password)
	cfg.SMTP.From = GetEnv("SMTP_FROM_ADDRESS", cfg.SMTP.From)
	cfg.SMTP.FromName = GetEnv("SMTP_FROM_NAME", cfg.SMTP.FromName)

	cfg.CleanupSpec = GetEnv("REVOKED_TOKEN_CLEANUP_CRON", cfg.CleanupSpec)

	if _, err := time.LoadLocation(cfg.SessionTZ); err != nil {
		return AppConfig{}, fmt.Errorf("SESSION_TIMEZONE %q: %w", cfg.SessionTZ, err)
	}
	return cfg, nil
}

func applyFile(cfg *AppConfig, f fileConfig) {
	if f.Server.Port != "" {
		cfg.Port = f.Server.Port
	}
	if len(f.Server.CORSOrigins) > 0 {
		cfg.CORSOrigins = f.Server.CORSOrigins
	}
	if f.Server.Timezone != "" {
		cfg.SessionTZ = f.Server.Timezone
	}
	if f.Database.Host != "" {
		cfg.DB.Host = f.Database.Host
	}
	if f.Database.Port != "" {
		cfg.DB.Port = f.Database.Port
	}
	if f.Database.Name != "" {
		cfg.DB.Name = f.Database.Name
	}
	if f.Database.SSLMode != "" {
		cfg.DB.SSLMode = f.Database.SSLMode
	}
	if f.Database.AutoMigrate != nil {
		cfg.DB.AutoMigrate = *f.Database.AutoMigrate
	}
	if f.Database.MaxOpen > 0 {
		cfg.DB.MaxOpen = f.Database.MaxOpen
	}
	if f.Database.MaxIdle > 0 {
		cfg.DB.MaxIdle = f.Database.MaxIdle
	}
	if f.Dependencies.RedisURL != "" {
		cfg.RedisURL = f.Dependencies.RedisURL
	}
	if len(f.Dependencies.KafkaBrokers) > 0 {
		cfg.KafkaBrokers = f.Dependencies.KafkaBrokers
	}
	if f.Dependencies.KafkaTopic != "" {
		cfg.KafkaTopicBase = f.Dependencies.KafkaTopic
	}
	if f.Meetings.APIBaseURL != "" {
		cfg.Zoom.APIBaseURL = f.Meetings.APIBaseURL
	}
	if f.Meetings.TokenURL != "" {
		cfg.Zoom.TokenURL = f.Meetings.TokenURL
	}
	if f.Meetings.Concurrency > 0 {
		cfg.MeetingWorkers = f.Meetings.Concurrency
	}
	if f.Mail.Host != "" {
		cfg.SMTP.Host = f.Mail.Host
	}
	if f.Mail.Port > 0 {
		cfg.SMTP.Port = f.Mail.Port
	}
	if f.Mail.From != "" {
		cfg.SMTP.From = f.Mail.From
	}
	if f.Mail.FromName != "" {
		cfg.SMTP.FromName = f.Mail.FromName
	}
	if f.Jobs.RevokedTokenCleanup != "" {
		cfg.CleanupSpec = f.Jobs.RevokedTokenCleanup
	}
}
