package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"hotelbook/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	HTTP       HTTPConfig       `yaml:"http"`
	Session    SessionConfig    `yaml:"session"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Payment    PaymentConfig    `yaml:"payment"`
	Booking    BookingConfig    `yaml:"booking"`
	Users      []UserSeed       `yaml:"users"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	Backup     BackupConfig     `yaml:"backup"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
	API        APIConfig        `yaml:"api"`
	Exports    ExportConfig     `yaml:"exports"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type HTTPConfig struct {
	Port              int           `yaml:"port"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	WriteTimeout      time.Duration `yaml:"write_timeout"`
	SecureCookies     bool          `yaml:"secure_cookies"`
}

type SessionConfig struct {
	Secret        string        `yaml:"secret"`
	Issuer        string        `yaml:"issuer"`
	TTL           time.Duration `yaml:"ttl"`
	CookieName    string        `yaml:"cookie_name"`
	VisitorCookie string        `yaml:"visitor_cookie"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type PaymentConfig struct {
	// Mode is "simulated" or "http".
	Mode       string        `yaml:"mode"`
	BaseURL    string        `yaml:"base_url"`
	APIKey     string        `yaml:"api_key"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
}

type BookingConfig struct {
	DraftTTL       time.Duration `yaml:"draft_ttl"`
	AttemptsLimit  int           `yaml:"attempts_limit"`
	AttemptsWindow time.Duration `yaml:"attempts_window"`
	MaxStayNights  int           `yaml:"max_stay_nights"`
}

// UserSeed is an account created on startup. PasswordHash is a bcrypt hash.
type UserSeed struct {
	Email        string `yaml:"email"`
	FullName     string `yaml:"full_name"`
	PasswordHash string `yaml:"password_hash"`
}

type TelegramConfig struct {
	BotToken     string  `yaml:"bot_token"`
	ManagerChats []int64 `yaml:"manager_chats"`
	Debug        bool    `yaml:"debug"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Schedule      string `yaml:"schedule"`
	RetentionDays int    `yaml:"retention_days"`
	StoragePath   string `yaml:"storage_path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type APIConfig struct {
	Enabled   bool               `yaml:"enabled"`
	Auth      APIAuthConfig      `yaml:"auth"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
}

type APIAuthConfig struct {
	Enabled      bool           `yaml:"enabled"`
	HeaderAPIKey string         `yaml:"header_api_key"`
	HeaderExtra  string         `yaml:"header_extra"`
	APIKeys      []APIClientKey `yaml:"api_keys"`
}

type APIClientKey struct {
	Key         string   `yaml:"key"`
	Extra       string   `yaml:"extra"`
	Name        string   `yaml:"name"`
	Permissions []string `yaml:"permissions"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type ExportConfig struct {
	MaxRangeDays int `yaml:"max_range_days"`
}

func Load(configPath string) (*Config, error) {
	// .env is optional
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Session.Secret == "" || c.Session.Secret == "CHANGE_ME" {
		return errors.New("session secret is required")
	}
	if len(c.Session.Secret) < 16 {
		return errors.New("session secret must be at least 16 characters")
	}

	if c.Database.Path == "" {
		return errors.New("database path is required")
	}

	switch c.Payment.Mode {
	case PaymentModeSimulated:
	case PaymentModeHTTP:
		if c.Payment.BaseURL == "" {
			return errors.New("payment.base_url is required in http mode")
		}
	default:
		return fmt.Errorf("unknown payment mode %q", c.Payment.Mode)
	}

	return ValidateUsers(c.Users)
}

func ValidateUsers(users []UserSeed) error {
	seen := make(map[string]bool)
	for _, u := range users {
		email := strings.ToLower(strings.TrimSpace(u.Email))
		if email == "" {
			return fmt.Errorf("user '%s' has empty email", u.FullName)
		}
		if u.PasswordHash == "" {
			return fmt.Errorf("user '%s' has empty password_hash", email)
		}
		if seen[email] {
			return fmt.Errorf("duplicate user email: %s", email)
		}
		seen[email] = true
	}
	return nil
}

// ValidateRooms checks the room catalog loaded from rooms.yaml.
func ValidateRooms(rooms []models.Room) error {
	if len(rooms) == 0 {
		return errors.New("room catalog is empty")
	}
	roomIDs := make(map[int64]bool)
	for _, room := range rooms {
		if room.ID <= 0 {
			return fmt.Errorf("room '%s' has invalid ID %d", room.Name, room.ID)
		}
		if roomIDs[room.ID] {
			return fmt.Errorf("duplicate room ID found: %d", room.ID)
		}
		roomIDs[room.ID] = true
		if strings.TrimSpace(room.Name) == "" {
			return fmt.Errorf("room %d has empty name", room.ID)
		}
		if room.BasePrice <= 0 {
			return fmt.Errorf("room '%s' has invalid base_price", room.Name)
		}
		if room.MaxGuests < 1 {
			return fmt.Errorf("room '%s' must allow at least one guest", room.Name)
		}
	}
	return nil
}

const (
	PaymentModeSimulated = "simulated"
	PaymentModeHTTP      = "http"
)

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "hotelbook"
	}
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.ReadHeaderTimeout == 0 {
		c.HTTP.ReadHeaderTimeout = 5 * time.Second
	}
	if c.HTTP.WriteTimeout == 0 {
		c.HTTP.WriteTimeout = 30 * time.Second
	}

	if c.Session.TTL == 0 {
		c.Session.TTL = 24 * time.Hour
	}
	if c.Session.Issuer == "" {
		c.Session.Issuer = c.App.Name
	}
	if c.Session.CookieName == "" {
		c.Session.CookieName = "hb_session"
	}
	if c.Session.VisitorCookie == "" {
		c.Session.VisitorCookie = "hb_visitor"
	}

	if c.Payment.Mode == "" {
		c.Payment.Mode = PaymentModeSimulated
	}
	if c.Payment.Timeout == 0 {
		c.Payment.Timeout = 15 * time.Second
	}
	if c.Payment.MaxRetries == 0 {
		c.Payment.MaxRetries = 3
	}

	// Booking defaults
	if c.Booking.DraftTTL == 0 {
		c.Booking.DraftTTL = models.DefaultDraftTTL * time.Second
	}
	if c.Booking.AttemptsLimit == 0 {
		c.Booking.AttemptsLimit = models.PaymentAttemptsLimit
	}
	if c.Booking.AttemptsWindow == 0 {
		c.Booking.AttemptsWindow = models.PaymentAttemptsWindow * time.Second
	}
	if c.Booking.MaxStayNights == 0 {
		c.Booking.MaxStayNights = models.MaxStayNights
	}

	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}

	if c.API.Auth.HeaderAPIKey == "" {
		c.API.Auth.HeaderAPIKey = "x-api-key"
	}
	if c.API.Auth.HeaderExtra == "" {
		c.API.Auth.HeaderExtra = "x-api-extra"
	}
	// auth is mandatory whenever keys are configured
	if len(c.API.Auth.APIKeys) > 0 {
		c.API.Auth.Enabled = true
	}

	if c.Exports.MaxRangeDays == 0 {
		c.Exports.MaxRangeDays = 366
	}
}
