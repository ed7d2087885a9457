package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config centraliza la configuración del servicio.
type Config struct {
	AppEnv      string `env:"APP_ENV" envDefault:"production"`
	HTTPPort    string `env:"HTTP_PORT" envDefault:"8080"`
	DatabaseURL string `env:"DATABASE_URL"`
	// StorageBackend: "postgres" o "memory" (solo desarrollo, se pierde al reiniciar).
	StorageBackend string   `env:"STORAGE_BACKEND" envDefault:"postgres"`
	CORSOrigins    []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`

	AllowedEmailDomains []string `env:"ALLOWED_EMAIL_DOMAINS" envSeparator:"," envDefault:"student.university.edu,university.edu,campus.edu,college.edu"`

	OTPLength            int `env:"OTP_LENGTH" envDefault:"6"`
	OTPExpiryMinutes     int `env:"OTP_EXPIRY_MINUTES" envDefault:"10"`
	OTPMaxAttempts       int `env:"OTP_MAX_ATTEMPTS" envDefault:"3"`
	OTPRequestsPerWindow int `env:"OTP_REQUESTS_PER_WINDOW" envDefault:"3"`
	OTPRequestWindowMins int `env:"OTP_REQUEST_WINDOW_MINUTES" envDefault:"10"`
	SessionTTLHours      int `env:"SESSION_TTL_HOURS" envDefault:"720"`

	JWTSecret           string `env:"JWT_SECRET"`
	JWTAccessTTLMinutes int    `env:"JWT_ACCESS_TTL_MINUTES" envDefault:"60"`

	UploadDir      string `env:"UPLOAD_DIR" envDefault:"uploads/profile_pictures"`
	UploadURLPath  string `env:"UPLOAD_URL_PATH" envDefault:"/uploads/profile_pictures"`
	MaxUploadBytes int64  `env:"MAX_UPLOAD_BYTES" envDefault:"5242880"`

	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser     string `env:"SMTP_USER"`
	SMTPPass     string `env:"SMTP_PASS"`
	SMTPFrom     string `env:"SMTP_FROM"`
	SMTPFromName string `env:"SMTP_FROM_NAME" envDefault:"CampusConnect"`
	SMTPUseSSL   bool   `env:"SMTP_USE_SSL" envDefault:"false"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	switch cfg.StorageBackend {
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required when STORAGE_BACKEND=postgres")
		}
	case "memory":
	default:
		return nil, fmt.Errorf("unknown STORAGE_BACKEND %q", cfg.StorageBackend)
	}
	return &cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) UsesMemoryStore() bool {
	return c.StorageBackend == "memory"
}

func (c *Config) OTPExpiry() time.Duration {
	return time.Duration(c.OTPExpiryMinutes) * time.Minute
}

func (c *Config) OTPRequestWindow() time.Duration {
	return time.Duration(c.OTPRequestWindowMins) * time.Minute
}

func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLHours) * time.Hour
}

func (c *Config) JWTAccessTTL() time.Duration {
	return time.Duration(c.JWTAccessTTLMinutes) * time.Minute
}
