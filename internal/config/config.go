package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config centraliza a configuração carregada do ambiente.
type Config struct {
	Port          int
	DBDSN         string
	RedisURL      string
	JWTSecret     string
	JWTAccessTTL  time.Duration
	JWTRefreshTTL time.Duration
	AllowOrigins  []string

	RateLimitPublic RateLimitConfig
	RateLimitAuth   RateLimitConfig

	// Canais de entrega de notificação; vazios desativam o canal.
	NotifyWebhookURL string
	ResendAPIKey     string
	EmailFrom        string

	Storage StorageConfig
}

// RateLimitConfig representa limites simples para throttling.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// StorageConfig parametriza o bucket da biblioteca de arquivos.
type StorageConfig struct {
	Endpoint     string
	Region       string
	Bucket       string
	AccessKey    string
	SecretKey    string
	PublicDomain string
}

// Enabled informa se há backend de storage configurado.
func (s StorageConfig) Enabled() bool {
	return s.Endpoint != "" && s.Bucket != "" && s.AccessKey != "" && s.SecretKey != ""
}

// Load carrega variáveis de ambiente e aplica defaults seguros.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	portStr := getEnv("PORT", "8080")
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 {
		return nil, errors.New("PORT inválida")
	}
	cfg.Port = port

	cfg.DBDSN = getEnv("DB_DSN", "")
	if cfg.DBDSN == "" {
		return nil, errors.New("DB_DSN obrigatório")
	}

	cfg.RedisURL = getEnv("REDIS_URL", "")
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL obrigatório")
	}

	cfg.JWTSecret = strings.TrimSpace(getEnv("JWT_SECRET", ""))
	if len(cfg.JWTSecret) < 32 {
		return nil, errors.New("JWT_SECRET deve ter pelo menos 32 caracteres")
	}

	accessTTL, err := parseDurationEnv("JWT_ACCESS_TTL", 15*time.Minute)
	if err != nil {
		return nil, err
	}
	cfg.JWTAccessTTL = accessTTL

	refreshTTL, err := parseDurationEnv("JWT_REFRESH_TTL", 30*24*time.Hour)
	if err != nil {
		return nil, err
	}
	cfg.JWTRefreshTTL = refreshTTL

	for _, origin := range strings.Split(getEnv("ALLOW_ORIGINS", ""), ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			cfg.AllowOrigins = append(cfg.AllowOrigins, origin)
		}
	}

	cfg.RateLimitPublic = RateLimitConfig{RequestsPerSecond: 10, Burst: 20}
	cfg.RateLimitAuth = RateLimitConfig{RequestsPerSecond: 10, Burst: 40}

	cfg.NotifyWebhookURL = strings.TrimSpace(getEnv("NOTIFY_WEBHOOK_URL", ""))
	cfg.ResendAPIKey = strings.TrimSpace(getEnv("RESEND_API_KEY", ""))
	cfg.EmailFrom = strings.TrimSpace(getEnv("EMAIL_FROM", ""))
	if cfg.ResendAPIKey != "" && cfg.EmailFrom == "" {
		return nil, errors.New("EMAIL_FROM obrigatório quando RESEND_API_KEY está definido")
	}

	cfg.Storage = StorageConfig{
		Endpoint:     strings.TrimSpace(getEnv("STORAGE_ENDPOINT", "")),
		Region:       strings.TrimSpace(getEnv("STORAGE_REGION", "auto")),
		Bucket:       strings.TrimSpace(getEnv("STORAGE_BUCKET", "")),
		AccessKey:    strings.TrimSpace(getEnv("STORAGE_ACCESS_KEY", "")),
		SecretKey:    strings.TrimSpace(getEnv("STORAGE_SECRET_KEY", "")),
		PublicDomain: strings.TrimSpace(getEnv("STORAGE_PUBLIC_DOMAIN", "")),
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return def
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	val := getEnv(key, "")
	if val == "" {
		return def, nil
	}
	dur, err := time.ParseDuration(val)
	if err != nil {
		return 0, errors.New(key + " inválido")
	}
	return dur, nil
}
