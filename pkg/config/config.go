package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

const (
	DriverMongo  = "mongo"
	DriverMemory = "memory"
)

type Config struct {
	Env             string
	Port            int
	ShutdownTimeout time.Duration

	Database DatabaseConfig
	Redis    RedisConfig
	Cache    CacheConfig
	JWT      JWTConfig
	Access   AccessConfig
	CORS     CORSConfig
	Log      LogConfig
	Payment  PaymentConfig
}

// DatabaseConfig describes the document store connection.
type DatabaseConfig struct {
	Driver      string
	URI         string
	User        string
	Password    string
	ClusterHost string
	Name        string
	Timeout     time.Duration
	MaxPoolSize uint64
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// CacheConfig toggles the read-through cache for public list views.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

// AccessConfig selects the protected-route table.
type AccessConfig struct {
	Profile         string
	ProtectedRoutes []string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// PaymentConfig holds the payment provider key. The payment endpoint is a stub.
type PaymentConfig struct {
	SecretKey string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.ShutdownTimeout = parseDuration(v.GetString("SHUTDOWN_TIMEOUT"), 10*time.Second)

	cfg.Database = DatabaseConfig{
		Driver:      strings.ToLower(strings.TrimSpace(v.GetString("DB_DRIVER"))),
		URI:         v.GetString("MONGO_URI"),
		User:        v.GetString("DB_USER"),
		Password:    v.GetString("DB_PASS"),
		ClusterHost: v.GetString("DB_CLUSTER_HOST"),
		Name:        v.GetString("DB_NAME"),
		Timeout:     parseDuration(v.GetString("DB_TIMEOUT"), 10*time.Second),
		MaxPoolSize: v.GetUint64("DB_MAX_POOL_SIZE"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Cache = CacheConfig{
		Enabled: v.GetBool("ENABLE_CACHE"),
		TTL:     parseDuration(v.GetString("CACHE_TTL"), 5*time.Minute),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("ACCESS_TOKEN_SECRET"),
		Expiration: parseDuration(v.GetString("ACCESS_TOKEN_TTL"), time.Hour),
		Issuer:     v.GetString("TOKEN_ISSUER"),
	}

	cfg.Access = AccessConfig{
		Profile:         strings.ToLower(strings.TrimSpace(v.GetString("ACCESS_PROFILE"))),
		ProtectedRoutes: splitAndTrim(v.GetString("PROTECTED_ROUTES")),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Payment = PaymentConfig{SecretKey: v.GetString("PAYMENT_GATEWAY_PK")}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverMongo:
		if c.Database.MongoURI() == "" {
			return errors.New("MONGO_URI or DB_USER/DB_PASS/DB_CLUSTER_HOST must be set")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	if c.JWT.Secret == "" {
		return errors.New("ACCESS_TOKEN_SECRET must be set")
	}
	if c.Env == EnvProduction && c.JWT.Secret == devSecret {
		return errors.New("ACCESS_TOKEN_SECRET must be overridden in production")
	}
	return nil
}

// MongoURI returns the explicit URI or one assembled from the Atlas credentials.
func (d DatabaseConfig) MongoURI() string {
	if d.URI != "" {
		return d.URI
	}
	if d.User == "" || d.ClusterHost == "" {
		return ""
	}
	return fmt.Sprintf("mongodb+srv://%s:%s@%s/?retryWrites=true&w=majority",
		url.QueryEscape(d.User),
		url.QueryEscape(d.Password),
		d.ClusterHost,
	)
}

const devSecret = "dev_secret"

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 5000)
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")

	v.SetDefault("DB_DRIVER", DriverMongo)
	v.SetDefault("MONGO_URI", "")
	v.SetDefault("DB_USER", "")
	v.SetDefault("DB_PASS", "")
	v.SetDefault("DB_CLUSTER_HOST", "")
	v.SetDefault("DB_NAME", "Crafty-classroom")
	v.SetDefault("DB_TIMEOUT", "10s")
	v.SetDefault("DB_MAX_POOL_SIZE", 20)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("ENABLE_CACHE", false)
	v.SetDefault("CACHE_TTL", "5m")

	v.SetDefault("ACCESS_TOKEN_SECRET", devSecret)
	v.SetDefault("ACCESS_TOKEN_TTL", "1h")
	v.SetDefault("TOKEN_ISSUER", "crafty-classroom")

	v.SetDefault("ACCESS_PROFILE", "default")
	v.SetDefault("PROTECTED_ROUTES", "")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("PAYMENT_GATEWAY_PK", "")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
