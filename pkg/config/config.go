package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Backends de almacenamiento soportados.
const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Config agrupa la configuración de la aplicación (lectura vía Viper desde env y opcionalmente archivo).
type Config struct {
	App      AppConfig
	DB       DBConfig
	HTTP     HTTPConfig
	Redis    RedisConfig
	RabbitMQ RabbitMQConfig
	Workflow WorkflowConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env         string // development, staging, production
	Name        string
	LogLevel    string
	SwaggerFile string // vacío o inexistente = sin UI de swagger
}

// DBConfig configuración de PostgreSQL.
// Si DatabaseURL no está vacío, se usa como connection string completo.
type DBConfig struct {
	Backend     string // postgres | memory
	DatabaseURL string
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	MaxConns    int
}

// ConnectionString devuelve el DSN a usar: DATABASE_URL si está definido, si no el construido con DSN().
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DSN()
}

// DSN connection string de PostgreSQL con la contraseña escapada.
func (c DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: fmt.Sprintf("sslmode=%s", c.SSLMode),
	}
	return u.String()
}

// HTTPConfig configuración del servidor HTTP.
type HTTPConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Addr devuelve la dirección de escucha (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// RedisConfig candado distribuido por operación. Addr vacío = candado en memoria del proceso.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RabbitMQConfig eventos del flujo. URL vacío = mensajería deshabilitada.
type RabbitMQConfig struct {
	URL                   string
	Exchange              string
	FulfillmentQueue      string
	FulfillmentRoutingKey string
	PrefetchCount         int
}

// Enabled indica si hay broker configurado.
func (c RabbitMQConfig) Enabled() bool { return c.URL != "" }

// WorkflowConfig parámetros del flujo de operaciones.
type WorkflowConfig struct {
	LockTTL            time.Duration
	LockRetries        int
	DefaultOriginStore string
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde .env / config.env).
// Las env vars tienen prioridad.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // opcional

	v.SetConfigName("config")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig() // opcional

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		App: AppConfig{
			Env:         getString(v, "APP_ENV", "development"),
			Name:        getString(v, "APP_NAME", "repostock"),
			LogLevel:    getString(v, "LOG_LEVEL", "info"),
			SwaggerFile: getString(v, "SWAGGER_FILE", "./docs/swagger.json"),
		},
		DB: DBConfig{
			Backend:     strings.ToLower(getString(v, "STORE_BACKEND", BackendPostgres)),
			DatabaseURL: getString(v, "DATABASE_URL", ""),
			Host:        getString(v, "DB_HOST", "localhost"),
			Port:        getInt(v, "DB_PORT", 5432),
			User:        getString(v, "DB_USER", "postgres"),
			Password:    getString(v, "DB_PASSWORD", ""),
			DBName:      getString(v, "DB_NAME", "repostock"),
			SSLMode:     getString(v, "DB_SSLMODE", "disable"),
			MaxConns:    getInt(v, "DB_MAX_CONNS", 25),
		},
		HTTP: HTTPConfig{
			Host:         getString(v, "HTTP_HOST", "0.0.0.0"),
			Port:         getInt(v, "HTTP_PORT", 8080),
			ReadTimeout:  time.Duration(getInt(v, "HTTP_READ_TIMEOUT_SECONDS", 10)) * time.Second,
			WriteTimeout: time.Duration(getInt(v, "HTTP_WRITE_TIMEOUT_SECONDS", 10)) * time.Second,
		},
		Redis: RedisConfig{
			Addr:     getString(v, "REDIS_ADDR", ""),
			Password: getString(v, "REDIS_PASSWORD", ""),
			DB:       getInt(v, "REDIS_DB", 0),
		},
		RabbitMQ: RabbitMQConfig{
			URL:                   getString(v, "RABBITMQ_URL", ""),
			Exchange:              getString(v, "EVENTS_EXCHANGE", "inventory.events"),
			FulfillmentQueue:      getString(v, "FULFILLMENT_QUEUE", "inventory.transfer.materialized"),
			FulfillmentRoutingKey: getString(v, "FULFILLMENT_ROUTING_KEY", "inventory.transfer.materialized"),
			PrefetchCount:         getInt(v, "RABBITMQ_PREFETCH", 10),
		},
		Workflow: WorkflowConfig{
			LockTTL:            time.Duration(getInt(v, "LOCK_TTL_SECONDS", 10)) * time.Second,
			LockRetries:        getInt(v, "LOCK_RETRIES", 3),
			DefaultOriginStore: strings.ToUpper(getString(v, "DEFAULT_ORIGIN_STORE", "")),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DB.Backend != BackendPostgres && c.DB.Backend != BackendMemory {
		return fmt.Errorf("STORE_BACKEND inválido %q (postgres|memory)", c.DB.Backend)
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("HTTP_PORT fuera de rango: %d", c.HTTP.Port)
	}
	if c.DB.Backend == BackendPostgres && c.DB.DatabaseURL == "" && (c.DB.Port <= 0 || c.DB.Port > 65535) {
		return fmt.Errorf("DB_PORT fuera de rango: %d", c.DB.Port)
	}
	if c.Workflow.LockTTL <= 0 {
		return fmt.Errorf("LOCK_TTL_SECONDS debe ser positivo")
	}
	if c.Workflow.LockRetries < 1 {
		c.Workflow.LockRetries = 1
	}
	return nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if !v.IsSet(key) {
		return def
	}
	switch v.Get(key).(type) {
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v.GetString(key)))
		if err != nil {
			return def
		}
		return n
	default:
		return v.GetInt(key)
	}
}
