package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Режимы источника данных
const (
	DataSourcePostgres  = "postgres"
	DataSourceSynthetic = "synthetic"
)

// Приемники выгрузок
const (
	ExportSinkS3         = "s3"
	ExportSinkFilesystem = "filesystem"
	ExportSinkNone       = "none"
)

type Config struct {
	Server     ServerConfig
	Log        LogConfig
	Database   DatabaseConfig
	DataSource DataSourceConfig
	Report     ReportConfig
	Health     HealthConfig
	Redis      RedisConfig
	NATS       NATSConfig
	S3         S3Config
	Export     ExportConfig
	DynamoDB   DynamoDBConfig
	CloudWatch CloudWatchConfig
	Security   SecurityConfig
}

type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

type LogConfig struct {
	Level string
}

type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	QueryTimeout    time.Duration
}

type DataSourceConfig struct {
	Mode string // postgres | synthetic
	Seed int64
}

type ReportConfig struct {
	DefaultRangeDays int
	MaxRangeDays     int
}

type HealthConfig struct {
	PollInterval    time.Duration
	ProbeTimeout    time.Duration
	ErrorRateWindow time.Duration
	AutoStart       bool
	DiskMount       string
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
	TTL      time.Duration
}

type NATSConfig struct {
	Enabled bool
	URL     string
}

type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
	URLMode         string
	PresignedTTL    time.Duration
}

type ExportConfig struct {
	Sink           string // s3 | filesystem | none
	Dir            string
	KeyPrefix      string
	IndexRetention time.Duration
}

type DynamoDBConfig struct {
	Enabled         bool
	TableName       string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	StrongReads     bool
}

type CloudWatchConfig struct {
	MetricsEnabled  bool
	LogsEnabled     bool
	Namespace       string
	LogGroupName    string
	LogStreamName   string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Environment     string
}

type SecurityConfig struct {
	AllowedOrigins       []string
	AuthEnabled          bool
	AuthToken            string
	ExportRateLimitRPS   float64
	ExportRateLimitBurst int
}

// Load читает конфигурацию из окружения и необязательного .env
func Load() (*Config, error) {
	_ = godotenv.Load()

	p := &envParser{}

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			ReadTimeout:     p.duration("SERVER_READ_TIMEOUT", "10s"),
			WriteTimeout:    p.duration("SERVER_WRITE_TIMEOUT", "30s"),
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: p.duration("SERVER_SHUTDOWN_TIMEOUT", "30s"),
		},
		Log: LogConfig{
			Level: strings.ToLower(getEnv("LOG_LEVEL", "info")),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			Database:        getEnv("DB_NAME", "recycling"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    p.integer("DB_MAX_OPEN_CONNS", "25"),
			MaxIdleConns:    p.integer("DB_MAX_IDLE_CONNS", "5"),
			ConnMaxLifetime: 5 * time.Minute,
			ConnMaxIdleTime: 10 * time.Minute,
			QueryTimeout:    p.duration("DB_QUERY_TIMEOUT", "5s"),
		},
		DataSource: DataSourceConfig{
			Mode: strings.ToLower(getEnv("DATA_SOURCE", DataSourceSynthetic)),
			Seed: int64(p.integer("SYNTHETIC_SEED", "0")),
		},
		Report: ReportConfig{
			DefaultRangeDays: p.integer("REPORT_DEFAULT_RANGE_DAYS", "30"),
			MaxRangeDays:     p.integer("REPORT_MAX_RANGE_DAYS", "365"),
		},
		Health: HealthConfig{
			PollInterval:    p.duration("HEALTH_POLL_INTERVAL", "30s"),
			ProbeTimeout:    p.duration("HEALTH_PROBE_TIMEOUT", "5s"),
			ErrorRateWindow: p.duration("HEALTH_ERROR_RATE_WINDOW", "5m"),
			AutoStart:       getEnvBool("HEALTH_AUTO_START", true),
			DiskMount:       getEnv("HEALTH_DISK_MOUNT", "/"),
		},
		Redis: RedisConfig{
			Enabled:  getEnvBool("REDIS_ENABLED", false),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       p.integer("REDIS_DB", "0"),
			TTL:      p.duration("REDIS_TTL", "5m"),
		},
		NATS: NATSConfig{
			Enabled: getEnvBool("NATS_ENABLED", false),
			URL:     getEnv("NATS_URL", "nats://localhost:4222"),
		},
		S3: S3Config{
			Bucket:          getEnv("S3_BUCKET", ""),
			Region:          getEnv("S3_REGION", "us-east-1"),
			Endpoint:        getEnv("S3_ENDPOINT", ""),
			AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
			UsePathStyle:    getEnvBool("S3_USE_PATH_STYLE", true),
			URLMode:         getEnv("S3_URL_MODE", "presigned"),
			PresignedTTL:    p.duration("S3_PRESIGNED_TTL", "15m"),
		},
		Export: ExportConfig{
			Sink:           strings.ToLower(getEnv("EXPORT_SINK", ExportSinkFilesystem)),
			Dir:            getEnv("EXPORT_DIR", "./exports"),
			KeyPrefix:      getEnv("EXPORT_KEY_PREFIX", "reports"),
			IndexRetention: p.duration("EXPORT_INDEX_RETENTION", "2160h"),
		},
		DynamoDB: DynamoDBConfig{
			Enabled:         getEnvBool("DYNAMODB_ENABLED", false),
			TableName:       getEnv("DYNAMODB_TABLE", "report-exports"),
			Region:          getEnv("DYNAMODB_REGION", "us-east-1"),
			Endpoint:        getEnv("DYNAMODB_ENDPOINT", ""),
			AccessKeyID:     getEnv("DYNAMODB_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("DYNAMODB_SECRET_ACCESS_KEY", ""),
			StrongReads:     getEnvBool("DYNAMODB_STRONG_READS", false),
		},
		CloudWatch: CloudWatchConfig{
			MetricsEnabled:  getEnvBool("CLOUDWATCH_METRICS_ENABLED", false),
			LogsEnabled:     getEnvBool("CLOUDWATCH_LOGS_ENABLED", false),
			Namespace:       getEnv("CLOUDWATCH_NAMESPACE", "RecyclingDashboard/Health"),
			LogGroupName:    getEnv("CLOUDWATCH_LOG_GROUP", "/recycling-dashboard/api"),
			LogStreamName:   getEnv("CLOUDWATCH_LOG_STREAM", hostname()),
			Region:          getEnv("CLOUDWATCH_REGION", "us-east-1"),
			Endpoint:        getEnv("CLOUDWATCH_ENDPOINT", ""),
			AccessKeyID:     getEnv("CLOUDWATCH_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("CLOUDWATCH_SECRET_ACCESS_KEY", ""),
			Environment:     getEnv("ENVIRONMENT", "development"),
		},
		Security: SecurityConfig{
			AllowedOrigins:       splitCSV(getEnv("ALLOWED_ORIGINS", "http://localhost:8080,http://127.0.0.1:8080")),
			AuthEnabled:          getEnvBool("AUTH_ENABLED", false),
			AuthToken:            getEnv("AUTH_BEARER_TOKEN", ""),
			ExportRateLimitRPS:   p.float("EXPORT_RATE_LIMIT_RPS", "1"),
			ExportRateLimitBurst: p.integer("EXPORT_RATE_LIMIT_BURST", "5"),
		},
	}

	if err := p.err(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate проверяет согласованность настроек
func (c *Config) Validate() error {
	var errs []error

	switch c.DataSource.Mode {
	case DataSourcePostgres, DataSourceSynthetic:
	default:
		errs = append(errs, fmt.Errorf("DATA_SOURCE must be %q or %q, got %q",
			DataSourcePostgres, DataSourceSynthetic, c.DataSource.Mode))
	}

	switch c.Export.Sink {
	case ExportSinkS3:
		if c.S3.Bucket == "" {
			errs = append(errs, fmt.Errorf("S3_BUCKET is required when EXPORT_SINK=s3"))
		}
	case ExportSinkFilesystem:
		if strings.TrimSpace(c.Export.Dir) == "" {
			errs = append(errs, fmt.Errorf("EXPORT_DIR is required when EXPORT_SINK=filesystem"))
		}
	case ExportSinkNone:
	default:
		errs = append(errs, fmt.Errorf("EXPORT_SINK must be s3, filesystem or none, got %q", c.Export.Sink))
	}

	if c.Report.MaxRangeDays < 1 {
		errs = append(errs, fmt.Errorf("REPORT_MAX_RANGE_DAYS must be positive"))
	}
	if c.Report.DefaultRangeDays < 1 || c.Report.DefaultRangeDays > c.Report.MaxRangeDays {
		errs = append(errs, fmt.Errorf("REPORT_DEFAULT_RANGE_DAYS must be between 1 and REPORT_MAX_RANGE_DAYS"))
	}
	if c.Health.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("HEALTH_POLL_INTERVAL must be positive"))
	}
	if c.Security.AuthEnabled && c.Security.AuthToken == "" {
		errs = append(errs, fmt.Errorf("AUTH_BEARER_TOKEN is required when AUTH_ENABLED=true"))
	}

	return errors.Join(errs...)
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// Addr возвращает адрес redis в виде host:port
func (c *RedisConfig) Addr() string {
	return c.Host + ":" + c.Port
}

// envParser накапливает ошибки разбора переменных окружения
type envParser struct {
	errs []error
}

func (p *envParser) duration(key, defaultValue string) time.Duration {
	value, err := time.ParseDuration(getEnv(key, defaultValue))
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("invalid %s: %w", key, err))
	}
	return value
}

func (p *envParser) integer(key, defaultValue string) int {
	value, err := strconv.Atoi(getEnv(key, defaultValue))
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("invalid %s: %w", key, err))
	}
	return value
}

func (p *envParser) float(key, defaultValue string) float64 {
	value, err := strconv.ParseFloat(getEnv(key, defaultValue), 64)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("invalid %s: %w", key, err))
	}
	return value
}

func (p *envParser) err() error {
	return errors.Join(p.errs...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}

	return parsed
}

func splitCSV(raw string) []string {
	items := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

func hostname() string {
	name, err := os.Hostname()
	if err != nil || name == "" {
		return "recycling-dashboard"
	}
	return name
}
