package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "TOKOADMIN"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "TOKOADMIN_DB_DSN"
	EnvDBHost = "TOKOADMIN_DB_HOST"
	EnvDBUser = "TOKOADMIN_DB_USER"
	EnvDBName = "TOKOADMIN_DB_NAME"
)

var requiredDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	GCP           GCPConfig
	GCS           GCSConfig
	PubSub        PubSubConfig
	Dashboard     DashboardConfig
	LiveQuery     LiveQueryConfig
	FeatureFlags  FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"TOKOADMIN_APP_ENV" required:"true"`
	Port         string `envconfig:"TOKOADMIN_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"TOKOADMIN_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"TOKOADMIN_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"TOKOADMIN_DB_DSN"`

	Host     string `envconfig:"TOKOADMIN_DB_HOST"`
	Port     int    `envconfig:"TOKOADMIN_DB_PORT" default:"5432"`
	User     string `envconfig:"TOKOADMIN_DB_USER"`
	Password string `envconfig:"TOKOADMIN_DB_PASSWORD"`
	Name     string `envconfig:"TOKOADMIN_DB_NAME"`
	SSLMode  string `envconfig:"TOKOADMIN_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"TOKOADMIN_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"TOKOADMIN_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"TOKOADMIN_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"TOKOADMIN_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"TOKOADMIN_REDIS_URL" required:"true"`
	Address      string        `envconfig:"TOKOADMIN_REDIS_ADDR"`
	Password     string        `envconfig:"TOKOADMIN_REDIS_PASSWORD"`
	DB           int           `envconfig:"TOKOADMIN_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"TOKOADMIN_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TOKOADMIN_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TOKOADMIN_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TOKOADMIN_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"TOKOADMIN_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"TOKOADMIN_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"TOKOADMIN_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"TOKOADMIN_JWT_EXPIRATION_MINUTES" default:"720"`
}

// AccessTokenTTL returns the access token lifetime.
func (j JWTConfig) AccessTokenTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"TOKOADMIN_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"TOKOADMIN_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"TOKOADMIN_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"TOKOADMIN_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"TOKOADMIN_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"TOKOADMIN_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit int           `envconfig:"TOKOADMIN_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit    int           `envconfig:"TOKOADMIN_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"TOKOADMIN_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"TOKOADMIN_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"TOKOADMIN_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName  string `envconfig:"TOKOADMIN_GCS_BUCKET_NAME" required:"true"`
	MaxUploadMB int    `envconfig:"TOKOADMIN_GCS_MAX_UPLOAD_MB" default:"10"`
}

type PubSubConfig struct {
	ImageDeletionTopic        string `envconfig:"TOKOADMIN_PUBSUB_IMAGE_DELETION_TOPIC" default:"toko-image-deletions"`
	ImageDeletionSubscription string `envconfig:"TOKOADMIN_PUBSUB_IMAGE_DELETION_SUBSCRIPTION"`
}

type DashboardConfig struct {
	CountCacheTTL time.Duration `envconfig:"TOKOADMIN_DASHBOARD_COUNT_CACHE_TTL" default:"30s"`
	RecentOrders  int           `envconfig:"TOKOADMIN_DASHBOARD_RECENT_ORDERS" default:"5"`
	RevenueDays   int           `envconfig:"TOKOADMIN_DASHBOARD_REVENUE_DAYS" default:"7"`
}

type LiveQueryConfig struct {
	PageSize int `envconfig:"TOKOADMIN_LIVEQUERY_PAGE_SIZE" default:"10"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"TOKOADMIN_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range requiredDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
