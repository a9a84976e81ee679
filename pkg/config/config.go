package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Gate          GateConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
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
	Env          string `envconfig:"CAMPASS_APP_ENV" required:"true"`
	Port         string `envconfig:"CAMPASS_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"CAMPASS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CAMPASS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"CAMPASS_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"CAMPASS_DB_DSN"`
	Driver string `envconfig:"CAMPASS_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"CAMPASS_DB_HOST"`
	Port     int    `envconfig:"CAMPASS_DB_PORT" default:"5432"`
	User     string `envconfig:"CAMPASS_DB_USER"`
	Password string `envconfig:"CAMPASS_DB_PASSWORD"`
	Name     string `envconfig:"CAMPASS_DB_NAME"`
	SSLMode  string `envconfig:"CAMPASS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CAMPASS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CAMPASS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CAMPASS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CAMPASS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"CAMPASS_REDIS_URL"`
	Address      string        `envconfig:"CAMPASS_REDIS_ADDR"`
	Password     string        `envconfig:"CAMPASS_REDIS_PASSWORD"`
	DB           int           `envconfig:"CAMPASS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CAMPASS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CAMPASS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CAMPASS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CAMPASS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CAMPASS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"CAMPASS_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"CAMPASS_JWT_ISSUER" default:"campass"`
	ExpirationMinutes int    `envconfig:"CAMPASS_JWT_EXPIRATION_MINUTES" default:"720"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"CAMPASS_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"CAMPASS_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"CAMPASS_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"CAMPASS_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"CAMPASS_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"CAMPASS_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"CAMPASS_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"CAMPASS_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"CAMPASS_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"CAMPASS_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"CAMPASS_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"CAMPASS_FEATURE_AUTO_MIGRATE" default:"false"`
}

// GateConfig tunes the scheduled overdue-return sweep. The five minute scan
// grace window is a fixed policy constant in the gate service, not config.
type GateConfig struct {
	OverdueGrace time.Duration `envconfig:"CAMPASS_GATE_OVERDUE_GRACE" default:"15m"`
	CronInterval time.Duration `envconfig:"CAMPASS_GATE_CRON_INTERVAL" default:"5m"`
}

type GCPConfig struct {
	ProjectID       string `envconfig:"CAMPASS_GCP_PROJECT_ID"`
	CredentialsFile string `envconfig:"CAMPASS_GCP_CREDENTIALS_FILE"`
}

type PubSubConfig struct {
	NotificationsTopic        string `envconfig:"CAMPASS_PUBSUB_NOTIFICATIONS_TOPIC" default:"campass-notifications"`
	NotificationsSubscription string `envconfig:"CAMPASS_PUBSUB_NOTIFICATIONS_SUBSCRIPTION" default:"campass-notifications-worker"`
}

func (d *DBConfig) ensureDSN() error {
	if d.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: d.Host,
		EnvDBUser: d.User,
		EnvDBName: d.Name,
	}
	for _, env := range requiredDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(d.User)
	if d.Password != "" {
		userInfo = url.UserPassword(d.User, d.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.Name,
	}

	if d.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", d.SSLMode)
		u.RawQuery = q.Encode()
	}

	d.DSN = u.String()
	return nil
}
