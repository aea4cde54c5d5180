package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"
	"time"

	"github.com/RoyceAzure/lab/crm/internal/constants"
	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

/*
環境變數優先於設定檔, 設定檔優先於預設值
CRM_CONFIG 指定的設定檔會被監聽, 變更時重新載入並套用 log level
*/
const ConfigFileEnv = "CRM_CONFIG"

type Config struct {
	Env         string `mapstructure:"ENV"`
	ServerPort  string `mapstructure:"SERVER_PORT"`
	StoreDriver string `mapstructure:"STORE_DRIVER"`

	DbName    string `mapstructure:"POSTGRES_DB"`
	DbHost    string `mapstructure:"POSTGRES_HOST"`
	DbPort    string `mapstructure:"POSTGRES_PORT"`
	DbUser    string `mapstructure:"POSTGRES_USER"`
	DbPas     string `mapstructure:"POSTGRES_PASSWORD"`
	DbSSLMode string `mapstructure:"POSTGRES_SSLMODE"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	KafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	KafkaTopic   string `mapstructure:"KAFKA_TOPIC"`

	GraphQLEndpoint string `mapstructure:"GRAPHQL_ENDPOINT"`
	LogLevel        string `mapstructure:"LOG_LEVEL"`

	RateLimitCapacity  int     `mapstructure:"RATE_LIMIT_CAPACITY"`
	RateLimitPerSecond float64 `mapstructure:"RATE_LIMIT_PER_SECOND"`

	HeartbeatSchedule      string `mapstructure:"HEARTBEAT_SCHEDULE"`
	RestockSchedule        string `mapstructure:"RESTOCK_SCHEDULE"`
	ReportSchedule         string `mapstructure:"REPORT_SCHEDULE"`
	OrderRemindersSchedule string `mapstructure:"ORDER_REMINDERS_SCHEDULE"`

	HeartbeatLogPath      string `mapstructure:"HEARTBEAT_LOG_PATH"`
	RestockLogPath        string `mapstructure:"RESTOCK_LOG_PATH"`
	ReportLogPath         string `mapstructure:"REPORT_LOG_PATH"`
	OrderRemindersLogPath string `mapstructure:"ORDER_REMINDERS_LOG_PATH"`

	ReminderLookbackDays int           `mapstructure:"REMINDER_LOOKBACK_DAYS"`
	JobLockTTL           time.Duration `mapstructure:"JOB_LOCK_TTL"`
	MigrationURL         string        `mapstructure:"MIGRATION_URL"`
}

var defaults = map[string]interface{}{
	"ENV":                      string(constants.Dev),
	"SERVER_PORT":              "8000",
	"STORE_DRIVER":             string(constants.StoreDriverPostgres),
	"POSTGRES_DB":              "crm",
	"POSTGRES_HOST":            "localhost",
	"POSTGRES_PORT":            "5432",
	"POSTGRES_USER":            "postgres",
	"POSTGRES_PASSWORD":        "",
	"POSTGRES_SSLMODE":         "disable",
	"REDIS_ADDR":               "",
	"REDIS_PASSWORD":           "",
	"REDIS_DB":                 0,
	"KAFKA_BROKERS":            "",
	"KAFKA_TOPIC":              "crm.events",
	"GRAPHQL_ENDPOINT":         "",
	"LOG_LEVEL":                "info",
	"RATE_LIMIT_CAPACITY":      100,
	"RATE_LIMIT_PER_SECOND":    10.0,
	"HEARTBEAT_SCHEDULE":       "*/5 * * * *",
	"RESTOCK_SCHEDULE":         "0 */12 * * *",
	"REPORT_SCHEDULE":          "0 6 * * 1",
	"ORDER_REMINDERS_SCHEDULE": "0 8 * * *",
	"HEARTBEAT_LOG_PATH":       "/tmp/crm_heartbeat_log.txt",
	"RESTOCK_LOG_PATH":         "/tmp/low_stock_updates_log.txt",
	"REPORT_LOG_PATH":          "/tmp/crm_report_log.txt",
	"ORDER_REMINDERS_LOG_PATH": "/tmp/order_reminders_log.txt",
	"REMINDER_LOOKBACK_DAYS":   constants.DefaultReminderLookbackDays,
	"JOB_LOCK_TTL":             "10m",
	"MIGRATION_URL":            "",
}

func (c *Config) IsProduction() bool {
	return c.Env == string(constants.Prod)
}

// KafkaBrokerList 逗號分隔, 空字串代表不發送事件
func (c *Config) KafkaBrokerList() []string {
	var out []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

// DatabaseURL golang-migrate 使用的 url 格式
func (c *Config) DatabaseURL() string {
	if c.MigrationURL != "" {
		return c.MigrationURL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", c.DbUser, c.DbPas, c.DbHost, c.DbPort, c.DbName, c.DbSSLMode)
}

func (c *Config) validate() error {
	switch constants.StoreDriver(c.StoreDriver) {
	case constants.StoreDriverPostgres, constants.StoreDriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL %q: %w", c.LogLevel, err)
	}
	if c.RateLimitCapacity <= 0 || c.RateLimitPerSecond <= 0 {
		return errors.New("rate limit capacity and rate must be positive")
	}
	if c.ReminderLookbackDays <= 0 {
		return errors.New("REMINDER_LOOKBACK_DAYS must be positive")
	}
	return nil
}

// Provider 持有目前的設定, 讀取需要讀鎖
type Provider struct {
	v      *viper.Viper
	mu     sync.RWMutex
	config *Config
}

func (p *Provider) Get() *Config {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.config
}

/*
Load 讀取 .env 與環境變數, path 不為空時一併讀取並監聽該設定檔
單純回傳錯誤, 由外部決定要不要中止
*/
func Load(envFile, path string) (*Provider, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	cf, err := decode(v)
	if err != nil {
		return nil, err
	}
	p := &Provider{v: v, config: cf}

	if path != "" {
		v.OnConfigChange(func(e fsnotify.Event) {
			p.reload(e.Name)
		})
		v.WatchConfig()
	}
	return p, nil
}

func decode(v *viper.Viper) (*Config, error) {
	cf := &Config{}
	if err := v.Unmarshal(cf); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cf.validate(); err != nil {
		return nil, err
	}
	return cf, nil
}

// reload 新設定不合法時保留舊設定
func (p *Provider) reload(name string) {
	cf, err := decode(p.v)
	if err != nil {
		log.Error().Err(err).Str("file", name).Msg("reload config failed, keep previous config")
		return
	}
	p.mu.Lock()
	p.config = cf
	p.mu.Unlock()

	ApplyLogLevel(cf.LogLevel)
	log.Info().Str("file", name).Str("log_level", cf.LogLevel).Msg("config reloaded")
}

func ApplyLogLevel(level string) {
	lv, err := zerolog.ParseLevel(level)
	if err != nil {
		lv = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lv)
}
