package config

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type Config struct {
	Port                  string `mapstructure:"port"`
	AllowedOrigin         string `mapstructure:"allowed_origin"`
	DatabaseURL           string `mapstructure:"database_url"`
	RedisAddr             string `mapstructure:"redis_addr"`
	RedisPassword         string `mapstructure:"redis_password"`
	RedisDB               int    `mapstructure:"redis_db"`
	AuthSecret            string `mapstructure:"auth_secret"`
	AccessTokenTTLMinutes int    `mapstructure:"access_token_ttl_minutes"`
	LogLevel              string `mapstructure:"log_level"`
	AppEnv                string `mapstructure:"app_env"`

	Report   Report   `mapstructure:",squash"`
	Business Business `mapstructure:",squash"`
	Seed     Seed     `mapstructure:",squash"`
}

// Report holds the knobs of the aggregation engine.
type Report struct {
	BusinessUTCOffset       time.Duration `mapstructure:"business_utc_offset"`
	BEYearThreshold         int           `mapstructure:"be_year_threshold"`
	TopServicesLimit        int           `mapstructure:"top_services_limit"`
	UnassignedEmployeeLabel string        `mapstructure:"unassigned_employee_label"`
}

// Business is the fallback business settings used when Redis holds none.
type Business struct {
	StoreName     string          `mapstructure:"store_name"`
	DailyTarget   decimal.Decimal `mapstructure:"daily_target"`
	MonthlyTarget decimal.Decimal `mapstructure:"monthly_target"`
}

// Seed credentials for the in-memory store.
type Seed struct {
	AdminPassword string `mapstructure:"seed_admin_password"`
	StaffPassword string `mapstructure:"seed_staff_password"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("ALLOWED_ORIGIN", "http://127.0.0.1:3000")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("AUTH_SECRET", "")
	v.SetDefault("ACCESS_TOKEN_TTL_MINUTES", 480)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("APP_ENV", "development")

	v.SetDefault("BUSINESS_UTC_OFFSET", "7h")
	v.SetDefault("BE_YEAR_THRESHOLD", 2500)
	v.SetDefault("TOP_SERVICES_LIMIT", 5)
	v.SetDefault("UNASSIGNED_EMPLOYEE_LABEL", "ไม่ระบุพนักงาน")

	v.SetDefault("STORE_NAME", "Nails & Brows")
	v.SetDefault("DAILY_TARGET", "1000")
	v.SetDefault("MONTHLY_TARGET", "30000")

	v.SetDefault("SEED_ADMIN_PASSWORD", "")
	v.SetDefault("SEED_STAFF_PASSWORD", "")
}

// Load reads an optional .env file, then the process environment, on top
// of the defaults above.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	var cfg Config
	err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		stringToDecimalHook(),
	)))
	if err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	cfg.AuthSecret = strings.TrimSpace(cfg.AuthSecret)
	if cfg.AccessTokenTTLMinutes < 1 {
		cfg.AccessTokenTTLMinutes = 480
	}
	if cfg.Report.TopServicesLimit < 1 {
		cfg.Report.TopServicesLimit = 5
	}
	return cfg, nil
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

func (c Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.AccessTokenTTLMinutes) * time.Minute
}

var decimalType = reflect.TypeOf(decimal.Decimal{})

func stringToDecimalHook() mapstructure.DecodeHookFuncType {
	return func(_ reflect.Type, to reflect.Type, data any) (any, error) {
		if to != decimalType {
			return data, nil
		}
		switch value := data.(type) {
		case string:
			if strings.TrimSpace(value) == "" {
				return decimal.Zero, nil
			}
			return decimal.NewFromString(strings.TrimSpace(value))
		case int:
			return decimal.NewFromInt(int64(value)), nil
		case int64:
			return decimal.NewFromInt(value), nil
		case float64:
			return decimal.NewFromFloat(value), nil
		default:
			return data, nil
		}
	}
}
