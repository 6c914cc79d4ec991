package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/de-tools/stats-report/pkg/models/domain"
	"github.com/de-tools/stats-report/pkg/services/stats"
	"github.com/spf13/viper"
)

type Config struct {
	LogLevel string        `mapstructure:"log_level"`
	API      APIConfig     `mapstructure:"api"`
	Query    QueryConfig   `mapstructure:"query"`
	Report   ReportConfig  `mapstructure:"report"`
	Bot      BotConfig     `mapstructure:"bot"`
	Server   ServerConfig  `mapstructure:"server"`
	History  HistoryConfig `mapstructure:"history"`
	Archive  ArchiveConfig `mapstructure:"archive"`
}

type APIConfig struct {
	URL       string        `mapstructure:"url"`
	Token     string        `mapstructure:"token"`
	TokenType string        `mapstructure:"token_type"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type OrderByConfig struct {
	Field string `mapstructure:"field"`
	Dir   string `mapstructure:"dir"`
}

type QueryConfig struct {
	OrderBy         []OrderByConfig `mapstructure:"order_by"`
	Currency        string          `mapstructure:"currency"`
	Lang            string          `mapstructure:"lang"`
	Level           string          `mapstructure:"level"`
	EntityFields    []string        `mapstructure:"entity_fields"`
	DimensionFields []string        `mapstructure:"dimension_fields"`
	MeasureFields   []string        `mapstructure:"measure_fields"`
	Pretty          bool            `mapstructure:"pretty"`
	StatType        string          `mapstructure:"stat_type"`
	Timezone        string          `mapstructure:"timezone"`
	Period          string          `mapstructure:"period"`
	Offset          int             `mapstructure:"offset"`
	Limit           int             `mapstructure:"limit"`
}

type ReportConfig struct {
	OutputDir    string `mapstructure:"output_dir"`
	TotalsMarker string `mapstructure:"totals_marker"`
	SheetName    string `mapstructure:"sheet_name"`
}

type BotConfig struct {
	Token        string        `mapstructure:"token"`
	AdminUserIDs string        `mapstructure:"admin_user_ids"`
	APIURL       string        `mapstructure:"api_url"`
	PollTimeout  time.Duration `mapstructure:"poll_timeout"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            string        `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type HistoryConfig struct {
	DBPath string `mapstructure:"db_path"`
}

type ArchiveConfig struct {
	Bucket string `mapstructure:"bucket"`
	Prefix string `mapstructure:"prefix"`
}

// envBindings maps config keys to the environment variables of a deployment.
var envBindings = map[string]string{
	"log_level":          "LOG_LEVEL",
	"api.url":            "URL",
	"api.token":          "TOKEN",
	"api.token_type":     "TOKEN_TYPE",
	"api.timeout":        "HTTP_TIMEOUT",
	"report.output_dir":  "OUTPUT_DIR",
	"bot.token":          "BOT_TOKEN",
	"bot.admin_user_ids": "ADMIN_USER_IDS",
	"server.host":        "SERVER_HOST",
	"server.port":        "SERVER_PORT",
	"history.db_path":    "HISTORY_DB",
	"archive.bucket":     "ARCHIVE_BUCKET",
	"archive.prefix":     "ARCHIVE_PREFIX",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("api.token_type", "OAuth")
	v.SetDefault("api.timeout", 60*time.Second)

	v.SetDefault("query.order_by", []map[string]string{{"field": "date", "dir": "desc"}})
	v.SetDefault("query.currency", "RUB")
	v.SetDefault("query.lang", "ru")
	v.SetDefault("query.level", "payment")
	v.SetDefault("query.entity_fields", []string{"page_id", "page_caption"})
	v.SetDefault("query.dimension_fields", []string{"date|day"})
	v.SetDefault("query.measure_fields", []string{
		"cpmv_partner_wo_nds",
		"clicks_direct",
		"partner_wo_nds",
		"clicks",
		"impressions",
		"ecpm_partner_wo_nds",
	})
	v.SetDefault("query.pretty", true)
	v.SetDefault("query.stat_type", "main")
	v.SetDefault("query.timezone", "Europe/Moscow")
	v.SetDefault("query.period", "7days")
	v.SetDefault("query.offset", 0)
	v.SetDefault("query.limit", 500)

	v.SetDefault("report.output_dir", ".")
	v.SetDefault("report.totals_marker", "Итого")
	v.SetDefault("report.sheet_name", "Report")

	v.SetDefault("bot.api_url", "https://api.telegram.org")
	v.SetDefault("bot.poll_timeout", 30*time.Second)

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("archive.prefix", "reports")
}

// Load reads the optional config file at path and overlays environment
// variables. An empty path means environment and defaults only.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.AllowEmptyEnv(true)
	setDefaults(v)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

// Validate checks what every entrypoint needs to reach the statistics API.
func (c *Config) Validate() error {
	var missing []string
	if c.API.URL == "" {
		missing = append(missing, "URL")
	}
	if c.API.Token == "" {
		missing = append(missing, "TOKEN")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	if err := c.ReportQuery().Validate(); err != nil {
		return fmt.Errorf("invalid query configuration: %w", err)
	}
	return nil
}

func (c *Config) Credentials() stats.Credentials {
	return stats.Credentials{
		Scheme: c.API.TokenType,
		Token:  c.API.Token,
	}
}

func (c *Config) ReportQuery() domain.ReportQuery {
	q := c.Query
	orderBy := make([]domain.OrderBy, 0, len(q.OrderBy))
	for _, o := range q.OrderBy {
		orderBy = append(orderBy, domain.OrderBy{Field: o.Field, Dir: o.Dir})
	}

	return domain.ReportQuery{
		OrderBy:         orderBy,
		Currency:        q.Currency,
		Lang:            q.Lang,
		Level:           q.Level,
		EntityFields:    append([]string(nil), q.EntityFields...),
		DimensionFields: append([]string(nil), q.DimensionFields...),
		MeasureFields:   append([]string(nil), q.MeasureFields...),
		Pretty:          q.Pretty,
		StatType:        q.StatType,
		Timezone:        q.Timezone,
		Period:          q.Period,
		Window:          domain.Window{Offset: q.Offset, Limit: q.Limit},
	}
}
