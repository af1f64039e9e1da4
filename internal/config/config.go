package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"TaseTracker/internal/model"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Discord struct {
		WebhookURL string `yaml:"webhook_url"`
	} `yaml:"discord"`
	Email struct {
		Enabled    bool   `yaml:"enabled"`
		SMTPServer string `yaml:"smtp_server"`
		SMTPPort   int    `yaml:"smtp_port"`
		Address    string `yaml:"address"`
		Password   string `yaml:"password"`
	} `yaml:"email"`
	DataSource struct {
		BaseURL       string   `yaml:"base_url"`
		APIKey        string   `yaml:"api_key"`
		CacheTTL      string   `yaml:"cache_ttl"`
		RateLimit     float64  `yaml:"rate_limit"`
		DisplayTZ     string   `yaml:"display_timezone"`
		Watchlist     []string `yaml:"watchlist"`
		DefaultSymbol string   `yaml:"default_symbol"`
	} `yaml:"data_source"`
	Markets  model.Markets `yaml:"markets"`
	Exchange struct {
		Timezone string   `yaml:"timezone"`
		Open     string   `yaml:"open"`
		Close    string   `yaml:"close"`
		RestDays []string `yaml:"rest_days"`
		// Holidays maps a year to its list of YYYY-MM-DD closure dates.
		Holidays map[int][]string `yaml:"holidays"`
	} `yaml:"exchange"`
	FX struct {
		Rate              float64 `yaml:"rate"`
		ReportingCurrency string  `yaml:"reporting_currency"`
	} `yaml:"fx"`
	Schedule struct {
		RefreshInterval string `yaml:"refresh_interval"`
		AutoRefresh     bool   `yaml:"auto_refresh"`
		DigestCron      string `yaml:"digest_cron"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Telegram.ChatID = v
	}
	if v := os.Getenv("DISCORD_WEBHOOK_URL"); v != "" {
		c.Discord.WebhookURL = v
	}
	if v := os.Getenv("SMTP_SERVER"); v != "" {
		c.Email.SMTPServer = v
	}
	if v := os.Getenv("SMTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Email.SMTPPort = port
		}
	}
	if v := os.Getenv("EMAIL_ADDRESS"); v != "" {
		c.Email.Address = v
	}
	if v := os.Getenv("EMAIL_PASSWORD"); v != "" {
		c.Email.Password = v
	}
	if v := os.Getenv("EMAIL_ENABLED"); v != "" {
		c.Email.Enabled = v == "true"
	}
	if v := os.Getenv("QUOTES_BASE_URL"); v != "" {
		c.DataSource.BaseURL = v
	}
	if v := os.Getenv("QUOTES_API_KEY"); v != "" {
		c.DataSource.APIKey = v
	}
	if v := os.Getenv("QUOTE_CACHE_TTL"); v != "" {
		c.DataSource.CacheTTL = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Proxy = v
	}
	if v := os.Getenv("FX_RATE"); v != "" {
		var rate float64
		if _, err := fmt.Sscanf(v, "%f", &rate); err == nil {
			c.FX.Rate = rate
		}
	}
	if v := os.Getenv("REFRESH_INTERVAL"); v != "" {
		c.Schedule.RefreshInterval = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Database.SQLitePath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

func (c *Config) applyDefaults() {
	if c.Markets == (model.Markets{}) {
		c.Markets = model.DefaultMarkets
	}
	if c.Email.SMTPServer == "" {
		c.Email.SMTPServer = "smtp.gmail.com"
	}
	if c.Email.SMTPPort == 0 {
		c.Email.SMTPPort = 587
	}
	if c.DataSource.CacheTTL == "" {
		c.DataSource.CacheTTL = "300s"
	}
	if c.DataSource.RateLimit == 0 {
		c.DataSource.RateLimit = 5
	}
	if c.DataSource.DisplayTZ == "" {
		c.DataSource.DisplayTZ = "Europe/Paris"
	}
	if c.DataSource.DefaultSymbol == "" {
		c.DataSource.DefaultSymbol = "TEVA"
	}
	if len(c.DataSource.Watchlist) == 0 {
		c.DataSource.Watchlist = []string{
			"TEVA", "AZRG.TA", "BEZQ.TA", "LUMI.TA", "POLI.TA",
			"ICL.TA", "NICE", "ELAL.TA", "ENOG.TA", "KSML.TA",
		}
	}
	if c.Exchange.Timezone == "" {
		c.Exchange.Timezone = "Asia/Jerusalem"
	}
	if c.Exchange.Open == "" {
		c.Exchange.Open = "09:45"
	}
	if c.Exchange.Close == "" {
		c.Exchange.Close = "16:25"
	}
	if len(c.Exchange.RestDays) == 0 {
		c.Exchange.RestDays = []string{"friday", "saturday"}
	}
	if c.Exchange.Holidays == nil {
		c.Exchange.Holidays = map[int][]string{2024: DefaultHolidays2024}
	}
	if c.FX.Rate == 0 {
		c.FX.Rate = 3.7
	}
	if c.FX.ReportingCurrency == "" {
		c.FX.ReportingCurrency = c.Markets.LocalCurrency
	}
	if c.Schedule.RefreshInterval == "" {
		c.Schedule.RefreshInterval = "30s"
	}
	if c.Schedule.DigestCron == "" {
		c.Schedule.DigestCron = "0 30 16 * * 0-4"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// DefaultHolidays2024 lists the 2024 TASE closure dates.
var DefaultHolidays2024 = []string{
	"2024-03-24", "2024-04-22", "2024-04-23", "2024-04-28", "2024-04-29",
	"2024-05-13", "2024-06-11", "2024-10-03", "2024-10-04", "2024-10-13",
	"2024-10-18", "2024-10-19", "2024-10-25",
}

// Validate checks that all values are usable.
func (c *Config) Validate() error {
	if _, err := c.CacheTTL(); err != nil {
		return err
	}
	if _, err := c.RefreshInterval(); err != nil {
		return err
	}
	if _, err := ParseClock(c.Exchange.Open); err != nil {
		return fmt.Errorf("exchange.open: %w", err)
	}
	if _, err := ParseClock(c.Exchange.Close); err != nil {
		return fmt.Errorf("exchange.close: %w", err)
	}
	if _, err := c.RestDays(); err != nil {
		return err
	}
	if _, err := time.LoadLocation(c.Exchange.Timezone); err != nil {
		return fmt.Errorf("exchange.timezone: %w", err)
	}
	if _, err := time.LoadLocation(c.DataSource.DisplayTZ); err != nil {
		return fmt.Errorf("data_source.display_timezone: %w", err)
	}
	if !model.PositiveFinite(c.FX.Rate) {
		return fmt.Errorf("fx.rate %v must be a positive number", c.FX.Rate)
	}
	if c.FX.ReportingCurrency != c.Markets.LocalCurrency && c.FX.ReportingCurrency != c.Markets.ForeignCurrency {
		return fmt.Errorf("fx.reporting_currency must be %s or %s", c.Markets.LocalCurrency, c.Markets.ForeignCurrency)
	}
	if c.Email.Enabled && c.Email.Address == "" {
		return fmt.Errorf("email.address is required when email is enabled")
	}
	return nil
}

// CacheTTL parses the quote-cache freshness window.
func (c *Config) CacheTTL() (time.Duration, error) {
	d, err := time.ParseDuration(c.DataSource.CacheTTL)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("data_source.cache_ttl %q must be a positive duration", c.DataSource.CacheTTL)
	}
	return d, nil
}

// RefreshInterval parses the auto-refresh interval.
func (c *Config) RefreshInterval() (time.Duration, error) {
	d, err := time.ParseDuration(c.Schedule.RefreshInterval)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("schedule.refresh_interval %q must be a positive duration", c.Schedule.RefreshInterval)
	}
	return d, nil
}

// RestDays converts the configured weekday names.
func (c *Config) RestDays() ([]time.Weekday, error) {
	days := make([]time.Weekday, 0, len(c.Exchange.RestDays))
	for _, name := range c.Exchange.RestDays {
		d, ok := weekdays[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return nil, fmt.Errorf("exchange.rest_days: unknown weekday %q", name)
		}
		days = append(days, d)
	}
	return days, nil
}

var weekdays = map[string]time.Weekday{
	"sunday": time.Sunday, "monday": time.Monday, "tuesday": time.Tuesday,
	"wednesday": time.Wednesday, "thursday": time.Thursday,
	"friday": time.Friday, "saturday": time.Saturday,
}

// ParseClock parses "HH:MM" into minutes since midnight.
func ParseClock(s string) (int, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("parse %q as HH:MM: %w", s, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}
