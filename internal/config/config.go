package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Mailbox   MailboxConfig   `mapstructure:"mailbox"`
	OpenAI    OpenAIConfig    `mapstructure:"openai"`
	Triage    TriageConfig    `mapstructure:"triage"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	CronSecret   string        `mapstructure:"cron_secret"`
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

// MailboxConfig holds the support mailbox configuration. The Gmail API is
// the default transport; IMAP is available for non-Gmail mailboxes.
type MailboxConfig struct {
	ClientID       string `mapstructure:"client_id"`
	ClientSecret   string `mapstructure:"client_secret"`
	RefreshToken   string `mapstructure:"refresh_token"`
	UserEmail      string `mapstructure:"user_email"`
	UseIMAP        bool   `mapstructure:"use_imap"`
	IMAPHost       string `mapstructure:"imap_host"`
	IMAPPort       int    `mapstructure:"imap_port"`
	IMAPUser       string `mapstructure:"imap_user"`
	IMAPPassword   string `mapstructure:"imap_password"`
	ArchiveMailbox string `mapstructure:"archive_mailbox"`
	MaxFetch       int64  `mapstructure:"max_fetch"`
}

// OpenAIConfig holds the LLM classifier configuration. An empty APIKey
// disables the LLM path and the keyword classifier is used directly.
type OpenAIConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// TriageConfig holds triage pipeline configuration
type TriageConfig struct {
	BlockedSenders []string `mapstructure:"blocked_senders"`
	OrgDomain      string   `mapstructure:"org_domain"`
	SupportCC      string   `mapstructure:"support_cc"`
	AppURL         string   `mapstructure:"app_url"`
	MaxBodyChars   int      `mapstructure:"max_body_chars"`
}

// SchedulerConfig holds scheduler configuration
type SchedulerConfig struct {
	IntervalSeconds int `mapstructure:"interval_seconds"`
}

// LoadConfig loads configuration from environment variables and config file
func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Set defaults
	setDefaults()

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Environment variables override config file
	viper.AutomaticEnv()

	// Bind environment variables
	bindEnvVars()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "60s")

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 3306)

	viper.SetDefault("mailbox.use_imap", false)
	viper.SetDefault("mailbox.imap_host", "imap.gmail.com")
	viper.SetDefault("mailbox.imap_port", 993)
	viper.SetDefault("mailbox.archive_mailbox", "Archive")
	viper.SetDefault("mailbox.max_fetch", 50)

	viper.SetDefault("openai.model", "gpt-4o-mini")

	viper.SetDefault("triage.blocked_senders", []string{"noreply@", "no-reply@", "mailer-daemon@"})
	viper.SetDefault("triage.max_body_chars", 1000)

	viper.SetDefault("scheduler.interval_seconds", 60)
}

// bindEnvVars binds environment variables to configuration keys
func bindEnvVars() {
	// Server
	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("server.read_timeout", "SERVER_READ_TIMEOUT")
	viper.BindEnv("server.write_timeout", "SERVER_WRITE_TIMEOUT")
	viper.BindEnv("server.cron_secret", "CRON_SECRET")

	// Database
	viper.BindEnv("database.host", "DB_HOST")
	viper.BindEnv("database.port", "DB_PORT")
	viper.BindEnv("database.user", "DB_USER")
	viper.BindEnv("database.password", "DB_PASSWORD")
	viper.BindEnv("database.dbname", "DB_NAME")

	// Mailbox
	viper.BindEnv("mailbox.client_id", "GMAIL_CLIENT_ID")
	viper.BindEnv("mailbox.client_secret", "GMAIL_CLIENT_SECRET")
	viper.BindEnv("mailbox.refresh_token", "GMAIL_REFRESH_TOKEN")
	viper.BindEnv("mailbox.user_email", "GMAIL_USER_EMAIL")
	viper.BindEnv("mailbox.use_imap", "MAILBOX_USE_IMAP")
	viper.BindEnv("mailbox.imap_host", "MAILBOX_IMAP_HOST")
	viper.BindEnv("mailbox.imap_port", "MAILBOX_IMAP_PORT")
	viper.BindEnv("mailbox.imap_user", "MAILBOX_IMAP_USER")
	viper.BindEnv("mailbox.imap_password", "MAILBOX_IMAP_PASSWORD")
	viper.BindEnv("mailbox.archive_mailbox", "MAILBOX_ARCHIVE")

	// OpenAI
	viper.BindEnv("openai.api_key", "OPENAI_API_KEY")
	viper.BindEnv("openai.model", "OPENAI_MODEL")

	// Triage
	viper.BindEnv("triage.org_domain", "TRIAGE_ORG_DOMAIN")
	viper.BindEnv("triage.support_cc", "TRIAGE_SUPPORT_CC")
	viper.BindEnv("triage.app_url", "APP_URL")
	viper.BindEnv("triage.max_body_chars", "TRIAGE_MAX_BODY_CHARS")

	// Scheduler
	viper.BindEnv("scheduler.interval_seconds", "SCHEDULER_INTERVAL_SECONDS")
}

// GetDSN returns the database connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.User, c.Password, c.Host, c.Port, c.DBName)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	if c.Server.CronSecret == "" {
		return fmt.Errorf("cron secret is required")
	}

	if c.Database.Host == "" || c.Database.User == "" || c.Database.DBName == "" {
		return fmt.Errorf("database host, user, and dbname are required")
	}

	if !c.Mailbox.UseIMAP {
		if c.Mailbox.ClientID == "" || c.Mailbox.ClientSecret == "" || c.Mailbox.RefreshToken == "" {
			return fmt.Errorf("Gmail OAuth2 credentials are required when not using IMAP")
		}
	} else {
		if c.Mailbox.IMAPUser == "" || c.Mailbox.IMAPPassword == "" {
			return fmt.Errorf("IMAP credentials are required when using IMAP")
		}
	}

	if c.Triage.OrgDomain == "" {
		return fmt.Errorf("triage org domain is required")
	}

	if c.Scheduler.IntervalSeconds <= 0 {
		return fmt.Errorf("scheduler interval must be greater than 0")
	}

	return nil
}
