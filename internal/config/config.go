package config

import (
	"errors"
	"fmt"
	"net/netip"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds every runtime setting of the API server.
type Config struct {
	HTTP      HTTPConfig
	DB        DBConfig
	Backup    BackupConfig
	Session   SessionConfig
	Admin     AdminConfig
	Log       LogConfig
	CORS      CORSConfig
	SMS       SMSConfig
	Reports   ReportsConfig
	RateLimit RateLimitConfig
}

// HTTPConfig.TrustedProxies lists the CIDRs or addresses of reverse proxies
// whose forwarding headers identify the client. Empty trusts nobody.
type HTTPConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	TrustedProxies  []string
}

type DBConfig struct {
	Path string
}

type BackupConfig struct {
	Dir       string
	Retention int
}

type SessionConfig struct {
	CookieName  string
	TTL         time.Duration
	IdleTimeout time.Duration
	Secure      bool
}

type AdminConfig struct {
	Username string
	Password string
}

type LogConfig struct {
	Level string
}

type CORSConfig struct {
	Origins []string
}

// SMSConfig selects the SMS provider. Provider "log" only writes to the
// logger; "http" posts to a Twilio-compatible messages endpoint.
type SMSConfig struct {
	Provider   string
	Endpoint   string
	AccountSID string
	AuthToken  string
	From       string
	Timeout    time.Duration
}

type ReportsConfig struct {
	LowStockThreshold float64
}

type RateLimitConfig struct {
	LoginPerMinute int
	APIPerMinute   int
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.addr", ":5000")
	v.SetDefault("http.read_timeout", "30s")
	v.SetDefault("http.write_timeout", "60s")
	v.SetDefault("http.shutdown_timeout", "15s")
	v.SetDefault("http.trusted_proxies", "")
	v.SetDefault("db.path", "erp.db")
	v.SetDefault("backup.dir", "backups")
	v.SetDefault("backup.retention", 10)
	v.SetDefault("session.cookie_name", "erp_session")
	v.SetDefault("session.ttl", "24h")
	v.SetDefault("session.idle_timeout", "8h")
	v.SetDefault("session.secure", false)
	v.SetDefault("admin.username", "admin")
	v.SetDefault("admin.password", "admin123")
	v.SetDefault("log.level", "info")
	v.SetDefault("cors.origins", "*")
	v.SetDefault("sms.provider", "log")
	v.SetDefault("sms.endpoint", "")
	v.SetDefault("sms.timeout", "10s")
	v.SetDefault("reports.low_stock_threshold", 100.0)
	v.SetDefault("ratelimit.login_per_minute", 5)
	v.SetDefault("ratelimit.api_per_minute", 600)
}

// Load reads configuration from defaults, an optional YAML file and ERP_*
// environment variables, in increasing precedence. An empty path searches
// for config.yaml in the working directory.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("ERP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{
		HTTP: HTTPConfig{
			Addr:            v.GetString("http.addr"),
			ReadTimeout:     v.GetDuration("http.read_timeout"),
			WriteTimeout:    v.GetDuration("http.write_timeout"),
			ShutdownTimeout: v.GetDuration("http.shutdown_timeout"),
			TrustedProxies:  splitList(v.GetString("http.trusted_proxies")),
		},
		DB:     DBConfig{Path: v.GetString("db.path")},
		Backup: BackupConfig{
			Dir:       v.GetString("backup.dir"),
			Retention: v.GetInt("backup.retention"),
		},
		Session: SessionConfig{
			CookieName:  v.GetString("session.cookie_name"),
			TTL:         v.GetDuration("session.ttl"),
			IdleTimeout: v.GetDuration("session.idle_timeout"),
			Secure:      v.GetBool("session.secure"),
		},
		Admin: AdminConfig{
			Username: v.GetString("admin.username"),
			Password: v.GetString("admin.password"),
		},
		Log:  LogConfig{Level: v.GetString("log.level")},
		CORS: CORSConfig{Origins: splitList(v.GetString("cors.origins"))},
		SMS: SMSConfig{
			Provider:   v.GetString("sms.provider"),
			Endpoint:   v.GetString("sms.endpoint"),
			AccountSID: v.GetString("sms.account_sid"),
			AuthToken:  v.GetString("sms.auth_token"),
			From:       v.GetString("sms.from"),
			Timeout:    v.GetDuration("sms.timeout"),
		},
		Reports: ReportsConfig{LowStockThreshold: v.GetFloat64("reports.low_stock_threshold")},
		RateLimit: RateLimitConfig{
			LoginPerMinute: v.GetInt("ratelimit.login_per_minute"),
			APIPerMinute:   v.GetInt("ratelimit.api_per_minute"),
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	if c.DB.Path == "" {
		return errors.New("config: db.path is required")
	}
	if c.Session.TTL <= 0 {
		return errors.New("config: session.ttl must be positive")
	}
	if c.Admin.Username == "" || c.Admin.Password == "" {
		return errors.New("config: admin.username and admin.password are required")
	}
	for _, p := range c.HTTP.TrustedProxies {
		if _, err := netip.ParsePrefix(p); err == nil {
			continue
		}
		if _, err := netip.ParseAddr(p); err != nil {
			return fmt.Errorf("config: http.trusted_proxies entry %q is not an address or CIDR", p)
		}
	}
	switch c.SMS.Provider {
	case "log":
	case "http":
		if c.SMS.Endpoint == "" {
			return errors.New("config: sms.endpoint is required for the http provider")
		}
	default:
		return fmt.Errorf("config: unknown sms.provider %q", c.SMS.Provider)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
