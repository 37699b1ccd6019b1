package config

import "fmt"

type ServerConfig struct {
	Host             string   `mapstructure:"host"`
	Port             int      `mapstructure:"port"`
	Mode             string   `mapstructure:"mode"`
	BaseURL          string   `mapstructure:"base_url"`
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AnalysisUpstream string   `mapstructure:"analysis_upstream"`
}

func (s *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

func (d *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		d.Username, d.Password, d.Host, d.Port, d.Database)
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// PlanPrices holds the processor price identifiers for a single plan.
// A plan is either recurring (monthly/yearly) or one-time, never both.
type PlanPrices struct {
	Monthly string `mapstructure:"monthly"`
	Yearly  string `mapstructure:"yearly"`
	OneTime string `mapstructure:"one_time"`
}

// EndpointRateLimit is a short fixed-window request cap for one endpoint.
type EndpointRateLimit struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowSeconds int `mapstructure:"window_seconds"`
}

type BillingConfig struct {
	SecretKey      string                       `mapstructure:"secret_key"`
	WebhookSecret  string                       `mapstructure:"webhook_secret"`
	SuccessURL     string                       `mapstructure:"success_url"`
	CancelURL      string                       `mapstructure:"cancel_url"`
	PortalReturnURL string                      `mapstructure:"portal_return_url"`
	Prices         map[string]PlanPrices        `mapstructure:"prices"`
	UsageLimits    map[string]int64             `mapstructure:"usage_limits"`
	RateLimits     map[string]EndpointRateLimit `mapstructure:"rate_limits"`
}
