package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Duration 提供更灵活的反序列化能力，同时兼容纯秒整数与 Go Duration 字符串。
type Duration time.Duration

// UnmarshalText 使 Viper 可以识别诸如 "30s"、"5m" 或纯数字秒值等配置写法。
func (d *Duration) UnmarshalText(text []byte) error {
	raw := strings.TrimSpace(string(text))
	if raw == "" {
		*d = Duration(0)
		return nil
	}

	if parsed, err := time.ParseDuration(raw); err == nil {
		*d = Duration(parsed)
		return nil
	}

	if seconds, err := strconv.ParseInt(raw, 10, 64); err == nil {
		*d = Duration(time.Duration(seconds) * time.Second)
		return nil
	}

	return fmt.Errorf("invalid duration value: %s", raw)
}

// DurationValue 返回真实的 time.Duration，便于调用方计算。
func (d Duration) DurationValue() time.Duration {
	return time.Duration(d)
}

// GlobalConfig 描述网关进程级参数，所有租户共享。
type GlobalConfig struct {
	ListenPorts []int    `mapstructure:"ListenPorts"`
	HTTPSPorts  []int    `mapstructure:"HTTPSPorts"`
	TorPort     int      `mapstructure:"TorPort"`
	LocalHosts  []string `mapstructure:"LocalHosts"`
	EnableCSP   bool     `mapstructure:"EnableCSP"`
	ServerName  string   `mapstructure:"ServerName"`

	ClientPath     string `mapstructure:"ClientPath"`
	StoragePath    string `mapstructure:"StoragePath"`
	MaxUploadBytes int64  `mapstructure:"MaxUploadBytes"`

	LogLevel      string `mapstructure:"LogLevel"`
	LogFilePath   string `mapstructure:"LogFilePath"`
	LogMaxSize    int    `mapstructure:"LogMaxSize"`
	LogMaxBackups int    `mapstructure:"LogMaxBackups"`
	LogCompress   bool   `mapstructure:"LogCompress"`

	HandlerTimeout  Duration `mapstructure:"HandlerTimeout"`
	UpstreamTimeout Duration `mapstructure:"UpstreamTimeout"`

	VersionCheckURL        string   `mapstructure:"VersionCheckURL"`
	VersionCheckInterval   Duration `mapstructure:"VersionCheckInterval"`
	TorExitListURL         string   `mapstructure:"TorExitListURL"`
	TorExitRefreshInterval Duration `mapstructure:"TorExitRefreshInterval"`

	RedisAddr      string `mapstructure:"RedisAddr"`
	RedisPassword  string `mapstructure:"RedisPassword"`
	RedisDB        int    `mapstructure:"RedisDB"`
	ExceptionQueue string `mapstructure:"ExceptionQueue"`

	RuntimeMetrics bool `mapstructure:"RuntimeMetrics"`
}

// TenantConfig 对应一个 [[Tenant]] 表。
type TenantConfig struct {
	ID               int              `mapstructure:"ID"`
	Hostname         string           `mapstructure:"Hostname"`
	Onionnames       []string         `mapstructure:"Onionnames"`
	HTTPSEnabled     bool             `mapstructure:"HTTPSEnabled"`
	HTTPSPreload     bool             `mapstructure:"HTTPSPreload"`
	AllowIndexing    bool             `mapstructure:"AllowIndexing"`
	FrameAncestors   string           `mapstructure:"FrameAncestors"`
	DefaultLanguage  string           `mapstructure:"DefaultLanguage"`
	LanguagesEnabled []string         `mapstructure:"LanguagesEnabled"`
	Redirects        []RedirectConfig `mapstructure:"Redirect"`
	WizardDone       bool             `mapstructure:"WizardDone"`
}

// RedirectConfig 对应 [[Tenant.Redirect]]，Viper 会把表键转成小写，路径因此以字段值形式声明。
type RedirectConfig struct {
	Path string `mapstructure:"Path"`
	To   string `mapstructure:"To"`
}

// Config 是 TOML 文件映射的整体结构。
type Config struct {
	Global  GlobalConfig   `mapstructure:",squash"`
	Tenants []TenantConfig `mapstructure:"Tenant"`
}

// TenantIDs 返回按声明顺序排列的租户标识，供启动日志使用。
func (c *Config) TenantIDs() []int {
	ids := make([]int, len(c.Tenants))
	for i, t := range c.Tenants {
		ids[i] = t.ID
	}
	return ids
}
