package config

import (
	"fmt"
	"path/filepath"
	"reflect"
	"strconv"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Load 读取并解析 TOML 配置文件，同时注入默认值与校验逻辑。
func Load(path string) (*Config, error) {
	if path == "" {
		path = "config.toml"
	}

	v := viper.New()
	v.SetConfigFile(path)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置失败: %w", err)
	}

	var cfg Config
	hooks := mapstructure.ComposeDecodeHookFunc(
		durationDecodeHook(),
		mapstructure.StringToSliceHookFunc(","),
	)
	if err := v.Unmarshal(&cfg, viper.DecodeHook(hooks)); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	applyGlobalDefaults(&cfg.Global)
	for i := range cfg.Tenants {
		applyTenantDefaults(&cfg.Tenants[i])
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	for _, dir := range []*string{&cfg.Global.StoragePath, &cfg.Global.ClientPath} {
		abs, err := filepath.Abs(*dir)
		if err != nil {
			return nil, fmt.Errorf("无法解析目录 %s: %w", *dir, err)
		}
		*dir = abs
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ListenPorts", []int{8082})
	v.SetDefault("HTTPSPorts", []int{443, 8443})
	v.SetDefault("TorPort", 8083)
	v.SetDefault("LocalHosts", []string{"127.0.0.1", "::1", "localhost"})
	v.SetDefault("EnableCSP", true)
	v.SetDefault("ClientPath", "./client")
	v.SetDefault("StoragePath", "./storage")
	v.SetDefault("MaxUploadBytes", 10*1024*1024)
	v.SetDefault("LogLevel", "info")
	v.SetDefault("LogFilePath", "")
	v.SetDefault("LogMaxSize", 100)
	v.SetDefault("LogMaxBackups", 10)
	v.SetDefault("LogCompress", true)
	v.SetDefault("HandlerTimeout", "0s")
	v.SetDefault("UpstreamTimeout", "30s")
	v.SetDefault("VersionCheckInterval", "24h")
	v.SetDefault("TorExitRefreshInterval", "1h")
	v.SetDefault("ExceptionQueue", "gl-gateway:exceptions")
}

func applyGlobalDefaults(g *GlobalConfig) {
	if len(g.ListenPorts) == 0 {
		g.ListenPorts = []int{8082}
	}
	if g.TorPort == 0 {
		g.TorPort = 8083
	}
	if g.UpstreamTimeout.DurationValue() == 0 {
		g.UpstreamTimeout = Duration(30 * time.Second)
	}
	if g.VersionCheckInterval.DurationValue() == 0 {
		g.VersionCheckInterval = Duration(24 * time.Hour)
	}
	if g.TorExitRefreshInterval.DurationValue() == 0 {
		g.TorExitRefreshInterval = Duration(time.Hour)
	}
}

func applyTenantDefaults(t *TenantConfig) {
	if t.DefaultLanguage == "" {
		t.DefaultLanguage = "en"
	}
	if len(t.LanguagesEnabled) == 0 {
		t.LanguagesEnabled = []string{t.DefaultLanguage}
	}
}

func durationDecodeHook() mapstructure.DecodeHookFunc {
	targetType := reflect.TypeOf(Duration(0))

	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != targetType {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			if v == "" {
				return Duration(0), nil
			}
			if parsed, err := time.ParseDuration(v); err == nil {
				return Duration(parsed), nil
			}
			if seconds, err := strconv.ParseFloat(v, 64); err == nil {
				return Duration(time.Duration(seconds * float64(time.Second))), nil
			}
			return nil, fmt.Errorf("无法解析 Duration 字段: %s", v)
		case int:
			return Duration(time.Duration(v) * time.Second), nil
		case int64:
			return Duration(time.Duration(v) * time.Second), nil
		case float64:
			return Duration(time.Duration(v * float64(time.Second))), nil
		case time.Duration:
			return Duration(v), nil
		case Duration:
			return v, nil
		default:
			return nil, fmt.Errorf("不支持的 Duration 类型: %T", v)
		}
	}
}
