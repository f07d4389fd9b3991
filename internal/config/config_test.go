package config

import (
	"testing"
	"time"
)

func TestLoadWithDefaults(t *testing.T) {
	cfg, err := Load(testConfigPath(t, "valid.toml"))
	if err != nil {
		t.Fatalf("Load 返回错误: %v", err)
	}
	g := cfg.Global
	if len(g.ListenPorts) != 2 || g.ListenPorts[1] != 8083 {
		t.Fatalf("ListenPorts 解析错误: %v", g.ListenPorts)
	}
	if len(g.HTTPSPorts) != 2 || g.HTTPSPorts[0] != 443 {
		t.Fatalf("HTTPSPorts 应使用默认值: %v", g.HTTPSPorts)
	}
	if g.TorPort != 8083 {
		t.Fatalf("TorPort 默认值错误: %d", g.TorPort)
	}
	if !g.EnableCSP {
		t.Fatalf("EnableCSP 默认应开启")
	}
	if g.HandlerTimeout.DurationValue() != 30*time.Second {
		t.Fatalf("整数秒应解析为 Duration: %v", g.HandlerTimeout.DurationValue())
	}
	if g.TorExitRefreshInterval.DurationValue() != time.Hour {
		t.Fatalf("TorExitRefreshInterval 默认值错误")
	}
	if g.StoragePath == "" || g.StoragePath[0] != '/' {
		t.Fatalf("StoragePath 应转为绝对路径: %s", g.StoragePath)
	}
	if ids := cfg.TenantIDs(); len(ids) != 2 || ids[0] != 1 || ids[1] != 2 {
		t.Fatalf("租户解析错误: %v", ids)
	}
}

func TestTenantSetKeepsRedirectCase(t *testing.T) {
	cfg, err := Load(testConfigPath(t, "valid.toml"))
	if err != nil {
		t.Fatalf("Load 返回错误: %v", err)
	}
	tenants := cfg.TenantSet()
	target, ok := tenants[0].Redirect("/Old/Page")
	if !ok || target != "/new/page" {
		t.Fatalf("跳转表应保留路径大小写, got %q %v", target, ok)
	}
	if len(tenants[0].Onionnames) != 1 || !tenants[0].HTTPSEnabled {
		t.Fatalf("租户字段转换错误: %+v", tenants[0])
	}
}

func TestValidateRequiresPrimaryTenant(t *testing.T) {
	if _, err := Load(testConfigPath(t, "missing.toml")); err == nil {
		t.Fatalf("缺少主租户的配置应返回错误")
	}
}

func TestValidateEnforcesPortRange(t *testing.T) {
	cfg := validConfig()
	cfg.Global.ListenPorts = []int{70000}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("ListenPorts 超出范围应当报错")
	}
}

func TestTenantValidation(t *testing.T) {
	testCases := []struct {
		name      string
		mutate    func(*Config)
		shouldErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"duplicate id", func(c *Config) { c.Tenants[1].ID = 1 }, true},
		{"duplicate hostname", func(c *Config) { c.Tenants[1].Hostname = "WWW.example.org" }, true},
		{"onion shared across tenants", func(c *Config) { c.Tenants[1].Onionnames = []string{"abc.onion"} }, true},
		{"bad language", func(c *Config) { c.Tenants[0].LanguagesEnabled = []string{"en", "not a tag"} }, true},
		{"default not enabled", func(c *Config) { c.Tenants[0].DefaultLanguage = "fr" }, true},
		{"relative redirect", func(c *Config) {
			c.Tenants[0].Redirects = []RedirectConfig{{Path: "old", To: "/new"}}
		}, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.shouldErr && err == nil {
				t.Fatalf("expected error")
			}
			if !tc.shouldErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateRedisAddr(t *testing.T) {
	cfg := validConfig()
	cfg.Global.RedisAddr = "localhost"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("缺少端口的 RedisAddr 应报错")
	}
	cfg.Global.RedisAddr = "localhost:6379"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPolicySettings(t *testing.T) {
	cfg := validConfig()
	settings := cfg.Global.PolicySettings()
	if settings.TorPort != cfg.Global.TorPort || len(settings.HTTPSPorts) != 1 || !settings.EnableCSP {
		t.Fatalf("unexpected settings: %+v", settings)
	}
}

func validConfig() *Config {
	return &Config{
		Global: GlobalConfig{
			ListenPorts:     []int{8082},
			HTTPSPorts:      []int{443},
			TorPort:         8083,
			EnableCSP:       true,
			StoragePath:     "./data",
			ClientPath:      "./client",
			UpstreamTimeout: Duration(time.Second),
			ExceptionQueue:  "q",
		},
		Tenants: []TenantConfig{
			{
				ID:               1,
				Hostname:         "www.example.org",
				Onionnames:       []string{"abc.onion"},
				DefaultLanguage:  "en",
				LanguagesEnabled: []string{"en", "it"},
			},
			{
				ID:               2,
				Hostname:         "two.example.org",
				DefaultLanguage:  "it",
				LanguagesEnabled: []string{"it"},
			},
		},
	}
}
