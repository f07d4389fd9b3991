package config

import (
	"github.com/gl-gateway/gl-gateway/internal/policy"
	"github.com/gl-gateway/gl-gateway/internal/tenant"
)

// TenantSet 把 [[Tenant]] 配置转换为初始快照使用的租户列表。
func (c *Config) TenantSet() []tenant.Tenant {
	out := make([]tenant.Tenant, 0, len(c.Tenants))
	for _, t := range c.Tenants {
		var redirects map[string]string
		if len(t.Redirects) > 0 {
			redirects = make(map[string]string, len(t.Redirects))
			for _, r := range t.Redirects {
				redirects[r.Path] = r.To
			}
		}
		out = append(out, tenant.Tenant{
			ID:               t.ID,
			Hostname:         t.Hostname,
			Onionnames:       append([]string(nil), t.Onionnames...),
			HTTPSEnabled:     t.HTTPSEnabled,
			HTTPSPreload:     t.HTTPSPreload,
			AllowIndexing:    t.AllowIndexing,
			FrameAncestors:   t.FrameAncestors,
			DefaultLanguage:  t.DefaultLanguage,
			LanguagesEnabled: append([]string(nil), t.LanguagesEnabled...),
			Redirects:        redirects,
			WizardDone:       t.WizardDone,
		})
	}
	return out
}

// PolicySettings 返回传输策略所需的全局参数。
func (g GlobalConfig) PolicySettings() policy.Settings {
	return policy.Settings{
		HTTPSPorts: append([]int(nil), g.HTTPSPorts...),
		TorPort:    g.TorPort,
		LocalHosts: append([]string(nil), g.LocalHosts...),
		EnableCSP:  g.EnableCSP,
		ServerName: g.ServerName,
	}
}
