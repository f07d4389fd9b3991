package policy

import "github.com/gl-gateway/gl-gateway/internal/tenant"

// RedirectKind 标识跳转来源。
type RedirectKind string

const (
	RedirectTor    RedirectKind = "tor"
	RedirectHTTPS  RedirectKind = "https"
	RedirectStatic RedirectKind = "static"
)

// Redirect 描述一次需要在路由匹配前完成的跳转。
type Redirect struct {
	Kind     RedirectKind
	Location string
}

const loopback = "127.0.0.1"

// ShouldRedirectTor: 租户配置了 onion 名称、客户端经由 Tor，且 Host 既不是回环地址也不是 onion 名称。
func ShouldRedirectTor(t *tenant.Tenant, c Client) bool {
	return len(t.Onionnames) > 0 &&
		c.UsingTor &&
		c.Hostname != loopback &&
		!t.IsOnionname(c.Hostname)
}

// ShouldRedirectHTTPS: 租户要求 HTTPS、当前为明文 HTTP，且客户端不在本地豁免集合中。
func (s Settings) ShouldRedirectHTTPS(t *tenant.Tenant, c Client) bool {
	return t.HTTPSEnabled &&
		c.Proto == ProtoHTTP &&
		!s.IsLocal(c.IP)
}

// DecideRedirect 按 Tor 优先于 HTTPS 的顺序给出跳转，最后查询租户静态跳转表。
func (s Settings) DecideRedirect(t *tenant.Tenant, c Client, path string) (Redirect, bool) {
	if ShouldRedirectTor(t, c) {
		return Redirect{Kind: RedirectTor, Location: "http://" + t.Onionnames[0] + path}, true
	}
	if s.ShouldRedirectHTTPS(t, c) {
		return Redirect{Kind: RedirectHTTPS, Location: "https://" + t.Hostname + path}, true
	}
	if target, ok := t.Redirect(path); ok {
		return Redirect{Kind: RedirectStatic, Location: target}, true
	}
	return Redirect{}, false
}
