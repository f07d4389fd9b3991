package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"golang.org/x/text/language"
)

// Validate 针对语义级别做进一步校验，防止非法配置启动服务。
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("配置为空")
	}

	g := c.Global
	if len(g.ListenPorts) == 0 {
		return newFieldError("Global.ListenPorts", "至少需要一个端口")
	}
	for _, port := range g.ListenPorts {
		if !validPort(port) {
			return newFieldError("Global.ListenPorts", fmt.Sprintf("端口 %d 必须在 1-65535", port))
		}
	}
	for _, port := range g.HTTPSPorts {
		if !validPort(port) {
			return newFieldError("Global.HTTPSPorts", fmt.Sprintf("端口 %d 必须在 1-65535", port))
		}
	}
	if !validPort(g.TorPort) {
		return newFieldError("Global.TorPort", "必须在 1-65535")
	}
	if g.StoragePath == "" {
		return newFieldError("Global.StoragePath", "不能为空")
	}
	if g.ClientPath == "" {
		return newFieldError("Global.ClientPath", "不能为空")
	}
	if g.MaxUploadBytes < 0 {
		return newFieldError("Global.MaxUploadBytes", "不能为负数")
	}
	if g.HandlerTimeout.DurationValue() < 0 {
		return newFieldError("Global.HandlerTimeout", "不能为负数")
	}
	if g.UpstreamTimeout.DurationValue() <= 0 {
		return newFieldError("Global.UpstreamTimeout", "必须大于 0")
	}
	for field, raw := range map[string]string{
		"Global.VersionCheckURL": g.VersionCheckURL,
		"Global.TorExitListURL":  g.TorExitListURL,
	} {
		if raw == "" {
			continue
		}
		if err := validateUpstream(raw); err != nil {
			return fmt.Errorf("%s: %w", field, err)
		}
	}
	if g.RedisAddr != "" {
		if _, _, err := net.SplitHostPort(g.RedisAddr); err != nil {
			return newFieldError("Global.RedisAddr", "需要 host:port 形式")
		}
		if strings.TrimSpace(g.ExceptionQueue) == "" {
			return newFieldError("Global.ExceptionQueue", "启用 Redis 时不能为空")
		}
	}

	return validateTenants(c.Tenants)
}

func validateTenants(tenants []TenantConfig) error {
	if len(tenants) == 0 {
		return errors.New("至少需要配置一个 Tenant")
	}

	seenIDs := map[int]struct{}{}
	seenHosts := map[string]int{}
	hasPrimary := false
	for _, t := range tenants {
		if t.ID <= 0 {
			return newFieldError(tenantField(t.ID, "ID"), "必须为正整数")
		}
		if _, exists := seenIDs[t.ID]; exists {
			return newFieldError(tenantField(t.ID, "ID"), "重复")
		}
		seenIDs[t.ID] = struct{}{}
		if t.ID == 1 {
			hasPrimary = true
		}

		names := append([]string{t.Hostname}, t.Onionnames...)
		for _, name := range names {
			host := strings.ToLower(strings.TrimSpace(name))
			if host == "" {
				continue
			}
			if strings.ContainsAny(host, "/ ") {
				return newFieldError(tenantField(t.ID, "Hostname"), "不允许包含路径或空格: "+name)
			}
			if owner, exists := seenHosts[host]; exists && owner != t.ID {
				return newFieldError(tenantField(t.ID, "Hostname"), fmt.Sprintf("%s 已被租户 %d 使用", host, owner))
			}
			seenHosts[host] = t.ID
		}

		for _, code := range t.LanguagesEnabled {
			if _, err := language.Parse(code); err != nil {
				return newFieldError(tenantField(t.ID, "LanguagesEnabled"), fmt.Sprintf("无效语言代码 %q", code))
			}
		}
		if _, err := language.Parse(t.DefaultLanguage); err != nil {
			return newFieldError(tenantField(t.ID, "DefaultLanguage"), fmt.Sprintf("无效语言代码 %q", t.DefaultLanguage))
		}
		if !containsString(t.LanguagesEnabled, t.DefaultLanguage) {
			return newFieldError(tenantField(t.ID, "DefaultLanguage"), "必须属于 LanguagesEnabled")
		}

		seenPaths := map[string]struct{}{}
		for _, r := range t.Redirects {
			if !strings.HasPrefix(r.Path, "/") {
				return newFieldError(tenantField(t.ID, "Redirect.Path"), "必须以 / 开头: "+r.Path)
			}
			if _, exists := seenPaths[r.Path]; exists {
				return newFieldError(tenantField(t.ID, "Redirect.Path"), "重复: "+r.Path)
			}
			seenPaths[r.Path] = struct{}{}
			if r.To == "" {
				return newFieldError(tenantField(t.ID, "Redirect.To"), "不能为空")
			}
		}
	}

	if !hasPrimary {
		return newFieldError("Tenant[1]", "必须配置主租户")
	}
	return nil
}

func validPort(port int) bool {
	return port > 0 && port <= 65535
}

func containsString(set []string, value string) bool {
	for _, item := range set {
		if item == value {
			return true
		}
	}
	return false
}

func validateUpstream(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("仅支持 http/https: %s", raw)
	}
	if parsed.Host == "" {
		return fmt.Errorf("缺少 Host: %s", raw)
	}
	return nil
}
