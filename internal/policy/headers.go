package policy

import (
	"net/http"

	"github.com/gl-gateway/gl-gateway/internal/tenant"
)

const (
	defaultServerName = "GlobaLeaks"

	hstsValue        = "max-age=31536000; includeSubDomains"
	hstsPreloadValue = "max-age=31536000; includeSubDomains; preload"

	cspBase = "default-src 'none';" +
		"script-src 'self';" +
		"connect-src 'self';" +
		"style-src 'self';" +
		"img-src 'self' data:;" +
		"font-src 'self' data:;" +
		"media-src 'self';"

	// 关闭可能被用于去匿名化的浏览器能力。
	featurePolicy = "camera 'none';" +
		"display-capture 'none';" +
		"document-domain 'none';" +
		"fullscreen 'none';" +
		"geolocation 'none';" +
		"microphone 'none';" +
		"speaker 'none';"
)

// SecurityHeaders 计算所有响应（包括错误与跳转）都必须携带的头部集合。
func (s Settings) SecurityHeaders(t *tenant.Tenant, c Client, language string) http.Header {
	h := make(http.Header, 16)

	server := s.ServerName
	if server == "" {
		server = defaultServerName
	}
	h.Set("Server", server)

	if c.Proto == ProtoHTTPS {
		if t.HTTPSPreload {
			h.Set("Strict-Transport-Security", hstsPreloadValue)
		} else {
			h.Set("Strict-Transport-Security", hstsValue)
		}
	}

	if s.EnableCSP {
		csp := cspBase
		if t.FrameAncestors != "" {
			csp += "frame-ancestors " + t.FrameAncestors + ";"
		} else {
			csp += "frame-ancestors 'none';"
		}
		h.Set("Content-Security-Policy", csp)
		h.Set("X-Frame-Options", "deny")
		h.Set("Feature-Policy", featurePolicy)
	}

	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("X-XSS-Protection", "1; mode=block")

	h.Set("Cache-Control", "no-cache, no-store, must-revalidate")
	h.Set("Pragma", "no-cache")
	h.Set("Expires", "-1")

	h.Set("Referrer-Policy", "no-referrer")

	if !t.AllowIndexing {
		h.Set("X-Robots-Tag", "noindex")
	}

	if c.UsingTor {
		h.Set("X-Check-Tor", "True")
	} else {
		h.Set("X-Check-Tor", "False")
	}

	if language != "" {
		h.Set("Content-Language", language)
	}
	return h
}
