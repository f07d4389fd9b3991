package dispatch

import (
	"net/http"

	"github.com/gl-gateway/gl-gateway/internal/handler"
)

// Inbound 是传输层交给分发器的请求视图，与具体 HTTP 框架无关。
type Inbound struct {
	RequestID string
	Method    string
	Path      string
	Host      string
	// Header 的键按 http.CanonicalHeaderKey 规范化。
	Header http.Header
	// Multilang 对应查询参数 multilang 是否出现。
	Multilang bool

	ClientIP string
	Port     int
	Secure   bool

	Body   []byte
	Upload *handler.Upload
}

const (
	headerLanguage = "Gl-Language"
	headerTor2Web  = "X-Tor2web"
)
