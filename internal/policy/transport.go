package policy

import "strings"

const (
	ProtoHTTP  = "http"
	ProtoHTTPS = "https"
)

// Settings 是与租户无关的全局策略配置。
type Settings struct {
	HTTPSPorts []int
	TorPort    int
	LocalHosts []string
	EnableCSP  bool
	ServerName string
}

// Client 是推断出的客户端传输属性。
type Client struct {
	IP       string
	Hostname string
	Proto    string
	UsingTor bool
}

// InferProto 根据连接端口和连接自身的 TLS 状态推断协议。
func (s Settings) InferProto(port int, secure bool) string {
	if secure {
		return ProtoHTTPS
	}
	for _, p := range s.HTTPSPorts {
		if p == port {
			return ProtoHTTPS
		}
	}
	return ProtoHTTP
}

// UsingTor 判断客户端是否经由 Tor 访问：出口节点 IP 或 Tor 专用端口；
// 携带 X-Tor2Web 头时强制为 false。
func (s Settings) UsingTor(ip string, port int, tor2web bool, exits *ExitSet) bool {
	if tor2web {
		return false
	}
	if s.TorPort > 0 && port == s.TorPort {
		return true
	}
	return exits.Contains(ip)
}

// IsLocal reports whether the client ip is exempt from HTTPS redirects.
func (s Settings) IsLocal(ip string) bool {
	for _, h := range s.LocalHosts {
		if strings.EqualFold(h, ip) {
			return true
		}
	}
	return false
}
