package tenant

import (
	"net"
	"strconv"
	"strings"
)

// NormalizeHost 去掉端口、尾部的点并转成小写，IPv6 字面量会去掉方括号。
func NormalizeHost(raw string) string {
	host, _ := splitHostPort(raw)
	return host
}

// IsLiteralIP reports whether the normalized host is an IPv4 or IPv6 literal.
func IsLiteralIP(host string) bool {
	return net.ParseIP(host) != nil
}

func splitHostPort(raw string) (string, int) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", 0
	}

	host := raw
	port := 0

	if strings.Contains(raw, ":") {
		if h, p, err := net.SplitHostPort(raw); err == nil {
			host = h
			if parsedPort, err := strconv.Atoi(p); err == nil {
				port = parsedPort
			}
		} else if strings.Count(raw, ":") == 1 {
			idx := strings.LastIndex(raw, ":")
			if parsedPort, err := strconv.Atoi(raw[idx+1:]); err == nil {
				host = raw[:idx]
				port = parsedPort
			}
		}
	}

	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	host = strings.TrimSuffix(host, ".")
	host = strings.ToLower(host)
	return host, port
}
