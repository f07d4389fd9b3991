package policy

import (
	"net"
	"sync/atomic"
)

// ExitSet 保存已知 Tor 出口节点 IP，刷新时整体替换。
type ExitSet struct {
	addrs atomic.Pointer[map[string]struct{}]
}

// NewExitSet 以初始地址列表创建集合。
func NewExitSet(addrs ...string) *ExitSet {
	s := &ExitSet{}
	s.Replace(addrs)
	return s
}

// Replace 用新列表替换整个集合，非法地址会被忽略，返回实际收录数量。
func (s *ExitSet) Replace(addrs []string) int {
	next := make(map[string]struct{}, len(addrs))
	for _, raw := range addrs {
		ip := net.ParseIP(raw)
		if ip == nil {
			continue
		}
		next[ip.String()] = struct{}{}
	}
	s.addrs.Store(&next)
	return len(next)
}

// Contains reports whether ip is a known exit node.
func (s *ExitSet) Contains(ip string) bool {
	if s == nil {
		return false
	}
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}
	current := s.addrs.Load()
	if current == nil {
		return false
	}
	_, ok := (*current)[parsed.String()]
	return ok
}

// Len 返回当前集合大小。
func (s *ExitSet) Len() int {
	if s == nil {
		return 0
	}
	current := s.addrs.Load()
	if current == nil {
		return 0
	}
	return len(*current)
}
