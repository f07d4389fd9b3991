//go:build !(linux || darwin || freebsd || netbsd || openbsd)

package server

import (
	"net"
	"time"
)

// closeNotify 在不支持 MSG_PEEK 探测的平台上返回 nil，断开只能由 BaseContext 或处理器超时兜底。
func closeNotify(net.Conn, time.Duration, <-chan struct{}) <-chan struct{} {
	return nil
}
