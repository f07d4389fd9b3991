//go:build linux || darwin || freebsd || netbsd || openbsd

package server

import (
	"errors"
	"net"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// closeNotify 轮询连接，对端关闭后关闭返回的 channel；连接不支持探测时返回 nil。
// 探测使用 MSG_PEEK，不会消费同一连接上流水线中的后续请求。
func closeNotify(conn net.Conn, interval time.Duration, stop <-chan struct{}) <-chan struct{} {
	sc, ok := conn.(syscall.Conn)
	if !ok {
		return nil
	}
	raw, err := sc.SyscallConn()
	if err != nil {
		return nil
	}

	gone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		buf := make([]byte, 1)
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
			}
			if peerClosed(raw, buf) {
				close(gone)
				return
			}
		}
	}()
	return gone
}

func peerClosed(raw syscall.RawConn, buf []byte) bool {
	closed := false
	err := raw.Read(func(fd uintptr) bool {
		n, _, err := unix.Recvfrom(int(fd), buf, unix.MSG_PEEK|unix.MSG_DONTWAIT)
		switch {
		case err == nil:
			closed = n == 0
		case errors.Is(err, unix.EAGAIN), errors.Is(err, unix.EINTR):
		default:
			closed = true
		}
		return true
	})
	return err != nil || closed
}
