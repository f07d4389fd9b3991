//go:build linux || darwin || freebsd || netbsd || openbsd

package server

import (
	"bufio"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/gl-gateway/gl-gateway/internal/dispatch"
)

func tcpPair(t *testing.T) (client, server net.Conn) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			close(accepted)
			return
		}
		accepted <- conn
	}()

	client, err = net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	server, ok := <-accepted
	if !ok {
		t.Fatalf("accept failed")
	}
	t.Cleanup(func() {
		client.Close()
		server.Close()
	})
	return client, server
}

func TestCloseNotifyFiresWhenPeerCloses(t *testing.T) {
	client, server := tcpPair(t)
	stop := make(chan struct{})
	defer close(stop)

	gone := closeNotify(server, 10*time.Millisecond, stop)
	if gone == nil {
		t.Fatalf("tcp connections should support close detection")
	}

	select {
	case <-gone:
		t.Fatalf("open connection reported as closed")
	case <-time.After(50 * time.Millisecond):
	}

	client.Close()
	select {
	case <-gone:
	case <-time.After(2 * time.Second):
		t.Fatalf("peer close was not detected")
	}
}

func TestCloseNotifyLeavesPipelinedBytes(t *testing.T) {
	client, server := tcpPair(t)
	stop := make(chan struct{})

	if _, err := client.Write([]byte("GET /next")); err != nil {
		t.Fatalf("write: %v", err)
	}
	gone := closeNotify(server, 10*time.Millisecond, stop)

	select {
	case <-gone:
		t.Fatalf("pending data must not count as a disconnect")
	case <-time.After(80 * time.Millisecond):
	}
	close(stop)

	buf := make([]byte, len("GET /next"))
	_ = server.SetReadDeadline(time.Now().Add(time.Second))
	if _, err := server.Read(buf); err != nil || string(buf) != "GET /next" {
		t.Fatalf("pipelined bytes were consumed: %q %v", buf, err)
	}
}

func TestServeDispatchAbandonsOnClientDisconnect(t *testing.T) {
	prev := disconnectPollInterval
	disconnectPollInterval = 10 * time.Millisecond
	defer func() { disconnectPollInterval = prev }()

	f := newSlowFixture(t)
	app := newTestAppWith(t, AppOptions{ListenPort: 8082, Policy: testPolicy, Dispatcher: f.capture})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go func() {
		_ = app.Listener(ln, fiber.ListenConfig{DisableStartupMessage: true})
	}()
	defer app.Shutdown()

	conn, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	fmt.Fprintf(conn, "GET /slow HTTP/1.1\r\nHost: www.example.org\r\n\r\n")

	var resp *dispatch.Response
	select {
	case resp = <-f.capture.responses:
	case <-time.After(2 * time.Second):
		t.Fatalf("request never reached the dispatcher")
	}
	f.capture.responses <- resp
	<-f.started
	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for !resp.Abandoned() {
		if time.Now().After(deadline) {
			t.Fatalf("client disconnect was not propagated to the response")
		}
		time.Sleep(10 * time.Millisecond)
	}

	f.finish(t)
	if resp.State() != dispatch.StateAbandoned || resp.Status() != 0 {
		t.Fatalf("late result must not be committed, state=%s status=%d", resp.State(), resp.Status())
	}
}

func TestServeDispatchKeepsAliveConnectionsWorking(t *testing.T) {
	prev := disconnectPollInterval
	disconnectPollInterval = 10 * time.Millisecond
	defer func() { disconnectPollInterval = prev }()

	f := newSlowFixture(t)
	app := newTestAppWith(t, AppOptions{ListenPort: 8082, Policy: testPolicy, Dispatcher: f.capture})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go func() {
		_ = app.Listener(ln, fiber.ListenConfig{DisableStartupMessage: true})
	}()
	defer app.Shutdown()

	conn, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	fmt.Fprintf(conn, "GET /slow HTTP/1.1\r\nHost: www.example.org\r\n\r\n")

	<-f.started
	time.Sleep(50 * time.Millisecond)
	close(f.release)

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	status, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	if status != "HTTP/1.1 200 OK\r\n" {
		t.Fatalf("unexpected status line %q", status)
	}
}
