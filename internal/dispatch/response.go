package dispatch

import (
	"net/http"
	"sync"
)

// State 是分发状态机的终态。
type State string

const (
	StatePending          State = "pending"
	StateRejected         State = "rejected"
	StateRedirected       State = "redirected"
	StateNotFound         State = "not_found"
	StateMethodNotAllowed State = "method_not_allowed"
	StateForbidden        State = "forbidden"
	StateUploadSkipped    State = "upload_skipped"
	StateSuccess          State = "success"
	StateFailure          State = "failure"
	// StateAbandoned 表示客户端在处理器完成前断开，结果被丢弃。
	StateAbandoned State = "abandoned"
)

// Response 是一次分发的完成句柄。状态码、头和响应体只会被提交一次；
// 在此之前调用 Close 会占用这次提交，之后的写入全部被丢弃。
type Response struct {
	mu        sync.Mutex
	status    int
	header    http.Header
	body      []byte
	state     State
	finished  bool
	abandoned bool
	done      chan struct{}
}

func newResponse() *Response {
	return &Response{
		status: http.StatusOK,
		header: make(http.Header),
		state:  StatePending,
		done:   make(chan struct{}),
	}
}

// Done 在响应提交或被放弃时关闭。
func (r *Response) Done() <-chan struct{} {
	return r.done
}

// Close 标记底层连接已经结束。返回 true 表示这次调用阻止了后续写入。
func (r *Response) Close() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finished {
		return false
	}
	r.finished = true
	r.abandoned = true
	r.state = StateAbandoned
	close(r.done)
	return true
}

// commit 写入最终结果；已提交或已放弃时返回 false 且不做任何修改。
func (r *Response) commit(state State, status int, header http.Header, body []byte) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finished {
		return false
	}
	r.finished = true
	r.state = state
	r.status = status
	for k, v := range header {
		r.header[k] = v
	}
	r.body = body
	close(r.done)
	return true
}

// Abandoned reports whether the client went away before the commit.
func (r *Response) Abandoned() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.abandoned
}

func (r *Response) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Response) Status() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Header 返回已提交头部的副本。
func (r *Response) Header() http.Header {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.header.Clone()
}

func (r *Response) Body() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.body
}
