package handler

import (
	"context"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/gl-gateway/gl-gateway/internal/tenant"
)

// Request 是单次请求的上下文，只在一次分发内有效。
type Request struct {
	ID       string
	TenantID int
	Tenant   *tenant.Tenant
	// Snapshot 是本次请求读取到的租户快照。
	Snapshot *tenant.Snapshot

	Method string
	Verb   Verb
	Path   string
	Host   string
	Header http.Header
	Body   []byte
	Upload *Upload

	ClientIP string
	Proto    string
	UsingTor bool
	Mobile   bool
	// Language 为空表示 multilang 请求，未固定语言。
	Language string

	// Args 是路由注册时绑定的固定参数。
	Args map[string]string
	Log  *logrus.Entry
}

// Arg 返回路由固定参数。
func (r *Request) Arg(name string) string {
	if r == nil || r.Args == nil {
		return ""
	}
	return r.Args[name]
}

// Upload 是上传步骤收到的文件。
type Upload struct {
	Filename    string
	ContentType string
	Body        []byte
}

// Size 返回文件字节数。
func (u *Upload) Size() int {
	if u == nil {
		return 0
	}
	return len(u.Body)
}

// Base 提供 Instance 与 Uploader 的通用部分，具体处理器嵌入它即可。
type Base struct {
	Req      *Request
	uploaded *Upload
}

// NewBase 绑定请求上下文。
func NewBase(req *Request) Base {
	return Base{Req: req}
}

// ExecutionCheck 默认不做任何事。
func (b *Base) ExecutionCheck(context.Context) {}

// ProcessFileUpload 接收上传文件，空文件视为未上传。
func (b *Base) ProcessFileUpload(_ context.Context, upload *Upload) error {
	if upload == nil || upload.Size() == 0 {
		b.uploaded = nil
		return nil
	}
	b.uploaded = upload
	return nil
}

// UploadedFile 返回已接收的文件，未上传时为 nil。
func (b *Base) UploadedFile() *Upload {
	return b.uploaded
}
