package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Verb 是处理器可以实现的业务动词，HEAD 在匹配阶段映射为 GET。
type Verb string

const (
	GET    Verb = http.MethodGet
	POST   Verb = http.MethodPost
	PUT    Verb = http.MethodPut
	DELETE Verb = http.MethodDelete
)

// ParseVerb 把 HTTP 方法映射为动词，HEAD 视为 GET。
func ParseVerb(method string) (Verb, bool) {
	switch strings.ToUpper(method) {
	case http.MethodGet, http.MethodHead:
		return GET, true
	case http.MethodPost:
		return POST, true
	case http.MethodPut:
		return PUT, true
	case http.MethodDelete:
		return DELETE, true
	default:
		return "", false
	}
}

// IsWrite reports whether the verb may carry a request payload or upload.
func (v Verb) IsWrite() bool {
	return v == POST || v == PUT
}

// Instance 是每个请求构造一次的处理器实例。
type Instance interface {
	// Handle 执行业务逻辑，groups 为路由捕获的路径分组。
	Handle(ctx context.Context, verb Verb, groups []string) (any, error)
	// ExecutionCheck 在成功与失败路径上都会执行，即使客户端已断开。
	ExecutionCheck(ctx context.Context)
}

// Uploader 由声明了 UploadHandler 的处理器实现。
type Uploader interface {
	ProcessFileUpload(ctx context.Context, upload *Upload) error
	UploadedFile() *Upload
}

// Descriptor 在注册时声明处理器能力，取代运行期的动态属性探测。
type Descriptor struct {
	Name           string
	Methods        []Verb
	RootTenantOnly bool
	UploadHandler  bool
	New            func(req *Request) Instance
}

var (
	errMissingName    = errors.New("handler name is required")
	errMissingFactory = errors.New("handler factory is required")
	errMissingMethods = errors.New("handler must declare at least one verb")
)

// Validate 校验描述符，路由表构建时调用。
func (d Descriptor) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return errMissingName
	}
	if d.New == nil {
		return fmt.Errorf("%s: %w", d.Name, errMissingFactory)
	}
	if len(d.Methods) == 0 {
		return fmt.Errorf("%s: %w", d.Name, errMissingMethods)
	}
	seen := make(map[Verb]struct{}, len(d.Methods))
	for _, verb := range d.Methods {
		switch verb {
		case GET, POST, PUT, DELETE:
		default:
			return fmt.Errorf("%s: unsupported verb %q", d.Name, verb)
		}
		if _, dup := seen[verb]; dup {
			return fmt.Errorf("%s: duplicate verb %q", d.Name, verb)
		}
		seen[verb] = struct{}{}
	}
	if d.UploadHandler && !d.Supports(POST) && !d.Supports(PUT) {
		return fmt.Errorf("%s: upload handler must accept POST or PUT", d.Name)
	}
	return nil
}

// Supports reports whether verb is declared.
func (d Descriptor) Supports(verb Verb) bool {
	for _, v := range d.Methods {
		if v == verb {
			return true
		}
	}
	return false
}
