// Package apierr 定义网关对客户端暴露的错误类型与 JSON 错误信封。
package apierr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Kind 标识错误类别。
type Kind string

const (
	KindInternalServerError  Kind = "InternalServerError"
	KindForbiddenOperation   Kind = "ForbiddenOperation"
	KindInputValidationError Kind = "InputValidationError"
	KindResourceNotFound     Kind = "ResourceNotFound"
	KindMethodNotImplemented Kind = "MethodNotImplemented"
)

// 错误码与状态码保持稳定，前端按 error_code 做本地化提示。
var kindTable = map[Kind]struct {
	code   int
	status int
	reason string
}{
	KindInternalServerError:  {code: 1, status: http.StatusInternalServerError, reason: "InternalServerError [Unexpected]"},
	KindForbiddenOperation:   {code: 5, status: http.StatusForbidden, reason: "Forbidden operation"},
	KindInputValidationError: {code: 11, status: http.StatusNotAcceptable, reason: "Request input validation failed"},
	KindResourceNotFound:     {code: 12, status: http.StatusNotFound, reason: "Resource not found"},
	KindMethodNotImplemented: {code: 13, status: http.StatusMethodNotAllowed, reason: "Method not implemented"},
}

// Error 是可以直接展示给客户端的错误。
type Error struct {
	Kind      Kind
	Reason    string
	Code      int
	Status    int
	Arguments []any
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

// Is 按 Kind 比较，便于 errors.Is(err, apierr.NotFound()) 这样的判断。
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return other.Kind == e.Kind
}

func newError(kind Kind, reason string, args ...any) *Error {
	entry, ok := kindTable[kind]
	if !ok {
		entry = kindTable[KindInternalServerError]
		kind = KindInternalServerError
	}
	if reason == "" {
		reason = entry.reason
	}
	if args == nil {
		args = []any{}
	}
	return &Error{
		Kind:      kind,
		Reason:    reason,
		Code:      entry.code,
		Status:    entry.status,
		Arguments: args,
	}
}

// Internal 返回不泄露任何内部细节的通用错误。
func Internal() *Error {
	return newError(KindInternalServerError, "")
}

func Forbidden() *Error {
	return newError(KindForbiddenOperation, "")
}

// Validation 构造输入校验错误，reason 为空时使用默认描述。
func Validation(reason string, args ...any) *Error {
	return newError(KindInputValidationError, reason, args...)
}

func NotFound(args ...any) *Error {
	return newError(KindResourceNotFound, "", args...)
}

func MethodNotImplemented() *Error {
	return newError(KindMethodNotImplemented, "")
}

// As 从错误链中取出 *Error。
func As(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr != nil {
		return apiErr, true
	}
	return nil, false
}

// Translate 把任意错误转换为可展示错误；expected 为 false 表示调用方需要上报原始错误。
func Translate(err error) (apiErr *Error, expected bool) {
	if e, ok := As(err); ok {
		return e, true
	}
	return Internal(), false
}

// Envelope 是错误响应体。
type Envelope struct {
	ErrorMessage string `json:"error_message"`
	ErrorCode    int    `json:"error_code"`
	Arguments    []any  `json:"arguments"`
}

// Envelope 返回 e 对应的响应体，arguments 永远不为 null。
func (e *Error) Envelope() Envelope {
	args := e.Arguments
	if args == nil {
		args = []any{}
	}
	return Envelope{ErrorMessage: e.Reason, ErrorCode: e.Code, Arguments: args}
}

// MarshalBody 序列化错误信封，失败时退回内部错误信封。
func (e *Error) MarshalBody() []byte {
	body, err := json.Marshal(e.Envelope())
	if err != nil {
		body, _ = json.Marshal(Internal().Envelope())
	}
	return body
}
