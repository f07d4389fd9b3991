package server

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/gl-gateway/gl-gateway/internal/dispatch"
	"github.com/gl-gateway/gl-gateway/internal/policy"
	"github.com/gl-gateway/gl-gateway/internal/tenant"
)

// Dispatcher 是 Fiber 层依赖的分发入口，测试中可替换为假实现。
type Dispatcher interface {
	Dispatch(ctx context.Context, in *dispatch.Inbound) *dispatch.Response
}

// AppOptions controls how the Fiber application should behave on a specific port.
type AppOptions struct {
	Logger     *logrus.Logger
	Dispatcher Dispatcher
	Tenants    *tenant.Cache
	Policy     policy.Settings
	ListenPort int
	// BodyLimit 限制请求体大小，0 使用 Fiber 默认值。
	BodyLimit int
	// Diagnostics 为 true 时 /-/ 前缀交给随后注册的诊断路由，仅对本地客户端开放。
	Diagnostics bool
	// BaseContext 取消后，仍在等待处理器的请求被放弃；nil 表示永不取消。
	BaseContext context.Context
}

// multipartOverhead 为 multipart 边界与表单字段预留的请求体余量。
const multipartOverhead = 1 << 20

// BodyLimitFor 根据上传上限推导 Fiber 的请求体上限，不低于 Fiber 默认值。
func BodyLimitFor(maxUpload int64) int {
	limit := int(maxUpload) + multipartOverhead
	if maxUpload <= 0 || limit < fiber.DefaultBodyLimit {
		return fiber.DefaultBodyLimit
	}
	return limit
}

const contextKeyRequestID = "_gl_request_id"

// NewApp builds a Fiber application that hands every non-diagnostics
// request to the dispatcher.
func NewApp(opts AppOptions) (*fiber.App, error) {
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if opts.Dispatcher == nil {
		return nil, errors.New("dispatcher is required")
	}
	if opts.Tenants == nil {
		return nil, errors.New("tenant cache is required")
	}
	if opts.ListenPort <= 0 {
		return nil, fmt.Errorf("invalid listen port: %d", opts.ListenPort)
	}

	app := fiber.New(fiber.Config{
		CaseSensitive: true,
		BodyLimit:     opts.BodyLimit,
		ErrorHandler:  errorHandler(opts),
	})

	app.Use(recover.New())
	app.Use(requestContextMiddleware())

	app.All("/*", func(c fiber.Ctx) error {
		if opts.Diagnostics && isDiagnosticsPath(string(c.Request().URI().Path())) {
			return guardDiagnostics(c, opts)
		}
		return serveDispatch(c, opts)
	})

	return app, nil
}

// requestContextMiddleware 为每个请求生成请求 ID。
func requestContextMiddleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		reqID := uuid.NewString()
		c.Locals(contextKeyRequestID, reqID)
		c.Set("X-Request-ID", reqID)
		return c.Next()
	}
}

// RequestID returns the request identifier stored by the router middleware.
func RequestID(c fiber.Ctx) string {
	if value := c.Locals(contextKeyRequestID); value != nil {
		if reqID, ok := value.(string); ok {
			return reqID
		}
	}
	return ""
}

func isDiagnosticsPath(path string) bool {
	return strings.HasPrefix(path, "/-/")
}
