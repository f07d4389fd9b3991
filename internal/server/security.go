package server

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/gl-gateway/gl-gateway/internal/apierr"
	"github.com/gl-gateway/gl-gateway/internal/policy"
	"github.com/gl-gateway/gl-gateway/internal/tenant"
)

// applySecurityHeaders 为不经过分发器的响应补齐安全头，Host 无法解析时按主租户计算。
func applySecurityHeaders(c fiber.Ctx, opts AppOptions) {
	snap := opts.Tenants.Load()
	host := getHostHeader(c)

	t := snap.Primary()
	if res, ok := tenant.Resolve(snap, host, string(c.Request().URI().Path())); ok {
		if resolved, found := snap.Get(res.TenantID); found {
			t = resolved
		}
	}

	client := policy.Client{
		IP:       c.IP(),
		Hostname: tenant.NormalizeHost(host),
		Proto:    opts.Policy.InferProto(opts.ListenPort, c.Secure()),
		UsingTor: onTorPort(opts),
	}
	for key, values := range opts.Policy.SecurityHeaders(t, client, t.DefaultLanguage) {
		c.Response().Header.Del(key)
		for _, value := range values {
			c.Response().Header.Add(key, value)
		}
	}
}

func onTorPort(opts AppOptions) bool {
	return opts.Policy.TorPort > 0 && opts.ListenPort == opts.Policy.TorPort
}

// sendError 以 JSON 错误信封回复，并附带完整安全头。
func sendError(c fiber.Ctx, opts AppOptions, apiErr *apierr.Error) error {
	applySecurityHeaders(c, opts)
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Status(apiErr.Status).Send(apiErr.MarshalBody())
}

// errorHandler 接管 Fiber/fasthttp 自身产生的错误（请求体超限、panic 等）。
func errorHandler(opts AppOptions) fiber.ErrorHandler {
	return func(c fiber.Ctx, err error) error {
		apiErr := apierr.Internal()

		var fe *fiber.Error
		if errors.As(err, &fe) {
			switch {
			case fe.Code == fiber.StatusNotFound:
				apiErr = apierr.NotFound()
			case fe.Code == fiber.StatusMethodNotAllowed:
				apiErr = apierr.MethodNotImplemented()
			case fe.Code >= 400 && fe.Code < 500:
				apiErr = apierr.Validation(fe.Message)
				apiErr.Status = fe.Code
			}
		}

		if apiErr.Kind == apierr.KindInternalServerError {
			opts.Logger.WithField("action", "serve").WithError(err).Error("unhandled server error")
		}
		return sendError(c, opts, apiErr)
	}
}

// guardDiagnostics 只允许本地客户端经主租户主机名访问 /-/ 接口，Tor 端口上一律隐藏。
func guardDiagnostics(c fiber.Ctx, opts AppOptions) error {
	if onTorPort(opts) || !opts.Policy.IsLocal(c.IP()) {
		return sendError(c, opts, apierr.NotFound())
	}

	snap := opts.Tenants.Load()
	res, ok := tenant.Resolve(snap, getHostHeader(c), string(c.Request().URI().Path()))
	if !ok || res.TenantID != tenant.PrimaryID {
		return sendError(c, opts, apierr.Forbidden())
	}

	applySecurityHeaders(c, opts)
	return c.Next()
}
