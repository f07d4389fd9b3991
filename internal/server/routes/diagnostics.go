package routes

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"

	"github.com/gl-gateway/gl-gateway/internal/jobs"
	"github.com/gl-gateway/gl-gateway/internal/metrics"
	"github.com/gl-gateway/gl-gateway/internal/route"
	"github.com/gl-gateway/gl-gateway/internal/tenant"
	"github.com/gl-gateway/gl-gateway/internal/version"
)

// Diagnostics 汇总诊断接口的数据来源，字段为 nil 时跳过对应接口。
type Diagnostics struct {
	Routes  *route.Table
	Tenants *tenant.Cache
	Metrics *metrics.Metrics
	Version *jobs.VersionCheck
}

// RegisterDiagnostics 暴露 /-/ 前缀下的运维接口。这些路径不经过分发器，
// 访问控制与安全头由 server.AppOptions.Diagnostics 开启的本地访问检查负责。
func RegisterDiagnostics(app *fiber.App, d Diagnostics) {
	if app == nil {
		return
	}

	if d.Routes != nil {
		app.Get("/-/routes", func(c fiber.Ctx) error {
			return c.JSON(fiber.Map{"routes": d.Routes.Routes()})
		})
	}

	if d.Tenants != nil {
		app.Get("/-/tenants", func(c fiber.Ctx) error {
			snap := d.Tenants.Load()
			return c.JSON(tenantsPayload{
				Version: snap.Version(),
				Tenants: encodeTenants(snap.List()),
			})
		})
	}

	if d.Metrics != nil {
		app.Get("/-/metrics", adaptor.HTTPHandler(d.Metrics.Handler()))
	}

	app.Get("/-/version", func(c fiber.Ctx) error {
		payload := versionPayload{Current: version.Full()}
		if d.Version != nil {
			payload.Latest = d.Version.Latest()
			payload.UpdateAvailable = d.Version.UpdateAvailable()
		}
		return c.JSON(payload)
	})
}

type tenantsPayload struct {
	Version uint64          `json:"version"`
	Tenants []tenantBinding `json:"tenants"`
}

type tenantBinding struct {
	ID           int      `json:"id"`
	Hostname     string   `json:"hostname"`
	Onionnames   []string `json:"onionnames"`
	HTTPSEnabled bool     `json:"https_enabled"`
	Languages    []string `json:"languages_enabled"`
	Redirects    int      `json:"redirects"`
}

type versionPayload struct {
	Current         string `json:"current"`
	Latest          string `json:"latest,omitempty"`
	UpdateAvailable bool   `json:"update_available"`
}

func encodeTenants(list []tenant.Tenant) []tenantBinding {
	result := make([]tenantBinding, 0, len(list))
	for _, t := range list {
		result = append(result, tenantBinding{
			ID:           t.ID,
			Hostname:     t.Hostname,
			Onionnames:   t.Onionnames,
			HTTPSEnabled: t.HTTPSEnabled,
			Languages:    t.LanguagesEnabled,
			Redirects:    len(t.Redirects),
		})
	}
	return result
}
