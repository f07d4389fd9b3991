// Package api 定义网关的路由表。顺序即优先级：靠前的模式先匹配，兜底的静态文件路由必须最后注册。
package api

import (
	"errors"

	"github.com/gl-gateway/gl-gateway/internal/assets"
	"github.com/gl-gateway/gl-gateway/internal/handlers/admin"
	"github.com/gl-gateway/gl-gateway/internal/handlers/public"
	"github.com/gl-gateway/gl-gateway/internal/handlers/statuses"
	"github.com/gl-gateway/gl-gateway/internal/metrics"
	"github.com/gl-gateway/gl-gateway/internal/report"
	"github.com/gl-gateway/gl-gateway/internal/route"
	"github.com/gl-gateway/gl-gateway/internal/tenant"
)

const (
	tidPattern  = `([0-9]{1,20})`
	uuidPattern = `([a-f0-9]{8}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{12})`
)

// Deps 汇总路由处理器需要的协作者。
type Deps struct {
	Tenants    *tenant.Cache
	Statuses   statuses.Repository
	Uploads    assets.Store
	Jobs       admin.TimingSource
	Reporter   report.Reporter
	Metrics    *metrics.Metrics
	ClientPath string
	// MaxUploadBytes 限制租户上传文件大小，0 表示不限制。
	MaxUploadBytes int64
}

// Specs 返回按优先级排列的路由定义。
func Specs(d Deps) ([]route.Spec, error) {
	if d.Tenants == nil {
		return nil, errors.New("tenant cache is required")
	}
	if d.Statuses == nil {
		return nil, errors.New("status repository is required")
	}
	if d.Uploads == nil {
		return nil, errors.New("upload store is required")
	}
	if d.Reporter == nil {
		return nil, errors.New("reporter is required")
	}

	return []route.Spec{
		{Pattern: `/exception`, Handler: public.ExceptionDescriptor(d.Reporter)},

		{Pattern: `/admin/tenants`, Handler: admin.TenantCollectionDescriptor(d.Tenants, d.Metrics)},
		{Pattern: `/admin/tenants/` + tidPattern, Handler: admin.TenantInstanceDescriptor(d.Tenants, d.Metrics)},
		{Pattern: `/admin/jobs`, Handler: admin.JobsDescriptor(d.Jobs)},

		{Pattern: `/admin/submission_statuses`, Handler: statuses.CollectionDescriptor(d.Statuses)},
		{Pattern: `/admin/submission_statuses/(closed)/substatuses`, Handler: statuses.SubCollectionDescriptor(d.Statuses)},
		{Pattern: `/admin/submission_statuses/` + uuidPattern, Handler: statuses.InstanceDescriptor(d.Statuses)},
		{Pattern: `/admin/submission_statuses/` + uuidPattern + `/substatuses`, Handler: statuses.SubCollectionDescriptor(d.Statuses)},
		{Pattern: `/admin/submission_statuses/(closed)/substatuses/` + uuidPattern, Handler: statuses.SubInstanceDescriptor(d.Statuses)},
		{Pattern: `/admin/submission_statuses/` + uuidPattern + `/substatuses/` + uuidPattern, Handler: statuses.SubInstanceDescriptor(d.Statuses)},

		{Pattern: `/admin/files/(logo|favicon|css|script)`, Handler: admin.FilesDescriptor(assets.NewLimitedWriter(d.Uploads, d.MaxUploadBytes))},

		{Pattern: `/robots.txt`, Handler: public.RobotsDescriptor()},
		{Pattern: `/sitemap.xml`, Handler: public.SitemapDescriptor()},
		{Pattern: `/s/(.+)`, Handler: public.TenantFileDescriptor(d.Uploads)},

		{Pattern: `^(/admin|/login|/submission)$`, Handler: public.SpecialRedirectDescriptor()},

		// 兜底：其余 GET 请求按客户端静态文件处理。
		{Pattern: `/([a-zA-Z0-9_\-\/\.\@]*)`, Handler: public.StaticDescriptor(), Args: map[string]string{"path": d.ClientPath}},
	}, nil
}

// NewTable 构建并校验路由表。
func NewTable(d Deps) (*route.Table, error) {
	specs, err := Specs(d)
	if err != nil {
		return nil, err
	}
	return route.NewTable(specs)
}
