package server

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gl-gateway/gl-gateway/internal/api"
	"github.com/gl-gateway/gl-gateway/internal/assets"
	"github.com/gl-gateway/gl-gateway/internal/config"
	"github.com/gl-gateway/gl-gateway/internal/dispatch"
	"github.com/gl-gateway/gl-gateway/internal/handlers/statuses"
	"github.com/gl-gateway/gl-gateway/internal/jobs"
	"github.com/gl-gateway/gl-gateway/internal/metrics"
	"github.com/gl-gateway/gl-gateway/internal/policy"
	"github.com/gl-gateway/gl-gateway/internal/report"
	"github.com/gl-gateway/gl-gateway/internal/tenant"
	"github.com/gl-gateway/gl-gateway/internal/version"
)

const versionCheckPackage = "globaleaks"

// Runtime 汇总一次进程生命周期内共享的组件。
type Runtime struct {
	Tenants      *tenant.Cache
	Exits        *policy.ExitSet
	Metrics      *metrics.Metrics
	Reporter     report.Reporter
	Dispatcher   *dispatch.Dispatcher
	Scheduler    *jobs.Scheduler
	VersionCheck *jobs.VersionCheck
}

// Bootstrap 根据配置构建租户缓存、路由表、分发器与后台任务。
func Bootstrap(cfg *config.Config, logger *logrus.Logger) (*Runtime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	snap, err := tenant.NewSnapshot(1, cfg.TenantSet())
	if err != nil {
		return nil, fmt.Errorf("build tenant snapshot: %w", err)
	}
	cache, err := tenant.NewCache(snap)
	if err != nil {
		return nil, err
	}

	m := metrics.New(cfg.Global.RuntimeMetrics)
	m.SetTenantVersion(snap.Version())

	reporter := report.Multi{report.LogReporter{Logger: logger}}
	if cfg.Global.RedisAddr != "" {
		reporter = append(reporter, report.NewRedisQueue(
			cfg.Global.RedisAddr,
			cfg.Global.RedisPassword,
			cfg.Global.RedisDB,
			cfg.Global.ExceptionQueue,
		))
	}

	uploads, err := assets.NewStore(cfg.Global.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("open upload store: %w", err)
	}

	scheduler := jobs.NewScheduler(logger, m)
	exits := policy.NewExitSet()

	table, err := api.NewTable(api.Deps{
		Tenants:        cache,
		Statuses:       statuses.NewMemoryStore(),
		Uploads:        uploads,
		Jobs:           scheduler,
		Reporter:       reporter,
		Metrics:        m,
		ClientPath:     cfg.Global.ClientPath,
		MaxUploadBytes: cfg.Global.MaxUploadBytes,
	})
	if err != nil {
		return nil, fmt.Errorf("build route table: %w", err)
	}

	dispatcher, err := dispatch.New(dispatch.Options{
		Tenants:        cache,
		Routes:         table,
		Policy:         cfg.Global.PolicySettings(),
		Exits:          exits,
		Reporter:       reporter,
		Metrics:        m,
		Logger:         logger,
		HandlerTimeout: cfg.Global.HandlerTimeout.DurationValue(),
	})
	if err != nil {
		return nil, err
	}

	rt := &Runtime{
		Tenants:    cache,
		Exits:      exits,
		Metrics:    m,
		Reporter:   reporter,
		Dispatcher: dispatcher,
		Scheduler:  scheduler,
	}
	if err := rt.registerJobs(cfg, logger); err != nil {
		return nil, err
	}
	return rt, nil
}

func (rt *Runtime) registerJobs(cfg *config.Config, logger *logrus.Logger) error {
	client := NewUpstreamClient(cfg.Global.UpstreamTimeout.DurationValue())

	if url := cfg.Global.TorExitListURL; url != "" {
		job := &jobs.TorExitRefresh{Client: client, URL: url, Exits: rt.Exits, Metrics: rt.Metrics}
		if err := rt.Scheduler.Add(job, cfg.Global.TorExitRefreshInterval.DurationValue(), 0); err != nil {
			return err
		}
	}
	if url := cfg.Global.VersionCheckURL; url != "" {
		rt.VersionCheck = &jobs.VersionCheck{
			Client:  client,
			URL:     url,
			Package: versionCheckPackage,
			Current: version.Version,
			Logger:  logger,
		}
		if err := rt.Scheduler.Add(rt.VersionCheck, cfg.Global.VersionCheckInterval.DurationValue(), time.Minute); err != nil {
			return err
		}
	}
	return nil
}
