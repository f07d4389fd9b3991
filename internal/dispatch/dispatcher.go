package dispatch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gl-gateway/gl-gateway/internal/apierr"
	"github.com/gl-gateway/gl-gateway/internal/handler"
	"github.com/gl-gateway/gl-gateway/internal/locale"
	"github.com/gl-gateway/gl-gateway/internal/logging"
	"github.com/gl-gateway/gl-gateway/internal/metrics"
	"github.com/gl-gateway/gl-gateway/internal/policy"
	"github.com/gl-gateway/gl-gateway/internal/report"
	"github.com/gl-gateway/gl-gateway/internal/route"
	"github.com/gl-gateway/gl-gateway/internal/tenant"
)

var mobileUserAgent = regexp.MustCompile(`(?i)Mobi|Android`)

// Options 汇总分发器依赖。
type Options struct {
	Tenants  *tenant.Cache
	Routes   *route.Table
	Policy   policy.Settings
	Exits    *policy.ExitSet
	Reporter report.Reporter
	Metrics  *metrics.Metrics
	Logger   *logrus.Logger
	// HandlerTimeout 为后台处理器的 context 设置截止时间，0 表示不限制。
	HandlerTimeout time.Duration
}

// Dispatcher 是无状态的请求分发器，可被多个监听端口并发共享。
type Dispatcher struct {
	opts     Options
	inflight sync.WaitGroup
}

// New 校验依赖并创建 Dispatcher。
func New(opts Options) (*Dispatcher, error) {
	if opts.Tenants == nil {
		return nil, errors.New("tenant cache is required")
	}
	if opts.Routes == nil {
		return nil, errors.New("route table is required")
	}
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if opts.Exits == nil {
		opts.Exits = policy.NewExitSet()
	}
	if opts.Reporter == nil {
		opts.Reporter = report.LogReporter{Logger: opts.Logger}
	}
	return &Dispatcher{opts: opts}, nil
}

// Routes 返回路由表。
func (d *Dispatcher) Routes() *route.Table { return d.opts.Routes }

// Tenants 返回租户缓存。
func (d *Dispatcher) Tenants() *tenant.Cache { return d.opts.Tenants }

// Wait 等待所有后台处理器与异常上报结束，或 ctx 到期。
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// exchange 是单次分发的内部状态。
type exchange struct {
	in       *Inbound
	req      *handler.Request
	resp     *Response
	header   http.Header
	started  time.Time
	handler  string
	fullPath string
}

// Dispatch 处理一次请求。同步阶段（租户解析、跳转、匹配、能力检查）在返回前完成；
// 匹配到的处理器在后台执行，调用方通过 Response.Done 等待结果。
func (d *Dispatcher) Dispatch(ctx context.Context, in *Inbound) *Response {
	x := &exchange{
		in:       in,
		resp:     newResponse(),
		started:  time.Now(),
		fullPath: in.Path,
	}
	if in.Header == nil {
		in.Header = make(http.Header)
	}

	snap := d.opts.Tenants.Load()
	resolution, ok := tenant.Resolve(snap, in.Host, in.Path)
	client := d.client(in)

	if !ok {
		// 无法解析租户：以主租户计算安全头后返回固定状态码的空响应。
		primary := snap.Primary()
		x.req = d.newRequest(in, snap, primary, resolution.Path, client, primary.DefaultLanguage)
		x.header = d.opts.Policy.SecurityHeaders(primary, client, primary.DefaultLanguage)
		d.finish(x, StateRejected, http.StatusBadRequest, nil)
		return x.resp
	}

	t, _ := snap.Get(resolution.TenantID)
	language := locale.Negotiate(locale.Input{
		Explicit:       in.Header.Get(headerLanguage),
		HasExplicit:    len(in.Header.Values(headerLanguage)) > 0,
		AcceptLanguage: in.Header.Get("Accept-Language"),
		Multilang:      in.Multilang,
		Enabled:        t.LanguagesEnabled,
		Default:        t.DefaultLanguage,
	})
	x.req = d.newRequest(in, snap, t, resolution.Path, client, language)
	x.header = d.opts.Policy.SecurityHeaders(t, client, language)

	if redirect, ok := d.opts.Policy.DecideRedirect(t, client, resolution.Path); ok {
		d.opts.Metrics.ObserveRedirect(string(redirect.Kind))
		x.header.Set("Location", redirect.Location)
		d.finish(x, StateRedirected, http.StatusFound, nil)
		return x.resp
	}

	match, verb, found, err := d.opts.Routes.Resolve(resolution.Path, in.Method)
	if !found {
		d.fail(x, StateNotFound, apierr.NotFound())
		return x.resp
	}
	desc := match.Route.Handler()
	x.handler = desc.Name
	if err != nil {
		d.fail(x, StateMethodNotAllowed, apierr.MethodNotImplemented())
		return x.resp
	}

	x.req.Verb = verb
	x.req.Args = match.Route.Args()
	x.req.Log = x.req.Log.WithField("handler", desc.Name)
	instance := desc.New(x.req)
	status := successStatus(verb)

	if desc.RootTenantOnly && x.req.TenantID != tenant.PrimaryID {
		d.fail(x, StateForbidden, apierr.Forbidden())
		return x.resp
	}

	if desc.UploadHandler && verb.IsWrite() {
		uploader, ok := instance.(handler.Uploader)
		if !ok {
			d.execFailure(ctx, x, instance, fmt.Errorf("handler %s declares uploads without implementing Uploader", desc.Name))
			return x.resp
		}
		if err := uploader.ProcessFileUpload(ctx, in.Upload); err != nil {
			d.execFailure(ctx, x, instance, err)
			return x.resp
		}
		if uploader.UploadedFile() == nil {
			d.finish(x, StateUploadSkipped, status, nil)
			return x.resp
		}
	}

	d.inflight.Add(1)
	go d.execute(ctx, x, instance, verb, match.Groups, status)
	return x.resp
}

// execute 在后台运行业务逻辑；客户端是否断开都会执行 ExecutionCheck。
func (d *Dispatcher) execute(parent context.Context, x *exchange, instance handler.Instance, verb handler.Verb, groups []string, status int) {
	defer d.inflight.Done()
	release := d.opts.Metrics.TrackInflight()
	defer release()

	ctx := context.WithoutCancel(parent)
	if d.opts.HandlerTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.opts.HandlerTimeout)
		defer cancel()
	}

	value, err := invoke(ctx, instance, verb, groups)
	if err != nil {
		d.execFailure(ctx, x, instance, err)
		return
	}

	runExecutionCheck(ctx, instance, x.req.Log)

	out, err := render(value, status)
	if err != nil {
		d.reportUnexpected(ctx, x, err)
		d.fail(x, StateFailure, apierr.Internal())
		return
	}
	if out.location != "" {
		x.header.Set("Location", out.location)
	}
	if out.contentType != "" {
		x.header.Set("Content-Type", out.contentType)
	}
	d.finish(x, StateSuccess, out.status, out.body)
}

// execFailure 先执行 ExecutionCheck，再翻译错误并写出。
func (d *Dispatcher) execFailure(ctx context.Context, x *exchange, instance handler.Instance, err error) {
	runExecutionCheck(ctx, instance, x.req.Log)
	apiErr, expected := apierr.Translate(err)
	if !expected {
		d.reportUnexpected(ctx, x, err)
	}
	d.fail(x, StateFailure, apiErr)
}

// reportUnexpected 在后台上报未预期错误，上报协程计入 inflight，Wait 会等待其结束。
func (d *Dispatcher) reportUnexpected(ctx context.Context, x *exchange, err error) {
	d.opts.Metrics.ObserveReported()
	inc := report.Incident{
		Err:       err,
		TenantID:  x.req.TenantID,
		URL:       x.req.Proto + "://" + x.req.Host + x.fullPath,
		RequestID: x.in.RequestID,
		Time:      time.Now().UTC(),
		Source:    report.SourceServer,
	}
	reporter := d.opts.Reporter
	logger := x.req.Log
	d.inflight.Add(1)
	go func() {
		defer d.inflight.Done()
		if err := reporter.Report(context.WithoutCancel(ctx), inc); err != nil {
			logger.WithError(err).Warn("exception_report_failed")
		}
	}()
}

func (d *Dispatcher) fail(x *exchange, state State, apiErr *apierr.Error) {
	x.header.Set("Content-Type", contentTypeJSON)
	d.finish(x, state, apiErr.Status, apiErr.MarshalBody())
}

// finish 是唯一的提交路径；客户端已断开时丢弃结果。
func (d *Dispatcher) finish(x *exchange, state State, status int, body []byte) {
	committed := x.resp.commit(state, status, x.header, body)
	if !committed {
		state = StateAbandoned
		status = 0
		d.opts.Metrics.ObserveAbandoned()
	}
	elapsed := time.Since(x.started)
	d.opts.Metrics.ObserveDispatch(x.handler, string(state), status, elapsed)

	fields := logging.RequestFields(x.in.RequestID, x.req.TenantID, x.req.Host, x.in.Method, x.req.Path, x.handler)
	for k, v := range logging.OutcomeFields(string(state), status, elapsed.Milliseconds()) {
		fields[k] = v
	}
	entry := d.opts.Logger.WithFields(fields)
	if state == StateFailure && status >= http.StatusInternalServerError {
		entry.Warn("dispatch_complete")
		return
	}
	entry.Debug("dispatch_complete")
}

func (d *Dispatcher) client(in *Inbound) policy.Client {
	tor2web := len(in.Header.Values(headerTor2Web)) > 0
	return policy.Client{
		IP:       in.ClientIP,
		Hostname: tenant.NormalizeHost(in.Host),
		Proto:    d.opts.Policy.InferProto(in.Port, in.Secure),
		UsingTor: d.opts.Policy.UsingTor(in.ClientIP, in.Port, tor2web, d.opts.Exits),
	}
}

func (d *Dispatcher) newRequest(in *Inbound, snap *tenant.Snapshot, t *tenant.Tenant, path string, c policy.Client, language string) *handler.Request {
	req := &handler.Request{
		ID:       in.RequestID,
		TenantID: t.ID,
		Tenant:   t,
		Snapshot: snap,
		Method:   in.Method,
		Path:     path,
		Host:     c.Hostname,
		Header:   in.Header,
		Body:     in.Body,
		Upload:   in.Upload,
		ClientIP: c.IP,
		Proto:    c.Proto,
		UsingTor: c.UsingTor,
		Mobile:   mobileUserAgent.MatchString(in.Header.Get("User-Agent")),
		Language: language,
		Args:     map[string]string{},
	}
	req.Log = d.opts.Logger.WithFields(logrus.Fields{
		"request_id": in.RequestID,
		"tenant":     t.ID,
	})
	return req
}

// successStatus 在业务逻辑执行前确定成功状态码。
func successStatus(verb handler.Verb) int {
	switch verb {
	case handler.POST:
		return http.StatusCreated
	case handler.PUT:
		return http.StatusAccepted
	default:
		return http.StatusOK
	}
}

// invoke 调用处理器并把 panic 转为普通错误。
func invoke(ctx context.Context, instance handler.Instance, verb handler.Verb, groups []string) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			value = nil
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return instance.Handle(ctx, verb, groups)
}

func runExecutionCheck(ctx context.Context, instance handler.Instance, log *logrus.Entry) {
	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Error("execution_check_panic")
		}
	}()
	instance.ExecutionCheck(ctx)
}
