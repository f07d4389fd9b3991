package admin

import (
	"context"
	"errors"
	"strconv"

	"golang.org/x/text/language"

	"github.com/gl-gateway/gl-gateway/internal/apierr"
	"github.com/gl-gateway/gl-gateway/internal/handler"
	"github.com/gl-gateway/gl-gateway/internal/metrics"
	"github.com/gl-gateway/gl-gateway/internal/tenant"
)

type tenantDesc struct {
	Hostname         string            `json:"hostname" validate:"omitempty,hostname_rfc1123"`
	Onionnames       []string          `json:"onionnames" validate:"dive,hostname_rfc1123"`
	HTTPSEnabled     bool              `json:"https_enabled"`
	HTTPSPreload     bool              `json:"https_preload"`
	AllowIndexing    bool              `json:"allow_indexing"`
	FrameAncestors   string            `json:"frame_ancestors" validate:"max=1024"`
	DefaultLanguage  string            `json:"default_language" validate:"required"`
	LanguagesEnabled []string          `json:"languages_enabled" validate:"required,min=1,dive,required"`
	Redirects        map[string]string `json:"redirects" validate:"dive,keys,startswith=/,endkeys,url"`
	WizardDone       bool              `json:"wizard_done"`
}

func (d tenantDesc) apply(t *tenant.Tenant) error {
	for _, code := range append([]string{d.DefaultLanguage}, d.LanguagesEnabled...) {
		if _, err := language.Parse(code); err != nil {
			return apierr.Validation("invalid language code", code)
		}
	}
	if !containsString(d.LanguagesEnabled, d.DefaultLanguage) {
		return apierr.Validation("default language must be enabled", "default_language")
	}
	t.Hostname = d.Hostname
	t.Onionnames = d.Onionnames
	t.HTTPSEnabled = d.HTTPSEnabled
	t.HTTPSPreload = d.HTTPSPreload
	t.AllowIndexing = d.AllowIndexing
	t.FrameAncestors = d.FrameAncestors
	t.DefaultLanguage = d.DefaultLanguage
	t.LanguagesEnabled = d.LanguagesEnabled
	t.Redirects = d.Redirects
	t.WizardDone = d.WizardDone
	return nil
}

type tenantsHandler struct {
	handler.Base
	cache   *tenant.Cache
	metrics *metrics.Metrics
	changed bool
}

// TenantCollectionDescriptor 处理 /admin/tenants。
func TenantCollectionDescriptor(cache *tenant.Cache, m *metrics.Metrics) handler.Descriptor {
	return handler.Descriptor{
		Name:           "tenant_collection",
		Methods:        []handler.Verb{handler.GET, handler.POST},
		RootTenantOnly: true,
		New: func(req *handler.Request) handler.Instance {
			return &tenantsHandler{Base: handler.NewBase(req), cache: cache, metrics: m}
		},
	}
}

// TenantInstanceDescriptor 处理 /admin/tenants/<id>。
func TenantInstanceDescriptor(cache *tenant.Cache, m *metrics.Metrics) handler.Descriptor {
	return handler.Descriptor{
		Name:           "tenant_instance",
		Methods:        []handler.Verb{handler.GET, handler.PUT, handler.DELETE},
		RootTenantOnly: true,
		New: func(req *handler.Request) handler.Instance {
			return &tenantsHandler{Base: handler.NewBase(req), cache: cache, metrics: m}
		},
	}
}

func (h *tenantsHandler) Handle(ctx context.Context, verb handler.Verb, groups []string) (any, error) {
	if len(groups) == 0 {
		return h.collection(verb)
	}
	id, err := strconv.Atoi(groups[0])
	if err != nil {
		return nil, apierr.NotFound()
	}
	return h.instance(verb, id)
}

func (h *tenantsHandler) collection(verb handler.Verb) (any, error) {
	switch verb {
	case handler.GET:
		return h.cache.Load().List(), nil
	case handler.POST:
		var desc tenantDesc
		if err := handler.Decode(h.Req, &desc); err != nil {
			return nil, err
		}
		var t tenant.Tenant
		if err := desc.apply(&t); err != nil {
			return nil, err
		}
		snap, id, err := h.cache.Add(t)
		if err != nil {
			return nil, apierr.Validation(err.Error())
		}
		h.published(snap)
		created, _ := snap.Get(id)
		return created, nil
	}
	return nil, apierr.MethodNotImplemented()
}

func (h *tenantsHandler) instance(verb handler.Verb, id int) (any, error) {
	switch verb {
	case handler.GET:
		t, ok := h.cache.Load().Get(id)
		if !ok {
			return nil, apierr.NotFound()
		}
		return t, nil
	case handler.PUT:
		var desc tenantDesc
		if err := handler.Decode(h.Req, &desc); err != nil {
			return nil, err
		}
		snap, err := h.cache.Update(id, desc.apply)
		if err != nil {
			return nil, translateCacheError(err)
		}
		h.published(snap)
		updated, _ := snap.Get(id)
		return updated, nil
	case handler.DELETE:
		if id == tenant.PrimaryID {
			return nil, apierr.Forbidden()
		}
		snap, err := h.cache.Remove(id)
		if err != nil {
			return nil, translateCacheError(err)
		}
		h.published(snap)
		return nil, nil
	}
	return nil, apierr.MethodNotImplemented()
}

func (h *tenantsHandler) published(snap *tenant.Snapshot) {
	h.changed = true
	h.metrics.SetTenantVersion(snap.Version())
}

// ExecutionCheck 记录租户快照的变更。
func (h *tenantsHandler) ExecutionCheck(context.Context) {
	if !h.changed || h.Req.Log == nil {
		return
	}
	h.Req.Log.WithField("snapshot_version", h.cache.Load().Version()).Info("tenants_published")
}

func translateCacheError(err error) error {
	if errors.Is(err, tenant.ErrNotFound) {
		return apierr.NotFound()
	}
	if _, ok := apierr.As(err); ok {
		return err
	}
	return apierr.Validation(err.Error())
}

func containsString(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
