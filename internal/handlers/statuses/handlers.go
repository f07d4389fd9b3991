package statuses

import (
	"context"

	"github.com/gl-gateway/gl-gateway/internal/apierr"
	"github.com/gl-gateway/gl-gateway/internal/handler"
)

type statusView struct {
	ID          string          `json:"id"`
	Order       int             `json:"order"`
	Label       any             `json:"label"`
	Substatuses []substatusView `json:"substatuses"`
}

type substatusView struct {
	ID                 string `json:"id"`
	SubmissionStatusID string `json:"submissionstatus_id"`
	Order              int    `json:"order"`
	Label              any    `json:"label"`
}

type statusDesc struct {
	Label string `json:"label" validate:"required,max=4096"`
	Order int    `json:"order" validate:"gte=0"`
}

type operationDesc struct {
	Operation string `json:"operation" validate:"required,oneof=order_elements"`
	Args      struct {
		IDs []string `json:"ids" validate:"required"`
	} `json:"args"`
}

// localize 返回请求语言的文本；语言未固定时返回完整映射。
func localize(label map[string]string, lang string) any {
	if lang == "" {
		return label
	}
	return label[lang]
}

func viewStatus(s Status, lang string) statusView {
	subs := make([]substatusView, 0, len(s.Substatuses))
	for _, sub := range s.Substatuses {
		subs = append(subs, viewSubstatus(sub, lang))
	}
	return statusView{ID: s.ID, Order: s.Order, Label: localize(s.Label, lang), Substatuses: subs}
}

func viewSubstatus(s Substatus, lang string) substatusView {
	return substatusView{ID: s.ID, SubmissionStatusID: s.StatusID, Order: s.Order, Label: localize(s.Label, lang)}
}

// writeLanguage 是写入本地化字段时使用的语言。
func writeLanguage(req *handler.Request) string {
	if req.Language != "" {
		return req.Language
	}
	if req.Tenant != nil && req.Tenant.DefaultLanguage != "" {
		return req.Tenant.DefaultLanguage
	}
	return "en"
}

type base struct {
	handler.Base
	repo Repository
	verb handler.Verb
}

// ExecutionCheck 在写操作结束后记录审计日志。
func (b *base) ExecutionCheck(context.Context) {
	if !b.verb.IsWrite() && b.verb != handler.DELETE {
		return
	}
	if b.Req != nil && b.Req.Log != nil {
		b.Req.Log.WithField("verb", string(b.verb)).Info("statuses_changed")
	}
}

type collection struct{ base }

// CollectionDescriptor 处理 /admin/submission_statuses。
func CollectionDescriptor(repo Repository) handler.Descriptor {
	return handler.Descriptor{
		Name:    "submission_status_collection",
		Methods: []handler.Verb{handler.GET, handler.POST, handler.PUT},
		New: func(req *handler.Request) handler.Instance {
			return &collection{base{Base: handler.NewBase(req), repo: repo}}
		},
	}
}

func (h *collection) Handle(ctx context.Context, verb handler.Verb, _ []string) (any, error) {
	h.verb = verb
	req := h.Req
	switch verb {
	case handler.GET:
		list, err := h.repo.List(ctx, req.TenantID)
		if err != nil {
			return nil, err
		}
		out := make([]statusView, 0, len(list))
		for _, s := range list {
			out = append(out, viewStatus(s, req.Language))
		}
		return out, nil
	case handler.POST:
		var desc statusDesc
		if err := handler.Decode(req, &desc); err != nil {
			return nil, err
		}
		created, err := h.repo.Create(ctx, req.TenantID, desc.Order, map[string]string{writeLanguage(req): desc.Label})
		if err != nil {
			return nil, err
		}
		return viewStatus(created, req.Language), nil
	case handler.PUT:
		var op operationDesc
		if err := handler.Decode(req, &op); err != nil {
			return nil, err
		}
		return nil, h.repo.Reorder(ctx, req.TenantID, op.Args.IDs)
	}
	return nil, apierr.MethodNotImplemented()
}

type instance struct{ base }

// InstanceDescriptor 处理 /admin/submission_statuses/<uuid>。
func InstanceDescriptor(repo Repository) handler.Descriptor {
	return handler.Descriptor{
		Name:    "submission_status_instance",
		Methods: []handler.Verb{handler.PUT, handler.DELETE},
		New: func(req *handler.Request) handler.Instance {
			return &instance{base{Base: handler.NewBase(req), repo: repo}}
		},
	}
}

func (h *instance) Handle(ctx context.Context, verb handler.Verb, groups []string) (any, error) {
	h.verb = verb
	req := h.Req
	statusID := groups[0]
	switch verb {
	case handler.PUT:
		var desc statusDesc
		if err := handler.Decode(req, &desc); err != nil {
			return nil, err
		}
		return nil, h.repo.UpdateLabel(ctx, req.TenantID, statusID, writeLanguage(req), desc.Label)
	case handler.DELETE:
		return nil, h.repo.Delete(ctx, req.TenantID, statusID)
	}
	return nil, apierr.MethodNotImplemented()
}

type subCollection struct{ base }

// SubCollectionDescriptor 处理 /admin/submission_statuses/<id>/substatuses。
func SubCollectionDescriptor(repo Repository) handler.Descriptor {
	return handler.Descriptor{
		Name:    "submission_substatus_collection",
		Methods: []handler.Verb{handler.GET, handler.POST, handler.PUT},
		New: func(req *handler.Request) handler.Instance {
			return &subCollection{base{Base: handler.NewBase(req), repo: repo}}
		},
	}
}

func (h *subCollection) Handle(ctx context.Context, verb handler.Verb, groups []string) (any, error) {
	h.verb = verb
	req := h.Req
	statusID := groups[0]
	switch verb {
	case handler.GET:
		status, err := h.repo.Get(ctx, req.TenantID, statusID)
		if err != nil {
			return nil, err
		}
		return viewStatus(status, req.Language).Substatuses, nil
	case handler.POST:
		var desc statusDesc
		if err := handler.Decode(req, &desc); err != nil {
			return nil, err
		}
		created, err := h.repo.CreateSub(ctx, req.TenantID, statusID, desc.Order, map[string]string{writeLanguage(req): desc.Label})
		if err != nil {
			return nil, err
		}
		return viewSubstatus(created, req.Language), nil
	case handler.PUT:
		var op operationDesc
		if err := handler.Decode(req, &op); err != nil {
			return nil, err
		}
		return nil, h.repo.ReorderSub(ctx, req.TenantID, statusID, op.Args.IDs)
	}
	return nil, apierr.MethodNotImplemented()
}

type subInstance struct{ base }

// SubInstanceDescriptor 处理 /admin/submission_statuses/<id>/substatuses/<uuid>。
func SubInstanceDescriptor(repo Repository) handler.Descriptor {
	return handler.Descriptor{
		Name:    "submission_substatus_instance",
		Methods: []handler.Verb{handler.PUT, handler.DELETE},
		New: func(req *handler.Request) handler.Instance {
			return &subInstance{base{Base: handler.NewBase(req), repo: repo}}
		},
	}
}

func (h *subInstance) Handle(ctx context.Context, verb handler.Verb, groups []string) (any, error) {
	h.verb = verb
	req := h.Req
	statusID, substatusID := groups[0], groups[1]
	switch verb {
	case handler.PUT:
		var desc statusDesc
		if err := handler.Decode(req, &desc); err != nil {
			return nil, err
		}
		return nil, h.repo.UpdateSubLabel(ctx, req.TenantID, statusID, substatusID, writeLanguage(req), desc.Label)
	case handler.DELETE:
		return nil, h.repo.DeleteSub(ctx, req.TenantID, statusID, substatusID)
	}
	return nil, apierr.MethodNotImplemented()
}
