package admin

import (
	"context"

	"github.com/gl-gateway/gl-gateway/internal/handler"
	"github.com/gl-gateway/gl-gateway/internal/jobs"
)

// TimingSource 提供周期任务的统计。
type TimingSource interface {
	Timings() []jobs.Timing
}

type jobsHandler struct {
	handler.Base
	source TimingSource
}

// JobsDescriptor 处理 /admin/jobs。
func JobsDescriptor(source TimingSource) handler.Descriptor {
	return handler.Descriptor{
		Name:           "job_timings",
		Methods:        []handler.Verb{handler.GET},
		RootTenantOnly: true,
		New: func(req *handler.Request) handler.Instance {
			return &jobsHandler{Base: handler.NewBase(req), source: source}
		},
	}
}

func (h *jobsHandler) Handle(context.Context, handler.Verb, []string) (any, error) {
	if h.source == nil {
		return []jobs.Timing{}, nil
	}
	return h.source.Timings(), nil
}
