package public

import (
	"context"
	"errors"
	"time"

	"github.com/gl-gateway/gl-gateway/internal/handler"
	"github.com/gl-gateway/gl-gateway/internal/report"
)

type exceptionDesc struct {
	ErrorURL     string `json:"errorUrl" validate:"required,max=4096"`
	ErrorMessage string `json:"errorMessage" validate:"required,max=4096"`
	StackTrace   string `json:"stackTrace" validate:"max=65536"`
	Agent        string `json:"agent" validate:"max=1024"`
}

type exceptionHandler struct {
	handler.Base
	reporter report.Reporter
}

// ExceptionDescriptor 处理 /exception：客户端脚本错误转交给异常通知通道。
func ExceptionDescriptor(reporter report.Reporter) handler.Descriptor {
	return handler.Descriptor{
		Name:    "exception",
		Methods: []handler.Verb{handler.POST},
		New: func(req *handler.Request) handler.Instance {
			return &exceptionHandler{Base: handler.NewBase(req), reporter: reporter}
		},
	}
}

func (h *exceptionHandler) Handle(ctx context.Context, _ handler.Verb, _ []string) (any, error) {
	var desc exceptionDesc
	if err := handler.Decode(h.Req, &desc); err != nil {
		return nil, err
	}
	msg := desc.ErrorMessage
	if desc.StackTrace != "" {
		msg += "\n" + desc.StackTrace
	}
	if desc.Agent != "" {
		msg += "\nUser-Agent: " + desc.Agent
	}
	err := h.reporter.Report(ctx, report.Incident{
		Err:       errors.New(msg),
		TenantID:  h.Req.TenantID,
		URL:       desc.ErrorURL,
		RequestID: h.Req.ID,
		Time:      time.Now().UTC(),
		Source:    report.SourceClient,
	})
	if err != nil && h.Req.Log != nil {
		h.Req.Log.WithError(err).Warn("client_exception_report_failed")
	}
	return nil, nil
}
