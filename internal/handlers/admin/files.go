package admin

import (
	"bytes"
	"context"
	"errors"

	"github.com/gl-gateway/gl-gateway/internal/apierr"
	"github.com/gl-gateway/gl-gateway/internal/assets"
	"github.com/gl-gateway/gl-gateway/internal/handler"
)

type filesHandler struct {
	handler.Base
	writer assets.LimitedWriter
}

type fileView struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// FilesDescriptor 处理 /admin/files/(logo|favicon|css|script)，POST 上传、DELETE 删除。
func FilesDescriptor(writer assets.LimitedWriter) handler.Descriptor {
	return handler.Descriptor{
		Name:          "tenant_files",
		Methods:       []handler.Verb{handler.POST, handler.DELETE},
		UploadHandler: true,
		New: func(req *handler.Request) handler.Instance {
			return &filesHandler{Base: handler.NewBase(req), writer: writer}
		},
	}
}

func (h *filesHandler) Handle(ctx context.Context, verb handler.Verb, groups []string) (any, error) {
	locator := assets.Locator{Scope: assets.TenantScope(h.Req.TenantID), Path: groups[0]}
	switch verb {
	case handler.POST:
		upload := h.UploadedFile()
		entry, err := h.writer.Put(ctx, locator, bytes.NewReader(upload.Body), int64(upload.Size()))
		if err != nil {
			if errors.Is(err, assets.ErrTooLarge) {
				return nil, apierr.Validation("file too large", groups[0])
			}
			return nil, err
		}
		return fileView{Name: groups[0], Size: entry.SizeBytes}, nil
	case handler.DELETE:
		return nil, h.writer.Remove(ctx, locator)
	}
	return nil, apierr.MethodNotImplemented()
}
