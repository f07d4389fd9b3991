package public

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"path"
	"sync"

	"github.com/gl-gateway/gl-gateway/internal/apierr"
	"github.com/gl-gateway/gl-gateway/internal/assets"
	"github.com/gl-gateway/gl-gateway/internal/handler"
)

// 租户上传文件的固定类型，logo 与 favicon 通过内容嗅探识别。
var uploadContentTypes = map[string]string{
	"css":    "text/css; charset=utf-8",
	"script": "application/javascript; charset=utf-8",
}

type tenantFileHandler struct {
	handler.Base
	store assets.Store
}

// TenantFileDescriptor 处理 /s/<name>，返回当前租户上传的文件。
func TenantFileDescriptor(store assets.Store) handler.Descriptor {
	return handler.Descriptor{
		Name:    "tenant_file",
		Methods: []handler.Verb{handler.GET},
		New: func(req *handler.Request) handler.Instance {
			return &tenantFileHandler{Base: handler.NewBase(req), store: store}
		},
	}
}

func (h *tenantFileHandler) Handle(ctx context.Context, _ handler.Verb, groups []string) (any, error) {
	name := groups[0]
	return readAsset(ctx, h.store, assets.Locator{Scope: assets.TenantScope(h.Req.TenantID), Path: name}, uploadContentTypes[name])
}

type staticHandler struct {
	handler.Base
	open func(root string) (assets.Store, error)
}

// StaticDescriptor 是兜底路由：从路由参数 path 指定的目录返回客户端静态文件。
func StaticDescriptor() handler.Descriptor {
	var (
		mu     sync.Mutex
		stores = make(map[string]assets.Store)
	)
	open := func(root string) (assets.Store, error) {
		mu.Lock()
		defer mu.Unlock()
		if s, ok := stores[root]; ok {
			return s, nil
		}
		s, err := assets.NewStore(root)
		if err != nil {
			return nil, err
		}
		stores[root] = s
		return s, nil
	}
	return handler.Descriptor{
		Name:    "static",
		Methods: []handler.Verb{handler.GET},
		New: func(req *handler.Request) handler.Instance {
			return &staticHandler{Base: handler.NewBase(req), open: open}
		},
	}
}

func (h *staticHandler) Handle(ctx context.Context, _ handler.Verb, groups []string) (any, error) {
	root := h.Req.Arg("path")
	if root == "" {
		return nil, apierr.NotFound()
	}
	store, err := h.open(root)
	if err != nil {
		return nil, err
	}
	return readAsset(ctx, store, assets.Locator{Path: groups[0]}, "")
}

// readAsset 读取条目并推断 Content-Type：显式类型 > 扩展名 > 内容嗅探。
func readAsset(ctx context.Context, store assets.Store, locator assets.Locator, contentType string) (any, error) {
	result, err := store.Get(ctx, locator)
	if err != nil {
		if errors.Is(err, assets.ErrNotFound) || errors.Is(err, assets.ErrInvalidPath) {
			return nil, apierr.NotFound()
		}
		return nil, err
	}
	defer result.Reader.Close()

	body, err := io.ReadAll(result.Reader)
	if err != nil {
		return nil, err
	}
	if contentType == "" {
		contentType = mime.TypeByExtension(path.Ext(result.Entry.FilePath))
	}
	if contentType == "" {
		contentType = http.DetectContentType(body)
	}
	return handler.Payload{ContentType: contentType, Body: body}, nil
}
