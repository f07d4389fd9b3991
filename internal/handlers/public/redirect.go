package public

import (
	"context"

	"github.com/gl-gateway/gl-gateway/internal/handler"
)

type specialRedirectHandler struct{ handler.Base }

// SpecialRedirectDescriptor 把 /admin、/login、/submission 重定向到客户端路由 /#<path>。
func SpecialRedirectDescriptor() handler.Descriptor {
	return handler.Descriptor{
		Name:    "special_redirect",
		Methods: []handler.Verb{handler.GET},
		New: func(req *handler.Request) handler.Instance {
			return &specialRedirectHandler{Base: handler.NewBase(req)}
		},
	}
}

func (h *specialRedirectHandler) Handle(_ context.Context, _ handler.Verb, groups []string) (any, error) {
	return handler.Redirect{Location: "/#" + groups[0]}, nil
}
