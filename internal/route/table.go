// Package route 保存按注册顺序排列的路由表，首个匹配的模式胜出。
//
// 路由顺序是契约的一部分：兜底的静态资源路由必须最后注册，否则会遮蔽其后的所有模式。
package route

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/gl-gateway/gl-gateway/internal/handler"
)

// Spec 是注册时提供的路由定义。
type Spec struct {
	Pattern string
	Handler handler.Descriptor
	Args    map[string]string
}

// Route 是编译后的不可变路由。
type Route struct {
	index   int
	pattern *regexp.Regexp
	raw     string
	handler handler.Descriptor
	args    map[string]string
}

// Pattern 返回锚定后的正则文本。
func (r *Route) Pattern() string { return r.pattern.String() }

// Handler 返回处理器描述符。
func (r *Route) Handler() handler.Descriptor { return r.handler }

// Args 返回固定参数的副本。
func (r *Route) Args() map[string]string {
	out := make(map[string]string, len(r.args))
	for k, v := range r.args {
		out[k] = v
	}
	return out
}

// Match 是一次路径匹配的结果。
type Match struct {
	Route  *Route
	Groups []string
}

// ErrMethodNotAllowed 表示路径命中但处理器未声明该动词。
var ErrMethodNotAllowed = errors.New("method not allowed")

// Table 是启动后不可变的路由表。
type Table struct {
	routes []*Route
}

// NewTable 编译并校验全部路由；任一模式或描述符无效都会使构建失败。
func NewTable(specs []Spec) (*Table, error) {
	routes := make([]*Route, 0, len(specs))
	for i, spec := range specs {
		if err := spec.Handler.Validate(); err != nil {
			return nil, fmt.Errorf("route %d (%s): %w", i, spec.Pattern, err)
		}
		compiled, err := regexp.Compile(anchor(spec.Pattern))
		if err != nil {
			return nil, fmt.Errorf("route %d (%s): %w", i, spec.Pattern, err)
		}
		args := make(map[string]string, len(spec.Args))
		for k, v := range spec.Args {
			args[k] = v
		}
		routes = append(routes, &Route{
			index:   i,
			pattern: compiled,
			raw:     spec.Pattern,
			handler: spec.Handler,
			args:    args,
		})
	}
	return &Table{routes: routes}, nil
}

// anchor 为模式补齐首尾锚点。
func anchor(pattern string) string {
	if !strings.HasPrefix(pattern, "^") {
		pattern = "^" + pattern
	}
	if !strings.HasSuffix(pattern, "$") || strings.HasSuffix(pattern, `\$`) {
		pattern += "$"
	}
	return pattern
}

// Lookup 线性查找首个匹配 path 的路由。
func (t *Table) Lookup(path string) (Match, bool) {
	for _, r := range t.routes {
		groups := r.pattern.FindStringSubmatch(path)
		if groups == nil {
			continue
		}
		return Match{Route: r, Groups: groups[1:]}, true
	}
	return Match{}, false
}

// Resolve 完成路径匹配与动词检查，HEAD 按 GET 处理。
// 返回的 bool 表示路径是否命中；命中但动词不支持时 err 为 ErrMethodNotAllowed。
func (t *Table) Resolve(path, method string) (Match, handler.Verb, bool, error) {
	match, ok := t.Lookup(path)
	if !ok {
		return Match{}, "", false, nil
	}
	verb, known := handler.ParseVerb(method)
	if !known || !match.Route.handler.Supports(verb) {
		return match, verb, true, ErrMethodNotAllowed
	}
	return match, verb, true, nil
}

// Len 返回路由数量。
func (t *Table) Len() int { return len(t.routes) }

// Info 是诊断接口输出的路由摘要。
type Info struct {
	Index          int      `json:"index"`
	Pattern        string   `json:"pattern"`
	Handler        string   `json:"handler"`
	Methods        []string `json:"methods"`
	RootTenantOnly bool     `json:"root_tenant_only"`
	UploadHandler  bool     `json:"upload_handler"`
}

// Routes 按注册顺序返回路由摘要。
func (t *Table) Routes() []Info {
	out := make([]Info, 0, len(t.routes))
	for _, r := range t.routes {
		methods := make([]string, 0, len(r.handler.Methods))
		for _, v := range r.handler.Methods {
			methods = append(methods, string(v))
		}
		out = append(out, Info{
			Index:          r.index,
			Pattern:        r.Pattern(),
			Handler:        r.handler.Name,
			Methods:        methods,
			RootTenantOnly: r.handler.RootTenantOnly,
			UploadHandler:  r.handler.UploadHandler,
		})
	}
	return out
}
