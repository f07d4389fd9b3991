package tenant

import "strings"

// PrimaryID 是保留的主租户标识，任何快照都必须包含它。
const PrimaryID = 1

// Tenant 描述单个租户的配置快照，发布后视为只读。
type Tenant struct {
	ID               int               `json:"id"`
	Hostname         string            `json:"hostname"`
	Onionnames       []string          `json:"onionnames"`
	HTTPSEnabled     bool              `json:"https_enabled"`
	HTTPSPreload     bool              `json:"https_preload"`
	AllowIndexing    bool              `json:"allow_indexing"`
	FrameAncestors   string            `json:"frame_ancestors"`
	DefaultLanguage  string            `json:"default_language"`
	LanguagesEnabled []string          `json:"languages_enabled"`
	Redirects        map[string]string `json:"redirects"`
	WizardDone       bool              `json:"wizard_done"`
}

// LanguageEnabled 判断语言代码是否在租户启用集合内。
func (t *Tenant) LanguageEnabled(code string) bool {
	if t == nil || code == "" {
		return false
	}
	for _, lang := range t.LanguagesEnabled {
		if lang == code {
			return true
		}
	}
	return false
}

// IsOnionname reports whether host is one of the tenant's onion hostnames.
func (t *Tenant) IsOnionname(host string) bool {
	if t == nil {
		return false
	}
	for _, name := range t.Onionnames {
		if strings.EqualFold(name, host) {
			return true
		}
	}
	return false
}

// Redirect 返回静态跳转表中 path 对应的目标 URL。
func (t *Tenant) Redirect(path string) (string, bool) {
	if t == nil || len(t.Redirects) == 0 {
		return "", false
	}
	target, ok := t.Redirects[path]
	return target, ok
}

// Clone 深拷贝租户配置，写路径必须在副本上修改后再发布。
func (t Tenant) Clone() Tenant {
	out := t
	out.Onionnames = append([]string(nil), t.Onionnames...)
	out.LanguagesEnabled = append([]string(nil), t.LanguagesEnabled...)
	if t.Redirects != nil {
		out.Redirects = make(map[string]string, len(t.Redirects))
		for k, v := range t.Redirects {
			out.Redirects[k] = v
		}
	}
	return out
}
