package api

import (
	"testing"

	"github.com/gl-gateway/gl-gateway/internal/assets"
	"github.com/gl-gateway/gl-gateway/internal/handlers/statuses"
	"github.com/gl-gateway/gl-gateway/internal/report"
	"github.com/gl-gateway/gl-gateway/internal/route"
	"github.com/gl-gateway/gl-gateway/internal/tenant"
)

func newTestTable(t *testing.T) *route.Table {
	t.Helper()
	snap, err := tenant.NewSnapshot(1, []tenant.Tenant{{ID: 1, DefaultLanguage: "en", LanguagesEnabled: []string{"en"}}})
	if err != nil {
		t.Fatalf("snapshot error: %v", err)
	}
	cache, _ := tenant.NewCache(snap)
	uploads, err := assets.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("store error: %v", err)
	}
	table, err := NewTable(Deps{
		Tenants:    cache,
		Statuses:   statuses.NewMemoryStore(),
		Uploads:    uploads,
		Reporter:   report.LogReporter{},
		ClientPath: t.TempDir(),
	})
	if err != nil {
		t.Fatalf("NewTable error: %v", err)
	}
	return table
}

func TestRoutePrecedence(t *testing.T) {
	table := newTestTable(t)
	uuid := "0f8fad5b-d9cb-469f-a165-70867728950e"

	cases := []struct {
		path    string
		handler string
		groups  []string
	}{
		{path: "/exception", handler: "exception"},
		{path: "/admin/tenants/42", handler: "tenant_instance", groups: []string{"42"}},
		{path: "/admin/submission_statuses", handler: "submission_status_collection"},
		{path: "/admin/submission_statuses/closed/substatuses", handler: "submission_substatus_collection", groups: []string{"closed"}},
		{path: "/admin/submission_statuses/" + uuid, handler: "submission_status_instance", groups: []string{uuid}},
		{path: "/admin/submission_statuses/closed/substatuses/" + uuid, handler: "submission_substatus_instance", groups: []string{"closed", uuid}},
		{path: "/admin/files/logo", handler: "tenant_files", groups: []string{"logo"}},
		{path: "/robots.txt", handler: "robots"},
		{path: "/s/logo", handler: "tenant_file", groups: []string{"logo"}},
		{path: "/admin", handler: "special_redirect", groups: []string{"/admin"}},
		{path: "/login", handler: "special_redirect", groups: []string{"/login"}},
		// 比静态兜底更具体的模式未命中时落入兜底路由。
		{path: "/admin/files/other", handler: "static", groups: []string{"admin/files/other"}},
		{path: "/admin/submission_statuses/not-a-uuid", handler: "static"},
		{path: "/index.html", handler: "static", groups: []string{"index.html"}},
	}
	for _, tc := range cases {
		match, ok := table.Lookup(tc.path)
		if !ok {
			t.Fatalf("%s: no match", tc.path)
		}
		if got := match.Route.Handler().Name; got != tc.handler {
			t.Fatalf("%s: matched %s want %s", tc.path, got, tc.handler)
		}
		for i, g := range tc.groups {
			if match.Groups[i] != g {
				t.Fatalf("%s: group %d = %q want %q", tc.path, i, match.Groups[i], g)
			}
		}
	}

	if _, ok := table.Lookup("/has space"); ok {
		t.Fatalf("paths outside the static charset must not match")
	}
}

func TestCatchAllIsLast(t *testing.T) {
	table := newTestTable(t)
	routes := table.Routes()
	last := routes[len(routes)-1]
	if last.Handler != "static" {
		t.Fatalf("static fallback must be registered last, got %s", last.Handler)
	}
}

func TestSpecsRequireDeps(t *testing.T) {
	if _, err := Specs(Deps{}); err == nil {
		t.Fatalf("expected missing dependency error")
	}
}
