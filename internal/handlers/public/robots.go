package public

import (
	"context"
	"encoding/xml"
	"net/url"

	"github.com/gl-gateway/gl-gateway/internal/apierr"
	"github.com/gl-gateway/gl-gateway/internal/handler"
)

type robotsHandler struct{ handler.Base }

// RobotsDescriptor 处理 /robots.txt。
func RobotsDescriptor() handler.Descriptor {
	return handler.Descriptor{
		Name:    "robots",
		Methods: []handler.Verb{handler.GET},
		New: func(req *handler.Request) handler.Instance {
			return &robotsHandler{Base: handler.NewBase(req)}
		},
	}
}

func (h *robotsHandler) Handle(context.Context, handler.Verb, []string) (any, error) {
	return Robots(h.Req.Tenant.AllowIndexing, h.Req.Tenant.Hostname), nil
}

// Robots 生成 robots.txt 正文。
func Robots(allowIndexing bool, hostname string) string {
	if !allowIndexing {
		return "User-agent: *\nDisallow: *"
	}
	return "User-agent: *\n" +
		"Allow: /$\n" +
		"Disallow: *\n" +
		"Sitemap: https://" + hostname + "/sitemap.xml"
}

type sitemapHandler struct{ handler.Base }

// SitemapDescriptor 处理 /sitemap.xml，只有允许索引的租户才会返回内容。
func SitemapDescriptor() handler.Descriptor {
	return handler.Descriptor{
		Name:    "sitemap",
		Methods: []handler.Verb{handler.GET},
		New: func(req *handler.Request) handler.Instance {
			return &sitemapHandler{Base: handler.NewBase(req)}
		},
	}
}

func (h *sitemapHandler) Handle(context.Context, handler.Verb, []string) (any, error) {
	t := h.Req.Tenant
	if !t.AllowIndexing || t.Hostname == "" {
		return nil, apierr.NotFound()
	}

	body, err := Sitemap(t.Hostname, t.LanguagesEnabled)
	if err != nil {
		return nil, err
	}
	return handler.Payload{ContentType: "text/xml; charset=utf-8", Body: body}, nil
}

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	XHTML   string       `xml:"xmlns:xhtml,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc        string        `xml:"loc"`
	ChangeFreq string        `xml:"changefreq"`
	Priority   string        `xml:"priority"`
	Alternates []sitemapLink `xml:"xhtml:link"`
}

type sitemapLink struct {
	Rel      string `xml:"rel,attr"`
	HrefLang string `xml:"hreflang,attr"`
	Href     string `xml:"href,attr"`
}

// Sitemap 生成只包含首页及其各语言版本的 sitemap.xml。
func Sitemap(hostname string, languages []string) ([]byte, error) {
	base := "https://" + hostname + "/"
	entry := sitemapURL{Loc: base, ChangeFreq: "weekly", Priority: "1.00"}
	for _, lang := range languages {
		entry.Alternates = append(entry.Alternates, sitemapLink{
			Rel:      "alternate",
			HrefLang: lang,
			Href:     base + "#/?lang=" + url.QueryEscape(lang),
		})
	}

	out, err := xml.MarshalIndent(sitemapURLSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		XHTML: "http://www.w3.org/1999/xhtml",
		URLs:  []sitemapURL{entry},
	}, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), out...), nil
}
