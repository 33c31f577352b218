package forumfront

import (
	"encoding/xml"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/eringen/forumfront/api"
)

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// lastMod prefers the update time and falls back to creation.
func lastMod(p api.Post) string {
	if p.UpdatedAt != "" {
		upd := api.Post{CreatedAt: p.UpdatedAt}
		if t, ok := upd.Created(); ok {
			return t.Format("2006-01-02")
		}
	}
	if t, ok := p.Created(); ok {
		return t.Format("2006-01-02")
	}
	return ""
}

func (a *App) renderSitemap(c echo.Context, posts []api.Post) error {
	base := a.Config.URL
	urls := []sitemapURL{
		{Loc: BuildURL(base)},
	}
	for _, p := range posts {
		urls = append(urls, sitemapURL{
			Loc:     BuildURL(base, "posts", p.ID.String()),
			LastMod: lastMod(p),
		})
	}
	sitemap := sitemapURLSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  urls,
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	c.Response().Write([]byte(xml.Header))
	return xml.NewEncoder(c.Response()).Encode(sitemap)
}
