// Package views holds the default HTML components for forumfront, written
// as templ components.
package views

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/dustin/go-humanize"

	"github.com/eringen/forumfront"
)

// Funcs returns the ViewFuncs forumfront renders with.
func Funcs(cfg forumfront.SiteConfig) forumfront.ViewFuncs {
	v := &site{cfg: cfg}
	return forumfront.ViewFuncs{
		Home:        v.Home,
		PostList:    PostList,
		Post:        v.Post,
		LikeButton:  LikeButton,
		Composer:    v.Composer,
		Sections:    SectionEditor,
		Login:       v.Login,
		Profile:     v.Profile,
		NotFound:    v.NotFound,
		ServerError: v.ServerError,
	}
}

type site struct {
	cfg forumfront.SiteConfig
}

var esc = html.EscapeString

// component adapts a buffer-writing function to templ.Component.
func component(fn func(ctx context.Context, buf *bytes.Buffer) error) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var buf bytes.Buffer
		if err := fn(ctx, &buf); err != nil {
			return err
		}
		_, err := w.Write(buf.Bytes())
		return err
	})
}

// embed renders child into buf.
func embed(ctx context.Context, buf *bytes.Buffer, child templ.Component) error {
	return child.Render(ctx, buf)
}

type layout struct {
	meta    forumfront.PageMeta
	viewer  forumfront.Viewer
	flashes []string
	jsonLD  string
}

func (s *site) page(l layout, body func(ctx context.Context, buf *bytes.Buffer) error) templ.Component {
	return component(func(ctx context.Context, buf *bytes.Buffer) error {
		title := l.meta.SiteName
		if l.meta.Title != "" && l.meta.Title != l.meta.SiteName {
			title = l.meta.Title + " | " + l.meta.SiteName
		}
		fmt.Fprintf(buf, `<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"/>`+
			`<meta name="viewport" content="width=device-width, initial-scale=1"/>`+
			`<title>%s</title><meta name="description" content="%s"/>`+
			`<link rel="canonical" href="%s"/>`+
			`<meta property="og:site_name" content="%s"/><meta property="og:title" content="%s"/>`+
			`<meta property="og:description" content="%s"/><meta property="og:url" content="%s"/>`+
			`<meta property="og:type" content="%s"/>`+
			`<link rel="alternate" type="application/rss+xml" title="%s" href="/feed.xml"/>`+
			`<link rel="stylesheet" href="/public/styles.css"/>`+
			`<script src="/public/htmx.min.js" defer></script>`,
			esc(title), esc(l.meta.Description), esc(l.meta.URL),
			esc(l.meta.SiteName), esc(l.meta.Title), esc(l.meta.Description), esc(l.meta.URL),
			esc(l.meta.OGType), esc(l.meta.SiteName))
		if l.jsonLD != "" {
			buf.WriteString(`<script type="application/ld+json">`)
			buf.WriteString(strings.ReplaceAll(l.jsonLD, "</", `<\/`))
			buf.WriteString(`</script>`)
		}
		fmt.Fprintf(buf, `</head><body hx-headers='{"X-CSRF-Token":"%s"}'>`, esc(l.viewer.CSRFToken))
		s.nav(buf, l.viewer)
		flashes(buf, l.flashes)
		buf.WriteString(`<main class="container">`)
		if err := body(ctx, buf); err != nil {
			return err
		}
		buf.WriteString(`</main></body></html>`)
		return nil
	})
}

func (s *site) nav(buf *bytes.Buffer, v forumfront.Viewer) {
	fmt.Fprintf(buf, `<header class="site-header"><a class="brand" href="/">%s</a><nav>`, esc(s.cfg.Name))
	if !v.SignedIn {
		buf.WriteString(`<a class="btn" href="/auth/login/">Sign in</a></nav></header>`)
		return
	}
	buf.WriteString(`<a class="btn" href="/compose/">New post</a>`)
	if v.ProfilePic != "" {
		fmt.Fprintf(buf, `<img class="avatar" src="%s" alt="" width="32" height="32"/>`, esc(v.ProfilePic))
	}
	fmt.Fprintf(buf, `<a class="username" href="/profile/">%s</a>`, esc(v.Username))
	fmt.Fprintf(buf, `<form method="post" action="/auth/logout/"><input type="hidden" name="_csrf" value="%s"/>`+
		`<button type="submit">Sign out</button></form></nav></header>`, esc(v.CSRFToken))
}

func flashes(buf *bytes.Buffer, msgs []string) {
	if len(msgs) == 0 {
		return
	}
	buf.WriteString(`<div class="flashes" role="status">`)
	for _, m := range msgs {
		fmt.Fprintf(buf, `<p class="flash">%s</p>`, esc(m))
	}
	buf.WriteString(`</div>`)
}

func relTime(t time.Time, ok bool) string {
	if !ok {
		return ""
	}
	return fmt.Sprintf(`<time datetime="%s">%s</time>`, t.Format(time.RFC3339), esc(humanize.Time(t)))
}

func categoryURL(cat string) string {
	return "/?category=" + url.QueryEscape(cat)
}

func (s *site) Login(d forumfront.LoginData) templ.Component {
	return s.page(layout{meta: d.Meta, viewer: d.Viewer, flashes: d.Flashes}, func(_ context.Context, buf *bytes.Buffer) error {
		buf.WriteString(`<section class="login"><h1>Sign in</h1>`)
		if d.Failed {
			buf.WriteString(`<p class="error">We could not sign you in. Please try again.</p>`)
		}
		buf.WriteString(`<a class="btn btn-google" href="/auth/google/">Continue with Google</a></section>`)
		return nil
	})
}

func (s *site) NotFound() templ.Component {
	meta := forumfront.PageMeta{SiteName: s.cfg.Name, Title: "Not found", OGType: "website"}
	return s.page(layout{meta: meta}, func(_ context.Context, buf *bytes.Buffer) error {
		buf.WriteString(`<section class="error-page"><h1>Not found</h1><p>That page does not exist or was removed.</p><a href="/">Back to posts</a></section>`)
		return nil
	})
}

func (s *site) ServerError() templ.Component {
	meta := forumfront.PageMeta{SiteName: s.cfg.Name, Title: "Something went wrong", OGType: "website"}
	return s.page(layout{meta: meta}, func(_ context.Context, buf *bytes.Buffer) error {
		buf.WriteString(`<section class="error-page"><h1>Something went wrong</h1><p>Please try again in a moment.</p></section>`)
		return nil
	})
}
