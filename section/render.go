package section

import (
	"bytes"
	"context"
	"html"
	"io"
	"strconv"
	"strings"

	"github.com/a-h/templ"
)

// Renderer turns sections into HTML. The zero value renders html sections
// as-is; set SanitizeHTML to strip scripts and event handlers from them.
type Renderer struct {
	SanitizeHTML bool
}

// Render renders a single section with the zero Renderer.
func Render(s Section) templ.Component {
	return Renderer{}.Section(s)
}

// Section returns a component for s. Every input renders: unknown types
// produce a visible placeholder instead of an error.
func (r Renderer) Section(s Section) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var buf bytes.Buffer
		r.write(&buf, s)
		_, err := w.Write(buf.Bytes())
		return err
	})
}

// Body renders sections in display order.
func (r Renderer) Body(sections Sections) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var buf bytes.Buffer
		buf.WriteString(`<div class="post-sections">`)
		for _, s := range sections.Sorted() {
			buf.WriteString(`<div class="post-section" data-order="` + strconv.Itoa(s.Order) + `">`)
			r.write(&buf, s)
			buf.WriteString(`</div>`)
		}
		buf.WriteString(`</div>`)
		_, err := w.Write(buf.Bytes())
		return err
	})
}

func (r Renderer) write(buf *bytes.Buffer, s Section) {
	switch s.Type {
	case Text:
		buf.WriteString(`<div class="section section-text">`)
		if c := s.ContentText(); c != "" {
			buf.WriteString(`<p class="whitespace-pre-wrap">`)
			buf.WriteString(html.EscapeString(c))
			buf.WriteString(`</p>`)
		}
		buf.WriteString(`</div>`)
	case Code:
		buf.WriteString(`<div class="section section-code"><pre class="code-block"><code>`)
		lines := strings.Split(strings.ReplaceAll(s.ContentText(), "\r\n", "\n"), "\n")
		for i, line := range lines {
			if i > 0 {
				buf.WriteString("\n")
			}
			buf.WriteString(html.EscapeString(line))
		}
		buf.WriteString(`</code></pre></div>`)
	case HTML:
		buf.WriteString(`<div class="section section-html">`)
		content := s.ContentText()
		if r.SanitizeHTML {
			content = SanitizeHTML(content)
		}
		buf.WriteString(content)
		buf.WriteString(`</div>`)
	case Image:
		buf.WriteString(`<div class="section section-image">`)
		if src := s.SrcText(); strings.TrimSpace(src) != "" {
			buf.WriteString(`<div class="section-image-main"><img src="` + attrURL(src) + `" alt="Main image" loading="lazy"/></div>`)
		}
		if gallery := s.Gallery(); len(gallery) > 0 {
			buf.WriteString(`<div class="section-gallery"><p class="section-gallery-title">Additional Images (` + strconv.Itoa(len(gallery)) + `):</p><div class="section-gallery-grid">`)
			for i, u := range gallery {
				n := strconv.Itoa(i + 1)
				buf.WriteString(`<figure class="section-gallery-item"><img src="` + attrURL(u) + `" alt="Additional image ` + n + `" loading="lazy"/>`)
				buf.WriteString(`<span class="section-gallery-index">` + n + `</span></figure>`)
			}
			buf.WriteString(`</div></div>`)
		}
		writeCaption(buf, s)
		buf.WriteString(`</div>`)
	case Video:
		src := s.SrcText()
		if strings.TrimSpace(src) == "" {
			return
		}
		buf.WriteString(`<div class="section section-video"><video controls preload="metadata"><source src="` + attrURL(src) + `"/>Your browser does not support the video tag.</video>`)
		writeCaption(buf, s)
		buf.WriteString(`</div>`)
	case Link:
		src := s.SrcText()
		if strings.TrimSpace(src) == "" {
			return
		}
		buf.WriteString(`<div class="section section-link"><a href="` + attrURL(src) + `" target="_blank" rel="noopener noreferrer">`)
		buf.WriteString(html.EscapeString(src))
		buf.WriteString(`</a>`)
		writeCaption(buf, s)
		buf.WriteString(`</div>`)
	default:
		buf.WriteString(`<div class="section section-unknown">Unknown section type: `)
		buf.WriteString(html.EscapeString(string(s.Type)))
		buf.WriteString(`</div>`)
	}
}

func writeCaption(buf *bytes.Buffer, s Section) {
	if c := s.ContentText(); strings.TrimSpace(c) != "" {
		buf.WriteString(`<p class="section-caption">`)
		buf.WriteString(html.EscapeString(c))
		buf.WriteString(`</p>`)
	}
}

// attrURL sanitizes a locator and escapes it for a quoted attribute.
func attrURL(u string) string {
	return html.EscapeString(string(templ.URL(strings.TrimSpace(u))))
}
