package views

import (
	"bytes"
	"context"
	"fmt"
	"strconv"

	"github.com/a-h/templ"

	"github.com/eringen/forumfront"
	"github.com/eringen/forumfront/section"
)

func (s *site) Composer(d forumfront.ComposeData) templ.Component {
	return s.page(layout{meta: d.Meta, viewer: d.Viewer, flashes: d.Flashes}, func(ctx context.Context, buf *bytes.Buffer) error {
		base := "/compose/" + d.Draft.ID + "/"
		csrf := esc(d.Viewer.CSRFToken)
		fmt.Fprintf(buf, `<section class="composer"><h1>%s</h1>`, esc(d.Meta.Title))

		fmt.Fprintf(buf, `<form class="draft-fields" method="post" action="%sfields/" hx-post="%sfields/" hx-trigger="change" hx-target="#sections" hx-swap="outerHTML">`+
			`<input type="hidden" name="_csrf" value="%s"/>`, base, base, csrf)
		field(buf, "title", "Title", d.Draft.Title, "text")
		field(buf, "category", "Category", d.Draft.Category, "text")
		field(buf, "mediaUrl", "Header image URL", d.Draft.MediaURL, "url")
		fmt.Fprintf(buf, `<label>Description<textarea name="description" rows="3">%s</textarea></label>`+
			`<noscript><button type="submit">Save</button></noscript></form>`, esc(d.Draft.Description))

		if err := embed(ctx, buf, SectionEditor(d)); err != nil {
			return err
		}

		fmt.Fprintf(buf, `<form class="add-section" method="post" action="%ssections/" hx-post="%ssections/" hx-target="#sections" hx-swap="outerHTML">`+
			`<input type="hidden" name="_csrf" value="%s"/>`, base, base, csrf)
		for _, t := range d.Types {
			fmt.Fprintf(buf, `<button type="submit" name="type" value="%s">+ %s</button>`, esc(string(t)), esc(t.Label()))
		}
		buf.WriteString(`</form>`)

		fmt.Fprintf(buf, `<div class="composer-actions">`+
			`<form method="post" action="%ssubmit/"><input type="hidden" name="_csrf" value="%s"/><button class="btn btn-primary" type="submit">%s</button></form>`+
			`<button class="btn" hx-delete="%s" hx-confirm="Discard this draft?">Discard</button></div></section>`,
			base, csrf, submitLabel(d.Draft), base)
		return nil
	})
}

func submitLabel(d forumfront.Draft) string {
	if d.Editing() {
		return "Update post"
	}
	return "Publish"
}

func field(buf *bytes.Buffer, name, label, value, typ string) {
	fmt.Fprintf(buf, `<label>%s<input type="%s" name="%s" value="%s"/></label>`, esc(label), typ, name, esc(value))
}

// SectionEditor renders the editable section list. Every composer mutation
// swaps it in place.
func SectionEditor(d forumfront.ComposeData) templ.Component {
	return component(func(ctx context.Context, buf *bytes.Buffer) error {
		buf.WriteString(`<div id="sections" class="sections-editor">`)
		if d.Error != "" {
			fmt.Fprintf(buf, `<p class="error" role="alert">%s</p>`, esc(d.Error))
		}
		secs := d.Draft.Sections
		if len(secs) == 0 {
			buf.WriteString(`<p class="empty">Add a section to start writing.</p>`)
		}
		for i, s := range secs {
			if err := sectionRow(ctx, buf, d, i, s, len(secs)); err != nil {
				return err
			}
		}
		buf.WriteString(`</div>`)
		return nil
	})
}

func sectionRow(ctx context.Context, buf *bytes.Buffer, d forumfront.ComposeData, i int, s section.Section, n int) error {
	url := "/compose/" + d.Draft.ID + "/sections/" + strconv.Itoa(i) + "/"
	csrf := esc(d.Viewer.CSRFToken)
	swap := `hx-target="#sections" hx-swap="outerHTML"`

	fmt.Fprintf(buf, `<div class="section-row" data-index="%d"><div class="section-toolbar"><span class="section-type">%s</span>`,
		i, esc(s.Type.Label()))
	if i > 0 {
		fmt.Fprintf(buf, `<button hx-post="%smove/" hx-vals='{"dir":"up"}' %s>Up</button>`, url, swap)
	}
	if i < n-1 {
		fmt.Fprintf(buf, `<button hx-post="%smove/" hx-vals='{"dir":"down"}' %s>Down</button>`, url, swap)
	}
	fmt.Fprintf(buf, `<button hx-delete="%s" %s>Remove</button></div>`, url, swap)

	fmt.Fprintf(buf, `<form method="post" action="%s" hx-post="%s" hx-trigger="change" %s><input type="hidden" name="_csrf" value="%s"/>`,
		url, url, swap, csrf)
	switch s.Type {
	case section.Text, section.Code, section.HTML:
		fmt.Fprintf(buf, `<textarea name="content" rows="6">%s</textarea>`, esc(s.ContentText()))
	case section.Image, section.Video, section.Link:
		fmt.Fprintf(buf, `<input type="url" name="src" value="%s" placeholder="%s URL"/>`, esc(s.SrcText()), esc(s.Type.Label()))
		fmt.Fprintf(buf, `<input type="text" name="content" value="%s" placeholder="Caption"/>`, esc(s.ContentText()))
	}
	buf.WriteString(`<noscript><button type="submit">Save</button></noscript></form>`)

	if s.Type == section.Image {
		gallery(buf, url, csrf, swap, s)
	}

	buf.WriteString(`<div class="section-preview">`)
	if err := embed(ctx, buf, d.Renderer.Section(s)); err != nil {
		return err
	}
	buf.WriteString(`</div></div>`)
	return nil
}

func gallery(buf *bytes.Buffer, url, csrf, swap string, s section.Section) {
	buf.WriteString(`<div class="gallery-editor">`)
	for j, v := range s.ImageDetail {
		img := url + "images/" + strconv.Itoa(j) + "/"
		fmt.Fprintf(buf, `<form class="gallery-slot" method="post" action="%s" hx-post="%s" hx-trigger="change" %s>`+
			`<input type="hidden" name="_csrf" value="%s"/><input type="url" name="url" value="%s" placeholder="Gallery image URL"/>`+
			`<button type="button" hx-delete="%s" %s>Remove</button></form>`,
			img, img, swap, csrf, esc(v), img, swap)
	}
	fmt.Fprintf(buf, `<button hx-post="%simages/" %s>Add gallery image</button>`, url, swap)
	fmt.Fprintf(buf, `<form class="upload" method="post" enctype="multipart/form-data" action="%supload/" hx-post="%supload/" hx-encoding="multipart/form-data" %s>`+
		`<input type="hidden" name="_csrf" value="%s"/><input type="file" name="image" accept="image/*"/>`+
		`<select name="target"><option value="src">Main image</option><option value="gallery">Gallery</option></select>`+
		`<button type="submit">Upload</button></form></div>`, url, url, swap, csrf)
}
