package views

import (
	"bytes"
	"context"
	"fmt"

	"github.com/a-h/templ"
	"github.com/dustin/go-humanize"

	"github.com/eringen/forumfront"
)

func (s *site) Home(d forumfront.HomeData) templ.Component {
	l := layout{meta: d.Meta, viewer: d.Viewer, flashes: d.Flashes, jsonLD: forumfront.WebsiteJsonLD(s.cfg)}
	return s.page(l, func(ctx context.Context, buf *bytes.Buffer) error {
		buf.WriteString(`<nav class="categories" hx-target="#post-list" hx-swap="outerHTML">`)
		fmt.Fprintf(buf, `<a href="/" hx-get="/?partial=list" hx-push-url="/" class="%s">All</a>`,
			activeClass(d.ActiveCategory == ""))
		for _, cat := range d.Categories {
			u := categoryURL(cat)
			fmt.Fprintf(buf, `<a href="%s" hx-get="%s&amp;partial=list" hx-push-url="%s" class="%s">%s</a>`,
				esc(u), esc(u), esc(u), activeClass(cat == d.ActiveCategory), esc(cat))
		}
		buf.WriteString(`</nav>`)
		return embed(ctx, buf, PostList(d))
	})
}

func activeClass(active bool) string {
	if active {
		return "pill pill-active"
	}
	return "pill"
}

// PostList renders the list fragment swapped in by category filters.
func PostList(d forumfront.HomeData) templ.Component {
	return component(func(ctx context.Context, buf *bytes.Buffer) error {
		buf.WriteString(`<section id="post-list" class="post-list">`)
		if len(d.Posts) == 0 {
			buf.WriteString(`<p class="empty">No posts yet.</p>`)
		}
		for _, card := range d.Posts {
			if err := postSummary(ctx, buf, card, d.Viewer); err != nil {
				return err
			}
		}
		buf.WriteString(`</section>`)
		return nil
	})
}

func postSummary(ctx context.Context, buf *bytes.Buffer, card forumfront.PostCard, v forumfront.Viewer) error {
	p := card.Post
	buf.WriteString(`<article class="post-card">`)
	if m := p.Media(); m != "" {
		fmt.Fprintf(buf, `<a href="%s"><img class="post-media" src="%s" alt="" loading="lazy"/></a>`, esc(card.URL), esc(m))
	}
	fmt.Fprintf(buf, `<h2><a href="%s">%s</a></h2>`, esc(card.URL), esc(p.Title))
	byline(buf, card)
	if p.Description != "" {
		fmt.Fprintf(buf, `<p class="post-description">%s</p>`, esc(forumfront.Excerpt(p.Description, 240)))
	}
	buf.WriteString(`<footer class="post-stats">`)
	if err := embed(ctx, buf, LikeButton(card, v.CSRFToken)); err != nil {
		return err
	}
	fmt.Fprintf(buf, `<span>%s comments</span><span>%s views</span></footer></article>`,
		humanize.Comma(int64(p.CommentsCount)), humanize.Comma(int64(p.ViewsCount)))
	return nil
}

func byline(buf *bytes.Buffer, card forumfront.PostCard) {
	p := card.Post
	buf.WriteString(`<p class="byline">`)
	if p.Author != nil {
		if p.Author.ProfilePic != "" {
			fmt.Fprintf(buf, `<img class="avatar" src="%s" alt="" width="24" height="24"/>`, esc(p.Author.ProfilePic))
		}
		fmt.Fprintf(buf, `<span class="author">%s</span>`, esc(p.Author.Username))
	}
	if p.Category != "" {
		fmt.Fprintf(buf, `<a class="pill" href="%s">%s</a>`, esc(categoryURL(p.Category)), esc(p.Category))
	}
	buf.WriteString(relTime(p.Created()))
	buf.WriteString(`</p>`)
}

// LikeButton renders the like toggle. It replaces itself after a like.
func LikeButton(card forumfront.PostCard, csrfToken string) templ.Component {
	return component(func(ctx context.Context, buf *bytes.Buffer) error {
		class := "like"
		if card.Liked {
			class += " liked"
		}
		action := card.URL + "like/"
		fmt.Fprintf(buf, `<form class="like-form" method="post" action="%s" hx-post="%s" hx-swap="outerHTML">`+
			`<input type="hidden" name="_csrf" value="%s"/>`+
			`<button type="submit" class="%s" aria-pressed="%t">&#9829; <span class="count">%s</span></button></form>`,
			esc(action), esc(action), esc(csrfToken), class, card.Liked, humanize.Comma(int64(card.Likes)))
		return nil
	})
}

func (s *site) Post(d forumfront.PostData) templ.Component {
	l := layout{
		meta:    d.Meta,
		viewer:  d.Viewer,
		flashes: d.Flashes,
		jsonLD:  forumfront.PostingJsonLD(d.Card.Post, s.cfg),
	}
	return s.page(l, func(ctx context.Context, buf *bytes.Buffer) error {
		card := d.Card
		p := card.Post
		buf.WriteString(`<article class="post">`)
		fmt.Fprintf(buf, `<h1>%s</h1>`, esc(p.Title))
		byline(buf, card)
		if m := p.Media(); m != "" {
			fmt.Fprintf(buf, `<img class="post-media" src="%s" alt=""/>`, esc(m))
		}
		if p.Description != "" {
			fmt.Fprintf(buf, `<p class="post-description">%s</p>`, esc(p.Description))
		}
		if err := embed(ctx, buf, d.Renderer.Body(p.Sections)); err != nil {
			return err
		}
		buf.WriteString(`<footer class="post-actions">`)
		if err := embed(ctx, buf, LikeButton(card, d.Viewer.CSRFToken)); err != nil {
			return err
		}
		if card.CanDelete {
			fmt.Fprintf(buf, `<a class="btn" href="%sedit/">Edit</a>`, esc(card.URL))
			fmt.Fprintf(buf, `<button class="btn btn-danger" hx-delete="%s" hx-confirm="Delete this post?">Delete</button>`,
				esc(card.URL))
		}
		buf.WriteString(`</footer></article>`)
		return nil
	})
}
