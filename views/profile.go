package views

import (
	"bytes"
	"context"
	"fmt"

	"github.com/a-h/templ"
	"github.com/dustin/go-humanize"

	"github.com/eringen/forumfront"
)

func (s *site) Profile(d forumfront.ProfileData) templ.Component {
	return s.page(layout{meta: d.Meta, viewer: d.Viewer, flashes: d.Flashes}, func(ctx context.Context, buf *bytes.Buffer) error {
		p := d.Profile
		buf.WriteString(`<section class="profile"><header class="profile-header">`)
		if p.ProfilePic != "" {
			fmt.Fprintf(buf, `<img class="avatar avatar-lg" src="%s" alt="" width="96" height="96"/>`, esc(p.ProfilePic))
		}
		fmt.Fprintf(buf, `<div><h1>%s</h1>`, esc(p.Username))
		if p.Email != "" {
			fmt.Fprintf(buf, `<p class="email">%s</p>`, esc(p.Email))
		}
		fmt.Fprintf(buf, `</div><form method="post" action="/auth/logout/"><input type="hidden" name="_csrf" value="%s"/>`+
			`<button class="btn" type="submit">Sign out</button></form></header>`, esc(d.Viewer.CSRFToken))

		buf.WriteString(`<dl class="profile-stats">`)
		stat(buf, "followers", "Followers", p.FollowersCount)
		stat(buf, "following", "Following", p.FollowingCount)
		stat(buf, "posts", "Posts", p.PostCount)
		buf.WriteString(`</dl>`)

		buf.WriteString(`<h2>Your posts</h2>`)
		if err := embed(ctx, buf, PostList(forumfront.HomeData{Viewer: d.Viewer, Posts: d.Posts})); err != nil {
			return err
		}
		buf.WriteString(`</section>`)
		return nil
	})
}

func stat(buf *bytes.Buffer, class, label string, n int) {
	fmt.Fprintf(buf, `<div class="%s"><dt>%s</dt><dd>%s</dd></div>`, class, label, humanize.Comma(int64(n)))
}
