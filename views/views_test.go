package views

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/a-h/templ"

	"github.com/eringen/forumfront"
	"github.com/eringen/forumfront/api"
	"github.com/eringen/forumfront/section"
)

func render(t *testing.T, c templ.Component) *goquery.Document {
	t.Helper()
	var buf bytes.Buffer
	if err := c.Render(context.Background(), &buf); err != nil {
		t.Fatalf("render: %v", err)
	}
	doc, err := goquery.NewDocumentFromReader(&buf)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

func testFuncs() forumfront.ViewFuncs {
	return Funcs(forumfront.SiteConfig{Name: "Forum", URL: "https://forum.example.com"})
}

func TestHomeListsPosts(t *testing.T) {
	created := time.Now().Add(-2 * time.Hour).UTC().Format(time.RFC3339)
	d := forumfront.HomeData{
		Meta:   forumfront.PageMeta{SiteName: "Forum", Title: "Forum"},
		Viewer: forumfront.Viewer{CSRFToken: "tok"},
		Posts: []forumfront.PostCard{
			{
				Post:  api.Post{ID: "1", Title: "<Hello>", Category: "news", CommentsCount: 1200, CreatedAt: created},
				URL:   "/posts/1/",
				Liked: true,
				Likes: 4,
			},
			{Post: api.Post{ID: "2", Title: "Second"}, URL: "/posts/2/"},
		},
		Categories:     []string{"news", "talk"},
		ActiveCategory: "news",
		Flashes:        []string{"Post deleted successfully!"},
	}
	doc := render(t, testFuncs().Home(d))

	if n := doc.Find("article.post-card").Length(); n != 2 {
		t.Fatalf("post cards = %d, want 2", n)
	}
	if got := doc.Find("article.post-card h2 a").First().Text(); got != "<Hello>" {
		t.Errorf("title = %q, want escaped text <Hello>", got)
	}
	if got := doc.Find(".flash").Text(); got != "Post deleted successfully!" {
		t.Errorf("flash = %q", got)
	}
	if got := doc.Find(".like.liked .count").Text(); got != "4" {
		t.Errorf("liked count = %q, want 4", got)
	}
	if !strings.Contains(doc.Find(".post-stats").First().Text(), "1,200 comments") {
		t.Errorf("comment count not humanized: %q", doc.Find(".post-stats").First().Text())
	}
	if got := doc.Find("time").First().Text(); got != "2 hours ago" {
		t.Errorf("relative time = %q, want 2 hours ago", got)
	}
	if got := doc.Find(".categories .pill-active").Text(); got != "news" {
		t.Errorf("active category = %q, want news", got)
	}
	if doc.Find(`a[href="/auth/login/"]`).Length() == 0 {
		t.Error("anonymous visitor should see a sign-in link")
	}
	if doc.Find(`script[type="application/ld+json"]`).Length() != 1 {
		t.Error("home page should carry WebSite JSON-LD")
	}
}

func TestPostListFragment(t *testing.T) {
	doc := render(t, PostList(forumfront.HomeData{}))
	if doc.Find("#post-list").Length() != 1 {
		t.Fatal("fragment should contain #post-list")
	}
	if doc.Find("html head title").Length() != 0 {
		t.Error("fragment should not render the layout")
	}
	if got := strings.TrimSpace(doc.Find(".empty").Text()); got != "No posts yet." {
		t.Errorf("empty text = %q", got)
	}
}

func TestPostPage(t *testing.T) {
	text := "hello"
	src := "/public/uploads/a.jpg"
	d := forumfront.PostData{
		Meta:   forumfront.PageMeta{SiteName: "Forum", Title: "A post", OGType: "article"},
		Viewer: forumfront.Viewer{SignedIn: true, UserID: "u1", Username: "ann", CSRFToken: "tok"},
		Card: forumfront.PostCard{
			Post: api.Post{ID: "7", Title: "A post", Sections: section.Sections{
				{Type: section.Image, Src: &src, Order: 1},
				{Type: section.Text, Content: &text, Order: 0},
			}},
			URL:       "/posts/7/",
			CanDelete: true,
		},
	}
	doc := render(t, testFuncs().Post(d))

	var types []string
	doc.Find(".post-section .section").Each(func(_ int, s *goquery.Selection) {
		cls, _ := s.Attr("class")
		types = append(types, cls)
	})
	if len(types) != 2 || !strings.Contains(types[0], "section-text") || !strings.Contains(types[1], "section-image") {
		t.Errorf("sections rendered in wrong order: %v", types)
	}
	if doc.Find(`[hx-delete="/posts/7/"]`).Length() != 1 {
		t.Error("owner should see a delete button")
	}
	if doc.Find(`a[href="/posts/7/edit/"]`).Length() != 1 {
		t.Error("owner should see an edit link")
	}
	if got, _ := doc.Find(`meta[property="og:type"]`).Attr("content"); got != "article" {
		t.Errorf("og:type = %q, want article", got)
	}
}

func TestLikeButton(t *testing.T) {
	card := forumfront.PostCard{URL: "/posts/3/", Likes: 1500}
	doc := render(t, LikeButton(card, "tok"))
	form := doc.Find("form.like-form")
	if got, _ := form.Attr("hx-post"); got != "/posts/3/like/" {
		t.Errorf("hx-post = %q", got)
	}
	if got, _ := form.Find(`input[name="_csrf"]`).Attr("value"); got != "tok" {
		t.Errorf("csrf = %q", got)
	}
	if got := form.Find(".count").Text(); got != "1,500" {
		t.Errorf("count = %q", got)
	}
	if form.Find(".liked").Length() != 0 {
		t.Error("unliked card rendered as liked")
	}
}

func TestSectionEditor(t *testing.T) {
	var secs section.Sections
	secs.Add(section.Text)
	secs.Add(section.Image)
	secs.Add(section.Code)
	d := forumfront.ComposeData{
		Draft:  forumfront.Draft{ID: "d1", Sections: secs},
		Viewer: forumfront.Viewer{CSRFToken: "tok"},
		Error:  "Please enter a title",
	}
	doc := render(t, SectionEditor(d))

	rows := doc.Find(".section-row")
	if rows.Length() != 3 {
		t.Fatalf("rows = %d, want 3", rows.Length())
	}
	if rows.First().Find(`[hx-vals*="up"]`).Length() != 0 {
		t.Error("first row should not offer Up")
	}
	if rows.Last().Find(`[hx-vals*="down"]`).Length() != 0 {
		t.Error("last row should not offer Down")
	}
	if rows.Eq(1).Find(".gallery-slot").Length() != 1 {
		t.Error("image section should show its gallery slot")
	}
	if rows.Eq(1).Find(`form.upload`).Length() != 1 {
		t.Error("image section should offer an upload form")
	}
	if got := doc.Find(".error").Text(); got != "Please enter a title" {
		t.Errorf("error = %q", got)
	}
}

func TestComposerAndPages(t *testing.T) {
	f := testFuncs()
	doc := render(t, f.Composer(forumfront.ComposeData{
		Meta:  forumfront.PageMeta{SiteName: "Forum", Title: "Edit post"},
		Draft: forumfront.Draft{ID: "d1", PostID: "9", Title: "T"},
		Types: section.Types(),
	}))
	if n := doc.Find(".add-section button").Length(); n != len(section.Types()) {
		t.Errorf("add buttons = %d, want %d", n, len(section.Types()))
	}
	if got := doc.Find(".composer-actions .btn-primary").Text(); got != "Update post" {
		t.Errorf("submit label = %q", got)
	}

	doc = render(t, f.Login(forumfront.LoginData{Failed: true}))
	if doc.Find(".login .error").Length() != 1 {
		t.Error("failed login should show an error")
	}
	if doc = render(t, f.NotFound()); doc.Find("h1").Text() != "Not found" {
		t.Error("not found page heading")
	}
	if doc = render(t, f.ServerError()); doc.Find("h1").Text() != "Something went wrong" {
		t.Error("server error page heading")
	}
}

func TestProfilePage(t *testing.T) {
	d := forumfront.ProfileData{
		Meta:   forumfront.PageMeta{SiteName: "Forum", Title: "ann", OGType: "profile"},
		Viewer: forumfront.Viewer{SignedIn: true, UserID: "u1", Username: "ann", CSRFToken: "tok"},
		Profile: forumfront.Profile{
			UserID: "u1", Username: "ann", ProfilePic: "/a.png",
			FollowersCount: 2500, FollowingCount: 7, PostCount: 1,
		},
		Posts: []forumfront.PostCard{{Post: api.Post{ID: "1", Title: "Mine"}, URL: "/posts/1/"}},
	}
	doc := render(t, testFuncs().Profile(d))

	if got := doc.Find(".profile h1").Text(); got != "ann" {
		t.Errorf("username = %q", got)
	}
	if src, _ := doc.Find(".profile-header img.avatar").Attr("src"); src != "/a.png" {
		t.Errorf("avatar = %q", src)
	}
	if got := doc.Find(".profile-stats .followers dd").Text(); got != "2,500" {
		t.Errorf("followers = %q", got)
	}
	if got := doc.Find(".profile-stats .following dd").Text(); got != "7" {
		t.Errorf("following = %q", got)
	}
	if doc.Find(`.profile form[action="/auth/logout/"]`).Length() != 1 {
		t.Error("profile should offer sign-out")
	}
	if doc.Find(".profile #post-list article.post-card").Length() != 1 {
		t.Error("profile should list the user's posts")
	}
	if doc.Find(`nav a.username[href="/profile/"]`).Length() != 1 {
		t.Error("nav should link to the profile")
	}
}
