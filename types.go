package forumfront

import (
	"github.com/eringen/forumfront/api"
	"github.com/eringen/forumfront/section"
)

// PageMeta carries per-page OpenGraph and SEO metadata into the <head> template.
type PageMeta struct {
	SiteName    string
	Title       string
	Description string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
}

// Viewer is the signed-in user as templates see it. The zero value is an
// anonymous visitor.
type Viewer struct {
	SignedIn   bool
	UserID     string
	Username   string
	ProfilePic string
	CSRFToken  string
}

// PostCard is a post with the viewer's local state layered on top.
type PostCard struct {
	Post      api.Post
	URL       string
	Liked     bool
	Likes     int // server count plus the local toggle
	CanDelete bool
}

type HomeData struct {
	Meta           PageMeta
	Viewer         Viewer
	Posts          []PostCard
	Categories     []string
	ActiveCategory string
	Flashes        []string
}

type PostData struct {
	Meta     PageMeta
	Viewer   Viewer
	Card     PostCard
	Renderer section.Renderer
	Flashes  []string
}

type ComposeData struct {
	Meta     PageMeta
	Viewer   Viewer
	Draft    Draft
	Types    []section.Type
	Renderer section.Renderer
	Error    string
	Flashes  []string
}

type LoginData struct {
	Meta    PageMeta
	Viewer  Viewer
	Failed  bool
	Flashes []string
}

// Profile is the signed-in user's backend record as the profile page
// shows it.
type Profile struct {
	UserID         string
	Username       string
	Email          string
	ProfilePic     string
	FollowersCount int
	FollowingCount int
	PostCount      int
}

type ProfileData struct {
	Meta    PageMeta
	Viewer  Viewer
	Profile Profile
	Posts   []PostCard // the user's own posts
	Flashes []string
}
