package forumfront

import (
	"net/url"
	"path"
	"strings"
	"time"
	"unicode/utf8"

	json "github.com/goccy/go-json"

	"github.com/eringen/forumfront/api"
)

// Slugify converts a title to a URL-safe slug.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	prev := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prev = false
		default:
			if !prev && b.Len() > 0 {
				b.WriteByte('-')
				prev = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// BuildURL joins a base URL with path segments, ensuring a trailing slash.
// Segments are escaped.
func BuildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	escaped := make([]string, len(pathSegments))
	for i, seg := range pathSegments {
		escaped[i] = url.PathEscape(seg)
	}
	joined := path.Join(append([]string{"/", u.Path}, escaped...)...)
	if !strings.HasSuffix(joined, "/") {
		joined += "/"
	}
	if unescaped, err := url.PathUnescape(joined); err == nil {
		u.Path = unescaped
		u.RawPath = joined
	}
	return u.String()
}

// PostURL is the site-relative path of a post.
func PostURL(id api.ID) string {
	return "/posts/" + url.PathEscape(id.String()) + "/"
}

func trimLeadingSlash(p string) string {
	return strings.TrimPrefix(p, "/")
}

// Excerpt shortens s to at most n runes on a word boundary, adding an
// ellipsis when it cut anything.
func Excerpt(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	cut := string(runes[:n])
	if i := strings.LastIndexByte(cut, ' '); i > n/2 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " .,;:") + "…"
}

// WebsiteJsonLD returns a JSON-LD string for a WebSite schema using SiteConfig.
func WebsiteJsonLD(cfg SiteConfig) string {
	data := map[string]any{
		"@context":    "https://schema.org",
		"@type":       "WebSite",
		"name":        cfg.Name,
		"url":         BuildURL(cfg.URL),
		"description": cfg.Description,
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// PostingJsonLD returns a JSON-LD string for a DiscussionForumPosting.
func PostingJsonLD(post api.Post, cfg SiteConfig) string {
	postURL := BuildURL(cfg.URL, "posts", post.ID.String())
	data := map[string]any{
		"@context":    "https://schema.org",
		"@type":       "DiscussionForumPosting",
		"headline":    post.Title,
		"text":        post.Description,
		"url":         postURL,
		"mainEntityOfPage": map[string]string{
			"@type": "WebPage",
			"@id":   postURL,
		},
		"interactionStatistic": map[string]any{
			"@type":                "InteractionCounter",
			"interactionType":      "https://schema.org/LikeAction",
			"userInteractionCount": post.LikesCount,
		},
	}
	if t, ok := post.Created(); ok {
		data["datePublished"] = t.Format(time.RFC3339)
	}
	if post.Author != nil && post.Author.Username != "" {
		data["author"] = map[string]string{
			"@type": "Person",
			"name":  post.Author.Username,
		}
	}
	if post.Category != "" {
		data["articleSection"] = post.Category
	}
	if m := post.Media(); m != "" {
		data["image"] = m
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}
