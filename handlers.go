package forumfront

import (
	"errors"
	"fmt"
	"net/http"

	json "github.com/goccy/go-json"
	"github.com/labstack/echo/v4"

	"github.com/eringen/forumfront/api"
	"github.com/eringen/forumfront/section"
)

func (a *App) renderer() section.Renderer {
	return section.Renderer{SanitizeHTML: a.Config.SanitizeHTML}
}

func (a *App) pageMeta(title, description, path, ogType string) PageMeta {
	if description == "" {
		description = a.Config.Description
	}
	return PageMeta{
		SiteName:    a.Config.Name,
		Title:       title,
		Description: description,
		URL:         BuildURL(a.Config.URL) + trimLeadingSlash(path),
		OGType:      ogType,
	}
}

// card layers the visitor's local like toggle and ownership over a post.
func card(p api.Post, liked map[string]bool, v Viewer) PostCard {
	c := PostCard{
		Post:      p,
		URL:       PostURL(p.ID),
		Liked:     liked[p.ID.String()],
		Likes:     p.LikesCount,
		CanDelete: v.SignedIn && p.AuthorID() != "" && p.AuthorID() == v.UserID,
	}
	if c.Liked {
		c.Likes++
	}
	return c
}

func (a *App) handleHome(c echo.Context) error {
	ctx := c.Request().Context()
	category := c.QueryParam("category")
	posts, err := a.Cache.ListPosts(ctx, category)
	if err != nil {
		return err
	}
	categories, err := a.Cache.Categories(ctx)
	if err != nil {
		return err
	}

	v := a.viewer(c)
	liked := likedPosts(c)
	cards := make([]PostCard, 0, len(posts))
	for _, p := range posts {
		cards = append(cards, card(p, liked, v))
	}
	data := HomeData{
		Meta:           a.pageMeta(a.Config.Name, "", "/", "website"),
		Viewer:         v,
		Posts:          cards,
		Categories:     categories,
		ActiveCategory: normalizeCategory(category),
		Flashes:        takeFlashes(c),
	}
	if err := a.saveSession(c); err != nil {
		return err
	}
	if isHTMX(c) && c.QueryParam("partial") == "list" {
		return Render(c, a.Views.PostList(data))
	}
	return Render(c, a.Views.Home(data))
}

func (a *App) handlePost(c echo.Context) error {
	post, err := a.Cache.GetPost(c.Request().Context(), api.ID(c.Param("id")))
	if errors.Is(err, api.ErrNotFound) {
		return RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
	}
	if err != nil {
		return err
	}
	v := a.viewer(c)
	pc := card(post, likedPosts(c), v)
	data := PostData{
		Meta:     a.pageMeta(post.Title, Excerpt(post.Description, 160), pc.URL, "article"),
		Viewer:   v,
		Card:     pc,
		Renderer: a.renderer(),
		Flashes:  takeFlashes(c),
	}
	if err := a.saveSession(c); err != nil {
		return err
	}
	return Render(c, a.Views.Post(data))
}

// handleLike flips the visitor's local like and records it with the
// backend. The local state is kept even when the backend call fails, and
// it is never reconciled with the server count.
func (a *App) handleLike(c echo.Context) error {
	ctx := c.Request().Context()
	id := api.ID(c.Param("id"))
	post, err := a.Cache.GetPost(ctx, id)
	if errors.Is(err, api.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound)
	}
	if err != nil {
		return err
	}

	token := a.authorize(c)
	if token == "" {
		return a.afterLike(c, post, "Please sign in to like posts")
	}
	toggleLike(c, id.String())
	if err := a.Backend.LikePost(ctx, token, id); err != nil {
		c.Logger().Warnf("like post %s: %v", id, err)
		return a.afterLike(c, post, "Failed to like post")
	}
	a.Cache.Invalidate()
	return a.afterLike(c, post, "")
}

// afterLike answers HTMX with the refreshed like button, reporting msg
// through an HX-Trigger event, and plain requests with a redirect.
func (a *App) afterLike(c echo.Context, post api.Post, msg string) error {
	v := a.viewer(c)
	if !isHTMX(c) {
		if msg != "" {
			addFlash(c, msg)
		}
		if err := a.saveSession(c); err != nil {
			return err
		}
		return c.Redirect(http.StatusSeeOther, PostURL(post.ID))
	}
	if err := a.saveSession(c); err != nil {
		return err
	}
	if msg != "" {
		trigger, _ := json.Marshal(map[string]string{"showMessage": msg})
		c.Response().Header().Set("HX-Trigger", string(trigger))
	}
	return Render(c, a.Views.LikeButton(card(post, likedPosts(c), v), v.CSRFToken))
}

// handleDelete removes a post owned by the visitor.
func (a *App) handleDelete(c echo.Context) error {
	ctx := c.Request().Context()
	id := api.ID(c.Param("id"))

	token := a.authorize(c)
	if token == "" {
		addFlash(c, "Please sign in to delete posts")
		if err := a.saveSession(c); err != nil {
			return err
		}
		return redirect(c, "/auth/login/")
	}

	post, err := a.Cache.GetPost(ctx, id)
	if errors.Is(err, api.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound)
	}
	if err != nil {
		return err
	}
	if !card(post, nil, a.viewer(c)).CanDelete {
		return echo.NewHTTPError(http.StatusForbidden, "You can only delete your own posts")
	}

	if err := a.Backend.DeletePost(ctx, token, id); err != nil {
		c.Logger().Warnf("delete post %s: %v", id, err)
		addFlash(c, api.Message(err, "Failed to delete post"))
		if err := a.saveSession(c); err != nil {
			return err
		}
		return redirect(c, PostURL(id))
	}
	a.Cache.Invalidate()
	addFlash(c, "Post deleted successfully!")
	if err := a.saveSession(c); err != nil {
		return err
	}
	return redirect(c, "/")
}

func (a *App) handleSitemap(c echo.Context) error {
	posts, err := a.Cache.ListPosts(c.Request().Context(), "")
	if err != nil {
		return err
	}
	return a.renderSitemap(c, posts)
}

func (a *App) handleFeed(c echo.Context) error {
	posts, err := a.Cache.ListPosts(c.Request().Context(), "")
	if err != nil {
		return err
	}
	return a.renderRSS(c, posts)
}

func (a *App) handleRobots(c echo.Context) error {
	body := fmt.Sprintf("User-agent: *\nAllow: /\nDisallow: /compose/\nDisallow: /auth/\nDisallow: /profile/\n\nSitemap: %s\n",
		BuildURL(a.Config.URL)+"sitemap.xml")
	return c.String(http.StatusOK, body)
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	he, ok := err.(*echo.HTTPError)
	if ok && he.Code == http.StatusNotFound {
		_ = RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		c.Logger().Errorf("server error: %v", err)
		_ = RenderStatus(c, code, a.Views.ServerError())
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
