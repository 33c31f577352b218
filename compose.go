package forumfront

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/labstack/echo/v4"

	"github.com/eringen/forumfront/api"
	"github.com/eringen/forumfront/section"
)

// draftLocks serializes mutations of a single draft.
type draftLocks struct {
	mu sync.Mutex
	m  map[string]*draftLock
}

type draftLock struct {
	sync.Mutex
	refs int
}

func newDraftLocks() *draftLocks {
	return &draftLocks{m: make(map[string]*draftLock)}
}

// lock blocks until id is free and returns the matching unlock.
func (l *draftLocks) lock(id string) func() {
	l.mu.Lock()
	dl, ok := l.m[id]
	if !ok {
		dl = &draftLock{}
		l.m[id] = dl
	}
	dl.refs++
	l.mu.Unlock()

	dl.Lock()
	return func() {
		dl.Unlock()
		l.mu.Lock()
		dl.refs--
		if dl.refs == 0 {
			delete(l.m, id)
		}
		l.mu.Unlock()
	}
}

func intParam(c echo.Context, name string) (int, error) {
	n, err := strconv.Atoi(c.Param(name))
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return n, nil
}

// formField returns a pointer to the submitted value, or nil when the form
// did not carry the field at all.
func formField(c echo.Context, name string) *string {
	form, err := c.FormParams()
	if err != nil {
		return nil
	}
	vals, ok := form[name]
	if !ok || len(vals) == 0 {
		return nil
	}
	v := vals[0]
	return &v
}

// ownDraft loads a draft owned by the signed-in user. Drafts of other
// users are reported as missing.
func (a *App) ownDraft(c echo.Context, id string) (Draft, error) {
	d, err := a.Store.GetDraft(id)
	if errors.Is(err, ErrDraftNotFound) {
		return Draft{}, echo.NewHTTPError(http.StatusNotFound)
	}
	if err != nil {
		return Draft{}, err
	}
	if d.UserID != a.viewer(c).UserID {
		return Draft{}, echo.NewHTTPError(http.StatusNotFound)
	}
	return d, nil
}

// mutateDraft applies fn to the draft named in the route, persists it and
// renders the editor. Mutations of one draft never interleave.
func (a *App) mutateDraft(c echo.Context, fn func(d *Draft) error) error {
	id := c.Param("draft")
	unlock := a.drafts.lock(id)
	defer unlock()

	d, err := a.ownDraft(c, id)
	if err != nil {
		return err
	}
	if err := fn(&d); err != nil {
		return err
	}
	if err := a.Store.SaveDraft(&d); err != nil {
		return err
	}
	return a.renderDraft(c, d, "")
}

// renderDraft answers HTMX requests with the section editor fragment and
// plain form posts with a redirect back to the composer.
func (a *App) renderDraft(c echo.Context, d Draft, errMsg string) error {
	if !isHTMX(c) {
		if errMsg != "" {
			addFlash(c, errMsg)
		}
		if err := a.saveSession(c); err != nil {
			return err
		}
		return c.Redirect(http.StatusSeeOther, draftURL(d.ID))
	}
	data := a.composeData(c, d, errMsg)
	if err := a.saveSession(c); err != nil {
		return err
	}
	return Render(c, a.Views.Sections(data))
}

func (a *App) composeData(c echo.Context, d Draft, errMsg string) ComposeData {
	title := "New post"
	if d.Editing() {
		title = "Edit post"
	}
	return ComposeData{
		Meta:     a.pageMeta(title, "", draftURL(d.ID), "website"),
		Viewer:   a.viewer(c),
		Draft:    d,
		Types:    section.Types(),
		Renderer: a.renderer(),
		Error:    errMsg,
		Flashes:  takeFlashes(c),
	}
}

func draftURL(id string) string {
	return "/compose/" + id + "/"
}

func (a *App) handleComposeNew(c echo.Context) error {
	d, err := a.Store.CreateDraft(Draft{UserID: a.viewer(c).UserID})
	if err != nil {
		return err
	}
	return redirect(c, draftURL(d.ID))
}

func (a *App) handleCompose(c echo.Context) error {
	d, err := a.ownDraft(c, c.Param("draft"))
	if err != nil {
		return err
	}
	data := a.composeData(c, d, "")
	if err := a.saveSession(c); err != nil {
		return err
	}
	return Render(c, a.Views.Composer(data))
}

func (a *App) handleDiscardDraft(c echo.Context) error {
	id := c.Param("draft")
	unlock := a.drafts.lock(id)
	defer unlock()

	if _, err := a.ownDraft(c, id); err != nil {
		return err
	}
	if err := a.Store.DeleteDraft(id); err != nil {
		return err
	}
	return redirect(c, "/")
}

func (a *App) handleDraftFields(c echo.Context) error {
	return a.mutateDraft(c, func(d *Draft) error {
		if v := formField(c, "title"); v != nil {
			d.Title = *v
		}
		if v := formField(c, "description"); v != nil {
			d.Description = *v
		}
		if v := formField(c, "category"); v != nil {
			d.Category = *v
		}
		if v := formField(c, "mediaUrl"); v != nil {
			d.MediaURL = *v
		}
		return nil
	})
}

func (a *App) handleAddSection(c echo.Context) error {
	t := section.Parse(c.FormValue("type"))
	if !t.Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown section type")
	}
	return a.mutateDraft(c, func(d *Draft) error {
		d.Sections.Add(t)
		return nil
	})
}

func (a *App) handleUpdateSection(c echo.Context) error {
	idx, err := intParam(c, "idx")
	if err != nil {
		return err
	}
	patch := section.Patch{
		Content: formField(c, "content"),
		Src:     formField(c, "src"),
	}
	return a.mutateDraft(c, func(d *Draft) error {
		d.Sections.Update(idx, patch)
		return nil
	})
}

func (a *App) handleRemoveSection(c echo.Context) error {
	idx, err := intParam(c, "idx")
	if err != nil {
		return err
	}
	return a.mutateDraft(c, func(d *Draft) error {
		d.Sections.Remove(idx)
		return nil
	})
}

func (a *App) handleMoveSection(c echo.Context) error {
	idx, err := intParam(c, "idx")
	if err != nil {
		return err
	}
	dir, ok := section.ParseDirection(c.FormValue("dir"))
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "dir must be up or down")
	}
	return a.mutateDraft(c, func(d *Draft) error {
		d.Sections.Move(idx, dir)
		return nil
	})
}

func (a *App) handleAddImage(c echo.Context) error {
	idx, err := intParam(c, "idx")
	if err != nil {
		return err
	}
	return a.mutateDraft(c, func(d *Draft) error {
		d.Sections.AddImage(idx)
		return nil
	})
}

func (a *App) handleUpdateImage(c echo.Context) error {
	idx, err := intParam(c, "idx")
	if err != nil {
		return err
	}
	img, err := intParam(c, "img")
	if err != nil {
		return err
	}
	value := c.FormValue("url")
	return a.mutateDraft(c, func(d *Draft) error {
		d.Sections.UpdateImage(idx, img, value)
		return nil
	})
}

func (a *App) handleRemoveImage(c echo.Context) error {
	idx, err := intParam(c, "idx")
	if err != nil {
		return err
	}
	img, err := intParam(c, "img")
	if err != nil {
		return err
	}
	return a.mutateDraft(c, func(d *Draft) error {
		d.Sections.RemoveImage(idx, img)
		return nil
	})
}

// handleSubmit sends the draft to the backend as a new post or an update
// of the post it was opened from.
func (a *App) handleSubmit(c echo.Context) error {
	id := c.Param("draft")
	unlock := a.drafts.lock(id)
	defer unlock()

	d, err := a.ownDraft(c, id)
	if err != nil {
		return err
	}
	if strings.TrimSpace(d.Title) == "" {
		return a.renderDraft(c, d, "Please enter a title")
	}

	token := a.authorize(c)
	if token == "" {
		addFlash(c, "Please sign in to create a post")
		if err := a.saveSession(c); err != nil {
			return err
		}
		return redirect(c, "/auth/login/")
	}

	v := a.viewer(c)
	in := api.NewPostInput(d.Title, d.Description, d.Category, d.MediaURL, d.Sections, api.Author{
		UserID:     v.UserID,
		Username:   v.Username,
		ProfilePic: v.ProfilePic,
	})

	ctx := c.Request().Context()
	var post api.Post
	if d.Editing() {
		post, err = a.Backend.UpdatePost(ctx, token, d.PostID, in)
	} else {
		post, err = a.Backend.CreatePost(ctx, token, in)
	}
	if err != nil {
		c.Logger().Warnf("submit draft %s: %v", d.ID, err)
		return a.renderDraft(c, d, api.Message(err, "Failed to save post"))
	}

	a.Cache.Invalidate()
	if err := a.Store.DeleteDraft(d.ID); err != nil {
		c.Logger().Errorf("delete submitted draft %s: %v", d.ID, err)
	}

	dest := "/"
	if post.ID == "" && d.Editing() {
		post.ID = d.PostID
	}
	if post.ID != "" {
		dest = PostURL(post.ID)
	}
	if d.Editing() {
		addFlash(c, "Post updated successfully!")
	} else {
		addFlash(c, "Post created successfully!")
	}
	if err := a.saveSession(c); err != nil {
		return err
	}
	return redirect(c, dest)
}

// handleEditPost opens a draft from an existing post owned by the viewer,
// reusing an earlier draft for the same post when there is one.
func (a *App) handleEditPost(c echo.Context) error {
	v := a.viewer(c)
	if !v.SignedIn {
		addFlash(c, "Please sign in to continue")
		if err := a.saveSession(c); err != nil {
			return err
		}
		return redirect(c, "/auth/login/")
	}
	id := api.ID(c.Param("id"))

	if d, err := a.Store.DraftForPost(v.UserID, id); err == nil {
		return redirect(c, draftURL(d.ID))
	} else if !errors.Is(err, ErrDraftNotFound) {
		return err
	}

	post, err := a.Backend.GetPost(c.Request().Context(), id)
	if errors.Is(err, api.ErrNotFound) {
		return RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
	}
	if err != nil {
		addFlash(c, "Failed to load post for editing")
		if err := a.saveSession(c); err != nil {
			return err
		}
		return redirect(c, PostURL(id))
	}
	if post.AuthorID() != v.UserID {
		return echo.NewHTTPError(http.StatusForbidden, "You can only edit your own posts")
	}

	sections := post.Sections.Sorted()
	sections.Renormalize()
	d, err := a.Store.CreateDraft(Draft{
		UserID:      v.UserID,
		PostID:      id,
		Title:       post.Title,
		Description: post.Description,
		Category:    post.Category,
		MediaURL:    post.Media(),
		Sections:    sections,
	})
	if err != nil {
		return err
	}
	return redirect(c, draftURL(d.ID))
}
