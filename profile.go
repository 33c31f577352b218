package forumfront

import (
	"fmt"

	"github.com/jinzhu/copier"
	"github.com/labstack/echo/v4"

	"github.com/eringen/forumfront/api"
)

func newProfile(u api.User) (Profile, error) {
	var p Profile
	if err := copier.Copy(&p, &u); err != nil {
		return Profile{}, fmt.Errorf("copy user %s: %w", u.UserID, err)
	}
	p.PostCount = len(u.Posts)
	return p, nil
}

// handleProfile shows the signed-in user's profile. The token is verified
// first so the counts come from the backend's latest user record.
func (a *App) handleProfile(c echo.Context) error {
	if a.authorize(c) == "" {
		addFlash(c, "Please sign in to continue")
		if err := a.saveSession(c); err != nil {
			return err
		}
		return redirect(c, "/auth/login/")
	}
	user, _ := a.authSession(c).User()
	profile, err := newProfile(user)
	if err != nil {
		return err
	}

	all, err := a.Cache.ListPosts(c.Request().Context(), "")
	if err != nil {
		return err
	}
	v := a.viewer(c)
	liked := likedPosts(c)
	var own []PostCard
	for _, p := range all {
		if p.AuthorID() == user.UserID {
			own = append(own, card(p, liked, v))
		}
	}
	if profile.PostCount < len(own) {
		profile.PostCount = len(own)
	}

	data := ProfileData{
		Meta:    a.pageMeta(profile.Username, "", "/profile/", "profile"),
		Viewer:  v,
		Profile: profile,
		Posts:   own,
		Flashes: takeFlashes(c),
	}
	if err := a.saveSession(c); err != nil {
		return err
	}
	return Render(c, a.Views.Profile(data))
}
