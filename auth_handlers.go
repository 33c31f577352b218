package forumfront

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/eringen/forumfront/api"
	"github.com/eringen/forumfront/auth"
)

var errBadState = errors.New("oauth state mismatch")

// authorize verifies the visitor's token, refreshing it when the backend
// rejects it, and returns the token to send or "" when the visitor has to
// sign in again. The outcome is persisted in the session.
func (a *App) authorize(c echo.Context) string {
	s := a.authSession(c)
	err := a.Auth.Verify(c.Request().Context(), s)
	if saveErr := a.saveSession(c); saveErr != nil {
		c.Logger().Errorf("save session: %v", saveErr)
	}
	switch {
	case err == nil:
		return s.Token()
	case errors.Is(err, api.ErrNotAuthenticated):
	case errors.Is(err, auth.ErrSessionExpired):
		c.Logger().Infof("session expired: %v", err)
	default:
		c.Logger().Warnf("verify session: %v", err)
	}
	return ""
}

func (a *App) handleLogin(c echo.Context) error {
	if a.authSession(c).Snapshot().Authenticated() {
		return c.Redirect(http.StatusSeeOther, "/")
	}
	data := LoginData{
		Meta:    a.pageMeta("Sign in", "", "/auth/login/", "website"),
		Viewer:  a.viewer(c),
		Failed:  c.QueryParam("error") != "",
		Flashes: takeFlashes(c),
	}
	if err := a.saveSession(c); err != nil {
		return err
	}
	return Render(c, a.Views.Login(data))
}

// handleGoogleBegin starts the provider flow. The nonce stored in the
// session comes back as the state parameter.
func (a *App) handleGoogleBegin(c echo.Context) error {
	ip := c.RealIP()
	if !a.signInLimiter.Allow(ip) {
		return c.String(http.StatusTooManyRequests, "Too many sign-in attempts. Try again later.")
	}
	nonce := a.Auth.Begin(a.authSession(c))
	if err := a.saveSession(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusFound, a.Provider.AuthCodeURL(nonce))
}

func (a *App) handleGoogleCallback(c echo.Context) error {
	s := a.authSession(c)
	state := c.QueryParam("state")
	code := c.QueryParam("code")
	providerErr := c.QueryParam("error")

	err := a.Auth.SignIn(c.Request().Context(), s, func(ctx context.Context) (auth.ProviderIdentity, error) {
		if !s.ConsumeNonce(state) {
			return auth.ProviderIdentity{}, errBadState
		}
		if providerErr != "" {
			return auth.ProviderIdentity{}, errors.New("provider: " + providerErr)
		}
		if code == "" {
			return auth.ProviderIdentity{}, errors.New("missing authorization code")
		}
		return a.Provider.Identity(ctx, code)
	})
	if err != nil {
		c.Logger().Warnf("google callback: %v", err)
		addFlash(c, "Sign-in failed")
		if err := a.saveSession(c); err != nil {
			return err
		}
		return c.Redirect(http.StatusSeeOther, "/auth/login/?error=1")
	}
	if err := a.saveSession(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/")
}

func (a *App) handleLogout(c echo.Context) error {
	a.Auth.SignOut(a.authSession(c))
	if err := a.saveSession(c); err != nil {
		return err
	}
	return redirect(c, "/")
}
