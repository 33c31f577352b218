package forumfront

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"

	json "github.com/goccy/go-json"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/eringen/forumfront/auth"
)

const (
	sessionName = "forum_session"
	authKey     = "auth"
	likesKey    = "likes"
	ctxSession  = "forumfront.session"
)

func (a *App) setupMiddleware() error {
	e := a.Echo

	e.IPExtractor = echo.ExtractIPFromXFFHeader(
		echo.TrustLoopback(true),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(true),
	)

	e.HTTPErrorHandler = a.httpErrorHandler

	e.Pre(middleware.NonWWWRedirect())

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			c.Logger().Infof("%s %s -> %d (%s)", v.Method, v.URI, v.Status, v.Latency)
			return nil
		},
	}))

	e.Use(middleware.Recover())

	metrics, err := requestMetrics()
	if err != nil {
		return fmt.Errorf("forumfront: metrics: %w", err)
	}
	e.Use(metrics)

	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level: 5,
		Skipper: func(c echo.Context) bool {
			return strings.HasPrefix(c.Request().URL.Path, "/public/")
		},
	}))

	e.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		ContentSecurityPolicy: "default-src 'self'; script-src 'self' 'unsafe-inline'; style-src 'self' 'unsafe-inline'; img-src 'self' https: data:; media-src 'self' https:; font-src 'self'; connect-src 'self'",
		HSTSMaxAge:            31536000,
		HSTSExcludeSubdomains: false,
	}))

	store, err := a.newSessionStore()
	if err != nil {
		return err
	}
	e.Use(session.Middleware(store))

	e.Use(middleware.CSRFWithConfig(middleware.CSRFConfig{
		ContextKey:  middleware.DefaultCSRFConfig.ContextKey,
		TokenLookup: "header:X-CSRF-Token,form:_csrf",
		CookieName:  "_csrf",
		CookiePath:  "/",
		CookieSameSite: func() http.SameSite {
			return http.SameSiteLaxMode
		}(),
		CookieSecure: a.Config.CookieSecure,
		Skipper: func(c echo.Context) bool {
			return c.Request().URL.Path == "/metrics"
		},
		ErrorHandler: func(err error, c echo.Context) error {
			return c.String(http.StatusForbidden, "Forbidden")
		},
	}))

	e.Use(middleware.AddTrailingSlashWithConfig(middleware.TrailingSlashConfig{
		RedirectCode: http.StatusMovedPermanently,
		Skipper: func(c echo.Context) bool {
			return isFlatPath(c.Request().URL.Path)
		},
	}))

	e.Use(cacheControlMiddleware)
	return nil
}

// isFlatPath reports paths served without a trailing slash.
func isFlatPath(path string) bool {
	return strings.HasPrefix(path, "/public") ||
		path == "/sitemap.xml" || path == "/feed.xml" || path == "/robots.txt" || path == "/metrics"
}

func cacheControlMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		path := c.Request().URL.Path
		switch {
		case strings.HasPrefix(path, "/public/uploads/"):
			c.Response().Header().Set("Cache-Control", "public, max-age=86400")
		case strings.HasPrefix(path, "/public/"):
			c.Response().Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		case path == "/sitemap.xml" || path == "/feed.xml" || path == "/robots.txt":
			c.Response().Header().Set("Cache-Control", "public, max-age=3600")
		default:
			// Pages carry the viewer's session state.
			c.Response().Header().Set("Cache-Control", "private, no-store")
		}
		return next(c)
	}
}

var (
	metricsOnce sync.Once
	metricsMW   echo.MiddlewareFunc
	metricsErr  error
)

// requestMetrics builds the HTTP metrics middleware once per process; the
// collectors live in the default registry shared with the api and auth
// packages.
func requestMetrics() (echo.MiddlewareFunc, error) {
	metricsOnce.Do(func() {
		metricsMW, metricsErr = echoprometheus.MiddlewareConfig{
			Subsystem: "forumfront",
			Skipper: func(c echo.Context) bool {
				path := c.Request().URL.Path
				return path == "/metrics" || strings.HasPrefix(path, "/public/")
			},
		}.ToMiddleware()
	})
	return metricsMW, metricsErr
}

func metricsHandler() echo.HandlerFunc {
	return echoprometheus.NewHandler()
}

// newSessionStore keeps session data on disk and only a signed id in the
// cookie; the application user record is too large for a cookie.
func (a *App) newSessionStore() (*sessions.FilesystemStore, error) {
	if err := os.MkdirAll(a.Config.SessionDir, 0o700); err != nil {
		return nil, fmt.Errorf("forumfront: session dir: %w", err)
	}
	store := sessions.NewFilesystemStore(a.Config.SessionDir, []byte(a.Config.SessionSecret))
	store.MaxLength(0)
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		MaxAge:   60 * 60 * 24 * 7,
		SameSite: http.SameSiteLaxMode,
		Secure:   a.Config.CookieSecure,
	}
	return store, nil
}

// cookieSession returns the visitor's cookie session. A cookie that no
// longer matches a stored session yields a fresh one.
func cookieSession(c echo.Context) (*sessions.Session, error) {
	sess, err := session.Get(sessionName, c)
	if err != nil && sess != nil {
		c.Logger().Debugf("starting new session: %v", err)
		return sess, nil
	}
	return sess, err
}

// authSession returns the visitor's auth.Session, restored from the cookie
// session on first use in a request.
func (a *App) authSession(c echo.Context) *auth.Session {
	if s, ok := c.Get(ctxSession).(*auth.Session); ok {
		return s
	}
	s := auth.NewSession()
	if sess, err := cookieSession(c); err == nil {
		if raw, ok := sess.Values[authKey].(string); ok && raw != "" {
			if err := json.Unmarshal([]byte(raw), s); err != nil {
				c.Logger().Warnf("discarding unreadable session: %v", err)
				s = auth.NewSession()
			}
		}
	}
	c.Set(ctxSession, s)
	return s
}

// saveSession writes the auth session back to the store. It must run
// before the response is written.
func (a *App) saveSession(c echo.Context) error {
	sess, err := cookieSession(c)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(a.authSession(c).Snapshot())
	if err != nil {
		return err
	}
	sess.Values[authKey] = string(raw)
	return sess.Save(c.Request(), c.Response())
}

// addFlash queues a one-shot message for the next rendered page.
func addFlash(c echo.Context, msg string) {
	if sess, err := cookieSession(c); err == nil {
		sess.AddFlash(msg)
	}
}

// takeFlashes pops queued messages. The session must be saved afterwards.
func takeFlashes(c echo.Context) []string {
	sess, err := cookieSession(c)
	if err != nil {
		return nil
	}
	var out []string
	for _, f := range sess.Flashes() {
		if s, ok := f.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// likedPosts returns the ids the visitor has toggled on in this session.
func likedPosts(c echo.Context) map[string]bool {
	liked := make(map[string]bool)
	sess, err := cookieSession(c)
	if err != nil {
		return liked
	}
	raw, _ := sess.Values[likesKey].(string)
	var ids []string
	if raw != "" {
		_ = json.Unmarshal([]byte(raw), &ids)
	}
	for _, id := range ids {
		liked[id] = true
	}
	return liked
}

// toggleLike flips the local like state for id and reports the new state.
func toggleLike(c echo.Context, id string) bool {
	liked := likedPosts(c)
	liked[id] = !liked[id]
	ids := make([]string, 0, len(liked))
	for k, on := range liked {
		if on {
			ids = append(ids, k)
		}
	}
	if sess, err := cookieSession(c); err == nil {
		raw, _ := json.Marshal(ids)
		sess.Values[likesKey] = string(raw)
	}
	return liked[id]
}

// requireSignIn sends anonymous visitors to the login page.
func (a *App) requireSignIn(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !a.authSession(c).Snapshot().Authenticated() {
			addFlash(c, "Please sign in to continue")
			if err := a.saveSession(c); err != nil {
				return err
			}
			return redirect(c, "/auth/login/")
		}
		return next(c)
	}
}

// viewer describes the visitor for templates.
func (a *App) viewer(c echo.Context) Viewer {
	snap := a.authSession(c).Snapshot()
	v := Viewer{CSRFToken: CsrfToken(c)}
	if snap.Authenticated() && snap.User != nil {
		v.SignedIn = true
		v.UserID = snap.User.UserID
		v.Username = snap.User.Username
		v.ProfilePic = snap.User.ProfilePic
	}
	return v
}

// CsrfToken extracts the CSRF token from the Echo context.
func CsrfToken(c echo.Context) string {
	token, _ := c.Get(middleware.DefaultCSRFConfig.ContextKey).(string)
	return token
}
