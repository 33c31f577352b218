// Package forumfront is the web front-end of a forum: it lists and shows
// posts fetched from the forum backend, signs users in with Google, and
// lets them compose posts out of typed sections.
//
// Templates are supplied by the caller through ViewFuncs; forumfront owns
// the handlers, middleware, sessions and local storage.
package forumfront

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/eringen/forumfront/api"
	"github.com/eringen/forumfront/auth"
)

// Backend is the forum backend as the front-end uses it.
type Backend interface {
	auth.Backend
	ListPosts(ctx context.Context) ([]api.Post, error)
	GetPost(ctx context.Context, id api.ID) (api.Post, error)
	CreatePost(ctx context.Context, token string, in api.PostInput) (api.Post, error)
	UpdatePost(ctx context.Context, token string, id api.ID, in api.PostInput) (api.Post, error)
	DeletePost(ctx context.Context, token string, id api.ID) error
	LikePost(ctx context.Context, token string, id api.ID) error
}

// ViewFuncs holds the templ components the handlers render.
type ViewFuncs struct {
	Home        func(d HomeData) templ.Component
	PostList    func(d HomeData) templ.Component
	Post        func(d PostData) templ.Component
	LikeButton  func(card PostCard, csrfToken string) templ.Component
	Composer    func(d ComposeData) templ.Component
	Sections    func(d ComposeData) templ.Component
	Login       func(d LoginData) templ.Component
	Profile     func(d ProfileData) templ.Component
	NotFound    func() templ.Component
	ServerError func() templ.Component
}

// App wires together the backend client, session lifecycle, local store,
// cache, handlers and views.
type App struct {
	Config   SiteConfig
	Echo     *echo.Echo
	Store    *Store
	Cache    *PostCache
	Views    ViewFuncs
	Backend  Backend
	Auth     *auth.Manager
	Provider auth.Provider

	signInLimiter *Limiter
	uploadLimiter *Limiter
	drafts        *draftLocks
	customRoutes  []func(*App)
	staticDir     string
}

// New creates an App with the given configuration and views.
func New(cfg SiteConfig, views ViewFuncs, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config:    cfg,
		Echo:      echo.New(),
		Views:     views,
		drafts:    newDraftLocks(),
		staticDir: "public",
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.Backend == nil {
		a.Backend = api.New(cfg.BackendURL, api.WithExchangeTimeout(cfg.ExchangeTimeout))
	}
	if a.Provider == nil {
		a.Provider = auth.NewGoogleProvider(cfg.GoogleClientID, cfg.GoogleClientSecret,
			BuildURL(cfg.URL, "auth", "google", "callback"))
	}
	a.Auth = auth.NewManager(a.Backend, auth.WithLogger(a.Echo.Logger), auth.WithRefreshTimeout(cfg.ExchangeTimeout))
	return a
}

// Setup opens the store and registers middleware and routes. Start calls
// it; tests call it directly and drive a.Echo.
func (a *App) Setup() error {
	store, err := NewStore(a.Config.DatabasePath)
	if err != nil {
		return fmt.Errorf("forumfront: init store: %w", err)
	}
	a.Store = store
	a.Cache = NewPostCache(a.Backend, a.Config.PostCacheTTL)
	a.signInLimiter = NewLimiter(10, time.Minute)
	a.uploadLimiter = NewLimiter(30, time.Minute)

	if err := a.setupMiddleware(); err != nil {
		return err
	}
	a.setupRoutes()
	for _, fn := range a.customRoutes {
		fn(a)
	}
	return nil
}

// Start validates the configuration, sets the app up and serves until the
// server is shut down.
func (a *App) Start() error {
	if err := a.Config.validate(); err != nil {
		return err
	}
	if err := a.Setup(); err != nil {
		return err
	}
	if err := a.Echo.Start(a.Config.Addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (a *App) setupRoutes() {
	e := a.Echo

	e.Static("/public", a.staticDir)
	e.GET("/robots.txt", a.handleRobots)
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)
	e.GET("/metrics", metricsHandler())

	e.GET("/", a.handleHome)
	e.GET("/posts/:id/", a.handlePost)
	e.POST("/posts/:id/like/", a.handleLike)
	e.DELETE("/posts/:id/", a.handleDelete)
	e.GET("/posts/:id/edit/", a.handleEditPost)

	e.GET("/auth/login/", a.handleLogin)
	e.GET("/auth/google/", a.handleGoogleBegin)
	e.GET("/auth/google/callback/", a.handleGoogleCallback)
	e.POST("/auth/logout/", a.handleLogout)
	e.GET("/profile/", a.handleProfile, a.requireSignIn)

	g := e.Group("/compose", a.requireSignIn)
	g.GET("/", a.handleComposeNew)
	g.GET("/:draft/", a.handleCompose)
	g.DELETE("/:draft/", a.handleDiscardDraft)
	g.POST("/:draft/fields/", a.handleDraftFields)
	g.POST("/:draft/sections/", a.handleAddSection)
	g.POST("/:draft/sections/:idx/", a.handleUpdateSection)
	g.DELETE("/:draft/sections/:idx/", a.handleRemoveSection)
	g.POST("/:draft/sections/:idx/move/", a.handleMoveSection)
	g.POST("/:draft/sections/:idx/images/", a.handleAddImage)
	g.POST("/:draft/sections/:idx/images/:img/", a.handleUpdateImage)
	g.DELETE("/:draft/sections/:idx/images/:img/", a.handleRemoveImage)
	g.POST("/:draft/sections/:idx/upload/", a.handleUpload)
	g.POST("/:draft/submit/", a.handleSubmit)
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.signInLimiter != nil {
		a.signInLimiter.Stop()
	}
	if a.uploadLimiter != nil {
		a.uploadLimiter.Stop()
	}
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}
