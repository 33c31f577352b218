package forumfront

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/eringen/forumfront/auth"
)

// SiteConfig holds all configuration for a forumfront site.
type SiteConfig struct {
	Name        string // Site name (default "Forum")
	URL         string // Canonical URL (default "http://localhost:3000")
	Description string // Site description for RSS and meta tags

	Addr         string // Listen address (default ":3000")
	DatabasePath string // SQLite path for drafts and uploads (default "data/forum.db")
	SessionDir   string // Server-side session files (default "data/sessions")

	BackendURL      string        // Forum backend base URL (default "http://localhost:5000")
	ExchangeTimeout time.Duration // Identity exchange timeout (default 10s)

	GoogleClientID     string // Required: OAuth client id
	GoogleClientSecret string // Required: OAuth client secret

	SessionSecret string // Required: session signing secret
	CookieSecure  bool   // Set true for HTTPS

	SanitizeHTML bool          // Sanitize html sections before display
	PostCacheTTL time.Duration // Post cache TTL (default 1min)
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Forum"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/forum.db"
	}
	if c.SessionDir == "" {
		c.SessionDir = "data/sessions"
	}
	if c.BackendURL == "" {
		c.BackendURL = "http://localhost:5000"
	}
	if c.ExchangeTimeout == 0 {
		c.ExchangeTimeout = 10 * time.Second
	}
	if c.PostCacheTTL == 0 {
		c.PostCacheTTL = time.Minute
	}
}

func (c SiteConfig) validate() error {
	var missing []string
	if c.SessionSecret == "" {
		missing = append(missing, "SESSION_SECRET")
	}
	if c.GoogleClientID == "" {
		missing = append(missing, "GOOGLE_CLIENT_ID")
	}
	if c.GoogleClientSecret == "" {
		missing = append(missing, "GOOGLE_CLIENT_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("forumfront: missing required config: %s", strings.Join(missing, ", "))
	}
	return nil
}

// LoadConfig reads configuration from the environment. Files in envFiles
// (default ".env") are loaded first when present; variables already set in
// the environment win.
func LoadConfig(envFiles ...string) (SiteConfig, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return SiteConfig{}, fmt.Errorf("forumfront: load %s: %w", f, err)
		}
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("SITE_NAME", "Forum")
	v.SetDefault("SITE_URL", "http://localhost:3000")
	v.SetDefault("ADDR", ":3000")
	v.SetDefault("DATABASE_PATH", "data/forum.db")
	v.SetDefault("SESSION_DIR", "data/sessions")
	v.SetDefault("BACKEND_URL", "http://localhost:5000")
	v.SetDefault("EXCHANGE_TIMEOUT", "10s")
	v.SetDefault("POST_CACHE_TTL", "1m")

	cfg := SiteConfig{
		Name:               v.GetString("SITE_NAME"),
		URL:                v.GetString("SITE_URL"),
		Description:        v.GetString("SITE_DESCRIPTION"),
		Addr:               v.GetString("ADDR"),
		DatabasePath:       v.GetString("DATABASE_PATH"),
		SessionDir:         v.GetString("SESSION_DIR"),
		BackendURL:         v.GetString("BACKEND_URL"),
		ExchangeTimeout:    v.GetDuration("EXCHANGE_TIMEOUT"),
		GoogleClientID:     v.GetString("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: v.GetString("GOOGLE_CLIENT_SECRET"),
		SessionSecret:      v.GetString("SESSION_SECRET"),
		CookieSecure:       v.GetBool("COOKIE_SECURE"),
		SanitizeHTML:       v.GetBool("SANITIZE_HTML"),
		PostCacheTTL:       v.GetDuration("POST_CACHE_TTL"),
	}
	cfg.setDefaults()
	return cfg, nil
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App before the server starts.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithStaticDir sets the directory for static assets and uploads (default "public").
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.staticDir = dir
	}
}

// WithBackend replaces the HTTP backend client.
func WithBackend(b Backend) Option {
	return func(a *App) {
		a.Backend = b
	}
}

// WithProvider replaces the Google identity provider.
func WithProvider(p auth.Provider) Option {
	return func(a *App) {
		a.Provider = p
	}
}
