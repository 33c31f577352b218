// Package api is a client for the forum backend's REST surface.
//
// Every response is a JSON envelope carrying a success flag and a payload
// key (user, token, post, posts, data). A response missing either is a
// failure regardless of its HTTP status.
package api

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-resty/resty/v2"
	json "github.com/goccy/go-json"
)

const (
	defaultTimeout         = 15 * time.Second
	defaultExchangeTimeout = 10 * time.Second
)

// Client talks to the backend. It is safe for concurrent use.
type Client struct {
	http            *resty.Client
	exchangeTimeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the timeout for every request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.SetTimeout(d)
	}
}

// WithExchangeTimeout bounds the provider identity exchange.
func WithExchangeTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.exchangeTimeout = d
	}
}

// New returns a Client for the backend at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		http: resty.New().
			SetBaseURL(strings.TrimSuffix(baseURL, "/")).
			SetTimeout(defaultTimeout).
			SetHeader("Accept", "application/json").
			SetJSONMarshaler(json.Marshal).
			SetJSONUnmarshaler(json.Unmarshal),
		exchangeTimeout: defaultExchangeTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type envelope struct {
	Success bool            `json:"success"`
	Valid   bool            `json:"valid"`
	Message string          `json:"message"`
	Token   string          `json:"token"`
	User    json.RawMessage `json:"user"`
	Post    json.RawMessage `json:"post"`
	Posts   json.RawMessage `json:"posts"`
	Data    json.RawMessage `json:"data"`
}

func present(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	return s != "" && s != "null"
}

// first returns the first present payload.
func first(raws ...json.RawMessage) json.RawMessage {
	for _, r := range raws {
		if present(r) {
			return r
		}
	}
	return nil
}

type call struct {
	op      string
	method  string
	path    string
	token   string
	body    any
	timeout time.Duration
}

func (c *Client) do(ctx context.Context, cl call) (*envelope, error) {
	if cl.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cl.timeout)
		defer cancel()
	}
	var env envelope
	req := c.http.R().
		SetContext(ctx).
		SetResult(&env).
		SetError(&env)
	if cl.token != "" {
		req.SetAuthToken(cl.token)
	}
	if cl.body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(cl.body)
	}

	start := time.Now()
	resp, err := req.Execute(cl.method, cl.path)
	if err != nil {
		observe(cl.op, outcomeError, start)
		return nil, &Error{Op: cl.op, Err: err}
	}
	if resp.StatusCode() == http.StatusNotFound {
		observe(cl.op, outcomeError, start)
		return nil, &Error{Op: cl.op, Status: resp.StatusCode(), Message: env.Message, Err: ErrNotFound}
	}
	if resp.IsError() {
		observe(cl.op, outcomeError, start)
		return nil, &Error{Op: cl.op, Status: resp.StatusCode(), Message: env.Message}
	}
	observe(cl.op, outcomeOK, start)
	return &env, nil
}

func rejected(op string, env *envelope) error {
	observeRejected(op)
	return &Error{Op: op, Message: env.Message}
}

// SignInWithProvider exchanges a Google identity for the backend user,
// creating the user on first sign-in.
func (c *Client) SignInWithProvider(ctx context.Context, in ProviderSignIn) (User, error) {
	const op = "sign in"
	env, err := c.do(ctx, call{
		op:      op,
		method:  http.MethodPost,
		path:    "/auth/signin-google",
		body:    in,
		timeout: c.exchangeTimeout,
	})
	if err != nil {
		return User{}, err
	}
	if !env.Success || !present(env.User) {
		return User{}, rejected(op, env)
	}
	var u User
	if err := json.Unmarshal(env.User, &u); err != nil {
		return User{}, &Error{Op: op, Err: err}
	}
	if u.UserID == "" {
		return User{}, rejected(op, env)
	}
	return u, nil
}

// CreateSession mints a bearer token for a known user.
func (c *Client) CreateSession(ctx context.Context, userID, email string) (string, error) {
	const op = "create session"
	env, err := c.do(ctx, call{
		op:     op,
		method: http.MethodPost,
		path:   "/auth/create-session",
		body: map[string]string{
			"userId": userID,
			"email":  email,
		},
	})
	if err != nil {
		return "", err
	}
	if !env.Success || env.Token == "" {
		return "", rejected(op, env)
	}
	return env.Token, nil
}

// VerifyToken asks the backend whether token is still valid. An invalid
// token is not an error; only a failed call is.
func (c *Client) VerifyToken(ctx context.Context, token string) (Verification, error) {
	const op = "verify token"
	if token == "" {
		return Verification{}, ErrNotAuthenticated
	}
	env, err := c.do(ctx, call{
		op:     op,
		method: http.MethodPost,
		path:   "/auth/verify-token",
		body:   map[string]string{"token": token},
	})
	if err != nil {
		var apiErr *Error
		if asError(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
			return Verification{Valid: false}, nil
		}
		return Verification{}, err
	}
	v := Verification{Valid: env.Valid}
	if v.Valid && present(env.User) {
		var u User
		if err := json.Unmarshal(env.User, &u); err != nil {
			return Verification{}, &Error{Op: op, Err: err}
		}
		v.User = &u
	}
	return v, nil
}

// ListPosts returns all posts. It needs no token.
func (c *Client) ListPosts(ctx context.Context) ([]Post, error) {
	const op = "list posts"
	env, err := c.do(ctx, call{op: op, method: http.MethodGet, path: "/api/posts"})
	if err != nil {
		return nil, err
	}
	raw := first(env.Posts, env.Data)
	if !env.Success || raw == nil {
		return nil, rejected(op, env)
	}
	var posts []Post
	if err := json.Unmarshal(raw, &posts); err != nil {
		return nil, &Error{Op: op, Err: err}
	}
	return posts, nil
}

// GetPost returns one post. It needs no token.
func (c *Client) GetPost(ctx context.Context, id ID) (Post, error) {
	const op = "get post"
	env, err := c.do(ctx, call{op: op, method: http.MethodGet, path: postPath(id)})
	if err != nil {
		return Post{}, err
	}
	raw := first(env.Post, env.Data)
	if !env.Success || raw == nil {
		return Post{}, rejected(op, env)
	}
	var p Post
	if err := json.Unmarshal(raw, &p); err != nil {
		return Post{}, &Error{Op: op, Err: err}
	}
	return p, nil
}

// CreatePost publishes a new post.
func (c *Client) CreatePost(ctx context.Context, token string, in PostInput) (Post, error) {
	return c.writePost(ctx, "create post", http.MethodPost, "/api/posts", token, in)
}

// UpdatePost replaces an existing post.
func (c *Client) UpdatePost(ctx context.Context, token string, id ID, in PostInput) (Post, error) {
	return c.writePost(ctx, "update post", http.MethodPut, postPath(id), token, in)
}

func (c *Client) writePost(ctx context.Context, op, method, path, token string, in PostInput) (Post, error) {
	if token == "" {
		return Post{}, ErrNotAuthenticated
	}
	if err := in.Validate(); err != nil {
		return Post{}, err
	}
	env, err := c.do(ctx, call{op: op, method: method, path: path, token: token, body: in})
	if err != nil {
		return Post{}, err
	}
	if !env.Success {
		return Post{}, rejected(op, env)
	}
	var p Post
	if raw := first(env.Post, env.Data); raw != nil {
		if err := json.Unmarshal(raw, &p); err != nil {
			return Post{}, &Error{Op: op, Err: err}
		}
	}
	return p, nil
}

// DeletePost removes a post owned by the token's user.
func (c *Client) DeletePost(ctx context.Context, token string, id ID) error {
	const op = "delete post"
	if token == "" {
		return ErrNotAuthenticated
	}
	env, err := c.do(ctx, call{op: op, method: http.MethodDelete, path: postPath(id), token: token})
	if err != nil {
		return err
	}
	if !env.Success {
		return rejected(op, env)
	}
	return nil
}

// LikePost records a like for the token's user.
func (c *Client) LikePost(ctx context.Context, token string, id ID) error {
	const op = "like post"
	if token == "" {
		return ErrNotAuthenticated
	}
	env, err := c.do(ctx, call{op: op, method: http.MethodPost, path: postPath(id) + "/like", token: token})
	if err != nil {
		return err
	}
	if !env.Success {
		return rejected(op, env)
	}
	return nil
}

func postPath(id ID) string {
	return "/api/posts/" + url.PathEscape(id.String())
}

var validate = validator.New()

// Validate checks the input before it is sent.
func (in PostInput) Validate() error {
	if err := validate.Struct(in); err != nil {
		var vErrs validator.ValidationErrors
		if asError(err, &vErrs) && len(vErrs) > 0 {
			return &ValidationError{Field: vErrs[0].Field(), Tag: vErrs[0].Tag()}
		}
		return err
	}
	return nil
}
