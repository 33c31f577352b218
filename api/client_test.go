package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/forumfront/section"
)

type recorded struct {
	method string
	path   string
	auth   string
	body   map[string]any
}

// backend serves a fixed status and body and records the last request.
func backend(t *testing.T, status int, body string) (*Client, *recorded, *atomic.Int32) {
	t.Helper()
	rec := &recorded{}
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		rec.method = r.Method
		rec.path = r.URL.Path
		rec.auth = r.Header.Get("Authorization")
		if b, _ := io.ReadAll(r.Body); len(b) > 0 {
			rec.body = map[string]any{}
			_ = json.Unmarshal(b, &rec.body)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return New(srv.URL + "/"), rec, &hits
}

func TestSignInWithProvider(t *testing.T) {
	c, rec, _ := backend(t, http.StatusOK, `{"success":true,"user":{"userId":"u1","username":"ann","email":"a@x.io"}}`)

	u, err := c.SignInWithProvider(context.Background(), ProviderSignIn{GoogleID: "g1", Email: "a@x.io", Name: "Ann"})
	require.NoError(t, err)
	assert.Equal(t, "u1", u.UserID)
	assert.Equal(t, http.MethodPost, rec.method)
	assert.Equal(t, "/auth/signin-google", rec.path)
	assert.Equal(t, "g1", rec.body["googleId"])
	assert.Empty(t, rec.auth)
}

func TestSignInRequiresSuccessAndUser(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"success false", `{"success":false,"user":{"userId":"u1"},"message":"banned"}`},
		{"missing user", `{"success":true}`},
		{"null user", `{"success":true,"user":null}`},
		{"user without id", `{"success":true,"user":{"username":"ann"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _, _ := backend(t, http.StatusOK, tt.body)
			_, err := c.SignInWithProvider(context.Background(), ProviderSignIn{GoogleID: "g1"})
			var apiErr *Error
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, "sign in", apiErr.Op)
		})
	}
}

func TestSignInHonorsExchangeTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)

	c := New(srv.URL, WithExchangeTimeout(50*time.Millisecond))
	start := time.Now()
	_, err := c.SignInWithProvider(context.Background(), ProviderSignIn{GoogleID: "g1"})
	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
}

func TestCreateSession(t *testing.T) {
	c, rec, _ := backend(t, http.StatusOK, `{"success":true,"token":"tok"}`)

	tok, err := c.CreateSession(context.Background(), "u1", "a@x.io")
	require.NoError(t, err)
	assert.Equal(t, "tok", tok)
	assert.Equal(t, "/auth/create-session", rec.path)
	assert.Equal(t, "u1", rec.body["userId"])
	assert.Equal(t, "a@x.io", rec.body["email"])

	c, _, _ = backend(t, http.StatusOK, `{"success":true}`)
	_, err = c.CreateSession(context.Background(), "u1", "a@x.io")
	assert.Error(t, err)
}

func TestVerifyToken(t *testing.T) {
	c, rec, _ := backend(t, http.StatusOK, `{"valid":true,"user":{"userId":"u1","username":"ann"}}`)
	v, err := c.VerifyToken(context.Background(), "tok")
	require.NoError(t, err)
	assert.True(t, v.Valid)
	require.NotNil(t, v.User)
	assert.Equal(t, "ann", v.User.Username)
	assert.Equal(t, "tok", rec.body["token"])

	c, _, _ = backend(t, http.StatusOK, `{"valid":false}`)
	v, err = c.VerifyToken(context.Background(), "tok")
	require.NoError(t, err)
	assert.False(t, v.Valid)

	c, _, _ = backend(t, http.StatusUnauthorized, `{"valid":false,"message":"expired"}`)
	v, err = c.VerifyToken(context.Background(), "tok")
	require.NoError(t, err)
	assert.False(t, v.Valid)

	c, _, _ = backend(t, http.StatusInternalServerError, `{}`)
	_, err = c.VerifyToken(context.Background(), "tok")
	assert.Error(t, err)
}

func TestListPostsAcceptsPostsOrData(t *testing.T) {
	for _, body := range []string{
		`{"success":true,"posts":[{"postId":"p1","title":"A"},{"postId":7,"title":"B"}]}`,
		`{"success":true,"data":[{"postId":"p1","title":"A"},{"postId":7,"title":"B"}]}`,
	} {
		c, rec, _ := backend(t, http.StatusOK, body)
		posts, err := c.ListPosts(context.Background())
		require.NoError(t, err)
		require.Len(t, posts, 2)
		assert.Equal(t, ID("p1"), posts[0].ID)
		assert.Equal(t, ID("7"), posts[1].ID)
		assert.Equal(t, "/api/posts", rec.path)
		assert.Empty(t, rec.auth)
	}

	c, _, _ := backend(t, http.StatusOK, `{"success":true}`)
	_, err := c.ListPosts(context.Background())
	assert.Error(t, err)
}

func TestGetPost(t *testing.T) {
	c, rec, _ := backend(t, http.StatusOK, `{"success":true,"post":{"postId":"p1","title":"A","sections":[{"type":"text","content":"hi","src":null,"order":0}]}}`)
	p, err := c.GetPost(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "/api/posts/p1", rec.path)
	require.Len(t, p.Sections, 1)
	assert.Equal(t, "hi", p.Sections[0].ContentText())

	c, _, _ = backend(t, http.StatusNotFound, `{"success":false,"message":"Post not found"}`)
	_, err = c.GetPost(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "Post not found", Message(err, "fallback"))
}

func TestMutationsSendBearerToken(t *testing.T) {
	ctx := context.Background()
	in := PostInput{Title: "Hello"}

	c, rec, _ := backend(t, http.StatusOK, `{"success":true,"post":{"postId":"p9"}}`)
	p, err := c.CreatePost(ctx, "tok", in)
	require.NoError(t, err)
	assert.Equal(t, ID("p9"), p.ID)
	assert.Equal(t, "Bearer tok", rec.auth)
	assert.Equal(t, http.MethodPost, rec.method)

	_, err = c.UpdatePost(ctx, "tok", "p9", in)
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, rec.method)
	assert.Equal(t, "/api/posts/p9", rec.path)

	require.NoError(t, c.DeletePost(ctx, "tok", "p9"))
	assert.Equal(t, http.MethodDelete, rec.method)
	assert.Equal(t, "Bearer tok", rec.auth)

	require.NoError(t, c.LikePost(ctx, "tok", "p9"))
	assert.Equal(t, "/api/posts/p9/like", rec.path)
}

func TestMutationsWithoutTokenMakeNoCall(t *testing.T) {
	ctx := context.Background()
	c, _, hits := backend(t, http.StatusOK, `{"success":true}`)

	_, err := c.CreatePost(ctx, "", PostInput{Title: "x"})
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	_, err = c.UpdatePost(ctx, "", "p1", PostInput{Title: "x"})
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	assert.ErrorIs(t, c.DeletePost(ctx, "", "p1"), ErrNotAuthenticated)
	assert.ErrorIs(t, c.LikePost(ctx, "", "p1"), ErrNotAuthenticated)
	_, err = c.VerifyToken(ctx, "")
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	assert.Zero(t, hits.Load())
}

func TestMutationFailureCarriesMessage(t *testing.T) {
	c, _, _ := backend(t, http.StatusForbidden, `{"success":false,"message":"Not your post"}`)
	err := c.DeletePost(context.Background(), "tok", "p1")
	require.Error(t, err)
	assert.Equal(t, "Not your post", Message(err, "Failed to delete post"))

	c, _, _ = backend(t, http.StatusOK, `{"success":false}`)
	err = c.LikePost(context.Background(), "tok", "p1")
	require.Error(t, err)
	assert.Equal(t, "Failed to like post", Message(err, "Failed to like post"))
}

func TestCreatePostValidatesBeforeSending(t *testing.T) {
	c, _, hits := backend(t, http.StatusOK, `{"success":true}`)

	_, err := c.CreatePost(context.Background(), "tok", PostInput{Title: ""})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, "Title is required", Message(err, ""))

	bad := "not a url"
	_, err = c.CreatePost(context.Background(), "tok", PostInput{Title: "ok", MediaURL: &bad})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = c.CreatePost(context.Background(), "tok", PostInput{
		Title:    "ok",
		Sections: []section.Wire{{Type: "", Order: 0}},
	})
	assert.ErrorIs(t, err, ErrInvalidInput)

	assert.Zero(t, hits.Load())
}

func TestNewPostInput(t *testing.T) {
	secs := section.Sections{
		{Type: section.Image, Src: ptr("b.png"), ImageDetail: []string{"", "c.png"}, Order: 4},
		{Type: section.Text, Content: ptr(""), Order: 1},
	}
	in := NewPostInput("  Title ", " desc ", " news ", "  ", secs, Author{UserID: "u1"})

	assert.Equal(t, "Title", in.Title)
	assert.Equal(t, "news", in.Category)
	assert.Nil(t, in.MediaURL)
	require.Len(t, in.Sections, 2)
	assert.Equal(t, section.Text, in.Sections[0].Type)
	assert.Nil(t, in.Sections[0].Content)
	assert.Equal(t, 1, in.Sections[1].Order)
	assert.Equal(t, []string{"c.png"}, in.Sections[1].ImageDetail)
	require.NoError(t, in.Validate())

	b, err := json.Marshal(in)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(b), `"content":null`), string(b))
}

func TestIDAcceptsNumbers(t *testing.T) {
	var p Post
	require.NoError(t, json.Unmarshal([]byte(`{"postId":42,"title":"x"}`), &p))
	assert.Equal(t, "42", p.ID.String())

	require.NoError(t, json.Unmarshal([]byte(`{"postId":null}`), &p))
	assert.Empty(t, p.ID)
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "api: get post: Not Found", (&Error{Op: "get post", Status: 404}).Error())
	assert.Equal(t, "api: list posts: boom", (&Error{Op: "list posts", Err: errors.New("boom")}).Error())
	assert.Equal(t, "fallback", Message(errors.New("plain"), "fallback"))
}

func ptr(s string) *string { return &s }
