package api

import (
	"bytes"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/eringen/forumfront/section"
)

// ID is a backend identifier. Older backends send numeric ids, newer ones
// strings; both decode into the same value.
type ID string

// UnmarshalJSON accepts a JSON string, number or null.
func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*id = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string {
	return string(id)
}

// Author identifies who wrote a post.
type Author struct {
	UserID     string `json:"userId"`
	Username   string `json:"username"`
	ProfilePic string `json:"profilePic,omitempty"`
}

// Post is a forum post as returned by the backend.
type Post struct {
	ID            ID               `json:"postId"`
	UserID        string           `json:"userId,omitempty"`
	Title         string           `json:"title"`
	Description   string           `json:"description"`
	Category      string           `json:"category"`
	MediaURL      *string          `json:"mediaUrl"`
	Sections      section.Sections `json:"sections"`
	Author        *Author          `json:"author,omitempty"`
	LikesCount    int              `json:"likesCount"`
	CommentsCount int              `json:"commentsCount"`
	ViewsCount    int              `json:"viewsCount"`
	SharesCount   int              `json:"sharesCount"`
	CreatedAt     string           `json:"createdAt,omitempty"`
	UpdatedAt     string           `json:"updatedAt,omitempty"`
}

// Media returns the header media URL or "".
func (p Post) Media() string {
	if p.MediaURL == nil {
		return ""
	}
	return strings.TrimSpace(*p.MediaURL)
}

// Created parses CreatedAt. ok is false when the backend sent no usable time.
func (p Post) Created() (t time.Time, ok bool) {
	if p.CreatedAt == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, p.CreatedAt); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// AuthorID returns the author's user id, falling back to UserID.
func (p Post) AuthorID() string {
	if p.Author != nil && p.Author.UserID != "" {
		return p.Author.UserID
	}
	return p.UserID
}

// User is the backend's own user record.
type User struct {
	UserID         string            `json:"userId"`
	Username       string            `json:"username"`
	Email          string            `json:"email"`
	ProfilePic     string            `json:"profilePic,omitempty"`
	FollowersCount int               `json:"followersCount"`
	FollowingCount int               `json:"followingCount"`
	Posts          []json.RawMessage `json:"posts"`
}

// ProviderSignIn is the identity handed to the backend after Google sign-in.
type ProviderSignIn struct {
	GoogleID string `json:"googleId"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Image    string `json:"image"`
}

// Verification is the backend's answer to a token check.
type Verification struct {
	Valid bool
	User  *User
}

// PostInput is the body of a create or update request.
type PostInput struct {
	Title       string         `json:"title" validate:"required,max=255"`
	Description string         `json:"description" validate:"max=10000"`
	Category    string         `json:"category" validate:"max=100"`
	MediaURL    *string        `json:"mediaUrl,omitempty" validate:"omitempty,url"`
	Sections    []section.Wire `json:"sections" validate:"dive"`
	Author      Author         `json:"author"`
}

// NewPostInput trims the text fields and serializes sections for submission.
func NewPostInput(title, description, category, mediaURL string, sections section.Sections, author Author) PostInput {
	in := PostInput{
		Title:       strings.TrimSpace(title),
		Description: strings.TrimSpace(description),
		Category:    strings.TrimSpace(category),
		Sections:    sections.Submission(),
		Author:      author,
	}
	if m := strings.TrimSpace(mediaURL); m != "" {
		in.MediaURL = &m
	}
	return in
}
