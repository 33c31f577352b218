// Package section models the body of a forum post: an ordered list of typed
// content blocks that is edited in the composer and rendered on post pages.
//
// Behaviour of a section is decided entirely by its Type. Fields that do not
// apply to a type may be present (they survive edits and round-trips) but
// are ignored when rendering.
package section

import "strings"

// Type is the variant tag of a section.
type Type string

const (
	Text  Type = "text"
	Code  Type = "code"
	HTML  Type = "html"
	Image Type = "image"
	Video Type = "video"
	Link  Type = "link"
)

// Types lists the known section types in the order the composer offers them.
func Types() []Type {
	return []Type{Text, Code, HTML, Image, Video, Link}
}

// Valid reports whether t is one of the known section types.
func (t Type) Valid() bool {
	switch t {
	case Text, Code, HTML, Image, Video, Link:
		return true
	}
	return false
}

// Label returns a capitalized display name, e.g. "Image".
func (t Type) Label() string {
	if t == "" {
		return ""
	}
	if t == HTML {
		return "HTML"
	}
	s := string(t)
	return strings.ToUpper(s[:1]) + s[1:]
}

// Parse normalizes a raw type name. Unknown names are returned as-is so they
// can still be rendered as a placeholder.
func Parse(s string) Type {
	return Type(strings.ToLower(strings.TrimSpace(s)))
}

// usesContent reports whether content is the primary payload for t.
func (t Type) usesContent() bool {
	return t == Text || t == Code || t == HTML
}

// usesSrc reports whether src is the primary payload for t.
func (t Type) usesSrc() bool {
	return t == Image || t == Video || t == Link
}

// Section is one typed block of a post body.
type Section struct {
	ID          string   `json:"sectionId,omitempty"`
	Type        Type     `json:"type"`
	Content     *string  `json:"content"`
	Src         *string  `json:"src"`
	ImageDetail []string `json:"imageDetail,omitempty"`
	Order       int      `json:"order"`
}

// New returns an empty section of type t. Only the fields meaningful for t
// are initialized; image sections start with one blank gallery slot.
func New(t Type, order int) Section {
	s := Section{Type: t, Order: order}
	if t.usesContent() {
		s.Content = strPtr("")
	}
	if t.usesSrc() {
		s.Src = strPtr("")
	}
	if t == Image {
		s.ImageDetail = []string{""}
	}
	return s
}

// ContentText returns the content or "" when absent.
func (s Section) ContentText() string {
	if s.Content == nil {
		return ""
	}
	return *s.Content
}

// SrcText returns the src or "" when absent.
func (s Section) SrcText() string {
	if s.Src == nil {
		return ""
	}
	return *s.Src
}

// Gallery returns the non-blank supplementary image locators, trimmed.
func (s Section) Gallery() []string {
	var out []string
	for _, u := range s.ImageDetail {
		if v := strings.TrimSpace(u); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Patch holds a partial update for a section. Nil fields are left untouched.
type Patch struct {
	Content *string
	Src     *string
}

func strPtr(s string) *string {
	return &s
}
