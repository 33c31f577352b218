package section

import (
	"strings"
	"testing"
)

func TestSubmissionFiltersBlankGallery(t *testing.T) {
	s := Sections{
		{Type: Image, Src: strPtr("a.png"), ImageDetail: []string{"", "  ", " b.png ", "c.png", "\t"}, Order: 0},
	}
	wire := s.Submission()
	if len(wire) != 1 {
		t.Fatalf("len = %d, want 1", len(wire))
	}
	got := wire[0].ImageDetail
	if len(got) != 2 || got[0] != "b.png" || got[1] != "c.png" {
		t.Fatalf("imageDetail = %q, want [b.png c.png]", got)
	}
	for _, u := range got {
		if strings.TrimSpace(u) == "" {
			t.Fatalf("blank entry in imageDetail: %q", got)
		}
	}
}

func TestSubmissionCoercesEmptyToNull(t *testing.T) {
	s := Sections{
		{Type: Text, Content: strPtr(""), Order: 0},
		{Type: Link, Src: strPtr("https://example.com"), Order: 1},
		{Type: Video, Order: 2},
	}
	wire := s.Submission()
	if wire[0].Content != nil {
		t.Errorf("empty content should be null, got %q", *wire[0].Content)
	}
	if wire[0].Src != nil {
		t.Errorf("missing src should be null")
	}
	if wire[1].Src == nil || *wire[1].Src != "https://example.com" {
		t.Errorf("link src lost: %v", wire[1].Src)
	}
	if wire[1].Content != nil {
		t.Errorf("missing caption should be null")
	}
	for i, w := range wire {
		if w.ImageDetail == nil {
			t.Errorf("wire[%d].ImageDetail is nil, want empty array", i)
		}
	}
}

func TestSubmissionOrdersDensely(t *testing.T) {
	s := Sections{
		{Type: Image, Src: strPtr("a.png"), Order: 5},
		{Type: Text, Content: strPtr("hello"), Order: 2},
		{Type: Code, Content: strPtr("x"), Order: 5},
	}
	wire := s.Submission()
	want := []Type{Text, Image, Code}
	for i, w := range wire {
		if w.Order != i {
			t.Errorf("wire[%d].Order = %d, want %d", i, w.Order, i)
		}
		if w.Type != want[i] {
			t.Errorf("wire[%d].Type = %q, want %q", i, w.Type, want[i])
		}
	}
	if s[0].Order != 5 {
		t.Error("Submission modified the receiver")
	}
}

func TestSubmissionEmpty(t *testing.T) {
	var s Sections
	wire := s.Submission()
	if wire == nil || len(wire) != 0 {
		t.Fatalf("Submission of empty list = %v, want empty non-nil slice", wire)
	}
}

func TestSubmissionKeepsSectionIDs(t *testing.T) {
	s := Sections{
		{ID: "s-9", Type: Text, Content: strPtr("kept"), Order: 0},
		New(Code, 1),
	}
	wire := s.Submission()
	if wire[0].ID != "s-9" {
		t.Errorf("existing section id = %q, want s-9", wire[0].ID)
	}
	if wire[1].ID != "" {
		t.Errorf("new section id = %q, want empty", wire[1].ID)
	}
}
