package section

import (
	"math/rand"
	"testing"
)

func assertDense(t *testing.T, s Sections) {
	t.Helper()
	for i, sec := range s {
		if sec.Order != i {
			t.Fatalf("section %d has order %d, want %d (orders: %v)", i, sec.Order, i, orders(s))
		}
	}
}

func orders(s Sections) []int {
	out := make([]int, len(s))
	for i, sec := range s {
		out[i] = sec.Order
	}
	return out
}

func types(s Sections) []Type {
	out := make([]Type, len(s))
	for i, sec := range s {
		out[i] = sec.Type
	}
	return out
}

func TestAddInitializesTypeFields(t *testing.T) {
	var s Sections
	for _, typ := range Types() {
		s.Add(typ)
	}
	assertDense(t, s)

	tests := []struct {
		typ        Type
		hasContent bool
		hasSrc     bool
		slots      int
	}{
		{Text, true, false, 0},
		{Code, true, false, 0},
		{HTML, true, false, 0},
		{Image, false, true, 1},
		{Video, false, true, 0},
		{Link, false, true, 0},
	}
	for i, tt := range tests {
		sec := s[i]
		if sec.Type != tt.typ {
			t.Fatalf("section %d type = %q, want %q", i, sec.Type, tt.typ)
		}
		if (sec.Content != nil) != tt.hasContent {
			t.Errorf("%s: content present = %v, want %v", tt.typ, sec.Content != nil, tt.hasContent)
		}
		if (sec.Src != nil) != tt.hasSrc {
			t.Errorf("%s: src present = %v, want %v", tt.typ, sec.Src != nil, tt.hasSrc)
		}
		if len(sec.ImageDetail) != tt.slots {
			t.Errorf("%s: imageDetail len = %d, want %d", tt.typ, len(sec.ImageDetail), tt.slots)
		}
	}
}

func TestRemoveRenormalizes(t *testing.T) {
	var s Sections
	s.Add(Text)
	s.Add(Image)
	s.Add(Code)
	s.Add(Link)

	if !s.Remove(1) {
		t.Fatal("expected remove to succeed")
	}
	assertDense(t, s)
	got := types(s)
	want := []Type{Text, Code, Link}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("types = %v, want %v", got, want)
		}
	}
}

func TestRemoveOutOfRangeIsNoop(t *testing.T) {
	var s Sections
	s.Add(Text)
	for _, idx := range []int{-1, 1, 10} {
		if s.Remove(idx) {
			t.Errorf("Remove(%d) reported success", idx)
		}
	}
	if len(s) != 1 {
		t.Fatalf("len = %d, want 1", len(s))
	}
}

func TestMoveSwapsNeighbours(t *testing.T) {
	var s Sections
	s.Add(Text)
	s.Add(Code)
	s.Add(Image)

	if !s.Move(2, Up) {
		t.Fatal("expected move up to succeed")
	}
	assertDense(t, s)
	if s[1].Type != Image || s[2].Type != Code {
		t.Fatalf("after move up types = %v", types(s))
	}

	if !s.Move(0, Down) {
		t.Fatal("expected move down to succeed")
	}
	assertDense(t, s)
	if s[0].Type != Image || s[1].Type != Text {
		t.Fatalf("after move down types = %v", types(s))
	}
}

func TestMoveAtBoundaryIsNoop(t *testing.T) {
	var s Sections
	s.Add(Text)
	s.Add(Code)
	s.Add(Link)
	before := types(s)

	if s.Move(0, Up) {
		t.Error("moving the first section up should be a no-op")
	}
	if s.Move(len(s)-1, Down) {
		t.Error("moving the last section down should be a no-op")
	}
	after := types(s)
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("list changed: %v -> %v", before, after)
		}
	}
	assertDense(t, s)
}

func TestRandomEditsKeepOrderDense(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	all := Types()
	var s Sections
	for step := 0; step < 500; step++ {
		switch rng.Intn(3) {
		case 0:
			s.Add(all[rng.Intn(len(all))])
		case 1:
			s.Remove(rng.Intn(len(s) + 1))
		case 2:
			if len(s) > 0 {
				d := Up
				if rng.Intn(2) == 1 {
					d = Down
				}
				s.Move(rng.Intn(len(s)), d)
			}
		}
		assertDense(t, s)
	}
}

func TestUpdateMergesWithoutRenormalizing(t *testing.T) {
	var s Sections
	s.Add(Text)
	s.Add(Link)
	s[1].Order = 7

	content := "hello"
	if !s.Update(0, Patch{Content: &content}) {
		t.Fatal("expected update to succeed")
	}
	if s[0].ContentText() != "hello" {
		t.Errorf("content = %q, want hello", s[0].ContentText())
	}
	if s[1].Order != 7 {
		t.Errorf("update renormalized order: got %d", s[1].Order)
	}

	// src on a text section is stored but irrelevant.
	src := "https://example.com"
	if !s.Update(0, Patch{Src: &src}) {
		t.Fatal("expected irrelevant field update to be accepted")
	}
	if s[0].SrcText() != src {
		t.Errorf("src = %q, want %q", s[0].SrcText(), src)
	}
	if s.Update(5, Patch{Content: &content}) {
		t.Error("out-of-range update should report false")
	}
}

func TestSupplementaryImages(t *testing.T) {
	var s Sections
	s.Add(Image)
	s.Add(Text)

	if !s.AddImage(0) {
		t.Fatal("AddImage on image section failed")
	}
	if len(s[0].ImageDetail) != 2 {
		t.Fatalf("imageDetail len = %d, want 2", len(s[0].ImageDetail))
	}
	if !s.UpdateImage(0, 1, "b.png") {
		t.Fatal("UpdateImage failed")
	}
	if s[0].ImageDetail[1] != "b.png" {
		t.Errorf("imageDetail[1] = %q", s[0].ImageDetail[1])
	}
	if !s.RemoveImage(0, 0) {
		t.Fatal("RemoveImage failed")
	}
	if len(s[0].ImageDetail) != 1 || s[0].ImageDetail[0] != "b.png" {
		t.Errorf("imageDetail = %v, want [b.png]", s[0].ImageDetail)
	}

	// Non-image targets and bad indexes are ignored.
	if s.AddImage(1) || s.UpdateImage(1, 0, "x") || s.RemoveImage(1, 0) {
		t.Error("image operations on a text section should be no-ops")
	}
	if s[1].ImageDetail != nil {
		t.Errorf("text section gained imageDetail: %v", s[1].ImageDetail)
	}
	if s.UpdateImage(0, 3, "x") || s.RemoveImage(0, -1) || s.AddImage(9) {
		t.Error("out-of-range image operations should be no-ops")
	}
}

func TestSortedIsStableOnTies(t *testing.T) {
	s := Sections{
		{Type: Text, Content: strPtr("b"), Order: 1},
		{Type: Text, Content: strPtr("a"), Order: 0},
		{Type: Text, Content: strPtr("c"), Order: 1},
	}
	got := s.Sorted()
	want := []string{"a", "b", "c"}
	for i, w := range want {
		if got[i].ContentText() != w {
			t.Fatalf("sorted[%d] = %q, want %q", i, got[i].ContentText(), w)
		}
	}
	if s[0].ContentText() != "b" {
		t.Error("Sorted modified the receiver")
	}
}

func TestCloneIsDeep(t *testing.T) {
	var s Sections
	s.Add(Image)
	s.UpdateImage(0, 0, "a.png")
	c := s.Clone()
	src := "changed"
	c.Update(0, Patch{Src: &src})
	c.UpdateImage(0, 0, "z.png")
	if s[0].SrcText() != "" {
		t.Errorf("clone shares src with original")
	}
	if s[0].ImageDetail[0] != "a.png" {
		t.Errorf("clone shares imageDetail with original")
	}

	bare := Sections{{Type: Text, Order: 0}}.Clone()
	if bare[0].Content != nil || bare[0].Src != nil || bare[0].ImageDetail != nil {
		t.Errorf("clone filled absent fields: %+v", bare[0])
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		in    string
		want  Type
		valid bool
	}{
		{"text", Text, true},
		{" Image ", Image, true},
		{"HTML", HTML, true},
		{"poll", Type("poll"), false},
		{"", Type(""), false},
	}
	for _, tt := range tests {
		got := Parse(tt.in)
		if got != tt.want {
			t.Errorf("Parse(%q) = %q, want %q", tt.in, got, tt.want)
		}
		if got.Valid() != tt.valid {
			t.Errorf("Parse(%q).Valid() = %v, want %v", tt.in, got.Valid(), tt.valid)
		}
	}
}
