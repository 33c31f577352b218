package section

import "sort"

// Direction is the way a section moves relative to its neighbours.
type Direction int

const (
	Up Direction = iota
	Down
)

// ParseDirection maps "up"/"down" to a Direction.
func ParseDirection(s string) (Direction, bool) {
	switch s {
	case "up":
		return Up, true
	case "down":
		return Down, true
	}
	return Up, false
}

// Sections is the ordered body of a post. Structural edits (Add, Remove,
// Move) keep Order equal to the array position.
type Sections []Section

// Add appends an empty section of type t at the end of the list.
func (s *Sections) Add(t Type) {
	*s = append(*s, New(t, len(*s)))
}

// Update merges p into the section at i. It does not touch Order.
// Out-of-range indexes are ignored.
func (s Sections) Update(i int, p Patch) bool {
	if i < 0 || i >= len(s) {
		return false
	}
	if p.Content != nil {
		s[i].Content = strPtr(*p.Content)
	}
	if p.Src != nil {
		s[i].Src = strPtr(*p.Src)
	}
	return true
}

// Remove deletes the section at i and renormalizes the rest.
// Out-of-range indexes are ignored.
func (s *Sections) Remove(i int) bool {
	cur := *s
	if i < 0 || i >= len(cur) {
		return false
	}
	out := make(Sections, 0, len(cur)-1)
	out = append(out, cur[:i]...)
	out = append(out, cur[i+1:]...)
	out.Renormalize()
	*s = out
	return true
}

// Move swaps the section at i with its neighbour in direction d. Moving the
// first section up or the last one down is a no-op.
func (s Sections) Move(i int, d Direction) bool {
	if i < 0 || i >= len(s) {
		return false
	}
	j := i - 1
	if d == Down {
		j = i + 1
	}
	if j < 0 || j >= len(s) {
		return false
	}
	s[i], s[j] = s[j], s[i]
	s.Renormalize()
	return true
}

// AddImage appends a blank gallery slot to the image section at i.
func (s Sections) AddImage(i int) bool {
	if !s.isImage(i) {
		return false
	}
	s[i].ImageDetail = append(cloneStrings(s[i].ImageDetail), "")
	return true
}

// UpdateImage sets gallery slot j of the image section at i.
func (s Sections) UpdateImage(i, j int, value string) bool {
	if !s.isImage(i) || j < 0 || j >= len(s[i].ImageDetail) {
		return false
	}
	detail := cloneStrings(s[i].ImageDetail)
	detail[j] = value
	s[i].ImageDetail = detail
	return true
}

// RemoveImage drops gallery slot j of the image section at i.
func (s Sections) RemoveImage(i, j int) bool {
	if !s.isImage(i) || j < 0 || j >= len(s[i].ImageDetail) {
		return false
	}
	detail := make([]string, 0, len(s[i].ImageDetail)-1)
	detail = append(detail, s[i].ImageDetail[:j]...)
	detail = append(detail, s[i].ImageDetail[j+1:]...)
	s[i].ImageDetail = detail
	return true
}

func (s Sections) isImage(i int) bool {
	return i >= 0 && i < len(s) && s[i].Type == Image
}

// Renormalize assigns Order = position to every section.
func (s Sections) Renormalize() {
	for i := range s {
		s[i].Order = i
	}
}

// Sorted returns a copy ordered by ascending Order. Ties keep their original
// relative position.
func (s Sections) Sorted() Sections {
	out := s.Clone()
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Order < out[b].Order
	})
	return out
}

// Clone returns a deep copy of the list. Nil fields stay nil.
func (s Sections) Clone() Sections {
	if s == nil {
		return nil
	}
	out := make(Sections, 0, len(s))
	for _, sec := range s {
		c := sec
		if sec.Content != nil {
			c.Content = strPtr(*sec.Content)
		}
		if sec.Src != nil {
			c.Src = strPtr(*sec.Src)
		}
		c.ImageDetail = cloneStrings(sec.ImageDetail)
		out = append(out, c)
	}
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
