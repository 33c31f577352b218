package section

// Wire is the form of a section sent to the backend on create and update.
type Wire struct {
	ID          string   `json:"sectionId,omitempty"`
	Type        Type     `json:"type" validate:"required"`
	Content     *string  `json:"content"`
	Src         *string  `json:"src"`
	ImageDetail []string `json:"imageDetail"`
	Order       int      `json:"order" validate:"gte=0"`
}

// Submission converts the list to its wire form. Sections are emitted in
// display order with a dense zero-based Order, blank gallery entries are
// dropped, and empty content or src become null.
func (s Sections) Submission() []Wire {
	sorted := s.Sorted()
	out := make([]Wire, 0, len(sorted))
	for i, sec := range sorted {
		out = append(out, Wire{
			ID:          sec.ID,
			Type:        sec.Type,
			Content:     nullable(sec.Content),
			Src:         nullable(sec.Src),
			ImageDetail: nonNil(sec.Gallery()),
			Order:       i,
		})
	}
	return out
}

func nullable(v *string) *string {
	if v == nil || *v == "" {
		return nil
	}
	return strPtr(*v)
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
