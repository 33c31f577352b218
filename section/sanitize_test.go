package section

import (
	"strings"
	"testing"
)

func TestSanitizeHTML(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		absent  []string
		present []string
	}{
		{
			name:    "script removed",
			input:   `<p>hi</p><script>alert(1)</script>`,
			absent:  []string{"<script", "alert"},
			present: []string{"<p>hi</p>"},
		},
		{
			name:    "event handler stripped",
			input:   `<img src="a.png" onerror="alert(1)"/>`,
			absent:  []string{"onerror"},
			present: []string{`src="a.png"`},
		},
		{
			name:    "javascript href stripped",
			input:   `<a href="javascript:alert(1)">x</a>`,
			absent:  []string{"javascript:"},
			present: []string{">x</a>"},
		},
		{
			name:    "iframe removed",
			input:   `<iframe src="https://evil.example"></iframe><em>ok</em>`,
			absent:  []string{"iframe"},
			present: []string{"<em>ok</em>"},
		},
		{
			name:    "safe link kept",
			input:   `<a href="https://example.com">x</a>`,
			present: []string{`href="https://example.com"`},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizeHTML(tt.input)
			for _, s := range tt.absent {
				if strings.Contains(got, s) {
					t.Errorf("SanitizeHTML(%q) = %q, should not contain %q", tt.input, got, s)
				}
			}
			for _, s := range tt.present {
				if !strings.Contains(got, s) {
					t.Errorf("SanitizeHTML(%q) = %q, should contain %q", tt.input, got, s)
				}
			}
		})
	}
}

func TestSanitizeHTMLEmpty(t *testing.T) {
	if got := SanitizeHTML("   "); got != "" {
		t.Errorf("SanitizeHTML(blank) = %q, want empty", got)
	}
}
