package section

import (
	"html"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/a-h/templ"
)

const strippedElements = "script, style, iframe, frame, object, embed, link, meta, base, form"

var urlAttrs = map[string]bool{
	"href":       true,
	"src":        true,
	"action":     true,
	"formaction": true,
	"xlink:href": true,
	"poster":     true,
}

// SanitizeHTML removes active content from an html section: script-like
// elements, on* event attributes and URLs that fail templ's URL check.
// Unparseable input is escaped.
func SanitizeHTML(fragment string) string {
	if strings.TrimSpace(fragment) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return html.EscapeString(fragment)
	}
	doc.Find(strippedElements).Remove()
	doc.Find("body *").Each(func(_ int, sel *goquery.Selection) {
		node := sel.Get(0)
		kept := node.Attr[:0]
		for _, a := range node.Attr {
			key := strings.ToLower(a.Key)
			if strings.HasPrefix(key, "on") {
				continue
			}
			if urlAttrs[key] && string(templ.URL(strings.TrimSpace(a.Val))) == string(templ.FailedSanitizationURL) {
				continue
			}
			kept = append(kept, a)
		}
		node.Attr = kept
	})
	out, err := doc.Find("body").Html()
	if err != nil {
		return html.EscapeString(fragment)
	}
	return out
}
